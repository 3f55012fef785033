package tui

import (
	"sort"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap/zaptest"

	"github.com/walkpoints/walkpoints/internal/config"
	"github.com/walkpoints/walkpoints/internal/database"
	"github.com/walkpoints/walkpoints/internal/navvis"
	"github.com/walkpoints/walkpoints/internal/routing"
)

// fakeScheduler fires callbacks synchronously from Advance, standing in
// for the update loop draining posted timeouts.
type fakeScheduler struct {
	now    time.Duration
	timers []*fakeTimer
}

type fakeTimer struct {
	at      time.Duration
	f       func()
	stopped bool
	fired   bool
}

func (t *fakeTimer) Stop() bool {
	live := !t.stopped && !t.fired
	t.stopped = true
	return live
}

func (s *fakeScheduler) AfterFunc(d time.Duration, f func()) navvis.Stopper {
	t := &fakeTimer{at: s.now + d, f: f}
	s.timers = append(s.timers, t)
	return t
}

// Advance moves the clock forward, firing due callbacks in deadline order.
func (s *fakeScheduler) Advance(d time.Duration) {
	target := s.now + d
	for {
		var due []*fakeTimer
		for _, t := range s.timers {
			if !t.stopped && !t.fired && t.at <= target {
				due = append(due, t)
			}
		}
		if len(due) == 0 {
			break
		}
		sort.Slice(due, func(i, j int) bool { return due[i].at < due[j].at })
		next := due[0]
		s.now = next.at
		next.fired = true
		next.f()
	}
	s.now = target
}

// Live counts armed countdowns.
func (s *fakeScheduler) Live() int {
	n := 0
	for _, t := range s.timers {
		if !t.stopped && !t.fired {
			n++
		}
	}
	return n
}

func newTestStore(t *testing.T) *database.DBService {
	t.Helper()
	svc, err := database.NewDBService(":memory:")
	if err != nil {
		t.Fatalf("NewDBService failed: %v", err)
	}
	t.Cleanup(func() { svc.Close() })
	return svc
}

// navConfig returns nav settings with instant show and hide, so tests
// observe the bar without driving animation frames.
func navConfig(timeout time.Duration) config.NavConfig {
	return config.NavConfig{
		AutoHide:            true,
		InactivityTimeoutMs: int(timeout / time.Millisecond),
	}
}

func newTestStack(t *testing.T, role routing.Role, timeout time.Duration) (*Stack, *fakeScheduler) {
	t.Helper()
	sched := &fakeScheduler{}
	store := newTestStore(t)
	acts := actions{store: store, now: time.Now, log: zaptest.NewLogger(t)}
	s := NewStack(t.Context(), role, stackOptions{
		nav:   navConfig(timeout),
		sched: sched,
		deps:  screenDeps{acts: acts, now: time.Now, inactivityTimeout: timeout},
	})
	t.Cleanup(s.Unmount)
	s.SetSize(80, 20)

	snap, err := acts.snapshot()
	if err != nil {
		t.Fatalf("snapshot failed: %v", err)
	}
	s.SetData(snap)
	return s, sched
}

func keyPress(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "shift+tab":
		return tea.KeyMsg{Type: tea.KeyShiftTab}
	case "ctrl+c":
		return tea.KeyMsg{Type: tea.KeyCtrlC}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "left":
		return tea.KeyMsg{Type: tea.KeyLeft}
	case "right":
		return tea.KeyMsg{Type: tea.KeyRight}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func leftClick(x, y int) tea.MouseMsg {
	return tea.MouseMsg{X: x, Y: y, Action: tea.MouseActionPress, Button: tea.MouseButtonLeft}
}
