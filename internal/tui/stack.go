package tui

import (
	"context"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/walkpoints/walkpoints/internal/config"
	"github.com/walkpoints/walkpoints/internal/navvis"
	"github.com/walkpoints/walkpoints/internal/routing"
)

// Stack is one mounted tab navigator: a router, its screens, the tab bar
// and the visibility provider scoped to them. Each role gets its own
// stack; switching roles unmounts one and mounts the other.
type Stack struct {
	ctx      context.Context
	provider *navvis.Provider
	router   *routing.Router
	bar      *TabBar
	box      container
	screens  map[routing.TabRoute]Screen
	log      *zap.Logger

	unsubscribe func()
	width       int
	height      int
}

// stackOptions configures NewStack.
type stackOptions struct {
	nav   config.NavConfig
	sched navvis.Scheduler
	deps  screenDeps
	log   *zap.Logger
}

// NewStack builds and mounts the stack for role. The provider is
// injected into the stack's context, where the container looks it up.
func NewStack(ctx context.Context, role routing.Role, opts stackOptions) *Stack {
	log := opts.log
	if log == nil {
		log = zap.NewNop()
	}
	log = log.With(zap.String("stack", string(role)))

	s := &Stack{
		provider: navvis.NewProvider(opts.nav.ProviderConfig(), opts.sched, log),
		router:   routing.NewRouter(role),
		screens:  newScreens(role, opts.deps),
		log:      log,
	}
	s.bar = NewTabBar(s.router.Tabs(), s.router.Active(), s.onTabChange, opts.nav.Animation())
	s.router.OnChange(func(from, to routing.TabRoute) {
		s.bar.SetActive(to)
		if scr, ok := s.screens[from]; ok {
			scr.Reset()
		}
		s.log.Debug("tab changed", zap.String("from", string(from)), zap.String("to", string(to)))
	})

	s.provider.Mount()
	s.unsubscribe = s.provider.Subscribe(s.bar.SetVisible)
	s.ctx = navvis.WithProvider(ctx, s.provider)
	s.box = container{ctx: s.ctx, bar: s.bar}
	return s
}

// onTabChange is the bar's callback. A tab tap is activity, so it shows
// the bar and restarts the countdown even when the route is unchanged.
func (s *Stack) onTabChange(tabID string) {
	if err := s.router.Navigate(tabID); err != nil {
		s.log.Warn("ignoring tab change", zap.String("tab", tabID), zap.Error(err))
	}
	s.provider.ResetInactivityTimer()
}

// Unmount cancels the countdown and detaches the bar. Safe to repeat.
func (s *Stack) Unmount() {
	if s.unsubscribe != nil {
		s.unsubscribe()
		s.unsubscribe = nil
	}
	s.provider.Unmount()
}

func (s *Stack) Role() routing.Role         { return s.router.Role() }
func (s *Stack) Active() routing.TabRoute   { return s.router.Active() }
func (s *Stack) Provider() *navvis.Provider { return s.provider }
func (s *Stack) Bar() *TabBar               { return s.bar }
func (s *Stack) Screen() Screen             { return s.screens[s.router.Active()] }
func (s *Stack) SetSize(width, height int)  { s.width, s.height = width, height }
func (s *Stack) Capturing() bool            { return s.Screen().Capturing() }
func (s *Stack) Hints() []key.Binding       { return s.Screen().Hints() }
func (s *Stack) Context() context.Context   { return s.ctx }

// Restore activates route without counting as user activity. Used when a
// stack is rebuilt, for example after a config change.
func (s *Stack) Restore(route routing.TabRoute) {
	if err := s.router.Navigate(string(route)); err != nil {
		s.log.Debug("route not restored", zap.String("route", string(route)), zap.Error(err))
	}
}

// SetData hands a new snapshot to every screen.
func (s *Stack) SetData(snap *Snapshot) {
	for _, scr := range s.screens {
		scr.SetData(snap)
	}
}

// Update routes msg. Mouse coordinates are relative to the stack body.
func (s *Stack) Update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	switch msg := msg.(type) {
	case frameMsg:
		return s.bar.Update(msg)

	case navigateMsg:
		s.bar.Select(string(msg.tab))

	case tea.MouseMsg:
		// Hit-test against the bar as rendered before this event; the
		// touch below may already bring a hidden bar back.
		tabID, hit := "", false
		if msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButtonLeft {
			tabID, hit = s.bar.HitTest(msg.X, msg.Y, s.width, s.height)
		}
		s.box.touch(msg)
		if !hit {
			cmd = s.Screen().Update(msg)
		} else if tabID != "" {
			s.bar.Select(tabID)
		}

	case tea.KeyMsg:
		s.box.touch(msg)
		if !s.Screen().Capturing() && s.handleTabKey(msg) {
			break
		}
		cmd = s.Screen().Update(msg)

	default:
		cmd = s.Screen().Update(msg)
	}
	return tea.Batch(cmd, s.bar.Kick())
}

// handleTabKey maps number keys and tab/shift+tab onto bar taps.
func (s *Stack) handleTabKey(msg tea.KeyMsg) bool {
	n := len(s.router.Tabs())
	switch {
	case key.Matches(msg, keys.JumpTab):
		return s.bar.SelectIndex(int(msg.String()[0] - '1'))
	case key.Matches(msg, keys.NextTab):
		return s.bar.SelectIndex(cycle(s.router.ActiveIndex(), 1, n))
	case key.Matches(msg, keys.PrevTab):
		return s.bar.SelectIndex(cycle(s.router.ActiveIndex(), -1, n))
	}
	return false
}

// View renders the body: the active screen with the bar overlaid.
func (s *Stack) View() string {
	return s.box.View(s.Screen(), s.width, s.height)
}
