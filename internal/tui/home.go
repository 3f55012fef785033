package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/dustin/go-humanize"

	"github.com/walkpoints/walkpoints/internal/analysis"
	"github.com/walkpoints/walkpoints/internal/database"
	"github.com/walkpoints/walkpoints/internal/routing"
	"github.com/walkpoints/walkpoints/pkg/timeutil"
)

// homeScreen is the walker's landing tab: today's progress toward the
// daily goal and what is next.
type homeScreen struct {
	snap     *Snapshot
	progress progress.Model
	now      func() time.Time
}

func newHomeScreen(now func() time.Time) *homeScreen {
	return &homeScreen{
		progress: progress.New(
			progress.WithSolidFill(string(colorGreen)),
			progress.WithoutPercentage(),
		),
		now: now,
	}
}

func (s *homeScreen) SetData(snap *Snapshot) { s.snap = snap }
func (s *homeScreen) Reset()                 {}
func (s *homeScreen) Capturing() bool        { return false }

func (s *homeScreen) Hints() []key.Binding {
	return []key.Binding{
		key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "rewards")),
	}
}

func (s *homeScreen) Update(msg tea.Msg) tea.Cmd {
	if msg, ok := msg.(tea.KeyMsg); ok && key.Matches(msg, keys.Select) {
		return navigate(routing.TabRewards)
	}
	return nil
}

// greeting picks the salutation for the hour of day.
func greeting(t time.Time) string {
	switch h := t.Hour(); {
	case h < 12:
		return "Good morning"
	case h < 18:
		return "Good afternoon"
	default:
		return "Good evening"
	}
}

func (s *homeScreen) View(width, height int) string {
	if s.snap == nil {
		return loadingView(width, height)
	}
	p := s.snap.Profile
	inner := maxInt(10, width-4)

	var b strings.Builder
	b.WriteString(titleStyle.Render(fmt.Sprintf("%s, %s", greeting(s.now()), p.Name)))
	b.WriteString("  ")
	b.WriteString(pointsStyle.Render(fmt.Sprintf("★ %s pts", humanize.Comma(int64(p.Points)))))
	b.WriteString("\n")

	steps := s.snap.TodaySteps()
	frac := analysis.GoalProgress(steps, p.DailyGoal)
	b.WriteString(sectionStyle.Render("Today"))
	b.WriteString("\n")
	b.WriteString(valueStyle.Render(humanize.Comma(int64(steps))))
	b.WriteString(labelStyle.Render(fmt.Sprintf(" / %s steps", humanize.Comma(int64(p.DailyGoal)))))
	pct := labelStyle
	if frac >= 1 {
		pct = goodStyle
	}
	b.WriteString("  " + pct.Render(fmt.Sprintf("%.0f%%", frac*100)))
	b.WriteString("\n")

	s.progress.Width = minInt(inner, 60)
	b.WriteString(s.progress.ViewAs(frac))
	b.WriteString("\n")

	var dist float64
	var minutes int
	if t := s.snap.Today; t != nil {
		dist, minutes = t.DistanceM, t.ActiveMinutes
	}
	b.WriteString(labelStyle.Render("Distance ") + valueStyle.Render(timeutil.FormatDistance(dist)))
	b.WriteString(labelStyle.Render("   Active ") + valueStyle.Render(timeutil.FormatMinutes(minutes)))
	b.WriteString("\n")

	if m := nextMilestone(s.snap.Milestones); m != nil {
		b.WriteString(sectionStyle.Render("Next milestone"))
		b.WriteString("\n")
		b.WriteString(fmt.Sprintf("%s  %s  %s\n",
			valueStyle.Render(humanize.Comma(int64(m.TargetSteps))+" steps"),
			labelStyle.Render(fmt.Sprintf("%s / %s", humanize.Comma(int64(m.CurrentSteps)), humanize.Comma(int64(m.TargetSteps)))),
			pointsStyle.Render(fmt.Sprintf("+%d pts", m.Points))))
	}

	if len(s.snap.Redemptions) > 0 {
		b.WriteString(sectionStyle.Render("Recent redemptions"))
		b.WriteString("\n")
		for _, r := range s.snap.Redemptions[:minInt(3, len(s.snap.Redemptions))] {
			b.WriteString(fmt.Sprintf("%s  %s  %s\n",
				truncate(r.RewardTitle, inner/2),
				accentStyle.Render(r.Code),
				mutedStyle.Render(timeutil.RelativeTime(r.RedeemedAt, s.now()))))
		}
	}

	return fitHeight(screenStyle.Render(b.String()), height)
}

// nextMilestone returns the in-progress milestone closest to completion.
func nextMilestone(ms []*database.Milestone) *database.Milestone {
	var best *database.Milestone
	for _, m := range ms {
		if m.Status != database.MilestoneInProgress {
			continue
		}
		if best == nil || m.TargetSteps-m.CurrentSteps < best.TargetSteps-best.CurrentSteps {
			best = m
		}
	}
	return best
}
