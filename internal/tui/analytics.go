package tui

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/dustin/go-humanize"

	"github.com/walkpoints/walkpoints/internal/analysis"
	"github.com/walkpoints/walkpoints/internal/database"
	"github.com/walkpoints/walkpoints/pkg/timeutil"
)

// analyticsScreen shows step analytics for a selectable period in a
// scrollable viewport.
type analyticsScreen struct {
	snap   *Snapshot
	period int
	vp     viewport.Model
	now    func() time.Time
}

func newAnalyticsScreen(now func() time.Time) *analyticsScreen {
	return &analyticsScreen{vp: viewport.New(0, 0), now: now}
}

func (s *analyticsScreen) SetData(snap *Snapshot) { s.snap = snap }

func (s *analyticsScreen) Reset() {
	s.period = 0
	s.vp.GotoTop()
}

func (s *analyticsScreen) Capturing() bool { return false }

func (s *analyticsScreen) Hints() []key.Binding {
	return []key.Binding{keys.Period, keys.Up, keys.Down}
}

func (s *analyticsScreen) Update(msg tea.Msg) tea.Cmd {
	if msg, ok := msg.(tea.KeyMsg); ok && key.Matches(msg, keys.Period) {
		s.period = cycle(s.period, 1, len(analysis.Periods))
		s.vp.GotoTop()
		return nil
	}
	var cmd tea.Cmd
	s.vp, cmd = s.vp.Update(msg)
	return cmd
}

// daysSince returns the days on or after since; nil since keeps all.
func daysSince(days []*database.DailyActivity, since *string) []*database.DailyActivity {
	if since == nil {
		return days
	}
	var out []*database.DailyActivity
	for _, d := range days {
		if d.Day >= *since {
			out = append(out, d)
		}
	}
	return out
}

func (s *analyticsScreen) report() *analysis.Report {
	today := s.now()
	period := analysis.Periods[s.period]
	days := daysSince(s.snap.Days, period.Since(today))
	recentSince := timeutil.DaysAgo(today, 13)
	recent := daysSince(s.snap.Days, &recentSince)
	return analysis.BuildReport(period, s.snap.Profile.DailyGoal, days, recent, today)
}

func (s *analyticsScreen) View(width, height int) string {
	if s.snap == nil {
		return loadingView(width, height)
	}
	r := s.report()

	labels := make([]string, len(analysis.Periods))
	for i, p := range analysis.Periods {
		labels[i] = p.Label()
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("Analytics"))
	b.WriteString("\n")
	b.WriteString(renderSubTabs(labels, s.period))
	b.WriteString("\n")

	sum := r.Summary
	b.WriteString(sectionStyle.Render("Totals"))
	b.WriteString("\n")
	b.WriteString(statLine("Steps", humanize.Comma(int64(sum.TotalSteps))))
	b.WriteString(statLine("Distance", timeutil.FormatDistance(sum.TotalDistanceM)))
	b.WriteString(statLine("Active time", timeutil.FormatMinutes(sum.TotalActiveMinutes)))
	b.WriteString(statLine("Daily average", humanize.Comma(int64(math.Round(sum.AverageSteps)))))
	b.WriteString(statLine("Goal reached", fmt.Sprintf("%d of %d days (%.0f%%)", sum.GoalDays, sum.Days, sum.GoalHitRate)))

	b.WriteString(sectionStyle.Render("Weekly pattern"))
	b.WriteString("\n")
	chartWidth := maxInt(10, minInt(40, width-24))
	for _, bar := range r.Pattern {
		n := int(math.Round(bar.Normalized * float64(chartWidth)))
		style := chartBarStyle
		if bar.Normalized == 1 {
			style = chartBarPeakStyle
		}
		b.WriteString(fmt.Sprintf("%s %s %s\n",
			labelStyle.Render(bar.Label),
			style.Render(strings.Repeat("█", n)+strings.Repeat("░", chartWidth-n)),
			mutedStyle.Render(humanize.Comma(int64(bar.AverageSteps)))))
	}

	b.WriteString(sectionStyle.Render("Insights"))
	b.WriteString("\n")
	if r.HasWeekOverWeek {
		style, arrow := goodStyle, "▲"
		if r.WeekOverWeek < 0 {
			style, arrow = badStyle, "▼"
		}
		b.WriteString(statLine("Week over week", style.Render(fmt.Sprintf("%s %.1f%%", arrow, math.Abs(r.WeekOverWeek)))))
	} else {
		b.WriteString(statLine("Week over week", mutedStyle.Render("not enough data")))
	}
	b.WriteString(statLine("Trend", trendText(r.Trend)))
	if sum.BestSteps > 0 {
		b.WriteString(statLine("Best day", fmt.Sprintf("%s  %s steps", sum.BestDay, humanize.Comma(int64(sum.BestSteps)))))
	}
	for _, sd := range r.Standouts {
		b.WriteString(statLine("Standout", fmt.Sprintf("%s  %s steps  z=%.2f", sd.Day, humanize.Comma(int64(sd.Steps)), sd.ZScore)))
	}

	s.vp.Width = width
	s.vp.Height = maxInt(1, height)
	s.vp.SetContent(screenStyle.Render(b.String()))
	return fitHeight(s.vp.View(), height)
}

func statLine(label, value string) string {
	return fmt.Sprintf("%s %s\n", labelStyle.Width(16).Render(label), valueStyle.Render(value))
}

func trendText(t analysis.Trend) string {
	switch t.Direction {
	case "up":
		return goodStyle.Render(fmt.Sprintf("▲ +%.0f steps/day", t.Slope))
	case "down":
		return badStyle.Render(fmt.Sprintf("▼ %.0f steps/day", t.Slope))
	}
	return mutedStyle.Render("steady")
}
