package tui

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/dustin/go-humanize"

	"github.com/walkpoints/walkpoints/internal/analysis"
	"github.com/walkpoints/walkpoints/internal/database"
	"github.com/walkpoints/walkpoints/internal/routing"
)

// ────────────────────────────────────────────────────────────
// Dashboard
// ────────────────────────────────────────────────────────────

type dashboardScreen struct {
	snap *Snapshot
}

func newDashboardScreen() *dashboardScreen { return &dashboardScreen{} }

func (s *dashboardScreen) SetData(snap *Snapshot) { s.snap = snap }
func (s *dashboardScreen) Reset()                 {}
func (s *dashboardScreen) Capturing() bool        { return false }

func (s *dashboardScreen) Hints() []key.Binding {
	return []key.Binding{
		key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "manage rewards")),
	}
}

func (s *dashboardScreen) Update(msg tea.Msg) tea.Cmd {
	if msg, ok := msg.(tea.KeyMsg); ok && key.Matches(msg, keys.Select) {
		return navigate(routing.TabRewards)
	}
	return nil
}

func (s *dashboardScreen) View(width, height int) string {
	if s.snap == nil {
		return loadingView(width, height)
	}

	var active, total int
	for _, r := range s.snap.Rewards {
		if r.Active {
			active++
		}
		total += r.Redemptions
	}
	week := analysis.TallyRedemptions(s.snap.Redemptions, s.snap.LoadedAt.AddDate(0, 0, -7).UnixNano())

	var b strings.Builder
	b.WriteString(titleStyle.Render("Welcome back, " + s.snap.Profile.Name))
	b.WriteString("\n")
	b.WriteString(subtitleStyle.Render("Here is how your rewards are doing."))
	b.WriteString("\n")

	cards := []string{
		dashCard("Active rewards", fmt.Sprintf("%d / %d", active, len(s.snap.Rewards))),
		dashCard("Total redemptions", humanize.Comma(int64(total))),
		dashCard("This week", humanize.Comma(int64(week.Count))),
	}
	if width >= 66 {
		b.WriteString("\n" + strings.Join(cards, " ") + "\n")
	} else {
		b.WriteString("\n" + strings.Join(cards, "\n") + "\n")
	}

	if top := analysis.TopRewards(s.snap.Rewards, 1); len(top) > 0 && top[0].Redemptions > 0 {
		b.WriteString(sectionStyle.Render("Top reward"))
		b.WriteString("\n")
		b.WriteString(fmt.Sprintf("%s  %s\n",
			valueStyle.Render(top[0].Title),
			labelStyle.Render(fmt.Sprintf("%s redemptions (%.1f%%)", humanize.Comma(int64(top[0].Redemptions)), top[0].Percentage))))
	}
	return fitHeight(screenStyle.Render(b.String()), height)
}

func dashCard(label, value string) string {
	return cardStyle.Width(20).Render(labelStyle.Render(label) + "\n" + valueStyle.Render(value))
}

// ────────────────────────────────────────────────────────────
// Business analytics
// ────────────────────────────────────────────────────────────

type businessAnalyticsScreen struct {
	snap   *Snapshot
	period int
	now    func() time.Time
}

func newBusinessAnalyticsScreen(now func() time.Time) *businessAnalyticsScreen {
	return &businessAnalyticsScreen{now: now}
}

func (s *businessAnalyticsScreen) SetData(snap *Snapshot) { s.snap = snap }
func (s *businessAnalyticsScreen) Reset()                 { s.period = 0 }
func (s *businessAnalyticsScreen) Capturing() bool        { return false }
func (s *businessAnalyticsScreen) Hints() []key.Binding   { return []key.Binding{keys.Period} }

func (s *businessAnalyticsScreen) Update(msg tea.Msg) tea.Cmd {
	if msg, ok := msg.(tea.KeyMsg); ok && key.Matches(msg, keys.Period) {
		s.period = cycle(s.period, 1, len(analysis.Periods))
	}
	return nil
}

func (s *businessAnalyticsScreen) View(width, height int) string {
	if s.snap == nil {
		return loadingView(width, height)
	}
	period := analysis.Periods[s.period]
	var since int64
	if n := period.Days(); n > 0 {
		since = s.now().AddDate(0, 0, -n).UnixNano()
	}
	tally := analysis.TallyRedemptions(s.snap.Redemptions, since)

	labels := make([]string, len(analysis.Periods))
	for i, p := range analysis.Periods {
		labels[i] = p.Label()
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("Analytics"))
	b.WriteString("\n")
	b.WriteString(renderSubTabs(labels, s.period))
	b.WriteString("\n")
	b.WriteString(sectionStyle.Render("Redemptions"))
	b.WriteString("\n")
	b.WriteString(statLine("Count", humanize.Comma(int64(tally.Count))))
	b.WriteString(statLine("Points spent", humanize.Comma(int64(tally.Points))))

	b.WriteString(sectionStyle.Render("Top rewards"))
	b.WriteString("\n")
	chartWidth := maxInt(10, minInt(30, width-36))
	for _, share := range analysis.TopRewards(s.snap.Rewards, 5) {
		n := int(math.Round(share.Percentage / 100 * float64(chartWidth)))
		b.WriteString(fmt.Sprintf("%s %s %s\n",
			labelStyle.Width(18).Render(truncate(share.Title, 18)),
			chartBarStyle.Render(strings.Repeat("█", n)+strings.Repeat("░", chartWidth-n)),
			mutedStyle.Render(fmt.Sprintf("%d (%.1f%%)", share.Redemptions, share.Percentage))))
	}
	return fitHeight(screenStyle.Render(b.String()), height)
}

// ────────────────────────────────────────────────────────────
// Reward management
// ────────────────────────────────────────────────────────────

const (
	sectionActive = iota
	sectionInactive
)

var manageSections = []string{"Active", "Inactive"}

type manageRewardsScreen struct {
	acts    actions
	snap    *Snapshot
	section int
	cursor  int
}

func newManageRewardsScreen(acts actions) *manageRewardsScreen {
	return &manageRewardsScreen{acts: acts}
}

func (s *manageRewardsScreen) SetData(snap *Snapshot) {
	s.snap = snap
	s.cursor = clamp(s.cursor, 0, maxInt(0, len(s.visible())-1))
}

func (s *manageRewardsScreen) Reset() {
	s.section = sectionActive
	s.cursor = 0
}

func (s *manageRewardsScreen) Capturing() bool { return false }

func (s *manageRewardsScreen) Hints() []key.Binding {
	return []key.Binding{keys.SubTab, keys.Toggle}
}

func (s *manageRewardsScreen) visible() []*database.Reward {
	if s.snap == nil {
		return nil
	}
	var out []*database.Reward
	for _, r := range s.snap.Rewards {
		if r.Active == (s.section == sectionActive) {
			out = append(out, r)
		}
	}
	return out
}

func (s *manageRewardsScreen) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.SubTab):
			delta := 1
			if msg.String() == "[" {
				delta = -1
			}
			s.section = cycle(s.section, delta, len(manageSections))
			s.cursor = 0
		case key.Matches(msg, keys.Up):
			s.cursor = maxInt(0, s.cursor-1)
		case key.Matches(msg, keys.Down):
			s.cursor = clamp(s.cursor+1, 0, maxInt(0, len(s.visible())-1))
		case key.Matches(msg, keys.Toggle):
			if items := s.visible(); s.cursor < len(items) {
				return s.acts.toggleReward(items[s.cursor])
			}
		}
	case tea.MouseMsg:
		switch msg.Button {
		case tea.MouseButtonWheelUp:
			s.cursor = maxInt(0, s.cursor-1)
		case tea.MouseButtonWheelDown:
			s.cursor = clamp(s.cursor+1, 0, maxInt(0, len(s.visible())-1))
		}
	}
	return nil
}

func (s *manageRewardsScreen) View(width, height int) string {
	if s.snap == nil {
		return loadingView(width, height)
	}
	inner := maxInt(10, width-4)
	total := 0
	for _, r := range s.snap.Rewards {
		total += r.Redemptions
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("Rewards"))
	b.WriteString("  ")
	b.WriteString(labelStyle.Render(fmt.Sprintf("%s total redemptions", humanize.Comma(int64(total)))))
	b.WriteString("\n")
	b.WriteString(renderSubTabs(manageSections, s.section))
	b.WriteString("\n")

	items := s.visible()
	if len(items) == 0 {
		b.WriteString(emptyStateStyle.Render("No rewards in this section."))
	}
	room := maxInt(1, (height-3)/2)
	start := 0
	if s.cursor >= room {
		start = s.cursor - room + 1
	}
	for i := start; i < len(items) && i < start+room; i++ {
		r := items[i]
		style := itemStyle
		if i == s.cursor {
			style = itemSelectedStyle
		}
		b.WriteString(style.Render(truncate(r.Title, inner-2)))
		b.WriteString("\n  ")
		b.WriteString(fmt.Sprintf("%s  %s  %s\n",
			pointsStyle.Render(fmt.Sprintf("%s pts", humanize.Comma(int64(r.Points)))),
			labelStyle.Render(fmt.Sprintf("%s redeemed", humanize.Comma(int64(r.Redemptions)))),
			mutedStyle.Render(truncate(r.Description, inner/2))))
	}
	return fitHeight(screenStyle.Render(b.String()), height)
}
