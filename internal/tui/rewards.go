package tui

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/dustin/go-humanize"

	"github.com/walkpoints/walkpoints/internal/database"
	"github.com/walkpoints/walkpoints/pkg/timeutil"
)

const (
	sectionAvailable = iota
	sectionRedeemed
)

var rewardSections = []string{"Available", "Redeemed"}

// rewardsScreen is the walker's reward catalog: spend points with a
// confirmation step and browse past redemptions.
type rewardsScreen struct {
	acts actions
	snap *Snapshot

	section int
	cursor  int

	searching bool
	search    textinput.Model

	confirm    *database.Reward
	confirmErr string
	pending    bool
	redeemed   *database.Redemption
}

func newRewardsScreen(acts actions) *rewardsScreen {
	ti := textinput.New()
	ti.Placeholder = "search rewards"
	ti.Prompt = "/ "
	ti.CharLimit = 40
	return &rewardsScreen{acts: acts, search: ti}
}

func (s *rewardsScreen) SetData(snap *Snapshot) {
	s.snap = snap
	s.cursor = clamp(s.cursor, 0, maxInt(0, s.count()-1))
}

func (s *rewardsScreen) Reset() {
	s.section = sectionAvailable
	s.cursor = 0
	s.searching = false
	s.search.SetValue("")
	s.search.Blur()
	s.closeModal()
}

func (s *rewardsScreen) closeModal() {
	s.confirm = nil
	s.confirmErr = ""
	s.pending = false
	s.redeemed = nil
}

func (s *rewardsScreen) Capturing() bool {
	return s.searching || s.confirm != nil || s.redeemed != nil
}

func (s *rewardsScreen) Hints() []key.Binding {
	switch {
	case s.redeemed != nil:
		return []key.Binding{keys.Back}
	case s.confirm != nil:
		return []key.Binding{keys.Confirm, keys.Decline}
	case s.searching:
		return []key.Binding{
			key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "apply")),
			key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "clear")),
		}
	case s.section == sectionAvailable:
		return []key.Binding{keys.SubTab, keys.Search, keys.Redeem}
	}
	return []key.Binding{keys.SubTab, keys.Search}
}

// available returns active rewards matching the search text.
func (s *rewardsScreen) available() []*database.Reward {
	if s.snap == nil {
		return nil
	}
	q := s.search.Value()
	var out []*database.Reward
	for _, r := range s.snap.Rewards {
		if !r.Active {
			continue
		}
		if !fuzzyMatch(q, r.Title) && !fuzzyMatch(q, r.Partner) {
			continue
		}
		out = append(out, r)
	}
	return out
}

// history returns redemptions matching the search text.
func (s *rewardsScreen) history() []*database.Redemption {
	if s.snap == nil {
		return nil
	}
	q := s.search.Value()
	var out []*database.Redemption
	for _, r := range s.snap.Redemptions {
		if fuzzyMatch(q, r.RewardTitle) || strings.Contains(strings.ToLower(r.Code), strings.ToLower(q)) {
			out = append(out, r)
		}
	}
	return out
}

func (s *rewardsScreen) count() int {
	if s.section == sectionRedeemed {
		return len(s.history())
	}
	return len(s.available())
}

func (s *rewardsScreen) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case redeemedMsg:
		if s.pending {
			s.confirm = nil
			s.pending = false
			s.redeemed = msg.red
		}
		return nil
	case errMsg:
		if s.pending {
			s.pending = false
			if errors.Is(msg.err, database.ErrInsufficientPoints) {
				s.confirmErr = s.shortfall()
			} else {
				s.confirmErr = msg.err.Error()
			}
		}
		return nil
	case tea.KeyMsg:
		switch {
		case s.redeemed != nil:
			if key.Matches(msg, keys.Back, keys.Select) {
				s.closeModal()
				s.section = sectionRedeemed
				s.cursor = 0
			}
			return nil
		case s.confirm != nil:
			return s.updateConfirm(msg)
		case s.searching:
			return s.updateSearch(msg)
		}
		switch {
		case key.Matches(msg, keys.SubTab):
			delta := 1
			if msg.String() == "[" {
				delta = -1
			}
			s.section = cycle(s.section, delta, len(rewardSections))
			s.cursor = 0
		case key.Matches(msg, keys.Up):
			s.cursor = maxInt(0, s.cursor-1)
		case key.Matches(msg, keys.Down):
			s.cursor = clamp(s.cursor+1, 0, maxInt(0, s.count()-1))
		case key.Matches(msg, keys.Search):
			s.searching = true
			return s.search.Focus()
		case key.Matches(msg, keys.Redeem):
			if s.section != sectionAvailable {
				return nil
			}
			if items := s.available(); s.cursor < len(items) {
				s.confirm = items[s.cursor]
				s.confirmErr = ""
				if s.snap.Points() < s.confirm.Points {
					s.confirmErr = s.shortfall()
				}
			}
		}
	case tea.MouseMsg:
		switch msg.Button {
		case tea.MouseButtonWheelUp:
			s.cursor = maxInt(0, s.cursor-1)
		case tea.MouseButtonWheelDown:
			s.cursor = clamp(s.cursor+1, 0, maxInt(0, s.count()-1))
		}
	}
	return nil
}

func (s *rewardsScreen) shortfall() string {
	need := s.confirm.Points - s.snap.Points()
	if need <= 0 {
		return "Not enough points to redeem this reward."
	}
	return fmt.Sprintf("You need %s more points to redeem this reward.", humanize.Comma(int64(need)))
}

func (s *rewardsScreen) updateConfirm(msg tea.KeyMsg) tea.Cmd {
	if s.pending {
		return nil
	}
	switch {
	case key.Matches(msg, keys.Decline):
		s.closeModal()
	case key.Matches(msg, keys.Confirm):
		if s.confirmErr != "" {
			return nil
		}
		s.pending = true
		return s.acts.redeem(s.confirm.RewardID)
	}
	return nil
}

func (s *rewardsScreen) updateSearch(msg tea.KeyMsg) tea.Cmd {
	switch msg.Type {
	case tea.KeyEnter:
		s.searching = false
		s.search.Blur()
		return nil
	case tea.KeyEsc:
		s.searching = false
		s.search.SetValue("")
		s.search.Blur()
		return nil
	}
	var cmd tea.Cmd
	s.search, cmd = s.search.Update(msg)
	s.cursor = 0
	return cmd
}

func (s *rewardsScreen) View(width, height int) string {
	if s.snap == nil {
		return loadingView(width, height)
	}
	if s.redeemed != nil {
		body := fmt.Sprintf("%s\n\nCode  %s\n%s",
			valueStyle.Render(s.redeemed.RewardTitle),
			accentStyle.Bold(true).Render(s.redeemed.Code),
			labelStyle.Render(fmt.Sprintf("%d points spent. Show this code at checkout.", s.redeemed.Points)))
		return renderModal("Reward redeemed", body, width, height)
	}
	if s.confirm != nil {
		body := fmt.Sprintf("Redeem %s for %s?",
			valueStyle.Render(s.confirm.Title),
			pointsStyle.Render(fmt.Sprintf("%s pts", humanize.Comma(int64(s.confirm.Points)))))
		switch {
		case s.confirmErr != "":
			body += "\n\n" + badStyle.Render(s.confirmErr)
		case s.pending:
			body += "\n\n" + labelStyle.Render("Redeeming...")
		default:
			body += "\n\n" + labelStyle.Render("y confirm · n cancel")
		}
		return renderModal("Confirm redemption", body, width, height)
	}

	inner := maxInt(10, width-4)
	var b strings.Builder
	b.WriteString(titleStyle.Render("Rewards"))
	b.WriteString("  ")
	b.WriteString(pointsStyle.Render(fmt.Sprintf("★ %s pts", humanize.Comma(int64(s.snap.Points())))))
	b.WriteString("\n")
	b.WriteString(renderSubTabs(rewardSections, s.section))
	b.WriteString("\n")
	if s.searching || s.search.Value() != "" {
		b.WriteString(searchBarStyle.Render(s.search.View()))
		b.WriteString("\n")
	}

	room := maxInt(1, (height-4)/2)
	start := 0
	if s.cursor >= room {
		start = s.cursor - room + 1
	}

	if s.section == sectionRedeemed {
		items := s.history()
		if len(items) == 0 {
			b.WriteString(emptyStateStyle.Render("Nothing redeemed yet."))
		}
		for i := start; i < len(items) && i < start+room; i++ {
			r := items[i]
			style := itemStyle
			if i == s.cursor {
				style = itemSelectedStyle
			}
			b.WriteString(style.Render(truncate(r.RewardTitle, inner-2)))
			b.WriteString("\n  ")
			b.WriteString(fmt.Sprintf("%s  %s  %s\n",
				accentStyle.Render(r.Code),
				pointsStyle.Render(fmt.Sprintf("-%d pts", r.Points)),
				mutedStyle.Render(timeutil.RelativeTime(r.RedeemedAt, s.snap.LoadedAt))))
		}
		return fitHeight(screenStyle.Render(b.String()), height)
	}

	items := s.available()
	if len(items) == 0 {
		b.WriteString(emptyStateStyle.Render("No rewards match."))
	}
	balance := s.snap.Points()
	for i := start; i < len(items) && i < start+room; i++ {
		r := items[i]
		style := itemStyle
		if i == s.cursor {
			style = itemSelectedStyle
		}
		mark := goodStyle.Render("✓")
		if balance < r.Points {
			mark = mutedStyle.Render(fmt.Sprintf("need %s more", humanize.Comma(int64(r.Points-balance))))
		}
		b.WriteString(style.Render(truncate(r.Title, inner-2)))
		b.WriteString("\n  ")
		b.WriteString(fmt.Sprintf("%s  %s  %s\n",
			labelStyle.Render(truncate(r.Partner, inner/3)),
			pointsStyle.Render(fmt.Sprintf("%s pts", humanize.Comma(int64(r.Points)))),
			mark))
	}
	return fitHeight(screenStyle.Render(b.String()), height)
}
