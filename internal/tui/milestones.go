package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/dustin/go-humanize"

	"github.com/walkpoints/walkpoints/internal/database"
	"github.com/walkpoints/walkpoints/pkg/timeutil"
)

const (
	targetStep    = 500
	defaultTarget = 5000
)

const (
	sectionOngoing = iota
	sectionCompleted
)

var milestoneSections = []string{"Ongoing", "Completed"}

// milestonesScreen lists step milestones with a search filter and an
// add dialog.
type milestonesScreen struct {
	acts actions
	snap *Snapshot

	section int
	cursor  int

	searching bool
	search    textinput.Model

	adding bool
	target int
	addErr string

	progress progress.Model
}

func newMilestonesScreen(acts actions) *milestonesScreen {
	ti := textinput.New()
	ti.Placeholder = "target steps or points"
	ti.Prompt = "/ "
	ti.CharLimit = 12
	return &milestonesScreen{
		acts:   acts,
		search: ti,
		progress: progress.New(
			progress.WithSolidFill(string(colorBlue)),
			progress.WithoutPercentage(),
		),
	}
}

func (s *milestonesScreen) SetData(snap *Snapshot) {
	s.snap = snap
	s.cursor = clamp(s.cursor, 0, maxInt(0, len(s.visible())-1))
}

func (s *milestonesScreen) Reset() {
	s.section = sectionOngoing
	s.cursor = 0
	s.searching = false
	s.search.SetValue("")
	s.search.Blur()
	s.adding = false
	s.addErr = ""
}

func (s *milestonesScreen) Capturing() bool { return s.searching || s.adding }

func (s *milestonesScreen) Hints() []key.Binding {
	switch {
	case s.adding:
		return []key.Binding{
			key.NewBinding(key.WithKeys("+", "-"), key.WithHelp("+/-", "±500")),
			key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "create")),
			keys.Back,
		}
	case s.searching:
		return []key.Binding{
			key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "apply")),
			key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "clear")),
		}
	}
	return []key.Binding{keys.SubTab, keys.Search, keys.Add}
}

// visible returns the milestones of the current section that match the
// search text.
func (s *milestonesScreen) visible() []*database.Milestone {
	if s.snap == nil {
		return nil
	}
	q := strings.ReplaceAll(strings.TrimSpace(s.search.Value()), ",", "")
	var out []*database.Milestone
	for _, m := range s.snap.Milestones {
		done := m.Status == database.MilestoneCompleted
		if done != (s.section == sectionCompleted) {
			continue
		}
		if q != "" && !strings.Contains(strconv.Itoa(m.TargetSteps), q) && !strings.Contains(strconv.Itoa(m.Points), q) {
			continue
		}
		out = append(out, m)
	}
	return out
}

func (s *milestonesScreen) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case s.adding:
			return s.updateAdd(msg)
		case s.searching:
			return s.updateSearch(msg)
		}
		switch {
		case key.Matches(msg, keys.SubTab):
			delta := 1
			if msg.String() == "[" {
				delta = -1
			}
			s.section = cycle(s.section, delta, len(milestoneSections))
			s.cursor = 0
		case key.Matches(msg, keys.Up):
			s.cursor = maxInt(0, s.cursor-1)
		case key.Matches(msg, keys.Down):
			s.cursor = clamp(s.cursor+1, 0, maxInt(0, len(s.visible())-1))
		case key.Matches(msg, keys.Search):
			s.searching = true
			return s.search.Focus()
		case key.Matches(msg, keys.Add):
			s.adding = true
			s.target = defaultTarget
			s.addErr = ""
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

func (s *milestonesScreen) updateSearch(msg tea.KeyMsg) tea.Cmd {
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

func (s *milestonesScreen) updateAdd(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, keys.Back):
		s.adding = false
		return nil
	case msg.Type == tea.KeyEnter:
		if s.target <= 0 {
			s.addErr = "Target must be greater than 0 steps."
			return nil
		}
		s.adding = false
		s.section = sectionOngoing
		return s.acts.addMilestone(s.target)
	}
	switch msg.String() {
	case "+", "=", "up", "right", "k", "l":
		s.target += targetStep
		s.addErr = ""
	case "-", "down", "left", "j", "h":
		s.target = maxInt(0, s.target-targetStep)
	}
	return nil
}

func (s *milestonesScreen) View(width, height int) string {
	if s.snap == nil {
		return loadingView(width, height)
	}
	if s.adding {
		body := fmt.Sprintf("Target  %s steps\n\n%s",
			valueStyle.Render(humanize.Comma(int64(s.target))),
			labelStyle.Render("Points are awarded between 10 and 100."))
		if s.addErr != "" {
			body += "\n\n" + badStyle.Render(s.addErr)
		}
		return renderModal("New milestone", body, width, height)
	}

	inner := maxInt(10, width-4)
	var b strings.Builder
	b.WriteString(titleStyle.Render("Milestones"))
	b.WriteString("\n")
	b.WriteString(renderSubTabs(milestoneSections, s.section))
	b.WriteString("\n")
	if s.searching || s.search.Value() != "" {
		b.WriteString(searchBarStyle.Render(s.search.View()))
		b.WriteString("\n")
	}

	items := s.visible()
	if len(items) == 0 {
		b.WriteString(emptyStateStyle.Render("No milestones here yet. Press a to add one."))
		return fitHeight(screenStyle.Render(b.String()), height)
	}

	// Each milestone takes three lines; keep the cursor in view.
	per := 3
	room := maxInt(1, (height-4)/per)
	start := 0
	if s.cursor >= room {
		start = s.cursor - room + 1
	}
	s.progress.Width = minInt(inner-2, 48)
	for i := start; i < len(items) && i < start+room; i++ {
		m := items[i]
		style := itemStyle
		if i == s.cursor {
			style = itemSelectedStyle
		}
		status := milestoneStatus(m)
		head := fmt.Sprintf("%s steps  %s  %s",
			humanize.Comma(int64(m.TargetSteps)), pointsStyle.Render(fmt.Sprintf("+%d pts", m.Points)), status)
		b.WriteString(style.Render(head))
		b.WriteString("\n  ")
		frac := 0.0
		if m.TargetSteps > 0 {
			frac = float64(m.CurrentSteps) / float64(m.TargetSteps)
		}
		b.WriteString(s.progress.ViewAs(frac))
		b.WriteString(labelStyle.Render(fmt.Sprintf("  %s / %s",
			humanize.Comma(int64(m.CurrentSteps)), humanize.Comma(int64(m.TargetSteps)))))
		b.WriteString("\n\n")
	}
	return fitHeight(screenStyle.Render(b.String()), height)
}

func milestoneStatus(m *database.Milestone) string {
	switch m.Status {
	case database.MilestoneCompleted:
		s := "completed"
		if m.AchievedAt != nil {
			s += " " + timeutil.FormatDate(*m.AchievedAt)
		}
		return goodStyle.Render(s)
	case database.MilestoneLocked:
		return mutedStyle.Render("locked")
	default:
		return warnStyle.Render("in progress")
	}
}
