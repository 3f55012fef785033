package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/walkpoints/walkpoints/internal/routing"
)

type onboardingPage struct {
	icon     string
	title    string
	subtitle string
	button   string
}

var onboardingPages = []onboardingPage{
	{icon: "👣", title: "Track Your Steps", subtitle: "Track your daily activity effortlessly.", button: "Continue"},
	{icon: "★", title: "Earn Points", subtitle: "Unlock points as you reach milestones.", button: "Continue"},
	{icon: "❖", title: "Redeem Rewards", subtitle: "Use your points for exclusive discounts.", button: "Get Started"},
}

// onboardingDoneMsg ends the carousel. motion is "granted", "denied", or
// empty when the user skipped.
type onboardingDoneMsg struct{ motion string }

// onboarding is the first-run carousel: three info pages and a motion
// permission page.
type onboarding struct {
	page int
}

func (o *onboarding) permissionPage() bool { return o.page == len(onboardingPages) }

func (o *onboarding) Update(msg tea.KeyMsg) tea.Cmd {
	done := func(motion string) tea.Cmd {
		return func() tea.Msg { return onboardingDoneMsg{motion: motion} }
	}

	if o.permissionPage() {
		switch {
		case key.Matches(msg, keys.Confirm):
			return done("granted")
		case msg.String() == "n":
			return done("denied")
		case key.Matches(msg, keys.Left, keys.Back):
			o.page--
		}
		return nil
	}

	switch {
	case key.Matches(msg, keys.Skip):
		return done("")
	case key.Matches(msg, keys.Right, keys.Select):
		o.page++
	case key.Matches(msg, keys.Left):
		o.page = maxInt(0, o.page-1)
	}
	return nil
}

func (o *onboarding) Hints() []key.Binding {
	if o.permissionPage() {
		return []key.Binding{
			key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "allow")),
			key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "not now")),
			keys.Left,
		}
	}
	return []key.Binding{keys.Right, keys.Left, keys.Skip}
}

func (o *onboarding) View(width, height int) string {
	var b strings.Builder
	if o.permissionPage() {
		b.WriteString(onboardingIconStyle.Render("⚙"))
		b.WriteString("\n\n")
		b.WriteString(titleStyle.Render("We need access to your motion & fitness activity to track steps."))
		b.WriteString("\n\n")
		b.WriteString(itemSelectedStyle.Render("Allow Motion Tracking"))
	} else {
		p := onboardingPages[o.page]
		b.WriteString(onboardingIconStyle.Render(p.icon))
		b.WriteString("\n\n")
		b.WriteString(titleStyle.Render(p.title))
		b.WriteString("\n")
		b.WriteString(subtitleStyle.Render(p.subtitle))
		b.WriteString("\n\n")
		b.WriteString(itemSelectedStyle.Render(p.button))
	}
	b.WriteString("\n\n")

	dots := make([]string, 0, len(onboardingPages)+1)
	for i := 0; i <= len(onboardingPages); i++ {
		if i == o.page {
			dots = append(dots, dotActiveStyle.Render("●"))
		} else {
			dots = append(dots, dotStyle.Render("○"))
		}
	}
	b.WriteString(strings.Join(dots, " "))

	content := lipgloss.NewStyle().Width(minInt(60, maxInt(20, width-4))).Align(lipgloss.Center).Render(b.String())
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, content)
}

// ────────────────────────────────────────────────────────────
// Role chooser
// ────────────────────────────────────────────────────────────

type roleChosenMsg struct{ role routing.Role }

type roleOption struct {
	role  routing.Role
	label string
	desc  string
}

var roleOptions = []roleOption{
	{role: routing.RoleUser, label: "I'm a User", desc: "Track your walks and earn rewards"},
	{role: routing.RoleBusiness, label: "I'm a Business", desc: "Manage rewards and engage customers"},
}

// rolePicker selects which tab stack to mount.
type rolePicker struct {
	cursor int
}

func (r *rolePicker) Update(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, keys.Up, keys.Left):
		r.cursor = cycle(r.cursor, -1, len(roleOptions))
	case key.Matches(msg, keys.Down, keys.Right):
		r.cursor = cycle(r.cursor, 1, len(roleOptions))
	case key.Matches(msg, keys.Select):
		role := roleOptions[r.cursor].role
		return func() tea.Msg { return roleChosenMsg{role} }
	}
	return nil
}

func (r *rolePicker) Hints() []key.Binding {
	return []key.Binding{keys.Down, keys.Select}
}

func (r *rolePicker) View(width, height int) string {
	cards := make([]string, 0, len(roleOptions))
	for i, o := range roleOptions {
		style := cardStyle
		if i == r.cursor {
			style = cardSelectedStyle
		}
		cards = append(cards, style.Width(40).Render(valueStyle.Render(o.label)+"\n"+labelStyle.Render(o.desc)))
	}
	content := lipgloss.JoinVertical(lipgloss.Center,
		headerBrandStyle.Render("WalkPoints"),
		subtitleStyle.Render("Choose how you want to continue"),
		"",
		lipgloss.JoinVertical(lipgloss.Left, cards...),
	)
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, content)
}
