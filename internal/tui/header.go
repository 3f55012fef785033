package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/walkpoints/walkpoints/internal/routing"
)

// renderHeader produces the top bar:
//
//	WALKPOINTS  │  Walker  │  /user/rewards              ★ 1,250 pts
func renderHeader(m *Model) string {
	brand := headerBrandStyle.Render("WALKPOINTS")
	sep := headerSepStyle.Render(" │ ")

	parts := []string{brand}
	if m.snap != nil && m.snap.Profile != nil {
		parts = append(parts, sep, headerMetaStyle.Render(m.snap.Profile.Name))
	}
	switch {
	case m.stack != nil:
		parts = append(parts, sep, headerMetaStyle.Render(m.stack.router.Path()))
	case m.phase == phaseOnboarding:
		parts = append(parts, sep, headerMetaStyle.Render("Welcome"))
	case m.phase == phaseRole:
		parts = append(parts, sep, headerMetaStyle.Render("Choose a role"))
	}
	left := strings.Join(parts, "")

	var right string
	if m.snap != nil && m.stack != nil && m.stack.Role() == routing.RoleUser {
		right = headerPointsStyle.Render(fmt.Sprintf("★ %s pts", humanize.Comma(int64(m.snap.Points()))))
	}

	// The bar has one cell of padding on each side. The path gives way
	// first, then the points badge.
	avail := m.width - 2
	if right != "" {
		if avail-lipgloss.Width(right)-1 < 1 {
			right = ""
		} else {
			avail -= lipgloss.Width(right) + 1
		}
	}
	if lipgloss.Width(left) > avail {
		left = lipgloss.NewStyle().MaxWidth(maxInt(0, avail)).Render(left)
	}

	gap := maxInt(0, m.width-2-lipgloss.Width(left)-lipgloss.Width(right))
	return headerBarStyle.
		Width(m.width).
		MaxWidth(m.width).
		MaxHeight(1).
		Render(left + strings.Repeat(" ", gap) + right)
}

// renderFooter produces the bottom status bar with keyboard hints.
func renderFooter(m *Model) string {
	var left string
	switch {
	case m.err != nil:
		left = statusErrorStyle.Render(m.statusMsg)
	case m.statusMsg != "":
		left = statusStyle.Render(m.statusMsg)
	}

	var bindings []key.Binding
	switch m.phase {
	case phaseOnboarding:
		bindings = m.onboarding.Hints()
	case phaseRole:
		bindings = m.picker.Hints()
	case phaseTabs:
		bindings = m.stack.Hints()
		if !m.stack.Capturing() {
			bindings = append(bindings, keys.JumpTab, keys.NextTab)
		}
	}
	if m.stack == nil || !m.stack.Capturing() {
		bindings = append(bindings, keys.Quit)
	}

	m.help.Width = maxInt(0, m.width-lipgloss.Width(left)-1)
	right := m.help.ShortHelpView(bindings)

	gap := maxInt(0, m.width-lipgloss.Width(left)-lipgloss.Width(right))
	bar := left + strings.Repeat(" ", gap) + right
	return lipgloss.NewStyle().
		Background(colorBgSurface).
		Width(m.width).
		MaxHeight(1).
		Render(bar)
}

func newHelp() help.Model {
	h := help.New()
	h.Styles.ShortKey = lipgloss.NewStyle().Foreground(colorBlue).Bold(true)
	h.Styles.ShortDesc = lipgloss.NewStyle().Foreground(colorTextDim)
	h.Styles.ShortSeparator = lipgloss.NewStyle().Foreground(colorTextMuted)
	h.ShortSeparator = "  "
	return h
}
