package tui

import tea "github.com/charmbracelet/bubbletea"

// IsActivity reports whether msg is user interaction that keeps the tab
// bar alive: a mouse press (including wheel scrolls), a drag, or a key
// press. A bare release and hover motion are not activity.
func IsActivity(msg tea.Msg) bool {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return true
	case tea.MouseMsg:
		switch msg.Action {
		case tea.MouseActionPress:
			return true
		case tea.MouseActionMotion:
			return msg.Button != tea.MouseButtonNone
		}
	}
	return false
}
