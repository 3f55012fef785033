package tui

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
)

func TestIsActivity(t *testing.T) {
	tests := []struct {
		name string
		msg  tea.Msg
		want bool
	}{
		{"key press", keyPress("x"), true},
		{"press", tea.MouseMsg{Action: tea.MouseActionPress, Button: tea.MouseButtonLeft}, true},
		{"wheel", tea.MouseMsg{Action: tea.MouseActionPress, Button: tea.MouseButtonWheelDown}, true},
		{"drag", tea.MouseMsg{Action: tea.MouseActionMotion, Button: tea.MouseButtonLeft}, true},
		{"hover", tea.MouseMsg{Action: tea.MouseActionMotion, Button: tea.MouseButtonNone}, false},
		{"release", tea.MouseMsg{Action: tea.MouseActionRelease, Button: tea.MouseButtonLeft}, false},
		{"window size", tea.WindowSizeMsg{Width: 80, Height: 24}, false},
		{"frame", frameMsg{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsActivity(tt.msg); got != tt.want {
				t.Errorf("IsActivity(%T) = %v, want %v", tt.msg, got, tt.want)
			}
		})
	}
}
