package tui

import (
	"context"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/walkpoints/walkpoints/internal/navvis"
)

// container hosts the active screen above the tab bar. It reaches the
// stack's provider through ctx, so every screen it hosts keeps the bar
// alive without holding the provider itself.
type container struct {
	ctx context.Context
	bar *TabBar
}

// touch forwards user interaction to the inactivity timer. Activity is
// not filtered by gesture or target.
func (c container) touch(msg tea.Msg) {
	if IsActivity(msg) {
		navvis.MustFromContext(c.ctx).ResetInactivityTimer()
	}
}

// View renders screen at the full body height and overlays the bar rows
// still on screen at the bottom. A hiding bar uncovers the screen
// content beneath it.
func (c container) View(screen Screen, width, height int) string {
	body := fitHeight(screen.View(width, height), height)
	rows := c.bar.VisibleRows()
	if rows == 0 || height < rows {
		return body
	}
	lines := strings.Split(body, "\n")
	copy(lines[height-rows:], strings.Split(c.bar.View(width), "\n"))
	return strings.Join(lines, "\n")
}
