package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/walkpoints/walkpoints/internal/navvis"
)

// loopMsg carries a callback posted to the navvis loop. Update runs it,
// so inactivity timeouts execute on the same goroutine as input handling.
type loopMsg func()

// waitForLoop blocks on the next posted callback. Update re-issues it
// after every loopMsg, keeping exactly one waiter outstanding.
func waitForLoop(loop *navvis.Loop) tea.Cmd {
	return func() tea.Msg {
		select {
		case f := <-loop.Queue():
			return loopMsg(f)
		case <-loop.Done():
			return nil
		}
	}
}
