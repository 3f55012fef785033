package tui

import (
	"math"
	"strings"
	"sync/atomic"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/harmonica"
	"github.com/charmbracelet/lipgloss"
	"github.com/lucasb-eyer/go-colorful"

	"github.com/walkpoints/walkpoints/internal/routing"
)

const (
	// barHeight is the divider row plus the item row.
	barHeight = 2
	barFPS    = 60

	// settleEpsilon ends an animation once position and velocity are
	// both this close to rest.
	settleEpsilon = 0.002
)

var lastBarID int64

func nextBarID() int {
	return int(atomic.AddInt64(&lastBarID, 1))
}

// frameMsg advances one tab bar animation. id selects the bar and tag the
// animation run, so frames from a superseded run are dropped.
type frameMsg struct {
	id  int
	tag int
}

// TabBar is the bottom navigation bar of a tab stack. It renders from its
// inputs (tabs, active route, visibility) plus the animation offset, and
// owns no timers besides animation frames.
//
// Offset 0 is fully shown and 1 is fully translated below the bottom edge
// and faded into the background.
type TabBar struct {
	id  int
	tag int

	tabs        []routing.Tab
	active      routing.TabRoute
	onTabChange func(tabID string)

	visible bool
	pos     float64
	vel     float64
	spring  harmonica.Spring
	animate bool
	running bool
	kick    bool
}

// NewTabBar creates a visible bar. animation is the approximate show and
// hide duration; zero switches instantly.
func NewTabBar(tabs []routing.Tab, active routing.TabRoute, onTabChange func(tabID string), animation time.Duration) *TabBar {
	b := &TabBar{
		id:          nextBarID(),
		tabs:        tabs,
		active:      active,
		onTabChange: onTabChange,
		visible:     true,
		animate:     animation > 0,
	}
	if b.animate {
		// A critically damped spring settles in roughly 6/ω seconds.
		b.spring = harmonica.NewSpring(harmonica.FPS(barFPS), 6/animation.Seconds(), 1.0)
	}
	return b
}

// SetActive highlights route.
func (b *TabBar) SetActive(route routing.TabRoute) { b.active = route }

// Active returns the highlighted route.
func (b *TabBar) Active() routing.TabRoute { return b.active }

// Visible returns the visibility the bar is showing or animating toward.
func (b *TabBar) Visible() bool { return b.visible }

// Offset returns the current translation, 0 shown to 1 hidden.
func (b *TabBar) Offset() float64 { return clamp01(b.pos) }

// Animating reports whether frames are in flight.
func (b *TabBar) Animating() bool { return b.running }

// SetVisible retargets the bar. The animation starts on the next Kick.
func (b *TabBar) SetVisible(visible bool) {
	if visible == b.visible {
		return
	}
	b.visible = visible
	if !b.animate {
		b.pos, b.vel = b.target(), 0
		return
	}
	b.tag++
	b.kick = true
}

// Kick returns the first frame of a pending animation, or nil.
func (b *TabBar) Kick() tea.Cmd {
	if !b.kick {
		return nil
	}
	b.kick = false
	b.running = true
	return b.frame(b.tag)
}

// Update advances the animation by one frame.
func (b *TabBar) Update(msg frameMsg) tea.Cmd {
	if msg.id != b.id || msg.tag != b.tag || !b.running {
		return nil
	}

	target := b.target()
	b.pos, b.vel = b.spring.Update(b.pos, b.vel, target)
	if math.Abs(b.pos-target) < settleEpsilon && math.Abs(b.vel) < settleEpsilon {
		b.pos, b.vel = target, 0
		b.running = false
		return nil
	}
	return b.frame(b.tag)
}

func (b *TabBar) frame(tag int) tea.Cmd {
	id := b.id
	return tea.Tick(time.Second/barFPS, func(time.Time) tea.Msg {
		return frameMsg{id: id, tag: tag}
	})
}

func (b *TabBar) target() float64 {
	if b.visible {
		return 0
	}
	return 1
}

// VisibleRows is how many bar rows remain above the bottom edge.
func (b *TabBar) VisibleRows() int {
	return barHeight - int(math.Round(b.Offset()*barHeight))
}

// Select reports a tap on tabID. It always calls onTabChange, even for the
// active tab or mid-animation.
func (b *TabBar) Select(tabID string) {
	if b.onTabChange != nil {
		b.onTabChange(tabID)
	}
}

// SelectIndex selects the i-th tab (0-based) when it exists.
func (b *TabBar) SelectIndex(i int) bool {
	if i < 0 || i >= len(b.tabs) {
		return false
	}
	b.Select(string(b.tabs[i].Route))
	return true
}

// HitTest maps a click at (x, y) in a body of the given size onto the bar.
// hit reports whether a visible bar row was under the click; tabID is empty
// for the divider row. Rows already below the edge never hit, so a hidden
// bar never swallows input meant for the screen.
func (b *TabBar) HitTest(x, y, width, height int) (tabID string, hit bool) {
	rows := b.VisibleRows()
	if rows == 0 || len(b.tabs) == 0 {
		return "", false
	}
	top := height - rows
	if y < top || y >= height {
		return "", false
	}
	if y-top != 1 {
		return "", true
	}
	itemWidth := maxInt(1, width/len(b.tabs))
	idx := clamp(x/itemWidth, 0, len(b.tabs)-1)
	return string(b.tabs[idx].Route), true
}

// View renders the rows still on screen, faded by the current offset.
func (b *TabBar) View(width int) string {
	rows := b.VisibleRows()
	if rows == 0 || width <= 0 {
		return ""
	}

	t := b.Offset()
	bg := fade(colorBgPanel, t)

	divider := lipgloss.NewStyle().
		Foreground(fade(colorDivider, t)).
		Background(bg).
		Render(strings.Repeat("─", width))

	n := maxInt(1, len(b.tabs))
	itemWidth := width / n
	items := make([]string, 0, len(b.tabs))
	for i, tab := range b.tabs {
		w := itemWidth
		if i == len(b.tabs)-1 {
			w = width - itemWidth*(len(b.tabs)-1)
		}
		style := lipgloss.NewStyle().
			Width(w).
			Align(lipgloss.Center).
			Background(bg).
			Foreground(fade(colorTextDim, t))
		if tab.Route == b.active {
			style = style.Foreground(fade(colorBlue, t)).Bold(true)
		}
		items = append(items, style.Render(truncate(tab.Icon+" "+tab.Label, w)))
	}
	itemRow := lipgloss.JoinHorizontal(lipgloss.Top, items...)

	lines := []string{divider, itemRow}
	return strings.Join(lines[:rows], "\n")
}

// fade blends c toward the background by t in [0, 1].
func fade(c lipgloss.Color, t float64) lipgloss.Color {
	from, err := colorful.Hex(string(c))
	if err != nil {
		return c
	}
	to, err := colorful.Hex(string(colorBg))
	if err != nil {
		return c
	}
	return lipgloss.Color(from.BlendRgb(to, clamp01(t)).Hex())
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
