package tui

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/walkpoints/walkpoints/internal/routing"
)

func newTestBar(animation time.Duration) (*TabBar, *[]string) {
	var taps []string
	tabs := routing.Tabs(routing.RoleUser)
	b := NewTabBar(tabs, tabs[0].Route, func(id string) { taps = append(taps, id) }, animation)
	return b, &taps
}

// settle drives frames until the animation stops.
func settle(t *testing.T, b *TabBar) int {
	t.Helper()
	cmd := b.Kick()
	require.NotNil(t, cmd, "expected a pending animation")
	frames := 0
	for b.Animating() {
		frames++
		require.Less(t, frames, 600, "animation did not settle")
		b.Update(frameMsg{id: b.id, tag: b.tag})
	}
	return frames
}

func TestTabBarStartsVisible(t *testing.T) {
	b, _ := newTestBar(250 * time.Millisecond)
	assert.True(t, b.Visible())
	assert.Equal(t, 0.0, b.Offset())
	assert.Equal(t, barHeight, b.VisibleRows())
	assert.Nil(t, b.Kick())
}

func TestTabBarInstantWithoutAnimation(t *testing.T) {
	b, _ := newTestBar(0)
	b.SetVisible(false)
	assert.Equal(t, 1.0, b.Offset())
	assert.Equal(t, 0, b.VisibleRows())
	assert.Nil(t, b.Kick())
	assert.Empty(t, b.View(80))

	b.SetVisible(true)
	assert.Equal(t, barHeight, b.VisibleRows())
}

func TestTabBarAnimatesOffscreenAndBack(t *testing.T) {
	b, _ := newTestBar(250 * time.Millisecond)

	b.SetVisible(false)
	frames := settle(t, b)
	assert.Greater(t, frames, 1)
	assert.Equal(t, 1.0, b.Offset())
	assert.Equal(t, 0, b.VisibleRows())

	b.SetVisible(true)
	settle(t, b)
	assert.Equal(t, 0.0, b.Offset())
	assert.Equal(t, barHeight, b.VisibleRows())
}

func TestTabBarDropsStaleFrames(t *testing.T) {
	b, _ := newTestBar(250 * time.Millisecond)
	b.SetVisible(false)
	require.NotNil(t, b.Kick())
	stale := frameMsg{id: b.id, tag: b.tag}

	// Reversing mid-flight starts a new run; the old run's frames are void.
	b.SetVisible(true)
	assert.Nil(t, b.Update(stale))
	assert.Nil(t, b.Update(frameMsg{id: b.id + 1000, tag: b.tag}))
}

func TestTabBarHitTest(t *testing.T) {
	b, _ := newTestBar(0)
	const width, height = 100, 20

	id, hit := b.HitTest(5, height-1, width, height)
	assert.True(t, hit)
	assert.Equal(t, string(routing.TabHome), id)

	id, hit = b.HitTest(99, height-1, width, height)
	assert.True(t, hit)
	assert.Equal(t, string(routing.TabProfile), id)

	id, hit = b.HitTest(50, height-2, width, height)
	assert.True(t, hit, "divider row belongs to the bar")
	assert.Empty(t, id)

	_, hit = b.HitTest(50, 3, width, height)
	assert.False(t, hit)
}

func TestTabBarHiddenNeverBlocksInput(t *testing.T) {
	b, _ := newTestBar(0)
	b.SetVisible(false)
	for y := 0; y < 20; y++ {
		_, hit := b.HitTest(10, y, 100, 20)
		assert.False(t, hit, "row %d", y)
	}
}

func TestTabBarSelectMidAnimation(t *testing.T) {
	b, taps := newTestBar(250 * time.Millisecond)
	b.SetVisible(false)
	require.NotNil(t, b.Kick())
	b.Update(frameMsg{id: b.id, tag: b.tag})
	require.True(t, b.Animating())

	b.Select(string(routing.TabRewards))
	b.Select(string(routing.TabHome)) // the active tab still reports
	assert.Equal(t, []string{"rewards", "home"}, *taps)

	assert.True(t, b.SelectIndex(1))
	assert.False(t, b.SelectIndex(9))
	assert.Equal(t, "milestones", (*taps)[2])
}

func TestTabBarView(t *testing.T) {
	b, _ := newTestBar(0)
	b.SetActive(routing.TabAnalytics)
	out := b.View(100)
	lines := strings.Split(out, "\n")
	require.Len(t, lines, barHeight)
	for _, tab := range routing.Tabs(routing.RoleUser) {
		assert.Contains(t, out, tab.Label)
	}
	assert.Equal(t, routing.TabAnalytics, b.Active())
}

func TestFadeBlendsTowardBackground(t *testing.T) {
	assert.Equal(t, colorBlue, fade(colorBlue, 0))
	assert.Equal(t, colorBg, fade(colorBlue, 1))
}
