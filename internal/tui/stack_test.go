package tui

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/walkpoints/walkpoints/internal/navvis"
	"github.com/walkpoints/walkpoints/internal/routing"
)

const testTimeout = 3 * time.Second

// barItemX returns an x coordinate inside the i-th bar item of an
// 80-column body with n tabs.
func barItemX(i, n int) int { return i*(80/n) + 2 }

func TestStackMountsVisibleWithCountdown(t *testing.T) {
	s, sched := newTestStack(t, routing.RoleUser, testTimeout)

	assert.True(t, s.Provider().IsVisible())
	assert.True(t, s.Bar().Visible())
	assert.Equal(t, 1, sched.Live())
	assert.Equal(t, routing.TabHome, s.Active())
}

func TestStackHidesAfterInactivity(t *testing.T) {
	s, sched := newTestStack(t, routing.RoleUser, testTimeout)

	sched.Advance(testTimeout - time.Millisecond)
	assert.True(t, s.Bar().Visible())

	sched.Advance(time.Millisecond)
	assert.False(t, s.Provider().IsVisible())
	assert.False(t, s.Bar().Visible())
	assert.Equal(t, 0, s.Bar().VisibleRows())
}

func TestStackTabTapShowsBarWithFreshCountdown(t *testing.T) {
	s, sched := newTestStack(t, routing.RoleUser, testTimeout)
	sched.Advance(testTimeout)
	require.False(t, s.Bar().Visible())
	sched.Advance(time.Second)

	s.Update(keyPress("3"))

	assert.Equal(t, routing.TabAnalytics, s.Active())
	assert.True(t, s.Provider().IsVisible())
	assert.True(t, s.Bar().Visible())
	assert.Equal(t, 1, sched.Live())

	sched.Advance(testTimeout - time.Millisecond)
	assert.True(t, s.Bar().Visible())
	sched.Advance(time.Millisecond)
	assert.False(t, s.Bar().Visible())
}

func TestStackClickOnItemNavigates(t *testing.T) {
	s, sched := newTestStack(t, routing.RoleUser, testTimeout)
	sched.Advance(testTimeout / 2)

	s.Update(leftClick(barItemX(1, 5), 19))
	assert.Equal(t, routing.TabMilestones, s.Active())

	// The tap restarted the countdown.
	sched.Advance(testTimeout - time.Millisecond)
	assert.True(t, s.Bar().Visible())
}

func TestStackHiddenBarPassesClicksThrough(t *testing.T) {
	s, sched := newTestStack(t, routing.RoleUser, testTimeout)
	sched.Advance(testTimeout)
	require.False(t, s.Bar().Visible())

	s.Update(leftClick(barItemX(1, 5), 19))

	assert.Equal(t, routing.TabHome, s.Active(), "click on a hidden bar must reach the screen")
	assert.True(t, s.Bar().Visible(), "the click still counts as activity")
}

func TestStackActivityKeepsBarAlive(t *testing.T) {
	s, sched := newTestStack(t, routing.RoleUser, testTimeout)
	wheel := tea.MouseMsg{X: 10, Y: 5, Action: tea.MouseActionPress, Button: tea.MouseButtonWheelDown}

	for i := 0; i < 10; i++ {
		sched.Advance(testTimeout / 2)
		s.Update(wheel)
		require.True(t, s.Bar().Visible(), "iteration %d", i)
		require.Equal(t, 1, sched.Live())
	}
}

func TestStackReleaseIsNotActivity(t *testing.T) {
	s, sched := newTestStack(t, routing.RoleUser, testTimeout)

	sched.Advance(testTimeout - 10*time.Millisecond)
	s.Update(tea.MouseMsg{X: 10, Y: 5, Action: tea.MouseActionRelease, Button: tea.MouseButtonLeft})
	s.Update(tea.MouseMsg{X: 11, Y: 5, Action: tea.MouseActionMotion, Button: tea.MouseButtonNone})
	sched.Advance(10 * time.Millisecond)

	assert.False(t, s.Bar().Visible())
}

func TestStackNextPrevTab(t *testing.T) {
	s, _ := newTestStack(t, routing.RoleUser, testTimeout)

	s.Update(keyPress("shift+tab"))
	assert.Equal(t, routing.TabProfile, s.Active())
	s.Update(keyPress("tab"))
	assert.Equal(t, routing.TabHome, s.Active())
	s.Update(keyPress("tab"))
	assert.Equal(t, routing.TabMilestones, s.Active())
}

func TestStackCapturingScreenKeepsDigits(t *testing.T) {
	s, _ := newTestStack(t, routing.RoleUser, testTimeout)
	s.Update(keyPress("2"))
	require.Equal(t, routing.TabMilestones, s.Active())

	s.Update(keyPress("/"))
	require.True(t, s.Capturing())
	s.Update(keyPress("3"))

	assert.Equal(t, routing.TabMilestones, s.Active())
	ms := s.screens[routing.TabMilestones].(*milestonesScreen)
	assert.Equal(t, "3", ms.search.Value())
}

func TestStackResetsScreenOnLeave(t *testing.T) {
	s, _ := newTestStack(t, routing.RoleUser, testTimeout)
	ms := s.screens[routing.TabMilestones].(*milestonesScreen)

	s.Update(keyPress("2"))
	s.Update(keyPress("/"))
	s.Update(keyPress("5"))
	s.Update(keyPress("enter"))
	require.Equal(t, "5", ms.search.Value())
	require.False(t, s.Capturing())

	s.Update(keyPress("1"))
	s.Update(keyPress("2"))
	assert.Empty(t, ms.search.Value())
}

func TestStackNavigateMessage(t *testing.T) {
	s, _ := newTestStack(t, routing.RoleUser, testTimeout)

	// Enter on home links to rewards.
	cmd := s.screens[routing.TabHome].Update(keyPress("enter"))
	require.NotNil(t, cmd)
	s.Update(cmd())
	assert.Equal(t, routing.TabRewards, s.Active())

	s.Update(navigateMsg{tab: "bogus"})
	assert.Equal(t, routing.TabRewards, s.Active())
	assert.True(t, s.Bar().Visible())
}

func TestStackUnmount(t *testing.T) {
	s, sched := newTestStack(t, routing.RoleUser, testTimeout)

	s.Unmount()
	assert.Equal(t, 0, sched.Live())
	assert.False(t, s.Provider().Mounted())
	assert.NotPanics(t, func() { sched.Advance(2 * testTimeout) })
	assert.True(t, s.Bar().Visible(), "no notification after unmount")
	assert.NotPanics(t, s.Unmount)
}

func TestStackContextCarriesProvider(t *testing.T) {
	s, _ := newTestStack(t, routing.RoleUser, testTimeout)

	p, err := navvis.FromContext(s.Context())
	require.NoError(t, err)
	assert.Same(t, s.Provider(), p)
}

func TestStackNeverHide(t *testing.T) {
	sched := &fakeScheduler{}
	nav := navConfig(testTimeout)
	nav.AutoHide = false
	s := NewStack(t.Context(), routing.RoleUser, stackOptions{nav: nav, sched: sched})
	t.Cleanup(s.Unmount)

	sched.Advance(time.Hour)
	assert.True(t, s.Bar().Visible())
	assert.Equal(t, 0, sched.Live())
}

func TestStackBusinessTabs(t *testing.T) {
	s, _ := newTestStack(t, routing.RoleBusiness, testTimeout)
	require.Len(t, s.router.Tabs(), 4)
	assert.Equal(t, routing.TabDashboard, s.Active())

	s.Update(keyPress("5"))
	assert.Equal(t, routing.TabDashboard, s.Active())

	s.Update(leftClick(barItemX(3, 4), 19))
	assert.Equal(t, routing.TabProfile, s.Active())
}

func TestStackViewOverlaysBar(t *testing.T) {
	s, sched := newTestStack(t, routing.RoleUser, testTimeout)

	lines := strings.Split(s.View(), "\n")
	require.Len(t, lines, 20)
	assert.Contains(t, lines[19], "Home")
	assert.Contains(t, s.View(), "Walker")

	sched.Advance(testTimeout)
	lines = strings.Split(s.View(), "\n")
	require.Len(t, lines, 20)
	assert.NotContains(t, lines[19], "Milestones")
}
