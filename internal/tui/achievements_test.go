package tui

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/walkpoints/walkpoints/internal/database"
	"github.com/walkpoints/walkpoints/internal/routing"
)

func TestEvaluateAchievements(t *testing.T) {
	list := evaluateAchievements(&database.ActivityStats{TotalSteps: 12000, TotalDistanceM: 7500})
	require.Len(t, list, len(achievementCatalog))

	byID := map[string]achievementStatus{}
	for _, a := range list {
		byID[a.ID] = a
	}
	assert.True(t, byID["steps-10k"].Unlocked)
	assert.Equal(t, 1.0, byID["steps-10k"].Progress)
	assert.False(t, byID["steps-50k"].Unlocked)
	assert.InDelta(t, 0.24, byID["steps-50k"].Progress, 1e-9)
	assert.True(t, byID["dist-5km"].Unlocked)
	assert.False(t, byID["dist-10km"].Unlocked)
	assert.InDelta(t, 0.75, byID["dist-10km"].Progress, 1e-9)
	assert.Equal(t, 5, unlockedCount(list))

	assert.Equal(t, "12,000 / 50,000", byID["steps-50k"].progressText())
	assert.Equal(t, "7.5 / 10 km", byID["dist-10km"].progressText())
	assert.Equal(t, "Completed", byID["dist-1km"].progressText())
}

func TestEvaluateAchievementsWithoutStats(t *testing.T) {
	list := evaluateAchievements(nil)
	assert.Zero(t, unlockedCount(list))
	for _, a := range list {
		assert.Zero(t, a.Progress, a.ID)
	}
}

func profileWithStats(role routing.Role) *profileScreen {
	s := newProfileScreen(role, 5*time.Second)
	s.SetData(&Snapshot{
		Profile:  &database.Profile{Name: "Walker", Points: 1250, DailyGoal: 10000, StrideM: 0.76},
		Lifetime: &database.ActivityStats{Days: 3, TotalSteps: 12000, TotalDistanceM: 7500},
	})
	return s
}

func TestProfileOpensAchievements(t *testing.T) {
	s := profileWithStats(routing.RoleUser)
	assert.Contains(t, s.View(80, 24), "5 / 10")

	s.Update(keyPress("a"))
	require.True(t, s.showBadges)
	view := s.View(80, 24)
	assert.Contains(t, view, "5 / 10 unlocked")
	assert.Contains(t, view, "First Steps")
	assert.Len(t, strings.Split(view, "\n"), 24)
	assert.False(t, s.Capturing(), "tab keys still work in the list")

	s.Update(keyPress("down"))
	s.Update(keyPress("down"))
	s.Update(keyPress("down"))
	s.Update(keyPress("enter"))
	require.NotNil(t, s.badges.detail)
	assert.Equal(t, "steps-50k", s.badges.detail.ID)
	assert.True(t, s.Capturing())
	view = s.View(80, 24)
	assert.Contains(t, view, "Week Warrior")
	assert.Contains(t, view, "100 bonus points")

	s.Update(keyPress("esc"))
	assert.Nil(t, s.badges.detail)
	assert.True(t, s.showBadges)

	s.Update(keyPress("esc"))
	assert.False(t, s.showBadges)
	assert.Equal(t, 0, s.badges.cursor)
}

func TestProfileAchievementsCursorClamps(t *testing.T) {
	s := profileWithStats(routing.RoleUser)
	s.Update(keyPress("a"))
	s.Update(keyPress("up"))
	assert.Equal(t, 0, s.badges.cursor)
	for range len(achievementCatalog) + 3 {
		s.Update(keyPress("down"))
	}
	assert.Equal(t, len(achievementCatalog)-1, s.badges.cursor)
}

func TestProfileResetClosesAchievements(t *testing.T) {
	s := profileWithStats(routing.RoleUser)
	s.Update(keyPress("a"))
	s.Update(keyPress("enter"))
	require.NotNil(t, s.badges.detail)

	s.Reset()
	assert.False(t, s.showBadges)
	assert.Nil(t, s.badges.detail)
}

func TestBusinessProfileHasNoAchievements(t *testing.T) {
	s := profileWithStats(routing.RoleBusiness)
	s.Update(keyPress("a"))
	assert.False(t, s.showBadges)
	assert.NotContains(t, s.View(80, 24), "Achievements")
}
