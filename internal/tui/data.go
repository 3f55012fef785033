package tui

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/walkpoints/walkpoints/internal/database"
	"github.com/walkpoints/walkpoints/internal/routing"
	"github.com/walkpoints/walkpoints/pkg/timeutil"
)

// Setting keys persisted in the settings table.
const (
	settingOnboarded = "onboarding_complete"
	settingRole      = "role"
	settingMotion    = "motion_permission"
)

// Snapshot is everything the screens render, loaded in one pass and
// replaced wholesale after every mutation.
type Snapshot struct {
	Profile     *database.Profile
	Today       *database.DailyActivity
	Days        []*database.DailyActivity // oldest first
	Lifetime    *database.ActivityStats
	Milestones  []*database.Milestone
	Rewards     []*database.Reward
	Redemptions []*database.Redemption
	LoadedAt    time.Time
}

// TodaySteps returns the step count recorded for today.
func (s *Snapshot) TodaySteps() int {
	if s == nil || s.Today == nil {
		return 0
	}
	return s.Today.Steps
}

// Points returns the current balance.
func (s *Snapshot) Points() int {
	if s == nil || s.Profile == nil {
		return 0
	}
	return s.Profile.Points
}

// ────────────────────────────────────────────────────────────
// Messages
// ────────────────────────────────────────────────────────────

type snapshotMsg struct{ snap *Snapshot }

type settingsMsg struct {
	onboarded bool
	role      routing.Role
	hasRole   bool
}

// mutationMsg reports a completed write; the root model reloads the
// snapshot and shows status.
type mutationMsg struct{ status string }

type redeemedMsg struct{ red *database.Redemption }

type errMsg struct{ err error }

func (e errMsg) Error() string { return e.err.Error() }

// ────────────────────────────────────────────────────────────
// Actions
// ────────────────────────────────────────────────────────────

// actions builds the commands that read and write the store.
type actions struct {
	store database.Store
	now   func() time.Time
	log   *zap.Logger
}

func (a actions) loadSnapshot() tea.Cmd {
	return func() tea.Msg {
		snap, err := a.snapshot()
		if err != nil {
			return errMsg{err}
		}
		return snapshotMsg{snap}
	}
}

func (a actions) snapshot() (*Snapshot, error) {
	now := a.now()
	snap := &Snapshot{LoadedAt: now}

	var g errgroup.Group
	g.Go(func() error {
		p, err := a.store.GetProfile()
		if err != nil {
			return fmt.Errorf("loading profile: %w", err)
		}
		snap.Profile = p
		return nil
	})
	g.Go(func() error {
		days, err := a.store.QueryActivities(database.ActivityFilter{})
		if err != nil {
			return fmt.Errorf("loading activity: %w", err)
		}
		snap.Days = days
		return nil
	})
	g.Go(func() error {
		stats, err := a.store.GetActivityStats()
		if err != nil {
			return fmt.Errorf("loading lifetime stats: %w", err)
		}
		snap.Lifetime = stats
		return nil
	})
	g.Go(func() error {
		ms, err := a.store.ListMilestones()
		if err != nil {
			return fmt.Errorf("loading milestones: %w", err)
		}
		snap.Milestones = ms
		return nil
	})
	g.Go(func() error {
		rs, err := a.store.ListRewards(database.RewardFilter{})
		if err != nil {
			return fmt.Errorf("loading rewards: %w", err)
		}
		snap.Rewards = rs
		return nil
	})
	g.Go(func() error {
		reds, err := a.store.ListRedemptions(0)
		if err != nil {
			return fmt.Errorf("loading redemptions: %w", err)
		}
		snap.Redemptions = reds
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	today := timeutil.FormatDay(now)
	for _, d := range snap.Days {
		if d.Day == today {
			snap.Today = d
		}
	}
	return snap, nil
}

func (a actions) loadSettings() tea.Cmd {
	return func() tea.Msg {
		var msg settingsMsg
		v, ok, err := a.store.GetSetting(settingOnboarded)
		if err != nil {
			return errMsg{fmt.Errorf("reading onboarding state: %w", err)}
		}
		if ok {
			msg.onboarded, _ = strconv.ParseBool(v)
		}

		v, ok, err = a.store.GetSetting(settingRole)
		if err != nil {
			return errMsg{fmt.Errorf("reading role: %w", err)}
		}
		if ok {
			msg.role, msg.hasRole = routing.ParseRole(v)
		}
		return msg
	}
}

// saveSetting persists a setting. It reports only failures.
func (a actions) saveSetting(key, value string) tea.Cmd {
	return func() tea.Msg {
		if err := a.store.SetSetting(key, value); err != nil {
			return errMsg{fmt.Errorf("saving %s: %w", key, err)}
		}
		a.log.Debug("setting saved", zap.String("key", key), zap.String("value", value))
		return nil
	}
}

func (a actions) addMilestone(target int) tea.Cmd {
	return func() tea.Msg {
		m := database.NewMilestone(target, a.now().UnixNano())
		if err := a.store.InsertMilestone(m); err != nil {
			return errMsg{fmt.Errorf("adding milestone: %w", err)}
		}
		a.log.Info("milestone added",
			zap.String("milestone_id", m.MilestoneID),
			zap.Int("target_steps", m.TargetSteps),
			zap.Int("points", m.Points))
		return mutationMsg{status: fmt.Sprintf("Milestone added: %d steps for %d pts", m.TargetSteps, m.Points)}
	}
}

func (a actions) redeem(rewardID string) tea.Cmd {
	return func() tea.Msg {
		red, err := a.store.Redeem(rewardID, a.now().UnixNano())
		if err != nil {
			if !errors.Is(err, database.ErrInsufficientPoints) {
				err = fmt.Errorf("redeeming reward: %w", err)
			}
			return errMsg{err}
		}
		a.log.Info("reward redeemed",
			zap.String("reward_id", red.RewardID),
			zap.String("code", red.Code),
			zap.Int("points", red.Points))
		return redeemedMsg{red}
	}
}

func (a actions) toggleReward(r *database.Reward) tea.Cmd {
	active := !r.Active
	id, title := r.RewardID, r.Title
	return func() tea.Msg {
		if err := a.store.SetRewardActive(id, active); err != nil {
			return errMsg{fmt.Errorf("updating reward: %w", err)}
		}
		state := "deactivated"
		if active {
			state = "activated"
		}
		a.log.Info("reward toggled", zap.String("reward_id", id), zap.Bool("active", active))
		return mutationMsg{status: fmt.Sprintf("%s %s", title, state)}
	}
}
