package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/dustin/go-humanize"

	"github.com/walkpoints/walkpoints/internal/navvis"
	"github.com/walkpoints/walkpoints/internal/routing"
	"github.com/walkpoints/walkpoints/pkg/timeutil"
)

// profileScreen is shared by both stacks. Walkers can open their
// achievements from it.
type profileScreen struct {
	snap    *Snapshot
	role    routing.Role
	timeout time.Duration

	badges     *achievementsView
	showBadges bool
}

func newProfileScreen(role routing.Role, timeout time.Duration) *profileScreen {
	return &profileScreen{role: role, timeout: timeout, badges: newAchievementsView()}
}

func (s *profileScreen) SetData(snap *Snapshot) { s.snap = snap }

func (s *profileScreen) Reset() {
	s.showBadges = false
	s.badges.reset()
}

func (s *profileScreen) Capturing() bool { return s.badges.detail != nil }

func (s *profileScreen) Hints() []key.Binding {
	switch {
	case s.badges.detail != nil:
		return []key.Binding{keys.Back}
	case s.showBadges:
		return []key.Binding{keys.Select, keys.Back}
	case s.role == routing.RoleUser:
		return []key.Binding{keys.Badges, keys.Role}
	}
	return []key.Binding{keys.Role}
}

func (s *profileScreen) Update(msg tea.Msg) tea.Cmd {
	if s.showBadges {
		s.updateBadges(msg)
		return nil
	}
	km, ok := msg.(tea.KeyMsg)
	if !ok {
		return nil
	}
	switch {
	case key.Matches(km, keys.Role):
		return func() tea.Msg { return switchRoleMsg{} }
	case key.Matches(km, keys.Badges) && s.role == routing.RoleUser && s.snap != nil:
		s.showBadges = true
	}
	return nil
}

func (s *profileScreen) updateBadges(msg tea.Msg) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case s.badges.detail != nil:
			if key.Matches(msg, keys.Back, keys.Select) {
				s.badges.detail = nil
			}
		case key.Matches(msg, keys.Back):
			s.Reset()
		case key.Matches(msg, keys.Up):
			s.badges.move(-1)
		case key.Matches(msg, keys.Down):
			s.badges.move(1)
		case key.Matches(msg, keys.Select):
			s.badges.open(s.snap.Lifetime)
		}
	case tea.MouseMsg:
		switch msg.Button {
		case tea.MouseButtonWheelUp:
			s.badges.move(-1)
		case tea.MouseButtonWheelDown:
			s.badges.move(1)
		}
	}
}

func (s *profileScreen) View(width, height int) string {
	if s.snap == nil {
		return loadingView(width, height)
	}
	if s.showBadges {
		return s.badges.render(s.snap.Lifetime, width, height)
	}
	p := s.snap.Profile

	var b strings.Builder
	b.WriteString(titleStyle.Render(p.Name))
	b.WriteString("\n")
	roleLabel := "Walker"
	if s.role == routing.RoleBusiness {
		roleLabel = "Business"
	}
	b.WriteString(subtitleStyle.Render(fmt.Sprintf("%s · member since %s", roleLabel, timeutil.FormatDate(p.MemberSince))))
	b.WriteString("\n")

	if s.role == routing.RoleUser {
		b.WriteString(sectionStyle.Render("Lifetime"))
		b.WriteString("\n")
		if lt := s.snap.Lifetime; lt != nil {
			b.WriteString(statLine("Steps", humanize.Comma(int64(lt.TotalSteps))))
			b.WriteString(statLine("Distance", timeutil.FormatDistance(lt.TotalDistanceM)))
			b.WriteString(statLine("Active time", timeutil.FormatMinutes(lt.TotalActiveMinutes)))
			b.WriteString(statLine("Days tracked", humanize.Comma(int64(lt.Days))))
			if lt.BestSteps > 0 {
				b.WriteString(statLine("Best day", fmt.Sprintf("%s  %s steps", lt.BestDay, humanize.Comma(int64(lt.BestSteps)))))
			}
		}
		b.WriteString(statLine("Points", humanize.Comma(int64(p.Points))))
		b.WriteString(statLine("Redemptions", humanize.Comma(int64(len(s.snap.Redemptions)))))
		list := evaluateAchievements(s.snap.Lifetime)
		b.WriteString(statLine("Achievements", fmt.Sprintf("%d / %d", unlockedCount(list), len(list))))
	}

	b.WriteString(sectionStyle.Render("Settings"))
	b.WriteString("\n")
	if s.role == routing.RoleUser {
		b.WriteString(statLine("Daily goal", humanize.Comma(int64(p.DailyGoal))+" steps"))
		b.WriteString(statLine("Stride", fmt.Sprintf("%.2f m", p.StrideM)))
	}
	hide := "after " + s.timeout.String()
	if s.timeout == navvis.NeverHide {
		hide = "never"
	}
	b.WriteString(statLine("Hide nav bar", hide))

	return fitHeight(screenStyle.Render(b.String()), height)
}
