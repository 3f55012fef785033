package tui

import (
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/walkpoints/walkpoints/internal/routing"
)

// Screen is the content of one tab. Screens are created once per stack
// and keep their local state until Reset, which the stack calls when the
// user navigates away.
type Screen interface {
	// SetData replaces the rendered snapshot.
	SetData(snap *Snapshot)
	// Update handles a message the stack did not consume.
	Update(msg tea.Msg) tea.Cmd
	// View renders the screen into a body of exactly width x height.
	View(width, height int) string
	// Reset drops local state such as search text and open modals.
	Reset()
	// Capturing reports whether a text field or modal owns the keyboard,
	// which disables tab shortcuts.
	Capturing() bool
	// Hints lists the screen's bindings for the footer.
	Hints() []key.Binding
}

// navigateMsg asks the stack to switch tabs, as if the bar was tapped.
type navigateMsg struct{ tab routing.TabRoute }

func navigate(tab routing.TabRoute) tea.Cmd {
	return func() tea.Msg { return navigateMsg{tab} }
}

// switchRoleMsg returns to the role chooser.
type switchRoleMsg struct{}

// screenDeps is what screens need from the root model.
type screenDeps struct {
	acts              actions
	now               func() time.Time
	inactivityTimeout time.Duration
}

// newScreens builds one screen per tab of role.
func newScreens(role routing.Role, deps screenDeps) map[routing.TabRoute]Screen {
	if role == routing.RoleBusiness {
		return map[routing.TabRoute]Screen{
			routing.TabDashboard: newDashboardScreen(),
			routing.TabAnalytics: newBusinessAnalyticsScreen(deps.now),
			routing.TabRewards:   newManageRewardsScreen(deps.acts),
			routing.TabProfile:   newProfileScreen(role, deps.inactivityTimeout),
		}
	}
	return map[routing.TabRoute]Screen{
		routing.TabHome:       newHomeScreen(deps.now),
		routing.TabMilestones: newMilestonesScreen(deps.acts),
		routing.TabAnalytics:  newAnalyticsScreen(deps.now),
		routing.TabRewards:    newRewardsScreen(deps.acts),
		routing.TabProfile:    newProfileScreen(role, deps.inactivityTimeout),
	}
}

// loadingView is shown by screens before the first snapshot arrives.
func loadingView(width, height int) string {
	return fitHeight(emptyStateStyle.Render("Loading..."), height)
}
