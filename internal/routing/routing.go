// Package routing owns the tab routes of the two WalkPoints tab stacks
// and the active-route state for a mounted stack.
//
// The navigation bar only ever hands the router a tab id string; the
// router maps it to a route, a path, and a screen.
package routing

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownRoute is returned when a tab id is not part of the stack.
var ErrUnknownRoute = errors.New("unknown tab route")

// Role selects which tab stack is mounted.
type Role string

const (
	RoleUser     Role = "user"
	RoleBusiness Role = "business"
)

// ParseRole maps a config or settings value onto a Role.
func ParseRole(s string) (Role, bool) {
	switch Role(strings.ToLower(strings.TrimSpace(s))) {
	case RoleUser:
		return RoleUser, true
	case RoleBusiness:
		return RoleBusiness, true
	default:
		return "", false
	}
}

// TabRoute identifies a tab within a stack.
type TabRoute string

const (
	TabHome       TabRoute = "home"
	TabMilestones TabRoute = "milestones"
	TabAnalytics  TabRoute = "analytics"
	TabRewards    TabRoute = "rewards"
	TabProfile    TabRoute = "profile"
	TabDashboard  TabRoute = "dashboard"
)

// Tab describes one item of a stack's navigation bar.
type Tab struct {
	Route TabRoute
	Label string
	Icon  string
	Path  string
}

// Tabs returns the navigation items for role, in bar order.
func Tabs(role Role) []Tab {
	switch role {
	case RoleBusiness:
		return []Tab{
			{Route: TabDashboard, Label: "Dashboard", Icon: "⌂", Path: "/business"},
			{Route: TabAnalytics, Label: "Analytics", Icon: "▤", Path: "/business/analytics"},
			{Route: TabRewards, Label: "Rewards", Icon: "❖", Path: "/business/rewards"},
			{Route: TabProfile, Label: "Profile", Icon: "☺", Path: "/business/profile"},
		}
	default:
		return []Tab{
			{Route: TabHome, Label: "Home", Icon: "⌂", Path: "/user"},
			{Route: TabMilestones, Label: "Milestones", Icon: "⚑", Path: "/user/milestones"},
			{Route: TabAnalytics, Label: "Analytics", Icon: "▤", Path: "/user/analytics"},
			{Route: TabRewards, Label: "Rewards", Icon: "❖", Path: "/user/rewards"},
			{Route: TabProfile, Label: "Profile", Icon: "☺", Path: "/user/profile"},
		}
	}
}

// Router tracks the active tab of one mounted stack.
type Router struct {
	role   Role
	tabs   []Tab
	active int

	onChange []func(from, to TabRoute)
}

// NewRouter creates a router for role with the first tab active.
func NewRouter(role Role) *Router {
	tabs := Tabs(role)
	seen := make(map[TabRoute]bool, len(tabs))
	for _, t := range tabs {
		if seen[t.Route] {
			panic(fmt.Sprintf("duplicate tab route %q in %s stack", t.Route, role))
		}
		seen[t.Route] = true
	}
	return &Router{role: role, tabs: tabs}
}

// Role returns the stack's role.
func (r *Router) Role() Role { return r.role }

// Tabs returns the stack's tabs in bar order.
func (r *Router) Tabs() []Tab { return r.tabs }

// Active returns the active route.
func (r *Router) Active() TabRoute { return r.tabs[r.active].Route }

// ActiveIndex returns the bar position of the active route.
func (r *Router) ActiveIndex() int { return r.active }

// Path returns the path of the active route.
func (r *Router) Path() string { return r.tabs[r.active].Path }

// OnChange registers fn to run after every route change.
func (r *Router) OnChange(fn func(from, to TabRoute)) {
	r.onChange = append(r.onChange, fn)
}

// Navigate activates the tab with the given id. Navigating to the active
// tab is not a change and fires no callbacks.
func (r *Router) Navigate(tabID string) error {
	idx := r.index(TabRoute(tabID))
	if idx < 0 {
		return fmt.Errorf("%w: %q in %s stack", ErrUnknownRoute, tabID, r.role)
	}
	r.activate(idx)
	return nil
}

// Next activates the following tab, wrapping around.
func (r *Router) Next() {
	r.activate((r.active + 1) % len(r.tabs))
}

// Prev activates the preceding tab, wrapping around.
func (r *Router) Prev() {
	r.activate((r.active + len(r.tabs) - 1) % len(r.tabs))
}

// Resolve maps a path to its route. Unknown paths resolve to the stack's
// first tab, the same fallback the bar uses for its highlight.
func (r *Router) Resolve(path string) TabRoute {
	path = strings.TrimSuffix(path, "/index")
	if path != "/" {
		path = strings.TrimSuffix(path, "/")
	}
	for _, t := range r.tabs {
		if t.Path == path {
			return t.Route
		}
	}
	return r.tabs[0].Route
}

func (r *Router) index(route TabRoute) int {
	for i, t := range r.tabs {
		if t.Route == route {
			return i
		}
	}
	return -1
}

func (r *Router) activate(idx int) {
	if idx == r.active {
		return
	}
	from := r.tabs[r.active].Route
	r.active = idx
	to := r.tabs[idx].Route
	for _, fn := range r.onChange {
		fn(from, to)
	}
}
