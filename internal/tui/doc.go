// Package tui implements the WalkPoints terminal user interface.
//
// The interface is built with Charmbracelet's BubbleTea, Lipgloss, and
// Bubbles libraries. After onboarding and role selection it mounts one tab
// stack per role. Each stack owns a navvis.Provider, so its tab bar slides
// out of view after a period without input and returns on the next key
// press, click, or scroll.
//
// Component architecture:
//
//	model.go      root model, phases, message routing
//	stack.go      mounted tab stack: router, screens, bar, provider
//	container.go  screen host, activity forwarding, bar overlay
//	tabbar.go     animated bottom navigation bar
//	activity.go   which input counts as activity
//	loop.go       delivery of inactivity timeouts into Update
//	data.go       snapshot loading and store actions
//	screen.go     Screen interface and per-role screen sets
//	home.go, milestones.go, rewards.go, analytics.go, profile.go
//	business.go   dashboard, reward analytics, reward management
//	onboarding.go first-run carousel and role chooser
//	header.go     top bar and footer with key hints
//	theme.go      centralized color + style definitions
//	helpers.go    layout, search, and string helpers
package tui
