// Package navvis implements the navigation bar auto-hide mechanism.
//
// A Provider owns one inactivity Timer for the lifetime of a mounted tab
// stack. Activity (a click, a drag, a scroll, a key press, a tab switch)
// calls ResetInactivityTimer, which shows the bar and restarts the
// countdown. When the countdown elapses with no further activity the bar
// is hidden.
//
// The package is loop-affine: a Timer and its Provider must only be used
// from the goroutine that drains the Loop its Scheduler posts to. The
// scheduler never runs a callback on a timer goroutine; it posts it onto
// the loop, so timeouts interleave with input in arrival order.
//
//	scheduler.go Scheduler/Stopper abstraction, Loop, LoopScheduler
//	timer.go     the inactivity Timer state machine
//	provider.go  Provider lifecycle and context injection
package navvis
