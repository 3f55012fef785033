package navvis

import (
	"context"
	"sync"
	"time"
)

// Stopper cancels a scheduled callback. Stop reports whether the call
// prevented the callback from being delivered; *time.Timer satisfies it.
type Stopper interface {
	Stop() bool
}

// Scheduler arms one-shot callbacks.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Stopper
}

// ────────────────────────────────────────────────────────────
// Loop
// ────────────────────────────────────────────────────────────

// Loop is a queue of callbacks drained by a single goroutine. In the TUI
// the Bubble Tea update loop drains it; elsewhere Run does.
type Loop struct {
	queue chan func()
	done  chan struct{}
	once  sync.Once
}

// NewLoop creates a loop whose queue holds up to size pending callbacks.
func NewLoop(size int) *Loop {
	if size < 0 {
		size = 0
	}
	return &Loop{
		queue: make(chan func(), size),
		done:  make(chan struct{}),
	}
}

// Post enqueues f for the draining goroutine. It blocks while the queue is
// full and returns false once the loop has been closed.
func (l *Loop) Post(f func()) bool {
	select {
	case <-l.done:
		return false
	default:
	}

	select {
	case l.queue <- f:
		return true
	case <-l.done:
		return false
	}
}

// Queue is the receive side of the loop.
func (l *Loop) Queue() <-chan func() {
	return l.queue
}

// Done is closed when the loop is closed.
func (l *Loop) Done() <-chan struct{} {
	return l.done
}

// Close stops accepting callbacks. Callbacks still queued are dropped.
// Safe to call more than once.
func (l *Loop) Close() {
	l.once.Do(func() { close(l.done) })
}

// Run drains the loop on the calling goroutine until ctx is canceled or
// the loop is closed.
func (l *Loop) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.done:
			return nil
		case f := <-l.queue:
			f()
		}
	}
}

// ────────────────────────────────────────────────────────────
// LoopScheduler
// ────────────────────────────────────────────────────────────

// LoopScheduler arms wall-clock timers whose expiry posts the callback
// onto a Loop instead of running it on the timer goroutine.
type LoopScheduler struct {
	loop *Loop
}

// NewLoopScheduler returns a scheduler that delivers callbacks to loop.
func NewLoopScheduler(loop *Loop) *LoopScheduler {
	return &LoopScheduler{loop: loop}
}

// AfterFunc arms a timer. A callback that was already posted when Stop is
// called still reaches the loop; Timer discards it by generation.
func (s *LoopScheduler) AfterFunc(d time.Duration, f func()) Stopper {
	return time.AfterFunc(d, func() {
		s.loop.Post(f)
	})
}
