package navvis

import (
	"time"

	"go.uber.org/zap"
)

// NeverHide disables the countdown: the bar stays visible for the
// lifetime of the provider.
const NeverHide time.Duration = -1

// Timer is the inactivity state machine: Visible and Hidden, starting
// Visible. At most one countdown is armed at any time.
type Timer struct {
	sched   Scheduler
	log     *zap.Logger
	visible bool

	// pending is the single live countdown, nil when none is armed.
	// gen increases on every cancel and arm; a callback only takes
	// effect if it carries the current generation.
	pending Stopper
	gen     uint64

	observers []subscriber
	nextObsID int
}

type subscriber struct {
	id int
	fn func(visible bool)
}

// NewTimer creates a visible timer with no countdown armed.
func NewTimer(sched Scheduler, log *zap.Logger) *Timer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Timer{
		sched:   sched,
		log:     log,
		visible: true,
	}
}

// Visible reports the current visibility flag.
func (t *Timer) Visible() bool {
	return t.visible
}

// Pending reports whether a countdown is armed.
func (t *Timer) Pending() bool {
	return t.pending != nil
}

// Reset shows the bar and restarts the countdown from now. The previous
// countdown is canceled before the new one is armed, within this call.
// NeverHide leaves no countdown armed.
func (t *Timer) Reset(timeout time.Duration) {
	wasVisible := t.visible
	t.visible = true

	t.cancel()
	if timeout != NeverHide {
		t.gen++
		gen := t.gen
		t.pending = t.sched.AfterFunc(timeout, func() { t.onTimeout(gen) })
	}

	if !wasVisible {
		t.log.Debug("nav bar shown")
		t.notify(true)
	}
}

// Cancel drops the pending countdown without touching visibility.
func (t *Timer) Cancel() {
	t.cancel()
}

func (t *Timer) cancel() {
	if t.pending != nil {
		t.pending.Stop()
		t.pending = nil
	}
	t.gen++
}

func (t *Timer) onTimeout(gen uint64) {
	if gen != t.gen || t.pending == nil {
		t.log.Debug("stale inactivity timeout dropped", zap.Uint64("gen", gen))
		return
	}
	t.pending = nil

	if !t.visible {
		return
	}
	t.visible = false
	t.log.Debug("nav bar hidden after inactivity")
	t.notify(false)
}

// Subscribe registers fn to be called on every visibility transition.
// The returned function removes it.
func (t *Timer) Subscribe(fn func(visible bool)) (unsubscribe func()) {
	t.nextObsID++
	id := t.nextObsID
	t.observers = append(t.observers, subscriber{id: id, fn: fn})

	return func() {
		for i, o := range t.observers {
			if o.id == id {
				t.observers = append(t.observers[:i:i], t.observers[i+1:]...)
				return
			}
		}
	}
}

func (t *Timer) clearObservers() {
	t.observers = nil
}

func (t *Timer) notify(visible bool) {
	// Copy so observers may unsubscribe while being notified.
	obs := make([]subscriber, len(t.observers))
	copy(obs, t.observers)
	for _, o := range obs {
		o.fn(visible)
	}
}
