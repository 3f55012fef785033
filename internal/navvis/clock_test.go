package navvis

import (
	"sort"
	"time"
)

// manualClock is a virtual-time Scheduler. Callbacks run on the goroutine
// calling Advance, which stands in for the event loop.
type manualClock struct {
	now    time.Duration
	seq    int
	timers []*manualTimer
}

type manualTimer struct {
	at      time.Duration
	seq     int
	f       func()
	stopped bool
	fired   bool
}

func (t *manualTimer) Stop() bool {
	if t.stopped || t.fired {
		return false
	}
	t.stopped = true
	return true
}

func (c *manualClock) AfterFunc(d time.Duration, f func()) Stopper {
	t := &manualTimer{at: c.now + d, seq: c.seq, f: f}
	c.seq++
	c.timers = append(c.timers, t)
	return t
}

// Advance moves virtual time forward by d, firing due timers in order.
func (c *manualClock) Advance(d time.Duration) {
	target := c.now + d
	for {
		next := c.nextDue(target)
		if next == nil {
			break
		}
		c.now = next.at
		next.fired = true
		next.f()
	}
	c.now = target
}

func (c *manualClock) nextDue(limit time.Duration) *manualTimer {
	var live []*manualTimer
	for _, t := range c.timers {
		if !t.stopped && !t.fired && t.at <= limit {
			live = append(live, t)
		}
	}
	if len(live) == 0 {
		return nil
	}
	sort.Slice(live, func(i, j int) bool {
		if live[i].at == live[j].at {
			return live[i].seq < live[j].seq
		}
		return live[i].at < live[j].at
	})
	return live[0]
}

// Live counts armed, not yet fired timers.
func (c *manualClock) Live() int {
	n := 0
	for _, t := range c.timers {
		if !t.stopped && !t.fired {
			n++
		}
	}
	return n
}

// NextDeadline returns when the earliest live timer fires.
func (c *manualClock) NextDeadline() (time.Duration, bool) {
	t := c.nextDue(1<<62 - 1)
	if t == nil {
		return 0, false
	}
	return t.at, true
}

// leakyScheduler never honors Stop, modelling a timer that already fired
// and posted its callback before it was stopped.
type leakyScheduler struct {
	callbacks []func()
}

func (s *leakyScheduler) AfterFunc(_ time.Duration, f func()) Stopper {
	s.callbacks = append(s.callbacks, f)
	return leakyStopper{}
}

type leakyStopper struct{}

func (leakyStopper) Stop() bool { return false }
