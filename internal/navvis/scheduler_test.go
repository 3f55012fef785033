package navvis

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestLoopRunsCallbacksInOrder(t *testing.T) {
	loop := NewLoop(4)
	var got []int
	for i := 0; i < 3; i++ {
		i := i
		require.True(t, loop.Post(func() { got = append(got, i) }))
	}
	require.True(t, loop.Post(loop.Close))

	require.NoError(t, loop.Run(context.Background()))
	assert.Equal(t, []int{0, 1, 2}, got)
}

func TestLoopPostAfterCloseIsDropped(t *testing.T) {
	loop := NewLoop(1)
	loop.Close()
	loop.Close()

	assert.False(t, loop.Post(func() {}))
}

func TestLoopRunStopsOnContextCancel(t *testing.T) {
	loop := NewLoop(0)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, loop.Run(ctx), context.Canceled)
}

func TestLoopSchedulerDeliversOnLoop(t *testing.T) {
	defer goleak.VerifyNone(t)

	loop := NewLoop(1)
	sched := NewLoopScheduler(loop)
	p := NewProvider(Config{InactivityTimeout: 10 * time.Millisecond}, sched, nil)
	p.Mount()

	select {
	case f := <-loop.Queue():
		require.True(t, p.IsVisible(), "timeout must not run off the loop")
		f()
	case <-time.After(2 * time.Second):
		t.Fatal("timeout callback never reached the loop")
	}

	assert.False(t, p.IsVisible())
	p.Unmount()
	loop.Close()
}

func TestLoopSchedulerNoLeakAfterUnmount(t *testing.T) {
	defer goleak.VerifyNone(t)

	// Unbuffered and never drained: a fired timer blocks in Post until Close.
	loop := NewLoop(0)
	p := NewProvider(Config{InactivityTimeout: time.Millisecond}, NewLoopScheduler(loop), nil)
	p.Mount()
	time.Sleep(20 * time.Millisecond)

	p.Unmount()
	loop.Close()
}

func TestLoopSchedulerStopPreventsDelivery(t *testing.T) {
	defer goleak.VerifyNone(t)

	loop := NewLoop(1)
	p := NewProvider(Config{InactivityTimeout: 50 * time.Millisecond}, NewLoopScheduler(loop), nil)
	p.Mount()
	p.Unmount()

	select {
	case <-loop.Queue():
		t.Fatal("canceled countdown was delivered")
	case <-time.After(100 * time.Millisecond):
	}
	loop.Close()
}
