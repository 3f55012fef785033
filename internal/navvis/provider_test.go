package navvis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mountedProvider(t *testing.T, timeout time.Duration) (*Provider, *manualClock) {
	t.Helper()
	clock := &manualClock{}
	p := NewProvider(Config{InactivityTimeout: timeout}, clock, nil)
	p.Mount()
	t.Cleanup(p.Unmount)
	return p, clock
}

func TestProviderVisibleImmediatelyAfterMount(t *testing.T) {
	p, _ := mountedProvider(t, 3*time.Second)

	assert.True(t, p.IsVisible())
	assert.True(t, p.CountdownPending(), "mount must arm the first countdown")
}

func TestProviderAutoHidesWithoutInteraction(t *testing.T) {
	p, clock := mountedProvider(t, 3*time.Second)

	clock.Advance(2999 * time.Millisecond)
	require.True(t, p.IsVisible())
	clock.Advance(time.Millisecond)
	assert.False(t, p.IsVisible())
}

func TestProviderResetBeforeTimeout(t *testing.T) {
	p, clock := mountedProvider(t, 3*time.Second)

	clock.Advance(2 * time.Second)
	p.ResetInactivityTimer()

	clock.Advance(2999 * time.Millisecond)
	require.True(t, p.IsVisible(), "visible through t=4999ms")
	clock.Advance(time.Millisecond)
	assert.False(t, p.IsVisible(), "hidden at t=5000ms")
}

func TestProviderActivityShowsHiddenBar(t *testing.T) {
	p, clock := mountedProvider(t, time.Second)

	var got []bool
	p.Subscribe(func(v bool) { got = append(got, v) })

	clock.Advance(time.Second)
	require.False(t, p.IsVisible())

	p.ResetInactivityTimer()
	assert.True(t, p.IsVisible())
	assert.True(t, p.CountdownPending())
	assert.Equal(t, []bool{false, true}, got)
}

func TestProviderUnmountCancelsCountdown(t *testing.T) {
	clock := &manualClock{}
	p := NewProvider(Config{InactivityTimeout: 3 * time.Second}, clock, nil)
	p.Mount()

	notified := 0
	p.Subscribe(func(bool) { notified++ })

	clock.Advance(time.Second)
	p.Unmount()

	require.NotPanics(t, func() { clock.Advance(10 * time.Second) })
	assert.Zero(t, notified)
	assert.Zero(t, clock.Live())
	assert.False(t, p.Mounted())

	// Unmount is safe to repeat.
	assert.NotPanics(t, p.Unmount)
}

func TestProviderDefaultTimeout(t *testing.T) {
	p := NewProvider(Config{}, &manualClock{}, nil)
	assert.Equal(t, DefaultInactivityTimeout, p.Timeout())
	assert.Equal(t, DefaultInactivityTimeout, DefaultConfig().InactivityTimeout)
}

func TestProviderNeverHide(t *testing.T) {
	p, clock := mountedProvider(t, NeverHide)

	clock.Advance(24 * time.Hour)
	assert.True(t, p.IsVisible())
	assert.False(t, p.CountdownPending())
}

func TestProviderRejectsNegativeTimeout(t *testing.T) {
	for _, d := range []time.Duration{-2, -time.Second} {
		func() {
			defer func() {
				err, ok := recover().(error)
				require.True(t, ok, "expected a panic for %s", d)
				assert.ErrorIs(t, err, ErrInvalidTimeout)
			}()
			NewProvider(Config{InactivityTimeout: d}, &manualClock{}, nil)
		}()
	}
	assert.NotPanics(t, func() { NewProvider(Config{InactivityTimeout: NeverHide}, &manualClock{}, nil) })
}

func TestProviderMisuseFailsLoudly(t *testing.T) {
	tests := []struct {
		name     string
		provider func() *Provider
	}{
		{"nil provider", func() *Provider { return nil }},
		{"not mounted", func() *Provider {
			return NewProvider(DefaultConfig(), &manualClock{}, nil)
		}},
		{"unmounted", func() *Provider {
			p := NewProvider(DefaultConfig(), &manualClock{}, nil)
			p.Mount()
			p.Unmount()
			return p
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := tt.provider()
			assertNoProviderPanic(t, func() { p.IsVisible() })
			assertNoProviderPanic(t, func() { p.ResetInactivityTimer() })
		})
	}
}

func TestProviderCannotRemountAfterUnmount(t *testing.T) {
	p := NewProvider(DefaultConfig(), &manualClock{}, nil)
	p.Mount()
	p.Unmount()
	assertNoProviderPanic(t, p.Mount)
}

func TestFromContext(t *testing.T) {
	_, err := FromContext(context.Background())
	assert.ErrorIs(t, err, ErrNoProvider)

	p := NewProvider(DefaultConfig(), &manualClock{}, nil)
	ctx := WithProvider(context.Background(), p)

	_, err = FromContext(ctx)
	assert.ErrorIs(t, err, ErrNoProvider, "unmounted provider must not resolve")

	p.Mount()
	defer p.Unmount()
	got, err := FromContext(ctx)
	require.NoError(t, err)
	assert.Same(t, p, got)
	assert.Same(t, p, MustFromContext(ctx))

	assertNoProviderPanic(t, func() { MustFromContext(context.Background()) })
}

func assertNoProviderPanic(t *testing.T, fn func()) {
	t.Helper()
	defer func() {
		t.Helper()
		r := recover()
		require.NotNil(t, r, "expected a panic")
		err, ok := r.(error)
		require.True(t, ok, "panic value %v is not an error", r)
		assert.True(t, errors.Is(err, ErrNoProvider), "panic %v does not wrap ErrNoProvider", err)
	}()
	fn()
}
