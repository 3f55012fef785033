package navvis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// DefaultInactivityTimeout applies when Config.InactivityTimeout is zero.
const DefaultInactivityTimeout = 5 * time.Second

// ErrNoProvider is the configuration error raised when visibility state is
// used outside a mounted Provider.
var ErrNoProvider = errors.New("navvis: nav visibility used outside a mounted Provider")

// ErrInvalidTimeout is raised by NewProvider for a negative timeout other
// than NeverHide.
var ErrInvalidTimeout = errors.New("navvis: invalid inactivity timeout")

// Config holds the provider's single recognized option.
type Config struct {
	// InactivityTimeout is the countdown before the bar auto-hides.
	// Zero means DefaultInactivityTimeout; NeverHide keeps it visible.
	InactivityTimeout time.Duration `json:"inactivity_timeout"`
}

// DefaultConfig returns the stock provider configuration.
func DefaultConfig() Config {
	return Config{InactivityTimeout: DefaultInactivityTimeout}
}

// Provider scopes one Timer to the mounted lifetime of a tab stack and
// exposes its state to the stack's descendants.
type Provider struct {
	cfg   Config
	timer *Timer
	log   *zap.Logger

	mounted   bool
	unmounted bool
}

// NewProvider creates an unmounted provider. Call Mount before use.
// It panics with ErrInvalidTimeout when the timeout is negative and not
// NeverHide.
func NewProvider(cfg Config, sched Scheduler, log *zap.Logger) *Provider {
	switch {
	case cfg.InactivityTimeout == 0:
		cfg.InactivityTimeout = DefaultInactivityTimeout
	case cfg.InactivityTimeout < 0 && cfg.InactivityTimeout != NeverHide:
		panic(fmt.Errorf("%w: %s", ErrInvalidTimeout, cfg.InactivityTimeout))
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Provider{
		cfg:   cfg,
		timer: NewTimer(sched, log),
		log:   log,
	}
}

// Mount makes the bar visible and arms the first countdown, so the bar
// hides even if the user never interacts. A provider mounts once.
func (p *Provider) Mount() {
	if p.unmounted {
		panic(fmt.Errorf("%w: Mount called after Unmount", ErrNoProvider))
	}
	if p.mounted {
		return
	}
	p.mounted = true
	p.timer.Reset(p.cfg.InactivityTimeout)
	p.log.Debug("nav visibility provider mounted",
		zap.Duration("inactivity_timeout", p.cfg.InactivityTimeout))
}

// Unmount cancels the countdown and detaches every observer. It is
// idempotent so it can be deferred on every exit path.
func (p *Provider) Unmount() {
	if p == nil || !p.mounted {
		return
	}
	p.timer.Cancel()
	p.timer.clearObservers()
	p.mounted = false
	p.unmounted = true
	p.log.Debug("nav visibility provider unmounted")
}

// Mounted reports whether the provider is live.
func (p *Provider) Mounted() bool {
	return p != nil && p.mounted
}

// IsVisible reports whether the bar should be shown.
func (p *Provider) IsVisible() bool {
	p.mustBeMounted("IsVisible")
	return p.timer.Visible()
}

// ResetInactivityTimer records activity: shows the bar and restarts the
// full countdown.
func (p *Provider) ResetInactivityTimer() {
	p.mustBeMounted("ResetInactivityTimer")
	p.timer.Reset(p.cfg.InactivityTimeout)
}

// Subscribe registers fn for visibility transitions until Unmount or the
// returned function is called.
func (p *Provider) Subscribe(fn func(visible bool)) (unsubscribe func()) {
	p.mustBeMounted("Subscribe")
	return p.timer.Subscribe(fn)
}

// CountdownPending reports whether an auto-hide countdown is armed.
func (p *Provider) CountdownPending() bool {
	p.mustBeMounted("CountdownPending")
	return p.timer.Pending()
}

// Timeout returns the effective inactivity timeout.
func (p *Provider) Timeout() time.Duration {
	return p.cfg.InactivityTimeout
}

func (p *Provider) mustBeMounted(op string) {
	switch {
	case p == nil:
		panic(fmt.Errorf("%w: %s called on a nil provider", ErrNoProvider, op))
	case p.unmounted:
		panic(fmt.Errorf("%w: %s called after Unmount", ErrNoProvider, op))
	case !p.mounted:
		panic(fmt.Errorf("%w: %s called before Mount", ErrNoProvider, op))
	}
}

// ────────────────────────────────────────────────────────────
// Context injection
// ────────────────────────────────────────────────────────────

type providerKey struct{}

// WithProvider returns a child context carrying p.
func WithProvider(ctx context.Context, p *Provider) context.Context {
	return context.WithValue(ctx, providerKey{}, p)
}

// FromContext returns the mounted provider carried by ctx.
func FromContext(ctx context.Context) (*Provider, error) {
	p, ok := ctx.Value(providerKey{}).(*Provider)
	if !ok || p == nil {
		return nil, fmt.Errorf("%w: no provider in context", ErrNoProvider)
	}
	if !p.Mounted() {
		return nil, fmt.Errorf("%w: provider in context is not mounted", ErrNoProvider)
	}
	return p, nil
}

// MustFromContext is FromContext for callers that treat a missing
// provider as a wiring bug.
func MustFromContext(ctx context.Context) *Provider {
	p, err := FromContext(ctx)
	if err != nil {
		panic(err)
	}
	return p
}
