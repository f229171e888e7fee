package assistant

import (
	"context"
	"sync"
	"time"
)

// Validator debounces subreddit existence probes. Each new submission
// supersedes the previous one: its timer is stopped and its context
// cancelled, so a stale result can never arrive after a newer one.
type Validator struct {
	fetcher Fetcher
	delay   time.Duration

	mu      sync.Mutex
	pending *probe
}

type probe struct {
	cancel context.CancelFunc
	timer  *time.Timer
	out    chan Result
}

// Result is the outcome of one validation probe. It carries the probed name
// so callers can tell which input it belongs to.
type Result struct {
	Subreddit string
	Valid     bool
}

// NewValidator creates a validator that waits delay after the last input
// before probing.
func NewValidator(fetcher Fetcher, delay time.Duration) *Validator {
	if delay <= 0 {
		delay = time.Second
	}
	return &Validator{fetcher: fetcher, delay: delay}
}

// Submit schedules validation of name after the debounce delay, superseding
// any pending probe. The result arrives on the returned channel; the channel
// of a superseded probe is closed without a value.
func (v *Validator) Submit(ctx context.Context, name string) <-chan Result {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.cancelPendingLocked()

	probeCtx, cancel := context.WithCancel(ctx)
	p := &probe{cancel: cancel, out: make(chan Result, 1)}
	p.timer = time.AfterFunc(v.delay, func() {
		defer close(p.out)
		if probeCtx.Err() != nil {
			return
		}
		valid := v.fetcher.ValidateSubreddit(probeCtx, name)
		// Superseded while the probe was on the wire: drop the result.
		if probeCtx.Err() != nil {
			return
		}
		p.out <- Result{Subreddit: name, Valid: valid}
	})
	v.pending = p

	return p.out
}

// Cancel discards any pending probe.
func (v *Validator) Cancel() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.cancelPendingLocked()
}

func (v *Validator) cancelPendingLocked() {
	p := v.pending
	if p == nil {
		return
	}
	v.pending = nil
	p.cancel()
	// If the timer had not fired yet its function never runs, so the
	// channel is closed here instead.
	if p.timer.Stop() {
		close(p.out)
	}
}
