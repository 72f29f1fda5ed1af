// Package guard holds the anti-abuse checks that sit in front of a form
// submission: the honeypot field, the double-submit guard and the minimum
// fill time.
package guard

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// ErrBotDetected marks a submission rejected by the honeypot. It is for logs
// and metrics only and must never reach the user verbatim.
var ErrBotDetected = errors.New("guard: honeypot field filled")

// IsHoneypotFilled reports whether the decoy field carries anything besides
// whitespace.
func IsHoneypotFilled(value string) bool {
	return strings.TrimSpace(value) != ""
}

// SubmitGuard allows at most one in-flight submission. A second Begin while
// one is active is refused rather than queued.
type SubmitGuard struct {
	active atomic.Bool
}

// Begin claims the guard. When ok is true the caller must invoke release on
// every exit path; release is safe to call more than once.
func (g *SubmitGuard) Begin() (release func(), ok bool) {
	if !g.active.CompareAndSwap(false, true) {
		return func() {}, false
	}
	var once sync.Once
	return func() {
		once.Do(func() { g.active.Store(false) })
	}, true
}

// Active reports whether a submission is in flight.
func (g *SubmitGuard) Active() bool {
	return g.active.Load()
}

// SleepFunc waits for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Sleep is the default SleepFunc backed by a timer.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// FillOption configures a FillTimer.
type FillOption func(*FillTimer)

// WithFillClock overrides time.Now.
func WithFillClock(now func() time.Time) FillOption {
	return func(f *FillTimer) {
		if now != nil {
			f.now = now
		}
	}
}

// WithSleep overrides the wait implementation.
func WithSleep(sleep SleepFunc) FillOption {
	return func(f *FillTimer) {
		if sleep != nil {
			f.sleep = sleep
		}
	}
}

// FillTimer enforces a minimum time between form mount and submission.
// Submissions that arrive early are delayed, not rejected.
type FillTimer struct {
	min   time.Duration
	now   func() time.Time
	sleep SleepFunc

	mu    sync.Mutex
	start time.Time
}

// NewFillTimer starts the clock immediately.
func NewFillTimer(min time.Duration, opts ...FillOption) *FillTimer {
	f := &FillTimer{
		min:   min,
		now:   time.Now,
		sleep: Sleep,
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(f)
	}
	f.start = f.now()
	return f
}

// Min returns the configured threshold.
func (f *FillTimer) Min() time.Duration {
	return f.min
}

// Elapsed returns the time since the last Reset.
func (f *FillTimer) Elapsed() time.Duration {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now().Sub(f.start)
}

// Remaining returns how much longer Wait would block.
func (f *FillTimer) Remaining() time.Duration {
	remaining := f.min - f.Elapsed()
	if remaining < 0 {
		return 0
	}
	return remaining
}

// Wait blocks for the remaining fill time. It returns ctx.Err() when the
// context ends first.
func (f *FillTimer) Wait(ctx context.Context) error {
	remaining := f.Remaining()
	if remaining <= 0 {
		return ctx.Err()
	}
	return f.sleep(ctx, remaining)
}

// Reset restarts the clock, as on a fresh form.
func (f *FillTimer) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.start = f.now()
}
