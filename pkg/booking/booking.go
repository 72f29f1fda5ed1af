// Package booking adapts the third-party scheduling widget embedded next to
// the forms. The widget loads asynchronously; Embed polls for readiness in
// the background and settles into Ready or Failed without ever blocking the
// caller.
package booking

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/goliatone/go-formguard/pkg/logger"
)

const (
	WidgetScriptURL     = "https://assets.calendly.com/assets/external/widget.js"
	DefaultHeight       = 640
	MinWidth            = 320
	DefaultPollInterval = 100 * time.Millisecond
	DefaultTimeout      = 3 * time.Second
)

// State is the embed lifecycle position.
type State string

const (
	StateIdle    State = "idle"
	StateLoading State = "loading"
	StateReady   State = "ready"
	StateFailed  State = "failed"
)

// Reason explains StateFailed.
type Reason string

const (
	ReasonNone         Reason = ""
	ReasonTimeout      Reason = "timeout"
	ReasonUnconfigured Reason = "unconfigured"
	ReasonCanceled     Reason = "canceled"
)

var (
	ErrTimeout      = errors.New("booking: widget not ready before timeout")
	ErrUnconfigured = errors.New("booking: no booking url configured")
	ErrCanceled     = errors.New("booking: embed closed before ready")
)

// Err maps a failure reason to its sentinel.
func (r Reason) Err() error {
	switch r {
	case ReasonTimeout:
		return ErrTimeout
	case ReasonUnconfigured:
		return ErrUnconfigured
	case ReasonCanceled:
		return ErrCanceled
	}
	return nil
}

// Probe reports whether the widget can be shown. Errors are treated as
// "not yet".
type Probe interface {
	Ready(ctx context.Context) (bool, error)
}

// ProbeFunc adapts a function to Probe.
type ProbeFunc func(ctx context.Context) (bool, error)

func (f ProbeFunc) Ready(ctx context.Context) (bool, error) { return f(ctx) }

// Option configures an Embed.
type Option func(*Embed)

func WithHeight(px int) Option {
	return func(e *Embed) {
		if px > 0 {
			e.height = px
		}
	}
}

func WithPollInterval(d time.Duration) Option {
	return func(e *Embed) {
		if d > 0 {
			e.poll = d
		}
	}
}

func WithTimeout(d time.Duration) Option {
	return func(e *Embed) {
		if d > 0 {
			e.timeout = d
		}
	}
}

// WithProbe replaces the default HTTP probe.
func WithProbe(p Probe) Option {
	return func(e *Embed) {
		if p != nil {
			e.probe = p
		}
	}
}

// WithPhone sets the number shown by the failure fallback.
func WithPhone(display string) Option {
	return func(e *Embed) {
		if display != "" {
			e.phone = display
		}
	}
}

func WithLogger(l logger.Logger) Option {
	return func(e *Embed) {
		if l != nil {
			e.log = l
		}
	}
}

// Embed is one widget instance.
type Embed struct {
	url     string
	height  int
	poll    time.Duration
	timeout time.Duration
	probe   Probe
	phone   string
	log     logger.Logger

	mu     sync.Mutex
	state  State
	reason Reason
	cancel context.CancelFunc
	done   chan struct{}
	wg     sync.WaitGroup
}

// New builds an idle embed for url. An empty url settles into
// Failed(unconfigured) on Start.
func New(url string, opts ...Option) *Embed {
	e := &Embed{
		url:     url,
		height:  DefaultHeight,
		poll:    DefaultPollInterval,
		timeout: DefaultTimeout,
		phone:   defaultPhone,
		log:     logger.NewNop(),
		state:   StateIdle,
		done:    make(chan struct{}),
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(e)
	}
	if e.probe == nil {
		e.probe = NewHTTPProbe(WidgetScriptURL)
	}
	return e
}

// URL returns the configured booking page.
func (e *Embed) URL() string { return e.url }

// State returns the current state and, for StateFailed, its reason.
func (e *Embed) State() (State, Reason) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state, e.reason
}

// Start begins loading. It returns immediately; calls after the first are
// no-ops. Cancelling ctx fails the embed with ReasonCanceled.
func (e *Embed) Start(ctx context.Context) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state != StateIdle {
		return
	}
	if e.url == "" {
		e.settleLocked(StateFailed, ReasonUnconfigured)
		return
	}

	runCtx, cancel := context.WithTimeout(ctx, e.timeout)
	e.cancel = cancel
	e.state = StateLoading
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		e.run(runCtx)
	}()
}

func (e *Embed) run(ctx context.Context) {
	ticker := time.NewTicker(e.poll)
	defer ticker.Stop()

	if e.check(ctx) {
		return
	}
	for {
		select {
		case <-ctx.Done():
			reason := ReasonCanceled
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				reason = ReasonTimeout
			}
			e.settle(StateFailed, reason)
			return
		case <-ticker.C:
			if e.check(ctx) {
				return
			}
		}
	}
}

func (e *Embed) check(ctx context.Context) bool {
	ready, err := e.probe.Ready(ctx)
	if err != nil {
		e.log.Debug("booking probe failed", "error", err)
		return false
	}
	if !ready || ctx.Err() != nil {
		return false
	}
	e.settle(StateReady, ReasonNone)
	return true
}

func (e *Embed) settle(state State, reason Reason) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.settleLocked(state, reason)
}

func (e *Embed) settleLocked(state State, reason Reason) {
	if e.state == StateReady || e.state == StateFailed {
		return
	}
	e.state = state
	e.reason = reason
	if e.cancel != nil {
		e.cancel()
	}
	if reason != ReasonNone {
		e.log.Info("booking embed unavailable", "reason", string(reason))
	}
	close(e.done)
}

// Wait blocks until the embed settles or ctx ends. It returns the settled
// state and the failure sentinel, if any.
func (e *Embed) Wait(ctx context.Context) (State, error) {
	select {
	case <-e.Done():
	case <-ctx.Done():
		state, _ := e.State()
		return state, ctx.Err()
	}
	state, reason := e.State()
	return state, reason.Err()
}

// Done is closed once the embed settles.
func (e *Embed) Done() <-chan struct{} {
	return e.done
}

// Close stops polling and returns once the poller has exited. A loading or
// idle embed fails with ReasonCanceled, so Wait never hangs after Close.
func (e *Embed) Close() {
	e.mu.Lock()
	cancel := e.cancel
	e.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	e.settle(StateFailed, ReasonCanceled)
	e.wg.Wait()
}
