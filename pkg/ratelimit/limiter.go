// Package ratelimit bounds form submissions per installation with a
// persisted sliding window followed by a fixed cooldown.
//
// The limiter fails open: when the backing store cannot be read or written,
// submissions are allowed and the failure is only logged.
package ratelimit

import (
	"encoding/json"
	"math"
	"sync"
	"time"

	"github.com/goliatone/go-formguard/pkg/logger"
)

// DefaultKey names the persisted entry.
const DefaultKey = "form_rate_limit"

// State is the persisted entry. Timestamps are Unix milliseconds.
type State struct {
	Attempts     []int64 `json:"attempts"`
	BlockedUntil *int64  `json:"blockedUntil,omitempty"`
}

// Phase is the limiter's state machine position.
type Phase string

const (
	PhaseOpen    Phase = "open"
	PhaseBlocked Phase = "blocked"
)

// Decision is the result of Check.
type Decision struct {
	Allowed     bool
	Phase       Phase
	WaitMinutes int
	Until       time.Time
}

// Config holds the limiter thresholds.
type Config struct {
	Key         string
	MaxAttempts int
	Window      time.Duration
	Cooldown    time.Duration
}

// DefaultConfig allows three attempts per ten minutes, then blocks for ten
// minutes.
func DefaultConfig() Config {
	return Config{
		Key:         DefaultKey,
		MaxAttempts: 3,
		Window:      10 * time.Minute,
		Cooldown:    10 * time.Minute,
	}
}

func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.Key == "" {
		c.Key = def.Key
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = def.MaxAttempts
	}
	if c.Window <= 0 {
		c.Window = def.Window
	}
	if c.Cooldown <= 0 {
		c.Cooldown = def.Cooldown
	}
	return c
}

// Option configures a Limiter.
type Option func(*Limiter)

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(l *Limiter) {
		if now != nil {
			l.now = now
		}
	}
}

// WithLogger attaches a logger for storage diagnostics.
func WithLogger(log logger.Logger) Option {
	return func(l *Limiter) {
		if log != nil {
			l.log = log
		}
	}
}

// Limiter guards the persisted entry. Every read-modify-write happens under
// one mutex so concurrent forms in the same process cannot interleave.
type Limiter struct {
	mu  sync.Mutex
	kv  KV
	cfg Config
	now func() time.Time
	log logger.Logger
}

// New builds a limiter over kv. A nil kv uses an in-memory store.
func New(kv KV, cfg Config, opts ...Option) *Limiter {
	if kv == nil {
		kv = NewMemoryKV()
	}
	l := &Limiter{
		kv:  kv,
		cfg: cfg.withDefaults(),
		now: time.Now,
		log: logger.NewNop(),
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(l)
	}
	return l
}

// Config returns the effective thresholds.
func (l *Limiter) Config() Config {
	return l.cfg
}

// Check reports whether a submission may proceed. Reaching MaxAttempts
// inside the window starts a cooldown and persists it.
func (l *Limiter) Check() Decision {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	nowMs := now.UnixMilli()
	state := l.load()

	if state.BlockedUntil != nil {
		if nowMs < *state.BlockedUntil {
			until := time.UnixMilli(*state.BlockedUntil)
			return blocked(until, until.Sub(now))
		}
		// Cooldown served: forget the block and the attempts behind it.
		l.save(State{Attempts: []int64{}})
		return Decision{Allowed: true, Phase: PhaseOpen}
	}

	recent := l.prune(state.Attempts, nowMs)
	if len(recent) >= l.cfg.MaxAttempts {
		until := now.Add(l.cfg.Cooldown)
		untilMs := until.UnixMilli()
		l.save(State{Attempts: recent, BlockedUntil: &untilMs})
		l.log.Debug("rate limit engaged", "attempts", len(recent), "until", until)
		return blocked(until, l.cfg.Cooldown)
	}

	if len(recent) != len(state.Attempts) {
		l.save(State{Attempts: recent})
	}
	return Decision{Allowed: true, Phase: PhaseOpen}
}

// Record appends an attempt at the current time. Call it after Check allowed
// the submission and right before the network call.
func (l *Limiter) Record() {
	l.mu.Lock()
	defer l.mu.Unlock()

	nowMs := l.now().UnixMilli()
	state := l.load()
	attempts := l.prune(append(state.Attempts, nowMs), nowMs)
	l.save(State{Attempts: attempts, BlockedUntil: state.BlockedUntil})
}

// Reset removes the persisted entry.
func (l *Limiter) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.kv.Delete(l.cfg.Key); err != nil {
		l.log.Debug("rate limit reset failed", "error", err)
	}
}

// Snapshot returns the persisted state with stale attempts pruned, without
// writing anything back.
func (l *Limiter) Snapshot() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	state := l.load()
	state.Attempts = l.prune(state.Attempts, l.now().UnixMilli())
	return state
}

// prune keeps attempts no older than the window. An attempt exactly Window
// old is still counted.
func (l *Limiter) prune(attempts []int64, nowMs int64) []int64 {
	windowMs := l.cfg.Window.Milliseconds()
	out := make([]int64, 0, len(attempts))
	for _, ts := range attempts {
		if nowMs-ts > windowMs {
			continue
		}
		out = append(out, ts)
	}
	return out
}

func (l *Limiter) load() State {
	raw, ok, err := l.kv.Get(l.cfg.Key)
	if err != nil {
		l.log.Debug("rate limit state unreadable", "error", err)
		return State{Attempts: []int64{}}
	}
	if !ok || len(raw) == 0 {
		return State{Attempts: []int64{}}
	}

	var state State
	if err := json.Unmarshal(raw, &state); err != nil {
		l.log.Debug("rate limit state corrupt, starting fresh", "error", err)
		return State{Attempts: []int64{}}
	}
	if state.Attempts == nil {
		state.Attempts = []int64{}
	}
	return state
}

func (l *Limiter) save(state State) {
	if state.Attempts == nil {
		state.Attempts = []int64{}
	}
	raw, err := json.Marshal(state)
	if err != nil {
		l.log.Debug("rate limit state encode failed", "error", err)
		return
	}
	if err := l.kv.Set(l.cfg.Key, raw); err != nil {
		l.log.Debug("rate limit state not persisted", "error", err)
	}
}

func blocked(until time.Time, wait time.Duration) Decision {
	minutes := int(math.Ceil(wait.Minutes()))
	if minutes < 1 {
		minutes = 1
	}
	return Decision{
		Allowed:     false,
		Phase:       PhaseBlocked,
		WaitMinutes: minutes,
		Until:       until,
	}
}
