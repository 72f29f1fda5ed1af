package ratelimit

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/spf13/afero"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newTestLimiter(kv KV) (*Limiter, *fakeClock) {
	clock := &fakeClock{now: time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)}
	return New(kv, DefaultConfig(), WithClock(clock.Now)), clock
}

func TestLimiter_BlocksAfterMaxAttemptsThenReopens(t *testing.T) {
	limiter, clock := newTestLimiter(NewMemoryKV())

	for i := 0; i < 3; i++ {
		if d := limiter.Check(); !d.Allowed {
			t.Fatalf("attempt %d should be allowed, got %#v", i+1, d)
		}
		limiter.Record()
	}

	got := limiter.Check()
	want := Decision{Allowed: false, Phase: PhaseBlocked, WaitMinutes: 10, Until: clock.now.Add(10 * time.Minute)}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("decision mismatch (-want +got):\n%s", diff)
	}

	clock.Advance(4*time.Minute + 30*time.Second)
	if d := limiter.Check(); d.Allowed || d.WaitMinutes != 6 {
		t.Fatalf("expected 6 minutes left (rounded up), got %#v", d)
	}

	clock.Advance(5*time.Minute + 31*time.Second)
	if d := limiter.Check(); !d.Allowed || d.Phase != PhaseOpen {
		t.Fatalf("expected limiter to reopen after cooldown, got %#v", d)
	}
	if snap := limiter.Snapshot(); len(snap.Attempts) != 0 || snap.BlockedUntil != nil {
		t.Fatalf("expected cleared state after cooldown, got %#v", snap)
	}
}

func TestLimiter_RecordWithoutCheckStillCounts(t *testing.T) {
	limiter, _ := newTestLimiter(NewMemoryKV())
	limiter.Record()
	limiter.Record()
	limiter.Record()

	d := limiter.Check()
	if d.Allowed || d.WaitMinutes != 10 {
		t.Fatalf("expected {allowed:false waitMinutes:10}, got %#v", d)
	}
}

func TestLimiter_WindowEdgeIsInclusive(t *testing.T) {
	limiter, clock := newTestLimiter(NewMemoryKV())
	limiter.Record()
	limiter.Record()
	clock.Advance(time.Minute)
	limiter.Record()

	// The first two attempts are exactly one window old here and still count.
	clock.Advance(9 * time.Minute)
	if d := limiter.Check(); d.Allowed {
		t.Fatalf("attempts at the window edge should still count, got %#v", d)
	}
}

func TestLimiter_StaleAttemptsArePruned(t *testing.T) {
	limiter, clock := newTestLimiter(NewMemoryKV())
	limiter.Record()
	limiter.Record()
	clock.Advance(time.Minute)
	limiter.Record()

	clock.Advance(9*time.Minute + time.Millisecond)
	if d := limiter.Check(); !d.Allowed {
		t.Fatalf("expected pruning to reopen the window, got %#v", d)
	}
	if got := len(limiter.Snapshot().Attempts); got != 1 {
		t.Fatalf("expected 1 attempt left in window, got %d", got)
	}
}

func TestLimiter_SharedAcrossInstances(t *testing.T) {
	kv := NewMemoryKV()
	first, clock := newTestLimiter(kv)
	second := New(kv, DefaultConfig(), WithClock(clock.Now))

	first.Record()
	second.Record()
	first.Record()

	if d := second.Check(); d.Allowed {
		t.Fatalf("expected shared store to block, got %#v", d)
	}
	if d := first.Check(); d.Allowed {
		t.Fatalf("expected block to be honoured by every instance, got %#v", d)
	}
}

func TestLimiter_CorruptEntryFailsOpen(t *testing.T) {
	kv := NewMemoryKV()
	_ = kv.Set(DefaultKey, []byte("{not json"))
	limiter, _ := newTestLimiter(kv)

	if d := limiter.Check(); !d.Allowed {
		t.Fatalf("expected corrupt state to read as empty, got %#v", d)
	}
	limiter.Record()
	if got := len(limiter.Snapshot().Attempts); got != 1 {
		t.Fatalf("expected fresh state with one attempt, got %d", got)
	}
}

func TestLimiter_ReadOnlyStorageFailsOpen(t *testing.T) {
	fs := afero.NewReadOnlyFs(afero.NewMemMapFs())
	limiter, _ := newTestLimiter(NewFileKV(fs, "/state"))

	for i := 0; i < 5; i++ {
		if d := limiter.Check(); !d.Allowed {
			t.Fatalf("unavailable storage must not block, attempt %d got %#v", i+1, d)
		}
		limiter.Record()
	}
	limiter.Reset()
}

func TestLimiter_PersistsJSONShape(t *testing.T) {
	fs := afero.NewMemMapFs()
	kv := NewFileKV(fs, "/state")
	limiter, clock := newTestLimiter(kv)
	limiter.Record()
	limiter.Record()
	limiter.Record()
	limiter.Check()

	raw, err := afero.ReadFile(fs, "/state/form_rate_limit.json")
	if err != nil {
		t.Fatalf("read persisted entry: %v", err)
	}
	var payload struct {
		Attempts     []int64 `json:"attempts"`
		BlockedUntil int64   `json:"blockedUntil"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		t.Fatalf("decode persisted entry: %v", err)
	}
	nowMs := clock.now.UnixMilli()
	if diff := cmp.Diff([]int64{nowMs, nowMs, nowMs}, payload.Attempts); diff != "" {
		t.Fatalf("attempts mismatch (-want +got):\n%s", diff)
	}
	if payload.BlockedUntil != nowMs+10*60*1000 {
		t.Fatalf("unexpected blockedUntil %d", payload.BlockedUntil)
	}

	limiter.Reset()
	if _, ok, _ := kv.Get(DefaultKey); ok {
		t.Fatalf("expected reset to delete the entry")
	}
}

func TestConfig_Defaults(t *testing.T) {
	limiter := New(nil, Config{MaxAttempts: 5})
	got := limiter.Config()
	want := Config{Key: DefaultKey, MaxAttempts: 5, Window: 10 * time.Minute, Cooldown: 10 * time.Minute}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("config mismatch (-want +got):\n%s", diff)
	}
}
