package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/goliatone/go-formguard/pkg/delivery"
	"github.com/goliatone/go-formguard/pkg/form"
	"github.com/goliatone/go-formguard/pkg/ratelimit"
)

type recordingSender struct {
	calls    int
	payloads []delivery.Payload
	err      error
	key      string
}

func (s *recordingSender) Send(_ context.Context, p delivery.Payload) error {
	s.calls++
	s.payloads = append(s.payloads, p)
	return s.err
}

func (s *recordingSender) HoneypotKey() string { return s.key }

func testMessages() Messages {
	return Messages{
		RateLimited: "wait %d",
		Failed:      "failed",
		Unavailable: "unavailable",
		Succeeded:   "ok",
	}
}

func TestRunner_StageOrdering(t *testing.T) {
	limiter := ratelimit.New(ratelimit.NewMemoryKV(), ratelimit.DefaultConfig())
	sender := &recordingSender{key: "_honey"}
	runner := New(Config{Name: "test", Limiter: limiter, Sender: sender, Messages: testMessages()})

	invalid := runner.Submit(context.Background(), Attempt{
		Validate: func() form.Errors { return form.Errors{form.FieldName: "Name is required"} },
		Honeypot: "bot",
	})
	if invalid.Status != form.StatusInvalid || invalid.Errors.Get(form.FieldName) == "" {
		t.Fatalf("validation must run before the honeypot, got %#v", invalid)
	}

	rejected := runner.Submit(context.Background(), Attempt{Honeypot: "bot"})
	if rejected.Status != form.StatusRejected || rejected.Message != "failed" {
		t.Fatalf("expected generic rejection, got %#v", rejected)
	}

	if sender.calls != 0 || len(limiter.Snapshot().Attempts) != 0 {
		t.Fatalf("no attempt may be recorded before validation and honeypot pass")
	}

	ok := runner.Submit(context.Background(), Attempt{
		Payload: func(key string) delivery.Payload { return delivery.Payload{key: ""} },
	})
	if ok.Status != form.StatusSucceeded || ok.Message != "ok" {
		t.Fatalf("expected success, got %#v", ok)
	}
	if _, has := sender.payloads[0]["_honey"]; !has {
		t.Fatalf("expected provider honeypot key in payload, got %#v", sender.payloads[0])
	}
	if got := len(limiter.Snapshot().Attempts); got != 1 {
		t.Fatalf("expected one recorded attempt, got %d", got)
	}
}

func TestRunner_UnavailableDoesNotRecord(t *testing.T) {
	limiter := ratelimit.New(ratelimit.NewMemoryKV(), ratelimit.DefaultConfig())
	runner := New(Config{Name: "test", Limiter: limiter, Sender: delivery.New(""), Messages: testMessages()})

	out := runner.Submit(context.Background(), Attempt{})
	if out.Status != form.StatusUnavailable || out.Message != "unavailable" {
		t.Fatalf("expected unavailable, got %#v", out)
	}
	if got := len(limiter.Snapshot().Attempts); got != 0 {
		t.Fatalf("unavailable endpoint must not record, got %d attempts", got)
	}
}

func TestRunner_FailureCallsHook(t *testing.T) {
	sender := &recordingSender{err: errors.New("boom")}
	runner := New(Config{Name: "test", Sender: sender, Messages: testMessages()})

	var hooked error
	out := runner.Submit(context.Background(), Attempt{OnFailure: func(err error) { hooked = err }})
	if out.Status != form.StatusFailed || out.Message != "failed" {
		t.Fatalf("expected failure, got %#v", out)
	}
	if hooked == nil {
		t.Fatalf("expected failure hook to run")
	}
	if runner.Active() {
		t.Fatalf("guard must be released after failure")
	}
}
