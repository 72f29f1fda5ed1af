// Package pipeline runs the submission contract shared by the contact and
// quote forms: guard, fill wait, rate limit, validation, honeypot, record,
// then delivery. Every failure becomes a form.Outcome.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/goliatone/go-formguard/pkg/delivery"
	"github.com/goliatone/go-formguard/pkg/form"
	"github.com/goliatone/go-formguard/pkg/guard"
	"github.com/goliatone/go-formguard/pkg/logger"
	"github.com/goliatone/go-formguard/pkg/metrics"
	"github.com/goliatone/go-formguard/pkg/ratelimit"
)

// Messages holds the user facing copy for each terminal status.
type Messages struct {
	RateLimited string // fmt verb %d receives the wait in minutes
	Failed      string
	Unavailable string
	Succeeded   string
}

// Config wires the collaborators. Only Name is required; a nil Limiter
// disables rate limiting and a nil Sender makes every submission
// unavailable.
type Config struct {
	Name     string
	Limiter  *ratelimit.Limiter
	Sender   delivery.Sender
	Fill     *guard.FillTimer
	Log      logger.Logger
	Metrics  *metrics.Recorder
	Messages Messages
	Now      func() time.Time
}

// Attempt describes one submission.
type Attempt struct {
	// OnStart runs once the guard is held, before any other stage.
	OnStart func()
	// Validate returns the field errors, or an empty map.
	Validate func() form.Errors
	// Honeypot is the raw decoy value.
	Honeypot string
	// Payload builds the sanitized body. key is the provider's honeypot key.
	Payload func(key string) delivery.Payload
	// OnInvalid, OnFailure and OnSuccess run while the guard is still held.
	OnInvalid func(form.Errors)
	OnFailure func(error)
	OnSuccess func()
}

// Runner serialises submissions for one form instance.
type Runner struct {
	cfg   Config
	guard guard.SubmitGuard
}

// New builds a Runner.
func New(cfg Config) *Runner {
	cfg.Log = logger.OrNop(cfg.Log).With("form", cfg.Name)
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Runner{cfg: cfg}
}

// Active reports whether a submission is in flight.
func (r *Runner) Active() bool {
	return r.guard.Active()
}

// Fill returns the fill timer, which may be nil.
func (r *Runner) Fill() *guard.FillTimer {
	return r.cfg.Fill
}

// Limiter returns the shared limiter, which may be nil.
func (r *Runner) Limiter() *ratelimit.Limiter {
	return r.cfg.Limiter
}

// Submit runs the pipeline. A call made while another is in flight returns
// StatusIgnored without touching any state.
func (r *Runner) Submit(ctx context.Context, a Attempt) form.Outcome {
	release, ok := r.guard.Begin()
	if !ok {
		return form.Outcome{Status: form.StatusIgnored}
	}
	defer release()

	if a.OnStart != nil {
		a.OnStart()
	}
	out := r.run(ctx, a)
	r.cfg.Metrics.Submission(r.cfg.Name, string(out.Status))
	return out
}

func (r *Runner) run(ctx context.Context, a Attempt) form.Outcome {
	if ctx == nil {
		ctx = context.Background()
	}

	if r.cfg.Fill != nil {
		if err := r.cfg.Fill.Wait(ctx); err != nil {
			r.cfg.Log.Debug("submission canceled during fill wait", "error", err)
			return form.Outcome{Status: form.StatusCanceled}
		}
	}

	if r.cfg.Limiter != nil {
		if d := r.cfg.Limiter.Check(); !d.Allowed {
			r.cfg.Metrics.RateLimited(r.cfg.Name)
			r.cfg.Log.Info("submission rate limited", "wait_minutes", d.WaitMinutes)
			return form.Outcome{
				Status:      form.StatusRateLimited,
				Message:     fmt.Sprintf(r.cfg.Messages.RateLimited, d.WaitMinutes),
				WaitMinutes: d.WaitMinutes,
			}
		}
	}

	if a.Validate != nil {
		if errs := a.Validate(); errs.Len() > 0 {
			if a.OnInvalid != nil {
				a.OnInvalid(errs)
			}
			return form.Outcome{Status: form.StatusInvalid, Errors: errs.Clone()}
		}
	}

	if guard.IsHoneypotFilled(a.Honeypot) {
		r.cfg.Log.Info("submission rejected", "reason", guard.ErrBotDetected)
		return form.Outcome{Status: form.StatusRejected, Message: r.cfg.Messages.Failed}
	}

	if !available(r.cfg.Sender) {
		r.cfg.Log.Warn("submission unavailable", "error", delivery.ErrUnavailable)
		return form.Outcome{Status: form.StatusUnavailable, Message: r.cfg.Messages.Unavailable}
	}

	if r.cfg.Limiter != nil {
		r.cfg.Limiter.Record()
	}

	var payload delivery.Payload
	if a.Payload != nil {
		payload = a.Payload(honeypotKey(r.cfg.Sender))
	}

	start := r.cfg.Now()
	err := r.cfg.Sender.Send(ctx, payload)
	r.cfg.Metrics.ObserveDelivery(r.cfg.Name, r.cfg.Now().Sub(start))

	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			if ctx.Err() != nil {
				r.cfg.Log.Debug("submission canceled during delivery", "error", err)
				return form.Outcome{Status: form.StatusCanceled}
			}
		}
		r.cfg.Log.Warn("submission delivery failed", "error", err)
		if a.OnFailure != nil {
			a.OnFailure(err)
		}
		return form.Outcome{Status: form.StatusFailed, Message: r.cfg.Messages.Failed}
	}

	r.cfg.Log.Info("submission delivered")
	if a.OnSuccess != nil {
		a.OnSuccess()
	}
	return form.Outcome{Status: form.StatusSucceeded, Message: r.cfg.Messages.Succeeded}
}

func available(s delivery.Sender) bool {
	if s == nil {
		return false
	}
	if v, ok := s.(interface{ Available() bool }); ok {
		return v.Available()
	}
	return true
}

func honeypotKey(s delivery.Sender) string {
	if v, ok := s.(interface{ HoneypotKey() string }); ok {
		if key := v.HoneypotKey(); key != "" {
			return key
		}
	}
	return form.FieldHoneypot.Key()
}
