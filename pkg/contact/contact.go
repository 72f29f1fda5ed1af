// Package contact orchestrates the single step contact form.
package contact

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/goliatone/go-formguard/internal/pipeline"
	"github.com/goliatone/go-formguard/pkg/delivery"
	"github.com/goliatone/go-formguard/pkg/form"
	"github.com/goliatone/go-formguard/pkg/guard"
	"github.com/goliatone/go-formguard/pkg/logger"
	"github.com/goliatone/go-formguard/pkg/metrics"
	"github.com/goliatone/go-formguard/pkg/ratelimit"
	"github.com/goliatone/go-formguard/pkg/sanitize"
	"github.com/goliatone/go-formguard/pkg/validate"
)

// Name labels the form in logs and metrics.
const Name = "contact"

// DefaultMinFill is the anti-bot friction applied before a submit completes.
const DefaultMinFill = 700 * time.Millisecond

// Fields lists the inputs this form accepts.
func Fields() []form.Field {
	return []form.Field{form.FieldName, form.FieldEmail, form.FieldPhone, form.FieldMessage, form.FieldHoneypot}
}

type options struct {
	limiter  *ratelimit.Limiter
	sender   delivery.Sender
	minFill  time.Duration
	fillOpts []guard.FillOption
	log      logger.Logger
	metrics  *metrics.Recorder
	phone    string
	now      func() time.Time
}

// Option configures a Form.
type Option func(*options)

// WithLimiter shares a rate limiter with other forms.
func WithLimiter(l *ratelimit.Limiter) Option {
	return func(o *options) { o.limiter = l }
}

// WithSender sets the delivery endpoint.
func WithSender(s delivery.Sender) Option {
	return func(o *options) { o.sender = s }
}

// WithMinFill overrides DefaultMinFill. Zero disables the wait.
func WithMinFill(d time.Duration) Option {
	return func(o *options) { o.minFill = d }
}

// WithFillOptions passes clock and sleep overrides to the fill timer.
func WithFillOptions(opts ...guard.FillOption) Option {
	return func(o *options) { o.fillOpts = append(o.fillOpts, opts...) }
}

// WithLogger attaches a logger.
func WithLogger(l logger.Logger) Option {
	return func(o *options) { o.log = l }
}

// WithMetrics attaches a metrics recorder.
func WithMetrics(m *metrics.Recorder) Option {
	return func(o *options) { o.metrics = m }
}

// WithPhoneDisplay sets the number quoted in the failure message.
func WithPhoneDisplay(phone string) Option {
	return func(o *options) {
		if phone != "" {
			o.phone = phone
		}
	}
}

// WithClock overrides time.Now for delivery timing.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// Form holds the contact form state for one view.
type Form struct {
	runner *pipeline.Runner

	mu        sync.Mutex
	values    map[form.Field]string
	errors    form.Errors
	succeeded bool
}

// New builds an empty form and starts its fill timer.
func New(opts ...Option) *Form {
	o := options{
		minFill: DefaultMinFill,
		phone:   validate.DefaultPhoneDisplay,
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(&o)
	}

	return &Form{
		runner: pipeline.New(pipeline.Config{
			Name:    Name,
			Limiter: o.limiter,
			Sender:  o.sender,
			Fill:    guard.NewFillTimer(o.minFill, o.fillOpts...),
			Log:     o.log,
			Metrics: o.metrics,
			Now:     o.now,
			Messages: pipeline.Messages{
				RateLimited: "Too many attempts. Please wait %d minute(s) and try again.",
				Failed:      fmt.Sprintf("Something went wrong. Please try again or call us at %s.", o.phone),
				Unavailable: "Form temporarily unavailable. Please call or email us directly.",
				Succeeded:   "Message received. We'll get back to you within 24 hours.",
			},
		}),
		values: make(map[form.Field]string),
		errors: form.Errors{},
	}
}

// Set updates a field and clears its error. Fields outside Fields() are
// ignored.
func (f *Form) Set(field form.Field, value string) {
	if !accepts(field) {
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.values[field] = value
	f.errors.Clear(field)
}

// Value returns the raw value of field.
func (f *Form) Value(field form.Field) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.values[field]
}

// Values returns a copy of the raw values.
func (f *Form) Values() map[form.Field]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[form.Field]string, len(f.values))
	for k, v := range f.values {
		out[k] = v
	}
	return out
}

// Check validates a single field inline, as on blur, and records the result.
func (f *Form) Check(field form.Field) validate.Result {
	f.mu.Lock()
	defer f.mu.Unlock()
	res := checkField(field, f.values[field])
	f.errors.Set(field, res.Message)
	return res
}

// Errors returns a copy of the current field errors.
func (f *Form) Errors() form.Errors {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.errors.Clone()
}

// Submitting reports whether a submission is in flight.
func (f *Form) Submitting() bool {
	return f.runner.Active()
}

// Succeeded reports whether the last submission was delivered.
func (f *Form) Succeeded() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.succeeded
}

// Submit runs the contact pipeline. Cancelling ctx abandons the submission
// and leaves the entered data untouched.
func (f *Form) Submit(ctx context.Context) form.Outcome {
	var values map[form.Field]string
	return f.runner.Submit(ctx, pipeline.Attempt{
		OnStart: func() {
			f.mu.Lock()
			defer f.mu.Unlock()
			f.errors = form.Errors{}
			f.succeeded = false
		},
		Validate: func() form.Errors {
			f.mu.Lock()
			defer f.mu.Unlock()
			values = make(map[form.Field]string, len(f.values))
			for k, v := range f.values {
				values[k] = v
			}
			return Validate(values)
		},
		Honeypot: f.Value(form.FieldHoneypot),
		Payload: func(key string) delivery.Payload {
			return BuildPayload(values, key)
		},
		OnInvalid: func(errs form.Errors) {
			f.mu.Lock()
			defer f.mu.Unlock()
			f.errors = errs.Clone()
		},
		OnSuccess: func() {
			f.mu.Lock()
			f.values = make(map[form.Field]string)
			f.succeeded = true
			f.mu.Unlock()
			if fill := f.runner.Fill(); fill != nil {
				fill.Reset()
			}
		},
	})
}

// Validate checks every contact field and returns the failures.
func Validate(values map[form.Field]string) form.Errors {
	errs := form.Errors{}
	for _, field := range []form.Field{form.FieldName, form.FieldEmail, form.FieldPhone, form.FieldMessage} {
		if res := checkField(field, values[field]); !res.Valid {
			errs.Set(field, res.Message)
		}
	}
	return errs
}

// BuildPayload sanitizes values into the delivery body.
func BuildPayload(values map[form.Field]string, honeypotKey string) delivery.Payload {
	name := sanitize.String(values[form.FieldName])
	if honeypotKey == "" {
		honeypotKey = form.FieldHoneypot.Key()
	}
	return delivery.Payload{
		form.FieldName.Key():    name,
		form.FieldEmail.Key():   sanitize.Email(values[form.FieldEmail]),
		form.FieldPhone.Key():   sanitize.Phone(values[form.FieldPhone]),
		form.FieldMessage.Key(): sanitize.Message(values[form.FieldMessage]),
		honeypotKey:             "",
		"_subject":              "New Contact Form: " + name,
	}
}

func checkField(field form.Field, value string) validate.Result {
	switch field {
	case form.FieldName:
		return validate.Name(value)
	case form.FieldEmail:
		return validate.Email(value)
	case form.FieldPhone:
		return validate.Phone(value)
	case form.FieldMessage:
		return validate.Message(value)
	}
	return validate.OK()
}

func accepts(field form.Field) bool {
	for _, candidate := range Fields() {
		if candidate == field {
			return true
		}
	}
	return false
}
