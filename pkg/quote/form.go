package quote

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/goliatone/go-formguard/internal/pipeline"
	"github.com/goliatone/go-formguard/pkg/delivery"
	"github.com/goliatone/go-formguard/pkg/form"
	"github.com/goliatone/go-formguard/pkg/guard"
	"github.com/goliatone/go-formguard/pkg/leads"
	"github.com/goliatone/go-formguard/pkg/logger"
	"github.com/goliatone/go-formguard/pkg/metrics"
	"github.com/goliatone/go-formguard/pkg/ratelimit"
	"github.com/goliatone/go-formguard/pkg/sanitize"
	"github.com/goliatone/go-formguard/pkg/validate"
)

// Name labels the form in logs and metrics.
const Name = "quote"

const (
	DefaultMinFill    = 700 * time.Millisecond
	DefaultEmail      = "info@stronghomescleaning.com"
	DefaultBookingURL = "https://calendly.com/hello-stronghomescleaning/cleaning-booking"
)

// Confirmation is the view shown after a delivered quote.
type Confirmation struct {
	Message    string
	BookingURL string
	Phone      string
}

type options struct {
	limiter    *ratelimit.Limiter
	sender     delivery.Sender
	minFill    time.Duration
	fillOpts   []guard.FillOption
	log        logger.Logger
	metrics    *metrics.Recorder
	leads      leads.Store
	area       *validate.ServiceArea
	phone      string
	email      string
	bookingURL string
	now        func() time.Time
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

// WithLeads records every delivered quote in store.
func WithLeads(store leads.Store) Option {
	return func(o *options) { o.leads = store }
}

// WithServiceArea overrides the default ZIP allowlist.
func WithServiceArea(area *validate.ServiceArea) Option {
	return func(o *options) { o.area = area }
}

// WithBusiness sets the contact details used in the confirmation and the
// fallback link. Empty values keep the defaults.
func WithBusiness(phone, email, bookingURL string) Option {
	return func(o *options) {
		if phone != "" {
			o.phone = phone
		}
		if email != "" {
			o.email = email
		}
		if bookingURL != "" {
			o.bookingURL = bookingURL
		}
	}
}

// WithClock overrides time.Now for delivery timing.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// Form wraps a Wizard with the submission pipeline.
type Form struct {
	runner *pipeline.Runner
	leads  leads.Store
	log    logger.Logger
	opts   options

	mu        sync.Mutex
	wiz       *Wizard
	completed bool
	fallback  bool
}

// New builds a form at StepLocation and starts its fill timer.
func New(opts ...Option) *Form {
	o := options{
		minFill:    DefaultMinFill,
		phone:      validate.DefaultPhoneDisplay,
		email:      DefaultEmail,
		bookingURL: DefaultBookingURL,
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(&o)
	}
	log := logger.OrNop(o.log)

	return &Form{
		runner: pipeline.New(pipeline.Config{
			Name:    Name,
			Limiter: o.limiter,
			Sender:  o.sender,
			Fill:    guard.NewFillTimer(o.minFill, o.fillOpts...),
			Log:     log,
			Metrics: o.metrics,
			Now:     o.now,
			Messages: pipeline.Messages{
				RateLimited: "Wait %d min before trying again.",
				Failed:      "Automatic submission failed.",
				Unavailable: "Form unavailable. Call us.",
				Succeeded:   "Got it! Check your email for pricing. Expect it within 2 hours.",
			},
		}),
		leads: o.leads,
		log:   log.With("form", Name),
		opts:  o,
		wiz:   NewWizard(o.area),
	}
}

func (f *Form) with(fn func(w *Wizard)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	fn(f.wiz)
}

// Step returns the current wizard step.
func (f *Form) Step() Step {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.wiz.Step()
}

// Data returns the collected values.
func (f *Form) Data() Data {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.wiz.Data()
}

// Errors returns the current field errors.
func (f *Form) Errors() form.Errors {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.wiz.Errors()
}

// Advance moves forward when the current step's gate passes.
func (f *Form) Advance() (ok bool) {
	f.with(func(w *Wizard) { ok = w.Advance() })
	return ok
}

// Retreat moves one step back.
func (f *Form) Retreat() (ok bool) {
	f.with(func(w *Wizard) { ok = w.Retreat() })
	return ok
}

// SelectCity records the city and fills its ZIP.
func (f *Form) SelectCity(name string) { f.with(func(w *Wizard) { w.SelectCity(name) }) }

// SetZip sets a free text ZIP.
func (f *Form) SetZip(zip string) { f.with(func(w *Wizard) { w.SetZip(zip) }) }

func (f *Form) SetServiceType(s string) { f.with(func(w *Wizard) { w.SetServiceType(s) }) }

func (f *Form) SetBedrooms(n int) { f.with(func(w *Wizard) { w.SetBedrooms(n) }) }

func (f *Form) SetBathrooms(n int) { f.with(func(w *Wizard) { w.SetBathrooms(n) }) }

// SetContact updates a step five field.
func (f *Form) SetContact(field form.Field, value string) {
	f.with(func(w *Wizard) { w.SetContact(field, value) })
}

// SetFrequency reports whether the value was accepted.
func (f *Form) SetFrequency(fr Frequency) (ok bool) {
	f.with(func(w *Wizard) { ok = w.SetFrequency(fr) })
	return ok
}

// Submitting reports whether a submission is in flight.
func (f *Form) Submitting() bool {
	return f.runner.Active()
}

// Completed reports whether the quote was delivered.
func (f *Form) Completed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.completed
}

// Confirmation returns the post-submit view. ok is false until Completed.
func (f *Form) Confirmation() (c Confirmation, ok bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.completed {
		return Confirmation{}, false
	}
	return Confirmation{
		Message:    "Check your email for pricing. Expect it within 2 hours.",
		BookingURL: f.opts.bookingURL,
		Phone:      f.opts.phone,
	}, true
}

// Fallback returns a prefilled mailto link once automatic delivery has
// failed, so the user can send the request from their own mail client.
func (f *Form) Fallback() (link string, ok bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.fallback {
		return "", false
	}
	return MailtoLink(f.opts.email, f.wiz.Data()), true
}

// Reset starts a fresh quote.
func (f *Form) Reset() {
	f.mu.Lock()
	f.wiz.Reset()
	f.completed = false
	f.fallback = false
	f.mu.Unlock()
	if fill := f.runner.Fill(); fill != nil {
		fill.Reset()
	}
}

// Submit delivers the quote. It is ignored unless the wizard is on the
// contact step and the quote has not already been delivered.
func (f *Form) Submit(ctx context.Context) form.Outcome {
	f.mu.Lock()
	ready := f.wiz.Step() == StepContact && !f.completed
	honeypot := f.wiz.Data().Honeypot
	f.mu.Unlock()
	if !ready {
		return form.Outcome{Status: form.StatusIgnored}
	}

	var data Data
	return f.runner.Submit(ctx, pipeline.Attempt{
		Validate: func() form.Errors {
			f.mu.Lock()
			defer f.mu.Unlock()
			res := f.wiz.Validate()
			if valid, ok := res.Data(); ok {
				data = valid
				return nil
			}
			return res.Errors()
		},
		Honeypot: honeypot,
		Payload: func(key string) delivery.Payload {
			return BuildPayload(data, key)
		},
		OnFailure: func(error) {
			f.mu.Lock()
			defer f.mu.Unlock()
			f.fallback = true
		},
		OnSuccess: func() {
			f.mu.Lock()
			f.completed = true
			f.fallback = false
			f.mu.Unlock()
			f.recordLead(ctx, data)
		},
	})
}

func (f *Form) recordLead(ctx context.Context, d Data) {
	if f.leads == nil {
		return
	}
	lead := leads.Lead{
		Name:        sanitize.String(d.Name),
		Email:       sanitize.Email(d.Email),
		Phone:       sanitize.Phone(d.Phone),
		City:        sanitize.String(d.City),
		ZipCode:     sanitize.String(d.ZipCode),
		ServiceType: sanitize.String(d.ServiceType),
		Bedrooms:    d.Bedrooms,
		Bathrooms:   d.Bathrooms,
		Frequency:   string(d.Frequency),
	}
	if _, err := f.leads.Add(context.WithoutCancel(ctx), lead); err != nil {
		f.log.Warn("lead not recorded", "error", err)
	}
}

// BuildPayload sanitizes d into the delivery body.
func BuildPayload(d Data, honeypotKey string) delivery.Payload {
	name := sanitize.String(d.Name)
	service := sanitize.String(d.ServiceType)
	if honeypotKey == "" {
		honeypotKey = form.FieldHoneypot.Key()
	}
	return delivery.Payload{
		form.FieldName.Key():        name,
		form.FieldEmail.Key():       sanitize.Email(d.Email),
		form.FieldPhone.Key():       sanitize.Phone(d.Phone),
		form.FieldZipCode.Key():     sanitize.String(d.ZipCode),
		form.FieldServiceType.Key(): service,
		form.FieldBedrooms.Key():    strconv.Itoa(d.Bedrooms),
		form.FieldBathrooms.Key():   strconv.Itoa(d.Bathrooms),
		form.FieldFrequency.Key():   sanitize.String(string(d.Frequency)),
		honeypotKey:                 "",
		"_subject":                  fmt.Sprintf("Quote: %s - %s", name, service),
		"_captcha":                  "false",
	}
}

// MailtoLink builds a prefilled quote request addressed to email.
func MailtoLink(email string, d Data) string {
	lines := []string{
		"Name: " + d.Name,
		"Email: " + d.Email,
		"Phone: " + d.Phone,
		"ZIP: " + d.ZipCode,
		"Service: " + d.ServiceType,
		"Bedrooms: " + strconv.Itoa(d.Bedrooms),
		"Bathrooms: " + strconv.Itoa(d.Bathrooms),
		"Frequency: " + string(d.Frequency),
	}
	return "mailto:" + email +
		"?subject=" + mailtoEscape("Quote Request: "+d.Name) +
		"&body=" + mailtoEscape(strings.Join(lines, "\r\n"))
}

func mailtoEscape(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}
