// Package formguard wires the validators, limiter, delivery client and
// orchestrators into one Service built from a config.Config.
package formguard

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/afero"

	"github.com/goliatone/go-formguard/pkg/booking"
	"github.com/goliatone/go-formguard/pkg/config"
	"github.com/goliatone/go-formguard/pkg/contact"
	"github.com/goliatone/go-formguard/pkg/delivery"
	"github.com/goliatone/go-formguard/pkg/form"
	"github.com/goliatone/go-formguard/pkg/leads"
	"github.com/goliatone/go-formguard/pkg/logger"
	"github.com/goliatone/go-formguard/pkg/metrics"
	"github.com/goliatone/go-formguard/pkg/quote"
	"github.com/goliatone/go-formguard/pkg/ratelimit"
	"github.com/goliatone/go-formguard/pkg/validate"
)

// Outcome is the terminal result of a submission.
type Outcome = form.Outcome

// Status aliases form.Status for callers switching on outcomes.
type Status = form.Status

type serviceOptions struct {
	log   logger.Logger
	reg   prometheus.Registerer
	fs    afero.Fs
	store leads.Store
	http  *http.Client
}

// Option configures a Service.
type Option func(*serviceOptions)

func WithLogger(l logger.Logger) Option {
	return func(o *serviceOptions) { o.log = l }
}

// WithRegisterer registers the submission metrics on reg instead of a
// private registry.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(o *serviceOptions) { o.reg = reg }
}

// WithFs backs the file limiter store with fs. Defaults to the OS
// filesystem.
func WithFs(fs afero.Fs) Option {
	return func(o *serviceOptions) { o.fs = fs }
}

// WithLeadStore overrides the store selected by config.
func WithLeadStore(store leads.Store) Option {
	return func(o *serviceOptions) { o.store = store }
}

// WithHTTPClient routes form delivery through hc.
func WithHTTPClient(hc *http.Client) Option {
	return func(o *serviceOptions) { o.http = hc }
}

// Service owns the state shared by every form on a page: one limiter, one
// metrics recorder and one lead store.
type Service struct {
	cfg     *config.Config
	log     logger.Logger
	limiter *ratelimit.Limiter
	metrics *metrics.Recorder
	leads   leads.Store
	area    *validate.ServiceArea
	http    *http.Client
}

// New validates cfg and opens the stores it names.
func New(cfg *config.Config, opts ...Option) (*Service, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if err := config.Validate(cfg); err != nil {
		return nil, err
	}

	o := serviceOptions{}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	log := logger.OrNop(o.log)

	rec, err := metrics.New(o.reg)
	if err != nil {
		return nil, fmt.Errorf("formguard: metrics: %w", err)
	}

	var kv ratelimit.KV = ratelimit.NewMemoryKV()
	if cfg.Limits.Dir != "" {
		kv = ratelimit.NewFileKV(o.fs, cfg.Limits.Dir)
	}
	limiter := ratelimit.New(kv, ratelimit.Config{
		Key:         cfg.Limits.Key,
		MaxAttempts: cfg.Limits.MaxAttempts,
		Window:      cfg.Limits.Window,
		Cooldown:    cfg.Limits.Cooldown,
	}, ratelimit.WithLogger(log.With("component", "ratelimit")))

	store := o.store
	if store == nil {
		if cfg.Leads.Path != "" {
			sqlite, err := leads.OpenSQLite(cfg.Leads.Path)
			if err != nil {
				return nil, fmt.Errorf("formguard: open leads: %w", err)
			}
			store = sqlite
		} else {
			store = leads.NewMemoryStore()
		}
	}

	base := validate.DefaultServiceArea()
	area := validate.NewServiceArea(base.Name(), cfg.Business.Phone, base.ZIPs()...)

	return &Service{
		cfg:     cfg,
		log:     log,
		limiter: limiter,
		metrics: rec,
		leads:   store,
		area:    area,
		http:    o.http,
	}, nil
}

func (s *Service) Config() *config.Config             { return s.cfg }
func (s *Service) Logger() logger.Logger              { return s.log }
func (s *Service) Limiter() *ratelimit.Limiter        { return s.limiter }
func (s *Service) Metrics() *metrics.Recorder         { return s.metrics }
func (s *Service) Leads() leads.Store                 { return s.leads }
func (s *Service) ServiceArea() *validate.ServiceArea { return s.area }

// Cities returns the configured service cities that have a known ZIP, in
// config order.
func (s *Service) Cities() []quote.City {
	out := make([]quote.City, 0, len(s.cfg.Forms.Cities))
	for _, name := range s.cfg.Forms.Cities {
		if zip, ok := quote.CityZIP(name); ok {
			out = append(out, quote.City{Name: name, ZIP: zip})
		}
	}
	return out
}

func (s *Service) sender(formspreeID string) *delivery.Client {
	endpoint := delivery.ResolveEndpoint(formspreeID, s.cfg.Business.FormSubmitURL)
	return delivery.New(endpoint,
		delivery.WithTimeout(s.cfg.Forms.Timeout),
		delivery.WithHTTPClient(s.http),
	)
}

// NewContactForm builds a contact form on the shared limiter. opts are
// applied after the config derived ones.
func (s *Service) NewContactForm(opts ...contact.Option) *contact.Form {
	base := []contact.Option{
		contact.WithLimiter(s.limiter),
		contact.WithSender(s.sender(s.cfg.Forms.ContactFormspreeID)),
		contact.WithMinFill(s.cfg.Forms.MinFill),
		contact.WithLogger(s.log.With("form", contact.Name)),
		contact.WithMetrics(s.metrics),
		contact.WithPhoneDisplay(s.cfg.Business.Phone),
	}
	return contact.New(append(base, opts...)...)
}

// NewQuoteForm builds a quote wizard on the shared limiter and lead store.
func (s *Service) NewQuoteForm(opts ...quote.Option) *quote.Form {
	base := []quote.Option{
		quote.WithLimiter(s.limiter),
		quote.WithSender(s.sender(s.cfg.Forms.QuoteFormspreeID)),
		quote.WithMinFill(s.cfg.Forms.MinFill),
		quote.WithLogger(s.log.With("form", quote.Name)),
		quote.WithMetrics(s.metrics),
		quote.WithLeads(s.leads),
		quote.WithServiceArea(s.area),
		quote.WithBusiness(s.cfg.Business.Phone, s.cfg.Business.Email, s.cfg.Booking.URL),
	}
	return quote.New(append(base, opts...)...)
}

// NewBookingEmbed builds an idle embed for the configured booking page.
func (s *Service) NewBookingEmbed(opts ...booking.Option) *booking.Embed {
	base := []booking.Option{
		booking.WithHeight(s.cfg.Booking.Height),
		booking.WithTimeout(s.cfg.Booking.Timeout),
		booking.WithPollInterval(s.cfg.Booking.PollInterval),
		booking.WithPhone(s.cfg.Business.Phone),
		booking.WithLogger(s.log.With("component", "booking")),
	}
	return booking.New(s.cfg.Booking.URL, append(base, opts...)...)
}

// Close releases the lead store.
func (s *Service) Close() error {
	if s.leads == nil {
		return nil
	}
	if err := s.leads.Close(); err != nil {
		return fmt.Errorf("formguard: close leads: %w", err)
	}
	return nil
}
