// Package metrics exposes Prometheus counters for form submissions. A nil
// *Recorder is valid and records nothing.
package metrics

import (
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "formguard"

// Recorder holds the form metrics.
type Recorder struct {
	submissions *prometheus.CounterVec
	blocks      *prometheus.CounterVec
	delivery    *prometheus.HistogramVec
	gatherer    prometheus.Gatherer
}

// New registers the metrics on reg. A nil reg uses a private registry,
// which keeps tests and repeated construction free of duplicate
// registration panics.
func New(reg prometheus.Registerer) (*Recorder, error) {
	var gatherer prometheus.Gatherer
	if reg == nil {
		private := prometheus.NewRegistry()
		reg, gatherer = private, private
	} else if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	r := &Recorder{
		submissions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "submissions_total",
				Help:      "Form submissions by terminal status.",
			},
			[]string{"form", "status"},
		),
		blocks: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "rate_limit_blocks_total",
				Help:      "Submissions refused by the rate limiter.",
			},
			[]string{"form"},
		),
		delivery: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "delivery_duration_seconds",
				Help:      "Time spent posting to the delivery endpoint.",
				Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 15},
			},
			[]string{"form"},
		),
		gatherer: gatherer,
	}

	var err error
	if r.submissions, err = register(reg, r.submissions); err != nil {
		return nil, err
	}
	if r.blocks, err = register(reg, r.blocks); err != nil {
		return nil, err
	}
	if r.delivery, err = register(reg, r.delivery); err != nil {
		return nil, err
	}
	return r, nil
}

// register adopts an already registered collector of the same shape so two
// recorders on one registry share their series.
func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var already prometheus.AlreadyRegisteredError
		if errors.As(err, &already) {
			if existing, ok := already.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

// Submission counts one Submit outcome.
func (r *Recorder) Submission(form, status string) {
	if r == nil {
		return
	}
	r.submissions.WithLabelValues(form, status).Inc()
}

// RateLimited counts one refused submission.
func (r *Recorder) RateLimited(form string) {
	if r == nil {
		return
	}
	r.blocks.WithLabelValues(form).Inc()
}

// ObserveDelivery records how long a POST took.
func (r *Recorder) ObserveDelivery(form string, d time.Duration) {
	if r == nil {
		return
	}
	r.delivery.WithLabelValues(form).Observe(d.Seconds())
}

// Handler serves the registry the recorder was built on. It returns
// http.NotFoundHandler when that registry cannot be gathered.
func (r *Recorder) Handler() http.Handler {
	if r == nil || r.gatherer == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(r.gatherer, promhttp.HandlerOpts{})
}
