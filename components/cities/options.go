package cities

import (
	"net/http"

	"github.com/goliatone/go-formguard/pkg/quote"
	"github.com/goliatone/go-formguard/pkg/validate"
)

const defaultRoutePath = "/api/cities"

// Query parameters understood by the handler.
const (
	ParamQuery = "q"
	ParamLimit = "limit"
	ParamZIP   = "zip"
)

type GuardFunc func(r *http.Request) error

type Options struct {
	RoutePath string
	Guard     GuardFunc

	// MaxLimit caps every result list. Zero leaves lists uncapped.
	MaxLimit int

	// Cities replaces quote.Cities(). Its order is the display order.
	Cities []quote.City

	// Area answers zip checks. Nil uses validate.DefaultServiceArea().
	Area *validate.ServiceArea
}

type OptionFn func(*Options)

func NewOptions(fns ...OptionFn) Options {
	opts := Options{RoutePath: defaultRoutePath}
	for _, fn := range fns {
		if fn != nil {
			fn(&opts)
		}
	}
	if opts.RoutePath == "" {
		opts.RoutePath = defaultRoutePath
	}
	if opts.MaxLimit < 0 {
		opts.MaxLimit = 0
	}
	if opts.Cities == nil {
		opts.Cities = quote.Cities()
	} else {
		opts.Cities = append([]quote.City{}, opts.Cities...)
	}
	if opts.Area == nil {
		opts.Area = validate.DefaultServiceArea()
	}
	return opts
}

func WithRoutePath(path string) OptionFn {
	return func(o *Options) { o.RoutePath = path }
}

func WithMaxLimit(limit int) OptionFn {
	return func(o *Options) { o.MaxLimit = limit }
}

func WithGuard(guard GuardFunc) OptionFn {
	return func(o *Options) { o.Guard = guard }
}

// WithCities serves cities instead of the built in table. Nil restores it.
func WithCities(cities []quote.City) OptionFn {
	return func(o *Options) { o.Cities = cities }
}

func WithServiceArea(area *validate.ServiceArea) OptionFn {
	return func(o *Options) { o.Area = area }
}

// capLimit applies max to a requested limit. Non-positive requests ask for
// everything.
func capLimit(limit, max int) int {
	if max > 0 && (limit <= 0 || limit > max) {
		return max
	}
	return limit
}
