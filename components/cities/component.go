package cities

import "net/http"

// Component serves one city table and service area.
type Component struct {
	opts Options
}

func New(fns ...OptionFn) *Component {
	return &Component{opts: NewOptions(fns...)}
}

func (c *Component) options() Options {
	if c == nil {
		return NewOptions()
	}
	return c.opts
}

// Options returns a copy of the component configuration.
func (c *Component) Options() Options {
	opts := c.options()
	return NewOptions(func(o *Options) { *o = opts })
}

// Search returns picker options for query, capped by MaxLimit.
func (c *Component) Search(query string, limit int) []Option {
	opts := c.options()
	results := Search(opts.Cities, query, capLimit(limit, opts.MaxLimit))
	out := make([]Option, 0, len(results))
	for _, city := range results {
		out = append(out, newOption(city))
	}
	return out
}

func (c *Component) CheckZIP(zip string) ZIPCheck {
	opts := c.options()
	return CheckZIP(opts.Area, opts.Cities, zip)
}

func (c *Component) Handler() http.Handler {
	return newHandler(c)
}

// RegisterRoutes registers the component handler under basePath on mux and
// returns the pattern used.
func (c *Component) RegisterRoutes(mux Mux, basePath string) (string, error) {
	if mux == nil {
		return "", errMissingMux
	}
	pattern := mountPath(basePath, c.options().RoutePath)
	mux.Handle(pattern, c.Handler())
	return pattern, nil
}
