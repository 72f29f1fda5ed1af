package booking

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
)

// HTTPProbe reports ready once the widget script answers 2xx.
type HTTPProbe struct {
	url string
	rc  *resty.Client
}

// NewHTTPProbe probes url with a short per-request timeout.
func NewHTTPProbe(url string) *HTTPProbe {
	return NewHTTPProbeWithClient(url, nil)
}

// NewHTTPProbeWithClient probes url through hc. A nil hc uses resty's
// default transport.
func NewHTTPProbeWithClient(url string, hc *http.Client) *HTTPProbe {
	var rc *resty.Client
	if hc != nil {
		rc = resty.NewWithClient(hc)
	} else {
		rc = resty.New()
	}
	rc.SetTimeout(time.Second).SetRetryCount(0)
	return &HTTPProbe{url: url, rc: rc}
}

func (p *HTTPProbe) Ready(ctx context.Context) (bool, error) {
	resp, err := p.rc.R().SetContext(ctx).Head(p.url)
	if err != nil {
		return false, fmt.Errorf("booking: probe %s: %w", p.url, err)
	}
	return resp.IsSuccess(), nil
}
