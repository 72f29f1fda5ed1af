// Package delivery posts sanitized form payloads to the hosted form
// endpoint (Formspree, or FormSubmit as the fallback).
package delivery

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

const (
	FormspreeBase      = "https://formspree.io/f/"
	DefaultSubmitURL   = "https://formsubmit.co/ajax/info@stronghomescleaning.com"
	DefaultTimeout     = 15 * time.Second
	formSubmitHost     = "formsubmit.co"
	formspreeHoneypot  = "_gotcha"
	formSubmitHoneypot = "_honey"
)

// ErrUnavailable is returned when no endpoint is configured.
var ErrUnavailable = errors.New("delivery: no endpoint configured")

// Payload is the JSON body sent to the endpoint.
type Payload map[string]any

// StatusError reports a non-2xx response.
type StatusError struct {
	Code int
	Err  error
}

func (e *StatusError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("delivery: status %d: %v", e.Code, e.Err)
	}
	return fmt.Sprintf("delivery: status %d %s", e.Code, http.StatusText(e.Code))
}

func (e *StatusError) Unwrap() error { return e.Err }

// StatusCode returns the HTTP status.
func (e *StatusError) StatusCode() int {
	return e.Code
}

// ResolveEndpoint prefers a Formspree form id and falls back to fallbackURL.
// It returns "" when neither is set.
func ResolveEndpoint(formspreeID, fallbackURL string) string {
	if id := strings.TrimSpace(formspreeID); id != "" {
		return FormspreeBase + url.PathEscape(id)
	}
	return strings.TrimSpace(fallbackURL)
}

// HoneypotKey returns the decoy field name the provider behind endpoint
// filters on.
func HoneypotKey(endpoint string) string {
	u, err := url.Parse(endpoint)
	if err == nil && strings.EqualFold(u.Hostname(), formSubmitHost) {
		return formSubmitHoneypot
	}
	return formspreeHoneypot
}

// Sender delivers one payload.
type Sender interface {
	Send(ctx context.Context, payload Payload) error
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout bounds each request.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithHTTPClient swaps the underlying transport, mostly for tests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.hc = hc
		}
	}
}

// Client posts payloads to one endpoint. It never retries: every request
// corresponds to exactly one recorded rate-limit attempt.
type Client struct {
	endpoint string
	timeout  time.Duration
	hc       *http.Client
	rc       *resty.Client
}

// New builds a Client for endpoint. An empty endpoint yields a client whose
// Send always returns ErrUnavailable.
func New(endpoint string, opts ...Option) *Client {
	c := &Client{
		endpoint: strings.TrimSpace(endpoint),
		timeout:  DefaultTimeout,
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(c)
	}

	var rc *resty.Client
	if c.hc != nil {
		rc = resty.NewWithClient(c.hc)
	} else {
		rc = resty.New()
	}
	c.rc = rc.
		SetTimeout(c.timeout).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json").
		SetRetryCount(0)
	return c
}

// Endpoint returns the target URL.
func (c *Client) Endpoint() string {
	return c.endpoint
}

// Available reports whether an endpoint is configured.
func (c *Client) Available() bool {
	return c != nil && c.endpoint != ""
}

// HoneypotKey returns the decoy key for this client's provider.
func (c *Client) HoneypotKey() string {
	return HoneypotKey(c.endpoint)
}

// Send posts payload as JSON. Only a 2xx response counts as delivered.
func (c *Client) Send(ctx context.Context, payload Payload) error {
	if !c.Available() {
		return ErrUnavailable
	}
	if payload == nil {
		payload = Payload{}
	}

	resp, err := c.rc.R().
		SetContext(ctx).
		SetBody(map[string]any(payload)).
		Post(c.endpoint)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("delivery: post: %w", ctxErr)
		}
		return fmt.Errorf("delivery: post: %w", err)
	}
	if !resp.IsSuccess() {
		return &StatusError{Code: resp.StatusCode()}
	}
	return nil
}
