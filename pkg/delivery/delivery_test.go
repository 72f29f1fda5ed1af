package delivery

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestClient_SendPostsJSON(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("unexpected content type %q", ct)
		}
		if accept := r.Header.Get("Accept"); accept != "application/json" {
			t.Errorf("unexpected accept %q", accept)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	client := New(srv.URL)
	err := client.Send(context.Background(), Payload{"name": "Jane Doe", "_subject": "New Contact Form: Jane Doe"})
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	want := map[string]any{"name": "Jane Doe", "_subject": "New Contact Form: Jane Doe"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("body mismatch (-want +got):\n%s", diff)
	}
}

func TestClient_NonSuccessStatusDoesNotRetry(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnprocessableEntity)
	}))
	defer srv.Close()

	err := New(srv.URL).Send(context.Background(), nil)
	var statusErr *StatusError
	if !errors.As(err, &statusErr) || statusErr.StatusCode() != http.StatusUnprocessableEntity {
		t.Fatalf("expected StatusError 422, got %v", err)
	}
	if calls.Load() != 1 {
		t.Fatalf("expected exactly one request, got %d", calls.Load())
	}
}

func TestClient_TransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	endpoint := srv.URL
	srv.Close()

	err := New(endpoint).Send(context.Background(), Payload{})
	if err == nil {
		t.Fatalf("expected transport error")
	}
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		t.Fatalf("transport failure must not look like a status error: %v", err)
	}
}

func TestClient_CanceledContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := New(srv.URL).Send(ctx, Payload{}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestClient_Unavailable(t *testing.T) {
	client := New("  ")
	if client.Available() {
		t.Fatalf("blank endpoint must be unavailable")
	}
	if err := client.Send(context.Background(), Payload{}); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}

func TestResolveEndpoint(t *testing.T) {
	cases := []struct {
		id, fallback, want string
	}{
		{"xyzabc", DefaultSubmitURL, "https://formspree.io/f/xyzabc"},
		{"", DefaultSubmitURL, DefaultSubmitURL},
		{"  ", "", ""},
	}
	for _, tc := range cases {
		if got := ResolveEndpoint(tc.id, tc.fallback); got != tc.want {
			t.Fatalf("ResolveEndpoint(%q, %q) = %q, want %q", tc.id, tc.fallback, got, tc.want)
		}
	}
}

func TestHoneypotKey(t *testing.T) {
	if got := HoneypotKey(DefaultSubmitURL); got != "_honey" {
		t.Fatalf("formsubmit key = %q", got)
	}
	if got := HoneypotKey("https://formspree.io/f/abc"); got != "_gotcha" {
		t.Fatalf("formspree key = %q", got)
	}
}
