package cities

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formguard/pkg/quote"
)

type handlerResponse struct {
	Data []Option  `json:"data"`
	ZIP  *ZIPCheck `json:"zip"`
}

func serve(t *testing.T, h http.Handler, method, target string) (*httptest.ResponseRecorder, handlerResponse) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, target, nil))
	var payload handlerResponse
	if method == http.MethodGet && rec.Code == http.StatusOK {
		if err := json.NewDecoder(bytes.NewReader(rec.Body.Bytes())).Decode(&payload); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
	}
	return rec, payload
}

func TestHandler_ReturnsJSONOptions(t *testing.T) {
	rec, payload := serve(t, Handler(), http.MethodGet, "/api/cities?q=crown")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "application/json") {
		t.Fatalf("expected JSON content-type, got %q", ct)
	}
	if len(payload.Data) != 1 || payload.Data[0].Value != "Crown Point" || payload.Data[0].ZIP != "46307" {
		t.Fatalf("unexpected payload: %#v", payload)
	}
}

func TestHandler_NoMatchIsEmptyArray(t *testing.T) {
	rec, _ := serve(t, Handler(), http.MethodGet, "/api/cities?q=chicago")
	if body := strings.TrimSpace(rec.Body.String()); body != `{"data":[]}` {
		t.Fatalf("expected empty data array, got %s", body)
	}
}

func TestHandler_CustomTableAndLimit(t *testing.T) {
	h := Handler(WithCities([]quote.City{
		{Name: "Gary", ZIP: "46402"},
		{Name: "Garyton", ZIP: "46403"},
	}))
	_, payload := serve(t, h, http.MethodGet, "/api/cities?q=gar&limit=1")
	if len(payload.Data) != 1 || payload.Data[0].Value != "Gary" {
		t.Fatalf("unexpected payload: %#v", payload)
	}
}

func TestHandler_ZIPCheck(t *testing.T) {
	rec, payload := serve(t, Handler(), http.MethodGet, "/api/cities?q=zzz&zip=46342")
	if payload.ZIP == nil {
		t.Fatalf("expected zip check in %s", rec.Body.String())
	}
	want := ZIPCheck{Value: "46342", InArea: true, City: "Hobart"}
	if diff := cmp.Diff(want, *payload.ZIP); diff != "" {
		t.Fatalf("zip check mismatch (-want +got):\n%s", diff)
	}

	rec, payload = serve(t, Handler(), http.MethodGet, "/api/cities?q=ham")
	if payload.ZIP != nil || strings.Contains(rec.Body.String(), `"zip":{`) {
		t.Fatalf("zip check must be omitted without the zip param: %s", rec.Body.String())
	}
}

func TestHandler_HeadHasNoBody(t *testing.T) {
	rec, _ := serve(t, Handler(), http.MethodHead, "/api/cities")
	if rec.Code != http.StatusOK || rec.Body.Len() != 0 {
		t.Fatalf("expected empty 200, got %d %q", rec.Code, rec.Body.String())
	}
}

func TestHandler_GuardRejects(t *testing.T) {
	h := Handler(WithGuard(func(r *http.Request) error {
		return StatusError{Code: http.StatusUnauthorized}
	}))
	if rec, _ := serve(t, h, http.MethodGet, "/api/cities"); rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", rec.Code)
	}
}

func TestHandler_MethodNotAllowed(t *testing.T) {
	rec, _ := serve(t, Handler(), http.MethodPost, "/api/cities")
	if rec.Code != http.StatusMethodNotAllowed || rec.Header().Get("Allow") == "" {
		t.Fatalf("expected 405 with Allow, got %d", rec.Code)
	}
}
