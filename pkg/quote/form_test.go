package quote

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formguard/pkg/delivery"
	"github.com/goliatone/go-formguard/pkg/form"
	"github.com/goliatone/go-formguard/pkg/leads"
	"github.com/goliatone/go-formguard/pkg/ratelimit"
)

func newServer(t *testing.T, status int, calls *atomic.Int32, body *map[string]any) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if body != nil {
			_ = json.NewDecoder(r.Body).Decode(body)
		}
		w.WriteHeader(status)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func completeQuote(t *testing.T, f *Form) {
	t.Helper()
	f.SelectCity("Merrillville")
	if !f.Advance() {
		t.Fatalf("location gate failed: %#v", f.Errors())
	}
	f.SetServiceType("Deep")
	f.Advance()
	f.SetBedrooms(4)
	f.SetBathrooms(3)
	f.Advance()
	f.SetFrequency(FrequencyMonthly)
	f.Advance()
	f.SetContact(form.FieldName, "Jane Doe")
	f.SetContact(form.FieldEmail, "Jane@Example.com")
	f.SetContact(form.FieldPhone, "(219) 555-1234")
	if f.Step() != StepContact {
		t.Fatalf("expected contact step, got %v", f.Step())
	}
}

func TestForm_SubmitDeliversAndRecordsLead(t *testing.T) {
	var calls atomic.Int32
	var body map[string]any
	srv := newServer(t, http.StatusOK, &calls, &body)
	store := leads.NewMemoryStore()

	f := New(WithSender(delivery.New(srv.URL)), WithMinFill(0), WithLeads(store))
	completeQuote(t, f)

	out := f.Submit(context.Background())
	if out.Status != form.StatusSucceeded {
		t.Fatalf("expected success, got %#v", out)
	}

	want := map[string]any{
		"name":        "Jane Doe",
		"email":       "jane@example.com",
		"phone":       "(219) 555-1234",
		"zipCode":     "46410",
		"serviceType": "Deep",
		"bedrooms":    "4",
		"bathrooms":   "3",
		"frequency":   "monthly",
		"_gotcha":     "",
		"_subject":    "Quote: Jane Doe - Deep",
		"_captcha":    "false",
	}
	if diff := cmp.Diff(want, body); diff != "" {
		t.Fatalf("payload mismatch (-want +got):\n%s", diff)
	}

	if !f.Completed() {
		t.Fatalf("expected completed state")
	}
	conf, ok := f.Confirmation()
	if !ok || conf.BookingURL != DefaultBookingURL {
		t.Fatalf("unexpected confirmation %#v", conf)
	}
	if f.Data().Name != "Jane Doe" {
		t.Fatalf("quote data must not be cleared in place")
	}
	if again := f.Submit(context.Background()); again.Status != form.StatusIgnored {
		t.Fatalf("completed quote must ignore resubmits, got %#v", again)
	}

	list, _ := store.List(context.Background())
	if len(list) != 1 || list[0].City != "Merrillville" || list[0].Status != leads.StatusNew {
		t.Fatalf("expected one new lead, got %#v", list)
	}
}

func TestForm_SubmitBeforeLastStepIgnored(t *testing.T) {
	var calls atomic.Int32
	srv := newServer(t, http.StatusOK, &calls, nil)
	f := New(WithSender(delivery.New(srv.URL)), WithMinFill(0))
	f.SelectCity("Hammond")
	f.Advance()

	if out := f.Submit(context.Background()); out.Status != form.StatusIgnored {
		t.Fatalf("expected ignored, got %#v", out)
	}
	if calls.Load() != 0 {
		t.Fatalf("no request expected")
	}
}

func TestForm_FailureEntersFallback(t *testing.T) {
	var calls atomic.Int32
	srv := newServer(t, http.StatusBadGateway, &calls, nil)
	f := New(WithSender(delivery.New(srv.URL)), WithMinFill(0), WithBusiness("", "owner@example.com", ""))
	completeQuote(t, f)

	if _, ok := f.Fallback(); ok {
		t.Fatalf("fallback must be off before a failure")
	}
	out := f.Submit(context.Background())
	if out.Status != form.StatusFailed || out.Message != "Automatic submission failed." {
		t.Fatalf("expected failure, got %#v", out)
	}
	link, ok := f.Fallback()
	if !ok {
		t.Fatalf("expected fallback mode")
	}
	if !strings.HasPrefix(link, "mailto:owner@example.com?subject=Quote%20Request%3A%20Jane%20Doe&body=") {
		t.Fatalf("unexpected mailto link %q", link)
	}
	if !strings.Contains(link, "ZIP%3A%2046410%0D%0AService%3A%20Deep") {
		t.Fatalf("mailto body missing fields: %q", link)
	}
	if f.Completed() || f.Data().Email != "Jane@Example.com" {
		t.Fatalf("failure must keep data and stay on the form")
	}
}

func TestForm_ValidationRoutesBack(t *testing.T) {
	var calls atomic.Int32
	srv := newServer(t, http.StatusOK, &calls, nil)
	f := New(WithSender(delivery.New(srv.URL)), WithMinFill(0))
	completeQuote(t, f)
	f.SetContact(form.FieldName, "")

	out := f.Submit(context.Background())
	if out.Status != form.StatusInvalid || !out.Errors.Has(form.FieldName) {
		t.Fatalf("expected name error, got %#v", out)
	}
	if f.Step() != StepContact || calls.Load() != 0 {
		t.Fatalf("contact error must keep step 5 and send nothing")
	}
}

func TestForm_RateLimitedMessage(t *testing.T) {
	var calls atomic.Int32
	srv := newServer(t, http.StatusOK, &calls, nil)
	limiter := ratelimit.New(ratelimit.NewMemoryKV(), ratelimit.DefaultConfig())
	limiter.Record()
	limiter.Record()
	limiter.Record()

	f := New(WithSender(delivery.New(srv.URL)), WithMinFill(0), WithLimiter(limiter))
	completeQuote(t, f)
	out := f.Submit(context.Background())
	if out.Status != form.StatusRateLimited || out.Message != "Wait 10 min before trying again." {
		t.Fatalf("expected rate limit, got %#v", out)
	}
	if calls.Load() != 0 {
		t.Fatalf("rate limited quote must not send")
	}
}

func TestForm_HoneypotUsesProviderKey(t *testing.T) {
	got := BuildPayload(Data{Name: "Jane Doe", ServiceType: "Standard", Bedrooms: 3, Bathrooms: 2, Frequency: FrequencyOneTime}, "_honey")
	if _, ok := got["_honey"]; !ok {
		t.Fatalf("expected _honey key, got %#v", got)
	}
	if _, ok := got["_gotcha"]; ok {
		t.Fatalf("unexpected _gotcha key")
	}
}
