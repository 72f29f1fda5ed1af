package cities

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestMountPath_JoinsBasePath(t *testing.T) {
	cases := []struct {
		base string
		fns  []OptionFn
		want string
	}{
		{base: "/site", want: "/site/api/cities"},
		{base: "site", want: "/site/api/cities"},
		{base: "", want: "/api/cities"},
		{base: "/site/", fns: []OptionFn{WithRoutePath("locations")}, want: "/site/locations"},
	}
	for _, tc := range cases {
		if got := MountPath(tc.base, tc.fns...); got != tc.want {
			t.Fatalf("MountPath(%q) = %q, want %q", tc.base, got, tc.want)
		}
	}
}

func TestComponent_RegisterRoutes(t *testing.T) {
	mux := http.NewServeMux()
	pattern, err := New(WithMaxLimit(1)).RegisterRoutes(mux, "/site")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if pattern != "/site/api/cities" {
		t.Fatalf("unexpected pattern %q", pattern)
	}

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, pattern+"?q=h", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	if _, err := RegisterRoutes(nil, "/"); err == nil {
		t.Fatalf("expected missing mux error")
	}
}
