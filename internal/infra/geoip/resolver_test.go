package geoip

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/zaheer037/smart-auth/internal/core/domain"
)

func TestResolveSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/203.0.113.10/json/" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"city": "Paris",
			"country_name": "France",
			"region": "Ile-de-France",
			"timezone": "Europe/Paris",
			"latitude": 48.8566,
			"longitude": 2.3522
		}`))
	}))
	defer srv.Close()

	resolver := New(srv.URL, time.Second, nil)
	loc := resolver.Resolve(context.Background(), "203.0.113.10")

	if loc.City != "Paris" || loc.Country != "France" {
		t.Fatalf("unexpected location: %+v", loc)
	}
	if !loc.HasCoordinates() {
		t.Fatal("expected coordinates to be present")
	}
	if *loc.Latitude != 48.8566 || *loc.Longitude != 2.3522 {
		t.Fatalf("unexpected coordinates: %v %v", *loc.Latitude, *loc.Longitude)
	}
	if loc.IsUnknown() {
		t.Fatal("resolved location should not be unknown")
	}
}

func TestResolveFillsMissingFields(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"city": "Paris"}`))
	}))
	defer srv.Close()

	resolver := New(srv.URL, time.Second, nil)
	loc := resolver.Resolve(context.Background(), "203.0.113.10")

	if loc.Country != "Unknown" || loc.Region != "Unknown" || loc.Timezone != "Unknown" {
		t.Fatalf("missing fields not defaulted: %+v", loc)
	}
	if loc.HasCoordinates() {
		t.Fatal("expected no coordinates")
	}
}

func TestResolveKeepsCityLessResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"country_name": "France", "timezone": "Europe/Paris"}`))
	}))
	defer srv.Close()

	resolver := New(srv.URL, time.Second, nil)
	loc := resolver.Resolve(context.Background(), "203.0.113.10")

	if loc.Country != "France" {
		t.Fatalf("expected country to survive a city-less response, got %+v", loc)
	}
	if loc.City != "Unknown" || loc.Region != "Unknown" {
		t.Fatalf("missing fields not defaulted: %+v", loc)
	}
	if loc.IsUnknown() {
		t.Fatal("city-less response with a country should still be usable")
	}
}

func TestResolvePrivateAddresses(t *testing.T) {
	resolver := New("http://unreachable.invalid", time.Second, nil)
	dev := domain.DevelopmentLocation()

	for _, ip := range []string{"", "127.0.0.1", "::1", "10.0.0.5", "192.168.1.20", "0.0.0.0", "localhost", "dev-local"} {
		if got := resolver.Resolve(context.Background(), ip); got != dev {
			t.Fatalf("Resolve(%q) = %+v, expected development sentinel", ip, got)
		}
	}
}

func TestResolveDegradesToUnknown(t *testing.T) {
	errSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer errSrv.Close()

	apiErrSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"error": true, "reason": "Invalid IP Address"}`))
	}))
	defer apiErrSrv.Close()

	unknown := domain.UnknownLocation()
	cases := map[string]*Resolver{
		"unreachable endpoint": New("http://127.0.0.1:1/does-not-exist", 100*time.Millisecond, nil),
		"non-200 status":       New(errSrv.URL, time.Second, nil),
		"api error payload":    New(apiErrSrv.URL, time.Second, nil),
	}

	for name, resolver := range cases {
		if got := resolver.Resolve(context.Background(), "203.0.113.10"); got != unknown {
			t.Fatalf("%s: Resolve = %+v, expected unknown sentinel", name, got)
		}
	}
}

func TestResolveHonorsContextCancellation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(time.Second)
	}))
	defer srv.Close()

	resolver := New(srv.URL, 5*time.Second, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if got := resolver.Resolve(ctx, "203.0.113.10"); got != domain.UnknownLocation() {
		t.Fatalf("expected unknown sentinel on cancelled context, got %+v", got)
	}
}
