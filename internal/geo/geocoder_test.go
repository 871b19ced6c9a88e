package geo

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func newTestGeocoder(t *testing.T, handler http.HandlerFunc) (Geocoder, *int64) {
	t.Helper()
	var calls int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&calls, 1)
		handler(w, r)
	}))
	t.Cleanup(srv.Close)
	return NewClient(Config{BaseURL: srv.URL, RequestDelay: time.Millisecond}), &calls
}

func TestHTTPGeocoder_Locate(t *testing.T) {
	g, _ := newTestGeocoder(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("q"); got != "500 Congress Ave, Austin, Texas" {
			t.Errorf("unexpected query %q", got)
		}
		w.Write([]byte(`[{"lat":"30.2672","lon":"-97.7431","display_name":"500 Congress Ave, Austin, TX","address":{"county":"Travis County","state":"Texas"}}]`))
	})

	place, err := g.Locate(context.Background(), "500 Congress Ave", "Austin", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if place.Lat != 30.2672 || place.Lng != -97.7431 {
		t.Errorf("bad coordinates: %+v", place)
	}
	if place.County != "Travis" {
		t.Errorf("county = %q, want Travis (normalized)", place.County)
	}
}

func TestHTTPGeocoder_CachesResponses(t *testing.T) {
	g, calls := newTestGeocoder(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"lat":"30.1","lon":"-97.1","display_name":"x","address":{"county":"Hays County"}}]`))
	})

	for i := 0; i < 3; i++ {
		if _, err := g.Locate(context.Background(), "100 Main St", "Kyle", ""); err != nil {
			t.Fatalf("call %d: %v", i, err)
		}
	}
	if got := atomic.LoadInt64(calls); got != 1 {
		t.Errorf("expected 1 upstream request, got %d", got)
	}
}

func TestHTTPGeocoder_NoMatch(t *testing.T) {
	g, _ := newTestGeocoder(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	})
	_, err := g.Locate(context.Background(), "nowhere at all", "", "")
	if !errors.Is(err, ErrNoMatch) {
		t.Errorf("expected ErrNoMatch, got %v", err)
	}
}

func TestHTTPGeocoder_EmptyQuery(t *testing.T) {
	g, calls := newTestGeocoder(t, func(w http.ResponseWriter, r *http.Request) {})
	if _, err := g.Locate(context.Background(), "", "  ", ""); !errors.Is(err, ErrNoMatch) {
		t.Errorf("expected ErrNoMatch for empty query, got %v", err)
	}
	if atomic.LoadInt64(calls) != 0 {
		t.Error("empty query must not reach the network")
	}
}

func TestHTTPGeocoder_UpstreamError(t *testing.T) {
	g, _ := newTestGeocoder(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})
	if _, err := g.Locate(context.Background(), "500 Congress Ave", "Austin", ""); err == nil {
		t.Fatal("expected error on 429")
	}
}
