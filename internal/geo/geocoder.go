// Package geo resolves dig-site addresses to coordinates and counties. The
// engine works fine without it; when configured it back-fills GPS and
// cross-checks county names during intake.
package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Placement is a resolved dig-site location.
type Placement struct {
	Lat         float64 `json:"lat"`
	Lng         float64 `json:"lng"`
	County      string  `json:"county,omitempty"`
	DisplayName string  `json:"display_name,omitempty"`
}

// Geocoder turns an address into a Placement.
type Geocoder interface {
	Locate(ctx context.Context, address, city, county string) (*Placement, error)
}

// ErrNoMatch means the geocoder had nothing for the address. Callers treat
// it as "leave the ticket alone", never as a hard failure.
var ErrNoMatch = fmt.Errorf("no geocoder match")

// Config holds the connection settings for a Nominatim-style endpoint.
type Config struct {
	BaseURL      string
	Timeout      time.Duration
	RequestDelay time.Duration
	UserAgent    string
}

type httpGeocoder struct {
	cfg         Config
	httpClient  *http.Client
	lastRequest time.Time
	requestMu   sync.Mutex

	cache      map[string]*cacheEntry
	cacheMutex sync.RWMutex
}

type cacheEntry struct {
	Value      *Placement
	Expiration time.Time
}

const geocodeCacheTTL = 24 * time.Hour

// NewClient builds a geocoder client. Public instances rate-limit hard, so
// the default request delay is a polite full second.
func NewClient(cfg Config) Geocoder {
	if cfg.Timeout == 0 {
		cfg.Timeout = 15 * time.Second
	}
	if cfg.RequestDelay == 0 {
		cfg.RequestDelay = time.Second
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "locate-mcp"
	}
	return &httpGeocoder{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		cache:      make(map[string]*cacheEntry),
	}
}

func (g *httpGeocoder) getFromCache(key string) (*Placement, bool) {
	g.cacheMutex.RLock()
	defer g.cacheMutex.RUnlock()

	entry, ok := g.cache[key]
	if !ok {
		return nil, false
	}
	if time.Now().After(entry.Expiration) {
		return nil, false
	}
	log.Debug().Str("key", key).Msg("Geocode cache hit")
	return entry.Value, true
}

func (g *httpGeocoder) addToCache(key string, value *Placement) {
	g.cacheMutex.Lock()
	defer g.cacheMutex.Unlock()
	g.cache[key] = &cacheEntry{Value: value, Expiration: time.Now().Add(geocodeCacheTTL)}
}

func (g *httpGeocoder) throttle() {
	g.requestMu.Lock()
	defer g.requestMu.Unlock()

	elapsed := time.Since(g.lastRequest)
	if elapsed < g.cfg.RequestDelay {
		wait := g.cfg.RequestDelay - elapsed
		log.Debug().Dur("wait", wait).Msg("Throttling geocoder request")
		time.Sleep(wait)
	}
	g.lastRequest = time.Now()
}

type searchResult struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
	Address     struct {
		County string `json:"county"`
		State  string `json:"state"`
	} `json:"address"`
}

func (g *httpGeocoder) Locate(ctx context.Context, address, city, county string) (*Placement, error) {
	query := buildQuery(address, city, county)
	if query == "" {
		return nil, ErrNoMatch
	}

	cacheKey := "locate:" + strings.ToLower(query)
	if val, ok := g.getFromCache(cacheKey); ok {
		return val, nil
	}

	g.throttle()

	params := url.Values{}
	params.Set("q", query)
	params.Set("format", "jsonv2")
	params.Set("addressdetails", "1")
	params.Set("limit", "1")
	params.Set("countrycodes", "us")

	searchURL := fmt.Sprintf("%s/search?%s", strings.TrimRight(g.cfg.BaseURL, "/"), params.Encode())
	log.Debug().Str("url", searchURL).Msg("Geocoding dig site")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", g.cfg.UserAgent)

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("geocoder request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		switch resp.StatusCode {
		case http.StatusTooManyRequests:
			return nil, fmt.Errorf("geocoder rate limit exceeded (429)")
		default:
			return nil, fmt.Errorf("geocoder returned status %d", resp.StatusCode)
		}
	}

	var results []searchResult
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return nil, fmt.Errorf("failed to decode geocoder response: %w", err)
	}
	if len(results) == 0 {
		return nil, ErrNoMatch
	}

	place, err := toPlacement(results[0])
	if err != nil {
		return nil, err
	}

	g.addToCache(cacheKey, place)
	return place, nil
}

func buildQuery(address, city, county string) string {
	var parts []string
	for _, p := range []string{address, city, county} {
		if s := strings.TrimSpace(p); s != "" {
			parts = append(parts, s)
		}
	}
	if len(parts) == 0 {
		return ""
	}
	parts = append(parts, "Texas")
	return strings.Join(parts, ", ")
}

func toPlacement(r searchResult) (*Placement, error) {
	lat, err := strconv.ParseFloat(r.Lat, 64)
	if err != nil {
		return nil, fmt.Errorf("geocoder returned bad latitude %q", r.Lat)
	}
	lng, err := strconv.ParseFloat(r.Lon, 64)
	if err != nil {
		return nil, fmt.Errorf("geocoder returned bad longitude %q", r.Lon)
	}
	place := &Placement{Lat: lat, Lng: lng, DisplayName: r.DisplayName}
	if canonical, ok := NormalizeCounty(r.Address.County); ok {
		place.County = canonical
	}
	return place, nil
}
