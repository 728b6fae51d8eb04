// Package geocode resolves a business postal location into coordinates.
package geocode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"sponsor-advisor-be/pkg/geo"

	"github.com/patrickmn/go-cache"
	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"
)

const defaultBaseURL = "https://api.geoapify.com"

// Geocoder turns (city, state, postal code) into a location.
// A nil location with a nil error means the address could not be resolved.
type Geocoder interface {
	Resolve(ctx context.Context, city, state, postalCode string) (*geo.Location, error)
}

// Option configures the Geoapify geocoder.
type Option func(*geoapifyGeocoder)

// WithBaseURL overrides the API host, mostly for tests.
func WithBaseURL(baseURL string) Option {
	return func(g *geoapifyGeocoder) {
		g.baseURL = strings.TrimRight(baseURL, "/")
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(g *geoapifyGeocoder) {
		g.httpClient = hc
	}
}

// WithRateLimit sets the outbound requests-per-second limit.
func WithRateLimit(rps float64) Option {
	return func(g *geoapifyGeocoder) {
		burst := int(rps)
		if burst < 1 {
			burst = 1
		}
		g.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithCacheTTL sets how long a lookup (hit or miss) is remembered.
func WithCacheTTL(ttl time.Duration) Option {
	return func(g *geoapifyGeocoder) {
		g.cache = cache.New(ttl, 2*ttl)
	}
}

// WithMinConfidence rejects results whose rank confidence is below the threshold.
func WithMinConfidence(confidence float64) Option {
	return func(g *geoapifyGeocoder) {
		g.minConfidence = confidence
	}
}

type geoapifyGeocoder struct {
	apiKey        string
	baseURL       string
	httpClient    *http.Client
	limiter       *rate.Limiter
	cache         *cache.Cache
	minConfidence float64
}

// cached miss marker, so repeated unresolvable lookups do not hit the API
type unresolved struct{}

func NewGeoapifyGeocoder(apiKey string, opts ...Option) Geocoder {
	g := &geoapifyGeocoder{
		apiKey:     apiKey,
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		limiter:    rate.NewLimiter(5, 5),
		cache:      cache.New(24*time.Hour, 1*time.Hour),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func cacheKey(city, state, postalCode string) string {
	norm := func(s string) string { return strings.ToLower(strings.TrimSpace(s)) }
	return fmt.Sprintf("geo:%s|%s|%s", norm(city), norm(state), norm(postalCode))
}

func (g *geoapifyGeocoder) Resolve(ctx context.Context, city, state, postalCode string) (*geo.Location, error) {
	city = strings.TrimSpace(city)
	state = strings.TrimSpace(state)
	postalCode = strings.TrimSpace(postalCode)
	if city == "" && state == "" && postalCode == "" {
		return nil, nil
	}

	key := cacheKey(city, state, postalCode)
	if val, ok := g.cache.Get(key); ok {
		if loc, ok := val.(geo.Location); ok {
			return &loc, nil
		}
		return nil, nil
	}

	if err := g.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "geocode: rate limiter")
	}

	params := url.Values{}
	if city != "" {
		params.Add("city", city)
	}
	if state != "" {
		params.Add("state", state)
	}
	if postalCode != "" {
		params.Add("postcode", postalCode)
	}
	params.Add("format", "json")
	params.Add("limit", "1")
	params.Add("apiKey", g.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"/v1/geocode/search?"+params.Encode(), nil)
	if err != nil {
		return nil, eris.Wrap(redactKey(err), "geocode: build request")
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, eris.Wrap(redactKey(err), "geocode: request failed")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "geocode: read body")
	}
	if resp.StatusCode != http.StatusOK {
		return nil, eris.Errorf("geocode: unexpected status %d: %s", resp.StatusCode, string(body))
	}

	var result struct {
		Results []struct {
			Lat  float64 `json:"lat"`
			Lon  float64 `json:"lon"`
			Rank struct {
				Confidence float64 `json:"confidence"`
			} `json:"rank"`
		} `json:"results"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, eris.Wrap(err, "geocode: decode response")
	}

	if len(result.Results) == 0 || result.Results[0].Rank.Confidence < g.minConfidence {
		g.cache.SetDefault(key, unresolved{})
		return nil, nil
	}

	loc := geo.Location{Latitude: result.Results[0].Lat, Longitude: result.Results[0].Lon}
	if !loc.Valid() {
		g.cache.SetDefault(key, unresolved{})
		return nil, nil
	}

	g.cache.SetDefault(key, loc)
	return &loc, nil
}

// redactKey strips the apiKey query parameter from the URL that net/http embeds in transport errors.
func redactKey(err error) error {
	var ue *url.Error
	if !errors.As(err, &ue) {
		return err
	}
	u, parseErr := url.Parse(ue.URL)
	if parseErr != nil {
		return &url.Error{Op: ue.Op, URL: "<redacted>", Err: ue.Err}
	}
	q := u.Query()
	if q.Has("apiKey") {
		q.Set("apiKey", "REDACTED")
		u.RawQuery = q.Encode()
	}
	return &url.Error{Op: ue.Op, URL: u.String(), Err: ue.Err}
}
