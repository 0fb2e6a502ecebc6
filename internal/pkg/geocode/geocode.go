// Package geocode resolves postal addresses to coordinates through a
// Nominatim-compatible HTTP API, with a Redis read-through cache so repeated
// provider addresses never hit the upstream twice.
package geocode

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/carenest/CareNest/internal/pkg/cache"
	"github.com/carenest/CareNest/internal/pkg/env"
)

const (
	cacheKeyPrefix = "geocode:"
	cacheTTL       = 30 * 24 * time.Hour
)

// Location is a resolved coordinate pair.
type Location struct {
	Latitude  float64 `json:"lat"`
	Longitude float64 `json:"lon"`
}

type apiResult struct {
	Lat string `json:"lat"`
	Lon string `json:"lon"`
}

// Client queries the geocoding API.
type Client struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
}

// NewClient builds a client from environment configuration.
func NewClient() *Client {
	return &Client{
		baseURL:   env.GetEnv("GEOCODE_BASE_URL", "https://nominatim.openstreetmap.org/search"),
		userAgent: env.GetEnv("GEOCODE_USER_AGENT", "CareNest/1.0"),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Geocode resolves an address, consulting the cache first. A miss for an
// address the upstream cannot resolve is an error, not a zero coordinate.
func (c *Client) Geocode(ctx context.Context, address string) (*Location, error) {
	addr := strings.TrimSpace(address)
	if addr == "" {
		return nil, fmt.Errorf("geocode: address is empty")
	}

	key := cacheKey(addr)
	if cached, err := cache.Get(key); err == nil && cached != "" {
		var loc Location
		if err := json.Unmarshal([]byte(cached), &loc); err == nil {
			return &loc, nil
		}
	}

	loc, err := c.lookup(ctx, addr)
	if err != nil {
		return nil, err
	}

	if payload, err := json.Marshal(loc); err == nil {
		// Cache failures only cost an extra upstream call later.
		_ = cache.Set(key, string(payload), cacheTTL)
	}
	return loc, nil
}

func (c *Client) lookup(ctx context.Context, address string) (*Location, error) {
	query := url.Values{
		"q":      {address},
		"format": {"json"},
		"limit":  {"1"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+query.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("geocode: build request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("geocode: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("geocode: upstream returned status %d", resp.StatusCode)
	}

	var results []apiResult
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return nil, fmt.Errorf("geocode: decode response: %w", err)
	}
	if len(results) == 0 {
		return nil, fmt.Errorf("geocode: no result for %q", address)
	}

	lat, err := strconv.ParseFloat(results[0].Lat, 64)
	if err != nil {
		return nil, fmt.Errorf("geocode: malformed latitude %q", results[0].Lat)
	}
	lon, err := strconv.ParseFloat(results[0].Lon, 64)
	if err != nil {
		return nil, fmt.Errorf("geocode: malformed longitude %q", results[0].Lon)
	}

	return &Location{Latitude: lat, Longitude: lon}, nil
}

func cacheKey(address string) string {
	sum := sha256.Sum256([]byte(strings.ToLower(address)))
	return cacheKeyPrefix + hex.EncodeToString(sum[:8])
}
