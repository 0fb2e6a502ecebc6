package geocode

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func testClient(serverURL string) *Client {
	return &Client{
		baseURL:    serverURL,
		userAgent:  "carenest-test",
		httpClient: &http.Client{Timeout: time.Second},
	}
}

func TestLookupParsesResult(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Berliner Str. 1, 10115 Berlin", r.URL.Query().Get("q"))
		assert.Equal(t, "carenest-test", r.Header.Get("User-Agent"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"lat":"52.5200066","lon":"13.404954"}]`))
	}))
	defer server.Close()

	loc, err := testClient(server.URL).lookup(context.Background(), "Berliner Str. 1, 10115 Berlin")

	assert.NoError(t, err)
	assert.InDelta(t, 52.5200066, loc.Latitude, 1e-9)
	assert.InDelta(t, 13.404954, loc.Longitude, 1e-9)
}

func TestLookupEmptyResultIsError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	}))
	defer server.Close()

	_, err := testClient(server.URL).lookup(context.Background(), "nowhere")

	assert.Error(t, err)
}

func TestLookupUpstreamErrorIsError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	_, err := testClient(server.URL).lookup(context.Background(), "Berlin")

	assert.Error(t, err)
}

func TestCacheKeyIsCaseInsensitive(t *testing.T) {
	assert.Equal(t, cacheKey("Berlin Mitte"), cacheKey("berlin mitte"))
	assert.NotEqual(t, cacheKey("Berlin"), cacheKey("Hamburg"))
}
