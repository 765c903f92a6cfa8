package geocoding

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestNominatim(serverURL string) *nominatimGeocoder {
	return &nominatimGeocoder{
		baseURL: serverURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		rateLimiter: time.NewTicker(1 * time.Millisecond), // Fast rate limit for testing
	}
}

func TestNominatimGeocodeSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Verify request
		assert.Contains(t, r.URL.Path, "/search")
		assert.Equal(t, "json", r.URL.Query().Get("format"))
		assert.Equal(t, "1", r.URL.Query().Get("limit"))
		assert.NotEmpty(t, r.URL.Query().Get("q"))

		response := []nominatimResponse{
			{
				Lat:         "51.5007",
				Lon:         "-0.1246",
				DisplayName: "Westminster, London, United Kingdom",
			},
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(response)
	}))
	defer server.Close()

	geocoder := newTestNominatim(server.URL)

	result, err := geocoder.Geocode(context.Background(), "Westminster")

	require.NoError(t, err)
	assert.NotNil(t, result)
	assert.Equal(t, 51.5007, result.Coords.Lat)
	assert.Equal(t, -0.1246, result.Coords.Lng)
	assert.Equal(t, "Westminster, London, United Kingdom", result.DisplayName)
}

func TestNominatimGeocodeNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode([]nominatimResponse{})
	}))
	defer server.Close()

	geocoder := newTestNominatim(server.URL)

	result, err := geocoder.Geocode(context.Background(), "Nonexistent Location")

	require.Error(t, err)
	assert.Nil(t, result)

	geocodingErr, ok := err.(*ErrGeocodingFailed)
	require.True(t, ok)
	assert.Contains(t, geocodingErr.Reason, "no results found")
}

func TestNominatimGeocodeHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("Internal Server Error"))
	}))
	defer server.Close()

	geocoder := newTestNominatim(server.URL)

	result, err := geocoder.Geocode(context.Background(), "Test Address")

	require.Error(t, err)
	assert.Nil(t, result)

	geocodingErr, ok := err.(*ErrGeocodingFailed)
	require.True(t, ok)
	assert.Contains(t, geocodingErr.Reason, "HTTP 500")
}

func TestNominatimGeocodeInvalidJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte("invalid json"))
	}))
	defer server.Close()

	geocoder := newTestNominatim(server.URL)

	result, err := geocoder.Geocode(context.Background(), "Test Address")

	require.Error(t, err)
	assert.Nil(t, result)
}

func TestNominatimGeocodeInvalidLatLon(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		response := []nominatimResponse{
			{
				Lat:         "invalid",
				Lon:         "-0.1246",
				DisplayName: "Test",
			},
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(response)
	}))
	defer server.Close()

	geocoder := newTestNominatim(server.URL)

	result, err := geocoder.Geocode(context.Background(), "Test Address")

	require.Error(t, err)
	assert.Nil(t, result)

	geocodingErr, ok := err.(*ErrGeocodingFailed)
	require.True(t, ok)
	assert.Contains(t, geocodingErr.Reason, "invalid latitude")
}

func TestNominatimGeocodeRateLimiting(t *testing.T) {
	requestCount := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestCount++
		response := []nominatimResponse{
			{Lat: "51.5007", Lon: "-0.1246", DisplayName: "Test"},
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(response)
	}))
	defer server.Close()

	geocoder := newTestNominatim(server.URL)
	geocoder.rateLimiter = time.NewTicker(50 * time.Millisecond)

	start := time.Now()
	for i := 0; i < 3; i++ {
		_, err := geocoder.Geocode(context.Background(), "Test")
		require.NoError(t, err)
	}
	elapsed := time.Since(start)

	// Should take at least 100ms for 3 requests (50ms * 2 waits)
	assert.True(t, elapsed >= 100*time.Millisecond, "Rate limiting not working")
	assert.Equal(t, 3, requestCount)
}

func TestNominatimGeocodeWithRetrySuccess(t *testing.T) {
	attemptCount := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attemptCount++
		if attemptCount < 2 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		response := []nominatimResponse{
			{Lat: "51.5007", Lon: "-0.1246", DisplayName: "Westminster"},
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(response)
	}))
	defer server.Close()

	geocoder := newTestNominatim(server.URL)

	result, err := geocoder.GeocodeWithRetry(context.Background(), "Westminster", 3)

	require.NoError(t, err)
	assert.NotNil(t, result)
	assert.Equal(t, 51.5007, result.Coords.Lat)
	assert.Equal(t, 2, attemptCount)
}

func TestNominatimGeocodeWithRetryAllFail(t *testing.T) {
	attemptCount := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attemptCount++
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	geocoder := newTestNominatim(server.URL)

	result, err := geocoder.GeocodeWithRetry(context.Background(), "Test", 3)

	require.Error(t, err)
	assert.Nil(t, result)
	assert.Equal(t, 3, attemptCount)
}

func TestNominatimGeocodeContextCancellation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Simulate slow response
		time.Sleep(100 * time.Millisecond)
		json.NewEncoder(w).Encode([]nominatimResponse{
			{Lat: "51.5007", Lon: "-0.1246", DisplayName: "Test"},
		})
	}))
	defer server.Close()

	geocoder := newTestNominatim(server.URL)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	result, err := geocoder.Geocode(ctx, "Test")

	require.Error(t, err)
	assert.Nil(t, result)
}

func TestNominatimSearchReturnsMultipleResults(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "5", r.URL.Query().Get("limit"))
		response := []nominatimResponse{
			{Lat: "51.5007", Lon: "-0.1246", DisplayName: "Westminster, London"},
			{Lat: "44.2495", Lon: "-76.8951", DisplayName: "Westminster, Ontario"},
			{Lat: "not-a-number", Lon: "-1.0", DisplayName: "Broken entry"},
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(response)
	}))
	defer server.Close()

	geocoder := newTestNominatim(server.URL)

	results, err := geocoder.Search(context.Background(), "Westminster", 5)

	require.NoError(t, err)
	// Entries with unparseable coordinates are skipped
	require.Len(t, results, 2)
	assert.Equal(t, "Westminster, London", results[0].DisplayName)
}

func TestNominatimGeocodeUserAgent(t *testing.T) {
	userAgentReceived := ""
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userAgentReceived = r.Header.Get("User-Agent")
		json.NewEncoder(w).Encode([]nominatimResponse{
			{Lat: "51.5007", Lon: "-0.1246", DisplayName: "Test"},
		})
	}))
	defer server.Close()

	geocoder := newTestNominatim(server.URL)

	_, err := geocoder.Geocode(context.Background(), "Test")

	require.NoError(t, err)
	assert.Equal(t, "RoadSmartOptimizer/1.0", userAgentReceived)
}
