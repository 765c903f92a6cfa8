package geocoding

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"time"

	"road-smart-optimizer/internal/models"
)

type googleGeocoder struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

type googleResponse struct {
	Status  string `json:"status"`
	Results []struct {
		FormattedAddress string `json:"formatted_address"`
		Geometry         struct {
			Location struct {
				Lat float64 `json:"lat"`
				Lng float64 `json:"lng"`
			} `json:"location"`
		} `json:"geometry"`
	} `json:"results"`
}

// NewGoogleGeocoder creates a geocoder backed by the Google Geocoding API
func NewGoogleGeocoder(apiKey string) Geocoder {
	return &googleGeocoder{
		baseURL: "https://maps.googleapis.com/maps/api/geocode/json",
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

func (g *googleGeocoder) Geocode(ctx context.Context, address string) (*GeocodingResult, error) {
	results, err := g.query(ctx, address)
	if err != nil {
		return nil, err
	}
	return &results[0], nil
}

func (g *googleGeocoder) GeocodeWithRetry(ctx context.Context, address string, maxRetries int) (*GeocodingResult, error) {
	return geocodeWithBackoff(ctx, g, address, maxRetries)
}

func (g *googleGeocoder) Search(ctx context.Context, query string, limit int) ([]GeocodingResult, error) {
	results, err := g.query(ctx, query)
	if err != nil {
		return nil, err
	}
	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

func (g *googleGeocoder) query(ctx context.Context, address string) ([]GeocodingResult, error) {
	queryURL := fmt.Sprintf("%s?address=%s&key=%s", g.baseURL, url.QueryEscape(address), url.QueryEscape(g.apiKey))
	log.Printf("[GEOCODING] Google request: address=%s", address)

	req, err := http.NewRequestWithContext(ctx, "GET", queryURL, nil)
	if err != nil {
		log.Printf("[ERROR] Failed to create Google geocoding request: address=%s err=%v", address, err)
		return nil, &ErrGeocodingFailed{Address: address, Reason: err.Error()}
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		log.Printf("[ERROR] Google geocoding request failed: address=%s err=%v", address, err)
		return nil, &ErrGeocodingFailed{Address: address, Reason: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		log.Printf("[ERROR] Google geocoding API error: address=%s status=%d body=%s", address, resp.StatusCode, string(body))
		return nil, &ErrGeocodingFailed{
			Address: address,
			Reason:  fmt.Sprintf("HTTP %d: %s", resp.StatusCode, string(body)),
		}
	}

	var decoded googleResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		log.Printf("[ERROR] Failed to decode Google geocoding response: address=%s err=%v", address, err)
		return nil, &ErrGeocodingFailed{Address: address, Reason: err.Error()}
	}

	if decoded.Status != "OK" || len(decoded.Results) == 0 {
		log.Printf("[ERROR] Google geocoding returned no results: address=%s status=%s", address, decoded.Status)
		return nil, &ErrGeocodingFailed{Address: address, Reason: fmt.Sprintf("status %s", decoded.Status)}
	}

	results := make([]GeocodingResult, 0, len(decoded.Results))
	for _, r := range decoded.Results {
		results = append(results, GeocodingResult{
			Coords: models.Coordinates{
				Lat: r.Geometry.Location.Lat,
				Lng: r.Geometry.Location.Lng,
			},
			DisplayName: r.FormattedAddress,
		})
	}

	log.Printf("[GEOCODING] Google response: address=%s results_count=%d", address, len(results))
	return results, nil
}
