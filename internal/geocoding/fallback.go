package geocoding

import (
	"context"
	"log"
)

// fallbackGeocoder tries a primary geocoder and falls back to a secondary
// when the primary fails. Used to prefer Google when an API key is
// configured while keeping Nominatim as the free safety net.
type fallbackGeocoder struct {
	primary   Geocoder
	secondary Geocoder
}

// NewFallbackGeocoder chains two geocoders
func NewFallbackGeocoder(primary, secondary Geocoder) Geocoder {
	return &fallbackGeocoder{primary: primary, secondary: secondary}
}

// NewDefaultGeocoder returns Google-with-Nominatim-fallback when an API key
// is configured, plain Nominatim otherwise
func NewDefaultGeocoder(googleAPIKey string) Geocoder {
	nominatim := NewNominatimGeocoder()
	if googleAPIKey == "" {
		return nominatim
	}
	return NewFallbackGeocoder(NewGoogleGeocoder(googleAPIKey), nominatim)
}

func (g *fallbackGeocoder) Geocode(ctx context.Context, address string) (*GeocodingResult, error) {
	result, err := g.primary.Geocode(ctx, address)
	if err == nil {
		return result, nil
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	log.Printf("[GEOCODING] Primary geocoder failed, trying fallback: address=%s err=%v", address, err)
	return g.secondary.Geocode(ctx, address)
}

func (g *fallbackGeocoder) GeocodeWithRetry(ctx context.Context, address string, maxRetries int) (*GeocodingResult, error) {
	return geocodeWithBackoff(ctx, g, address, maxRetries)
}

func (g *fallbackGeocoder) Search(ctx context.Context, query string, limit int) ([]GeocodingResult, error) {
	results, err := g.primary.Search(ctx, query, limit)
	if err == nil {
		return results, nil
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	log.Printf("[GEOCODING] Primary search failed, trying fallback: query=%s err=%v", query, err)
	return g.secondary.Search(ctx, query, limit)
}
