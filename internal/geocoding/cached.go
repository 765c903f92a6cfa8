package geocoding

import (
	"context"
	"log"

	"road-smart-optimizer/internal/database"
	"road-smart-optimizer/internal/models"
)

// cachedGeocoder consults the geocode cache before hitting the network and
// stores successful lookups. Cache failures are logged and ignored so a
// broken cache file never blocks geocoding.
type cachedGeocoder struct {
	inner Geocoder
	cache database.GeocodeCacheRepository
}

// NewCachedGeocoder wraps a geocoder with a persistent lookup cache
func NewCachedGeocoder(inner Geocoder, cache database.GeocodeCacheRepository) Geocoder {
	return &cachedGeocoder{inner: inner, cache: cache}
}

func (g *cachedGeocoder) Geocode(ctx context.Context, address string) (*GeocodingResult, error) {
	entry, err := g.cache.Get(ctx, address)
	if err != nil {
		log.Printf("[GEOCODING] Cache lookup failed: address=%s err=%v", address, err)
	} else if entry != nil {
		log.Printf("[GEOCODING] Cache hit: address=%s", address)
		return &GeocodingResult{
			Coords:      models.Coordinates{Lat: entry.Lat, Lng: entry.Lng},
			DisplayName: entry.DisplayName,
		}, nil
	}

	result, err := g.inner.Geocode(ctx, address)
	if err != nil {
		return nil, err
	}

	if err := g.cache.Set(ctx, &models.GeocodeCacheEntry{
		Query:       address,
		DisplayName: result.DisplayName,
		Lat:         result.Coords.Lat,
		Lng:         result.Coords.Lng,
	}); err != nil {
		log.Printf("[GEOCODING] Cache store failed: address=%s err=%v", address, err)
	}

	return result, nil
}

func (g *cachedGeocoder) GeocodeWithRetry(ctx context.Context, address string, maxRetries int) (*GeocodingResult, error) {
	return geocodeWithBackoff(ctx, g, address, maxRetries)
}

// Search bypasses the cache: suggestion lists are short-lived and limit-dependent
func (g *cachedGeocoder) Search(ctx context.Context, query string, limit int) ([]GeocodingResult, error) {
	return g.inner.Search(ctx, query, limit)
}
