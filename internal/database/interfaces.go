package database

import (
	"context"

	"road-smart-optimizer/internal/models"
)

// DataStore is the interface for data persistence
type DataStore interface {
	Close() error
	HealthCheck(ctx context.Context) error
	Plans() PlanRepository
	GeocodeCache() GeocodeCacheRepository
}

// PlanRepository handles saved plan persistence
type PlanRepository interface {
	List(ctx context.Context, search string) ([]models.Plan, error)
	GetByID(ctx context.Context, id int64) (*models.Plan, error)
	Create(ctx context.Context, p *models.Plan) (*models.Plan, error)
	Update(ctx context.Context, p *models.Plan) (*models.Plan, error)
	Delete(ctx context.Context, id int64) error
}

// GeocodeCacheRepository handles geocode lookup caching keyed by query text
type GeocodeCacheRepository interface {
	Get(ctx context.Context, query string) (*models.GeocodeCacheEntry, error)
	Set(ctx context.Context, entry *models.GeocodeCacheEntry) error
	Clear(ctx context.Context) error
}
