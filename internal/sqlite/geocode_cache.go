package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"road-smart-optimizer/internal/database"
	"road-smart-optimizer/internal/models"
)

type geocodeCacheRepository struct {
	store *Store
}

func (r *geocodeCacheRepository) Get(ctx context.Context, query string) (*models.GeocodeCacheEntry, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	stmt := `SELECT query, display_name, lat, lng
	         FROM geocode_cache
	         WHERE query = ?`

	var entry models.GeocodeCacheEntry
	err := r.store.db.QueryRowContext(ctx, stmt, database.NormalizeQuery(query)).Scan(
		&entry.Query, &entry.DisplayName, &entry.Lat, &entry.Lng,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get geocode cache entry: %w", err)
	}

	return &entry, nil
}

func (r *geocodeCacheRepository) Set(ctx context.Context, entry *models.GeocodeCacheEntry) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	stmt := `INSERT OR REPLACE INTO geocode_cache (query, display_name, lat, lng)
	         VALUES (?, ?, ?, ?)`

	_, err := r.store.db.ExecContext(ctx, stmt,
		database.NormalizeQuery(entry.Query), entry.DisplayName, entry.Lat, entry.Lng,
	)
	if err != nil {
		return fmt.Errorf("failed to set geocode cache entry: %w", err)
	}

	return nil
}

func (r *geocodeCacheRepository) Clear(ctx context.Context) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	_, err := r.store.db.ExecContext(ctx, "DELETE FROM geocode_cache")
	if err != nil {
		return fmt.Errorf("failed to clear geocode cache: %w", err)
	}

	return nil
}
