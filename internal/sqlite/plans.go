package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"road-smart-optimizer/internal/database"
	"road-smart-optimizer/internal/models"
)

type planRepository struct {
	store *Store
}

func (r *planRepository) List(ctx context.Context, search string) ([]models.Plan, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	var rows *sql.Rows
	var err error

	if search != "" {
		query := `SELECT id, name, start_label, start_address, start_lat, start_lng, created_at, updated_at
		          FROM plans
		          WHERE name LIKE ?
		          ORDER BY name`
		rows, err = r.store.db.QueryContext(ctx, query, "%"+search+"%")
	} else {
		query := `SELECT id, name, start_label, start_address, start_lat, start_lng, created_at, updated_at
		          FROM plans
		          ORDER BY name`
		rows, err = r.store.db.QueryContext(ctx, query)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to query plans: %w", err)
	}
	defer rows.Close()

	var plans []models.Plan
	for rows.Next() {
		var p models.Plan
		if err := rows.Scan(&p.ID, &p.Name, &p.Start.Label, &p.Start.Address,
			&p.Start.Lat, &p.Start.Lng, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan plan: %w", err)
		}
		plans = append(plans, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating plans: %w", err)
	}

	for i := range plans {
		stops, err := r.loadStops(ctx, plans[i].ID)
		if err != nil {
			return nil, err
		}
		plans[i].Stops = stops
	}

	return plans, nil
}

func (r *planRepository) GetByID(ctx context.Context, id int64) (*models.Plan, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	query := `SELECT id, name, start_label, start_address, start_lat, start_lng, created_at, updated_at
	          FROM plans WHERE id = ?`

	var p models.Plan
	err := r.store.db.QueryRowContext(ctx, query, id).Scan(
		&p.ID, &p.Name, &p.Start.Label, &p.Start.Address,
		&p.Start.Lat, &p.Start.Lng, &p.CreatedAt, &p.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, database.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get plan: %w", err)
	}

	stops, err := r.loadStops(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	p.Stops = stops

	return &p, nil
}

func (r *planRepository) loadStops(ctx context.Context, planID int64) ([]models.Location, error) {
	query := `SELECT label, address, lat, lng
	          FROM plan_stops
	          WHERE plan_id = ?
	          ORDER BY stop_order`

	rows, err := r.store.db.QueryContext(ctx, query, planID)
	if err != nil {
		return nil, fmt.Errorf("failed to query plan stops: %w", err)
	}
	defer rows.Close()

	stops := []models.Location{}
	for rows.Next() {
		var loc models.Location
		if err := rows.Scan(&loc.Label, &loc.Address, &loc.Lat, &loc.Lng); err != nil {
			return nil, fmt.Errorf("failed to scan plan stop: %w", err)
		}
		stops = append(stops, loc)
	}

	return stops, rows.Err()
}

func (r *planRepository) Create(ctx context.Context, p *models.Plan) (*models.Plan, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	now := time.Now()
	p.CreatedAt = now
	p.UpdatedAt = now

	tx, err := r.store.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `INSERT INTO plans (name, start_label, start_address, start_lat, start_lng, created_at, updated_at)
	          VALUES (?, ?, ?, ?, ?, ?, ?)`

	result, err := tx.ExecContext(ctx, query,
		p.Name, p.Start.Label, p.Start.Address, p.Start.Lat, p.Start.Lng, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create plan: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get last insert id: %w", err)
	}
	p.ID = id

	if err := insertStops(ctx, tx, p.ID, p.Stops); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return p, nil
}

func (r *planRepository) Update(ctx context.Context, p *models.Plan) (*models.Plan, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	p.UpdatedAt = time.Now()

	tx, err := r.store.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `UPDATE plans
	          SET name = ?, start_label = ?, start_address = ?, start_lat = ?, start_lng = ?, updated_at = ?
	          WHERE id = ?`

	result, err := tx.ExecContext(ctx, query,
		p.Name, p.Start.Label, p.Start.Address, p.Start.Lat, p.Start.Lng, p.UpdatedAt, p.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update plan: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return nil, database.ErrNotFound
	}

	// Replace the stop list wholesale
	if _, err := tx.ExecContext(ctx, "DELETE FROM plan_stops WHERE plan_id = ?", p.ID); err != nil {
		return nil, fmt.Errorf("failed to clear plan stops: %w", err)
	}
	if err := insertStops(ctx, tx, p.ID, p.Stops); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return p, nil
}

func (r *planRepository) Delete(ctx context.Context, id int64) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	result, err := r.store.db.ExecContext(ctx, "DELETE FROM plans WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete plan: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return database.ErrNotFound
	}

	return nil
}

func insertStops(ctx context.Context, tx *sql.Tx, planID int64, stops []models.Location) error {
	if len(stops) == 0 {
		return nil
	}

	query := `INSERT INTO plan_stops (plan_id, stop_order, label, address, lat, lng)
	          VALUES (?, ?, ?, ?, ?, ?)`

	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to prepare stop insert: %w", err)
	}
	defer stmt.Close()

	for i, stop := range stops {
		if _, err := stmt.ExecContext(ctx, planID, i, stop.Label, stop.Address, stop.Lat, stop.Lng); err != nil {
			return fmt.Errorf("failed to insert plan stop: %w", err)
		}
	}

	return nil
}
