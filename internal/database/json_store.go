package database

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"road-smart-optimizer/internal/models"
)

// JSONData represents the structure of the JSON file
type JSONData struct {
	Plans   []models.Plan `json:"plans"`
	NextIDs struct {
		Plan int64 `json:"plan"`
	} `json:"next_ids"`
}

// JSONStore is a JSON file-based data store
type JSONStore struct {
	filePath string
	data     *JSONData
	mu       sync.RWMutex

	planRepository         PlanRepository
	geocodeCacheRepository GeocodeCacheRepository
}

func (s *JSONStore) Plans() PlanRepository                { return s.planRepository }
func (s *JSONStore) GeocodeCache() GeocodeCacheRepository { return s.geocodeCacheRepository }

// NewJSONStore creates a JSON-based data store backed by the given file. The
// geocode cache lives in its own file and is injected.
func NewJSONStore(filePath string, geocodeCache GeocodeCacheRepository) (*JSONStore, error) {
	log.Printf("[JSON] Using data file: %s", filePath)

	store := &JSONStore{
		filePath: filePath,
		data:     &JSONData{},
	}

	// Load existing data or create new
	if err := store.load(); err != nil {
		return nil, err
	}

	store.planRepository = &jsonPlanRepository{store: store}
	store.geocodeCacheRepository = geocodeCache

	return store, nil
}

func (s *JSONStore) load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.filePath)
	if os.IsNotExist(err) {
		// Initialize with empty data
		s.data = &JSONData{Plans: []models.Plan{}}
		s.data.NextIDs.Plan = 1
		return s.saveUnlocked()
	}
	if err != nil {
		return fmt.Errorf("failed to read data file: %w", err)
	}

	if err := json.Unmarshal(data, s.data); err != nil {
		return fmt.Errorf("failed to parse data file: %w", err)
	}

	if s.data.Plans == nil {
		s.data.Plans = []models.Plan{}
	}
	if s.data.NextIDs.Plan == 0 {
		s.data.NextIDs.Plan = 1
		for _, p := range s.data.Plans {
			if p.ID >= s.data.NextIDs.Plan {
				s.data.NextIDs.Plan = p.ID + 1
			}
		}
	}

	log.Printf("[JSON] Loaded data: %d plans", len(s.data.Plans))

	return nil
}

func (s *JSONStore) saveUnlocked() error {
	data, err := json.MarshalIndent(s.data, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal data: %w", err)
	}

	// Write to temp file first, then rename (atomic)
	tmpFile := s.filePath + ".tmp"
	if err := os.WriteFile(tmpFile, data, 0644); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}

	if err := os.Rename(tmpFile, s.filePath); err != nil {
		return fmt.Errorf("failed to rename temp file: %w", err)
	}

	return nil
}

// Close is a no-op for JSON store (data is saved after each operation)
func (s *JSONStore) Close() error {
	return nil
}

// HealthCheck always returns nil for JSON store
func (s *JSONStore) HealthCheck(ctx context.Context) error {
	return nil
}

// ==================== Plan Repository ====================

type jsonPlanRepository struct {
	store *JSONStore
}

func (r *jsonPlanRepository) List(ctx context.Context, search string) ([]models.Plan, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	var result []models.Plan
	for _, p := range r.store.data.Plans {
		if search == "" || strings.Contains(strings.ToLower(p.Name), strings.ToLower(search)) {
			result = append(result, p)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Name < result[j].Name
	})

	return result, nil
}

func (r *jsonPlanRepository) GetByID(ctx context.Context, id int64) (*models.Plan, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	for _, p := range r.store.data.Plans {
		if p.ID == id {
			return &p, nil
		}
	}
	return nil, ErrNotFound
}

func (r *jsonPlanRepository) Create(ctx context.Context, p *models.Plan) (*models.Plan, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	p.ID = r.store.data.NextIDs.Plan
	r.store.data.NextIDs.Plan++
	now := time.Now()
	p.CreatedAt = now
	p.UpdatedAt = now

	r.store.data.Plans = append(r.store.data.Plans, *p)

	if err := r.store.saveUnlocked(); err != nil {
		return nil, err
	}

	log.Printf("[JSON] Created plan: id=%d name=%s stops=%d", p.ID, p.Name, len(p.Stops))
	return p, nil
}

func (r *jsonPlanRepository) Update(ctx context.Context, p *models.Plan) (*models.Plan, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	for i, existing := range r.store.data.Plans {
		if existing.ID == p.ID {
			p.CreatedAt = existing.CreatedAt
			p.UpdatedAt = time.Now()
			r.store.data.Plans[i] = *p

			if err := r.store.saveUnlocked(); err != nil {
				return nil, err
			}

			log.Printf("[JSON] Updated plan: id=%d name=%s", p.ID, p.Name)
			return p, nil
		}
	}

	return nil, ErrNotFound
}

func (r *jsonPlanRepository) Delete(ctx context.Context, id int64) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	for i, p := range r.store.data.Plans {
		if p.ID == id {
			r.store.data.Plans = append(r.store.data.Plans[:i], r.store.data.Plans[i+1:]...)

			if err := r.store.saveUnlocked(); err != nil {
				return err
			}

			log.Printf("[JSON] Deleted plan: id=%d", id)
			return nil
		}
	}

	return ErrNotFound
}
