package database

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strings"
	"sync"

	"road-smart-optimizer/internal/models"
)

// FileGeocodeCacheData represents the structure of the cache file
type FileGeocodeCacheData struct {
	Entries []models.GeocodeCacheEntry `json:"entries"`
}

// FileGeocodeCache is a file-based implementation of GeocodeCacheRepository.
// Lookups go through an in-memory index keyed by the normalized query.
type FileGeocodeCache struct {
	filePath string
	data     *FileGeocodeCacheData
	index    map[string]int // maps normalized query to index in Entries slice
	mu       sync.RWMutex
}

// NewFileGeocodeCache creates a file-based geocode cache at the given path
func NewFileGeocodeCache(filePath string) (*FileGeocodeCache, error) {
	log.Printf("[GEOCODING] Using geocode cache file: %s", filePath)

	cache := &FileGeocodeCache{
		filePath: filePath,
		data:     &FileGeocodeCacheData{Entries: []models.GeocodeCacheEntry{}},
		index:    make(map[string]int),
	}

	if err := cache.load(); err != nil {
		return nil, err
	}

	return cache, nil
}

func (c *FileGeocodeCache) load() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	data, err := os.ReadFile(c.filePath)
	if os.IsNotExist(err) {
		c.data = &FileGeocodeCacheData{Entries: []models.GeocodeCacheEntry{}}
		return c.saveUnlocked()
	}
	if err != nil {
		return fmt.Errorf("failed to read cache file: %w", err)
	}

	if err := json.Unmarshal(data, c.data); err != nil {
		return fmt.Errorf("failed to parse cache file: %w", err)
	}

	if c.data.Entries == nil {
		c.data.Entries = []models.GeocodeCacheEntry{}
	}

	c.rebuildIndex()

	log.Printf("[GEOCODING] Loaded geocode cache: %d entries", len(c.data.Entries))
	return nil
}

func (c *FileGeocodeCache) saveUnlocked() error {
	data, err := json.MarshalIndent(c.data, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal cache data: %w", err)
	}

	tmpFile := c.filePath + ".tmp"
	if err := os.WriteFile(tmpFile, data, 0600); err != nil {
		return fmt.Errorf("failed to write temp cache file: %w", err)
	}

	if err := os.Rename(tmpFile, c.filePath); err != nil {
		return fmt.Errorf("failed to rename temp cache file: %w", err)
	}

	return nil
}

func (c *FileGeocodeCache) Get(ctx context.Context, query string) (*models.GeocodeCacheEntry, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if idx, ok := c.index[NormalizeQuery(query)]; ok {
		// Return a copy to prevent callers from modifying cache data without locks
		entryCopy := c.data.Entries[idx]
		return &entryCopy, nil
	}
	return nil, nil
}

func (c *FileGeocodeCache) Set(ctx context.Context, entry *models.GeocodeCacheEntry) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := NormalizeQuery(entry.Query)

	if idx, ok := c.index[key]; ok {
		// Update existing entry in place
		c.data.Entries[idx] = *entry
		return c.saveUnlocked()
	}

	c.data.Entries = append(c.data.Entries, *entry)
	c.index[key] = len(c.data.Entries) - 1
	return c.saveUnlocked()
}

func (c *FileGeocodeCache) Clear(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.data.Entries = []models.GeocodeCacheEntry{}
	c.index = make(map[string]int)
	return c.saveUnlocked()
}

// NormalizeQuery collapses case and surrounding whitespace so that lookups
// for the same address text hit the same cache entry
func NormalizeQuery(query string) string {
	return strings.ToLower(strings.Join(strings.Fields(query), " "))
}

// rebuildIndex creates the index map from the current entries slice.
// Must be called with the mutex already held.
func (c *FileGeocodeCache) rebuildIndex() {
	c.index = make(map[string]int)
	for i := range c.data.Entries {
		c.index[NormalizeQuery(c.data.Entries[i].Query)] = i
	}
}
