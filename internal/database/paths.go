package database

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
)

const (
	AppDirName       = ".road-smart-optimizer"
	PlansFileName    = "plans.json"
	CacheDirName     = "cache"
	GeocodeCacheFile = "geocodes.json"
	SQLiteDBFileName = "data.db"
	ConfigFileName   = "config.json"
)

// Storage backends selectable in the config file
const (
	BackendJSON   = "json"
	BackendSQLite = "sqlite"
)

// GetAppDir returns ~/.road-smart-optimizer, creating it if needed
func GetAppDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}

	appDir := filepath.Join(homeDir, AppDirName)
	if err := os.MkdirAll(appDir, 0700); err != nil {
		return "", fmt.Errorf("failed to create app directory: %w", err)
	}

	return appDir, nil
}

// GetPlansFilePath returns ~/.road-smart-optimizer/plans.json
func GetPlansFilePath() (string, error) {
	appDir, err := GetAppDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(appDir, PlansFileName), nil
}

// GetCacheDir returns ~/.road-smart-optimizer/cache, creating it if needed
func GetCacheDir() (string, error) {
	appDir, err := GetAppDir()
	if err != nil {
		return "", err
	}

	cacheDir := filepath.Join(appDir, CacheDirName)
	if err := os.MkdirAll(cacheDir, 0700); err != nil {
		return "", fmt.Errorf("failed to create cache directory: %w", err)
	}

	return cacheDir, nil
}

// GetGeocodeCachePath returns ~/.road-smart-optimizer/cache/geocodes.json
func GetGeocodeCachePath() (string, error) {
	cacheDir, err := GetCacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(cacheDir, GeocodeCacheFile), nil
}

// GetDefaultDBPath returns the default SQLite database path: ~/.road-smart-optimizer/data.db
func GetDefaultDBPath() (string, error) {
	appDir, err := GetAppDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(appDir, SQLiteDBFileName), nil
}

// GetConfigFilePath returns ~/.road-smart-optimizer/config.json
func GetConfigFilePath() (string, error) {
	appDir, err := GetAppDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(appDir, ConfigFileName), nil
}

// AppConfig stores application configuration
type AppConfig struct {
	Backend      string `json:"backend"`
	DatabasePath string `json:"database_path"`
	GoogleAPIKey string `json:"google_api_key,omitempty"`
}

// LoadConfig loads the application config, returning defaults if not found
func LoadConfig() (*AppConfig, error) {
	configPath, err := GetConfigFilePath()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(configPath)
	if os.IsNotExist(err) {
		defaultDBPath, err := GetDefaultDBPath()
		if err != nil {
			return nil, err
		}
		return &AppConfig{Backend: BackendJSON, DatabasePath: defaultDBPath}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config AppConfig
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if config.Backend == "" {
		config.Backend = BackendJSON
	}
	if config.DatabasePath == "" {
		config.DatabasePath, err = GetDefaultDBPath()
		if err != nil {
			return nil, err
		}
	}

	return &config, nil
}

// SaveConfig saves the application config
func SaveConfig(config *AppConfig) error {
	configPath, err := GetConfigFilePath()
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	// Atomic write
	tmpPath := configPath + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	if err := os.Rename(tmpPath, configPath); err != nil {
		return fmt.Errorf("failed to rename config file: %w", err)
	}

	log.Printf("Config saved: backend=%s database_path=%s", config.Backend, config.DatabasePath)
	return nil
}
