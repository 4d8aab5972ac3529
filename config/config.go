package config

import (
	"os"
	"path/filepath"
	"strconv"
	"sync"
)

// Config holds all application configuration
type Config struct {
	// Server settings
	Port int
	Host string
	Env  string // "development" or "production"

	// ProjectsDir is the root containing per-project session log directories.
	ProjectsDir string

	// ArchiveDir is the global cross-project archive root.
	ArchiveDir string

	// SettingsPath is the location of the user settings document.
	SettingsPath string
}

var (
	cfg  *Config
	once sync.Once
)

// Get returns the global configuration (singleton)
func Get() *Config {
	once.Do(func() {
		cfg = load()
	})
	return cfg
}

// load reads configuration from environment variables
func load() *Config {
	home, _ := os.UserHomeDir()
	jacquesDir := filepath.Join(home, ".jacques")

	return &Config{
		// Server
		Port: getEnvInt("PORT", 12800),
		Host: getEnv("HOST", "0.0.0.0"),
		Env:  getEnv("ENV", "development"),

		// Data roots
		ProjectsDir:  getEnv("JACQUES_DATA_DIR", filepath.Join(home, ".claude", "projects")),
		ArchiveDir:   getEnv("JACQUES_ARCHIVE_DIR", filepath.Join(jacquesDir, "archive")),
		SettingsPath: getEnv("JACQUES_SETTINGS", filepath.Join(jacquesDir, "settings.json")),
	}
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Env != "production"
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}
