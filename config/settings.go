package config

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// DefaultPlansDir is used whenever the settings document is missing or
// unreadable. Relative to the user's home directory.
const DefaultPlansDir = ".jacques/plans"

// UserSettings is the optional settings document consumed by extraction.
// Only the fields jacques cares about are modeled; unknown fields are ignored.
type UserSettings struct {
	// PlansDir is the directory where the user keeps implementation plans.
	// Write tool calls targeting paths under it are treated as plan writes.
	PlansDir string `json:"plansDir,omitempty"`
}

// LoadUserSettings reads the settings document at path. A missing or corrupt
// document is not an error: defaults are returned silently so extraction is
// never blocked by settings damage.
func LoadUserSettings(path string) UserSettings {
	settings := defaultSettings()

	data, err := os.ReadFile(path)
	if err != nil {
		return settings
	}

	var parsed UserSettings
	if err := json.Unmarshal(data, &parsed); err != nil {
		return settings
	}

	if parsed.PlansDir != "" {
		settings.PlansDir = parsed.PlansDir
	}
	return settings
}

func defaultSettings() UserSettings {
	home, _ := os.UserHomeDir()
	return UserSettings{
		PlansDir: filepath.Join(home, filepath.FromSlash(DefaultPlansDir)),
	}
}
