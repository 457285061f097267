package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Load reads and merges configuration from global and project paths.
// Order of precedence (highest to lowest): project config, global config,
// defaults. Missing files are not errors; malformed JSON returns an error.
func Load(globalPath, projectPath string) (*AppConfig, error) {
	cfg := DefaultConfig()

	if globalPath != "" {
		if err := mergeConfigFile(cfg, globalPath); err != nil {
			return nil, fmt.Errorf("loading global config: %w", err)
		}
	}

	if projectPath != "" {
		if err := mergeConfigFile(cfg, projectPath); err != nil {
			return nil, fmt.Errorf("loading project config: %w", err)
		}
	}

	return cfg, nil
}

// LoadDefault loads configuration from conventional paths.
// Global: ~/.surf/config.json
// Project: .surf/config.json (relative to cwd)
func LoadDefault() (*AppConfig, error) {
	globalPath, projectPath, err := DefaultPaths()
	if err != nil {
		return nil, err
	}
	return Load(globalPath, projectPath)
}

// DefaultPaths returns the conventional global and project config paths.
func DefaultPaths() (globalPath, projectPath string, err error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(homeDir, ".surf", "config.json"),
		filepath.Join(".surf", "config.json"), nil
}

// mergeConfigFile reads a JSON config file and merges its set fields into
// the base config. Missing files are silently skipped.
func mergeConfigFile(base *AppConfig, path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}

	var loaded AppConfig
	if err := json.Unmarshal(data, &loaded); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}

	// Only set fields override; empty strings in the file leave the lower
	// precedence value in place.
	if loaded.CatalogURL != "" {
		base.CatalogURL = loaded.CatalogURL
	}
	if loaded.CatalogFile != "" {
		base.CatalogFile = loaded.CatalogFile
	}
	if loaded.SessionURL != "" {
		base.SessionURL = loaded.SessionURL
	}
	if loaded.OllamaHost != "" {
		base.OllamaHost = loaded.OllamaHost
	}
	if loaded.DatabasePath != "" {
		base.DatabasePath = loaded.DatabasePath
	}
	if loaded.LocalProvider != "" {
		base.LocalProvider = loaded.LocalProvider
	}
	if loaded.LogFile != "" {
		base.LogFile = loaded.LogFile
	}
	if loaded.LogLevel != "" {
		base.LogLevel = loaded.LogLevel
	}

	return nil
}
