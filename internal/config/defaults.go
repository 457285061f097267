package config

import (
	"os"
	"path/filepath"
)

// DefaultConfig returns the built-in application configuration. Paths are
// rooted under ~/.surf; endpoints assume a local development backend and a
// local Ollama runtime.
func DefaultConfig() *AppConfig {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	base := filepath.Join(home, ".surf")

	return &AppConfig{
		CatalogURL:    "http://localhost:8000/api/agents",
		SessionURL:    "http://localhost:8000",
		OllamaHost:    "http://localhost:11434",
		DatabasePath:  filepath.Join(base, "settings.db"),
		LocalProvider: "ollama",
		LogFile:       filepath.Join(base, "surf.log"),
		LogLevel:      "info",
	}
}
