package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, dir, name string, cfg *AppConfig) string {
	t.Helper()
	data, err := json.Marshal(cfg)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	return path
}

func TestLoad(t *testing.T) {
	tests := []struct {
		name          string
		global        *AppConfig
		project       *AppConfig
		wantCatalog   string
		wantOllama    string
		wantLogLevel  string
		expectDefault bool
	}{
		{
			name:          "no config files returns defaults",
			expectDefault: true,
		},
		{
			name:         "global only overrides one field",
			global:       &AppConfig{OllamaHost: "http://gpu-box:11434"},
			wantOllama:   "http://gpu-box:11434",
			wantCatalog:  DefaultConfig().CatalogURL,
			wantLogLevel: DefaultConfig().LogLevel,
		},
		{
			name:         "project overrides global",
			global:       &AppConfig{CatalogURL: "http://staging:8000/api/agents", LogLevel: "debug"},
			project:      &AppConfig{CatalogURL: "http://localhost:9999/api/agents"},
			wantCatalog:  "http://localhost:9999/api/agents",
			wantOllama:   DefaultConfig().OllamaHost,
			wantLogLevel: "debug",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			var globalPath, projectPath string
			if tt.global != nil {
				globalPath = writeConfig(t, dir, "global.json", tt.global)
			}
			if tt.project != nil {
				projectPath = writeConfig(t, dir, "project.json", tt.project)
			}

			cfg, err := Load(globalPath, projectPath)
			if err != nil {
				t.Fatalf("load: %v", err)
			}

			if tt.expectDefault {
				if cfg.CatalogURL != DefaultConfig().CatalogURL {
					t.Errorf("catalog = %q, want default", cfg.CatalogURL)
				}
				return
			}
			if cfg.CatalogURL != tt.wantCatalog {
				t.Errorf("catalog = %q, want %q", cfg.CatalogURL, tt.wantCatalog)
			}
			if cfg.OllamaHost != tt.wantOllama {
				t.Errorf("ollama host = %q, want %q", cfg.OllamaHost, tt.wantOllama)
			}
			if cfg.LogLevel != tt.wantLogLevel {
				t.Errorf("log level = %q, want %q", cfg.LogLevel, tt.wantLogLevel)
			}
		})
	}
}

func TestLoadMissingFilesAreNotErrors(t *testing.T) {
	cfg, err := Load("/nonexistent/global.json", "/nonexistent/project.json")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.DatabasePath == "" {
		t.Error("defaults not applied")
	}
}

func TestLoadMalformedJSON(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.json")
	if err := os.WriteFile(path, []byte(`{"catalog_url": `), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}

	if _, err := Load(path, ""); err == nil {
		t.Error("expected error for malformed JSON")
	}
}

func TestSaveRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "deep", "nested", "config.json")

	want := DefaultConfig()
	want.OllamaHost = "http://example:11434"

	if err := Save(want, path); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := Load(path, "")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.OllamaHost != want.OllamaHost {
		t.Errorf("ollama host = %q, want %q", got.OllamaHost, want.OllamaHost)
	}
}
