package config

// AppConfig is the application-level configuration: where the external
// collaborators live and how the app itself behaves. The session
// configuration the user edits at runtime is separate (see engine.Resolved)
// and lives in the settings store.
type AppConfig struct {
	// CatalogURL is the agent catalog endpoint (the backend's /api/agents).
	CatalogURL string `json:"catalog_url,omitempty"`
	// CatalogFile is a local catalog file used instead of CatalogURL when set.
	CatalogFile string `json:"catalog_file,omitempty"`
	// SessionURL is the chat backend base URL for session reset calls.
	SessionURL string `json:"session_url,omitempty"`
	// OllamaHost is the local model runtime address.
	OllamaHost string `json:"ollama_host,omitempty"`
	// DatabasePath is the SQLite settings store location.
	DatabasePath string `json:"database_path,omitempty"`
	// LocalProvider overrides the provider id treated as the local runtime.
	LocalProvider string `json:"local_provider,omitempty"`
	// LogFile is where structured logs go (the TUI owns the terminal).
	LogFile string `json:"log_file,omitempty"`
	// LogLevel is one of trace, debug, info, warn, error, silent.
	LogLevel string `json:"log_level,omitempty"`
}
