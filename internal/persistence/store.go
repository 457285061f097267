package persistence

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/JackkySpice/surf.new/internal/engine"
)

// settingsKey is the single logical key holding the active configuration.
// The settings store has no partial-field API: the whole Resolved
// configuration is one opaque unit.
const settingsKey = "resolved_config"

// SettingsStore implements engine.SettingsStore on SQLite. Each Save
// replaces the configuration in one transaction and stamps a fresh
// revision id.
type SettingsStore struct {
	db *sql.DB
}

var _ engine.SettingsStore = (*SettingsStore)(nil)

// Open creates a SQLite-backed settings store at dbPath, creating parent
// directories if needed. Enables WAL mode and a busy timeout.
func Open(ctx context.Context, dbPath string) (*SettingsStore, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating settings directory: %w", err)
	}

	connStr := fmt.Sprintf("file:%s?_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL", dbPath)
	db, err := sql.Open("sqlite", connStr)
	if err != nil {
		return nil, fmt.Errorf("opening settings database: %w", err)
	}

	store := &SettingsStore{db: db}
	if err := store.initSchema(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing settings schema: %w", err)
	}
	return store, nil
}

// OpenMemory creates an in-memory settings store for testing.
func OpenMemory(ctx context.Context) (*SettingsStore, error) {
	// A unique shared-cache name isolates each store while letting pooled
	// connections see the same in-memory database.
	connStr := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := sql.Open("sqlite", connStr)
	if err != nil {
		return nil, fmt.Errorf("opening memory database: %w", err)
	}
	db.SetMaxOpenConns(1)

	store := &SettingsStore{db: db}
	if err := store.initSchema(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing settings schema: %w", err)
	}
	return store, nil
}

func (s *SettingsStore) initSchema(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS settings (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		revision TEXT NOT NULL,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	`
	_, err := s.db.ExecContext(ctx, schema)
	return err
}

// Load returns the stored configuration, or ok=false when none has been
// committed yet.
func (s *SettingsStore) Load(ctx context.Context) (*engine.Resolved, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM settings WHERE key = ?`, settingsKey).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("reading settings: %w", err)
	}

	var cfg engine.Resolved
	if err := json.Unmarshal([]byte(value), &cfg); err != nil {
		return nil, false, fmt.Errorf("decoding stored configuration: %w", err)
	}
	return &cfg, true, nil
}

// Save writes the full configuration as one atomic unit and returns the new
// revision id.
func (s *SettingsStore) Save(ctx context.Context, cfg engine.Resolved) (string, error) {
	data, err := json.Marshal(cfg)
	if err != nil {
		return "", fmt.Errorf("encoding configuration: %w", err)
	}
	revision := uuid.NewString()

	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return "", fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO settings (key, value, revision, updated_at)
		VALUES (?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET
			value = excluded.value,
			revision = excluded.revision,
			updated_at = CURRENT_TIMESTAMP
	`, settingsKey, string(data), revision)
	if err != nil {
		return "", fmt.Errorf("writing settings: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("committing settings write: %w", err)
	}
	return revision, nil
}

// Revision returns the revision id of the stored configuration.
func (s *SettingsStore) Revision(ctx context.Context) (string, error) {
	var revision string
	err := s.db.QueryRowContext(ctx,
		`SELECT revision FROM settings WHERE key = ?`, settingsKey).Scan(&revision)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("reading revision: %w", err)
	}
	return revision, nil
}

// Close closes the database connection.
func (s *SettingsStore) Close() error {
	return s.db.Close()
}
