package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/JackkySpice/surf.new/internal/catalog"
	"github.com/JackkySpice/surf.new/internal/config"
	"github.com/JackkySpice/surf.new/internal/engine"
	"github.com/JackkySpice/surf.new/internal/events"
	"github.com/JackkySpice/surf.new/internal/logging"
	"github.com/JackkySpice/surf.new/internal/ollama"
	"github.com/JackkySpice/surf.new/internal/persistence"
	"github.com/JackkySpice/surf.new/internal/session"
	"github.com/JackkySpice/surf.new/internal/tui"
)

const startupTimeout = 60 * time.Second

type rootFlags struct {
	configPath  string
	logLevel    string
	catalogURL  string
	catalogFile string
	ollamaHost  string
	dbPath      string
	sessionID   string
}

// NewRootCmd builds the surf command.
func NewRootCmd() *cobra.Command {
	flags := &rootFlags{}

	cmd := &cobra.Command{
		Use:   "surf",
		Short: "Configure the surf agent, provider, and model",
		Long: "surf walks through agent, provider, and model selection, tunes their\n" +
			"parameters, and commits the resolved configuration for the session.",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), flags)
		},
	}

	cmd.PersistentFlags().StringVar(&flags.configPath, "config", "", "path to a config file (overrides default lookup)")
	cmd.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "log level: debug, info, warn, error")
	cmd.PersistentFlags().StringVar(&flags.catalogURL, "catalog", "", "agent catalog endpoint URL")
	cmd.PersistentFlags().StringVar(&flags.catalogFile, "catalog-file", "", "load the agent catalog from a local file")
	cmd.PersistentFlags().StringVar(&flags.ollamaHost, "ollama-host", "", "ollama host for local model discovery")
	cmd.PersistentFlags().StringVar(&flags.dbPath, "db", "", "path to the settings database")
	cmd.Flags().StringVar(&flags.sessionID, "session", "default", "session to reset on commit")

	cmd.AddCommand(newShowCmd(flags))

	return cmd
}

// Execute runs the root command with signal-aware cancellation.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := NewRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "surf:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, flags *rootFlags) error {
	cfg, err := loadConfig(flags)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	log, logCloser, err := logging.NewFile(cfg.LogFile, cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("opening log file: %w", err)
	}
	defer logCloser.Close()
	log.Info().Str("catalog", cfg.CatalogURL).Str("db", cfg.DatabasePath).Msg("starting")

	startCtx, cancel := context.WithTimeout(ctx, startupTimeout)
	defer cancel()

	cat, err := loadCatalog(startCtx, cfg)
	if err != nil {
		// No catalog means nothing to select from; the session cannot be
		// configured, so this is fatal.
		return fmt.Errorf("loading agent catalog: %w", err)
	}

	store, err := persistence.Open(startCtx, cfg.DatabasePath)
	if err != nil {
		return fmt.Errorf("opening settings store: %w", err)
	}
	defer store.Close()

	bus := events.NewBus()
	defer bus.Close()

	eng := engine.New(cat, bus, log, engine.WithLocalProvider(cfg.LocalProvider))
	persisted, _, err := store.Load(startCtx)
	if err != nil {
		log.Warn().Err(err).Msg("persisted settings unreadable, seeding defaults")
		persisted = nil
	}
	eng.Seed(persisted)

	resetter := session.NewClient(cfg.SessionURL, flags.sessionID, nil)
	gate := engine.NewGate(store, resetter, bus, log)
	oc := ollama.NewClient(cfg.OllamaHost, nil)

	program := tea.NewProgram(
		tui.NewModel(eng, gate, bus, oc, log),
		tea.WithAltScreen(),
		tea.WithContext(ctx),
	)
	if _, err := program.Run(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("running ui: %w", err)
	}

	log.Info().Msg("shutting down")
	return nil
}

// loadConfig resolves the effective config: files first, then flag
// overrides.
func loadConfig(flags *rootFlags) (*config.AppConfig, error) {
	var cfg *config.AppConfig
	var err error
	if flags.configPath != "" {
		cfg, err = config.Load(flags.configPath, "")
	} else {
		cfg, err = config.LoadDefault()
	}
	if err != nil {
		return nil, err
	}

	if flags.logLevel != "" {
		cfg.LogLevel = flags.logLevel
	}
	if flags.catalogURL != "" {
		cfg.CatalogURL = flags.catalogURL
	}
	if flags.catalogFile != "" {
		cfg.CatalogFile = flags.catalogFile
	}
	if flags.ollamaHost != "" {
		cfg.OllamaHost = flags.ollamaHost
	}
	if flags.dbPath != "" {
		cfg.DatabasePath = flags.dbPath
	}
	return cfg, nil
}

// loadCatalog prefers a local catalog file when configured, otherwise
// fetches from the catalog endpoint with retries.
func loadCatalog(ctx context.Context, cfg *config.AppConfig) (*catalog.Catalog, error) {
	if cfg.CatalogFile != "" {
		return catalog.LoadFile(cfg.CatalogFile)
	}
	return catalog.NewClient(cfg.CatalogURL, nil).Fetch(ctx)
}
