package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/JackkySpice/surf.new/internal/logging"
	"github.com/JackkySpice/surf.new/internal/persistence"
)

const credentialMask = "********"

// newShowCmd builds the show subcommand: print the committed configuration
// without starting the UI.
func newShowCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the committed configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(flags)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			log := logging.NewConsole(cfg.LogLevel)

			ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
			defer cancel()

			store, err := persistence.Open(ctx, cfg.DatabasePath)
			if err != nil {
				return fmt.Errorf("opening settings store: %w", err)
			}
			defer store.Close()

			resolved, found, err := store.Load(ctx)
			if err != nil {
				return fmt.Errorf("reading settings: %w", err)
			}
			if !found {
				log.Warn().Str("db", cfg.DatabasePath).Msg("no configuration committed yet")
				return nil
			}

			// Credentials are masked on output; showing them is not this
			// command's job.
			masked := resolved.Clone()
			for provider := range masked.Credentials {
				masked.Credentials[provider] = credentialMask
			}

			out, err := json.MarshalIndent(masked, "", "  ")
			if err != nil {
				return fmt.Errorf("encoding configuration: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return nil
		},
	}
}
