package commands

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"backoffice-mcp/internal/config"
	"backoffice-mcp/internal/ledger"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the ledger tables of a SQL ledger",
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.LedgerSource != config.SourcePostgres && cfg.LedgerSource != config.SourceSQLite {
			return fmt.Errorf("migrate needs LEDGER_SOURCE=postgres or sqlite, got %q", cfg.LedgerSource)
		}

		store, err := ledger.OpenSQL(cfg.SQLConfig())
		if err != nil {
			return err
		}
		defer store.Close()

		if err := store.Migrate(); err != nil {
			return err
		}
		log.Info().Str("driver", cfg.LedgerSource).Msg("Ledger schema is up to date")
		return nil
	},
}
