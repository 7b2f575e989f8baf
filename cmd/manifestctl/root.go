package main

import (
	"database/sql"
	"fmt"
	"manifest-service/internal/adapters/repositories"
	"manifest-service/internal/config"
	"manifest-service/internal/platform/db"

	"github.com/spf13/cobra"
)

func newRootCmd(cfg *config.Config) *cobra.Command {
	root := &cobra.Command{
		Use:           "manifestctl",
		Short:         "Administer the manifest service database and invoices",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.PersistentFlags().StringVar(&cfg.DatabaseURL, "database-url", cfg.DatabaseURL,
		"postgres:// URL or SQLite path (env DATABASE_URL)")

	root.AddCommand(
		newMigrateCmd(cfg),
		newSeedCmd(cfg),
		newInvoiceCmd(cfg),
	)
	return root
}

// openDB opens the configured database and applies the schema.
func openDB(cfg *config.Config) (*sql.DB, db.Dialect, error) {
	if cfg.DatabaseURL == "memory" {
		return nil, "", fmt.Errorf("database-url %q is not persistent", cfg.DatabaseURL)
	}
	conn, dialect, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		return nil, "", err
	}
	if err := repositories.InitSchema(conn, dialect); err != nil {
		conn.Close()
		return nil, "", err
	}
	return conn, dialect, nil
}
