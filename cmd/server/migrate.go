package main

import (
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/condo-admin/backend/internal/config"
	"github.com/condo-admin/backend/internal/storage"
)

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			db, err := openDatabase(cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			applied, err := storage.RunMigrations(db)
			if err != nil {
				return fmt.Errorf("running migrations: %w", err)
			}
			if len(applied) == 0 {
				log.Println("Database is up to date")
			}
			return nil
		},
	}
	cmd.Flags().String("data", "", "Data directory for the SQLite database")
	return cmd
}

// openDatabase creates the data directory and opens the database in it.
func openDatabase(cfg config.Config) (*storage.DB, error) {
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory %q: %w", cfg.DataDir, err)
	}
	db, err := storage.NewDB(cfg.DatabasePath())
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	return db, nil
}
