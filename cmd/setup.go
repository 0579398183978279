package main

import (
	"context"
	"fmt"
	"os"

	"github.com/tvkeep/tvkeep/internal/formatter"
	"github.com/tvkeep/tvkeep/internal/shared"
	"github.com/tvkeep/tvkeep/internal/store"
	"github.com/urfave/cli/v3"
)

// Setup initializes the database: creates a config file if needed, applies
// migrations and loads the template from the seed document.
func (r *Runner) Setup(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		r.logger.Info("config file not found, creating from template", "path", configPath)
		if err := shared.CreateConfigFile(configPath); err != nil {
			r.logger.Warn("failed to create config file, using defaults", "error", err)
		}
	}
	r.configure(cmd)

	if cmd.Bool("rollback") {
		db, err := shared.NewDatabase(r.config.Database.Path)
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer db.Close()

		r.logger.Info("rolling back most recent migration")
		if err := store.RollbackMigration(db); err != nil {
			return fmt.Errorf("failed to rollback migration: %w", err)
		}
		return r.writePlainln(formatter.OK("Rollback complete for database: %s", r.config.Database.Path))
	}

	r.logger.Info("initializing database", "path", r.config.Database.Path)
	if err := r.store.Setup(); err != nil {
		return fmt.Errorf("setup failed: %w", err)
	}

	return r.writePlainln(formatter.OK("Setup complete for database: %s", r.config.Database.Path))
}
