package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"local-marketplace/internal/config"
	"local-marketplace/internal/store"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the marketplace schema and collection tables if they do not exist",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("error loading configuration: %w", err)
		}
		db, err := openDB(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer db.Close()

		applied, err := store.Migrate(cmd.Context(), db)
		if err != nil {
			return err
		}
		logger.Info("migrations applied", zap.Strings("collections", applied))
		return nil
	},
}
