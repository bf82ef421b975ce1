package main

import (
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"portfolio/internal/repository"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := repository.OpenWithRetry(cmd.Context(), cfg.DatabaseURL, logger, 3, 2*time.Second)
		if err != nil {
			return err
		}
		if sqlDB, err := db.DB(); err == nil {
			defer sqlDB.Close()
		}
		logger.Info("schema up to date", zap.String("database", cfg.DatabaseURL))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
