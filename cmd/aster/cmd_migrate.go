package main

import (
	"github.com/spf13/cobra"

	"github.com/fariasvn/aw139-diagnostics-platform-sub000/pkg/database"
)

func runMigrate(cmd *cobra.Command, _ []string) error {
	a, err := loadApp()
	if err != nil {
		return err
	}

	db, err := a.openDatabase(cmd.Context())
	if err != nil {
		return err
	}
	defer db.Close()

	a.logger.WithContext(cmd.Context()).Info("Database migrations applied")
	return nil
}

func runMigrateStatus(cmd *cobra.Command, _ []string) error {
	a, err := loadApp()
	if err != nil {
		return err
	}

	db, err := database.Connect(cmd.Context(), a.connectionConfig(), a.logger)
	if err != nil {
		return err
	}
	defer db.Close()

	status, err := a.migrationService().Status(db.DB, a.cfg.DatabaseName)
	if err != nil {
		return err
	}
	return writeOutput(cmd.OutOrStdout(), outputFormat, status)
}
