package main

import (
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create indexes and tables, then exit",
	Long: `Prepare the account store:
- MongoDB: unique index on users.email
- Postgres (when DATABASE_URL is set): users table`,
	RunE: runMigrate,
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}
	defer log.Sync()

	store, err := openStorage(cmd.Context(), cfg, log)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.migrate(cmd.Context()); err != nil {
		log.Error("migration failed", "error", err)
		return err
	}
	log.Info("migration complete")
	return nil
}
