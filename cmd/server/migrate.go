package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"treasury/internal/platform/config"
	"treasury/internal/platform/postgres"
)

func init() {
	rootCmd.AddCommand(migrateCmd)
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database migrations",
	Args:  cobra.NoArgs,
	RunE:  runMigrate,
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if cfg.Storage.Driver != config.StoragePostgres {
		return errors.New("migrate requires TREASURY_STORAGE=postgres")
	}

	ctx := cmd.Context()
	db, err := postgres.Open(ctx, cfg.Storage.DatabaseURL, 1)
	if err != nil {
		return err
	}
	defer db.Close()

	applied, err := postgres.Migrate(ctx, db)
	for _, v := range applied {
		fmt.Fprintf(cmd.OutOrStdout(), "applied %05d\n", v)
	}
	if err != nil {
		return err
	}
	version, err := postgres.SchemaVersion(ctx, db)
	if err != nil {
		return err
	}
	if len(applied) == 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "schema is up to date at version %05d\n", version)
		return nil
	}
	fmt.Fprintf(cmd.OutOrStdout(), "schema now at version %05d\n", version)
	return nil
}
