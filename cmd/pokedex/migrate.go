package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jbweber/homelab/pokedex/internal/config"
	"github.com/jbweber/homelab/pokedex/internal/migrations"
)

type migrateFlags struct {
	down bool
}

func newMigrateCmd() *cobra.Command {
	var flags migrateFlags

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or revert schema migrations",
		Long:  "Applies every pending migration to the configured SQL database, or reverts the latest one with --down.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigrate(cmd, flags)
		},
	}

	cmd.Flags().BoolVar(&flags.down, "down", false, "Revert the most recently applied migration")

	return cmd
}

func runMigrate(cmd *cobra.Command, flags migrateFlags) error {
	ctx := cmd.Context()

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if cfg.Database.Driver == config.DriverMemory {
		return fmt.Errorf("the %s driver has no schema to migrate", config.DriverMemory)
	}

	ds, err := cfg.OpenDatabase(ctx)
	if err != nil {
		return err
	}
	defer ds.Close()

	migrator := migrations.ForDatastore(ds)
	out := cmd.OutOrStdout()

	if flags.down {
		version, err := migrator.Rollback(ctx)
		if err != nil {
			return err
		}
		if version == 0 {
			fmt.Fprintln(out, "Nothing to revert")
			return nil
		}
		fmt.Fprintf(out, "Reverted migration %d\n", version)
		return nil
	}

	applied, err := migrator.RunMigrations(ctx)
	if err != nil {
		return err
	}
	version, err := migrator.GetCurrentVersion(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Applied %d migration(s); schema at version %d\n", applied, version)
	return nil
}
