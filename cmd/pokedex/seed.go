package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/jbweber/homelab/pokedex/internal/domain"
)

type seedFlags struct {
	file  string
	reset bool
}

func newSeedCmd() *cobra.Command {
	var flags seedFlags

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load pokemon from a YAML file",
		Long: `Creates every entry of a YAML list of {no, name} records.
Entries that collide with existing pokemon are skipped.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSeed(cmd, flags)
		},
	}

	cmd.Flags().StringVarP(&flags.file, "file", "f", "", "YAML file with the entries to load (required)")
	cmd.Flags().BoolVar(&flags.reset, "reset", false, "Delete every pokemon before loading")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}

// readSeedFile parses a YAML list of entries
func readSeedFile(path string) ([]domain.CreatePokemon, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading seed file: %w", err)
	}
	var entries []domain.CreatePokemon
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parsing seed file: %w", err)
	}
	return entries, nil
}

func runSeed(cmd *cobra.Command, flags seedFlags) error {
	entries, err := readSeedFile(flags.file)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	return withDeps(ctx, func(d *deps) error {
		result, err := d.service.Seed(ctx, entries, flags.reset)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Seeded %d pokemon (%d skipped, %d removed)\n",
			result.Created, result.Skipped, result.Deleted)
		return nil
	})
}
