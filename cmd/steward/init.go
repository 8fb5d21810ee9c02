package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/unneeks/stewardagent/pkg/cli"
	"github.com/unneeks/stewardagent/pkg/config"
	"github.com/unneeks/stewardagent/pkg/seed"
)

var initFlags struct {
	seedFile       string
	reset          bool
	writeArtifacts bool
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the schema and load reference data",
	Long: `Create the database schema and load business terms, rules, tracked data
elements, lineage and artifact sources.

Without --seed the built-in dataset is loaded (or cycle.seed_file when set).
Loading is idempotent; --reset drops every table first, including events and
pending actions.

Examples:
  # Load the built-in dataset
  steward init

  # Start over from a custom dataset
  steward init --seed reference.yaml --reset

  # Also write artifact SQL files into cycle.artifact_dir
  steward init --write-artifacts`,
	Args: exactArgs(0),
	RunE: runInit,
}

func init() {
	rootCmd.AddCommand(initCmd)

	initCmd.Flags().StringVar(&initFlags.seedFile, "seed", "", "YAML dataset to load instead of the built-in one")
	initCmd.Flags().BoolVar(&initFlags.reset, "reset", false, "drop all data before loading")
	initCmd.Flags().BoolVar(&initFlags.writeArtifacts, "write-artifacts", false, "write <model>.sql files into cycle.artifact_dir")
}

func runInit(cmd *cobra.Command, args []string) error {
	cfg := config.MustGetConfig()
	out := cmd.OutOrStdout()

	path := initFlags.seedFile
	if path == "" {
		path = cfg.Cycle.SeedFile
	}
	dataset := seed.Default()
	if path != "" {
		var err error
		if dataset, err = seed.LoadFile(path); err != nil {
			return cli.NewConfigError("seed", err.Error())
		}
	}

	a, err := newApp(cfg, nil)
	if err != nil {
		return cli.NewCommandError("init", err)
	}
	defer a.Close()

	ctx := cmd.Context()
	if initFlags.reset {
		if err := a.store.Reset(ctx); err != nil {
			return cli.NewCommandError("init", err)
		}
		fmt.Fprintln(out, "✓ Existing data dropped")
	}

	if err := dataset.Apply(ctx, a.store); err != nil {
		return cli.NewCommandError("init", err)
	}
	fmt.Fprintf(out, "✓ Reference data loaded (%d terms, %d rules, %d tracked elements, %d lineage mappings, %d artifacts)\n",
		len(dataset.Terms), len(dataset.Rules), len(dataset.TDEs), len(dataset.Lineage), len(dataset.Artifacts))

	if initFlags.writeArtifacts {
		if cfg.Cycle.ArtifactDir == "" {
			return cli.NewConfigError("cycle.artifact_dir", "is required with --write-artifacts")
		}
		if err := dataset.WriteArtifacts(cfg.Cycle.ArtifactDir); err != nil {
			return cli.NewCommandError("init", err)
		}
		fmt.Fprintf(out, "✓ Artifacts written to %s\n", cfg.Cycle.ArtifactDir)
	}
	return nil
}
