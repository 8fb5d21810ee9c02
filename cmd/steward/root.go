package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/unneeks/stewardagent/pkg/cli"
	"github.com/unneeks/stewardagent/pkg/config"
	"github.com/unneeks/stewardagent/pkg/telemetry/logging"
)

var (
	// Global flags
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "steward",
	Short: "Steward - data-quality governance agent",
	Long: `Steward watches daily data-quality scores, investigates the riskiest rule
breach, and proposes remediations to the transformations behind it.

Every step of an investigation is recorded as an immutable event that can be
played back through the read API.`,
	Version:           Version,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: loadConfig,
}

// Execute runs the root command and exits with a status derived from the
// error: 2 for usage and configuration problems, 1 for runtime failures.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.ExitCode(err))
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", config.DefaultConfigPath, "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	rootCmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return cli.NewConfigError("flags", err.Error())
	})
}

// loadConfig loads the configuration (a missing file means defaults),
// installs it as the global config and sets up logging.
func loadConfig(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadDefault(cfgFile)
	if err != nil {
		return cli.NewConfigError(cfgFile, err.Error())
	}
	if verbose {
		cfg.Telemetry.Logging.Level = "debug"
	}

	if _, err := logging.Setup(logging.Config{
		Level:         cfg.Telemetry.Logging.Level,
		Format:        cfg.Telemetry.Logging.Format,
		AddSource:     cfg.Telemetry.Logging.AddSource,
		RedactSecrets: cfg.Telemetry.Logging.RedactSecrets,
		Writer:        cmd.ErrOrStderr(),
	}); err != nil {
		return cli.NewConfigError("telemetry.logging", err.Error())
	}

	config.SetConfig(cfg)
	return nil
}

// exactArgs is cobra.ExactArgs reporting a usage error.
func exactArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if len(args) != n {
			return cli.NewConfigError("args", fmt.Sprintf("accepts %d arg(s), received %d", n, len(args)))
		}
		return nil
	}
}

// parseDay parses a non-negative day offset.
func parseDay(s string) (int, error) {
	day, err := strconv.Atoi(s)
	if err != nil || day < 0 {
		return 0, cli.NewConfigError("day", fmt.Sprintf("must be a non-negative integer, got %q", s))
	}
	return day, nil
}
