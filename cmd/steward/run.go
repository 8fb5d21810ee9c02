package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/unneeks/stewardagent/pkg/cli"
	"github.com/unneeks/stewardagent/pkg/config"
	"github.com/unneeks/stewardagent/pkg/investigation"
)

var runFlags struct {
	simulateScores bool
	seed           uint64
	format         string
}

var runCmd = &cobra.Command{
	Use:   "run <day>",
	Short: "Run one investigation cycle",
	Long: `Run the daily cycle for base_date + <day>.

The cycle first verifies applied remediations against the day's scores, then
investigates the riskiest breach and proposes a remediation. Scores for the
day must already be loaded unless --simulate-scores is given.

Examples:
  # Investigate day 1 with simulated scores
  steward run 1 --simulate-scores

  # Print the cycle result as JSON (the trace goes to stderr)
  steward run 2 --format json`,
	Args: exactArgs(1),
	RunE: runCycle,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().BoolVar(&runFlags.simulateScores, "simulate-scores", false, "generate the day's scores before the cycle")
	runCmd.Flags().Uint64Var(&runFlags.seed, "seed", 0, "simulator seed (default simulation.seed)")
	runCmd.Flags().StringVarP(&runFlags.format, "format", "f", "text", "output format (text, json)")
}

func runCycle(cmd *cobra.Command, args []string) error {
	day, err := parseDay(args[0])
	if err != nil {
		return err
	}
	format, err := cli.ParseFormat(runFlags.format)
	if err != nil {
		return err
	}
	if format == cli.FormatCSV {
		return cli.NewConfigError("format", "run supports text or json")
	}

	// Keep stdout clean for machine-readable output.
	var console io.Writer = cmd.OutOrStdout()
	if format != cli.FormatText {
		console = cmd.ErrOrStderr()
	}

	a, err := newApp(config.MustGetConfig(), console)
	if err != nil {
		return cli.NewCommandError("run", err)
	}
	defer a.Close()

	date, err := a.dateFor(day)
	if err != nil {
		return cli.NewConfigError("cycle.base_date", err.Error())
	}

	ctx, stop := cli.SetupSignalHandler(cmd.Context())
	defer stop()

	if runFlags.simulateScores {
		if _, err := a.simulator(runFlags.seed).Generate(ctx, date); err != nil {
			return cli.NewCommandError("run", err)
		}
	}

	res, err := a.orchestrator.RunCycle(ctx, date)
	if err != nil {
		return cli.NewCommandError("run", err)
	}

	if format != cli.FormatText {
		return cli.NewFormatter(format).FormatTo(cmd.OutOrStdout(), res)
	}
	printCycleSummary(cmd.OutOrStdout(), res)
	return nil
}

// printCycleSummary writes a short human summary of a cycle.
func printCycleSummary(w io.Writer, res *investigation.CycleResult) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, cli.Heading(fmt.Sprintf("Cycle %s: %s", res.Date, res.Outcome)))
	for _, o := range res.Outcomes {
		verdict := "not improved"
		if o.Improved {
			verdict = "improved"
		}
		fmt.Fprintf(w, "  outcome  %s on %s: %.4f -> %.4f (%s)\n", o.ActionID, o.TDEID, o.ScoreBefore, o.ScoreAfter, verdict)
	}
	for _, id := range res.Deferred {
		fmt.Fprintf(w, "  deferred %s (score missing)\n", id)
	}
	fmt.Fprintf(w, "  breaches %d\n", len(res.Breaches))
	if res.Focus != nil {
		fmt.Fprintf(w, "  focus    %s (risk %.4f)\n", res.Focus.Observation.TDE.ID, res.Focus.Risk)
	}
	if res.Remediation != nil {
		fmt.Fprintf(w, "  proposal %s\n", res.Remediation.Suggestion)
	}
	if res.ActionID != "" {
		fmt.Fprintf(w, "  action   %s\n", res.ActionID)
	}
}
