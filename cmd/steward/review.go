package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/unneeks/stewardagent/pkg/cli"
	"github.com/unneeks/stewardagent/pkg/config"
	"github.com/unneeks/stewardagent/pkg/review"
)

var reviewFlags struct {
	title  string
	kind   string
	entity string
	diff   string
	out    string
	format string
}

var reviewCmd = &cobra.Command{
	Use:   "review",
	Short: "Review a changeset against lineage and policy",
	Long: `Trace the impact of a code or policy change, run the review heuristics
over the diff and record one pending action per enforcement opportunity.
This is the same operation the review_changeset tool performs.

--diff takes a file path, or "-" to read the diff from stdin.

Examples:
  # Review a model change
  git diff models/gold_fct_approvals.sql | steward review \
      --title "Dedupe approvals" --type code --entity gold_fct_approvals --diff -

  # Review a policy tightening and save the report
  steward review --title "Tighten income" --type policy --entity BT_001 \
      --diff threshold.diff --out review.md`,
	Args: exactArgs(0),
	RunE: runReview,
}

func init() {
	rootCmd.AddCommand(reviewCmd)

	reviewCmd.Flags().StringVar(&reviewFlags.title, "title", "", "changeset title (required)")
	reviewCmd.Flags().StringVar(&reviewFlags.kind, "type", "", "changeset type: code or policy (required)")
	reviewCmd.Flags().StringVar(&reviewFlags.entity, "entity", "", "changed model name or business term (required)")
	reviewCmd.Flags().StringVar(&reviewFlags.diff, "diff", "", `diff file, or "-" for stdin`)
	reviewCmd.Flags().StringVarP(&reviewFlags.out, "out", "o", "", "write the report to this file")
	reviewCmd.Flags().StringVarP(&reviewFlags.format, "format", "f", "text", "output format (text, json)")
}

func runReview(cmd *cobra.Command, args []string) error {
	format, err := cli.ParseFormat(reviewFlags.format)
	if err != nil {
		return err
	}
	if format == cli.FormatCSV {
		return cli.NewConfigError("format", "review supports text or json")
	}

	diff, err := readDiff(cmd.InOrStdin(), reviewFlags.diff)
	if err != nil {
		return cli.NewConfigError("diff", err.Error())
	}

	req := &review.Request{
		Title:  reviewFlags.title,
		Type:   review.ChangesetType(reviewFlags.kind),
		Entity: reviewFlags.entity,
		Diff:   diff,
	}
	// Reject bad input before touching the store.
	if err := req.Validate(); err != nil {
		return err
	}

	a, err := newApp(config.MustGetConfig(), nil)
	if err != nil {
		return cli.NewCommandError("review", err)
	}
	defer a.Close()

	res, err := a.reviewer().Review(cmd.Context(), req)
	if err != nil {
		return cli.NewCommandError("review", err)
	}

	if reviewFlags.out != "" {
		if err := os.WriteFile(reviewFlags.out, []byte(res.Report), 0o644); err != nil {
			return cli.NewCommandError("review", err)
		}
	}

	out := cmd.OutOrStdout()
	if format == cli.FormatJSON {
		return cli.NewFormatter(format).FormatTo(out, res)
	}
	fmt.Fprintln(out, res.Report)
	if reviewFlags.out != "" {
		fmt.Fprintf(out, "✓ Report written to %s\n", reviewFlags.out)
	}
	return nil
}

func readDiff(stdin io.Reader, path string) (string, error) {
	switch path {
	case "":
		return "", nil
	case "-":
		data, err := io.ReadAll(stdin)
		return string(data), err
	default:
		data, err := os.ReadFile(path)
		return string(data), err
	}
}
