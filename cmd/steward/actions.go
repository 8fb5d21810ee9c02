package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/unneeks/stewardagent/pkg/cli"
	"github.com/unneeks/stewardagent/pkg/config"
	"github.com/unneeks/stewardagent/pkg/governance"
)

var actionsFlags struct {
	status string
	format string
}

var actionsCmd = &cobra.Command{
	Use:   "actions",
	Short: "List and apply pending remediation actions",
	Long: `Pending actions are remediation proposals awaiting an engineer. Marking one
applied tells the next cycle to verify it against the tracked element's score.

Examples:
  # Open proposals
  steward actions list --status open

  # Signal that a proposal was merged
  steward actions apply 7d0c1f9e-...`,
}

var actionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List pending actions",
	Args:  exactArgs(0),
	RunE:  runActionsList,
}

var actionsApplyCmd = &cobra.Command{
	Use:   "apply <action-id>",
	Short: "Mark an action applied",
	Args:  exactArgs(1),
	RunE:  runActionsApply,
}

func init() {
	rootCmd.AddCommand(actionsCmd)
	actionsCmd.AddCommand(actionsListCmd)
	actionsCmd.AddCommand(actionsApplyCmd)

	actionsListCmd.Flags().StringVar(&actionsFlags.status, "status", "", "filter by status (open, applied)")
	actionsListCmd.Flags().StringVarP(&actionsFlags.format, "format", "f", "text", "output format (text, json, csv)")
}

// actionTable renders actions as rows.
type actionTable []*governance.PendingAction

func (t actionTable) Header() []string {
	return []string{"ACTION_ID", "TDE", "MODEL", "STATUS", "CREATED", "SUGGESTION"}
}

func (t actionTable) Rows() [][]string {
	rows := make([][]string, 0, len(t))
	for _, a := range t {
		rows = append(rows, []string{
			a.ID, a.TDEID, a.ArtifactName, string(a.Status),
			a.CreatedAt.Format(time.RFC3339), a.Suggestion,
		})
	}
	return rows
}

func runActionsList(cmd *cobra.Command, args []string) error {
	format, err := cli.ParseFormat(actionsFlags.format)
	if err != nil {
		return err
	}

	a, err := newApp(config.MustGetConfig(), nil)
	if err != nil {
		return cli.NewCommandError("actions list", err)
	}
	defer a.Close()

	list, err := a.actions.List(cmd.Context(), governance.ActionStatus(actionsFlags.status))
	if err != nil {
		return cli.NewCommandError("actions list", err)
	}

	var data interface{} = actionTable(list)
	if format == cli.FormatJSON {
		data = list
	}
	return cli.NewFormatter(format).FormatTo(cmd.OutOrStdout(), data)
}

func runActionsApply(cmd *cobra.Command, args []string) error {
	a, err := newApp(config.MustGetConfig(), nil)
	if err != nil {
		return cli.NewCommandError("actions apply", err)
	}
	defer a.Close()

	if err := a.actions.Apply(cmd.Context(), args[0]); err != nil {
		return cli.NewCommandError("actions apply", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "✓ Action %s marked applied\n", args[0])
	return nil
}
