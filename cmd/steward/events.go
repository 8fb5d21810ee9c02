package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/unneeks/stewardagent/pkg/cli"
	"github.com/unneeks/stewardagent/pkg/config"
	"github.com/unneeks/stewardagent/pkg/governance"
)

var eventsFlags struct {
	kinds      []string
	entityType string
	entityID   string
	since      string
	limit      int
	format     string
}

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Query the event log",
	Long: `Print recorded events in append order.

Examples:
  # Every recommendation so far
  steward events --kind recommendation_created

  # Outcomes and learning signals as CSV
  steward events --kind outcome_measured --kind learning_updated --format csv

  # Events since a date
  steward events --since 2026-01-03`,
	Args: exactArgs(0),
	RunE: runEvents,
}

func init() {
	rootCmd.AddCommand(eventsCmd)

	eventsCmd.Flags().StringSliceVarP(&eventsFlags.kinds, "kind", "k", nil, "filter by event kind (repeatable)")
	eventsCmd.Flags().StringVar(&eventsFlags.entityType, "entity-type", "", "filter by entity type")
	eventsCmd.Flags().StringVar(&eventsFlags.entityID, "entity-id", "", "filter by entity ID")
	eventsCmd.Flags().StringVar(&eventsFlags.since, "since", "", "only events at or after this date or RFC3339 time")
	eventsCmd.Flags().IntVarP(&eventsFlags.limit, "limit", "n", 0, "maximum number of events (0 = all)")
	eventsCmd.Flags().StringVarP(&eventsFlags.format, "format", "f", "text", "output format (text, json, csv)")
}

// eventTable renders events as rows.
type eventTable []*governance.Event

func (t eventTable) Header() []string {
	return []string{"SEQ", "TIMESTAMP", "EVENT_TYPE", "ENTITY_TYPE", "ENTITY_ID", "EXPLANATION"}
}

func (t eventTable) Rows() [][]string {
	rows := make([][]string, 0, len(t))
	for _, e := range t {
		rows = append(rows, []string{
			fmt.Sprint(e.Seq), e.Timestamp.Format(time.RFC3339), string(e.Kind),
			e.EntityType, e.EntityID, e.Explanation,
		})
	}
	return rows
}

// buildEventQuery turns the flags into a query, rejecting unknown kinds.
func buildEventQuery() (*governance.EventQuery, error) {
	q := &governance.EventQuery{
		EntityType: eventsFlags.entityType,
		EntityID:   eventsFlags.entityID,
		Limit:      eventsFlags.limit,
	}
	for _, k := range eventsFlags.kinds {
		kind := governance.EventKind(strings.TrimSpace(k))
		if !kind.Valid() {
			return nil, cli.NewConfigError("kind", fmt.Sprintf("unknown event kind %q", k))
		}
		q.Kinds = append(q.Kinds, kind)
	}
	if eventsFlags.since != "" {
		since, err := parseSince(eventsFlags.since)
		if err != nil {
			return nil, cli.NewConfigError("since", err.Error())
		}
		q.Since = &since
	}
	if q.Limit < 0 {
		return nil, cli.NewConfigError("limit", "must be non-negative")
	}
	return q, nil
}

func parseSince(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return governance.ParseDate(s)
}

func runEvents(cmd *cobra.Command, args []string) error {
	format, err := cli.ParseFormat(eventsFlags.format)
	if err != nil {
		return err
	}
	q, err := buildEventQuery()
	if err != nil {
		return err
	}

	a, err := newApp(config.MustGetConfig(), nil)
	if err != nil {
		return cli.NewCommandError("events", err)
	}
	defer a.Close()

	events, err := a.events.Query(cmd.Context(), q)
	if err != nil {
		return cli.NewCommandError("events", err)
	}

	out := cmd.OutOrStdout()
	switch format {
	case cli.FormatJSON:
		return cli.NewFormatter(format).FormatTo(out, events)
	case cli.FormatCSV:
		return cli.NewFormatter(format).FormatTo(out, eventTable(events))
	default:
		return cli.PrintTrace(out, events)
	}
}
