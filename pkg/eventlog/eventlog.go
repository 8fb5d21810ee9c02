// Package eventlog is the append-only record of everything the engine
// observes or decides. It is the source of truth for playback and audit.
package eventlog

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/unneeks/stewardagent/pkg/governance"
)

// Log appends events to an EventStore and echoes a one-line trace for each.
type Log struct {
	store   governance.EventStore
	console io.Writer
	format  func(*governance.Event) string
	now     func() time.Time
	logger  *slog.Logger
	mu      sync.Mutex
}

// Option configures a Log.
type Option func(*Log)

// WithConsole echoes one trace line per appended event to w.
func WithConsole(w io.Writer) Option {
	return func(l *Log) { l.console = w }
}

// WithTraceFormat replaces FormatTrace for console lines.
func WithTraceFormat(format func(*governance.Event) string) Option {
	return func(l *Log) {
		if format != nil {
			l.format = format
		}
	}
}

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(l *Log) { l.now = now }
}

// New creates a Log backed by store.
func New(store governance.EventStore, opts ...Option) *Log {
	l := &Log{
		store:  store,
		format: FormatTrace,
		now:    time.Now,
		logger: slog.Default().With("component", "eventlog"),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Append validates and persists an event. A kind outside the enumeration is
// a ContractError and nothing is written. The ID and timestamp are assigned
// when empty, so a failed append can be retried with the same event without
// creating a duplicate.
func (l *Log) Append(ctx context.Context, e *governance.Event) error {
	if e == nil {
		return &governance.ContractError{Field: "event", Message: "nil event"}
	}
	if !e.Kind.Valid() {
		return &governance.ContractError{Field: "event_type", Message: fmt.Sprintf("unknown event kind %q", e.Kind)}
	}
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = l.now().UTC()
	}
	if e.Context == nil {
		e.Context = map[string]any{}
	}
	if e.Metrics == nil {
		e.Metrics = map[string]float64{}
	}

	if err := l.store.AppendEvent(ctx, e); err != nil {
		l.logger.Error("failed to append event", "event_type", e.Kind, "error", err)
		return err
	}

	l.logger.Debug("event appended",
		"event_type", e.Kind,
		"entity_type", e.EntityType,
		"entity_id", e.EntityID,
		"seq", e.Seq,
	)

	if l.console != nil {
		l.mu.Lock()
		fmt.Fprintln(l.console, l.format(e))
		l.mu.Unlock()
	}
	return nil
}

// Query returns events matching q in append order.
func (l *Log) Query(ctx context.Context, q *governance.EventQuery) ([]*governance.Event, error) {
	return l.store.QueryEvents(ctx, q)
}

// FormatTrace renders the console line for an event.
func FormatTrace(e *governance.Event) string {
	return fmt.Sprintf("[%s] EVENT: %s | %s: %s | %s",
		e.Timestamp.Format(time.RFC3339), e.Kind, e.EntityType, e.EntityName, e.Explanation)
}
