package governance

import "context"

// ReferenceStore holds reference data (terms, rules, elements, lineage,
// artifacts) and the externally produced daily scores.
type ReferenceStore interface {
	UpsertTerm(ctx context.Context, term *BusinessTerm) error
	UpsertRule(ctx context.Context, rule *Rule) error
	UpsertTDE(ctx context.Context, tde *TrackedDataElement) error
	UpsertLineage(ctx context.Context, mapping *LineageMapping) error
	UpsertArtifact(ctx context.Context, artifact *Artifact) error
	UpsertScore(ctx context.Context, score *DailyScore) error

	// ListTDEs returns every tracked element ordered by ID.
	ListTDEs(ctx context.Context) ([]*TrackedDataElement, error)

	// ListObservations joins rules, terms, elements and scores for one day.
	// The order is stable: rule ID, then element ID, both compared as
	// strings.
	ListObservations(ctx context.Context, date string) ([]*Observation, error)

	// GetScore returns the score of one element on one day, or ErrNotFound.
	GetScore(ctx context.Context, date, tdeID string) (float64, error)

	// GetLineage returns the mapping for an element, or ErrNotFound.
	GetLineage(ctx context.Context, tdeID string) (*LineageMapping, error)

	// GetArtifact returns an artifact by name, or ErrNotFound.
	GetArtifact(ctx context.Context, name string) (*Artifact, error)

	// ImpactOfTerm traces a term (matched by ID or name) down to artifacts.
	ImpactOfTerm(ctx context.Context, term string) ([]*ImpactPath, error)

	// ImpactOfArtifact traces an artifact up to elements, terms and rules.
	ImpactOfArtifact(ctx context.Context, artifact string) ([]*ImpactPath, error)
}

// EventStore is the append-only event table.
type EventStore interface {
	// AppendEvent persists an event and assigns its Seq.
	AppendEvent(ctx context.Context, event *Event) error

	// QueryEvents returns matching events in append order.
	QueryEvents(ctx context.Context, query *EventQuery) ([]*Event, error)
}

// ActionStore is the pending action table.
type ActionStore interface {
	InsertAction(ctx context.Context, action *PendingAction) error

	// ListActions returns actions with the given status (all when empty),
	// ordered by creation time.
	ListActions(ctx context.Context, status ActionStatus) ([]*PendingAction, error)

	// SetActionStatus updates the status, or returns ErrNotFound.
	SetActionStatus(ctx context.Context, id string, status ActionStatus) error

	// DeleteAction removes an action and reports whether a row existed.
	DeleteAction(ctx context.Context, id string) (bool, error)
}

// Storage is the full store shared by the engine and its collaborators.
type Storage interface {
	ReferenceStore
	EventStore
	ActionStore

	// Reset drops all data and recreates the schema.
	Reset(ctx context.Context) error

	// Close releases resources held by the backend.
	Close() error
}
