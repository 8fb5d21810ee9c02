package governance

import "time"

// EventKind names one step of an investigation. The set is closed.
type EventKind string

const (
	KindRuleBreached          EventKind = "rule_breached"
	KindRiskAssessed          EventKind = "risk_assessed"
	KindFocusSelected         EventKind = "focus_selected"
	KindInvestigationStarted  EventKind = "investigation_started"
	KindLineageTraced         EventKind = "lineage_traced"
	KindSQLAnalysisCompleted  EventKind = "sql_analysis_completed"
	KindPolicyGapDetected     EventKind = "policy_gap_detected"
	KindRecommendationCreated EventKind = "recommendation_created"
	KindOutcomeMeasured       EventKind = "outcome_measured"
	KindLearningUpdated       EventKind = "learning_updated"
)

// EventKinds lists every allowed kind in cycle order.
var EventKinds = []EventKind{
	KindRuleBreached,
	KindRiskAssessed,
	KindFocusSelected,
	KindInvestigationStarted,
	KindLineageTraced,
	KindSQLAnalysisCompleted,
	KindPolicyGapDetected,
	KindRecommendationCreated,
	KindOutcomeMeasured,
	KindLearningUpdated,
}

var knownKinds = func() map[EventKind]struct{} {
	m := make(map[EventKind]struct{}, len(EventKinds))
	for _, k := range EventKinds {
		m[k] = struct{}{}
	}
	return m
}()

// Valid reports whether k belongs to the enumeration.
func (k EventKind) Valid() bool {
	_, ok := knownKinds[k]
	return ok
}

// Entity types used as event subjects.
const (
	EntityRule         = "rule"
	EntityBusinessTerm = "business_term"
	EntityTDE          = "tde"
	EntityArtifact     = "dbt_model"
	EntityAgentMemory  = "agent_memory"
)

// Event is an immutable fact describing one step of an investigation.
// Events are never updated or deleted.
type Event struct {
	ID          string             `json:"event_id"`
	Seq         int64              `json:"seq"`
	Timestamp   time.Time          `json:"timestamp"`
	Kind        EventKind          `json:"event_type"`
	EntityType  string             `json:"entity_type"`
	EntityID    string             `json:"entity_id"`
	EntityName  string             `json:"entity_name"`
	Context     map[string]any     `json:"context"`
	Metrics     map[string]float64 `json:"metrics"`
	Explanation string             `json:"explanation"`
}

// EventQuery filters events. Zero values match everything. Results are
// always in append order.
type EventQuery struct {
	Kinds      []EventKind
	EntityType string
	EntityID   string
	Since      *time.Time
	Until      *time.Time
	AfterSeq   int64
	Limit      int
}
