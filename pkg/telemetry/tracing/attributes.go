package tracing

import (
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// InstrumentationPrefix prefixes every tracer name.
const InstrumentationPrefix = "github.com/unneeks/stewardagent/"

// Attribute keys use the "steward.*" namespace.
const (
	AttrCycleDate    = "steward.cycle.date"
	AttrCycleOutcome = "steward.cycle.outcome"
	AttrBreachCount  = "steward.cycle.breaches"
	AttrOutcomeCount = "steward.cycle.outcomes"

	AttrTermID    = "steward.term.id"
	AttrTDEID     = "steward.tde.id"
	AttrRuleID    = "steward.rule.id"
	AttrRiskScore = "steward.risk_score"

	AttrArtifact     = "steward.artifact"
	AttrFindingCount = "steward.findings"
	AttrGapCount     = "steward.gaps"
	AttrActionID     = "steward.action.id"

	AttrChangesetType   = "steward.changeset.type"
	AttrChangedEntity   = "steward.changeset.entity"
	AttrImpactPathCount = "steward.changeset.impact_paths"

	AttrProvider = "steward.reasoning.provider"
	AttrModel    = "steward.reasoning.model"
)

// SetCycleAttributes records the summary of a finished cycle.
func SetCycleAttributes(span trace.Span, date, outcome string, breaches, outcomes int) {
	span.SetAttributes(
		attribute.String(AttrCycleDate, date),
		attribute.String(AttrCycleOutcome, outcome),
		attribute.Int(AttrBreachCount, breaches),
		attribute.Int(AttrOutcomeCount, outcomes),
	)
}

// SetFocusAttributes records the breach chosen for investigation.
func SetFocusAttributes(span trace.Span, termID, tdeID, ruleID string, risk float64) {
	span.SetAttributes(
		attribute.String(AttrTermID, termID),
		attribute.String(AttrTDEID, tdeID),
		attribute.String(AttrRuleID, ruleID),
		attribute.Float64(AttrRiskScore, risk),
	)
}

// SetScanAttributes records a risk scan of one artifact.
func SetScanAttributes(span trace.Span, artifact string, findings int) {
	span.SetAttributes(
		attribute.String(AttrArtifact, artifact),
		attribute.Int(AttrFindingCount, findings),
	)
}

// SetChangesetAttributes records a changeset review request.
func SetChangesetAttributes(span trace.Span, kind, entity string, paths int) {
	span.SetAttributes(
		attribute.String(AttrChangesetType, kind),
		attribute.String(AttrChangedEntity, entity),
		attribute.Int(AttrImpactPathCount, paths),
	)
}

// SetProviderAttributes records the reasoning backend of a request.
func SetProviderAttributes(span trace.Span, provider, model string) {
	span.SetAttributes(
		attribute.String(AttrProvider, provider),
		attribute.String(AttrModel, model),
	)
}
