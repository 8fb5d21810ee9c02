package governance

import (
	"fmt"
	"time"
)

// DateLayout is the calendar-day layout used for score dates.
const DateLayout = "2006-01-02"

// FormatDate renders a calendar day in DateLayout, in UTC.
func FormatDate(t time.Time) string {
	return t.UTC().Format(DateLayout)
}

// ParseDate parses a DateLayout calendar day.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, &ContractError{Field: "date", Message: fmt.Sprintf("invalid date %q (expected YYYY-MM-DD)", s)}
	}
	return t, nil
}

// BusinessTerm is a governed semantic concept. Reference data, immutable
// once seeded.
type BusinessTerm struct {
	ID          string  `json:"term_id" yaml:"id"`
	Name        string  `json:"name" yaml:"name"`
	Criticality float64 `json:"criticality" yaml:"criticality"` // 0-1, higher is more consequential
}

// Rule is a quality threshold attached to one business term. The free-text
// description doubles as the policy-coverage signal.
type Rule struct {
	ID          string  `json:"rule_id" yaml:"id"`
	TermID      string  `json:"business_term_id" yaml:"term"`
	Description string  `json:"description" yaml:"description"`
	Threshold   float64 `json:"threshold" yaml:"threshold"` // (0,1]
}

// TrackedDataElement is a measured field that realizes a business term at
// some layer of the pipeline.
type TrackedDataElement struct {
	ID     string `json:"tde_id" yaml:"id"`
	Name   string `json:"name" yaml:"name"`
	TermID string `json:"business_term_id" yaml:"term"`
}

// DailyScore is the quality score of one tracked element on one day.
type DailyScore struct {
	Date  string  `json:"date"`
	TDEID string  `json:"tde_id"`
	Score float64 `json:"score"`
}

// LineageMapping maps a tracked element to the artifact field computing it.
type LineageMapping struct {
	TDEID        string `json:"tde_id" yaml:"tde"`
	ArtifactName string `json:"model_name" yaml:"artifact"`
	FieldName    string `json:"column_name" yaml:"field"`
}

// Artifact is a transformation artifact (a SQL model) and its source text.
type Artifact struct {
	Name       string `json:"model_name" yaml:"name"`
	SourceText string `json:"sql_text" yaml:"sql"`
}

// Observation is one (rule, term, element, score) row for a given day. It is
// the unit breach detection works on.
type Observation struct {
	Rule  Rule               `json:"rule"`
	Term  BusinessTerm       `json:"term"`
	TDE   TrackedDataElement `json:"tde"`
	Date  string             `json:"date"`
	Score float64            `json:"score"`
}

// ActionStatus is the lifecycle status of a pending action.
type ActionStatus string

const (
	// ActionOpen means the remediation was proposed and not yet applied.
	ActionOpen ActionStatus = "open"
	// ActionApplied means an external actor applied the remediation.
	ActionApplied ActionStatus = "applied"
)

// Valid reports whether s is a known status.
func (s ActionStatus) Valid() bool {
	return s == ActionOpen || s == ActionApplied
}

// PendingAction is a proposed remediation awaiting external application and
// later verification.
type PendingAction struct {
	ID           string       `json:"action_id"`
	TDEID        string       `json:"tde_id"`
	ArtifactName string       `json:"model_name"`
	Suggestion   string       `json:"suggestion"`
	Status       ActionStatus `json:"status"`
	CreatedAt    time.Time    `json:"created_at"`
}

// ImpactPath is one lineage path touched by a changeset: artifact field,
// tracked element, business term and (for code changes) the governing rule.
type ImpactPath struct {
	ArtifactName string `json:"model"`
	FieldName    string `json:"column"`
	TDEID        string `json:"tde"`
	TermID       string `json:"term_id"`
	TermName     string `json:"term"`
	RuleDesc     string `json:"rule,omitempty"`
}

// ValidateScore checks that a score lies in [0,1].
func ValidateScore(score float64) error {
	if score < 0 || score > 1 {
		return &ContractError{Field: "score", Message: fmt.Sprintf("score %v outside [0,1]", score)}
	}
	return nil
}

// ValidateThreshold checks that a rule threshold lies in (0,1].
func ValidateThreshold(threshold float64) error {
	if threshold <= 0 || threshold > 1 {
		return &ContractError{Field: "threshold", Message: fmt.Sprintf("threshold %v outside (0,1]", threshold)}
	}
	return nil
}

// ValidateCriticality checks that a criticality weight lies in [0,1].
func ValidateCriticality(criticality float64) error {
	if criticality < 0 || criticality > 1 {
		return &ContractError{Field: "criticality", Message: fmt.Sprintf("criticality %v outside [0,1]", criticality)}
	}
	return nil
}
