package investigation

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/unneeks/stewardagent/pkg/actions"
	"github.com/unneeks/stewardagent/pkg/eventlog"
	"github.com/unneeks/stewardagent/pkg/governance"
	"github.com/unneeks/stewardagent/pkg/lineage"
	"github.com/unneeks/stewardagent/pkg/policy"
	"github.com/unneeks/stewardagent/pkg/remediation"
	"github.com/unneeks/stewardagent/pkg/scanner"
	"github.com/unneeks/stewardagent/pkg/semantic"
	"github.com/unneeks/stewardagent/pkg/telemetry/logging"
	"github.com/unneeks/stewardagent/pkg/telemetry/metrics"
	"github.com/unneeks/stewardagent/pkg/telemetry/tracing"
)

// TrendFactor amplifies the shortfall below threshold.
const TrendFactor = 1.1

// Cycle outcomes.
const (
	OutcomeNoBreach  = "no_breach"
	OutcomeNoLineage = "no_lineage"
	OutcomeNoAction  = "no_action"
	OutcomeProposed  = "proposed"
)

// Risk computes the risk score of a breach.
func Risk(criticality, threshold, score float64) float64 {
	return criticality * (threshold - score) * TrendFactor
}

// Breach is an observation below its rule's threshold.
type Breach struct {
	Observation *governance.Observation `json:"observation"`
	Delta       float64                 `json:"delta"`
	Risk        float64                 `json:"risk_score"`
}

// OutcomeCheck is the verdict on one applied action.
type OutcomeCheck struct {
	ActionID    string  `json:"action_id"`
	TDEID       string  `json:"tde_id"`
	ScoreBefore float64 `json:"score_before"`
	ScoreAfter  float64 `json:"score_after"`
	Improved    bool    `json:"improved"`
}

// CycleResult summarizes one call to RunCycle.
type CycleResult struct {
	Date    string `json:"date"`
	Outcome string `json:"outcome"`

	// Outcomes are the applied actions evaluated (and removed) this cycle.
	Outcomes []OutcomeCheck `json:"outcomes"`
	// Deferred are applied actions kept because a score was missing.
	Deferred []string `json:"deferred,omitempty"`

	Breaches     []*Breach                `json:"breaches"`
	Focus        *Breach                  `json:"focus,omitempty"`
	Lineage      *lineage.Trace           `json:"lineage,omitempty"`
	SemanticType string                   `json:"semantic_type,omitempty"`
	Findings     []string                 `json:"findings,omitempty"`
	Gaps         []string                 `json:"gaps,omitempty"`
	Remediation  *remediation.Remediation `json:"remediation,omitempty"`
	ActionID     string                   `json:"action_id,omitempty"`
}

// Dependencies are the collaborators of an Orchestrator. Store, Events,
// Actions and Resolver are required.
type Dependencies struct {
	Store    governance.ReferenceStore
	Events   *eventlog.Log
	Actions  *actions.Store
	Resolver *lineage.Resolver

	// Scanner defaults to the heuristic scanner.
	Scanner scanner.Scanner
	// Checker defaults to the built-in ontology.
	Checker *policy.Checker
	// Metrics is optional.
	Metrics *metrics.Collector
	// Tracer defaults to a no-op tracer.
	Tracer trace.Tracer
	// Console receives human-readable progress lines; optional.
	Console io.Writer
}

// Orchestrator is the daily cycle controller.
type Orchestrator struct {
	store    governance.ReferenceStore
	events   *eventlog.Log
	actions  *actions.Store
	resolver *lineage.Resolver
	scanner  scanner.Scanner
	checker  *policy.Checker
	metrics  *metrics.Collector
	tracer   trace.Tracer
	console  io.Writer
	logger   *slog.Logger
}

// New creates an Orchestrator.
func New(deps Dependencies) (*Orchestrator, error) {
	if deps.Store == nil || deps.Events == nil || deps.Actions == nil || deps.Resolver == nil {
		return nil, errors.New("investigation: store, events, actions and resolver are required")
	}
	o := &Orchestrator{
		store:    deps.Store,
		events:   deps.Events,
		actions:  deps.Actions,
		resolver: deps.Resolver,
		scanner:  deps.Scanner,
		checker:  deps.Checker,
		metrics:  deps.Metrics,
		tracer:   deps.Tracer,
		console:  deps.Console,
		logger:   slog.Default().With("component", "investigation"),
	}
	if o.scanner == nil {
		o.scanner = scanner.NewHeuristic()
	}
	if o.checker == nil {
		o.checker = policy.NewChecker(nil)
	}
	if o.console == nil {
		o.console = io.Discard
	}
	if o.tracer == nil {
		o.tracer = noop.NewTracerProvider().Tracer("")
	}
	return o, nil
}

// RunCycle runs the outcome sweep and at most one investigation for date
// (YYYY-MM-DD). No-data conditions end the cycle without error; storage
// failures are returned.
func (o *Orchestrator) RunCycle(ctx context.Context, date string) (res *CycleResult, err error) {
	day, err := governance.ParseDate(date)
	if err != nil {
		return nil, err
	}

	ctx, span := o.tracer.Start(ctx, "investigation.cycle")
	defer func() {
		if res != nil {
			tracing.SetCycleAttributes(span, date, res.Outcome, len(res.Breaches), len(res.Outcomes))
		}
		tracing.SetStatus(span, err)
		span.End()
	}()

	start := time.Now()
	ctx = logging.WithCycleDate(ctx, date)
	cycle := &CycleResult{Date: date, Breaches: []*Breach{}, Outcomes: []OutcomeCheck{}}

	fmt.Fprintf(o.console, "\n[%s] --- AGENT EXECUTION STARTING ---\n", date)
	o.logger.InfoContext(ctx, "cycle started")

	if err := o.sweepOutcomes(ctx, day, cycle); err != nil {
		return nil, err
	}

	if err := o.investigate(ctx, date, cycle); err != nil {
		return nil, err
	}

	o.metrics.RecordCycle(cycle.Outcome, time.Since(start))
	o.logger.InfoContext(ctx, "cycle finished",
		"outcome", cycle.Outcome,
		"breaches", len(cycle.Breaches),
		"outcomes", len(cycle.Outcomes),
		"duration", time.Since(start),
	)
	return cycle, nil
}

func (o *Orchestrator) investigate(ctx context.Context, date string, res *CycleResult) error {
	observations, err := o.store.ListObservations(ctx, date)
	if err != nil {
		return err
	}

	// Breach detection.
	for _, obs := range observations {
		if obs.Score >= obs.Rule.Threshold {
			continue
		}
		delta := obs.Rule.Threshold - obs.Score
		b := &Breach{Observation: obs, Delta: delta}
		res.Breaches = append(res.Breaches, b)

		err := o.emit(ctx, date, &governance.Event{
			Kind:       governance.KindRuleBreached,
			EntityType: governance.EntityRule,
			EntityID:   obs.Rule.ID,
			EntityName: obs.Rule.Description,
			Context: map[string]any{
				"score":     obs.Score,
				"threshold": obs.Rule.Threshold,
				"tde_id":    obs.TDE.ID,
			},
			Metrics:     map[string]float64{"delta": delta},
			Explanation: fmt.Sprintf("DQ rule breached on %s (Score: %.3f < %v)", obs.TDE.Name, obs.Score, obs.Rule.Threshold),
		})
		if err != nil {
			return err
		}
	}

	if len(res.Breaches) == 0 {
		fmt.Fprintln(o.console, "No breaches today.")
		res.Outcome = OutcomeNoBreach
		return nil
	}

	// Risk scoring.
	for _, b := range res.Breaches {
		obs := b.Observation
		b.Risk = Risk(obs.Term.Criticality, obs.Rule.Threshold, obs.Score)
		o.metrics.RecordBreach(b.Risk)

		err := o.emit(ctx, date, &governance.Event{
			Kind:       governance.KindRiskAssessed,
			EntityType: governance.EntityBusinessTerm,
			EntityID:   obs.Term.ID,
			EntityName: obs.Term.Name,
			Context: map[string]any{
				"criticality": obs.Term.Criticality,
				"delta":       b.Delta,
				"tde_id":      obs.TDE.ID,
				"rule_id":     obs.Rule.ID,
			},
			Metrics:     map[string]float64{"risk_score": b.Risk},
			Explanation: fmt.Sprintf("Assessed risk score of %.3f for term %s", b.Risk, obs.Term.ID),
		})
		if err != nil {
			return err
		}
	}

	// Focus selection.
	focus := SelectFocus(res.Breaches)
	res.Focus = focus
	fo := focus.Observation
	tracing.SetFocusAttributes(trace.SpanFromContext(ctx), fo.Term.ID, fo.TDE.ID, fo.Rule.ID, focus.Risk)

	if err := o.emit(ctx, date, &governance.Event{
		Kind:       governance.KindFocusSelected,
		EntityType: governance.EntityBusinessTerm,
		EntityID:   fo.Term.ID,
		EntityName: fo.Term.Name,
		Context: map[string]any{
			"highest_risk_score": focus.Risk,
			"term":               fo.Term.ID,
			"tde_id":             fo.TDE.ID,
			"rule_id":            fo.Rule.ID,
		},
		Metrics:     map[string]float64{"risk_score": focus.Risk},
		Explanation: fmt.Sprintf("Agent selected %s as primary investigation focus based on risk.", fo.Term.ID),
	}); err != nil {
		return err
	}

	if err := o.emit(ctx, date, &governance.Event{
		Kind:        governance.KindInvestigationStarted,
		EntityType:  governance.EntityTDE,
		EntityID:    fo.TDE.ID,
		EntityName:  fo.TDE.Name,
		Context:     map[string]any{"rule_id": fo.Rule.ID, "term": fo.Term.ID},
		Explanation: fmt.Sprintf("Started investigation targeting TDE %s", fo.TDE.Name),
	}); err != nil {
		return err
	}

	// Lineage.
	lin, ok, err := o.resolver.Resolve(ctx, fo.TDE.ID)
	if err != nil {
		return err
	}
	if !ok {
		fmt.Fprintln(o.console, "No lineage found, stopping investigation.")
		o.logger.InfoContext(ctx, "investigation aborted: no lineage", "tde_id", fo.TDE.ID)
		res.Outcome = OutcomeNoLineage
		return nil
	}
	res.Lineage = lin

	if err := o.emit(ctx, date, &governance.Event{
		Kind:        governance.KindLineageTraced,
		EntityType:  governance.EntityArtifact,
		EntityID:    lin.ArtifactName,
		EntityName:  lin.ArtifactName,
		Context:     map[string]any{"column": lin.FieldName, "tde_id": lin.TDEID},
		Explanation: fmt.Sprintf("Traced lineage to model %s, column %s", lin.ArtifactName, lin.FieldName),
	}); err != nil {
		return err
	}

	// Risk scan and semantic inference.
	res.SemanticType = semantic.Infer(lin.FieldName, fo.Rule.Description)
	findings, err := o.scan(ctx, lin)
	if err != nil {
		return err
	}
	res.Findings = findings

	if err := o.emit(ctx, date, &governance.Event{
		Kind:       governance.KindSQLAnalysisCompleted,
		EntityType: governance.EntityArtifact,
		EntityID:   lin.ArtifactName,
		EntityName: lin.ArtifactName,
		Context: map[string]any{
			"inferred_semantic_type": res.SemanticType,
			"detected_risks":         findings,
		},
		Metrics: map[string]float64{"risk_count": float64(len(findings))},
		Explanation: fmt.Sprintf("Scanned SQL: interpreted as '%s' semantic type. Found risks: %v",
			res.SemanticType, findings),
	}); err != nil {
		return err
	}

	// Policy gap check.
	res.Gaps = o.checker.Check(res.SemanticType, fo.Rule.Description)
	gapExplanation := fmt.Sprintf("Policy for '%s' fully covered by rule %s", res.SemanticType, fo.Rule.ID)
	if len(res.Gaps) > 0 {
		gapExplanation = fmt.Sprintf("Detected policy gaps for '%s': %v", res.SemanticType, res.Gaps)
	}
	if err := o.emit(ctx, date, &governance.Event{
		Kind:        governance.KindPolicyGapDetected,
		EntityType:  governance.EntityRule,
		EntityID:    fo.Rule.ID,
		EntityName:  fo.Rule.Description,
		Context:     map[string]any{"semantic_type": res.SemanticType, "gaps": res.Gaps},
		Metrics:     map[string]float64{"gap_count": float64(len(res.Gaps))},
		Explanation: gapExplanation,
	}); err != nil {
		return err
	}

	if len(findings) == 0 && len(res.Gaps) == 0 {
		res.Outcome = OutcomeNoAction
		return nil
	}

	// Remediation.
	rem := remediation.Synthesize(findings, remediation.Target{
		ArtifactName: lin.ArtifactName,
		FieldName:    lin.FieldName,
		SourceText:   lin.SourceText,
	})
	res.Remediation = rem

	id, err := o.actions.Propose(ctx, fo.TDE.ID, lin.ArtifactName, rem.Suggestion)
	if err != nil {
		return err
	}
	res.ActionID = id
	o.metrics.RecordProposal(string(rem.Pattern))
	fmt.Fprintf(o.console, "[%s] Proposed remediation against %s (action ID: %s)\n", date, lin.ArtifactName, id)

	if err := o.emit(ctx, date, &governance.Event{
		Kind:       governance.KindRecommendationCreated,
		EntityType: governance.EntityTDE,
		EntityID:   fo.TDE.ID,
		EntityName: fo.TDE.Name,
		Context: map[string]any{
			"suggestion": rem.Suggestion,
			"diff":       rem.Diff,
			"action_id":  id,
			"model":      lin.ArtifactName,
			"pattern":    string(rem.Pattern),
		},
		Explanation: fmt.Sprintf("Generated remediation: %s", rem.Suggestion),
	}); err != nil {
		return err
	}

	res.Outcome = OutcomeProposed
	return nil
}

// SelectFocus returns the breach with the highest risk. Ties go to the
// earliest breach in the slice. Breaches arrive in observation order,
// which sorts rule id then TDE id as plain strings, so "R_10" comes
// before "R_2". Zero-pad numeric ids when that order matters.
func SelectFocus(breaches []*Breach) *Breach {
	var focus *Breach
	for _, b := range breaches {
		if focus == nil || b.Risk > focus.Risk {
			focus = b
		}
	}
	return focus
}

// scan runs the risk scanner over the traced artifact.
func (o *Orchestrator) scan(ctx context.Context, lin *lineage.Trace) ([]string, error) {
	ctx, span := o.tracer.Start(ctx, "investigation.scan")
	defer span.End()

	findings, err := o.scanner.Scan(ctx, lin.SourceText)
	tracing.SetScanAttributes(span, lin.ArtifactName, len(findings))
	tracing.SetStatus(span, err)
	return findings, err
}

// sweepOutcomes evaluates applied actions against the previous day.
func (o *Orchestrator) sweepOutcomes(ctx context.Context, day time.Time, res *CycleResult) (err error) {
	ctx, span := o.tracer.Start(ctx, "investigation.sweep_outcomes")
	defer func() {
		tracing.SetStatus(span, err)
		span.End()
	}()

	applied, err := o.actions.ListApplied(ctx)
	if err != nil {
		return err
	}
	if len(applied) == 0 {
		return nil
	}

	today := governance.FormatDate(day)
	yesterday := governance.FormatDate(day.AddDate(0, 0, -1))

	for _, a := range applied {
		after, err := o.store.GetScore(ctx, today, a.TDEID)
		if errors.Is(err, governance.ErrNotFound) {
			res.Deferred = append(res.Deferred, a.ID)
			o.logger.DebugContext(ctx, "outcome deferred: no score today", "action_id", a.ID, "tde_id", a.TDEID)
			continue
		}
		if err != nil {
			return err
		}
		before, err := o.store.GetScore(ctx, yesterday, a.TDEID)
		if errors.Is(err, governance.ErrNotFound) {
			res.Deferred = append(res.Deferred, a.ID)
			o.logger.DebugContext(ctx, "outcome deferred: no prior score", "action_id", a.ID, "tde_id", a.TDEID)
			continue
		}
		if err != nil {
			return err
		}

		check := OutcomeCheck{
			ActionID:    a.ID,
			TDEID:       a.TDEID,
			ScoreBefore: before,
			ScoreAfter:  after,
			Improved:    after > before,
		}

		if check.Improved {
			if err := o.emitOutcome(ctx, today, a, check); err != nil {
				return err
			}
		} else {
			o.logger.InfoContext(ctx, "applied action did not improve score",
				"action_id", a.ID, "tde_id", a.TDEID, "before", before, "after", after)
		}

		if err := o.actions.Remove(ctx, a.ID); err != nil {
			return err
		}
		o.metrics.RecordOutcome(check.Improved)
		res.Outcomes = append(res.Outcomes, check)
	}
	return nil
}

// emitOutcome appends the outcome and learning events. Their IDs derive
// from the action ID, so a retry after a failed removal does not duplicate
// them.
func (o *Orchestrator) emitOutcome(ctx context.Context, date string, a *governance.PendingAction, c OutcomeCheck) error {
	if err := o.emit(ctx, date, &governance.Event{
		ID:         outcomeEventID(a.ID, governance.KindOutcomeMeasured),
		Kind:       governance.KindOutcomeMeasured,
		EntityType: governance.EntityTDE,
		EntityID:   a.TDEID,
		EntityName: a.TDEID,
		Context: map[string]any{
			"score_before":    c.ScoreBefore,
			"score_after_fix": c.ScoreAfter,
			"action_id":       a.ID,
			"model":           a.ArtifactName,
		},
		Metrics: map[string]float64{"score": c.ScoreAfter, "improvement": c.ScoreAfter - c.ScoreBefore},
		Explanation: fmt.Sprintf("Measured positive outcome on %s post-intervention (Score improved from %.2f to %.2f).",
			a.TDEID, c.ScoreBefore, c.ScoreAfter),
	}); err != nil {
		return err
	}

	return o.emit(ctx, date, &governance.Event{
		ID:         outcomeEventID(a.ID, governance.KindLearningUpdated),
		Kind:       governance.KindLearningUpdated,
		EntityType: governance.EntityAgentMemory,
		EntityID:   "core",
		EntityName: "heuristics",
		Context: map[string]any{
			"reinforced_tde": a.TDEID,
			"suggestion":     a.Suggestion,
			"action_id":      a.ID,
		},
		Explanation: fmt.Sprintf("Updated learning heuristics: %s successfully resolved DQ issues for %s.", a.Suggestion, a.TDEID),
	})
}

func outcomeEventID(actionID string, kind governance.EventKind) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(string(kind)+"/"+actionID)).String()
}

func (o *Orchestrator) emit(ctx context.Context, date string, e *governance.Event) error {
	if e.Context == nil {
		e.Context = map[string]any{}
	}
	e.Context["cycle_date"] = date
	if err := o.events.Append(ctx, e); err != nil {
		return err
	}
	o.metrics.RecordEvent(string(e.Kind))
	return nil
}
