// Package review evaluates proposed changes to artifacts or policies
// against the lineage graph and records enforcement opportunities as
// pending actions.
package review

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/unneeks/stewardagent/pkg/actions"
	"github.com/unneeks/stewardagent/pkg/governance"
	"github.com/unneeks/stewardagent/pkg/lineage"
	"github.com/unneeks/stewardagent/pkg/scanner"
	"github.com/unneeks/stewardagent/pkg/telemetry/metrics"
	"github.com/unneeks/stewardagent/pkg/telemetry/tracing"
)

// ChangesetType is the kind of entity a changeset modifies.
type ChangesetType string

const (
	// ChangesetCode modifies a transformation artifact.
	ChangesetCode ChangesetType = "code"
	// ChangesetPolicy modifies a business term's rule.
	ChangesetPolicy ChangesetType = "policy"
)

// Request is one changeset to review.
type Request struct {
	Title  string        `json:"pr_title"`
	Type   ChangesetType `json:"changeset_type"`
	Entity string        `json:"changed_entity"`
	Diff   string        `json:"diff_text"`
}

// Validate rejects malformed requests before anything is read or written.
func (r *Request) Validate() error {
	if strings.TrimSpace(r.Title) == "" {
		return &governance.ContractError{Field: "pr_title", Message: "title is required"}
	}
	if r.Type != ChangesetCode && r.Type != ChangesetPolicy {
		return &governance.ContractError{Field: "changeset_type", Message: fmt.Sprintf("must be %q or %q, got %q", ChangesetCode, ChangesetPolicy, r.Type)}
	}
	if strings.TrimSpace(r.Entity) == "" {
		return &governance.ContractError{Field: "changed_entity", Message: "changed entity is required"}
	}
	return nil
}

// Recommendation is an enforcement opportunity persisted as a pending action.
type Recommendation struct {
	ActionID     string `json:"action_id"`
	TDEID        string `json:"tde_id"`
	ArtifactName string `json:"model"`
	Suggestion   string `json:"suggestion"`
}

// Result is the outcome of a review.
type Result struct {
	Request         Request                  `json:"request"`
	Impact          []*governance.ImpactPath `json:"impact"`
	Observations    []string                 `json:"observations"`
	Recommendations []*Recommendation        `json:"recommendations"`
	Report          string                   `json:"report"`
}

// Option configures a Reviewer.
type Option func(*Reviewer)

// WithScanner sets the scanner used on code diffs. Defaults to the
// heuristic scanner.
func WithScanner(s scanner.Scanner) Option {
	return func(r *Reviewer) { r.scanner = s }
}

// WithMetrics records reviews on c.
func WithMetrics(c *metrics.Collector) Option {
	return func(r *Reviewer) { r.metrics = c }
}

// WithTracer starts a span per review.
func WithTracer(t trace.Tracer) Option {
	return func(r *Reviewer) { r.tracer = t }
}

// Reviewer reviews changesets.
type Reviewer struct {
	resolver *lineage.Resolver
	actions  *actions.Store
	scanner  scanner.Scanner
	metrics  *metrics.Collector
	tracer   trace.Tracer
	logger   *slog.Logger
}

// New creates a Reviewer.
func New(resolver *lineage.Resolver, store *actions.Store, opts ...Option) *Reviewer {
	r := &Reviewer{
		resolver: resolver,
		actions:  store,
		scanner:  scanner.NewHeuristic(),
		tracer:   noop.NewTracerProvider().Tracer(""),
		logger:   slog.Default().With("component", "review"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Review traces the impact of req, runs the heuristics for its kind,
// persists one pending action per recommendation and renders the report.
func (r *Reviewer) Review(ctx context.Context, req *Request) (res *Result, err error) {
	if req == nil {
		return nil, &governance.ContractError{Field: "request", Message: "nil request"}
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	ctx, span := r.tracer.Start(ctx, "review.changeset")
	defer func() {
		if res != nil {
			tracing.SetChangesetAttributes(span, string(req.Type), req.Entity, len(res.Impact))
		}
		tracing.SetStatus(span, err)
		span.End()
	}()

	r.logger.Info("reviewing changeset", "title", req.Title, "type", req.Type, "entity", req.Entity)

	var paths []*governance.ImpactPath
	switch req.Type {
	case ChangesetPolicy:
		paths, err = r.resolver.ImpactOfTerm(ctx, req.Entity)
	case ChangesetCode:
		paths, err = r.resolver.ImpactOfArtifact(ctx, req.Entity)
	}
	if err != nil {
		return nil, err
	}

	// Empty slices, not nil: the tool output schema declares arrays.
	if paths == nil {
		paths = []*governance.ImpactPath{}
	}
	observations := []string{}
	recs := []*Recommendation{}
	switch req.Type {
	case ChangesetCode:
		observations, recs, err = r.analyzeCode(ctx, req.Diff, paths)
		if err != nil {
			return nil, err
		}
	case ChangesetPolicy:
		observations, recs = analyzePolicy(req.Diff, paths)
	}
	if observations == nil {
		observations = []string{}
	}
	if recs == nil {
		recs = []*Recommendation{}
	}
	if len(recs) == 0 {
		observations = append(observations, "Looks good. No critical policy gaps introduced.")
	}

	for _, rec := range recs {
		id, err := r.actions.Propose(ctx, rec.TDEID, rec.ArtifactName, rec.Suggestion)
		if err != nil {
			return nil, err
		}
		rec.ActionID = id
	}

	res = &Result{
		Request:         *req,
		Impact:          paths,
		Observations:    observations,
		Recommendations: recs,
	}
	res.Report = RenderMarkdown(res)

	r.metrics.RecordReview(string(req.Type))
	r.logger.Info("review complete",
		"entity", req.Entity,
		"impacted_paths", len(paths),
		"recommendations", len(recs),
	)
	return res, nil
}

func (r *Reviewer) analyzeCode(ctx context.Context, diff string, paths []*governance.ImpactPath) ([]string, []*Recommendation, error) {
	findings, err := r.scanner.Scan(ctx, AddedText(diff))
	if err != nil {
		return nil, nil, err
	}

	fired := map[scanner.Pattern]bool{}
	for _, f := range findings {
		if p, ok := scanner.PatternOf(f); ok {
			fired[p] = true
		}
	}

	var observations []string
	var recs []*Recommendation
	for _, h := range codeHeuristics {
		if !fired[h.pattern] {
			continue
		}
		observations = append(observations, h.observation)
		for _, p := range paths {
			recs = append(recs, &Recommendation{
				TDEID:        p.TDEID,
				ArtifactName: p.ArtifactName,
				Suggestion:   h.suggest(p),
			})
		}
	}
	return observations, recs, nil
}

type codeHeuristic struct {
	pattern     scanner.Pattern
	observation string
	suggest     func(p *governance.ImpactPath) string
}

var codeHeuristics = []codeHeuristic{
	{
		pattern:     scanner.PatternUnsafeJoin,
		observation: "Detected a new JOIN introduced in the model. This risks fan-out multiplying rows.",
		suggest: func(p *governance.ImpactPath) string {
			return fmt.Sprintf("Enforce distinct validation on `%s` post-join to guarantee '%s' rule isn't broken by duplicates.", p.FieldName, p.RuleDesc)
		},
	},
	{
		pattern:     scanner.PatternNullMasking,
		observation: "Detected COALESCE being used to mask NULLs.",
		suggest: func(p *governance.ImpactPath) string {
			return fmt.Sprintf("Determine root cause of nulls in upstream model instead of relying on COALESCE for `%s`.", p.FieldName)
		},
	},
	{
		pattern:     scanner.PatternUnsafeCast,
		observation: "Detected a CAST that may silently coerce or truncate values.",
		suggest: func(p *governance.ImpactPath) string {
			return fmt.Sprintf("Validate `%s` before casting so '%s' is not broken by type coercion.", p.FieldName, p.RuleDesc)
		},
	},
}

var thresholdChange = regexp.MustCompile(`(?i)from\s+([0-9]*\.?[0-9]+)\s+to\s+([0-9]*\.?[0-9]+)`)

// ThresholdChange extracts "from X to Y" from a policy diff.
func ThresholdChange(diff string) (from, to float64, ok bool) {
	m := thresholdChange.FindStringSubmatch(diff)
	if m == nil {
		return 0, 0, false
	}
	from, err1 := strconv.ParseFloat(m[1], 64)
	to, err2 := strconv.ParseFloat(m[2], 64)
	if err1 != nil || err2 != nil {
		return 0, 0, false
	}
	return from, to, true
}

func analyzePolicy(diff string, paths []*governance.ImpactPath) ([]string, []*Recommendation) {
	from, to, ok := ThresholdChange(diff)
	if ok && to <= from {
		return []string{fmt.Sprintf("Detected a policy threshold relaxation (%v to %v). Existing enforcement remains sufficient.", from, to)}, nil
	}

	obs := "Detected a policy threshold tightening."
	if ok {
		obs = fmt.Sprintf("Detected a policy threshold tightening (%v to %v).", from, to)
	}
	recs := make([]*Recommendation, 0, len(paths))
	for _, p := range paths {
		recs = append(recs, &Recommendation{
			TDEID:        p.TDEID,
			ArtifactName: p.ArtifactName,
			Suggestion: fmt.Sprintf("Add stricter dbt tests on `%s.%s` to enforce the new strict threshold for '%s'.",
				p.ArtifactName, p.FieldName, p.TermName),
		})
	}
	return []string{obs}, recs
}

// AddedText returns the added lines of a unified diff without their "+"
// prefix. Text with no added lines is returned whole.
func AddedText(diff string) string {
	var added []string
	for _, line := range strings.Split(diff, "\n") {
		if strings.HasPrefix(line, "+++") {
			continue
		}
		if strings.HasPrefix(line, "+") {
			added = append(added, strings.TrimPrefix(line, "+"))
		}
	}
	if len(added) == 0 {
		return diff
	}
	return strings.Join(added, "\n")
}
