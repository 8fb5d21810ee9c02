// Package playback derives read-only views over the event log: investigation
// sessions, the latest status per business term and the learning summary.
package playback

import (
	"context"
	"encoding/json"
	"time"

	"github.com/unneeks/stewardagent/pkg/governance"
)

// Term statuses.
const (
	StatusStable             = "stable"
	StatusDeclining          = "declining"
	StatusBreached           = "breached"
	StatusUnderInvestigation = "under_investigation"
)

// BreachedRisk is the risk score above which a term is reported breached.
const BreachedRisk = 0.1

// Investigation is one session: a focus_selected event and everything
// logged until the next one.
type Investigation struct {
	ID             string              `json:"id"`
	FocusTerm      string              `json:"focus_term"`
	StartTime      time.Time           `json:"start_time"`
	Events         []*governance.Event `json:"events"`
	Recommendation *governance.Event   `json:"recommendation"`
	Outcomes       []*governance.Event `json:"outcomes"`
}

// TermState is the latest derived status of one business term.
type TermState struct {
	Status     string    `json:"status"`
	LastUpdate time.Time `json:"last_update"`
}

// Improvement is one measured positive outcome.
type Improvement struct {
	TDE        string    `json:"tde"`
	ScoreAfter float64   `json:"score_after"`
	Timestamp  time.Time `json:"timestamp"`
}

// LearningSummary lists every measured outcome.
type LearningSummary struct {
	Improvements []Improvement `json:"improvements"`
}

// GroupInvestigations splits events (in append order) into sessions.
// Events before the first focus_selected belong to no session.
func GroupInvestigations(events []*governance.Event) []*Investigation {
	out := []*Investigation{}
	var cur *Investigation
	for _, e := range events {
		if e.Kind == governance.KindFocusSelected {
			cur = &Investigation{
				ID:        e.ID,
				FocusTerm: e.EntityID,
				StartTime: e.Timestamp,
				Events:    []*governance.Event{e},
				Outcomes:  []*governance.Event{},
			}
			out = append(out, cur)
			continue
		}
		if cur == nil {
			continue
		}
		cur.Events = append(cur.Events, e)
		switch e.Kind {
		case governance.KindRecommendationCreated:
			cur.Recommendation = e
		case governance.KindOutcomeMeasured:
			cur.Outcomes = append(cur.Outcomes, e)
		}
	}
	return out
}

// LatestState folds risk_assessed and focus_selected events into a status
// per business term ID.
func LatestState(events []*governance.Event) map[string]*TermState {
	states := map[string]*TermState{}
	for _, e := range events {
		if e.Kind != governance.KindRiskAssessed && e.Kind != governance.KindFocusSelected {
			continue
		}
		st, ok := states[e.EntityID]
		if !ok {
			st = &TermState{Status: StatusStable}
			states[e.EntityID] = st
		}
		st.LastUpdate = e.Timestamp

		if e.Kind == governance.KindFocusSelected {
			st.Status = StatusUnderInvestigation
			continue
		}
		switch {
		case e.Metrics["risk_score"] > BreachedRisk:
			st.Status = StatusBreached
		case number(e.Context["delta"]) > 0:
			st.Status = StatusDeclining
		default:
			st.Status = StatusStable
		}
	}
	return states
}

// Summarize collects outcome_measured events.
func Summarize(events []*governance.Event) *LearningSummary {
	s := &LearningSummary{Improvements: []Improvement{}}
	for _, e := range events {
		if e.Kind != governance.KindOutcomeMeasured {
			continue
		}
		s.Improvements = append(s.Improvements, Improvement{
			TDE:        e.EntityID,
			ScoreAfter: e.Metrics["score"],
			Timestamp:  e.Timestamp,
		})
	}
	return s
}

func number(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	case int:
		return float64(n)
	case int64:
		return float64(n)
	case json.Number:
		f, _ := n.Float64()
		return f
	}
	return 0
}

// Reader serves the views from an event store.
type Reader struct {
	store governance.EventStore
}

// NewReader creates a Reader.
func NewReader(store governance.EventStore) *Reader {
	return &Reader{store: store}
}

// Events returns events matching q (all events when q is nil).
func (r *Reader) Events(ctx context.Context, q *governance.EventQuery) ([]*governance.Event, error) {
	if q == nil {
		q = &governance.EventQuery{}
	}
	return r.store.QueryEvents(ctx, q)
}

// Investigations returns all sessions.
func (r *Reader) Investigations(ctx context.Context) ([]*Investigation, error) {
	events, err := r.Events(ctx, nil)
	if err != nil {
		return nil, err
	}
	return GroupInvestigations(events), nil
}

// LatestState returns the status per business term.
func (r *Reader) LatestState(ctx context.Context) (map[string]*TermState, error) {
	events, err := r.Events(ctx, &governance.EventQuery{
		Kinds: []governance.EventKind{governance.KindRiskAssessed, governance.KindFocusSelected},
	})
	if err != nil {
		return nil, err
	}
	return LatestState(events), nil
}

// LearningSummary returns every measured outcome.
func (r *Reader) LearningSummary(ctx context.Context) (*LearningSummary, error) {
	events, err := r.Events(ctx, &governance.EventQuery{
		Kinds: []governance.EventKind{governance.KindOutcomeMeasured},
	})
	if err != nil {
		return nil, err
	}
	return Summarize(events), nil
}
