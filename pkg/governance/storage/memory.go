package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/unneeks/stewardagent/pkg/governance"
)

// MemoryStorage implements governance.Storage in memory. It is intended for
// tests and dry runs.
type MemoryStorage struct {
	mu sync.RWMutex

	terms     map[string]governance.BusinessTerm
	rules     map[string]governance.Rule
	tdes      map[string]governance.TrackedDataElement
	scores    map[scoreKey]float64
	lineage   map[string]governance.LineageMapping
	artifacts map[string]governance.Artifact
	events    []*governance.Event
	eventIDs  map[string]int64
	actions   map[string]governance.PendingAction
	seq       int64
}

type scoreKey struct {
	date, tdeID string
}

// NewMemoryStorage creates a new in-memory storage backend.
func NewMemoryStorage() *MemoryStorage {
	s := &MemoryStorage{}
	s.reset()
	return s
}

func (s *MemoryStorage) reset() {
	s.terms = make(map[string]governance.BusinessTerm)
	s.rules = make(map[string]governance.Rule)
	s.tdes = make(map[string]governance.TrackedDataElement)
	s.scores = make(map[scoreKey]float64)
	s.lineage = make(map[string]governance.LineageMapping)
	s.artifacts = make(map[string]governance.Artifact)
	s.events = nil
	s.eventIDs = make(map[string]int64)
	s.actions = make(map[string]governance.PendingAction)
	s.seq = 0
}

// Reset drops all data.
func (s *MemoryStorage) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reset()
	return nil
}

// Close is a no-op.
func (s *MemoryStorage) Close() error {
	return nil
}

func (s *MemoryStorage) UpsertTerm(ctx context.Context, term *governance.BusinessTerm) error {
	if err := governance.ValidateCriticality(term.Criticality); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.terms[term.ID] = *term
	return nil
}

func (s *MemoryStorage) UpsertRule(ctx context.Context, rule *governance.Rule) error {
	if err := governance.ValidateThreshold(rule.Threshold); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rules[rule.ID] = *rule
	return nil
}

func (s *MemoryStorage) UpsertTDE(ctx context.Context, tde *governance.TrackedDataElement) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tdes[tde.ID] = *tde
	return nil
}

func (s *MemoryStorage) UpsertLineage(ctx context.Context, m *governance.LineageMapping) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, existing := range s.lineage {
		if id != m.TDEID && existing.ArtifactName == m.ArtifactName && existing.FieldName == m.FieldName {
			return governance.NewStorageError("memory", "upsert_lineage",
				fmt.Errorf("field %s.%s already mapped to %s", m.ArtifactName, m.FieldName, id))
		}
	}
	s.lineage[m.TDEID] = *m
	return nil
}

func (s *MemoryStorage) UpsertArtifact(ctx context.Context, a *governance.Artifact) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.artifacts[a.Name] = *a
	return nil
}

func (s *MemoryStorage) UpsertScore(ctx context.Context, score *governance.DailyScore) error {
	if err := governance.ValidateScore(score.Score); err != nil {
		return err
	}
	if _, err := governance.ParseDate(score.Date); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scores[scoreKey{score.Date, score.TDEID}] = score.Score
	return nil
}

func (s *MemoryStorage) ListTDEs(ctx context.Context) ([]*governance.TrackedDataElement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*governance.TrackedDataElement, 0, len(s.tdes))
	for _, t := range s.tdes {
		t := t
		out = append(out, &t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *MemoryStorage) ListObservations(ctx context.Context, date string) ([]*governance.Observation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []*governance.Observation{}
	for _, r := range s.sortedRules() {
		term, ok := s.terms[r.TermID]
		if !ok {
			continue
		}
		for _, t := range s.sortedTDEs() {
			if t.TermID != r.TermID {
				continue
			}
			score, ok := s.scores[scoreKey{date, t.ID}]
			if !ok {
				continue
			}
			out = append(out, &governance.Observation{
				Rule:  r,
				Term:  term,
				TDE:   t,
				Date:  date,
				Score: score,
			})
		}
	}
	return out, nil
}

func (s *MemoryStorage) sortedRules() []governance.Rule {
	rules := make([]governance.Rule, 0, len(s.rules))
	for _, r := range s.rules {
		rules = append(rules, r)
	}
	sort.Slice(rules, func(i, j int) bool { return rules[i].ID < rules[j].ID })
	return rules
}

func (s *MemoryStorage) sortedTDEs() []governance.TrackedDataElement {
	tdes := make([]governance.TrackedDataElement, 0, len(s.tdes))
	for _, t := range s.tdes {
		tdes = append(tdes, t)
	}
	sort.Slice(tdes, func(i, j int) bool { return tdes[i].ID < tdes[j].ID })
	return tdes
}

func (s *MemoryStorage) GetScore(ctx context.Context, date, tdeID string) (float64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	score, ok := s.scores[scoreKey{date, tdeID}]
	if !ok {
		return 0, governance.ErrNotFound
	}
	return score, nil
}

func (s *MemoryStorage) GetLineage(ctx context.Context, tdeID string) (*governance.LineageMapping, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.lineage[tdeID]
	if !ok {
		return nil, governance.ErrNotFound
	}
	return &m, nil
}

func (s *MemoryStorage) GetArtifact(ctx context.Context, name string) (*governance.Artifact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.artifacts[name]
	if !ok {
		return nil, governance.ErrNotFound
	}
	return &a, nil
}

func (s *MemoryStorage) ImpactOfTerm(ctx context.Context, term string) ([]*governance.ImpactPath, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []*governance.ImpactPath{}
	for _, t := range s.sortedTDEs() {
		bt, ok := s.terms[t.TermID]
		if !ok || (bt.ID != term && bt.Name != term) {
			continue
		}
		m, ok := s.lineage[t.ID]
		if !ok {
			continue
		}
		out = append(out, &governance.ImpactPath{
			ArtifactName: m.ArtifactName,
			FieldName:    m.FieldName,
			TDEID:        t.ID,
			TermID:       bt.ID,
			TermName:     bt.Name,
		})
	}
	return out, nil
}

func (s *MemoryStorage) ImpactOfArtifact(ctx context.Context, artifact string) ([]*governance.ImpactPath, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rules := s.sortedRules()
	out := []*governance.ImpactPath{}
	for _, t := range s.sortedTDEs() {
		m, ok := s.lineage[t.ID]
		if !ok || m.ArtifactName != artifact {
			continue
		}
		bt, ok := s.terms[t.TermID]
		if !ok {
			continue
		}
		for _, r := range rules {
			if r.TermID != bt.ID {
				continue
			}
			out = append(out, &governance.ImpactPath{
				ArtifactName: m.ArtifactName,
				FieldName:    m.FieldName,
				TDEID:        t.ID,
				TermID:       bt.ID,
				TermName:     bt.Name,
				RuleDesc:     r.Description,
			})
		}
	}
	return out, nil
}

func (s *MemoryStorage) AppendEvent(ctx context.Context, event *governance.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if seq, ok := s.eventIDs[event.ID]; ok {
		event.Seq = seq
		return nil
	}
	s.seq++
	event.Seq = s.seq

	stored := *event
	stored.Context = copyContext(event.Context)
	stored.Metrics = copyMetrics(event.Metrics)
	s.events = append(s.events, &stored)
	s.eventIDs[event.ID] = stored.Seq
	return nil
}

func (s *MemoryStorage) QueryEvents(ctx context.Context, q *governance.EventQuery) ([]*governance.Event, error) {
	if q == nil {
		q = &governance.EventQuery{}
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	kinds := make(map[governance.EventKind]bool, len(q.Kinds))
	for _, k := range q.Kinds {
		kinds[k] = true
	}

	out := []*governance.Event{}
	for _, e := range s.events {
		if len(kinds) > 0 && !kinds[e.Kind] {
			continue
		}
		if q.EntityType != "" && e.EntityType != q.EntityType {
			continue
		}
		if q.EntityID != "" && e.EntityID != q.EntityID {
			continue
		}
		if q.Since != nil && e.Timestamp.Before(*q.Since) {
			continue
		}
		if q.Until != nil && e.Timestamp.After(*q.Until) {
			continue
		}
		if e.Seq <= q.AfterSeq {
			continue
		}
		c := *e
		c.Context = copyContext(e.Context)
		c.Metrics = copyMetrics(e.Metrics)
		out = append(out, &c)
		if q.Limit > 0 && len(out) >= q.Limit {
			break
		}
	}
	return out, nil
}

func (s *MemoryStorage) InsertAction(ctx context.Context, a *governance.PendingAction) error {
	if !a.Status.Valid() {
		return &governance.ContractError{Field: "status", Message: fmt.Sprintf("unknown action status %q", a.Status)}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.actions[a.ID]; ok {
		return governance.NewStorageError("memory", "insert_action", fmt.Errorf("duplicate action id %s", a.ID))
	}
	s.actions[a.ID] = *a
	return nil
}

func (s *MemoryStorage) ListActions(ctx context.Context, status governance.ActionStatus) ([]*governance.PendingAction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []*governance.PendingAction{}
	for _, a := range s.actions {
		if status != "" && a.Status != status {
			continue
		}
		a := a
		out = append(out, &a)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *MemoryStorage) SetActionStatus(ctx context.Context, id string, status governance.ActionStatus) error {
	if !status.Valid() {
		return &governance.ContractError{Field: "status", Message: fmt.Sprintf("unknown action status %q", status)}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.actions[id]
	if !ok {
		return governance.ErrNotFound
	}
	a.Status = status
	s.actions[id] = a
	return nil
}

func (s *MemoryStorage) DeleteAction(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.actions[id]; !ok {
		return false, nil
	}
	delete(s.actions, id)
	return true, nil
}

func copyContext(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	c := make(map[string]any, len(m))
	for k, v := range m {
		c[k] = v
	}
	return c
}

func copyMetrics(m map[string]float64) map[string]float64 {
	if m == nil {
		return nil
	}
	c := make(map[string]float64, len(m))
	for k, v := range m {
		c[k] = v
	}
	return c
}

var _ governance.Storage = (*MemoryStorage)(nil)
