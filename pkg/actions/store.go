// Package actions persists remediation proposals between cycles. Pending
// actions are the only state the engine carries from one day to the next.
package actions

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/unneeks/stewardagent/pkg/governance"
)

// Store is the pending action store.
type Store struct {
	backend governance.ActionStore
	now     func() time.Time
	logger  *slog.Logger
}

// NewStore creates a Store over backend.
func NewStore(backend governance.ActionStore) *Store {
	return &Store{
		backend: backend,
		now:     time.Now,
		logger:  slog.Default().With("component", "actions"),
	}
}

// Propose records a new open action and returns its ID.
func (s *Store) Propose(ctx context.Context, tdeID, artifact, suggestion string) (string, error) {
	if tdeID == "" || artifact == "" {
		return "", &governance.ContractError{Field: "action", Message: "tde and artifact are required"}
	}
	a := &governance.PendingAction{
		ID:           uuid.New().String(),
		TDEID:        tdeID,
		ArtifactName: artifact,
		Suggestion:   suggestion,
		Status:       governance.ActionOpen,
		CreatedAt:    s.now().UTC(),
	}
	if err := s.backend.InsertAction(ctx, a); err != nil {
		return "", err
	}
	s.logger.Info("action proposed", "action_id", a.ID, "tde_id", tdeID, "model", artifact)
	return a.ID, nil
}

// ListApplied returns actions an external actor has flagged applied.
func (s *Store) ListApplied(ctx context.Context) ([]*governance.PendingAction, error) {
	return s.backend.ListActions(ctx, governance.ActionApplied)
}

// List returns actions with the given status, or all when status is empty.
func (s *Store) List(ctx context.Context, status governance.ActionStatus) ([]*governance.PendingAction, error) {
	if status != "" && !status.Valid() {
		return nil, &governance.ContractError{Field: "status", Message: fmt.Sprintf("unknown action status %q", status)}
	}
	return s.backend.ListActions(ctx, status)
}

// Apply flips an action to applied. It is the external actor's operation;
// the engine itself never calls it.
func (s *Store) Apply(ctx context.Context, id string) error {
	if err := s.backend.SetActionStatus(ctx, id, governance.ActionApplied); err != nil {
		if errors.Is(err, governance.ErrNotFound) {
			return fmt.Errorf("action %s: %w", id, err)
		}
		return err
	}
	s.logger.Info("action applied", "action_id", id)
	return nil
}

// Remove deletes an action. Removing an absent action is a no-op.
func (s *Store) Remove(ctx context.Context, id string) error {
	removed, err := s.backend.DeleteAction(ctx, id)
	if err != nil {
		return err
	}
	if removed {
		s.logger.Debug("action removed", "action_id", id)
	}
	return nil
}
