package actions

import (
	"context"
	"errors"
	"testing"

	"github.com/unneeks/stewardagent/pkg/governance"
	"github.com/unneeks/stewardagent/pkg/governance/storage"
)

func TestStore_Lifecycle(t *testing.T) {
	ctx := context.Background()
	s := NewStore(storage.NewMemoryStorage())

	id, err := s.Propose(ctx, "TDE_002", "silver_stg_loans", "Perform validation before CAST transformation in model silver_stg_loans.")
	if err != nil {
		t.Fatalf("Propose() failed: %v", err)
	}
	if id == "" {
		t.Fatal("Expected an action ID")
	}

	applied, err := s.ListApplied(ctx)
	if err != nil {
		t.Fatalf("ListApplied() failed: %v", err)
	}
	if len(applied) != 0 {
		t.Fatalf("Open action must not be listed as applied, got %d", len(applied))
	}

	if err := s.Apply(ctx, id); err != nil {
		t.Fatalf("Apply() failed: %v", err)
	}
	applied, _ = s.ListApplied(ctx)
	if len(applied) != 1 || applied[0].ID != id {
		t.Fatalf("Expected applied action %s, got %v", id, applied)
	}
	if applied[0].Status != governance.ActionApplied {
		t.Errorf("Expected status applied, got %s", applied[0].Status)
	}

	if err := s.Remove(ctx, id); err != nil {
		t.Fatalf("Remove() failed: %v", err)
	}
	if err := s.Remove(ctx, id); err != nil {
		t.Errorf("second Remove() should be a no-op, got %v", err)
	}
	applied, _ = s.ListApplied(ctx)
	if len(applied) != 0 {
		t.Errorf("Expected no applied actions after removal, got %d", len(applied))
	}
}

func TestStore_ApplyUnknown(t *testing.T) {
	s := NewStore(storage.NewMemoryStorage())
	err := s.Apply(context.Background(), "nope")
	if !errors.Is(err, governance.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestStore_ProposeValidates(t *testing.T) {
	s := NewStore(storage.NewMemoryStorage())
	if _, err := s.Propose(context.Background(), "", "m", "x"); !governance.IsContractError(err) {
		t.Errorf("Expected ContractError, got %v", err)
	}
}

func TestStore_ListByStatus(t *testing.T) {
	ctx := context.Background()
	s := NewStore(storage.NewMemoryStorage())
	a, _ := s.Propose(ctx, "TDE_001", "bronze_raw_loans", "x")
	_, _ = s.Propose(ctx, "TDE_003", "gold_fct_approvals", "y")
	if err := s.Apply(ctx, a); err != nil {
		t.Fatalf("Apply() failed: %v", err)
	}

	open, err := s.List(ctx, governance.ActionOpen)
	if err != nil {
		t.Fatalf("List() failed: %v", err)
	}
	if len(open) != 1 || open[0].TDEID != "TDE_003" {
		t.Errorf("Expected one open action for TDE_003, got %v", open)
	}
	all, _ := s.List(ctx, "")
	if len(all) != 2 {
		t.Errorf("Expected 2 actions, got %d", len(all))
	}
	if _, err := s.List(ctx, "closed"); !governance.IsContractError(err) {
		t.Errorf("Expected ContractError for unknown status, got %v", err)
	}
}
