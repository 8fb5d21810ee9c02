package lineage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/unneeks/stewardagent/pkg/governance"
	"github.com/unneeks/stewardagent/pkg/governance/storage"
)

func newStore(t *testing.T) *storage.MemoryStorage {
	t.Helper()
	ctx := context.Background()
	s := storage.NewMemoryStorage()
	must := func(err error) {
		t.Helper()
		if err != nil {
			t.Fatalf("fixture setup failed: %v", err)
		}
	}
	must(s.UpsertTerm(ctx, &governance.BusinessTerm{ID: "BT_001", Name: "Applicant Income", Criticality: 0.95}))
	must(s.UpsertRule(ctx, &governance.Rule{ID: "R_001", TermID: "BT_001", Description: "income positive", Threshold: 0.99}))
	must(s.UpsertTDE(ctx, &governance.TrackedDataElement{ID: "TDE_002", Name: "stg.verified_income", TermID: "BT_001"}))
	must(s.UpsertTDE(ctx, &governance.TrackedDataElement{ID: "TDE_009", Name: "orphan", TermID: "BT_001"}))
	must(s.UpsertLineage(ctx, &governance.LineageMapping{TDEID: "TDE_002", ArtifactName: "silver_stg_loans", FieldName: "verified_income"}))
	must(s.UpsertLineage(ctx, &governance.LineageMapping{TDEID: "TDE_009", ArtifactName: "missing_model", FieldName: "x"}))
	must(s.UpsertArtifact(ctx, &governance.Artifact{Name: "silver_stg_loans", SourceText: "SELECT cast(income_str as decimal(18,2)) FROM bronze_raw_loans"}))
	return s
}

func TestResolver_Resolve(t *testing.T) {
	tests := []struct {
		name     string
		tdeID    string
		wantHit  bool
		wantText string
	}{
		{"mapped with source", "TDE_002", true, "SELECT cast(income_str as decimal(18,2)) FROM bronze_raw_loans"},
		{"no mapping", "TDE_404", false, ""},
		{"mapping without source", "TDE_009", false, ""},
	}

	r := NewResolver(newStore(t))
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			trace, ok, err := r.Resolve(context.Background(), tt.tdeID)
			if err != nil {
				t.Fatalf("Resolve() error = %v", err)
			}
			if ok != tt.wantHit {
				t.Fatalf("Resolve() hit = %v, want %v", ok, tt.wantHit)
			}
			if ok && trace.SourceText != tt.wantText {
				t.Errorf("SourceText = %q, want %q", trace.SourceText, tt.wantText)
			}
		})
	}
}

func TestResolver_ArtifactDirOverride(t *testing.T) {
	dir := t.TempDir()
	onDisk := "SELECT id, income_str AS verified_income FROM bronze_raw_loans\n"
	if err := os.WriteFile(filepath.Join(dir, "silver_stg_loans.sql"), []byte(onDisk), 0o644); err != nil {
		t.Fatalf("write artifact: %v", err)
	}

	r := NewResolver(newStore(t), WithArtifactDir(dir))
	trace, ok, err := r.Resolve(context.Background(), "TDE_002")
	if err != nil || !ok {
		t.Fatalf("Resolve() = %v, %v", ok, err)
	}
	if trace.SourceText != onDisk {
		t.Errorf("Expected on-disk text, got %q", trace.SourceText)
	}
	if trace.FieldName != "verified_income" {
		t.Errorf("FieldName = %q", trace.FieldName)
	}

	// Files absent from the directory fall back to the store.
	r2 := NewResolver(newStore(t), WithArtifactDir(t.TempDir()))
	trace, ok, _ = r2.Resolve(context.Background(), "TDE_002")
	if !ok || trace.SourcePath != "" {
		t.Errorf("Expected stored source fallback, got %+v", trace)
	}
}

func TestResolver_Impact(t *testing.T) {
	r := NewResolver(newStore(t))
	paths, err := r.ImpactOfTerm(context.Background(), "Applicant Income")
	if err != nil {
		t.Fatalf("ImpactOfTerm() failed: %v", err)
	}
	if len(paths) != 2 {
		t.Errorf("Expected 2 paths, got %d", len(paths))
	}

	up, err := r.ImpactOfArtifact(context.Background(), "silver_stg_loans")
	if err != nil {
		t.Fatalf("ImpactOfArtifact() failed: %v", err)
	}
	if len(up) != 1 || up[0].RuleDesc != "income positive" {
		t.Errorf("Unexpected upstream impact: %v", up)
	}
}
