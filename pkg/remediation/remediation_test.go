package remediation

import (
	"strings"
	"testing"

	"github.com/unneeks/stewardagent/pkg/scanner"
)

const (
	bronzeSQL = "SELECT application_id, coalesce(income_reported, '0') as income_str FROM ext_application_source"
	silverSQL = "SELECT id, cast(income_str as decimal(18,2)) as verified_income FROM bronze_raw_loans"
	goldSQL   = "SELECT a.id, a.loan_amount, b.status as final_status FROM silver_stg_loans a LEFT JOIN reference_decisions b ON a.id = b.app_id"
)

func TestSynthesize_Precedence(t *testing.T) {
	tests := []struct {
		name        string
		findings    []string
		wantPattern scanner.Pattern
		wantSuggest string
	}{
		{
			name:        "cast beats everything",
			findings:    []string{scanner.MsgUnsafeJoin, scanner.MsgNullMasking, scanner.MsgUnsafeCast},
			wantPattern: scanner.PatternUnsafeCast,
			wantSuggest: "Perform validation before CAST transformation in model m.",
		},
		{
			name:        "null masking beats join",
			findings:    []string{scanner.MsgUnsafeJoin, scanner.MsgNullMasking},
			wantPattern: scanner.PatternNullMasking,
			wantSuggest: "Address root cause of nulls instead of silencing with COALESCE in m.",
		},
		{
			name:        "join alone",
			findings:    []string{scanner.MsgUnsafeJoin},
			wantPattern: scanner.PatternUnsafeJoin,
			wantSuggest: "Enforce distinct validation on `col` post-join to guarantee rule isn't broken by duplicates.",
		},
		{
			name:        "gaps only",
			findings:    nil,
			wantPattern: "",
			wantSuggest: GenericSuggestion,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := Synthesize(tt.findings, Target{ArtifactName: "m", FieldName: "col", SourceText: "SELECT 1"})
			if r.Pattern != tt.wantPattern {
				t.Errorf("Pattern = %q, want %q", r.Pattern, tt.wantPattern)
			}
			if r.Suggestion != tt.wantSuggest {
				t.Errorf("Suggestion = %q, want %q", r.Suggestion, tt.wantSuggest)
			}
		})
	}
}

func TestSynthesize_Patches(t *testing.T) {
	tests := []struct {
		name     string
		finding  string
		source   string
		wantText string
	}{
		{
			name:     "cast removed",
			finding:  scanner.MsgUnsafeCast,
			source:   silverSQL,
			wantText: "SELECT id, income_str as verified_income FROM bronze_raw_loans",
		},
		{
			name:     "coalesce removed",
			finding:  scanner.MsgNullMasking,
			source:   bronzeSQL,
			wantText: "SELECT application_id, income_reported as income_str FROM ext_application_source",
		},
		{
			name:     "ifnull removed",
			finding:  scanner.MsgNullMasking,
			source:   "SELECT IFNULL(x, 0) AS x FROM t",
			wantText: "SELECT x AS x FROM t",
		},
		{
			name:     "join deduplicated keeping alias",
			finding:  scanner.MsgUnsafeJoin,
			source:   goldSQL,
			wantText: "SELECT a.id, a.loan_amount, b.status as final_status FROM silver_stg_loans a LEFT JOIN (SELECT DISTINCT * FROM reference_decisions) b ON a.id = b.app_id",
		},
		{
			name:     "join without alias",
			finding:  scanner.MsgUnsafeJoin,
			source:   "SELECT * FROM a JOIN ref ON a.k = ref.k",
			wantText: "SELECT * FROM a JOIN (SELECT DISTINCT * FROM ref) ref ON a.k = ref.k",
		},
		{
			name:     "unlocatable fragment gets a marker",
			finding:  scanner.MsgUnsafeCast,
			source:   "SELECT x::int FROM t",
			wantText: "SELECT x::int FROM t -- REVIEW: remove unsafe CAST",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := Synthesize([]string{tt.finding}, Target{ArtifactName: "m", FieldName: "c", SourceText: tt.source})
			if r.PatchedText != tt.wantText {
				t.Errorf("PatchedText = %q\nwant          %q", r.PatchedText, tt.wantText)
			}
			if r.Diff == "" {
				t.Error("Expected a diff")
			}
		})
	}
}

func TestSynthesize_NoPatchNoDiff(t *testing.T) {
	r := Synthesize(nil, Target{ArtifactName: "m", SourceText: silverSQL})
	if r.PatchedText != silverSQL {
		t.Errorf("PatchedText changed without findings: %q", r.PatchedText)
	}
	if r.Diff != "" {
		t.Errorf("Expected empty diff, got %q", r.Diff)
	}
}

func TestUnifiedDiff(t *testing.T) {
	diff := UnifiedDiff("silver_stg_loans", silverSQL, "SELECT id, income_str as verified_income FROM bronze_raw_loans")
	for _, want := range []string{
		"--- a/models/silver_stg_loans.sql",
		"+++ b/models/silver_stg_loans.sql",
		"-" + silverSQL,
		"+SELECT id, income_str as verified_income FROM bronze_raw_loans",
	} {
		if !strings.Contains(diff, want) {
			t.Errorf("diff missing %q:\n%s", want, diff)
		}
	}
}
