// Package remediation turns scan findings into a suggestion and a textual
// patch of the offending artifact.
package remediation

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/pmezard/go-difflib/difflib"

	"github.com/unneeks/stewardagent/pkg/scanner"
)

// GenericSuggestion is used when no specific pattern fired.
const GenericSuggestion = "Add rigorous validation upstream."

// Precedence orders patterns for choosing the suggestion.
var Precedence = []scanner.Pattern{
	scanner.PatternUnsafeCast,
	scanner.PatternNullMasking,
	scanner.PatternUnsafeJoin,
}

// Target names the artifact and field under remediation.
type Target struct {
	ArtifactName string
	FieldName    string
	SourceText   string
}

// Remediation is a synthesized proposal.
type Remediation struct {
	// Pattern is the pattern the suggestion addresses; empty for generic.
	Pattern     scanner.Pattern `json:"pattern,omitempty"`
	Suggestion  string          `json:"suggestion"`
	PatchedText string          `json:"patched_text"`
	Diff        string          `json:"diff"`
}

type fix struct {
	suggest func(t Target) string
	re      *regexp.Regexp
	replace func(re *regexp.Regexp, src string) string
	marker  string
}

var (
	castRe     = regexp.MustCompile(`(?i)cast\(\s*([a-z0-9_.]+)\s+as\s+[a-z0-9_ ]+?(?:\([^)]*\))?\s*\)`)
	coalesceRe = regexp.MustCompile(`(?i)(?:coalesce|ifnull)\(\s*([a-z0-9_.]+)\s*,[^)]*\)`)
	joinRe     = regexp.MustCompile(`(?i)\b((?:(?:left|right|full)\s+(?:outer\s+)?|inner\s+|cross\s+)?join)\s+([a-z0-9_.]+)(?:\s+(?:as\s+)?([a-z_][a-z0-9_]*))?`)
)

var joinKeywords = map[string]bool{"on": true, "using": true, "where": true, "left": true, "right": true,
	"inner": true, "full": true, "cross": true, "join": true, "group": true, "order": true}

var fixes = map[scanner.Pattern]fix{
	scanner.PatternUnsafeCast: {
		suggest: func(t Target) string {
			return fmt.Sprintf("Perform validation before CAST transformation in model %s.", t.ArtifactName)
		},
		re:      castRe,
		replace: func(re *regexp.Regexp, src string) string { return re.ReplaceAllString(src, "$1") },
		marker:  "-- REVIEW: remove unsafe CAST",
	},
	scanner.PatternNullMasking: {
		suggest: func(t Target) string {
			return fmt.Sprintf("Address root cause of nulls instead of silencing with COALESCE in %s.", t.ArtifactName)
		},
		re:      coalesceRe,
		replace: func(re *regexp.Regexp, src string) string { return re.ReplaceAllString(src, "$1") },
		marker:  "-- REVIEW: remove null-masking COALESCE",
	},
	scanner.PatternUnsafeJoin: {
		suggest: func(t Target) string {
			return fmt.Sprintf("Enforce distinct validation on `%s` post-join to guarantee rule isn't broken by duplicates.", t.FieldName)
		},
		re:      joinRe,
		replace: dedupeJoins,
		marker:  "-- REVIEW: deduplicate JOIN",
	},
}

// dedupeJoins wraps each joined table in SELECT DISTINCT, keeping its alias.
func dedupeJoins(re *regexp.Regexp, src string) string {
	return re.ReplaceAllStringFunc(src, func(m string) string {
		sub := re.FindStringSubmatch(m)
		join, table, alias := sub[1], sub[2], sub[3]
		trailing := ""
		if alias != "" && joinKeywords[strings.ToLower(alias)] {
			// The "alias" is the next clause keyword; keep it verbatim.
			trailing = m[strings.LastIndex(m, alias)-1:]
			alias = ""
		}
		if alias == "" {
			alias = table[strings.LastIndex(table, ".")+1:]
		}
		return fmt.Sprintf("%s (SELECT DISTINCT * FROM %s) %s%s", join, table, alias, trailing)
	})
}

// Synthesize picks the suggestion by precedence and patches every fired
// pattern in the source. A pattern whose fragment cannot be located gets a
// review marker appended instead.
func Synthesize(findings []string, t Target) *Remediation {
	fired := map[scanner.Pattern]bool{}
	for _, f := range findings {
		if p, ok := scanner.PatternOf(f); ok {
			fired[p] = true
		}
	}

	r := &Remediation{Suggestion: GenericSuggestion, PatchedText: t.SourceText}
	for _, p := range Precedence {
		if fired[p] {
			r.Pattern = p
			r.Suggestion = fixes[p].suggest(t)
			break
		}
	}

	patched := t.SourceText
	for _, p := range Precedence {
		if !fired[p] {
			continue
		}
		f := fixes[p]
		next := f.replace(f.re, patched)
		if next == patched {
			next = strings.TrimRight(patched, "\n") + " " + f.marker
		}
		patched = next
	}
	r.PatchedText = patched

	if patched != t.SourceText {
		r.Diff = UnifiedDiff(t.ArtifactName, t.SourceText, patched)
	}
	return r
}

// UnifiedDiff renders a git-style unified diff of an artifact.
func UnifiedDiff(artifact, before, after string) string {
	diff := difflib.UnifiedDiff{
		A:        difflib.SplitLines(before),
		B:        difflib.SplitLines(after),
		FromFile: "a/models/" + artifact + ".sql",
		ToFile:   "b/models/" + artifact + ".sql",
		Context:  3,
	}
	text, err := difflib.GetUnifiedDiffString(diff)
	if err != nil {
		return ""
	}
	return text
}
