// Package scanner inspects transformation artifact text for risky
// patterns: type coercion, null masking and join fan-out.
package scanner

import (
	"context"
	"regexp"
	"sort"
	"strings"
)

// Scanner returns the de-duplicated findings for an artifact's text.
type Scanner interface {
	Scan(ctx context.Context, artifactText string) ([]string, error)
}

// Pattern identifies a risk category.
type Pattern string

const (
	PatternUnsafeCast  Pattern = "unsafe_cast"
	PatternNullMasking Pattern = "null_masking"
	PatternUnsafeJoin  Pattern = "unsafe_join"
)

// Canonical finding messages, one per pattern.
const (
	MsgUnsafeCast  = "CAST detected: Potential precision loss or type mismatch."
	MsgNullMasking = "COALESCE detected: Potential obfuscation of null values."
	MsgUnsafeJoin  = "JOIN detected: Potential fan-out or row loss risk."
)

// Rule is one row of the heuristic table.
type Rule struct {
	Pattern Pattern
	Message string
	Match   func(lower string) bool
}

var joinPattern = regexp.MustCompile(`(^|\s)join(\s|$)`)

// DefaultRules is the heuristic table. Match receives lower-cased text.
var DefaultRules = []Rule{
	{
		Pattern: PatternUnsafeCast,
		Message: MsgUnsafeCast,
		Match:   func(s string) bool { return strings.Contains(s, "cast(") },
	},
	{
		Pattern: PatternNullMasking,
		Message: MsgNullMasking,
		Match: func(s string) bool {
			return strings.Contains(s, "coalesce(") || strings.Contains(s, "ifnull(")
		},
	},
	{
		Pattern: PatternUnsafeJoin,
		Message: MsgUnsafeJoin,
		Match:   joinPattern.MatchString,
	},
}

var messagePatterns = map[string]Pattern{
	MsgUnsafeCast:  PatternUnsafeCast,
	MsgNullMasking: PatternNullMasking,
	MsgUnsafeJoin:  PatternUnsafeJoin,
}

// PatternOf maps a canonical finding back to its pattern.
func PatternOf(finding string) (Pattern, bool) {
	p, ok := messagePatterns[finding]
	return p, ok
}

// Heuristic is the deterministic local scanner.
type Heuristic struct {
	rules []Rule
}

// NewHeuristic creates a Heuristic over DefaultRules.
func NewHeuristic() *Heuristic {
	return &Heuristic{rules: DefaultRules}
}

// Scan never fails. Findings are sorted.
func (h *Heuristic) Scan(ctx context.Context, artifactText string) ([]string, error) {
	return h.scan(artifactText), nil
}

func (h *Heuristic) scan(text string) []string {
	lower := strings.ToLower(text)
	found := map[string]struct{}{}
	for _, r := range h.rules {
		if r.Match(lower) {
			found[r.Message] = struct{}{}
		}
	}
	return sortedKeys(found)
}

func sortedKeys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
