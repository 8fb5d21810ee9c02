package policy

import "strings"

// Checker reports the required validations a rule description misses.
type Checker struct {
	ontology *Ontology
}

// NewChecker creates a Checker. A nil ontology uses DefaultOntology.
func NewChecker(o *Ontology) *Checker {
	if o == nil {
		o = DefaultOntology()
	}
	return &Checker{ontology: o}
}

// Ontology returns the ontology the checker reads.
func (c *Checker) Ontology() *Ontology {
	return c.ontology
}

// Check returns the missing validation labels for category, in ontology
// order. An unknown category cannot be verified and yields no gaps.
func (c *Checker) Check(category, ruleDescription string) []string {
	required, ok := c.ontology.Required(category)
	if !ok {
		return []string{}
	}

	desc := strings.ToLower(ruleDescription)
	gaps := []string{}
	seen := map[string]bool{}
	for _, label := range required {
		if seen[label] {
			continue
		}
		seen[label] = true
		if !Covers(desc, label) {
			gaps = append(gaps, label)
		}
	}
	return gaps
}

var separatorReplacer = strings.NewReplacer("_", " ", "-", " ")

// Covers reports whether a lower-cased description mentions a validation
// label, literally or with separators read as spaces.
func Covers(lowerDesc, label string) bool {
	label = strings.ToLower(label)
	return strings.Contains(lowerDesc, label) ||
		strings.Contains(lowerDesc, separatorReplacer.Replace(label))
}

// DescribeGap renders a gap label for traces and reports.
func DescribeGap(label string) string {
	return "Missing required validation: " + label
}
