package review

import (
	"fmt"
	"strings"
)

// RenderMarkdown renders a review as a pull-request comment.
func RenderMarkdown(res *Result) string {
	var b strings.Builder
	req := res.Request

	b.WriteString("## Steward Agent Code Review\n\n")
	fmt.Fprintf(&b, "**PR:** %s\n", req.Title)
	fmt.Fprintf(&b, "**Type:** %s Update on `%s`\n\n", capitalize(string(req.Type)), req.Entity)

	b.WriteString("### Lineage Impact Analysis\n")
	if len(res.Impact) == 0 {
		b.WriteString("No direct lineage impact found to regulated Business Terms.\n\n")
	} else {
		b.WriteString("I traced this change through our data semantic graph and found the following impacted paths:\n")
		for _, p := range res.Impact {
			if req.Type == ChangesetCode {
				fmt.Fprintf(&b, "- DB Model `%s.%s` -> TDE `%s` -> Business Term **%s** (governed by rule: _%s_)\n",
					p.ArtifactName, p.FieldName, p.TDEID, p.TermName, p.RuleDesc)
			} else {
				fmt.Fprintf(&b, "- Policy **%s** -> TDE `%s` -> downstream DB Model `%s.%s`\n",
					p.TermName, p.TDEID, p.ArtifactName, p.FieldName)
			}
		}
		b.WriteString("\n")
	}

	b.WriteString("### LLM Reasoning & Observations\n")
	for _, o := range res.Observations {
		fmt.Fprintf(&b, "- %s\n", o)
	}
	b.WriteString("\n")

	b.WriteString("### Enforcement Opportunities\n")
	if len(res.Recommendations) == 0 {
		b.WriteString("No specific enforcement actions required.\n")
		return b.String()
	}
	b.WriteString("I have recorded the following recommendations as pending actions so that they can be tracked during the daily governance runs:\n")
	for _, r := range res.Recommendations {
		fmt.Fprintf(&b, "- [Tracked `%s`] For `%s`: %s\n", r.ActionID, r.ArtifactName, r.Suggestion)
	}
	return b.String()
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
