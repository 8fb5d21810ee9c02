// Package semantic infers the semantic category of a column from its name
// and the governing rule's description.
package semantic

import "strings"

// Unknown is returned when no keyword matches.
const Unknown = "unknown"

// Category is one row of the keyword table: the first row with any keyword
// present in the text wins.
type Category struct {
	Name     string
	Keywords []string
}

// DefaultCategories is the fixed vocabulary, in match order.
var DefaultCategories = []Category{
	{Name: "income", Keywords: []string{"income"}},
	{Name: "loan_amount", Keywords: []string{"amount", "loan"}},
	{Name: "status", Keywords: []string{"status"}},
	{Name: "id", Keywords: []string{"id", "identifier"}},
}

// Infer classifies a column using DefaultCategories.
func Infer(columnName, ruleDescription string) string {
	return InferWith(DefaultCategories, columnName, ruleDescription)
}

// InferWith classifies a column against a custom table.
func InferWith(table []Category, columnName, ruleDescription string) string {
	text := strings.ToLower(columnName + " " + ruleDescription)
	for _, c := range table {
		for _, kw := range c.Keywords {
			if strings.Contains(text, kw) {
				return c.Name
			}
		}
	}
	return Unknown
}
