package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/unneeks/stewardagent/pkg/governance"
)

var (
	timestampStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))
	entityStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#5B8DEF"))
	headingStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#F7B801"))

	kindStyles = map[governance.EventKind]lipgloss.Style{
		governance.KindRuleBreached:          lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B")).Bold(true),
		governance.KindRiskAssessed:          lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B")),
		governance.KindPolicyGapDetected:     lipgloss.NewStyle().Foreground(lipgloss.Color("#F7B801")).Bold(true),
		governance.KindRecommendationCreated: lipgloss.NewStyle().Foreground(lipgloss.Color("#4CAF50")).Bold(true),
		governance.KindOutcomeMeasured:       lipgloss.NewStyle().Foreground(lipgloss.Color("#4CAF50")),
		governance.KindLearningUpdated:       lipgloss.NewStyle().Foreground(lipgloss.Color("#4CAF50")),
	}
	defaultKindStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#CCCCCC"))
)

// StyledTrace renders the console line for an event with colors. Colors are
// dropped automatically when the output is not a terminal.
func StyledTrace(e *governance.Event) string {
	style, ok := kindStyles[e.Kind]
	if !ok {
		style = defaultKindStyle
	}
	return fmt.Sprintf("%s EVENT: %s | %s | %s",
		timestampStyle.Render("["+e.Timestamp.Format(time.RFC3339)+"]"),
		style.Render(string(e.Kind)),
		entityStyle.Render(e.EntityType+": "+e.EntityName),
		e.Explanation)
}

// Heading renders a section heading.
func Heading(s string) string {
	return headingStyle.Render(s)
}

// PrintTrace writes the styled trace of each event to w.
func PrintTrace(w io.Writer, events []*governance.Event) error {
	for _, e := range events {
		if _, err := fmt.Fprintln(w, StyledTrace(e)); err != nil {
			return err
		}
	}
	return nil
}
