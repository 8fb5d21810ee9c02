package cli

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/unneeks/stewardagent/pkg/governance"
)

func TestPrintTrace(t *testing.T) {
	events := []*governance.Event{
		{
			Timestamp:   time.Date(2026, 1, 2, 9, 0, 0, 0, time.UTC),
			Kind:        governance.KindRuleBreached,
			EntityType:  governance.EntityRule,
			EntityName:  "rule_01",
			Explanation: "Score 0.82 below threshold 0.95",
		},
		{
			Timestamp:  time.Date(2026, 1, 2, 9, 0, 1, 0, time.UTC),
			Kind:       governance.KindFocusSelected,
			EntityType: governance.EntityTDE,
			EntityName: "tde_01",
		},
	}

	buf := &bytes.Buffer{}
	if err := PrintTrace(buf, events); err != nil {
		t.Fatalf("PrintTrace() error = %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}
	for _, want := range []string{"2026-01-02T09:00:00Z", "rule_breached", "rule: rule_01", "below threshold"} {
		if !strings.Contains(lines[0], want) {
			t.Errorf("line %q missing %q", lines[0], want)
		}
	}
	if !strings.Contains(lines[1], "focus_selected") {
		t.Errorf("line %q missing kind", lines[1])
	}
}
