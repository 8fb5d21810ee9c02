package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func testCollector() *Collector {
	return NewCollector(&Config{Enabled: true, Namespace: "test", Subsystem: "agent"}, prometheus.NewRegistry())
}

func TestCollector_RecordCycle(t *testing.T) {
	c := testCollector()
	c.RecordCycle("no_breach", 10*time.Millisecond)
	c.RecordCycle("proposed", 20*time.Millisecond)
	c.RecordCycle("proposed", 20*time.Millisecond)

	if got := testutil.ToFloat64(c.cycles.WithLabelValues("proposed")); got != 2 {
		t.Errorf("proposed cycles = %v, want 2", got)
	}
	if got := testutil.ToFloat64(c.cycles.WithLabelValues("no_breach")); got != 1 {
		t.Errorf("no_breach cycles = %v, want 1", got)
	}
}

func TestCollector_RecordBreachAndOutcome(t *testing.T) {
	c := testCollector()
	c.RecordBreach(0.1463)
	c.RecordBreach(0.02)
	c.RecordOutcome(true)
	c.RecordOutcome(false)
	c.RecordProposal("")

	if got := testutil.ToFloat64(c.breaches); got != 2 {
		t.Errorf("breaches = %v, want 2", got)
	}
	if got := testutil.ToFloat64(c.outcomes.WithLabelValues("improved")); got != 1 {
		t.Errorf("improved outcomes = %v, want 1", got)
	}
	if got := testutil.ToFloat64(c.proposals.WithLabelValues("generic")); got != 1 {
		t.Errorf("generic proposals = %v, want 1", got)
	}
	if n := testutil.CollectAndCount(c.riskScore); n != 1 {
		t.Errorf("risk histogram series = %d, want 1", n)
	}
}

func TestCollector_Disabled(t *testing.T) {
	c := NewCollector(&Config{Enabled: false}, nil)
	c.RecordEvent("rule_breached")
	if got := testutil.ToFloat64(c.events.WithLabelValues("rule_breached")); got != 0 {
		t.Errorf("disabled collector recorded %v", got)
	}
}

func TestCollector_NilSafe(t *testing.T) {
	var c *Collector
	c.RecordCycle("x", time.Second)
	c.RecordBreach(1)
	c.RecordProposal("p")
	c.RecordOutcome(true)
	c.RecordScannerFallback("timeout")
	c.RecordEvent("k")
	c.RecordReview("code")
}

func TestCollector_Handler(t *testing.T) {
	c := testCollector()
	c.RecordScannerFallback("timeout")

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)
	if !strings.Contains(string(body), `test_agent_scanner_fallbacks_total{reason="timeout"} 1`) {
		t.Errorf("metrics output missing fallback counter:\n%s", body)
	}
}
