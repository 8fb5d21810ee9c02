// Package metrics provides Prometheus metrics for the governance agent.
//
// # Metrics
//
//   - steward_agent_cycles_total{outcome}: cycles by outcome (no_breach,
//     no_lineage, no_action, proposed)
//   - steward_agent_cycle_duration_seconds: wall time per cycle
//   - steward_agent_breaches_total: breaches detected
//   - steward_agent_risk_score: distribution of assessed risk
//   - steward_agent_proposals_total{pattern}: remediations proposed
//   - steward_agent_outcomes_total{result}: applied actions evaluated
//   - steward_agent_scanner_fallbacks_total{reason}: heuristic fallbacks
//   - steward_agent_events_total{kind}: events appended
//   - steward_agent_reviews_total{type}: changeset reviews
//
// Every Record method is safe on a nil *Collector, so components can be
// built without metrics in tests.
//
// # Usage
//
//	collector := metrics.NewCollector(&metrics.Config{Enabled: true}, nil)
//	http.Handle("/metrics", collector.Handler())
package metrics
