package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Config contains metrics configuration.
type Config struct {
	Enabled   bool
	Namespace string
	Subsystem string

	// RiskBuckets are the histogram buckets for risk scores.
	RiskBuckets []float64
}

// Collector owns a private registry and every governance metric.
type Collector struct {
	config   *Config
	registry *prometheus.Registry

	cycles        *prometheus.CounterVec
	cycleDuration prometheus.Histogram
	breaches      prometheus.Counter
	riskScore     prometheus.Histogram
	proposals     *prometheus.CounterVec
	outcomes      *prometheus.CounterVec
	fallbacks     *prometheus.CounterVec
	events        *prometheus.CounterVec
	reviews       *prometheus.CounterVec
}

// NewCollector creates and registers the collectors. A nil registry gets a
// fresh private one.
func NewCollector(cfg *Config, registry *prometheus.Registry) *Collector {
	if cfg == nil {
		cfg = &Config{Enabled: true}
	}
	if registry == nil {
		registry = prometheus.NewRegistry()
	}
	if cfg.Namespace == "" {
		cfg.Namespace = "steward"
	}
	if cfg.Subsystem == "" {
		cfg.Subsystem = "agent"
	}
	if len(cfg.RiskBuckets) == 0 {
		// risk = criticality * shortfall * 1.1, so realistic values are small
		cfg.RiskBuckets = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.15, 0.25, 0.5, 1.1}
	}

	opts := func(name, help string) prometheus.Opts {
		return prometheus.Opts{Namespace: cfg.Namespace, Subsystem: cfg.Subsystem, Name: name, Help: help}
	}

	c := &Collector{
		config:   cfg,
		registry: registry,
		cycles: prometheus.NewCounterVec(prometheus.CounterOpts(opts("cycles_total", "Investigation cycles by outcome")),
			[]string{"outcome"}),
		cycleDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "cycle_duration_seconds",
			Help:      "Wall time of one investigation cycle",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 9),
		}),
		breaches: prometheus.NewCounter(prometheus.CounterOpts(opts("breaches_total", "Rule breaches detected"))),
		riskScore: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "risk_score",
			Help:      "Assessed risk score per breach",
			Buckets:   cfg.RiskBuckets,
		}),
		proposals: prometheus.NewCounterVec(prometheus.CounterOpts(opts("proposals_total", "Remediations proposed by pattern")),
			[]string{"pattern"}),
		outcomes: prometheus.NewCounterVec(prometheus.CounterOpts(opts("outcomes_total", "Applied actions evaluated by result")),
			[]string{"result"}),
		fallbacks: prometheus.NewCounterVec(prometheus.CounterOpts(opts("scanner_fallbacks_total", "Delegated scans answered by heuristics")),
			[]string{"reason"}),
		events: prometheus.NewCounterVec(prometheus.CounterOpts(opts("events_total", "Events appended by kind")),
			[]string{"kind"}),
		reviews: prometheus.NewCounterVec(prometheus.CounterOpts(opts("reviews_total", "Changeset reviews by type")),
			[]string{"type"}),
	}

	registry.MustRegister(
		c.cycles,
		c.cycleDuration,
		c.breaches,
		c.riskScore,
		c.proposals,
		c.outcomes,
		c.fallbacks,
		c.events,
		c.reviews,
	)
	return c
}

func (c *Collector) enabled() bool {
	return c != nil && c.config.Enabled
}

// Registry returns the collector's registry.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// RecordCycle records a finished cycle.
func (c *Collector) RecordCycle(outcome string, d time.Duration) {
	if !c.enabled() {
		return
	}
	c.cycles.WithLabelValues(outcome).Inc()
	c.cycleDuration.Observe(d.Seconds())
}

// RecordBreach records one breach and its risk score.
func (c *Collector) RecordBreach(risk float64) {
	if !c.enabled() {
		return
	}
	c.breaches.Inc()
	c.riskScore.Observe(risk)
}

// RecordProposal records a persisted remediation.
func (c *Collector) RecordProposal(pattern string) {
	if !c.enabled() {
		return
	}
	if pattern == "" {
		pattern = "generic"
	}
	c.proposals.WithLabelValues(pattern).Inc()
}

// RecordOutcome records an evaluated action.
func (c *Collector) RecordOutcome(improved bool) {
	if !c.enabled() {
		return
	}
	result := "not_improved"
	if improved {
		result = "improved"
	}
	c.outcomes.WithLabelValues(result).Inc()
}

// RecordScannerFallback records a delegated scan answered by heuristics.
func (c *Collector) RecordScannerFallback(reason string) {
	if !c.enabled() {
		return
	}
	c.fallbacks.WithLabelValues(reason).Inc()
}

// RecordEvent records an appended event.
func (c *Collector) RecordEvent(kind string) {
	if !c.enabled() {
		return
	}
	c.events.WithLabelValues(kind).Inc()
}

// RecordReview records a changeset review.
func (c *Collector) RecordReview(changesetType string) {
	if !c.enabled() {
		return
	}
	c.reviews.WithLabelValues(changesetType).Inc()
}

// Handler returns the Prometheus exposition handler for the registry.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
		ErrorHandling:     promhttp.ContinueOnError,
	})
}
