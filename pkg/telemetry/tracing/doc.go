// Package tracing provides OpenTelemetry tracing for the steward agent.
//
// A cycle produces one root span ("investigation.cycle") with children for
// the outcome sweep and the risk scan; a delegated scan adds a span per
// reasoning request, and the read API and the changeset reviewer start
// their own spans. Spans are exported over OTLP/gRPC when
// telemetry.tracing.enabled is set; otherwise every tracer is a no-op.
//
// # Setup
//
//	t, err := tracing.New(&cfg.Telemetry.Tracing, version)
//	if err != nil {
//	    return err
//	}
//	defer t.Shutdown(context.Background())
//
//	orch, err := investigation.New(investigation.Dependencies{
//	    ...
//	    Tracer: t.Tracer("investigation"),
//	})
//
// # Sampling
//
// The sampler is always, never or ratio (TraceIDRatioBased), wrapped in
// ParentBased so a sampled cycle is recorded in full.
//
// # Propagation
//
// The W3C traceparent header is extracted from read API requests and
// injected into reasoning service requests.
package tracing
