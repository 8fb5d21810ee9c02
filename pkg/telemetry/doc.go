// Package telemetry groups the observability packages of the steward agent.
//
//   - logging: slog setup, context-scoped attributes and secret redaction
//   - metrics: Prometheus collectors for cycles, breaches, proposals,
//     outcomes, reviews and scanner fallbacks
//   - tracing: OpenTelemetry spans for cycles, reviews, reasoning calls and
//     API requests
//   - health: liveness and readiness checks behind /health and /ready
//
// Logging and metrics are configured from the telemetry section of the
// configuration:
//
//	telemetry:
//	  logging:
//	    level: info
//	    format: json
//	  metrics:
//	    enabled: true
//	    namespace: steward
//	  tracing:
//	    enabled: true
//	    endpoint: otel-collector:4317
//	    insecure: true
package telemetry
