package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/unneeks/stewardagent/pkg/governance"
)

// FieldError represents a validation error for a specific configuration field.
type FieldError struct {
	// Field is the dotted path to the configuration field (e.g., "api.port").
	Field string

	// Message is a human-readable error message.
	Message string
}

// Error returns the error message for this field error.
func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationError represents one or more validation errors in a configuration.
type ValidationError struct {
	Errors []FieldError
}

// Error returns a formatted string containing all validation errors.
func (e ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "configuration validation failed"
	}
	if len(e.Errors) == 1 {
		return fmt.Sprintf("configuration validation failed: %s", e.Errors[0].Error())
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("configuration validation failed with %d errors:\n", len(e.Errors)))
	for _, err := range e.Errors {
		sb.WriteString(fmt.Sprintf("  - %s\n", err.Error()))
	}
	return sb.String()
}

// Validate checks the entire configuration. All field errors are collected
// and returned together as a ValidationError.
func Validate(cfg *Config) error {
	var errs []FieldError

	errs = append(errs, validateStorage(&cfg.Storage)...)
	errs = append(errs, validateCycle(&cfg.Cycle)...)
	errs = append(errs, validateScanner(&cfg.Scanner, &cfg.Reasoning)...)
	errs = append(errs, validatePolicy(&cfg.Policy)...)
	errs = append(errs, validateAPI(&cfg.API)...)
	errs = append(errs, validateMCP(&cfg.MCP)...)
	errs = append(errs, validateSimulation(&cfg.Simulation)...)
	errs = append(errs, validateTelemetry(&cfg.Telemetry)...)

	if len(errs) > 0 {
		return ValidationError{Errors: errs}
	}
	return nil
}

func validateStorage(cfg *StorageConfig) []FieldError {
	var errs []FieldError

	switch cfg.Driver {
	case "sqlite3", "sqlite", "pgx", StorageDriverMemory:
	default:
		errs = append(errs, FieldError{
			Field:   "storage.driver",
			Message: fmt.Sprintf("must be one of: sqlite3, sqlite, pgx, memory (got %q)", cfg.Driver),
		})
	}

	if cfg.Driver != StorageDriverMemory && cfg.DSN == "" {
		errs = append(errs, FieldError{Field: "storage.dsn", Message: "is required"})
	}
	if cfg.Driver == "pgx" && cfg.DSN != "" {
		if u, err := url.Parse(cfg.DSN); err != nil || (u.Scheme != "postgres" && u.Scheme != "postgresql") {
			errs = append(errs, FieldError{
				Field:   "storage.dsn",
				Message: "must be a postgres:// URL for the pgx driver",
			})
		}
	}

	if cfg.MaxOpenConns < 0 {
		errs = append(errs, FieldError{Field: "storage.max_open_conns", Message: "must be non-negative"})
	}
	if cfg.MaxIdleConns < 0 {
		errs = append(errs, FieldError{Field: "storage.max_idle_conns", Message: "must be non-negative"})
	}
	if cfg.MaxOpenConns > 0 && cfg.MaxIdleConns > cfg.MaxOpenConns {
		errs = append(errs, FieldError{
			Field:   "storage.max_idle_conns",
			Message: fmt.Sprintf("must not exceed max_open_conns (%d)", cfg.MaxOpenConns),
		})
	}
	if cfg.BusyTimeout < 0 {
		errs = append(errs, FieldError{Field: "storage.busy_timeout", Message: "must be non-negative"})
	}

	return errs
}

func validateCycle(cfg *CycleConfig) []FieldError {
	var errs []FieldError

	if _, err := governance.ParseDate(cfg.BaseDate); err != nil {
		errs = append(errs, FieldError{
			Field:   "cycle.base_date",
			Message: fmt.Sprintf("must be a YYYY-MM-DD date (got %q)", cfg.BaseDate),
		})
	}

	if cfg.Schedule != "" {
		if _, err := cron.ParseStandard(cfg.Schedule); err != nil {
			errs = append(errs, FieldError{
				Field:   "cycle.schedule",
				Message: fmt.Sprintf("invalid cron expression: %v", err),
			})
		}
	}

	return errs
}

func validateScanner(cfg *ScannerConfig, reasoning *ReasoningConfig) []FieldError {
	var errs []FieldError

	switch cfg.Mode {
	case ScannerModeHeuristic:
	case ScannerModeDelegated:
		errs = append(errs, validateReasoning(reasoning)...)
	default:
		errs = append(errs, FieldError{
			Field:   "scanner.mode",
			Message: fmt.Sprintf("must be %q or %q (got %q)", ScannerModeHeuristic, ScannerModeDelegated, cfg.Mode),
		})
	}

	if cfg.Timeout <= 0 {
		errs = append(errs, FieldError{Field: "scanner.timeout", Message: "must be positive"})
	}

	return errs
}

func validateReasoning(cfg *ReasoningConfig) []FieldError {
	var errs []FieldError

	switch cfg.Provider {
	case "anthropic", "openai", "gemini":
	default:
		errs = append(errs, FieldError{
			Field:   "reasoning.provider",
			Message: fmt.Sprintf("must be one of: anthropic, openai, gemini (got %q)", cfg.Provider),
		})
	}

	if cfg.BaseURL != "" {
		u, err := url.Parse(cfg.BaseURL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			errs = append(errs, FieldError{Field: "reasoning.base_url", Message: "must be an absolute URL"})
		}
	}
	if cfg.Timeout <= 0 {
		errs = append(errs, FieldError{Field: "reasoning.timeout", Message: "must be positive"})
	}
	if cfg.MaxRetries < 0 {
		errs = append(errs, FieldError{Field: "reasoning.max_retries", Message: "must be non-negative"})
	}

	return errs
}

func validatePolicy(cfg *PolicyConfig) []FieldError {
	var errs []FieldError

	if cfg.Watch && cfg.OntologyPath == "" {
		errs = append(errs, FieldError{
			Field:   "policy.ontology_path",
			Message: "is required when policy.watch is enabled",
		})
	}
	if cfg.WatchDebounce < 0 || cfg.WatchDebounce > time.Minute {
		errs = append(errs, FieldError{
			Field:   "policy.watch_debounce",
			Message: "must be between 0 and 1m",
		})
	}

	return errs
}

func validateAPI(cfg *APIConfig) []FieldError {
	var errs []FieldError

	if cfg.Host == "" {
		errs = append(errs, FieldError{Field: "api.host", Message: "is required"})
	}
	if cfg.Port < 1 || cfg.Port > 65535 {
		errs = append(errs, FieldError{
			Field:   "api.port",
			Message: fmt.Sprintf("must be between 1 and 65535 (got %d)", cfg.Port),
		})
	}
	for i, origin := range cfg.AllowOrigins {
		if origin == "" {
			errs = append(errs, FieldError{
				Field:   fmt.Sprintf("api.allow_origins[%d]", i),
				Message: "must not be empty",
			})
		}
	}
	if cfg.ShutdownTimeout <= 0 {
		errs = append(errs, FieldError{Field: "api.shutdown_timeout", Message: "must be positive"})
	}

	return errs
}

func validateMCP(cfg *MCPConfig) []FieldError {
	var errs []FieldError
	if cfg.Name == "" {
		errs = append(errs, FieldError{Field: "mcp.name", Message: "is required"})
	}
	if cfg.Version == "" {
		errs = append(errs, FieldError{Field: "mcp.version", Message: "is required"})
	}
	return errs
}

func validateSimulation(cfg *SimulationConfig) []FieldError {
	if cfg.Days < 1 {
		return []FieldError{{
			Field:   "simulation.days",
			Message: fmt.Sprintf("must be at least 1 (got %d)", cfg.Days),
		}}
	}
	return nil
}

func validateTelemetry(cfg *TelemetryConfig) []FieldError {
	var errs []FieldError

	switch strings.ToLower(cfg.Logging.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.level",
			Message: fmt.Sprintf("must be one of: debug, info, warn, error (got %q)", cfg.Logging.Level),
		})
	}

	switch strings.ToLower(cfg.Logging.Format) {
	case "json", "text", "console":
	default:
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.format",
			Message: fmt.Sprintf("must be one of: json, text, console (got %q)", cfg.Logging.Format),
		})
	}

	if cfg.Metrics.Enabled && cfg.Metrics.Namespace == "" {
		errs = append(errs, FieldError{
			Field:   "telemetry.metrics.namespace",
			Message: "is required when metrics are enabled",
		})
	}

	if cfg.Tracing.Enabled {
		if cfg.Tracing.Endpoint == "" {
			errs = append(errs, FieldError{
				Field:   "telemetry.tracing.endpoint",
				Message: "is required when tracing is enabled",
			})
		}
		switch cfg.Tracing.Sampler {
		case "always", "never", "ratio":
		default:
			errs = append(errs, FieldError{
				Field:   "telemetry.tracing.sampler",
				Message: fmt.Sprintf("must be one of: always, never, ratio (got %q)", cfg.Tracing.Sampler),
			})
		}
		if cfg.Tracing.SampleRatio < 0 || cfg.Tracing.SampleRatio > 1 {
			errs = append(errs, FieldError{
				Field:   "telemetry.tracing.sample_ratio",
				Message: fmt.Sprintf("must be between 0 and 1 (got %v)", cfg.Tracing.SampleRatio),
			})
		}
	}

	return errs
}
