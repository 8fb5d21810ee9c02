package config

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestValidate_Defaults(t *testing.T) {
	if err := Validate(Default()); err != nil {
		t.Fatalf("default config should be valid: %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"memory driver needs no dsn", func(c *Config) { c.Storage.Driver = StorageDriverMemory; c.Storage.DSN = "" }, ""},
		{"pgx with url", func(c *Config) { c.Storage.Driver = "pgx"; c.Storage.DSN = "postgres://u:p@localhost/steward" }, ""},
		{"pgx with file path", func(c *Config) { c.Storage.Driver = "pgx"; c.Storage.DSN = "data/steward.db" }, "storage.dsn"},
		{"empty dsn", func(c *Config) { c.Storage.DSN = "" }, "storage.dsn"},
		{"idle above open", func(c *Config) { c.Storage.MaxIdleConns = 20 }, "storage.max_idle_conns"},
		{"bad base date", func(c *Config) { c.Cycle.BaseDate = "2026-13-01" }, "cycle.base_date"},
		{"valid schedule", func(c *Config) { c.Cycle.Schedule = "@daily" }, ""},
		{"bad schedule", func(c *Config) { c.Cycle.Schedule = "61 * * * *" }, "cycle.schedule"},
		{"delegated bad provider", func(c *Config) {
			c.Scanner.Mode = ScannerModeDelegated
			c.Reasoning.Provider = "mystery"
		}, "reasoning.provider"},
		{"heuristic ignores provider", func(c *Config) { c.Reasoning.Provider = "mystery" }, ""},
		{"delegated relative base url", func(c *Config) {
			c.Scanner.Mode = ScannerModeDelegated
			c.Reasoning.BaseURL = "/v1"
		}, "reasoning.base_url"},
		{"zero scanner timeout", func(c *Config) { c.Scanner.Timeout = 0 }, "scanner.timeout"},
		{"watch without path", func(c *Config) { c.Policy.Watch = true }, "policy.ontology_path"},
		{"huge debounce", func(c *Config) { c.Policy.WatchDebounce = time.Hour }, "policy.watch_debounce"},
		{"empty host", func(c *Config) { c.API.Host = "" }, "api.host"},
		{"empty origin", func(c *Config) { c.API.AllowOrigins = []string{"*", ""} }, "api.allow_origins[1]"},
		{"empty mcp name", func(c *Config) { c.MCP.Name = "" }, "mcp.name"},
		{"zero days", func(c *Config) { c.Simulation.Days = 0 }, "simulation.days"},
		{"bad log level", func(c *Config) { c.Telemetry.Logging.Level = "verbose" }, "telemetry.logging.level"},
		{"console format", func(c *Config) { c.Telemetry.Logging.Format = "console" }, ""},
		{"bad log format", func(c *Config) { c.Telemetry.Logging.Format = "xml" }, "telemetry.logging.format"},
		{"tracing disabled ignores sampler", func(c *Config) { c.Telemetry.Tracing.Sampler = "sometimes" }, ""},
		{"tracing bad sampler", func(c *Config) {
			c.Telemetry.Tracing.Enabled = true
			c.Telemetry.Tracing.Sampler = "sometimes"
		}, "telemetry.tracing.sampler"},
		{"tracing ratio out of range", func(c *Config) {
			c.Telemetry.Tracing.Enabled = true
			c.Telemetry.Tracing.Sampler = "ratio"
			c.Telemetry.Tracing.SampleRatio = 1.5
		}, "telemetry.tracing.sample_ratio"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := Validate(cfg)

			if tt.field == "" {
				if err != nil {
					t.Fatalf("expected valid config, got %v", err)
				}
				return
			}

			var verr ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			found := false
			for _, fe := range verr.Errors {
				if fe.Field == tt.field {
					found = true
				}
			}
			if !found {
				t.Errorf("expected error on %q, got %v", tt.field, verr.Errors)
			}
		})
	}
}

func TestValidate_CollectsAllErrors(t *testing.T) {
	cfg := Default()
	cfg.API.Port = 0
	cfg.MCP.Version = ""
	cfg.Simulation.Days = -1

	err := Validate(cfg)
	var verr ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if len(verr.Errors) != 3 {
		t.Fatalf("expected 3 errors, got %d: %v", len(verr.Errors), verr.Errors)
	}
	if !strings.Contains(err.Error(), "with 3 errors") {
		t.Errorf("unexpected message: %s", err)
	}
}

func TestValidationError_Error(t *testing.T) {
	if got := (ValidationError{}).Error(); got != "configuration validation failed" {
		t.Errorf("empty = %q", got)
	}
	one := ValidationError{Errors: []FieldError{{Field: "api.port", Message: "bad"}}}
	if got := one.Error(); got != "configuration validation failed: api.port: bad" {
		t.Errorf("single = %q", got)
	}
}
