package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// LoadConfig loads configuration from a YAML file at the specified path.
// It applies default values, validates the configuration, and returns any errors.
// Environment variables are not consulted; use LoadConfigWithEnvOverrides
// for that.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
	}

	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// LoadConfigWithEnvOverrides loads configuration from a YAML file and applies
// environment variable overrides. Environment variables follow the naming
// convention STEWARD_SECTION_FIELD (e.g., STEWARD_API_PORT) and always take
// precedence over the file.
//
// The loading sequence is:
// 1. Load YAML from file
// 2. Apply default values
// 3. Apply environment variable overrides
// 4. Validate final configuration
func LoadConfigWithEnvOverrides(path string) (*Config, error) {
	cfg, err := LoadConfig(path)
	if err != nil {
		return nil, err
	}
	return overrideAndValidate(cfg)
}

// LoadDefault loads path like LoadConfigWithEnvOverrides, except that a
// missing file yields the defaults (plus environment overrides) instead of
// an error.
func LoadDefault(path string) (*Config, error) {
	cfg, err := LoadConfigWithEnvOverrides(path)
	if err == nil {
		return cfg, nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}
	return overrideAndValidate(Default())
}

func overrideAndValidate(cfg *Config) (*Config, error) {
	applyEnvOverrides(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed after environment overrides: %w", err)
	}
	return cfg, nil
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables use the format STEWARD_SECTION_FIELD.
func applyEnvOverrides(cfg *Config) {
	// Storage overrides
	envString("STEWARD_STORAGE_DRIVER", &cfg.Storage.Driver)
	envString("STEWARD_STORAGE_DSN", &cfg.Storage.DSN)
	envInt("STEWARD_STORAGE_MAX_OPEN_CONNS", &cfg.Storage.MaxOpenConns)
	envInt("STEWARD_STORAGE_MAX_IDLE_CONNS", &cfg.Storage.MaxIdleConns)
	envBool("STEWARD_STORAGE_WAL_MODE", &cfg.Storage.WALMode)
	envDuration("STEWARD_STORAGE_BUSY_TIMEOUT", &cfg.Storage.BusyTimeout)

	// Cycle overrides
	envString("STEWARD_CYCLE_BASE_DATE", &cfg.Cycle.BaseDate)
	envString("STEWARD_CYCLE_SCHEDULE", &cfg.Cycle.Schedule)
	envString("STEWARD_CYCLE_ARTIFACT_DIR", &cfg.Cycle.ArtifactDir)
	envString("STEWARD_CYCLE_SEED_FILE", &cfg.Cycle.SeedFile)

	// Scanner and reasoning overrides
	envString("STEWARD_SCANNER_MODE", &cfg.Scanner.Mode)
	envDuration("STEWARD_SCANNER_TIMEOUT", &cfg.Scanner.Timeout)
	envString("STEWARD_REASONING_PROVIDER", &cfg.Reasoning.Provider)
	envString("STEWARD_REASONING_MODEL", &cfg.Reasoning.Model)
	envString("STEWARD_REASONING_API_KEY", &cfg.Reasoning.APIKey)
	envString("STEWARD_REASONING_BASE_URL", &cfg.Reasoning.BaseURL)
	envDuration("STEWARD_REASONING_TIMEOUT", &cfg.Reasoning.Timeout)
	envInt("STEWARD_REASONING_MAX_RETRIES", &cfg.Reasoning.MaxRetries)

	// Policy overrides
	envString("STEWARD_POLICY_ONTOLOGY_PATH", &cfg.Policy.OntologyPath)
	envBool("STEWARD_POLICY_WATCH", &cfg.Policy.Watch)
	envDuration("STEWARD_POLICY_WATCH_DEBOUNCE", &cfg.Policy.WatchDebounce)

	// API overrides
	envString("STEWARD_API_HOST", &cfg.API.Host)
	envInt("STEWARD_API_PORT", &cfg.API.Port)
	if val := os.Getenv("STEWARD_API_ALLOW_ORIGINS"); val != "" {
		var origins []string
		for _, o := range strings.Split(val, ",") {
			if o = strings.TrimSpace(o); o != "" {
				origins = append(origins, o)
			}
		}
		cfg.API.AllowOrigins = origins
	}
	envDuration("STEWARD_API_SHUTDOWN_TIMEOUT", &cfg.API.ShutdownTimeout)

	// MCP overrides
	envString("STEWARD_MCP_NAME", &cfg.MCP.Name)
	envString("STEWARD_MCP_VERSION", &cfg.MCP.Version)

	// Simulation overrides
	if val := os.Getenv("STEWARD_SIMULATION_SEED"); val != "" {
		if u, err := strconv.ParseUint(val, 10, 64); err == nil {
			cfg.Simulation.Seed = u
		}
	}
	envInt("STEWARD_SIMULATION_DAYS", &cfg.Simulation.Days)
	envBool("STEWARD_SIMULATION_AUTO_APPLY", &cfg.Simulation.AutoApply)

	// Telemetry overrides
	envString("STEWARD_TELEMETRY_LOGGING_LEVEL", &cfg.Telemetry.Logging.Level)
	envString("STEWARD_TELEMETRY_LOGGING_FORMAT", &cfg.Telemetry.Logging.Format)
	envBool("STEWARD_TELEMETRY_LOGGING_ADD_SOURCE", &cfg.Telemetry.Logging.AddSource)
	envBool("STEWARD_TELEMETRY_LOGGING_REDACT_SECRETS", &cfg.Telemetry.Logging.RedactSecrets)
	envBool("STEWARD_TELEMETRY_METRICS_ENABLED", &cfg.Telemetry.Metrics.Enabled)
	envString("STEWARD_TELEMETRY_METRICS_NAMESPACE", &cfg.Telemetry.Metrics.Namespace)
	envString("STEWARD_TELEMETRY_METRICS_SUBSYSTEM", &cfg.Telemetry.Metrics.Subsystem)
	envBool("STEWARD_TELEMETRY_TRACING_ENABLED", &cfg.Telemetry.Tracing.Enabled)
	envString("STEWARD_TELEMETRY_TRACING_ENDPOINT", &cfg.Telemetry.Tracing.Endpoint)
	envBool("STEWARD_TELEMETRY_TRACING_INSECURE", &cfg.Telemetry.Tracing.Insecure)
	envString("STEWARD_TELEMETRY_TRACING_SAMPLER", &cfg.Telemetry.Tracing.Sampler)
}

// Unparseable values are ignored and the existing setting kept.

func envString(key string, dst *string) {
	if val := os.Getenv(key); val != "" {
		*dst = val
	}
}

func envInt(key string, dst *int) {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			*dst = i
		}
	}
}

func envBool(key string, dst *bool) {
	if val := os.Getenv(key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			*dst = b
		}
	}
}

func envDuration(key string, dst *time.Duration) {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			*dst = d
		}
	}
}
