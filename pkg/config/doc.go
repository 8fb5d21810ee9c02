// Package config provides configuration management for the steward agent.
//
// Configuration is read from YAML, filled with defaults, overridden from the
// environment and validated as a whole.
//
// # Configuration Loading
//
//	cfg, err := config.LoadConfig("steward.yaml")                // file only
//	cfg, err := config.LoadConfigWithEnvOverrides("steward.yaml") // file + env
//	cfg, err := config.LoadDefault("steward.yaml")                // missing file = defaults
//
// # Environment Variable Overrides
//
// Environment variables follow the naming convention STEWARD_SECTION_FIELD:
//
//   - STEWARD_STORAGE_DSN overrides storage.dsn
//   - STEWARD_REASONING_API_KEY overrides reasoning.api_key
//   - STEWARD_TELEMETRY_LOGGING_LEVEL overrides telemetry.logging.level
//
// Values that fail to parse are ignored.
//
// # Configuration Precedence
//
//  1. Default values (defaults.go)
//  2. Values from the YAML file
//  3. Environment variable overrides
//  4. Validation (fails fast if invalid)
//
// # Singleton
//
//	if err := config.Initialize("steward.yaml"); err != nil {
//	    log.Fatal(err)
//	}
//	cfg := config.GetConfig()
//
// Tests should pass explicit *Config values instead of using the singleton.
//
// # Example Configuration
//
//	storage:
//	  driver: sqlite3
//	  dsn: data/steward.db
//
//	cycle:
//	  base_date: "2026-01-01"
//	  schedule: "0 6 * * *"
//	  artifact_dir: models
//
//	scanner:
//	  mode: delegated
//	  timeout: 30s
//
//	reasoning:
//	  provider: anthropic
//	  api_key: ${ANTHROPIC_API_KEY}
//
//	policy:
//	  ontology_path: ontology.yaml
//	  watch: true
//
//	api:
//	  host: localhost
//	  port: 8000
//
//	telemetry:
//	  logging:
//	    level: info
//	    format: json
package config
