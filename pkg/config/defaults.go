package config

import "time"

// Default configuration values.
const (
	DefaultConfigPath = "steward.yaml"

	DefaultStorageDriver       = "sqlite3"
	DefaultStorageDSN          = "data/steward.db"
	DefaultStorageMaxOpenConns = 10
	DefaultStorageMaxIdleConns = 5
	DefaultStorageWALMode      = true
	DefaultStorageBusyTimeout  = 5 * time.Second

	DefaultBaseDate = "2026-01-01"

	DefaultScannerMode    = ScannerModeHeuristic
	DefaultScannerTimeout = 30 * time.Second

	DefaultReasoningProvider   = "anthropic"
	DefaultReasoningTimeout    = 20 * time.Second
	DefaultReasoningMaxRetries = 2

	DefaultPolicyWatchDebounce = 500 * time.Millisecond

	DefaultAPIHost            = "localhost"
	DefaultAPIPort            = 8000
	DefaultAPIShutdownTimeout = 10 * time.Second

	DefaultMCPName    = "steward-agent"
	DefaultMCPVersion = "1.0.0"

	DefaultSimulationSeed = 42
	DefaultSimulationDays = 5

	DefaultLogLevel  = "info"
	DefaultLogFormat = "text"

	DefaultMetricsEnabled   = true
	DefaultMetricsNamespace = "steward"
	DefaultMetricsSubsystem = "agent"

	DefaultTracingEndpoint    = "localhost:4317"
	DefaultTracingTimeout     = 10 * time.Second
	DefaultTracingSampler     = "always"
	DefaultTracingServiceName = "steward-agent"
)

// Scanner modes.
const (
	ScannerModeHeuristic = "heuristic"
	ScannerModeDelegated = "delegated"
)

// StorageDriverMemory keeps everything in process memory.
const StorageDriverMemory = "memory"

// Default returns a configuration with every default applied.
func Default() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}

// ApplyDefaults fills zero-valued fields with their defaults.
func ApplyDefaults(cfg *Config) {
	// Storage defaults. WAL can only be defaulted when the section is
	// absent, otherwise an explicit false would be overwritten.
	if cfg.Storage == (StorageConfig{}) {
		cfg.Storage.WALMode = DefaultStorageWALMode
	}
	if cfg.Storage.Driver == "" {
		cfg.Storage.Driver = DefaultStorageDriver
	}
	if cfg.Storage.DSN == "" && cfg.Storage.Driver != StorageDriverMemory {
		cfg.Storage.DSN = DefaultStorageDSN
	}
	if cfg.Storage.MaxOpenConns == 0 {
		cfg.Storage.MaxOpenConns = DefaultStorageMaxOpenConns
	}
	if cfg.Storage.MaxIdleConns == 0 {
		cfg.Storage.MaxIdleConns = DefaultStorageMaxIdleConns
	}
	if cfg.Storage.BusyTimeout == 0 {
		cfg.Storage.BusyTimeout = DefaultStorageBusyTimeout
	}

	// Cycle defaults
	if cfg.Cycle.BaseDate == "" {
		cfg.Cycle.BaseDate = DefaultBaseDate
	}

	// Scanner defaults
	if cfg.Scanner.Mode == "" {
		cfg.Scanner.Mode = DefaultScannerMode
	}
	if cfg.Scanner.Timeout == 0 {
		cfg.Scanner.Timeout = DefaultScannerTimeout
	}

	// Reasoning defaults
	if cfg.Reasoning.Provider == "" {
		cfg.Reasoning.Provider = DefaultReasoningProvider
	}
	if cfg.Reasoning.Timeout == 0 {
		cfg.Reasoning.Timeout = DefaultReasoningTimeout
	}
	if cfg.Reasoning.MaxRetries == 0 {
		cfg.Reasoning.MaxRetries = DefaultReasoningMaxRetries
	}

	// Policy defaults
	if cfg.Policy.WatchDebounce == 0 {
		cfg.Policy.WatchDebounce = DefaultPolicyWatchDebounce
	}

	// API defaults
	if cfg.API.Host == "" {
		cfg.API.Host = DefaultAPIHost
	}
	if cfg.API.Port == 0 {
		cfg.API.Port = DefaultAPIPort
	}
	if len(cfg.API.AllowOrigins) == 0 {
		cfg.API.AllowOrigins = []string{"*"}
	}
	if cfg.API.ShutdownTimeout == 0 {
		cfg.API.ShutdownTimeout = DefaultAPIShutdownTimeout
	}

	// MCP defaults
	if cfg.MCP.Name == "" {
		cfg.MCP.Name = DefaultMCPName
	}
	if cfg.MCP.Version == "" {
		cfg.MCP.Version = DefaultMCPVersion
	}

	// Simulation defaults
	if cfg.Simulation.Seed == 0 {
		cfg.Simulation.Seed = DefaultSimulationSeed
	}
	if cfg.Simulation.Days == 0 {
		cfg.Simulation.Days = DefaultSimulationDays
	}

	// Telemetry defaults
	if cfg.Telemetry.Logging.Level == "" {
		cfg.Telemetry.Logging.Level = DefaultLogLevel
	}
	if cfg.Telemetry.Logging.Format == "" {
		cfg.Telemetry.Logging.Format = DefaultLogFormat
	}
	if cfg.Telemetry.Metrics == (MetricsConfig{}) {
		cfg.Telemetry.Metrics.Enabled = DefaultMetricsEnabled
	}
	if cfg.Telemetry.Metrics.Namespace == "" {
		cfg.Telemetry.Metrics.Namespace = DefaultMetricsNamespace
	}
	if cfg.Telemetry.Metrics.Subsystem == "" {
		cfg.Telemetry.Metrics.Subsystem = DefaultMetricsSubsystem
	}
	if cfg.Telemetry.Tracing.Endpoint == "" {
		cfg.Telemetry.Tracing.Endpoint = DefaultTracingEndpoint
	}
	if cfg.Telemetry.Tracing.Timeout == 0 {
		cfg.Telemetry.Tracing.Timeout = DefaultTracingTimeout
	}
	if cfg.Telemetry.Tracing.Sampler == "" {
		cfg.Telemetry.Tracing.Sampler = DefaultTracingSampler
	}
	if cfg.Telemetry.Tracing.ServiceName == "" {
		cfg.Telemetry.Tracing.ServiceName = DefaultTracingServiceName
	}
}
