package config

import "time"

// Config is the root configuration structure for the steward agent.
// It contains all configuration sections for the different components.
type Config struct {
	// Storage configures the governance database.
	Storage StorageConfig `yaml:"storage"`

	// Cycle configures investigation cycles.
	Cycle CycleConfig `yaml:"cycle"`

	// Scanner configures artifact risk scanning.
	Scanner ScannerConfig `yaml:"scanner"`

	// Reasoning configures the external reasoning service used by the
	// delegated scanner.
	Reasoning ReasoningConfig `yaml:"reasoning"`

	// Policy configures the category policy ontology.
	Policy PolicyConfig `yaml:"policy"`

	// API configures the read-only playback HTTP server.
	API APIConfig `yaml:"api"`

	// MCP configures the tool-invocation server.
	MCP MCPConfig `yaml:"mcp"`

	// Simulation configures the daily score simulator.
	Simulation SimulationConfig `yaml:"simulation"`

	// Telemetry configures logging and metrics.
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// StorageConfig selects and tunes the storage backend.
type StorageConfig struct {
	// Driver is "sqlite3" (cgo), "sqlite" (pure Go), "pgx" (PostgreSQL)
	// or "memory".
	// Default: "sqlite3"
	Driver string `yaml:"driver"`

	// DSN is the database file path or PostgreSQL connection URL.
	// Default: "data/steward.db"
	DSN string `yaml:"dsn"`

	// MaxOpenConns is the maximum number of open connections.
	// Default: 10
	MaxOpenConns int `yaml:"max_open_conns"`

	// MaxIdleConns is the maximum number of idle connections.
	// Default: 5
	MaxIdleConns int `yaml:"max_idle_conns"`

	// WALMode enables write-ahead logging for SQLite.
	// Default: true when the storage section is omitted
	WALMode bool `yaml:"wal_mode"`

	// BusyTimeout is how long SQLite waits on a locked database.
	// Default: 5s
	BusyTimeout time.Duration `yaml:"busy_timeout"`
}

// CycleConfig configures investigation cycles.
type CycleConfig struct {
	// BaseDate is the calendar date of day 1 (YYYY-MM-DD).
	// Default: "2026-01-01"
	BaseDate string `yaml:"base_date"`

	// Schedule is a standard cron expression for daily cycles when serving.
	// Empty disables scheduled cycles.
	Schedule string `yaml:"schedule"`

	// ArtifactDir holds <model>.sql files that override stored artifact
	// text. Empty uses stored text only.
	ArtifactDir string `yaml:"artifact_dir"`

	// SeedFile is an optional YAML dataset used by "init" instead of the
	// embedded default.
	SeedFile string `yaml:"seed_file"`
}

// ScannerConfig configures artifact risk scanning.
type ScannerConfig struct {
	// Mode is "heuristic" or "delegated".
	// Default: "heuristic"
	Mode string `yaml:"mode"`

	// Timeout bounds a delegated scan before heuristics take over.
	// Default: 30s
	Timeout time.Duration `yaml:"timeout"`
}

// ReasoningConfig configures the external reasoning service.
type ReasoningConfig struct {
	// Provider is "anthropic", "openai" or "gemini".
	// Default: "anthropic"
	Provider string `yaml:"provider"`

	// Model is the provider model name.
	Model string `yaml:"model"`

	// APIKey authenticates against the provider.
	APIKey string `yaml:"api_key"`

	// BaseURL overrides the provider endpoint.
	BaseURL string `yaml:"base_url"`

	// Timeout bounds a single request.
	// Default: 20s
	Timeout time.Duration `yaml:"timeout"`

	// MaxRetries is the number of retries on transient failures.
	// Default: 2
	MaxRetries int `yaml:"max_retries"`
}

// PolicyConfig configures the category policy ontology.
type PolicyConfig struct {
	// OntologyPath is a YAML file mapping categories to required controls.
	// Empty uses the built-in ontology.
	OntologyPath string `yaml:"ontology_path"`

	// Watch reloads the ontology when the file changes.
	Watch bool `yaml:"watch"`

	// WatchDebounce coalesces bursts of file events.
	// Default: 500ms
	WatchDebounce time.Duration `yaml:"watch_debounce"`
}

// APIConfig configures the playback HTTP server.
type APIConfig struct {
	// Host is the bind host.
	// Default: "localhost"
	Host string `yaml:"host"`

	// Port is the bind port.
	// Default: 8000
	Port int `yaml:"port"`

	// AllowOrigins lists CORS origins.
	// Default: ["*"]
	AllowOrigins []string `yaml:"allow_origins"`

	// ShutdownTimeout bounds graceful shutdown.
	// Default: 10s
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// MCPConfig configures the tool-invocation server.
type MCPConfig struct {
	// Name is the advertised server name.
	// Default: "steward-agent"
	Name string `yaml:"name"`

	// Version is the advertised server version.
	// Default: "1.0.0"
	Version string `yaml:"version"`
}

// SimulationConfig configures the daily score simulator.
type SimulationConfig struct {
	// Seed makes simulated scores reproducible. Zero picks a fixed seed.
	Seed uint64 `yaml:"seed"`

	// Days is the default number of days to simulate.
	// Default: 5
	Days int `yaml:"days"`

	// AutoApply marks proposed actions applied before the next day.
	AutoApply bool `yaml:"auto_apply"`
}

// TelemetryConfig configures logging, metrics and tracing.
type TelemetryConfig struct {
	// Logging configures structured logging.
	Logging LoggingConfig `yaml:"logging"`

	// Metrics configures Prometheus metrics.
	Metrics MetricsConfig `yaml:"metrics"`

	// Tracing configures OpenTelemetry spans for cycles, reviews and API requests.
	Tracing TracingConfig `yaml:"tracing"`
}

// LoggingConfig configures structured logging.
type LoggingConfig struct {
	// Level is debug, info, warn or error.
	// Default: "info"
	Level string `yaml:"level"`

	// Format is json, text or console.
	// Default: "text"
	Format string `yaml:"format"`

	// AddSource includes file and line in log records.
	AddSource bool `yaml:"add_source"`

	// RedactSecrets masks API keys and tokens in log output.
	RedactSecrets bool `yaml:"redact_secrets"`
}

// MetricsConfig configures Prometheus metrics.
type MetricsConfig struct {
	// Enabled turns metric recording on.
	// Default: true when the metrics section is omitted
	Enabled bool `yaml:"enabled"`

	// Namespace prefixes every metric.
	// Default: "steward"
	Namespace string `yaml:"namespace"`

	// Subsystem follows the namespace.
	// Default: "agent"
	Subsystem string `yaml:"subsystem"`
}

// TracingConfig configures OpenTelemetry tracing. Spans are exported over
// OTLP/gRPC.
type TracingConfig struct {
	// Enabled turns span export on. When off, a no-op tracer is used.
	Enabled bool `yaml:"enabled"`

	// Endpoint is the OTLP collector address (host:port).
	// Default: "localhost:4317"
	Endpoint string `yaml:"endpoint"`

	// Insecure disables TLS to the collector.
	Insecure bool `yaml:"insecure"`

	// Timeout bounds each export.
	// Default: 10s
	Timeout time.Duration `yaml:"timeout"`

	// Sampler is always, never or ratio.
	// Default: "always"
	Sampler string `yaml:"sampler"`

	// SampleRatio is the fraction of cycles sampled with the ratio sampler.
	SampleRatio float64 `yaml:"sample_ratio"`

	// ServiceName is reported as the service.name resource attribute.
	// Default: "steward-agent"
	ServiceName string `yaml:"service_name"`
}
