// Package config provides domain models for chartgen configuration.
package config

import "time"

// AppConfig represents the complete chartgen configuration.
type AppConfig struct {
	// Name is a human-readable name for this deployment.
	Name string `json:"name,omitempty" yaml:"name,omitempty"`
	// Version is the configuration schema version.
	Version string `json:"version,omitempty" yaml:"version,omitempty"`

	// Service configures the data-generation service client.
	Service ServiceConfig `json:"service" yaml:"service"`
	// Storage selects the session hand-off backend.
	Storage StorageConfig `json:"storage,omitempty" yaml:"storage,omitempty"`
	// Server configures the HTTP API.
	Server ServerConfig `json:"server,omitempty" yaml:"server,omitempty"`
	// Logging configures the logger.
	Logging LoggingConfig `json:"logging,omitempty" yaml:"logging,omitempty"`
	// Telemetry configures metrics and tracing.
	Telemetry TelemetryConfig `json:"telemetry,omitempty" yaml:"telemetry,omitempty"`
	// Resilience configures the guards around the service client.
	Resilience ResilienceConfig `json:"resilience,omitempty" yaml:"resilience,omitempty"`
}

// ServiceConfig configures the data-generation service client.
type ServiceConfig struct {
	// BaseURL is the service root, e.g. http://localhost:8000.
	BaseURL string `json:"base_url" yaml:"base_url"`
	// Timeout bounds a single request. Zero means no timeout.
	Timeout Duration `json:"timeout,omitempty" yaml:"timeout,omitempty"`
}

// Storage backends.
const (
	BackendMemory   = "memory"
	BackendBadger   = "badger"
	BackendRedis    = "redis"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
)

// StorageConfig selects and configures the session store.
type StorageConfig struct {
	// Backend is one of memory, badger, redis, sqlite, postgres.
	Backend string `json:"backend,omitempty" yaml:"backend,omitempty"`
	// TTL expires stored sessions. Zero keeps them until replaced.
	TTL Duration `json:"ttl,omitempty" yaml:"ttl,omitempty"`
	// MaxEntries bounds the memory backend (0 = unlimited).
	MaxEntries int `json:"max_entries,omitempty" yaml:"max_entries,omitempty"`
	// Path is the badger directory or the sqlite file.
	Path string `json:"path,omitempty" yaml:"path,omitempty"`
	// InMemory runs badger without touching disk.
	InMemory bool `json:"in_memory,omitempty" yaml:"in_memory,omitempty"`
	// Addr is the redis address (host:port).
	Addr string `json:"addr,omitempty" yaml:"addr,omitempty"`
	// Password is the redis password.
	Password string `json:"password,omitempty" yaml:"password,omitempty"`
	// DB is the redis database number.
	DB int `json:"db,omitempty" yaml:"db,omitempty"`
	// DSN is the postgres connection string.
	DSN string `json:"dsn,omitempty" yaml:"dsn,omitempty"`
	// Table is the sqlite/postgres table name.
	Table string `json:"table,omitempty" yaml:"table,omitempty"`
	// Prefix namespaces redis and badger keys.
	Prefix string `json:"prefix,omitempty" yaml:"prefix,omitempty"`
	// PoolSize caps redis and postgres connections (0 = driver default).
	PoolSize int `json:"pool_size,omitempty" yaml:"pool_size,omitempty"`
	// DialTimeout bounds redis connection setup.
	DialTimeout Duration `json:"dial_timeout,omitempty" yaml:"dial_timeout,omitempty"`
	// IOTimeout bounds each redis read and write.
	IOTimeout Duration `json:"io_timeout,omitempty" yaml:"io_timeout,omitempty"`
	// SyncWrites fsyncs every badger write.
	SyncWrites bool `json:"sync_writes,omitempty" yaml:"sync_writes,omitempty"`
	// GCInterval schedules badger value-log GC (0 = backend default).
	GCInterval Duration `json:"gc_interval,omitempty" yaml:"gc_interval,omitempty"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	// Addr is the listen address.
	Addr string `json:"addr,omitempty" yaml:"addr,omitempty"`
	// SessionCookie names the cookie carrying the session id.
	SessionCookie string `json:"session_cookie,omitempty" yaml:"session_cookie,omitempty"`
	// ReadTimeout bounds reading a request.
	ReadTimeout Duration `json:"read_timeout,omitempty" yaml:"read_timeout,omitempty"`
	// WriteTimeout bounds writing a response.
	WriteTimeout Duration `json:"write_timeout,omitempty" yaml:"write_timeout,omitempty"`
}

// LoggingConfig configures the logger.
type LoggingConfig struct {
	// Level is one of trace, debug, info, warn, error.
	Level string `json:"level,omitempty" yaml:"level,omitempty"`
	// Format is json or console.
	Format string `json:"format,omitempty" yaml:"format,omitempty"`
}

// TelemetryConfig configures metrics and tracing.
type TelemetryConfig struct {
	// Enabled turns on tracing export.
	Enabled bool `json:"enabled,omitempty" yaml:"enabled,omitempty"`
	// ServiceName is reported as the OpenTelemetry service name.
	ServiceName string `json:"service_name,omitempty" yaml:"service_name,omitempty"`
	// SampleRatio is the trace sampling ratio in [0,1].
	SampleRatio float64 `json:"sample_ratio,omitempty" yaml:"sample_ratio,omitempty"`
	// Exporter is stdout, otlp or none. Empty means stdout.
	Exporter string `json:"exporter,omitempty" yaml:"exporter,omitempty"`
	// Endpoint is the OTLP/gRPC collector address (host:port).
	Endpoint string `json:"endpoint,omitempty" yaml:"endpoint,omitempty"`
	// Insecure disables TLS to the collector.
	Insecure bool `json:"insecure,omitempty" yaml:"insecure,omitempty"`
}

// Trace exporters.
const (
	ExporterStdout = "stdout"
	ExporterOTLP   = "otlp"
	ExporterNone   = "none"
)

// ResilienceConfig configures the guards around the service client.
type ResilienceConfig struct {
	// CircuitBreaker configures circuit breaker behavior.
	CircuitBreaker CircuitBreakerConfig `json:"circuit_breaker,omitempty" yaml:"circuit_breaker,omitempty"`
	// HealthRetry configures waiting for the service to come up.
	HealthRetry RetryConfig `json:"health_retry,omitempty" yaml:"health_retry,omitempty"`
}

// RetryConfig configures retry behavior.
type RetryConfig struct {
	// MaxAttempts is the maximum attempts.
	MaxAttempts int `json:"max_attempts,omitempty" yaml:"max_attempts,omitempty"`
	// InitialDelay is the first retry delay.
	InitialDelay Duration `json:"initial_delay,omitempty" yaml:"initial_delay,omitempty"`
	// Multiplier is the backoff multiplier.
	Multiplier float64 `json:"multiplier,omitempty" yaml:"multiplier,omitempty"`
}

// CircuitBreakerConfig configures circuit breaker behavior.
type CircuitBreakerConfig struct {
	// Threshold is consecutive failures before opening. Zero disables.
	Threshold int `json:"threshold,omitempty" yaml:"threshold,omitempty"`
	// Timeout is how long the circuit stays open.
	Timeout Duration `json:"timeout,omitempty" yaml:"timeout,omitempty"`
}

// Default returns the configuration used when no file is given.
func Default() *AppConfig {
	return &AppConfig{
		Name:    "chartgen",
		Version: "1",
		Service: ServiceConfig{
			BaseURL: "http://localhost:8000",
		},
		Storage: StorageConfig{
			Backend: BackendMemory,
			Table:   "chartgen_sessions",
			Prefix:  "chartgen:",
		},
		Server: ServerConfig{
			Addr:          ":8080",
			SessionCookie: "chartgen_session",
			ReadTimeout:   Duration(15 * time.Second),
			WriteTimeout:  Duration(30 * time.Second),
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		Telemetry: TelemetryConfig{
			ServiceName: "chartgen",
			SampleRatio: 1,
			Exporter:    ExporterStdout,
		},
		Resilience: ResilienceConfig{
			CircuitBreaker: CircuitBreakerConfig{
				Threshold: 5,
				Timeout:   Duration(30 * time.Second),
			},
			HealthRetry: RetryConfig{
				MaxAttempts:  10,
				InitialDelay: Duration(200 * time.Millisecond),
				Multiplier:   2,
			},
		},
	}
}

// Duration is a time.Duration that supports JSON/YAML string representation.
type Duration time.Duration

// MarshalJSON implements json.Marshaler.
func (d Duration) MarshalJSON() ([]byte, error) {
	return []byte(`"` + time.Duration(d).String() + `"`), nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *Duration) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		return nil
	}

	s := string(b)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}

	dur, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(dur)
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(unmarshal func(any) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	dur, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(dur)
	return nil
}

// Duration returns the underlying time.Duration.
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}
