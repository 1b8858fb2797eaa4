package config

import (
	"encoding/json"

	"github.com/felixgeelhaar/chartgen/domain/config"
)

// JSONSchema represents a JSON Schema document.
type JSONSchema struct {
	Schema               string                 `json:"$schema,omitempty"`
	ID                   string                 `json:"$id,omitempty"`
	Title                string                 `json:"title,omitempty"`
	Description          string                 `json:"description,omitempty"`
	Type                 string                 `json:"type,omitempty"`
	Properties           map[string]*JSONSchema `json:"properties,omitempty"`
	Required             []string               `json:"required,omitempty"`
	AdditionalProperties *bool                  `json:"additionalProperties,omitempty"`
	Enum                 []string               `json:"enum,omitempty"`
	Default              any                    `json:"default,omitempty"`
	Minimum              *float64               `json:"minimum,omitempty"`
	Maximum              *float64               `json:"maximum,omitempty"`
	Pattern              string                 `json:"pattern,omitempty"`
	Format               string                 `json:"format,omitempty"`
}

// durationPattern accepts Go duration strings such as 30s or 1m30s.
const durationPattern = `^([0-9]+(\.[0-9]+)?(ns|us|µs|ms|s|m|h))+$`

func object(desc string, props map[string]*JSONSchema) *JSONSchema {
	closed := false
	return &JSONSchema{Type: "object", Description: desc, Properties: props, AdditionalProperties: &closed}
}

func str(desc string, def any) *JSONSchema {
	return &JSONSchema{Type: "string", Description: desc, Default: def}
}

func duration(desc string, def config.Duration) *JSONSchema {
	s := &JSONSchema{Type: "string", Description: desc, Pattern: durationPattern}
	if def != 0 {
		s.Default = def.Duration().String()
	}
	return s
}

func integer(desc string, min float64, def any) *JSONSchema {
	return &JSONSchema{Type: "integer", Description: desc, Minimum: floatPtr(min), Default: def}
}

func floatPtr(f float64) *float64 {
	return &f
}

// GenerateSchema generates a JSON Schema for AppConfig with the defaults
// filled in.
func GenerateSchema() *JSONSchema {
	d := config.Default()

	root := object("Configuration for the chartgen workbench", map[string]*JSONSchema{
		"name":    str("A human-readable name for this deployment", d.Name),
		"version": str("The configuration schema version", d.Version),
		"service": object("Data-generation service client", map[string]*JSONSchema{
			"base_url": {Type: "string", Format: "uri", Description: "Service root URL", Default: d.Service.BaseURL},
			"timeout":  duration("Per-request timeout; zero means none", d.Service.Timeout),
		}),
		"storage": object("Session hand-off store", map[string]*JSONSchema{
			"backend": {
				Type:        "string",
				Description: "Store backend",
				Enum:        []string{config.BackendMemory, config.BackendBadger, config.BackendRedis, config.BackendSQLite, config.BackendPostgres},
				Default:     d.Storage.Backend,
			},
			"ttl":          duration("Session expiry; zero keeps data until replaced", d.Storage.TTL),
			"max_entries":  integer("Memory backend capacity (0 = unlimited)", 0, nil),
			"path":         str("Badger directory or sqlite file", nil),
			"in_memory":    {Type: "boolean", Description: "Run badger without disk"},
			"addr":         str("Redis address (host:port)", nil),
			"password":     str("Redis password", nil),
			"db":           integer("Redis database number", 0, nil),
			"dsn":          str("Postgres connection string", nil),
			"table":        {Type: "string", Description: "SQL table name", Pattern: `^[A-Za-z0-9_]+$`, Default: d.Storage.Table},
			"prefix":       str("Key prefix for redis and badger", d.Storage.Prefix),
			"pool_size":    integer("Redis connection pool size (0 = client default)", 0, nil),
			"dial_timeout": duration("Redis connection timeout", d.Storage.DialTimeout),
			"io_timeout":   duration("Redis read and write timeout", d.Storage.IOTimeout),
			"sync_writes":  {Type: "boolean", Description: "Fsync every badger write"},
			"gc_interval":  duration("Badger value-log GC interval", d.Storage.GCInterval),
		}),
		"server": object("HTTP API", map[string]*JSONSchema{
			"addr":           str("Listen address", d.Server.Addr),
			"session_cookie": str("Cookie carrying the session id", d.Server.SessionCookie),
			"read_timeout":   duration("Request read timeout", d.Server.ReadTimeout),
			"write_timeout":  duration("Response write timeout", d.Server.WriteTimeout),
		}),
		"logging": object("Logger", map[string]*JSONSchema{
			"level":  {Type: "string", Enum: []string{"trace", "debug", "info", "warn", "error"}, Default: d.Logging.Level},
			"format": {Type: "string", Enum: []string{"json", "console"}, Default: d.Logging.Format},
		}),
		"telemetry": object("Metrics and tracing", map[string]*JSONSchema{
			"enabled":      {Type: "boolean", Description: "Export traces"},
			"service_name": str("OpenTelemetry service name", d.Telemetry.ServiceName),
			"sample_ratio": {Type: "number", Minimum: floatPtr(0), Maximum: floatPtr(1), Default: d.Telemetry.SampleRatio},
			"exporter": {
				Type:        "string",
				Description: "Trace exporter",
				Enum:        []string{config.ExporterStdout, config.ExporterOTLP, config.ExporterNone},
				Default:     d.Telemetry.Exporter,
			},
			"endpoint": str("OTLP/gRPC collector address (host:port)", nil),
			"insecure": {Type: "boolean", Description: "Disable TLS to the collector"},
		}),
		"resilience": object("Guards around the service client", map[string]*JSONSchema{
			"circuit_breaker": object("Circuit breaker", map[string]*JSONSchema{
				"threshold": integer("Consecutive failures before opening; 0 disables", 0, d.Resilience.CircuitBreaker.Threshold),
				"timeout":   duration("Open duration", d.Resilience.CircuitBreaker.Timeout),
			}),
			"health_retry": object("Waiting for the service to come up", map[string]*JSONSchema{
				"max_attempts":  integer("Maximum health checks", 0, d.Resilience.HealthRetry.MaxAttempts),
				"initial_delay": duration("Delay before the second check", d.Resilience.HealthRetry.InitialDelay),
				"multiplier":    {Type: "number", Minimum: floatPtr(1), Default: d.Resilience.HealthRetry.Multiplier},
			}),
		}),
	})
	root.Schema = "https://json-schema.org/draft/2020-12/schema"
	root.ID = "https://github.com/felixgeelhaar/chartgen/chartgen.schema.json"
	root.Title = "chartgen configuration"
	root.Required = []string{"service"}
	return root
}

// SchemaJSON returns the JSON Schema as a JSON string.
func SchemaJSON() (string, error) {
	data, err := json.MarshalIndent(GenerateSchema(), "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}
