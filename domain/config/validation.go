package config

import (
	"fmt"
	"net/url"
	"strings"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	// Path is the dotted path to the invalid field.
	Path string
	// Message describes the validation error.
	Message string
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	if e.Path == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors []ValidationError

// Error implements the error interface.
func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	if len(e) == 1 {
		return e[0].Error()
	}
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return fmt.Sprintf("%d validation errors:\n  - %s", len(e), strings.Join(msgs, "\n  - "))
}

// HasErrors returns true if there are any validation errors.
func (e ValidationErrors) HasErrors() bool {
	return len(e) > 0
}

// Validator validates chartgen configuration.
type Validator struct {
	errors ValidationErrors
}

// NewValidator creates a new validator.
func NewValidator() *Validator {
	return &Validator{}
}

// Validate validates the configuration and returns any errors.
func (v *Validator) Validate(config *AppConfig) ValidationErrors {
	v.errors = nil

	v.validateService(config)
	v.validateStorage(config)
	v.validateServer(config)
	v.validateLogging(config)
	v.validateTelemetry(config)
	v.validateResilience(config)

	return v.errors
}

func (v *Validator) validateService(config *AppConfig) {
	if config.Service.BaseURL == "" {
		v.addError("service.base_url", "base URL is required")
		return
	}
	u, err := url.Parse(config.Service.BaseURL)
	if err != nil || u.Host == "" {
		v.addError("service.base_url", fmt.Sprintf("invalid URL: %s", config.Service.BaseURL))
		return
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		v.addError("service.base_url", fmt.Sprintf("unsupported scheme: %s", u.Scheme))
	}
	if config.Service.Timeout < 0 {
		v.addError("service.timeout", "timeout must be non-negative")
	}
}

func (v *Validator) validateStorage(config *AppConfig) {
	s := config.Storage
	if s.TTL < 0 {
		v.addError("storage.ttl", "ttl must be non-negative")
	}

	switch s.Backend {
	case "", BackendMemory:
		if s.MaxEntries < 0 {
			v.addError("storage.max_entries", "max_entries must be non-negative")
		}
	case BackendBadger:
		if !s.InMemory && s.Path == "" {
			v.addError("storage.path", "path is required for badger unless in_memory is set")
		}
		if s.GCInterval < 0 {
			v.addError("storage.gc_interval", "gc_interval must be non-negative")
		}
	case BackendRedis:
		if s.Addr == "" {
			v.addError("storage.addr", "addr is required for redis")
		}
		if s.DB < 0 {
			v.addError("storage.db", "db must be non-negative")
		}
		if s.PoolSize < 0 {
			v.addError("storage.pool_size", "pool_size must be non-negative")
		}
		if s.DialTimeout < 0 || s.IOTimeout < 0 {
			v.addError("storage.timeout", "redis timeouts must be non-negative")
		}
	case BackendSQLite:
		if s.Path == "" {
			v.addError("storage.path", "path is required for sqlite")
		}
		v.validateTable(s.Table)
	case BackendPostgres:
		if s.DSN == "" {
			v.addError("storage.dsn", "dsn is required for postgres")
		}
		v.validateTable(s.Table)
	default:
		v.addError("storage.backend", fmt.Sprintf("unknown backend: %s", s.Backend))
	}
}

func (v *Validator) validateTable(name string) {
	if name == "" {
		return
	}
	for _, r := range name {
		if !(r == '_' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9') {
			v.addError("storage.table", fmt.Sprintf("invalid table name: %s", name))
			return
		}
	}
}

func (v *Validator) validateServer(config *AppConfig) {
	if config.Server.ReadTimeout < 0 {
		v.addError("server.read_timeout", "read_timeout must be non-negative")
	}
	if config.Server.WriteTimeout < 0 {
		v.addError("server.write_timeout", "write_timeout must be non-negative")
	}
}

func (v *Validator) validateLogging(config *AppConfig) {
	if config.Logging.Level != "" {
		validLevels := map[string]bool{
			"trace": true, "debug": true, "info": true, "warn": true, "error": true,
		}
		if !validLevels[strings.ToLower(config.Logging.Level)] {
			v.addError("logging.level", fmt.Sprintf("invalid level: %s", config.Logging.Level))
		}
	}
	if config.Logging.Format != "" {
		if config.Logging.Format != "json" && config.Logging.Format != "console" {
			v.addError("logging.format", fmt.Sprintf("invalid format: %s", config.Logging.Format))
		}
	}
}

func (v *Validator) validateTelemetry(config *AppConfig) {
	if r := config.Telemetry.SampleRatio; r < 0 || r > 1 {
		v.addError("telemetry.sample_ratio", "sample_ratio must be between 0 and 1")
	}
	switch t := config.Telemetry; t.Exporter {
	case "", ExporterStdout, ExporterNone:
	case ExporterOTLP:
		if t.Enabled && t.Endpoint == "" {
			v.addError("telemetry.endpoint", "endpoint is required for the otlp exporter")
		}
	default:
		v.addError("telemetry.exporter", fmt.Sprintf("unknown exporter: %s", t.Exporter))
	}
}

func (v *Validator) validateResilience(config *AppConfig) {
	cb := config.Resilience.CircuitBreaker
	if cb.Threshold < 0 {
		v.addError("resilience.circuit_breaker.threshold", "threshold must be non-negative")
	}
	if cb.Threshold > 0 && cb.Timeout <= 0 {
		v.addError("resilience.circuit_breaker.timeout", "timeout must be positive when threshold is set")
	}

	r := config.Resilience.HealthRetry
	if r.MaxAttempts < 0 {
		v.addError("resilience.health_retry.max_attempts", "max_attempts must be non-negative")
	}
	if r.MaxAttempts > 0 && r.Multiplier != 0 && r.Multiplier < 1 {
		v.addError("resilience.health_retry.multiplier", "multiplier must be >= 1")
	}
}

func (v *Validator) addError(path, message string) {
	v.errors = append(v.errors, ValidationError{Path: path, Message: message})
}
