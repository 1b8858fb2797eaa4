package config

import (
	"errors"
	"testing"

	domainconfig "github.com/felixgeelhaar/chartgen/domain/config"
)

func fakeEnv(vars map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := vars[key]
		return v, ok
	}
}

func TestEnvExpander_Expand(t *testing.T) {
	env := fakeEnv(map[string]string{"HOST": "gen", "EMPTY": ""})

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain", "http://${HOST}:8000", "http://gen:8000"},
		{"default unused", "${HOST:-localhost}", "gen"},
		{"default for unset", "${PORT:-8000}", "8000"},
		{"default for empty", "${EMPTY:-x}", "x"},
		{"unset becomes empty", "a${NOPE}b", "ab"},
		{"bare dollar kept", "pa$$word$HOST", "pa$$word$HOST"},
		{"repeated", "${HOST}/${HOST}", "gen/gen"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := &envExpander{lookup: env}
			got, err := e.Expand(tt.input)
			if err != nil {
				t.Fatalf("Expand(%q) error = %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("Expand(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestEnvExpander_Required(t *testing.T) {
	e := &envExpander{lookup: fakeEnv(nil)}
	_, err := e.Expand("dsn: ${PG_DSN:?postgres dsn required}")
	if !errors.Is(err, domainconfig.ErrMissingEnvVar) {
		t.Fatalf("Expand() error = %v, want ErrMissingEnvVar", err)
	}
	if got := err.Error(); got != "required environment variable not set: PG_DSN: postgres dsn required" {
		t.Errorf("error = %q", got)
	}
}

func TestEnvExpander_Strict(t *testing.T) {
	e := &envExpander{strict: true, lookup: fakeEnv(nil)}
	if _, err := e.Expand("${A} ${B:-ok}"); !errors.Is(err, domainconfig.ErrMissingEnvVar) {
		t.Errorf("strict Expand() error = %v, want ErrMissingEnvVar", err)
	}
}

func TestExpandEnvHelpers(t *testing.T) {
	t.Setenv("CHARTGEN_TEST_VAR", "hello")

	if got := ExpandEnv("${CHARTGEN_TEST_VAR}!"); got != "hello!" {
		t.Errorf("ExpandEnv() = %q", got)
	}
	if _, err := ExpandEnvStrict("${CHARTGEN_TEST_UNSET}"); err == nil {
		t.Error("ExpandEnvStrict() expected error for unset variable")
	}
}

func TestApplyOverrides(t *testing.T) {
	cfg := domainconfig.Default()
	err := applyOverrides(cfg, fakeEnv(map[string]string{
		EnvServiceURL:     "http://gen:9000",
		EnvStorageBackend: "redis",
		EnvRedisAddr:      "cache:6379",
		EnvLogLevel:       "",
		EnvTelemetry:      "true",
		EnvOTLPEndpoint:   "otel:4317",
	}))
	if err != nil {
		t.Fatalf("applyOverrides() error = %v", err)
	}
	if cfg.Service.BaseURL != "http://gen:9000" || cfg.Storage.Backend != "redis" || cfg.Storage.Addr != "cache:6379" {
		t.Errorf("overrides not applied: %+v", cfg)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("empty override replaced level: %s", cfg.Logging.Level)
	}
	if !cfg.Telemetry.Enabled {
		t.Error("telemetry override not applied")
	}
	if cfg.Telemetry.Exporter != domainconfig.ExporterOTLP || cfg.Telemetry.Endpoint != "otel:4317" {
		t.Errorf("otlp override = %s %s", cfg.Telemetry.Exporter, cfg.Telemetry.Endpoint)
	}

	err = applyOverrides(cfg, fakeEnv(map[string]string{EnvTelemetry: "sometimes"}))
	if !errors.Is(err, domainconfig.ErrInvalidFormat) {
		t.Errorf("applyOverrides() error = %v, want ErrInvalidFormat", err)
	}
}
