package config

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"

	domainconfig "github.com/felixgeelhaar/chartgen/domain/config"
)

// refPattern matches ${VAR}, ${VAR:-default} and ${VAR:?message}. Bare $VAR
// is left alone so DSNs and passwords may contain dollar signs.
var refPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(:-[^}]*|:\?[^}]*)?\}`)

// envExpander expands environment variable references in configuration text.
type envExpander struct {
	// strict fails if a plain ${VAR} is not set.
	strict  bool
	lookup  func(string) (string, bool)
	missing []string
}

func newEnvExpander(strict bool) *envExpander {
	return &envExpander{strict: strict, lookup: os.LookupEnv}
}

// Expand replaces every reference in input.
func (e *envExpander) Expand(input string) (string, error) {
	e.missing = nil

	result := refPattern.ReplaceAllStringFunc(input, func(match string) string {
		sub := refPattern.FindStringSubmatch(match)
		name, modifier := sub[1], sub[2]
		value, ok := e.lookup(name)

		switch {
		case strings.HasPrefix(modifier, ":-"):
			if !ok || value == "" {
				return modifier[2:]
			}
		case strings.HasPrefix(modifier, ":?"):
			if !ok || value == "" {
				e.missing = append(e.missing, fmt.Sprintf("%s: %s", name, modifier[2:]))
				return match
			}
		default:
			if !ok && e.strict {
				e.missing = append(e.missing, name)
			}
		}
		return value
	})

	if len(e.missing) > 0 {
		return "", fmt.Errorf("%w: %s", domainconfig.ErrMissingEnvVar, strings.Join(e.missing, ", "))
	}
	return result, nil
}

// ExpandEnv expands references, replacing unset variables with "".
func ExpandEnv(input string) string {
	result, _ := newEnvExpander(false).Expand(input)
	return result
}

// ExpandEnvStrict expands references and fails on any unset variable.
func ExpandEnvStrict(input string) (string, error) {
	return newEnvExpander(true).Expand(input)
}

// Environment overrides applied after the file is parsed.
const (
	EnvServiceURL     = "CHARTGEN_SERVICE_URL"
	EnvStorageBackend = "CHARTGEN_STORAGE_BACKEND"
	EnvStorageDSN     = "CHARTGEN_STORAGE_DSN"
	EnvRedisAddr      = "CHARTGEN_REDIS_ADDR"
	EnvServerAddr     = "CHARTGEN_ADDR"
	EnvLogLevel       = "CHARTGEN_LOG_LEVEL"
	EnvLogFormat      = "CHARTGEN_LOG_FORMAT"
	EnvTelemetry      = "CHARTGEN_TELEMETRY"
	EnvOTLPEndpoint   = "CHARTGEN_OTLP_ENDPOINT"
)

// applyOverrides copies set CHARTGEN_* variables onto cfg.
func applyOverrides(cfg *domainconfig.AppConfig, lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	str(EnvServiceURL, &cfg.Service.BaseURL)
	str(EnvStorageBackend, &cfg.Storage.Backend)
	str(EnvStorageDSN, &cfg.Storage.DSN)
	str(EnvRedisAddr, &cfg.Storage.Addr)
	str(EnvServerAddr, &cfg.Server.Addr)
	str(EnvLogLevel, &cfg.Logging.Level)
	str(EnvLogFormat, &cfg.Logging.Format)
	if v, ok := lookup(EnvOTLPEndpoint); ok && v != "" {
		cfg.Telemetry.Exporter = domainconfig.ExporterOTLP
		cfg.Telemetry.Endpoint = v
	}

	if v, ok := lookup(EnvTelemetry); ok && v != "" {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%w: %s=%q is not a boolean", domainconfig.ErrInvalidFormat, EnvTelemetry, v)
		}
		cfg.Telemetry.Enabled = enabled
	}
	return nil
}
