// Package datagen is the HTTP client of the external data generation
// service.
package datagen

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/felixgeelhaar/chartgen/domain/config"
	"github.com/felixgeelhaar/chartgen/domain/dataset"
	"github.com/felixgeelhaar/chartgen/infrastructure/logging"
	"github.com/felixgeelhaar/chartgen/infrastructure/resilience"
	"github.com/felixgeelhaar/chartgen/infrastructure/telemetry"
)

// DefaultBaseURL is where the service listens unless configured otherwise.
const DefaultBaseURL = "http://localhost:8000"

// maxErrorBody bounds how much of an error response is kept.
const maxErrorBody = 4096

// Config configures the client.
type Config struct {
	// BaseURL is the service root.
	BaseURL string
	// Timeout bounds a single request. Zero means no timeout.
	Timeout time.Duration
	// CircuitBreakerThreshold is consecutive connectivity failures before
	// generation fails fast. Zero disables the breaker.
	CircuitBreakerThreshold int
	// CircuitBreakerTimeout is how long the circuit stays open.
	CircuitBreakerTimeout time.Duration
	// HealthRetry configures WaitHealthy.
	HealthRetry resilience.RetryConfig
	// UserAgent is the User-Agent header value.
	UserAgent string
}

// DefaultConfig returns the default client configuration.
func DefaultConfig() Config {
	return Config{
		BaseURL:                 DefaultBaseURL,
		CircuitBreakerThreshold: 5,
		CircuitBreakerTimeout:   30 * time.Second,
		HealthRetry: resilience.RetryConfig{
			MaxAttempts:  10,
			InitialDelay: 200 * time.Millisecond,
			Multiplier:   2,
		},
		UserAgent: "chartgen/1.0",
	}
}

// ConfigFrom maps application configuration onto the client.
func ConfigFrom(app *config.AppConfig) Config {
	cfg := DefaultConfig()
	if app == nil {
		return cfg
	}
	if app.Service.BaseURL != "" {
		cfg.BaseURL = app.Service.BaseURL
	}
	cfg.Timeout = app.Service.Timeout.Duration()

	cb := app.Resilience.CircuitBreaker
	cfg.CircuitBreakerThreshold = cb.Threshold
	if cb.Timeout > 0 {
		cfg.CircuitBreakerTimeout = cb.Timeout.Duration()
	}

	hr := app.Resilience.HealthRetry
	if hr.MaxAttempts > 0 {
		cfg.HealthRetry = resilience.RetryConfig{
			MaxAttempts:  hr.MaxAttempts,
			InitialDelay: hr.InitialDelay.Duration(),
			Multiplier:   hr.Multiplier,
		}
	}
	return cfg
}

// Client talks to the generation service.
type Client struct {
	config  Config
	http    *http.Client
	guard   *resilience.Guard[*dataset.GeneratedData]
	retrier *resilience.Retrier[bool]
	metrics telemetry.Metrics
}

// Option configures the client.
type Option func(*Client)

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		cl.http = c
	}
}

// WithMetrics records generation metrics.
func WithMetrics(m telemetry.Metrics) Option {
	return func(cl *Client) {
		cl.metrics = m
	}
}

// NewClient creates a client.
func NewClient(config Config, opts ...Option) *Client {
	if config.BaseURL == "" {
		config.BaseURL = DefaultBaseURL
	}
	config.BaseURL = strings.TrimRight(config.BaseURL, "/")
	if config.UserAgent == "" {
		config.UserAgent = DefaultConfig().UserAgent
	}

	trips := isUnreachable
	if config.CircuitBreakerThreshold <= 0 {
		trips = func(error) bool { return false }
	}

	c := &Client{
		config: config,
		http:   &http.Client{Timeout: config.Timeout},
		guard: resilience.NewGuard[*dataset.GeneratedData](resilience.Config{
			MaxConcurrent:           1,
			CircuitBreakerThreshold: config.CircuitBreakerThreshold,
			CircuitBreakerTimeout:   config.CircuitBreakerTimeout,
			Trips:                   trips,
		}),
		retrier: resilience.NewRetrier[bool](config.HealthRetry),
		metrics: telemetry.NoopMetricsProvider{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the service root.
func (c *Client) BaseURL() string {
	return c.config.BaseURL
}

// response is the wire envelope of POST /generate.
type response struct {
	Success *bool                  `json:"success,omitempty"`
	Message string                 `json:"message"`
	Data    *dataset.GeneratedData `json:"data"`
}

// Generate validates req and requests a dataset. Generation is never
// retried; concurrent calls are serialized.
func (c *Client) Generate(ctx context.Context, req dataset.GenerationRequest) (*dataset.GeneratedData, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encode generation request: %w", err)
	}

	ctx, span := telemetry.StartSpan(ctx, "datagen.generate")
	start := time.Now()

	data, err := c.guard.Execute(ctx, func(ctx context.Context) (*dataset.GeneratedData, error) {
		return c.generate(ctx, body)
	})
	if errors.Is(err, resilience.ErrRejected) {
		c.metrics.RecordRejection(ctx)
		err = &UnreachableError{BaseURL: c.config.BaseURL, Err: err}
	}
	telemetry.EndSpan(span, err)

	samples := 0
	if data != nil {
		samples = len(data.Samples)
	}
	c.metrics.RecordGeneration(ctx, err == nil, samples, time.Since(start))

	if err != nil {
		logging.Warn().Add(
			logging.Component("datagen"),
			logging.URL(c.config.BaseURL),
			logging.ErrorField(err),
		).Msg("data generation failed")
		return nil, err
	}
	logging.Info().Add(
		logging.Component("datagen"),
		logging.URL(c.config.BaseURL),
		logging.Points(samples),
		logging.Duration(time.Since(start)),
	).Msg("data generated")
	return data, nil
}

func (c *Client) generate(ctx context.Context, body []byte) (*dataset.GeneratedData, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL+"/generate", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("User-Agent", c.config.UserAgent)

	resp, err := c.http.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &UnreachableError{BaseURL: c.config.BaseURL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		text, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &APIError{Status: resp.StatusCode, Body: string(text)}
	}

	var out response
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if out.Success != nil && !*out.Success {
		return nil, fmt.Errorf("%w: %s", ErrGenerationFailed, out.Message)
	}
	if out.Data == nil {
		return nil, fmt.Errorf("%w: response has no data", ErrGenerationFailed)
	}
	if out.Data.BasicData.Dim == 0 {
		out.Data.BasicData.Dim = len(out.Data.BasicData.Axes)
	}
	return out.Data, nil
}

// Health reports whether GET /health answers with a 2xx status. It never
// returns an error; failure is an advisory state.
func (c *Client) Health(ctx context.Context) bool {
	ok, _ := c.health(ctx)
	return ok
}

func (c *Client) health(ctx context.Context) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.config.BaseURL+"/health", nil)
	if err != nil {
		return false, err
	}
	req.Header.Set("User-Agent", c.config.UserAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return false, &UnreachableError{BaseURL: c.config.BaseURL, Err: err}
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxErrorBody))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return false, &APIError{Status: resp.StatusCode}
	}
	return true, nil
}

// WaitHealthy polls Health with exponential backoff until the service
// answers or the attempts run out.
func (c *Client) WaitHealthy(ctx context.Context) error {
	_, err := c.retrier.Do(ctx, func(ctx context.Context) (bool, error) {
		ok, err := c.health(ctx)
		if err != nil {
			logging.Debug().Add(logging.URL(c.config.BaseURL), logging.ErrorField(err)).Msg("waiting for data generation service")
		}
		return ok, err
	})
	if err != nil {
		return &UnreachableError{BaseURL: c.config.BaseURL, Err: err}
	}
	return nil
}

// CircuitOpen reports whether generation is currently failing fast.
func (c *Client) CircuitOpen() bool {
	return c.guard.Open()
}

func isUnreachable(err error) bool {
	return errors.Is(err, ErrServiceUnreachable)
}
