package datagen

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/felixgeelhaar/chartgen/domain/config"
	"github.com/felixgeelhaar/chartgen/domain/dataset"
	"github.com/felixgeelhaar/chartgen/infrastructure/resilience"
)

func validRequest() dataset.GenerationRequest {
	return dataset.GenerationRequest{
		Axes: []dataset.AxisSpec{
			{Name: "x", Minimum: 0, Maximum: 10, Interval: 1},
			{Name: "y", Minimum: 0, Maximum: 5, Interval: 0.5, AllowDuplicates: true},
		},
		ValueType: dataset.ValueDouble,
		NumPoints: 3,
	}
}

const okBody = `{
	"success": true,
	"message": "ok",
	"data": {
		"basic_data": {"dim": 2, "axes": [{"name": "x", "min": 0, "max": 10, "interval": 1, "allow_dup": false}, {"name": "y", "min": 0, "max": 5, "interval": 0.5, "allow_dup": true}], "value_type": "double"},
		"data_value": [[[1, 2], 5], [[3, 4], 6], [[5, 6], 7]]
	}
}`

// closedURL returns a base URL nothing listens on.
func closedURL(t *testing.T) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	addr := ln.Addr().String()
	_ = ln.Close()
	return "http://" + addr
}

func newClient(base string) *Client {
	cfg := DefaultConfig()
	cfg.BaseURL = base
	cfg.HealthRetry = resilience.RetryConfig{MaxAttempts: 2, InitialDelay: time.Millisecond}
	return NewClient(cfg)
}

func TestClient_Generate(t *testing.T) {
	t.Parallel()

	var got dataset.GenerationRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/generate" {
			t.Errorf("request = %s %s, want POST /generate", r.Method, r.URL.Path)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("Content-Type = %s", ct)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(okBody))
	}))
	defer server.Close()

	data, err := newClient(server.URL+"/").Generate(context.Background(), validRequest())
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if len(data.Samples) != 3 {
		t.Errorf("samples = %d, want 3", len(data.Samples))
	}
	if data.BasicData.Dim != 2 || data.BasicData.Axes[1].Name != "y" {
		t.Errorf("basic data = %+v", data.BasicData)
	}
	if got.NumPoints != 3 || got.ValueType != dataset.ValueDouble || !got.Axes[1].AllowDuplicates {
		t.Errorf("sent request = %+v", got)
	}
}

func TestClient_Generate_InvalidRequest(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer server.Close()

	req := validRequest()
	req.NumPoints = 0
	_, err := newClient(server.URL).Generate(context.Background(), req)
	if !errors.Is(err, dataset.ErrInvalidRequest) {
		t.Errorf("Generate() error = %v, want ErrInvalidRequest", err)
	}
	if calls.Load() != 0 {
		t.Error("invalid request reached the service")
	}
}

func TestClient_Generate_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		status  int
		body    string
		wantIs  error
		wantMsg string
	}{
		{
			name:    "server error",
			status:  http.StatusInternalServerError,
			body:    "boom",
			wantMsg: "API error (500): boom",
		},
		{
			name:    "validation error",
			status:  http.StatusUnprocessableEntity,
			body:    `{"detail":"bad axes"}`,
			wantMsg: `API error (422): {"detail":"bad axes"}`,
		},
		{
			name:   "success false",
			status: http.StatusOK,
			body:   `{"success": false, "message": "too many points"}`,
			wantIs: ErrGenerationFailed,
		},
		{
			name:   "no data",
			status: http.StatusOK,
			body:   `{"message": "ok"}`,
			wantIs: ErrGenerationFailed,
		},
		{
			name:   "malformed",
			status: http.StatusOK,
			body:   `{"data": [`,
			wantIs: ErrMalformedResponse,
		},
		{
			name:   "malformed sample",
			status: http.StatusOK,
			body:   `{"data": {"basic_data": {"dim": 1, "axes": [{"name": "x"}]}, "data_value": [[1]]}}`,
			wantIs: ErrMalformedResponse,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			_, err := newClient(server.URL).Generate(context.Background(), validRequest())
			if err == nil {
				t.Fatal("Generate() error = nil")
			}
			if tt.wantIs != nil && !errors.Is(err, tt.wantIs) {
				t.Errorf("Generate() error = %v, want %v", err, tt.wantIs)
			}
			if tt.wantMsg != "" {
				var apiErr *APIError
				if !errors.As(err, &apiErr) {
					t.Fatalf("error %T is not *APIError", err)
				}
				if apiErr.Error() != tt.wantMsg {
					t.Errorf("Error() = %q, want %q", apiErr.Error(), tt.wantMsg)
				}
			}
			if errors.Is(err, ErrServiceUnreachable) {
				t.Error("application error reported as unreachable")
			}
		})
	}
}

func TestClient_Generate_Unreachable(t *testing.T) {
	t.Parallel()

	base := closedURL(t)
	_, err := newClient(base).Generate(context.Background(), validRequest())
	if !errors.Is(err, ErrServiceUnreachable) {
		t.Fatalf("Generate() error = %v, want ErrServiceUnreachable", err)
	}
	want := "Cannot connect to the data generation server. Check that it is running at " + base
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestClient_Generate_CircuitOpens(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.BaseURL = closedURL(t)
	cfg.CircuitBreakerThreshold = 2
	cfg.CircuitBreakerTimeout = time.Minute
	c := NewClient(cfg)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, _ = c.Generate(ctx, validRequest())
	}
	if !c.CircuitOpen() {
		t.Fatal("circuit not open after repeated connectivity failures")
	}
	_, err := c.Generate(ctx, validRequest())
	if !errors.Is(err, ErrServiceUnreachable) || !errors.Is(err, resilience.ErrRejected) {
		t.Errorf("Generate() on open circuit error = %v", err)
	}
}

func TestClient_Generate_APIErrorsDoNotTrip(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusBadRequest)
	}))
	defer server.Close()

	cfg := DefaultConfig()
	cfg.BaseURL = server.URL
	cfg.CircuitBreakerThreshold = 1
	c := NewClient(cfg)

	for i := 0; i < 3; i++ {
		var apiErr *APIError
		if _, err := c.Generate(context.Background(), validRequest()); !errors.As(err, &apiErr) {
			t.Fatalf("call %d error = %v, want *APIError", i, err)
		}
	}
	if c.CircuitOpen() {
		t.Error("circuit opened on application errors")
	}
}

func TestClient_Health(t *testing.T) {
	t.Parallel()

	up := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/health" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	}))
	defer up.Close()

	failing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer failing.Close()

	tests := []struct {
		name string
		base string
		want bool
	}{
		{"up", up.URL, true},
		{"unhealthy", failing.URL, false},
		{"down", closedURL(t), false},
	}
	for _, tt := range tests {
		if got := newClient(tt.base).Health(context.Background()); got != tt.want {
			t.Errorf("%s: Health() = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestClient_WaitHealthy(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 2 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	if err := newClient(server.URL).WaitHealthy(context.Background()); err != nil {
		t.Errorf("WaitHealthy() error = %v", err)
	}

	err := newClient(closedURL(t)).WaitHealthy(context.Background())
	if !errors.Is(err, ErrServiceUnreachable) {
		t.Errorf("WaitHealthy() error = %v, want ErrServiceUnreachable", err)
	}
	if !strings.Contains(err.Error(), "Cannot connect") {
		t.Errorf("WaitHealthy() message = %q", err.Error())
	}
}

func TestConfigFrom(t *testing.T) {
	t.Parallel()

	app := config.Default()
	app.Service.BaseURL = "http://gen:9000"
	app.Service.Timeout = config.Duration(3 * time.Second)
	app.Resilience.CircuitBreaker.Threshold = 0

	cfg := ConfigFrom(app)
	if cfg.BaseURL != "http://gen:9000" {
		t.Errorf("BaseURL = %q", cfg.BaseURL)
	}
	if cfg.Timeout != 3*time.Second {
		t.Errorf("Timeout = %v, want 3s", cfg.Timeout)
	}
	if cfg.CircuitBreakerThreshold != 0 {
		t.Errorf("CircuitBreakerThreshold = %d, want 0", cfg.CircuitBreakerThreshold)
	}
	if cfg.HealthRetry.MaxAttempts != 10 {
		t.Errorf("HealthRetry.MaxAttempts = %d, want 10", cfg.HealthRetry.MaxAttempts)
	}

	if got := ConfigFrom(nil); got.BaseURL != DefaultBaseURL {
		t.Errorf("ConfigFrom(nil).BaseURL = %q", got.BaseURL)
	}
}
