// Package application provides the chartgen workbench: it generates
// datasets through the data-generation service, hands them off between
// views through a session store and turns chart requests into live chart
// configurations.
package application

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/felixgeelhaar/chartgen/domain/chart"
	"github.com/felixgeelhaar/chartgen/domain/dataset"
	"github.com/felixgeelhaar/chartgen/domain/record"
	"github.com/felixgeelhaar/chartgen/domain/scaling"
	"github.com/felixgeelhaar/chartgen/domain/session"
	"github.com/felixgeelhaar/chartgen/domain/validation"
	"github.com/felixgeelhaar/chartgen/infrastructure/logging"
	"github.com/felixgeelhaar/chartgen/infrastructure/statemachine"
	"github.com/felixgeelhaar/chartgen/infrastructure/telemetry"
)

// Generator produces datasets. *datagen.Client implements it.
type Generator interface {
	Generate(ctx context.Context, req dataset.GenerationRequest) (*dataset.GeneratedData, error)
	Health(ctx context.Context) bool
}

// WorkbenchConfig contains configuration for the workbench.
type WorkbenchConfig struct {
	Generator Generator
	Store     session.Store
	TTL       time.Duration
	Registry  *chart.Registry
	Metrics   telemetry.Metrics
	NewID     func() string
	// IdleTimeout evicts sessions with no live chart and no request in
	// flight. Zero falls back to TTL, then to DefaultIdleTimeout.
	IdleTimeout time.Duration
}

// DefaultIdleTimeout is used when neither IdleTimeout nor TTL is set.
const DefaultIdleTimeout = 30 * time.Minute

// Workbench owns the per-session request state: the lifecycle machine and
// the live chart handle.
type Workbench struct {
	generator Generator
	handoff   *session.Handoff
	registry  *chart.Registry
	colors    scaling.ColorConfig
	metrics   telemetry.Metrics
	newID     func() string
	idle      time.Duration
	now       func() time.Time

	mu       sync.Mutex
	sessions map[string]*sessionState
}

type sessionState struct {
	lifecycle *statemachine.Lifecycle
	// lastUsed is guarded by Workbench.mu.
	lastUsed time.Time

	mu      sync.Mutex
	current *chart.Handle
}

// Prepared is a validated chart request with its records projected and
// filtered.
type Prepared struct {
	Result     *validation.Result
	Descriptor dataset.Descriptor
	Summary    dataset.Summary
	// Records survived projection and windowing.
	Records []record.Record
	// Projected counts records before windowing.
	Projected int
}

// NewWorkbench creates a workbench with the given configuration.
func NewWorkbench(config WorkbenchConfig) (*Workbench, error) {
	if config.Generator == nil {
		return nil, ErrGeneratorRequired
	}
	if config.Store == nil {
		return nil, ErrStoreRequired
	}

	w := &Workbench{
		generator: config.Generator,
		handoff:   session.NewHandoff(config.Store, config.TTL),
		registry:  config.Registry,
		colors:    scaling.DefaultColor(),
		metrics:   config.Metrics,
		newID:     config.NewID,
		idle:      config.IdleTimeout,
		now:       time.Now,
		sessions:  make(map[string]*sessionState),
	}
	if w.idle <= 0 {
		w.idle = config.TTL
	}
	if w.idle <= 0 {
		w.idle = DefaultIdleTimeout
	}
	if w.registry == nil {
		w.registry = chart.DefaultRegistry()
	}
	if w.metrics == nil {
		w.metrics = telemetry.NoopMetricsProvider{}
	}
	if w.newID == nil {
		w.newID = uuid.NewString
	}
	return w, nil
}

// NewSessionID mints a session id.
func NewSessionID() string {
	return uuid.NewString()
}

func sessionKey(id string) string {
	id = strings.TrimSpace(id)
	if id == "" {
		return session.DefaultID
	}
	return id
}

func (w *Workbench) state(id string) (*sessionState, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	now := w.now()
	if st, ok := w.sessions[id]; ok {
		st.lastUsed = now
		return st, nil
	}
	w.evictIdle(now)

	ctx := statemachine.NewContext(id)
	ctx.OnTransition = func(tr statemachine.Transition) {
		w.metrics.RecordTransition(context.Background(), string(tr.From), string(tr.To))
		logging.Debug().Add(
			logging.SessionID(id),
			logging.Transition(string(tr.From), string(tr.To)),
			logging.Str("reason", tr.Reason),
		).Msg("lifecycle transition")
	}
	lc, err := statemachine.NewLifecycle(ctx)
	if err != nil {
		return nil, err
	}
	st := &sessionState{lifecycle: lc, lastUsed: now}
	w.sessions[id] = st
	return st, nil
}

// lookup returns an existing session and marks it used.
func (w *Workbench) lookup(id string) (*sessionState, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()

	st, ok := w.sessions[id]
	if ok {
		st.lastUsed = w.now()
	}
	return st, ok
}

// evictIdle drops sessions unused for longer than the idle timeout that
// hold no chart and have nothing in flight. Callers hold w.mu.
func (w *Workbench) evictIdle(now time.Time) {
	for id, st := range w.sessions {
		if now.Sub(st.lastUsed) < w.idle || st.lifecycle.Busy() {
			continue
		}
		st.mu.Lock()
		live := st.current != nil
		st.mu.Unlock()
		if live {
			continue
		}
		delete(w.sessions, id)
		st.lifecycle.Stop()
		logging.Debug().Add(
			logging.Component("workbench"),
			logging.SessionID(id),
		).Msg("idle session evicted")
	}
}

// Generate requests a dataset and stores it as the session's data. The
// previous dataset is kept when generation fails.
func (w *Workbench) Generate(ctx context.Context, sessionID string, req dataset.GenerationRequest) (*dataset.GeneratedData, error) {
	id := sessionKey(sessionID)
	if err := req.Validate(); err != nil {
		return nil, err
	}
	st, err := w.state(id)
	if err != nil {
		return nil, err
	}

	ctx, span := telemetry.StartSpan(ctx, "workbench.generate",
		attribute.String("session.id", id),
		attribute.Int("request.points", req.NumPoints),
	)

	var data *dataset.GeneratedData
	err = st.lifecycle.Run(statemachine.OpGenerate, func() error {
		generated, err := w.generator.Generate(ctx, req)
		if err != nil {
			return err
		}
		if err := w.handoff.Save(ctx, id, generated); err != nil {
			return fmt.Errorf("store generated data: %w", err)
		}
		data = generated
		return nil
	})
	telemetry.EndSpan(span, err)
	if err != nil {
		w.metrics.RecordError(ctx, errorType(err))
		return nil, err
	}

	logging.Info().Add(
		logging.Component("workbench"),
		logging.SessionID(id),
		logging.Dimension(data.BasicData.Dim),
		logging.Points(len(data.Samples)),
	).Msg("dataset stored")
	return data, nil
}

// Data returns the session's generated data. A session that never
// generated yields session.ErrNoData.
func (w *Workbench) Data(ctx context.Context, sessionID string) (*dataset.GeneratedData, error) {
	return w.handoff.Load(ctx, sessionKey(sessionID))
}

// Prepare loads the session's data and runs validation, projection and
// windowing for form.
func (w *Workbench) Prepare(ctx context.Context, sessionID string, form validation.Form) (*Prepared, error) {
	id := sessionKey(sessionID)

	data, err := w.handoff.Load(ctx, id)
	if err != nil {
		return nil, err
	}

	_, span := telemetry.StartSpan(ctx, "workbench.prepare",
		attribute.String("chart.type", form.ChartType),
	)
	p, err := w.prepare(ctx, data, form)
	telemetry.EndSpan(span, err)
	return p, err
}

func (w *Workbench) prepare(ctx context.Context, data *dataset.GeneratedData, form validation.Form) (*Prepared, error) {
	res, err := validation.Validate(form, data)
	if err != nil {
		return nil, err
	}
	ds := res.Descriptor()

	projected := record.Prepare(data.Samples, ds.Axes)
	if dropped := len(data.Samples) - len(projected); dropped > 0 {
		w.metrics.RecordDropped(ctx, "prepare", dropped)
	}
	if len(projected) == 0 {
		return nil, record.ErrNoRecords
	}

	kept, err := record.Apply(projected, res.Windows)
	if dropped := len(projected) - len(kept); dropped > 0 {
		w.metrics.RecordDropped(ctx, "window", dropped)
	}
	if err != nil {
		return nil, err
	}

	return &Prepared{
		Result:     res,
		Descriptor: ds,
		Summary:    data.Summary(),
		Records:    kept,
		Projected:  len(projected),
	}, nil
}

// CreateChart builds a chart for form and makes it the session's live
// chart, releasing the previous one. On failure the previous chart stays.
func (w *Workbench) CreateChart(ctx context.Context, sessionID string, form validation.Form) (*chart.Handle, error) {
	id := sessionKey(sessionID)
	st, err := w.state(id)
	if err != nil {
		return nil, err
	}

	ctx, span := telemetry.StartSpan(ctx, "workbench.chart",
		attribute.String("session.id", id),
		attribute.String("chart.type", form.ChartType),
	)
	start := time.Now()

	var handle *chart.Handle
	err = st.lifecycle.Run(statemachine.OpChart, func() error {
		data, err := w.handoff.Load(ctx, id)
		if err != nil {
			return err
		}
		p, err := w.prepare(ctx, data, form)
		if err != nil {
			return err
		}

		cfg, err := w.registry.Build(p.Result.ChartType, p.Records, p.Descriptor, p.Result.Scaling, w.colors)
		if err != nil {
			return err
		}

		handle = chart.NewHandle(w.newID(), cfg, func(*chart.Handle) {
			w.metrics.ChartReleased(context.Background())
		})
		w.metrics.ChartAcquired(ctx)
		st.swap(handle)

		logging.Info().Add(
			logging.Component("workbench"),
			logging.SessionID(id),
			logging.HandleID(handle.ID),
			logging.ChartType(string(cfg.Type)),
			logging.Records(p.Projected, len(p.Records)),
			logging.Points(cfg.PointCount()),
			logging.Scaling(p.Result.Scaling.String()),
		).Msg("chart created")
		return nil
	})
	telemetry.EndSpan(span, err)

	points := 0
	if handle != nil {
		points = handle.Config.PointCount()
	}
	w.metrics.RecordChart(ctx, strings.TrimSpace(form.ChartType), err == nil, points, time.Since(start))
	if err != nil {
		w.metrics.RecordError(ctx, errorType(err))
		logging.Warn().Add(
			logging.Component("workbench"),
			logging.SessionID(id),
			logging.ChartType(form.ChartType),
			logging.ErrorField(err),
		).Msg("chart request failed")
		return nil, err
	}
	return handle, nil
}

// swap installs h and releases the handle it replaces.
func (s *sessionState) swap(h *chart.Handle) {
	s.mu.Lock()
	prev := s.current
	s.current = h
	s.mu.Unlock()
	prev.Release()
}

// Current returns the session's live chart.
func (w *Workbench) Current(sessionID string) (*chart.Handle, error) {
	st, ok := w.lookup(sessionKey(sessionID))
	if !ok {
		return nil, ErrNoChart
	}

	st.mu.Lock()
	defer st.mu.Unlock()
	if st.current == nil {
		return nil, ErrNoChart
	}
	return st.current, nil
}

// Release drops the session's live chart. It reports whether there was one.
func (w *Workbench) Release(sessionID string) bool {
	st, ok := w.lookup(sessionKey(sessionID))
	if !ok {
		return false
	}

	st.mu.Lock()
	prev := st.current
	st.current = nil
	st.mu.Unlock()
	if prev == nil {
		return false
	}
	prev.Release()
	return true
}

// State returns the session's lifecycle state.
func (w *Workbench) State(sessionID string) statemachine.State {
	st, ok := w.lookup(sessionKey(sessionID))
	if !ok {
		return statemachine.StateIdle
	}
	return st.lifecycle.State()
}

// Sweep evicts idle sessions now. Sessions are also swept whenever a new
// one is created.
func (w *Workbench) Sweep() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.evictIdle(w.now())
}

// Sessions counts the sessions currently tracked.
func (w *Workbench) Sessions() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.sessions)
}

// Health reports whether the data-generation service is up. It is
// advisory only.
func (w *Workbench) Health(ctx context.Context) bool {
	return w.generator.Health(ctx)
}

// Close releases every live chart and stops the lifecycles.
func (w *Workbench) Close() {
	w.mu.Lock()
	sessions := w.sessions
	w.sessions = make(map[string]*sessionState)
	w.mu.Unlock()

	for _, st := range sessions {
		st.mu.Lock()
		prev := st.current
		st.current = nil
		st.mu.Unlock()
		prev.Release()
		st.lifecycle.Stop()
	}
}

// errorType names an error for the error counter.
func errorType(err error) string {
	var verr *validation.Error
	switch {
	case errors.As(err, &verr):
		return "validation"
	case errors.Is(err, ErrBusy):
		return "busy"
	case errors.Is(err, session.ErrNoData):
		return "no_data"
	case errors.Is(err, record.ErrEmptyWindow):
		return "empty_window"
	case errors.Is(err, record.ErrNoRecords):
		return "no_records"
	case errors.Is(err, chart.ErrUnknownChartType):
		return "unknown_chart_type"
	case errors.Is(err, dataset.ErrInvalidRequest):
		return "invalid_request"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "cancelled"
	default:
		return "internal"
	}
}
