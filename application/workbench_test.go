package application

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/felixgeelhaar/chartgen/domain/chart"
	"github.com/felixgeelhaar/chartgen/domain/dataset"
	"github.com/felixgeelhaar/chartgen/domain/record"
	"github.com/felixgeelhaar/chartgen/domain/session"
	"github.com/felixgeelhaar/chartgen/domain/validation"
	"github.com/felixgeelhaar/chartgen/infrastructure/statemachine"
	"github.com/felixgeelhaar/chartgen/infrastructure/storage/memory"
)

type fakeGenerator struct {
	data    *dataset.GeneratedData
	err     error
	healthy bool

	// block, when set, holds Generate until it is closed.
	block   chan struct{}
	started chan struct{}
}

func (g *fakeGenerator) Generate(ctx context.Context, _ dataset.GenerationRequest) (*dataset.GeneratedData, error) {
	if g.started != nil {
		close(g.started)
	}
	if g.block != nil {
		select {
		case <-g.block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return g.data, g.err
}

func (g *fakeGenerator) Health(context.Context) bool { return g.healthy }

func grid() *dataset.GeneratedData {
	data := &dataset.GeneratedData{
		BasicData: dataset.BasicData{
			Dim: 2,
			Axes: []dataset.AxisInfo{
				{Name: "x", Min: 0, Max: 4, Interval: 1},
				{Name: "y", Min: 0, Max: 4, Interval: 1},
			},
			ValueType: dataset.ValueDouble,
		},
	}
	for x := 0; x < 5; x++ {
		for y := 0; y < 2; y++ {
			data.Samples = append(data.Samples, dataset.NewSample([]float64{float64(x), float64(y)}, float64(x*y)))
		}
	}
	return data
}

func request() dataset.GenerationRequest {
	return dataset.GenerationRequest{
		Axes: []dataset.AxisSpec{
			{Name: "x", Minimum: 0, Maximum: 4, Interval: 1},
			{Name: "y", Minimum: 0, Maximum: 4, Interval: 1},
		},
		ValueType: dataset.ValueDouble,
		NumPoints: 10,
	}
}

func newWorkbench(t *testing.T, gen Generator) *Workbench {
	t.Helper()
	n := 0
	var mu sync.Mutex
	w, err := New(
		WithGenerator(gen),
		WithStore(memory.NewStore()),
		WithIDGenerator(func() string {
			mu.Lock()
			defer mu.Unlock()
			n++
			return fmt.Sprintf("chart-%d", n)
		}),
	)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(w.Close)
	return w
}

func TestNewWorkbench_Requires(t *testing.T) {
	t.Parallel()

	if _, err := NewWorkbench(WorkbenchConfig{Store: memory.NewStore()}); !errors.Is(err, ErrGeneratorRequired) {
		t.Errorf("NewWorkbench() error = %v, want ErrGeneratorRequired", err)
	}
	if _, err := NewWorkbench(WorkbenchConfig{Generator: &fakeGenerator{}}); !errors.Is(err, ErrStoreRequired) {
		t.Errorf("NewWorkbench() error = %v, want ErrStoreRequired", err)
	}
}

func TestWorkbench_DataBeforeGenerate(t *testing.T) {
	t.Parallel()

	w := newWorkbench(t, &fakeGenerator{})
	if _, err := w.Data(context.Background(), "s1"); !errors.Is(err, session.ErrNoData) {
		t.Errorf("Data() error = %v, want ErrNoData", err)
	}
	if _, err := w.CreateChart(context.Background(), "s1", validation.Form{ChartType: "scatter", XAxis: "x", YAxis: "y"}); !errors.Is(err, session.ErrNoData) {
		t.Errorf("CreateChart() error = %v, want ErrNoData", err)
	}
}

func TestWorkbench_GenerateStores(t *testing.T) {
	t.Parallel()

	w := newWorkbench(t, &fakeGenerator{data: grid()})
	ctx := context.Background()

	if _, err := w.Generate(ctx, "s1", request()); err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	data, err := w.Data(ctx, "s1")
	if err != nil {
		t.Fatalf("Data() error = %v", err)
	}
	if got := data.Summary().Points; got != 10 {
		t.Errorf("Summary().Points = %d, want 10", got)
	}
	if _, err := w.Data(ctx, "s2"); !errors.Is(err, session.ErrNoData) {
		t.Errorf("other session Data() error = %v, want ErrNoData", err)
	}
	if w.State("s1") != statemachine.StateIdle {
		t.Errorf("State() = %s, want idle", w.State("s1"))
	}
}

func TestWorkbench_GenerateInvalidRequest(t *testing.T) {
	t.Parallel()

	w := newWorkbench(t, &fakeGenerator{data: grid()})
	req := request()
	req.NumPoints = 0
	if _, err := w.Generate(context.Background(), "s1", req); !errors.Is(err, dataset.ErrInvalidRequest) {
		t.Errorf("Generate() error = %v, want ErrInvalidRequest", err)
	}
}

func TestWorkbench_GenerateFailureKeepsData(t *testing.T) {
	t.Parallel()

	gen := &fakeGenerator{data: grid()}
	w := newWorkbench(t, gen)
	ctx := context.Background()
	if _, err := w.Generate(ctx, "", request()); err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	gen.err = errors.New("service down")
	gen.data = nil
	if _, err := w.Generate(ctx, "", request()); err == nil {
		t.Fatal("Generate() error = nil, want failure")
	}
	if _, err := w.Data(ctx, session.DefaultID); err != nil {
		t.Errorf("Data() error = %v, want previous dataset", err)
	}
}

func TestWorkbench_CreateChartReplacesHandle(t *testing.T) {
	t.Parallel()

	w := newWorkbench(t, &fakeGenerator{data: grid()})
	ctx := context.Background()
	if _, err := w.Generate(ctx, "s1", request()); err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	first, err := w.CreateChart(ctx, "s1", validation.Form{ChartType: "scatter", XAxis: "x", YAxis: "y"})
	if err != nil {
		t.Fatalf("CreateChart() error = %v", err)
	}
	if first.Config.Type != chart.TypeScatter {
		t.Errorf("Config.Type = %s, want scatter", first.Config.Type)
	}
	if first.Config.PointCount() != 10 {
		t.Errorf("PointCount() = %d, want 10", first.Config.PointCount())
	}

	second, err := w.CreateChart(ctx, "s1", validation.Form{ChartType: "bar", XAxis: "x", YAxis: "value"})
	if err != nil {
		t.Fatalf("CreateChart() error = %v", err)
	}
	if !first.Released() {
		t.Error("previous handle not released")
	}
	if second.Released() {
		t.Error("new handle released")
	}

	cur, err := w.Current("s1")
	if err != nil {
		t.Fatalf("Current() error = %v", err)
	}
	if cur.ID != second.ID {
		t.Errorf("Current().ID = %s, want %s", cur.ID, second.ID)
	}
}

func TestWorkbench_FailedChartKeepsPrevious(t *testing.T) {
	t.Parallel()

	w := newWorkbench(t, &fakeGenerator{data: grid()})
	ctx := context.Background()
	if _, err := w.Generate(ctx, "s1", request()); err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	first, err := w.CreateChart(ctx, "s1", validation.Form{ChartType: "scatter", XAxis: "x", YAxis: "y"})
	if err != nil {
		t.Fatalf("CreateChart() error = %v", err)
	}

	tests := []struct {
		name  string
		form  validation.Form
		check func(error) bool
	}{
		{
			name:  "validation",
			form:  validation.Form{ChartType: "scatter", XAxis: "x"},
			check: func(err error) bool { return errors.Is(err, validation.ErrInvalidInput) },
		},
		{
			name:  "unknown type",
			form:  validation.Form{ChartType: "pie", XAxis: "x"},
			check: func(err error) bool { return errors.Is(err, chart.ErrUnknownChartType) },
		},
		{
			name:  "empty window",
			form:  validation.Form{ChartType: "scatter", XAxis: "x", YAxis: "y", XRangeMin: "100", XRangeMax: "200"},
			check: func(err error) bool { return errors.Is(err, record.ErrEmptyWindow) },
		},
	}

	for _, tt := range tests {
		_, err := w.CreateChart(ctx, "s1", tt.form)
		if !tt.check(err) {
			t.Errorf("%s: CreateChart() error = %v", tt.name, err)
		}
	}

	if first.Released() {
		t.Error("failed requests released the live chart")
	}
	cur, err := w.Current("s1")
	if err != nil || cur.ID != first.ID {
		t.Errorf("Current() = %v, %v; want first handle", cur, err)
	}
}

func TestWorkbench_ChartWithoutRecordsKeepsPrevious(t *testing.T) {
	t.Parallel()

	gen := &fakeGenerator{data: grid()}
	w := newWorkbench(t, gen)
	ctx := context.Background()
	if _, err := w.Generate(ctx, "s1", request()); err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	first, err := w.CreateChart(ctx, "s1", validation.Form{ChartType: "scatter", XAxis: "x", YAxis: "y"})
	if err != nil {
		t.Fatalf("CreateChart() error = %v", err)
	}

	// Every sample carries only the x coordinate, so none can be read on y.
	sparse := grid()
	for i := range sparse.Samples {
		sparse.Samples[i].Coords = sparse.Samples[i].Coords[:1]
	}
	gen.data = sparse
	if _, err := w.Generate(ctx, "s1", request()); err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	if _, err := w.CreateChart(ctx, "s1", validation.Form{ChartType: "scatter", XAxis: "x", YAxis: "y"}); !errors.Is(err, record.ErrNoRecords) {
		t.Errorf("CreateChart() error = %v, want ErrNoRecords", err)
	}
	if _, err := w.Prepare(ctx, "s1", validation.Form{ChartType: "scatter", XAxis: "x", YAxis: "y"}); !errors.Is(err, record.ErrNoRecords) {
		t.Errorf("Prepare() error = %v, want ErrNoRecords", err)
	}
	if first.Released() {
		t.Error("empty projection released the live chart")
	}
	cur, err := w.Current("s1")
	if err != nil || cur.ID != first.ID {
		t.Errorf("Current() = %v, %v; want first handle", cur, err)
	}
}

func TestWorkbench_EvictsIdleSessions(t *testing.T) {
	t.Parallel()

	w, err := New(
		WithGenerator(&fakeGenerator{data: grid()}),
		WithStore(memory.NewStore()),
		WithIdleTimeout(time.Minute),
	)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(w.Close)

	clock := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	w.now = func() time.Time { return clock }

	ctx := context.Background()
	for _, id := range []string{"live", "idle-1", "idle-2"} {
		if _, err := w.Generate(ctx, id, request()); err != nil {
			t.Fatalf("Generate(%s) error = %v", id, err)
		}
	}
	if _, err := w.CreateChart(ctx, "live", validation.Form{ChartType: "scatter", XAxis: "x", YAxis: "y"}); err != nil {
		t.Fatalf("CreateChart() error = %v", err)
	}
	if got := w.Sessions(); got != 3 {
		t.Fatalf("Sessions() = %d, want 3", got)
	}

	clock = clock.Add(2 * time.Minute)
	if _, err := w.Generate(ctx, "fresh", request()); err != nil {
		t.Fatalf("Generate(fresh) error = %v", err)
	}
	if got := w.Sessions(); got != 2 {
		t.Errorf("Sessions() = %d, want 2 after idle sessions expired", got)
	}
	if _, err := w.Current("live"); err != nil {
		t.Errorf("Current(live) error = %v, session with a chart was evicted", err)
	}

	if !w.Release("live") {
		t.Fatal("Release(live) = false")
	}
	clock = clock.Add(2 * time.Minute)
	w.Sweep()
	if got := w.Sessions(); got != 0 {
		t.Errorf("Sessions() = %d, want 0 after sweep", got)
	}

	// Data outlives the evicted lifecycle.
	if _, err := w.Data(ctx, "idle-1"); err != nil {
		t.Errorf("Data(idle-1) error = %v", err)
	}
}

func TestWorkbench_IdleTimeoutDefaults(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		config WorkbenchConfig
		want   time.Duration
	}{
		{"explicit", WorkbenchConfig{IdleTimeout: time.Second, TTL: time.Hour}, time.Second},
		{"ttl", WorkbenchConfig{TTL: time.Hour}, time.Hour},
		{"default", WorkbenchConfig{}, DefaultIdleTimeout},
	}
	for _, tt := range tests {
		tt.config.Generator = &fakeGenerator{}
		tt.config.Store = memory.NewStore()
		w, err := NewWorkbench(tt.config)
		if err != nil {
			t.Fatalf("%s: NewWorkbench() error = %v", tt.name, err)
		}
		if w.idle != tt.want {
			t.Errorf("%s: idle = %v, want %v", tt.name, w.idle, tt.want)
		}
	}
}

func TestWorkbench_Prepare(t *testing.T) {
	t.Parallel()

	w := newWorkbench(t, &fakeGenerator{data: grid()})
	ctx := context.Background()
	if _, err := w.Generate(ctx, "s1", request()); err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	p, err := w.Prepare(ctx, "s1", validation.Form{ChartType: "scatter", XAxis: "x", YAxis: "y", XRangeMin: "1", XRangeMax: "2"})
	if err != nil {
		t.Fatalf("Prepare() error = %v", err)
	}
	if p.Projected != 10 {
		t.Errorf("Projected = %d, want 10", p.Projected)
	}
	if len(p.Records) != 4 {
		t.Errorf("len(Records) = %d, want 4", len(p.Records))
	}
	if p.Summary.Points != 10 {
		t.Errorf("Summary.Points = %d, want 10", p.Summary.Points)
	}
}

func TestWorkbench_Release(t *testing.T) {
	t.Parallel()

	w := newWorkbench(t, &fakeGenerator{data: grid()})
	ctx := context.Background()
	if w.Release("s1") {
		t.Error("Release() = true with no chart")
	}
	if _, err := w.Generate(ctx, "s1", request()); err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	h, err := w.CreateChart(ctx, "s1", validation.Form{ChartType: "line1d", XAxis: "x"})
	if err != nil {
		t.Fatalf("CreateChart() error = %v", err)
	}
	if !w.Release("s1") {
		t.Error("Release() = false with a live chart")
	}
	if !h.Released() {
		t.Error("handle not released")
	}
	if _, err := w.Current("s1"); !errors.Is(err, ErrNoChart) {
		t.Errorf("Current() error = %v, want ErrNoChart", err)
	}
}

func TestWorkbench_BusyWhileGenerating(t *testing.T) {
	t.Parallel()

	gen := &fakeGenerator{data: grid(), block: make(chan struct{}), started: make(chan struct{})}
	w := newWorkbench(t, gen)
	ctx := context.Background()

	done := make(chan error, 1)
	go func() {
		_, err := w.Generate(ctx, "s1", request())
		done <- err
	}()
	<-gen.started

	if w.State("s1") != statemachine.StateGenerating {
		t.Errorf("State() = %s, want generating", w.State("s1"))
	}
	if _, err := w.CreateChart(ctx, "s1", validation.Form{ChartType: "line1d", XAxis: "x"}); !errors.Is(err, ErrBusy) {
		t.Errorf("CreateChart() error = %v, want ErrBusy", err)
	}

	close(gen.block)
	if err := <-done; err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if _, err := w.CreateChart(ctx, "s1", validation.Form{ChartType: "line1d", XAxis: "x"}); err != nil {
		t.Errorf("CreateChart() after generate error = %v", err)
	}
}

func TestWorkbench_Health(t *testing.T) {
	t.Parallel()

	if newWorkbench(t, &fakeGenerator{healthy: true}).Health(context.Background()) != true {
		t.Error("Health() = false, want true")
	}
	if newWorkbench(t, &fakeGenerator{}).Health(context.Background()) != false {
		t.Error("Health() = true, want false")
	}
}

func TestErrorType(t *testing.T) {
	t.Parallel()

	tests := []struct {
		err  error
		want string
	}{
		{&validation.Error{Message: "x"}, "validation"},
		{fmt.Errorf("wrap: %w", ErrBusy), "busy"},
		{session.ErrNoData, "no_data"},
		{record.ErrEmptyWindow, "empty_window"},
		{record.ErrNoRecords, "no_records"},
		{chart.ErrUnknownChartType, "unknown_chart_type"},
		{context.Canceled, "cancelled"},
		{errors.New("other"), "internal"},
	}
	for _, tt := range tests {
		if got := errorType(tt.err); got != tt.want {
			t.Errorf("errorType(%v) = %s, want %s", tt.err, got, tt.want)
		}
	}
}
