package cli

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/felixgeelhaar/chartgen/domain/dataset"
	"github.com/felixgeelhaar/chartgen/domain/session"
)

type fakeGenerator struct {
	data    *dataset.GeneratedData
	healthy bool
}

func (g *fakeGenerator) Generate(context.Context, dataset.GenerationRequest) (*dataset.GeneratedData, error) {
	return g.data, nil
}

func (g *fakeGenerator) Health(context.Context) bool { return g.healthy }

func grid() *dataset.GeneratedData {
	data := &dataset.GeneratedData{
		BasicData: dataset.BasicData{
			Dim: 2,
			Axes: []dataset.AxisInfo{
				{Name: "x", Min: 0, Max: 4, Interval: 1},
				{Name: "y", Min: 0, Max: 1, Interval: 1},
			},
			ValueType: dataset.ValueDouble,
		},
	}
	for x := 0; x < 5; x++ {
		for y := 0; y < 2; y++ {
			data.Samples = append(data.Samples, dataset.NewSample([]float64{float64(x), float64(y)}, float64(x+y)))
		}
	}
	return data
}

// run executes one invocation against dir and returns stdout and stderr.
func run(t *testing.T, gen *fakeGenerator, dir string, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	app := New().WithOutput(&stdout, &stderr).WithGenerator(gen)
	err := app.ExecuteWithArgs(context.Background(), append([]string{"--data-dir", dir}, args...))
	return stdout.String(), stderr.String(), err
}

func TestApp_Version(t *testing.T) {
	var stdout, stderr bytes.Buffer
	app := New().WithOutput(&stdout, &stderr)

	if err := app.ExecuteWithArgs(context.Background(), []string{"version"}); err != nil {
		t.Fatalf("version command failed: %v", err)
	}
	if !strings.Contains(stdout.String(), "chartgen version") {
		t.Errorf("version output missing 'chartgen version', got: %s", stdout.String())
	}
}

func TestApp_Help(t *testing.T) {
	var stdout, stderr bytes.Buffer
	app := New().WithOutput(&stdout, &stderr)

	if err := app.ExecuteWithArgs(context.Background(), []string{"--help"}); err != nil {
		t.Fatalf("help command failed: %v", err)
	}

	output := stdout.String()
	for _, want := range []string{"generate", "chart", "export", "serve", "validate"} {
		if !strings.Contains(output, want) {
			t.Errorf("help output missing %q", want)
		}
	}
}

func TestParseAxis(t *testing.T) {
	tests := []struct {
		raw     string
		want    dataset.AxisSpec
		wantErr bool
	}{
		{raw: "x:0:10:1", want: dataset.AxisSpec{Name: "x", Minimum: 0, Maximum: 10, Interval: 1}},
		{raw: "t:-1:1:0.25:dup", want: dataset.AxisSpec{Name: "t", Minimum: -1, Maximum: 1, Interval: 0.25, AllowDuplicates: true}},
		{raw: "x:0:10", wantErr: true},
		{raw: "x:a:10:1", wantErr: true},
		{raw: "x:0:10:1:twice", wantErr: true},
	}

	for _, tt := range tests {
		got, err := parseAxis(tt.raw)
		if tt.wantErr {
			if !errors.Is(err, dataset.ErrInvalidRequest) {
				t.Errorf("parseAxis(%q) error = %v, want ErrInvalidRequest", tt.raw, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("parseAxis(%q) error = %v", tt.raw, err)
			continue
		}
		if got != tt.want {
			t.Errorf("parseAxis(%q) = %+v, want %+v", tt.raw, got, tt.want)
		}
	}
}

func TestApp_GenerateRejectsBadRequest(t *testing.T) {
	_, _, err := run(t, &fakeGenerator{data: grid()}, t.TempDir(), "generate", "--points", "5")
	if !errors.Is(err, dataset.ErrInvalidRequest) {
		t.Errorf("generate without axes error = %v, want ErrInvalidRequest", err)
	}
}

func TestApp_DataBeforeGenerate(t *testing.T) {
	_, _, err := run(t, &fakeGenerator{}, t.TempDir(), "data")
	if !errors.Is(err, session.ErrNoData) {
		t.Errorf("data error = %v, want ErrNoData", err)
	}
}

func TestApp_Workflow(t *testing.T) {
	dir := t.TempDir()
	gen := &fakeGenerator{data: grid()}

	out, _, err := run(t, gen, dir, "generate", "--axis", "x:0:4:1", "--axis", "y:0:1:1", "--points", "10")
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	if !strings.Contains(out, "Generated 10 points") {
		t.Errorf("generate output = %s", out)
	}

	out, _, err = run(t, gen, dir, "data")
	if err != nil {
		t.Fatalf("data failed: %v", err)
	}
	if !strings.Contains(out, "Available axes: x, y, value") {
		t.Errorf("data output = %s", out)
	}

	page := filepath.Join(dir, "chart.html")
	_, errOut, err := run(t, gen, dir, "chart", "-t", "scatter", "-x", "x", "-y", "y", "--out", page)
	if err != nil {
		t.Fatalf("chart failed: %v", err)
	}
	if !strings.Contains(errOut, "scatter, 10 points") {
		t.Errorf("chart status = %s", errOut)
	}
	html, err := os.ReadFile(page)
	if err != nil {
		t.Fatalf("read chart: %v", err)
	}
	if !strings.Contains(string(html), "<title>scatter: x, y</title>") {
		t.Error("chart page has no title")
	}

	out, _, err = run(t, gen, dir, "chart", "-t", "bar", "-x", "x", "-y", "value", "--format", "json")
	if err != nil {
		t.Fatalf("chart json failed: %v", err)
	}
	if !strings.Contains(out, `"series"`) {
		t.Errorf("json output = %s", out)
	}

	book := filepath.Join(dir, "records.xlsx")
	out, _, err = run(t, gen, dir, "export", "-t", "scatter", "-x", "x", "-y", "y", "--x-min", "0", "--x-max", "1", "--out", book)
	if err != nil {
		t.Fatalf("export failed: %v", err)
	}
	if !strings.Contains(out, "Exported 4 of 10 records") {
		t.Errorf("export output = %s", out)
	}
	if info, err := os.Stat(book); err != nil || info.Size() == 0 {
		t.Errorf("workbook missing: %v", err)
	}
}

func TestApp_ChartFormOverlay(t *testing.T) {
	dir := t.TempDir()
	gen := &fakeGenerator{data: grid()}

	if _, _, err := run(t, gen, dir, "generate", "--axis", "x:0:4:1", "--axis", "y:0:1:1", "--points", "10"); err != nil {
		t.Fatalf("generate failed: %v", err)
	}

	form := filepath.Join(dir, "form.yaml")
	content := "chart_type: scatter\nx_axis: x\ny_axis: y\n"
	if err := os.WriteFile(form, []byte(content), 0o600); err != nil {
		t.Fatalf("write form: %v", err)
	}

	out, _, err := run(t, gen, dir, "chart", "--form", form, "-y", "value", "--format", "config")
	if err != nil {
		t.Fatalf("chart failed: %v", err)
	}
	if !strings.Contains(out, `"type": "scatter"`) || !strings.Contains(out, `"title": "scatter: x, value"`) {
		t.Errorf("config output = %s", out)
	}
}

func TestApp_ChartUnknownFormat(t *testing.T) {
	dir := t.TempDir()
	gen := &fakeGenerator{data: grid()}

	if _, _, err := run(t, gen, dir, "generate", "--axis", "x:0:4:1", "--axis", "y:0:1:1", "--points", "10"); err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	_, _, err := run(t, gen, dir, "chart", "-t", "scatter", "-x", "x", "-y", "y", "--format", "png")
	if err == nil || !strings.Contains(err.Error(), "unknown format") {
		t.Errorf("chart error = %v, want unknown format", err)
	}
}

func TestApp_ExportRequiresOut(t *testing.T) {
	_, _, err := run(t, &fakeGenerator{}, t.TempDir(), "export", "-t", "scatter", "-x", "x")
	if err == nil || !strings.Contains(err.Error(), "--out") {
		t.Errorf("export error = %v, want missing --out", err)
	}
}

func TestApp_Health(t *testing.T) {
	tests := []struct {
		name    string
		healthy bool
		want    string
	}{
		{"healthy", true, "is healthy"},
		{"unreachable", false, "Cannot connect to the data generation server at http://localhost:9999"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, _, err := run(t, &fakeGenerator{healthy: tt.healthy}, t.TempDir(), "--service-url", "http://localhost:9999", "health")
			if err != nil {
				t.Fatalf("health must not fail: %v", err)
			}
			if !strings.Contains(out, tt.want) {
				t.Errorf("health output = %s, want %q", out, tt.want)
			}
		})
	}
}

func TestApp_ChartTypes(t *testing.T) {
	out, _, err := run(t, &fakeGenerator{}, t.TempDir(), "chart-types")
	if err != nil {
		t.Fatalf("chart-types failed: %v", err)
	}
	if !strings.Contains(out, "grouped_bar ") || !strings.Contains(out, "y?") {
		t.Errorf("chart-types output = %s", out)
	}
}

func TestApp_Validate(t *testing.T) {
	content := `
name: workbench
service:
  base_url: http://localhost:8000
storage:
  backend: memory
  ttl: 1h
`
	configPath := filepath.Join(t.TempDir(), "chartgen.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	var stdout, stderr bytes.Buffer
	app := New().WithOutput(&stdout, &stderr)
	if err := app.ExecuteWithArgs(context.Background(), []string{"validate", "-c", configPath}); err != nil {
		t.Fatalf("validate command failed: %v", err)
	}

	output := stdout.String()
	if !strings.Contains(output, "valid") || !strings.Contains(output, "Session TTL: 1h0m0s") {
		t.Errorf("validate output = %s", output)
	}
}

func TestApp_ValidateRequiresPath(t *testing.T) {
	var stdout, stderr bytes.Buffer
	app := New().WithOutput(&stdout, &stderr)
	if err := app.ExecuteWithArgs(context.Background(), []string{"validate"}); err == nil {
		t.Error("validate without -c should fail")
	}
}

func TestApp_ValidateSchema(t *testing.T) {
	var stdout, stderr bytes.Buffer
	app := New().WithOutput(&stdout, &stderr)
	if err := app.ExecuteWithArgs(context.Background(), []string{"validate", "--schema"}); err != nil {
		t.Fatalf("validate --schema failed: %v", err)
	}
	if !strings.Contains(stdout.String(), `"properties"`) {
		t.Errorf("schema output = %s", stdout.String())
	}
}

func TestApp_WatchConfig(t *testing.T) {
	dir := t.TempDir()
	yamlPath := filepath.Join(dir, "chartgen.yaml")
	if err := os.WriteFile(yamlPath, []byte("logging:\n  level: warn\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	tests := []struct {
		name     string
		path     string
		logLevel string
		wantErr  bool
	}{
		{"no config file", "", "", false},
		{"flag pins level", filepath.Join(dir, "chartgen.toml"), "debug", false},
		{"unsupported format", filepath.Join(dir, "chartgen.toml"), "", true},
		{"yaml", yamlPath, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			app := New()
			app.globals.configPath = tt.path
			app.globals.logLevel = tt.logLevel
			err := app.watchConfig(ctx)
			if (err != nil) != tt.wantErr {
				t.Errorf("watchConfig() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
