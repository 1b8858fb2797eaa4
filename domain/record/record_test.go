package record

import (
	"errors"
	"reflect"
	"testing"

	"github.com/felixgeelhaar/chartgen/domain/dataset"
)

func axes(t *testing.T, info []dataset.AxisInfo, names ...string) []dataset.Axis {
	t.Helper()
	out := make([]dataset.Axis, len(names))
	for i, n := range names {
		ax, err := dataset.Resolve(n, info)
		if err != nil {
			t.Fatalf("Resolve(%q) error = %v", n, err)
		}
		out[i] = ax
	}
	return out
}

var info = []dataset.AxisInfo{{Name: "a"}, {Name: "b"}, {Name: "c"}}

func TestPrepare_RoundTrip(t *testing.T) {
	t.Parallel()

	samples := []dataset.Sample{
		dataset.NewSample([]float64{1, 2, 3}, 10),
		dataset.NewSample([]float64{4, 5, 6}, 20),
	}
	records := Prepare(samples, axes(t, info, "a", "c", dataset.OutputAxis))

	if len(records) != 2 {
		t.Fatalf("Prepare() returned %d records, want 2", len(records))
	}
	for i, r := range records {
		if r.Index != i {
			t.Errorf("record %d Index = %d", i, r.Index)
		}
		a, _ := samples[i].Coords[0].Float()
		c, _ := samples[i].Coords[2].Float()
		v, _ := samples[i].Value.Float()
		if got, _ := r.Float("a"); got != a {
			t.Errorf("record %d a = %v, want %v", i, got, a)
		}
		if got, _ := r.Float("c"); got != c {
			t.Errorf("record %d c = %v, want %v", i, got, c)
		}
		if got, _ := r.Float(dataset.OutputAxis); got != v {
			t.Errorf("record %d value = %v, want %v", i, got, v)
		}
		if _, ok := r.Get("b"); ok {
			t.Errorf("record %d carries unrequested axis b", i)
		}
	}
}

func TestPrepare_DropsShortAndNullSamples(t *testing.T) {
	t.Parallel()

	samples := []dataset.Sample{
		dataset.NewSample([]float64{1, 2, 3}, 1),
		dataset.NewSample([]float64{1}, 2),
		{Coords: []dataset.Value{dataset.Number(1), dataset.Raw([]byte("null")), dataset.Number(3)}, Value: dataset.Number(3)},
		{Coords: []dataset.Value{dataset.Number(7), dataset.Number(8), dataset.Number(9)}},
		dataset.NewSample([]float64{4, 5, 6}, 5),
	}

	records := Prepare(samples, axes(t, info, "a", "b", dataset.OutputAxis))
	if len(records) != 2 {
		t.Fatalf("Prepare() returned %d records, want 2", len(records))
	}
	if records[0].Index != 0 || records[1].Index != 4 {
		t.Errorf("indices = %d, %d, want 0, 4", records[0].Index, records[1].Index)
	}
}

func TestPrepare_LabelValues(t *testing.T) {
	t.Parallel()

	samples := []dataset.Sample{
		{Coords: []dataset.Value{dataset.Number(1)}, Value: dataset.Raw([]byte(`["lion",[0.5]]`))},
	}
	records := Prepare(samples, axes(t, info, "a", dataset.OutputAxis))
	if len(records) != 1 {
		t.Fatalf("Prepare() returned %d records, want 1", len(records))
	}
	f, _ := records[0].Get(dataset.OutputAxis)
	if f.Numeric || f.Label() != "lion" {
		t.Errorf("output field = %+v, want label lion", f)
	}
}

func TestPrepare_Empty(t *testing.T) {
	t.Parallel()

	if got := Prepare(nil, axes(t, info, "a")); len(got) != 0 {
		t.Errorf("Prepare(nil) = %v, want empty", got)
	}
}

func recordsX(xs ...float64) []Record {
	out := make([]Record, len(xs))
	for i, x := range xs {
		out[i] = Record{Index: i, Fields: map[string]Field{"x": Num(x), "y": Num(x * 10)}}
	}
	return out
}

func TestFilter_Inclusive(t *testing.T) {
	t.Parallel()

	ws := Windows{}
	ws.Add(Window{Axis: "x", Min: 2, Max: 4})

	got := Filter(recordsX(1, 2, 3, 4, 5), ws)
	var xs []float64
	for _, r := range got {
		v, _ := r.Float("x")
		xs = append(xs, v)
	}
	if !reflect.DeepEqual(xs, []float64{2, 3, 4}) {
		t.Errorf("Filter() x values = %v, want [2 3 4]", xs)
	}
}

func TestFilter_Scenario(t *testing.T) {
	t.Parallel()

	got := Filter(recordsX(1, 3, 5), Windows{"x": {Axis: "x", Min: 2, Max: 4}})
	if len(got) != 1 {
		t.Fatalf("Filter() kept %d records, want 1", len(got))
	}
	if v, _ := got[0].Float("x"); v != 3 {
		t.Errorf("survivor x = %v, want 3", v)
	}
}

func TestFilter_Idempotent(t *testing.T) {
	t.Parallel()

	ws := Windows{
		"x": {Axis: "x", Min: 1.5, Max: 4.5},
		"y": {Axis: "y", Min: 0, Max: 35},
	}
	once := Filter(recordsX(1, 2, 3, 4, 5), ws)
	twice := Filter(once, ws)
	if !reflect.DeepEqual(once, twice) {
		t.Errorf("Filter is not idempotent: %v vs %v", once, twice)
	}
}

func TestFilter_NoWindows(t *testing.T) {
	t.Parallel()

	in := recordsX(1, 2, 3)
	got := Filter(in, nil)
	if !reflect.DeepEqual(got, in) {
		t.Errorf("Filter(nil windows) = %v, want input unchanged", got)
	}
}

func TestFilter_NonNumericUnconstrained(t *testing.T) {
	t.Parallel()

	in := []Record{
		{Fields: map[string]Field{"x": {Text: "lion"}}},
		{Fields: map[string]Field{"y": Num(100)}},
		{Fields: map[string]Field{"x": Num(100)}},
	}
	got := Filter(in, Windows{"x": {Axis: "x", Min: 0, Max: 1}})
	if len(got) != 2 {
		t.Errorf("Filter() kept %d records, want 2", len(got))
	}
}

func TestApply_Empty(t *testing.T) {
	t.Parallel()

	_, err := Apply(recordsX(1, 2), Windows{"x": {Axis: "x", Min: 5, Max: 6}})
	if !errors.Is(err, ErrEmptyWindow) {
		t.Errorf("Apply() error = %v, want ErrEmptyWindow", err)
	}

	got, err := Apply(nil, nil)
	if err != nil || len(got) != 0 {
		t.Errorf("Apply(nil, nil) = %v, %v, want empty without error", got, err)
	}
}

func TestWindow_Validate(t *testing.T) {
	t.Parallel()

	if err := (Window{Axis: "x", Min: 1, Max: 2}).Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
	if err := (Window{Axis: "x", Min: 2, Max: 2}).Validate(); !errors.Is(err, ErrInvalidWindow) {
		t.Errorf("Validate() error = %v, want ErrInvalidWindow", err)
	}
}
