package validation

import (
	"errors"
	"testing"

	"github.com/felixgeelhaar/chartgen/domain/chart"
	"github.com/felixgeelhaar/chartgen/domain/dataset"
	"github.com/felixgeelhaar/chartgen/domain/scaling"
)

func twoDim() *dataset.GeneratedData {
	return &dataset.GeneratedData{
		BasicData: dataset.BasicData{
			Dim: 2,
			Axes: []dataset.AxisInfo{
				{Name: "x", Min: 0, Max: 10, Interval: 1},
				{Name: "y", Min: 0, Max: 10, Interval: 1},
			},
			ValueType: "double",
		},
	}
}

func oneDim() *dataset.GeneratedData {
	return &dataset.GeneratedData{
		BasicData: dataset.BasicData{
			Dim:       1,
			Axes:      []dataset.AxisInfo{{Name: "x", Min: 0, Max: 10, Interval: 1}},
			ValueType: "double",
		},
	}
}

func TestValidate_Messages(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		form Form
		data *dataset.GeneratedData
		want string
	}{
		{
			name: "missing chart type",
			form: Form{XAxis: "x"},
			want: "Please enter a chart type",
		},
		{
			name: "missing x",
			form: Form{ChartType: "scatter"},
			want: "Please enter X axis name",
		},
		{
			name: "missing y for 2d scatter",
			form: Form{ChartType: "scatter", XAxis: "x"},
			want: "Please enter Y axis name for scatter charts",
		},
		{
			name: "missing size for 2d size chart",
			form: Form{ChartType: "size", XAxis: "x"},
			want: "Please enter size axis name for size charts",
		},
		{
			name: "missing group",
			form: Form{ChartType: "grouped_bar_color", XAxis: "x", ColorAxis: "value"},
			want: "Please enter group axis name for grouped_bar_color charts",
		},
		{
			name: "bad scaling type",
			form: Form{ChartType: "scatter", XAxis: "x", YAxis: "y", SizeScalingType: "Sigmoid"},
			want: `Size Scaling Type must be exactly "default" or "sigmoid"`,
		},
		{
			name: "sigmoid without k",
			form: Form{ChartType: "scatter", XAxis: "x", YAxis: "y", SizeScalingType: "sigmoid"},
			want: "K Value is required when using sigmoid scaling",
		},
		{
			name: "k too large",
			form: Form{ChartType: "scatter", XAxis: "x", YAxis: "y", SizeScalingType: "sigmoid", SizeScalingK: "10.01"},
			want: "K Value must be a number between 0.1 and 10.0",
		},
		{
			name: "k not a number",
			form: Form{ChartType: "scatter", XAxis: "x", YAxis: "y", SizeScalingType: "sigmoid", SizeScalingK: "abc"},
			want: "K Value must be a number between 0.1 and 10.0",
		},
		{
			name: "x window half open",
			form: Form{ChartType: "scatter", XAxis: "x", YAxis: "y", XRangeMin: "1"},
			want: "Both X Axis Range Min and Max must be provided if using X axis windowing",
		},
		{
			name: "x window reversed",
			form: Form{ChartType: "scatter", XAxis: "x", YAxis: "y", XRangeMin: "5", XRangeMax: "1"},
			want: "X Axis Range Min must be less than Max and both must be valid numbers",
		},
		{
			name: "y window not a number",
			form: Form{ChartType: "scatter", XAxis: "x", YAxis: "y", YRangeMin: "a", YRangeMax: "2"},
			want: "Y Axis Range Min must be less than Max and both must be valid numbers",
		},
		{
			name: "unknown x",
			form: Form{ChartType: "scatter", XAxis: "z", YAxis: "y"},
			want: `X axis "z" not found in data`,
		},
		{
			name: "unknown size",
			form: Form{ChartType: "scatter_size", XAxis: "x", YAxis: "y", SizeAxis: "w"},
			want: `Size axis "w" not found in data`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			data := tt.data
			if data == nil {
				data = twoDim()
			}
			_, err := Validate(tt.form, data)
			if err == nil {
				t.Fatal("Validate() error = nil, want error")
			}
			if !errors.Is(err, ErrInvalidInput) {
				t.Errorf("error %v is not ErrInvalidInput", err)
			}
			if err.Error() != tt.want {
				t.Errorf("Validate() error = %q, want %q", err.Error(), tt.want)
			}
		})
	}
}

func TestValidate_UnknownChartType(t *testing.T) {
	t.Parallel()

	_, err := Validate(Form{ChartType: "pie", XAxis: "x"}, twoDim())
	if !errors.Is(err, chart.ErrUnknownChartType) {
		t.Fatalf("Validate() error = %v, want ErrUnknownChartType", err)
	}
	if errors.Is(err, ErrInvalidInput) {
		t.Error("unknown chart type must not be a user-input error")
	}
}

func TestValidate_ScalingK(t *testing.T) {
	t.Parallel()

	res, err := Validate(Form{ChartType: "scatter", XAxis: "x", YAxis: "y", SizeScalingType: "sigmoid", SizeScalingK: "10.0"}, twoDim())
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if res.Scaling.Kind() != scaling.KindSigmoid || res.Scaling.K() != 10 {
		t.Errorf("Scaling = %v, want sigmoid k=10", res.Scaling)
	}

	res, err = Validate(Form{ChartType: "scatter", XAxis: "x", YAxis: "y", SizeScalingType: "default", SizeScalingK: "99"}, twoDim())
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if res.Scaling.Kind() != scaling.KindDefault {
		t.Errorf("Scaling = %v, want default with k discarded", res.Scaling)
	}
}

func TestValidate_YWindowIgnoredWithoutY(t *testing.T) {
	t.Parallel()

	form := Form{ChartType: "size", XAxis: "x", SizeAxis: "y", YRangeMin: "oops"}
	res, err := Validate(form, twoDim())
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if len(res.Windows) != 0 {
		t.Errorf("Windows = %v, want none", res.Windows)
	}
	if res.NeedsY {
		t.Error("NeedsY = true for size chart")
	}
}

func TestValidate_Windows(t *testing.T) {
	t.Parallel()

	form := Form{ChartType: "scatter", XAxis: "x", YAxis: "value", XRangeMin: "1", XRangeMax: "4", YRangeMin: "-1", YRangeMax: "1"}
	res, err := Validate(form, twoDim())
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if w := res.Windows["x"]; w.Min != 1 || w.Max != 4 {
		t.Errorf("x window = %+v", w)
	}
	if w, ok := res.Windows["value"]; !ok || w.Min != -1 {
		t.Errorf("value window = %+v, %v", w, ok)
	}
}

func TestValidate_AxisOrder(t *testing.T) {
	t.Parallel()

	form := Form{ChartType: "scatter_size_color", XAxis: "x", YAxis: "y", SizeAxis: "x", ColorAxis: "value"}
	res, err := Validate(form, twoDim())
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	want := []string{"x", "y", "value", "x"}
	if len(res.Axes) != len(want) {
		t.Fatalf("Axes = %v", res.Axes)
	}
	for i, name := range want {
		if res.Axes[i].Name != name {
			t.Errorf("Axes[%d] = %s, want %s", i, res.Axes[i].Name, name)
		}
	}
	if !res.Roles[dataset.RoleColor].IsOutput() {
		t.Error("color role should be the output axis")
	}
	if res.Roles[dataset.RoleY].Index != 1 {
		t.Errorf("y index = %d, want 1", res.Roles[dataset.RoleY].Index)
	}

	ds := res.Descriptor()
	if ds.Title != "scatter_size_color: x, y, value, x" {
		t.Errorf("Title = %q", ds.Title)
	}
	if ds.Dimension != 2 {
		t.Errorf("Dimension = %d, want 2", ds.Dimension)
	}
}

func TestValidate_OneDimensionDefaults(t *testing.T) {
	t.Parallel()

	res, err := Validate(Form{ChartType: "scatter_size", XAxis: "x"}, oneDim())
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if res.Roles[dataset.RoleY].Name != dataset.OutputAxis || res.Roles[dataset.RoleSize].Name != dataset.OutputAxis {
		t.Errorf("Roles = %+v, want output axis defaults", res.Roles)
	}
}

func TestValidate_GroupedBarValueOptional(t *testing.T) {
	t.Parallel()

	res, err := Validate(Form{ChartType: "grouped_bar", XAxis: "x", GroupAxis: "y"}, twoDim())
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if res.Roles[dataset.RoleValue].Name != dataset.OutputAxis {
		t.Errorf("value role = %s, want output", res.Roles[dataset.RoleValue].Name)
	}
	if res.Roles[dataset.RoleGroup].Name != "y" {
		t.Errorf("group role = %s, want y", res.Roles[dataset.RoleGroup].Name)
	}
}

func TestValidate_CategoryUsesX(t *testing.T) {
	t.Parallel()

	res, err := Validate(Form{ChartType: "category", XAxis: "y"}, twoDim())
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if res.Roles[dataset.RoleGroup].Name != "y" {
		t.Errorf("group role = %+v", res.Roles[dataset.RoleGroup])
	}
	if _, ok := res.Roles[dataset.RoleX]; ok {
		t.Error("category chart should not bind an X role")
	}
}
