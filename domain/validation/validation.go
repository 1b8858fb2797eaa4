// Package validation checks a chart request form against the generated
// dataset and turns it into a descriptor, scaling configuration and window
// set. Checks run in a fixed order and stop at the first failure.
package validation

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/felixgeelhaar/chartgen/domain/chart"
	"github.com/felixgeelhaar/chartgen/domain/dataset"
	"github.com/felixgeelhaar/chartgen/domain/record"
	"github.com/felixgeelhaar/chartgen/domain/scaling"
)

// ErrInvalidInput matches every *Error.
var ErrInvalidInput = errors.New("invalid chart input")

// Error is a user-input failure carrying the message shown to the user.
type Error struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *Error) Error() string {
	return e.Message
}

// Is reports whether target is ErrInvalidInput.
func (e *Error) Is(target error) bool {
	return target == ErrInvalidInput
}

func fail(field, format string, args ...any) *Error {
	return &Error{Field: field, Message: fmt.Sprintf(format, args...)}
}

// Form is the raw chart request as entered by the user. Every field is
// text; numbers are parsed here.
type Form struct {
	ChartType       string `json:"chart_type" yaml:"chart_type"`
	XAxis           string `json:"x_axis" yaml:"x_axis"`
	YAxis           string `json:"y_axis,omitempty" yaml:"y_axis,omitempty"`
	ColorAxis       string `json:"color_axis,omitempty" yaml:"color_axis,omitempty"`
	SizeAxis        string `json:"size_axis,omitempty" yaml:"size_axis,omitempty"`
	GroupAxis       string `json:"group_axis,omitempty" yaml:"group_axis,omitempty"`
	SizeScalingType string `json:"size_scaling_type,omitempty" yaml:"size_scaling_type,omitempty"`
	SizeScalingK    string `json:"size_scaling_k,omitempty" yaml:"size_scaling_k,omitempty"`
	XRangeMin       string `json:"x_range_min,omitempty" yaml:"x_range_min,omitempty"`
	XRangeMax       string `json:"x_range_max,omitempty" yaml:"x_range_max,omitempty"`
	YRangeMin       string `json:"y_range_min,omitempty" yaml:"y_range_min,omitempty"`
	YRangeMax       string `json:"y_range_max,omitempty" yaml:"y_range_max,omitempty"`
}

func (f Form) input(in chart.Input) string {
	switch in {
	case chart.InputX:
		return strings.TrimSpace(f.XAxis)
	case chart.InputY:
		return strings.TrimSpace(f.YAxis)
	case chart.InputColor:
		return strings.TrimSpace(f.ColorAxis)
	case chart.InputSize:
		return strings.TrimSpace(f.SizeAxis)
	case chart.InputGroup:
		return strings.TrimSpace(f.GroupAxis)
	}
	return ""
}

// Result is a validated chart request.
type Result struct {
	ChartType chart.Type
	Dimension int
	// Axes in validated order: X, Y, color, size, group.
	Axes    []dataset.Axis
	Roles   map[dataset.Role]dataset.Axis
	Scaling scaling.Config
	Windows record.Windows
	NeedsY  bool
}

// Descriptor returns the dataset descriptor the chart builders consume.
func (r *Result) Descriptor() dataset.Descriptor {
	names := make([]string, len(r.Axes))
	for i, ax := range r.Axes {
		names[i] = ax.Name
	}
	return dataset.Descriptor{
		Title:     fmt.Sprintf("%s: %s", r.ChartType, strings.Join(names, ", ")),
		Dimension: r.Dimension,
		Axes:      r.Axes,
		Roles:     r.Roles,
	}
}

// inputOrder is the order axes appear in a Result.
var inputOrder = []chart.Input{chart.InputX, chart.InputY, chart.InputColor, chart.InputSize, chart.InputGroup}

var inputLabels = map[chart.Input]string{
	chart.InputX:     "X",
	chart.InputY:     "Y",
	chart.InputColor: "Color",
	chart.InputSize:  "Size",
	chart.InputGroup: "Group",
}

// Validate checks form against data. User-input failures are *Error values;
// an unrecognized chart type is a wrapped chart.ErrUnknownChartType.
func Validate(form Form, data *dataset.GeneratedData) (*Result, error) {
	tag := strings.TrimSpace(form.ChartType)
	if tag == "" {
		return nil, fail("chart_type", "Please enter a chart type")
	}
	if form.input(chart.InputX) == "" {
		return nil, fail("x_axis", "Please enter X axis name")
	}

	spec, ok := chart.Lookup(chart.Type(tag))
	if !ok {
		return nil, fmt.Errorf("%w: %q", chart.ErrUnknownChartType, tag)
	}

	var axes []dataset.AxisInfo
	dim := 0
	if data != nil {
		axes = data.BasicData.Axes
		dim = data.BasicData.Dim
		if dim == 0 {
			dim = len(axes)
		}
	}

	names, err := axisNames(form, spec, dim)
	if err != nil {
		return nil, err
	}

	sc, err := scalingOf(form)
	if err != nil {
		return nil, err
	}

	needsY := spec.Uses(chart.InputY)
	windows, err := windowsOf(form, names, needsY)
	if err != nil {
		return nil, err
	}

	res := &Result{
		ChartType: spec.Type,
		Dimension: dim,
		Roles:     make(map[dataset.Role]dataset.Axis, len(spec.Bindings)),
		Scaling:   sc,
		Windows:   windows,
		NeedsY:    needsY,
	}
	for _, in := range inputOrder {
		b, ok := spec.Binding(in)
		if !ok {
			continue
		}
		ax, err := dataset.Resolve(names[in], axes)
		if err != nil {
			field := strings.ToLower(inputLabels[in]) + "_axis"
			return nil, fail(field, "%s axis %q not found in data", inputLabels[in], names[in])
		}
		res.Axes = append(res.Axes, ax)
		res.Roles[b.Role] = ax
	}
	return res, nil
}

// axisNames reads the axis name of every input the chart type binds. Below
// two dimensions an empty secondary input names the output axis.
func axisNames(form Form, spec chart.Spec, dim int) (map[chart.Input]string, error) {
	names := make(map[chart.Input]string, len(spec.Bindings))
	for _, in := range inputOrder {
		b, ok := spec.Binding(in)
		if !ok {
			continue
		}
		name := form.input(in)
		if name == "" {
			if dim >= 2 && !b.Optional {
				return nil, missing(in, spec.Type)
			}
			name = dataset.OutputAxis
		}
		names[in] = name
	}
	return names, nil
}

func missing(in chart.Input, t chart.Type) *Error {
	field := string(in) + "_axis"
	if in == chart.InputY {
		return fail(field, "Please enter Y axis name for %s charts", t)
	}
	return fail(field, "Please enter %s axis name for %s charts", in, t)
}

func scalingOf(form Form) (scaling.Config, error) {
	kind := form.SizeScalingType
	switch kind {
	case "":
		return scaling.Default(), nil
	case string(scaling.KindDefault):
		return scaling.Default(), nil
	case string(scaling.KindSigmoid):
	default:
		return scaling.Config{}, fail("size_scaling_type", `Size Scaling Type must be exactly "default" or "sigmoid"`)
	}

	raw := strings.TrimSpace(form.SizeScalingK)
	if raw == "" {
		return scaling.Config{}, fail("size_scaling_k", "K Value is required when using sigmoid scaling")
	}
	k, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return scaling.Config{}, fail("size_scaling_k", "K Value must be a number between 0.1 and 10.0")
	}
	sc, err := scaling.NewSigmoid(k)
	if err != nil {
		return scaling.Config{}, fail("size_scaling_k", "K Value must be a number between 0.1 and 10.0")
	}
	return sc, nil
}

func windowsOf(form Form, names map[chart.Input]string, needsY bool) (record.Windows, error) {
	windows := make(record.Windows)

	w, ok, err := window("X", "x_range", names[chart.InputX], form.XRangeMin, form.XRangeMax)
	if err != nil {
		return nil, err
	}
	if ok {
		windows.Add(w)
	}

	if !needsY {
		return windows, nil
	}
	w, ok, err = window("Y", "y_range", names[chart.InputY], form.YRangeMin, form.YRangeMax)
	if err != nil {
		return nil, err
	}
	if ok {
		windows.Add(w)
	}
	return windows, nil
}

func window(label, field, axis, rawMin, rawMax string) (record.Window, bool, error) {
	rawMin, rawMax = strings.TrimSpace(rawMin), strings.TrimSpace(rawMax)
	if rawMin == "" && rawMax == "" {
		return record.Window{}, false, nil
	}
	if rawMin == "" || rawMax == "" {
		return record.Window{}, false, fail(field, "Both %s Axis Range Min and Max must be provided if using %s axis windowing", label, label)
	}

	min, errMin := strconv.ParseFloat(rawMin, 64)
	max, errMax := strconv.ParseFloat(rawMax, 64)
	w := record.Window{Axis: axis, Min: min, Max: max}
	if errMin != nil || errMax != nil || w.Validate() != nil {
		return record.Window{}, false, fail(field, "%s Axis Range Min must be less than Max and both must be valid numbers", label)
	}
	return w, true, nil
}
