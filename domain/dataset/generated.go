package dataset

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// AxisInfo is an axis as echoed back by the generation service.
type AxisInfo struct {
	Name     string  `json:"name"`
	Min      float64 `json:"min"`
	Max      float64 `json:"max"`
	Interval float64 `json:"interval"`
	AllowDup bool    `json:"allow_dup"`
}

// BasicData describes the shape of a generated dataset.
type BasicData struct {
	Dim       int        `json:"dim"`
	Axes      []AxisInfo `json:"axes"`
	ValueType ValueType  `json:"value_type,omitempty"`
}

// AxisNames returns the declared input axis names in order.
func (b BasicData) AxisNames() []string {
	names := make([]string, len(b.Axes))
	for i, ax := range b.Axes {
		names[i] = ax.Name
	}
	return names
}

// GeneratedData is the payload returned by the generation service and kept
// in the session hand-off slot.
type GeneratedData struct {
	BasicData BasicData `json:"basic_data"`
	Samples   []Sample  `json:"data_value"`
}

// Summary describes a dataset for display.
type Summary struct {
	Points    int       `json:"points"`
	Dimension int       `json:"dimension"`
	Axes      []string  `json:"axes"`
	ValueType ValueType `json:"value_type,omitempty"`
}

// Summary returns the point count, dimension and available axes.
func (d *GeneratedData) Summary() Summary {
	return Summary{
		Points:    len(d.Samples),
		Dimension: d.BasicData.Dim,
		Axes:      d.BasicData.AxisNames(),
		ValueType: d.BasicData.ValueType,
	}
}

// Value is a raw JSON scalar or array taken from a sample. Generated outputs
// are not always numeric, so the raw form is kept and interpreted on demand.
type Value struct {
	raw json.RawMessage
}

// Number returns a numeric value.
func Number(f float64) Value {
	return Value{raw: json.RawMessage(strconv.FormatFloat(f, 'g', -1, 64))}
}

// Text returns a string value.
func Text(s string) Value {
	b, _ := json.Marshal(s)
	return Value{raw: b}
}

// Raw wraps an already encoded JSON value.
func Raw(raw json.RawMessage) Value {
	return Value{raw: append(json.RawMessage(nil), raw...)}
}

// IsNull reports whether the value is absent or JSON null.
func (v Value) IsNull() bool {
	t := bytes.TrimSpace(v.raw)
	return len(t) == 0 || bytes.Equal(t, []byte("null"))
}

// Float returns the value as a number when it is a JSON number.
func (v Value) Float() (float64, bool) {
	if v.IsNull() {
		return 0, false
	}
	var f float64
	if err := json.Unmarshal(v.raw, &f); err != nil {
		return 0, false
	}
	return f, true
}

// Label returns a human readable form. Numbers keep their shortest
// representation, strings are unquoted and labelled arrays such as
// ["lion", [0.5]] yield their leading string.
func (v Value) Label() string {
	if v.IsNull() {
		return ""
	}
	if f, ok := v.Float(); ok {
		return strconv.FormatFloat(f, 'g', -1, 64)
	}
	var s string
	if err := json.Unmarshal(v.raw, &s); err == nil {
		return s
	}
	var arr []json.RawMessage
	if err := json.Unmarshal(v.raw, &arr); err == nil && len(arr) > 0 {
		if err := json.Unmarshal(arr[0], &s); err == nil {
			return s
		}
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, v.raw); err != nil {
		return string(v.raw)
	}
	return buf.String()
}

// MarshalJSON implements json.Marshaler.
func (v Value) MarshalJSON() ([]byte, error) {
	if len(v.raw) == 0 {
		return []byte("null"), nil
	}
	return v.raw, nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (v *Value) UnmarshalJSON(data []byte) error {
	v.raw = append(v.raw[:0], data...)
	return nil
}

// Sample is one generated point: a coordinate tuple and an output value.
// Samples are read-only once decoded.
type Sample struct {
	Coords []Value
	Value  Value
}

// NewSample builds a numeric sample.
func NewSample(coords []float64, value float64) Sample {
	s := Sample{Coords: make([]Value, len(coords)), Value: Number(value)}
	for i, c := range coords {
		s.Coords[i] = Number(c)
	}
	return s
}

// MarshalJSON encodes the sample in the wire form [[coords...], value].
func (s Sample) MarshalJSON() ([]byte, error) {
	coords := s.Coords
	if coords == nil {
		coords = []Value{}
	}
	return json.Marshal([]any{coords, s.Value})
}

// UnmarshalJSON decodes the wire form [[coords...], value].
func (s *Sample) UnmarshalJSON(data []byte) error {
	var pair []json.RawMessage
	if err := json.Unmarshal(data, &pair); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedSample, err)
	}
	if len(pair) != 2 {
		return fmt.Errorf("%w: expected 2 elements, got %d", ErrMalformedSample, len(pair))
	}

	var coords []Value
	if !bytes.Equal(bytes.TrimSpace(pair[0]), []byte("null")) {
		if err := json.Unmarshal(pair[0], &coords); err != nil {
			return fmt.Errorf("%w: coordinates: %v", ErrMalformedSample, err)
		}
	}
	s.Coords = coords
	s.Value = Raw(pair[1])
	return nil
}

// String renders the sample for tooltips, e.g. "(1, 2) -> 5".
func (s Sample) String() string {
	parts := make([]string, len(s.Coords))
	for i, c := range s.Coords {
		parts[i] = c.Label()
	}
	return fmt.Sprintf("(%s) -> %s", strings.Join(parts, ", "), s.Value.Label())
}
