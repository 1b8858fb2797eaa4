// Package dataset provides the data model exchanged with the data generation
// service and the axis model used to project generated samples.
package dataset

import "fmt"

// Limits enforced on generation requests before they leave the process.
const (
	MinDimension = 1
	MaxDimension = 10
	MinPoints    = 1
	MaxPoints    = 10000
)

// ValueType selects the kind of output value the service generates per sample.
type ValueType string

// Supported value types.
const (
	ValueDouble       ValueType = "double"
	ValueStringDouble ValueType = "string_double"
	ValueArray        ValueType = "array"
	ValueStringArray  ValueType = "string_array"
)

// Valid reports whether the value type is one the service understands.
func (v ValueType) Valid() bool {
	switch v {
	case ValueDouble, ValueStringDouble, ValueArray, ValueStringArray:
		return true
	}
	return false
}

// AxisSpec describes one input axis of a generation request.
type AxisSpec struct {
	Name            string  `json:"name"`
	Minimum         float64 `json:"minimum"`
	Maximum         float64 `json:"maximum"`
	Interval        float64 `json:"interval"`
	AllowDuplicates bool    `json:"allow_duplicates"`
}

// GenerationRequest is the body posted to the generation endpoint.
type GenerationRequest struct {
	Axes      []AxisSpec `json:"axes"`
	ValueType ValueType  `json:"value_type"`
	NumPoints int        `json:"num_points"`
}

// Validate checks the request the way the generation form does. The first
// failing check is reported.
func (r GenerationRequest) Validate() error {
	if n := len(r.Axes); n < MinDimension || n > MaxDimension {
		return fmt.Errorf("%w: dimension must be between %d and %d, got %d",
			ErrInvalidRequest, MinDimension, MaxDimension, n)
	}

	seen := make(map[string]struct{}, len(r.Axes))
	for i, ax := range r.Axes {
		if ax.Name == "" {
			return fmt.Errorf("%w: axis %d has no name", ErrInvalidRequest, i+1)
		}
		if ax.Name == OutputAxis {
			return fmt.Errorf("%w: axis name %q is reserved", ErrInvalidRequest, OutputAxis)
		}
		if _, dup := seen[ax.Name]; dup {
			return fmt.Errorf("%w: duplicate axis name %q", ErrInvalidRequest, ax.Name)
		}
		seen[ax.Name] = struct{}{}

		if ax.Minimum >= ax.Maximum {
			return fmt.Errorf("%w: axis %q minimum must be less than maximum", ErrInvalidRequest, ax.Name)
		}
		if ax.Interval <= 0 {
			return fmt.Errorf("%w: axis %q interval must be greater than 0", ErrInvalidRequest, ax.Name)
		}
	}

	if !r.ValueType.Valid() {
		return fmt.Errorf("%w: unknown value type %q", ErrInvalidRequest, r.ValueType)
	}
	if r.NumPoints < MinPoints || r.NumPoints > MaxPoints {
		return fmt.Errorf("%w: number of points must be between %d and %d",
			ErrInvalidRequest, MinPoints, MaxPoints)
	}
	return nil
}
