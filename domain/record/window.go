package record

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyWindow indicates no record survived the configured windows.
	ErrEmptyWindow = errors.New("no data points remain after applying window ranges, please adjust your ranges")

	// ErrNoRecords indicates every sample was dropped while projecting axes.
	ErrNoRecords = errors.New("no valid data points found for the specified axes")

	// ErrInvalidWindow indicates a window whose bounds are not ordered.
	ErrInvalidWindow = errors.New("invalid window range")
)

// Window is an inclusive range constraint on one axis.
type Window struct {
	Axis string  `json:"axis"`
	Min  float64 `json:"min"`
	Max  float64 `json:"max"`
}

// Validate checks min < max.
func (w Window) Validate() error {
	if !(w.Min < w.Max) {
		return fmt.Errorf("%w: %s min %g must be less than max %g", ErrInvalidWindow, w.Axis, w.Min, w.Max)
	}
	return nil
}

// Contains reports whether v lies within the window.
func (w Window) Contains(v float64) bool {
	return v >= w.Min && v <= w.Max
}

// Windows holds at most one window per axis.
type Windows map[string]Window

// Add sets the window for its axis, replacing any previous one.
func (ws Windows) Add(w Window) {
	ws[w.Axis] = w
}

// Filter keeps records whose numeric values lie within every configured
// window. Missing or non-numeric values are not constrained. With no
// windows the input is returned as is.
func Filter(records []Record, windows Windows) []Record {
	if len(windows) == 0 {
		return records
	}
	out := make([]Record, 0, len(records))
	for _, r := range records {
		if passes(r, windows) {
			out = append(out, r)
		}
	}
	return out
}

func passes(r Record, windows Windows) bool {
	for axis, w := range windows {
		v, ok := r.Float(axis)
		if !ok {
			continue
		}
		if !w.Contains(v) {
			return false
		}
	}
	return true
}

// Apply filters records and reports ErrEmptyWindow when windows are
// configured and nothing survives. The caller decides how to surface it.
func Apply(records []Record, windows Windows) ([]Record, error) {
	out := Filter(records, windows)
	if len(windows) > 0 && len(out) == 0 {
		return out, ErrEmptyWindow
	}
	return out, nil
}
