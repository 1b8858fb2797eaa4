// Package record projects generated samples into flat records keyed by axis
// name and filters them by window ranges.
package record

import (
	"strconv"

	"github.com/felixgeelhaar/chartgen/domain/dataset"
)

// Field is one extracted axis value. Outputs of the string value types are
// kept as labels; everything else is numeric.
type Field struct {
	Num     float64 `json:"num,omitempty"`
	Text    string  `json:"text,omitempty"`
	Numeric bool    `json:"numeric"`
}

// Num returns a numeric field.
func Num(v float64) Field {
	return Field{Num: v, Numeric: true}
}

// Label returns the field as text, used for categories and tooltips.
func (f Field) Label() string {
	if f.Numeric {
		return strconv.FormatFloat(f.Num, 'g', -1, 64)
	}
	return f.Text
}

// Record is one sample projected through a set of axes. Source and Index
// point back at the originating sample.
type Record struct {
	Index  int              `json:"index"`
	Fields map[string]Field `json:"fields"`
	Source dataset.Sample   `json:"source"`
}

// Get returns the field for an axis name.
func (r Record) Get(axis string) (Field, bool) {
	f, ok := r.Fields[axis]
	return f, ok
}

// Float returns the numeric value for an axis name.
func (r Record) Float(axis string) (float64, bool) {
	f, ok := r.Fields[axis]
	if !ok || !f.Numeric {
		return 0, false
	}
	return f.Num, true
}

// Label returns the text form of an axis value.
func (r Record) Label(axis string) string {
	return r.Fields[axis].Label()
}

// Prepare projects samples through axes. A sample is dropped when any axis
// cannot be read from it; input order is preserved.
func Prepare(samples []dataset.Sample, axes []dataset.Axis) []Record {
	records := make([]Record, 0, len(samples))
	for i, s := range samples {
		if r, ok := project(i, s, axes); ok {
			records = append(records, r)
		}
	}
	return records
}

func project(index int, s dataset.Sample, axes []dataset.Axis) (Record, bool) {
	r := Record{
		Index:  index,
		Fields: make(map[string]Field, len(axes)),
		Source: s,
	}
	for _, ax := range axes {
		var v dataset.Value
		if ax.IsOutput() {
			v = s.Value
		} else {
			if ax.Index < 0 || ax.Index >= len(s.Coords) {
				return Record{}, false
			}
			v = s.Coords[ax.Index]
		}
		if v.IsNull() {
			return Record{}, false
		}
		r.Fields[ax.Name] = fieldOf(v)
	}
	return r, true
}

func fieldOf(v dataset.Value) Field {
	if f, ok := v.Float(); ok {
		return Num(f)
	}
	return Field{Text: v.Label()}
}

// Numbers returns the numeric values of an axis across records, skipping
// non-numeric entries.
func Numbers(records []Record, axis string) []float64 {
	out := make([]float64, 0, len(records))
	for _, r := range records {
		if v, ok := r.Float(axis); ok {
			out = append(out, v)
		}
	}
	return out
}
