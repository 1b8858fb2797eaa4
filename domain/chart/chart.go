// Package chart builds renderer-neutral chart configurations from prepared
// records. A Config lists series of typed points with their visual
// encodings, the axis scales and per-point tooltip lines.
package chart

import (
	"github.com/felixgeelhaar/chartgen/domain/record"
)

// Type is a chart-type tag.
type Type string

// Chart types.
const (
	TypeLine1D                  Type = "line1d"
	TypeCategory                Type = "category"
	TypeSize                    Type = "size"
	TypeColor                   Type = "color"
	TypeScatter                 Type = "scatter"
	TypeBarSize                 Type = "bar_size"
	TypeBarColor                Type = "bar_color"
	TypeBar                     Type = "bar"
	TypeSizeColor               Type = "size_color"
	TypeScatterSize             Type = "scatter_size"
	TypeScatterColor            Type = "scatter_color"
	TypeGroupedBarSize          Type = "grouped_bar_size"
	TypeGroupedBar              Type = "grouped_bar"
	TypeGroupedBarColor         Type = "grouped_bar_color"
	TypeScatterSizeColor        Type = "scatter_size_color"
	TypeGroupedScatterSizeColor Type = "grouped_scatter_size_color"
)

// Kind is how a renderer should draw the series.
type Kind string

// Chart kinds.
const (
	KindScatter Kind = "scatter"
	KindBubble  Kind = "bubble"
	KindBar     Kind = "bar"
)

// Scale describes one axis of the chart.
type Scale struct {
	Title   string `json:"title,omitempty"`
	Display bool   `json:"display"`
	// Min and Max pin the axis bounds, used when an axis is hidden.
	Min *float64 `json:"min,omitempty"`
	Max *float64 `json:"max,omitempty"`
	// Categories labels a category axis; point coordinates index into it.
	Categories  []string `json:"categories,omitempty"`
	BeginAtZero bool     `json:"begin_at_zero,omitempty"`
}

// Ref points back at the sample a point was built from.
type Ref struct {
	Index  int    `json:"index"`
	Sample string `json:"sample"`
}

// Point is one plotted item. Y is nil for a gap in a bar series.
type Point struct {
	X       *float64 `json:"x,omitempty"`
	Y       *float64 `json:"y"`
	Radius  float64  `json:"r,omitempty"`
	Size    *float64 `json:"size,omitempty"`
	Color   string   `json:"color,omitempty"`
	Label   string   `json:"label,omitempty"`
	Tooltip []string `json:"tooltip,omitempty"`
	Ref     *Ref     `json:"ref,omitempty"`
}

// Series is a named sequence of points sharing a default color.
type Series struct {
	Name   string  `json:"name"`
	Color  string  `json:"color,omitempty"`
	Points []Point `json:"points"`
}

// Config is a complete chart configuration.
type Config struct {
	Type       Type     `json:"type"`
	Kind       Kind     `json:"kind"`
	Title      string   `json:"title,omitempty"`
	Labels     []string `json:"labels,omitempty"`
	Series     []Series `json:"series"`
	XScale     Scale    `json:"x_scale"`
	YScale     Scale    `json:"y_scale"`
	HideLegend bool     `json:"hide_legend,omitempty"`
}

// PointCount returns the number of points across all series.
func (c *Config) PointCount() int {
	n := 0
	for _, s := range c.Series {
		n += len(s.Points)
	}
	return n
}

// Default series colors.
const (
	colorPoint  = "rgba(54, 162, 235, 0.8)"
	colorSized  = "rgba(255, 99, 132, 0.6)"
	colorBar    = "rgba(75, 192, 192, 0.8)"
	radiusPlain = 5.0
	radiusHue   = 8.0
)

func f64(v float64) *float64 {
	return &v
}

func hiddenScale(min, max float64) Scale {
	return Scale{Display: false, Min: f64(min), Max: f64(max)}
}

func refOf(r record.Record) *Ref {
	return &Ref{Index: r.Index, Sample: r.Source.String()}
}
