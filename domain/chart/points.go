package chart

import (
	"fmt"
	"math"
	"strconv"

	"github.com/felixgeelhaar/chartgen/domain/dataset"
	"github.com/felixgeelhaar/chartgen/domain/record"
	"github.com/felixgeelhaar/chartgen/domain/scaling"
)

// extent is the observed numeric range of one axis.
type extent struct {
	min, max float64
}

func extentOf(records []record.Record, axis string) extent {
	min, max, _ := scaling.Bounds(record.Numbers(records, axis))
	return extent{min: min, max: max}
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// tooltip renders "axis: value" lines followed by the originating sample.
func tooltip(r record.Record, axes ...string) []string {
	lines := make([]string, 0, len(axes)+1)
	seen := make(map[string]bool, len(axes))
	for _, name := range axes {
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		lines = append(lines, fmt.Sprintf("%s: %s", name, r.Label(name)))
	}
	return append(lines, "sample: "+r.Source.String())
}

// sqrtRadius is the fixed square-root radius law of the category bubble
// charts. Negative sizes collapse to zero.
func sqrtRadius(size float64) float64 {
	return math.Sqrt(math.Max(size, 0)) * 5
}

// pointBuilder draws one series of points on a numeric X axis. Without a Y
// role every point sits on y=0 and the Y axis is hidden.
type pointBuilder struct {
	y, size, color bool
}

func (b pointBuilder) wanted() []dataset.Role {
	want := []dataset.Role{dataset.RoleX}
	if b.y {
		want = append(want, dataset.RoleY)
	}
	if b.size {
		want = append(want, dataset.RoleSize)
	}
	if b.color {
		want = append(want, dataset.RoleColor)
	}
	return want
}

func (b pointBuilder) Build(records []record.Record, ds dataset.Descriptor, sc scaling.Config, cc scaling.ColorConfig) (*Config, error) {
	names, err := roles(ds, b.wanted()...)
	if err != nil {
		return nil, err
	}
	x, y, size, color := names[dataset.RoleX], names[dataset.RoleY], names[dataset.RoleSize], names[dataset.RoleColor]

	cfg := &Config{
		Kind:   KindScatter,
		XScale: Scale{Title: x, Display: true},
		YScale: hiddenScale(-0.5, 0.5),
	}
	if b.y {
		cfg.YScale = Scale{Title: y, Display: true}
	}

	series := Series{Name: b.seriesName(x, y, size, color), Color: colorPoint, Points: []Point{}}
	if b.size {
		series.Color = colorSized
	}
	if len(records) == 0 {
		cfg.Series = []Series{series}
		return cfg, nil
	}

	sizeExt, colorExt := extentOf(records, size), extentOf(records, color)
	for _, r := range records {
		xv, ok := r.Float(x)
		if !ok {
			continue
		}
		p := Point{X: f64(xv), Y: f64(0), Radius: radiusPlain, Ref: refOf(r)}
		if b.y {
			yv, ok := r.Float(y)
			if !ok {
				continue
			}
			p.Y = f64(yv)
		}
		if b.size {
			sv, ok := r.Float(size)
			if !ok {
				continue
			}
			p.Size = f64(sv)
			p.Radius = sc.Radius(sv, sizeExt.min, sizeExt.max)
		}
		if b.color {
			cv, ok := r.Float(color)
			if !ok {
				continue
			}
			p.Color = cc.Color(cv, colorExt.min, colorExt.max).String()
		}
		p.Tooltip = tooltip(r, x, y, size, color)
		series.Points = append(series.Points, p)
	}
	cfg.Series = []Series{series}
	return cfg, nil
}

func (b pointBuilder) seriesName(x, y, size, color string) string {
	name := x
	if b.y {
		name = fmt.Sprintf("%s vs %s", x, y)
	}
	switch {
	case b.size && b.color:
		return fmt.Sprintf("%s (size: %s, color: %s)", name, size, color)
	case b.size:
		return fmt.Sprintf("%s (size: %s)", name, size)
	case b.color:
		return fmt.Sprintf("%s (color: %s)", name, color)
	}
	return name
}

// groupBuilder draws one series per group on a numeric X axis. Without a Y
// role the group index is the Y coordinate and the Y axis is categorical.
type groupBuilder struct {
	y, size, color bool
	sqrtSize       bool
}

func (b groupBuilder) wanted() []dataset.Role {
	want := []dataset.Role{dataset.RoleGroup, dataset.RoleX}
	if b.y {
		want = append(want, dataset.RoleY)
	}
	if b.size || b.sqrtSize {
		want = append(want, dataset.RoleSize)
	}
	if b.color {
		want = append(want, dataset.RoleColor)
	}
	return want
}

func (b groupBuilder) Build(records []record.Record, ds dataset.Descriptor, sc scaling.Config, cc scaling.ColorConfig) (*Config, error) {
	names, err := roles(ds, b.wanted()...)
	if err != nil {
		return nil, err
	}
	group, x, y := names[dataset.RoleGroup], names[dataset.RoleX], names[dataset.RoleY]
	size, color := names[dataset.RoleSize], names[dataset.RoleColor]

	cfg := &Config{
		Kind:   KindScatter,
		XScale: Scale{Title: x, Display: true},
		Series: []Series{},
	}
	if b.sqrtSize || b.size {
		cfg.Kind = KindBubble
	}

	groups := groupBy(records, group)
	if b.y {
		cfg.YScale = Scale{Title: y, Display: true}
	} else {
		cfg.YScale = Scale{Title: group, Display: true, Categories: groups.labels}
	}
	if len(records) == 0 {
		return cfg, nil
	}

	sizeExt, colorExt := extentOf(records, size), extentOf(records, color)
	for i, label := range groups.labels {
		series := Series{Name: label, Color: scaling.SeriesHue(i, len(groups.labels)), Points: []Point{}}
		for _, r := range groups.members[label] {
			xv, ok := r.Float(x)
			if !ok {
				continue
			}
			p := Point{X: f64(xv), Y: f64(float64(i)), Radius: radiusPlain, Ref: refOf(r)}
			if b.y {
				yv, ok := r.Float(y)
				if !ok {
					continue
				}
				p.Y = f64(yv)
			}
			if b.size || b.sqrtSize {
				sv, ok := r.Float(size)
				if !ok {
					continue
				}
				p.Size = f64(sv)
				if b.sqrtSize {
					p.Radius = sqrtRadius(sv)
				} else {
					p.Radius = sc.Radius(sv, sizeExt.min, sizeExt.max)
				}
			}
			if b.color {
				cv, ok := r.Float(color)
				if !ok {
					continue
				}
				p.Color = cc.Color(cv, colorExt.min, colorExt.max).String()
			}
			p.Tooltip = tooltip(r, group, x, y, size, color)
			series.Points = append(series.Points, p)
		}
		cfg.Series = append(cfg.Series, series)
	}
	return cfg, nil
}

// grouping holds records by their label on one axis in first-seen order.
type grouping struct {
	labels  []string
	members map[string][]record.Record
}

func groupBy(records []record.Record, axis string) grouping {
	g := grouping{labels: []string{}, members: make(map[string][]record.Record)}
	for _, r := range records {
		label := r.Label(axis)
		if _, ok := g.members[label]; !ok {
			g.labels = append(g.labels, label)
		}
		g.members[label] = append(g.members[label], r)
	}
	return g
}
