package chart

import (
	"fmt"
	"sort"

	"github.com/felixgeelhaar/chartgen/domain/dataset"
	"github.com/felixgeelhaar/chartgen/domain/record"
	"github.com/felixgeelhaar/chartgen/domain/scaling"
)

// buildCategory counts records per distinct category.
func buildCategory(records []record.Record, ds dataset.Descriptor, _ scaling.Config, _ scaling.ColorConfig) (*Config, error) {
	names, err := roles(ds, dataset.RoleGroup)
	if err != nil {
		return nil, err
	}
	cat := names[dataset.RoleGroup]

	groups := groupBy(records, cat)
	cfg := &Config{
		Kind:   KindBar,
		Labels: groups.labels,
		XScale: Scale{Title: cat, Display: true, Categories: groups.labels},
		YScale: Scale{Title: "count", Display: true, BeginAtZero: true},
	}

	series := Series{Name: "count", Color: colorBar, Points: []Point{}}
	for _, label := range groups.labels {
		members := groups.members[label]
		lines := []string{fmt.Sprintf("count: %d", len(members))}
		if len(members) > 0 {
			lines = append(lines, "first: "+members[0].Source.String())
		}
		series.Points = append(series.Points, Point{
			Label:   label,
			Y:       f64(float64(len(members))),
			Tooltip: lines,
			Ref:     refOf(members[0]),
		})
	}
	cfg.Series = []Series{series}
	return cfg, nil
}

// buildBar plots the mean value per category. A category without numeric
// values is a gap.
func buildBar(records []record.Record, ds dataset.Descriptor, _ scaling.Config, _ scaling.ColorConfig) (*Config, error) {
	names, err := roles(ds, dataset.RoleGroup, dataset.RoleValue)
	if err != nil {
		return nil, err
	}
	cat, value := names[dataset.RoleGroup], names[dataset.RoleValue]

	groups := groupBy(records, cat)
	cfg := &Config{
		Kind:   KindBar,
		Labels: groups.labels,
		XScale: Scale{Title: cat, Display: true, Categories: groups.labels},
		YScale: Scale{Title: value, Display: true, BeginAtZero: true},
	}

	series := Series{Name: fmt.Sprintf("%s (mean)", value), Color: colorBar, Points: []Point{}}
	for _, label := range groups.labels {
		members := groups.members[label]
		values := record.Numbers(members, value)
		p := Point{Label: label, Ref: refOf(members[0])}
		if len(values) > 0 {
			var sum float64
			for _, v := range values {
				sum += v
			}
			mean := sum / float64(len(values))
			p.Y = f64(mean)
			p.Tooltip = []string{
				fmt.Sprintf("%s: %s", cat, label),
				fmt.Sprintf("mean %s: %s", value, formatFloat(mean)),
				fmt.Sprintf("points: %d", len(values)),
			}
		}
		series.Points = append(series.Points, p)
	}
	cfg.Series = []Series{series}
	return cfg, nil
}

// buildBarSize draws a bubble per record at its category index, sized by
// the square-root law.
func buildBarSize(records []record.Record, ds dataset.Descriptor, _ scaling.Config, _ scaling.ColorConfig) (*Config, error) {
	names, err := roles(ds, dataset.RoleGroup, dataset.RoleSize)
	if err != nil {
		return nil, err
	}
	cat, size := names[dataset.RoleGroup], names[dataset.RoleSize]

	groups := groupBy(records, cat)
	index := indexOf(groups.labels)
	cfg := &Config{
		Kind:   KindBubble,
		XScale: Scale{Title: cat, Display: true, Categories: groups.labels},
		YScale: hiddenScale(-1, 1),
	}

	series := Series{Name: fmt.Sprintf("%s (size: %s)", cat, size), Color: colorSized, Points: []Point{}}
	for _, r := range records {
		sv, ok := r.Float(size)
		if !ok {
			continue
		}
		series.Points = append(series.Points, Point{
			X:       f64(float64(index[r.Label(cat)])),
			Y:       f64(0),
			Radius:  sqrtRadius(sv),
			Size:    f64(sv),
			Label:   r.Label(cat),
			Tooltip: tooltip(r, cat, size),
			Ref:     refOf(r),
		})
	}
	cfg.Series = []Series{series}
	return cfg, nil
}

// buildBarColor draws one single-point series per record at its category
// index, filled by hue.
func buildBarColor(records []record.Record, ds dataset.Descriptor, _ scaling.Config, _ scaling.ColorConfig) (*Config, error) {
	names, err := roles(ds, dataset.RoleGroup, dataset.RoleColor)
	if err != nil {
		return nil, err
	}
	cat, color := names[dataset.RoleGroup], names[dataset.RoleColor]

	groups := groupBy(records, cat)
	index := indexOf(groups.labels)
	cfg := &Config{
		Kind:       KindScatter,
		XScale:     Scale{Title: cat, Display: true, Categories: groups.labels},
		YScale:     hiddenScale(-0.5, 0.5),
		HideLegend: true,
		Series:     []Series{},
	}
	if len(records) == 0 {
		return cfg, nil
	}

	ext := extentOf(records, color)
	for _, r := range records {
		cv, ok := r.Float(color)
		if !ok {
			continue
		}
		hue := scaling.Hue(cv, ext.min, ext.max)
		label := r.Label(cat)
		cfg.Series = append(cfg.Series, Series{
			Name:  label,
			Color: hue,
			Points: []Point{{
				X:       f64(float64(index[label])),
				Y:       f64(0),
				Radius:  radiusHue,
				Color:   hue,
				Label:   label,
				Tooltip: tooltip(r, cat, color),
				Ref:     refOf(r),
			}},
		})
	}
	return cfg, nil
}

// buildGroupedBar draws one bar series per group across the shared X
// buckets. Missing (group, x) pairs are gaps, not zeros.
func buildGroupedBar(records []record.Record, ds dataset.Descriptor, _ scaling.Config, _ scaling.ColorConfig) (*Config, error) {
	names, err := roles(ds, dataset.RoleGroup, dataset.RoleX, dataset.RoleValue)
	if err != nil {
		return nil, err
	}
	group, x, value := names[dataset.RoleGroup], names[dataset.RoleX], names[dataset.RoleValue]

	groups := groupBy(records, group)
	buckets := sortedBuckets(records, x)
	cfg := &Config{
		Kind:   KindBar,
		Labels: buckets,
		XScale: Scale{Title: x, Display: true, Categories: buckets},
		YScale: Scale{Title: value, Display: true},
		Series: []Series{},
	}

	for i, label := range groups.labels {
		byBucket := make(map[string]record.Record)
		for _, r := range groups.members[label] {
			key := r.Label(x)
			if _, seen := byBucket[key]; !seen {
				byBucket[key] = r
			}
		}

		series := Series{Name: label, Color: scaling.SeriesHue(i, len(groups.labels)), Points: []Point{}}
		for _, bucket := range buckets {
			p := Point{Label: bucket}
			if r, ok := byBucket[bucket]; ok {
				if v, ok := r.Float(value); ok {
					p.Y = f64(v)
					p.Tooltip = tooltip(r, group, x, value)
					p.Ref = refOf(r)
				}
			}
			series.Points = append(series.Points, p)
		}
		cfg.Series = append(cfg.Series, series)
	}
	return cfg, nil
}

func indexOf(labels []string) map[string]int {
	index := make(map[string]int, len(labels))
	for i, l := range labels {
		index[l] = i
	}
	return index
}

// sortedBuckets returns the distinct labels of an axis, numeric values first
// in ascending order, then text labels in first-seen order.
func sortedBuckets(records []record.Record, axis string) []string {
	type bucket struct {
		field record.Field
		label string
	}
	seen := make(map[string]bool)
	var all []bucket
	for _, r := range records {
		f, ok := r.Get(axis)
		if !ok {
			continue
		}
		label := f.Label()
		if seen[label] {
			continue
		}
		seen[label] = true
		all = append(all, bucket{field: f, label: label})
	}

	sort.SliceStable(all, func(i, j int) bool {
		a, b := all[i].field, all[j].field
		switch {
		case a.Numeric && b.Numeric:
			return a.Num < b.Num
		case a.Numeric != b.Numeric:
			return a.Numeric
		default:
			return false
		}
	})

	out := make([]string, len(all))
	for i, b := range all {
		out[i] = b.label
	}
	return out
}
