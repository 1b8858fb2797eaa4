// Package render draws chart configurations as ECharts pages with
// go-echarts. Scatter and bubble configurations become scatter series;
// bar configurations become bar series over the category labels.
package render

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"io"
	"math"
	"strings"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/felixgeelhaar/chartgen/domain/chart"
)

// ErrNilConfig indicates there is nothing to render.
var ErrNilConfig = errors.New("nil chart configuration")

// Chart is the part of a go-echarts chart the renderer relies on.
type Chart interface {
	Render(w io.Writer) error
	Validate()
	JSON() map[string]interface{}
}

type settings struct {
	width     string
	height    string
	pageTitle string
	assetHost string
}

// Option customizes the rendered page.
type Option func(*settings)

// WithSize sets the canvas size, e.g. "900px" and "500px".
func WithSize(width, height string) Option {
	return func(s *settings) {
		s.width = width
		s.height = height
	}
}

// WithPageTitle sets the HTML page title.
func WithPageTitle(title string) Option {
	return func(s *settings) {
		s.pageTitle = title
	}
}

// WithAssetsHost loads echarts.min.js from another host.
func WithAssetsHost(host string) Option {
	return func(s *settings) {
		s.assetHost = host
	}
}

// tooltipFormatter shows the lines carried in the item name.
const tooltipFormatter = `function (p) { return p.name; }`

// Build converts cfg into a go-echarts chart.
func Build(cfg *chart.Config, options ...Option) (Chart, error) {
	if cfg == nil {
		return nil, ErrNilConfig
	}
	s := settings{width: "900px", height: "500px", pageTitle: "chartgen"}
	for _, o := range options {
		o(&s)
	}

	global := []charts.GlobalOpts{
		charts.WithInitializationOpts(opts.Initialization{
			Width:      s.width,
			Height:     s.height,
			PageTitle:  s.pageTitle,
			AssetsHost: s.assetHost,
		}),
		charts.WithTitleOpts(opts.Title{Title: cfg.Title}),
		charts.WithTooltipOpts(opts.Tooltip{
			Show:      opts.Bool(true),
			Trigger:   "item",
			Formatter: opts.FuncOpts(tooltipFormatter),
		}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(!cfg.HideLegend)}),
		charts.WithXAxisOpts(xAxis(cfg.XScale)),
		charts.WithYAxisOpts(yAxis(cfg.YScale)),
	}

	switch cfg.Kind {
	case chart.KindBar:
		return barChart(cfg, global), nil
	case chart.KindScatter, chart.KindBubble:
		return scatterChart(cfg, global), nil
	default:
		return nil, fmt.Errorf("render: unsupported chart kind %q", cfg.Kind)
	}
}

// HTML writes a standalone ECharts page for cfg.
func HTML(w io.Writer, cfg *chart.Config, options ...Option) error {
	c, err := Build(cfg, options...)
	if err != nil {
		return err
	}
	if err := c.Render(w); err != nil {
		return fmt.Errorf("render page: %w", err)
	}
	return nil
}

// Options returns the ECharts option object for cfg as JSON. Callback
// functions appear as plain strings holding their source.
func Options(cfg *chart.Config) ([]byte, error) {
	c, err := Build(cfg)
	if err != nil {
		return nil, err
	}
	c.Validate()
	out, err := json.Marshal(c.JSON())
	if err != nil {
		return nil, fmt.Errorf("encode options: %w", err)
	}
	return bytes.ReplaceAll(out, []byte("__f__"), nil), nil
}

func scatterChart(cfg *chart.Config, global []charts.GlobalOpts) Chart {
	sc := charts.NewScatter()
	sc.SetGlobalOptions(global...)
	if len(cfg.XScale.Categories) > 0 {
		sc.SetXAxis(cfg.XScale.Categories)
	}

	for _, series := range cfg.Series {
		data := make([]opts.ScatterData, 0, len(series.Points))
		for _, p := range series.Points {
			if p.Y == nil {
				continue
			}
			value := []interface{}{coordinate(p), *p.Y}
			if p.Color != "" {
				value = append(value, p.Color)
			}
			data = append(data, opts.ScatterData{
				Name:       tooltipName(p.Tooltip),
				Value:      value,
				SymbolSize: symbolSize(p.Radius),
			})
		}
		sc.AddSeries(series.Name, data,
			charts.WithItemStyleOpts(opts.ItemStyle{Color: string(opts.FuncOpts(colorCallback(series.Color)))}),
		)
	}
	return sc
}

func barChart(cfg *chart.Config, global []charts.GlobalOpts) Chart {
	bar := charts.NewBar()
	bar.SetGlobalOptions(global...)

	labels := cfg.Labels
	if len(labels) == 0 {
		labels = cfg.XScale.Categories
	}
	bar.SetXAxis(labels)

	for _, series := range cfg.Series {
		data := make([]opts.BarData, len(series.Points))
		for i, p := range series.Points {
			// "-" is how ECharts marks a missing bar.
			item := opts.BarData{Name: tooltipName(p.Tooltip), Value: "-"}
			if p.Y != nil {
				item.Value = *p.Y
			}
			if item.Name == "" {
				item.Name = html.EscapeString(p.Label)
			}
			if p.Color != "" {
				item.ItemStyle = &opts.ItemStyle{Color: p.Color}
			}
			data[i] = item
		}

		var seriesOpts []charts.SeriesOpts
		if series.Color != "" {
			seriesOpts = append(seriesOpts, charts.WithItemStyleOpts(opts.ItemStyle{Color: series.Color}))
		}
		bar.AddSeries(series.Name, data, seriesOpts...)
	}
	return bar
}

func xAxis(s chart.Scale) opts.XAxis {
	ax := opts.XAxis{
		Name: s.Title,
		Show: opts.Bool(s.Display),
		Type: "value",
	}
	if len(s.Categories) > 0 {
		ax.Type = "category"
		return ax
	}
	ax.Scale = opts.Bool(!s.BeginAtZero)
	if s.Min != nil {
		ax.Min = *s.Min
	}
	if s.Max != nil {
		ax.Max = *s.Max
	}
	return ax
}

func yAxis(s chart.Scale) opts.YAxis {
	ax := opts.YAxis{
		Name: s.Title,
		Show: opts.Bool(s.Display),
		Type: "value",
	}
	if len(s.Categories) > 0 {
		ax.Type = "category"
		ax.Data = s.Categories
		return ax
	}
	ax.Scale = opts.Bool(!s.BeginAtZero)
	if s.Min != nil {
		ax.Min = *s.Min
	}
	if s.Max != nil {
		ax.Max = *s.Max
	}
	return ax
}

// coordinate is the X value of a point; a point without one sits at the
// origin of a hidden axis.
func coordinate(p chart.Point) float64 {
	if p.X == nil {
		return 0
	}
	return *p.X
}

// symbolSize turns a radius into an ECharts symbol diameter.
func symbolSize(radius float64) int {
	if radius <= 0 {
		return 0
	}
	return int(math.Max(1, math.Round(radius*2)))
}

func tooltipName(lines []string) string {
	escaped := make([]string, len(lines))
	for i, l := range lines {
		escaped[i] = html.EscapeString(l)
	}
	return strings.Join(escaped, "<br/>")
}

// colorCallback reads a per-point color from the third value slot and falls
// back to the series color.
func colorCallback(fallback string) string {
	return fmt.Sprintf(`function (p) { return (p.value && p.value[2]) || %q; }`, fallback)
}
