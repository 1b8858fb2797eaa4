package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/felixgeelhaar/chartgen/domain/chart"
	"github.com/felixgeelhaar/chartgen/domain/validation"
	"github.com/felixgeelhaar/chartgen/infrastructure/export"
	"github.com/felixgeelhaar/chartgen/infrastructure/render"
)

// formOptions are the chart request flags shared by chart and export.
type formOptions struct {
	file string
	form validation.Form
}

func (o *formOptions) register(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&o.file, "form", "", "YAML or JSON file holding the chart request")
	f.StringVarP(&o.form.ChartType, "type", "t", "", "Chart type (see chart-types)")
	f.StringVarP(&o.form.XAxis, "x", "x", "", "X axis name")
	f.StringVarP(&o.form.YAxis, "y", "y", "", "Y axis name")
	f.StringVar(&o.form.ColorAxis, "color", "", "Color axis name")
	f.StringVar(&o.form.SizeAxis, "size", "", "Size axis name")
	f.StringVar(&o.form.GroupAxis, "group", "", "Group axis name")
	f.StringVar(&o.form.SizeScalingType, "scaling", "", `Size scaling, "default" or "sigmoid"`)
	f.StringVar(&o.form.SizeScalingK, "k", "", "Sigmoid steepness between 0.1 and 10.0")
	f.StringVar(&o.form.XRangeMin, "x-min", "", "X window minimum")
	f.StringVar(&o.form.XRangeMax, "x-max", "", "X window maximum")
	f.StringVar(&o.form.YRangeMin, "y-min", "", "Y window minimum")
	f.StringVar(&o.form.YRangeMax, "y-max", "", "Y window maximum")
}

// resolve returns the request: the form file if given, overlaid with any
// flag that was set.
func (o *formOptions) resolve(cmd *cobra.Command) (validation.Form, error) {
	if o.file == "" {
		return o.form, nil
	}

	data, err := os.ReadFile(o.file)
	if err != nil {
		return validation.Form{}, fmt.Errorf("read form: %w", err)
	}
	var form validation.Form
	if strings.EqualFold(filepath.Ext(o.file), ".json") {
		err = json.Unmarshal(data, &form)
	} else {
		err = yaml.Unmarshal(data, &form)
	}
	if err != nil {
		return validation.Form{}, fmt.Errorf("parse form %s: %w", o.file, err)
	}

	overlay := map[string]*string{
		"type":    &form.ChartType,
		"x":       &form.XAxis,
		"y":       &form.YAxis,
		"color":   &form.ColorAxis,
		"size":    &form.SizeAxis,
		"group":   &form.GroupAxis,
		"scaling": &form.SizeScalingType,
		"k":       &form.SizeScalingK,
		"x-min":   &form.XRangeMin,
		"x-max":   &form.XRangeMax,
		"y-min":   &form.YRangeMin,
		"y-max":   &form.YRangeMax,
	}
	for name, dst := range overlay {
		if cmd.Flags().Changed(name) {
			*dst, _ = cmd.Flags().GetString(name)
		}
	}
	return form, nil
}

type chartOptions struct {
	formOptions
	out    string
	format string
}

func (a *App) newChartCmd() *cobra.Command {
	opts := &chartOptions{}

	cmd := &cobra.Command{
		Use:   "chart",
		Short: "Build a chart from the session's data",
		Long: `Build a chart from the session's generated data and write it out.

Formats:
  html    standalone page rendering the chart (default)
  json    ECharts option object
  config  chartgen chart configuration

Examples:
  # Scatter of x against y, written to a page
  chartgen chart -t scatter -x x -y y --out chart.html

  # Bubble chart with sigmoid sizing, windowed on x
  chartgen chart -t scatter_size -x x -y y --size value --scaling sigmoid --k 2 --x-min 1 --x-max 5

  # Request read from a file, with the type overridden
  chartgen chart --form request.yaml -t bar`,
		RunE: func(cmd *cobra.Command, args []string) error {
			form, err := opts.resolve(cmd)
			if err != nil {
				return err
			}

			rt, err := a.setup(cmd.Context(), true)
			if err != nil {
				return err
			}
			defer rt.Close()

			h, err := rt.workbench.CreateChart(cmd.Context(), a.globals.session, form)
			if err != nil {
				return err
			}

			var buf bytes.Buffer
			if err := writeChart(&buf, h.Config, opts.format); err != nil {
				return err
			}
			if err := a.emit(opts.out, buf.Bytes()); err != nil {
				return err
			}
			fmt.Fprintf(a.stderr, "✓ Chart %s: %s, %d points\n", h.ID, h.Config.Type, h.Config.PointCount())
			return nil
		},
	}

	opts.register(cmd)
	cmd.Flags().StringVarP(&opts.out, "out", "o", "", "Output file (default: stdout)")
	cmd.Flags().StringVar(&opts.format, "format", "html", "Output format: html, json or config")

	return cmd
}

func writeChart(w io.Writer, cfg *chart.Config, format string) error {
	switch format {
	case "", "html":
		return render.HTML(w, cfg, render.WithPageTitle(cfg.Title))
	case "json":
		options, err := render.Options(cfg)
		if err != nil {
			return err
		}
		_, err = w.Write(append(options, '\n'))
		return err
	case "config":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(cfg)
	}
	return fmt.Errorf("unknown format %q: want html, json or config", format)
}

// emit writes data to path, or stdout when path is empty.
func (a *App) emit(path string, data []byte) error {
	if path == "" {
		_, err := a.stdout.Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

type exportOptions struct {
	formOptions
	out string
}

func (a *App) newExportCmd() *cobra.Command {
	opts := &exportOptions{}

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the records behind a chart request as XLSX",
		Long: `Validate a chart request, project and window the session's data, and
write the surviving records to an XLSX workbook with a summary sheet.

Examples:
  chartgen export -t scatter -x x -y y --x-min 0 --x-max 3 --out records.xlsx`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.out == "" {
				return fmt.Errorf("output file is required (--out)")
			}
			form, err := opts.resolve(cmd)
			if err != nil {
				return err
			}

			rt, err := a.setup(cmd.Context(), true)
			if err != nil {
				return err
			}
			defer rt.Close()

			p, err := rt.workbench.Prepare(cmd.Context(), a.globals.session, form)
			if err != nil {
				return err
			}

			var buf bytes.Buffer
			if err := export.Workbook(&buf, p.Records, p.Descriptor, export.WithSummary(p.Summary)); err != nil {
				return err
			}
			if err := a.emit(opts.out, buf.Bytes()); err != nil {
				return err
			}
			fmt.Fprintf(a.stdout, "✓ Exported %d of %d records to %s\n", len(p.Records), p.Projected, opts.out)
			return nil
		},
	}

	opts.register(cmd)
	cmd.Flags().StringVarP(&opts.out, "out", "o", "", "Output XLSX file")

	return cmd
}

func (a *App) newChartTypesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "chart-types",
		Short: "List chart types and the axes they need",
		Run: func(cmd *cobra.Command, args []string) {
			for _, t := range chart.Types() {
				spec, _ := chart.Lookup(t)
				inputs := make([]string, 0, len(spec.Bindings))
				for _, b := range spec.Bindings {
					in := string(b.Input)
					if b.Optional {
						in += "?"
					}
					inputs = append(inputs, in)
				}
				fmt.Fprintf(a.stdout, "%-28s %s\n", t, strings.Join(inputs, ", "))
			}
		},
	}
}
