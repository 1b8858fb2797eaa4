package cli

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/chartgen/domain/dataset"
)

type generateOptions struct {
	axes      []string
	valueType string
	points    int
}

func (a *App) newGenerateCmd() *cobra.Command {
	opts := &generateOptions{}

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Request a dataset from the data generation service",
		Long: `Request a dataset and store it as the session's data.

Each --axis is name:min:max:interval, optionally followed by :dup to allow
duplicate coordinates on that axis.

Examples:
  # Two axes, 200 points
  chartgen generate --axis x:0:10:1 --axis y:0:5:0.5 --points 200

  # One axis with duplicates and integer outputs
  chartgen generate --axis t:0:100:1:dup --value-type int`,
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := opts.request()
			if err != nil {
				return err
			}

			rt, err := a.setup(cmd.Context(), true)
			if err != nil {
				return err
			}
			defer rt.Close()

			data, err := rt.workbench.Generate(cmd.Context(), a.globals.session, req)
			if err != nil {
				return err
			}

			s := data.Summary()
			fmt.Fprintf(a.stdout, "✓ Generated %d points\n", s.Points)
			fmt.Fprintf(a.stdout, "  Dimension: %d\n", s.Dimension)
			fmt.Fprintf(a.stdout, "  Value type: %s\n", s.ValueType)
			fmt.Fprintf(a.stdout, "  Axes: %s\n", strings.Join(s.Axes, ", "))
			return nil
		},
	}

	cmd.Flags().StringArrayVarP(&opts.axes, "axis", "a", nil, "Axis as name:min:max:interval[:dup] (repeatable)")
	cmd.Flags().StringVar(&opts.valueType, "value-type", string(dataset.ValueDouble), "Output value type")
	cmd.Flags().IntVarP(&opts.points, "points", "n", 100, "Number of points to generate")

	return cmd
}

func (o *generateOptions) request() (dataset.GenerationRequest, error) {
	req := dataset.GenerationRequest{
		ValueType: dataset.ValueType(o.valueType),
		NumPoints: o.points,
	}
	for _, raw := range o.axes {
		ax, err := parseAxis(raw)
		if err != nil {
			return req, err
		}
		req.Axes = append(req.Axes, ax)
	}
	return req, req.Validate()
}

// parseAxis reads name:min:max:interval[:dup].
func parseAxis(raw string) (dataset.AxisSpec, error) {
	parts := strings.Split(raw, ":")
	if len(parts) != 4 && len(parts) != 5 {
		return dataset.AxisSpec{}, fmt.Errorf("%w: axis %q must be name:min:max:interval[:dup]", dataset.ErrInvalidRequest, raw)
	}

	ax := dataset.AxisSpec{Name: strings.TrimSpace(parts[0])}
	nums := make([]float64, 3)
	for i, p := range parts[1:4] {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return dataset.AxisSpec{}, fmt.Errorf("%w: axis %q: %q is not a number", dataset.ErrInvalidRequest, raw, p)
		}
		nums[i] = f
	}
	ax.Minimum, ax.Maximum, ax.Interval = nums[0], nums[1], nums[2]

	if len(parts) == 5 {
		if parts[4] != "dup" {
			return dataset.AxisSpec{}, fmt.Errorf("%w: axis %q: unknown flag %q", dataset.ErrInvalidRequest, raw, parts[4])
		}
		ax.AllowDuplicates = true
	}
	return ax, nil
}

type dataOptions struct {
	raw bool
}

func (a *App) newDataCmd() *cobra.Command {
	opts := &dataOptions{}

	cmd := &cobra.Command{
		Use:   "data",
		Short: "Show the session's generated data",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := a.setup(cmd.Context(), true)
			if err != nil {
				return err
			}
			defer rt.Close()

			data, err := rt.workbench.Data(cmd.Context(), a.globals.session)
			if err != nil {
				return err
			}

			if opts.raw {
				enc := json.NewEncoder(a.stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(data)
			}

			s := data.Summary()
			fmt.Fprintf(a.stdout, "Generated points: %d\n", s.Points)
			fmt.Fprintf(a.stdout, "Dimension: %d\n", s.Dimension)
			fmt.Fprintf(a.stdout, "Value type: %s\n", s.ValueType)
			fmt.Fprintf(a.stdout, "Available axes: %s, %s\n", strings.Join(s.Axes, ", "), dataset.OutputAxis)
			return nil
		},
	}

	cmd.Flags().BoolVar(&opts.raw, "raw", false, "Print the full dataset as JSON")

	return cmd
}
