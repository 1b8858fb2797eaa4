package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func (a *App) newHealthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check whether the data generation service is up",
		Long: `Check whether the data generation service answers. The result is
advisory: the command exits 0 either way and prints a banner when the
service cannot be reached.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := a.setup(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer rt.Close()

			if rt.workbench.Health(cmd.Context()) {
				fmt.Fprintf(a.stdout, "✓ Data generation service at %s is healthy\n", rt.serviceURL())
				return nil
			}
			fmt.Fprintf(a.stdout, "⚠ Cannot connect to the data generation server at %s\n", rt.serviceURL())
			fmt.Fprintln(a.stdout, "  Start the service before generating data.")
			return nil
		},
	}
}
