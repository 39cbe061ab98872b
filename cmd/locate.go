package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"fieldtriage/internal/bootstrap"
	"fieldtriage/internal/bootstrap/logging"
	"fieldtriage/internal/errs"
	"fieldtriage/internal/usecase/triage"
)

var locateCmd = &cobra.Command{
	Use:   "locate",
	Short: "Try one bounded device location lookup",
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, engine *triage.Service) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		coords := engine.ResolveLocation(ctx)
		if coords == nil {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), "location unavailable")
			return errs.Wrap(err, "write locate output")
		}

		if _, err := fmt.Fprintf(cmd.OutOrStdout(), "location: %.5f,%.5f\n", coords.Lat, coords.Lng); err != nil {
			return errs.Wrap(err, "write locate output")
		}
		return nil
	}),
}

func init() {
	rootCmd.AddCommand(locateCmd)
}
