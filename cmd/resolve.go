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

var resolveCmd = &cobra.Command{
	Use:   "resolve <case-id>",
	Short: "Mark a case resolved (stops its broadcast if active)",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, engine *triage.Service) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		id := cmd.Flags().Arg(0)
		if err := engine.ResolveCase(ctx, id); err != nil {
			logging.Error(ctx, "resolve case failed", slog.Any("err", errs.Loggable(err)))
			return errs.Wrap(err, "resolve case")
		}

		if _, err := fmt.Fprintf(cmd.OutOrStdout(), "case resolved: %s\n", id); err != nil {
			return errs.Wrap(err, "write resolve output")
		}
		return nil
	}),
}

func init() {
	rootCmd.AddCommand(resolveCmd)
}
