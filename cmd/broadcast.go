package cmd

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"fieldtriage/internal/bootstrap"
	"fieldtriage/internal/bootstrap/logging"
	"fieldtriage/internal/errs"
	"fieldtriage/internal/usecase/triage"
)

var broadcastCmd = &cobra.Command{
	Use:   "broadcast",
	Short: "Control the escalation broadcast",
}

var broadcastStartCmd = &cobra.Command{
	Use:   "start <case-id>",
	Short: "Start broadcasting a case (replaces any active broadcast)",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, engine *triage.Service) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		id := cmd.Flags().Arg(0)
		if err := engine.StartBroadcast(ctx, id); err != nil {
			logging.Error(ctx, "start broadcast failed", slog.Any("err", errs.Loggable(err)))
			return errs.Wrap(err, "start broadcast")
		}

		current, err := engine.CurrentBroadcast(ctx)
		if err != nil {
			return errs.Wrap(err, "read current broadcast")
		}
		if current == nil {
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "no such case: %s\n", id)
			return errs.Wrap(err, "write broadcast output")
		}

		if _, err := fmt.Fprintf(cmd.OutOrStdout(), "broadcasting case: %s priority=%s\n", current.ID, current.Priority); err != nil {
			return errs.Wrap(err, "write broadcast output")
		}
		return nil
	}),
}

var broadcastStopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the active broadcast",
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, engine *triage.Service) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		if err := engine.StopBroadcast(ctx); err != nil {
			logging.Error(ctx, "stop broadcast failed", slog.Any("err", errs.Loggable(err)))
			return errs.Wrap(err, "stop broadcast")
		}

		if _, err := fmt.Fprintln(cmd.OutOrStdout(), "broadcast stopped"); err != nil {
			return errs.Wrap(err, "write broadcast output")
		}
		return nil
	}),
}

var broadcastStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the active broadcast, if any",
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, engine *triage.Service) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		current, err := engine.CurrentBroadcast(ctx)
		if err != nil {
			return errs.Wrap(err, "read current broadcast")
		}
		if current == nil {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), "broadcast idle")
			return errs.Wrap(err, "write broadcast output")
		}

		elapsed, _, err := engine.BroadcastElapsed(ctx)
		if err != nil {
			return errs.Wrap(err, "read broadcast elapsed")
		}

		if _, err := fmt.Fprintf(
			cmd.OutOrStdout(),
			"broadcasting case: %s priority=%s elapsed=%s\n",
			current.ID, current.Priority, elapsed.Round(time.Second),
		); err != nil {
			return errs.Wrap(err, "write broadcast output")
		}
		return nil
	}),
}

func init() {
	rootCmd.AddCommand(broadcastCmd)
	broadcastCmd.AddCommand(broadcastStartCmd)
	broadcastCmd.AddCommand(broadcastStopCmd)
	broadcastCmd.AddCommand(broadcastStatusCmd)
}
