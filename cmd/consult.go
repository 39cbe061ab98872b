package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"fieldtriage/internal/bootstrap"
	"fieldtriage/internal/bootstrap/logging"
	domaintriage "fieldtriage/internal/domain/triage"
	"fieldtriage/internal/errs"
	"fieldtriage/internal/usecase/triage"
)

var consultCmd = &cobra.Command{
	Use:   "consult",
	Short: "Manage the remote-consultation queue",
}

var consultAddCmd = &cobra.Command{
	Use:   "add <case-id>",
	Short: "Queue a case for remote review",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, engine *triage.Service) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		id := cmd.Flags().Arg(0)
		if err := engine.EnqueueConsult(ctx, id); err != nil {
			logging.Error(ctx, "enqueue consult failed", slog.Any("err", errs.Loggable(err)))
			return errs.Wrap(err, "enqueue consult")
		}

		if _, err := fmt.Fprintf(cmd.OutOrStdout(), "consult queued: %s\n", id); err != nil {
			return errs.Wrap(err, "write consult output")
		}
		return nil
	}),
}

var consultRemoveCmd = &cobra.Command{
	Use:   "remove <case-id>",
	Short: "Remove a case from the consult queue",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, engine *triage.Service) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		id := cmd.Flags().Arg(0)
		if err := engine.DequeueConsult(ctx, id); err != nil {
			logging.Error(ctx, "dequeue consult failed", slog.Any("err", errs.Loggable(err)))
			return errs.Wrap(err, "dequeue consult")
		}

		if _, err := fmt.Fprintf(cmd.OutOrStdout(), "consult removed: %s\n", id); err != nil {
			return errs.Wrap(err, "write consult output")
		}
		return nil
	}),
}

var consultListCmd = &cobra.Command{
	Use:   "list",
	Short: "List cases awaiting remote review",
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, engine *triage.Service) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		queued, err := engine.ListConsultQueue(ctx)
		if err != nil {
			logging.Error(ctx, "list consult queue failed", slog.Any("err", errs.Loggable(err)))
			return errs.Wrap(err, "list consult queue")
		}

		if at, count, ok, err := engine.LastUploadMark(ctx); err == nil && ok {
			if _, err := fmt.Fprintf(cmd.OutOrStdout(), "last upload: %s (%d cases)\n", at.Format(time.RFC3339), count); err != nil {
				return errs.Wrap(err, "write consult output")
			}
		}

		if len(queued) == 0 {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), "consult queue empty")
			return errs.Wrap(err, "write consult output")
		}
		for _, c := range queued {
			if _, err := fmt.Fprintln(cmd.OutOrStdout(), formatCaseLine(c)); err != nil {
				return errs.Wrap(err, "write consult output")
			}
		}
		return nil
	}),
}

var consultUploadCmd = &cobra.Command{
	Use:   "upload",
	Short: "Upload queued cases for remote review and clear the queue",
	Long:  "Hands each queued case to the transfer link and removes the ones that go through. With no real uplink configured this simulates the transfer.",
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, engine *triage.Service) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		uploaded, err := engine.UploadConsults(ctx, simulatedTransfer)
		if err != nil {
			logging.Error(ctx, "consult upload failed", slog.Any("err", errs.Loggable(err)))
			return errs.Wrap(err, "upload consults")
		}

		if _, err := fmt.Fprintf(cmd.OutOrStdout(), "uploaded %d cases\n", uploaded); err != nil {
			return errs.Wrap(err, "write consult output")
		}
		return nil
	}),
}

// simulatedTransfer stands in for the out-of-scope network uplink.
func simulatedTransfer(ctx context.Context, c domaintriage.Case) error {
	logging.Info(ctx, "simulated consult transfer", slog.String("case_id", c.ID))
	return nil
}

func init() {
	rootCmd.AddCommand(consultCmd)
	consultCmd.AddCommand(consultAddCmd)
	consultCmd.AddCommand(consultRemoveCmd)
	consultCmd.AddCommand(consultListCmd)
	consultCmd.AddCommand(consultUploadCmd)
}
