package cmd

import (
	"log/slog"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"fieldtriage/internal/bootstrap"
	"fieldtriage/internal/bootstrap/logging"
	domaintriage "fieldtriage/internal/domain/triage"
	"fieldtriage/internal/errs"
	"fieldtriage/internal/usecase/caseconsole"
	"fieldtriage/internal/usecase/triage"
)

var consoleCasesCmd = &cobra.Command{
	Use:   "cases",
	Short: "Start the interactive case board",
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, engine *triage.Service) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		priority, _ := cmd.Flags().GetString("priority")
		if priority != "" {
			if _, err := domaintriage.ParsePriority(priority); err != nil {
				return errs.Wrapf(err, "parse priority %q", priority)
			}
		}
		category, _ := cmd.Flags().GetString("category")
		if category != "" {
			if _, err := domaintriage.ParseCategory(category); err != nil {
				return errs.Wrapf(err, "parse category %q", category)
			}
		}
		scope, _ := cmd.Flags().GetString("scope")
		refreshInterval, _ := cmd.Flags().GetDuration("refresh-interval")
		if refreshInterval <= 0 {
			refreshInterval = 2 * time.Second
		}

		model := caseconsole.NewBoardModel(ctx, engine, caseconsole.BoardOptions{
			PriorityFilter:  priority,
			CategoryFilter:  category,
			ScopeFilter:     scope,
			RefreshInterval: refreshInterval,
		})

		program := tea.NewProgram(model, tea.WithAltScreen())
		if _, err := program.Run(); err != nil {
			return errs.Wrap(err, "run case board")
		}
		return nil
	}),
}

func init() {
	consoleCmd.AddCommand(consoleCasesCmd)
	consoleCasesCmd.Flags().String("priority", "", "Optional priority filter (red|blue|green)")
	consoleCasesCmd.Flags().String("category", "", "Optional category filter (public|medic|supply)")
	consoleCasesCmd.Flags().String("scope", "", "Optional scope filter (all|unresolved|resolved)")
	consoleCasesCmd.Flags().Duration("refresh-interval", 2*time.Second, "Auto refresh interval")
}
