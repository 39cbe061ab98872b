package cmd

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"fieldtriage/internal/bootstrap"
	"fieldtriage/internal/bootstrap/logging"
	domaintriage "fieldtriage/internal/domain/triage"
	"fieldtriage/internal/errs"
	"fieldtriage/internal/usecase/triage"
)

var casesCmd = &cobra.Command{
	Use:   "cases",
	Short: "List saved cases",
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, engine *triage.Service) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		filter := triage.CaseFilter{}
		if raw, _ := cmd.Flags().GetString("priority"); raw != "" {
			priority, err := domaintriage.ParsePriority(raw)
			if err != nil {
				return errs.Wrapf(err, "parse priority %q", raw)
			}
			filter.Priority = priority
		}
		if raw, _ := cmd.Flags().GetString("category"); raw != "" {
			category, err := domaintriage.ParseCategory(raw)
			if err != nil {
				return errs.Wrapf(err, "parse category %q", raw)
			}
			filter.Category = category
		}
		filter.Unresolved, _ = cmd.Flags().GetBool("unresolved")
		filter.Resolved, _ = cmd.Flags().GetBool("resolved")

		cases, err := engine.ListCasesFiltered(ctx, filter)
		if err != nil {
			logging.Error(ctx, "list cases failed", slog.Any("err", errs.Loggable(err)))
			return errs.Wrap(err, "list cases")
		}

		if len(cases) == 0 {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), "no cases")
			return errs.Wrap(err, "write cases output")
		}

		for _, c := range cases {
			if _, err := fmt.Fprintln(cmd.OutOrStdout(), formatCaseLine(c)); err != nil {
				return errs.Wrap(err, "write cases output")
			}
		}
		return nil
	}),
}

func formatCaseLine(c domaintriage.Case) string {
	parts := []string{
		fmt.Sprintf("%s [%s/%s]", c.ID, c.Category, c.Priority),
		c.CreatedAt.Format(time.RFC3339),
	}
	if c.SubjectName != "" {
		parts = append(parts, "name="+c.SubjectName)
	}
	if len(c.SymptomTags) > 0 {
		parts = append(parts, "symptoms="+strings.Join(c.SymptomTags, ","))
	}
	if len(c.SupplyTags) > 0 {
		parts = append(parts, "supplies="+strings.Join(c.SupplyTags, ","))
	}
	if c.LocationLabel != "" {
		parts = append(parts, "location="+c.LocationLabel)
	}
	if c.Resolved {
		parts = append(parts, "resolved")
	}
	if c.Broadcasting {
		parts = append(parts, "broadcasting")
	}
	return strings.Join(parts, " ")
}

func init() {
	rootCmd.AddCommand(casesCmd)

	casesCmd.Flags().String("priority", "", "Filter by priority tier (red|blue|green)")
	casesCmd.Flags().String("category", "", "Filter by category (public|medic|supply)")
	casesCmd.Flags().Bool("unresolved", false, "Only unresolved cases")
	casesCmd.Flags().Bool("resolved", false, "Only resolved cases")
}
