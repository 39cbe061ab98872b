package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"fieldtriage/internal/bootstrap"
	"fieldtriage/internal/bootstrap/logging"
	domaintriage "fieldtriage/internal/domain/triage"
	"fieldtriage/internal/errs"
	"fieldtriage/internal/usecase/triage"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Record a new emergency case",
}

var reportPublicCmd = &cobra.Command{
	Use:   "public",
	Short: "Record a case from the public (bystander) workflow",
	RunE:  reportMedicalCase(domaintriage.CategoryPublic),
}

var reportMedicCmd = &cobra.Command{
	Use:   "medic",
	Short: "Record a case from the medic workflow",
	RunE:  reportMedicalCase(domaintriage.CategoryMedic),
}

var reportSupplyCmd = &cobra.Command{
	Use:   "supply",
	Short: "Record a supply request",
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, engine *triage.Service) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		supplies, _ := cmd.Flags().GetStringSlice("supply")
		other, _ := cmd.Flags().GetString("other")
		locationLabel, _ := cmd.Flags().GetString("location")
		anonymous, _ := cmd.Flags().GetBool("anonymous")

		for _, tag := range supplies {
			if !domaintriage.IsKnownSupplyTag(tag) {
				logging.Warn(ctx, "unrecognized supply tag", slog.String("tag", tag))
			}
		}

		input := triage.CreateCaseInput{
			Category:               domaintriage.CategorySupply,
			SupplyTags:             supplies,
			OtherSupplyDescription: other,
			LocationLabel:          locationLabel,
			IsAnonymous:            anonymous,
		}
		if noLocate, _ := cmd.Flags().GetBool("no-locate"); !noLocate {
			input.Coordinates = engine.ResolveLocation(ctx)
		}

		created, err := engine.CreateCase(ctx, input)
		if err != nil {
			logging.Error(ctx, "record supply case failed", slog.Any("err", errs.Loggable(err)))
			return errs.Wrap(err, "record supply case")
		}

		return printCreatedCase(cmd, created)
	}),
}

func reportMedicalCase(category domaintriage.Category) func(cmd *cobra.Command, args []string) error {
	return withApp(func(cmd *cobra.Command, _ *bootstrap.App, engine *triage.Service) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		symptoms, _ := cmd.Flags().GetStringSlice("symptom")
		name, _ := cmd.Flags().GetString("name")
		age, _ := cmd.Flags().GetString("age")
		locationLabel, _ := cmd.Flags().GetString("location")
		anonymous, _ := cmd.Flags().GetBool("anonymous")
		photoRef, _ := cmd.Flags().GetString("photo")

		input := triage.CreateCaseInput{
			Category:      category,
			SymptomTags:   symptoms,
			SubjectName:   name,
			Age:           age,
			LocationLabel: locationLabel,
			IsAnonymous:   anonymous,
			PhotoRef:      photoRef,
		}

		// The form resolves location first and only then submits; a missing
		// fix is expected, never a blocker.
		if noLocate, _ := cmd.Flags().GetBool("no-locate"); !noLocate {
			input.Coordinates = engine.ResolveLocation(ctx)
		}

		created, err := engine.CreateCase(ctx, input)
		if err != nil {
			logging.Error(ctx, "record case failed", slog.Any("err", errs.Loggable(err)))
			return errs.Wrap(err, "record case")
		}

		return printCreatedCase(cmd, created)
	})
}

func printCreatedCase(cmd *cobra.Command, c domaintriage.Case) error {
	broadcast := "no"
	if c.Broadcasting {
		broadcast = "yes"
	}
	coords := "unavailable"
	if c.Coordinates != nil {
		coords = fmt.Sprintf("%.5f,%.5f", c.Coordinates.Lat, c.Coordinates.Lng)
	}
	if _, err := fmt.Fprintf(
		cmd.OutOrStdout(),
		"case saved: id=%s category=%s priority=%s broadcasting=%s coordinates=%s\n",
		c.ID, c.Category, c.Priority, broadcast, coords,
	); err != nil {
		return errs.Wrap(err, "write report output")
	}
	return nil
}

func init() {
	rootCmd.AddCommand(reportCmd)
	reportCmd.AddCommand(reportPublicCmd)
	reportCmd.AddCommand(reportMedicCmd)
	reportCmd.AddCommand(reportSupplyCmd)

	for _, medical := range []*cobra.Command{reportPublicCmd, reportMedicCmd} {
		medical.Flags().StringSlice("symptom", nil, "Symptom tag (repeatable), e.g. notBreathing, chestPain")
		medical.Flags().String("name", "", "Subject name")
		medical.Flags().String("age", "", "Subject age")
		medical.Flags().String("location", "", "Free-text location label")
		medical.Flags().Bool("anonymous", false, "Record without identifying details")
		medical.Flags().String("photo", "", "Opaque photo reference")
		medical.Flags().Bool("no-locate", false, "Skip the device location lookup")
	}

	reportSupplyCmd.Flags().StringSlice("supply", nil, "Needed supply tag (repeatable): water, food, babyFormula, bandages, power, other")
	reportSupplyCmd.Flags().String("other", "", "Description for the 'other' supply tag")
	reportSupplyCmd.Flags().String("location", "", "Free-text location label")
	reportSupplyCmd.Flags().Bool("anonymous", false, "Record without identifying details")
	reportSupplyCmd.Flags().Bool("no-locate", false, "Skip the device location lookup")
}
