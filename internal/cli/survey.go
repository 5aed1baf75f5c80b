package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aegisfield/fieldops/internal/domain"
	"github.com/aegisfield/fieldops/internal/workflow"
)

func newSurveyCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "survey",
		Short: "Identify and record the asset being worked on",
	}
	cmd.AddCommand(
		newSurveyIdentifyCmd(app),
		newSurveyShowCmd(app),
		newSurveySaveCmd(app),
	)
	return cmd
}

// buildSurvey wires a survey workflow over the open job's asset photo session.
func (a *App) buildSurvey(cmd *cobra.Command) (*workflow.Survey, error) {
	sess, err := a.currentContext()
	if err != nil {
		return nil, err
	}
	client, err := a.client()
	if err != nil {
		return nil, err
	}
	gallery, err := a.gallery(cmd.Context(), client, sess.JobID, domain.ImageTypeAsset)
	if err != nil {
		return nil, err
	}
	survey := workflow.NewSurvey(client, gallery, sess.JobID, a.logger)
	if err := survey.LoadExisting(cmd.Context()); err != nil {
		return nil, err
	}
	return survey, nil
}

func printAsset(cmd *cobra.Command, asset *domain.Asset) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "asset: %s (status %s)\n", asset.Name, asset.Status)
	fmt.Fprintf(out, "  category:     %s\n", asset.Details.Category)
	fmt.Fprintf(out, "  condition:    %s\n", asset.Details.Condition)
	fmt.Fprintf(out, "  manufacturer: %s\n", asset.Details.Manufacturer)
	fmt.Fprintf(out, "  model:        %s\n", asset.Details.Model)
	fmt.Fprintf(out, "  description:  %s\n", asset.Details.Description)
	for _, m := range asset.Details.Metadata {
		fmt.Fprintf(out, "  - %s\n", m)
	}
}

func newSurveyIdentifyCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "identify",
		Short: "Ask the AI collaborator to identify the asset from its photos",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			survey, err := app.buildSurvey(cmd)
			if err != nil {
				return err
			}
			if err := survey.Identify(cmd.Context()); err != nil {
				return err
			}
			printAsset(cmd, survey.Asset())
			return nil
		},
	}
}

func newSurveyShowCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the recorded asset for the open job",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			survey, err := app.buildSurvey(cmd)
			if err != nil {
				return err
			}
			asset := survey.Asset()
			if asset == nil {
				fmt.Fprintln(cmd.OutOrStdout(), "no asset recorded")
				return nil
			}
			printAsset(cmd, asset)
			return nil
		},
	}
}

func newSurveySaveCmd(app *App) *cobra.Command {
	var status string
	cmd := &cobra.Command{
		Use:   "save",
		Short: "Persist the identified asset with a final status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			survey, err := app.buildSurvey(cmd)
			if err != nil {
				return err
			}
			if err := survey.Save(cmd.Context(), status); err != nil {
				return err
			}
			asset := survey.Asset()
			fmt.Fprintf(cmd.OutOrStdout(), "saved asset %d (%s) status=%s\n", asset.ID, asset.Name, asset.Status)
			return nil
		},
	}
	cmd.Flags().StringVar(&status, "status", "", "final status: Installed, Serviced or Needs Repair")
	return cmd
}
