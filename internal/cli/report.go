package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aegisfield/fieldops/internal/workflow"
)

func newReportCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Draft, generate and submit the job report",
	}
	cmd.AddCommand(
		newReportDraftCmd(app),
		newReportGenerateCmd(app),
		newReportSubmitCmd(app),
	)
	return cmd
}

func (a *App) buildReport(cmd *cobra.Command, nav workflow.Navigator) (*workflow.Report, error) {
	sess, err := a.currentContext()
	if err != nil {
		return nil, err
	}
	client, err := a.client()
	if err != nil {
		return nil, err
	}
	job, err := client.GetJob(cmd.Context(), sess.JobID)
	if err != nil {
		return nil, err
	}
	return workflow.NewReport(client, job, nav, a.logger), nil
}

func newReportDraftCmd(app *App) *cobra.Command {
	var summary string
	var signoff bool
	cmd := &cobra.Command{
		Use:   "draft",
		Short: "Save the report without changing the job status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			report, err := app.buildReport(cmd, nil)
			if err != nil {
				return err
			}
			if summary != "" {
				report.SetSummary(summary)
			}
			report.SetSignOff(signoff)
			if err := report.SaveDraft(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "draft saved")
			return nil
		},
	}
	cmd.Flags().StringVar(&summary, "summary", "", "work summary text")
	cmd.Flags().BoolVar(&signoff, "signoff", false, "attest the report is accurate")
	return cmd
}

func newReportGenerateCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "generate",
		Short: "Ask the AI collaborator to draft the summary",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			report, err := app.buildReport(cmd, nil)
			if err != nil {
				return err
			}
			if err := report.GenerateSummary(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), report.Summary())
			return nil
		},
	}
}

func newReportSubmitCmd(app *App) *cobra.Command {
	var summary string
	var signoff bool
	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Submit the signed-off report and close out the job",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			nav := workflow.NavigatorFunc(func() {
				fmt.Fprintln(cmd.OutOrStdout(), "returning to job list")
			})
			report, err := app.buildReport(cmd, nav)
			if err != nil {
				return err
			}
			if summary != "" {
				report.SetSummary(summary)
			}
			report.SetSignOff(signoff)
			if err := report.Submit(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "report submitted")
			return nil
		},
	}
	cmd.Flags().StringVar(&summary, "summary", "", "work summary text")
	cmd.Flags().BoolVar(&signoff, "signoff", false, "attest the report is accurate")
	return cmd
}
