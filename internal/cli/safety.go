package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aegisfield/fieldops/internal/domain"
	"github.com/aegisfield/fieldops/internal/workflow"
)

func newSafetyCmd(app *App) *cobra.Command {
	var description string
	cmd := &cobra.Command{
		Use:   "safety",
		Short: "File a safety report for the open job",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := app.currentContext()
			if err != nil {
				return err
			}
			client, err := app.client()
			if err != nil {
				return err
			}
			gallery, err := app.gallery(cmd.Context(), client, sess.JobID, domain.ImageTypeSafety)
			if err != nil {
				return err
			}
			safety := workflow.NewSafety(client, gallery, sess.JobID, app.logger)
			if err := safety.Submit(cmd.Context(), description); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "safety report filed")
			return nil
		},
	}
	cmd.Flags().StringVar(&description, "description", "", "what the hazard is")
	return cmd
}
