package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aegisfield/fieldops/internal/session"
)

func newJobCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "job",
		Short: "Open, inspect and create jobs",
	}
	cmd.AddCommand(
		newJobOpenCmd(app),
		newJobShowCmd(app),
		newJobCloseCmd(app),
		newJobCreateCmd(app),
	)
	return cmd
}

func newJobOpenCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "open <job-code>",
		Short: "Resolve a job by code and cache it as the working context",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := app.client()
			if err != nil {
				return err
			}
			job, err := client.GetJobByCode(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			store, err := app.contextStore()
			if err != nil {
				return err
			}
			if err := store.Save(session.Context{
				JobID:       job.ID,
				JobCode:     job.Code,
				Description: job.Description,
			}); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "opened job %d (%s) status=%s\n", job.ID, job.Code, job.Status)
			return nil
		},
	}
}

func newJobShowCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the open job with its audit trail",
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
			job, err := client.GetJob(cmd.Context(), sess.JobID)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "job %d (%s)\n", job.ID, job.Code)
			fmt.Fprintf(out, "  status:      %s\n", job.Status)
			fmt.Fprintf(out, "  description: %s\n", job.Description)
			if job.Summary != "" {
				fmt.Fprintf(out, "  summary:     %s\n", job.Summary)
			}
			if len(job.Tasks) > 0 {
				fmt.Fprintln(out, "  tasks:")
				for _, t := range job.Tasks {
					fmt.Fprintf(out, "    [%s] %s\n", t.Status, t.Description)
				}
			}
			return nil
		},
	}
}

func newJobCloseCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "close",
		Short: "Clear the cached job context",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := app.contextStore()
			if err != nil {
				return err
			}
			if err := store.Clear(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "job context cleared")
			return nil
		},
	}
}

func newJobCreateCmd(app *App) *cobra.Command {
	var description string
	cmd := &cobra.Command{
		Use:   "create <job-code>",
		Short: "Register a new job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := app.client()
			if err != nil {
				return err
			}
			creator, ok := client.(jobCreator)
			if !ok {
				return fmt.Errorf("transport %q cannot create jobs", app.Transport)
			}
			job, err := creator.CreateJob(cmd.Context(), args[0], description)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created job %d (%s)\n", job.ID, job.Code)
			return nil
		},
	}
	cmd.Flags().StringVar(&description, "description", "", "what the job is about")
	return cmd
}
