package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aegisfield/fieldops/internal/domain"
	"github.com/aegisfield/fieldops/internal/session"
)

func newPhotoCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "photo",
		Short: "Capture, list and remove job photos",
	}
	cmd.AddCommand(
		newPhotoCaptureCmd(app),
		newPhotoListCmd(app),
		newPhotoRemoveCmd(app),
	)
	return cmd
}

func photoType(raw string) (domain.ImageType, error) {
	return domain.ParseImageType(raw)
}

func newPhotoCaptureCmd(app *App) *cobra.Command {
	var typeFlag string
	cmd := &cobra.Command{
		Use:   "capture",
		Short: "Take a photo with the synthetic camera and upload it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			typ, err := photoType(typeFlag)
			if err != nil {
				return err
			}
			sess, err := app.currentContext()
			if err != nil {
				return err
			}
			client, err := app.client()
			if err != nil {
				return err
			}
			gallery, err := app.gallery(cmd.Context(), client, sess.JobID, typ)
			if err != nil {
				return err
			}
			img, err := gallery.Capture(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "captured image %d (%d/%d)\n", img.ID, gallery.Count(), domain.MaxImagesPerType)
			return nil
		},
	}
	cmd.Flags().StringVar(&typeFlag, "type", string(domain.ImageTypeJob), "image type: job, safety or asset")
	return cmd
}

func newPhotoListCmd(app *App) *cobra.Command {
	var typeFlag string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored photos for the open job",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			typ, err := photoType(typeFlag)
			if err != nil {
				return err
			}
			sess, err := app.currentContext()
			if err != nil {
				return err
			}
			client, err := app.client()
			if err != nil {
				return err
			}
			gallery, err := app.gallery(cmd.Context(), client, sess.JobID, typ)
			if err != nil {
				return err
			}
			photos := gallery.Photos()
			if len(photos) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no photos")
				return nil
			}
			for i, p := range photos {
				fmt.Fprintf(cmd.OutOrStdout(), "%d: image %d (%d bytes, %s)\n", i, p.ID, len(p.Data), p.CreatedAt.Format("2006-01-02 15:04"))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&typeFlag, "type", string(domain.ImageTypeJob), "image type: job, safety or asset")
	return cmd
}

func newPhotoRemoveCmd(app *App) *cobra.Command {
	var typeFlag string
	var index int
	cmd := &cobra.Command{
		Use:   "remove",
		Short: "Delete a stored photo by its list index",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			typ, err := photoType(typeFlag)
			if err != nil {
				return err
			}
			sess, err := app.currentContext()
			if err != nil {
				return err
			}
			client, err := app.client()
			if err != nil {
				return err
			}
			gallery, err := app.gallery(cmd.Context(), client, sess.JobID, typ)
			if err != nil {
				return err
			}
			if err := gallery.Remove(cmd.Context(), index); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "removed photo %d (%d left)\n", index, gallery.Count())
			return nil
		},
	}
	cmd.Flags().StringVar(&typeFlag, "type", string(domain.ImageTypeJob), "image type: job, safety or asset")
	cmd.Flags().IntVar(&index, "index", 0, "list index of the photo to remove")
	return cmd
}

func newNoteCmd(app *App) *cobra.Command {
	var typeFlag string
	var quick bool
	cmd := &cobra.Command{
		Use:   "note",
		Short: "Record a voice note with the synthetic microphone and upload it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			typ, err := domain.ParseNoteType(typeFlag)
			if err != nil {
				return err
			}
			sess, err := app.currentContext()
			if err != nil {
				return err
			}
			client, err := app.client()
			if err != nil {
				return err
			}
			log := session.NewNoteLog(client, app.adapter(), session.NoteLogConfig{
				JobID:  sess.JobID,
				Type:   typ,
				Logger: app.logger,
			})

			var note *domain.VoiceNote
			if quick {
				note, err = log.RecordQuickNote(cmd.Context())
			} else {
				if err := log.StartRecording(cmd.Context()); err != nil {
					return err
				}
				note, err = log.StopAndUpload(cmd.Context())
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "recorded voice note %d (type %s)\n", note.ID, note.Type)
			return nil
		},
	}
	cmd.Flags().StringVar(&typeFlag, "type", string(domain.NoteTypeGeneral), "note type: general, report or safety")
	cmd.Flags().BoolVar(&quick, "quick", false, "record with the fixed auto-stop ceiling")
	return cmd
}
