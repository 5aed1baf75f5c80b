// Package cli implements the fieldctl command tree: a terminal client that
// drives the capture, survey, report and safety workflows against a running
// backend using synthetic capture devices.
package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/aegisfield/fieldops/internal/capture"
	"github.com/aegisfield/fieldops/internal/domain"
	"github.com/aegisfield/fieldops/internal/session"
	"github.com/aegisfield/fieldops/internal/transport"
)

type App struct {
	ServerURL string
	Transport string
	OrgID     string
	DataDir   string
	Seed      string

	logger zerolog.Logger
}

// jobCreator is the administrative surface both concrete transports offer on
// top of the workflow Client contract.
type jobCreator interface {
	CreateJob(ctx context.Context, code, description string) (*domain.Job, error)
}

func NewRootCmd() *cobra.Command {
	app := &App{}

	cmd := &cobra.Command{
		Use:          "fieldctl",
		Short:        "Field service job workflows from the terminal",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cmd.PersistentFlags().StringVar(&app.ServerURL, "server", envOr("FIELDOPS_SERVER", "http://localhost:8080"), "backend base URL")
	cmd.PersistentFlags().StringVar(&app.Transport, "transport", envOr("FIELDOPS_TRANSPORT", "envelope"), "wire surface to use: envelope or rest")
	cmd.PersistentFlags().StringVar(&app.OrgID, "org", envOr("ORGANISATION_ID", "1234"), "organisation identifier")
	cmd.PersistentFlags().StringVar(&app.DataDir, "data-dir", envOr("FIELDOPS_CLI_DIR", defaultDataDir()), "directory for the cached job context")
	cmd.PersistentFlags().StringVar(&app.Seed, "seed", "fieldctl", "seed for the synthetic capture devices")

	app.logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	cmd.AddCommand(
		newJobCmd(app),
		newPhotoCmd(app),
		newNoteCmd(app),
		newSurveyCmd(app),
		newReportCmd(app),
		newSafetyCmd(app),
	)
	return cmd
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".fieldctl"
	}
	return home + "/.fieldctl"
}

// client builds the transport selected by the --transport flag. Both surfaces
// implement the same contract, so every command works against either.
func (a *App) client() (transport.Client, error) {
	switch a.Transport {
	case "envelope":
		return transport.NewEnvelope(transport.EnvelopeOptions{
			BaseURL:        a.ServerURL,
			OrganisationID: a.OrgID,
			Logger:         a.logger,
		}), nil
	case "rest":
		return transport.NewREST(transport.RESTOptions{
			BaseURL:        a.ServerURL,
			OrganisationID: a.OrgID,
			Logger:         a.logger,
		}), nil
	}
	return nil, fmt.Errorf("unknown transport %q (want envelope or rest)", a.Transport)
}

func (a *App) contextStore() (session.ContextStore, error) {
	return session.NewFileContextStore(a.DataDir)
}

// currentContext loads the cached job handoff written by `fieldctl job open`.
func (a *App) currentContext() (session.Context, error) {
	store, err := a.contextStore()
	if err != nil {
		return session.Context{}, err
	}
	ctx, ok, err := store.Load()
	if err != nil {
		return session.Context{}, err
	}
	if !ok {
		return session.Context{}, fmt.Errorf("no job open, run: fieldctl job open <code>")
	}
	return ctx, nil
}

func (a *App) adapter() *capture.Adapter {
	return capture.NewAdapter(
		&capture.SyntheticCamera{Seed: a.Seed},
		&capture.SyntheticMicrophone{Seed: a.Seed},
		a.logger,
	)
}

// gallery builds a server-synced photo session for the open job.
func (a *App) gallery(ctx context.Context, client transport.Client, jobID int64, typ domain.ImageType) (*session.Gallery, error) {
	g := session.NewGallery(client, a.adapter(), session.GalleryConfig{
		JobID:       jobID,
		Type:        typ,
		FetchOnLoad: true,
		Logger:      a.logger,
	})
	if err := g.Load(ctx); err != nil {
		return nil, err
	}
	return g, nil
}
