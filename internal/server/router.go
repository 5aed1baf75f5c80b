package server

import (
	stdhttp "net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/aegisfield/fieldops/internal/middleware"
)

// NewRouter mounts both client surfaces over one App: the action envelope on
// /db and /ai, and the resource routes under /jobs.
func NewRouter(app *App, allowedOrigins []string) stdhttp.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, chimw.RealIP, chimw.Recoverer)
	r.Use(middleware.Logger(app.Logger))
	if len(allowedOrigins) > 0 {
		r.Use(middleware.CORS(allowedOrigins))
	}

	// Health
	r.Get("/v1/healthz", app.Health)

	// Action envelope surface
	r.Post("/db", app.DBOperations)
	r.Post("/ai", app.AIOperations)

	// Resource surface
	r.Route("/jobs", func(r chi.Router) {
		r.Get("/", app.ListJobs)
		r.Post("/", app.CreateJob)
		r.Delete("/images/{imageID}", app.DeleteImage)
		r.Route("/{jobID}", func(r chi.Router) {
			r.Get("/", app.GetJob)
			r.Put("/", app.UpdateJob)
			r.Get("/images", app.ListImages)
			r.Post("/images", app.AddImage)
			r.Get("/voice-notes", app.ListVoiceNotes)
			r.Post("/voice-notes", app.AddVoiceNote)
			r.Get("/assets", app.GetAsset)
			r.Post("/assets", app.SaveAsset)
			r.Put("/assets", app.SaveAsset)
			r.Post("/safety-reports", app.AddSafetyReport)
		})
	})

	r.Post("/ai-operations", app.AIOperation)

	return r
}
