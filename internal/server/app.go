// Package server is the backend serving both historical client surfaces: the
// action envelope on /db and /ai, and the resource routes the file-backed
// variant used. Both run over the same store so their behavior stays in step.
package server

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/aegisfield/fieldops/internal/ai"
	"github.com/aegisfield/fieldops/internal/domain"
	"github.com/aegisfield/fieldops/internal/store"
)

// Audit trail descriptions appended by mutations. Clients display these
// verbatim, so the wording is part of the contract.
const (
	taskScannedAssetPrefix = "Scanned Asset "
	taskUpdatedAssetPrefix = "Updated Asset "
	taskUpdatedProgress    = "Updated work progress"
	taskCompletedProgress  = "Completed work progress"
	taskReportedSafety     = "Reported Safety Issue"
	taskVoiceNotePrefix    = "Created voice note of type "
	taskCompleteJob        = "Complete Job"
)

type App struct {
	Store  store.Store
	AI     ai.Collaborator
	OrgID  string
	Logger zerolog.Logger
}

func NewApp(st store.Store, collaborator ai.Collaborator, orgID string, logger zerolog.Logger) *App {
	return &App{Store: st, AI: collaborator, OrgID: orgID, Logger: logger}
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// error writes the resource-route failure shape.
func (a *App) error(w http.ResponseWriter, code int, msg string) {
	a.json(w, code, map[string]string{"error": msg})
}

// audit appends a completed audit task, logging rather than failing the
// request when the append itself goes wrong.
func (a *App) audit(ctx context.Context, jobID int64, description string) {
	if _, err := a.Store.AppendTask(ctx, jobID, description, domain.TaskStatusCompleted); err != nil {
		a.Logger.Error().Err(err).Int64("job_id", jobID).Str("task", description).Msg("audit task append failed")
	}
}

// recordJobUpdate applies the shared update semantics for both surfaces:
// persist the new summary, sign-off flag and status, then maintain the audit
// trail. Submission clears any outstanding "Complete Job" task before the
// completion entry is written.
func (a *App) recordJobUpdate(ctx context.Context, jobID int64, summary string, reviewed bool, status domain.JobStatus) (*domain.Job, error) {
	job, err := a.Store.UpdateJob(ctx, jobID, summary, reviewed, status)
	if err != nil {
		return nil, err
	}
	if status == domain.JobStatusSubmitted {
		if err := a.Store.DeleteTasksByDescription(ctx, jobID, taskCompleteJob); err != nil {
			a.Logger.Error().Err(err).Int64("job_id", jobID).Msg("clearing complete-job task failed")
		}
		a.audit(ctx, jobID, taskCompletedProgress)
	} else {
		a.audit(ctx, jobID, taskUpdatedProgress)
	}
	return job, nil
}

// recordAssetSave inserts or updates depending on whether the asset already
// carries an identifier, and writes the matching audit entry.
func (a *App) recordAssetSave(ctx context.Context, asset *domain.Asset) (*domain.Asset, error) {
	if asset.Saved() {
		stored, err := a.Store.UpdateAsset(ctx, asset)
		if err != nil {
			return nil, err
		}
		a.audit(ctx, stored.JobID, taskUpdatedAssetPrefix+stored.Name)
		return stored, nil
	}
	stored, err := a.Store.InsertAsset(ctx, asset)
	if err != nil {
		return nil, err
	}
	a.audit(ctx, stored.JobID, taskScannedAssetPrefix+stored.Name)
	return stored, nil
}
