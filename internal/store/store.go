// Package store defines the persistence contract the backend serves both
// transports from, with a file-backed implementation for development and a
// PostgreSQL implementation for production.
package store

import (
	"context"

	"github.com/aegisfield/fieldops/internal/domain"
)

// JobStore persists jobs and their audit tasks.
type JobStore interface {
	CreateJob(ctx context.Context, job *domain.Job) (*domain.Job, error)
	GetJob(ctx context.Context, jobID int64) (*domain.Job, error)
	GetJobByCode(ctx context.Context, code string) (*domain.Job, error)
	ListJobs(ctx context.Context) ([]domain.Job, error)
	// UpdateJob writes summary, sign-off flag and status, returning the
	// updated record.
	UpdateJob(ctx context.Context, jobID int64, summary string, reviewed bool, status domain.JobStatus) (*domain.Job, error)

	AppendTask(ctx context.Context, jobID int64, description, status string) (*domain.Task, error)
	DeleteTasksByDescription(ctx context.Context, jobID int64, description string) error
	ListTasks(ctx context.Context, jobID int64) ([]domain.Task, error)
}

// MediaStore persists captured images and voice notes.
type MediaStore interface {
	AddImage(ctx context.Context, img *domain.Image) (*domain.Image, error)
	ListImages(ctx context.Context, jobID int64, typ domain.ImageType) ([]domain.Image, error)
	// ListJobImages returns every image for a job regardless of type, in
	// capture order. Used by the AI endpoint.
	ListJobImages(ctx context.Context, jobID int64) ([]domain.Image, error)
	DeleteImage(ctx context.Context, imageID int64) error

	AddVoiceNote(ctx context.Context, note *domain.VoiceNote) (*domain.VoiceNote, error)
	ListVoiceNotes(ctx context.Context, jobID int64, typ domain.NoteType) ([]domain.VoiceNote, error)
}

// AssetStore persists surveyed assets, the latest one per job being the
// record of interest.
type AssetStore interface {
	GetAsset(ctx context.Context, jobID int64) (*domain.Asset, error)
	InsertAsset(ctx context.Context, asset *domain.Asset) (*domain.Asset, error)
	UpdateAsset(ctx context.Context, asset *domain.Asset) (*domain.Asset, error)
}

// SafetyStore persists safety reports. Write-only from the client.
type SafetyStore interface {
	AddSafetyReport(ctx context.Context, report *domain.SafetyReport) (*domain.SafetyReport, error)
}

// Store aggregates the per-entity contracts.
type Store interface {
	JobStore
	MediaStore
	AssetStore
	SafetyStore
}
