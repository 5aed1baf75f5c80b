// Package transport is the single RPC channel between the client workflows
// and the backend. It normalizes the two historical transports (the action
// envelope posted to one endpoint, and the resource-route REST surface) into
// one contract so the rest of the application never sees envelope shapes.
package transport

import (
	"context"
	"fmt"

	"github.com/aegisfield/fieldops/internal/domain"
)

// Client is the contract both transports implement. Every call returns a
// typed error on failure; callers decide whether a failure is surfaced to the
// user or only logged.
type Client interface {
	GetJob(ctx context.Context, jobID int64) (*domain.Job, error)
	GetJobByCode(ctx context.Context, code string) (*domain.Job, error)

	GetImages(ctx context.Context, jobID int64, typ domain.ImageType) ([]domain.Image, error)
	AddImage(ctx context.Context, jobID int64, typ domain.ImageType, data string) (*domain.Image, error)
	DeleteImage(ctx context.Context, imageID int64) error

	GetVoiceNotes(ctx context.Context, jobID int64, typ domain.NoteType) ([]domain.VoiceNote, error)
	AddVoiceNote(ctx context.Context, jobID int64, typ domain.NoteType, data string) (*domain.VoiceNote, error)

	// GetAsset returns (nil, nil) when no asset has been recorded for the
	// job yet; errors are reserved for transport failures.
	GetAsset(ctx context.Context, jobID int64) (*domain.Asset, error)
	SaveAsset(ctx context.Context, asset *domain.Asset) (*domain.Asset, error)

	UpdateJob(ctx context.Context, update JobUpdate) error
	AddSafetyReport(ctx context.Context, jobID int64, description string) error

	IdentifyAsset(ctx context.Context, jobID int64) (*IdentifiedAsset, error)
	JobSummary(ctx context.Context, jobID int64, text string) (string, error)
}

// JobUpdate carries the mutable job fields for update_job. IsReviewedAccurate
// travels as 0/1 on the wire; the conversion happens inside the transports.
type JobUpdate struct {
	JobID              int64
	Summary            string
	IsReviewedAccurate bool
	Status             domain.JobStatus
}

// IdentifiedAsset is the structured record returned by the AI collaborator.
// Empty fields mean the collaborator omitted them; the survey workflow applies
// the display defaults, not the transport.
type IdentifiedAsset struct {
	Name         string   `json:"name"`
	Category     string   `json:"category"`
	Condition    string   `json:"asset_condition"`
	Description  string   `json:"description"`
	Manufacturer string   `json:"manufacturer"`
	Model        string   `json:"model"`
	Metadata     []string `json:"metadata"`
}

// ErrNotIdentified is returned when the collaborator answers with its literal
// "error" sentinel: it could not identify a single item from the images.
var ErrNotIdentified = &Error{Op: "identify_asset", Message: "cannot identify item"}

// Error is the normalized transport failure: network errors, non-2xx
// responses and application errors embedded in 200 bodies all end up here.
type Error struct {
	Op      string
	Status  int
	Message string
}

func (e *Error) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("transport: %s: status %d: %s", e.Op, e.Status, e.Message)
	}
	return fmt.Sprintf("transport: %s: %s", e.Op, e.Message)
}
