// Package workflow implements the client-side orchestration above the capture
// sessions and the transport: asset identification, work-report submission and
// safety reporting.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/aegisfield/fieldops/internal/domain"
	"github.com/aegisfield/fieldops/internal/transport"
)

var (
	// ErrBusy rejects a transition while the current one is still pending.
	ErrBusy = errors.New("workflow: operation already in progress")
	// ErrNoPhotos guards identification: at least one captured photo must
	// exist before the AI collaborator is called.
	ErrNoPhotos = errors.New("workflow: add an image before identifying the asset")
	// ErrNoAsset rejects a persist when no asset has been identified or
	// loaded.
	ErrNoAsset = errors.New("workflow: no asset details to save")
)

// Display fallbacks applied to fields the AI response omits. The two longer
// strings are field-specific and preserved verbatim for behavioral parity
// with historical clients.
const (
	fallbackUnknown     = "Unknown"
	fallbackCondition   = "Condition not available"
	fallbackDescription = "Description not available"
)

// SurveyState enumerates the identification workflow states.
type SurveyState string

const (
	SurveyIdle        SurveyState = "idle"
	SurveyIdentifying SurveyState = "identifying"
	SurveyIdentified  SurveyState = "identified"
)

// PhotoCounter reports how many photos the bound capture session holds.
type PhotoCounter interface {
	Count() int
}

// Survey sequences the asset identification workflow: ensure at least one
// photo, call identify, merge the result into the editable asset form, and
// optionally persist with a user-chosen status.
type Survey struct {
	client transport.Client
	photos PhotoCounter
	logger zerolog.Logger
	jobID  int64

	mu    sync.Mutex
	state SurveyState
	asset *domain.Asset
}

// NewSurvey binds a survey workflow to a job, its photo session and a
// transport.
func NewSurvey(client transport.Client, photos PhotoCounter, jobID int64, logger zerolog.Logger) *Survey {
	return &Survey{
		client: client,
		photos: photos,
		logger: logger,
		jobID:  jobID,
		state:  SurveyIdle,
	}
}

// State returns the current workflow state.
func (s *Survey) State() SurveyState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Asset returns the editable asset form model, or nil before identification.
func (s *Survey) Asset() *domain.Asset {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.asset
}

// LoadExisting populates the form from a previously recorded asset, if any.
// Missing detail fields on a loaded record default to "Unknown".
func (s *Survey) LoadExisting(ctx context.Context) error {
	existing, err := s.client.GetAsset(ctx, s.jobID)
	if err != nil {
		s.logger.Error().Err(err).Int64("job_id", s.jobID).Msg("failed to fetch asset details")
		return err
	}
	if existing == nil {
		return nil
	}

	existing.Details.Category = orDefault(existing.Details.Category, fallbackUnknown)
	existing.Details.Condition = orDefault(existing.Details.Condition, fallbackUnknown)
	existing.Details.Description = orDefault(existing.Details.Description, fallbackUnknown)
	existing.Details.Manufacturer = orDefault(existing.Details.Manufacturer, fallbackUnknown)
	existing.Details.Model = orDefault(existing.Details.Model, fallbackUnknown)
	existing.Status = orDefault(existing.Status, fallbackUnknown)
	if existing.Details.Metadata == nil {
		existing.Details.Metadata = []string{}
	}

	s.mu.Lock()
	s.asset = existing
	s.state = SurveyIdentified
	s.mu.Unlock()
	return nil
}

// Identify calls the AI collaborator and merges the result into the form.
// Refused synchronously when no photo exists. Any failure, including the
// collaborator's "error" sentinel, leaves the existing form untouched and
// returns the workflow to its previous state.
func (s *Survey) Identify(ctx context.Context) error {
	s.mu.Lock()
	if s.state == SurveyIdentifying {
		s.mu.Unlock()
		return ErrBusy
	}
	if s.photos.Count() == 0 {
		s.mu.Unlock()
		return ErrNoPhotos
	}
	prev := s.state
	s.state = SurveyIdentifying
	s.mu.Unlock()

	fields, err := s.client.IdentifyAsset(ctx, s.jobID)
	if err != nil {
		s.logger.Error().Err(err).Int64("job_id", s.jobID).Msg("asset identification failed")
		s.mu.Lock()
		s.state = prev
		s.mu.Unlock()
		return err
	}

	asset := &domain.Asset{
		JobID:  s.jobID,
		Name:   orDefault(fields.Name, fallbackUnknown),
		Status: domain.AssetStatusIdentified,
		Details: domain.AssetDetails{
			Category:     orDefault(fields.Category, fallbackUnknown),
			Condition:    orDefault(fields.Condition, fallbackCondition),
			Description:  orDefault(fields.Description, fallbackDescription),
			Manufacturer: orDefault(fields.Manufacturer, fallbackUnknown),
			Model:        orDefault(fields.Model, fallbackUnknown),
			Metadata:     fields.Metadata,
		},
	}
	if asset.Details.Metadata == nil {
		asset.Details.Metadata = []string{}
	}

	s.mu.Lock()
	// A previously loaded record keeps its identifier so the persist becomes
	// an update instead of an insert.
	if s.asset != nil {
		asset.ID = s.asset.ID
	}
	s.asset = asset
	s.state = SurveyIdentified
	s.mu.Unlock()
	return nil
}

// Save persists the asset form with the chosen status: insert when the asset
// has no identifier, update otherwise. An empty status falls back to the
// status already on the asset.
func (s *Survey) Save(ctx context.Context, status string) error {
	s.mu.Lock()
	if s.state == SurveyIdentifying {
		s.mu.Unlock()
		return ErrBusy
	}
	if s.asset == nil {
		s.mu.Unlock()
		return ErrNoAsset
	}
	asset := *s.asset
	s.mu.Unlock()

	if status != "" {
		if !domain.ValidAssetStatus(status) {
			return fmt.Errorf("%w: asset status %q", domain.ErrInvalidStatus, status)
		}
		asset.Status = status
	}

	saved, err := s.client.SaveAsset(ctx, &asset)
	if err != nil {
		s.logger.Error().Err(err).Int64("job_id", s.jobID).Msg("failed to save asset details")
		return err
	}

	s.mu.Lock()
	s.asset = saved
	s.mu.Unlock()
	return nil
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
