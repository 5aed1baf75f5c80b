package workflow

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"

	"github.com/aegisfield/fieldops/internal/transport"
)

// ErrDescriptionRequired rejects a safety report with no description before
// any network call.
var ErrDescriptionRequired = errors.New("workflow: description is required to submit the safety report")

// Safety files a write-only hazard report for a job. A description and at
// least one captured safety photo are required.
type Safety struct {
	client transport.Client
	photos PhotoCounter
	logger zerolog.Logger
	jobID  int64

	mu      sync.Mutex
	pending bool
}

// NewSafety binds the safety workflow to a job and its photo session.
func NewSafety(client transport.Client, photos PhotoCounter, jobID int64, logger zerolog.Logger) *Safety {
	return &Safety{client: client, photos: photos, logger: logger, jobID: jobID}
}

// Submit validates synchronously and files the report.
func (s *Safety) Submit(ctx context.Context, description string) error {
	if description == "" {
		return ErrDescriptionRequired
	}
	if s.photos.Count() == 0 {
		return ErrNoPhotos
	}

	s.mu.Lock()
	if s.pending {
		s.mu.Unlock()
		return ErrBusy
	}
	s.pending = true
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.pending = false
		s.mu.Unlock()
	}()

	if err := s.client.AddSafetyReport(ctx, s.jobID, description); err != nil {
		s.logger.Error().Err(err).Int64("job_id", s.jobID).Msg("failed to submit safety report")
		return err
	}
	return nil
}
