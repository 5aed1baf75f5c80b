package workflow

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"

	"github.com/aegisfield/fieldops/internal/domain"
	"github.com/aegisfield/fieldops/internal/transport"
)

var (
	// ErrSignOffRequired rejects a submit when the sign-off box is unchecked.
	// No network call is made.
	ErrSignOffRequired = errors.New("workflow: confirm the report is accurate by checking the sign-off box")
	// ErrNoJob rejects report actions before a job is loaded.
	ErrNoJob = errors.New("workflow: no job loaded")
	// ErrNoDescription guards summary generation: the job needs a
	// description to summarize against.
	ErrNoDescription = errors.New("workflow: no description available for the job")
)

// Navigator is the navigation primitive invoked after a successful submit.
type Navigator interface {
	NavigateToJobList()
}

// NavigatorFunc adapts a function to the Navigator interface.
type NavigatorFunc func()

func (f NavigatorFunc) NavigateToJobList() { f() }

// Report aggregates summary text and the sign-off flag for one job and
// drives the two submission actions. Submit-with-sign-off is the only path
// that can move a job to the submitted status; Save Draft always preserves
// the job's pre-existing status verbatim.
type Report struct {
	client transport.Client
	nav    Navigator
	logger zerolog.Logger

	mu        sync.Mutex
	pending   bool
	job       *domain.Job
	summary   string
	signedOff bool
}

// NewReport binds the report workflow to a loaded job.
func NewReport(client transport.Client, job *domain.Job, nav Navigator, logger zerolog.Logger) *Report {
	r := &Report{client: client, nav: nav, logger: logger, job: job}
	if job != nil {
		r.summary = job.Summary
	}
	return r
}

// SetSummary updates the working summary text.
func (r *Report) SetSummary(text string) {
	r.mu.Lock()
	r.summary = text
	r.mu.Unlock()
}

// Summary returns the working summary text.
func (r *Report) Summary() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.summary
}

// SetSignOff records the user's accuracy attestation.
func (r *Report) SetSignOff(v bool) {
	r.mu.Lock()
	r.signedOff = v
	r.mu.Unlock()
}

func (r *Report) begin() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.pending {
		return ErrBusy
	}
	if r.job == nil {
		return ErrNoJob
	}
	r.pending = true
	return nil
}

func (r *Report) end() {
	r.mu.Lock()
	r.pending = false
	r.mu.Unlock()
}

// SaveDraft sends the summary and sign-off flag with the job's current
// status unchanged. Always allowed; no navigation side effect.
func (r *Report) SaveDraft(ctx context.Context) error {
	if err := r.begin(); err != nil {
		return err
	}
	defer r.end()

	r.mu.Lock()
	update := transport.JobUpdate{
		JobID:              r.job.ID,
		Summary:            r.summary,
		IsReviewedAccurate: r.signedOff,
		Status:             r.job.Status,
	}
	r.mu.Unlock()

	if err := r.client.UpdateJob(ctx, update); err != nil {
		r.logger.Error().Err(err).Int64("job_id", update.JobID).Msg("failed to save draft")
		return err
	}

	r.mu.Lock()
	r.job.Summary = update.Summary
	r.job.IsReviewedAccurate = update.IsReviewedAccurate
	r.mu.Unlock()
	return nil
}

// Submit is gated on the sign-off flag; when unset it is refused before any
// network call. When set it forces the status to submitted and, on success,
// navigates back to the job list.
func (r *Report) Submit(ctx context.Context) error {
	r.mu.Lock()
	signedOff := r.signedOff
	r.mu.Unlock()
	if !signedOff {
		return ErrSignOffRequired
	}

	if err := r.begin(); err != nil {
		return err
	}
	defer r.end()

	r.mu.Lock()
	update := transport.JobUpdate{
		JobID:              r.job.ID,
		Summary:            r.summary,
		IsReviewedAccurate: true,
		Status:             domain.JobStatusSubmitted,
	}
	r.mu.Unlock()

	if err := r.client.UpdateJob(ctx, update); err != nil {
		r.logger.Error().Err(err).Int64("job_id", update.JobID).Msg("failed to submit report")
		return err
	}

	r.mu.Lock()
	r.job.Summary = update.Summary
	r.job.IsReviewedAccurate = true
	r.job.Status = domain.JobStatusSubmitted
	r.mu.Unlock()

	if r.nav != nil {
		r.nav.NavigateToJobList()
	}
	return nil
}

// GenerateSummary asks the AI collaborator for a work summary based on the
// job's photos and description. On failure the working summary is left
// untouched.
func (r *Report) GenerateSummary(ctx context.Context) error {
	if err := r.begin(); err != nil {
		return err
	}
	defer r.end()

	r.mu.Lock()
	jobID := r.job.ID
	description := r.job.Description
	r.mu.Unlock()
	if description == "" {
		return ErrNoDescription
	}

	summary, err := r.client.JobSummary(ctx, jobID, description)
	if err != nil {
		r.logger.Error().Err(err).Int64("job_id", jobID).Msg("failed to generate summary")
		return err
	}

	r.mu.Lock()
	r.summary = summary
	r.mu.Unlock()
	return nil
}
