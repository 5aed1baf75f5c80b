package domain

import (
	"fmt"
	"time"
)

// JobStatus enumerates job workflow states. Historical clients used a few ad
// hoc strings on top of these; ParseJobStatus rejects anything outside the
// closed set so that variant vocabularies surface as configuration errors
// instead of being silently stored.
type JobStatus string

const (
	JobStatusPending   JobStatus = "pending"
	JobStatusDraft     JobStatus = "draft"
	JobStatusSubmitted JobStatus = "submitted"
)

// ParseJobStatus maps a wire string onto the closed status enum.
func ParseJobStatus(s string) (JobStatus, error) {
	switch JobStatus(s) {
	case JobStatusPending, JobStatusDraft, JobStatusSubmitted:
		return JobStatus(s), nil
	}
	return "", fmt.Errorf("%w: job status %q", ErrInvalidStatus, s)
}

// Job is a unit of field work tracked through description, status and summary.
type Job struct {
	ID                 int64
	Code               string
	Description        string
	Status             JobStatus
	Summary            string
	IsReviewedAccurate bool
	Tasks              []Task
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// Task is an audit trail entry appended by server-side mutations. Clients
// never construct task descriptions, they only display them.
type Task struct {
	ID          int64
	JobID       int64
	Description string
	Status      string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

const (
	TaskStatusPending   = "pending"
	TaskStatusCompleted = "completed"
)
