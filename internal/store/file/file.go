// Package file implements the store contract on top of a single JSON state
// file. It is intended for development and test environments where a
// database is not available.
package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/aegisfield/fieldops/internal/domain"
	"github.com/aegisfield/fieldops/internal/store"
)

const stateFileName = "fieldops.json"

// Store persists all records in one JSON file guarded by a mutex. Every
// mutation is written through before it is acknowledged.
type Store struct {
	path string

	mu    sync.Mutex
	state state
}

type state struct {
	Seq           map[string]int64      `json:"seq"`
	Jobs          []domain.Job          `json:"jobs"`
	Tasks         []domain.Task         `json:"tasks"`
	Images        []domain.Image        `json:"images"`
	VoiceNotes    []domain.VoiceNote    `json:"voice_notes"`
	Assets        []domain.Asset        `json:"assets"`
	SafetyReports []domain.SafetyReport `json:"safety_reports"`
}

// New opens (or initializes) a file store rooted at basePath.
func New(basePath string) (*Store, error) {
	if basePath == "" {
		return nil, errors.New("filestore: base path is required")
	}
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("filestore: ensure base path: %w", err)
	}

	s := &Store{
		path:  filepath.Join(basePath, stateFileName),
		state: state{Seq: map[string]int64{}},
	}
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("filestore: read state: %w", err)
		}
		return s, nil
	}
	if err := json.Unmarshal(data, &s.state); err != nil {
		return nil, fmt.Errorf("filestore: decode state: %w", err)
	}
	if s.state.Seq == nil {
		s.state.Seq = map[string]int64{}
	}
	return s, nil
}

var _ store.Store = (*Store)(nil)

// persist writes the state through. Callers hold the mutex.
func (s *Store) persist() error {
	data, err := json.MarshalIndent(s.state, "", "  ")
	if err != nil {
		return fmt.Errorf("filestore: encode state: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("filestore: write state: %w", err)
	}
	return nil
}

// nextID hands out per-entity identifiers. Callers hold the mutex.
func (s *Store) nextID(entity string) int64 {
	s.state.Seq[entity]++
	return s.state.Seq[entity]
}

func (s *Store) CreateJob(ctx context.Context, job *domain.Job) (*domain.Job, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	created := *job
	created.ID = s.nextID("job")
	created.CreatedAt = time.Now().UTC()
	created.UpdatedAt = created.CreatedAt
	created.Tasks = nil
	s.state.Jobs = append(s.state.Jobs, created)
	if err := s.persist(); err != nil {
		return nil, err
	}
	return &created, nil
}

func (s *Store) GetJob(ctx context.Context, jobID int64) (*domain.Job, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.findJob(jobID)
}

// findJob returns a copy with its tasks attached. Callers hold the mutex.
func (s *Store) findJob(jobID int64) (*domain.Job, error) {
	for _, job := range s.state.Jobs {
		if job.ID == jobID {
			out := job
			out.Tasks = s.tasksFor(jobID)
			return &out, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (s *Store) tasksFor(jobID int64) []domain.Task {
	var tasks []domain.Task
	for _, t := range s.state.Tasks {
		if t.JobID == jobID {
			tasks = append(tasks, t)
		}
	}
	return tasks
}

func (s *Store) GetJobByCode(ctx context.Context, code string) (*domain.Job, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, job := range s.state.Jobs {
		if job.Code == code {
			out := job
			out.Tasks = s.tasksFor(job.ID)
			return &out, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (s *Store) ListJobs(ctx context.Context) ([]domain.Job, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	jobs := make([]domain.Job, len(s.state.Jobs))
	copy(jobs, s.state.Jobs)
	// Newest first, matching the backend's job listing.
	sort.SliceStable(jobs, func(i, j int) bool {
		return jobs[i].CreatedAt.After(jobs[j].CreatedAt)
	})
	return jobs, nil
}

func (s *Store) UpdateJob(ctx context.Context, jobID int64, summary string, reviewed bool, status domain.JobStatus) (*domain.Job, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.state.Jobs {
		if s.state.Jobs[i].ID == jobID {
			s.state.Jobs[i].Summary = summary
			s.state.Jobs[i].IsReviewedAccurate = reviewed
			s.state.Jobs[i].Status = status
			s.state.Jobs[i].UpdatedAt = time.Now().UTC()
			if err := s.persist(); err != nil {
				return nil, err
			}
			out := s.state.Jobs[i]
			out.Tasks = s.tasksFor(jobID)
			return &out, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (s *Store) AppendTask(ctx context.Context, jobID int64, description, status string) (*domain.Task, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	task := domain.Task{
		ID:          s.nextID("task"),
		JobID:       jobID,
		Description: description,
		Status:      status,
		CreatedAt:   time.Now().UTC(),
	}
	task.UpdatedAt = task.CreatedAt
	s.state.Tasks = append(s.state.Tasks, task)
	if err := s.persist(); err != nil {
		return nil, err
	}
	return &task, nil
}

func (s *Store) DeleteTasksByDescription(ctx context.Context, jobID int64, description string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.state.Tasks[:0]
	for _, t := range s.state.Tasks {
		if t.JobID == jobID && t.Description == description {
			continue
		}
		kept = append(kept, t)
	}
	s.state.Tasks = kept
	return s.persist()
}

func (s *Store) ListTasks(ctx context.Context, jobID int64) ([]domain.Task, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tasksFor(jobID), nil
}

func (s *Store) AddImage(ctx context.Context, img *domain.Image) (*domain.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := *img
	stored.ID = s.nextID("image")
	stored.CreatedAt = time.Now().UTC()
	s.state.Images = append(s.state.Images, stored)
	if err := s.persist(); err != nil {
		return nil, err
	}
	return &stored, nil
}

func (s *Store) ListImages(ctx context.Context, jobID int64, typ domain.ImageType) ([]domain.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	var images []domain.Image
	for _, img := range s.state.Images {
		if img.JobID == jobID && img.Type == typ {
			images = append(images, img)
		}
	}
	return images, nil
}

func (s *Store) ListJobImages(ctx context.Context, jobID int64) ([]domain.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	var images []domain.Image
	for _, img := range s.state.Images {
		if img.JobID == jobID {
			images = append(images, img)
		}
	}
	return images, nil
}

func (s *Store) DeleteImage(ctx context.Context, imageID int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, img := range s.state.Images {
		if img.ID == imageID {
			s.state.Images = append(s.state.Images[:i], s.state.Images[i+1:]...)
			return s.persist()
		}
	}
	return domain.ErrNotFound
}

func (s *Store) AddVoiceNote(ctx context.Context, note *domain.VoiceNote) (*domain.VoiceNote, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := *note
	stored.ID = s.nextID("voice_note")
	stored.CreatedAt = time.Now().UTC()
	s.state.VoiceNotes = append(s.state.VoiceNotes, stored)
	if err := s.persist(); err != nil {
		return nil, err
	}
	return &stored, nil
}

func (s *Store) ListVoiceNotes(ctx context.Context, jobID int64, typ domain.NoteType) ([]domain.VoiceNote, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	var notes []domain.VoiceNote
	for _, note := range s.state.VoiceNotes {
		if note.JobID == jobID && note.Type == typ {
			notes = append(notes, note)
		}
	}
	return notes, nil
}

func (s *Store) GetAsset(ctx context.Context, jobID int64) (*domain.Asset, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	// Latest asset for the job wins.
	var latest *domain.Asset
	for i := range s.state.Assets {
		a := &s.state.Assets[i]
		if a.JobID != jobID {
			continue
		}
		if latest == nil || a.CreatedAt.After(latest.CreatedAt) {
			latest = a
		}
	}
	if latest == nil {
		return nil, domain.ErrNotFound
	}
	out := *latest
	return &out, nil
}

func (s *Store) InsertAsset(ctx context.Context, asset *domain.Asset) (*domain.Asset, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := *asset
	stored.ID = s.nextID("asset")
	stored.CreatedAt = time.Now().UTC()
	stored.UpdatedAt = stored.CreatedAt
	s.state.Assets = append(s.state.Assets, stored)
	if err := s.persist(); err != nil {
		return nil, err
	}
	return &stored, nil
}

func (s *Store) UpdateAsset(ctx context.Context, asset *domain.Asset) (*domain.Asset, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.state.Assets {
		if s.state.Assets[i].ID == asset.ID && s.state.Assets[i].JobID == asset.JobID {
			s.state.Assets[i].Name = asset.Name
			s.state.Assets[i].Status = asset.Status
			s.state.Assets[i].Details = asset.Details
			s.state.Assets[i].UpdatedAt = time.Now().UTC()
			if err := s.persist(); err != nil {
				return nil, err
			}
			out := s.state.Assets[i]
			return &out, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (s *Store) AddSafetyReport(ctx context.Context, report *domain.SafetyReport) (*domain.SafetyReport, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := *report
	stored.ID = s.nextID("safety_report")
	stored.CreatedAt = time.Now().UTC()
	s.state.SafetyReports = append(s.state.SafetyReports, stored)
	if err := s.persist(); err != nil {
		return nil, err
	}
	return &stored, nil
}
