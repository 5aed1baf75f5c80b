// Package postgres implements the store contract on PostgreSQL via pgx,
// wiring together queries and database migrations (via goose).
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/aegisfield/fieldops/internal/domain"
	"github.com/aegisfield/fieldops/internal/store"
	"github.com/aegisfield/fieldops/internal/store/postgres/migrations"
)

// Store implements store.Store backed by a pgx connection pool.
type Store struct {
	pool *pgxpool.Pool
}

// New creates a store over an existing pool.
func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

var _ store.Store = (*Store)(nil)

// RunMigrations sets up goose with the embedded migrations and applies them.
// goose drives a database/sql connection, so a short-lived one is opened via
// the pgx stdlib driver.
func RunMigrations(ctx context.Context, databaseURL string) error {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return fmt.Errorf("open migration connection: %w", err)
	}
	defer db.Close()

	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}
	if err := goose.UpContext(ctx, db, "."); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}

func (s *Store) CreateJob(ctx context.Context, job *domain.Job) (*domain.Job, error) {
	query := `
INSERT INTO jobs (job_code, description, status, summary, is_reviewed_accurate)
VALUES ($1, $2, $3, $4, $5)
RETURNING job_id, job_code, description, status, summary, is_reviewed_accurate, created_at, updated_at;
`
	row := s.pool.QueryRow(ctx, query, job.Code, job.Description, job.Status, job.Summary, job.IsReviewedAccurate)
	return scanJob(row)
}

func scanJob(row pgx.Row) (*domain.Job, error) {
	var job domain.Job
	var status string
	if err := row.Scan(
		&job.ID,
		&job.Code,
		&job.Description,
		&status,
		&job.Summary,
		&job.IsReviewedAccurate,
		&job.CreatedAt,
		&job.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	parsed, err := domain.ParseJobStatus(status)
	if err != nil {
		return nil, err
	}
	job.Status = parsed
	return &job, nil
}

func (s *Store) GetJob(ctx context.Context, jobID int64) (*domain.Job, error) {
	query := `
SELECT job_id, job_code, description, status, summary, is_reviewed_accurate, created_at, updated_at
FROM jobs
WHERE job_id = $1;
`
	job, err := scanJob(s.pool.QueryRow(ctx, query, jobID))
	if err != nil {
		return nil, err
	}
	tasks, err := s.ListTasks(ctx, jobID)
	if err != nil {
		return nil, err
	}
	job.Tasks = tasks
	return job, nil
}

func (s *Store) GetJobByCode(ctx context.Context, code string) (*domain.Job, error) {
	query := `
SELECT job_id, job_code, description, status, summary, is_reviewed_accurate, created_at, updated_at
FROM jobs
WHERE job_code = $1;
`
	job, err := scanJob(s.pool.QueryRow(ctx, query, code))
	if err != nil {
		return nil, err
	}
	tasks, err := s.ListTasks(ctx, job.ID)
	if err != nil {
		return nil, err
	}
	job.Tasks = tasks
	return job, nil
}

func (s *Store) ListJobs(ctx context.Context) ([]domain.Job, error) {
	query := `
SELECT job_id, job_code, description, status, summary, is_reviewed_accurate, created_at, updated_at
FROM jobs
ORDER BY created_at DESC;
`
	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var jobs []domain.Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, *job)
	}
	return jobs, rows.Err()
}

func (s *Store) UpdateJob(ctx context.Context, jobID int64, summary string, reviewed bool, status domain.JobStatus) (*domain.Job, error) {
	query := `
UPDATE jobs
SET summary = $2,
    is_reviewed_accurate = $3,
    status = $4,
    updated_at = NOW()
WHERE job_id = $1
RETURNING job_id, job_code, description, status, summary, is_reviewed_accurate, created_at, updated_at;
`
	return scanJob(s.pool.QueryRow(ctx, query, jobID, summary, reviewed, status))
}

func (s *Store) AppendTask(ctx context.Context, jobID int64, description, status string) (*domain.Task, error) {
	query := `
INSERT INTO tasks (job_id, task_description, status)
VALUES ($1, $2, $3)
RETURNING task_id, job_id, task_description, status, created_at, updated_at;
`
	var task domain.Task
	if err := s.pool.QueryRow(ctx, query, jobID, description, status).Scan(
		&task.ID,
		&task.JobID,
		&task.Description,
		&task.Status,
		&task.CreatedAt,
		&task.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &task, nil
}

func (s *Store) DeleteTasksByDescription(ctx context.Context, jobID int64, description string) error {
	query := `DELETE FROM tasks WHERE job_id = $1 AND task_description = $2;`
	_, err := s.pool.Exec(ctx, query, jobID, description)
	return err
}

func (s *Store) ListTasks(ctx context.Context, jobID int64) ([]domain.Task, error) {
	query := `
SELECT task_id, job_id, task_description, status, created_at, updated_at
FROM tasks
WHERE job_id = $1
ORDER BY task_id;
`
	rows, err := s.pool.Query(ctx, query, jobID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tasks []domain.Task
	for rows.Next() {
		var task domain.Task
		if err := rows.Scan(&task.ID, &task.JobID, &task.Description, &task.Status, &task.CreatedAt, &task.UpdatedAt); err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}
	return tasks, rows.Err()
}

func (s *Store) AddImage(ctx context.Context, img *domain.Image) (*domain.Image, error) {
	query := `
INSERT INTO job_images (job_id, type, image_data)
VALUES ($1, $2, $3)
RETURNING image_id, job_id, type, image_data, created_at;
`
	return scanImage(s.pool.QueryRow(ctx, query, img.JobID, img.Type, img.Data))
}

func scanImage(row pgx.Row) (*domain.Image, error) {
	var img domain.Image
	if err := row.Scan(&img.ID, &img.JobID, &img.Type, &img.Data, &img.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &img, nil
}

func (s *Store) ListImages(ctx context.Context, jobID int64, typ domain.ImageType) ([]domain.Image, error) {
	query := `
SELECT image_id, job_id, type, image_data, created_at
FROM job_images
WHERE job_id = $1 AND type = $2
ORDER BY image_id;
`
	return s.listImages(ctx, query, jobID, typ)
}

func (s *Store) ListJobImages(ctx context.Context, jobID int64) ([]domain.Image, error) {
	query := `
SELECT image_id, job_id, type, image_data, created_at
FROM job_images
WHERE job_id = $1
ORDER BY image_id;
`
	return s.listImages(ctx, query, jobID)
}

func (s *Store) listImages(ctx context.Context, query string, args ...any) ([]domain.Image, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var images []domain.Image
	for rows.Next() {
		img, err := scanImage(rows)
		if err != nil {
			return nil, err
		}
		images = append(images, *img)
	}
	return images, rows.Err()
}

func (s *Store) DeleteImage(ctx context.Context, imageID int64) error {
	query := `DELETE FROM job_images WHERE image_id = $1;`
	tag, err := s.pool.Exec(ctx, query, imageID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (s *Store) AddVoiceNote(ctx context.Context, note *domain.VoiceNote) (*domain.VoiceNote, error) {
	query := `
INSERT INTO job_voice_notes (job_id, type, voice_note_blob)
VALUES ($1, $2, $3)
RETURNING note_id, job_id, type, voice_note_blob, created_at;
`
	var stored domain.VoiceNote
	if err := s.pool.QueryRow(ctx, query, note.JobID, note.Type, note.Data).Scan(
		&stored.ID,
		&stored.JobID,
		&stored.Type,
		&stored.Data,
		&stored.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &stored, nil
}

func (s *Store) ListVoiceNotes(ctx context.Context, jobID int64, typ domain.NoteType) ([]domain.VoiceNote, error) {
	query := `
SELECT note_id, job_id, type, voice_note_blob, created_at
FROM job_voice_notes
WHERE job_id = $1 AND type = $2
ORDER BY note_id;
`
	rows, err := s.pool.Query(ctx, query, jobID, typ)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var notes []domain.VoiceNote
	for rows.Next() {
		var note domain.VoiceNote
		if err := rows.Scan(&note.ID, &note.JobID, &note.Type, &note.Data, &note.CreatedAt); err != nil {
			return nil, err
		}
		notes = append(notes, note)
	}
	return notes, rows.Err()
}

func (s *Store) GetAsset(ctx context.Context, jobID int64) (*domain.Asset, error) {
	query := `
SELECT asset_id, job_id, name, status, details, created_at, updated_at
FROM assets
WHERE job_id = $1
ORDER BY created_at DESC
LIMIT 1;
`
	return scanAsset(s.pool.QueryRow(ctx, query, jobID))
}

func scanAsset(row pgx.Row) (*domain.Asset, error) {
	var asset domain.Asset
	if err := row.Scan(
		&asset.ID,
		&asset.JobID,
		&asset.Name,
		&asset.Status,
		&asset.Details,
		&asset.CreatedAt,
		&asset.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &asset, nil
}

func (s *Store) InsertAsset(ctx context.Context, asset *domain.Asset) (*domain.Asset, error) {
	query := `
INSERT INTO assets (job_id, name, status, details)
VALUES ($1, $2, $3, $4)
RETURNING asset_id, job_id, name, status, details, created_at, updated_at;
`
	return scanAsset(s.pool.QueryRow(ctx, query, asset.JobID, asset.Name, asset.Status, asset.Details))
}

func (s *Store) UpdateAsset(ctx context.Context, asset *domain.Asset) (*domain.Asset, error) {
	query := `
UPDATE assets
SET name = $3,
    status = $4,
    details = $5,
    updated_at = NOW()
WHERE asset_id = $1 AND job_id = $2
RETURNING asset_id, job_id, name, status, details, created_at, updated_at;
`
	return scanAsset(s.pool.QueryRow(ctx, query, asset.ID, asset.JobID, asset.Name, asset.Status, asset.Details))
}

func (s *Store) AddSafetyReport(ctx context.Context, report *domain.SafetyReport) (*domain.SafetyReport, error) {
	query := `
INSERT INTO safety_reports (job_id, description)
VALUES ($1, $2)
RETURNING report_id, job_id, description, created_at;
`
	var stored domain.SafetyReport
	if err := s.pool.QueryRow(ctx, query, report.JobID, report.Description).Scan(
		&stored.ID,
		&stored.JobID,
		&stored.Description,
		&stored.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &stored, nil
}
