package server

import (
	"time"

	"github.com/aegisfield/fieldops/internal/domain"
)

// Wire views of the stored records. IsReviewedAccurate travels as 0/1 to stay
// compatible with the historical clients.

type jobView struct {
	JobID              int64      `json:"job_id"`
	JobCode            string     `json:"job_code"`
	Description        string     `json:"description"`
	Status             string     `json:"status"`
	Summary            string     `json:"summary"`
	IsReviewedAccurate int        `json:"is_reviewed_accurate"`
	Tasks              []taskView `json:"tasks,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

type taskView struct {
	TaskID          int64     `json:"task_id"`
	JobID           int64     `json:"job_id"`
	TaskDescription string    `json:"task_description"`
	Status          string    `json:"status"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

type imageView struct {
	ImageID   int64     `json:"image_id"`
	JobID     int64     `json:"job_id"`
	ImageData string    `json:"image_data"`
	Type      string    `json:"type"`
	CreatedAt time.Time `json:"created_at"`
}

type voiceNoteView struct {
	NoteID        int64     `json:"note_id"`
	JobID         int64     `json:"job_id"`
	VoiceNoteBlob string    `json:"voice_note_blob"`
	Type          string    `json:"type"`
	CreatedAt     time.Time `json:"created_at"`
}

type assetView struct {
	AssetID   int64               `json:"asset_id"`
	JobID     int64               `json:"job_id"`
	Name      string              `json:"name"`
	Status    string              `json:"status"`
	Details   domain.AssetDetails `json:"details"`
	CreatedAt time.Time           `json:"created_at"`
	UpdatedAt time.Time           `json:"updated_at"`
}

func viewJob(job *domain.Job) jobView {
	reviewed := 0
	if job.IsReviewedAccurate {
		reviewed = 1
	}
	v := jobView{
		JobID:              job.ID,
		JobCode:            job.Code,
		Description:        job.Description,
		Status:             string(job.Status),
		Summary:            job.Summary,
		IsReviewedAccurate: reviewed,
		CreatedAt:          job.CreatedAt,
		UpdatedAt:          job.UpdatedAt,
	}
	for _, t := range job.Tasks {
		v.Tasks = append(v.Tasks, taskView{
			TaskID:          t.ID,
			JobID:           t.JobID,
			TaskDescription: t.Description,
			Status:          t.Status,
			CreatedAt:       t.CreatedAt,
			UpdatedAt:       t.UpdatedAt,
		})
	}
	return v
}

func viewJobs(jobs []domain.Job) []jobView {
	views := make([]jobView, 0, len(jobs))
	for i := range jobs {
		views = append(views, viewJob(&jobs[i]))
	}
	return views
}

func viewImage(img *domain.Image) imageView {
	return imageView{
		ImageID:   img.ID,
		JobID:     img.JobID,
		ImageData: img.Data,
		Type:      string(img.Type),
		CreatedAt: img.CreatedAt,
	}
}

func viewImages(images []domain.Image) []imageView {
	views := make([]imageView, 0, len(images))
	for i := range images {
		views = append(views, viewImage(&images[i]))
	}
	return views
}

func viewVoiceNote(note *domain.VoiceNote) voiceNoteView {
	return voiceNoteView{
		NoteID:        note.ID,
		JobID:         note.JobID,
		VoiceNoteBlob: note.Data,
		Type:          string(note.Type),
		CreatedAt:     note.CreatedAt,
	}
}

func viewVoiceNotes(notes []domain.VoiceNote) []voiceNoteView {
	views := make([]voiceNoteView, 0, len(notes))
	for i := range notes {
		views = append(views, viewVoiceNote(&notes[i]))
	}
	return views
}

func viewAsset(asset *domain.Asset) assetView {
	return assetView{
		AssetID:   asset.ID,
		JobID:     asset.JobID,
		Name:      asset.Name,
		Status:    asset.Status,
		Details:   asset.Details,
		CreatedAt: asset.CreatedAt,
		UpdatedAt: asset.UpdatedAt,
	}
}
