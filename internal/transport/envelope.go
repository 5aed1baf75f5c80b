package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/aegisfield/fieldops/internal/domain"
)

// Envelope talks to the hosted backend using the historical action-envelope
// shape: every data operation is a POST of {"action": {"operation": ..}} to
// /db, and AI operations go to /ai the same way.
type Envelope struct {
	baseURL    string
	orgID      string
	httpClient *http.Client
	logger     zerolog.Logger
}

// EnvelopeOptions configures the envelope transport.
type EnvelopeOptions struct {
	BaseURL        string
	OrganisationID string
	HTTPClient     *http.Client
	Logger         zerolog.Logger
}

// NewEnvelope constructs the envelope transport. A nil HTTP client gets a
// reusable one with a sane timeout.
func NewEnvelope(opts EnvelopeOptions) *Envelope {
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 60 * time.Second}
	}
	return &Envelope{
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		orgID:      opts.OrganisationID,
		httpClient: client,
		logger:     opts.Logger,
	}
}

var _ Client = (*Envelope)(nil)

type envelopeResponse struct {
	StatusCode int          `json:"statusCode"`
	Body       envelopeBody `json:"body"`
}

type envelopeBody struct {
	Record  json.RawMessage `json:"record,omitempty"`
	Records json.RawMessage `json:"records,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
	Error   string          `json:"error,omitempty"`
	Message string          `json:"message,omitempty"`
}

// invoke posts one action envelope and normalizes every failure shape into a
// *Error: network errors, non-2xx responses, statusCode != 200 inside a 200,
// and a non-empty body.error.
func (e *Envelope) invoke(ctx context.Context, path, op string, params map[string]any) (*envelopeBody, error) {
	action := map[string]any{"operation": op}
	for k, v := range params {
		action[k] = v
	}
	payload, err := json.Marshal(map[string]any{"action": action})
	if err != nil {
		return nil, &Error{Op: op, Message: fmt.Sprintf("marshal request: %v", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return nil, &Error{Op: op, Message: fmt.Sprintf("create request: %v", err)}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, &Error{Op: op, Message: err.Error()}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &Error{Op: op, Status: resp.StatusCode, Message: err.Error()}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := strings.TrimSpace(string(raw))
		var env envelopeResponse
		if json.Unmarshal(raw, &env) == nil && env.Body.Error != "" {
			msg = env.Body.Error
		}
		e.logger.Error().Str("operation", op).Int("status", resp.StatusCode).Msg("envelope call failed")
		return nil, &Error{Op: op, Status: resp.StatusCode, Message: msg}
	}

	var env envelopeResponse
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, &Error{Op: op, Status: resp.StatusCode, Message: fmt.Sprintf("decode response: %v", err)}
	}
	if env.Body.Error != "" {
		e.logger.Error().Str("operation", op).Str("error", env.Body.Error).Msg("envelope call returned error body")
		return nil, &Error{Op: op, Status: env.StatusCode, Message: env.Body.Error}
	}
	if env.StatusCode != 0 && env.StatusCode != http.StatusOK {
		return nil, &Error{Op: op, Status: env.StatusCode, Message: "operation failed"}
	}
	return &env.Body, nil
}

type jobRecord struct {
	JobID              int64        `json:"job_id"`
	JobCode            string       `json:"job_code"`
	Description        string       `json:"description"`
	Status             string       `json:"status"`
	Summary            string       `json:"summary"`
	IsReviewedAccurate int          `json:"is_reviewed_accurate"`
	Tasks              []taskRecord `json:"tasks,omitempty"`
	CreatedAt          time.Time    `json:"created_at"`
	UpdatedAt          time.Time    `json:"updated_at"`
}

type taskRecord struct {
	TaskID          int64     `json:"task_id"`
	JobID           int64     `json:"job_id"`
	TaskDescription string    `json:"task_description"`
	Status          string    `json:"status"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

type imageRecord struct {
	ImageID   int64     `json:"image_id"`
	JobID     int64     `json:"job_id"`
	ImageData string    `json:"image_data"`
	Type      string    `json:"type"`
	CreatedAt time.Time `json:"created_at"`
}

type voiceNoteRecord struct {
	NoteID        int64     `json:"note_id"`
	JobID         int64     `json:"job_id"`
	VoiceNoteBlob string    `json:"voice_note_blob"`
	Type          string    `json:"type"`
	CreatedAt     time.Time `json:"created_at"`
}

type assetRecord struct {
	AssetID   int64               `json:"asset_id"`
	JobID     int64               `json:"job_id"`
	Name      string              `json:"name"`
	Status    string              `json:"status"`
	Details   domain.AssetDetails `json:"details"`
	CreatedAt time.Time           `json:"created_at"`
	UpdatedAt time.Time           `json:"updated_at"`
}

func (r jobRecord) toDomain(op string) (*domain.Job, error) {
	status, err := domain.ParseJobStatus(r.Status)
	if err != nil {
		return nil, &Error{Op: op, Message: err.Error()}
	}
	job := &domain.Job{
		ID:                 r.JobID,
		Code:               r.JobCode,
		Description:        r.Description,
		Status:             status,
		Summary:            r.Summary,
		IsReviewedAccurate: r.IsReviewedAccurate != 0,
		CreatedAt:          r.CreatedAt,
		UpdatedAt:          r.UpdatedAt,
	}
	for _, t := range r.Tasks {
		job.Tasks = append(job.Tasks, domain.Task{
			ID:          t.TaskID,
			JobID:       t.JobID,
			Description: t.TaskDescription,
			Status:      t.Status,
			CreatedAt:   t.CreatedAt,
			UpdatedAt:   t.UpdatedAt,
		})
	}
	return job, nil
}

func (e *Envelope) getJob(ctx context.Context, op string, params map[string]any) (*domain.Job, error) {
	body, err := e.invoke(ctx, "/db", op, params)
	if err != nil {
		return nil, err
	}
	if len(body.Record) == 0 {
		return nil, &Error{Op: op, Message: "job not found"}
	}
	var rec jobRecord
	if err := json.Unmarshal(body.Record, &rec); err != nil {
		return nil, &Error{Op: op, Message: fmt.Sprintf("decode record: %v", err)}
	}
	return rec.toDomain(op)
}

// GetJob fetches a job by identifier.
func (e *Envelope) GetJob(ctx context.Context, jobID int64) (*domain.Job, error) {
	return e.getJob(ctx, "get_job", map[string]any{"job_id": jobID})
}

// GetJobByCode resolves a job from its human-readable code.
func (e *Envelope) GetJobByCode(ctx context.Context, code string) (*domain.Job, error) {
	return e.getJob(ctx, "get_job_by_code", map[string]any{
		"job_code":        code,
		"organisation_id": e.orgID,
	})
}

// CreateJob registers a new job. Administrative: not part of the Client
// contract the field workflows run against.
func (e *Envelope) CreateJob(ctx context.Context, code, description string) (*domain.Job, error) {
	return e.getJob(ctx, "create_job", map[string]any{
		"job_code":        code,
		"description":     description,
		"organisation_id": e.orgID,
	})
}

// GetImages lists the stored images for a (job, type) pair in capture order.
func (e *Envelope) GetImages(ctx context.Context, jobID int64, typ domain.ImageType) ([]domain.Image, error) {
	body, err := e.invoke(ctx, "/db", "get_images", map[string]any{"job_id": jobID, "type": string(typ)})
	if err != nil {
		return nil, err
	}
	var recs []imageRecord
	if len(body.Records) > 0 {
		if err := json.Unmarshal(body.Records, &recs); err != nil {
			return nil, &Error{Op: "get_images", Message: fmt.Sprintf("decode records: %v", err)}
		}
	}
	images := make([]domain.Image, 0, len(recs))
	for _, r := range recs {
		images = append(images, domain.Image{
			ID:        r.ImageID,
			JobID:     r.JobID,
			Type:      domain.ImageType(r.Type),
			Data:      r.ImageData,
			CreatedAt: r.CreatedAt,
		})
	}
	return images, nil
}

// AddImage persists a captured image and returns the stored record including
// its server-assigned identifier.
func (e *Envelope) AddImage(ctx context.Context, jobID int64, typ domain.ImageType, data string) (*domain.Image, error) {
	body, err := e.invoke(ctx, "/db", "add_image", map[string]any{
		"job_id":     jobID,
		"type":       string(typ),
		"image_data": data,
	})
	if err != nil {
		return nil, err
	}
	var rec imageRecord
	if len(body.Record) == 0 {
		return nil, &Error{Op: "add_image", Message: "no record in response"}
	}
	if err := json.Unmarshal(body.Record, &rec); err != nil {
		return nil, &Error{Op: "add_image", Message: fmt.Sprintf("decode record: %v", err)}
	}
	if rec.ImageID == 0 {
		return nil, &Error{Op: "add_image", Message: "server did not assign an image id"}
	}
	return &domain.Image{ID: rec.ImageID, JobID: jobID, Type: typ, Data: data, CreatedAt: rec.CreatedAt}, nil
}

// DeleteImage removes a stored image by its server identifier.
func (e *Envelope) DeleteImage(ctx context.Context, imageID int64) error {
	_, err := e.invoke(ctx, "/db", "delete_image", map[string]any{"image_id": imageID})
	return err
}

// GetVoiceNotes lists the stored voice notes for a (job, type) pair.
func (e *Envelope) GetVoiceNotes(ctx context.Context, jobID int64, typ domain.NoteType) ([]domain.VoiceNote, error) {
	body, err := e.invoke(ctx, "/db", "get_voice_notes", map[string]any{"job_id": jobID, "type": string(typ)})
	if err != nil {
		return nil, err
	}
	var recs []voiceNoteRecord
	if len(body.Records) > 0 {
		if err := json.Unmarshal(body.Records, &recs); err != nil {
			return nil, &Error{Op: "get_voice_notes", Message: fmt.Sprintf("decode records: %v", err)}
		}
	}
	notes := make([]domain.VoiceNote, 0, len(recs))
	for _, r := range recs {
		notes = append(notes, domain.VoiceNote{
			ID:        r.NoteID,
			JobID:     r.JobID,
			Type:      domain.NoteType(r.Type),
			Data:      r.VoiceNoteBlob,
			CreatedAt: r.CreatedAt,
		})
	}
	return notes, nil
}

// AddVoiceNote persists a recorded voice note.
func (e *Envelope) AddVoiceNote(ctx context.Context, jobID int64, typ domain.NoteType, data string) (*domain.VoiceNote, error) {
	body, err := e.invoke(ctx, "/db", "add_voice_note", map[string]any{
		"job_id":          jobID,
		"type":            string(typ),
		"voice_note_data": data,
	})
	if err != nil {
		return nil, err
	}
	var rec voiceNoteRecord
	if len(body.Record) == 0 {
		return nil, &Error{Op: "add_voice_note", Message: "no record in response"}
	}
	if err := json.Unmarshal(body.Record, &rec); err != nil {
		return nil, &Error{Op: "add_voice_note", Message: fmt.Sprintf("decode record: %v", err)}
	}
	return &domain.VoiceNote{ID: rec.NoteID, JobID: jobID, Type: typ, Data: data, CreatedAt: rec.CreatedAt}, nil
}

// GetAsset fetches the asset previously recorded for a job, or ErrNotFound
// wrapped in a transport error when none exists yet.
func (e *Envelope) GetAsset(ctx context.Context, jobID int64) (*domain.Asset, error) {
	body, err := e.invoke(ctx, "/db", "get_asset_details", map[string]any{"job_id": jobID})
	if err != nil {
		return nil, err
	}
	if len(body.Record) == 0 || string(body.Record) == "null" {
		return nil, nil
	}
	var rec assetRecord
	if err := json.Unmarshal(body.Record, &rec); err != nil {
		return nil, &Error{Op: "get_asset_details", Message: fmt.Sprintf("decode record: %v", err)}
	}
	return rec.toDomain(), nil
}

func (r assetRecord) toDomain() *domain.Asset {
	return &domain.Asset{
		ID:        r.AssetID,
		JobID:     r.JobID,
		Name:      r.Name,
		Status:    r.Status,
		Details:   r.Details,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

// SaveAsset persists asset details: insert when the asset has no identifier,
// update otherwise. Either way the server owns the stored record shape.
func (e *Envelope) SaveAsset(ctx context.Context, asset *domain.Asset) (*domain.Asset, error) {
	params := map[string]any{
		"job_id":  asset.JobID,
		"name":    asset.Name,
		"status":  asset.Status,
		"details": asset.Details,
	}
	if asset.Saved() {
		params["asset_id"] = asset.ID
	}
	body, err := e.invoke(ctx, "/db", "insert_asset_details", params)
	if err != nil {
		return nil, err
	}
	if len(body.Record) == 0 {
		return nil, &Error{Op: "insert_asset_details", Message: "no record in response"}
	}
	var rec assetRecord
	if err := json.Unmarshal(body.Record, &rec); err != nil {
		return nil, &Error{Op: "insert_asset_details", Message: fmt.Sprintf("decode record: %v", err)}
	}
	return rec.toDomain(), nil
}

// UpdateJob writes summary, sign-off flag and status.
func (e *Envelope) UpdateJob(ctx context.Context, update JobUpdate) error {
	signedOff := 0
	if update.IsReviewedAccurate {
		signedOff = 1
	}
	_, err := e.invoke(ctx, "/db", "update_job", map[string]any{
		"job_id":               update.JobID,
		"summary":              update.Summary,
		"is_reviewed_accurate": signedOff,
		"status":               string(update.Status),
	})
	return err
}

// AddSafetyReport files a safety report against a job. Write-only: there is
// no read-back operation.
func (e *Envelope) AddSafetyReport(ctx context.Context, jobID int64, description string) error {
	_, err := e.invoke(ctx, "/db", "add_safety_report", map[string]any{
		"job_id":      jobID,
		"description": description,
	})
	return err
}

// IdentifyAsset asks the AI collaborator to identify a single item from the
// job's stored photos. The collaborator's literal "error" sentinel becomes
// ErrNotIdentified.
func (e *Envelope) IdentifyAsset(ctx context.Context, jobID int64) (*IdentifiedAsset, error) {
	body, err := e.invoke(ctx, "/ai", "identify_asset", map[string]any{
		"job_id":          jobID,
		"organisation_id": e.orgID,
	})
	if err != nil {
		return nil, err
	}
	if len(body.Data) == 0 {
		return nil, &Error{Op: "identify_asset", Message: "no data in response"}
	}
	var sentinel string
	if json.Unmarshal(body.Data, &sentinel) == nil && sentinel == "error" {
		return nil, ErrNotIdentified
	}
	var fields IdentifiedAsset
	if err := json.Unmarshal(body.Data, &fields); err != nil {
		return nil, &Error{Op: "identify_asset", Message: fmt.Sprintf("decode data: %v", err)}
	}
	return &fields, nil
}

// JobSummary asks the AI collaborator to summarize the work depicted by the
// job's photos and description.
func (e *Envelope) JobSummary(ctx context.Context, jobID int64, text string) (string, error) {
	body, err := e.invoke(ctx, "/ai", "job_summary", map[string]any{
		"job_id":          jobID,
		"organisation_id": e.orgID,
		"text":            text,
	})
	if err != nil {
		return "", err
	}
	var data struct {
		Summary string `json:"summary"`
	}
	if len(body.Data) == 0 {
		return "", &Error{Op: "job_summary", Message: "no data in response"}
	}
	var sentinel string
	if json.Unmarshal(body.Data, &sentinel) == nil && sentinel == "error" {
		return "", &Error{Op: "job_summary", Message: "cannot generate summary"}
	}
	if err := json.Unmarshal(body.Data, &data); err != nil {
		return "", &Error{Op: "job_summary", Message: fmt.Sprintf("decode data: %v", err)}
	}
	return data.Summary, nil
}
