package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/aegisfield/fieldops/internal/domain"
)

// REST talks to the file-backed backend variant through conventional resource
// routes. It implements the same Client contract as the envelope transport so
// workflows never know which backend they are bound to.
type REST struct {
	baseURL    string
	orgID      string
	httpClient *http.Client
	logger     zerolog.Logger
}

// RESTOptions configures the REST transport.
type RESTOptions struct {
	BaseURL        string
	OrganisationID string
	HTTPClient     *http.Client
	Logger         zerolog.Logger
}

// NewREST constructs the resource-route transport.
func NewREST(opts RESTOptions) *REST {
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 60 * time.Second}
	}
	return &REST{
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		orgID:      opts.OrganisationID,
		httpClient: client,
		logger:     opts.Logger,
	}
}

var _ Client = (*REST)(nil)

// do issues one request and normalizes failures. A non-2xx response with an
// {"error": ...} body becomes a *Error carrying that message.
func (r *REST) do(ctx context.Context, op, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return &Error{Op: op, Message: fmt.Sprintf("marshal request: %v", err)}
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, r.baseURL+path, body)
	if err != nil {
		return &Error{Op: op, Message: fmt.Sprintf("create request: %v", err)}
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return &Error{Op: op, Message: err.Error()}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return &Error{Op: op, Status: resp.StatusCode, Message: err.Error()}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := strings.TrimSpace(string(raw))
		var apiErr struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(raw, &apiErr) == nil && apiErr.Error != "" {
			msg = apiErr.Error
		}
		r.logger.Error().Str("operation", op).Int("status", resp.StatusCode).Msg("rest call failed")
		return &Error{Op: op, Status: resp.StatusCode, Message: msg}
	}
	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			return &Error{Op: op, Status: resp.StatusCode, Message: fmt.Sprintf("decode response: %v", err)}
		}
	}
	return nil
}

// GetJob fetches a job with its embedded audit tasks.
func (r *REST) GetJob(ctx context.Context, jobID int64) (*domain.Job, error) {
	var rec jobRecord
	if err := r.do(ctx, "get_job", http.MethodGet, fmt.Sprintf("/jobs/%d", jobID), nil, &rec); err != nil {
		return nil, err
	}
	return rec.toDomain("get_job")
}

// GetJobByCode lists jobs and resolves the one with the matching code. The
// resource surface has no dedicated lookup route, mirroring the backend.
func (r *REST) GetJobByCode(ctx context.Context, code string) (*domain.Job, error) {
	var recs []jobRecord
	if err := r.do(ctx, "get_job_by_code", http.MethodGet, "/jobs", nil, &recs); err != nil {
		return nil, err
	}
	for _, rec := range recs {
		if rec.JobCode == code {
			return rec.toDomain("get_job_by_code")
		}
	}
	return nil, &Error{Op: "get_job_by_code", Status: http.StatusNotFound, Message: "job not found"}
}

// CreateJob registers a new job. Administrative: not part of the Client
// contract the field workflows run against.
func (r *REST) CreateJob(ctx context.Context, code, description string) (*domain.Job, error) {
	var rec jobRecord
	in := map[string]any{"job_code": code, "description": description}
	if err := r.do(ctx, "create_job", http.MethodPost, "/jobs", in, &rec); err != nil {
		return nil, err
	}
	return rec.toDomain("create_job")
}

// GetImages lists images for a (job, type) pair in capture order.
func (r *REST) GetImages(ctx context.Context, jobID int64, typ domain.ImageType) ([]domain.Image, error) {
	var recs []imageRecord
	path := fmt.Sprintf("/jobs/%d/images?type=%s", jobID, url.QueryEscape(string(typ)))
	if err := r.do(ctx, "get_images", http.MethodGet, path, nil, &recs); err != nil {
		return nil, err
	}
	images := make([]domain.Image, 0, len(recs))
	for _, rec := range recs {
		images = append(images, domain.Image{
			ID:        rec.ImageID,
			JobID:     rec.JobID,
			Type:      domain.ImageType(rec.Type),
			Data:      rec.ImageData,
			CreatedAt: rec.CreatedAt,
		})
	}
	return images, nil
}

// AddImage persists a captured image.
func (r *REST) AddImage(ctx context.Context, jobID int64, typ domain.ImageType, data string) (*domain.Image, error) {
	var resp struct {
		Image imageRecord `json:"image"`
	}
	in := map[string]any{"image_data": data, "type": string(typ)}
	if err := r.do(ctx, "add_image", http.MethodPost, fmt.Sprintf("/jobs/%d/images", jobID), in, &resp); err != nil {
		return nil, err
	}
	if resp.Image.ImageID == 0 {
		return nil, &Error{Op: "add_image", Message: "server did not assign an image id"}
	}
	return &domain.Image{ID: resp.Image.ImageID, JobID: jobID, Type: typ, Data: data, CreatedAt: resp.Image.CreatedAt}, nil
}

// DeleteImage removes a stored image.
func (r *REST) DeleteImage(ctx context.Context, imageID int64) error {
	return r.do(ctx, "delete_image", http.MethodDelete, fmt.Sprintf("/jobs/images/%d", imageID), nil, nil)
}

// GetVoiceNotes lists voice notes for a (job, type) pair.
func (r *REST) GetVoiceNotes(ctx context.Context, jobID int64, typ domain.NoteType) ([]domain.VoiceNote, error) {
	var recs []voiceNoteRecord
	path := fmt.Sprintf("/jobs/%d/voice-notes?type=%s", jobID, url.QueryEscape(string(typ)))
	if err := r.do(ctx, "get_voice_notes", http.MethodGet, path, nil, &recs); err != nil {
		return nil, err
	}
	notes := make([]domain.VoiceNote, 0, len(recs))
	for _, rec := range recs {
		notes = append(notes, domain.VoiceNote{
			ID:        rec.NoteID,
			JobID:     rec.JobID,
			Type:      domain.NoteType(rec.Type),
			Data:      rec.VoiceNoteBlob,
			CreatedAt: rec.CreatedAt,
		})
	}
	return notes, nil
}

// AddVoiceNote persists a recorded voice note.
func (r *REST) AddVoiceNote(ctx context.Context, jobID int64, typ domain.NoteType, data string) (*domain.VoiceNote, error) {
	var resp struct {
		Note voiceNoteRecord `json:"note"`
	}
	in := map[string]any{"voice_note_data": data, "type": string(typ)}
	if err := r.do(ctx, "add_voice_note", http.MethodPost, fmt.Sprintf("/jobs/%d/voice-notes", jobID), in, &resp); err != nil {
		return nil, err
	}
	return &domain.VoiceNote{ID: resp.Note.NoteID, JobID: jobID, Type: typ, Data: data, CreatedAt: resp.Note.CreatedAt}, nil
}

// GetAsset fetches the latest asset recorded for a job. A response without an
// asset identifier means no asset exists yet and yields (nil, nil).
func (r *REST) GetAsset(ctx context.Context, jobID int64) (*domain.Asset, error) {
	var rec assetRecord
	if err := r.do(ctx, "get_asset_details", http.MethodGet, fmt.Sprintf("/jobs/%d/assets", jobID), nil, &rec); err != nil {
		return nil, err
	}
	if rec.AssetID == 0 && rec.Name == "" {
		return nil, nil
	}
	return rec.toDomain(), nil
}

// SaveAsset inserts (POST) or updates (PUT) depending on identifier presence.
func (r *REST) SaveAsset(ctx context.Context, asset *domain.Asset) (*domain.Asset, error) {
	var resp struct {
		Asset assetRecord `json:"asset"`
	}
	in := map[string]any{
		"name":    asset.Name,
		"status":  asset.Status,
		"details": asset.Details,
	}
	method := http.MethodPost
	if asset.Saved() {
		method = http.MethodPut
		in["asset_id"] = asset.ID
	}
	if err := r.do(ctx, "insert_asset_details", method, fmt.Sprintf("/jobs/%d/assets", asset.JobID), in, &resp); err != nil {
		return nil, err
	}
	return resp.Asset.toDomain(), nil
}

// UpdateJob writes summary, sign-off flag and status.
func (r *REST) UpdateJob(ctx context.Context, update JobUpdate) error {
	signedOff := 0
	if update.IsReviewedAccurate {
		signedOff = 1
	}
	in := map[string]any{
		"summary":              update.Summary,
		"is_reviewed_accurate": signedOff,
		"status":               string(update.Status),
	}
	return r.do(ctx, "update_job", http.MethodPut, fmt.Sprintf("/jobs/%d", update.JobID), in, nil)
}

// AddSafetyReport files a safety report against a job.
func (r *REST) AddSafetyReport(ctx context.Context, jobID int64, description string) error {
	in := map[string]any{"description": description}
	return r.do(ctx, "add_safety_report", http.MethodPost, fmt.Sprintf("/jobs/%d/safety-reports", jobID), in, nil)
}

type aiOperationRequest struct {
	Operation      string `json:"operation"`
	JobID          int64  `json:"job_id"`
	OrganisationID string `json:"organisation_id"`
	Text           string `json:"text,omitempty"`
}

// IdentifyAsset routes the identify operation through the AI endpoint.
func (r *REST) IdentifyAsset(ctx context.Context, jobID int64) (*IdentifiedAsset, error) {
	var resp struct {
		Data json.RawMessage `json:"data"`
	}
	in := aiOperationRequest{Operation: "identify_asset", JobID: jobID, OrganisationID: r.orgID}
	if err := r.do(ctx, "identify_asset", http.MethodPost, "/ai-operations", in, &resp); err != nil {
		return nil, err
	}
	if len(resp.Data) == 0 {
		return nil, &Error{Op: "identify_asset", Message: "no data in response"}
	}
	var sentinel string
	if json.Unmarshal(resp.Data, &sentinel) == nil && sentinel == "error" {
		return nil, ErrNotIdentified
	}
	var fields IdentifiedAsset
	if err := json.Unmarshal(resp.Data, &fields); err != nil {
		return nil, &Error{Op: "identify_asset", Message: fmt.Sprintf("decode data: %v", err)}
	}
	return &fields, nil
}

// JobSummary routes the summary operation through the AI endpoint.
func (r *REST) JobSummary(ctx context.Context, jobID int64, text string) (string, error) {
	var resp struct {
		Data struct {
			Summary string `json:"summary"`
		} `json:"data"`
	}
	in := aiOperationRequest{Operation: "job_summary", JobID: jobID, OrganisationID: r.orgID, Text: text}
	if err := r.do(ctx, "job_summary", http.MethodPost, "/ai-operations", in, &resp); err != nil {
		return "", err
	}
	return resp.Data.Summary, nil
}
