package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/aegisfield/fieldops/internal/domain"
)

func (a *App) restFailure(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		a.error(w, http.StatusNotFound, "record not found")
	case errors.Is(err, domain.ErrInvalidStatus), errors.Is(err, domain.ErrValidation):
		a.error(w, http.StatusBadRequest, err.Error())
	default:
		a.Logger.Error().Err(err).Str("operation", op).Msg("rest operation failed")
		a.error(w, http.StatusInternalServerError, "operation failed")
	}
}

func pathID(r *http.Request, name string) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, name), 10, 64)
}

func (a *App) ListJobs(w http.ResponseWriter, r *http.Request) {
	jobs, err := a.Store.ListJobs(r.Context())
	if err != nil {
		a.restFailure(w, "list_jobs", err)
		return
	}
	a.json(w, http.StatusOK, viewJobs(jobs))
}

type createJobRequest struct {
	JobCode     string `json:"job_code"`
	Description string `json:"description"`
}

func (a *App) CreateJob(w http.ResponseWriter, r *http.Request) {
	var req createJobRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if req.JobCode == "" {
		a.error(w, http.StatusBadRequest, "job_code required")
		return
	}
	job, err := a.Store.CreateJob(r.Context(), &domain.Job{
		Code:        req.JobCode,
		Description: req.Description,
		Status:      domain.JobStatusPending,
	})
	if err != nil {
		a.restFailure(w, "create_job", err)
		return
	}
	a.json(w, http.StatusCreated, viewJob(job))
}

func (a *App) GetJob(w http.ResponseWriter, r *http.Request) {
	jobID, err := pathID(r, "jobID")
	if err != nil {
		a.error(w, http.StatusBadRequest, "invalid job id")
		return
	}
	job, err := a.Store.GetJob(r.Context(), jobID)
	if err != nil {
		a.restFailure(w, "get_job", err)
		return
	}
	a.json(w, http.StatusOK, viewJob(job))
}

type updateJobRequest struct {
	Summary            string `json:"summary"`
	IsReviewedAccurate int    `json:"is_reviewed_accurate"`
	Status             string `json:"status"`
}

func (a *App) UpdateJob(w http.ResponseWriter, r *http.Request) {
	jobID, err := pathID(r, "jobID")
	if err != nil {
		a.error(w, http.StatusBadRequest, "invalid job id")
		return
	}
	var req updateJobRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "invalid payload")
		return
	}
	status, err := domain.ParseJobStatus(req.Status)
	if err != nil {
		a.error(w, http.StatusBadRequest, err.Error())
		return
	}
	job, err := a.recordJobUpdate(r.Context(), jobID, req.Summary, req.IsReviewedAccurate != 0, status)
	if err != nil {
		a.restFailure(w, "update_job", err)
		return
	}
	a.json(w, http.StatusOK, viewJob(job))
}

func (a *App) ListImages(w http.ResponseWriter, r *http.Request) {
	jobID, err := pathID(r, "jobID")
	if err != nil {
		a.error(w, http.StatusBadRequest, "invalid job id")
		return
	}
	raw := r.URL.Query().Get("type")
	if raw == "" {
		images, err := a.Store.ListJobImages(r.Context(), jobID)
		if err != nil {
			a.restFailure(w, "get_images", err)
			return
		}
		a.json(w, http.StatusOK, viewImages(images))
		return
	}
	typ, err := domain.ParseImageType(raw)
	if err != nil {
		a.error(w, http.StatusBadRequest, err.Error())
		return
	}
	images, err := a.Store.ListImages(r.Context(), jobID, typ)
	if err != nil {
		a.restFailure(w, "get_images", err)
		return
	}
	a.json(w, http.StatusOK, viewImages(images))
}

type addImageRequest struct {
	ImageData string `json:"image_data"`
	Type      string `json:"type"`
}

func (a *App) AddImage(w http.ResponseWriter, r *http.Request) {
	jobID, err := pathID(r, "jobID")
	if err != nil {
		a.error(w, http.StatusBadRequest, "invalid job id")
		return
	}
	var req addImageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "invalid payload")
		return
	}
	typ, err := domain.ParseImageType(req.Type)
	if err != nil {
		a.error(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.ImageData == "" {
		a.error(w, http.StatusBadRequest, "image_data required")
		return
	}
	img, err := a.Store.AddImage(r.Context(), &domain.Image{JobID: jobID, Type: typ, Data: req.ImageData})
	if err != nil {
		a.restFailure(w, "add_image", err)
		return
	}
	a.json(w, http.StatusCreated, map[string]any{"image": viewImage(img)})
}

func (a *App) DeleteImage(w http.ResponseWriter, r *http.Request) {
	imageID, err := pathID(r, "imageID")
	if err != nil {
		a.error(w, http.StatusBadRequest, "invalid image id")
		return
	}
	if err := a.Store.DeleteImage(r.Context(), imageID); err != nil {
		a.restFailure(w, "delete_image", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *App) ListVoiceNotes(w http.ResponseWriter, r *http.Request) {
	jobID, err := pathID(r, "jobID")
	if err != nil {
		a.error(w, http.StatusBadRequest, "invalid job id")
		return
	}
	typ, err := domain.ParseNoteType(r.URL.Query().Get("type"))
	if err != nil {
		a.error(w, http.StatusBadRequest, err.Error())
		return
	}
	notes, err := a.Store.ListVoiceNotes(r.Context(), jobID, typ)
	if err != nil {
		a.restFailure(w, "get_voice_notes", err)
		return
	}
	a.json(w, http.StatusOK, viewVoiceNotes(notes))
}

type addVoiceNoteRequest struct {
	VoiceNoteData string `json:"voice_note_data"`
	Type          string `json:"type"`
}

func (a *App) AddVoiceNote(w http.ResponseWriter, r *http.Request) {
	jobID, err := pathID(r, "jobID")
	if err != nil {
		a.error(w, http.StatusBadRequest, "invalid job id")
		return
	}
	var req addVoiceNoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "invalid payload")
		return
	}
	typ, err := domain.ParseNoteType(req.Type)
	if err != nil {
		a.error(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.VoiceNoteData == "" {
		a.error(w, http.StatusBadRequest, "voice_note_data required")
		return
	}
	note, err := a.Store.AddVoiceNote(r.Context(), &domain.VoiceNote{JobID: jobID, Type: typ, Data: req.VoiceNoteData})
	if err != nil {
		a.restFailure(w, "add_voice_note", err)
		return
	}
	a.audit(r.Context(), jobID, taskVoiceNotePrefix+string(typ))
	a.json(w, http.StatusCreated, map[string]any{"note": viewVoiceNote(note)})
}

func (a *App) GetAsset(w http.ResponseWriter, r *http.Request) {
	jobID, err := pathID(r, "jobID")
	if err != nil {
		a.error(w, http.StatusBadRequest, "invalid job id")
		return
	}
	asset, err := a.Store.GetAsset(r.Context(), jobID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			// No asset yet is a normal state, not a 404.
			a.json(w, http.StatusOK, map[string]any{})
			return
		}
		a.restFailure(w, "get_asset_details", err)
		return
	}
	a.json(w, http.StatusOK, viewAsset(asset))
}

type saveAssetRequest struct {
	AssetID int64               `json:"asset_id"`
	Name    string              `json:"name"`
	Status  string              `json:"status"`
	Details domain.AssetDetails `json:"details"`
}

func (a *App) SaveAsset(w http.ResponseWriter, r *http.Request) {
	jobID, err := pathID(r, "jobID")
	if err != nil {
		a.error(w, http.StatusBadRequest, "invalid job id")
		return
	}
	var req saveAssetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if r.Method == http.MethodPut && req.AssetID == 0 {
		a.error(w, http.StatusBadRequest, "asset_id required")
		return
	}
	asset := &domain.Asset{
		ID:      req.AssetID,
		JobID:   jobID,
		Name:    req.Name,
		Status:  req.Status,
		Details: req.Details,
	}
	stored, err := a.recordAssetSave(r.Context(), asset)
	if err != nil {
		a.restFailure(w, "insert_asset_details", err)
		return
	}
	code := http.StatusOK
	if r.Method == http.MethodPost {
		code = http.StatusCreated
	}
	a.json(w, code, map[string]any{"asset": viewAsset(stored)})
}

type safetyReportRequest struct {
	Description string `json:"description"`
}

func (a *App) AddSafetyReport(w http.ResponseWriter, r *http.Request) {
	jobID, err := pathID(r, "jobID")
	if err != nil {
		a.error(w, http.StatusBadRequest, "invalid job id")
		return
	}
	var req safetyReportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if req.Description == "" {
		a.error(w, http.StatusBadRequest, "description required")
		return
	}
	if _, err := a.Store.AddSafetyReport(r.Context(), &domain.SafetyReport{JobID: jobID, Description: req.Description}); err != nil {
		a.restFailure(w, "add_safety_report", err)
		return
	}
	a.audit(r.Context(), jobID, taskReportedSafety)
	a.json(w, http.StatusCreated, map[string]string{"status": "reported"})
}

type aiOperationRequest struct {
	Operation      string `json:"operation"`
	JobID          int64  `json:"job_id"`
	OrganisationID string `json:"organisation_id"`
	Text           string `json:"text"`
}

func (a *App) AIOperation(w http.ResponseWriter, r *http.Request) {
	var req aiOperationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "invalid payload")
		return
	}
	data, err := a.runAIOperation(r.Context(), req.Operation, req.JobID, req.Text)
	if err != nil {
		a.restFailure(w, req.Operation, err)
		return
	}
	a.json(w, http.StatusOK, map[string]any{"data": data})
}

func (a *App) Health(w http.ResponseWriter, r *http.Request) {
	a.json(w, http.StatusOK, map[string]string{"status": "ok"})
}
