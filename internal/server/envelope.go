package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/aegisfield/fieldops/internal/ai"
	"github.com/aegisfield/fieldops/internal/domain"
)

// dbAction is the flattened action object posted to /db. Only the fields the
// named operation needs are expected to be set.
type dbAction struct {
	Operation          string              `json:"operation"`
	JobID              int64               `json:"job_id"`
	JobCode            string              `json:"job_code"`
	OrganisationID     string              `json:"organisation_id"`
	Type               string              `json:"type"`
	ImageData          string              `json:"image_data"`
	ImageID            int64               `json:"image_id"`
	VoiceNoteData      string              `json:"voice_note_data"`
	AssetID            int64               `json:"asset_id"`
	Name               string              `json:"name"`
	Status             string              `json:"status"`
	Details            domain.AssetDetails `json:"details"`
	Summary            string              `json:"summary"`
	IsReviewedAccurate int                 `json:"is_reviewed_accurate"`
	Description        string              `json:"description"`
	Text               string              `json:"text"`
}

type dbEnvelope struct {
	Action dbAction `json:"action"`
}

// envelope writes the historical {statusCode, body} shape, mirroring the
// embedded status on the HTTP response itself.
func (a *App) envelope(w http.ResponseWriter, status int, body map[string]any) {
	a.json(w, status, map[string]any{"statusCode": status, "body": body})
}

func (a *App) envelopeError(w http.ResponseWriter, status int, msg string) {
	a.envelope(w, status, map[string]any{"error": msg})
}

func (a *App) envelopeFailure(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		a.envelopeError(w, http.StatusNotFound, "record not found")
	case errors.Is(err, domain.ErrInvalidStatus), errors.Is(err, domain.ErrValidation):
		a.envelopeError(w, http.StatusBadRequest, err.Error())
	default:
		a.Logger.Error().Err(err).Str("operation", op).Msg("db operation failed")
		a.envelopeError(w, http.StatusInternalServerError, "operation failed")
	}
}

// DBOperations dispatches the action envelope posted to /db.
func (a *App) DBOperations(w http.ResponseWriter, r *http.Request) {
	var env dbEnvelope
	if err := json.NewDecoder(r.Body).Decode(&env); err != nil {
		a.envelopeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	ctx := r.Context()
	act := env.Action

	switch act.Operation {
	case "get_job":
		job, err := a.Store.GetJob(ctx, act.JobID)
		if err != nil {
			a.envelopeFailure(w, act.Operation, err)
			return
		}
		a.envelope(w, http.StatusOK, map[string]any{"record": viewJob(job)})

	case "get_job_by_code":
		job, err := a.Store.GetJobByCode(ctx, act.JobCode)
		if err != nil {
			a.envelopeFailure(w, act.Operation, err)
			return
		}
		a.envelope(w, http.StatusOK, map[string]any{"record": viewJob(job)})

	case "create_job":
		job, err := a.Store.CreateJob(ctx, &domain.Job{
			Code:        act.JobCode,
			Description: act.Description,
			Status:      domain.JobStatusPending,
		})
		if err != nil {
			a.envelopeFailure(w, act.Operation, err)
			return
		}
		a.envelope(w, http.StatusOK, map[string]any{"record": viewJob(job)})

	case "get_images":
		typ, err := domain.ParseImageType(act.Type)
		if err != nil {
			a.envelopeError(w, http.StatusBadRequest, err.Error())
			return
		}
		images, err := a.Store.ListImages(ctx, act.JobID, typ)
		if err != nil {
			a.envelopeFailure(w, act.Operation, err)
			return
		}
		a.envelope(w, http.StatusOK, map[string]any{"records": viewImages(images)})

	case "add_image":
		typ, err := domain.ParseImageType(act.Type)
		if err != nil {
			a.envelopeError(w, http.StatusBadRequest, err.Error())
			return
		}
		if act.ImageData == "" {
			a.envelopeError(w, http.StatusBadRequest, "image_data required")
			return
		}
		img, err := a.Store.AddImage(ctx, &domain.Image{JobID: act.JobID, Type: typ, Data: act.ImageData})
		if err != nil {
			a.envelopeFailure(w, act.Operation, err)
			return
		}
		a.envelope(w, http.StatusOK, map[string]any{"record": viewImage(img)})

	case "delete_image":
		if err := a.Store.DeleteImage(ctx, act.ImageID); err != nil {
			a.envelopeFailure(w, act.Operation, err)
			return
		}
		a.envelope(w, http.StatusOK, map[string]any{"message": "deleted"})

	case "get_voice_notes":
		typ, err := domain.ParseNoteType(act.Type)
		if err != nil {
			a.envelopeError(w, http.StatusBadRequest, err.Error())
			return
		}
		notes, err := a.Store.ListVoiceNotes(ctx, act.JobID, typ)
		if err != nil {
			a.envelopeFailure(w, act.Operation, err)
			return
		}
		a.envelope(w, http.StatusOK, map[string]any{"records": viewVoiceNotes(notes)})

	case "add_voice_note":
		typ, err := domain.ParseNoteType(act.Type)
		if err != nil {
			a.envelopeError(w, http.StatusBadRequest, err.Error())
			return
		}
		if act.VoiceNoteData == "" {
			a.envelopeError(w, http.StatusBadRequest, "voice_note_data required")
			return
		}
		note, err := a.Store.AddVoiceNote(ctx, &domain.VoiceNote{JobID: act.JobID, Type: typ, Data: act.VoiceNoteData})
		if err != nil {
			a.envelopeFailure(w, act.Operation, err)
			return
		}
		a.audit(ctx, act.JobID, taskVoiceNotePrefix+string(typ))
		a.envelope(w, http.StatusOK, map[string]any{"record": viewVoiceNote(note)})

	case "get_asset_details":
		asset, err := a.Store.GetAsset(ctx, act.JobID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				a.envelope(w, http.StatusOK, map[string]any{"record": nil})
				return
			}
			a.envelopeFailure(w, act.Operation, err)
			return
		}
		a.envelope(w, http.StatusOK, map[string]any{"record": viewAsset(asset)})

	case "insert_asset_details":
		asset := &domain.Asset{
			ID:      act.AssetID,
			JobID:   act.JobID,
			Name:    act.Name,
			Status:  act.Status,
			Details: act.Details,
		}
		stored, err := a.recordAssetSave(ctx, asset)
		if err != nil {
			a.envelopeFailure(w, act.Operation, err)
			return
		}
		a.envelope(w, http.StatusOK, map[string]any{"record": viewAsset(stored)})

	case "update_job":
		status, err := domain.ParseJobStatus(act.Status)
		if err != nil {
			a.envelopeError(w, http.StatusBadRequest, err.Error())
			return
		}
		job, err := a.recordJobUpdate(ctx, act.JobID, act.Summary, act.IsReviewedAccurate != 0, status)
		if err != nil {
			a.envelopeFailure(w, act.Operation, err)
			return
		}
		a.envelope(w, http.StatusOK, map[string]any{"record": viewJob(job)})

	case "add_safety_report":
		if act.Description == "" {
			a.envelopeError(w, http.StatusBadRequest, "description required")
			return
		}
		if _, err := a.Store.AddSafetyReport(ctx, &domain.SafetyReport{JobID: act.JobID, Description: act.Description}); err != nil {
			a.envelopeFailure(w, act.Operation, err)
			return
		}
		a.audit(ctx, act.JobID, taskReportedSafety)
		a.envelope(w, http.StatusOK, map[string]any{"message": "reported"})

	default:
		a.envelopeError(w, http.StatusBadRequest, "unknown operation: "+act.Operation)
	}
}

// AIOperations dispatches the action envelope posted to /ai.
func (a *App) AIOperations(w http.ResponseWriter, r *http.Request) {
	var env dbEnvelope
	if err := json.NewDecoder(r.Body).Decode(&env); err != nil {
		a.envelopeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	data, err := a.runAIOperation(r.Context(), env.Action.Operation, env.Action.JobID, env.Action.Text)
	if err != nil {
		a.envelopeFailure(w, env.Action.Operation, err)
		return
	}
	a.envelope(w, http.StatusOK, map[string]any{"data": data})
}

// runAIOperation executes an AI operation and returns the wire data payload.
// An identification miss is not a failure: the historical contract is the
// literal "error" string in the data slot.
func (a *App) runAIOperation(ctx context.Context, op string, jobID int64, text string) (any, error) {
	switch op {
	case "identify_asset":
		images, err := a.Store.ListImages(ctx, jobID, domain.ImageTypeAsset)
		if err != nil {
			return nil, err
		}
		if len(images) == 0 {
			return "error", nil
		}
		payload := make([]string, 0, len(images))
		for _, img := range images {
			payload = append(payload, img.Data)
		}
		ident, err := a.AI.IdentifyAsset(ctx, payload)
		if err != nil {
			if errors.Is(err, ai.ErrNotIdentified) {
				return "error", nil
			}
			return nil, err
		}
		return ident, nil

	case "job_summary":
		summary, err := a.AI.Summarize(ctx, text)
		if err != nil {
			return nil, err
		}
		return map[string]string{"summary": summary}, nil

	default:
		return nil, fmt.Errorf("%w: unknown operation %q", domain.ErrValidation, op)
	}
}
