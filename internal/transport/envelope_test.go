package transport

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"

	"github.com/aegisfield/fieldops/internal/domain"
)

func envelopeServer(t *testing.T, wantPath, wantOp string, check func(action map[string]any), status int, body map[string]any) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != wantPath {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		var payload struct {
			Action map[string]any `json:"action"`
		}
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if got := payload.Action["operation"]; got != wantOp {
			t.Fatalf("unexpected operation: %v", got)
		}
		if check != nil {
			check(payload.Action)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(map[string]any{"statusCode": status, "body": body})
	}))
}

func newTestEnvelope(url string) *Envelope {
	return NewEnvelope(EnvelopeOptions{BaseURL: url, OrganisationID: "1234", Logger: zerolog.Nop()})
}

func TestEnvelopeGetJobByCode(t *testing.T) {
	ts := envelopeServer(t, "/db", "get_job_by_code", func(action map[string]any) {
		if action["job_code"] != "JOB-7" {
			t.Fatalf("job_code not sent: %v", action["job_code"])
		}
		if action["organisation_id"] != "1234" {
			t.Fatalf("organisation_id not sent: %v", action["organisation_id"])
		}
	}, http.StatusOK, map[string]any{"record": map[string]any{
		"job_id": 7, "job_code": "JOB-7", "status": "pending", "is_reviewed_accurate": 0,
	}})
	defer ts.Close()

	job, err := newTestEnvelope(ts.URL).GetJobByCode(context.Background(), "JOB-7")
	if err != nil {
		t.Fatalf("GetJobByCode error: %v", err)
	}
	if job.ID != 7 || job.Code != "JOB-7" || job.Status != domain.JobStatusPending {
		t.Fatalf("unexpected job: %+v", job)
	}
}

func TestEnvelopeRejectsUnknownStatus(t *testing.T) {
	ts := envelopeServer(t, "/db", "get_job", nil, http.StatusOK, map[string]any{"record": map[string]any{
		"job_id": 7, "status": "inprogress",
	}})
	defer ts.Close()

	_, err := newTestEnvelope(ts.URL).GetJob(context.Background(), 7)
	var terr *Error
	if !errors.As(err, &terr) {
		t.Fatalf("expected transport error, got %v", err)
	}
}

func TestEnvelopeAddImageRequiresServerID(t *testing.T) {
	ts := envelopeServer(t, "/db", "add_image", nil, http.StatusOK, map[string]any{"record": map[string]any{
		"job_id": 7,
	}})
	defer ts.Close()

	_, err := newTestEnvelope(ts.URL).AddImage(context.Background(), 7, domain.ImageTypeJob, "aGk=")
	if err == nil {
		t.Fatalf("expected error when the server assigns no image id")
	}
}

func TestEnvelopeAddImage(t *testing.T) {
	ts := envelopeServer(t, "/db", "add_image", func(action map[string]any) {
		if action["image_data"] != "aGk=" {
			t.Fatalf("image_data not sent: %v", action["image_data"])
		}
		if action["type"] != "job" {
			t.Fatalf("type not sent: %v", action["type"])
		}
	}, http.StatusOK, map[string]any{"record": map[string]any{"image_id": 31, "job_id": 7}})
	defer ts.Close()

	img, err := newTestEnvelope(ts.URL).AddImage(context.Background(), 7, domain.ImageTypeJob, "aGk=")
	if err != nil {
		t.Fatalf("AddImage error: %v", err)
	}
	if img.ID != 31 {
		t.Fatalf("unexpected image id: %d", img.ID)
	}
}

func TestEnvelopeErrorBody(t *testing.T) {
	ts := envelopeServer(t, "/db", "delete_image", nil, http.StatusNotFound, map[string]any{"error": "record not found"})
	defer ts.Close()

	err := newTestEnvelope(ts.URL).DeleteImage(context.Background(), 99)
	var terr *Error
	if !errors.As(err, &terr) {
		t.Fatalf("expected transport error, got %v", err)
	}
	if terr.Status != http.StatusNotFound || terr.Message != "record not found" {
		t.Fatalf("unexpected error: %+v", terr)
	}
}

func TestEnvelopeGetAssetAbsent(t *testing.T) {
	ts := envelopeServer(t, "/db", "get_asset_details", nil, http.StatusOK, map[string]any{"record": nil})
	defer ts.Close()

	asset, err := newTestEnvelope(ts.URL).GetAsset(context.Background(), 7)
	if err != nil {
		t.Fatalf("GetAsset error: %v", err)
	}
	if asset != nil {
		t.Fatalf("expected nil asset, got %+v", asset)
	}
}

func TestEnvelopeSaveAssetInsertVsUpdate(t *testing.T) {
	var sawAssetID any
	ts := envelopeServer(t, "/db", "insert_asset_details", func(action map[string]any) {
		sawAssetID = action["asset_id"]
	}, http.StatusOK, map[string]any{"record": map[string]any{"asset_id": 5, "job_id": 7, "name": "Pump"}})
	defer ts.Close()

	client := newTestEnvelope(ts.URL)
	if _, err := client.SaveAsset(context.Background(), &domain.Asset{JobID: 7, Name: "Pump"}); err != nil {
		t.Fatalf("SaveAsset insert error: %v", err)
	}
	if sawAssetID != nil {
		t.Fatalf("insert must not carry asset_id, got %v", sawAssetID)
	}

	if _, err := client.SaveAsset(context.Background(), &domain.Asset{ID: 5, JobID: 7, Name: "Pump"}); err != nil {
		t.Fatalf("SaveAsset update error: %v", err)
	}
	if sawAssetID == nil {
		t.Fatalf("update must carry asset_id")
	}
}

func TestEnvelopeUpdateJobWireFlag(t *testing.T) {
	ts := envelopeServer(t, "/db", "update_job", func(action map[string]any) {
		if action["is_reviewed_accurate"] != float64(1) {
			t.Fatalf("sign-off flag not 1: %v", action["is_reviewed_accurate"])
		}
		if action["status"] != "submitted" {
			t.Fatalf("status not submitted: %v", action["status"])
		}
	}, http.StatusOK, map[string]any{"record": map[string]any{"job_id": 42, "status": "submitted"}})
	defer ts.Close()

	err := newTestEnvelope(ts.URL).UpdateJob(context.Background(), JobUpdate{
		JobID:              42,
		Summary:            "Done",
		IsReviewedAccurate: true,
		Status:             domain.JobStatusSubmitted,
	})
	if err != nil {
		t.Fatalf("UpdateJob error: %v", err)
	}
}

func TestEnvelopeIdentifyAssetSentinel(t *testing.T) {
	ts := envelopeServer(t, "/ai", "identify_asset", nil, http.StatusOK, map[string]any{"data": "error"})
	defer ts.Close()

	_, err := newTestEnvelope(ts.URL).IdentifyAsset(context.Background(), 7)
	if !errors.Is(err, ErrNotIdentified) {
		t.Fatalf("expected ErrNotIdentified, got %v", err)
	}
}

func TestEnvelopeIdentifyAsset(t *testing.T) {
	ts := envelopeServer(t, "/ai", "identify_asset", nil, http.StatusOK, map[string]any{"data": map[string]any{
		"name": "Boiler", "asset_condition": "Fair",
	}})
	defer ts.Close()

	fields, err := newTestEnvelope(ts.URL).IdentifyAsset(context.Background(), 7)
	if err != nil {
		t.Fatalf("IdentifyAsset error: %v", err)
	}
	if fields.Name != "Boiler" || fields.Condition != "Fair" {
		t.Fatalf("unexpected fields: %+v", fields)
	}
}

func TestEnvelopeJobSummary(t *testing.T) {
	ts := envelopeServer(t, "/ai", "job_summary", func(action map[string]any) {
		if action["text"] != "replaced filter" {
			t.Fatalf("text not sent: %v", action["text"])
		}
	}, http.StatusOK, map[string]any{"data": map[string]any{"summary": "Filter replaced."}})
	defer ts.Close()

	got, err := newTestEnvelope(ts.URL).JobSummary(context.Background(), 7, "replaced filter")
	if err != nil {
		t.Fatalf("JobSummary error: %v", err)
	}
	if got != "Filter replaced." {
		t.Fatalf("unexpected summary: %q", got)
	}
}
