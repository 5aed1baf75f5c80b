package server

import (
	"context"
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"

	"github.com/aegisfield/fieldops/internal/ai"
	"github.com/aegisfield/fieldops/internal/domain"
	"github.com/aegisfield/fieldops/internal/store"
	filestore "github.com/aegisfield/fieldops/internal/store/file"
	"github.com/aegisfield/fieldops/internal/transport"
)

func newTestServer(t *testing.T, collaborator ai.Collaborator) (*httptest.Server, store.Store) {
	t.Helper()
	st, err := filestore.New(t.TempDir())
	if err != nil {
		t.Fatalf("file store error: %v", err)
	}
	if collaborator == nil {
		collaborator = &ai.Static{}
	}
	app := NewApp(st, collaborator, "1234", zerolog.Nop())
	ts := httptest.NewServer(NewRouter(app, nil))
	t.Cleanup(ts.Close)
	return ts, st
}

// clients returns both transports bound to the same backend so every scenario
// can assert surface parity.
func clients(url string) (*transport.Envelope, *transport.REST) {
	envelope := transport.NewEnvelope(transport.EnvelopeOptions{BaseURL: url, OrganisationID: "1234", Logger: zerolog.Nop()})
	rest := transport.NewREST(transport.RESTOptions{BaseURL: url, OrganisationID: "1234", Logger: zerolog.Nop()})
	return envelope, rest
}

func taskDescriptions(t *testing.T, st store.Store, jobID int64) []string {
	t.Helper()
	tasks, err := st.ListTasks(context.Background(), jobID)
	if err != nil {
		t.Fatalf("ListTasks error: %v", err)
	}
	out := make([]string, 0, len(tasks))
	for _, task := range tasks {
		out = append(out, task.Description)
	}
	return out
}

func hasTask(descriptions []string, want string) bool {
	for _, d := range descriptions {
		if d == want {
			return true
		}
	}
	return false
}

func TestJobLifecycleOverBothSurfaces(t *testing.T) {
	ts, _ := newTestServer(t, nil)
	envelope, rest := clients(ts.URL)
	ctx := context.Background()

	created, err := envelope.CreateJob(ctx, "JOB-1", "Replace filter")
	if err != nil {
		t.Fatalf("CreateJob error: %v", err)
	}
	if created.ID == 0 || created.Status != domain.JobStatusPending {
		t.Fatalf("unexpected created job: %+v", created)
	}

	fromEnvelope, err := envelope.GetJobByCode(ctx, "JOB-1")
	if err != nil {
		t.Fatalf("envelope GetJobByCode error: %v", err)
	}
	fromREST, err := rest.GetJobByCode(ctx, "JOB-1")
	if err != nil {
		t.Fatalf("rest GetJobByCode error: %v", err)
	}
	if fromEnvelope.ID != fromREST.ID || fromEnvelope.Status != fromREST.Status {
		t.Fatalf("surface mismatch: %+v vs %+v", fromEnvelope, fromREST)
	}
}

func TestImageRoundTripParity(t *testing.T) {
	ts, _ := newTestServer(t, nil)
	envelope, rest := clients(ts.URL)
	ctx := context.Background()

	job, err := envelope.CreateJob(ctx, "JOB-1", "")
	if err != nil {
		t.Fatalf("CreateJob error: %v", err)
	}

	img, err := envelope.AddImage(ctx, job.ID, domain.ImageTypeJob, "aGVsbG8=")
	if err != nil {
		t.Fatalf("envelope AddImage error: %v", err)
	}
	if img.ID == 0 {
		t.Fatalf("image id not assigned")
	}

	restImages, err := rest.GetImages(ctx, job.ID, domain.ImageTypeJob)
	if err != nil {
		t.Fatalf("rest GetImages error: %v", err)
	}
	if len(restImages) != 1 || restImages[0].ID != img.ID || restImages[0].Data != "aGVsbG8=" {
		t.Fatalf("rest does not see the envelope upload: %+v", restImages)
	}

	if err := rest.DeleteImage(ctx, img.ID); err != nil {
		t.Fatalf("rest DeleteImage error: %v", err)
	}
	after, err := envelope.GetImages(ctx, job.ID, domain.ImageTypeJob)
	if err != nil {
		t.Fatalf("envelope GetImages error: %v", err)
	}
	if len(after) != 0 {
		t.Fatalf("image survived delete: %+v", after)
	}

	err = envelope.DeleteImage(ctx, img.ID)
	var terr *transport.Error
	if !errors.As(err, &terr) || terr.Status != 404 {
		t.Fatalf("double delete must be a 404 transport error, got %v", err)
	}
}

func TestVoiceNoteAudit(t *testing.T) {
	ts, st := newTestServer(t, nil)
	envelope, _ := clients(ts.URL)
	ctx := context.Background()

	job, err := envelope.CreateJob(ctx, "JOB-1", "")
	if err != nil {
		t.Fatalf("CreateJob error: %v", err)
	}
	if _, err := envelope.AddVoiceNote(ctx, job.ID, domain.NoteTypeReport, "YXVkaW8="); err != nil {
		t.Fatalf("AddVoiceNote error: %v", err)
	}

	if !hasTask(taskDescriptions(t, st, job.ID), "Created voice note of type report") {
		t.Fatalf("voice note audit task missing")
	}
}

func TestAssetSaveAudit(t *testing.T) {
	ts, st := newTestServer(t, nil)
	envelope, rest := clients(ts.URL)
	ctx := context.Background()

	job, err := envelope.CreateJob(ctx, "JOB-1", "")
	if err != nil {
		t.Fatalf("CreateJob error: %v", err)
	}

	if asset, err := envelope.GetAsset(ctx, job.ID); err != nil || asset != nil {
		t.Fatalf("expected no asset yet: %+v %v", asset, err)
	}

	inserted, err := envelope.SaveAsset(ctx, &domain.Asset{
		JobID:  job.ID,
		Name:   "Pump",
		Status: domain.AssetStatusIdentified,
	})
	if err != nil {
		t.Fatalf("SaveAsset insert error: %v", err)
	}
	if inserted.ID == 0 {
		t.Fatalf("asset id not assigned")
	}

	inserted.Status = domain.AssetStatusServiced
	if _, err := rest.SaveAsset(ctx, inserted); err != nil {
		t.Fatalf("SaveAsset update error: %v", err)
	}

	descriptions := taskDescriptions(t, st, job.ID)
	if !hasTask(descriptions, "Scanned Asset Pump") {
		t.Fatalf("insert audit missing: %v", descriptions)
	}
	if !hasTask(descriptions, "Updated Asset Pump") {
		t.Fatalf("update audit missing: %v", descriptions)
	}

	latest, err := rest.GetAsset(ctx, job.ID)
	if err != nil {
		t.Fatalf("GetAsset error: %v", err)
	}
	if latest.ID != inserted.ID || latest.Status != domain.AssetStatusServiced {
		t.Fatalf("unexpected asset: %+v", latest)
	}
}

func TestUpdateJobAudit(t *testing.T) {
	ts, st := newTestServer(t, nil)
	envelope, _ := clients(ts.URL)
	ctx := context.Background()

	job, err := envelope.CreateJob(ctx, "JOB-1", "")
	if err != nil {
		t.Fatalf("CreateJob error: %v", err)
	}

	// A pending completion task exists before submission.
	if _, err := st.AppendTask(ctx, job.ID, "Complete Job", domain.TaskStatusPending); err != nil {
		t.Fatalf("AppendTask error: %v", err)
	}

	err = envelope.UpdateJob(ctx, transport.JobUpdate{
		JobID: job.ID, Summary: "halfway", Status: domain.JobStatusDraft,
	})
	if err != nil {
		t.Fatalf("UpdateJob draft error: %v", err)
	}
	if !hasTask(taskDescriptions(t, st, job.ID), "Updated work progress") {
		t.Fatalf("draft audit missing")
	}

	err = envelope.UpdateJob(ctx, transport.JobUpdate{
		JobID: job.ID, Summary: "Done", IsReviewedAccurate: true, Status: domain.JobStatusSubmitted,
	})
	if err != nil {
		t.Fatalf("UpdateJob submit error: %v", err)
	}
	descriptions := taskDescriptions(t, st, job.ID)
	if hasTask(descriptions, "Complete Job") {
		t.Fatalf("submission must clear the Complete Job task: %v", descriptions)
	}
	if !hasTask(descriptions, "Completed work progress") {
		t.Fatalf("submission audit missing: %v", descriptions)
	}

	updated, err := envelope.GetJob(ctx, job.ID)
	if err != nil {
		t.Fatalf("GetJob error: %v", err)
	}
	if updated.Status != domain.JobStatusSubmitted || !updated.IsReviewedAccurate || updated.Summary != "Done" {
		t.Fatalf("unexpected job after submit: %+v", updated)
	}
}

func TestUpdateJobRejectsUnknownStatus(t *testing.T) {
	ts, _ := newTestServer(t, nil)
	envelope, _ := clients(ts.URL)
	ctx := context.Background()

	job, err := envelope.CreateJob(ctx, "JOB-1", "")
	if err != nil {
		t.Fatalf("CreateJob error: %v", err)
	}

	err = envelope.UpdateJob(ctx, transport.JobUpdate{JobID: job.ID, Status: domain.JobStatus("inprogress")})
	var terr *transport.Error
	if !errors.As(err, &terr) || terr.Status != 400 {
		t.Fatalf("expected 400 transport error, got %v", err)
	}
}

func TestSafetyReportAudit(t *testing.T) {
	ts, st := newTestServer(t, nil)
	_, rest := clients(ts.URL)
	ctx := context.Background()

	job, err := rest.CreateJob(ctx, "JOB-1", "")
	if err != nil {
		t.Fatalf("CreateJob error: %v", err)
	}
	if err := rest.AddSafetyReport(ctx, job.ID, "exposed wiring"); err != nil {
		t.Fatalf("AddSafetyReport error: %v", err)
	}
	if !hasTask(taskDescriptions(t, st, job.ID), "Reported Safety Issue") {
		t.Fatalf("safety audit missing")
	}
}

func TestIdentifyAssetOverBothSurfaces(t *testing.T) {
	ts, _ := newTestServer(t, nil)
	envelope, rest := clients(ts.URL)
	ctx := context.Background()

	job, err := envelope.CreateJob(ctx, "JOB-1", "")
	if err != nil {
		t.Fatalf("CreateJob error: %v", err)
	}
	if _, err := envelope.AddImage(ctx, job.ID, domain.ImageTypeAsset, "aGVsbG8="); err != nil {
		t.Fatalf("AddImage error: %v", err)
	}

	fromEnvelope, err := envelope.IdentifyAsset(ctx, job.ID)
	if err != nil {
		t.Fatalf("envelope IdentifyAsset error: %v", err)
	}
	fromREST, err := rest.IdentifyAsset(ctx, job.ID)
	if err != nil {
		t.Fatalf("rest IdentifyAsset error: %v", err)
	}
	if fromEnvelope.Name == "" || fromEnvelope.Name != fromREST.Name {
		t.Fatalf("identification mismatch: %+v vs %+v", fromEnvelope, fromREST)
	}
}

func TestIdentifyAssetSentinel(t *testing.T) {
	ts, _ := newTestServer(t, &ai.Static{Fail: true})
	envelope, _ := clients(ts.URL)
	ctx := context.Background()

	job, err := envelope.CreateJob(ctx, "JOB-1", "")
	if err != nil {
		t.Fatalf("CreateJob error: %v", err)
	}
	if _, err := envelope.AddImage(ctx, job.ID, domain.ImageTypeAsset, "aGVsbG8="); err != nil {
		t.Fatalf("AddImage error: %v", err)
	}

	if _, err := envelope.IdentifyAsset(ctx, job.ID); !errors.Is(err, transport.ErrNotIdentified) {
		t.Fatalf("expected ErrNotIdentified, got %v", err)
	}
}

func TestIdentifyAssetNoPhotosSentinel(t *testing.T) {
	ts, _ := newTestServer(t, nil)
	envelope, _ := clients(ts.URL)
	ctx := context.Background()

	job, err := envelope.CreateJob(ctx, "JOB-1", "")
	if err != nil {
		t.Fatalf("CreateJob error: %v", err)
	}
	if _, err := envelope.IdentifyAsset(ctx, job.ID); !errors.Is(err, transport.ErrNotIdentified) {
		t.Fatalf("expected ErrNotIdentified without photos, got %v", err)
	}
}

func TestJobSummaryOverBothSurfaces(t *testing.T) {
	ts, _ := newTestServer(t, nil)
	envelope, rest := clients(ts.URL)
	ctx := context.Background()

	job, err := envelope.CreateJob(ctx, "JOB-1", "Replace filter")
	if err != nil {
		t.Fatalf("CreateJob error: %v", err)
	}

	fromEnvelope, err := envelope.JobSummary(ctx, job.ID, "Replace filter")
	if err != nil {
		t.Fatalf("envelope JobSummary error: %v", err)
	}
	fromREST, err := rest.JobSummary(ctx, job.ID, "Replace filter")
	if err != nil {
		t.Fatalf("rest JobSummary error: %v", err)
	}
	if fromEnvelope == "" || fromEnvelope != fromREST {
		t.Fatalf("summary mismatch: %q vs %q", fromEnvelope, fromREST)
	}
}

func TestGetJobByCodeNotFound(t *testing.T) {
	ts, _ := newTestServer(t, nil)
	envelope, _ := clients(ts.URL)

	_, err := envelope.GetJobByCode(context.Background(), "NOPE")
	var terr *transport.Error
	if !errors.As(err, &terr) || terr.Status != 404 {
		t.Fatalf("expected 404 transport error, got %v", err)
	}
}
