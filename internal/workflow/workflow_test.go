package workflow

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"github.com/aegisfield/fieldops/internal/domain"
	"github.com/aegisfield/fieldops/internal/transport"
)

type fakeClient struct {
	getAsset        func(jobID int64) (*domain.Asset, error)
	saveAsset       func(asset *domain.Asset) (*domain.Asset, error)
	updateJob       func(update transport.JobUpdate) error
	addSafetyReport func(jobID int64, description string) error
	identifyAsset   func(jobID int64) (*transport.IdentifiedAsset, error)
	jobSummary      func(jobID int64, text string) (string, error)

	updates []transport.JobUpdate
}

func (f *fakeClient) GetJob(context.Context, int64) (*domain.Job, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeClient) GetJobByCode(context.Context, string) (*domain.Job, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeClient) GetImages(context.Context, int64, domain.ImageType) ([]domain.Image, error) {
	return nil, nil
}

func (f *fakeClient) AddImage(context.Context, int64, domain.ImageType, string) (*domain.Image, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeClient) DeleteImage(context.Context, int64) error { return errors.New("not implemented") }

func (f *fakeClient) GetVoiceNotes(context.Context, int64, domain.NoteType) ([]domain.VoiceNote, error) {
	return nil, nil
}

func (f *fakeClient) AddVoiceNote(context.Context, int64, domain.NoteType, string) (*domain.VoiceNote, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeClient) GetAsset(_ context.Context, jobID int64) (*domain.Asset, error) {
	if f.getAsset == nil {
		return nil, nil
	}
	return f.getAsset(jobID)
}

func (f *fakeClient) SaveAsset(_ context.Context, asset *domain.Asset) (*domain.Asset, error) {
	if f.saveAsset == nil {
		return nil, errors.New("not implemented")
	}
	return f.saveAsset(asset)
}

func (f *fakeClient) UpdateJob(_ context.Context, update transport.JobUpdate) error {
	f.updates = append(f.updates, update)
	if f.updateJob == nil {
		return nil
	}
	return f.updateJob(update)
}

func (f *fakeClient) AddSafetyReport(_ context.Context, jobID int64, description string) error {
	if f.addSafetyReport == nil {
		return errors.New("not implemented")
	}
	return f.addSafetyReport(jobID, description)
}

func (f *fakeClient) IdentifyAsset(_ context.Context, jobID int64) (*transport.IdentifiedAsset, error) {
	if f.identifyAsset == nil {
		return nil, errors.New("not implemented")
	}
	return f.identifyAsset(jobID)
}

func (f *fakeClient) JobSummary(_ context.Context, jobID int64, text string) (string, error) {
	if f.jobSummary == nil {
		return "", errors.New("not implemented")
	}
	return f.jobSummary(jobID, text)
}

var _ transport.Client = (*fakeClient)(nil)

type staticCounter int

func (c staticCounter) Count() int { return int(c) }

func TestSurveyIdentifyRequiresPhotos(t *testing.T) {
	called := false
	client := &fakeClient{
		identifyAsset: func(int64) (*transport.IdentifiedAsset, error) {
			called = true
			return nil, nil
		},
	}
	survey := NewSurvey(client, staticCounter(0), 7, zerolog.Nop())

	if err := survey.Identify(context.Background()); !errors.Is(err, ErrNoPhotos) {
		t.Fatalf("expected ErrNoPhotos, got %v", err)
	}
	if called {
		t.Fatalf("identify must not reach the server without photos")
	}
}

func TestSurveyIdentifyAppliesDefaults(t *testing.T) {
	client := &fakeClient{
		identifyAsset: func(int64) (*transport.IdentifiedAsset, error) {
			return &transport.IdentifiedAsset{Name: "Boiler"}, nil
		},
	}
	survey := NewSurvey(client, staticCounter(1), 7, zerolog.Nop())

	if err := survey.Identify(context.Background()); err != nil {
		t.Fatalf("Identify error: %v", err)
	}
	asset := survey.Asset()
	if asset.Name != "Boiler" {
		t.Fatalf("unexpected name: %q", asset.Name)
	}
	if asset.Status != domain.AssetStatusIdentified {
		t.Fatalf("unexpected status: %q", asset.Status)
	}
	if asset.Details.Category != "Unknown" || asset.Details.Manufacturer != "Unknown" || asset.Details.Model != "Unknown" {
		t.Fatalf("missing Unknown defaults: %+v", asset.Details)
	}
	if asset.Details.Condition != "Condition not available" {
		t.Fatalf("unexpected condition default: %q", asset.Details.Condition)
	}
	if asset.Details.Description != "Description not available" {
		t.Fatalf("unexpected description default: %q", asset.Details.Description)
	}
	if asset.Details.Metadata == nil || len(asset.Details.Metadata) != 0 {
		t.Fatalf("metadata must be empty, not nil: %+v", asset.Details.Metadata)
	}
}

func TestSurveyIdentifyFailureKeepsForm(t *testing.T) {
	fail := false
	client := &fakeClient{
		identifyAsset: func(int64) (*transport.IdentifiedAsset, error) {
			if fail {
				return nil, transport.ErrNotIdentified
			}
			return &transport.IdentifiedAsset{Name: "Boiler", Category: "Heating"}, nil
		},
	}
	survey := NewSurvey(client, staticCounter(1), 7, zerolog.Nop())
	if err := survey.Identify(context.Background()); err != nil {
		t.Fatalf("first Identify error: %v", err)
	}

	fail = true
	if err := survey.Identify(context.Background()); !errors.Is(err, transport.ErrNotIdentified) {
		t.Fatalf("expected ErrNotIdentified, got %v", err)
	}
	if survey.State() != SurveyIdentified {
		t.Fatalf("state must return to identified, got %s", survey.State())
	}
	if asset := survey.Asset(); asset == nil || asset.Name != "Boiler" {
		t.Fatalf("existing form must be untouched: %+v", asset)
	}
}

func TestSurveyIdentifyRejectedWhileInFlight(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	calls := 0
	client := &fakeClient{
		identifyAsset: func(int64) (*transport.IdentifiedAsset, error) {
			calls++
			close(started)
			<-release
			return &transport.IdentifiedAsset{Name: "Boiler"}, nil
		},
	}
	survey := NewSurvey(client, staticCounter(1), 7, zerolog.Nop())

	errc := make(chan error, 1)
	go func() { errc <- survey.Identify(context.Background()) }()
	<-started

	if err := survey.Identify(context.Background()); !errors.Is(err, ErrBusy) {
		t.Fatalf("expected ErrBusy, got %v", err)
	}

	close(release)
	if err := <-errc; err != nil {
		t.Fatalf("first Identify error: %v", err)
	}
	if calls != 1 {
		t.Fatalf("rejected identify must not reach the server, calls=%d", calls)
	}
}

func TestSurveyReidentifyKeepsAssetID(t *testing.T) {
	var saved *domain.Asset
	client := &fakeClient{
		getAsset: func(int64) (*domain.Asset, error) {
			return &domain.Asset{ID: 5, JobID: 7, Name: "Old Pump", Status: "Installed"}, nil
		},
		identifyAsset: func(int64) (*transport.IdentifiedAsset, error) {
			return &transport.IdentifiedAsset{Name: "New Pump"}, nil
		},
		saveAsset: func(asset *domain.Asset) (*domain.Asset, error) {
			saved = asset
			return asset, nil
		},
	}
	survey := NewSurvey(client, staticCounter(1), 7, zerolog.Nop())
	if err := survey.LoadExisting(context.Background()); err != nil {
		t.Fatalf("LoadExisting error: %v", err)
	}
	if err := survey.Identify(context.Background()); err != nil {
		t.Fatalf("Identify error: %v", err)
	}
	if err := survey.Save(context.Background(), domain.AssetStatusServiced); err != nil {
		t.Fatalf("Save error: %v", err)
	}
	if saved.ID != 5 {
		t.Fatalf("re-identified asset must keep its identifier for update, got %d", saved.ID)
	}
	if saved.Status != domain.AssetStatusServiced {
		t.Fatalf("unexpected status: %q", saved.Status)
	}
}

func TestSurveySaveRejectsUnknownStatus(t *testing.T) {
	client := &fakeClient{
		identifyAsset: func(int64) (*transport.IdentifiedAsset, error) {
			return &transport.IdentifiedAsset{Name: "Boiler"}, nil
		},
	}
	survey := NewSurvey(client, staticCounter(1), 7, zerolog.Nop())
	if err := survey.Identify(context.Background()); err != nil {
		t.Fatalf("Identify error: %v", err)
	}
	if err := survey.Save(context.Background(), "Broken"); !errors.Is(err, domain.ErrInvalidStatus) {
		t.Fatalf("expected ErrInvalidStatus, got %v", err)
	}
}

func TestSurveyLoadExistingDefaults(t *testing.T) {
	client := &fakeClient{
		getAsset: func(int64) (*domain.Asset, error) {
			return &domain.Asset{ID: 5, JobID: 7, Name: "Pump"}, nil
		},
	}
	survey := NewSurvey(client, staticCounter(0), 7, zerolog.Nop())
	if err := survey.LoadExisting(context.Background()); err != nil {
		t.Fatalf("LoadExisting error: %v", err)
	}
	asset := survey.Asset()
	if asset.Details.Category != "Unknown" || asset.Status != "Unknown" {
		t.Fatalf("loaded record must default missing fields to Unknown: %+v", asset)
	}
}

func TestReportSubmitGatedOnSignOff(t *testing.T) {
	client := &fakeClient{}
	job := &domain.Job{ID: 42, Status: domain.JobStatusPending}
	report := NewReport(client, job, nil, zerolog.Nop())

	if err := report.Submit(context.Background()); !errors.Is(err, ErrSignOffRequired) {
		t.Fatalf("expected ErrSignOffRequired, got %v", err)
	}
	if len(client.updates) != 0 {
		t.Fatalf("ungated submit must not reach the server")
	}
}

func TestReportSubmitEndToEnd(t *testing.T) {
	client := &fakeClient{}
	job := &domain.Job{ID: 42, Status: domain.JobStatusPending}
	navigated := false
	nav := NavigatorFunc(func() { navigated = true })
	report := NewReport(client, job, nav, zerolog.Nop())

	report.SetSummary("Done")
	report.SetSignOff(true)
	if err := report.Submit(context.Background()); err != nil {
		t.Fatalf("Submit error: %v", err)
	}

	if len(client.updates) != 1 {
		t.Fatalf("expected exactly one update, got %d", len(client.updates))
	}
	got := client.updates[0]
	want := transport.JobUpdate{JobID: 42, Summary: "Done", IsReviewedAccurate: true, Status: domain.JobStatusSubmitted}
	if got != want {
		t.Fatalf("unexpected update payload: %+v", got)
	}
	if !navigated {
		t.Fatalf("successful submit must navigate to the job list")
	}
	if job.Status != domain.JobStatusSubmitted {
		t.Fatalf("job status not updated: %s", job.Status)
	}
}

func TestReportSubmitRejectedWhileInFlight(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	client := &fakeClient{
		updateJob: func(transport.JobUpdate) error {
			close(started)
			<-release
			return nil
		},
	}
	job := &domain.Job{ID: 42, Status: domain.JobStatusPending}
	report := NewReport(client, job, nil, zerolog.Nop())
	report.SetSignOff(true)

	errc := make(chan error, 1)
	go func() { errc <- report.Submit(context.Background()) }()
	<-started

	if err := report.Submit(context.Background()); !errors.Is(err, ErrBusy) {
		t.Fatalf("expected ErrBusy, got %v", err)
	}

	close(release)
	if err := <-errc; err != nil {
		t.Fatalf("first Submit error: %v", err)
	}
	if len(client.updates) != 1 {
		t.Fatalf("rejected submit must not reach the server, updates=%d", len(client.updates))
	}
}

func TestReportSaveDraftPreservesStatus(t *testing.T) {
	client := &fakeClient{}
	job := &domain.Job{ID: 42, Status: domain.JobStatusDraft}
	report := NewReport(client, job, nil, zerolog.Nop())

	report.SetSummary("In progress")
	if err := report.SaveDraft(context.Background()); err != nil {
		t.Fatalf("SaveDraft error: %v", err)
	}
	if len(client.updates) != 1 {
		t.Fatalf("expected one update, got %d", len(client.updates))
	}
	if client.updates[0].Status != domain.JobStatusDraft {
		t.Fatalf("draft must preserve the status verbatim, got %s", client.updates[0].Status)
	}
	if client.updates[0].IsReviewedAccurate {
		t.Fatalf("draft must carry the unchecked sign-off flag")
	}
}

func TestReportSubmitFailureNoNavigation(t *testing.T) {
	client := &fakeClient{
		updateJob: func(transport.JobUpdate) error {
			return &transport.Error{Op: "update_job", Status: 500, Message: "boom"}
		},
	}
	job := &domain.Job{ID: 42, Status: domain.JobStatusPending}
	navigated := false
	report := NewReport(client, job, NavigatorFunc(func() { navigated = true }), zerolog.Nop())

	report.SetSignOff(true)
	if err := report.Submit(context.Background()); err == nil {
		t.Fatalf("expected submit error")
	}
	if navigated {
		t.Fatalf("failed submit must not navigate")
	}
	if job.Status == domain.JobStatusSubmitted {
		t.Fatalf("failed submit must not flip the local status")
	}
}

func TestReportGenerateSummary(t *testing.T) {
	client := &fakeClient{
		jobSummary: func(jobID int64, text string) (string, error) {
			if jobID != 42 || text != "Replace filter" {
				t.Fatalf("unexpected summary args: %d %q", jobID, text)
			}
			return "Filter replaced.", nil
		},
	}
	job := &domain.Job{ID: 42, Description: "Replace filter", Status: domain.JobStatusPending}
	report := NewReport(client, job, nil, zerolog.Nop())

	if err := report.GenerateSummary(context.Background()); err != nil {
		t.Fatalf("GenerateSummary error: %v", err)
	}
	if report.Summary() != "Filter replaced." {
		t.Fatalf("unexpected summary: %q", report.Summary())
	}
}

func TestReportGenerateSummaryFailureKeepsText(t *testing.T) {
	client := &fakeClient{
		jobSummary: func(int64, string) (string, error) {
			return "", &transport.Error{Op: "job_summary", Status: 500, Message: "boom"}
		},
	}
	job := &domain.Job{ID: 42, Description: "Replace filter", Status: domain.JobStatusPending}
	report := NewReport(client, job, nil, zerolog.Nop())
	report.SetSummary("hand-written")

	if err := report.GenerateSummary(context.Background()); err == nil {
		t.Fatalf("expected generate error")
	}
	if report.Summary() != "hand-written" {
		t.Fatalf("failed generation must leave the summary untouched, got %q", report.Summary())
	}
}

func TestReportGenerateSummaryRequiresDescription(t *testing.T) {
	job := &domain.Job{ID: 42, Status: domain.JobStatusPending}
	report := NewReport(&fakeClient{}, job, nil, zerolog.Nop())
	if err := report.GenerateSummary(context.Background()); !errors.Is(err, ErrNoDescription) {
		t.Fatalf("expected ErrNoDescription, got %v", err)
	}
}

func TestSafetySubmitValidation(t *testing.T) {
	reached := false
	client := &fakeClient{
		addSafetyReport: func(int64, string) error {
			reached = true
			return nil
		},
	}

	safety := NewSafety(client, staticCounter(1), 7, zerolog.Nop())
	if err := safety.Submit(context.Background(), ""); !errors.Is(err, ErrDescriptionRequired) {
		t.Fatalf("expected ErrDescriptionRequired, got %v", err)
	}

	safety = NewSafety(client, staticCounter(0), 7, zerolog.Nop())
	if err := safety.Submit(context.Background(), "exposed wiring"); !errors.Is(err, ErrNoPhotos) {
		t.Fatalf("expected ErrNoPhotos, got %v", err)
	}
	if reached {
		t.Fatalf("invalid report must not reach the server")
	}

	safety = NewSafety(client, staticCounter(1), 7, zerolog.Nop())
	if err := safety.Submit(context.Background(), "exposed wiring"); err != nil {
		t.Fatalf("Submit error: %v", err)
	}
	if !reached {
		t.Fatalf("valid report must reach the server")
	}
}
