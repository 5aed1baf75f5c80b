package session

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/aegisfield/fieldops/internal/capture"
	"github.com/aegisfield/fieldops/internal/domain"
	"github.com/aegisfield/fieldops/internal/transport"
)

// NoteLog owns the voice note collection for one (job, type) pair. Notes are
// append-only from the client's perspective; there is no delete.
type NoteLog struct {
	client  transport.Client
	adapter *capture.Adapter
	logger  zerolog.Logger

	jobID       int64
	typ         domain.NoteType
	fetchOnLoad bool

	mu      sync.Mutex
	pending bool
	notes   []domain.VoiceNote
}

// NoteLogConfig configures a voice note session.
type NoteLogConfig struct {
	JobID       int64
	Type        domain.NoteType
	FetchOnLoad bool
	Logger      zerolog.Logger
}

// NewNoteLog binds a note log to a job, a note type and a transport.
func NewNoteLog(client transport.Client, adapter *capture.Adapter, cfg NoteLogConfig) *NoteLog {
	return &NoteLog{
		client:      client,
		adapter:     adapter,
		logger:      cfg.Logger,
		jobID:       cfg.JobID,
		typ:         cfg.Type,
		fetchOnLoad: cfg.FetchOnLoad,
	}
}

func (n *NoteLog) begin() error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.pending {
		return ErrBusy
	}
	n.pending = true
	return nil
}

func (n *NoteLog) end() {
	n.mu.Lock()
	n.pending = false
	n.mu.Unlock()
}

// Load replaces the local collection with the server's when fetch-on-load is
// enabled.
func (n *NoteLog) Load(ctx context.Context) error {
	if !n.fetchOnLoad {
		return nil
	}
	if err := n.begin(); err != nil {
		return err
	}
	defer n.end()

	notes, err := n.client.GetVoiceNotes(ctx, n.jobID, n.typ)
	if err != nil {
		n.logger.Error().Err(err).Int64("job_id", n.jobID).Msg("failed to load voice notes")
		n.mu.Lock()
		n.notes = nil
		n.mu.Unlock()
		return err
	}
	n.mu.Lock()
	n.notes = notes
	n.mu.Unlock()
	return nil
}

// StartRecording begins a full-control recording on the adapter.
func (n *NoteLog) StartRecording(ctx context.Context) error {
	return n.adapter.StartRecording(ctx)
}

// StopAndUpload stops the active recording, uploads the clip and appends the
// stored note once the server confirms it.
func (n *NoteLog) StopAndUpload(ctx context.Context) (*domain.VoiceNote, error) {
	if err := n.begin(); err != nil {
		return nil, err
	}
	defer n.end()

	payload, err := n.adapter.StopRecording()
	if err != nil {
		return nil, err
	}
	return n.upload(ctx, payload)
}

// RecordQuickNote records with the fixed auto-stop ceiling and uploads the
// result. Used by quick-note contexts that skip the explicit stop.
func (n *NoteLog) RecordQuickNote(ctx context.Context) (*domain.VoiceNote, error) {
	if err := n.begin(); err != nil {
		return nil, err
	}
	defer n.end()

	payload, err := n.adapter.RecordQuickNote(ctx)
	if err != nil {
		return nil, err
	}
	return n.upload(ctx, payload)
}

func (n *NoteLog) upload(ctx context.Context, payload string) (*domain.VoiceNote, error) {
	note, err := n.client.AddVoiceNote(ctx, n.jobID, n.typ, payload)
	if err != nil {
		n.logger.Error().Err(err).Int64("job_id", n.jobID).Msg("failed to upload voice note")
		return nil, err
	}
	n.mu.Lock()
	n.notes = append(n.notes, *note)
	n.mu.Unlock()
	return note, nil
}

// Notes returns a copy of the collection in capture order.
func (n *NoteLog) Notes() []domain.VoiceNote {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]domain.VoiceNote, len(n.notes))
	copy(out, n.notes)
	return out
}
