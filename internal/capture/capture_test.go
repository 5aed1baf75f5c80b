package capture

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"image/jpeg"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func newTestAdapter() *Adapter {
	camera := &SyntheticCamera{Seed: "test", Width: 64, Height: 48}
	mic := &SyntheticMicrophone{Seed: "test", Chunks: 3}
	return NewAdapter(camera, mic, zerolog.New(io.Discard))
}

// blockingMicrophone keeps Chunk blocked until the stream is closed, standing
// in for a live microphone that never runs out of audio on its own.
type blockingMicrophone struct{}

func (blockingMicrophone) Open(ctx context.Context) (AudioStream, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &blockingAudio{unblock: make(chan struct{})}, nil
}

type blockingAudio struct {
	once    sync.Once
	unblock chan struct{}
}

func (s *blockingAudio) Chunk() ([]byte, error) {
	<-s.unblock
	return nil, io.EOF
}

func (s *blockingAudio) Close() error {
	s.once.Do(func() { close(s.unblock) })
	return nil
}

func TestCapturePhotoEncodesJPEG(t *testing.T) {
	adapter := newTestAdapter()

	payload, err := adapter.CapturePhoto(context.Background())
	if err != nil {
		t.Fatalf("CapturePhoto returned error: %v", err)
	}
	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		t.Fatalf("payload is not valid base64: %v", err)
	}
	cfg, err := jpeg.DecodeConfig(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("payload is not a JPEG: %v", err)
	}
	if cfg.Width != 64 || cfg.Height != 48 {
		t.Fatalf("frame dimensions = %dx%d, want 64x48", cfg.Width, cfg.Height)
	}
}

func TestCapturePhotoCancelledContext(t *testing.T) {
	adapter := newTestAdapter()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := adapter.CapturePhoto(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	// The guard must have been released on the cancellation path.
	if _, err := adapter.CapturePhoto(context.Background()); err != nil {
		t.Fatalf("adapter left busy after cancellation: %v", err)
	}
}

func TestRecordingRoundTrip(t *testing.T) {
	adapter := newTestAdapter()

	if err := adapter.StartRecording(context.Background()); err != nil {
		t.Fatalf("StartRecording returned error: %v", err)
	}
	payload, err := adapter.StopRecording()
	if err != nil {
		t.Fatalf("StopRecording returned error: %v", err)
	}
	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		t.Fatalf("payload is not valid base64: %v", err)
	}
	if len(raw) == 0 {
		t.Fatal("expected accumulated audio chunks, got empty clip")
	}
}

func TestStopRecordingWithoutActive(t *testing.T) {
	adapter := newTestAdapter()
	if _, err := adapter.StopRecording(); !errors.Is(err, ErrNoRecording) {
		t.Fatalf("err = %v, want ErrNoRecording", err)
	}
}

func TestSingleActiveStream(t *testing.T) {
	adapter := newTestAdapter()

	if err := adapter.StartRecording(context.Background()); err != nil {
		t.Fatalf("StartRecording returned error: %v", err)
	}
	if _, err := adapter.CapturePhoto(context.Background()); !errors.Is(err, ErrStreamBusy) {
		t.Fatalf("err = %v, want ErrStreamBusy", err)
	}
	if err := adapter.StartRecording(context.Background()); !errors.Is(err, ErrStreamBusy) {
		t.Fatalf("second StartRecording err = %v, want ErrStreamBusy", err)
	}

	if _, err := adapter.StopRecording(); err != nil {
		t.Fatalf("StopRecording returned error: %v", err)
	}
	// Slot free again.
	if _, err := adapter.CapturePhoto(context.Background()); err != nil {
		t.Fatalf("CapturePhoto after stop returned error: %v", err)
	}
}

func TestQuickNoteHonorsCancellation(t *testing.T) {
	camera := &SyntheticCamera{Seed: "test", Width: 64, Height: 48}
	adapter := NewAdapter(camera, blockingMicrophone{}, zerolog.New(io.Discard))
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := adapter.RecordQuickNote(ctx)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("err = %v, want context.DeadlineExceeded", err)
	}
	if elapsed := time.Since(start); elapsed >= QuickNoteCeiling {
		t.Fatalf("quick note did not stop early, took %v", elapsed)
	}
	// Microphone released.
	if err := adapter.StartRecording(context.Background()); err != nil {
		t.Fatalf("adapter left busy after cancelled quick note: %v", err)
	}
	if _, err := adapter.StopRecording(); err != nil {
		t.Fatalf("StopRecording returned error: %v", err)
	}
}

func TestQuickNoteStopsWhenStreamEnds(t *testing.T) {
	adapter := newTestAdapter()

	start := time.Now()
	payload, err := adapter.RecordQuickNote(context.Background())
	if err != nil {
		t.Fatalf("RecordQuickNote returned error: %v", err)
	}
	if payload == "" {
		t.Fatal("expected accumulated audio chunks")
	}
	if elapsed := time.Since(start); elapsed >= QuickNoteCeiling {
		t.Fatalf("quick note waited out the ceiling after the stream ended, took %v", elapsed)
	}
	// Microphone released.
	if err := adapter.StartRecording(context.Background()); err != nil {
		t.Fatalf("adapter left busy after quick note: %v", err)
	}
	if _, err := adapter.StopRecording(); err != nil {
		t.Fatalf("StopRecording returned error: %v", err)
	}
}

func TestRecordingStoppedFromAnotherGoroutine(t *testing.T) {
	adapter := newTestAdapter()
	if err := adapter.StartRecording(context.Background()); err != nil {
		t.Fatalf("StartRecording returned error: %v", err)
	}

	type result struct {
		payload string
		err     error
	}
	resc := make(chan result, 1)
	go func() {
		payload, err := adapter.StopRecording()
		resc <- result{payload, err}
	}()

	res := <-resc
	if res.err != nil {
		t.Fatalf("StopRecording returned error: %v", res.err)
	}
	if res.payload == "" {
		t.Fatal("expected accumulated audio chunks")
	}
	// Slot free again.
	if _, err := adapter.CapturePhoto(context.Background()); err != nil {
		t.Fatalf("CapturePhoto after stop returned error: %v", err)
	}
}
