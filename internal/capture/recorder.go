package capture

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"
)

// QuickNoteCeiling is the fixed recording length used by quick-note contexts
// that auto-stop instead of waiting for an explicit stop.
const QuickNoteCeiling = 5 * time.Second

type recording struct {
	stream AudioStream
	done   chan struct{}

	mu     sync.Mutex
	chunks [][]byte
	err    error
}

func (r *recording) collect() {
	defer close(r.done)
	for {
		chunk, err := r.stream.Chunk()
		if len(chunk) > 0 {
			r.mu.Lock()
			r.chunks = append(r.chunks, chunk)
			r.mu.Unlock()
		}
		if err != nil {
			if !errors.Is(err, io.EOF) {
				r.mu.Lock()
				r.err = err
				r.mu.Unlock()
			}
			return
		}
	}
}

// StartRecording opens the microphone and begins accumulating audio chunks.
// The adapter stays busy until StopRecording is called.
func (a *Adapter) StartRecording(ctx context.Context) error {
	_, err := a.startRecording(ctx)
	return err
}

func (a *Adapter) startRecording(ctx context.Context) (*recording, error) {
	if err := a.acquire(); err != nil {
		return nil, err
	}

	stream, err := a.mic.Open(ctx)
	if err != nil {
		a.release()
		a.logger.Error().Err(err).Msg("microphone access failed")
		return nil, fmt.Errorf("%w: %v", ErrHardware, err)
	}

	rec := &recording{stream: stream, done: make(chan struct{})}
	go rec.collect()
	a.mu.Lock()
	a.rec = rec
	a.mu.Unlock()
	return rec, nil
}

// StopRecording stops the active recording, assembles the accumulated chunks
// into a single clip and returns it as raw base64. Calling it with no active
// recording returns ErrNoRecording.
func (a *Adapter) StopRecording() (string, error) {
	a.mu.Lock()
	rec := a.rec
	a.rec = nil
	a.mu.Unlock()
	if rec == nil {
		a.logger.Warn().Msg("stop requested with no active recording")
		return "", ErrNoRecording
	}
	defer a.release()

	_ = rec.stream.Close()
	<-rec.done

	rec.mu.Lock()
	defer rec.mu.Unlock()
	if rec.err != nil {
		return "", fmt.Errorf("read audio: %w", rec.err)
	}

	var blob bytes.Buffer
	for _, chunk := range rec.chunks {
		blob.Write(chunk)
	}
	return base64.StdEncoding.EncodeToString(blob.Bytes()), nil
}

// RecordQuickNote records for at most QuickNoteCeiling and stops on its own.
// A stream that ends earlier or a cancelled context stops the recording right
// away; the microphone is released on every path.
func (a *Adapter) RecordQuickNote(ctx context.Context) (string, error) {
	rec, err := a.startRecording(ctx)
	if err != nil {
		return "", err
	}

	timer := time.NewTimer(QuickNoteCeiling)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-rec.done:
	case <-ctx.Done():
		_, _ = a.StopRecording()
		return "", ctx.Err()
	}
	return a.StopRecording()
}
