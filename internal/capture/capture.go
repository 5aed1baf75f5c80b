// Package capture bridges the device camera and microphone to encoded
// payloads ready for upload: JPEG stills and audio clips, both as raw base64
// without a data-URI prefix.
//
// The camera and microphone handles are exclusive. An Adapter allows at most
// one active stream at a time and guarantees the stream is released on every
// exit path, including cancellation and errors, so a hardware lock can never
// leak.
package capture

import (
	"context"
	"errors"
	"image"
	"sync"

	"github.com/rs/zerolog"
)

var (
	// ErrStreamBusy is returned when a capture is requested while another
	// stream (camera or microphone) is still active on the same adapter.
	ErrStreamBusy = errors.New("capture: another stream is active")
	// ErrNoRecording is returned by StopRecording when nothing is recording.
	ErrNoRecording = errors.New("capture: no recording in progress")
	// ErrHardware wraps camera/microphone access failures (permission denied
	// or absent hardware).
	ErrHardware = errors.New("capture: hardware access failed")
)

// Camera grants access to the rear-facing device camera.
type Camera interface {
	Open(ctx context.Context) (CameraStream, error)
}

// CameraStream is a live camera feed. Frame grabs the current frame; Close
// stops the feed and releases the hardware lock.
type CameraStream interface {
	Frame() (image.Image, error)
	Close() error
}

// Microphone grants access to the device microphone.
type Microphone interface {
	Open(ctx context.Context) (AudioStream, error)
}

// AudioStream delivers encoded audio chunks. Chunk blocks until data is
// available and returns io.EOF once the stream is closed.
type AudioStream interface {
	Chunk() ([]byte, error)
	Close() error
}

// Adapter owns device access for one capture session.
type Adapter struct {
	camera Camera
	mic    Microphone
	logger zerolog.Logger

	guard chan struct{}

	mu  sync.Mutex
	rec *recording
}

// NewAdapter wires an adapter to concrete devices.
func NewAdapter(camera Camera, mic Microphone, logger zerolog.Logger) *Adapter {
	a := &Adapter{camera: camera, mic: mic, logger: logger, guard: make(chan struct{}, 1)}
	a.guard <- struct{}{}
	return a
}

// acquire claims the single-stream slot without blocking.
func (a *Adapter) acquire() error {
	select {
	case <-a.guard:
		return nil
	default:
		return ErrStreamBusy
	}
}

func (a *Adapter) release() {
	a.guard <- struct{}{}
}
