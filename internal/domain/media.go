package domain

import (
	"fmt"
	"time"
)

// ImageType tags an image with the capture context it belongs to.
type ImageType string

const (
	ImageTypeJob    ImageType = "job"
	ImageTypeSafety ImageType = "safety"
	ImageTypeAsset  ImageType = "asset"
)

// ParseImageType maps a wire string onto the image type enum.
func ParseImageType(s string) (ImageType, error) {
	switch ImageType(s) {
	case ImageTypeJob, ImageTypeSafety, ImageTypeAsset:
		return ImageType(s), nil
	}
	return "", fmt.Errorf("%w: image type %q", ErrInvalidStatus, s)
}

// MaxImagesPerType caps how many images a job may hold per type. Enforced
// client-side before the camera is even opened.
const MaxImagesPerType = 6

// Image is a captured still frame, stored as raw base64 JPEG without the
// data-URI prefix.
type Image struct {
	ID        int64
	JobID     int64
	Type      ImageType
	Data      string
	CreatedAt time.Time
}

// NoteType tags a voice note with the workflow it was recorded for.
type NoteType string

const (
	NoteTypeGeneral NoteType = "general"
	NoteTypeReport  NoteType = "report"
	NoteTypeSafety  NoteType = "safety"
)

// ParseNoteType maps a wire string onto the note type enum.
func ParseNoteType(s string) (NoteType, error) {
	switch NoteType(s) {
	case NoteTypeGeneral, NoteTypeReport, NoteTypeSafety:
		return NoteType(s), nil
	}
	return "", fmt.Errorf("%w: note type %q", ErrInvalidStatus, s)
}

// VoiceNote is a recorded audio clip, stored as raw base64. Append-only from
// the client's perspective.
type VoiceNote struct {
	ID        int64
	JobID     int64
	Type      NoteType
	Data      string
	CreatedAt time.Time
}

// SafetyReport is a write-only hazard description filed against a job.
type SafetyReport struct {
	ID          int64
	JobID       int64
	Description string
	CreatedAt   time.Time
}
