package capture

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image/jpeg"
)

// jpegQuality matches the fixed 0.7 canvas encoding factor used historically.
const jpegQuality = 70

// CapturePhoto opens the camera, grabs one frame, encodes it as JPEG and
// returns the raw base64 payload. The stream is stopped before returning on
// every path; a cancelled context releases the camera and returns ctx.Err().
func (a *Adapter) CapturePhoto(ctx context.Context) (string, error) {
	if err := a.acquire(); err != nil {
		return "", err
	}
	defer a.release()

	stream, err := a.camera.Open(ctx)
	if err != nil {
		a.logger.Error().Err(err).Msg("camera access failed")
		return "", fmt.Errorf("%w: %v", ErrHardware, err)
	}
	defer stream.Close()

	if err := ctx.Err(); err != nil {
		return "", err
	}

	frame, err := stream.Frame()
	if err != nil {
		return "", fmt.Errorf("grab frame: %w", err)
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, frame, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return "", fmt.Errorf("encode frame: %w", err)
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}
