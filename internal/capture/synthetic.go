package capture

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"io"
	"strconv"
	"sync"
)

// SyntheticCamera renders deterministic frames derived from a seed. It stands
// in for real hardware in development and tests so capture workflows can run
// end to end without a device.
type SyntheticCamera struct {
	Seed   string
	Width  int
	Height int
}

// Open returns a stream producing the synthetic frame.
func (c *SyntheticCamera) Open(ctx context.Context) (CameraStream, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	width, height := c.Width, c.Height
	if width <= 0 {
		width = 640
	}
	if height <= 0 {
		height = 480
	}
	return &syntheticStream{seed: deterministicSeed(c.Seed), width: width, height: height}, nil
}

type syntheticStream struct {
	seed   string
	width  int
	height int

	mu     sync.Mutex
	closed bool
}

func (s *syntheticStream) Frame() (image.Image, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, fmt.Errorf("stream closed")
	}
	img := image.NewRGBA(image.Rect(0, 0, s.width, s.height))
	base := colorFromSeed(s.seed, 0)
	accent := colorFromSeed(s.seed, 1)
	draw.Draw(img, img.Bounds(), &image.Uniform{base}, image.Point{}, draw.Src)

	stripe := s.height / 8
	if stripe < 8 {
		stripe = 8
	}
	for y := 0; y < s.height; y += stripe * 2 {
		band := image.Rect(0, y, s.width, min(s.height, y+stripe))
		draw.Draw(img, band, &image.Uniform{accent}, image.Point{}, draw.Over)
	}
	return img, nil
}

func (s *syntheticStream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// SyntheticMicrophone yields a fixed number of deterministic chunks and then
// signals end of stream.
type SyntheticMicrophone struct {
	Seed   string
	Chunks int
}

// Open returns a stream producing the synthetic chunks.
func (m *SyntheticMicrophone) Open(ctx context.Context) (AudioStream, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	chunks := m.Chunks
	if chunks <= 0 {
		chunks = 3
	}
	return &syntheticAudio{seed: deterministicSeed(m.Seed), remaining: chunks}, nil
}

type syntheticAudio struct {
	seed string

	mu        sync.Mutex
	remaining int
	closed    bool
	sequence  int
}

func (s *syntheticAudio) Chunk() ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.remaining == 0 {
		return nil, io.EOF
	}
	s.remaining--
	s.sequence++
	return []byte(fmt.Sprintf("%s-%02d", s.seed, s.sequence)), nil
}

func (s *syntheticAudio) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func deterministicSeed(parts ...string) string {
	hasher := sha256.New()
	for _, part := range parts {
		hasher.Write([]byte(part))
		hasher.Write([]byte{'|'})
	}
	return hex.EncodeToString(hasher.Sum(nil))[:16]
}

func colorFromSeed(seed string, shift int) color.RGBA {
	if seed == "" {
		seed = "000000"
	}
	doubled := seed + seed
	start := (shift * 6) % len(seed)
	segment := doubled[start : start+6]
	r := mustParseHexByte(segment[0:2])
	g := mustParseHexByte(segment[2:4])
	b := mustParseHexByte(segment[4:6])
	return color.RGBA{R: r, G: g, B: b, A: 255}
}

func mustParseHexByte(s string) uint8 {
	v, err := strconv.ParseUint(s, 16, 8)
	if err != nil {
		return 0
	}
	return uint8(v)
}
