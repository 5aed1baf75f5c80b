package session

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"

	"github.com/aegisfield/fieldops/internal/capture"
	"github.com/aegisfield/fieldops/internal/domain"
	"github.com/aegisfield/fieldops/internal/transport"
)

var (
	// ErrBusy rejects a new mutation while the previous one is still in
	// flight. Rapid double-invocation must not race two server calls.
	ErrBusy = errors.New("session: operation already in progress")
	// ErrCapReached rejects a capture before the camera is opened when the
	// collection already holds the maximum number of items.
	ErrCapReached = errors.New("session: maximum of 6 images reached")
	// ErrIndexOutOfRange rejects a removal for an index that no longer
	// exists.
	ErrIndexOutOfRange = errors.New("session: no item at index")
)

// Gallery owns the ordered photo collection for one (job, type) pair. Order
// is capture order and never re-sorted; items are appended only after the
// server confirms the persist and assigns an identifier, and removed only
// after the server confirms the delete.
type Gallery struct {
	client  transport.Client
	adapter *capture.Adapter
	logger  zerolog.Logger

	jobID       int64
	typ         domain.ImageType
	fetchOnLoad bool

	mu      sync.Mutex
	pending bool
	photos  []domain.Image
}

// GalleryConfig configures a photo capture session.
type GalleryConfig struct {
	JobID       int64
	Type        domain.ImageType
	FetchOnLoad bool
	Logger      zerolog.Logger
}

// NewGallery binds a gallery to a job, a media type and a transport.
func NewGallery(client transport.Client, adapter *capture.Adapter, cfg GalleryConfig) *Gallery {
	return &Gallery{
		client:      client,
		adapter:     adapter,
		logger:      cfg.Logger,
		jobID:       cfg.JobID,
		typ:         cfg.Type,
		fetchOnLoad: cfg.FetchOnLoad,
	}
}

// begin claims the in-flight slot; mutations are strictly sequential.
func (g *Gallery) begin() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.pending {
		return ErrBusy
	}
	g.pending = true
	return nil
}

func (g *Gallery) end() {
	g.mu.Lock()
	g.pending = false
	g.mu.Unlock()
}

// Load replaces the local collection with the server's, when fetch-on-load is
// enabled for this session. On failure the collection is left empty and the
// error is returned for the caller to surface as an inline banner.
func (g *Gallery) Load(ctx context.Context) error {
	if !g.fetchOnLoad {
		return nil
	}
	if err := g.begin(); err != nil {
		return err
	}
	defer g.end()

	images, err := g.client.GetImages(ctx, g.jobID, g.typ)
	if err != nil {
		g.logger.Error().Err(err).Int64("job_id", g.jobID).Msg("failed to load images")
		g.mu.Lock()
		g.photos = nil
		g.mu.Unlock()
		return err
	}
	g.mu.Lock()
	g.photos = images
	g.mu.Unlock()
	return nil
}

// Capture checks the cap, opens the camera, persists the encoded frame and
// appends the stored record. An item without a server-assigned identifier is
// never inserted: a failed persist leaves the collection unchanged.
func (g *Gallery) Capture(ctx context.Context) (*domain.Image, error) {
	if err := g.begin(); err != nil {
		return nil, err
	}
	defer g.end()

	g.mu.Lock()
	count := len(g.photos)
	g.mu.Unlock()
	if count >= domain.MaxImagesPerType {
		return nil, ErrCapReached
	}

	payload, err := g.adapter.CapturePhoto(ctx)
	if err != nil {
		return nil, err
	}

	img, err := g.client.AddImage(ctx, g.jobID, g.typ, payload)
	if err != nil {
		g.logger.Error().Err(err).Int64("job_id", g.jobID).Msg("failed to save image")
		return nil, err
	}

	g.mu.Lock()
	g.photos = append(g.photos, *img)
	g.mu.Unlock()
	return img, nil
}

// Remove deletes the item at the given display index by its server
// identifier. The local entry goes away only after the delete succeeds; an
// unresolved delete leaves the item visible and re-deletable.
func (g *Gallery) Remove(ctx context.Context, index int) error {
	if err := g.begin(); err != nil {
		return err
	}
	defer g.end()

	g.mu.Lock()
	if index < 0 || index >= len(g.photos) {
		g.mu.Unlock()
		return ErrIndexOutOfRange
	}
	imageID := g.photos[index].ID
	g.mu.Unlock()

	if err := g.client.DeleteImage(ctx, imageID); err != nil {
		g.logger.Error().Err(err).Int64("image_id", imageID).Msg("failed to delete image")
		return err
	}

	g.mu.Lock()
	g.photos = append(g.photos[:index], g.photos[index+1:]...)
	g.mu.Unlock()
	return nil
}

// Photos returns a copy of the collection in capture order.
func (g *Gallery) Photos() []domain.Image {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]domain.Image, len(g.photos))
	copy(out, g.photos)
	return out
}

// Count reports the number of captured photos.
func (g *Gallery) Count() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.photos)
}
