package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/imagefeed/imagefeed-core/internal/core/domain"
	"github.com/imagefeed/imagefeed-core/internal/core/ports/driven"
	"github.com/imagefeed/imagefeed-core/internal/core/ports/driving"
)

// Ensure photoDetail implements PhotoDetail
var _ driving.PhotoDetail = (*photoDetail)(nil)

// PhotoDetailConfig holds configuration for the photo detail controller.
type PhotoDetailConfig struct {
	Photo    domain.Photo
	Images   driven.ImageLoader
	Likes    driven.LikeService
	Listener driving.PhotoDetailListener // Optional
	Logger   *slog.Logger
}

type photoDetail struct {
	images   driven.ImageLoader
	likes    driven.LikeService
	listener driving.PhotoDetailListener
	logger   *slog.Logger

	// toggleMu serializes like toggles end to end.
	toggleMu sync.Mutex

	mu    sync.RWMutex
	photo domain.Photo
	image *domain.Image
}

// NewPhotoDetail creates a controller for a single photo.
func NewPhotoDetail(cfg PhotoDetailConfig) driving.PhotoDetail {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &photoDetail{
		images:   cfg.Images,
		likes:    cfg.Likes,
		listener: cfg.Listener,
		logger:   logger.With("photo_id", cfg.Photo.ID),
		photo:    cfg.Photo,
	}
}

func (p *photoDetail) Photo() domain.Photo {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.photo
}

// LoadImage fetches the large rendition. A failure leaves any previously
// loaded image in place.
func (p *photoDetail) LoadImage(ctx context.Context) (*domain.Image, error) {
	url := p.Photo().LargeImageURL
	if url == "" {
		return nil, fmt.Errorf("%w: photo has no large image url", domain.ErrInvalidInput)
	}

	img, err := p.images.LoadImage(ctx, url)
	if err != nil {
		p.logger.Error("full size image load failed", "error", err)
		return nil, fmt.Errorf("load image: %w", err)
	}

	p.mu.Lock()
	p.image = img
	p.mu.Unlock()
	return img, nil
}

// ToggleLike asks the like service for the opposite state and applies it
// only on success.
func (p *photoDetail) ToggleLike(ctx context.Context) (domain.Photo, error) {
	p.toggleMu.Lock()
	defer p.toggleMu.Unlock()

	current := p.Photo()
	want := !current.IsLiked

	if err := p.likes.SetLike(ctx, current.ID, want); err != nil {
		p.logger.Error("like change failed", "liked", want, "error", err)
		return current, fmt.Errorf("set like: %w", err)
	}

	p.mu.Lock()
	p.photo = p.photo.WithLiked(want)
	updated := p.photo
	p.mu.Unlock()

	if p.listener != nil {
		p.listener.DidUpdatePhoto(updated)
	}
	return updated, nil
}

func (p *photoDetail) ZoomLayout(viewport domain.Size) domain.ZoomLayout {
	return domain.FitImage(viewport, p.Photo().Size)
}

func (p *photoDetail) ShareItems() []*domain.Image {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.image == nil {
		return nil
	}
	return []*domain.Image{p.image}
}
