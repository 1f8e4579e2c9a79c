package driving

import (
	"context"

	"github.com/imagefeed/imagefeed-core/internal/core/domain"
)

// PhotoDetailListener is notified after a like toggle succeeded.
type PhotoDetailListener interface {
	DidUpdatePhoto(photo domain.Photo)
}

// PhotoDetail backs the single-photo screen.
type PhotoDetail interface {
	// Photo returns the current photo value.
	Photo() domain.Photo

	// LoadImage fetches the full resolution image.
	LoadImage(ctx context.Context) (*domain.Image, error)

	// ToggleLike flips the liked state through the like service.
	// On failure the photo is unchanged.
	ToggleLike(ctx context.Context) (domain.Photo, error)

	// ZoomLayout lays out the loaded image in viewport.
	ZoomLayout(viewport domain.Size) domain.ZoomLayout

	// ShareItems returns what a host share sheet should offer. Empty until
	// the image has been loaded.
	ShareItems() []*domain.Image
}
