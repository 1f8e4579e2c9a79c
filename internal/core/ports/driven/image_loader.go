package driven

import (
	"context"

	"github.com/imagefeed/imagefeed-core/internal/core/domain"
)

// ImageLoader fetches an image by URL. Decoding and caching are the caller's concern.
type ImageLoader interface {
	LoadImage(ctx context.Context, url string) (*domain.Image, error)
}
