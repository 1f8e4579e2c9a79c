package domain

import (
	"math"
	"time"
)

// Size is a width/height pair in points or pixels.
type Size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Point is a 2D offset.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// PhotoURLs is the set of renditions returned by the photos API.
type PhotoURLs struct {
	Thumb string `json:"thumb"`
	Small string `json:"small"`
	Full  string `json:"full"`
}

// PhotoResult is the photos API representation of a photo.
type PhotoResult struct {
	ID          string    `json:"id"`
	Width       int       `json:"width"`
	Height      int       `json:"height"`
	CreatedAt   *string   `json:"created_at"`
	Description *string   `json:"description"`
	URLs        PhotoURLs `json:"urls"`
	LikedByUser bool      `json:"liked_by_user"`
}

// Photo is a single photo as shown by the detail screen.
type Photo struct {
	ID            string     `json:"id"`
	Size          Size       `json:"size"`
	CreatedAt     *time.Time `json:"created_at,omitempty"`
	Description   *string    `json:"description,omitempty"`
	ThumbImageURL string     `json:"thumb_image_url"`
	SmallImageURL string     `json:"small_image_url"`
	LargeImageURL string     `json:"large_image_url"`
	IsLiked       bool       `json:"is_liked"`
}

// NewPhotoFromResult converts an API result. An empty or unparseable
// created_at yields a nil CreatedAt.
func NewPhotoFromResult(r PhotoResult) Photo {
	p := Photo{
		ID:            r.ID,
		Size:          Size{Width: float64(r.Width), Height: float64(r.Height)},
		Description:   r.Description,
		ThumbImageURL: r.URLs.Thumb,
		SmallImageURL: r.URLs.Small,
		LargeImageURL: r.URLs.Full,
		IsLiked:       r.LikedByUser,
	}
	if r.CreatedAt != nil && *r.CreatedAt != "" {
		if t, err := time.Parse(time.RFC3339, *r.CreatedAt); err == nil {
			p.CreatedAt = &t
		}
	}
	return p
}

// WithLiked returns a copy of p with IsLiked set.
func (p Photo) WithLiked(liked bool) Photo {
	p.IsLiked = liked
	return p
}

// Image is a fetched, undecoded image payload.
type Image struct {
	URL         string `json:"url"`
	ContentType string `json:"content_type"`
	Data        []byte `json:"-"`
}

// Zoom bounds of the detail screen before an image is laid out.
const (
	DefaultMinZoomScale = 0.1
	DefaultMaxZoomScale = 1.25
)

// ZoomLayout positions an image so it fills the viewport and is centered.
type ZoomLayout struct {
	MinZoomScale  float64 `json:"min_zoom_scale"`
	MaxZoomScale  float64 `json:"max_zoom_scale"`
	ZoomScale     float64 `json:"zoom_scale"`
	ContentSize   Size    `json:"content_size"`
	ContentOffset Point   `json:"content_offset"`
}

// FitImage computes the aspect-fill layout of image inside viewport.
// Degenerate sizes fall back to scale 1 with no offset.
func FitImage(viewport, image Size) ZoomLayout {
	layout := ZoomLayout{
		MinZoomScale: DefaultMinZoomScale,
		MaxZoomScale: DefaultMaxZoomScale,
		ZoomScale:    1,
		ContentSize:  image,
	}
	if image.Width <= 0 || image.Height <= 0 || viewport.Width <= 0 || viewport.Height <= 0 {
		return layout
	}

	scale := math.Max(viewport.Width/image.Width, viewport.Height/image.Height)
	layout.MinZoomScale = scale
	layout.ZoomScale = scale
	if layout.MaxZoomScale < scale {
		layout.MaxZoomScale = scale
	}
	layout.ContentSize = Size{Width: image.Width * scale, Height: image.Height * scale}
	layout.ContentOffset = Point{
		X: math.Max(0, (layout.ContentSize.Width-viewport.Width)/2),
		Y: math.Max(0, (layout.ContentSize.Height-viewport.Height)/2),
	}
	return layout
}
