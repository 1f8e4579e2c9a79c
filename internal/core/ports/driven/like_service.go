package driven

import "context"

// LikeService sets the liked state of a photo for the current user.
type LikeService interface {
	SetLike(ctx context.Context, photoID string, liked bool) error
}
