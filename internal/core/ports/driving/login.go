package driving

import (
	"context"

	"github.com/imagefeed/imagefeed-core/internal/core/domain"
)

// LoginService runs an authorization flow to completion and exchanges the
// resulting code for a token exactly once.
type LoginService interface {
	AuthorizationListener

	// Login starts flow and blocks until it ends or ctx is done.
	Login(ctx context.Context, flow AuthorizationFlow) (*domain.OAuthToken, error)
}
