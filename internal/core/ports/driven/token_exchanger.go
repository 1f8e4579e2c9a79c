package driven

import (
	"context"

	"github.com/imagefeed/imagefeed-core/internal/core/domain"
)

// TokenExchanger exchanges an authorization code for an access token.
// Codes are single use; callers must not retry with the same code.
type TokenExchanger interface {
	ExchangeCode(ctx context.Context, code string) (*domain.OAuthToken, error)
}
