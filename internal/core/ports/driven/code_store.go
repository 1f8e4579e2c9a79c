package driven

import (
	"context"

	"github.com/imagefeed/imagefeed-core/internal/core/domain"
)

// AuthorizationCodeStore keeps codes issued by the development authorization
// server until they are redeemed. Codes are single-use and expire quickly.
type AuthorizationCodeStore interface {
	// Save stores a newly issued code.
	Save(ctx context.Context, code *domain.AuthorizationCode) error

	// Consume atomically retrieves and deletes the code.
	// Returns nil, nil if the code doesn't exist or has expired.
	Consume(ctx context.Context, code string) (*domain.AuthorizationCode, error)

	// Cleanup removes expired codes.
	Cleanup(ctx context.Context) error

	// Ping checks if the store backend is healthy.
	Ping(ctx context.Context) error
}
