package driven

import "github.com/imagefeed/imagefeed-core/internal/core/domain"

// CodeIssuer handles the cryptographic side of authorization codes and client
// credentials. This does NOT handle storage - use AuthorizationCodeStore.
type CodeIssuer interface {
	// Code operations
	IssueCode(claims *domain.CodeClaims) (string, error)
	ParseCode(code string) (*domain.CodeClaims, error)

	// Client secret operations
	HashSecret(secret string) (string, error)
	VerifySecret(secret, hash string) bool
}
