package driving

import (
	"context"
	"time"

	"github.com/imagefeed/imagefeed-core/internal/core/domain"
)

// DevAuthService is a local authorization server used to exercise the
// authorization flow without a real provider.
type DevAuthService interface {
	// Authorize validates the request and issues a single-use code.
	// Returns the URL the user agent should be redirected to.
	Authorize(ctx context.Context, req AuthorizeRequest) (*AuthorizeResponse, error)

	// Exchange redeems a code for an access token.
	Exchange(ctx context.Context, req TokenRequest) (*domain.OAuthToken, error)

	// Cleanup removes expired codes.
	Cleanup(ctx context.Context) error
}

// AuthorizeRequest represents the query of an authorization request.
type AuthorizeRequest struct {
	ClientID     string `json:"client_id" example:"access-key"`
	RedirectURI  string `json:"redirect_uri" example:"urn:ietf:wg:oauth:2.0:oob"`
	ResponseType string `json:"response_type" example:"code"`
	Scope        string `json:"scope,omitempty" example:"public read_user"`
	State        string `json:"state,omitempty"`
}

// AuthorizeResponse carries the issued code and where to send it.
type AuthorizeResponse struct {
	Code        string    `json:"code"`
	RedirectURL string    `json:"redirect_url"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// TokenRequest represents a token endpoint request.
type TokenRequest struct {
	GrantType    string `json:"grant_type" example:"authorization_code"`
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
	Code         string `json:"code"`
	RedirectURI  string `json:"redirect_uri"`
}

// OAuthError represents an OAuth-specific error.
type OAuthError struct {
	Code        string `json:"error" example:"invalid_grant"`
	Description string `json:"error_description,omitempty" example:"The authorization code is invalid or expired"`
}

func (e *OAuthError) Error() string {
	if e.Description != "" {
		return e.Code + ": " + e.Description
	}
	return e.Code
}

// Common OAuth errors
var (
	ErrOAuthInvalidRequest          = &OAuthError{Code: "invalid_request", Description: "The request is missing a required parameter"}
	ErrOAuthInvalidClient           = &OAuthError{Code: "invalid_client", Description: "Client authentication failed"}
	ErrOAuthInvalidGrant            = &OAuthError{Code: "invalid_grant", Description: "The authorization code is invalid or expired"}
	ErrOAuthUnsupportedGrantType    = &OAuthError{Code: "unsupported_grant_type", Description: "Only authorization_code is supported"}
	ErrOAuthUnsupportedResponseType = &OAuthError{Code: "unsupported_response_type", Description: "Only the code response type is supported"}
)
