package domain

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/go-playground/validator/v10"
)

const (
	// ResponseTypeCode is the only response type the flow requests.
	ResponseTypeCode = "code"

	// NativeRedirectPath is the path the provider redirects to when handing the
	// code back to a native client instead of a web page.
	NativeRedirectPath = "/oauth/authorize/native"

	// CodeParam is the query parameter carrying the authorization code.
	CodeParam = "code"

	// OutOfBandRedirectURI asks the provider to use the native redirect path.
	OutOfBandRedirectURI = "urn:ietf:wg:oauth:2.0:oob"
)

var validate = validator.New()

// AuthorizationRequest describes one authorization-code grant request.
// It is built once per flow start and never mutated.
type AuthorizationRequest struct {
	AuthorizeURL string   `json:"authorize_url" validate:"required,url"`
	ClientID     string   `json:"client_id" validate:"required"`
	RedirectURI  string   `json:"redirect_uri" validate:"required,uri"`
	Scopes       []string `json:"scopes" validate:"dive,required"`
	ResponseType string   `json:"response_type" validate:"eq=code"`
}

// NewAuthorizationRequest validates the parameters and returns an immutable request.
func NewAuthorizationRequest(authorizeURL, clientID, redirectURI string, scopes []string) (AuthorizationRequest, error) {
	req := AuthorizationRequest{
		AuthorizeURL: authorizeURL,
		ClientID:     clientID,
		RedirectURI:  redirectURI,
		Scopes:       append([]string(nil), scopes...),
		ResponseType: ResponseTypeCode,
	}
	if err := req.Validate(); err != nil {
		return AuthorizationRequest{}, err
	}
	return req, nil
}

// Validate checks that the request can be turned into an authorization URL.
func (r AuthorizationRequest) Validate() error {
	if err := validate.Struct(r); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return nil
}

// Scope returns the space separated scope list.
func (r AuthorizationRequest) Scope() string {
	return strings.Join(r.Scopes, " ")
}

// URL builds the authorization URL. Any query already present on the
// endpoint is replaced.
func (r AuthorizationRequest) URL() (string, error) {
	if err := r.Validate(); err != nil {
		return "", err
	}

	u, err := url.Parse(r.AuthorizeURL)
	if err != nil {
		return "", fmt.Errorf("%w: parse authorize url: %v", ErrInvalidInput, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("%w: unsupported scheme %q", ErrInvalidInput, u.Scheme)
	}
	if u.Host == "" {
		return "", fmt.Errorf("%w: authorize url has no host", ErrInvalidInput)
	}

	params := url.Values{
		"client_id":     {r.ClientID},
		"redirect_uri":  {r.RedirectURI},
		"response_type": {r.ResponseType},
		"scope":         {r.Scope()},
	}
	u.RawQuery = params.Encode()
	u.Fragment = ""

	return u.String(), nil
}
