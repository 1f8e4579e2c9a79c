package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/imagefeed/imagefeed-core/internal/core/domain"
	"github.com/imagefeed/imagefeed-core/internal/core/ports/driven"
	"github.com/imagefeed/imagefeed-core/internal/core/ports/driving"
)

// Ensure devAuthService implements DevAuthService
var _ driving.DevAuthService = (*devAuthService)(nil)

// DefaultCodeTTL is how long an issued authorization code stays redeemable.
const DefaultCodeTTL = 10 * time.Minute

// ClientRegistration is an OAuth client known to the development server.
type ClientRegistration struct {
	// SecretHash is the client secret as produced by CodeIssuer.HashSecret.
	SecretHash string

	// RedirectURIs limits where codes may be sent. Empty allows any.
	RedirectURIs []string
}

// DevAuthServiceConfig holds configuration for the development authorization server.
type DevAuthServiceConfig struct {
	Issuer  driven.CodeIssuer
	Store   driven.AuthorizationCodeStore
	Clients map[string]ClientRegistration

	// BaseURL is the public URL of the server, used to build native redirects.
	// Example: "http://localhost:8089"
	BaseURL string

	CodeTTL time.Duration // default: DefaultCodeTTL
	Logger  *slog.Logger
}

type devAuthService struct {
	issuer  driven.CodeIssuer
	store   driven.AuthorizationCodeStore
	clients map[string]ClientRegistration
	baseURL string
	codeTTL time.Duration
	logger  *slog.Logger
}

// NewDevAuthService creates a new development authorization service.
func NewDevAuthService(cfg DevAuthServiceConfig) driving.DevAuthService {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	ttl := cfg.CodeTTL
	if ttl == 0 {
		ttl = DefaultCodeTTL
	}
	return &devAuthService{
		issuer:  cfg.Issuer,
		store:   cfg.Store,
		clients: cfg.Clients,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		codeTTL: ttl,
		logger:  logger,
	}
}

// Authorize validates the client and issues a code. Out-of-band redirect URIs
// are answered with the native redirect path on this server.
func (s *devAuthService) Authorize(ctx context.Context, req driving.AuthorizeRequest) (*driving.AuthorizeResponse, error) {
	if req.ResponseType != domain.ResponseTypeCode {
		return nil, driving.ErrOAuthUnsupportedResponseType
	}
	if req.ClientID == "" || req.RedirectURI == "" {
		return nil, driving.ErrOAuthInvalidRequest
	}

	client, ok := s.clients[req.ClientID]
	if !ok {
		return nil, driving.ErrOAuthInvalidClient
	}
	if len(client.RedirectURIs) > 0 && !slices.Contains(client.RedirectURIs, req.RedirectURI) {
		return nil, &driving.OAuthError{Code: "invalid_request", Description: "redirect_uri is not registered for this client"}
	}

	now := time.Now()
	expiresAt := now.Add(s.codeTTL)
	code, err := s.issuer.IssueCode(&domain.CodeClaims{
		ID:          uuid.NewString(),
		ClientID:    req.ClientID,
		RedirectURI: req.RedirectURI,
		Scope:       req.Scope,
		IssuedAt:    now.Unix(),
		ExpiresAt:   expiresAt.Unix(),
	})
	if err != nil {
		return nil, fmt.Errorf("issue code: %w", err)
	}

	if err := s.store.Save(ctx, &domain.AuthorizationCode{
		Code:        code,
		ClientID:    req.ClientID,
		RedirectURI: req.RedirectURI,
		Scope:       req.Scope,
		CreatedAt:   now,
		ExpiresAt:   expiresAt,
	}); err != nil {
		return nil, fmt.Errorf("save code: %w", err)
	}

	redirectURL, err := s.redirectURL(req, code)
	if err != nil {
		return nil, err
	}

	s.logger.Info("authorization code issued", "client_id", req.ClientID, "scope", req.Scope)
	return &driving.AuthorizeResponse{
		Code:        code,
		RedirectURL: redirectURL,
		ExpiresAt:   expiresAt,
	}, nil
}

func (s *devAuthService) redirectURL(req driving.AuthorizeRequest, code string) (string, error) {
	var target *url.URL
	if req.RedirectURI == domain.OutOfBandRedirectURI {
		u, err := url.Parse(s.baseURL + domain.NativeRedirectPath)
		if err != nil {
			return "", fmt.Errorf("build native redirect: %w", err)
		}
		target = u
	} else {
		u, err := url.Parse(req.RedirectURI)
		if err != nil || !u.IsAbs() {
			return "", &driving.OAuthError{Code: "invalid_request", Description: "redirect_uri must be absolute"}
		}
		target = u
	}

	q := target.Query()
	q.Set(domain.CodeParam, code)
	if req.State != "" {
		q.Set("state", req.State)
	}
	target.RawQuery = q.Encode()
	return target.String(), nil
}

// Exchange authenticates the client and redeems the code once.
func (s *devAuthService) Exchange(ctx context.Context, req driving.TokenRequest) (*domain.OAuthToken, error) {
	if req.GrantType != "authorization_code" {
		return nil, driving.ErrOAuthUnsupportedGrantType
	}
	if req.ClientID == "" || req.Code == "" {
		return nil, driving.ErrOAuthInvalidRequest
	}

	client, ok := s.clients[req.ClientID]
	if !ok || !s.issuer.VerifySecret(req.ClientSecret, client.SecretHash) {
		return nil, driving.ErrOAuthInvalidClient
	}

	if _, err := s.issuer.ParseCode(req.Code); err != nil {
		s.logger.Debug("rejecting unparseable code", "error", err)
		return nil, driving.ErrOAuthInvalidGrant
	}

	// Consume before comparing so a mismatched attempt still burns the code.
	stored, err := s.store.Consume(ctx, req.Code)
	if err != nil {
		return nil, fmt.Errorf("consume code: %w", err)
	}
	if stored == nil {
		return nil, driving.ErrOAuthInvalidGrant
	}
	if stored.ClientID != req.ClientID || stored.RedirectURI != req.RedirectURI {
		s.logger.Warn("code presented with mismatched client or redirect", "client_id", req.ClientID)
		return nil, driving.ErrOAuthInvalidGrant
	}

	accessToken, err := generateRandomString(64)
	if err != nil {
		return nil, fmt.Errorf("generate access token: %w", err)
	}

	s.logger.Info("authorization code redeemed", "client_id", req.ClientID)
	return &domain.OAuthToken{
		AccessToken: accessToken,
		TokenType:   "Bearer",
		Scope:       stored.Scope,
		CreatedAt:   time.Now(),
	}, nil
}

func (s *devAuthService) Cleanup(ctx context.Context) error {
	if err := s.store.Cleanup(ctx); err != nil {
		return fmt.Errorf("cleanup codes: %w", err)
	}
	return nil
}

// generateRandomString generates a cryptographically secure random string.
func generateRandomString(length int) (string, error) {
	bytes := make([]byte, length)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes)[:length], nil
}
