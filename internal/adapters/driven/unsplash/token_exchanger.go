// Package unsplash talks to the photo provider's OAuth and image endpoints.
package unsplash

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/oauth2"

	"github.com/imagefeed/imagefeed-core/internal/adapters/driven/httpclient"
	"github.com/imagefeed/imagefeed-core/internal/core/domain"
	"github.com/imagefeed/imagefeed-core/internal/core/ports/driven"
)

// Ensure TokenExchanger implements the interface.
var _ driven.TokenExchanger = (*TokenExchanger)(nil)

// Default provider endpoints.
const (
	DefaultAuthorizeURL = "https://unsplash.com/oauth/authorize"
	DefaultTokenURL     = "https://unsplash.com/oauth/token"
)

// TokenExchangerConfig holds configuration for the token exchanger.
type TokenExchangerConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
	Scopes       []string
	AuthorizeURL string // default: DefaultAuthorizeURL
	TokenURL     string // default: DefaultTokenURL

	// HTTPClient is used for the token request. Default: a retrying client.
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// TokenExchanger redeems authorization codes at the provider's token endpoint.
type TokenExchanger struct {
	config *oauth2.Config
	client *http.Client
	logger *slog.Logger
}

// NewTokenExchanger creates a new token exchanger.
func NewTokenExchanger(cfg TokenExchangerConfig) *TokenExchanger {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	authURL := cfg.AuthorizeURL
	if authURL == "" {
		authURL = DefaultAuthorizeURL
	}
	tokenURL := cfg.TokenURL
	if tokenURL == "" {
		tokenURL = DefaultTokenURL
	}
	client := cfg.HTTPClient
	if client == nil {
		client = httpclient.New(httpclient.Config{Logger: logger, CheckRetry: connectionErrorsOnly})
	}

	return &TokenExchanger{
		config: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURI,
			Scopes:       cfg.Scopes,
			Endpoint: oauth2.Endpoint{
				AuthURL:   authURL,
				TokenURL:  tokenURL,
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
		client: client,
		logger: logger.With("component", "token_exchanger"),
	}
}

// ExchangeCode redeems code once. Only requests that never reached the
// provider are retried, since a code is invalidated on first use.
func (e *TokenExchanger) ExchangeCode(ctx context.Context, code string) (*domain.OAuthToken, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, e.client)

	tok, err := e.config.Exchange(ctx, code)
	if err != nil {
		e.logger.Error("token exchange failed", "error", err)
		return nil, fmt.Errorf("exchange authorization code: %w", err)
	}

	out := &domain.OAuthToken{
		AccessToken:  tok.AccessToken,
		TokenType:    tok.TokenType,
		RefreshToken: tok.RefreshToken,
		CreatedAt:    time.Now(),
		ExpiresAt:    tok.Expiry,
	}
	if scope, ok := tok.Extra("scope").(string); ok {
		out.Scope = scope
	}
	if created, ok := tok.Extra("created_at").(float64); ok && created > 0 {
		out.CreatedAt = time.Unix(int64(created), 0)
	}
	return out, nil
}

func connectionErrorsOnly(ctx context.Context, resp *http.Response, err error) (bool, error) {
	if ctx.Err() != nil {
		return false, ctx.Err()
	}
	return err != nil, nil
}
