package services

import (
	"context"
	"errors"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/imagefeed/imagefeed-core/internal/core/domain"
	"github.com/imagefeed/imagefeed-core/internal/core/ports/driven"
	"github.com/imagefeed/imagefeed-core/internal/core/ports/driven/mocks"
	"github.com/imagefeed/imagefeed-core/internal/core/ports/driving"
)

// mockCodeStore implements driven.AuthorizationCodeStore for testing
type mockCodeStore struct {
	mu      sync.Mutex
	codes   map[string]*domain.AuthorizationCode
	saveErr error
	cleaned int
}

func newMockCodeStore() *mockCodeStore {
	return &mockCodeStore{
		codes: make(map[string]*domain.AuthorizationCode),
	}
}

func (m *mockCodeStore) Save(ctx context.Context, code *domain.AuthorizationCode) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	m.codes[code.Code] = code
	return nil
}

func (m *mockCodeStore) Consume(ctx context.Context, code string) (*domain.AuthorizationCode, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.codes[code]
	if !ok {
		return nil, nil
	}
	delete(m.codes, code)
	if c.IsExpired() {
		return nil, nil
	}
	return c, nil
}

func (m *mockCodeStore) Cleanup(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cleaned++
	for k, c := range m.codes {
		if c.IsExpired() {
			delete(m.codes, k)
		}
	}
	return nil
}

func (m *mockCodeStore) Ping(ctx context.Context) error {
	return nil
}

var _ driven.AuthorizationCodeStore = (*mockCodeStore)(nil)

const (
	testClientID     = "test-client-id"
	testClientSecret = "test-secret"
)

func newTestDevAuthService(store *mockCodeStore) driving.DevAuthService {
	return NewDevAuthService(DevAuthServiceConfig{
		Issuer: mocks.NewMockCodeIssuer(),
		Store:  store,
		Clients: map[string]ClientRegistration{
			testClientID: {SecretHash: testClientSecret},
		},
		BaseURL: "http://localhost:8089/",
	})
}

func authorizeOOB(t *testing.T, svc driving.DevAuthService) *driving.AuthorizeResponse {
	t.Helper()
	resp, err := svc.Authorize(context.Background(), driving.AuthorizeRequest{
		ClientID:     testClientID,
		RedirectURI:  domain.OutOfBandRedirectURI,
		ResponseType: domain.ResponseTypeCode,
		Scope:        "public read_user",
	})
	if err != nil {
		t.Fatalf("Authorize() error = %v", err)
	}
	return resp
}

func TestDevAuthService_Authorize_OutOfBand(t *testing.T) {
	store := newMockCodeStore()
	svc := newTestDevAuthService(store)

	resp := authorizeOOB(t, svc)

	if resp.Code == "" {
		t.Fatal("Authorize() returned empty Code")
	}
	u, err := url.Parse(resp.RedirectURL)
	if err != nil {
		t.Fatalf("invalid redirect url %q: %v", resp.RedirectURL, err)
	}
	if u.Host != "localhost:8089" || u.Path != domain.NativeRedirectPath {
		t.Errorf("RedirectURL = %q, want native redirect on base url", resp.RedirectURL)
	}

	// The redirect must be recognised by the client side matcher.
	code, ok := domain.MatchAuthorizationCode(resp.RedirectURL)
	if !ok || code != resp.Code {
		t.Errorf("MatchAuthorizationCode() = %q, %v; want %q, true", code, ok, resp.Code)
	}

	if time.Until(resp.ExpiresAt) <= 0 || time.Until(resp.ExpiresAt) > DefaultCodeTTL {
		t.Errorf("ExpiresAt = %v, want within %v", resp.ExpiresAt, DefaultCodeTTL)
	}
	if len(store.codes) != 1 {
		t.Errorf("Expected 1 code stored, got %d", len(store.codes))
	}
}

func TestDevAuthService_Authorize_RegularRedirect(t *testing.T) {
	svc := newTestDevAuthService(newMockCodeStore())

	resp, err := svc.Authorize(context.Background(), driving.AuthorizeRequest{
		ClientID:     testClientID,
		RedirectURI:  "http://127.0.0.1:9000/callback?keep=1",
		ResponseType: domain.ResponseTypeCode,
		State:        "xyz",
	})
	if err != nil {
		t.Fatalf("Authorize() error = %v", err)
	}

	u, _ := url.Parse(resp.RedirectURL)
	q := u.Query()
	if u.Path != "/callback" {
		t.Errorf("path = %q, want /callback", u.Path)
	}
	if q.Get("code") != resp.Code || q.Get("state") != "xyz" || q.Get("keep") != "1" {
		t.Errorf("unexpected redirect query %q", u.RawQuery)
	}
}

func TestDevAuthService_Authorize_Errors(t *testing.T) {
	store := newMockCodeStore()
	svc := NewDevAuthService(DevAuthServiceConfig{
		Issuer: mocks.NewMockCodeIssuer(),
		Store:  store,
		Clients: map[string]ClientRegistration{
			testClientID: {SecretHash: testClientSecret, RedirectURIs: []string{domain.OutOfBandRedirectURI}},
		},
		BaseURL: "http://localhost:8089",
	})

	tests := []struct {
		name     string
		req      driving.AuthorizeRequest
		wantCode string
	}{
		{
			name:     "wrong response type",
			req:      driving.AuthorizeRequest{ClientID: testClientID, RedirectURI: domain.OutOfBandRedirectURI, ResponseType: "token"},
			wantCode: "unsupported_response_type",
		},
		{
			name:     "missing client",
			req:      driving.AuthorizeRequest{RedirectURI: domain.OutOfBandRedirectURI, ResponseType: "code"},
			wantCode: "invalid_request",
		},
		{
			name:     "unknown client",
			req:      driving.AuthorizeRequest{ClientID: "nope", RedirectURI: domain.OutOfBandRedirectURI, ResponseType: "code"},
			wantCode: "invalid_client",
		},
		{
			name:     "unregistered redirect",
			req:      driving.AuthorizeRequest{ClientID: testClientID, RedirectURI: "http://evil.example/cb", ResponseType: "code"},
			wantCode: "invalid_request",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Authorize(context.Background(), tt.req)
			var oauthErr *driving.OAuthError
			if !errors.As(err, &oauthErr) {
				t.Fatalf("Authorize() error = %v, want OAuthError", err)
			}
			if oauthErr.Code != tt.wantCode {
				t.Errorf("error code = %q, want %q", oauthErr.Code, tt.wantCode)
			}
		})
	}

	if len(store.codes) != 0 {
		t.Errorf("rejected requests must not store codes, got %d", len(store.codes))
	}
}

func TestDevAuthService_Authorize_StoreError(t *testing.T) {
	store := newMockCodeStore()
	store.saveErr = errors.New("connection refused")
	svc := newTestDevAuthService(store)

	_, err := svc.Authorize(context.Background(), driving.AuthorizeRequest{
		ClientID:     testClientID,
		RedirectURI:  domain.OutOfBandRedirectURI,
		ResponseType: domain.ResponseTypeCode,
	})
	if err == nil {
		t.Fatal("expected error when store fails")
	}
}

func TestDevAuthService_Exchange(t *testing.T) {
	svc := newTestDevAuthService(newMockCodeStore())
	resp := authorizeOOB(t, svc)

	token, err := svc.Exchange(context.Background(), driving.TokenRequest{
		GrantType:    "authorization_code",
		ClientID:     testClientID,
		ClientSecret: testClientSecret,
		Code:         resp.Code,
		RedirectURI:  domain.OutOfBandRedirectURI,
	})
	if err != nil {
		t.Fatalf("Exchange() error = %v", err)
	}
	if len(token.AccessToken) != 64 {
		t.Errorf("AccessToken length = %d, want 64", len(token.AccessToken))
	}
	if token.TokenType != "Bearer" {
		t.Errorf("TokenType = %q, want Bearer", token.TokenType)
	}
	if token.Scope != "public read_user" {
		t.Errorf("Scope = %q", token.Scope)
	}
}

func TestDevAuthService_Exchange_SingleUse(t *testing.T) {
	svc := newTestDevAuthService(newMockCodeStore())
	resp := authorizeOOB(t, svc)

	req := driving.TokenRequest{
		GrantType:    "authorization_code",
		ClientID:     testClientID,
		ClientSecret: testClientSecret,
		Code:         resp.Code,
		RedirectURI:  domain.OutOfBandRedirectURI,
	}
	if _, err := svc.Exchange(context.Background(), req); err != nil {
		t.Fatalf("first Exchange() error = %v", err)
	}
	if _, err := svc.Exchange(context.Background(), req); !errors.Is(err, driving.ErrOAuthInvalidGrant) {
		t.Errorf("second Exchange() error = %v, want invalid_grant", err)
	}
}

func TestDevAuthService_Exchange_Errors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*driving.TokenRequest)
		want   *driving.OAuthError
	}{
		{"wrong grant type", func(r *driving.TokenRequest) { r.GrantType = "password" }, driving.ErrOAuthUnsupportedGrantType},
		{"missing code", func(r *driving.TokenRequest) { r.Code = "" }, driving.ErrOAuthInvalidRequest},
		{"bad secret", func(r *driving.TokenRequest) { r.ClientSecret = "wrong" }, driving.ErrOAuthInvalidClient},
		{"unknown client", func(r *driving.TokenRequest) { r.ClientID = "other" }, driving.ErrOAuthInvalidClient},
		{"garbage code", func(r *driving.TokenRequest) { r.Code = "!!not-a-code!!" }, driving.ErrOAuthInvalidGrant},
		{"redirect mismatch", func(r *driving.TokenRequest) { r.RedirectURI = "http://elsewhere/cb" }, driving.ErrOAuthInvalidGrant},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newTestDevAuthService(newMockCodeStore())
			resp := authorizeOOB(t, svc)

			req := driving.TokenRequest{
				GrantType:    "authorization_code",
				ClientID:     testClientID,
				ClientSecret: testClientSecret,
				Code:         resp.Code,
				RedirectURI:  domain.OutOfBandRedirectURI,
			}
			tt.mutate(&req)

			_, err := svc.Exchange(context.Background(), req)
			if !errors.Is(err, tt.want) {
				t.Errorf("Exchange() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestDevAuthService_Exchange_MismatchBurnsCode(t *testing.T) {
	store := newMockCodeStore()
	svc := newTestDevAuthService(store)
	resp := authorizeOOB(t, svc)

	_, _ = svc.Exchange(context.Background(), driving.TokenRequest{
		GrantType:    "authorization_code",
		ClientID:     testClientID,
		ClientSecret: testClientSecret,
		Code:         resp.Code,
		RedirectURI:  "http://elsewhere/cb",
	})

	if len(store.codes) != 0 {
		t.Error("code should be consumed after a mismatched attempt")
	}
}

func TestDevAuthService_Exchange_Expired(t *testing.T) {
	store := newMockCodeStore()
	svc := NewDevAuthService(DevAuthServiceConfig{
		Issuer:  mocks.NewMockCodeIssuer(),
		Store:   store,
		Clients: map[string]ClientRegistration{testClientID: {SecretHash: testClientSecret}},
		CodeTTL: time.Nanosecond,
	})
	resp := authorizeOOB(t, svc)
	time.Sleep(time.Millisecond)

	_, err := svc.Exchange(context.Background(), driving.TokenRequest{
		GrantType:    "authorization_code",
		ClientID:     testClientID,
		ClientSecret: testClientSecret,
		Code:         resp.Code,
		RedirectURI:  domain.OutOfBandRedirectURI,
	})
	if !errors.Is(err, driving.ErrOAuthInvalidGrant) {
		t.Errorf("Exchange() error = %v, want invalid_grant", err)
	}
}

func TestDevAuthService_Cleanup(t *testing.T) {
	store := newMockCodeStore()
	svc := newTestDevAuthService(store)

	if err := svc.Cleanup(context.Background()); err != nil {
		t.Fatalf("Cleanup() error = %v", err)
	}
	if store.cleaned != 1 {
		t.Errorf("store cleanup calls = %d, want 1", store.cleaned)
	}
}

func TestGenerateRandomString(t *testing.T) {
	a, err := generateRandomString(32)
	if err != nil {
		t.Fatalf("generateRandomString() error = %v", err)
	}
	b, _ := generateRandomString(32)
	if len(a) != 32 || a == b {
		t.Errorf("expected distinct 32 char strings, got %q and %q", a, b)
	}
}
