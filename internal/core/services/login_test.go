package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imagefeed/imagefeed-core/internal/core/domain"
	"github.com/imagefeed/imagefeed-core/internal/core/ports/driven/mocks"
	"github.com/imagefeed/imagefeed-core/internal/core/ports/driving"
)

// redirectingSurface answers Load with a scripted chain of navigations.
type redirectingSurface struct {
	*mocks.MockWebSurface
	chain []string
}

func (s *redirectingSurface) Load(ctx context.Context, rawURL string) error {
	if err := s.MockWebSurface.Load(ctx, rawURL); err != nil {
		return err
	}
	for _, next := range s.chain {
		s.SetProgress(0.5)
		if s.Navigate(ctx, next) == domain.PolicyCancel {
			return nil
		}
	}
	s.SetProgress(1)
	return nil
}

func newLoginFixture(t *testing.T, chain ...string) (driving.LoginService, driving.AuthorizationFlow, *redirectingSurface, *mocks.MockTokenExchanger) {
	t.Helper()
	exchanger := mocks.NewMockTokenExchanger()
	login := NewLoginService(LoginServiceConfig{Exchanger: exchanger})
	surface := &redirectingSurface{MockWebSurface: mocks.NewMockWebSurface(), chain: chain}
	flow := NewAuthorizationFlow(AuthorizationFlowConfig{
		Request:  testAuthorizationRequest(t),
		Surface:  surface,
		Listener: login,
	})
	return login, flow, surface, exchanger
}

func TestLoginService_Login_ExchangesCodeOnce(t *testing.T) {
	login, flow, surface, exchanger := newLoginFixture(t,
		"https://unsplash.com/login",
		"https://unsplash.com/oauth/authorize/native?code=abc123",
		"https://unsplash.com/oauth/authorize/native?code=ignored",
	)

	token, err := login.Login(context.Background(), flow)
	require.NoError(t, err)
	require.NotNil(t, token)

	assert.Equal(t, "token-for-abc123", token.AccessToken)
	assert.Equal(t, []string{"abc123"}, exchanger.Codes())
	assert.Equal(t, domain.FlowStateAuthenticated, flow.State())
	assert.Equal(t, 0, surface.ObserverCount(), "progress observation released after login")
}

func TestLoginService_Login_ExchangeFailure(t *testing.T) {
	login, flow, _, exchanger := newLoginFixture(t, "https://unsplash.com/oauth/authorize/native?code=abc")
	exchanger.Err = errors.New("invalid_grant")

	_, err := login.Login(context.Background(), flow)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exchange code")
	assert.Len(t, exchanger.Codes(), 1, "no retry with a single-use code")
}

func TestLoginService_Login_InvalidRequest(t *testing.T) {
	exchanger := mocks.NewMockTokenExchanger()
	login := NewLoginService(LoginServiceConfig{Exchanger: exchanger})
	flow := NewAuthorizationFlow(AuthorizationFlowConfig{
		Request:  domain.AuthorizationRequest{},
		Surface:  mocks.NewMockWebSurface(),
		Listener: login,
	})

	_, err := login.Login(context.Background(), flow)
	assert.ErrorIs(t, err, driving.ErrInvalidAuthorizationURL)
	assert.Empty(t, exchanger.Codes())
}

func TestLoginService_Login_ContextCancelled(t *testing.T) {
	login, flow, _, exchanger := newLoginFixture(t, "https://unsplash.com/login")

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := login.Login(ctx, flow)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, domain.FlowStateCancelled, flow.State())
	assert.Empty(t, exchanger.Codes())
}

func TestLoginService_Login_UserCancel(t *testing.T) {
	login, flow, _, _ := newLoginFixture(t, "https://unsplash.com/login")

	go func() {
		for flow.State() != domain.FlowStateLoading {
			time.Sleep(time.Millisecond)
		}
		flow.Cancel()
	}()

	_, err := login.Login(context.Background(), flow)
	assert.ErrorIs(t, err, driving.ErrLoginCancelled)
}

func TestLoginService_Login_SurfaceErrorAfterCode(t *testing.T) {
	exchanger := mocks.NewMockTokenExchanger()
	login := NewLoginService(LoginServiceConfig{Exchanger: exchanger})
	surface := &failingAfterCodeSurface{MockWebSurface: mocks.NewMockWebSurface()}
	flow := NewAuthorizationFlow(AuthorizationFlowConfig{
		Request:  testAuthorizationRequest(t),
		Surface:  surface,
		Listener: login,
	})

	token, err := login.Login(context.Background(), flow)
	require.NoError(t, err)
	assert.Equal(t, "token-for-late", token.AccessToken)
}

func TestLoginService_Login_SurfaceError(t *testing.T) {
	login, flow, surface, _ := newLoginFixture(t)
	surface.LoadErr = errors.New("dns failure")

	_, err := login.Login(context.Background(), flow)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dns failure")
}

func TestLoginService_OutcomeWithoutLogin(t *testing.T) {
	login := NewLoginService(LoginServiceConfig{Exchanger: mocks.NewMockTokenExchanger()})
	// Must not block or panic.
	login.DidAuthenticate("stray")
	login.DidCancel()
}

// failingAfterCodeSurface delivers a code and then reports a load failure.
type failingAfterCodeSurface struct {
	*mocks.MockWebSurface
}

func (s *failingAfterCodeSurface) Load(ctx context.Context, rawURL string) error {
	s.Navigate(ctx, "https://unsplash.com/oauth/authorize/native?code=late")
	return errors.New("connection reset")
}
