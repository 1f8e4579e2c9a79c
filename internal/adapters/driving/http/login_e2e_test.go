package http

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imagefeed/imagefeed-core/internal/adapters/driven/unsplash"
	"github.com/imagefeed/imagefeed-core/internal/adapters/driven/websurface"
	"github.com/imagefeed/imagefeed-core/internal/core/domain"
	"github.com/imagefeed/imagefeed-core/internal/core/services"
)

// TestLogin_AgainstDevServer drives the whole login through the HTTP surface:
// authorize, cancelled native redirect, then one token exchange.
func TestLogin_AgainstDevServer(t *testing.T) {
	ts := newTestServer(t)

	req, err := domain.NewAuthorizationRequest(
		ts.URL+"/oauth/authorize",
		testClientID,
		domain.OutOfBandRedirectURI,
		[]string{"public", "read_user"},
	)
	require.NoError(t, err)

	login := services.NewLoginService(services.LoginServiceConfig{
		Exchanger: unsplash.NewTokenExchanger(unsplash.TokenExchangerConfig{
			ClientID:     testClientID,
			ClientSecret: testClientSecret,
			RedirectURI:  domain.OutOfBandRedirectURI,
			TokenURL:     ts.URL + "/oauth/token",
		}),
	})

	surface := websurface.NewHTTPSurface(websurface.Config{})
	flow := services.NewAuthorizationFlow(services.AuthorizationFlowConfig{
		Request:  req,
		Surface:  surface,
		Listener: login,
	})
	defer flow.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	token, err := login.Login(ctx, flow)
	require.NoError(t, err)

	assert.Len(t, token.AccessToken, 64)
	assert.Equal(t, "public read_user", token.Scope)
	assert.Equal(t, domain.FlowStateAuthenticated, flow.State())
	assert.True(t, surface.LastPage().Cancelled())
	assert.Zero(t, ts.store.Len(), "code should have been consumed")
}
