package driving

import (
	"context"
	"errors"

	"github.com/imagefeed/imagefeed-core/internal/core/domain"
)

// AuthorizationListener receives the single outcome of an authorization flow.
// Exactly one of the two methods is called, at most once per flow.
type AuthorizationListener interface {
	DidAuthenticate(code string)
	DidCancel()
}

// AuthorizationFlow drives a web surface through an authorization-code grant
// and reports the code without letting the surface load the final redirect.
type AuthorizationFlow interface {
	// Start builds the authorization URL and begins loading it.
	// A malformed request fails with ErrInvalidAuthorizationURL and leaves
	// the flow idle.
	Start(ctx context.Context) error

	// Cancel is the user's back action.
	Cancel()

	// DecidePolicy is the navigation delegate of the flow's surface.
	DecidePolicy(ctx context.Context, event domain.NavigationEvent) domain.NavigationPolicy

	// Appear and Disappear bracket the visible lifetime of the flow's
	// presentation. Progress is only observed in between.
	Appear()
	Disappear()

	// Close releases the surface. The flow cannot be restarted.
	Close()

	// State returns the current lifecycle state.
	State() domain.FlowState
}

// Authorization flow errors
var (
	ErrInvalidAuthorizationURL = errors.New("cannot create authorization url")
	ErrFlowAlreadyStarted      = errors.New("authorization flow already started")
	ErrFlowClosed              = errors.New("authorization flow closed")
	ErrLoginCancelled          = errors.New("login cancelled")
	ErrLoginInProgress         = errors.New("login already in progress")
)
