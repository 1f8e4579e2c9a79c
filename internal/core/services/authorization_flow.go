package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/imagefeed/imagefeed-core/internal/core/domain"
	"github.com/imagefeed/imagefeed-core/internal/core/ports/driven"
	"github.com/imagefeed/imagefeed-core/internal/core/ports/driving"
)

// Ensure authorizationFlow implements AuthorizationFlow and can sit behind a surface
var (
	_ driving.AuthorizationFlow = (*authorizationFlow)(nil)
	_ driven.NavigationDelegate = (*authorizationFlow)(nil)
)

// AuthorizationFlowConfig holds configuration for an authorization flow.
type AuthorizationFlowConfig struct {
	// Request describes the grant. It is validated on Start, not here.
	Request domain.AuthorizationRequest

	// Surface is the web content surface the flow drives.
	Surface driven.WebSurface

	// Listener receives the single outcome. Optional.
	Listener driving.AuthorizationListener

	// Presenter renders load progress. Optional.
	Presenter driven.ProgressPresenter

	Logger *slog.Logger

	// ID tags log lines of this flow. Generated when empty.
	ID string
}

// authorizationFlow implements the Idle -> Loading -> {Authenticated | Cancelled}
// state machine. All transitions happen under mu and the listener is called
// after the transition, outside the lock.
type authorizationFlow struct {
	request   domain.AuthorizationRequest
	surface   driven.WebSurface
	listener  driving.AuthorizationListener
	presenter driven.ProgressPresenter
	logger    *slog.Logger
	id        string

	mu          sync.Mutex
	state       domain.FlowState
	closed      bool
	progressSub driven.ProgressSubscription
}

// NewAuthorizationFlow creates a flow and installs it as the surface's
// navigation delegate.
func NewAuthorizationFlow(cfg AuthorizationFlowConfig) driving.AuthorizationFlow {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	id := cfg.ID
	if id == "" {
		id = uuid.NewString()
	}

	listener := cfg.Listener
	if listener == nil {
		listener = noopListener{}
	}

	f := &authorizationFlow{
		request:   cfg.Request,
		surface:   cfg.Surface,
		listener:  listener,
		presenter: cfg.Presenter,
		logger:    logger.With("flow_id", id),
		id:        id,
		state:     domain.FlowStateIdle,
	}
	f.surface.SetNavigationDelegate(f)
	return f
}

// Start builds the authorization URL, reports the initial progress and loads
// the URL into the surface.
func (f *authorizationFlow) Start(ctx context.Context) error {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return driving.ErrFlowClosed
	}
	if f.state != domain.FlowStateIdle {
		f.mu.Unlock()
		return driving.ErrFlowAlreadyStarted
	}

	authURL, err := f.request.URL()
	if err != nil {
		f.mu.Unlock()
		f.logger.Error("cannot create authorization url", "error", err)
		return fmt.Errorf("%w: %v", driving.ErrInvalidAuthorizationURL, err)
	}
	f.state = domain.FlowStateLoading
	f.mu.Unlock()

	f.logger.Debug("loading authorization page", "url", authURL)
	f.updateProgress(f.surface.EstimatedProgress())

	if err := f.surface.Load(ctx, authURL); err != nil {
		f.logger.Warn("authorization page load failed", "error", err)
		return fmt.Errorf("load authorization page: %w", err)
	}
	return nil
}

// Cancel emits DidCancel unless the flow already ended.
func (f *authorizationFlow) Cancel() {
	f.mu.Lock()
	if f.state.IsTerminal() {
		f.mu.Unlock()
		return
	}
	f.state = domain.FlowStateCancelled
	f.mu.Unlock()

	f.logger.Info("authorization cancelled")
	f.listener.DidCancel()
}

// DecidePolicy cancels native redirects carrying a code and allows everything
// else. Only the first such redirect seen while Loading produces an outcome;
// redirects before Start or after the flow ended are still cancelled so the
// surface never loads the redirect target.
func (f *authorizationFlow) DecidePolicy(ctx context.Context, event domain.NavigationEvent) domain.NavigationPolicy {
	code, ok := event.AuthorizationCode()
	if !ok {
		return domain.PolicyAllow
	}

	f.mu.Lock()
	if f.state != domain.FlowStateLoading {
		state := f.state
		f.mu.Unlock()
		f.logger.Debug("native redirect outside loading", "state", state)
		return domain.PolicyCancel
	}
	f.state = domain.FlowStateAuthenticated
	f.mu.Unlock()

	f.logger.Info("authorization code received")
	f.listener.DidAuthenticate(code)
	return domain.PolicyCancel
}

// Appear subscribes to the surface's progress. Calling it twice keeps a
// single subscription.
func (f *authorizationFlow) Appear() {
	f.mu.Lock()
	if f.closed || f.progressSub != nil {
		f.mu.Unlock()
		return
	}
	f.progressSub = f.surface.ObserveProgress(f.updateProgress)
	f.mu.Unlock()

	f.updateProgress(f.surface.EstimatedProgress())
}

// Disappear releases the progress subscription.
func (f *authorizationFlow) Disappear() {
	f.mu.Lock()
	sub := f.progressSub
	f.progressSub = nil
	f.mu.Unlock()

	if sub != nil {
		sub.Unsubscribe()
	}
}

// Close detaches the flow from its surface.
func (f *authorizationFlow) Close() {
	f.Disappear()

	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return
	}
	f.closed = true
	f.mu.Unlock()

	f.surface.SetNavigationDelegate(nil)
}

func (f *authorizationFlow) State() domain.FlowState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

func (f *authorizationFlow) updateProgress(estimate float64) {
	if f.presenter == nil {
		return
	}
	f.presenter.PresentProgress(domain.NewLoadProgress(estimate))
}

// WhileVisible runs fn with the flow's progress observation active and
// releases it when fn returns.
func WhileVisible(flow driving.AuthorizationFlow, fn func() error) error {
	flow.Appear()
	defer flow.Disappear()
	return fn()
}

type noopListener struct{}

func (noopListener) DidAuthenticate(string) {}
func (noopListener) DidCancel()             {}
