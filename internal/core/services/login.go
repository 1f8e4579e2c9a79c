package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/imagefeed/imagefeed-core/internal/core/domain"
	"github.com/imagefeed/imagefeed-core/internal/core/ports/driven"
	"github.com/imagefeed/imagefeed-core/internal/core/ports/driving"
)

// Ensure loginService implements LoginService
var _ driving.LoginService = (*loginService)(nil)

// LoginServiceConfig holds configuration for the login service.
type LoginServiceConfig struct {
	// Exchanger redeems the authorization code. It is called once per login.
	Exchanger driven.TokenExchanger

	Logger *slog.Logger
}

// loginService listens to one authorization flow at a time and turns its
// outcome into a token.
type loginService struct {
	exchanger driven.TokenExchanger
	logger    *slog.Logger

	mu       sync.Mutex
	outcomes chan domain.AuthorizationOutcome
}

// NewLoginService creates a new login service. Pass it as the Listener of the
// flows handed to Login.
func NewLoginService(cfg LoginServiceConfig) driving.LoginService {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &loginService{
		exchanger: cfg.Exchanger,
		logger:    logger,
	}
}

func (s *loginService) DidAuthenticate(code string) {
	s.deliver(domain.Authenticated(code))
}

func (s *loginService) DidCancel() {
	s.deliver(domain.Cancelled())
}

func (s *loginService) deliver(outcome domain.AuthorizationOutcome) {
	s.mu.Lock()
	ch := s.outcomes
	s.mu.Unlock()

	if ch == nil {
		s.logger.Warn("authorization outcome without login in progress", "kind", outcome.Kind)
		return
	}

	select {
	case ch <- outcome:
	default:
		s.logger.Warn("dropping extra authorization outcome", "kind", outcome.Kind)
	}
}

// Login runs flow with progress observation active and waits for its outcome.
// Authenticated outcomes are exchanged for a token exactly once.
func (s *loginService) Login(ctx context.Context, flow driving.AuthorizationFlow) (*domain.OAuthToken, error) {
	s.mu.Lock()
	if s.outcomes != nil {
		s.mu.Unlock()
		return nil, driving.ErrLoginInProgress
	}
	outcomes := make(chan domain.AuthorizationOutcome, 1)
	s.outcomes = outcomes
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.outcomes = nil
		s.mu.Unlock()
	}()

	var outcome domain.AuthorizationOutcome
	err := WhileVisible(flow, func() error {
		if err := flow.Start(ctx); err != nil {
			if errors.Is(err, driving.ErrInvalidAuthorizationURL) {
				return err
			}
			// The surface may have failed after the code was already delivered.
			select {
			case outcome = <-outcomes:
				return nil
			default:
				return err
			}
		}

		select {
		case outcome = <-outcomes:
			return nil
		case <-ctx.Done():
			flow.Cancel()
			return ctx.Err()
		}
	})
	if err != nil {
		return nil, err
	}

	if outcome.Kind == domain.OutcomeCancelled {
		return nil, driving.ErrLoginCancelled
	}

	token, err := s.exchanger.ExchangeCode(ctx, outcome.Code)
	if err != nil {
		return nil, fmt.Errorf("exchange code: %w", err)
	}
	s.logger.Info("login succeeded", "token_type", token.TokenType, "scope", token.Scope)
	return token, nil
}
