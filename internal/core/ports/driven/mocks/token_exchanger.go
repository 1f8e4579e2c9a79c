package mocks

import (
	"context"
	"sync"
	"time"

	"github.com/imagefeed/imagefeed-core/internal/core/domain"
	"github.com/imagefeed/imagefeed-core/internal/core/ports/driven"
)

// Ensure MockTokenExchanger implements TokenExchanger
var _ driven.TokenExchanger = (*MockTokenExchanger)(nil)

// MockTokenExchanger returns a token derived from the code, or Err.
type MockTokenExchanger struct {
	mu    sync.Mutex
	codes []string
	Err   error
}

// NewMockTokenExchanger creates a new MockTokenExchanger
func NewMockTokenExchanger() *MockTokenExchanger {
	return &MockTokenExchanger{}
}

func (m *MockTokenExchanger) ExchangeCode(ctx context.Context, code string) (*domain.OAuthToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.codes = append(m.codes, code)
	if m.Err != nil {
		return nil, m.Err
	}
	return &domain.OAuthToken{
		AccessToken: "token-for-" + code,
		TokenType:   "Bearer",
		CreatedAt:   time.Now(),
	}, nil
}

// Codes returns every code passed to ExchangeCode.
func (m *MockTokenExchanger) Codes() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.codes...)
}
