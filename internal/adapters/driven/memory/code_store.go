package memory

import (
	"context"
	"sync"

	"github.com/imagefeed/imagefeed-core/internal/core/domain"
	"github.com/imagefeed/imagefeed-core/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.AuthorizationCodeStore = (*CodeStore)(nil)

// CodeStore keeps authorization codes in process memory. Used when no
// Redis or PostgreSQL backend is configured. Expired codes linger until
// Cleanup runs.
type CodeStore struct {
	mu    sync.Mutex
	codes map[string]domain.AuthorizationCode
}

// NewCodeStore creates an empty in-memory store
func NewCodeStore() *CodeStore {
	return &CodeStore{codes: make(map[string]domain.AuthorizationCode)}
}

func (s *CodeStore) Save(ctx context.Context, code *domain.AuthorizationCode) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.codes[code.Code] = *code
	return nil
}

func (s *CodeStore) Consume(ctx context.Context, code string) (*domain.AuthorizationCode, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.codes[code]
	if !ok {
		return nil, nil
	}
	delete(s.codes, code)
	if c.IsExpired() {
		return nil, nil
	}
	return &c, nil
}

func (s *CodeStore) Cleanup(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, c := range s.codes {
		if c.IsExpired() {
			delete(s.codes, k)
		}
	}
	return nil
}

func (s *CodeStore) Ping(ctx context.Context) error {
	return nil
}

// Len reports how many codes are held, expired or not.
func (s *CodeStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.codes)
}
