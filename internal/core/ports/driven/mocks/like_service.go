package mocks

import (
	"context"
	"sync"

	"github.com/imagefeed/imagefeed-core/internal/core/ports/driven"
)

// Ensure MockLikeService implements LikeService
var _ driven.LikeService = (*MockLikeService)(nil)

// LikeCall records one SetLike invocation.
type LikeCall struct {
	PhotoID string
	Liked   bool
}

// MockLikeService records calls and returns Err when set.
type MockLikeService struct {
	mu    sync.Mutex
	calls []LikeCall
	Err   error
}

// NewMockLikeService creates a new MockLikeService
func NewMockLikeService() *MockLikeService {
	return &MockLikeService{}
}

func (m *MockLikeService) SetLike(ctx context.Context, photoID string, liked bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, LikeCall{PhotoID: photoID, Liked: liked})
	return m.Err
}

// Calls returns the recorded invocations.
func (m *MockLikeService) Calls() []LikeCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]LikeCall(nil), m.calls...)
}
