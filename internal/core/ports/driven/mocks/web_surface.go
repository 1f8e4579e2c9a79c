package mocks

import (
	"context"
	"sync"

	"github.com/imagefeed/imagefeed-core/internal/core/domain"
	"github.com/imagefeed/imagefeed-core/internal/core/ports/driven"
)

// Ensure MockWebSurface implements WebSurface
var _ driven.WebSurface = (*MockWebSurface)(nil)

// MockWebSurface is a scripted web surface. Tests drive navigations and
// progress changes by hand.
type MockWebSurface struct {
	mu          sync.Mutex
	delegate    driven.NavigationDelegate
	progress    float64
	observers   map[*mockSubscription]func(float64)
	loaded      []string
	decisions   []domain.NavigationPolicy
	LoadErr     error
	unsubscribe int
}

// NewMockWebSurface creates a new MockWebSurface
func NewMockWebSurface() *MockWebSurface {
	return &MockWebSurface{
		observers: make(map[*mockSubscription]func(float64)),
	}
}

// Load records the URL and offers it to the delegate as the first navigation.
func (m *MockWebSurface) Load(ctx context.Context, rawURL string) error {
	m.mu.Lock()
	m.loaded = append(m.loaded, rawURL)
	err := m.LoadErr
	m.mu.Unlock()
	if err != nil {
		return err
	}
	m.Navigate(ctx, rawURL)
	return nil
}

// Navigate simulates the surface attempting to navigate to rawURL.
func (m *MockWebSurface) Navigate(ctx context.Context, rawURL string) domain.NavigationPolicy {
	m.mu.Lock()
	d := m.delegate
	m.mu.Unlock()

	policy := domain.PolicyAllow
	if d != nil {
		policy = d.DecidePolicy(ctx, domain.NewNavigationEvent(rawURL))
	}

	m.mu.Lock()
	m.decisions = append(m.decisions, policy)
	m.mu.Unlock()
	return policy
}

func (m *MockWebSurface) EstimatedProgress() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.progress
}

// SetProgress updates the estimate and notifies observers.
func (m *MockWebSurface) SetProgress(estimate float64) {
	m.mu.Lock()
	m.progress = estimate
	fns := make([]func(float64), 0, len(m.observers))
	for _, fn := range m.observers {
		fns = append(fns, fn)
	}
	m.mu.Unlock()

	for _, fn := range fns {
		fn(estimate)
	}
}

func (m *MockWebSurface) ObserveProgress(fn func(float64)) driven.ProgressSubscription {
	m.mu.Lock()
	defer m.mu.Unlock()
	sub := &mockSubscription{surface: m}
	m.observers[sub] = fn
	return sub
}

func (m *MockWebSurface) SetNavigationDelegate(d driven.NavigationDelegate) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.delegate = d
}

// Delegate returns the current navigation delegate.
func (m *MockWebSurface) Delegate() driven.NavigationDelegate {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.delegate
}

// Loaded returns the URLs passed to Load.
func (m *MockWebSurface) Loaded() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.loaded...)
}

// Decisions returns every policy decision taken so far.
func (m *MockWebSurface) Decisions() []domain.NavigationPolicy {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.NavigationPolicy(nil), m.decisions...)
}

// ObserverCount is the number of live progress subscriptions.
func (m *MockWebSurface) ObserverCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.observers)
}

// Unsubscribes counts effective Unsubscribe calls.
func (m *MockWebSurface) Unsubscribes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.unsubscribe
}

type mockSubscription struct {
	surface *MockWebSurface
}

func (s *mockSubscription) Unsubscribe() {
	s.surface.mu.Lock()
	defer s.surface.mu.Unlock()
	if _, ok := s.surface.observers[s]; ok {
		delete(s.surface.observers, s)
		s.surface.unsubscribe++
	}
}
