package driven

import (
	"context"

	"github.com/imagefeed/imagefeed-core/internal/core/domain"
)

// NavigationDelegate decides whether a web surface may load a navigation
// target. The surface must not request the target until the decision returns,
// and must not consider the next navigation before that.
type NavigationDelegate interface {
	DecidePolicy(ctx context.Context, event domain.NavigationEvent) domain.NavigationPolicy
}

// ProgressSubscription is a registration on a surface's progress signal.
type ProgressSubscription interface {
	// Unsubscribe stops delivery. Safe to call more than once; no callback
	// runs after it returns.
	Unsubscribe()
}

// WebSurface is a web content surface that can be driven to a URL.
type WebSurface interface {
	// Load navigates to rawURL, consulting the navigation delegate for the
	// initial request and for every redirect.
	Load(ctx context.Context, rawURL string) error

	// EstimatedProgress is the fraction in [0, 1] of the current load.
	EstimatedProgress() float64

	// ObserveProgress registers fn for progress changes.
	ObserveProgress(fn func(estimate float64)) ProgressSubscription

	// SetNavigationDelegate replaces the delegate. nil allows everything.
	SetNavigationDelegate(d NavigationDelegate)
}

// ProgressPresenter renders load progress.
type ProgressPresenter interface {
	PresentProgress(p domain.LoadProgress)
}
