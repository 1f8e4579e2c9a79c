package services

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Cleaner removes expired state. DevAuthService satisfies it.
type Cleaner interface {
	Cleanup(ctx context.Context) error
}

// Janitor periodically purges expired authorization codes so stores without
// native TTLs do not grow unbounded.
type Janitor struct {
	cleaner  Cleaner
	logger   *slog.Logger
	interval time.Duration

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// JanitorConfig holds configuration for the janitor.
type JanitorConfig struct {
	Cleaner  Cleaner
	Logger   *slog.Logger
	Interval time.Duration // How often to clean up (default: 5m)
}

// NewJanitor creates a new janitor.
func NewJanitor(cfg JanitorConfig) *Janitor {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	interval := cfg.Interval
	if interval == 0 {
		interval = 5 * time.Minute
	}

	return &Janitor{
		cleaner:  cfg.Cleaner,
		logger:   logger,
		interval: interval,
	}
}

// Start begins the cleanup loop.
// It runs until Stop is called or context is cancelled.
func (j *Janitor) Start(ctx context.Context) {
	j.mu.Lock()
	if j.running {
		j.mu.Unlock()
		return
	}
	j.running = true
	j.stopCh = make(chan struct{})
	j.doneCh = make(chan struct{})
	stopCh, doneCh := j.stopCh, j.doneCh
	j.mu.Unlock()

	j.logger.Info("janitor starting", "interval", j.interval)

	go j.run(ctx, stopCh, doneCh)
}

// Stop ends the loop and waits for it to exit.
func (j *Janitor) Stop() {
	j.mu.Lock()
	if !j.running {
		j.mu.Unlock()
		return
	}
	j.running = false
	close(j.stopCh)
	doneCh := j.doneCh
	j.mu.Unlock()

	<-doneCh

	j.logger.Info("janitor stopped")
}

func (j *Janitor) run(ctx context.Context, stopCh <-chan struct{}, doneCh chan<- struct{}) {
	defer close(doneCh)

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-stopCh:
			return
		case <-ticker.C:
			if err := j.cleaner.Cleanup(ctx); err != nil {
				j.logger.Warn("code cleanup failed", "error", err)
			}
		}
	}
}
