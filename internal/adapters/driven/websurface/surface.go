// Package websurface provides a headless web surface that drives an
// authorization page over plain HTTP.
package websurface

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"

	"github.com/imagefeed/imagefeed-core/internal/adapters/driven/httpclient"
	"github.com/imagefeed/imagefeed-core/internal/core/domain"
	"github.com/imagefeed/imagefeed-core/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.WebSurface = (*HTTPSurface)(nil)

const (
	// DefaultMaxRedirects bounds the redirect chain of a single load.
	DefaultMaxRedirects = 10

	// DefaultUserAgent is sent with every request.
	DefaultUserAgent = "imagefeed/1.0"

	headersProgress = 0.1
	bodyProgressMax = 0.9
)

// Page describes where the last load ended.
type Page struct {
	URL         string `json:"url"`
	StatusCode  int    `json:"status_code"`
	ContentType string `json:"content_type,omitempty"`
	Bytes       int64  `json:"bytes"`

	// CancelledURL is the navigation target the delegate refused, if any.
	CancelledURL string `json:"cancelled_url,omitempty"`
}

// Cancelled reports whether the load stopped on a refused navigation.
func (p Page) Cancelled() bool {
	return p.CancelledURL != ""
}

// Config holds configuration for the HTTP surface.
type Config struct {
	// HTTPClient performs requests. Its CheckRedirect is replaced per load.
	// Default: a retrying client from httpclient.New.
	HTTPClient *http.Client

	Logger       *slog.Logger
	MaxRedirects int    // default: DefaultMaxRedirects
	UserAgent    string // default: DefaultUserAgent
}

// HTTPSurface loads pages with an http.Client and consults its navigation
// delegate before the initial request and before every redirect hop.
type HTTPSurface struct {
	client       *http.Client
	logger       *slog.Logger
	maxRedirects int
	userAgent    string

	mu       sync.Mutex
	delegate driven.NavigationDelegate
	progress float64
	subs     map[*subscription]struct{}
	last     Page
}

// NewHTTPSurface creates a new HTTP surface.
func NewHTTPSurface(cfg Config) *HTTPSurface {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	client := cfg.HTTPClient
	if client == nil {
		client = httpclient.New(httpclient.Config{Logger: logger, NoRedirects: true})
	}
	maxRedirects := cfg.MaxRedirects
	if maxRedirects == 0 {
		maxRedirects = DefaultMaxRedirects
	}
	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}

	return &HTTPSurface{
		client:       client,
		logger:       logger.With("component", "websurface"),
		maxRedirects: maxRedirects,
		userAgent:    userAgent,
		subs:         make(map[*subscription]struct{}),
	}
}

func (s *HTTPSurface) SetNavigationDelegate(d driven.NavigationDelegate) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.delegate = d
}

func (s *HTTPSurface) EstimatedProgress() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.progress
}

// LastPage returns where the most recent load ended.
func (s *HTTPSurface) LastPage() Page {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

// decide asks the delegate about rawURL. Without a delegate everything is allowed.
func (s *HTTPSurface) decide(ctx context.Context, rawURL string) domain.NavigationPolicy {
	s.mu.Lock()
	d := s.delegate
	s.mu.Unlock()

	if d == nil {
		return domain.PolicyAllow
	}
	policy := d.DecidePolicy(ctx, domain.NewNavigationEvent(rawURL))
	s.logger.Debug("navigation decided", "url", rawURL, "policy", policy.String())
	return policy
}

// Load requests rawURL and follows redirects the delegate allows. A refused
// navigation ends the load without error; LastPage reports it.
func (s *HTTPSurface) Load(ctx context.Context, rawURL string) error {
	s.resetProgress()

	if s.decide(ctx, rawURL) == domain.PolicyCancel {
		s.finish(Page{CancelledURL: rawURL})
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", s.userAgent)

	var cancelledURL string
	client := *s.client
	client.CheckRedirect = func(next *http.Request, via []*http.Request) error {
		if len(via) >= s.maxRedirects {
			return fmt.Errorf("stopped after %d redirects", s.maxRedirects)
		}
		target := next.URL.String()
		if s.decide(next.Context(), target) == domain.PolicyCancel {
			cancelledURL = target
			return http.ErrUseLastResponse
		}
		next.Header.Set("User-Agent", s.userAgent)
		return nil
	}

	resp, err := client.Do(req)
	if err != nil {
		s.logger.Warn("page load failed", "url", rawURL, "error", err)
		return fmt.Errorf("load page: %w", err)
	}
	defer resp.Body.Close()

	s.advance(headersProgress)

	n, err := s.readBody(resp)
	page := Page{
		URL:          resp.Request.URL.String(),
		StatusCode:   resp.StatusCode,
		ContentType:  resp.Header.Get("Content-Type"),
		Bytes:        n,
		CancelledURL: cancelledURL,
	}
	if err != nil && !errors.Is(err, io.EOF) {
		s.setLast(page)
		return fmt.Errorf("read page: %w", err)
	}

	s.finish(page)
	return nil
}

// readBody drains the response and advances progress as bytes arrive.
func (s *HTTPSurface) readBody(resp *http.Response) (int64, error) {
	buf := make([]byte, 32*1024)
	var read int64
	estimate := headersProgress
	for {
		n, err := resp.Body.Read(buf)
		if n > 0 {
			read += int64(n)
			if resp.ContentLength > 0 {
				estimate = headersProgress + (bodyProgressMax-headersProgress)*float64(read)/float64(resp.ContentLength)
			} else {
				estimate += (bodyProgressMax - estimate) / 2
			}
			if estimate > bodyProgressMax {
				estimate = bodyProgressMax
			}
			s.advance(estimate)
		}
		if err != nil {
			return read, err
		}
	}
}

func (s *HTTPSurface) setLast(p Page) {
	s.mu.Lock()
	s.last = p
	s.mu.Unlock()
}

func (s *HTTPSurface) finish(p Page) {
	s.setLast(p)
	s.advance(1)
	s.logger.Debug("page load finished", "url", p.URL, "status", p.StatusCode, "cancelled_url", p.CancelledURL)
}

func (s *HTTPSurface) resetProgress() {
	s.mu.Lock()
	s.progress = 0
	subs := s.snapshot()
	s.mu.Unlock()
	notify(subs, 0)
}

// advance raises progress to estimate. Progress never decreases within a load.
func (s *HTTPSurface) advance(estimate float64) {
	s.mu.Lock()
	if estimate <= s.progress {
		s.mu.Unlock()
		return
	}
	s.progress = estimate
	subs := s.snapshot()
	s.mu.Unlock()
	notify(subs, estimate)
}

// snapshot must be called with s.mu held.
func (s *HTTPSurface) snapshot() []*subscription {
	subs := make([]*subscription, 0, len(s.subs))
	for sub := range s.subs {
		subs = append(subs, sub)
	}
	return subs
}

// ObserveProgress registers fn for progress changes. The returned
// subscription must not be released from inside fn.
func (s *HTTPSurface) ObserveProgress(fn func(estimate float64)) driven.ProgressSubscription {
	sub := &subscription{surface: s, fn: fn, active: true}
	s.mu.Lock()
	s.subs[sub] = struct{}{}
	s.mu.Unlock()
	return sub
}

func notify(subs []*subscription, estimate float64) {
	for _, sub := range subs {
		sub.deliver(estimate)
	}
}

type subscription struct {
	surface *HTTPSurface
	fn      func(float64)

	// mu is held while fn runs so Unsubscribe waits for in-flight delivery.
	mu     sync.Mutex
	active bool
}

func (sub *subscription) deliver(estimate float64) {
	sub.mu.Lock()
	defer sub.mu.Unlock()
	if sub.active {
		sub.fn(estimate)
	}
}

func (sub *subscription) Unsubscribe() {
	sub.surface.mu.Lock()
	delete(sub.surface.subs, sub)
	sub.surface.mu.Unlock()

	sub.mu.Lock()
	sub.active = false
	sub.mu.Unlock()
}
