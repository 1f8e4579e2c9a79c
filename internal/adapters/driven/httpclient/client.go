// Package httpclient builds the retrying HTTP clients shared by the outbound
// adapters.
package httpclient

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"
)

// Config holds options for New.
type Config struct {
	Logger   *slog.Logger
	RetryMax int           // default: 2
	Timeout  time.Duration // default: 30s

	// CheckRetry overrides retryablehttp.DefaultRetryPolicy.
	CheckRetry retryablehttp.CheckRetry

	// NoRedirects returns 3xx responses to the caller instead of following
	// them. Callers may install their own CheckRedirect on the result.
	NoRedirects bool
}

// New returns a standard *http.Client whose transport retries connection
// errors and 5xx responses with backoff.
func New(cfg Config) *http.Client {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	retryMax := cfg.RetryMax
	if retryMax == 0 {
		retryMax = 2
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	rc := retryablehttp.NewClient()
	rc.RetryMax = retryMax
	rc.RetryWaitMin = 100 * time.Millisecond
	rc.RetryWaitMax = 2 * time.Second
	if cfg.CheckRetry != nil {
		rc.CheckRetry = cfg.CheckRetry
	}
	// *slog.Logger satisfies retryablehttp.LeveledLogger.
	rc.Logger = logger.With("component", "httpclient")
	if cfg.NoRedirects {
		// The retrying transport runs its own client; redirects must surface
		// to the outer one.
		rc.HTTPClient.CheckRedirect = func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		}
	}

	client := rc.StandardClient()
	client.Timeout = timeout
	if cfg.NoRedirects {
		client.CheckRedirect = func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		}
	}
	return client
}
