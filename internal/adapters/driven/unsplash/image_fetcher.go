package unsplash

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/imagefeed/imagefeed-core/internal/adapters/driven/httpclient"
	"github.com/imagefeed/imagefeed-core/internal/core/domain"
	"github.com/imagefeed/imagefeed-core/internal/core/ports/driven"
)

// Ensure ImageFetcher implements the interface.
var _ driven.ImageLoader = (*ImageFetcher)(nil)

// DefaultMaxImageBytes caps a single download.
const DefaultMaxImageBytes = 32 << 20

// ImageFetcherConfig holds configuration for the image fetcher.
type ImageFetcherConfig struct {
	HTTPClient *http.Client // default: a retrying client
	MaxBytes   int64        // default: DefaultMaxImageBytes
	Logger     *slog.Logger
}

// ImageFetcher downloads image payloads without decoding them.
type ImageFetcher struct {
	client   *http.Client
	maxBytes int64
	logger   *slog.Logger
}

// NewImageFetcher creates a new image fetcher.
func NewImageFetcher(cfg ImageFetcherConfig) *ImageFetcher {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	client := cfg.HTTPClient
	if client == nil {
		client = httpclient.New(httpclient.Config{Logger: logger})
	}
	maxBytes := cfg.MaxBytes
	if maxBytes == 0 {
		maxBytes = DefaultMaxImageBytes
	}
	return &ImageFetcher{client: client, maxBytes: maxBytes, logger: logger}
}

func (f *ImageFetcher) LoadImage(ctx context.Context, url string) (*domain.Image, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build image request: %w", err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("fetch image: unexpected status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read image: %w", err)
	}
	if int64(len(data)) > f.maxBytes {
		return nil, fmt.Errorf("image exceeds %d bytes", f.maxBytes)
	}

	f.logger.Debug("image fetched", "url", url, "bytes", len(data))
	return &domain.Image{
		URL:         url,
		ContentType: resp.Header.Get("Content-Type"),
		Data:        data,
	}, nil
}
