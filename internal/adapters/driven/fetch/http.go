// Package fetch downloads web pages for conversion into corpus documents.
package fetch

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"time"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
)

// Ensure HTTPFetcher implements the interface.
var _ driven.Fetcher = (*HTTPFetcher)(nil)

// Default configuration values.
const (
	DefaultTimeout   = 30 * time.Second
	DefaultUserAgent = "Mozilla/5.0"
	DefaultMaxBytes  = 20 << 20
)

// Config holds configuration for the HTTP fetcher.
type Config struct {
	Timeout   time.Duration
	UserAgent string
	MaxBytes  int64
}

// HTTPFetcher downloads pages over HTTP.
type HTTPFetcher struct {
	client    *http.Client
	userAgent string
	maxBytes  int64
}

// NewHTTPFetcher creates a fetcher. Zero config values use the defaults.
func NewHTTPFetcher(cfg Config) *HTTPFetcher {
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}
	if cfg.MaxBytes == 0 {
		cfg.MaxBytes = DefaultMaxBytes
	}
	return &HTTPFetcher{
		client:    &http.Client{Timeout: cfg.Timeout},
		userAgent: cfg.UserAgent,
		maxBytes:  cfg.MaxBytes,
	}
}

// Fetch downloads url. Non-2xx responses and bodies over the size limit
// are errors.
func (f *HTTPFetcher) Fetch(ctx context.Context, url string) (*domain.RawDocument, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrInvalidInput, err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.8")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("fetching %s: status %d", url, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", url, err)
	}
	if int64(len(body)) > f.maxBytes {
		return nil, fmt.Errorf("%w: %s exceeds %d bytes", domain.ErrInvalidInput, url, f.maxBytes)
	}

	return &domain.RawDocument{
		URI:      url,
		MIMEType: mediaType(resp.Header.Get("Content-Type")),
		Content:  body,
	}, nil
}

// mediaType strips parameters from a Content-Type header. Missing or
// malformed headers default to HTML.
func mediaType(header string) string {
	if header == "" {
		return "text/html"
	}
	mt, _, err := mime.ParseMediaType(header)
	if err != nil {
		return "text/html"
	}
	return mt
}
