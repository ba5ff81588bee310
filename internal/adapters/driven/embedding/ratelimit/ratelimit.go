// Package ratelimit throttles a remote embedding service so long sweeps
// stay under provider quotas.
package ratelimit

import (
	"context"
	"errors"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-rag/internal/logger"
)

// Ensure EmbeddingService implements the interface.
var _ driven.EmbeddingService = (*EmbeddingService)(nil)

// Default configuration values.
const (
	DefaultBurstSize  = 1
	DefaultMaxRetries = 3
	DefaultBackoff    = 10 * time.Second
)

// Config holds rate limiting configuration.
type Config struct {
	// RequestsPerSecond is the sustained request rate.
	RequestsPerSecond float64
	// BurstSize is the maximum burst size.
	BurstSize int
	// MaxRetries is how often a rate-limited request is retried.
	MaxRetries int
	// Backoff is the pause after a rate-limited response.
	Backoff time.Duration
}

// EmbeddingService wraps another embedding service with a token bucket
// and backs off when the provider reports domain.ErrRateLimited.
type EmbeddingService struct {
	next       driven.EmbeddingService
	limiter    *rate.Limiter
	maxRetries int
	backoff    time.Duration

	mu      sync.Mutex
	retryAt time.Time
}

// Wrap returns next throttled by cfg.
func Wrap(next driven.EmbeddingService, cfg Config) *EmbeddingService {
	if cfg.BurstSize <= 0 {
		cfg.BurstSize = DefaultBurstSize
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = DefaultMaxRetries
	}
	if cfg.Backoff <= 0 {
		cfg.Backoff = DefaultBackoff
	}
	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}

	return &EmbeddingService{
		next:       next,
		limiter:    rate.NewLimiter(limit, cfg.BurstSize),
		maxRetries: cfg.MaxRetries,
		backoff:    cfg.Backoff,
	}
}

// Embed generates a vector embedding for the given text.
func (s *EmbeddingService) Embed(ctx context.Context, text string) ([]float32, error) {
	var vec []float32
	err := s.do(ctx, func() error {
		var err error
		vec, err = s.next.Embed(ctx, text)
		return err
	})
	return vec, err
}

// EmbedBatch generates embeddings for multiple texts.
func (s *EmbeddingService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	var vecs [][]float32
	err := s.do(ctx, func() error {
		var err error
		vecs, err = s.next.EmbedBatch(ctx, texts)
		return err
	})
	return vecs, err
}

// Dimensions returns the wrapped service's vector size.
func (s *EmbeddingService) Dimensions() int {
	return s.next.Dimensions()
}

// ModelName returns the wrapped service's model.
func (s *EmbeddingService) ModelName() string {
	return s.next.ModelName()
}

// Ping is passed through without throttling.
func (s *EmbeddingService) Ping(ctx context.Context) error {
	return s.next.Ping(ctx)
}

// Close closes the wrapped service.
func (s *EmbeddingService) Close() error {
	return s.next.Close()
}

func (s *EmbeddingService) do(ctx context.Context, call func() error) error {
	for attempt := 0; ; attempt++ {
		if err := s.wait(ctx); err != nil {
			return err
		}

		err := call()
		if err == nil || !errors.Is(err, domain.ErrRateLimited) || attempt >= s.maxRetries {
			return err
		}

		logger.Warn("Embedding provider rate limited, backing off %s (attempt %d/%d)",
			s.backoff, attempt+1, s.maxRetries)
		s.mu.Lock()
		s.retryAt = time.Now().Add(s.backoff)
		s.mu.Unlock()
	}
}

// wait respects any backoff window, then the token bucket.
func (s *EmbeddingService) wait(ctx context.Context) error {
	s.mu.Lock()
	retryAt := s.retryAt
	s.mu.Unlock()

	if d := time.Until(retryAt); d > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(d):
		}
	}
	return s.limiter.Wait(ctx)
}
