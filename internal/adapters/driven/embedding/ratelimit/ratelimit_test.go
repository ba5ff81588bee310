package ratelimit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

// stubEmbedder fails with errs in order, then succeeds.
type stubEmbedder struct {
	errs  []error
	calls int
}

func (s *stubEmbedder) next() error {
	s.calls++
	if len(s.errs) == 0 {
		return nil
	}
	err := s.errs[0]
	s.errs = s.errs[1:]
	return err
}

func (s *stubEmbedder) Embed(_ context.Context, _ string) ([]float32, error) {
	if err := s.next(); err != nil {
		return nil, err
	}
	return []float32{1}, nil
}

func (s *stubEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	if err := s.next(); err != nil {
		return nil, err
	}
	out := make([][]float32, len(texts))
	for i := range out {
		out[i] = []float32{1}
	}
	return out, nil
}

func (s *stubEmbedder) Dimensions() int { return 1 }
func (s *stubEmbedder) ModelName() string { return "stub" }
func (s *stubEmbedder) Ping(_ context.Context) error { return nil }
func (s *stubEmbedder) Close() error { return nil }

func TestWrap_PassesThrough(t *testing.T) {
	stub := &stubEmbedder{}
	svc := Wrap(stub, Config{})

	vecs, err := svc.EmbedBatch(context.Background(), []string{"a", "b"})
	require.NoError(t, err)
	assert.Len(t, vecs, 2)
	assert.Equal(t, "stub", svc.ModelName())
	assert.Equal(t, 1, svc.Dimensions())
}

func TestWrap_RetriesRateLimited(t *testing.T) {
	stub := &stubEmbedder{errs: []error{domain.ErrRateLimited, domain.ErrRateLimited}}
	svc := Wrap(stub, Config{MaxRetries: 3, Backoff: time.Millisecond})

	vec, err := svc.Embed(context.Background(), "x")
	require.NoError(t, err)
	assert.Equal(t, []float32{1}, vec)
	assert.Equal(t, 3, stub.calls)
}

func TestWrap_GivesUpAfterMaxRetries(t *testing.T) {
	stub := &stubEmbedder{errs: []error{domain.ErrRateLimited, domain.ErrRateLimited, domain.ErrRateLimited}}
	svc := Wrap(stub, Config{MaxRetries: 1, Backoff: time.Millisecond})

	_, err := svc.Embed(context.Background(), "x")
	assert.True(t, errors.Is(err, domain.ErrRateLimited))
	assert.Equal(t, 2, stub.calls)
}

func TestWrap_OtherErrorsNotRetried(t *testing.T) {
	stub := &stubEmbedder{errs: []error{domain.ErrEmbeddingUnavailable}}
	svc := Wrap(stub, Config{MaxRetries: 3, Backoff: time.Millisecond})

	_, err := svc.Embed(context.Background(), "x")
	assert.True(t, errors.Is(err, domain.ErrEmbeddingUnavailable))
	assert.Equal(t, 1, stub.calls)
}

func TestWrap_CancelledDuringBackoff(t *testing.T) {
	stub := &stubEmbedder{errs: []error{domain.ErrRateLimited, domain.ErrRateLimited}}
	svc := Wrap(stub, Config{MaxRetries: 3, Backoff: time.Hour})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := svc.Embed(ctx, "x")
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}
