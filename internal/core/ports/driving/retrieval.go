package driving

import (
	"context"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

// Retriever returns the chunks nearest to a query.
// Backends differ (local embedder, remote API) but share this shape.
type Retriever interface {
	// EnsureReady attaches an index. It is idempotent: once ready,
	// further calls return nil without side effects.
	// On failure the retriever stays usable and returns empty results.
	EnsureReady(ctx context.Context) error

	// Retrieve returns up to k chunks ordered nearest first.
	// It never reports an unavailable index as an error; the result is
	// simply empty.
	Retrieve(ctx context.Context, query string, k int) ([]domain.Chunk, error)

	// Run returns the index configuration this retriever serves.
	Run() domain.IndexRun
	// Close releases the attached index, if any.
	Close() error
}
