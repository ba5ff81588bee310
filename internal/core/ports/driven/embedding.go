package driven

import "context"

// EmbeddingService turns chunk and query text into vectors. One instance
// serves every index run and question of a sweep, so implementations
// must not change state after construction.
//
// Backends: lexical (offline hashing), openai, ollama. The ratelimit
// package wraps any of them.
type EmbeddingService interface {
	// Embed returns the vector for one text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch returns one vector per text, in input order.
	// The indexer calls it with at most the configured batch size.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions is the vector length stored with every index run.
	Dimensions() int

	// ModelName identifies the model in logs and index metadata.
	ModelName() string

	// Ping checks the backend at startup. A failure is fatal.
	Ping(ctx context.Context) error

	// Close releases clients.
	Close() error
}
