// Package lexical provides an offline embedding service built from hashed
// term frequencies. It needs no model download or network access, which
// makes sweeps reproducible on any machine.
package lexical

import (
	"context"
	"hash/fnv"
	"math"
	"regexp"
	"strings"

	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
)

// Ensure EmbeddingService implements the interface.
var _ driven.EmbeddingService = (*EmbeddingService)(nil)

// Default configuration values.
const (
	DefaultModel      = "lexical-hash"
	DefaultDimensions = 1024
)

var tokenPattern = regexp.MustCompile(`\p{L}+(?:['’]\p{L}+)*|\p{N}+`)

// Config holds configuration for the lexical embedding service.
type Config struct {
	// Model is the reported model name (default: lexical-hash).
	Model string

	// Dimensions is the number of hash buckets (default: 1024).
	Dimensions int

	// Stopwords are dropped before hashing. Nil uses a Portuguese list.
	Stopwords []string
}

// EmbeddingService maps text to L2-normalised vectors of hashed,
// log-scaled term counts. Texts sharing words score higher under cosine.
type EmbeddingService struct {
	model      string
	dimensions int
	stopwords  map[string]struct{}
}

// NewEmbeddingService creates a new lexical embedding service.
func NewEmbeddingService(cfg Config) *EmbeddingService {
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Dimensions <= 0 {
		cfg.Dimensions = DefaultDimensions
	}
	words := cfg.Stopwords
	if words == nil {
		words = defaultStopwords
	}
	stop := make(map[string]struct{}, len(words))
	for _, w := range words {
		stop[strings.ToLower(w)] = struct{}{}
	}

	return &EmbeddingService{
		model:      cfg.Model,
		dimensions: cfg.Dimensions,
		stopwords:  stop,
	}
}

// Embed generates a vector embedding for the given text.
func (s *EmbeddingService) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	counts := make(map[int]int)
	for _, tok := range tokenPattern.FindAllString(strings.ToLower(text), -1) {
		if _, ok := s.stopwords[tok]; ok {
			continue
		}
		counts[s.bucket(tok)]++
	}

	vec := make([]float32, s.dimensions)
	var norm float64
	for idx, c := range counts {
		w := 1 + math.Log(float64(c))
		vec[idx] = float32(w)
		norm += w * w
	}
	if norm > 0 {
		inv := float32(1 / math.Sqrt(norm))
		for i := range vec {
			vec[i] *= inv
		}
	}
	return vec, nil
}

// EmbedBatch generates embeddings for multiple texts.
func (s *EmbeddingService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	embeddings := make([][]float32, len(texts))
	for i, text := range texts {
		vec, err := s.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		embeddings[i] = vec
	}
	return embeddings, nil
}

// Dimensions returns the embedding vector size.
func (s *EmbeddingService) Dimensions() int {
	return s.dimensions
}

// ModelName returns the name of the embedding model being used.
func (s *EmbeddingService) ModelName() string {
	return s.model
}

// Ping always succeeds.
func (s *EmbeddingService) Ping(_ context.Context) error {
	return nil
}

// Close releases resources.
func (s *EmbeddingService) Close() error {
	return nil
}

func (s *EmbeddingService) bucket(token string) int {
	h := fnv.New32a()
	h.Write([]byte(token)) //nolint:errcheck
	return int(h.Sum32() % uint32(s.dimensions))
}

var defaultStopwords = []string{
	"a", "ao", "aos", "as", "à", "às", "com", "como", "da", "das", "de", "do", "dos",
	"e", "é", "em", "era", "foi", "na", "nas", "no", "nos", "o", "os", "ou", "para",
	"pela", "pelo", "por", "que", "se", "sua", "seu", "um", "uma",
	"qual", "quais", "quem", "onde", "quando",
}
