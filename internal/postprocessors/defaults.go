package postprocessors

import (
	"fmt"
	"sort"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-rag/internal/postprocessors/chunker"
)

// Config keys understood by the built-in chunker.
const (
	ConfigChunkSize = "chunk_size"
	ConfigOverlap   = "overlap"
	ConfigStrategy  = "strategy"
)

// ChunkerName is the registry name of the built-in chunker.
const ChunkerName = "chunker"

// splitters maps each chunk strategy to its split function.
var splitters = map[domain.ChunkStrategy]chunker.SplitFunc{
	domain.ChunkStrategyWindow:    chunker.Split,
	domain.ChunkStrategyRecursive: chunker.SplitRecursive,
}

// Strategies returns the supported chunk strategies, sorted.
func Strategies() []domain.ChunkStrategy {
	out := make([]domain.ChunkStrategy, 0, len(splitters))
	for s := range splitters {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// RegisterDefaults registers the built-in stages.
func RegisterDefaults(r *Registry) error {
	return r.Register(ChunkerName, buildChunker)
}

// buildChunker creates a chunker processor from generic config.
// Supported config keys:
//   - chunk_size (int): Characters per chunk (default: 1000)
//   - overlap (int): Overlapping characters between chunks (default: 200)
//   - strategy (string): "window" (default) or "recursive"
func buildChunker(cfg map[string]any) (driven.PostProcessor, error) {
	var opts []chunker.Option

	if size, ok := getIntFromConfig(cfg, ConfigChunkSize); ok {
		opts = append(opts, chunker.WithChunkSize(size))
	}
	if overlap, ok := getIntFromConfig(cfg, ConfigOverlap); ok {
		opts = append(opts, chunker.WithOverlap(overlap))
	}

	strategy := domain.ChunkStrategyWindow
	if s, ok := cfg[ConfigStrategy].(string); ok && s != "" {
		strategy = domain.ChunkStrategy(s)
	}
	split, ok := splitters[strategy]
	if !ok {
		return nil, fmt.Errorf("%w: chunk strategy %q", domain.ErrUnsupportedType, strategy)
	}
	opts = append(opts, chunker.WithSplitFunc(split))

	return chunker.New(opts...)
}

// getIntFromConfig safely extracts an int from generic config map.
// Handles int, int64, and float64 types that may come from TOML/JSON parsing.
func getIntFromConfig(cfg map[string]any, key string) (int, bool) {
	val, ok := cfg[key]
	if !ok {
		return 0, false
	}

	switch v := val.(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	default:
		return 0, false
	}
}

// Ensure Builder implements the interface.
var _ driven.PipelineBuilder = (*Builder)(nil)

// Builder assembles the configured processors into a pipeline per run.
type Builder struct {
	registry   *Registry
	processors []string
	configs    map[string]map[string]any
}

// NewBuilder creates a builder for the default chunker with the given strategy.
func NewBuilder(strategy domain.ChunkStrategy) *Builder {
	r := NewRegistry()
	RegisterDefaults(r) //nolint:errcheck
	return &Builder{
		registry:   r,
		processors: []string{ChunkerName},
		configs: map[string]map[string]any{
			ChunkerName: {ConfigStrategy: string(strategy)},
		},
	}
}

// Build returns a pipeline whose chunker uses the run's size and overlap.
func (b *Builder) Build(run domain.IndexRun) (driven.PostProcessorPipeline, error) {
	if err := run.Validate(); err != nil {
		return nil, err
	}

	pipeline := NewPipeline()
	for _, name := range b.processors {
		cfg := make(map[string]any, len(b.configs[name])+2)
		for k, v := range b.configs[name] {
			cfg[k] = v
		}
		if name == ChunkerName {
			cfg[ConfigChunkSize] = run.ChunkSize
			cfg[ConfigOverlap] = run.ChunkOverlap
		}

		processor, err := b.registry.Build(name, cfg)
		if err != nil {
			return nil, fmt.Errorf("building %s: %w", name, err)
		}
		pipeline.Add(processor)
	}
	return pipeline, nil
}
