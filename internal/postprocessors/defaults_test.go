package postprocessors

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

func TestBuildChunker_ConfigTypes(t *testing.T) {
	for _, cfg := range []map[string]any{
		{ConfigChunkSize: 100, ConfigOverlap: 10},
		{ConfigChunkSize: int64(100), ConfigOverlap: int64(10)},
		{ConfigChunkSize: float64(100), ConfigOverlap: float64(10)},
	} {
		_, err := buildChunker(cfg)
		assert.NoError(t, err, "%v", cfg)
	}
}

func TestBuildChunker_UnknownStrategy(t *testing.T) {
	_, err := buildChunker(map[string]any{ConfigStrategy: "semantic"})
	assert.ErrorIs(t, err, domain.ErrUnsupportedType)
}

func TestStrategies(t *testing.T) {
	assert.Equal(t, []domain.ChunkStrategy{domain.ChunkStrategyRecursive, domain.ChunkStrategyWindow}, Strategies())
}

func TestBuilder_RejectsInvalidRun(t *testing.T) {
	b := NewBuilder(domain.ChunkStrategyWindow)

	for _, run := range []domain.IndexRun{
		{ChunkSize: 10, ChunkOverlap: 50},
		{ChunkSize: 25, ChunkOverlap: 25},
	} {
		_, err := b.Build(run)
		assert.ErrorIs(t, err, domain.ErrInvalidParameter, "%v", run)
	}
}

func TestBuilder_Strategies(t *testing.T) {
	for _, s := range Strategies() {
		p, err := NewBuilder(s).Build(domain.IndexRun{ChunkSize: 250, ChunkOverlap: 150})
		require.NoError(t, err, "strategy %s", s)
		assert.Equal(t, []string{ChunkerName}, p.(*Pipeline).Names())
	}
}

func TestBuilder_UnknownStrategy(t *testing.T) {
	_, err := NewBuilder("semantic").Build(domain.IndexRun{ChunkSize: 250, ChunkOverlap: 150})
	assert.ErrorIs(t, err, domain.ErrUnsupportedType)
}
