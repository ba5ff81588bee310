// Package chunker splits titled section blocks into overlapping chunks.
package chunker

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-rag/internal/postprocessors/sections"
)

// Ensure Processor implements the interface.
var _ driven.PostProcessor = (*Processor)(nil)

// DefaultChunkSize is the default number of characters per chunk.
const DefaultChunkSize = 1000

// DefaultChunkOverlap is the default number of overlapping characters.
const DefaultChunkOverlap = 200

// Processor flattens a document into titled blocks and splits each block
// independently. It implements the PostProcessor interface.
type Processor struct {
	chunkSize int
	overlap   int
	split     SplitFunc
}

// Option configures the chunker processor.
type Option func(*Processor)

// WithChunkSize sets the chunk size in characters.
func WithChunkSize(size int) Option {
	return func(p *Processor) {
		p.chunkSize = size
	}
}

// WithOverlap sets the overlap between chunks in characters.
func WithOverlap(overlap int) Option {
	return func(p *Processor) {
		p.overlap = overlap
	}
}

// WithSplitFunc replaces the window splitter.
func WithSplitFunc(fn SplitFunc) Option {
	return func(p *Processor) {
		if fn != nil {
			p.split = fn
		}
	}
}

// New creates a new chunker processor with the given options.
// Returns domain.ErrInvalidParameter unless 0 <= overlap < size.
func New(opts ...Option) (*Processor, error) {
	p := &Processor{
		chunkSize: DefaultChunkSize,
		overlap:   DefaultChunkOverlap,
		split:     Split,
	}

	for _, opt := range opts {
		opt(p)
	}

	if err := (domain.IndexRun{ChunkSize: p.chunkSize, ChunkOverlap: p.overlap}).Validate(); err != nil {
		return nil, err
	}

	return p, nil
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return "chunker"
}

// Process splits every titled block of the document into chunks.
// Input chunks are ignored; this processor creates new chunks from the sections.
// Each chunk gets its own copy of the block metadata.
func (p *Processor) Process(ctx context.Context, doc *domain.Document, _ []domain.Chunk) ([]domain.Chunk, error) {
	blocks := sections.Extract(doc)
	if len(blocks) == 0 {
		return nil, nil
	}

	var chunks []domain.Chunk
	for i, block := range blocks {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		pieces, err := p.split(block.Text, p.chunkSize, p.overlap)
		if err != nil {
			return nil, fmt.Errorf("block %d: %w", i, err)
		}

		for pos, piece := range pieces {
			chunks = append(chunks, domain.Chunk{
				ID:         uuid.New().String(),
				BlockIndex: i,
				Position:   pos,
				Content:    piece,
				Metadata:   block.Metadata.Clone(),
			})
		}
	}

	return chunks, nil
}
