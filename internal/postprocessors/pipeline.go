// Package postprocessors turns documents into chunks for one index run.
package postprocessors

import (
	"context"
	"fmt"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-rag/internal/logger"
)

// Ensure Pipeline implements the interface.
var _ driven.PostProcessorPipeline = (*Pipeline)(nil)

// Pipeline runs its stages in order over one document. The first stage
// creates the chunks; later stages receive and rewrite them.
type Pipeline struct {
	stages []driven.PostProcessor
}

// NewPipeline creates a pipeline with the given stages.
func NewPipeline(stages ...driven.PostProcessor) *Pipeline {
	return &Pipeline{stages: stages}
}

// Process chunks doc. Once a stage yields no chunks the remaining
// stages are skipped. Errors name the document and the failing stage.
func (p *Pipeline) Process(ctx context.Context, doc *domain.Document) ([]domain.Chunk, error) {
	if doc == nil {
		return nil, fmt.Errorf("%w: document is nil", domain.ErrInvalidInput)
	}

	var chunks []domain.Chunk
	for i, stage := range p.stages {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		out, err := stage.Process(ctx, doc, chunks)
		if err != nil {
			return nil, fmt.Errorf("%s: stage %s: %w", documentName(doc), stage.Name(), err)
		}
		chunks = out
		logger.Debug("%s: %s produced %d chunks", documentName(doc), stage.Name(), len(chunks))

		if len(chunks) == 0 && i < len(p.stages)-1 {
			break
		}
	}
	return chunks, nil
}

// Add appends a stage.
func (p *Pipeline) Add(stage driven.PostProcessor) {
	p.stages = append(p.stages, stage)
}

// Len returns the number of stages.
func (p *Pipeline) Len() int {
	return len(p.stages)
}

// Names returns the stage names in execution order.
func (p *Pipeline) Names() []string {
	names := make([]string, len(p.stages))
	for i, s := range p.stages {
		names[i] = s.Name()
	}
	return names
}

func documentName(doc *domain.Document) string {
	if doc.Metadata.SourceFile != "" {
		return doc.Metadata.SourceFile
	}
	if doc.ID != "" {
		return doc.ID
	}
	return "document"
}
