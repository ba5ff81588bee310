// Package tui provides an interactive terminal user interface for exploring
// retrieval results. It implements a driving adapter following hexagonal
// architecture principles.
package tui

import (
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the TUI.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Retriever returns the chunks nearest to a query.
	Retriever driving.Retriever

	// Answers generates answers from retrieved context. Optional.
	Answers driving.AnswerService

	// K is the number of chunks retrieved per query.
	K int
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p == nil {
		return ErrInvalidPorts
	}
	if p.Retriever == nil {
		return ErrMissingRetriever
	}
	return nil
}
