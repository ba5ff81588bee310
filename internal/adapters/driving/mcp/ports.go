package mcp

import (
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the MCP server.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Retriever serves the default index run.
	Retriever driving.Retriever

	// Answers generates answers. Optional; without it the ask tool is not registered.
	Answers driving.AnswerService

	// Indexes lists the runs on disk. Optional.
	Indexes driving.IndexService

	// DefaultK is the chunk count used when a tool call omits k.
	DefaultK int
}

// Validate ensures all required ports are set.
// Returns an error if any required port is nil.
func (p *Ports) Validate() error {
	if p.Retriever == nil {
		return ErrMissingRetriever
	}
	return nil
}
