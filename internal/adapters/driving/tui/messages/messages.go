// Package messages holds the tea.Msg types passed between the explorer's views.
package messages

import (
	"time"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driving"
)

// RetrievalCompleted carries the chunks for Query and how long the
// retriever took.
type RetrievalCompleted struct {
	Query   string
	Chunks  []domain.Chunk
	Elapsed time.Duration
	Err     error
}

// AnswerCompleted carries a generated answer, possibly the failure sentinel.
type AnswerCompleted struct {
	Answer *driving.Answer
	Err    error
}

// ChunkSelected opens a chunk; Rank is 1-based.
type ChunkSelected struct {
	Rank  int
	Chunk domain.Chunk
}

// ViewChanged switches the active view.
type ViewChanged struct {
	View ViewType
}

// ViewType identifies a view.
type ViewType int

const (
	ViewExplore ViewType = iota
	ViewChunk
	ViewHelp
)

func (v ViewType) String() string {
	switch v {
	case ViewExplore:
		return "explore"
	case ViewChunk:
		return "chunk"
	case ViewHelp:
		return "help"
	default:
		return "unknown"
	}
}

// ErrorOccurred reports a failure to the explore view.
type ErrorOccurred struct {
	Err error
}

// Quit exits the program.
type Quit struct{}
