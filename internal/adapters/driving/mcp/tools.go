package mcp

import (
	"context"
	"errors"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/logger"
)

// RetrieveInput is the input schema for the retrieve tool.
type RetrieveInput struct {
	Query string `json:"query" jsonschema:"the text to find related passages for"`
	K     int    `json:"k,omitempty" jsonschema:"maximum number of chunks to return (default 5)"`
}

// RetrieveOutput is the output schema for the retrieve tool.
type RetrieveOutput struct {
	Run    string        `json:"run"`
	Chunks []ChunkOutput `json:"chunks"`
	Count  int           `json:"count"`
}

// ChunkOutput represents a single retrieved chunk.
type ChunkOutput struct {
	Title      string `json:"title,omitempty"`
	Section    string `json:"section,omitempty"`
	Subsection string `json:"subsection,omitempty"`
	SourceFile string `json:"source_file,omitempty"`
	Content    string `json:"content"`
}

// AskInput is the input schema for the ask tool.
type AskInput struct {
	Question string `json:"question" jsonschema:"the question to answer from the documents"`
}

// AskOutput is the output schema for the ask tool.
type AskOutput struct {
	Answer   string   `json:"answer"`
	Template string   `json:"template"`
	Sources  []string `json:"sources,omitempty"`
	Failed   bool     `json:"failed"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "retrieve",
		Description: "Find the document passages nearest to a query",
	}, s.handleRetrieve)

	if s.ports.Answers != nil {
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "ask",
			Description: "Answer a question from the indexed documents",
		}, s.handleAsk)
	}
}

// handleRetrieve handles the retrieve tool invocation.
func (s *Server) handleRetrieve(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input RetrieveInput,
) (*mcp.CallToolResult, RetrieveOutput, error) {
	if strings.TrimSpace(input.Query) == "" {
		return nil, RetrieveOutput{}, errors.New("query is required")
	}
	k := input.K
	if k <= 0 {
		k = s.ports.DefaultK
	}

	retriever := s.ports.Retriever
	if err := retriever.EnsureReady(ctx); err != nil {
		logger.Warn("MCP retrieve: %v", err)
	}

	chunks, err := retriever.Retrieve(ctx, input.Query, k)
	if err != nil {
		return nil, RetrieveOutput{}, err
	}

	output := RetrieveOutput{
		Run:    retriever.Run().DirName(),
		Chunks: make([]ChunkOutput, len(chunks)),
		Count:  len(chunks),
	}
	for i := range chunks {
		output.Chunks[i] = ChunkOutput{
			Title:      chunks[i].Metadata[domain.MetaTitle],
			Section:    chunks[i].Metadata[domain.MetaSection],
			Subsection: chunks[i].Metadata[domain.MetaSubsection],
			SourceFile: chunks[i].Metadata[domain.MetaSourceFile],
			Content:    chunks[i].Content,
		}
	}

	return nil, output, nil
}

// handleAsk handles the ask tool invocation.
func (s *Server) handleAsk(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AskInput,
) (*mcp.CallToolResult, AskOutput, error) {
	answer, err := s.ports.Answers.Ask(ctx, input.Question)
	if err != nil {
		return nil, AskOutput{}, err
	}

	return nil, AskOutput{
		Answer:   answer.Text,
		Template: answer.Template,
		Sources:  answer.Sources,
		Failed:   answer.Failed,
	}, nil
}
