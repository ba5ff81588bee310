package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

const (
	// uriScheme is the custom URI scheme for index resources.
	uriScheme = "sercha://"
)

// indexInfo describes one index run on disk.
type indexInfo struct {
	Name         string `json:"name"`
	ChunkSize    int    `json:"chunk_size"`
	ChunkOverlap int    `json:"chunk_overlap"`
	Chunks       int    `json:"chunks,omitempty"`
}

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "indexes",
		Name:        "indexes",
		Description: "Index runs present on disk",
		MIMEType:    "application/json",
	}, s.handleIndexesResource)

	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "indexes/{name}",
		Name:        "index",
		Description: "Chunk count of one index run",
		MIMEType:    "application/json",
	}, s.handleIndexResource)
}

// handleIndexesResource lists every index run on disk.
func (s *Server) handleIndexesResource(
	_ context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	if s.ports.Indexes == nil {
		return jsonResource(req.Params.URI, []indexInfo{})
	}

	runs, err := s.ports.Indexes.List()
	if err != nil {
		return nil, fmt.Errorf("listing indexes: %w", err)
	}

	infos := make([]indexInfo, len(runs))
	for i, run := range runs {
		infos[i] = indexInfo{Name: run.DirName(), ChunkSize: run.ChunkSize, ChunkOverlap: run.ChunkOverlap}
	}
	return jsonResource(req.Params.URI, infos)
}

// handleIndexResource opens one run and reports its chunk count.
func (s *Server) handleIndexResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	if s.ports.Indexes == nil {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	run, ok := domain.ParseIndexDirName(extractIndexName(req.Params.URI))
	if !ok {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	index, err := s.ports.Indexes.Load(ctx, run)
	if err != nil {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}
	defer index.Close() //nolint:errcheck

	count, err := index.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("counting chunks: %w", err)
	}

	return jsonResource(req.Params.URI, indexInfo{
		Name:         run.DirName(),
		ChunkSize:    run.ChunkSize,
		ChunkOverlap: run.ChunkOverlap,
		Chunks:       count,
	})
}

func jsonResource(uri string, v any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling resource: %w", err)
	}
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

// extractIndexName extracts the run name from a URI like sercha://indexes/{name}.
func extractIndexName(uri string) string {
	const prefix = uriScheme + "indexes/"

	if !strings.HasPrefix(uri, prefix) {
		return ""
	}
	return strings.TrimPrefix(uri, prefix)
}
