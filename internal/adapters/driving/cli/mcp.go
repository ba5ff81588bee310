package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-rag/internal/adapters/driving/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Expose retrieval to AI assistants over MCP",
}

var (
	mcpPort    int
	mcpSize    int
	mcpOverlap int
)

var mcpServeCmd = needsServices(&cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server",
	Long: `Serves the tools "retrieve" and "ask" and the resources
sercha://indexes and sercha://indexes/{name} over the Model Context
Protocol. Retrieval uses one index run, the configured one unless
--size and --overlap are given.

Stdio is the default transport. With --port the streamable HTTP
transport is served at /mcp, with a health check at /health.

Examples:
  sercha-rag mcp serve
  sercha-rag mcp serve --port 8081 --size 250 --overlap 150`,
	Args: cobra.NoArgs,
	RunE: runMCPServe,
})

func init() {
	mcpServeCmd.Flags().IntVarP(&mcpPort, "port", "p", 0, "HTTP port (0 = use stdio)")
	mcpServeCmd.Flags().IntVar(&mcpSize, "size", 0, "chunk size (default from config)")
	mcpServeCmd.Flags().IntVar(&mcpOverlap, "overlap", 0, "chunk overlap (default from config)")
	mcpCmd.AddCommand(mcpServeCmd)
	rootCmd.AddCommand(mcpCmd)
}

// runMCP starts the server. Tests replace it to avoid blocking on stdio.
var runMCP = func(ctx context.Context, server *mcp.Server, addr string) error {
	if addr != "" {
		return server.RunHTTP(ctx, addr)
	}
	return server.Run(ctx)
}

func runMCPServe(cmd *cobra.Command, _ []string) error {
	retriever := services.Retriever(runFromFlags(cmd, mcpSize, mcpOverlap))
	defer retriever.Close() //nolint:errcheck

	server, err := mcp.NewServer(&mcp.Ports{
		Retriever: retriever,
		Answers:   services.Answers(),
		Indexes:   services.Indexer(),
		DefaultK:  services.Settings().TopK,
	})
	if err != nil {
		return err
	}

	var addr string
	if mcpPort > 0 {
		addr = fmt.Sprintf(":%d", mcpPort)
		cmd.Printf("MCP server listening on http://localhost%s%s\n", addr, mcp.EndpointPath)
	}
	return runMCP(cmd.Context(), server, addr)
}
