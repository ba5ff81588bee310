package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/sercha-rag/internal/logger"
)

// Version is the MCP server version.
const Version = "0.1.0"

// defaultK is used when Ports.DefaultK is unset.
const defaultK = 5

// EndpointPath is where the streamable HTTP transport is mounted.
const EndpointPath = "/mcp"

// Server exposes retrieval and answering as MCP tools and the index runs
// on disk as resources.
type Server struct {
	ports  *Ports
	server *mcp.Server
}

// NewServer creates a server over ports.
func NewServer(ports *Ports) (*Server, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("validating ports: %w", err)
	}
	if ports.DefaultK <= 0 {
		ports.DefaultK = defaultK
	}

	s := &Server{
		ports:  ports,
		server: mcp.NewServer(&mcp.Implementation{Name: "sercha-rag", Version: Version}, nil),
	}
	s.registerTools()
	s.registerResources()
	return s, nil
}

// prepare attaches the default index before the first request so the
// first tool call does not pay for a build. Failure is not fatal:
// retrieve returns no chunks until an index exists.
func (s *Server) prepare(ctx context.Context) {
	if err := s.ports.Retriever.EnsureReady(ctx); err != nil {
		logger.Warn("MCP: index %s unavailable: %v", s.ports.Retriever.Run().DirName(), err)
	}
}

// Run serves over stdio until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	s.prepare(ctx)
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

// Handler returns the HTTP routes: the MCP endpoint and a health check.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Get("/health", s.handleHealth)

	mcpHandler := mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
		return s.server
	}, nil)
	r.Handle(EndpointPath, mcpHandler)
	r.Handle(EndpointPath+"/*", mcpHandler)
	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{ //nolint:errcheck
		"status":  "ok",
		"run":     s.ports.Retriever.Run().DirName(),
		"version": Version,
	})
}

// RunHTTP serves the streamable HTTP transport on addr until ctx is
// cancelled.
func (s *Server) RunHTTP(ctx context.Context, addr string) error {
	s.prepare(ctx)

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		httpServer.Shutdown(shutdownCtx) //nolint:errcheck
	}()

	err := httpServer.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}
