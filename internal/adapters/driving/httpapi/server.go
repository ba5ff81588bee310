// Package httpapi serves retrieval, answering and index management over HTTP.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-rag/internal/logger"
)

// ErrMissingRetrievers is returned when no retriever factory is provided.
var ErrMissingRetrievers = errors.New("httpapi: retriever factory is required")

// Ports aggregates the driving ports the HTTP API exposes.
type Ports struct {
	// NewRetriever returns a retriever for a run. Required.
	NewRetriever func(run domain.IndexRun) driving.Retriever

	// Answers generates answers. Optional.
	Answers driving.AnswerService

	// Indexes lists and removes runs. Optional.
	Indexes driving.IndexService

	// Debugger runs single-configuration diagnostics. Optional.
	Debugger driving.FailureDebugger

	// DefaultRun is used when a request names no chunk parameters.
	DefaultRun domain.IndexRun

	// DefaultK is used when a request names no k.
	DefaultK int
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.NewRetriever == nil {
		return ErrMissingRetrievers
	}
	return nil
}

// Server is the HTTP API server.
type Server struct {
	router chi.Router
	ports  *Ports

	mu         sync.Mutex
	retrievers map[domain.IndexRun]driving.Retriever
}

// NewServer creates and configures the HTTP server.
func NewServer(ports *Ports) (*Server, error) {
	if err := ports.Validate(); err != nil {
		return nil, err
	}
	if ports.DefaultK <= 0 {
		ports.DefaultK = 5
	}

	s := &Server{
		ports:      ports,
		retrievers: make(map[domain.IndexRun]driving.Retriever),
	}
	s.setupRoutes()
	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger)

	r.Get("/health", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Post("/retrieve", s.handleRetrieve)
		r.Post("/ask", s.handleAsk)
		r.Post("/debug", s.handleDebug)
		r.Get("/indexes", s.handleListIndexes)
		r.Delete("/indexes/{name}", s.handleDeleteIndex)
	})

	s.router = r
}

// ListenAndServe serves on addr until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		httpServer.Shutdown(shutdownCtx) //nolint:errcheck
	}()

	logger.Info("HTTP API listening on %s", addr)
	err := httpServer.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Close releases every retriever opened by requests.
func (s *Server) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var errs []error
	for run, r := range s.retrievers {
		if err := r.Close(); err != nil {
			errs = append(errs, err)
		}
		delete(s.retrievers, run)
	}
	return errors.Join(errs...)
}

// Reset drops every cached retriever so later requests attach to
// rebuilt indexes.
func (s *Server) Reset() error {
	return s.Close()
}

// retriever returns the cached retriever for run, creating it on first use.
func (s *Server) retriever(run domain.IndexRun) driving.Retriever {
	s.mu.Lock()
	defer s.mu.Unlock()

	if r, ok := s.retrievers[run]; ok {
		return r
	}
	r := s.ports.NewRetriever(run)
	s.retrievers[run] = r
	return r
}

// forget closes and drops the cached retriever for run.
func (s *Server) forget(run domain.IndexRun) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if r, ok := s.retrievers[run]; ok {
		r.Close() //nolint:errcheck
		delete(s.retrievers, run)
	}
}
