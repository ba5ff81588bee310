package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

type retrieveRequest struct {
	Query        string `json:"query"`
	K            int    `json:"k,omitempty"`
	ChunkSize    int    `json:"chunk_size,omitempty"`
	ChunkOverlap *int   `json:"chunk_overlap,omitempty"`
}

type retrieveResponse struct {
	Run    string         `json:"run"`
	K      int            `json:"k"`
	Chunks []domain.Chunk `json:"chunks"`
}

type askRequest struct {
	Question string `json:"question"`
}

type debugRequest struct {
	ChunkSize    int `json:"chunk_size"`
	ChunkOverlap int `json:"chunk_overlap"`
	K            int `json:"k"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleRetrieve(w http.ResponseWriter, r *http.Request) {
	var req retrieveRequest
	if !decode(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		jsonError(w, "query is required", http.StatusBadRequest)
		return
	}

	run := s.ports.DefaultRun
	if req.ChunkSize > 0 {
		run = domain.IndexRun{ChunkSize: req.ChunkSize}
		if req.ChunkOverlap != nil {
			run.ChunkOverlap = *req.ChunkOverlap
		}
	}
	if err := run.Validate(); err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	k := req.K
	if k <= 0 {
		k = s.ports.DefaultK
	}

	retriever := s.retriever(run)
	if err := retriever.EnsureReady(r.Context()); err != nil {
		// Retrieval degrades to an empty result.
		w.Header().Set("X-Retrieval-Warning", firstLine(err.Error()))
	}

	chunks, err := retriever.Retrieve(r.Context(), req.Query, k)
	if err != nil {
		jsonError(w, err.Error(), statusFor(err))
		return
	}
	writeJSON(w, http.StatusOK, retrieveResponse{Run: run.DirName(), K: k, Chunks: chunks})
}

func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	if s.ports.Answers == nil {
		jsonError(w, "answering is not configured", http.StatusServiceUnavailable)
		return
	}

	var req askRequest
	if !decode(w, r, &req) {
		return
	}

	answer, err := s.ports.Answers.Ask(r.Context(), req.Question)
	if err != nil {
		jsonError(w, err.Error(), statusFor(err))
		return
	}
	writeJSON(w, http.StatusOK, answer)
}

func (s *Server) handleDebug(w http.ResponseWriter, r *http.Request) {
	if s.ports.Debugger == nil {
		jsonError(w, "debugging is not configured", http.StatusServiceUnavailable)
		return
	}

	var req debugRequest
	if !decode(w, r, &req) {
		return
	}
	run := domain.IndexRun{ChunkSize: req.ChunkSize, ChunkOverlap: req.ChunkOverlap}
	k := req.K
	if k == 0 {
		k = s.ports.DefaultK
	}

	// The debugger rebuilds the run, so any cached handle is stale.
	s.forget(run)

	report, err := s.ports.Debugger.Debug(r.Context(), run, k)
	if err != nil {
		jsonError(w, err.Error(), statusFor(err))
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleListIndexes(w http.ResponseWriter, _ *http.Request) {
	if s.ports.Indexes == nil {
		writeJSON(w, http.StatusOK, map[string]any{"indexes": []string{}})
		return
	}

	runs, err := s.ports.Indexes.List()
	if err != nil {
		jsonError(w, "failed to list indexes: "+err.Error(), http.StatusInternalServerError)
		return
	}

	names := make([]string, len(runs))
	for i, run := range runs {
		names[i] = run.DirName()
	}
	writeJSON(w, http.StatusOK, map[string]any{"indexes": names})
}

func (s *Server) handleDeleteIndex(w http.ResponseWriter, r *http.Request) {
	if s.ports.Indexes == nil {
		jsonError(w, "index management is not configured", http.StatusServiceUnavailable)
		return
	}

	run, ok := domain.ParseIndexDirName(chi.URLParam(r, "name"))
	if !ok {
		jsonError(w, "not an index name", http.StatusBadRequest)
		return
	}

	s.forget(run)
	if err := s.ports.Indexes.Remove(run); err != nil {
		jsonError(w, "failed to remove index: "+err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidInput), errors.Is(err, domain.ErrInvalidParameter):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrConfiguration):
		return http.StatusServiceUnavailable
	case errors.Is(err, domain.ErrRateLimited):
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		jsonError(w, "invalid JSON body: "+err.Error(), http.StatusBadRequest)
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	writeJSON(w, code, map[string]string{"error": msg})
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
