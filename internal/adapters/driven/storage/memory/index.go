// Package memory provides in-memory implementations of driven port interfaces.
// Indexes live only as long as the process, which suits tests and one-off
// sweeps that do not need to keep anything on disk.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/custodia-labs/sercha-rag/internal/adapters/driven/storage/similarity"
	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
)

// Ensure the memory types implement their interfaces.
var (
	_ driven.IndexStore  = (*IndexStore)(nil)
	_ driven.IndexWriter = (*indexWriter)(nil)
	_ driven.VectorIndex = (*Index)(nil)
)

type slot struct {
	entries   []similarity.Entry
	committed bool
}

// IndexStore is an in-memory implementation of driven.IndexStore.
type IndexStore struct {
	mu    sync.RWMutex
	slots map[domain.IndexRun]*slot
}

// NewIndexStore creates an empty in-memory index store.
func NewIndexStore() *IndexStore {
	return &IndexStore{slots: make(map[domain.IndexRun]*slot)}
}

// Exists reports whether the run has a slot, committed or not.
func (s *IndexStore) Exists(run domain.IndexRun) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.slots[run]
	return ok
}

// Create reserves a slot for the run.
func (s *IndexStore) Create(_ context.Context, run domain.IndexRun) (driven.IndexWriter, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.slots[run]; ok {
		return nil, fmt.Errorf("index %s already exists", run.DirName())
	}
	sl := &slot{}
	s.slots[run] = sl
	return &indexWriter{store: s, run: run, slot: sl}, nil
}

// Open returns a committed index.
func (s *IndexStore) Open(_ context.Context, run domain.IndexRun) (driven.VectorIndex, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sl, ok := s.slots[run]
	if !ok || !sl.committed {
		return nil, fmt.Errorf("%w: index %s", domain.ErrNotFound, run.DirName())
	}
	return &Index{entries: sl.entries}, nil
}

// Remove drops the run's slot.
func (s *IndexStore) Remove(run domain.IndexRun) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.slots, run)
	return nil
}

// List returns every run with a slot, ordered by size then overlap.
func (s *IndexStore) List() ([]domain.IndexRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	runs := make([]domain.IndexRun, 0, len(s.slots))
	for run := range s.slots {
		runs = append(runs, run)
	}
	sort.Slice(runs, func(i, j int) bool {
		if runs[i].ChunkSize != runs[j].ChunkSize {
			return runs[i].ChunkSize < runs[j].ChunkSize
		}
		return runs[i].ChunkOverlap < runs[j].ChunkOverlap
	})
	return runs, nil
}

type indexWriter struct {
	store *IndexStore
	run   domain.IndexRun
	slot  *slot
	done  bool
}

func (w *indexWriter) Add(_ context.Context, chunks []domain.Chunk, embeddings [][]float32) error {
	if len(chunks) != len(embeddings) {
		return fmt.Errorf("%w: %d chunks but %d embeddings", domain.ErrInvalidInput, len(chunks), len(embeddings))
	}
	w.store.mu.Lock()
	defer w.store.mu.Unlock()
	if w.done {
		return fmt.Errorf("index writer for %s is closed", w.run.DirName())
	}
	for i, chunk := range chunks {
		chunk.Metadata = chunk.Metadata.Clone()
		vec := make([]float32, len(embeddings[i]))
		copy(vec, embeddings[i])
		w.slot.entries = append(w.slot.entries, similarity.Entry{Chunk: chunk, Vector: vec})
	}
	return nil
}

func (w *indexWriter) Commit(_ context.Context) (driven.VectorIndex, error) {
	w.store.mu.Lock()
	defer w.store.mu.Unlock()
	if w.done {
		return nil, fmt.Errorf("index writer for %s is closed", w.run.DirName())
	}
	w.done = true
	w.slot.committed = true
	return &Index{entries: w.slot.entries}, nil
}

func (w *indexWriter) Abort() error {
	w.store.mu.Lock()
	defer w.store.mu.Unlock()
	w.done = true
	if w.store.slots[w.run] == w.slot {
		delete(w.store.slots, w.run)
	}
	return nil
}

// Index is a read-only view over committed entries.
type Index struct {
	entries []similarity.Entry
}

// Search returns the k entries nearest to query.
func (idx *Index) Search(_ context.Context, query []float32, k int) ([]driven.VectorHit, error) {
	if k <= 0 {
		return nil, fmt.Errorf("%w: k must be positive, got %d", domain.ErrInvalidParameter, k)
	}
	return similarity.TopK(query, idx.entries, k), nil
}

// Count returns the number of entries.
func (idx *Index) Count(_ context.Context) (int, error) {
	return len(idx.entries), nil
}

// Close is a no-op.
func (idx *Index) Close() error {
	return nil
}
