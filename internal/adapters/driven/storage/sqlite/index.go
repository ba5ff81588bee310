package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"sync"

	"github.com/custodia-labs/sercha-rag/internal/adapters/driven/storage/similarity"
	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
)

// Ensure the index types implement their interfaces.
var (
	_ driven.VectorIndex = (*Index)(nil)
	_ driven.IndexWriter = (*indexWriter)(nil)
)

var errWriterClosed = errors.New("index writer is closed")

// indexWriter fills a fresh database and marks it complete on Commit.
type indexWriter struct {
	mu         sync.Mutex
	db         *sql.DB
	dir        string
	run        domain.IndexRun
	dimensions int
	closed     bool
}

// Add stores chunks with their embeddings in a single transaction.
func (w *indexWriter) Add(ctx context.Context, chunks []domain.Chunk, embeddings [][]float32) error {
	if len(chunks) != len(embeddings) {
		return fmt.Errorf("%w: %d chunks but %d embeddings", domain.ErrInvalidInput, len(chunks), len(embeddings))
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return errWriterClosed
	}

	tx, err := w.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO chunks (id, block_index, position, content, metadata, embedding)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	for i, chunk := range chunks {
		vec := embeddings[i]
		if w.dimensions == 0 {
			w.dimensions = len(vec)
		}
		if len(vec) == 0 || len(vec) != w.dimensions {
			return fmt.Errorf("%w: chunk %s has embedding of length %d, want %d",
				domain.ErrInvalidInput, chunk.ID, len(vec), w.dimensions)
		}

		metadata, err := json.Marshal(chunk.Metadata)
		if err != nil {
			return fmt.Errorf("marshalling metadata: %w", err)
		}

		_, err = stmt.ExecContext(ctx,
			chunk.ID, chunk.BlockIndex, chunk.Position, chunk.Content,
			string(metadata), float32SliceToBytes(vec),
		)
		if err != nil {
			return fmt.Errorf("inserting chunk %s: %w", chunk.ID, err)
		}
	}

	return tx.Commit()
}

// Commit records the run parameters, marks the index complete and
// reopens it for querying.
func (w *indexWriter) Commit(ctx context.Context) (driven.VectorIndex, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil, errWriterClosed
	}

	tx, err := w.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	meta := map[string]string{
		metaChunkSize:  strconv.Itoa(w.run.ChunkSize),
		metaOverlap:    strconv.Itoa(w.run.ChunkOverlap),
		metaDimensions: strconv.Itoa(w.dimensions),
		metaComplete:   "1",
	}
	for key, value := range meta {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO index_meta (key, value) VALUES (?, ?)
			ON CONFLICT(key) DO UPDATE SET value = excluded.value
		`, key, value)
		if err != nil {
			return nil, fmt.Errorf("writing index metadata: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing index metadata: %w", err)
	}

	w.closed = true
	return &Index{db: w.db}, nil
}

// Abort closes the database and removes the partial directory.
func (w *indexWriter) Abort() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.closed {
		w.closed = true
		w.db.Close()
	}
	if err := os.RemoveAll(w.dir); err != nil {
		return fmt.Errorf("removing partial index: %w", err)
	}
	return nil
}

// Index serves similarity queries over a committed database.
// Vectors are read once on first use and kept in memory.
type Index struct {
	mu      sync.Mutex
	db      *sql.DB
	entries []similarity.Entry
	loaded  bool
}

// Search returns the k chunks most similar to query.
func (idx *Index) Search(ctx context.Context, query []float32, k int) ([]driven.VectorHit, error) {
	if k <= 0 {
		return nil, fmt.Errorf("%w: k must be positive, got %d", domain.ErrInvalidParameter, k)
	}

	entries, err := idx.load(ctx)
	if err != nil {
		return nil, err
	}
	return similarity.TopK(query, entries, k), nil
}

// Count returns the number of stored chunks.
func (idx *Index) Count(ctx context.Context) (int, error) {
	var n int
	if err := idx.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM chunks`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting chunks: %w", err)
	}
	return n, nil
}

// Close releases the database handle.
func (idx *Index) Close() error {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.entries = nil
	idx.loaded = false
	return idx.db.Close()
}

func (idx *Index) load(ctx context.Context) ([]similarity.Entry, error) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	if idx.loaded {
		return idx.entries, nil
	}

	rows, err := idx.db.QueryContext(ctx, `
		SELECT id, block_index, position, content, metadata, embedding
		FROM chunks ORDER BY seq
	`)
	if err != nil {
		return nil, fmt.Errorf("loading chunks: %w", err)
	}
	defer rows.Close()

	var entries []similarity.Entry
	for rows.Next() {
		var (
			chunk    domain.Chunk
			metadata string
			blob     []byte
		)
		if err := rows.Scan(&chunk.ID, &chunk.BlockIndex, &chunk.Position, &chunk.Content, &metadata, &blob); err != nil {
			return nil, fmt.Errorf("scanning chunk: %w", err)
		}
		if metadata != "" {
			if err := json.Unmarshal([]byte(metadata), &chunk.Metadata); err != nil {
				return nil, fmt.Errorf("unmarshalling metadata for %s: %w", chunk.ID, err)
			}
		}
		entries = append(entries, similarity.Entry{Chunk: chunk, Vector: bytesToFloat32Slice(blob)})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating chunks: %w", err)
	}

	idx.entries = entries
	idx.loaded = true
	return entries, nil
}
