package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/binary"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/sercha-rag/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
)

// DBFileName is the database file inside each run directory.
const DBFileName = "index.db"

// Keys stored in index_meta.
const (
	metaComplete   = "complete"
	metaChunkSize  = "chunk_size"
	metaOverlap    = "chunk_overlap"
	metaDimensions = "dimensions"
)

// Ensure IndexStore implements the interface.
var _ driven.IndexStore = (*IndexStore)(nil)

// IndexStore keeps one SQLite database per index run under a root directory.
type IndexStore struct {
	root string
}

// NewIndexStore creates a store rooted at root, creating the directory.
func NewIndexStore(root string) (*IndexStore, error) {
	if root == "" {
		root = "."
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("creating index root: %w", err)
	}
	return &IndexStore{root: root}, nil
}

// Root returns the directory holding the run directories.
func (s *IndexStore) Root() string {
	return s.root
}

// Dir returns the directory of a run.
func (s *IndexStore) Dir(run domain.IndexRun) string {
	return filepath.Join(s.root, run.DirName())
}

// Exists reports whether anything is present at the run's directory.
func (s *IndexStore) Exists(run domain.IndexRun) bool {
	_, err := os.Stat(s.Dir(run))
	return err == nil
}

// Create starts a fresh database for the run.
func (s *IndexStore) Create(ctx context.Context, run domain.IndexRun) (driven.IndexWriter, error) {
	dir := s.Dir(run)
	if s.Exists(run) {
		return nil, fmt.Errorf("index %s already exists", dir)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating index directory: %w", err)
	}

	db, err := openDB(filepath.Join(dir, DBFileName))
	if err != nil {
		os.RemoveAll(dir) //nolint:errcheck
		return nil, err
	}
	if err := migrateIndex(db); err != nil {
		db.Close()
		os.RemoveAll(dir) //nolint:errcheck
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return &indexWriter{db: db, dir: dir, run: run}, nil
}

// Open opens a committed database for the run.
func (s *IndexStore) Open(ctx context.Context, run domain.IndexRun) (driven.VectorIndex, error) {
	path := filepath.Join(s.Dir(run), DBFileName)
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrNotFound, path)
	}

	db, err := openDB(path)
	if err != nil {
		return nil, err
	}

	var complete string
	err = db.QueryRowContext(ctx, `SELECT value FROM index_meta WHERE key = ?`, metaComplete).Scan(&complete)
	if err != nil || complete != "1" {
		db.Close()
		return nil, fmt.Errorf("%w: index %s was never completed", domain.ErrNotFound, path)
	}

	return &Index{db: db}, nil
}

// Remove deletes the run directory and everything in it.
func (s *IndexStore) Remove(run domain.IndexRun) error {
	if err := os.RemoveAll(s.Dir(run)); err != nil {
		return fmt.Errorf("removing index %s: %w", run.DirName(), err)
	}
	return nil
}

// List returns the runs whose directories exist under the root,
// ordered by size then overlap.
func (s *IndexStore) List() ([]domain.IndexRun, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading index root: %w", err)
	}

	var runs []domain.IndexRun
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		if run, ok := domain.ParseIndexDirName(entry.Name()); ok {
			runs = append(runs, run)
		}
	}

	sort.Slice(runs, func(i, j int) bool {
		if runs[i].ChunkSize != runs[j].ChunkSize {
			return runs[i].ChunkSize < runs[j].ChunkSize
		}
		return runs[i].ChunkOverlap < runs[j].ChunkOverlap
	})
	return runs, nil
}

// openDB opens the database with WAL mode and a busy timeout.
func openDB(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("opening database: %w", err)
	}
	return db, nil
}

// migrateIndex applies the embedded index schema.
func migrateIndex(db *sql.DB) error {
	return migrate(db, migrations.FS)
}

// migrate runs all pending migrations.
func migrate(db *sql.DB, fsys embed.FS) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		if strings.HasSuffix(entry.Name(), ".up.sql") {
			upFiles = append(upFiles, entry.Name())
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// "001_initial.up.sql" -> 1
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}
		if version <= currentVersion {
			continue
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}
		if _, err := db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
		if _, err := db.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}

	return nil
}

// float32SliceToBytes converts a []float32 to a byte slice for storage.
func float32SliceToBytes(floats []float32) []byte {
	if len(floats) == 0 {
		return nil
	}
	buf := make([]byte, len(floats)*4)
	for i, f := range floats {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// bytesToFloat32Slice converts a byte slice back to []float32.
func bytesToFloat32Slice(data []byte) []float32 {
	if len(data) == 0 {
		return nil
	}
	floats := make([]float32, len(data)/4)
	for i := range floats {
		floats[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return floats
}
