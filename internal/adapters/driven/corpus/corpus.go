// Package corpus walks the documents directory and normalises every file
// it can read into a domain.Document.
package corpus

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-rag/internal/logger"
	"github.com/custodia-labs/sercha-rag/internal/normalisers"
	"github.com/custodia-labs/sercha-rag/internal/normalisers/docx"
	"github.com/custodia-labs/sercha-rag/internal/normalisers/html"
	"github.com/custodia-labs/sercha-rag/internal/normalisers/jsondoc"
	"github.com/custodia-labs/sercha-rag/internal/normalisers/markdown"
	"github.com/custodia-labs/sercha-rag/internal/normalisers/pdf"
	"github.com/custodia-labs/sercha-rag/internal/normalisers/plaintext"
)

// Ensure Directory implements the interface.
var _ driven.CorpusSource = (*Directory)(nil)

// DefaultRegistry returns a registry with every built-in normaliser.
func DefaultRegistry() *normalisers.Registry {
	return normalisers.NewRegistry(
		jsondoc.New(),
		markdown.New(),
		html.New(),
		pdf.New(),
		docx.New(),
		plaintext.New(),
	)
}

// Directory is a corpus read from a directory tree.
// Documents are loaded once and cached until Reload.
type Directory struct {
	root     string
	registry driven.NormaliserRegistry

	mu   sync.Mutex
	docs []domain.Document
}

// Option configures a Directory.
type Option func(*Directory)

// WithRegistry replaces the default normaliser registry.
func WithRegistry(r driven.NormaliserRegistry) Option {
	return func(d *Directory) {
		d.registry = r
	}
}

// NewDirectory creates a corpus rooted at root.
func NewDirectory(root string, opts ...Option) *Directory {
	d := &Directory{root: root}
	for _, opt := range opts {
		opt(d)
	}
	if d.registry == nil {
		d.registry = DefaultRegistry()
	}
	return d
}

// Root returns the directory being walked.
func (d *Directory) Root() string {
	return d.root
}

// Documents returns every document under the root in path order.
func (d *Directory) Documents(ctx context.Context) ([]domain.Document, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.docs != nil {
		return d.docs, nil
	}

	docs, err := d.load(ctx)
	if err != nil {
		return nil, err
	}
	d.docs = docs
	return docs, nil
}

// Reload drops the cache so the next Documents call walks the tree again.
func (d *Directory) Reload() {
	d.mu.Lock()
	d.docs = nil
	d.mu.Unlock()
}

func (d *Directory) load(ctx context.Context) ([]domain.Document, error) {
	info, err := os.Stat(d.root)
	if err != nil {
		return nil, fmt.Errorf("%w: documents path %s: %w", domain.ErrConfiguration, d.root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: documents path %s is not a directory", domain.ErrConfiguration, d.root)
	}

	var paths []string
	err = filepath.WalkDir(d.root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path != d.root && strings.HasPrefix(entry.Name(), ".") {
			if entry.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if entry.Type().IsRegular() {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking %s: %w", d.root, err)
	}
	sort.Strings(paths)

	logger.Section("Corpus")
	logger.Debug("Found %d files under %s", len(paths), d.root)

	docs := make([]domain.Document, 0, len(paths))
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		doc, err := d.readFile(ctx, path)
		if errors.Is(err, domain.ErrUnsupportedType) {
			logger.Warn("Skipping %s: %v", path, err)
			continue
		}
		if err != nil {
			return nil, err
		}
		docs = append(docs, *doc)
	}

	logger.Info("Loaded %d documents from %s", len(docs), d.root)
	return docs, nil
}

func (d *Directory) readFile(ctx context.Context, path string) (*domain.Document, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	rel, err := filepath.Rel(d.root, path)
	if err != nil {
		rel = path
	}

	doc, err := d.registry.Normalise(ctx, &domain.RawDocument{
		URI:      filepath.ToSlash(rel),
		MIMEType: normalisers.DetectMIMEType(path),
		Content:  content,
	})
	if err != nil {
		return nil, fmt.Errorf("normalising %s: %w", rel, err)
	}
	return doc, nil
}
