// Package questions loads evaluation question sets from JSON or YAML files.
package questions

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
)

// Ensure FileSource implements the interface.
var _ driven.QuestionSource = (*FileSource)(nil)

// FileSource reads a list of {question, expected_text} records.
// Files ending in .yaml or .yml are parsed as YAML, everything else as JSON.
type FileSource struct {
	path string
}

// NewFileSource creates a question source for path. The file is read on
// every call to Questions.
func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

// Path returns the question file path.
func (s *FileSource) Path() string {
	return s.path
}

// Questions returns the ordered question set.
func (s *FileSource) Questions(ctx context.Context) ([]domain.EvaluationQuestion, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.path == "" {
		return nil, fmt.Errorf("%w: questions file is not set (QUESTIONS_FILE)", domain.ErrConfiguration)
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: questions file %s not found", domain.ErrConfiguration, s.path)
		}
		return nil, fmt.Errorf("%w: read %s: %w", domain.ErrConfiguration, s.path, err)
	}

	questions, err := Parse(data, filepath.Ext(s.path))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", domain.ErrConfiguration, s.path, err)
	}
	return questions, nil
}

// Parse decodes a question list. ext selects the format (".json", ".yaml", ".yml").
func Parse(data []byte, ext string) ([]domain.EvaluationQuestion, error) {
	var questions []domain.EvaluationQuestion

	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &questions); err != nil {
			return nil, fmt.Errorf("parse yaml: %w", err)
		}
	default:
		if err := json.Unmarshal(data, &questions); err != nil {
			return nil, fmt.Errorf("parse json: %w", err)
		}
	}

	if len(questions) == 0 {
		return nil, errors.New("question set is empty")
	}
	for i, q := range questions {
		if strings.TrimSpace(q.Question) == "" {
			return nil, fmt.Errorf("question %d has no text", i+1)
		}
		if strings.TrimSpace(q.ExpectedText) == "" {
			return nil, fmt.Errorf("question %d has no expected_text", i+1)
		}
	}
	return questions, nil
}
