package chunker

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/tmc/langchaingo/textsplitter"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

// recursiveSeparators are tried in order: paragraphs, lines, sentences,
// words, then single characters.
var recursiveSeparators = []string{"\n\n", "\n", ". ", " ", ""}

// SplitRecursive splits on the coarsest boundary that keeps chunks within
// size runes. Overlap is honoured where boundaries allow it.
func SplitRecursive(text string, size, overlap int) ([]string, error) {
	if err := (domain.IndexRun{ChunkSize: size, ChunkOverlap: overlap}).Validate(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}

	splitter := textsplitter.NewRecursiveCharacter(
		textsplitter.WithChunkSize(size),
		textsplitter.WithChunkOverlap(overlap),
		textsplitter.WithSeparators(recursiveSeparators),
		textsplitter.WithLenFunc(utf8.RuneCountInString),
	)

	parts, err := splitter.SplitText(text)
	if err != nil {
		return nil, fmt.Errorf("recursive split: %w", err)
	}

	chunks := make([]string, 0, len(parts))
	for _, p := range parts {
		if strings.TrimSpace(p) == "" {
			continue
		}
		// Hard cut anything the boundary search could not bring under size.
		if utf8.RuneCountInString(p) > size {
			windows, err := Split(p, size, overlap)
			if err != nil {
				return nil, err
			}
			chunks = append(chunks, windows...)
			continue
		}
		chunks = append(chunks, p)
	}
	return chunks, nil
}
