package chunker

import (
	"strings"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

// SplitFunc splits text into chunks of at most size characters.
type SplitFunc func(text string, size, overlap int) ([]string, error)

// Split cuts text into fixed windows of size runes. Window i starts at
// i*(size-overlap), so consecutive windows share exactly overlap runes.
// The last window ends at the end of the text and may be shorter.
//
// Dropping the first overlap runes of every window after the first and
// concatenating the rest gives back the original text.
func Split(text string, size, overlap int) ([]string, error) {
	if err := (domain.IndexRun{ChunkSize: size, ChunkOverlap: overlap}).Validate(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}

	runes := []rune(text)
	step := size - overlap
	chunks := make([]string, 0, len(runes)/step+1)

	for start := 0; ; start += step {
		end := start + size
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, string(runes[start:end]))
		if end == len(runes) {
			break
		}
	}

	return chunks, nil
}

// Join reverses Split for windows produced with the given overlap.
func Join(chunks []string, overlap int) string {
	var b strings.Builder
	for i, c := range chunks {
		if i == 0 {
			b.WriteString(c)
			continue
		}
		r := []rune(c)
		if overlap < len(r) {
			b.WriteString(string(r[overlap:]))
		}
	}
	return b.String()
}
