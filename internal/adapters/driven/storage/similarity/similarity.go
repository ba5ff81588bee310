// Package similarity implements exact nearest-neighbour ranking by cosine
// similarity, shared by the index backends.
package similarity

import (
	"math"
	"sort"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
)

// Entry is one stored chunk and its embedding.
type Entry struct {
	Chunk  domain.Chunk
	Vector []float32
}

// Cosine returns the cosine similarity of a and b.
// Mismatched lengths or zero vectors score 0.
func Cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// TopK scores every entry against query and returns the best k, nearest
// first. Equal scores keep insertion order. The returned chunks carry
// their own metadata copies.
func TopK(query []float32, entries []Entry, k int) []driven.VectorHit {
	if k <= 0 || len(entries) == 0 {
		return nil
	}

	hits := make([]driven.VectorHit, len(entries))
	for i := range entries {
		hits[i] = driven.VectorHit{
			Chunk:      entries[i].Chunk,
			Similarity: Cosine(query, entries[i].Vector),
		}
	}

	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Similarity > hits[j].Similarity
	})

	if k < len(hits) {
		hits = hits[:k]
	}
	for i := range hits {
		hits[i].Chunk.Metadata = hits[i].Chunk.Metadata.Clone()
	}
	return hits
}
