// Package index maintains per-document vector index snapshots. A snapshot is
// immutable after build; rebuilds produce a fresh snapshot that replaces the
// old one atomically, so readers never observe a partially built index.
package index

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"contract-backend/internal/chunker"
)

// ErrStaleIndex indicates a query against a snapshot built with a different
// embedding model than the active configuration.
var ErrStaleIndex = errors.New("stale index: embedding model mismatch")

// ErrNotIndexed indicates no snapshot exists for the document.
var ErrNotIndexed = errors.New("document not indexed")

// Entry is one indexed chunk: its citation metadata plus its vector.
type Entry struct {
	ChunkID    string
	DocumentID string
	PageNumber int
	Start      int
	End        int
	Text       string
	Vector     []float64
}

// Match is a query hit.
type Match struct {
	Entry Entry
	Score float64
}

// Snapshot is an immutable similarity-searchable index for one document.
type Snapshot struct {
	DocumentID string
	ModelID    string
	BuiltAt    time.Time
	entries    []Entry
}

// Build creates a snapshot from chunks and their vectors. Vectors are
// L2-normalized on the way in so queries reduce to a dot product. Chunk ids
// are deterministic (page and primary span), which keeps rebuilds and test
// runs reproducible.
func Build(documentID, modelID string, chunks []chunker.Chunk, vectors [][]float64) (*Snapshot, error) {
	if len(chunks) != len(vectors) {
		return nil, fmt.Errorf("chunks and vectors length mismatch: %d vs %d", len(chunks), len(vectors))
	}
	if modelID == "" {
		return nil, errors.New("embedding model id is required")
	}

	dimension := 0
	entries := make([]Entry, 0, len(chunks))
	for i, chunk := range chunks {
		vec := vectors[i]
		if len(vec) == 0 {
			return nil, fmt.Errorf("empty vector for chunk %d", i)
		}
		if dimension == 0 {
			dimension = len(vec)
		} else if len(vec) != dimension {
			return nil, fmt.Errorf("vector dimension mismatch: %d vs %d", len(vec), dimension)
		}
		entries = append(entries, Entry{
			ChunkID:    ChunkID(documentID, chunk),
			DocumentID: documentID,
			PageNumber: chunk.PageNumber,
			Start:      chunk.Start,
			End:        chunk.End,
			Text:       primarySpan(chunk),
			Vector:     normalize(vec),
		})
	}

	// Stable storage order: by page then offset.
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].PageNumber != entries[j].PageNumber {
			return entries[i].PageNumber < entries[j].PageNumber
		}
		return entries[i].Start < entries[j].Start
	})

	return &Snapshot{
		DocumentID: documentID,
		ModelID:    modelID,
		BuiltAt:    time.Now().UTC(),
		entries:    entries,
	}, nil
}

// ChunkID derives the deterministic id for a chunk.
func ChunkID(documentID string, chunk chunker.Chunk) string {
	return fmt.Sprintf("%s:p%d:%d-%d", documentID, chunk.PageNumber, chunk.Start, chunk.End)
}

// primarySpan strips the leading overlap context so the stored text matches
// the Start-End range exactly. The overlap still contributes to the vector;
// it is just never quoted as evidence.
func primarySpan(chunk chunker.Chunk) string {
	span := chunk.End - chunk.Start
	if span <= 0 || span >= len(chunk.Text) {
		return chunk.Text
	}
	return chunk.Text[len(chunk.Text)-span:]
}

// Restore rebuilds a snapshot from persisted entries. Vectors are stored
// normalized, so they are trusted as-is; entries are re-sorted to the
// canonical (page, offset) order.
func Restore(documentID, modelID string, builtAt time.Time, entries []Entry) *Snapshot {
	sorted := make([]Entry, len(entries))
	copy(sorted, entries)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].PageNumber != sorted[j].PageNumber {
			return sorted[i].PageNumber < sorted[j].PageNumber
		}
		return sorted[i].Start < sorted[j].Start
	})
	return &Snapshot{
		DocumentID: documentID,
		ModelID:    modelID,
		BuiltAt:    builtAt,
		entries:    sorted,
	}
}

// Len returns the number of indexed entries.
func (s *Snapshot) Len() int { return len(s.entries) }

// Query returns the top-k entries by cosine similarity to the query vector.
// activeModelID guards against serving results from a mismatched vector
// space: if it differs from the snapshot's model the query fails with
// ErrStaleIndex. Ties break by earlier (page, offset) for reproducibility.
func (s *Snapshot) Query(queryVector []float64, k int, activeModelID string) ([]Match, error) {
	if activeModelID != s.ModelID {
		return nil, fmt.Errorf("%w: index=%s active=%s", ErrStaleIndex, s.ModelID, activeModelID)
	}
	if k <= 0 || len(s.entries) == 0 {
		return nil, nil
	}

	query := normalize(queryVector)
	matches := make([]Match, 0, len(s.entries))
	for _, entry := range s.entries {
		matches = append(matches, Match{Entry: entry, Score: dot(entry.Vector, query)})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].Score != matches[j].Score {
			return matches[i].Score > matches[j].Score
		}
		if matches[i].Entry.PageNumber != matches[j].Entry.PageNumber {
			return matches[i].Entry.PageNumber < matches[j].Entry.PageNumber
		}
		return matches[i].Entry.Start < matches[j].Entry.Start
	})

	if k > len(matches) {
		k = len(matches)
	}
	return matches[:k], nil
}

func dot(a, b []float64) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	sum := 0.0
	for i := 0; i < n; i++ {
		sum += a[i] * b[i]
	}
	return sum
}

func normalize(v []float64) []float64 {
	norm := 0.0
	for _, x := range v {
		norm += x * x
	}
	norm = math.Sqrt(norm)
	if norm == 0 {
		return v
	}
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = x / norm
	}
	return out
}
