// Package embedding defines the embedding-service boundary: text in, fixed
// dimension vectors out, versioned by model id.
package embedding

import (
	"context"
	"errors"
)

// Embedder computes vector embeddings for texts. Implementations are
// external services and must be safe for concurrent use.
type Embedder interface {
	// Embed returns one vector per input text, in input order.
	Embed(ctx context.Context, texts []string) ([][]float64, error)
	// ModelID identifies the embedding model. Index entries are never
	// compared across different model ids.
	ModelID() string
}

// ErrUnavailable indicates the embedding backend exhausted retries or timed
// out.
var ErrUnavailable = errors.New("embedding backend unavailable")
