// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package vectorstore persists snippet embeddings and answers nearest-neighbour
// queries. QdrantStore talks to a Qdrant server over its REST API;
// MemoryStore keeps everything in process.
package vectorstore

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"

	"github.com/google/uuid"

	"github.com/pdiddy/desk-researcher/pkg/types"
)

// DefaultCollection is the collection used when none is configured.
const DefaultCollection = "research_docs"

// ErrDimensionMismatch is returned when a vector's size differs from the collection's.
var ErrDimensionMismatch = errors.New("vector dimension mismatch")

// Store is a vector index keyed by snippet point IDs.
type Store interface {
	// EnsureCollection creates the collection with the given vector size if
	// it is missing, and fails if it exists with a different size.
	EnsureCollection(ctx context.Context, dims int) error

	// Upsert inserts or overwrites records by PointID.
	Upsert(ctx context.Context, records []types.Snippet) error

	// Search returns at most k records nearest to vector, most similar first.
	Search(ctx context.Context, vector []float32, k int, filter types.Filter) ([]types.RetrievedPassage, error)

	// Count returns the number of stored records.
	Count(ctx context.Context) (int, error)

	Close() error
}

// New builds the store selected by cfg.Backend.
func New(cfg types.StoreConfig) (Store, error) {
	switch cfg.Backend {
	case "", "qdrant":
		if cfg.URL == "" {
			return nil, fmt.Errorf("qdrant store requires a url")
		}
		return NewQdrantStore(cfg), nil
	case "memory":
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown store backend %q: use qdrant or memory", cfg.Backend)
	}
}

// pointNamespace scopes deterministic point IDs to this application.
var pointNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://github.com/pdiddy/desk-researcher/points"))

// PointID returns the deterministic UUID for snippet index of paperID. The
// same paper and index always map to the same point, so re-indexing overwrites.
func PointID(paperID string, index int) string {
	return uuid.NewSHA1(pointNamespace, []byte(paperID+"#"+strconv.Itoa(index))).String()
}

// CosineSimilarity computes the cosine of the angle between a and b.
// Returns 0 for mismatched lengths or zero vectors.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
