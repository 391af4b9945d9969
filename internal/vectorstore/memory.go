// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package vectorstore

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/pdiddy/desk-researcher/pkg/types"
)

// MemoryStore is an in-memory vector store with brute-force cosine search.
type MemoryStore struct {
	mu      sync.RWMutex
	dims    int
	records map[string]types.Snippet
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]types.Snippet)}
}

// EnsureCollection fixes the vector size on first use.
func (s *MemoryStore) EnsureCollection(_ context.Context, dims int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.dims == 0 {
		s.dims = dims
		return nil
	}
	if s.dims != dims {
		return fmt.Errorf("%w: collection has %d, requested %d", ErrDimensionMismatch, s.dims, dims)
	}
	return nil
}

// Upsert stores records, replacing existing ones with the same PointID.
func (s *MemoryStore) Upsert(_ context.Context, records []types.Snippet) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, r := range records {
		if r.PointID == "" {
			return fmt.Errorf("record for paper %s has no point id", r.PaperID)
		}
		if s.dims == 0 {
			s.dims = len(r.Vector)
		}
		if len(r.Vector) != s.dims {
			return fmt.Errorf("%w: record %s has %d, collection has %d", ErrDimensionMismatch, r.PointID, len(r.Vector), s.dims)
		}
	}
	for _, r := range records {
		r.Vector = append([]float32(nil), r.Vector...)
		s.records[r.PointID] = r
	}
	return nil
}

// Search ranks every matching record by cosine similarity.
func (s *MemoryStore) Search(_ context.Context, vector []float32, k int, filter types.Filter) ([]types.RetrievedPassage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.dims != 0 && len(vector) != s.dims {
		return nil, fmt.Errorf("%w: query has %d, collection has %d", ErrDimensionMismatch, len(vector), s.dims)
	}

	allowed := make(map[string]bool, len(filter.PaperIDs))
	for _, id := range filter.PaperIDs {
		allowed[id] = true
	}

	results := make([]types.RetrievedPassage, 0, len(s.records))
	for _, r := range s.records {
		if len(allowed) > 0 && !allowed[r.PaperID] {
			continue
		}
		if !filter.PublishedAfter.IsZero() && r.Published.Before(filter.PublishedAfter) {
			continue
		}
		results = append(results, types.RetrievedPassage{Snippet: r, Score: CosineSimilarity(vector, r.Vector)})
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].PointID < results[j].PointID
	})

	if k > 0 && len(results) > k {
		results = results[:k]
	}
	return results, nil
}

// Count returns the number of stored records.
func (s *MemoryStore) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records), nil
}

// Close is a no-op for the in-memory store.
func (s *MemoryStore) Close() error { return nil }
