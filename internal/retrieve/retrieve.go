// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package retrieve finds the snippets most relevant to a question.
package retrieve

import (
	"context"
	"fmt"
	"sort"

	"github.com/pdiddy/desk-researcher/internal/embedding"
	"github.com/pdiddy/desk-researcher/internal/vectorstore"
	"github.com/pdiddy/desk-researcher/pkg/types"
)

// DefaultTopK is the number of snippets returned when neither the query nor
// the retriever sets one.
const DefaultTopK = 10

// Retriever embeds a question and searches the vector store.
type Retriever struct {
	Embedder embedding.Embedder
	Store    vectorstore.Store
	DefaultK int

	// MinScore drops passages scoring below it. Zero keeps everything.
	MinScore float64
}

// New builds a Retriever from cfg.
func New(e embedding.Embedder, s vectorstore.Store, cfg types.RetrieveConfig) *Retriever {
	return &Retriever{Embedder: e, Store: s, DefaultK: cfg.TopK, MinScore: cfg.MinScore}
}

// Retrieve returns at most K passages ordered by descending score. An empty
// store is an ErrIndex failure, not an empty result.
func (r *Retriever) Retrieve(ctx context.Context, q types.Query) (types.RetrievedContext, error) {
	if q.Text == "" {
		return nil, fmt.Errorf("%w: empty query", types.ErrInvalidRequest)
	}
	k := q.TopK
	if k <= 0 {
		k = r.DefaultK
	}
	if k <= 0 {
		k = DefaultTopK
	}

	n, err := r.Store.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrIndex, err)
	}
	if n == 0 {
		return nil, fmt.Errorf("%w: index is empty", types.ErrIndex)
	}

	vec, err := r.Embedder.Embed(ctx, q.Text)
	if err != nil {
		return nil, fmt.Errorf("%w: embedding query: %v", types.ErrEmbedding, err)
	}

	passages, err := r.Store.Search(ctx, vec, k, q.Filter)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrIndex, err)
	}

	sort.SliceStable(passages, func(i, j int) bool {
		return passages[i].Score > passages[j].Score
	})
	if len(passages) > k {
		passages = passages[:k]
	}
	if r.MinScore > 0 {
		kept := passages[:0]
		for _, p := range passages {
			if p.Score >= r.MinScore {
				kept = append(kept, p)
			}
		}
		passages = kept
	}
	return types.RetrievedContext(passages), nil
}
