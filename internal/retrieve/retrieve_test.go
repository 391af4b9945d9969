// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package retrieve

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/desk-researcher/internal/embedding"
	"github.com/pdiddy/desk-researcher/internal/index"
	"github.com/pdiddy/desk-researcher/internal/vectorstore"
	"github.com/pdiddy/desk-researcher/pkg/types"
)

// unorderedStore returns canned passages in the order given, ignoring k.
type unorderedStore struct {
	*vectorstore.MemoryStore
	passages []types.RetrievedPassage
	err      error
}

func (s unorderedStore) Count(context.Context) (int, error) { return len(s.passages), nil }

func (s unorderedStore) Search(context.Context, []float32, int, types.Filter) ([]types.RetrievedPassage, error) {
	return append([]types.RetrievedPassage(nil), s.passages...), s.err
}

func passage(id string, score float64) types.RetrievedPassage {
	return types.RetrievedPassage{Snippet: types.Snippet{PointID: id, PaperID: id}, Score: score}
}

func setup(t *testing.T) *Retriever {
	t.Helper()
	e := embedding.NewHashEmbedder(128)
	s := vectorstore.NewMemoryStore()
	ix := index.New(e, s, types.IndexConfig{}, nil)
	_, err := ix.Index(context.Background(), []types.Paper{
		{ID: "p1", Title: "Attention scaling with sequence length", Abstract: "Quadratic cost of self attention over long sequences."},
		{ID: "p2", Title: "Linear attention", Abstract: "Kernel methods make attention scale linearly with sequence length."},
		{ID: "p3", Title: "Protein folding", Abstract: "Structure prediction for amino acid chains."},
		{ID: "p4", Title: "Sparse attention patterns", Abstract: "Sliding windows reduce attention cost for long documents."},
		{ID: "p5", Title: "Graph coloring", Abstract: "Heuristics for coloring planar graphs."},
	})
	require.NoError(t, err)
	return New(e, s, types.RetrieveConfig{})
}

func TestRetrieve_TopK(t *testing.T) {
	r := setup(t)
	got, err := r.Retrieve(context.Background(), types.Query{Text: "how does attention scale with sequence length", TopK: 3})
	require.NoError(t, err)
	require.Len(t, got, 3)
	for i := 1; i < len(got); i++ {
		assert.GreaterOrEqual(t, got[i-1].Score, got[i].Score)
	}
	assert.NotContains(t, got.PaperIDs(), "p5")
}

func TestRetrieve_DefaultK(t *testing.T) {
	r := setup(t)
	r.DefaultK = 2
	got, err := r.Retrieve(context.Background(), types.Query{Text: "attention"})
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestRetrieve_SortsAndTruncates(t *testing.T) {
	store := unorderedStore{passages: []types.RetrievedPassage{
		passage("a", 0.2), passage("b", 0.9), passage("c", 0.5), passage("d", 0.9),
	}}
	r := &Retriever{Embedder: embedding.NewHashEmbedder(8), Store: store}

	got, err := r.Retrieve(context.Background(), types.Query{Text: "anything", TopK: 3})
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, []string{"b", "d", "c"}, got.PaperIDs())
}

func TestRetrieve_MinScore(t *testing.T) {
	store := unorderedStore{passages: []types.RetrievedPassage{passage("a", 0.2), passage("b", 0.6)}}
	r := &Retriever{Embedder: embedding.NewHashEmbedder(8), Store: store, MinScore: 0.5}

	got, err := r.Retrieve(context.Background(), types.Query{Text: "anything"})
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, got.PaperIDs())
}

func TestRetrieve_EmptyIndex(t *testing.T) {
	r := New(embedding.NewHashEmbedder(8), vectorstore.NewMemoryStore(), types.RetrieveConfig{})
	_, err := r.Retrieve(context.Background(), types.Query{Text: "attention"})
	assert.ErrorIs(t, err, types.ErrIndex)
	assert.ErrorContains(t, err, "index is empty")
}

func TestRetrieve_SearchFailure(t *testing.T) {
	store := unorderedStore{passages: []types.RetrievedPassage{passage("a", 1)}, err: errors.New("timeout")}
	r := &Retriever{Embedder: embedding.NewHashEmbedder(8), Store: store}
	_, err := r.Retrieve(context.Background(), types.Query{Text: "attention"})
	assert.ErrorIs(t, err, types.ErrIndex)
}

func TestRetrieve_EmbeddingFailure(t *testing.T) {
	store := unorderedStore{passages: []types.RetrievedPassage{passage("a", 1)}}
	r := &Retriever{Embedder: embedding.NewHashEmbedder(8), Store: store}
	_, err := r.Retrieve(context.Background(), types.Query{Text: "?! ... --"})
	assert.ErrorIs(t, err, types.ErrEmbedding)
}

func TestRetrieve_StopWordQuestion(t *testing.T) {
	store := unorderedStore{passages: []types.RetrievedPassage{passage("a", 0.4)}}
	r := &Retriever{Embedder: embedding.NewHashEmbedder(8), Store: store}
	got, err := r.Retrieve(context.Background(), types.Query{Text: "what is it that we do for this?"})
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestRetrieve_EmptyQuery(t *testing.T) {
	r := New(embedding.NewHashEmbedder(8), vectorstore.NewMemoryStore(), types.RetrieveConfig{})
	_, err := r.Retrieve(context.Background(), types.Query{})
	assert.ErrorIs(t, err, types.ErrInvalidRequest)
}
