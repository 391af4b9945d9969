// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package index turns papers into embedded snippets and writes them to the
// vector store.
package index

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/pdiddy/desk-researcher/internal/embedding"
	"github.com/pdiddy/desk-researcher/internal/vectorstore"
	"github.com/pdiddy/desk-researcher/pkg/types"
)

// Default chunking, in words. A 700-character abstract plus title fits in one
// window, so most arXiv papers produce a single snippet.
const (
	DefaultChunkSize    = 200
	DefaultChunkOverlap = 40
)

// Summary reports what one Index call wrote.
type Summary struct {
	Papers   int           `json:"papers" yaml:"papers"`
	Snippets int           `json:"snippets" yaml:"snippets"`
	Total    int           `json:"total" yaml:"total"`
	Elapsed  time.Duration `json:"elapsed" yaml:"elapsed"`
}

// Indexer embeds papers and upserts them into a Store.
type Indexer struct {
	Embedder embedding.Embedder
	Store    vectorstore.Store
	Chunker  Chunker
	Logger   *zap.Logger
}

// New returns an Indexer using cfg's chunk settings, falling back to defaults.
func New(e embedding.Embedder, s vectorstore.Store, cfg types.IndexConfig, logger *zap.Logger) *Indexer {
	size, overlap := cfg.ChunkSize, cfg.ChunkOverlap
	if size <= 0 {
		size, overlap = DefaultChunkSize, DefaultChunkOverlap
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Indexer{Embedder: e, Store: s, Chunker: Chunker{Size: size, Overlap: overlap}, Logger: logger}
}

// Snippets chunks every paper's title and abstract into snippets with
// deterministic point IDs. Vectors are left empty.
func (ix *Indexer) Snippets(papers []types.Paper) []types.Snippet {
	var out []types.Snippet
	for _, p := range papers {
		for i, text := range ix.Chunker.Chunk(p.Text()) {
			out = append(out, types.Snippet{
				PointID:   vectorstore.PointID(p.ID, i),
				PaperID:   p.ID,
				Index:     i,
				Text:      text,
				Title:     p.Title,
				URL:       p.URL,
				Source:    p.Source,
				Published: p.Published,
			})
		}
	}
	return out
}

// Index embeds all papers in one batch and upserts them in one call. Nothing
// is written when embedding fails. Errors carry ErrEmbedding or ErrIndex.
func (ix *Indexer) Index(ctx context.Context, papers []types.Paper) (Summary, error) {
	start := time.Now()
	snippets := ix.Snippets(papers)
	if len(snippets) == 0 {
		return Summary{}, fmt.Errorf("%w: no text to index in %d papers", types.ErrEmbedding, len(papers))
	}

	texts := make([]string, len(snippets))
	for i, s := range snippets {
		texts[i] = s.Text
	}
	vectors, err := ix.Embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return Summary{}, fmt.Errorf("%w: embedding %d snippets: %v", types.ErrEmbedding, len(texts), err)
	}
	if len(vectors) != len(snippets) {
		return Summary{}, fmt.Errorf("%w: got %d vectors for %d snippets", types.ErrEmbedding, len(vectors), len(snippets))
	}
	dims := ix.Embedder.Dimensions()
	for i, v := range vectors {
		if len(v) != dims {
			return Summary{}, fmt.Errorf("%w: snippet %d has %d dimensions, want %d", types.ErrEmbedding, i, len(v), dims)
		}
		snippets[i].Vector = v
	}

	if err := ix.Store.EnsureCollection(ctx, dims); err != nil {
		return Summary{}, fmt.Errorf("%w: %v", types.ErrIndex, err)
	}
	if err := ix.Store.Upsert(ctx, snippets); err != nil {
		return Summary{}, fmt.Errorf("%w: %v", types.ErrIndex, err)
	}
	total, err := ix.Store.Count(ctx)
	if err != nil {
		return Summary{}, fmt.Errorf("%w: %v", types.ErrIndex, err)
	}

	sum := Summary{Papers: len(papers), Snippets: len(snippets), Total: total, Elapsed: time.Since(start)}
	ix.logger().Info("indexed papers",
		zap.Int("papers", sum.Papers),
		zap.Int("snippets", sum.Snippets),
		zap.Int("total", sum.Total),
		zap.Duration("elapsed", sum.Elapsed),
	)
	return sum, nil
}

func (ix *Indexer) logger() *zap.Logger {
	if ix.Logger == nil {
		return zap.NewNop()
	}
	return ix.Logger
}
