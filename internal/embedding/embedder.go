// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package embedding turns text into fixed-dimension vectors. It provides a
// built-in feature-hashing embedder, an ONNX Runtime embedder for
// sentence-transformer models, and an LRU caching decorator.
package embedding

import (
	"context"
	"fmt"

	"github.com/pdiddy/desk-researcher/pkg/types"
)

// DefaultDimensions matches all-MiniLM-L6-v2.
const DefaultDimensions = 384

// Embedder produces vector embeddings for text.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Dimensions() int
	Close() error
}

// New builds the embedder selected by cfg.Backend and wraps it in a cache
// when cfg.CacheSize is positive.
func New(cfg types.EmbeddingConfig) (Embedder, error) {
	dims := cfg.Dimensions
	if dims <= 0 {
		dims = DefaultDimensions
	}

	var e Embedder
	switch cfg.Backend {
	case "", "hash":
		e = NewHashEmbedder(dims)
	case "onnx":
		if cfg.ModelPath == "" || cfg.VocabPath == "" {
			return nil, fmt.Errorf("onnx embedder requires model_path and vocab_path")
		}
		tok, err := LoadWordPiece(cfg.VocabPath)
		if err != nil {
			return nil, err
		}
		onnx, err := NewONNXEmbedder(ONNXOptions{
			ModelPath:      cfg.ModelPath,
			RuntimeLibrary: cfg.RuntimeLibrary,
			Dimensions:     dims,
			MaxTokens:      cfg.MaxTokens,
			Tokenizer:      tok,
		})
		if err != nil {
			return nil, err
		}
		e = onnx
	default:
		return nil, fmt.Errorf("unknown embedding backend %q: use hash or onnx", cfg.Backend)
	}

	if cfg.CacheSize > 0 {
		e = NewCachedEmbedder(e, cfg.CacheSize)
	}
	return e, nil
}

// embedEach calls embed for every text; a helper for embedders without a native batch path.
func embedEach(ctx context.Context, texts []string, embed func(context.Context, string) ([]float32, error)) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		v, err := embed(ctx, text)
		if err != nil {
			return nil, fmt.Errorf("text %d: %w", i, err)
		}
		out[i] = v
	}
	return out, nil
}
