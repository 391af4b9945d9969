// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

//go:build cgo

package embedding

import (
	"context"
	"fmt"
	"sync"

	ort "github.com/yalue/onnxruntime_go"
)

// ONNXOptions configures an ONNXEmbedder.
type ONNXOptions struct {
	ModelPath      string
	RuntimeLibrary string
	Dimensions     int
	MaxTokens      int
	Tokenizer      Tokenizer
}

// ONNXEmbedder runs a sentence-transformer model (e.g. all-MiniLM-L6-v2)
// through ONNX Runtime and mean-pools last_hidden_state over the attention
// mask. Requires CGO and the onnxruntime shared library.
type ONNXEmbedder struct {
	session    *ort.AdvancedSession
	dimensions int
	maxTokens  int
	tokenizer  Tokenizer

	// Pre-allocated tensors for Run(); input data is overwritten per call.
	inputIDsTensor      *ort.Tensor[int64]
	attentionMaskTensor *ort.Tensor[int64]
	tokenTypeIDsTensor  *ort.Tensor[int64]
	outputTensor        *ort.Tensor[float32]
	mu                  sync.Mutex
}

// NewONNXEmbedder creates the session and its tensors, initializing the
// ONNX Runtime environment if needed.
func NewONNXEmbedder(opts ONNXOptions) (*ONNXEmbedder, error) {
	if opts.Tokenizer == nil {
		return nil, fmt.Errorf("onnx embedder requires a tokenizer")
	}
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = 256
	}
	if opts.Dimensions <= 0 {
		opts.Dimensions = DefaultDimensions
	}

	if !ort.IsInitialized() {
		if opts.RuntimeLibrary != "" {
			ort.SetSharedLibraryPath(opts.RuntimeLibrary)
		}
		if err := ort.InitializeEnvironment(); err != nil {
			return nil, fmt.Errorf("initializing ONNX runtime: %w", err)
		}
	}

	seq := int64(opts.MaxTokens)
	inputShape := ort.NewShape(1, seq)

	inputIDs, err := ort.NewEmptyTensor[int64](inputShape)
	if err != nil {
		return nil, fmt.Errorf("creating input_ids tensor: %w", err)
	}
	mask, err := ort.NewEmptyTensor[int64](inputShape)
	if err != nil {
		inputIDs.Destroy()
		return nil, fmt.Errorf("creating attention_mask tensor: %w", err)
	}
	typeIDs, err := ort.NewEmptyTensor[int64](inputShape)
	if err != nil {
		inputIDs.Destroy()
		mask.Destroy()
		return nil, fmt.Errorf("creating token_type_ids tensor: %w", err)
	}
	output, err := ort.NewEmptyTensor[float32](ort.NewShape(1, seq, int64(opts.Dimensions)))
	if err != nil {
		inputIDs.Destroy()
		mask.Destroy()
		typeIDs.Destroy()
		return nil, fmt.Errorf("creating output tensor: %w", err)
	}

	session, err := ort.NewAdvancedSession(
		opts.ModelPath,
		[]string{"input_ids", "attention_mask", "token_type_ids"},
		[]string{"last_hidden_state"},
		[]ort.ArbitraryTensor{inputIDs, mask, typeIDs},
		[]ort.ArbitraryTensor{output},
		nil,
	)
	if err != nil {
		inputIDs.Destroy()
		mask.Destroy()
		typeIDs.Destroy()
		output.Destroy()
		return nil, fmt.Errorf("creating ONNX session for %s: %w", opts.ModelPath, err)
	}

	return &ONNXEmbedder{
		session:             session,
		dimensions:          opts.Dimensions,
		maxTokens:           opts.MaxTokens,
		tokenizer:           opts.Tokenizer,
		inputIDsTensor:      inputIDs,
		attentionMaskTensor: mask,
		tokenTypeIDsTensor:  typeIDs,
		outputTensor:        output,
	}, nil
}

// Embed returns the mean-pooled, L2-normalized sentence embedding for text.
func (e *ONNXEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	ids, mask, typeIDs := e.tokenizer.Tokenize(text, e.maxTokens)
	copy(e.inputIDsTensor.GetData(), ids)
	copy(e.attentionMaskTensor.GetData(), mask)
	copy(e.tokenTypeIDsTensor.GetData(), typeIDs)

	if err := e.session.Run(); err != nil {
		return nil, fmt.Errorf("inference failed: %w", err)
	}

	vec := meanPool(e.outputTensor.GetData(), mask, e.dimensions)
	NormalizeL2Slice(vec)
	return vec, nil
}

// EmbedBatch embeds each text in order; the session runs one sequence at a time.
func (e *ONNXEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	return embedEach(ctx, texts, e.Embed)
}

// Dimensions returns the embedding dimension.
func (e *ONNXEmbedder) Dimensions() int { return e.dimensions }

// Close destroys the session and tensors.
func (e *ONNXEmbedder) Close() error {
	var err error
	if e.session != nil {
		err = e.session.Destroy()
		e.session = nil
	}
	if e.inputIDsTensor != nil {
		_ = e.inputIDsTensor.Destroy()
		e.inputIDsTensor = nil
	}
	if e.attentionMaskTensor != nil {
		_ = e.attentionMaskTensor.Destroy()
		e.attentionMaskTensor = nil
	}
	if e.tokenTypeIDsTensor != nil {
		_ = e.tokenTypeIDsTensor.Destroy()
		e.tokenTypeIDsTensor = nil
	}
	if e.outputTensor != nil {
		_ = e.outputTensor.Destroy()
		e.outputTensor = nil
	}
	return err
}
