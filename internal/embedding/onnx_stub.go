// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

//go:build !cgo

package embedding

import "errors"

// ONNXOptions configures an ONNXEmbedder.
type ONNXOptions struct {
	ModelPath      string
	RuntimeLibrary string
	Dimensions     int
	MaxTokens      int
	Tokenizer      Tokenizer
}

// ONNXEmbedder stub type when built without CGO (see onnx.go for the real implementation).
type ONNXEmbedder struct{ Embedder }

// NewONNXEmbedder returns an error when built without CGO.
func NewONNXEmbedder(_ ONNXOptions) (*ONNXEmbedder, error) {
	return nil, errors.New("ONNX embedder requires CGO; build with CGO_ENABLED=1 and onnxruntime")
}
