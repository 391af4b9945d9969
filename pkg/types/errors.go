// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"errors"
	"fmt"
)

// Error kinds surfaced by the pipeline. Match with errors.Is.
var (
	ErrInvalidRequest = errors.New("invalid request")
	ErrNetwork        = errors.New("network error")
	ErrNotFound       = errors.New("not found")
	ErrEmbedding      = errors.New("embedding error")
	ErrIndex          = errors.New("index error")
	ErrSynthesis      = errors.New("synthesis error")
	ErrDelivery       = errors.New("delivery error")
)

// Stage names one step of the research pipeline.
type Stage string

const (
	StageFetch      Stage = "fetch"
	StageIndex      Stage = "index"
	StageRetrieve   Stage = "retrieve"
	StageSynthesize Stage = "synthesize"
	StageNotify     Stage = "notify"
)

// StageError records which stage failed, the error kind, and the cause.
type StageError struct {
	Stage Stage
	Kind  error
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %v: %v", e.Stage, e.Kind, e.Err)
}

// Unwrap exposes both the kind and the cause to errors.Is and errors.As.
func (e *StageError) Unwrap() []error {
	return []error{e.Kind, e.Err}
}

// NewStageError wraps err for stage with the given kind. A nil err yields nil.
func NewStageError(stage Stage, kind, err error) error {
	if err == nil {
		return nil
	}
	return &StageError{Stage: stage, Kind: kind, Err: err}
}

// kinds lists error kinds in the order KindOf checks them.
var kinds = []error{
	ErrInvalidRequest, ErrNetwork, ErrNotFound, ErrEmbedding,
	ErrIndex, ErrSynthesis, ErrDelivery,
}

// KindOf returns the error kind carried by err, or nil if it has none.
func KindOf(err error) error {
	for _, k := range kinds {
		if errors.Is(err, k) {
			return k
		}
	}
	return nil
}

// KindName returns a short machine-readable name for the kind of err.
func KindName(err error) string {
	switch KindOf(err) {
	case ErrInvalidRequest:
		return "invalid_request"
	case ErrNetwork:
		return "network_error"
	case ErrNotFound:
		return "not_found"
	case ErrEmbedding:
		return "embedding_error"
	case ErrIndex:
		return "index_error"
	case ErrSynthesis:
		return "synthesis_error"
	case ErrDelivery:
		return "delivery_error"
	default:
		return "internal_error"
	}
}
