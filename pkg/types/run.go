// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// RunStatus tracks a research run through the pipeline.
type RunStatus string

const (
	RunProcessing RunStatus = "processing"
	RunSucceeded  RunStatus = "succeeded"
	RunFailed     RunStatus = "failed"
)

// Run is the persisted record of one research request.
type Run struct {
	ID     string    `json:"id" yaml:"id"`
	Query  string    `json:"query" yaml:"query"`
	Email  string    `json:"email" yaml:"email"`
	Status RunStatus `json:"status" yaml:"status"`

	// Stage is the stage currently running, or the one that failed.
	Stage Stage `json:"stage,omitempty" yaml:"stage,omitempty"`

	// Error holds the failure message; ErrorKind its machine-readable kind.
	Error     string `json:"error,omitempty" yaml:"error,omitempty"`
	ErrorKind string `json:"error_kind,omitempty" yaml:"error_kind,omitempty"`

	TotalPapers    int     `json:"total_papers" yaml:"total_papers"`
	RelevantPapers int     `json:"relevant_papers" yaml:"relevant_papers"`
	Report         *Report `json:"report,omitempty" yaml:"report,omitempty"`
	DeliveryID     string  `json:"delivery_id,omitempty" yaml:"delivery_id,omitempty"`

	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
	UpdatedAt time.Time `json:"updated_at" yaml:"updated_at"`
}

// Outcome is what a successful pipeline run produces.
type Outcome struct {
	Report         *Report `json:"report" yaml:"report"`
	TotalPapers    int     `json:"total_papers" yaml:"total_papers"`
	RelevantPapers int     `json:"relevant_papers" yaml:"relevant_papers"`
	DeliveryID     string  `json:"delivery_id,omitempty" yaml:"delivery_id,omitempty"`
}
