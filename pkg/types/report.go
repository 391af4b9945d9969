// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// Source is a paper presented to the language model as numbered context.
type Source struct {
	// Index is the 1-based reference number used in the report text ("[1]").
	Index int `json:"index" yaml:"index"`

	PaperID   string    `json:"paper_id" yaml:"paper_id"`
	Title     string    `json:"title" yaml:"title"`
	URL       string    `json:"url" yaml:"url"`
	Published time.Time `json:"published" yaml:"published"`

	// Score is the retrieval relevance, rounded to three decimals.
	Score float64 `json:"relevance_score" yaml:"relevance_score"`

	// Cited reports whether the report text references this source.
	Cited bool `json:"cited" yaml:"cited"`
}

// PublishedDate formats the publication date for display, or "Unknown date".
func (s Source) PublishedDate() string {
	if s.Published.IsZero() {
		return "Unknown date"
	}
	return s.Published.Format("2006-01-02")
}

// Report is the synthesized answer to a research question. Immutable once built.
type Report struct {
	Query       string    `json:"query" yaml:"query"`
	Text        string    `json:"text" yaml:"text"`
	Sources     []Source  `json:"sources" yaml:"sources"`
	Model       string    `json:"model,omitempty" yaml:"model,omitempty"`
	GeneratedAt time.Time `json:"generated_at" yaml:"generated_at"`
}

// Cited returns the sources referenced in the report text.
func (r Report) Cited() []Source {
	var out []Source
	for _, s := range r.Sources {
		if s.Cited {
			out = append(out, s)
		}
	}
	return out
}
