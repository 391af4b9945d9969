// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// Snippet is one indexed piece of a paper: the text that was embedded and its
// vector. The PointID is derived from PaperID and Index so that indexing the
// same paper twice overwrites the same records.
type Snippet struct {
	PointID   string    `json:"point_id" yaml:"point_id"`
	PaperID   string    `json:"paper_id" yaml:"paper_id"`
	Index     int       `json:"index" yaml:"index"`
	Text      string    `json:"text" yaml:"text"`
	Title     string    `json:"title" yaml:"title"`
	URL       string    `json:"url" yaml:"url"`
	Source    string    `json:"source" yaml:"source"`
	Published time.Time `json:"published" yaml:"published"`
	Vector    []float32 `json:"-" yaml:"-"`
}

// Filter narrows a similarity search. Zero values mean no restriction.
type Filter struct {
	PaperIDs       []string  `json:"paper_ids,omitempty" yaml:"paper_ids,omitempty"`
	PublishedAfter time.Time `json:"published_after,omitempty" yaml:"published_after,omitempty"`
}

// IsEmpty reports whether the filter restricts nothing.
func (f Filter) IsEmpty() bool {
	return len(f.PaperIDs) == 0 && f.PublishedAfter.IsZero()
}

// Query is a transient research question with an optional result count and filter.
type Query struct {
	Text   string `json:"text" yaml:"text"`
	TopK   int    `json:"top_k,omitempty" yaml:"top_k,omitempty"`
	Filter Filter `json:"filter,omitempty" yaml:"filter,omitempty"`
}

// RetrievedPassage is a snippet returned by similarity search with its score.
type RetrievedPassage struct {
	Snippet `yaml:",inline"`

	// Score is the similarity to the query; higher is more relevant.
	Score float64 `json:"score" yaml:"score"`
}

// RetrievedContext is the ordered result of a retrieval, most relevant first.
type RetrievedContext []RetrievedPassage

// PaperIDs returns the distinct paper IDs in rank order.
func (c RetrievedContext) PaperIDs() []string {
	seen := make(map[string]bool, len(c))
	var ids []string
	for _, p := range c {
		if seen[p.PaperID] {
			continue
		}
		seen[p.PaperID] = true
		ids = append(ids, p.PaperID)
	}
	return ids
}
