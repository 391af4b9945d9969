// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the desk-researcher pipeline:
// papers returned by the fetcher, snippets stored in the vector index, the
// retrieved context, the synthesized report, and the persisted run record.
package types

import "time"

// Paper holds metadata for a paper returned by the academic search source.
// A Paper is immutable once created by the fetcher.
type Paper struct {
	// ID is the source identifier without version suffix (e.g. "1706.03762").
	ID string `json:"id" yaml:"id"`

	// Title is the whitespace-normalized paper title.
	Title string `json:"title" yaml:"title"`

	// Abstract is the whitespace-normalized abstract, possibly truncated.
	Abstract string `json:"abstract" yaml:"abstract"`

	// URL links to the paper's abstract page.
	URL string `json:"url" yaml:"url"`

	// Authors lists the paper authors in source order.
	Authors []string `json:"authors,omitempty" yaml:"authors,omitempty"`

	// Published is the first-version submission date.
	Published time.Time `json:"published" yaml:"published"`

	// Categories lists the subject classes (e.g. "cs.CL").
	Categories []string `json:"categories,omitempty" yaml:"categories,omitempty"`

	// Source identifies the search backend (e.g. "arxiv").
	Source string `json:"source" yaml:"source"`
}

// Text returns the content that gets embedded for this paper.
func (p Paper) Text() string {
	if p.Abstract == "" {
		return p.Title
	}
	return p.Title + " " + p.Abstract
}

// PublishedDate formats the publication date for display, or "Unknown date".
func (p Paper) PublishedDate() string {
	if p.Published.IsZero() {
		return "Unknown date"
	}
	return p.Published.Format("2006-01-02")
}
