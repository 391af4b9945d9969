// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package fetch queries an academic search API for a topic and returns
// candidate papers with unique identifiers.
package fetch

import (
	"context"
	"strings"
	"unicode"

	"github.com/pdiddy/desk-researcher/pkg/types"
)

// Fetcher returns papers for a topic. Implementations fail with
// types.ErrNetwork when the source is unreachable and types.ErrNotFound when
// it returns no results.
type Fetcher interface {
	Fetch(ctx context.Context, topic string, maxResults int) ([]types.Paper, error)
}

// fillerWords are dropped from the topic before searching; they narrow
// title/abstract matches without adding meaning.
var fillerWords = map[string]bool{
	"latest":    true,
	"solutions": true,
}

// CleanTopic strips filler words and the punctuation that arXiv query syntax
// treats specially, and collapses whitespace.
func CleanTopic(topic string) string {
	var words []string
	for _, w := range strings.Fields(topic) {
		w = strings.TrimFunc(w, func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '-'
		})
		if w == "" || fillerWords[strings.ToLower(w)] {
			continue
		}
		words = append(words, w)
	}
	return strings.Join(words, " ")
}

// dedupe drops papers with empty or repeated IDs, keeping the first occurrence.
func dedupe(papers []types.Paper) []types.Paper {
	seen := make(map[string]bool, len(papers))
	out := papers[:0]
	for _, p := range papers {
		if p.ID == "" || seen[p.ID] {
			continue
		}
		seen[p.ID] = true
		out = append(out, p)
	}
	return out
}

// collapse normalizes internal whitespace (arXiv wraps titles and abstracts).
func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// truncateRunes shortens s to at most limit runes. A non-positive limit keeps s intact.
func truncateRunes(s string, limit int) string {
	if limit <= 0 {
		return s
	}
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit])
}
