// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package index

import "strings"

// Chunker splits text into overlapping word windows.
type Chunker struct {
	Size    int
	Overlap int
}

// Chunk returns the windows of text. Text that fits in one window is returned
// whole; empty text yields nil.
func (c Chunker) Chunk(text string) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}
	if c.Size <= 0 || len(words) <= c.Size {
		return []string{strings.Join(words, " ")}
	}

	step := c.Size - c.Overlap
	if step <= 0 {
		step = 1
	}
	var chunks []string
	for i := 0; i < len(words); i += step {
		end := min(i+c.Size, len(words))
		chunks = append(chunks, strings.Join(words[i:end], " "))
		if end == len(words) {
			break
		}
	}
	return chunks
}
