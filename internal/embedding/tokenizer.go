// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package embedding

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"unicode"
)

// Tokenizer produces token IDs for BERT-style models (input_ids, attention_mask, token_type_ids).
type Tokenizer interface {
	Tokenize(text string, maxTokens int) (inputIDs, attentionMask, tokenTypeIDs []int64)
}

// maxWordChars matches BERT: longer words become [UNK].
const maxWordChars = 100

// WordPiece is an uncased BERT WordPiece tokenizer backed by a vocab.txt file.
type WordPiece struct {
	vocab map[string]int64
	cls   int64
	sep   int64
	pad   int64
	unk   int64
}

// LoadWordPiece reads a vocabulary file with one token per line; the line
// number is the token ID.
func LoadWordPiece(path string) (*WordPiece, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening vocab %s: %w", path, err)
	}
	defer f.Close()

	vocab := make(map[string]int64)
	sc := bufio.NewScanner(f)
	var id int64
	for sc.Scan() {
		vocab[strings.TrimRight(sc.Text(), "\r")] = id
		id++
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading vocab %s: %w", path, err)
	}
	return NewWordPiece(vocab)
}

// NewWordPiece builds a tokenizer from an in-memory vocabulary. The special
// tokens [CLS], [SEP], [PAD] and [UNK] must be present.
func NewWordPiece(vocab map[string]int64) (*WordPiece, error) {
	w := &WordPiece{vocab: vocab}
	for tok, dst := range map[string]*int64{"[CLS]": &w.cls, "[SEP]": &w.sep, "[PAD]": &w.pad, "[UNK]": &w.unk} {
		id, ok := vocab[tok]
		if !ok {
			return nil, fmt.Errorf("vocab is missing special token %s", tok)
		}
		*dst = id
	}
	return w, nil
}

// Tokenize lowercases and splits text, applies greedy longest-match WordPiece,
// and returns [CLS] tokens [SEP] padded to maxTokens.
func (w *WordPiece) Tokenize(text string, maxTokens int) (inputIDs, attentionMask, tokenTypeIDs []int64) {
	if maxTokens <= 2 {
		maxTokens = 256
	}
	inputIDs = make([]int64, maxTokens)
	attentionMask = make([]int64, maxTokens)
	tokenTypeIDs = make([]int64, maxTokens)
	for i := range inputIDs {
		inputIDs[i] = w.pad
	}

	inputIDs[0] = w.cls
	attentionMask[0] = 1
	pos := 1
	for _, word := range basicSplit(text) {
		for _, id := range w.wordPieces(word) {
			if pos >= maxTokens-1 {
				break
			}
			inputIDs[pos] = id
			attentionMask[pos] = 1
			pos++
		}
	}
	inputIDs[pos] = w.sep
	attentionMask[pos] = 1
	return inputIDs, attentionMask, tokenTypeIDs
}

func (w *WordPiece) wordPieces(word string) []int64 {
	runes := []rune(word)
	if len(runes) > maxWordChars {
		return []int64{w.unk}
	}
	var ids []int64
	for start := 0; start < len(runes); {
		end := len(runes)
		var id int64 = -1
		for end > start {
			piece := string(runes[start:end])
			if start > 0 {
				piece = "##" + piece
			}
			if v, ok := w.vocab[piece]; ok {
				id = v
				break
			}
			end--
		}
		if id < 0 {
			return []int64{w.unk}
		}
		ids = append(ids, id)
		start = end
	}
	return ids
}

// basicSplit lowercases text and splits on whitespace, emitting each
// punctuation rune as its own word.
func basicSplit(text string) []string {
	var words []string
	var cur strings.Builder
	flush := func() {
		if cur.Len() > 0 {
			words = append(words, cur.String())
			cur.Reset()
		}
	}
	for _, r := range strings.ToLower(text) {
		switch {
		case unicode.IsSpace(r) || unicode.IsControl(r):
			flush()
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			flush()
			words = append(words, string(r))
		default:
			cur.WriteRune(r)
		}
	}
	flush()
	return words
}
