// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package synth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/desk-researcher/pkg/types"
)

func init() {
	backoffBase = time.Millisecond
}

// scriptedCompleter returns the queued answers in order, then repeats the last.
type scriptedCompleter struct {
	mu      sync.Mutex
	answers []string
	errs    []error
	prompts []string
}

func (c *scriptedCompleter) Complete(_ context.Context, prompt string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	i := min(len(c.prompts), len(c.answers)-1)
	c.prompts = append(c.prompts, prompt)
	var err error
	if i < len(c.errs) {
		err = c.errs[i]
	}
	return c.answers[i], err
}

func passages() types.RetrievedContext {
	pub := time.Date(2023, 5, 1, 0, 0, 0, 0, time.UTC)
	p := func(id, title string, idx int, score float64) types.RetrievedPassage {
		return types.RetrievedPassage{
			Snippet: types.Snippet{PaperID: id, Index: idx, Title: title, Text: title + " passage", URL: "http://arxiv.org/abs/" + id, Published: pub},
			Score:   score,
		}
	}
	return types.RetrievedContext{
		p("a", "Paper A", 0, 0.91234),
		p("a", "Paper A", 1, 0.9),
		p("b", "Paper B", 0, 0.8),
		p("c", "Paper C", 0, 0.7),
	}
}

func TestSources_GroupsByPaper(t *testing.T) {
	sources, texts := Sources(passages(), 5)
	require.Len(t, sources, 3)
	assert.Equal(t, []int{1, 2, 3}, []int{sources[0].Index, sources[1].Index, sources[2].Index})
	assert.Equal(t, "a", sources[0].PaperID)
	assert.Equal(t, 0.912, sources[0].Score)
	assert.Equal(t, "Paper A passage", texts[0])

	sources, _ = Sources(passages(), 2)
	assert.Len(t, sources, 2)
}

func TestSynthesize_MarksCitations(t *testing.T) {
	c := &scriptedCompleter{answers: []string{"  Attention is quadratic [1]. Linear variants exist [3].  "}}
	s := &Synthesizer{Completer: c, Model: "test-model"}

	report, err := s.Synthesize(context.Background(), "how does attention scale", passages())
	require.NoError(t, err)
	assert.Equal(t, "Attention is quadratic [1]. Linear variants exist [3].", report.Text)
	assert.Equal(t, "test-model", report.Model)
	assert.Equal(t, "how does attention scale", report.Query)
	assert.False(t, report.GeneratedAt.IsZero())

	require.Len(t, report.Sources, 3)
	assert.True(t, report.Sources[0].Cited)
	assert.False(t, report.Sources[1].Cited)
	assert.True(t, report.Sources[2].Cited)
	assert.Len(t, report.Cited(), 2)

	prompt := c.prompts[0]
	assert.Contains(t, prompt, "RESEARCH QUESTION:\nhow does attention scale")
	assert.Contains(t, prompt, "[1] Paper A\nPaper A passage\nSource: http://arxiv.org/abs/a")
	assert.Contains(t, prompt, "[3] Paper C")
	assert.Contains(t, prompt, "maximum 400 words")
	assert.Contains(t, prompt, "DO NOT invent information")
}

func TestSynthesize_RetriesEmptyAndErrors(t *testing.T) {
	c := &scriptedCompleter{
		answers: []string{"", "", "Report [2]."},
		errs:    []error{nil, errors.New("429 rate limited"), nil},
	}
	s := &Synthesizer{Completer: c, MaxRetries: 3}

	report, err := s.Synthesize(context.Background(), "q", passages())
	require.NoError(t, err)
	assert.Len(t, c.prompts, 3)
	assert.True(t, report.Sources[1].Cited)
}

func TestSynthesize_ExhaustsRetries(t *testing.T) {
	c := &scriptedCompleter{answers: []string{""}, errs: []error{errors.New("boom")}}
	s := &Synthesizer{Completer: c, MaxRetries: 2}

	_, err := s.Synthesize(context.Background(), "q", passages())
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrSynthesis)
	assert.Contains(t, err.Error(), "after 2 retries")
	assert.Len(t, c.prompts, 3)
}

func TestSynthesize_NoPassages(t *testing.T) {
	s := &Synthesizer{Completer: &scriptedCompleter{answers: []string{"x"}}}
	_, err := s.Synthesize(context.Background(), "q", nil)
	assert.ErrorIs(t, err, types.ErrSynthesis)
}

type slowCompleter struct{}

func (slowCompleter) Complete(ctx context.Context, _ string) (string, error) {
	<-ctx.Done()
	return "", ctx.Err()
}

func TestSynthesize_PerAttemptTimeout(t *testing.T) {
	s := &Synthesizer{Completer: slowCompleter{}, MaxRetries: 1, Timeout: 5 * time.Millisecond}
	_, err := s.Synthesize(context.Background(), "q", passages())
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrSynthesis)
	assert.Contains(t, err.Error(), "deadline exceeded")
}

func TestSynthesize_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s := &Synthesizer{Completer: slowCompleter{}}
	_, err := s.Synthesize(ctx, "q", passages())
	assert.ErrorIs(t, err, types.ErrSynthesis)
}

func TestCitations(t *testing.T) {
	tests := []struct {
		text string
		want []int
	}{
		{"no refs here", nil},
		{"one [1] two [2]", []int{1, 2}},
		{"group [1, 3]", []int{1, 3}},
		{"range [2-4]", []int{2, 3, 4}},
		{"en dash [1–2]", []int{1, 2}},
		{"not a ref [a] or [1.5]", nil},
		{"backwards [4-2]", nil},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			got := Citations(tt.text)
			assert.Len(t, got, len(tt.want))
			for _, n := range tt.want {
				assert.True(t, got[n], "expected [%d] cited", n)
			}
		})
	}
}

func TestFantasyCompleter_ChatCompletions(t *testing.T) {
	var body map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "/chat/completions"))
		assert.Equal(t, "Bearer gsk_test", r.Header.Get("Authorization"))
		json.NewDecoder(r.Body).Decode(&body)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"id": "chatcmpl-1",
			"object": "chat.completion",
			"created": 1700000000,
			"model": "llama-3.3-70b-versatile",
			"choices": [{"index": 0, "message": {"role": "assistant", "content": "Scaling is quadratic [1]."}, "finish_reason": "stop"}],
			"usage": {"prompt_tokens": 10, "completion_tokens": 5, "total_tokens": 15}
		}`))
	}))
	defer srv.Close()

	tests := []struct {
		name        string
		temperature float64
		want        float64
	}{
		{"configured", 0.7, 0.7},
		{"zero is kept", 0, 0},
		{"negative uses default", -1, DefaultTemperature},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body = nil
			c, err := NewFantasyCompleter(context.Background(), types.AIConfig{APIKey: "gsk_test", BaseURL: srv.URL, Temperature: tt.temperature})
			require.NoError(t, err)

			text, err := c.Complete(context.Background(), "hello")
			require.NoError(t, err)
			assert.Equal(t, "Scaling is quadratic [1].", text)
			assert.Equal(t, DefaultModel, body["model"])
			assert.InDelta(t, tt.want, body["temperature"], 1e-9)
		})
	}
}

func TestNewFantasyCompleter_Validation(t *testing.T) {
	_, err := NewFantasyCompleter(context.Background(), types.AIConfig{})
	assert.ErrorContains(t, err, "API key")

	_, err = NewFantasyCompleter(context.Background(), types.AIConfig{APIKey: "k", Provider: "bedrock"})
	assert.ErrorContains(t, err, "unsupported provider")
}
