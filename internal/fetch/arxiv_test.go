// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package fetch

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/desk-researcher/internal/httputil"
	"github.com/pdiddy/desk-researcher/pkg/types"
)

func init() {
	httputil.RetryBaseDelay = time.Millisecond
}

const sampleArxivXML = `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <entry>
    <id>http://arxiv.org/abs/1706.03762v7</id>
    <title>Attention Is All
      You Need</title>
    <summary>  The dominant sequence transduction models are based on complex
      recurrent or convolutional neural networks.  </summary>
    <published>2017-06-12T17:57:34Z</published>
    <author><name>Ashish Vaswani</name></author>
    <author><name>Noam Shazeer</name></author>
    <category term="cs.CL"/>
    <category term="cs.LG"/>
  </entry>
  <entry>
    <id>http://arxiv.org/abs/2004.05150v2</id>
    <title>Longformer: The Long-Document Transformer</title>
    <summary>Transformer-based models are unable to process long sequences due to their self-attention operation, which scales quadratically with the sequence length.</summary>
    <published>2020-04-10T17:54:09Z</published>
    <author><name>Iz Beltagy</name></author>
  </entry>
  <entry>
    <id>http://arxiv.org/abs/1706.03762v5</id>
    <title>Attention Is All You Need (duplicate version)</title>
    <summary>dup</summary>
  </entry>
  <entry>
    <id>not-an-arxiv-id</id>
    <title>Broken</title>
  </entry>
</feed>`

func newTestFetcher(url string) *ArxivFetcher {
	return &ArxivFetcher{Client: &http.Client{Timeout: 2 * time.Second}, BaseURL: url, UserAgent: "test/0.1", MaxRetries: 2}
}

func TestArxivFetch(t *testing.T) {
	var gotQuery, gotUA string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("search_query")
		gotUA = r.Header.Get("User-Agent")
		assert.Equal(t, "5", r.URL.Query().Get("max_results"))
		assert.Equal(t, "relevance", r.URL.Query().Get("sortBy"))
		fmt.Fprint(w, sampleArxivXML)
	}))
	defer ts.Close()

	papers, err := newTestFetcher(ts.URL).Fetch(context.Background(), "latest transformer attention solutions", 5)
	require.NoError(t, err)

	assert.Equal(t, `ti:"transformer attention" OR abs:"transformer attention"`, gotQuery)
	assert.Equal(t, "test/0.1", gotUA)

	require.Len(t, papers, 2, "duplicate version and malformed id dropped")
	p := papers[0]
	assert.Equal(t, "1706.03762", p.ID)
	assert.Equal(t, "Attention Is All You Need", p.Title)
	assert.Equal(t, "The dominant sequence transduction models are based on complex recurrent or convolutional neural networks.", p.Abstract)
	assert.Equal(t, "http://arxiv.org/abs/1706.03762v7", p.URL)
	assert.Equal(t, []string{"Ashish Vaswani", "Noam Shazeer"}, p.Authors)
	assert.Equal(t, []string{"cs.CL", "cs.LG"}, p.Categories)
	assert.Equal(t, 2017, p.Published.Year())
	assert.Equal(t, "arxiv", p.Source)
}

func TestArxivFetchUniqueNonEmptyIDs(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, sampleArxivXML)
	}))
	defer ts.Close()

	for _, topic := range []string{"attention", "sequence length", "a b c"} {
		papers, err := newTestFetcher(ts.URL).Fetch(context.Background(), topic, 0)
		require.NoError(t, err)
		seen := map[string]bool{}
		for _, p := range papers {
			assert.NotEmpty(t, p.ID)
			assert.False(t, seen[p.ID], "duplicate id %s", p.ID)
			seen[p.ID] = true
		}
	}
}

func TestArxivFetchTruncatesAbstract(t *testing.T) {
	long := strings.Repeat("word ", 400)
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprintf(w, `<feed><entry><id>http://arxiv.org/abs/2301.00001v1</id><title>T</title><summary>%s</summary></entry></feed>`, long)
	}))
	defer ts.Close()

	papers, err := newTestFetcher(ts.URL).Fetch(context.Background(), "words", 1)
	require.NoError(t, err)
	assert.Len(t, []rune(papers[0].Abstract), defaultAbstractLimit)
}

func TestArxivFetchNoResults(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `<?xml version="1.0"?><feed xmlns="http://www.w3.org/2005/Atom"></feed>`)
	}))
	defer ts.Close()

	_, err := newTestFetcher(ts.URL).Fetch(context.Background(), "nothing matches this", 5)
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestArxivFetchUnreachable(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := ts.URL
	ts.Close()

	_, err := newTestFetcher(url).Fetch(context.Background(), "transformer attention", 5)
	assert.ErrorIs(t, err, types.ErrNetwork)
}

func TestArxivFetchRetriesUnavailable(t *testing.T) {
	var calls int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		fmt.Fprint(w, sampleArxivXML)
	}))
	defer ts.Close()

	papers, err := newTestFetcher(ts.URL).Fetch(context.Background(), "attention", 5)
	require.NoError(t, err)
	assert.Len(t, papers, 2)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestArxivFetchHTTPError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer ts.Close()

	_, err := newTestFetcher(ts.URL).Fetch(context.Background(), "attention", 5)
	assert.ErrorIs(t, err, types.ErrNetwork)
	assert.Contains(t, err.Error(), "HTTP 400")
}

func TestArxivFetchEmptyTopic(t *testing.T) {
	_, err := newTestFetcher("http://unused.invalid").Fetch(context.Background(), "  latest  ", 5)
	assert.ErrorIs(t, err, types.ErrInvalidRequest)
}

func TestExtractArxivID(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"http://arxiv.org/abs/2301.07041v1", "2301.07041"},
		{"http://arxiv.org/abs/1706.03762v5", "1706.03762"},
		{"http://arxiv.org/abs/2301.12345", "2301.12345"},
		{"https://arxiv.org/abs/hep-th/9901001v1", "hep-th/9901001"},
		{"http://arxiv.org/api/errors#incorrect_id", ""},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, extractArxivID(tt.input))
		})
	}
}

func TestCleanTopic(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"latest solutions for quantum error correction", "for quantum error correction"},
		{"  transformer   attention ", "transformer attention"},
		{`"graph" (neural) networks?`, "graph neural networks"},
		{"self-supervised learning", "self-supervised learning"},
		{"Latest", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, CleanTopic(tt.in), tt.in)
	}
}
