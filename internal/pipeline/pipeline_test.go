// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// End-to-end test: arXiv fetch → index → retrieve → synthesize → notify,
// using an httptest arXiv feed, the hashing embedder, the in-memory vector
// store, a scripted language model and a recording email sender.

package pipeline

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/desk-researcher/internal/embedding"
	"github.com/pdiddy/desk-researcher/internal/fetch"
	"github.com/pdiddy/desk-researcher/internal/httputil"
	"github.com/pdiddy/desk-researcher/internal/index"
	"github.com/pdiddy/desk-researcher/internal/notify"
	"github.com/pdiddy/desk-researcher/internal/retrieve"
	"github.com/pdiddy/desk-researcher/internal/runs"
	"github.com/pdiddy/desk-researcher/internal/synth"
	"github.com/pdiddy/desk-researcher/internal/vectorstore"
	"github.com/pdiddy/desk-researcher/pkg/types"
)

func init() {
	httputil.RetryBaseDelay = time.Millisecond
}

var attentionPapers = []struct{ id, title, abstract string }{
	{"1706.03762", "Attention Is All You Need", "The Transformer relies entirely on attention. Self-attention cost grows quadratically with sequence length."},
	{"2009.14794", "Rethinking Attention with Performers", "Performers approximate softmax attention so that cost scales linearly with sequence length."},
	{"2004.05150", "Longformer: The Long-Document Transformer", "Sliding window attention scales linearly with sequence length for long documents."},
	{"1904.10509", "Generating Long Sequences with Sparse Transformers", "Sparse factorizations of the attention matrix reduce quadratic cost to n sqrt n."},
	{"2106.01345", "Decision Transformer", "Reinforcement learning as sequence modeling with a causally masked transformer."},
}

func arxivFeed() string {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?><feed xmlns="http://www.w3.org/2005/Atom">`)
	for _, p := range attentionPapers {
		fmt.Fprintf(&b, `<entry><id>http://arxiv.org/abs/%sv1</id><published>2021-01-01T00:00:00Z</published>`+
			`<title>%s</title><summary>%s</summary><author><name>A. Author</name></author></entry>`,
			p.id, p.title, p.abstract)
	}
	b.WriteString(`</feed>`)
	return b.String()
}

// countingStore records upsert calls on top of the in-memory store.
type countingStore struct {
	*vectorstore.MemoryStore
	mu      sync.Mutex
	upserts int
}

func (s *countingStore) Upsert(ctx context.Context, recs []types.Snippet) error {
	s.mu.Lock()
	s.upserts++
	s.mu.Unlock()
	return s.MemoryStore.Upsert(ctx, recs)
}

type citingCompleter struct{ prompts []string }

func (c *citingCompleter) Complete(_ context.Context, prompt string) (string, error) {
	c.prompts = append(c.prompts, prompt)
	return "Self-attention is quadratic in sequence length [1]. Linear approximations exist [2].", nil
}

type recordingSender struct{ msgs []notify.Message }

func (s *recordingSender) Send(_ context.Context, msg notify.Message) (string, error) {
	s.msgs = append(s.msgs, msg)
	return fmt.Sprintf("email-%d", len(s.msgs)), nil
}

type harness struct {
	engine    *Engine
	store     *countingStore
	completer *citingCompleter
	sender    *recordingSender
}

func newHarness(arxivURL string) *harness {
	emb := embedding.NewHashEmbedder(embedding.DefaultDimensions)
	store := &countingStore{MemoryStore: vectorstore.NewMemoryStore()}
	completer := &citingCompleter{}
	sender := &recordingSender{}

	fetcher := fetch.NewArxivFetcher(types.FetchConfig{BaseURL: arxivURL})
	fetcher.MaxRetries = 1

	return &harness{
		engine: &Engine{
			Fetcher:     fetcher,
			Indexer:     index.New(emb, store, types.IndexConfig{}, nil),
			Retriever:   retrieve.New(emb, store, types.RetrieveConfig{}),
			Synthesizer: &synth.Synthesizer{Completer: completer, Model: "test"},
			Notifier:    notify.New(sender, types.EmailConfig{}),
			MaxResults:  5,
			TopK:        3,
		},
		store:     store,
		completer: completer,
		sender:    sender,
	}
}

func TestRun_EndToEnd(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "5", r.URL.Query().Get("max_results"))
		assert.Contains(t, r.URL.Query().Get("search_query"), "transformer attention")
		w.Write([]byte(arxivFeed()))
	}))
	defer srv.Close()

	h := newHarness(srv.URL)
	out, err := h.engine.Run(context.Background(), Request{
		Topic: "transformer attention",
		Query: "how does attention scale with sequence length",
		Email: "tester@example.com",
	})
	require.NoError(t, err)

	assert.Equal(t, 5, out.TotalPapers)
	n, _ := h.store.Count(context.Background())
	assert.Equal(t, 5, n)

	assert.Equal(t, 3, out.RelevantPapers)
	require.NotNil(t, out.Report)
	assert.NotEmpty(t, out.Report.Text)
	assert.Len(t, out.Report.Sources, 3)
	assert.NotEmpty(t, out.Report.Cited())

	assert.Equal(t, "email-1", out.DeliveryID)
	require.Len(t, h.sender.msgs, 1)
	assert.Equal(t, []string{"tester@example.com"}, h.sender.msgs[0].To)
	assert.Contains(t, h.completer.prompts[0], "how does attention scale with sequence length")
}

func TestRun_SearchUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	h := newHarness(url)
	_, err := h.engine.Run(context.Background(), Request{
		Query: "how does attention scale with sequence length",
		Email: "tester@example.com",
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrNetwork)

	var serr *types.StageError
	require.True(t, errors.As(err, &serr))
	assert.Equal(t, types.StageFetch, serr.Stage)

	assert.Zero(t, h.store.upserts)
	assert.Empty(t, h.sender.msgs)
}

func TestRun_LedgerObservesStages(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(arxivFeed()))
	}))
	defer srv.Close()

	ledger, err := runs.Open(types.RunsConfig{DBPath: filepath.Join(t.TempDir(), "runs.db")}, nil)
	require.NoError(t, err)
	defer ledger.Close()

	ctx := context.Background()
	run, err := ledger.Create(ctx, "how does attention scale with sequence length", "tester@example.com")
	require.NoError(t, err)

	h := newHarness(srv.URL)
	h.engine.Observer = ledger
	_, err = h.engine.Run(ctx, Request{Query: run.Query, Email: run.Email, RunID: run.ID})
	require.NoError(t, err)

	got, err := ledger.Get(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, types.RunSucceeded, got.Status)
	assert.Equal(t, 5, got.TotalPapers)
	require.NotNil(t, got.Report)
	assert.Equal(t, "email-1", got.DeliveryID)
}

type failingNotifier struct{}

func (failingNotifier) Notify(context.Context, *types.Report, string) (notify.Delivery, error) {
	return notify.Delivery{}, errors.New("smtp relay down")
}

func TestRun_UntypedErrorGetsStageKind(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(arxivFeed()))
	}))
	defer srv.Close()

	h := newHarness(srv.URL)
	h.engine.Notifier = failingNotifier{}
	_, err := h.engine.Run(context.Background(), Request{Query: "attention scaling", Email: "tester@example.com"})
	assert.ErrorIs(t, err, types.ErrDelivery)
	assert.Equal(t, "delivery_error", types.KindName(err))
}

func TestRequestValidate(t *testing.T) {
	tests := []struct {
		name    string
		req     Request
		wantErr bool
	}{
		{"ok", Request{Query: "  attention scaling laws  ", Email: " a@example.com "}, false},
		{"short query", Request{Query: "  short  ", Email: "a@example.com"}, true},
		{"bad email", Request{Query: "attention scaling laws", Email: "nope"}, true},
		{"missing email", Request{Query: "attention scaling laws"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := tt.req
			err := req.Validate(0)
			if tt.wantErr {
				assert.ErrorIs(t, err, types.ErrInvalidRequest)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "attention scaling laws", req.Query)
			assert.Equal(t, "a@example.com", req.Email)
		})
	}
}
