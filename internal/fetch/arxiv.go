// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package fetch

import (
	"context"
	"encoding/xml"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/pdiddy/desk-researcher/internal/httputil"
	"github.com/pdiddy/desk-researcher/pkg/types"
)

// DefaultArxivURL is the arXiv search endpoint.
const DefaultArxivURL = "https://export.arxiv.org/api/query"

const (
	defaultMaxResults    = 15
	defaultAbstractLimit = 700
)

// ArxivFetcher queries the arXiv Atom API.
type ArxivFetcher struct {
	Client        *http.Client
	BaseURL       string
	UserAgent     string
	MaxRetries    int
	AbstractLimit int
}

// NewArxivFetcher builds a fetcher from the fetch configuration.
func NewArxivFetcher(cfg types.FetchConfig) *ArxivFetcher {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &ArxivFetcher{
		Client:        &http.Client{Timeout: timeout},
		BaseURL:       cfg.BaseURL,
		UserAgent:     cfg.UserAgent,
		MaxRetries:    cfg.MaxRetries,
		AbstractLimit: cfg.AbstractLimit,
	}
}

// Fetch searches titles and abstracts for topic, ranked by relevance.
func (f *ArxivFetcher) Fetch(ctx context.Context, topic string, maxResults int) ([]types.Paper, error) {
	q := CleanTopic(topic)
	if q == "" {
		return nil, fmt.Errorf("%w: empty topic", types.ErrInvalidRequest)
	}
	if maxResults <= 0 {
		maxResults = defaultMaxResults
	}

	base := f.BaseURL
	if base == "" {
		base = DefaultArxivURL
	}
	params := url.Values{
		"search_query": {buildArxivQuery(q)},
		"start":        {"0"},
		"max_results":  {strconv.Itoa(maxResults)},
		"sortBy":       {"relevance"},
		"sortOrder":    {"descending"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, base+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	if f.UserAgent != "" {
		req.Header.Set("User-Agent", f.UserAgent)
	}

	resp, err := httputil.DoWithRetry(ctx, f.client(), req, f.MaxRetries)
	if err != nil {
		return nil, fmt.Errorf("%w: arXiv API request: %v", types.ErrNetwork, err)
	}
	defer resp.Body.Close()

	if err := httputil.CheckStatus("arXiv API", resp); err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrNetwork, err)
	}

	var feed arxivFeed
	if err := xml.NewDecoder(resp.Body).Decode(&feed); err != nil {
		return nil, fmt.Errorf("%w: parsing arXiv response: %v", types.ErrNetwork, err)
	}

	limit := f.AbstractLimit
	if limit == 0 {
		limit = defaultAbstractLimit
	}

	papers := make([]types.Paper, 0, len(feed.Entries))
	for _, entry := range feed.Entries {
		id := extractArxivID(entry.ID)
		if id == "" {
			continue
		}
		p := types.Paper{
			ID:       id,
			Title:    collapse(entry.Title),
			Abstract: truncateRunes(collapse(entry.Summary), limit),
			URL:      strings.TrimSpace(entry.ID),
			Source:   "arxiv",
		}
		for _, a := range entry.Authors {
			p.Authors = append(p.Authors, collapse(a.Name))
		}
		for _, c := range entry.Categories {
			if c.Term != "" {
				p.Categories = append(p.Categories, c.Term)
			}
		}
		if t, parseErr := time.Parse(time.RFC3339, strings.TrimSpace(entry.Published)); parseErr == nil {
			p.Published = t
		}
		papers = append(papers, p)
	}

	papers = dedupe(papers)
	if len(papers) == 0 {
		return nil, fmt.Errorf("%w: no arXiv papers for %q", types.ErrNotFound, q)
	}
	return papers, nil
}

func (f *ArxivFetcher) client() *http.Client {
	if f.Client != nil {
		return f.Client
	}
	return http.DefaultClient
}

// buildArxivQuery searches the phrase in titles or abstracts.
func buildArxivQuery(q string) string {
	return fmt.Sprintf("ti:%q OR abs:%q", q, q)
}

// arXiv Atom feed XML structures.
type arxivFeed struct {
	Entries []arxivEntry `xml:"entry"`
}

type arxivEntry struct {
	ID         string          `xml:"id"`
	Title      string          `xml:"title"`
	Summary    string          `xml:"summary"`
	Published  string          `xml:"published"`
	Authors    []arxivAuthor   `xml:"author"`
	Categories []arxivCategory `xml:"category"`
}

type arxivAuthor struct {
	Name string `xml:"name"`
}

type arxivCategory struct {
	Term string `xml:"term,attr"`
}

// extractArxivID pulls the arXiv ID from the entry's <id> URL
// (e.g. "http://arxiv.org/abs/2301.07041v1" → "2301.07041").
func extractArxivID(idURL string) string {
	const prefix = "/abs/"
	idURL = strings.TrimSpace(idURL)
	idx := strings.Index(idURL, prefix)
	if idx < 0 {
		return ""
	}
	id := idURL[idx+len(prefix):]

	// Strip version suffix (e.g. "v1", "v2").
	if vIdx := strings.LastIndex(id, "v"); vIdx > 0 {
		if _, err := strconv.Atoi(id[vIdx+1:]); err == nil {
			id = id[:vIdx]
		}
	}
	return id
}
