// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package vectorstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pdiddy/desk-researcher/internal/httputil"
	"github.com/pdiddy/desk-researcher/pkg/types"
)

// QdrantStore stores snippets in a Qdrant collection through the REST API.
type QdrantStore struct {
	Client     *http.Client
	BaseURL    string
	APIKey     string
	Collection string
	MaxRetries int
}

// NewQdrantStore builds a store from cfg. A bare host such as
// "xyz.cloud.qdrant.io" is treated as https.
func NewQdrantStore(cfg types.StoreConfig) *QdrantStore {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	collection := cfg.Collection
	if collection == "" {
		collection = DefaultCollection
	}
	return &QdrantStore{
		Client:     &http.Client{Timeout: timeout},
		BaseURL:    NormalizeURL(cfg.URL),
		APIKey:     cfg.APIKey,
		Collection: collection,
	}
}

// NormalizeURL adds an https scheme to bare hosts and drops trailing slashes.
func NormalizeURL(raw string) string {
	raw = strings.TrimRight(strings.TrimSpace(raw), "/")
	if raw != "" && !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	return raw
}

// Qdrant REST payloads.

type qdrantVectorParams struct {
	Size     int    `json:"size"`
	Distance string `json:"distance"`
}

type qdrantCollectionInfo struct {
	Result struct {
		PointsCount int `json:"points_count"`
		Config      struct {
			Params struct {
				Vectors qdrantVectorParams `json:"vectors"`
			} `json:"params"`
		} `json:"config"`
	} `json:"result"`
}

type qdrantPoint struct {
	ID      string         `json:"id"`
	Vector  []float32      `json:"vector"`
	Payload map[string]any `json:"payload"`
}

type qdrantScoredPoint struct {
	ID      string        `json:"id"`
	Score   float64       `json:"score"`
	Payload qdrantPayload `json:"payload"`
}

type qdrantPayload struct {
	PaperID   string `json:"paper_id"`
	Index     int    `json:"index"`
	Text      string `json:"text"`
	Title     string `json:"title"`
	URL       string `json:"url"`
	Source    string `json:"source"`
	Published string `json:"published"`
}

type qdrantCondition struct {
	Key   string         `json:"key"`
	Match map[string]any `json:"match,omitempty"`
	Range map[string]any `json:"range,omitempty"`
}

type qdrantFilter struct {
	Must []qdrantCondition `json:"must"`
}

// EnsureCollection creates the collection (cosine distance) and a keyword
// payload index on paper_id when missing.
func (s *QdrantStore) EnsureCollection(ctx context.Context, dims int) error {
	var info qdrantCollectionInfo
	err := s.do(ctx, http.MethodGet, s.collectionPath(""), nil, &info)
	if err == nil {
		if got := info.Result.Config.Params.Vectors.Size; got != 0 && got != dims {
			return fmt.Errorf("%w: collection %s has %d, embedder produces %d", ErrDimensionMismatch, s.Collection, got, dims)
		}
		return nil
	}
	if !httputil.IsStatus(err, http.StatusNotFound) {
		return fmt.Errorf("checking collection %s: %w", s.Collection, err)
	}

	create := map[string]any{"vectors": qdrantVectorParams{Size: dims, Distance: "Cosine"}}
	if err := s.do(ctx, http.MethodPut, s.collectionPath(""), create, nil); err != nil {
		return fmt.Errorf("creating collection %s: %w", s.Collection, err)
	}

	index := map[string]any{"field_name": "paper_id", "field_schema": "keyword"}
	if err := s.do(ctx, http.MethodPut, s.collectionPath("/index?wait=true"), index, nil); err != nil {
		return fmt.Errorf("creating paper_id index: %w", err)
	}
	return nil
}

// Upsert writes all records in one request and waits for the write to apply.
func (s *QdrantStore) Upsert(ctx context.Context, records []types.Snippet) error {
	if len(records) == 0 {
		return nil
	}
	points := make([]qdrantPoint, len(records))
	for i, r := range records {
		payload := map[string]any{
			"paper_id": r.PaperID,
			"index":    r.Index,
			"text":     r.Text,
			"title":    r.Title,
			"url":      r.URL,
			"source":   r.Source,
		}
		if !r.Published.IsZero() {
			payload["published"] = r.Published.UTC().Format(time.RFC3339)
			payload["published_ts"] = r.Published.Unix()
		}
		points[i] = qdrantPoint{ID: r.PointID, Vector: r.Vector, Payload: payload}
	}

	body := map[string]any{"points": points}
	if err := s.do(ctx, http.MethodPut, s.collectionPath("/points?wait=true"), body, nil); err != nil {
		return fmt.Errorf("upserting %d points: %w", len(points), err)
	}
	return nil
}

// Search runs a filtered nearest-neighbour query.
func (s *QdrantStore) Search(ctx context.Context, vector []float32, k int, filter types.Filter) ([]types.RetrievedPassage, error) {
	if k <= 0 {
		k = 10
	}
	body := map[string]any{
		"vector":       vector,
		"limit":        k,
		"with_payload": true,
	}
	if f := buildFilter(filter); f != nil {
		body["filter"] = f
	}

	var resp struct {
		Result []qdrantScoredPoint `json:"result"`
	}
	if err := s.do(ctx, http.MethodPost, s.collectionPath("/points/search"), body, &resp); err != nil {
		return nil, fmt.Errorf("searching %s: %w", s.Collection, err)
	}

	out := make([]types.RetrievedPassage, 0, len(resp.Result))
	for _, p := range resp.Result {
		sn := types.Snippet{
			PointID: p.ID,
			PaperID: p.Payload.PaperID,
			Index:   p.Payload.Index,
			Text:    p.Payload.Text,
			Title:   p.Payload.Title,
			URL:     p.Payload.URL,
			Source:  p.Payload.Source,
		}
		if t, err := time.Parse(time.RFC3339, p.Payload.Published); err == nil {
			sn.Published = t
		}
		out = append(out, types.RetrievedPassage{Snippet: sn, Score: p.Score})
	}
	return out, nil
}

// Count returns the exact number of points, or 0 if the collection is missing.
func (s *QdrantStore) Count(ctx context.Context) (int, error) {
	var resp struct {
		Result struct {
			Count int `json:"count"`
		} `json:"result"`
	}
	err := s.do(ctx, http.MethodPost, s.collectionPath("/points/count"), map[string]any{"exact": true}, &resp)
	if httputil.IsStatus(err, http.StatusNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("counting %s: %w", s.Collection, err)
	}
	return resp.Result.Count, nil
}

// Ping lists collections to verify connectivity and credentials.
func (s *QdrantStore) Ping(ctx context.Context) error {
	return s.do(ctx, http.MethodGet, "/collections", nil, nil)
}

// Close releases idle connections.
func (s *QdrantStore) Close() error {
	if s.Client != nil {
		s.Client.CloseIdleConnections()
	}
	return nil
}

func buildFilter(f types.Filter) *qdrantFilter {
	if f.IsEmpty() {
		return nil
	}
	var qf qdrantFilter
	if len(f.PaperIDs) > 0 {
		qf.Must = append(qf.Must, qdrantCondition{Key: "paper_id", Match: map[string]any{"any": f.PaperIDs}})
	}
	if !f.PublishedAfter.IsZero() {
		qf.Must = append(qf.Must, qdrantCondition{Key: "published_ts", Range: map[string]any{"gte": f.PublishedAfter.Unix()}})
	}
	return &qf
}

func (s *QdrantStore) collectionPath(suffix string) string {
	return "/collections/" + url.PathEscape(s.Collection) + suffix
}

// do sends a JSON request and decodes a JSON response into out when non-nil.
func (s *QdrantStore) do(ctx context.Context, method, path string, in, out any) error {
	var body []byte
	if in != nil {
		var err error
		if body, err = json.Marshal(in); err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, s.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if s.APIKey != "" {
		req.Header.Set("api-key", s.APIKey)
	}

	client := s.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := httputil.DoWithRetry(ctx, client, req, s.MaxRetries)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := httputil.CheckStatus("qdrant", resp); err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding qdrant response: %w", err)
	}
	return nil
}
