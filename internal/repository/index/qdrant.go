// Package index is a minimal Qdrant REST client for the resume collection.
package index

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/kailas-cloud/cvdex/internal/domain"
)

const distanceCosine = "Cosine"

// Config holds the Qdrant connection settings.
type Config struct {
	URL        string
	APIKey     string
	Collection string
	Dimensions int
	Timeout    time.Duration
}

// Client talks to a single Qdrant collection over its REST API.
// All vectors stored and queried share the configured dimension.
type Client struct {
	baseURL    string
	apiKey     string
	collection string
	dim        int
	http       *http.Client
}

// New creates a Qdrant client. No network calls are made here;
// call EnsureCollection at startup.
func New(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		baseURL:    cfg.URL,
		apiKey:     cfg.APIKey,
		collection: cfg.Collection,
		dim:        cfg.Dimensions,
		http:       &http.Client{Timeout: timeout},
	}
}

type collectionInfo struct {
	Result struct {
		Config struct {
			Params struct {
				Vectors struct {
					Size     int    `json:"size"`
					Distance string `json:"distance"`
				} `json:"vectors"`
			} `json:"params"`
		} `json:"config"`
	} `json:"result"`
}

// EnsureCollection creates the collection if absent and otherwise
// verifies that its dimension and distance metric match the pipeline
// configuration. An existing collection is never dropped or recreated;
// a mismatch returns domain.ErrSchemaMismatch so startup fails fast.
func (c *Client) EnsureCollection(ctx context.Context) error {
	status, body, err := c.do(ctx, http.MethodGet, c.collectionURL(), nil)
	if err != nil {
		return fmt.Errorf("%w: get collection: %w", domain.ErrIndexUnavailable, err)
	}

	switch status {
	case http.StatusOK:
		var info collectionInfo
		if err := json.Unmarshal(body, &info); err != nil {
			return fmt.Errorf("%w: parse collection info: %w", domain.ErrIndexUnavailable, err)
		}
		vectors := info.Result.Config.Params.Vectors
		if vectors.Size != c.dim || vectors.Distance != distanceCosine {
			return fmt.Errorf("%w: collection %s has size=%d distance=%s, want size=%d distance=%s",
				domain.ErrSchemaMismatch, c.collection,
				vectors.Size, vectors.Distance, c.dim, distanceCosine)
		}
		return nil
	case http.StatusNotFound:
		return c.createCollection(ctx)
	default:
		return fmt.Errorf("%w: get collection: status %d", domain.ErrIndexUnavailable, status)
	}
}

func (c *Client) createCollection(ctx context.Context) error {
	req := map[string]any{
		"vectors": map[string]any{
			"size":     c.dim,
			"distance": distanceCosine,
		},
	}
	status, _, err := c.do(ctx, http.MethodPut, c.collectionURL(), req)
	if err != nil {
		return fmt.Errorf("%w: create collection: %w", domain.ErrIndexUnavailable, err)
	}
	if status >= 300 {
		return fmt.Errorf("%w: create collection: status %d", domain.ErrIndexUnavailable, status)
	}
	return nil
}

// Upsert inserts or replaces a point by ID.
func (c *Client) Upsert(ctx context.Context, res domain.Resume) error {
	if len(res.Vector) != c.dim {
		return fmt.Errorf("%w: got %d, collection expects %d",
			domain.ErrVectorDimMismatch, len(res.Vector), c.dim)
	}
	req := map[string]any{
		"points": []map[string]any{{
			"id":     res.ID,
			"vector": res.Vector,
			"payload": map[string]any{
				"file_name": res.Filename,
				"text":      res.Text,
			},
		}},
	}
	status, _, err := c.do(ctx, http.MethodPut, c.collectionURL()+"/points?wait=true", req)
	if err != nil {
		return fmt.Errorf("%w: upsert point: %w", domain.ErrIndexUnavailable, err)
	}
	if status >= 300 {
		return fmt.Errorf("%w: upsert point: status %d", domain.ErrIndexUnavailable, status)
	}
	return nil
}

type searchResponse struct {
	Result []struct {
		ID      any            `json:"id"`
		Score   float64        `json:"score"`
		Payload map[string]any `json:"payload"`
	} `json:"result"`
}

// Search returns up to topK points ranked by descending cosine
// similarity. Tie order between equal scores is backend-defined.
func (c *Client) Search(ctx context.Context, vector []float32, topK int) ([]domain.Hit, error) {
	if len(vector) != c.dim {
		return nil, fmt.Errorf("%w: got %d, collection expects %d",
			domain.ErrVectorDimMismatch, len(vector), c.dim)
	}
	req := map[string]any{
		"vector":       vector,
		"limit":        topK,
		"with_payload": true,
	}
	status, body, err := c.do(ctx, http.MethodPost, c.collectionURL()+"/points/search", req)
	if err != nil {
		return nil, fmt.Errorf("%w: search: %w", domain.ErrIndexUnavailable, err)
	}
	if status >= 300 {
		return nil, fmt.Errorf("%w: search: status %d", domain.ErrIndexUnavailable, status)
	}

	var resp searchResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: parse search response: %w", domain.ErrIndexUnavailable, err)
	}

	hits := make([]domain.Hit, 0, len(resp.Result))
	for _, r := range resp.Result {
		hit := domain.Hit{ID: fmt.Sprintf("%v", r.ID), Score: r.Score}
		if v, ok := r.Payload["file_name"].(string); ok {
			hit.Filename = v
		}
		if v, ok := r.Payload["text"].(string); ok {
			hit.Text = v
		}
		hits = append(hits, hit)
	}
	return hits, nil
}

// HealthCheck verifies that the Qdrant API answers.
func (c *Client) HealthCheck(ctx context.Context) error {
	status, _, err := c.do(ctx, http.MethodGet, c.baseURL+"/collections", nil)
	if err != nil {
		return fmt.Errorf("vector index: %w", err)
	}
	if status != http.StatusOK {
		return fmt.Errorf("vector index: status %d", status)
	}
	return nil
}

func (c *Client) collectionURL() string {
	return fmt.Sprintf("%s/collections/%s", c.baseURL, c.collection)
}

func (c *Client) do(ctx context.Context, method, url string, body any) (int, []byte, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return 0, nil, fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return 0, nil, fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("api-key", c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("%s %s: %w", method, url, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("read response: %w", err)
	}
	return resp.StatusCode, data, nil
}
