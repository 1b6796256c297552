// Package vectorstore is a minimal REST client to Qdrant, assuming
// cosine distance and creating the collection on first use.
package vectorstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Client talks to a Qdrant instance over its REST API.
type Client struct {
	baseURL    string
	apiKey     string
	collection string
	httpClient *http.Client
}

// Config configures the Qdrant client.
type Config struct {
	URL        string
	APIKey     string
	Collection string
	Timeout    time.Duration
}

func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL:    cfg.URL,
		apiKey:     cfg.APIKey,
		collection: cfg.Collection,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// EnsureCollection creates the collection if it does not exist. Qdrant
// answers 200 for an existing collection with the same schema.
func (c *Client) EnsureCollection(ctx context.Context, dimension int) error {
	if dimension <= 0 {
		return &IndexError{Op: "ensure collection", Err: fmt.Errorf("invalid dimension %d", dimension)}
	}
	body := map[string]any{
		"vectors": map[string]any{
			"size":     dimension,
			"distance": "Cosine",
		},
	}
	return c.putJSON(ctx, fmt.Sprintf("/collections/%s", c.collection), body, nil)
}

// Upsert writes points in one batch. Writes with the same id overwrite,
// so deterministic ids make re-ingestion idempotent.
func (c *Client) Upsert(ctx context.Context, ids []string, vectors [][]float32, payloads []Payload) error {
	if len(ids) != len(vectors) || len(ids) != len(payloads) {
		return &IndexError{
			Op:  "upsert",
			Err: fmt.Errorf("length mismatch: %d ids, %d vectors, %d payloads", len(ids), len(vectors), len(payloads)),
		}
	}
	if len(ids) == 0 {
		return nil
	}

	points := make([]map[string]any, len(ids))
	for i := range ids {
		points[i] = map[string]any{
			"id":      ids[i],
			"vector":  vectors[i],
			"payload": payloads[i],
		}
	}
	body := map[string]any{"points": points}
	return c.putJSON(ctx, fmt.Sprintf("/collections/%s/points?wait=true", c.collection), body, nil)
}

// Search returns the top-k nearest points, similarity-descending.
// A non-nil guideID restricts hits to that guide's points.
func (c *Client) Search(ctx context.Context, vector []float32, topK int, guideID *int) ([]ScoredPoint, error) {
	if topK <= 0 {
		topK = 5
	}
	req := map[string]any{
		"vector":       vector,
		"limit":        topK,
		"with_payload": true,
	}
	if guideID != nil {
		req["filter"] = map[string]any{
			"must": []map[string]any{
				{"key": "guide_id", "match": map[string]any{"value": *guideID}},
			},
		}
	}

	var resp struct {
		Result []struct {
			ID      json.RawMessage `json:"id"`
			Score   float64         `json:"score"`
			Payload json.RawMessage `json:"payload"`
		} `json:"result"`
	}
	if err := c.postJSON(ctx, fmt.Sprintf("/collections/%s/points/search", c.collection), req, &resp); err != nil {
		return nil, err
	}

	points := make([]ScoredPoint, 0, len(resp.Result))
	for _, r := range resp.Result {
		points = append(points, ScoredPoint{
			ID:      decodeID(r.ID),
			Score:   r.Score,
			Payload: decodePayload(r.Payload),
		})
	}
	return points, nil
}

// Count returns the number of stored points.
func (c *Client) Count(ctx context.Context) (int, error) {
	var resp struct {
		Result struct {
			PointsCount int `json:"points_count"`
		} `json:"result"`
	}
	if err := c.getJSON(ctx, fmt.Sprintf("/collections/%s", c.collection), &resp); err != nil {
		return 0, err
	}
	return resp.Result.PointsCount, nil
}

// Scroll pages through stored points without vectors. The returned
// offset is nil once the collection is exhausted.
func (c *Client) Scroll(ctx context.Context, offset json.RawMessage, limit int) ([]Point, json.RawMessage, error) {
	if limit <= 0 {
		limit = 256
	}
	req := map[string]any{
		"limit":        limit,
		"with_payload": true,
		"with_vector":  false,
	}
	if len(offset) > 0 {
		req["offset"] = offset
	}

	var resp struct {
		Result struct {
			Points []struct {
				ID      json.RawMessage `json:"id"`
				Payload json.RawMessage `json:"payload"`
			} `json:"points"`
			NextPageOffset json.RawMessage `json:"next_page_offset"`
		} `json:"result"`
	}
	if err := c.postJSON(ctx, fmt.Sprintf("/collections/%s/points/scroll", c.collection), req, &resp); err != nil {
		return nil, nil, err
	}

	points := make([]Point, 0, len(resp.Result.Points))
	for _, p := range resp.Result.Points {
		points = append(points, Point{
			ID:      decodeID(p.ID),
			Payload: decodePayload(p.Payload),
		})
	}

	next := resp.Result.NextPageOffset
	if string(next) == "null" {
		next = nil
	}
	return points, next, nil
}

func (c *Client) putJSON(ctx context.Context, path string, body, out any) error {
	return c.doJSON(ctx, http.MethodPut, path, body, out)
}

func (c *Client) postJSON(ctx context.Context, path string, body, out any) error {
	return c.doJSON(ctx, http.MethodPost, path, body, out)
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	return c.doJSON(ctx, http.MethodGet, path, nil, out)
}

func (c *Client) doJSON(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return &IndexError{Op: method + " " + path, Err: fmt.Errorf("marshal body: %w", err)}
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return &IndexError{Op: method + " " + path, Err: err}
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("api-key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &IndexError{Op: method + " " + path, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return &IndexError{
			Op:         method + " " + path,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("%s", string(respBody)),
		}
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return &IndexError{Op: method + " " + path, Err: fmt.Errorf("decode response: %w", err)}
		}
	}
	return nil
}

// decodeID renders a point id (Qdrant allows string or integer ids)
// as a string.
func decodeID(raw json.RawMessage) string {
	var s string
	if json.Unmarshal(raw, &s) == nil {
		return s
	}
	return string(bytes.TrimSpace(raw))
}

// Close releases idle connections.
func (c *Client) Close() {
	c.httpClient.CloseIdleConnections()
}
