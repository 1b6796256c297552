package guide

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// DefaultPageSize is the catalog listing page size. A shorter page
// signals the end of the catalog.
const DefaultPageSize = 200

// Client talks to the guide content API (a Dozuki-style site).
type Client struct {
	baseURL    string
	appID      string
	httpClient *http.Client
}

func NewClient(baseURL, appID string) *Client {
	return &Client{
		baseURL: baseURL,
		appID:   appID,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Authenticate exchanges credentials for an API token.
func (c *Client) Authenticate(ctx context.Context, email, password string) (string, error) {
	body, err := json.Marshal(map[string]string{
		"email":    email,
		"password": password,
	})
	if err != nil {
		return "", fmt.Errorf("marshal credentials: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/2.0/user/token", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-App-Id", c.appID)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("authenticate: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", &AuthError{StatusCode: resp.StatusCode, Message: string(respBody)}
	}

	var result struct {
		AuthToken string `json:"authToken"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("decode token: %w", err)
	}
	if result.AuthToken == "" {
		return "", &AuthError{StatusCode: resp.StatusCode, Message: "empty token in response"}
	}
	return result.AuthToken, nil
}

// FetchGuide retrieves one full guide document.
func (c *Client) FetchGuide(ctx context.Context, guideID int, token string) (*Document, error) {
	u := fmt.Sprintf("%s/api/2.0/guides/%d", c.baseURL, guideID)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	c.setAuth(httpReq, token)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, &FetchError{Message: err.Error()}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, &NotFoundError{GuideID: guideID}
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, &AuthError{StatusCode: resp.StatusCode, Message: string(respBody)}
	case resp.StatusCode != http.StatusOK:
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, &FetchError{StatusCode: resp.StatusCode, Message: string(respBody)}
	}

	var doc Document
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode guide %d: %w", guideID, err)
	}
	return &doc, nil
}

// FetchGuideList retrieves one page of guide summaries.
func (c *Client) FetchGuideList(ctx context.Context, token string, offset, limit int) ([]Summary, error) {
	if limit <= 0 {
		limit = DefaultPageSize
	}
	u := fmt.Sprintf("%s/api/2.0/guides?offset=%d&limit=%d", c.baseURL, offset, limit)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	c.setAuth(httpReq, token)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, &FetchError{Message: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, &AuthError{StatusCode: resp.StatusCode, Message: string(respBody)}
	}
	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, &FetchError{StatusCode: resp.StatusCode, Message: string(respBody)}
	}

	// The API returns the summary array directly.
	var summaries []Summary
	if err := json.NewDecoder(resp.Body).Decode(&summaries); err != nil {
		return nil, fmt.Errorf("decode guide list: %w", err)
	}
	return summaries, nil
}

func (c *Client) setAuth(req *http.Request, token string) {
	req.Header.Set("X-App-Id", c.appID)
	if token != "" {
		req.Header.Set("Authorization", "api "+token)
	}
}

// Close releases idle connections.
func (c *Client) Close() {
	c.httpClient.CloseIdleConnections()
}
