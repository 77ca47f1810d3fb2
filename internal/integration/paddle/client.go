// Package paddle is a minimal client for the Paddle Billing API,
// covering the subscription-change and transaction-preview surface the
// account server needs. Amounts cross the wire as strings in minor
// currency units and are parsed to int64 before any arithmetic.
package paddle

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	defaultBaseURL = "https://api.paddle.com"
	sandboxBaseURL = "https://sandbox-api.paddle.com"
)

// APIError is a structured error returned by the Paddle API
type APIError struct {
	StatusCode int    `json:"-"`
	Code       string `json:"code"`
	Detail     string `json:"detail"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("paddle: %s (%s, status %d)", e.Detail, e.Code, e.StatusCode)
}

// Client talks to the Paddle Billing API
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient creates a Client. An empty baseURL selects production or
// sandbox by the API key prefix (sandbox keys observed with a "test_"
// prefix, mirroring the client-token convention).
func NewClient(apiKey, baseURL string) *Client {
	if baseURL == "" {
		if strings.HasPrefix(apiKey, "test_") {
			baseURL = sandboxBaseURL
		} else {
			baseURL = defaultBaseURL
		}
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// envelope is Paddle's standard response wrapper
type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *APIError       `json:"error"`
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return fmt.Errorf("failed to decode response (status %d): %w", resp.StatusCode, err)
	}

	if resp.StatusCode >= 400 {
		if env.Error != nil {
			env.Error.StatusCode = resp.StatusCode
			return env.Error
		}
		return &APIError{StatusCode: resp.StatusCode, Code: "unknown", Detail: "unexpected response"}
	}

	if out != nil {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("failed to decode response data: %w", err)
		}
	}
	return nil
}
