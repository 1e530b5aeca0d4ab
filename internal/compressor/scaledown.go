package compressor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const requestTimeout = 10 * time.Second

type compressPayload struct {
	Context []string `json:"context"`
	Prompt  string   `json:"prompt"`
}

type compressResponse struct {
	Content string `json:"content"`
}

// HTTPRemote calls a ScaleDown-style compression endpoint.
type HTTPRemote struct {
	url    string
	apiKey string
	client *http.Client
}

// NewHTTPRemote returns nil when either the URL or the key is missing, so the
// caller can pass the result straight to New.
func NewHTTPRemote(url, apiKey string, client *http.Client) Remote {
	if url == "" || apiKey == "" {
		return nil
	}
	if client == nil {
		client = &http.Client{Timeout: requestTimeout}
	}
	return &HTTPRemote{url: url, apiKey: apiKey, client: client}
}

func (r *HTTPRemote) Compress(ctx context.Context, items []string, instruction string) (string, error) {
	payloadBytes, err := json.Marshal(compressPayload{Context: items, Prompt: instruction})
	if err != nil {
		return "", fmt.Errorf("failed to marshal payload: %w", err)
	}

	reqCtx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, r.url, bytes.NewReader(payloadBytes))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", r.apiKey)

	resp, err := r.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("compressor returned non-200 status: %s, Body: %s", resp.Status, string(body))
	}

	var out compressResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}
	return out.Content, nil
}
