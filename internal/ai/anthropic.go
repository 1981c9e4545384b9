// Package ai provides text-generation clients for the analysis prompt.
// All providers implement the same Generate contract; the engine never
// depends on a specific vendor.
package ai

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
	anthropicBaseURL = "https://api.anthropic.com"
	anthropicVersion = "2023-06-01"

	defaultMaxTokens = 1024
	defaultTimeout   = 60 * time.Second
)

// AnthropicClient generates text via the Anthropic messages API.
type AnthropicClient struct {
	baseURL   string
	apiKey    string
	model     string
	maxTokens int
	client    *http.Client
}

// AnthropicOption configures AnthropicClient.
type AnthropicOption func(*AnthropicClient)

// WithAnthropicBaseURL overrides the API endpoint, mainly for tests.
func WithAnthropicBaseURL(u string) AnthropicOption {
	return func(c *AnthropicClient) {
		c.baseURL = u
	}
}

// WithAnthropicHTTPClient sets a custom http.Client.
func WithAnthropicHTTPClient(client *http.Client) AnthropicOption {
	return func(c *AnthropicClient) {
		c.client = client
	}
}

// NewAnthropicClient creates an Anthropic text generator.
func NewAnthropicClient(apiKey, model string, opts ...AnthropicOption) *AnthropicClient {
	c := &AnthropicClient{
		baseURL:   anthropicBaseURL,
		apiKey:    apiKey,
		model:     model,
		maxTokens: defaultMaxTokens,
		client:    &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Generate sends the prompt as a single user message and returns the text.
func (c *AnthropicClient) Generate(ctx context.Context, prompt string) (string, error) {
	reqBody := map[string]interface{}{
		"model":      c.model,
		"max_tokens": c.maxTokens,
		"messages": []map[string]string{
			{"role": "user", "content": prompt},
		},
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/messages", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("anthropic-version", anthropicVersion)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(respBody))
	}

	var parsed struct {
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
	}
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", fmt.Errorf("unmarshal response: %w", err)
	}

	var sb strings.Builder
	for _, block := range parsed.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	if sb.Len() == 0 {
		return "", fmt.Errorf("empty completion")
	}
	return sb.String(), nil
}
