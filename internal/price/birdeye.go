// Package price quotes token prices from the Birdeye public API.
package price

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// DefaultBaseURL is the Birdeye public API endpoint.
const DefaultBaseURL = "https://public-api.birdeye.so"

const defaultTimeout = 15 * time.Second

// ErrNoPrice is returned when Birdeye has no quote for a mint.
var ErrNoPrice = errors.New("no price for mint")

// BirdeyeClient fetches USD prices for Solana tokens.
type BirdeyeClient struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// BirdeyeOption configures BirdeyeClient.
type BirdeyeOption func(*BirdeyeClient)

// WithBaseURL overrides the API endpoint, mainly for tests.
func WithBaseURL(u string) BirdeyeOption {
	return func(c *BirdeyeClient) {
		c.baseURL = u
	}
}

// WithHTTPClient sets a custom http.Client.
func WithHTTPClient(client *http.Client) BirdeyeOption {
	return func(c *BirdeyeClient) {
		c.client = client
	}
}

// NewBirdeyeClient creates a Birdeye price client.
func NewBirdeyeClient(apiKey string, opts ...BirdeyeOption) *BirdeyeClient {
	c := &BirdeyeClient{
		baseURL: DefaultBaseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// PriceOf returns the USD price for one whole token of the mint.
func (c *BirdeyeClient) PriceOf(ctx context.Context, mint string) (float64, error) {
	endpoint := fmt.Sprintf("%s/defi/price?address=%s", c.baseURL, url.QueryEscape(mint))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return 0, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("X-API-KEY", c.apiKey)
	req.Header.Set("x-chain", "solana")
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode == http.StatusNotFound {
		return 0, ErrNoPrice
	}
	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(body))
	}

	var parsed struct {
		Success bool `json:"success"`
		Data    *struct {
			Value float64 `json:"value"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return 0, fmt.Errorf("unmarshal response: %w", err)
	}

	if !parsed.Success || parsed.Data == nil || parsed.Data.Value <= 0 {
		return 0, ErrNoPrice
	}

	return parsed.Data.Value, nil
}

// Available probes the API with a well-known mint. Used at startup to
// decide whether price-dependent features run this session.
func (c *BirdeyeClient) Available(ctx context.Context) bool {
	// WSOL always has a quote when the API is reachable and the key valid.
	const wsol = "So11111111111111111111111111111111111111112"
	_, err := c.PriceOf(ctx, wsol)
	return err == nil
}
