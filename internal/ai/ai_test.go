package ai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestAnthropicClient_Generate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/messages" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if r.Header.Get("x-api-key") != "test-key" {
			t.Error("missing api key header")
		}
		if r.Header.Get("anthropic-version") == "" {
			t.Error("missing version header")
		}

		var req map[string]interface{}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req["model"] != "test-model" {
			t.Errorf("model = %v", req["model"])
		}

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"content":[{"type":"text","text":"BUY\nLooks strong\nConfidence: 85%"}]}`))
	}))
	defer server.Close()

	client := NewAnthropicClient("test-key", "test-model", WithAnthropicBaseURL(server.URL))

	text, err := client.Generate(context.Background(), "analyze this")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if text != "BUY\nLooks strong\nConfidence: 85%" {
		t.Errorf("text = %q", text)
	}
}

func TestAnthropicClient_HTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":{"type":"rate_limit_error"}}`))
	}))
	defer server.Close()

	client := NewAnthropicClient("test-key", "test-model", WithAnthropicBaseURL(server.URL))

	if _, err := client.Generate(context.Background(), "analyze"); err == nil {
		t.Fatal("expected error on 429")
	}
}

func TestOpenAIClient_Generate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer test-key" {
			t.Error("missing bearer token")
		}

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"choices":[{"message":{"content":"SELL\nMomentum fading\nConfidence: 90%"}}]}`))
	}))
	defer server.Close()

	client := NewOpenAIClient("test-key", "test-model", WithOpenAIBaseURL(server.URL))

	text, err := client.Generate(context.Background(), "analyze this")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if text != "SELL\nMomentum fading\nConfidence: 90%" {
		t.Errorf("text = %q", text)
	}
}

func TestOpenAIClient_EmptyCompletion(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"choices":[]}`))
	}))
	defer server.Close()

	client := NewOpenAIClient("test-key", "test-model", WithOpenAIBaseURL(server.URL))

	if _, err := client.Generate(context.Background(), "analyze"); err == nil {
		t.Fatal("expected error for empty choices")
	}
}

func TestFromConfig(t *testing.T) {
	gen, err := FromConfig(Config{})
	if err != nil || gen != nil {
		t.Errorf("empty provider: got %v, %v", gen, err)
	}

	_, err = FromConfig(Config{Provider: "anthropic"})
	if !errors.Is(err, ErrMissingAPIKey) {
		t.Errorf("expected ErrMissingAPIKey, got %v", err)
	}

	_, err = FromConfig(Config{Provider: "anthropic", APIKey: "k"})
	if !errors.Is(err, ErrMissingModel) {
		t.Errorf("expected ErrMissingModel, got %v", err)
	}

	_, err = FromConfig(Config{Provider: "petstore", APIKey: "k", Model: "m"})
	if !errors.Is(err, ErrUnknownProvider) {
		t.Errorf("expected ErrUnknownProvider, got %v", err)
	}

	gen, err = FromConfig(Config{Provider: "anthropic", APIKey: "k", Model: "m"})
	if err != nil || gen == nil {
		t.Errorf("anthropic: got %v, %v", gen, err)
	}
	if _, ok := gen.(*AnthropicClient); !ok {
		t.Errorf("expected *AnthropicClient, got %T", gen)
	}

	gen, err = FromConfig(Config{Provider: "deepseek", APIKey: "k", Model: "m"})
	if err != nil || gen == nil {
		t.Errorf("deepseek: got %v, %v", gen, err)
	}
	if c, ok := gen.(*OpenAIClient); !ok || c.baseURL != deepseekBaseURL {
		t.Errorf("deepseek client = %+v", gen)
	}
}
