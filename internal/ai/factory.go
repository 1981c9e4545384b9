package ai

import (
	"errors"

	"solana-copybot/internal/analyzer"
)

// Supported provider names.
const (
	ProviderAnthropic = "anthropic"
	ProviderOpenAI    = "openai"
	ProviderDeepSeek  = "deepseek"
)

const deepseekBaseURL = "https://api.deepseek.com"

// Errors returned when building a generator from config.
var (
	ErrUnknownProvider = errors.New("unknown AI provider")
	ErrMissingAPIKey   = errors.New("AI provider requires an API key")
	ErrMissingModel    = errors.New("AI provider requires a model name")
)

// Config selects and parameterizes an AI provider.
type Config struct {
	Provider string
	APIKey   string
	Model    string
	BaseURL  string // optional endpoint override
}

// FromConfig builds a text generator for the configured provider.
// An empty provider returns (nil, nil): the engine then runs mirror-only.
func FromConfig(cfg Config) (analyzer.TextGenerator, error) {
	if cfg.Provider == "" {
		return nil, nil
	}
	if cfg.APIKey == "" {
		return nil, ErrMissingAPIKey
	}
	if cfg.Model == "" {
		return nil, ErrMissingModel
	}

	switch cfg.Provider {
	case ProviderAnthropic:
		var opts []AnthropicOption
		if cfg.BaseURL != "" {
			opts = append(opts, WithAnthropicBaseURL(cfg.BaseURL))
		}
		return NewAnthropicClient(cfg.APIKey, cfg.Model, opts...), nil

	case ProviderOpenAI:
		var opts []OpenAIOption
		if cfg.BaseURL != "" {
			opts = append(opts, WithOpenAIBaseURL(cfg.BaseURL))
		}
		return NewOpenAIClient(cfg.APIKey, cfg.Model, opts...), nil

	case ProviderDeepSeek:
		base := deepseekBaseURL
		if cfg.BaseURL != "" {
			base = cfg.BaseURL
		}
		return NewOpenAIClient(cfg.APIKey, cfg.Model, WithOpenAIBaseURL(base)), nil

	default:
		return nil, ErrUnknownProvider
	}
}
