// Package factory builds configured provider clients behind the llm.Factory
// interface, with the middleware chain applied uniformly.
package factory

import (
	"fmt"
	"sync"

	"discoverycoach/pkg/llm"
	"discoverycoach/pkg/llm/anthropic"
	"discoverycoach/pkg/llm/ollama"
	"discoverycoach/pkg/llm/openai"
)

// Config carries the provider credentials and the middleware stack every
// built client is wrapped with.
type Config struct {
	OllamaBaseURL   string
	AnthropicAPIKey string
	OpenAIAPIKey    string
	Middleware      []llm.Middleware
}

// Factory resolves (provider, model) pairs to wrapped clients. Clients are
// cached per pair so middleware state (metrics, retry config) is shared
// across turns. Safe for concurrent use.
type Factory struct {
	cfg     Config
	mu      sync.Mutex
	clients map[string]llm.Client
}

// New creates a factory from the given configuration.
func New(cfg Config) *Factory {
	return &Factory{
		cfg:     cfg,
		clients: make(map[string]llm.Client),
	}
}

// NewClient implements llm.Factory.
func (f *Factory) NewClient(provider, model string) (llm.Client, error) {
	key := provider + "/" + model

	f.mu.Lock()
	defer f.mu.Unlock()

	if client, ok := f.clients[key]; ok {
		return client, nil
	}

	base, err := f.build(provider, model)
	if err != nil {
		return nil, err
	}

	client := llm.Chain(base, f.cfg.Middleware...)
	f.clients[key] = client
	return client, nil
}

func (f *Factory) build(provider, model string) (llm.Client, error) {
	switch provider {
	case llm.ProviderOllama:
		return ollama.NewClient(f.cfg.OllamaBaseURL, model), nil
	case llm.ProviderOpenAI:
		if f.cfg.OpenAIAPIKey == "" {
			return nil, fmt.Errorf("openai provider requires an API key")
		}
		return openai.NewClient(f.cfg.OpenAIAPIKey, model), nil
	case llm.ProviderAnthropic:
		if f.cfg.AnthropicAPIKey == "" {
			return nil, fmt.Errorf("anthropic provider requires an API key")
		}
		return anthropic.NewClient(f.cfg.AnthropicAPIKey, model), nil
	default:
		return nil, fmt.Errorf("unknown provider %q", provider)
	}
}
