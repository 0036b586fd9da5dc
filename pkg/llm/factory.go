package llm

import (
	"context"
	"fmt"
)

// Provider identifiers accepted by factories.
const (
	ProviderOllama    = "ollama"
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
)

// Factory builds a ready-to-use client for a (provider, model) pair. The
// conversation engine receives a Factory as an injected capability and never
// constructs provider clients itself.
type Factory interface {
	NewClient(provider, model string) (Client, error)
}

// FactoryFunc adapts a plain function to the Factory interface.
type FactoryFunc func(provider, model string) (Client, error)

// NewClient implements Factory.
func (f FactoryFunc) NewClient(provider, model string) (Client, error) {
	return f(provider, model)
}

// ValidProvider reports whether the provider identifier is recognized.
func ValidProvider(provider string) bool {
	switch provider {
	case ProviderOllama, ProviderOpenAI, ProviderAnthropic:
		return true
	default:
		return false
	}
}

// StaticFactory returns a Factory that ignores the requested pair and always
// returns the given client. Useful for tests and single-provider deployments.
func StaticFactory(client Client) Factory {
	return FactoryFunc(func(_, _ string) (Client, error) {
		if client == nil {
			return nil, fmt.Errorf("no client configured")
		}
		return client, nil
	})
}

// Complete is a convenience helper that resolves a client from the factory and
// issues a single completion.
func Complete(ctx context.Context, factory Factory, provider, model string, req CompletionRequest) (CompletionResponse, error) {
	client, err := factory.NewClient(provider, model)
	if err != nil {
		return CompletionResponse{}, fmt.Errorf("resolving %s/%s client: %w", provider, model, err)
	}
	return client.Complete(ctx, req)
}
