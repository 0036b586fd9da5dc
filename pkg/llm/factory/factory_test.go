package factory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"discoverycoach/pkg/llm"
)

func TestOllamaNeedsNoKey(t *testing.T) {
	f := New(Config{})

	client, err := f.NewClient(llm.ProviderOllama, "llama3.2:latest")
	require.NoError(t, err)
	assert.Equal(t, "llama3.2:latest", client.ModelName())
}

func TestHostedProvidersRequireKey(t *testing.T) {
	f := New(Config{})

	_, err := f.NewClient(llm.ProviderOpenAI, "gpt-4o-mini")
	assert.Error(t, err)

	_, err = f.NewClient(llm.ProviderAnthropic, "claude-sonnet-4-20250514")
	assert.Error(t, err)
}

func TestHostedProvidersWithKey(t *testing.T) {
	f := New(Config{OpenAIAPIKey: "sk-test", AnthropicAPIKey: "sk-ant-test"})

	openaiClient, err := f.NewClient(llm.ProviderOpenAI, "gpt-4o-mini")
	require.NoError(t, err)
	assert.Equal(t, "gpt-4o-mini", openaiClient.ModelName())

	anthropicClient, err := f.NewClient(llm.ProviderAnthropic, "claude-sonnet-4-20250514")
	require.NoError(t, err)
	assert.Equal(t, "claude-sonnet-4-20250514", anthropicClient.ModelName())
}

func TestUnknownProvider(t *testing.T) {
	f := New(Config{})
	_, err := f.NewClient("bedrock", "m")
	assert.Error(t, err)
}

func TestClientsAreCached(t *testing.T) {
	f := New(Config{})

	a, err := f.NewClient(llm.ProviderOllama, "llama3.2:latest")
	require.NoError(t, err)
	b, err := f.NewClient(llm.ProviderOllama, "llama3.2:latest")
	require.NoError(t, err)
	assert.Same(t, a, b, "same pair should reuse the cached client")

	c, err := f.NewClient(llm.ProviderOllama, "mistral:latest")
	require.NoError(t, err)
	assert.NotSame(t, a, c, "different models must not share a client")
}

func TestMiddlewareApplied(t *testing.T) {
	var calls int
	mw := func(next llm.Client) llm.Client {
		return llm.WrapClient(func(ctx context.Context, in llm.CompletionRequest) (llm.CompletionResponse, error) {
			calls++
			return llm.CompletionResponse{Content: "wrapped"}, nil
		}, next.ModelName)
	}

	f := New(Config{Middleware: []llm.Middleware{mw}})
	client, err := f.NewClient(llm.ProviderOllama, "llama3.2:latest")
	require.NoError(t, err)

	resp, err := client.Complete(context.Background(), llm.NewCompletionRequest(
		[]llm.CompletionMessage{llm.NewUserMessage("hi")}, 0.7))
	require.NoError(t, err)
	assert.Equal(t, "wrapped", resp.Content)
	assert.Equal(t, 1, calls)
}
