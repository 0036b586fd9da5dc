// Package anthropic provides a Claude-backed implementation of the llm.Client
// interface.
package anthropic

import (
	"context"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"discoverycoach/pkg/llm"
	"discoverycoach/pkg/llm/llmerrors"
)

// Client wraps the Anthropic API client to implement llm.Client.
type Client struct {
	client anthropic.Client
	model  anthropic.Model
}

// NewClient creates a Claude client for the given API key and model.
func NewClient(apiKey, model string) llm.Client {
	return &Client{
		client: anthropic.NewClient(option.WithAPIKey(apiKey)),
		model:  anthropic.Model(model),
	}
}

// Complete implements the llm.Client interface.
//
// The Anthropic API takes system text as a top-level parameter and requires
// strict user/assistant alternation starting and ending with user, so the
// neutral message list is normalized before sending.
func (c *Client) Complete(ctx context.Context, in llm.CompletionRequest) (llm.CompletionResponse, error) {
	if err := in.Validate(); err != nil {
		return llm.CompletionResponse{}, llmerrors.Wrap(llmerrors.ErrorTypeBadPrompt, err, "invalid completion request")
	}

	systemPrompt, conversation, err := normalize(in.Messages)
	if err != nil {
		return llm.CompletionResponse{}, llmerrors.Wrap(llmerrors.ErrorTypeBadPrompt, err, "message normalization failed")
	}

	messages := make([]anthropic.MessageParam, 0, len(conversation))
	for i := range conversation {
		messages = append(messages, anthropic.MessageParam{
			Role:    anthropic.MessageParamRole(conversation[i].Role),
			Content: []anthropic.ContentBlockParamUnion{anthropic.NewTextBlock(conversation[i].Content)},
		})
	}

	params := anthropic.MessageNewParams{
		Model:       c.model,
		Messages:    messages,
		MaxTokens:   int64(in.MaxTokens),
		Temperature: anthropic.Float(float64(in.Temperature)),
	}
	if systemPrompt != "" {
		params.System = []anthropic.TextBlockParam{{Text: systemPrompt, Type: "text"}}
	}

	resp, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return llm.CompletionResponse{}, llmerrors.Classify(err)
	}

	if resp == nil || len(resp.Content) == 0 {
		return llm.CompletionResponse{}, llmerrors.New(llmerrors.ErrorTypeEmptyResponse,
			"received empty response from Claude API")
	}

	var text strings.Builder
	for i := range resp.Content {
		block := &resp.Content[i]
		if block.Type == "text" {
			text.WriteString(block.AsText().Text)
		}
	}

	return llm.CompletionResponse{
		Content:    text.String(),
		StopReason: string(resp.StopReason),
	}, nil
}

// ModelName returns the model identifier for this client.
func (c *Client) ModelName() string {
	return string(c.model)
}

// normalize extracts system text and merges consecutive same-role messages so
// the sequence strictly alternates and ends with a user message.
func normalize(messages []llm.CompletionMessage) (systemPrompt string, conversation []llm.CompletionMessage, err error) {
	var systemParts []string
	for i := range messages {
		msg := &messages[i]
		if msg.Role == llm.RoleSystem {
			systemParts = append(systemParts, msg.Content)
			continue
		}

		if n := len(conversation); n > 0 && conversation[n-1].Role == msg.Role {
			conversation[n-1].Content += "\n\n" + msg.Content
			continue
		}
		conversation = append(conversation, *msg)
	}

	if len(conversation) == 0 {
		return "", nil, llmerrors.New(llmerrors.ErrorTypeBadPrompt, "must have at least one non-system message")
	}

	// A leading assistant message has no user turn to respond to; fold it into
	// the history as context for the first user message.
	if conversation[0].Role == llm.RoleAssistant {
		conversation = append([]llm.CompletionMessage{llm.NewUserMessage("(continued conversation)")}, conversation...)
	}
	if conversation[len(conversation)-1].Role != llm.RoleUser {
		return "", nil, llmerrors.New(llmerrors.ErrorTypeBadPrompt, "conversation must end with a user message")
	}

	return strings.Join(systemParts, "\n\n"), conversation, nil
}
