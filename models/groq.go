// Package models provides CompletionClient implementations backed by
// LangChainGo providers.
//
// NewGroq is the standard constructor. Wrap adapts any llms.Model, which
// keeps the package usable with other OpenAI-compatible backends and with
// mocks in tests.
package models

import (
	"context"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/currentslabs/currents"
)

// GroqBaseURL is the Groq OpenAI-compatible chat completions endpoint.
const GroqBaseURL = "https://api.groq.com/openai/v1"

// Generation defaults applied to every call unless overridden.
const (
	DefaultTemperature = 0.7
	DefaultMaxTokens   = 1024
)

// Client adapts an llms.Model to the currents.CompletionClient interface.
// It maps transcript roles onto provider message types, normalizes token
// usage reported under different key names, and bridges LangChainGo's
// chunk callback to the loop's token callback.
type Client struct {
	model       llms.Model
	temperature float64
	maxTokens   int
}

var _ currents.CompletionClient = (*Client)(nil)

// Wrap creates a Client around an existing llms.Model with the default
// generation settings.
func Wrap(model llms.Model) *Client {
	return &Client{
		model:       model,
		temperature: DefaultTemperature,
		maxTokens:   DefaultMaxTokens,
	}
}

// NewGroq creates a Client backed by Groq's chat completions API.
//
// The key is a Groq API key from https://console.groq.com/keys. The model
// is a Groq catalog name, e.g. currents.DefaultModel. Extra options are
// passed through to the underlying OpenAI-compatible client.
func NewGroq(apiKey, model string, opts ...openai.Option) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("groq api key is required")
	}
	if model == "" {
		model = currents.DefaultModel
	}

	baseOpts := []openai.Option{
		openai.WithBaseURL(GroqBaseURL),
		openai.WithToken(apiKey),
		openai.WithModel(model),
	}
	allOpts := append(baseOpts, opts...)

	llm, err := openai.New(allOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create groq client: %w", err)
	}

	return Wrap(llm), nil
}

// WithTemperature sets the sampling temperature. Returns the same client
// for chaining.
func (c *Client) WithTemperature(temperature float64) *Client {
	c.temperature = temperature
	return c
}

// WithMaxTokens sets the completion token cap. Returns the same client
// for chaining.
func (c *Client) WithMaxTokens(maxTokens int) *Client {
	c.maxTokens = maxTokens
	return c
}

// Unwrap returns the underlying llms.Model.
func (c *Client) Unwrap() llms.Model {
	return c.model
}

// Complete implements currents.CompletionClient.
func (c *Client) Complete(ctx context.Context, messages []currents.Message) (*currents.Completion, error) {
	response, err := c.model.GenerateContent(ctx, convertMessages(messages), c.callOptions()...)
	if err != nil {
		return nil, err
	}
	return convertResponse(response), nil
}

// StreamComplete implements currents.CompletionClient. Chunks are
// forwarded to onToken as they arrive; returning an error from onToken
// aborts the request.
func (c *Client) StreamComplete(ctx context.Context, messages []currents.Message, onToken func(token string) error) (*currents.Completion, error) {
	var streamed strings.Builder
	opts := append(c.callOptions(), llms.WithStreamingFunc(func(ctx context.Context, chunk []byte) error {
		if len(chunk) == 0 {
			return nil
		}
		streamed.Write(chunk)
		return onToken(string(chunk))
	}))

	response, err := c.model.GenerateContent(ctx, convertMessages(messages), opts...)
	if err != nil {
		return nil, err
	}

	completion := convertResponse(response)
	if completion.Content == "" {
		// Some backends leave choices empty in streaming mode. The
		// accumulated chunks are the authoritative text in that case.
		completion.Content = streamed.String()
	}
	return completion, nil
}

func (c *Client) callOptions() []llms.CallOption {
	return []llms.CallOption{
		llms.WithTemperature(c.temperature),
		llms.WithMaxTokens(c.maxTokens),
	}
}

// convertMessages maps transcript messages onto provider messages. Tool
// results travel as human turns: the marker protocol folds them into the
// conversation instead of using provider-native tool messages.
func convertMessages(messages []currents.Message) []llms.MessageContent {
	converted := make([]llms.MessageContent, 0, len(messages))
	for _, message := range messages {
		converted = append(converted, llms.TextParts(roleFor(message.Role), message.Content))
	}
	return converted
}

func roleFor(role currents.Role) llms.ChatMessageType {
	switch role {
	case currents.RoleSystem:
		return llms.ChatMessageTypeSystem
	case currents.RoleAssistant:
		return llms.ChatMessageTypeAI
	default:
		return llms.ChatMessageTypeHuman
	}
}

// convertResponse normalizes a provider response: first choice content
// plus token usage when the backend reports it.
func convertResponse(response *llms.ContentResponse) *currents.Completion {
	completion := &currents.Completion{}
	if response == nil || len(response.Choices) == 0 {
		return completion
	}

	choice := response.Choices[0]
	completion.Content = choice.Content
	if choice.GenerationInfo != nil {
		completion.Info = &currents.GenerationInfo{
			InputTokens:  extractInputTokens(choice.GenerationInfo),
			OutputTokens: extractOutputTokens(choice.GenerationInfo),
		}
	}
	return completion
}

// extractInputTokens reads the prompt token count from generation info,
// trying the key names different OpenAI-compatible backends use.
func extractInputTokens(info map[string]any) int {
	if tokens := getIntFromMap(info, "PromptTokens"); tokens > 0 {
		return tokens
	}
	if tokens := getIntFromMap(info, "InputTokens"); tokens > 0 {
		return tokens
	}
	if tokens := getIntFromMap(info, "input_tokens"); tokens > 0 {
		return tokens
	}
	return 0
}

// extractOutputTokens reads the completion token count from generation
// info, trying the key names different OpenAI-compatible backends use.
func extractOutputTokens(info map[string]any) int {
	if tokens := getIntFromMap(info, "CompletionTokens"); tokens > 0 {
		return tokens
	}
	if tokens := getIntFromMap(info, "OutputTokens"); tokens > 0 {
		return tokens
	}
	if tokens := getIntFromMap(info, "output_tokens"); tokens > 0 {
		return tokens
	}
	return 0
}

// getIntFromMap extracts an integer value from a map, handling the
// numeric types providers are known to return.
func getIntFromMap(m map[string]any, key string) int {
	value, exists := m[key]
	if !exists {
		return 0
	}

	switch v := value.(type) {
	case int:
		return v
	case int32:
		return int(v)
	case int64:
		return int(v)
	case float64:
		return int(v)
	case float32:
		return int(v)
	default:
		return 0
	}
}
