package models

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"

	"github.com/currentslabs/currents"
)

// -----------------------------------------------------------------------
// Fake provider
// -----------------------------------------------------------------------

// fakeLLM is an llms.Model that replays queued responses. It materializes
// call options so tests can assert on temperature, max tokens, and drive
// the streaming callback the way a real backend would.
type fakeLLM struct {
	responses []*llms.ContentResponse
	errs      []error
	calls     int

	// stripChoices simulates backends that deliver text only through the
	// streaming callback and return an empty choice list.
	stripChoices bool

	capturedMessages [][]llms.MessageContent
	lastOpts         llms.CallOptions
}

func (f *fakeLLM) GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	f.capturedMessages = append(f.capturedMessages, messages)

	var opts llms.CallOptions
	for _, option := range options {
		option(&opts)
	}
	f.lastOpts = opts

	index := f.calls
	f.calls++

	if index < len(f.errs) && f.errs[index] != nil {
		return nil, f.errs[index]
	}

	response := &llms.ContentResponse{}
	if index < len(f.responses) {
		response = f.responses[index]
	}

	if opts.StreamingFunc != nil {
		for _, chunk := range streamChunks(response) {
			if err := opts.StreamingFunc(ctx, []byte(chunk)); err != nil {
				return nil, err
			}
		}
		if f.stripChoices {
			return &llms.ContentResponse{}, nil
		}
	}
	return response, nil
}

func (f *fakeLLM) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	response, err := f.GenerateContent(ctx, []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeHuman, prompt),
	}, options...)
	if err != nil {
		return "", err
	}
	if len(response.Choices) == 0 {
		return "", nil
	}
	return response.Choices[0].Content, nil
}

// streamChunks splits the first choice into word-sized chunks, mirroring
// how chat backends deliver deltas.
func streamChunks(response *llms.ContentResponse) []string {
	if len(response.Choices) == 0 || response.Choices[0].Content == "" {
		return nil
	}

	text := response.Choices[0].Content
	var chunks []string
	for len(text) > 0 {
		cut := strings.IndexByte(text, ' ')
		if cut < 0 {
			chunks = append(chunks, text)
			break
		}
		chunks = append(chunks, text[:cut+1])
		text = text[cut+1:]
	}
	return chunks
}

func textResponse(content string, info map[string]any) *llms.ContentResponse {
	return &llms.ContentResponse{
		Choices: []*llms.ContentChoice{
			{Content: content, GenerationInfo: info},
		},
	}
}

// -----------------------------------------------------------------------
// Tests
// -----------------------------------------------------------------------

func TestNewGroqRequiresAPIKey(t *testing.T) {
	client, err := NewGroq("", "llama-3.3-70b-versatile")

	require.Error(t, err)
	assert.Nil(t, client)
	assert.Contains(t, err.Error(), "api key")
}

func TestClientComplete(t *testing.T) {
	fake := &fakeLLM{responses: []*llms.ContentResponse{
		textResponse("Hello there.", map[string]any{
			"PromptTokens":     7,
			"CompletionTokens": 9,
		}),
	}}
	client := Wrap(fake)

	completion, err := client.Complete(context.Background(), []currents.Message{
		{Role: currents.RoleSystem, Content: "You are helpful."},
		{Role: currents.RoleUser, Content: "Hi!"},
	})

	require.NoError(t, err)
	assert.Equal(t, "Hello there.", completion.Content)
	require.NotNil(t, completion.Info)
	assert.Equal(t, 7, completion.Info.InputTokens)
	assert.Equal(t, 9, completion.Info.OutputTokens)
}

func TestClientMapsRoles(t *testing.T) {
	fake := &fakeLLM{responses: []*llms.ContentResponse{textResponse("ok", nil)}}
	client := Wrap(fake)

	_, err := client.Complete(context.Background(), []currents.Message{
		{Role: currents.RoleSystem, Content: "system text"},
		{Role: currents.RoleUser, Content: "user text"},
		{Role: currents.RoleAssistant, Content: "assistant text"},
		{Role: currents.RoleToolResult, Content: "tool result text"},
	})
	require.NoError(t, err)

	require.Len(t, fake.capturedMessages, 1)
	sent := fake.capturedMessages[0]
	require.Len(t, sent, 4)

	assert.Equal(t, llms.ChatMessageTypeSystem, sent[0].Role)
	assert.Equal(t, llms.ChatMessageTypeHuman, sent[1].Role)
	assert.Equal(t, llms.ChatMessageTypeAI, sent[2].Role)
	assert.Equal(t, llms.ChatMessageTypeHuman, sent[3].Role)

	part, ok := sent[3].Parts[0].(llms.TextContent)
	require.True(t, ok)
	assert.Equal(t, "tool result text", part.Text)
}

func TestClientDefaultCallOptions(t *testing.T) {
	fake := &fakeLLM{responses: []*llms.ContentResponse{textResponse("ok", nil)}}
	client := Wrap(fake)

	_, err := client.Complete(context.Background(), []currents.Message{
		{Role: currents.RoleUser, Content: "hi"},
	})
	require.NoError(t, err)

	assert.Equal(t, DefaultTemperature, fake.lastOpts.Temperature)
	assert.Equal(t, DefaultMaxTokens, fake.lastOpts.MaxTokens)
}

func TestClientOverridesCallOptions(t *testing.T) {
	fake := &fakeLLM{responses: []*llms.ContentResponse{textResponse("ok", nil)}}
	client := Wrap(fake).WithTemperature(0.2).WithMaxTokens(256)

	_, err := client.Complete(context.Background(), []currents.Message{
		{Role: currents.RoleUser, Content: "hi"},
	})
	require.NoError(t, err)

	assert.Equal(t, 0.2, fake.lastOpts.Temperature)
	assert.Equal(t, 256, fake.lastOpts.MaxTokens)
}

func TestClientStreamComplete(t *testing.T) {
	fake := &fakeLLM{responses: []*llms.ContentResponse{
		textResponse("The answer is 42.", map[string]any{
			"PromptTokens":     12,
			"CompletionTokens": 6,
		}),
	}}
	client := Wrap(fake)

	var tokens []string
	completion, err := client.StreamComplete(context.Background(), []currents.Message{
		{Role: currents.RoleUser, Content: "question"},
	}, func(token string) error {
		tokens = append(tokens, token)
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, "The answer is 42.", completion.Content)
	assert.Equal(t, "The answer is 42.", strings.Join(tokens, ""))
	assert.Greater(t, len(tokens), 1)
	require.NotNil(t, completion.Info)
	assert.Equal(t, 12, completion.Info.InputTokens)
	assert.Equal(t, 6, completion.Info.OutputTokens)
}

func TestClientStreamCallbackErrorAborts(t *testing.T) {
	fake := &fakeLLM{responses: []*llms.ContentResponse{
		textResponse("one two three four", nil),
	}}
	client := Wrap(fake)

	stop := errors.New("consumer gone")
	seen := 0
	_, err := client.StreamComplete(context.Background(), []currents.Message{
		{Role: currents.RoleUser, Content: "question"},
	}, func(token string) error {
		seen++
		if seen >= 2 {
			return stop
		}
		return nil
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, stop)
	assert.Equal(t, 2, seen)
}

func TestClientStreamFallsBackToAccumulatedText(t *testing.T) {
	// A backend that streams chunks but returns no choices: the joined
	// chunks are the completion text.
	fake := &fakeLLM{
		responses:    []*llms.ContentResponse{textResponse("streamed words only", nil)},
		stripChoices: true,
	}
	client := Wrap(fake)

	completion, err := client.StreamComplete(context.Background(), []currents.Message{
		{Role: currents.RoleUser, Content: "question"},
	}, func(string) error { return nil })

	require.NoError(t, err)
	assert.Equal(t, "streamed words only", completion.Content)
	assert.Nil(t, completion.Info)
}

func TestClientCompleteError(t *testing.T) {
	boom := errors.New("upstream 500")
	fake := &fakeLLM{errs: []error{boom}}
	client := Wrap(fake)

	completion, err := client.Complete(context.Background(), []currents.Message{
		{Role: currents.RoleUser, Content: "hi"},
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Nil(t, completion)
}

func TestClientEmptyResponse(t *testing.T) {
	fake := &fakeLLM{responses: []*llms.ContentResponse{{}}}
	client := Wrap(fake)

	completion, err := client.Complete(context.Background(), []currents.Message{
		{Role: currents.RoleUser, Content: "hi"},
	})

	require.NoError(t, err)
	assert.Equal(t, "", completion.Content)
	assert.Nil(t, completion.Info)
}

func TestTokenExtractionVariants(t *testing.T) {
	cases := []struct {
		name       string
		info       map[string]any
		wantInput  int
		wantOutput int
	}{
		{
			name:       "openai style",
			info:       map[string]any{"PromptTokens": 10, "CompletionTokens": 20},
			wantInput:  10,
			wantOutput: 20,
		},
		{
			name:       "anthropic style",
			info:       map[string]any{"InputTokens": 3, "OutputTokens": 4},
			wantInput:  3,
			wantOutput: 4,
		},
		{
			name:       "snake case",
			info:       map[string]any{"input_tokens": 5, "output_tokens": 6},
			wantInput:  5,
			wantOutput: 6,
		},
		{
			name:       "float values",
			info:       map[string]any{"PromptTokens": float64(7), "CompletionTokens": float64(8)},
			wantInput:  7,
			wantOutput: 8,
		},
		{
			name:       "unknown keys",
			info:       map[string]any{"something": 9},
			wantInput:  0,
			wantOutput: 0,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.wantInput, extractInputTokens(tc.info))
			assert.Equal(t, tc.wantOutput, extractOutputTokens(tc.info))
		})
	}
}
