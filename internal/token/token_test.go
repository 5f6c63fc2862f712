package token

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tingly-dev/copilot-bridge/internal/translate"
)

func TestCountInputTokensSimple(t *testing.T) {
	req := &translate.MessagesRequest{
		Model:     "claude-sonnet-4-5",
		MaxTokens: 100,
		Messages: []translate.Message{
			{Role: "user", Content: translate.TextMessageContent("Hello, how are you today?")},
		},
	}

	count, err := CountInputTokens(req)
	require.NoError(t, err)
	assert.Greater(t, count, 3)
}

func TestCountInputTokensGrowsWithContent(t *testing.T) {
	small := &translate.MessagesRequest{
		Messages: []translate.Message{
			{Role: "user", Content: translate.TextMessageContent("hi")},
		},
	}
	large := &translate.MessagesRequest{
		System: &translate.SystemPrompt{IsText: true, Text: "You are a helpful assistant with a very long system prompt."},
		Messages: []translate.Message{
			{Role: "user", Content: translate.TextMessageContent("hi")},
			{Role: "assistant", Content: translate.BlocksMessageContent([]translate.ContentBlock{
				translate.TextBlock("Some earlier answer with plenty of words in it."),
				translate.ThinkingBlock("Detailed reasoning that also costs tokens."),
			})},
		},
		Tools: []translate.Tool{{
			Name:        "get_weather",
			Description: "Look up the current weather for a location.",
			InputSchema: json.RawMessage(`{"type":"object","properties":{"location":{"type":"string"}}}`),
		}},
	}

	smallCount, err := CountInputTokens(small)
	require.NoError(t, err)
	largeCount, err := CountInputTokens(large)
	require.NoError(t, err)
	assert.Greater(t, largeCount, smallCount)
}

func TestCountInputTokensToolResult(t *testing.T) {
	req := &translate.MessagesRequest{
		Messages: []translate.Message{
			{Role: "user", Content: translate.BlocksMessageContent([]translate.ContentBlock{
				{Type: translate.BlockTypeToolResult, ToolUseID: "t1", Content: "the tool output text"},
			})},
		},
	}

	count, err := CountInputTokens(req)
	require.NoError(t, err)
	assert.Greater(t, count, 3)
}
