package translate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tingly-dev/copilot-bridge/internal/copilot"
)

func strptr(s string) *string { return &s }

func TestTranslateSimpleTextResponse(t *testing.T) {
	resp := &copilot.ChatCompletionResponse{
		ID:      "chatcmpl-123",
		Object:  "chat.completion",
		Created: 1234567890,
		Model:   "gpt-4",
		Choices: []copilot.Choice{{
			Index: 0,
			Message: copilot.ResponseMessage{
				Role:    "assistant",
				Content: strptr("Hello!"),
			},
			FinishReason: "stop",
		}},
		Usage: &copilot.Usage{PromptTokens: 10, CompletionTokens: 5, TotalTokens: 15},
	}

	result := TranslateResponse(resp, false)
	assert.Equal(t, "chatcmpl-123", result.ID)
	assert.Equal(t, "gpt-4", result.Model)
	require.Len(t, result.Content, 1)
	assert.Equal(t, BlockTypeText, result.Content[0].Type)
	assert.Equal(t, "Hello!", result.Content[0].Text)
	require.NotNil(t, result.StopReason)
	assert.Equal(t, StopReasonEndTurn, *result.StopReason)
	assert.Equal(t, int64(10), result.Usage.InputTokens)
	assert.Equal(t, int64(5), result.Usage.OutputTokens)
}

func TestTranslateToolCallResponse(t *testing.T) {
	resp := &copilot.ChatCompletionResponse{
		ID:    "chatcmpl-456",
		Model: "gpt-4",
		Choices: []copilot.Choice{{
			Index: 0,
			Message: copilot.ResponseMessage{
				Role:    "assistant",
				Content: strptr("Let me check that."),
				ToolCalls: []copilot.ToolCall{{
					ID:   "call_abc",
					Type: "function",
					Function: copilot.ToolCallFunction{
						Name:      "get_weather",
						Arguments: `{"location":"London"}`,
					},
				}},
			},
			FinishReason: "tool_calls",
		}},
		Usage: &copilot.Usage{PromptTokens: 20, CompletionTokens: 10, TotalTokens: 30},
	}

	result := TranslateResponse(resp, false)
	require.NotNil(t, result.StopReason)
	assert.Equal(t, StopReasonToolUse, *result.StopReason)
	require.Len(t, result.Content, 2)
	assert.Equal(t, BlockTypeText, result.Content[0].Type)
	assert.Equal(t, "Let me check that.", result.Content[0].Text)
	assert.Equal(t, BlockTypeToolUse, result.Content[1].Type)
	assert.Equal(t, "get_weather", result.Content[1].Name)
	assert.JSONEq(t, `{"location":"London"}`, string(result.Content[1].Input))
}

func TestTranslateMalformedToolArguments(t *testing.T) {
	resp := &copilot.ChatCompletionResponse{
		ID: "c", Model: "m",
		Choices: []copilot.Choice{{
			Message: copilot.ResponseMessage{
				Role: "assistant",
				ToolCalls: []copilot.ToolCall{{
					ID:       "call_x",
					Type:     "function",
					Function: copilot.ToolCallFunction{Name: "f", Arguments: `{"broken`},
				}},
			},
			FinishReason: "tool_calls",
		}},
	}

	result := TranslateResponse(resp, false)
	require.Len(t, result.Content, 1)
	assert.JSONEq(t, `{}`, string(result.Content[0].Input))
}

func TestTranslateWithCachedTokens(t *testing.T) {
	resp := &copilot.ChatCompletionResponse{
		ID: "chatcmpl-789", Model: "gpt-4",
		Choices: []copilot.Choice{{
			Message:      copilot.ResponseMessage{Role: "assistant", Content: strptr("Hi")},
			FinishReason: "stop",
		}},
		Usage: &copilot.Usage{
			PromptTokens:        100,
			CompletionTokens:    5,
			TotalTokens:         105,
			PromptTokensDetails: &copilot.PromptTokensDetails{CachedTokens: 40},
		},
	}

	result := TranslateResponse(resp, false)
	assert.Equal(t, int64(60), result.Usage.InputTokens)
	assert.Equal(t, int64(5), result.Usage.OutputTokens)
	require.NotNil(t, result.Usage.CacheReadInputTokens)
	assert.Equal(t, int64(40), *result.Usage.CacheReadInputTokens)
}

func TestTranslateStopReasonMapping(t *testing.T) {
	for reason, want := range map[string]StopReason{
		"stop":           StopReasonEndTurn,
		"length":         StopReasonMaxTokens,
		"tool_calls":     StopReasonToolUse,
		"content_filter": StopReasonEndTurn,
		"anything-else":  StopReasonEndTurn,
	} {
		assert.Equal(t, want, mapStopReason(reason), reason)
	}
}

func TestTranslateThinkingEmulation(t *testing.T) {
	resp := &copilot.ChatCompletionResponse{
		ID: "c", Model: "m",
		Choices: []copilot.Choice{{
			Message: copilot.ResponseMessage{
				Role:    "assistant",
				Content: strptr("<thinking>Let me think...</thinking>The answer is 42."),
			},
			FinishReason: "stop",
		}},
	}

	result := TranslateResponse(resp, true)
	require.Len(t, result.Content, 2)
	assert.Equal(t, BlockTypeThinking, result.Content[0].Type)
	assert.Equal(t, "Let me think...", result.Content[0].Thinking)
	assert.Equal(t, BlockTypeText, result.Content[1].Type)
	assert.Equal(t, "The answer is 42.", result.Content[1].Text)
}
