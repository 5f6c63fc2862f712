package translate

import (
	"encoding/json"

	"github.com/tingly-dev/copilot-bridge/internal/copilot"
)

// TranslateResponse converts a non-streaming OpenAI chat completion into an
// Anthropic message. Text blocks come before tool blocks. When
// emulateThinking is set, assistant text is split on thinking tags first.
func TranslateResponse(resp *copilot.ChatCompletionResponse, emulateThinking bool) *MessagesResponse {
	var textBlocks []ContentBlock
	var toolBlocks []ContentBlock
	var stopReason *StopReason

	for i, choice := range resp.Choices {
		if choice.Message.Content != nil && *choice.Message.Content != "" {
			if emulateThinking {
				textBlocks = append(textBlocks, ParseThinkingBlocks(*choice.Message.Content)...)
			} else {
				textBlocks = append(textBlocks, TextBlock(*choice.Message.Content))
			}
		}

		for _, tc := range choice.Message.ToolCalls {
			toolBlocks = append(toolBlocks, translateToolCall(tc))
		}

		if i == 0 && choice.FinishReason != "" {
			r := mapStopReason(choice.FinishReason)
			stopReason = &r
		}
		if choice.FinishReason == "tool_calls" {
			r := StopReasonToolUse
			stopReason = &r
		}
	}

	content := append(textBlocks, toolBlocks...)

	var inputTokens, outputTokens, cacheRead int64
	if resp.Usage != nil {
		if resp.Usage.PromptTokensDetails != nil {
			cacheRead = resp.Usage.PromptTokensDetails.CachedTokens
		}
		inputTokens = resp.Usage.PromptTokens - cacheRead
		if inputTokens < 0 {
			inputTokens = 0
		}
		outputTokens = resp.Usage.CompletionTokens
	}

	usage := Usage{InputTokens: inputTokens, OutputTokens: outputTokens}
	if cacheRead > 0 {
		usage.CacheReadInputTokens = &cacheRead
	}

	return &MessagesResponse{
		ID:         resp.ID,
		Type:       "message",
		Role:       "assistant",
		Model:      resp.Model,
		Content:    content,
		StopReason: stopReason,
		Usage:      usage,
	}
}

func translateToolCall(tc copilot.ToolCall) ContentBlock {
	input := json.RawMessage(tc.Function.Arguments)
	if !json.Valid(input) {
		input = json.RawMessage("{}")
	}
	return ToolUseBlock(tc.ID, tc.Function.Name, input)
}

func mapStopReason(reason string) StopReason {
	switch reason {
	case "stop":
		return StopReasonEndTurn
	case "length":
		return StopReasonMaxTokens
	case "tool_calls":
		return StopReasonToolUse
	case "content_filter":
		return StopReasonEndTurn
	default:
		return StopReasonEndTurn
	}
}
