package translate

import (
	"strings"

	"github.com/tingly-dev/copilot-bridge/internal/copilot"
)

// TranslateRequest converts an Anthropic Messages request into an OpenAI
// chat completions request. The model field must already be resolved to the
// upstream name by the caller; the claude-4 family collapse runs here on top.
func TranslateRequest(req *MessagesRequest) *copilot.ChatCompletionsRequest {
	maxTokens := req.MaxTokens
	out := &copilot.ChatCompletionsRequest{
		Model:       NormalizeModelName(req.Model),
		Messages:    translateMessages(req.Messages, req.System),
		MaxTokens:   &maxTokens,
		Temperature: req.Temperature,
		TopP:        req.TopP,
		Stream:      req.Stream,
		Tools:       translateTools(req.Tools),
		ToolChoice:  translateToolChoice(req.ToolChoice),
	}
	if len(req.StopSequences) == 1 {
		out.Stop = copilot.StopSingle(req.StopSequences[0])
	} else if len(req.StopSequences) > 1 {
		out.Stop = copilot.StopList(req.StopSequences)
	}
	if req.Metadata != nil && req.Metadata.UserID != nil {
		out.User = *req.Metadata.UserID
	}
	return out
}

// NormalizeModelName collapses dated claude-4 variants to the family name the
// Copilot backend accepts: claude-sonnet-4-20250514 becomes claude-sonnet-4.
func NormalizeModelName(model string) string {
	if rest, ok := strings.CutPrefix(model, "claude-sonnet-4-"); ok && rest != "" {
		return "claude-sonnet-4"
	}
	if rest, ok := strings.CutPrefix(model, "claude-opus-4-"); ok && rest != "" {
		return "claude-opus-4"
	}
	return model
}

func translateMessages(messages []Message, system *SystemPrompt) []copilot.Message {
	var out []copilot.Message

	if system != nil {
		out = append(out, copilot.Message{
			Role:    "system",
			Content: copilot.TextContent(systemPromptToString(system)),
		})
	}

	for _, msg := range messages {
		switch msg.Role {
		case "user":
			out = append(out, translateUserMessage(msg.Content)...)
		case "assistant":
			out = append(out, translateAssistantMessage(msg.Content)...)
		}
	}

	return out
}

func systemPromptToString(sys *SystemPrompt) string {
	if sys.IsText {
		return sys.Text
	}
	texts := make([]string, 0, len(sys.Blocks))
	for _, b := range sys.Blocks {
		texts = append(texts, b.Text)
	}
	return strings.Join(texts, "\n\n")
}

func translateUserMessage(content MessageContent) []copilot.Message {
	if content.IsText {
		return []copilot.Message{{Role: "user", Content: copilot.TextContent(content.Text)}}
	}

	var out []copilot.Message

	// Tool results must come first.
	for _, block := range content.Blocks {
		if block.Type == BlockTypeToolResult {
			out = append(out, copilot.Message{
				Role:       "tool",
				Content:    copilot.TextContent(block.Content),
				ToolCallID: block.ToolUseID,
			})
		}
	}

	var other []ContentBlock
	hasImage := false
	for _, block := range content.Blocks {
		if block.Type == BlockTypeToolResult {
			continue
		}
		if block.Type == BlockTypeImage {
			hasImage = true
		}
		other = append(other, block)
	}
	if len(other) == 0 {
		return out
	}

	if hasImage {
		var parts []copilot.ContentPart
		for _, block := range other {
			switch block.Type {
			case BlockTypeText:
				parts = append(parts, copilot.ContentPart{Type: "text", Text: block.Text})
			case BlockTypeImage:
				parts = append(parts, copilot.ContentPart{
					Type: "image_url",
					ImageURL: &copilot.ImageURL{
						URL: "data:" + block.Source.MediaType + ";base64," + block.Source.Data,
					},
				})
			}
		}
		out = append(out, copilot.Message{Role: "user", Content: copilot.PartsContent(parts)})
	} else {
		var texts []string
		for _, block := range other {
			if block.Type == BlockTypeText {
				texts = append(texts, block.Text)
			}
		}
		out = append(out, copilot.Message{Role: "user", Content: copilot.TextContent(strings.Join(texts, "\n\n"))})
	}

	return out
}

func translateAssistantMessage(content MessageContent) []copilot.Message {
	if content.IsText {
		return []copilot.Message{{Role: "assistant", Content: copilot.TextContent(content.Text)}}
	}

	var texts []string
	var toolCalls []copilot.ToolCall
	for _, block := range content.Blocks {
		switch block.Type {
		case BlockTypeText:
			texts = append(texts, block.Text)
		case BlockTypeThinking:
			texts = append(texts, block.Thinking)
		case BlockTypeToolUse:
			args := string(block.Input)
			if args == "" {
				args = "{}"
			}
			toolCalls = append(toolCalls, copilot.ToolCall{
				ID:   block.ID,
				Type: "function",
				Function: copilot.ToolCallFunction{
					Name:      block.Name,
					Arguments: args,
				},
			})
		}
	}

	msg := copilot.Message{Role: "assistant", ToolCalls: toolCalls}
	if joined := strings.Join(texts, "\n\n"); joined != "" {
		msg.Content = copilot.TextContent(joined)
	}
	return []copilot.Message{msg}
}

func translateTools(tools []Tool) []copilot.Tool {
	if len(tools) == 0 {
		return nil
	}
	out := make([]copilot.Tool, 0, len(tools))
	for _, t := range tools {
		out = append(out, copilot.Tool{
			Type: "function",
			Function: copilot.FunctionDef{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  t.InputSchema,
			},
		})
	}
	return out
}

func translateToolChoice(tc *ToolChoice) *copilot.ToolChoice {
	if tc == nil {
		return nil
	}
	switch tc.Type {
	case "auto":
		return copilot.ToolChoiceMode("auto")
	case "any":
		return copilot.ToolChoiceMode("required")
	case "none":
		return copilot.ToolChoiceMode("none")
	case "tool":
		if tc.Name != "" {
			return copilot.ToolChoiceFunction(tc.Name)
		}
	}
	return nil
}

// HasVisionContent reports whether any user message carries an image block.
func HasVisionContent(req *MessagesRequest) bool {
	for _, msg := range req.Messages {
		if msg.Role != "user" || msg.Content.IsText {
			continue
		}
		for _, block := range msg.Content.Blocks {
			if block.Type == BlockTypeImage {
				return true
			}
		}
	}
	return false
}

// IsAgentCall reports whether the conversation already contains assistant
// turns, which marks it as agent-driven for the upstream x-initiator header.
func IsAgentCall(req *MessagesRequest) bool {
	for _, msg := range req.Messages {
		if msg.Role == "assistant" {
			return true
		}
	}
	return false
}
