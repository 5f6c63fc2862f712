package translate

import (
	"encoding/json"
)

// Anthropic Messages wire types. Union-shaped fields (message content, system
// prompt) accept both the string and block-array forms on input. Content
// blocks are a closed set discriminated by "type"; one struct with variant
// fields keeps the JSON handling flat.

type MessagesRequest struct {
	Model         string          `json:"model"`
	Messages      []Message       `json:"messages"`
	MaxTokens     int64           `json:"max_tokens"`
	System        *SystemPrompt   `json:"system,omitempty"`
	Metadata      *Metadata       `json:"metadata,omitempty"`
	StopSequences []string        `json:"stop_sequences,omitempty"`
	Stream        *bool           `json:"stream,omitempty"`
	Temperature   *float64        `json:"temperature,omitempty"`
	TopP          *float64        `json:"top_p,omitempty"`
	TopK          *int64          `json:"top_k,omitempty"`
	Tools         []Tool          `json:"tools,omitempty"`
	ToolChoice    *ToolChoice     `json:"tool_choice,omitempty"`
	Thinking      *ThinkingConfig `json:"thinking,omitempty"`
	ServiceTier   string          `json:"service_tier,omitempty"`
}

type Metadata struct {
	UserID *string `json:"user_id,omitempty"`
}

type ThinkingConfig struct {
	Type         string `json:"type"`
	BudgetTokens *int64 `json:"budget_tokens,omitempty"`
}

type Message struct {
	Role    string         `json:"role"`
	Content MessageContent `json:"content"`
}

// MessageContent is either a plain string or a block list on the wire.
type MessageContent struct {
	Text   string
	Blocks []ContentBlock
	IsText bool
}

func TextMessageContent(s string) MessageContent {
	return MessageContent{Text: s, IsText: true}
}

func BlocksMessageContent(blocks []ContentBlock) MessageContent {
	return MessageContent{Blocks: blocks}
}

func (c MessageContent) MarshalJSON() ([]byte, error) {
	if c.IsText {
		return json.Marshal(c.Text)
	}
	return json.Marshal(c.Blocks)
}

func (c *MessageContent) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		c.IsText = true
		return json.Unmarshal(data, &c.Text)
	}
	c.IsText = false
	return json.Unmarshal(data, &c.Blocks)
}

// SystemPrompt is either a plain string or a list of text blocks.
type SystemPrompt struct {
	Text   string
	Blocks []ContentBlock
	IsText bool
}

func (s SystemPrompt) MarshalJSON() ([]byte, error) {
	if s.IsText {
		return json.Marshal(s.Text)
	}
	return json.Marshal(s.Blocks)
}

func (s *SystemPrompt) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		s.IsText = true
		return json.Unmarshal(data, &s.Text)
	}
	s.IsText = false
	return json.Unmarshal(data, &s.Blocks)
}

// Block type discriminators.
const (
	BlockTypeText       = "text"
	BlockTypeImage      = "image"
	BlockTypeToolResult = "tool_result"
	BlockTypeToolUse    = "tool_use"
	BlockTypeThinking   = "thinking"
)

// ContentBlock covers every block variant: text, image, tool_result on the
// user side; text, tool_use, thinking on the assistant side.
type ContentBlock struct {
	Type string `json:"type"`

	Text string `json:"text,omitempty"`

	Source *ImageSource `json:"source,omitempty"`

	ToolUseID string `json:"tool_use_id,omitempty"`
	Content   string `json:"content,omitempty"`
	IsError   *bool  `json:"is_error,omitempty"`

	ID    string          `json:"id,omitempty"`
	Name  string          `json:"name,omitempty"`
	Input json.RawMessage `json:"input,omitempty"`

	Thinking string `json:"thinking,omitempty"`
}

func TextBlock(text string) ContentBlock {
	return ContentBlock{Type: BlockTypeText, Text: text}
}

func ThinkingBlock(thinking string) ContentBlock {
	return ContentBlock{Type: BlockTypeThinking, Thinking: thinking}
}

func ToolUseBlock(id, name string, input json.RawMessage) ContentBlock {
	return ContentBlock{Type: BlockTypeToolUse, ID: id, Name: name, Input: input}
}

type ImageSource struct {
	Type      string `json:"type"`
	MediaType string `json:"media_type"`
	Data      string `json:"data"`
}

type Tool struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	InputSchema json.RawMessage `json:"input_schema"`
}

type ToolChoice struct {
	Type string `json:"type"`
	Name string `json:"name,omitempty"`
}

// --- non-streaming response ---

type MessagesResponse struct {
	ID           string         `json:"id"`
	Type         string         `json:"type"`
	Role         string         `json:"role"`
	Content      []ContentBlock `json:"content"`
	Model        string         `json:"model"`
	StopReason   *StopReason    `json:"stop_reason"`
	StopSequence *string        `json:"stop_sequence"`
	Usage        Usage          `json:"usage"`
}

type StopReason string

const (
	StopReasonEndTurn   StopReason = "end_turn"
	StopReasonMaxTokens StopReason = "max_tokens"
	StopReasonToolUse   StopReason = "tool_use"
)

type Usage struct {
	InputTokens              int64  `json:"input_tokens"`
	OutputTokens             int64  `json:"output_tokens"`
	CacheCreationInputTokens *int64 `json:"cache_creation_input_tokens,omitempty"`
	CacheReadInputTokens     *int64 `json:"cache_read_input_tokens,omitempty"`
}

// --- streaming events ---

const (
	EventTypeMessageStart      = "message_start"
	EventTypeContentBlockStart = "content_block_start"
	EventTypeContentBlockDelta = "content_block_delta"
	EventTypeContentBlockStop  = "content_block_stop"
	EventTypeMessageDelta      = "message_delta"
	EventTypeMessageStop       = "message_stop"
)

const (
	DeltaTypeText      = "text_delta"
	DeltaTypeInputJSON = "input_json_delta"
	DeltaTypeThinking  = "thinking_delta"
)

// StreamEvent is one Anthropic SSE event, already tagged for serialization.
type StreamEvent interface {
	EventType() string
}

type MessageStartEvent struct {
	Type    string           `json:"type"`
	Message MessageStartBody `json:"message"`
}

func (MessageStartEvent) EventType() string { return EventTypeMessageStart }

type MessageStartBody struct {
	ID           string         `json:"id"`
	Type         string         `json:"type"`
	Role         string         `json:"role"`
	Content      []ContentBlock `json:"content"`
	Model        string         `json:"model"`
	StopReason   *StopReason    `json:"stop_reason"`
	StopSequence *string        `json:"stop_sequence"`
	Usage        Usage          `json:"usage"`
}

type ContentBlockStartEvent struct {
	Type         string     `json:"type"`
	Index        int        `json:"index"`
	ContentBlock StartBlock `json:"content_block"`
}

func (ContentBlockStartEvent) EventType() string { return EventTypeContentBlockStart }

// StartBlock is the content_block payload of a content_block_start event.
// Unlike ContentBlock, the text and thinking fields serialize even when
// empty, since a block always starts with empty content.
type StartBlock struct {
	Type     string          `json:"type"`
	Text     *string         `json:"text,omitempty"`
	ID       string          `json:"id,omitempty"`
	Name     string          `json:"name,omitempty"`
	Input    json.RawMessage `json:"input,omitempty"`
	Thinking *string         `json:"thinking,omitempty"`
}

func textStartBlock() StartBlock {
	empty := ""
	return StartBlock{Type: BlockTypeText, Text: &empty}
}

func thinkingStartBlock() StartBlock {
	empty := ""
	return StartBlock{Type: BlockTypeThinking, Thinking: &empty}
}

func toolUseStartBlock(id, name string) StartBlock {
	return StartBlock{Type: BlockTypeToolUse, ID: id, Name: name, Input: json.RawMessage("{}")}
}

type ContentBlockDeltaEvent struct {
	Type  string       `json:"type"`
	Index int          `json:"index"`
	Delta ContentDelta `json:"delta"`
}

func (ContentBlockDeltaEvent) EventType() string { return EventTypeContentBlockDelta }

type ContentDelta struct {
	Type        string `json:"type"`
	Text        string `json:"text,omitempty"`
	PartialJSON string `json:"partial_json,omitempty"`
	Thinking    string `json:"thinking,omitempty"`
}

type ContentBlockStopEvent struct {
	Type  string `json:"type"`
	Index int    `json:"index"`
}

func (ContentBlockStopEvent) EventType() string { return EventTypeContentBlockStop }

type MessageDeltaEvent struct {
	Type  string           `json:"type"`
	Delta MessageDeltaBody `json:"delta"`
	Usage *Usage           `json:"usage,omitempty"`
}

func (MessageDeltaEvent) EventType() string { return EventTypeMessageDelta }

type MessageDeltaBody struct {
	StopReason   StopReason `json:"stop_reason,omitempty"`
	StopSequence *string    `json:"stop_sequence"`
}

type MessageStopEvent struct {
	Type string `json:"type"`
}

func (MessageStopEvent) EventType() string { return EventTypeMessageStop }

// --- stream state machine ---

// StreamState tracks block accounting for a single streaming response. Never
// shared across responses.
type StreamState struct {
	messageStartSent  bool
	contentBlockIndex int
	contentBlockOpen  bool
	thinkingBlockOpen bool
	toolCalls         map[int]toolCallState
	parser            *ThinkingParser
}

// toolCallState keys Anthropic block accounting off the upstream tool index,
// which handles providers that interleave tool-call deltas.
type toolCallState struct {
	id                  string
	name                string
	anthropicBlockIndex int
}

// NewStreamState builds stream state; when emulateThinking is set, text
// deltas are routed through a ThinkingParser.
func NewStreamState(emulateThinking bool) *StreamState {
	s := &StreamState{toolCalls: make(map[int]toolCallState)}
	if emulateThinking {
		s.parser = NewThinkingParser()
	}
	return s
}

// isToolBlockOpen reports whether the currently open block is a tool block.
func (s *StreamState) isToolBlockOpen() bool {
	if !s.contentBlockOpen {
		return false
	}
	for _, tc := range s.toolCalls {
		if tc.anthropicBlockIndex == s.contentBlockIndex {
			return true
		}
	}
	return false
}
