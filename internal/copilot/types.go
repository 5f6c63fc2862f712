package copilot

import (
	"encoding/json"
	"fmt"
)

// OpenAI-style chat completions wire types, as spoken by the Copilot chat
// backend. Union-shaped fields (content, stop, tool_choice) get dedicated
// types with custom JSON round-tripping instead of interface{} blobs.

type ChatCompletionsRequest struct {
	Model            string      `json:"model"`
	Messages         []Message   `json:"messages"`
	MaxTokens        *int64      `json:"max_tokens,omitempty"`
	Temperature      *float64    `json:"temperature,omitempty"`
	TopP             *float64    `json:"top_p,omitempty"`
	Stop             *Stop       `json:"stop,omitempty"`
	Stream           *bool       `json:"stream,omitempty"`
	N                *int        `json:"n,omitempty"`
	FrequencyPenalty *float64    `json:"frequency_penalty,omitempty"`
	PresencePenalty  *float64    `json:"presence_penalty,omitempty"`
	Tools            []Tool      `json:"tools,omitempty"`
	ToolChoice       *ToolChoice `json:"tool_choice,omitempty"`
	User             string      `json:"user,omitempty"`
}

// Stop is either a single string or a list of strings on the wire.
type Stop struct {
	Values []string
	single bool
}

func StopSingle(s string) *Stop { return &Stop{Values: []string{s}, single: true} }
func StopList(s []string) *Stop { return &Stop{Values: s} }

func (s Stop) MarshalJSON() ([]byte, error) {
	if s.single && len(s.Values) == 1 {
		return json.Marshal(s.Values[0])
	}
	return json.Marshal(s.Values)
}

func (s *Stop) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var v string
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		s.Values = []string{v}
		s.single = true
		return nil
	}
	s.single = false
	return json.Unmarshal(data, &s.Values)
}

type Message struct {
	Role       string     `json:"role"`
	Content    *Content   `json:"content,omitempty"`
	Name       string     `json:"name,omitempty"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
}

// Content is either a plain string or a list of typed parts on the wire.
// Exactly one of Text/Parts is meaningful; IsText distinguishes an empty
// string from an empty part list.
type Content struct {
	Text   string
	Parts  []ContentPart
	IsText bool
}

func TextContent(s string) *Content         { return &Content{Text: s, IsText: true} }
func PartsContent(p []ContentPart) *Content { return &Content{Parts: p} }

func (c Content) MarshalJSON() ([]byte, error) {
	if c.IsText {
		return json.Marshal(c.Text)
	}
	return json.Marshal(c.Parts)
}

func (c *Content) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		c.IsText = true
		return json.Unmarshal(data, &c.Text)
	}
	c.IsText = false
	return json.Unmarshal(data, &c.Parts)
}

type ContentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *ImageURL `json:"image_url,omitempty"`
}

type ImageURL struct {
	URL    string `json:"url"`
	Detail string `json:"detail,omitempty"`
}

type Tool struct {
	Type     string      `json:"type"`
	Function FunctionDef `json:"function"`
}

type FunctionDef struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Parameters  json.RawMessage `json:"parameters"`
}

// ToolChoice is either a mode string ("auto", "required", "none") or a named
// function selector on the wire.
type ToolChoice struct {
	Mode  string
	Named *NamedToolChoice
}

func ToolChoiceMode(mode string) *ToolChoice { return &ToolChoice{Mode: mode} }

func ToolChoiceFunction(name string) *ToolChoice {
	return &ToolChoice{Named: &NamedToolChoice{
		Type:     "function",
		Function: NamedToolChoiceFunction{Name: name},
	}}
}

func (t ToolChoice) MarshalJSON() ([]byte, error) {
	if t.Named != nil {
		return json.Marshal(t.Named)
	}
	return json.Marshal(t.Mode)
}

func (t *ToolChoice) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		t.Named = nil
		return json.Unmarshal(data, &t.Mode)
	}
	t.Mode = ""
	t.Named = &NamedToolChoice{}
	return json.Unmarshal(data, t.Named)
}

type NamedToolChoice struct {
	Type     string                  `json:"type"`
	Function NamedToolChoiceFunction `json:"function"`
}

type NamedToolChoiceFunction struct {
	Name string `json:"name"`
}

type ToolCall struct {
	ID       string           `json:"id"`
	Type     string           `json:"type"`
	Function ToolCallFunction `json:"function"`
}

type ToolCallFunction struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// --- non-streaming response ---

type ChatCompletionResponse struct {
	ID                string   `json:"id"`
	Object            string   `json:"object"`
	Created           int64    `json:"created"`
	Model             string   `json:"model"`
	Choices           []Choice `json:"choices"`
	SystemFingerprint string   `json:"system_fingerprint,omitempty"`
	Usage             *Usage   `json:"usage,omitempty"`
}

type Choice struct {
	Index        int             `json:"index"`
	Message      ResponseMessage `json:"message"`
	FinishReason string          `json:"finish_reason"`
	Logprobs     json.RawMessage `json:"logprobs,omitempty"`
}

type ResponseMessage struct {
	Role      string     `json:"role"`
	Content   *string    `json:"content"`
	ToolCalls []ToolCall `json:"tool_calls,omitempty"`
}

type Usage struct {
	PromptTokens        int64                `json:"prompt_tokens"`
	CompletionTokens    int64                `json:"completion_tokens"`
	TotalTokens         int64                `json:"total_tokens"`
	PromptTokensDetails *PromptTokensDetails `json:"prompt_tokens_details,omitempty"`
}

type PromptTokensDetails struct {
	CachedTokens int64 `json:"cached_tokens"`
}

// --- streaming chunks ---

type ChatCompletionChunk struct {
	ID                string        `json:"id"`
	Object            string        `json:"object"`
	Created           int64         `json:"created"`
	Model             string        `json:"model"`
	Choices           []ChunkChoice `json:"choices"`
	SystemFingerprint string        `json:"system_fingerprint,omitempty"`
	Usage             *Usage        `json:"usage,omitempty"`
}

type ChunkChoice struct {
	Index        int             `json:"index"`
	Delta        Delta           `json:"delta"`
	FinishReason *string         `json:"finish_reason"`
	Logprobs     json.RawMessage `json:"logprobs,omitempty"`
}

type Delta struct {
	Content   *string         `json:"content,omitempty"`
	Role      string          `json:"role,omitempty"`
	ToolCalls []DeltaToolCall `json:"tool_calls,omitempty"`
}

type DeltaToolCall struct {
	Index    int            `json:"index"`
	ID       string         `json:"id,omitempty"`
	Type     string         `json:"type,omitempty"`
	Function *DeltaFunction `json:"function,omitempty"`
}

type DeltaFunction struct {
	Name      string `json:"name,omitempty"`
	Arguments string `json:"arguments,omitempty"`
}

// --- models ---

type ModelsResponse struct {
	Data   []Model `json:"data"`
	Object string  `json:"object"`
}

type Model struct {
	ID                 string             `json:"id"`
	Name               string             `json:"name"`
	Object             string             `json:"object"`
	Vendor             string             `json:"vendor"`
	Version            string             `json:"version"`
	ModelPickerEnabled bool               `json:"model_picker_enabled"`
	Preview            bool               `json:"preview"`
	Capabilities       *ModelCapabilities `json:"capabilities,omitempty"`
	Policy             json.RawMessage    `json:"policy,omitempty"`
}

type ModelCapabilities struct {
	Family    string          `json:"family"`
	Limits    *ModelLimits    `json:"limits,omitempty"`
	Object    string          `json:"object"`
	Supports  json.RawMessage `json:"supports,omitempty"`
	Tokenizer string          `json:"tokenizer,omitempty"`
	Type      string          `json:"type,omitempty"`
}

type ModelLimits struct {
	MaxContextWindowTokens int64 `json:"max_context_window_tokens,omitempty"`
	MaxOutputTokens        int64 `json:"max_output_tokens,omitempty"`
	MaxPromptTokens        int64 `json:"max_prompt_tokens,omitempty"`
}

// --- token exchange ---

type TokenResponse struct {
	Token     string `json:"token"`
	RefreshIn int64  `json:"refresh_in"`
	ExpiresAt int64  `json:"expires_at"`
}

// StatusError reports a non-2xx upstream response with its body.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Body)
}
