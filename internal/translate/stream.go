package translate

import (
	"github.com/tingly-dev/copilot-bridge/internal/copilot"
)

// TranslateChunk feeds one upstream chunk through the state machine and
// returns the Anthropic events to emit, in order. Events within a stream are
// strictly ordered; at most one content block is open at any point.
func TranslateChunk(chunk *copilot.ChatCompletionChunk, state *StreamState) []StreamEvent {
	var events []StreamEvent

	if len(chunk.Choices) == 0 {
		return events
	}

	choice := chunk.Choices[0]
	delta := choice.Delta

	if !state.messageStartSent {
		inputTokens, cacheRead := extractInputUsage(chunk)
		usage := Usage{InputTokens: inputTokens}
		if cacheRead > 0 {
			usage.CacheReadInputTokens = &cacheRead
		}
		events = append(events, MessageStartEvent{
			Type: EventTypeMessageStart,
			Message: MessageStartBody{
				ID:      chunk.ID,
				Type:    "message",
				Role:    "assistant",
				Content: []ContentBlock{},
				Model:   chunk.Model,
				Usage:   usage,
			},
		})
		state.messageStartSent = true
	}

	if delta.Content != nil {
		if state.parser != nil {
			for _, ev := range state.parser.Push(*delta.Content) {
				events = state.applyThinkingEvent(events, ev)
			}
		} else {
			events = state.appendTextDelta(events, *delta.Content)
		}
	}

	for _, toolCall := range delta.ToolCalls {
		// New tool call starting (has id and function name).
		if toolCall.ID != "" && toolCall.Function != nil && toolCall.Function.Name != "" {
			events = state.closeOpenBlock(events)

			state.toolCalls[toolCall.Index] = toolCallState{
				id:                  toolCall.ID,
				name:                toolCall.Function.Name,
				anthropicBlockIndex: state.contentBlockIndex,
			}
			events = append(events, ContentBlockStartEvent{
				Type:         EventTypeContentBlockStart,
				Index:        state.contentBlockIndex,
				ContentBlock: toolUseStartBlock(toolCall.ID, toolCall.Function.Name),
			})
			state.contentBlockOpen = true
		}

		// Arguments are forwarded verbatim, never parsed.
		if toolCall.Function != nil && toolCall.Function.Arguments != "" {
			if tc, ok := state.toolCalls[toolCall.Index]; ok {
				events = append(events, ContentBlockDeltaEvent{
					Type:  EventTypeContentBlockDelta,
					Index: tc.anthropicBlockIndex,
					Delta: ContentDelta{Type: DeltaTypeInputJSON, PartialJSON: toolCall.Function.Arguments},
				})
			}
		}
	}

	if choice.FinishReason != nil {
		// Drain the parser tail first so message_stop stays last.
		if state.parser != nil {
			if ev, ok := state.parser.Finish(); ok {
				events = state.applyThinkingEvent(events, ev)
			}
		}

		events = state.closeOpenBlockKeepIndex(events)

		inputTokens, cacheRead := extractInputUsage(chunk)
		var outputTokens int64
		if chunk.Usage != nil {
			outputTokens = chunk.Usage.CompletionTokens
		}
		usage := Usage{InputTokens: inputTokens, OutputTokens: outputTokens}
		if cacheRead > 0 {
			usage.CacheReadInputTokens = &cacheRead
		}

		events = append(events, MessageDeltaEvent{
			Type:  EventTypeMessageDelta,
			Delta: MessageDeltaBody{StopReason: mapStopReason(*choice.FinishReason)},
			Usage: &usage,
		})
		events = append(events, MessageStopEvent{Type: EventTypeMessageStop})
	}

	return events
}

// Finish flushes state when the upstream stream ends without a finish_reason
// chunk: any parser tail is emitted and the open block is closed.
func (s *StreamState) Finish() []StreamEvent {
	var events []StreamEvent
	if s.parser != nil {
		if ev, ok := s.parser.Finish(); ok {
			events = s.applyThinkingEvent(events, ev)
		}
	}
	return s.closeOpenBlockKeepIndex(events)
}

// appendTextDelta routes plain text into an open text block, closing a tool
// or thinking block first if one is open.
func (s *StreamState) appendTextDelta(events []StreamEvent, text string) []StreamEvent {
	if s.isToolBlockOpen() || s.thinkingBlockOpen {
		events = s.closeOpenBlock(events)
	}
	if !s.contentBlockOpen {
		events = append(events, ContentBlockStartEvent{
			Type:         EventTypeContentBlockStart,
			Index:        s.contentBlockIndex,
			ContentBlock: textStartBlock(),
		})
		s.contentBlockOpen = true
	}
	return append(events, ContentBlockDeltaEvent{
		Type:  EventTypeContentBlockDelta,
		Index: s.contentBlockIndex,
		Delta: ContentDelta{Type: DeltaTypeText, Text: text},
	})
}

func (s *StreamState) applyThinkingEvent(events []StreamEvent, ev ThinkingEvent) []StreamEvent {
	switch ev.Kind {
	case TextDelta:
		return s.appendTextDelta(events, ev.Text)
	case ThinkingStart:
		events = s.closeOpenBlock(events)
		events = append(events, ContentBlockStartEvent{
			Type:         EventTypeContentBlockStart,
			Index:        s.contentBlockIndex,
			ContentBlock: thinkingStartBlock(),
		})
		s.contentBlockOpen = true
		s.thinkingBlockOpen = true
		return events
	case ThinkingDelta:
		if !s.contentBlockOpen {
			events = append(events, ContentBlockStartEvent{
				Type:         EventTypeContentBlockStart,
				Index:        s.contentBlockIndex,
				ContentBlock: thinkingStartBlock(),
			})
			s.contentBlockOpen = true
			s.thinkingBlockOpen = true
		}
		return append(events, ContentBlockDeltaEvent{
			Type:  EventTypeContentBlockDelta,
			Index: s.contentBlockIndex,
			Delta: ContentDelta{Type: DeltaTypeThinking, Thinking: ev.Text},
		})
	case ThinkingEnd:
		return s.closeOpenBlock(events)
	}
	return events
}

// closeOpenBlock emits content_block_stop for the open block and advances the
// index for the next block.
func (s *StreamState) closeOpenBlock(events []StreamEvent) []StreamEvent {
	if !s.contentBlockOpen {
		return events
	}
	events = append(events, ContentBlockStopEvent{Type: EventTypeContentBlockStop, Index: s.contentBlockIndex})
	s.contentBlockIndex++
	s.contentBlockOpen = false
	s.thinkingBlockOpen = false
	return events
}

// closeOpenBlockKeepIndex closes the open block without advancing the index.
// Used at stream end where no further block follows.
func (s *StreamState) closeOpenBlockKeepIndex(events []StreamEvent) []StreamEvent {
	if !s.contentBlockOpen {
		return events
	}
	events = append(events, ContentBlockStopEvent{Type: EventTypeContentBlockStop, Index: s.contentBlockIndex})
	s.contentBlockOpen = false
	s.thinkingBlockOpen = false
	return events
}

func extractInputUsage(chunk *copilot.ChatCompletionChunk) (inputTokens, cacheRead int64) {
	if chunk.Usage == nil {
		return 0, 0
	}
	if chunk.Usage.PromptTokensDetails != nil {
		cacheRead = chunk.Usage.PromptTokensDetails.CachedTokens
	}
	inputTokens = chunk.Usage.PromptTokens - cacheRead
	if inputTokens < 0 {
		inputTokens = 0
	}
	return inputTokens, cacheRead
}
