package translate

import "strings"

const (
	thinkingOpenTag  = "<thinking>"
	thinkingCloseTag = "</thinking>"
)

// ParseThinkingBlocks splits assistant text on <thinking>...</thinking> tags
// into thinking and text content blocks. Whitespace-only text segments
// between blocks are dropped. An unclosed opener degrades the whole remainder
// to a text block. With no tags the text passes through as a single block.
func ParseThinkingBlocks(text string) []ContentBlock {
	var blocks []ContentBlock
	remaining := text
	foundThinking := false

	for {
		startIdx := strings.Index(remaining, thinkingOpenTag)
		if startIdx < 0 {
			break
		}
		foundThinking = true

		if prefix := remaining[:startIdx]; strings.TrimSpace(prefix) != "" {
			blocks = append(blocks, TextBlock(prefix))
		}

		afterOpen := remaining[startIdx+len(thinkingOpenTag):]
		endIdx := strings.Index(afterOpen, thinkingCloseTag)
		if endIdx < 0 {
			// Unclosed tag, treat the rest as text.
			blocks = append(blocks, TextBlock(remaining))
			remaining = ""
			break
		}
		blocks = append(blocks, ThinkingBlock(afterOpen[:endIdx]))
		remaining = afterOpen[endIdx+len(thinkingCloseTag):]
	}

	if remaining != "" && foundThinking {
		blocks = append(blocks, TextBlock(remaining))
	}

	if !foundThinking {
		return []ContentBlock{TextBlock(text)}
	}
	return blocks
}

// ThinkingEvent kinds emitted by the streaming parser.
type ThinkingEventKind int

const (
	// ThinkingStart opens a new thinking content block.
	ThinkingStart ThinkingEventKind = iota
	// ThinkingDelta carries thinking content.
	ThinkingDelta
	// ThinkingEnd closes the thinking content block.
	ThinkingEnd
	// TextDelta carries regular text content.
	TextDelta
)

type ThinkingEvent struct {
	Kind ThinkingEventKind
	Text string
}

// ThinkingParser extracts thinking blocks from streamed text incrementally.
//
// Text inside thinking tags comes out as thinking deltas, everything else as
// text deltas. The parser withholds up to one tag length of trailing input so
// a tag split across chunk boundaries is never emitted as literal text.
type ThinkingParser struct {
	buffer     strings.Builder
	inThinking bool
}

func NewThinkingParser() *ThinkingParser {
	return &ThinkingParser{}
}

// Push appends a chunk and returns the events it releases.
func (p *ThinkingParser) Push(chunk string) []ThinkingEvent {
	buf := p.buffer.String() + chunk
	var events []ThinkingEvent

	for {
		if p.inThinking {
			if endIdx := strings.Index(buf, thinkingCloseTag); endIdx >= 0 {
				if endIdx > 0 {
					events = append(events, ThinkingEvent{Kind: ThinkingDelta, Text: buf[:endIdx]})
				}
				events = append(events, ThinkingEvent{Kind: ThinkingEnd})
				buf = buf[endIdx+len(thinkingCloseTag):]
				p.inThinking = false
				continue
			}
			// Keep a reserve in case the closing tag is split across chunks.
			reserve := min(len(thinkingCloseTag), len(buf))
			if len(buf) > reserve {
				events = append(events, ThinkingEvent{Kind: ThinkingDelta, Text: buf[:len(buf)-reserve]})
				buf = buf[len(buf)-reserve:]
			}
			break
		}

		if startIdx := strings.Index(buf, thinkingOpenTag); startIdx >= 0 {
			if startIdx > 0 {
				events = append(events, ThinkingEvent{Kind: TextDelta, Text: buf[:startIdx]})
			}
			events = append(events, ThinkingEvent{Kind: ThinkingStart})
			buf = buf[startIdx+len(thinkingOpenTag):]
			p.inThinking = true
			continue
		}
		// Keep a reserve in case the opening tag is split across chunks.
		reserve := min(len(thinkingOpenTag), len(buf))
		if len(buf) > reserve {
			events = append(events, ThinkingEvent{Kind: TextDelta, Text: buf[:len(buf)-reserve]})
			buf = buf[len(buf)-reserve:]
		}
		break
	}

	p.buffer.Reset()
	p.buffer.WriteString(buf)
	return events
}

// Finish flushes whatever remains in the buffer as one final delta. Call once
// when the stream is complete.
func (p *ThinkingParser) Finish() (ThinkingEvent, bool) {
	buf := p.buffer.String()
	if buf == "" {
		return ThinkingEvent{}, false
	}
	p.buffer.Reset()
	if p.inThinking {
		return ThinkingEvent{Kind: ThinkingDelta, Text: buf}, true
	}
	return ThinkingEvent{Kind: TextDelta, Text: buf}, true
}
