package token

import (
	"fmt"

	"github.com/tiktoken-go/tokenizer"

	"github.com/tingly-dev/copilot-bridge/internal/translate"
)

// CountInputTokens approximates the input token count of a Messages request
// with tiktoken. O200kBase is close enough for every model Copilot serves;
// image blocks are not counted.
func CountInputTokens(req *translate.MessagesRequest) (int, error) {
	enc, err := tokenizer.Get(tokenizer.O200kBase)
	if err != nil {
		return 0, fmt.Errorf("failed to get tokenizer: %w", err)
	}

	countOrEstimate := func(text string) int {
		ids, _, err := enc.Encode(text)
		if err != nil {
			return len(text) / 4
		}
		return len(ids)
	}

	total := 0

	if req.System != nil {
		if req.System.IsText {
			total += countOrEstimate(req.System.Text)
		} else {
			for _, block := range req.System.Blocks {
				total += countOrEstimate(block.Text)
			}
		}
	}

	for _, msg := range req.Messages {
		total += countOrEstimate(msg.Role)

		if msg.Content.IsText {
			total += countOrEstimate(msg.Content.Text)
			continue
		}
		for _, block := range msg.Content.Blocks {
			switch block.Type {
			case translate.BlockTypeText:
				total += countOrEstimate(block.Text)
			case translate.BlockTypeThinking:
				total += countOrEstimate(block.Thinking)
			case translate.BlockTypeToolResult:
				total += countOrEstimate(block.Content)
			case translate.BlockTypeToolUse:
				total += countOrEstimate(block.Name)
				total += countOrEstimate(string(block.Input))
			}
		}
	}

	for _, tool := range req.Tools {
		total += countOrEstimate(tool.Name)
		total += countOrEstimate(tool.Description)
		total += countOrEstimate(string(tool.InputSchema))
	}

	// Overhead for the request format.
	total += 3

	return total, nil
}
