package translate

import "strings"

// SSEFramer reassembles SSE event data out of an upstream byte stream that
// arrives in arbitrary chunks. Events end at a blank line; \n\n is the normal
// terminator, \r\n\r\n is accepted. Partial trailing data stays buffered for
// the next feed.
type SSEFramer struct {
	buffer string
}

// Feed appends raw bytes from the upstream stream.
func (f *SSEFramer) Feed(data string) {
	f.buffer += data
}

// Next extracts the data payload of the next complete event, joining multiple
// data: lines with \n. Complete blocks without any data: line (comments,
// event-type-only frames) are skipped. Returns false when no complete event
// remains buffered.
func (f *SSEFramer) Next() (string, bool) {
	for {
		pos := strings.Index(f.buffer, "\n\n")
		width := 2
		if pos < 0 {
			pos = strings.Index(f.buffer, "\r\n\r\n")
			width = 4
		}
		if pos < 0 {
			return "", false
		}

		block := f.buffer[:pos]
		f.buffer = f.buffer[pos+width:]

		if data, ok := parseSSEData(block); ok {
			return data, true
		}
	}
}

func parseSSEData(block string) (string, bool) {
	var parts []string
	for _, line := range strings.Split(block, "\n") {
		line = strings.TrimLeft(line, " \t")
		line = strings.TrimSuffix(line, "\r")
		rest, ok := strings.CutPrefix(line, "data:")
		if !ok {
			continue
		}
		parts = append(parts, strings.TrimPrefix(rest, " "))
	}
	if len(parts) == 0 {
		return "", false
	}
	return strings.Join(parts, "\n"), true
}
