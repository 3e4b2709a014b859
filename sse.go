package morphogen

import "strings"

// The wire format is a line-oriented subset of SSE: the only field this
// client interprets is the data line. Comment, id, and event lines (and
// the blank separators between events) carry nothing and are skipped.
const (
	dataPrefix   = "data: "
	doneSentinel = "[DONE]"
)

// lineBuffer reassembles complete lines from arbitrarily split transport
// chunks. It holds at most one unterminated trailing fragment between
// feeds, so a token split across chunks (even mid-way through a UTF-8
// multi-byte sequence) reassembles losslessly: splitting happens on raw
// bytes, after concatenation.
//
// A lineBuffer is owned by exactly one stream session and is not safe
// for concurrent use.
type lineBuffer struct {
	pending string
}

// feed appends chunk to the carried fragment and returns all complete,
// newline-terminated lines in order, without their terminators. The
// trailing unterminated fragment (possibly empty) is held for the next
// feed.
func (b *lineBuffer) feed(chunk string) []string {
	parts := strings.Split(b.pending+chunk, "\n")
	b.pending = parts[len(parts)-1]
	return parts[:len(parts)-1]
}

// rest returns the fragment still awaiting its line terminator.
func (b *lineBuffer) rest() string {
	return b.pending
}

// frameKind classifies a single stream line.
type frameKind int

const (
	// frameSkip is a line with no payload: blank separators, SSE
	// comments and keep-alives, or any field other than data.
	frameSkip frameKind = iota

	// framePayload is a data line carrying a payload to classify.
	framePayload

	// frameDone is the end-of-stream sentinel.
	frameDone
)

// decodeFrame decodes one reassembled line into its payload, if any.
// The payload is stripped of surrounding whitespace, which also absorbs
// the carriage return of CRLF-terminated streams.
func decodeFrame(line string) (string, frameKind) {
	if !strings.HasPrefix(line, dataPrefix) {
		return "", frameSkip
	}

	payload := strings.TrimSpace(strings.TrimPrefix(line, dataPrefix))
	if payload == doneSentinel {
		return "", frameDone
	}
	return payload, framePayload
}
