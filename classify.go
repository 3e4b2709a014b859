package morphogen

import (
	"encoding/json"

	"github.com/tidwall/gjson"
)

// outcome is the result of classifying one decoded payload.
type outcome int

const (
	// outcomeIgnore drops the payload without affecting the stream:
	// unparseable fragments, keep-alive payloads, empty tokens, and
	// well-formed objects that match no known shape.
	outcomeIgnore outcome = iota

	// outcomeEmit surfaces the event to the caller.
	outcomeEmit

	// outcomeFail terminates the stream; the event carries the error.
	outcomeFail
)

// classify maps one payload string to at most one stream event.
//
// Rules are tried in order and the first match wins. The ordering
// matters: a full-response object can in principle also carry a choices
// array, and the backend never streams full responses incrementally, so
// the output/modality check runs before the token check.
func classify(payload string) (StreamEvent, outcome) {
	v := gjson.Parse(payload)
	if !v.IsObject() || !gjson.Valid(payload) {
		// Tolerate partial or garbled fragments rather than failing the
		// whole stream; transports occasionally deliver non-JSON
		// keep-alive payloads.
		return StreamEvent{}, outcomeIgnore
	}

	if v.Get("event").Str == "model_selected" {
		return StreamEvent{ModelSelection: &ModelSelected{
			ModelID:        v.Get("model").Str,
			ModelName:      v.Get("model_name").Str,
			FallbackUsed:   v.Get("fallback_used").Bool(),
			FallbackReason: v.Get("fallback_reason").Str,
		}}, outcomeEmit
	}

	if e := v.Get("error"); e.Exists() && e.Type != gjson.Null {
		return StreamEvent{Err: &StreamError{Detail: e.String()}}, outcomeFail
	}

	if v.Get("output").Exists() || v.Get("modality").Exists() {
		var resp GenerationResponse
		if err := json.Unmarshal([]byte(payload), &resp); err != nil {
			return StreamEvent{}, outcomeIgnore
		}
		return StreamEvent{Response: &resp}, outcomeEmit
	}

	if content := v.Get("choices.0.delta.content"); content.Type == gjson.String {
		if content.Str == "" {
			// An empty delta is a no-op, not an empty token.
			return StreamEvent{}, outcomeIgnore
		}
		return StreamEvent{Token: &TokenDelta{Text: content.Str}}, outcomeEmit
	}

	return StreamEvent{}, outcomeIgnore
}
