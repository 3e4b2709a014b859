package morphogen

// StreamEvent represents a single typed event decoded from a generation
// stream. Exactly one of Token, ModelSelection, Response, or Err is
// populated; no event carries mixed fields.
//
// Events arrive in strict wire order. When Err is set it is the final
// event: the channel closes immediately after and the underlying
// connection has already been torn down.
type StreamEvent struct {
	// Token contains an incremental text fragment for token-by-token
	// rendering. Only text-modality generations produce tokens.
	Token *TokenDelta

	// ModelSelection carries early metadata indicating which backend model
	// was chosen and whether a fallback substitution occurred. At most one
	// is sent per stream, before any tokens.
	ModelSelection *ModelSelected

	// Response contains a full, non-incremental result. Non-text
	// modalities are never token-streamed and always arrive this way.
	Response *GenerationResponse

	// Err is the terminal stream error, if any (nil on a clean end).
	// Caller cancellation never produces an Err event.
	Err error
}

// TokenDelta is one incremental text fragment.
type TokenDelta struct {
	Text string `json:"text"`
}

// ModelSelected reports the backend's model choice for a generation.
// FallbackUsed is true when the requested model was substituted; the
// reason is the backend's own wording (e.g. "quota_exceeded").
type ModelSelected struct {
	ModelID        string `json:"model,omitempty"`
	ModelName      string `json:"model_name,omitempty"`
	FallbackUsed   bool   `json:"fallback_used"`
	FallbackReason string `json:"fallback_reason,omitempty"`
}

// IsToken returns true if this event carries an incremental text fragment.
func (e StreamEvent) IsToken() bool {
	return e.Token != nil
}

// IsModelSelection returns true if this event carries model-selection metadata.
func (e StreamEvent) IsModelSelection() bool {
	return e.ModelSelection != nil
}

// IsResponse returns true if this event carries a complete generation response.
func (e StreamEvent) IsResponse() bool {
	return e.Response != nil
}
