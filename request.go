package morphogen

import "fmt"

// GenerateRequest contains the parameters for a generation request.
type GenerateRequest struct {
	// Prompt is the user's generation prompt.
	Prompt string `json:"prompt"`

	// Modality selects what kind of content to generate.
	Modality Modality `json:"modality"`

	// Model is the requested model identifier (e.g. "aurora-text-2").
	// Empty lets the backend choose; the choice (and any fallback
	// substitution) is surfaced via a ModelSelected stream event.
	Model string `json:"model,omitempty"`

	// SessionID attaches the generation to an existing chat session.
	SessionID string `json:"session_id,omitempty"`

	// Params contains optional generation parameters (sampling,
	// image dimensions, mesh budget, ...).
	Params *Params `json:"params,omitempty"`
}

// RegenerateRequest asks the backend to re-run generation for an
// existing message in a session, optionally on a different model.
type RegenerateRequest struct {
	SessionID string `json:"session_id"`
	MessageID string `json:"message_id"`
	Model     string `json:"model,omitempty"`
}

func (r *GenerateRequest) validate() error {
	if r == nil {
		return &ValidationError{Field: "request", Reason: "request is required", Err: ErrInvalidRequest}
	}
	if r.Prompt == "" {
		return &ValidationError{Field: "prompt", Reason: "prompt must not be empty", Err: ErrInvalidRequest}
	}
	if !r.Modality.IsValid() {
		return &ValidationError{
			Field:  "modality",
			Value:  r.Modality,
			Reason: fmt.Sprintf("unknown modality %q", r.Modality),
			Err:    ErrInvalidRequest,
		}
	}
	return ValidateParams(r.Params)
}

func (r *RegenerateRequest) validate() error {
	if r == nil {
		return &ValidationError{Field: "request", Reason: "request is required", Err: ErrInvalidRequest}
	}
	if r.SessionID == "" {
		return &ValidationError{Field: "session_id", Reason: "session_id must not be empty", Err: ErrInvalidRequest}
	}
	if r.MessageID == "" {
		return &ValidationError{Field: "message_id", Reason: "message_id must not be empty", Err: ErrInvalidRequest}
	}
	return nil
}
