package morphogen

import "time"

// GenerationResponse contains a complete generation result.
// Streaming text generations assemble this shape only server-side;
// the client receives it whole for non-text modalities and for the
// non-streaming Generate call.
type GenerationResponse struct {
	// ID is the backend's identifier for this generation.
	ID string `json:"id"`

	// SessionID is the chat session this generation belongs to, if any.
	SessionID string `json:"session_id,omitempty"`

	// Modality is the kind of content in Output.
	Modality Modality `json:"modality"`

	// Model is the model that produced the result (may differ from the
	// request if a fallback substitution occurred).
	Model string `json:"model,omitempty"`

	// Output carries the generated content.
	Output *Output `json:"output,omitempty"`

	// Usage contains token accounting, when the backend reports it.
	Usage *Usage `json:"usage,omitempty"`

	// Selection echoes the model-selection metadata for this generation.
	Selection *ModelSelected `json:"selection,omitempty"`

	// CreditsCharged is the credit cost of this generation, when reported.
	CreditsCharged *float64 `json:"credits_charged,omitempty"`

	CreatedAt time.Time `json:"created_at,omitzero"`
}

// Output is the modality-specific payload of a generation.
// Exactly the fields matching GenerationResponse.Modality are set.
type Output struct {
	// Text content (text modality).
	Text string `json:"text,omitempty"`

	// Image content (image modality): a fetchable URL or inline base64,
	// plus its MIME type.
	ImageURL    string `json:"image_url,omitempty"`
	ImageBase64 string `json:"image_base64,omitempty"`
	MimeType    string `json:"mime_type,omitempty"`

	// Mesh content (mesh modality): a fetchable URL and its format
	// (e.g. "glb", "obj").
	MeshURL    string `json:"mesh_url,omitempty"`
	MeshFormat string `json:"mesh_format,omitempty"`
}

// Usage contains token accounting for a generation.
type Usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
	TotalTokens  int `json:"total_tokens"`
}
