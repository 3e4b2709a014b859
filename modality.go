package morphogen

// Modality identifies the kind of content a generation produces.
// Using a typed constant prevents typos and provides compile-time safety.
type Modality string

// Known modalities
const (
	// ModalityText is token-streamed conversational text.
	ModalityText Modality = "text"

	// ModalityImage is a generated image, delivered as a single
	// complete response (never token-streamed).
	ModalityImage Modality = "image"

	// ModalityMesh is a generated 3D mesh, delivered as a single
	// complete response (never token-streamed).
	ModalityMesh Modality = "mesh"
)

// String returns the string representation of the modality
func (m Modality) String() string {
	return string(m)
}

// IsValid returns true if the modality is known to this client
func (m Modality) IsValid() bool {
	switch m {
	case ModalityText, ModalityImage, ModalityMesh:
		return true
	default:
		return false
	}
}
