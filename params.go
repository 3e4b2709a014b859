package morphogen

import "fmt"

// Params represents optional generation parameters across modalities.
// All fields are pointers to distinguish "not set" from "set to zero value";
// the backend applies its own defaults for unset fields.
type Params struct {
	// ===== Text Parameters =====

	// MaxTokens sets the maximum number of tokens to generate
	MaxTokens *int `json:"max_tokens,omitempty"`

	// Temperature controls randomness (0.0-2.0)
	Temperature *float64 `json:"temperature,omitempty"`

	// Seed for deterministic sampling (if supported by the model)
	Seed *int `json:"seed,omitempty"`

	// ===== Image Parameters =====

	// NegativePrompt lists content to steer away from
	NegativePrompt *string `json:"negative_prompt,omitempty"`

	// Width and Height of the generated image in pixels
	Width  *int `json:"width,omitempty"`
	Height *int `json:"height,omitempty"`

	// Steps is the diffusion step count
	Steps *int `json:"steps,omitempty"`

	// GuidanceScale controls prompt adherence (1.0-30.0)
	GuidanceScale *float64 `json:"guidance_scale,omitempty"`

	// ===== Mesh Parameters =====

	// PolyBudget caps the triangle count of a generated mesh
	PolyBudget *int `json:"poly_budget,omitempty"`

	// ===== Shared =====

	// Style names a backend style preset (e.g. "photorealistic")
	Style *string `json:"style,omitempty"`
}

// ValidateParams validates generation parameters
func ValidateParams(params *Params) error {
	if params == nil {
		return nil // nil params is valid
	}

	if params.MaxTokens != nil && *params.MaxTokens < 1 {
		return &ValidationError{
			Field: "max_tokens", Value: *params.MaxTokens,
			Reason: "max_tokens must be positive", Err: ErrInvalidRequest,
		}
	}

	if params.Temperature != nil {
		if *params.Temperature < 0.0 || *params.Temperature > 2.0 {
			return &ValidationError{
				Field: "temperature", Value: *params.Temperature,
				Reason: "temperature must be between 0.0 and 2.0", Err: ErrInvalidRequest,
			}
		}
	}

	if params.Width != nil && *params.Width < 1 {
		return &ValidationError{
			Field: "width", Value: *params.Width,
			Reason: "width must be positive", Err: ErrInvalidRequest,
		}
	}

	if params.Height != nil && *params.Height < 1 {
		return &ValidationError{
			Field: "height", Value: *params.Height,
			Reason: "height must be positive", Err: ErrInvalidRequest,
		}
	}

	if params.Steps != nil && *params.Steps < 1 {
		return &ValidationError{
			Field: "steps", Value: *params.Steps,
			Reason: "steps must be positive", Err: ErrInvalidRequest,
		}
	}

	if params.GuidanceScale != nil {
		if *params.GuidanceScale < 1.0 || *params.GuidanceScale > 30.0 {
			return &ValidationError{
				Field: "guidance_scale", Value: *params.GuidanceScale,
				Reason: "guidance_scale must be between 1.0 and 30.0", Err: ErrInvalidRequest,
			}
		}
	}

	if params.PolyBudget != nil && *params.PolyBudget < 1 {
		return &ValidationError{
			Field: "poly_budget", Value: *params.PolyBudget,
			Reason: fmt.Sprintf("poly_budget must be positive, got %d", *params.PolyBudget),
			Err:    ErrInvalidRequest,
		}
	}

	return nil
}

// GetMaxTokens returns max_tokens with default fallback
func (p *Params) GetMaxTokens(defaultValue int) int {
	if p != nil && p.MaxTokens != nil {
		return *p.MaxTokens
	}
	return defaultValue
}

// GetTemperature returns temperature with default fallback
func (p *Params) GetTemperature(defaultValue float64) float64 {
	if p != nil && p.Temperature != nil {
		return *p.Temperature
	}
	return defaultValue
}
