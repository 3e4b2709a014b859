package morphogen

import (
	"context"
	"net/http"
)

// Generate requests a complete, non-streaming generation (blocking).
// Prefer StreamGenerate for text; image and mesh generations return the
// same single GenerationResponse either way.
func (c *Client) Generate(ctx context.Context, req *GenerateRequest) (*GenerationResponse, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	var resp GenerationResponse
	if err := c.doJSON(ctx, http.MethodPost, "/v1/generate", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
