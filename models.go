package morphogen

import (
	"context"
	"fmt"
	"net/http"
	"sync"
)

// ModelInfo describes one catalog entry of the backend's model catalog.
type ModelInfo struct {
	ID             string   `json:"id"`
	Name           string   `json:"name"`
	Modality       Modality `json:"modality"`
	Description    string   `json:"description,omitempty"`
	Available      bool     `json:"available"`
	FallbackModel  string   `json:"fallback_model,omitempty"`
	CreditsPerUnit float64  `json:"credits_per_unit,omitempty"`
}

// modelCatalog caches the backend's model catalog between calls.
// Lookup by ID is served from the cache when possible; ListModels
// always refreshes it.
type modelCatalog struct {
	mu   sync.RWMutex
	byID map[string]ModelInfo
}

// ListModels fetches the model catalog and refreshes the client's cache.
func (c *Client) ListModels(ctx context.Context) ([]ModelInfo, error) {
	var payload struct {
		Models []ModelInfo `json:"models"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/v1/models", nil, &payload); err != nil {
		return nil, err
	}

	c.catalog.mu.Lock()
	c.catalog.byID = make(map[string]ModelInfo, len(payload.Models))
	for _, m := range payload.Models {
		c.catalog.byID[m.ID] = m
	}
	c.catalog.mu.Unlock()

	return payload.Models, nil
}

// GetModel returns catalog information for one model, serving from the
// cache when possible and refreshing it on a miss.
func (c *Client) GetModel(ctx context.Context, id string) (*ModelInfo, error) {
	if id == "" {
		return nil, &ModelError{Model: id, Reason: "model id is required", Err: ErrInvalidModel}
	}

	c.catalog.mu.RLock()
	m, ok := c.catalog.byID[id]
	c.catalog.mu.RUnlock()
	if ok {
		return &m, nil
	}

	if _, err := c.ListModels(ctx); err != nil {
		return nil, fmt.Errorf("morphogen: refreshing model catalog: %w", err)
	}

	c.catalog.mu.RLock()
	m, ok = c.catalog.byID[id]
	c.catalog.mu.RUnlock()
	if !ok {
		return nil, &ModelError{Model: id, Reason: "not in the backend's model catalog", Err: ErrInvalidModel}
	}
	return &m, nil
}
