package morphogen

import (
	"context"
	"net/http"
	"net/url"
	"time"
)

// TokenBalance is the account's remaining generation credit.
type TokenBalance struct {
	Credits  float64    `json:"credits"`
	Plan     string     `json:"plan,omitempty"`
	RenewsAt *time.Time `json:"renews_at,omitempty"`
}

// APIKey describes one of the account's API keys. The secret is only
// ever returned at creation time.
type APIKey struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	Prefix     string     `json:"prefix"`
	CreatedAt  time.Time  `json:"created_at"`
	LastUsedAt *time.Time `json:"last_used_at,omitempty"`
}

// CreatedAPIKey is returned by CreateAPIKey and includes the full secret.
// Store it immediately; it cannot be retrieved again.
type CreatedAPIKey struct {
	APIKey
	Secret string `json:"secret"`
}

// GetTokenBalance fetches the account's current credit balance.
func (c *Client) GetTokenBalance(ctx context.Context) (*TokenBalance, error) {
	var b TokenBalance
	if err := c.doJSON(ctx, http.MethodGet, "/v1/account/balance", nil, &b); err != nil {
		return nil, err
	}
	return &b, nil
}

// ListAPIKeys fetches the account's API keys (without secrets).
func (c *Client) ListAPIKeys(ctx context.Context) ([]APIKey, error) {
	var payload struct {
		Keys []APIKey `json:"keys"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/v1/account/keys", nil, &payload); err != nil {
		return nil, err
	}
	return payload.Keys, nil
}

// CreateAPIKey creates a named API key and returns it with its secret.
func (c *Client) CreateAPIKey(ctx context.Context, name string) (*CreatedAPIKey, error) {
	if name == "" {
		return nil, &ValidationError{Field: "name", Reason: "key name is required", Err: ErrInvalidRequest}
	}

	payload := struct {
		Name string `json:"name"`
	}{Name: name}

	var k CreatedAPIKey
	if err := c.doJSON(ctx, http.MethodPost, "/v1/account/keys", payload, &k); err != nil {
		return nil, err
	}
	return &k, nil
}

// RevokeAPIKey permanently revokes an API key.
func (c *Client) RevokeAPIKey(ctx context.Context, id string) error {
	if id == "" {
		return &ValidationError{Field: "key_id", Reason: "key id is required", Err: ErrInvalidRequest}
	}
	return c.doJSON(ctx, http.MethodDelete, "/v1/account/keys/"+url.PathEscape(id), nil, nil)
}
