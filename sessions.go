package morphogen

import (
	"context"
	"net/http"
	"net/url"
	"time"
)

// Session is a chat session grouping related generations.
type Session struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Modality  Modality  `json:"modality,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CreateSession creates a new chat session.
func (c *Client) CreateSession(ctx context.Context, title string) (*Session, error) {
	payload := struct {
		Title string `json:"title"`
	}{Title: title}

	var s Session
	if err := c.doJSON(ctx, http.MethodPost, "/v1/sessions", payload, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// GetSession fetches one session by ID.
func (c *Client) GetSession(ctx context.Context, id string) (*Session, error) {
	if id == "" {
		return nil, &ValidationError{Field: "session_id", Reason: "session id is required", Err: ErrInvalidRequest}
	}

	var s Session
	if err := c.doJSON(ctx, http.MethodGet, "/v1/sessions/"+url.PathEscape(id), nil, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// ListSessions fetches all of the caller's sessions, newest first.
func (c *Client) ListSessions(ctx context.Context) ([]Session, error) {
	var payload struct {
		Sessions []Session `json:"sessions"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/v1/sessions", nil, &payload); err != nil {
		return nil, err
	}
	return payload.Sessions, nil
}

// RenameSession updates a session's title.
func (c *Client) RenameSession(ctx context.Context, id, title string) (*Session, error) {
	if id == "" {
		return nil, &ValidationError{Field: "session_id", Reason: "session id is required", Err: ErrInvalidRequest}
	}

	payload := struct {
		Title string `json:"title"`
	}{Title: title}

	var s Session
	if err := c.doJSON(ctx, http.MethodPatch, "/v1/sessions/"+url.PathEscape(id), payload, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// DeleteSession deletes a session and its generations.
func (c *Client) DeleteSession(ctx context.Context, id string) error {
	if id == "" {
		return &ValidationError{Field: "session_id", Reason: "session id is required", Err: ErrInvalidRequest}
	}
	return c.doJSON(ctx, http.MethodDelete, "/v1/sessions/"+url.PathEscape(id), nil, nil)
}
