package morphogen

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestGetTokenBalance(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/account/balance" {
			t.Errorf("path = %q", r.URL.Path)
		}
		_, _ = w.Write([]byte(`{"credits":42.5,"plan":"pro","renews_at":"2026-09-01T00:00:00Z"}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv)
	b, err := c.GetTokenBalance(context.Background())
	if err != nil {
		t.Fatalf("GetTokenBalance: %v", err)
	}
	if b.Credits != 42.5 || b.Plan != "pro" || b.RenewsAt == nil {
		t.Errorf("balance = %+v", b)
	}
}

func TestAPIKeyLifecycle(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method + " " + r.URL.Path {
		case "GET /v1/account/keys":
			_, _ = w.Write([]byte(`{"keys":[{"id":"key_1","name":"ci","prefix":"mg_live_a1"}]}`))

		case "POST /v1/account/keys":
			var body struct {
				Name string `json:"name"`
			}
			_ = json.NewDecoder(r.Body).Decode(&body)
			_ = json.NewEncoder(w).Encode(map[string]any{
				"id":     "key_2",
				"name":   body.Name,
				"prefix": "mg_live_b2",
				"secret": "mg_live_b2_full_secret",
			})

		case "DELETE /v1/account/keys/key_1":
			w.WriteHeader(http.StatusNoContent)

		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	c := newTestClient(t, srv)
	ctx := context.Background()

	keys, err := c.ListAPIKeys(ctx)
	if err != nil {
		t.Fatalf("ListAPIKeys: %v", err)
	}
	if len(keys) != 1 || keys[0].Prefix != "mg_live_a1" {
		t.Errorf("keys = %+v", keys)
	}

	created, err := c.CreateAPIKey(ctx, "deploy")
	if err != nil {
		t.Fatalf("CreateAPIKey: %v", err)
	}
	if created.Name != "deploy" || created.Secret != "mg_live_b2_full_secret" {
		t.Errorf("created = %+v", created)
	}

	if err := c.RevokeAPIKey(ctx, "key_1"); err != nil {
		t.Fatalf("RevokeAPIKey: %v", err)
	}
}

func TestAccountValidation(t *testing.T) {
	c, err := NewClient("https://api.example", "key")
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	ctx := context.Background()

	if _, err := c.CreateAPIKey(ctx, ""); !errors.Is(err, ErrInvalidRequest) {
		t.Errorf("CreateAPIKey: err = %v", err)
	}
	if err := c.RevokeAPIKey(ctx, ""); !errors.Is(err, ErrInvalidRequest) {
		t.Errorf("RevokeAPIKey: err = %v", err)
	}
}
