package morphogen

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func textRequest() *GenerateRequest {
	return &GenerateRequest{Prompt: "a short story", Modality: ModalityText}
}

func TestStreamGenerateTokenSplitAcrossChunks(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s := newSSEWriter(t, w)
		s.event(`{"event":"model_selected","model":"aurora-text-2","model_name":"Aurora Text 2","fallback_used":false}`)
		// One token, split mid-JSON across two transport chunks.
		s.raw(`data: {"choices":[{"delta":{"content":"Hel`)
		s.raw("lo\"}}]}\n\n")
		s.done()
	}))
	defer srv.Close()

	c := newTestClient(t, srv)
	events, err := c.StreamGenerate(context.Background(), textRequest())
	if err != nil {
		t.Fatalf("StreamGenerate: %v", err)
	}

	got := collect(t, events)
	if len(got) != 2 {
		t.Fatalf("got %d events, want 2: %+v", len(got), got)
	}
	if sel := got[0].ModelSelection; sel == nil || sel.ModelID != "aurora-text-2" {
		t.Errorf("event 0 = %+v, want model selection", got[0])
	}
	if tok := got[1].Token; tok == nil || tok.Text != "Hello" {
		t.Errorf("event 1 = %+v, want token %q", got[1], "Hello")
	}
}

func TestStreamGenerateErrorPayloadTerminates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s := newSSEWriter(t, w)
		s.event(`{"choices":[{"delta":{"content":"partial "}}]}`)
		s.event(`{"error":"generation backend overloaded"}`)
		// Anything after the error must never surface.
		s.event(`{"choices":[{"delta":{"content":"ghost"}}]}`)
	}))
	defer srv.Close()

	c := newTestClient(t, srv)
	events, err := c.StreamGenerate(context.Background(), textRequest())
	if err != nil {
		t.Fatalf("StreamGenerate: %v", err)
	}

	got := collect(t, events)
	if len(got) != 2 {
		t.Fatalf("got %d events, want 2: %+v", len(got), got)
	}
	if got[0].Token == nil || got[0].Token.Text != "partial " {
		t.Errorf("event 0 = %+v", got[0])
	}
	var se *StreamError
	if !errors.As(got[1].Err, &se) || se.Detail != "generation backend overloaded" {
		t.Errorf("event 1 err = %v", got[1].Err)
	}
}

func TestStreamGenerateMalformedPayloadsTolerated(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s := newSSEWriter(t, w)
		s.event(`{"choices":[{"delta":{"content":"one "}}]}`)
		s.event(`{"choices":[{"del`) // truncated JSON on a complete line
		s.raw(": keep-alive\n\n")
		s.event(`{"heartbeat":true}`)
		s.event(`{"choices":[{"delta":{"content":"two"}}]}`)
		s.done()
	}))
	defer srv.Close()

	c := newTestClient(t, srv)
	events, err := c.StreamGenerate(context.Background(), textRequest())
	if err != nil {
		t.Fatalf("StreamGenerate: %v", err)
	}

	got := collect(t, events)
	if len(got) != 2 {
		t.Fatalf("got %d events, want 2: %+v", len(got), got)
	}
	for i, ev := range got {
		if ev.Token == nil {
			t.Errorf("event %d = %+v, want token", i, ev)
		}
	}
}

func TestStreamGenerateStopsAtSentinel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s := newSSEWriter(t, w)
		s.raw("data: {\"choices\":[{\"delta\":{\"content\":\"only\"}}]}\n\n" +
			"data: [DONE]\n\n" +
			"data: {\"choices\":[{\"delta\":{\"content\":\"after\"}}]}\n\n")
	}))
	defer srv.Close()

	c := newTestClient(t, srv)
	events, err := c.StreamGenerate(context.Background(), textRequest())
	if err != nil {
		t.Fatalf("StreamGenerate: %v", err)
	}

	got := collect(t, events)
	if len(got) != 1 || got[0].Token == nil || got[0].Token.Text != "only" {
		t.Fatalf("got %+v, want one token %q", got, "only")
	}
}

func TestStreamGenerateCompleteResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s := newSSEWriter(t, w)
		s.event(`{"event":"model_selected","model":"aurora-image-1","fallback_used":false}`)
		s.event(`{"id":"gen_42","modality":"image","model":"aurora-image-1","output":{"image_url":"https://cdn.example/gen_42.png","mime_type":"image/png"},"credits_charged":5.0}`)
		s.done()
	}))
	defer srv.Close()

	c := newTestClient(t, srv)
	events, err := c.StreamGenerate(context.Background(), &GenerateRequest{
		Prompt:   "a glass orchid",
		Modality: ModalityImage,
	})
	if err != nil {
		t.Fatalf("StreamGenerate: %v", err)
	}

	got := collect(t, events)
	if len(got) != 2 {
		t.Fatalf("got %d events, want 2: %+v", len(got), got)
	}
	resp := got[1].Response
	if resp == nil || resp.ID != "gen_42" || resp.Output.ImageURL == "" {
		t.Errorf("response = %+v", resp)
	}
	if resp.CreditsCharged == nil || *resp.CreditsCharged != 5.0 {
		t.Errorf("credits charged = %v", resp.CreditsCharged)
	}
}

func TestStreamGenerateNon2xxReturnedSynchronously(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusPaymentRequired)
		_, _ = w.Write([]byte(`{"detail":"insufficient credits"}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv)
	events, err := c.StreamGenerate(context.Background(), textRequest())
	if events != nil {
		t.Fatal("got a channel for a failed request")
	}

	var reqErr *RequestError
	if !errors.As(err, &reqErr) {
		t.Fatalf("err = %v, want RequestError", err)
	}
	if reqErr.StatusCode != http.StatusPaymentRequired || reqErr.Detail != "insufficient credits" {
		t.Errorf("request error = %+v", reqErr)
	}
}

func TestStreamGenerateConnectTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Drain the body so the server's background read can observe the
		// client disconnect and cancel r.Context().
		_, _ = io.Copy(io.Discard, r.Body)
		<-r.Context().Done() // never respond
	}))
	defer srv.Close()

	c := newTestClient(t, srv, WithConnectTimeout(50*time.Millisecond))
	start := time.Now()
	events, err := c.StreamGenerate(context.Background(), textRequest())
	if events != nil {
		t.Fatal("got a channel for a timed-out request")
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("timeout took %s", elapsed)
	}

	var te *TimeoutError
	if !errors.As(err, &te) || te.Phase != TimeoutPhaseConnect {
		t.Fatalf("err = %v, want connect TimeoutError", err)
	}
	if !errors.Is(err, ErrConnectTimeout) || !IsTimeout(err) {
		t.Errorf("err %v does not unwrap to ErrConnectTimeout", err)
	}
}

func TestStreamGenerateInactivityTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.Copy(io.Discard, r.Body)
		s := newSSEWriter(t, w)
		s.event(`{"choices":[{"delta":{"content":"then "}}]}`)
		<-r.Context().Done() // stall with the connection open
	}))
	defer srv.Close()

	c := newTestClient(t, srv, WithInactivityTimeout(80*time.Millisecond))
	events, err := c.StreamGenerate(context.Background(), textRequest())
	if err != nil {
		t.Fatalf("StreamGenerate: %v", err)
	}

	got := collect(t, events)
	if len(got) != 2 {
		t.Fatalf("got %d events, want 2: %+v", len(got), got)
	}
	if got[0].Token == nil {
		t.Errorf("event 0 = %+v, want token", got[0])
	}
	var te *TimeoutError
	if !errors.As(got[1].Err, &te) || te.Phase != TimeoutPhaseInactivity {
		t.Fatalf("event 1 err = %v, want inactivity TimeoutError", got[1].Err)
	}
	if !errors.Is(got[1].Err, ErrInactivityTimeout) {
		t.Errorf("err %v does not unwrap to ErrInactivityTimeout", got[1].Err)
	}
}

func TestStreamGenerateCancellationIsSilent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s := newSSEWriter(t, w)
		for {
			select {
			case <-r.Context().Done():
				return
			case <-time.After(10 * time.Millisecond):
			}
			s.event(`{"choices":[{"delta":{"content":"tick "}}]}`)
		}
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	c := newTestClient(t, srv)
	events, err := c.StreamGenerate(ctx, textRequest())
	if err != nil {
		t.Fatalf("StreamGenerate: %v", err)
	}

	// Consume one token to prove the stream is live, then withdraw.
	select {
	case ev := <-events:
		if ev.Token == nil {
			t.Fatalf("first event = %+v, want token", ev)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no first event")
	}
	cancel()

	for _, ev := range collect(t, events) {
		if ev.Err != nil {
			t.Errorf("cancellation surfaced an error event: %v", ev.Err)
		}
	}
}

func TestStreamRegenerate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/regenerate/stream" {
			t.Errorf("path = %q", r.URL.Path)
		}
		var req RegenerateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.SessionID != "sess_1" || req.MessageID != "msg_9" || req.Model != "aurora-text-1" {
			t.Errorf("request = %+v", req)
		}

		s := newSSEWriter(t, w)
		s.event(`{"choices":[{"delta":{"content":"again"}}]}`)
		s.done()
	}))
	defer srv.Close()

	c := newTestClient(t, srv)
	events, err := c.StreamRegenerate(context.Background(), &RegenerateRequest{
		SessionID: "sess_1",
		MessageID: "msg_9",
		Model:     "aurora-text-1",
	})
	if err != nil {
		t.Fatalf("StreamRegenerate: %v", err)
	}

	got := collect(t, events)
	if len(got) != 1 || got[0].Token == nil || got[0].Token.Text != "again" {
		t.Fatalf("got %+v, want one token %q", got, "again")
	}
}

func TestStreamValidation(t *testing.T) {
	c, err := NewClient("https://api.example", "key")
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	tests := []struct {
		name string
		call func() (<-chan StreamEvent, error)
	}{
		{
			name: "empty prompt",
			call: func() (<-chan StreamEvent, error) {
				return c.StreamGenerate(context.Background(), &GenerateRequest{Modality: ModalityText})
			},
		},
		{
			name: "unknown modality",
			call: func() (<-chan StreamEvent, error) {
				return c.StreamGenerate(context.Background(), &GenerateRequest{Prompt: "x", Modality: "hologram"})
			},
		},
		{
			name: "nil generate request",
			call: func() (<-chan StreamEvent, error) {
				return c.StreamGenerate(context.Background(), nil)
			},
		},
		{
			name: "regenerate without message id",
			call: func() (<-chan StreamEvent, error) {
				return c.StreamRegenerate(context.Background(), &RegenerateRequest{SessionID: "sess_1"})
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			events, err := tt.call()
			if events != nil {
				t.Error("got a channel for an invalid request")
			}
			var ve *ValidationError
			if !errors.As(err, &ve) {
				t.Errorf("err = %v, want ValidationError", err)
			}
			if !errors.Is(err, ErrInvalidRequest) {
				t.Errorf("err %v does not unwrap to ErrInvalidRequest", err)
			}
		})
	}
}
