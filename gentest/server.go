// Package gentest provides an in-process mock Morphogen backend that
// speaks the real wire format: a model_selected preamble, lorem-ipsum
// token chunks, and the [DONE] sentinel. Used for development and tests
// without a live backend or API key.
package gentest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"time"

	loremgen "github.com/bozaro/golorem"
	"github.com/google/uuid"

	morphogen "github.com/morphogen-ai/morphogen-go"
)

// Options configures the mock backend's behavior.
type Options struct {
	// Model is reported in the model_selected preamble. Default "lorem-fast".
	Model string

	// FallbackFrom, when non-empty, makes the preamble report a fallback
	// substitution away from this model with reason "quota_exceeded".
	FallbackFrom string

	// Words is the number of tokens per streamed reply. Default 20.
	Words int

	// WordDelay paces the stream, one delay per token. Default none.
	WordDelay time.Duration

	// FailAfter, when positive, emits an error payload after that many
	// tokens instead of finishing the reply.
	FailAfter int

	// StallAfter, when positive, stops sending after that many tokens but
	// holds the connection open. Lets callers exercise their inactivity
	// timeout.
	StallAfter int
}

// Server is a mock Morphogen backend running on a local listener.
type Server struct {
	*httptest.Server

	opts Options
	gen  *loremgen.Lorem
}

// NewServer starts a mock backend. Callers must Close it when done.
func NewServer(opts Options) *Server {
	if opts.Model == "" {
		opts.Model = "lorem-fast"
	}
	if opts.Words <= 0 {
		opts.Words = 20
	}

	s := &Server{
		opts: opts,
		gen:  loremgen.New(),
	}
	s.Server = httptest.NewServer(s.routes())
	return s
}

func (s *Server) routes() http.Handler {
	// Method-qualified ServeMux patterns ("POST /path") require Go 1.22;
	// this wrapper reproduces that behavior on earlier toolchains.
	method := func(m string, h http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			if r.Method != m {
				http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
				return
			}
			h(w, r)
		}
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/v1/generate/stream", method(http.MethodPost, s.handleStream))
	mux.HandleFunc("/v1/regenerate/stream", method(http.MethodPost, s.handleStream))
	mux.HandleFunc("/v1/generate", method(http.MethodPost, s.handleGenerate))
	mux.HandleFunc("/v1/models", method(http.MethodGet, s.handleModels))
	mux.HandleFunc("/v1/account/balance", method(http.MethodGet, s.handleBalance))
	return s.requireAuth(mux)
}

// requireAuth rejects requests without a bearer token so clients can
// exercise their auth error paths.
func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.Header.Get("Authorization"), "Bearer ") {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			fmt.Fprint(w, `{"detail":"missing API key"}`)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	var req morphogen.GenerateRequest
	_ = json.NewDecoder(r.Body).Decode(&req)

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)

	writeData := func(payload any) {
		data, _ := json.Marshal(payload)
		fmt.Fprintf(w, "data: %s\n\n", data)
		flusher.Flush()
	}

	// Preamble: which model handles this generation.
	selected := map[string]any{
		"event":         "model_selected",
		"model":         s.opts.Model,
		"model_name":    "Lorem " + strings.TrimPrefix(s.opts.Model, "lorem-"),
		"fallback_used": s.opts.FallbackFrom != "",
	}
	if s.opts.FallbackFrom != "" {
		selected["fallback_reason"] = "quota_exceeded"
	}
	writeData(selected)

	// Non-text modalities never token-stream: one complete response.
	if req.Modality != "" && req.Modality != morphogen.ModalityText {
		writeData(s.completeResponse(req))
		fmt.Fprint(w, "data: [DONE]\n\n")
		flusher.Flush()
		return
	}

	sent := 0
	for _, word := range strings.Fields(s.gen.Sentence(s.opts.Words, s.opts.Words)) {
		select {
		case <-r.Context().Done():
			return
		default:
		}

		if s.opts.FailAfter > 0 && sent >= s.opts.FailAfter {
			writeData(map[string]any{"error": "generation backend overloaded"})
			return
		}
		if s.opts.StallAfter > 0 && sent >= s.opts.StallAfter {
			<-r.Context().Done()
			return
		}

		writeData(map[string]any{
			"choices": []any{
				map[string]any{"delta": map[string]any{"content": word + " "}},
			},
		})
		sent++

		if s.opts.WordDelay > 0 {
			select {
			case <-time.After(s.opts.WordDelay):
			case <-r.Context().Done():
				return
			}
		}
	}

	fmt.Fprint(w, "data: [DONE]\n\n")
	flusher.Flush()
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var req morphogen.GenerateRequest
	_ = json.NewDecoder(r.Body).Decode(&req)

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(s.completeResponse(req))
}

// completeResponse builds a full GenerationResponse for the requested
// modality, with lorem text standing in for generated content.
func (s *Server) completeResponse(req morphogen.GenerateRequest) *morphogen.GenerationResponse {
	id := uuid.NewString()

	resp := &morphogen.GenerationResponse{
		ID:        id,
		SessionID: req.SessionID,
		Modality:  req.Modality,
		Model:     s.opts.Model,
		Usage: &morphogen.Usage{
			InputTokens:  len(strings.Fields(req.Prompt)),
			OutputTokens: s.opts.Words,
			TotalTokens:  len(strings.Fields(req.Prompt)) + s.opts.Words,
		},
		CreatedAt: time.Now().UTC(),
	}
	if resp.Modality == "" {
		resp.Modality = morphogen.ModalityText
	}

	switch resp.Modality {
	case morphogen.ModalityImage:
		resp.Output = &morphogen.Output{
			ImageURL: s.URL + "/assets/" + id + ".png",
			MimeType: "image/png",
		}
	case morphogen.ModalityMesh:
		resp.Output = &morphogen.Output{
			MeshURL:    s.URL + "/assets/" + id + ".glb",
			MeshFormat: "glb",
		}
	default:
		resp.Output = &morphogen.Output{Text: s.gen.Paragraph(2, 4)}
	}

	return resp
}

func (s *Server) handleModels(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	fmt.Fprint(w, `{"models":[
		{"id":"lorem-fast","name":"Lorem Fast","modality":"text","available":true,"credits_per_unit":0.1},
		{"id":"lorem-slow","name":"Lorem Slow","modality":"text","available":true,"fallback_model":"lorem-fast","credits_per_unit":0.4},
		{"id":"lorem-image","name":"Lorem Image","modality":"image","available":true,"credits_per_unit":5.0}
	]}`)
}

func (s *Server) handleBalance(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	fmt.Fprint(w, `{"credits":100,"plan":"developer"}`)
}
