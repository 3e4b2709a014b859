package morphogen

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func intPtr(v int) *int           { return &v }
func floatPtr(v float64) *float64 { return &v }
func strPtr(v string) *string     { return &v }

// newTestClient builds a client against a local test server, failing the
// test on construction errors.
func newTestClient(t *testing.T, srv *httptest.Server, opts ...Option) *Client {
	t.Helper()
	c, err := NewClient(srv.URL, "test-key", opts...)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return c
}

// sseWriter wraps a streaming response for test handlers, flushing after
// every event so chunk boundaries land where the test puts them.
type sseWriter struct {
	w http.ResponseWriter
	f http.Flusher
}

func newSSEWriter(t *testing.T, w http.ResponseWriter) *sseWriter {
	t.Helper()
	f, ok := w.(http.Flusher)
	if !ok {
		t.Fatal("response writer does not support flushing")
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.WriteHeader(http.StatusOK)
	return &sseWriter{w: w, f: f}
}

// raw writes bytes verbatim and flushes, with no framing added.
func (s *sseWriter) raw(text string) {
	_, _ = s.w.Write([]byte(text))
	s.f.Flush()
}

// event writes one complete data line (with blank separator) and flushes.
func (s *sseWriter) event(payload string) {
	s.raw("data: " + payload + "\n\n")
}

func (s *sseWriter) done() {
	s.raw("data: [DONE]\n\n")
}

// collect drains the event channel, failing the test if it does not close
// within the deadline.
func collect(t *testing.T, events <-chan StreamEvent) []StreamEvent {
	t.Helper()
	var got []StreamEvent
	deadline := time.After(5 * time.Second)
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return got
			}
			got = append(got, ev)
		case <-deadline:
			t.Fatalf("stream did not close; events so far: %d", len(got))
		}
	}
}
