package morphogen

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync/atomic"
	"time"
)

// Watchdog phases recorded when a stream timer fires. At most one timer
// is armed at any moment: the connect timer up to the first response
// byte, the inactivity timer after.
const (
	phaseConnect    int32 = 1
	phaseInactivity int32 = 2
)

const streamReadChunkSize = 4 * 1024

// StreamGenerate starts a streaming generation and returns a channel of
// typed events in strict arrival order. The channel closes on the
// end-of-stream sentinel, after a terminal error event, or when ctx is
// cancelled (cancellation closes the connection promptly and is not
// reported as an error).
//
// Failures before any streaming begins — invalid request, connect
// timeout, non-2xx status — are returned synchronously. Failures
// mid-stream arrive as a final StreamEvent with Err set.
//
// A fresh call always opens a fresh connection with fresh buffer and
// timer state; streams are not restartable.
//
// Usage:
//
//	events, err := client.StreamGenerate(ctx, req)
//	if err != nil { return err }
//	for ev := range events {
//	    switch {
//	    case ev.Err != nil:      // stream failed
//	    case ev.Token != nil:    // render incremental text
//	    case ev.Response != nil: // complete non-text result
//	    }
//	}
func (c *Client) StreamGenerate(ctx context.Context, req *GenerateRequest) (<-chan StreamEvent, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}
	if mc, ok := LookupModalityCapability(req.Modality); ok && !mc.Streaming {
		c.logger.Debug("modality does not token-stream; expect a single complete response",
			"modality", req.Modality)
	}
	return c.streamRequest(ctx, "/v1/generate/stream", req)
}

// StreamRegenerate re-runs generation for an existing message and streams
// the result. It shares the session controller with StreamGenerate; only
// the endpoint and payload differ.
func (c *Client) StreamRegenerate(ctx context.Context, req *RegenerateRequest) (<-chan StreamEvent, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}
	return c.streamRequest(ctx, "/v1/regenerate/stream", req)
}

// streamRequest owns one stream session's lifecycle: dispatch, handshake
// timeout, per-chunk inactivity timeout, decode, and teardown. All session
// state (buffer, timers, connection) is created here and released
// unconditionally when the stream ends, fails, or is cancelled.
func (c *Client) streamRequest(ctx context.Context, path string, payload any) (<-chan StreamEvent, error) {
	// The session context aborts the in-flight request for every
	// termination cause: watchdog firing, terminal error, caller cancel.
	sessionCtx, cancel := context.WithCancel(ctx)

	httpReq, err := c.newRequest(sessionCtx, http.MethodPost, path, payload)
	if err != nil {
		cancel()
		return nil, err
	}
	httpReq.Header.Set("Accept", "text/event-stream")

	timedOut := new(atomic.Int32)

	// Connect watchdog: tears the request down if no response arrives
	// within the handshake bound.
	connectTimer := time.AfterFunc(c.connectTimeout, func() {
		timedOut.Store(phaseConnect)
		cancel()
	})

	resp, err := c.streamClient.Do(httpReq)
	connectTimer.Stop()
	if err != nil {
		cancel()
		if timedOut.Load() == phaseConnect {
			return nil, &TimeoutError{Phase: TimeoutPhaseConnect, Limit: c.connectTimeout, Err: ErrConnectTimeout}
		}
		return nil, fmt.Errorf("morphogen: stream request failed: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		defer resp.Body.Close()
		cancel()
		return nil, c.errorFromResponse(resp)
	}

	events := make(chan StreamEvent, 10) // Buffered to keep decoding ahead of the consumer

	go func() {
		defer close(events)
		defer resp.Body.Close()
		defer cancel()
		c.consumeStream(ctx, cancel, resp.Body, timedOut, events)
	}()

	return events, nil
}

// consumeStream reads raw chunks, reassembles lines, and surfaces typed
// events until the sentinel, a terminal error, a watchdog firing, or
// caller cancellation. ctx is the caller's context; cancel aborts the
// session's connection.
func (c *Client) consumeStream(ctx context.Context, cancel context.CancelFunc, body io.Reader, timedOut *atomic.Int32, events chan<- StreamEvent) {
	var buf lineBuffer

	// Inactivity watchdog, restarted (not accumulated) on every chunk.
	idleTimer := time.AfterFunc(c.inactivityTimeout, func() {
		timedOut.Store(phaseInactivity)
		cancel()
	})
	defer idleTimer.Stop()

	chunk := make([]byte, streamReadChunkSize)
	for {
		n, err := body.Read(chunk)
		if n > 0 {
			idleTimer.Reset(c.inactivityTimeout)

			for _, line := range buf.feed(string(chunk[:n])) {
				payload, kind := decodeFrame(line)
				switch kind {
				case frameSkip:
					continue

				case frameDone:
					c.logDiscardedFragment(buf.rest())
					return

				case framePayload:
					ev, oc := classify(payload)
					switch oc {
					case outcomeIgnore:
						c.logger.Debug("ignoring unclassifiable stream payload", "bytes", len(payload))
					case outcomeEmit:
						if !send(ctx, events, ev) {
							return
						}
					case outcomeFail:
						// The deferred cancel and body close in the
						// caller tear the connection down.
						c.logDiscardedFragment(buf.rest())
						send(ctx, events, ev)
						return
					}
				}
			}
		}

		if err != nil {
			switch {
			case errors.Is(err, io.EOF):
				// Stream ended without the sentinel; the data is complete
				// up to the last line boundary.
				c.logDiscardedFragment(buf.rest())
				return

			case timedOut.Load() == phaseInactivity:
				send(ctx, events, StreamEvent{Err: &TimeoutError{
					Phase: TimeoutPhaseInactivity,
					Limit: c.inactivityTimeout,
					Err:   ErrInactivityTimeout,
				}})
				return

			case ctx.Err() != nil:
				// Caller withdrew interest; not a failure.
				return

			default:
				send(ctx, events, StreamEvent{Err: fmt.Errorf("morphogen: reading stream: %w", err)})
				return
			}
		}
	}
}

// logDiscardedFragment records a non-empty unterminated fragment dropped
// at end of stream. The backend terminates on a line boundary, so a
// non-empty fragment here usually means a truncated final token.
func (c *Client) logDiscardedFragment(rest string) {
	if rest != "" {
		c.logger.Debug("discarding unterminated trailing fragment", "bytes", len(rest))
	}
}

// send delivers ev unless the caller has withdrawn interest.
func send(ctx context.Context, events chan<- StreamEvent, ev StreamEvent) bool {
	select {
	case events <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}
