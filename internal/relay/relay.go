package relay

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/foliolabs/folio/internal/gateway"
)

const (
	dataPrefix   = "data:"
	doneSentinel = "[DONE]"

	// Upstream tool-call announcements are not executed here; the stream
	// surfaces them as a fixed notice instead of raw JSON.
	toolCallNotice = "\n[model requested a tool call - not supported on this site]\n"

	maxErrorBodyBytes = 8 << 10
)

// Relay performs one outbound streaming chat request and converts the
// server-sent-event body into an ordered sequence of normalized events.
type Relay struct {
	client *http.Client
}

func New(client *http.Client) *Relay {
	if client == nil {
		client = http.DefaultClient
	}
	return &Relay{client: client}
}

type streamChunk struct {
	Choices []struct {
		Delta struct {
			Content   string            `json:"content"`
			ToolCalls []json.RawMessage `json:"tool_calls"`
		} `json:"delta"`
	} `json:"choices"`
}

// Stream dispatches req and emits events in the order they are parsed from
// the upstream byte stream. The channel is closed after a single terminal
// event (done or error), or without one when ctx is cancelled - a cancelled
// stream never emits again.
func (r *Relay) Stream(ctx context.Context, req *http.Request) <-chan Event {
	events := make(chan Event)

	go func() {
		defer close(events)
		r.run(ctx, req, events)
	}()

	return events
}

func (r *Relay) run(ctx context.Context, req *http.Request, events chan<- Event) {
	resp, err := r.client.Do(req.WithContext(ctx))
	if err != nil {
		if cancelled(ctx, err) {
			return
		}
		log.Warn().Err(err).Str("url", req.URL.String()).Msg("Upstream chat request failed")
		emit(ctx, events, errorEvent(fmt.Sprintf("request failed: %v", err)))
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
		log.Warn().
			Int("status", resp.StatusCode).
			Str("url", req.URL.String()).
			Msg("Upstream returned non-success status")
		emit(ctx, events, errorEvent((&gateway.UpstreamHTTPError{
			Status: resp.StatusCode,
			Body:   strings.TrimSpace(string(body)),
		}).Error()))
		return
	}

	// bufio handles records that span read boundaries: a line is only
	// surfaced once the trailing newline has arrived.
	reader := bufio.NewReader(resp.Body)
	toolNoticeSent := false

	for {
		line, err := reader.ReadString('\n')

		if len(line) > 0 {
			if done := r.handleLine(ctx, events, strings.TrimRight(line, "\r\n"), &toolNoticeSent); done {
				return
			}
		}

		if err != nil {
			if cancelled(ctx, err) {
				return
			}
			if errors.Is(err, io.EOF) {
				// Clean transport close without a [DONE] sentinel still
				// terminates the stream normally.
				emit(ctx, events, doneEvent())
				return
			}
			emit(ctx, events, errorEvent(fmt.Sprintf("stream interrupted: %v", err)))
			return
		}
	}
}

// handleLine parses one complete record. It reports true when the stream
// reached a terminal event.
func (r *Relay) handleLine(ctx context.Context, events chan<- Event, line string, toolNoticeSent *bool) bool {
	if !strings.HasPrefix(line, dataPrefix) {
		return false
	}

	payload := strings.TrimSpace(strings.TrimPrefix(line, dataPrefix))
	if payload == "" {
		return false
	}
	if payload == doneSentinel {
		emit(ctx, events, doneEvent())
		return true
	}

	var chunk streamChunk
	if err := json.Unmarshal([]byte(payload), &chunk); err != nil {
		// Providers interleave auxiliary records; unrecognized shapes are
		// skipped rather than failing the whole stream.
		log.Debug().Err(err).Msg("Skipping unparsable stream record")
		return false
	}
	if len(chunk.Choices) == 0 {
		return false
	}

	delta := chunk.Choices[0].Delta
	if delta.Content != "" {
		if !emit(ctx, events, contentEvent(delta.Content)) {
			return true
		}
	} else if len(delta.ToolCalls) > 0 && !*toolNoticeSent {
		*toolNoticeSent = true
		if !emit(ctx, events, contentEvent(toolCallNotice)) {
			return true
		}
	}
	return false
}

// emit delivers ev unless the caller has cancelled. It reports whether the
// event was delivered.
func emit(ctx context.Context, events chan<- Event, ev Event) bool {
	select {
	case events <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}

func cancelled(ctx context.Context, err error) bool {
	return ctx.Err() != nil || errors.Is(err, context.Canceled)
}
