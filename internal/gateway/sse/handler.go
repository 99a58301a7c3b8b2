// Package sse is the one-way notification gateway. Every streaming request
// owns a fresh broadcast subscription for its whole lifetime, so isolation
// between callers is automatic at the cost of one subscription per request.
package sse

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/acelee0621/memenote/internal/bus"
	"github.com/acelee0621/memenote/internal/notify"
)

// defaultPollWait bounds each subscription poll; it is the upper bound on
// how long a disconnected client's subscription can linger.
const defaultPollWait = time.Second

// Handler streams broadcast notifications as server-sent events.
type Handler struct {
	bus      *bus.Bus
	pollWait time.Duration
	log      zerolog.Logger
}

// NewHandler constructs the SSE handler. A pollWait of zero or less uses
// defaultPollWait.
func NewHandler(b *bus.Bus, pollWait time.Duration, log zerolog.Logger) *Handler {
	if pollWait <= 0 {
		pollWait = defaultPollWait
	}
	return &Handler{bus: b, pollWait: pollWait, log: log}
}

// Stream serves GET /notifications/stream. The stream never terminates on
// its own; it ends when the client disconnects or an upstream timeout
// applies. The subscription is released before returning in every path.
func (h *Handler) Stream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	sub, err := h.bus.Subscribe(notify.Channel)
	if err != nil {
		http.Error(w, "notification stream unavailable", http.StatusServiceUnavailable)
		return
	}
	defer sub.Unsubscribe()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	h.log.Debug().Str("subscription", sub.ID()).Msg("sse stream opened")
	defer h.log.Debug().Str("subscription", sub.ID()).Msg("sse stream closed")

	ctx := r.Context()
	for {
		payload, err := sub.Next(ctx, h.pollWait)
		switch {
		case err == nil:
			env, derr := notify.Decode(payload)
			if derr != nil {
				// Drop the one bad message; the stream stays up.
				h.log.Warn().Err(derr).Msg("dropping malformed notification")
				continue
			}
			data, eerr := notify.Encode(env)
			if eerr != nil {
				h.log.Error().Err(eerr).Msg("re-encoding envelope failed")
				continue
			}
			if _, werr := fmt.Fprintf(w, "event: notification\ndata: %s\n\n", data); werr != nil {
				return
			}
			flusher.Flush()
		case errors.Is(err, bus.ErrTimeout):
			// Empty poll; loop so client disconnect is noticed promptly.
			continue
		default:
			// Context cancellation or a closed broadcast medium.
			return
		}
	}
}
