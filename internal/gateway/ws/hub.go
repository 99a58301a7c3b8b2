// Package ws is the bidirectional notification gateway: it accepts WebSocket
// connections, tracks them in a registry, and relays every broadcast message
// to all of them. One relay task per hub subscribes to the broadcast channel
// regardless of connection count; fan-out is O(connections) per message.
package ws

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/acelee0621/memenote/internal/bus"
	"github.com/acelee0621/memenote/internal/notify"
)

// pollWait bounds each relay poll so cancellation is observed promptly.
const pollWait = time.Second

// resubscribeBackoff is the delay before retrying a failed subscription.
const resubscribeBackoff = time.Second

// Hub owns the accept path and the shared relay task.
type Hub struct {
	bus      *bus.Bus
	registry *Registry
	log      zerolog.Logger
	upgrader websocket.Upgrader

	relayMu     sync.Mutex
	relayCancel context.CancelFunc
	relayDone   chan struct{}
}

// NewHub wires a hub to the broadcast bus and an injectable registry.
func NewHub(b *bus.Bus, registry *Registry, log zerolog.Logger) *Hub {
	h := &Hub{
		bus:      b,
		registry: registry,
		log:      log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
	return h
}

// HandleWebSocket upgrades the request and registers the connection.
// Inbound application data is ignored; the read loop exists only to detect
// disconnect.
func (h *Hub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn().Err(err).Str("remote", r.RemoteAddr).Msg("websocket upgrade failed")
		return
	}

	c := newClient(h, conn, h.log)
	h.addClient(c)

	go c.writePump()
	go c.readPump()
}

// addClient inserts c and starts the relay when the registry becomes
// non-empty. Subscription happens synchronously here, so a viewer is
// guaranteed to see messages published after its connect completes.
func (h *Hub) addClient(c *Client) {
	h.relayMu.Lock()
	defer h.relayMu.Unlock()

	if n := h.registry.add(c); n == 1 {
		h.startRelayLocked()
	}
	h.log.Info().Int("connections", h.registry.Len()).Msg("websocket client connected")
}

// removeClient detaches c and tears the relay down when the last connection
// closes, releasing the broadcast subscription.
func (h *Hub) removeClient(c *Client) {
	h.relayMu.Lock()
	defer h.relayMu.Unlock()

	present, remaining := h.registry.remove(c)
	if !present {
		return
	}
	if remaining == 0 {
		h.stopRelayLocked()
	}
	h.log.Info().Int("connections", remaining).Msg("websocket client disconnected")
}

func (h *Hub) startRelayLocked() {
	sub, err := h.bus.Subscribe(notify.Channel)
	if err != nil {
		h.log.Error().Err(err).Msg("broadcast subscribe failed, relay not started")
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	h.relayCancel = cancel
	h.relayDone = make(chan struct{})
	go h.relay(ctx, sub)
}

func (h *Hub) stopRelayLocked() {
	if h.relayCancel == nil {
		return
	}
	h.relayCancel()
	<-h.relayDone
	h.relayCancel = nil
	h.relayDone = nil
}

// RelayRunning reports whether the shared relay task currently holds a
// broadcast subscription.
func (h *Hub) RelayRunning() bool {
	h.relayMu.Lock()
	defer h.relayMu.Unlock()
	return h.relayCancel != nil
}

// relay is the single shared consumer loop: one subscription feeding every
// live connection. A failure delivering to one connection never aborts
// delivery to the rest.
func (h *Hub) relay(ctx context.Context, sub *bus.Subscription) {
	defer close(h.relayDone)
	defer func() { sub.Unsubscribe() }()

	for {
		payload, err := sub.Next(ctx, pollWait)
		switch {
		case err == nil:
			h.fanOut(payload)
		case errors.Is(err, bus.ErrTimeout):
			continue
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			return
		case errors.Is(err, bus.ErrClosed):
			// Broadcast medium went away under us: back off and resubscribe
			// instead of killing the relay.
			next, rerr := h.resubscribe(ctx)
			if rerr != nil {
				return
			}
			sub.Unsubscribe()
			sub = next
		default:
			h.log.Error().Err(err).Msg("relay poll failed")
			return
		}
	}
}

func (h *Hub) resubscribe(ctx context.Context) (*bus.Subscription, error) {
	for {
		sub, err := h.bus.Subscribe(notify.Channel)
		if err == nil {
			h.log.Info().Msg("relay resubscribed to broadcast channel")
			return sub, nil
		}
		h.log.Warn().Err(err).Msg("relay resubscribe failed, backing off")
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(resubscribeBackoff):
		}
	}
}

// fanOut validates the payload once and delivers it to every live
// connection. Connections with a full send buffer are scheduled for removal
// without aborting delivery to the rest.
func (h *Hub) fanOut(payload []byte) {
	env, err := notify.Decode(payload)
	if err != nil {
		// One bad message never crashes the relay loop.
		h.log.Warn().Err(err).Msg("dropping malformed broadcast message")
		return
	}
	data, err := notify.Encode(env)
	if err != nil {
		h.log.Error().Err(err).Msg("re-encoding envelope failed")
		return
	}

	stale, sent := h.registry.broadcast(data)
	for _, c := range stale {
		h.log.Warn().Msg("client send buffer full, scheduling removal")
		go h.removeClient(c)
	}
	h.log.Debug().
		Str("event_type", string(env.EventType)).
		Int64("reminder_id", env.ReminderID).
		Int("sent", sent).
		Msg("notification relayed")
}
