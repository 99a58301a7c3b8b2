package ws

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/acelee0621/memenote/internal/bus"
	"github.com/acelee0621/memenote/internal/notify"
)

func newHubServer(t *testing.T) (*bus.Bus, *Hub, *httptest.Server) {
	t.Helper()
	b := bus.New(0, zerolog.Nop())
	h := NewHub(b, NewRegistry(), zerolog.Nop())
	srv := httptest.NewServer(http.HandlerFunc(h.HandleWebSocket))
	t.Cleanup(srv.Close)
	return b, h, srv
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func waitFor(t *testing.T, pred func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if pred() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition not met before timeout")
}

func publishEnvelope(t *testing.T, b *bus.Bus, id int64, msg string) {
	t.Helper()
	payload, err := notify.Encode(notify.Envelope{
		EventType:  notify.EventCreated,
		ReminderID: id,
		UserID:     1,
		DueTime:    time.Now().UTC(),
		Message:    msg,
	})
	require.NoError(t, err)
	b.Publish(notify.Channel, payload)
}

func readEnvelope(t *testing.T, conn *websocket.Conn) notify.Envelope {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	env, err := notify.Decode(data)
	require.NoError(t, err)
	return env
}

func TestFanOutToAllConnections(t *testing.T) {
	b, h, srv := newHubServer(t)

	conns := []*websocket.Conn{dial(t, srv), dial(t, srv), dial(t, srv)}
	waitFor(t, func() bool { return h.registry.Len() == 3 })

	publishEnvelope(t, b, 42, "Buy milk")

	for _, conn := range conns {
		env := readEnvelope(t, conn)
		assert.Equal(t, int64(42), env.ReminderID)
		assert.Equal(t, "Buy milk", env.Message)
	}
}

func TestFailedConnectionDoesNotBlockOthers(t *testing.T) {
	b, h, srv := newHubServer(t)

	healthy1 := dial(t, srv)
	broken := dial(t, srv)
	healthy2 := dial(t, srv)
	waitFor(t, func() bool { return h.registry.Len() == 3 })

	require.NoError(t, broken.Close())

	publishEnvelope(t, b, 7, "still delivered")

	for _, conn := range []*websocket.Conn{healthy1, healthy2} {
		env := readEnvelope(t, conn)
		assert.Equal(t, "still delivered", env.Message)
	}

	// The broken connection is eventually cleaned out of the registry.
	waitFor(t, func() bool { return h.registry.Len() == 2 })
}

func TestMalformedBroadcastIsDropped(t *testing.T) {
	b, h, srv := newHubServer(t)

	conn := dial(t, srv)
	waitFor(t, func() bool { return h.registry.Len() == 1 })

	b.Publish(notify.Channel, []byte("not an envelope"))
	publishEnvelope(t, b, 9, "after the bad one")

	env := readEnvelope(t, conn)
	assert.Equal(t, int64(9), env.ReminderID)
}

func TestRelaySubscriptionReleasedAfterLastDisconnect(t *testing.T) {
	_, h, srv := newHubServer(t)

	conn1 := dial(t, srv)
	conn2 := dial(t, srv)
	waitFor(t, func() bool { return h.RelayRunning() })

	require.NoError(t, conn1.Close())
	waitFor(t, func() bool { return h.registry.Len() == 1 })
	assert.True(t, h.RelayRunning())

	require.NoError(t, conn2.Close())
	waitFor(t, func() bool { return h.registry.Len() == 0 })
	waitFor(t, func() bool { return !h.RelayRunning() })
}

func TestInboundMessagesAreIgnored(t *testing.T) {
	b, h, srv := newHubServer(t)

	conn := dial(t, srv)
	waitFor(t, func() bool { return h.registry.Len() == 1 })

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("hello server")))

	publishEnvelope(t, b, 5, "unaffected")
	env := readEnvelope(t, conn)
	assert.Equal(t, int64(5), env.ReminderID)
	assert.Equal(t, 1, h.registry.Len())
}
