package websocket

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startHub(t *testing.T) (*Hub, string) {
	t.Helper()

	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)

	server := httptest.NewServer(ServeWS(hub))
	t.Cleanup(func() {
		server.Close()
		cancel()
	})

	return hub, "ws" + strings.TrimPrefix(server.URL, "http")
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()

	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	return conn
}

func TestHubBroadcastsToAllClients(t *testing.T) {
	hub, url := startHub(t)

	first := dial(t, url)
	second := dial(t, url)

	require.Eventually(t, func() bool { return hub.ClientCount() == 2 },
		2*time.Second, 10*time.Millisecond)

	payload := []byte(`{"type":"event.updated","data":{"id":1},"timestamp":1734294000}`)
	hub.Broadcast(payload)

	for _, conn := range []*websocket.Conn{first, second} {
		conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		_, message, err := conn.ReadMessage()
		require.NoError(t, err)
		assert.JSONEq(t, string(payload), string(message))
	}
}

func TestHubUnregistersClosedClients(t *testing.T) {
	hub, url := startHub(t)

	conn := dial(t, url)
	keeper := dial(t, url)

	require.Eventually(t, func() bool { return hub.ClientCount() == 2 },
		2*time.Second, 10*time.Millisecond)

	conn.Close()

	require.Eventually(t, func() bool { return hub.ClientCount() == 1 },
		2*time.Second, 10*time.Millisecond)

	// The surviving client still receives broadcasts.
	hub.Broadcast([]byte(`{"type":"ingestion.completed"}`))
	keeper.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, message, err := keeper.ReadMessage()
	require.NoError(t, err)
	assert.Contains(t, string(message), "ingestion.completed")
}

func TestServeWSRejectsPlainRequests(t *testing.T) {
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	server := httptest.NewServer(ServeWS(hub))
	defer server.Close()

	resp, err := server.Client().Get(server.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, 400, resp.StatusCode)
	assert.Equal(t, 0, hub.ClientCount())
}
