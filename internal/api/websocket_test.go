package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHubBroadcast(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := NewHub()
	go hub.Run(ctx)

	server := httptest.NewServer(http.HandlerFunc(hub.HandleLive))
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws/live"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	// Give the hub a moment to process the registration.
	time.Sleep(50 * time.Millisecond)

	sent := PriceUpdate{Symbol: "AAPL", Price: 184.25, Volume: 1000, Timestamp: time.Now().UTC()}
	hub.Broadcast(sent)

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, payload, err := conn.ReadMessage()
	require.NoError(t, err)

	var got PriceUpdate
	require.NoError(t, json.Unmarshal(payload, &got))
	assert.Equal(t, "AAPL", got.Symbol)
	assert.Equal(t, 184.25, got.Price)
}

func TestHubBroadcastWithoutSubscribers(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := NewHub()
	go hub.Run(ctx)

	// Must not block or panic with nobody listening.
	for i := 0; i < 100; i++ {
		hub.Broadcast(PriceUpdate{Symbol: "AAPL", Price: float64(i)})
	}
}
