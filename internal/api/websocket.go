package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"tradesim/internal/marketdata"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(*http.Request) bool { return true },
}

// PriceUpdate is the message broadcast to live-price subscribers.
type PriceUpdate struct {
	Symbol    string    `json:"symbol"`
	Price     float64   `json:"price"`
	Volume    int64     `json:"volume"`
	Timestamp time.Time `json:"timestamp"`
}

// client is one WebSocket subscriber managed by the Hub.
type client struct {
	conn *websocket.Conn
	send chan []byte
}

// Hub fans live price updates out to all connected WebSocket clients.
// Delivery is best effort: a subscriber that cannot keep up is dropped, and
// a failed send to one client never blocks delivery to the others.
type Hub struct {
	clients    map[*client]bool
	broadcast  chan []byte
	register   chan *client
	unregister chan *client
	logger     zerolog.Logger
}

// NewHub creates a Hub with initialised channels and client map.
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*client]bool),
		broadcast:  make(chan []byte, 64),
		register:   make(chan *client),
		unregister: make(chan *client),
		logger:     log.With().Str("component", "ws_hub").Logger(),
	}
}

// Run drives the hub's event loop until the context is cancelled. It should
// be launched as a goroutine.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			for c := range h.clients {
				close(c.send)
				delete(h.clients, c)
			}
			return
		case c := <-h.register:
			h.clients[c] = true
			h.logger.Info().Int("clients", len(h.clients)).Msg("WebSocket client connected")
		case c := <-h.unregister:
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
				h.logger.Info().Int("clients", len(h.clients)).Msg("WebSocket client disconnected")
			}
		case message := <-h.broadcast:
			for c := range h.clients {
				select {
				case c.send <- message:
				default:
					// Slow consumer: drop it rather than stall the rest.
					close(c.send)
					delete(h.clients, c)
				}
			}
		}
	}
}

// Broadcast queues a price update for delivery to all subscribers.
func (h *Hub) Broadcast(update PriceUpdate) {
	payload, err := json.Marshal(update)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to marshal price update")
		return
	}
	select {
	case h.broadcast <- payload:
	default:
		h.logger.Warn().Msg("Broadcast queue full, dropping update")
	}
}

// HandleLive upgrades the HTTP connection to a WebSocket and registers the
// client with the hub.
func (h *Hub) HandleLive(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}

	c := &client{conn: conn, send: make(chan []byte, 16)}
	h.register <- c

	go c.writePump()
	go c.readPump(h)
}

// writePump forwards queued messages to the connection until the send
// channel is closed.
func (c *client) writePump() {
	defer c.conn.Close()
	for message := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
			return
		}
	}
}

// readPump drains inbound frames so close/ping handling works; any read
// error unregisters the client.
func (c *client) readPump(h *Hub) {
	defer func() {
		h.unregister <- c
		c.conn.Close()
	}()
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

// StreamPrices polls the market data provider at the given cadence and
// broadcasts the latest close to the hub until the context is cancelled.
func StreamPrices(ctx context.Context, hub *Hub, md *marketdata.Client, symbol, interval string, every time.Duration) {
	logger := log.With().Str("component", "price_streamer").Str("symbol", symbol).Logger()
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			candles, err := md.GetCandles(ctx, symbol, interval, 1)
			if err != nil {
				logger.Warn().Err(err).Msg("Failed to fetch latest price")
				continue
			}
			latest := candles[len(candles)-1]
			hub.Broadcast(PriceUpdate{
				Symbol:    symbol,
				Price:     latest.Close,
				Volume:    latest.Volume,
				Timestamp: time.Now(),
			})
		}
	}
}
