package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/spectra-metals/spectra-server/internal/infrastructure/messaging"
	"go.uber.org/zap"
)

const (
	writeWait  = 10 * time.Second
	pingPeriod = 30 * time.Second
)

// Envelope is the frame pushed to browsers on every price update.
type Envelope struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

// Hub fans price updates out to connected websocket clients.
type Hub struct {
	upgrader websocket.Upgrader
	logger   *zap.Logger

	mu      sync.Mutex
	clients map[*client]struct{}
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

// NewHub creates the hub. Connections are accepted from any origin; the
// price stream carries no per-user data.
func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		logger:  logger,
		clients: make(map[*client]struct{}),
	}
}

// Run subscribes to the price channel and broadcasts every message until
// ctx is cancelled. Call it in its own goroutine.
func (h *Hub) Run(ctx context.Context, redis messaging.RedisClient, channel string) {
	messages, err := redis.Subscribe(ctx, channel)
	if err != nil {
		h.logger.Error("Failed to subscribe to price channel",
			zap.String("channel", channel),
			zap.Error(err))
		return
	}

	for msg := range messages {
		var prices map[string]interface{}
		if err := json.Unmarshal(msg.Payload, &prices); err != nil {
			h.logger.Warn("Dropping malformed price message", zap.Error(err))
			continue
		}
		h.Broadcast("updatePrices", prices)
	}
}

// Broadcast pushes one event to every connected client. Slow clients are
// dropped rather than allowed to block the fan-out.
func (h *Hub) Broadcast(event string, data interface{}) {
	payload, err := json.Marshal(Envelope{Event: event, Data: data})
	if err != nil {
		h.logger.Error("Failed to marshal broadcast", zap.Error(err))
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	for c := range h.clients {
		select {
		case c.send <- payload:
		default:
			delete(h.clients, c)
			close(c.send)
		}
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Handle upgrades the request and serves the connection until it closes.
func (h *Hub) Handle(c echo.Context) error {
	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		h.logger.Warn("Websocket upgrade failed", zap.Error(err))
		return err
	}

	cl := &client{
		conn: conn,
		send: make(chan []byte, 16),
	}

	h.mu.Lock()
	h.clients[cl] = struct{}{}
	h.mu.Unlock()

	h.logger.Debug("Websocket client connected",
		zap.String("remote", conn.RemoteAddr().String()))

	go h.writeLoop(cl)
	h.readLoop(cl)
	return nil
}

func (h *Hub) writeLoop(cl *client) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	defer cl.conn.Close()

	for {
		select {
		case payload, ok := <-cl.send:
			if !ok {
				cl.conn.WriteControl(websocket.CloseMessage, nil, time.Now().Add(writeWait))
				return
			}
			cl.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := cl.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			cl.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := cl.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readLoop drains the connection so close frames and pongs are processed.
func (h *Hub) readLoop(cl *client) {
	defer func() {
		h.mu.Lock()
		if _, ok := h.clients[cl]; ok {
			delete(h.clients, cl)
			close(cl.send)
		}
		h.mu.Unlock()
		cl.conn.Close()
	}()

	for {
		if _, _, err := cl.conn.ReadMessage(); err != nil {
			return
		}
	}
}
