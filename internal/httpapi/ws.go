package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"imsgd/internal/bus"
)

const (
	writeWait    = 10 * time.Second
	pingInterval = 30 * time.Second
	clientBuffer = 16
)

// wsEnvelope is the frame shape pushed to WebSocket clients.
type wsEnvelope struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// Hub pushes fresh conversation snapshots to connected WebSocket
// clients whenever the bus announces a chat.db change. Clients that
// cannot keep up miss frames; the next change delivers a full snapshot
// anyway.
type Hub struct {
	store    Store
	bus      *bus.Bus
	logger   *zap.Logger
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*wsClient]struct{}
	cancel  context.CancelFunc
}

type wsClient struct {
	id   string
	conn *websocket.Conn
	send chan []byte
}

// NewHub creates the hub.
func NewHub(store Store, b *bus.Bus, logger *zap.Logger) *Hub {
	return &Hub{
		store:  store,
		bus:    b,
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			// The API is already origin-open via CORS; the socket
			// carries no credentials.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		clients: make(map[*wsClient]struct{}),
	}
}

// Run listens for change events until Stop or context cancellation.
func (h *Hub) Run(ctx context.Context) {
	ctx, h.cancel = context.WithCancel(ctx)
	sub := h.bus.Subscribe("chatdb.", 16)

	go func() {
		defer sub.Close()
		for {
			select {
			case <-sub.C:
				h.broadcastSnapshot()
			case <-ctx.Done():
				h.closeAll()
				return
			}
		}
	}()
}

// Stop disconnects all clients and stops the event loop.
func (h *Hub) Stop() {
	if h.cancel != nil {
		h.cancel()
	}
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	s.hub.serve(w, r)
}

func (h *Hub) serve(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("ws upgrade failed", zap.Error(err))
		return
	}

	c := &wsClient{
		id:   uuid.New().String(),
		conn: conn,
		send: make(chan []byte, clientBuffer),
	}

	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
	h.logger.Info("ws client connected", zap.String("client", c.id))

	// New clients get the current snapshot immediately.
	if frame, ok := h.snapshotFrame(); ok {
		c.send <- frame
	}

	go h.writePump(c)
	go h.readPump(c)
}

func (h *Hub) readPump(c *wsClient) {
	defer h.drop(c)
	for {
		// Inbound frames are ignored; the socket is push-only.
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) writePump(c *wsClient) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case frame, ok := <-c.send:
			if !ok {
				return
			}
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				h.drop(c)
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				h.drop(c)
				return
			}
		}
	}
}

func (h *Hub) drop(c *wsClient) {
	h.mu.Lock()
	_, present := h.clients[c]
	if present {
		delete(h.clients, c)
		close(c.send)
	}
	h.mu.Unlock()

	if present {
		_ = c.conn.Close()
		h.logger.Info("ws client disconnected", zap.String("client", c.id))
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	clients := make([]*wsClient, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
		close(c.send)
	}
	h.clients = make(map[*wsClient]struct{})
	h.mu.Unlock()

	for _, c := range clients {
		_ = c.conn.Close()
	}
}

func (h *Hub) broadcastSnapshot() {
	frame, ok := h.snapshotFrame()
	if !ok {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		select {
		case c.send <- frame:
		default:
		}
	}
}

func (h *Hub) snapshotFrame() ([]byte, bool) {
	convs, err := h.store.ListConversations()
	if err != nil {
		h.logger.Error("snapshot query failed", zap.Error(err))
		return nil, false
	}
	frame, err := json.Marshal(wsEnvelope{Type: "conversations", Data: convs})
	if err != nil {
		h.logger.Error("snapshot encode failed", zap.Error(err))
		return nil, false
	}
	return frame, true
}
