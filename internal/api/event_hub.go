package api

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/meetgrid/backend/internal/middleware"
	"github.com/meetgrid/backend/pkg/response"
)

// Event types pushed over the websocket. The stream is advisory:
// clients still poll the REST endpoints for authoritative state.
const (
	EventNewMessage      = "new_message"
	EventRequestReceived = "request_received"
	EventRequestAccepted = "request_accepted"
)

// Event is the wire frame pushed to connected clients.
type Event struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type wsClient struct {
	userID uuid.UUID
	conn   *websocket.Conn
	send   chan []byte
}

// EventHub keeps a per-user registry of websocket clients and fans
// events out to all devices of a user.
type EventHub struct {
	mu      sync.RWMutex
	clients map[uuid.UUID]map[*wsClient]bool
	logger  *zap.Logger
}

func NewEventHub(logger *zap.Logger) *EventHub {
	return &EventHub{
		clients: make(map[uuid.UUID]map[*wsClient]bool),
		logger:  logger,
	}
}

func (h *EventHub) register(c *wsClient) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[c.userID]; !ok {
		h.clients[c.userID] = make(map[*wsClient]bool)
	}
	h.clients[c.userID][c] = true
	h.logger.Debug("ws client registered", zap.String("user_id", c.userID.String()))
}

func (h *EventHub) unregister(c *wsClient) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if userClients, ok := h.clients[c.userID]; ok {
		if _, ok := userClients[c]; ok {
			delete(userClients, c)
			if len(userClients) == 0 {
				delete(h.clients, c.userID)
			}
			close(c.send)
		}
	}
}

// SendToUser pushes an event to every connected client of a user. A
// nil hub or an absent user is a no-op; slow clients are skipped
// rather than blocked on.
func (h *EventHub) SendToUser(userID uuid.UUID, event Event) {
	if h == nil {
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	userClients, ok := h.clients[userID]
	if !ok {
		return
	}

	frame, err := json.Marshal(event)
	if err != nil {
		h.logger.Error("marshal event", zap.Error(err))
		return
	}

	for c := range userClients {
		select {
		case c.send <- frame:
		default:
		}
	}
}

// Connected reports how many clients the user has attached. Used by
// tests and debug logging.
func (h *EventHub) Connected(userID uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID])
}

// Serve handles GET /api/ws. Runs behind AuthMiddleware.
func (h *EventHub) Serve(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		response.Unauthorized(w, "authentication required")
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	client := &wsClient{
		userID: user.ID,
		conn:   conn,
		send:   make(chan []byte, 16),
	}
	h.register(client)

	go client.writePump()
	go client.readPump(h)
}

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

func (c *wsClient) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case frame, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump drains client frames so control messages are processed.
// The stream is server-to-client only; inbound data is discarded.
func (c *wsClient) readPump(h *EventHub) {
	defer func() {
		h.unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}
