package events

import (
	"net/http"
	"sync"
	"time"

	"gridcast/internal/core/domain"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Should be configured properly for production
	},
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// client wraps one connection with a write mutex. Broadcast and the ping
// loop write from different goroutines and the websocket permits only one
// concurrent writer.
type client struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *client) writeJSON(timeout time.Duration, v interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(timeout))
	return c.conn.WriteJSON(v)
}

func (c *client) writePing(timeout time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(timeout))
	return c.conn.WriteMessage(websocket.PingMessage, nil)
}

// Hub fans session and recording change events out to connected WebSocket
// clients. Clients are read-only consumers; anything they send is discarded.
type Hub struct {
	clients map[*client]struct{}
	mu      sync.RWMutex

	pingInterval time.Duration
	writeTimeout time.Duration

	logger *zap.SugaredLogger
}

func NewHub(logger *zap.SugaredLogger) *Hub {
	return &Hub{
		clients:      make(map[*client]struct{}),
		pingInterval: 30 * time.Second,
		writeTimeout: 10 * time.Second,
		logger:       logger,
	}
}

// HandleWebSocket upgrades the request and keeps the connection registered
// until the client goes away.
func (h *Hub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Errorw("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	cl := &client{conn: conn}

	h.mu.Lock()
	h.clients[cl] = struct{}{}
	count := len(h.clients)
	h.mu.Unlock()

	h.logger.Infow("event client connected", "clients", count)

	pingTicker := time.NewTicker(h.pingInterval)
	defer pingTicker.Stop()

	errorChan := make(chan error, 1)
	go func() {
		for {
			// drain and discard; the read also surfaces close errors
			if _, _, err := conn.ReadMessage(); err != nil {
				errorChan <- err
				return
			}
		}
	}()

	for {
		select {
		case <-pingTicker.C:
			if err := cl.writePing(h.writeTimeout); err != nil {
				h.logger.Infow("error sending ping", "error", err)
				goto cleanup
			}

		case err := <-errorChan:
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.logger.Infow("error reading from event client", "error", err)
			}
			goto cleanup
		}
	}

cleanup:
	h.mu.Lock()
	delete(h.clients, cl)
	count = len(h.clients)
	h.mu.Unlock()

	h.logger.Infow("event client disconnected", "clients", count)
}

// Broadcast sends one change event to every connected client. Failed writes
// drop the connection; the client's read loop will notice and clean up.
func (h *Hub) Broadcast(event domain.ChangeEvent) {
	h.mu.RLock()
	clients := make([]*client, 0, len(h.clients))
	for cl := range h.clients {
		clients = append(clients, cl)
	}
	h.mu.RUnlock()

	for _, cl := range clients {
		if err := cl.writeJSON(h.writeTimeout, event); err != nil {
			h.logger.Infow("dropping event client on failed write", "error", err)
			cl.conn.Close()
		}
	}
}

// ClientCount reports how many event clients are connected.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
