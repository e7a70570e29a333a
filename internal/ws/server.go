package ws

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait = 10 * time.Second
	// events held for a display that is still receiving its snapshot
	maxPending = 256
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// SnapshotFunc returns the state a newly connected display starts from.
type SnapshotFunc func(ctx context.Context) (any, error)

type Message struct {
	Type   string    `json:"type"`
	Data   any       `json:"data,omitempty"`
	SentAt time.Time `json:"sentAt"`
}

type client struct {
	conn    *websocket.Conn
	writeMu sync.Mutex
	ready   bool
	pending []Message
}

func (c *client) writeJSON(value any) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.write(value)
}

func (c *client) write(value any) error {
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteJSON(value)
}

// send delivers msg, or queues it while the client waits for its snapshot.
func (c *client) send(msg Message) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if !c.ready {
		if len(c.pending) >= maxPending {
			return errors.New("kitchen client backlog full")
		}
		c.pending = append(c.pending, msg)
		return nil
	}
	return c.write(msg)
}

// start writes first (when set), then every event queued since subscribing.
func (c *client) start(first *Message) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if first != nil {
		if err := c.write(*first); err != nil {
			return err
		}
	}
	for _, msg := range c.pending {
		if err := c.write(msg); err != nil {
			return err
		}
	}
	c.pending = nil
	c.ready = true
	return nil
}

func (c *client) ping() error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
}

// Hub fans kitchen events out to every connected display.
type Hub struct {
	logger    *zap.Logger
	heartbeat time.Duration
	snapshot  SnapshotFunc

	mu      sync.RWMutex
	clients map[*client]struct{}
}

func NewHub(logger *zap.Logger, heartbeat time.Duration, snapshot SnapshotFunc) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	if heartbeat <= 0 {
		heartbeat = 30 * time.Second
	}
	return &Hub{
		logger:    logger,
		heartbeat: heartbeat,
		snapshot:  snapshot,
		clients:   make(map[*client]struct{}),
	}
}

func (h *Hub) subscribe(c *client) (unsubscribe func()) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()

	return func() {
		h.mu.Lock()
		delete(h.clients, c)
		h.mu.Unlock()
	}
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) Broadcast(eventType string, payload any) {
	h.mu.RLock()
	clients := make([]*client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	if len(clients) == 0 {
		return
	}

	msg := Message{Type: eventType, Data: payload, SentAt: time.Now().UTC()}
	for _, c := range clients {
		if err := c.send(msg); err != nil {
			h.logger.Debug("dropping kitchen client", zap.Error(err))
			_ = c.conn.Close()
			h.mu.Lock()
			delete(h.clients, c)
			h.mu.Unlock()
		}
	}
}

// KitchenWS upgrades the request and streams events until the display
// disconnects. Authentication happens in middleware before this runs.
func (h *Hub) KitchenWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	ctx := r.Context()
	c := &client{conn: conn}

	// Subscribe before reading the snapshot so nothing broadcast in between is lost.
	unsubscribe := h.subscribe(c)
	defer unsubscribe()

	var first *Message
	if h.snapshot != nil {
		state, err := h.snapshot(ctx)
		if err != nil {
			h.logger.Error("kitchen snapshot failed", zap.Error(err))
			_ = c.writeJSON(Message{Type: "error", Data: "snapshot unavailable", SentAt: time.Now().UTC()})
			return
		}
		first = &Message{Type: "kitchen.state", Data: state, SentAt: time.Now().UTC()}
	}
	if err := c.start(first); err != nil {
		return
	}

	_ = conn.SetReadDeadline(time.Now().Add(2 * h.heartbeat))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(2 * h.heartbeat))
	})

	clientClosed := make(chan struct{})
	go func() {
		defer close(clientClosed)
		for {
			if _, _, readErr := conn.ReadMessage(); readErr != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-clientClosed:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := c.ping(); err != nil {
				return
			}
		}
	}
}
