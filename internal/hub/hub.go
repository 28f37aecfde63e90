// Package hub holds the process-wide registry of live connections and fans
// out event frames to them. Delivery is best-effort and at-most-once: a
// recipient with zero live connections is skipped, a slow connection drops
// the frame, and send success is never tied to delivery.
package hub

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fmaric77/polmatch-sub004/internal/metrics"
)

const (
	EventConnectionEstablished = "CONNECTION_ESTABLISHED"
	EventNewMessage            = "NEW_MESSAGE"
	EventNewInvitation         = "NEW_INVITATION"
	EventCallSignal            = "CALL_SIGNAL"
)

// Frame is the wire format for pushed events.
type Frame struct {
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
}

// Conn is the transport side of a live connection. *websocket.Conn satisfies
// it; tests substitute stubs.
type Conn interface {
	WriteMessage(messageType int, data []byte) error
	WriteControl(messageType int, data []byte, deadline time.Time) error
	SetWriteDeadline(t time.Time) error
	Close() error
}

type Client struct {
	ID          string
	UserID      string
	ConnectedAt time.Time

	conn Conn
	send chan []byte
	done chan struct{}
	once sync.Once
}

// Hub is created once at startup and injected where fan-out is needed.
type Hub struct {
	mu     sync.RWMutex
	byUser map[string]map[*Client]struct{}

	log           *zap.SugaredLogger
	pingInterval  time.Duration
	writeDeadline time.Duration
}

func New(log *zap.SugaredLogger, pingInterval, writeDeadline time.Duration) *Hub {
	return &Hub{
		byUser:        make(map[string]map[*Client]struct{}),
		log:           log,
		pingInterval:  pingInterval,
		writeDeadline: writeDeadline,
	}
}

// Register adds a connection for a user. Multiple connections per user are
// allowed (multi-device); each gets its own handle.
func (h *Hub) Register(userID string, conn Conn) *Client {
	c := &Client{
		ID:          uuid.New().String(),
		UserID:      userID,
		ConnectedAt: time.Now().UTC(),
		conn:        conn,
		send:        make(chan []byte, 64),
		done:        make(chan struct{}),
	}
	h.mu.Lock()
	set, ok := h.byUser[userID]
	if !ok {
		set = make(map[*Client]struct{})
		h.byUser[userID] = set
	}
	set[c] = struct{}{}
	h.mu.Unlock()
	metrics.ActiveConnections.Inc()
	return c
}

// Unregister removes the client synchronously with transport close so a
// later push can never route into a dead handle.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	if set, ok := h.byUser[c.UserID]; ok {
		if _, present := set[c]; present {
			delete(set, c)
			metrics.ActiveConnections.Dec()
		}
		if len(set) == 0 {
			delete(h.byUser, c.UserID)
		}
	}
	h.mu.Unlock()
	c.once.Do(func() { close(c.done) })
}

// PushToUser serializes a frame once and hands it to every live connection
// of the user. Returns the number of connections that accepted the frame.
func (h *Hub) PushToUser(userID string, f Frame) int {
	b, err := json.Marshal(f)
	if err != nil {
		h.log.Warnw("frame marshal", "type", f.Type, "err", err)
		return 0
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	delivered := 0
	for c := range h.byUser[userID] {
		select {
		case c.send <- b:
			delivered++
			metrics.FramesPushed.WithLabelValues(f.Type).Inc()
		default:
			// slow consumer, drop rather than block the caller
			metrics.FramesDropped.Inc()
		}
	}
	return delivered
}

// Push queues a frame on this connection only, used for frames addressed to
// a single device such as the connect acknowledgement.
func (c *Client) Push(f Frame) bool {
	b, err := json.Marshal(f)
	if err != nil {
		return false
	}
	select {
	case c.send <- b:
		return true
	default:
		metrics.FramesDropped.Inc()
		return false
	}
}

// Connections reports the live connection count for a user.
func (h *Hub) Connections(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.byUser[userID])
}

// WritePump drains the client's queue onto the transport, pinging on an
// interval. Write failures end the pump; the caller unregisters on return.
func (c *Client) WritePump(h *Hub) {
	ticker := time.NewTicker(h.pingInterval)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()
	for {
		select {
		case b := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(h.writeDeadline))
			if err := c.conn.WriteMessage(websocket.TextMessage, b); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(h.writeDeadline))
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(time.Second)); err != nil {
				return
			}
		case <-c.done:
			_ = c.conn.WriteControl(websocket.CloseMessage, nil, time.Now().Add(time.Second))
			return
		}
	}
}
