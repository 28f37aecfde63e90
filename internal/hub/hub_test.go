package hub

import (
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubConn struct {
	mu       sync.Mutex
	writes   [][]byte
	writeErr error
	closed   bool
}

func (s *stubConn) WriteMessage(_ int, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.writeErr != nil {
		return s.writeErr
	}
	cp := make([]byte, len(data))
	copy(cp, data)
	s.writes = append(s.writes, cp)
	return nil
}

func (s *stubConn) WriteControl(int, []byte, time.Time) error { return nil }
func (s *stubConn) SetWriteDeadline(time.Time) error          { return nil }

func (s *stubConn) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *stubConn) written() [][]byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([][]byte, len(s.writes))
	copy(out, s.writes)
	return out
}

func newTestHub() *Hub {
	return New(zap.NewNop().Sugar(), time.Minute, time.Second)
}

func TestPushToUserDeliversToAllConnections(t *testing.T) {
	h := newTestHub()
	c1 := h.Register("u1", &stubConn{})
	c2 := h.Register("u1", &stubConn{})
	defer h.Unregister(c1)
	defer h.Unregister(c2)

	n := h.PushToUser("u1", Frame{Type: EventNewMessage, Payload: map[string]string{"id": "m1"}})
	assert.Equal(t, 2, n)
	assert.Equal(t, 2, h.Connections("u1"))
}

func TestPushToUserNoConnections(t *testing.T) {
	h := newTestHub()
	n := h.PushToUser("absent", Frame{Type: EventNewMessage})
	assert.Zero(t, n)
}

func TestUnregisterIsSynchronous(t *testing.T) {
	h := newTestHub()
	c := h.Register("u1", &stubConn{})
	h.Unregister(c)

	assert.Zero(t, h.Connections("u1"))
	assert.Zero(t, h.PushToUser("u1", Frame{Type: EventNewMessage}))
}

func TestUnregisterTwiceIsSafe(t *testing.T) {
	h := newTestHub()
	c := h.Register("u1", &stubConn{})
	h.Unregister(c)
	h.Unregister(c)
	assert.Zero(t, h.Connections("u1"))
}

func TestWritePumpFlushesFrames(t *testing.T) {
	h := newTestHub()
	conn := &stubConn{}
	c := h.Register("u1", conn)
	go c.WritePump(h)

	h.PushToUser("u1", Frame{Type: EventNewInvitation, Payload: map[string]string{"id": "inv1"}})

	require.Eventually(t, func() bool { return len(conn.written()) == 1 }, time.Second, 5*time.Millisecond)

	var f Frame
	require.NoError(t, json.Unmarshal(conn.written()[0], &f))
	assert.Equal(t, EventNewInvitation, f.Type)

	h.Unregister(c)
	require.Eventually(t, func() bool {
		conn.mu.Lock()
		defer conn.mu.Unlock()
		return conn.closed
	}, time.Second, 5*time.Millisecond)
}

func TestWritePumpStopsOnDeadTransport(t *testing.T) {
	h := newTestHub()
	conn := &stubConn{writeErr: errors.New("broken pipe")}
	c := h.Register("u1", conn)

	done := make(chan struct{})
	go func() { c.WritePump(h); close(done) }()

	// push must not panic or block even though the transport is dead
	h.PushToUser("u1", Frame{Type: EventNewMessage})

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("write pump did not stop after transport failure")
	}
	h.Unregister(c)
}

func TestSlowConsumerDropsInsteadOfBlocking(t *testing.T) {
	h := newTestHub()
	conn := &stubConn{}
	c := h.Register("u1", conn)
	defer h.Unregister(c)
	// no write pump running: fill the buffer
	for i := 0; i < 64; i++ {
		require.Equal(t, 1, h.PushToUser("u1", Frame{Type: EventNewMessage}))
	}
	// buffer full now; push must return without blocking
	assert.Zero(t, h.PushToUser("u1", Frame{Type: EventNewMessage}))
}
