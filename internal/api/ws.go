package api

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"

	"github.com/fmaric77/polmatch-sub004/internal/hub"
	"github.com/fmaric77/polmatch-sub004/internal/service"
)

// idleTimeout bounds how long a connection may go without any inbound
// traffic, including pong replies to the write pump's pings. A peer that
// stops responding is detected here and unregistered.
const idleTimeout = 90 * time.Second

func upgradeRequired(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}
	return c.Next()
}

// handleWS runs for the lifetime of one live subscription. The write pump
// drains the client's frame queue; the read loop here only consumes control
// traffic and detects the peer going away.
func (s *Server) handleWS(conn *websocket.Conn) {
	cl, ok := conn.Locals("caller").(service.Caller)
	if !ok {
		_ = conn.Close()
		return
	}

	client := s.hub.Register(cl.UserID, conn)
	if err := s.presence.Connected(context.Background(), cl.UserID); err != nil {
		s.log.Warnw("presence connect", "user", cl.UserID, "err", err)
	}
	s.log.Infow("ws connected", "user", cl.UserID, "client", client.ID)

	client.Push(hub.Frame{
		Type:    hub.EventConnectionEstablished,
		Payload: fiber.Map{"client_id": client.ID},
	})

	go client.WritePump(s.hub)

	_ = conn.SetReadDeadline(time.Now().Add(idleTimeout))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(idleTimeout))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
		// inbound frames are ignored; the socket is push-only
		_ = conn.SetReadDeadline(time.Now().Add(idleTimeout))
	}

	s.hub.Unregister(client)
	if err := s.presence.Disconnected(context.Background(), cl.UserID); err != nil {
		s.log.Warnw("presence disconnect", "user", cl.UserID, "err", err)
	}
	s.log.Infow("ws disconnected", "user", cl.UserID, "client", client.ID)
}
