package api

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"

	"github.com/fmaric77/polmatch-sub004/internal/apperr"
	"github.com/fmaric77/polmatch-sub004/internal/auth"
	"github.com/fmaric77/polmatch-sub004/internal/hub"
	"github.com/fmaric77/polmatch-sub004/internal/metrics"
	"github.com/fmaric77/polmatch-sub004/internal/presence"
	"github.com/fmaric77/polmatch-sub004/internal/service"
)

type Server struct {
	app      *fiber.App
	hub      *hub.Hub
	presence *presence.Store
	log      *zap.SugaredLogger

	messages    *service.MessageService
	invitations *service.InvitationService
	calls       *service.CallService

	sendLimit int
}

func NewServer(
	validator *auth.Validator,
	h *hub.Hub,
	pres *presence.Store,
	messages *service.MessageService,
	invitations *service.InvitationService,
	calls *service.CallService,
	sendLimit int,
	log *zap.SugaredLogger,
) *Server {
	s := &Server{
		hub:         h,
		presence:    pres,
		log:         log,
		messages:    messages,
		invitations: invitations,
		calls:       calls,
		sendLimit:   sendLimit,
	}

	app := fiber.New(fiber.Config{
		ReadTimeout:           10 * time.Second,
		DisableStartupMessage: true,
	})
	app.Use(recover.New())
	app.Use(cors.New())

	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})
	app.Get("/metrics", metrics.Handler())

	api := app.Group("/api", AuthMiddleware(validator))

	api.Post("/conversations/direct/messages", s.rateLimited, s.handleSendDirect)
	api.Get("/conversations/direct", s.handleListConversations)
	api.Get("/conversations/direct/:key/messages", s.handleListDirectMessages)

	api.Post("/groups", s.handleCreateGroup)
	api.Post("/groups/:group_id/channels/:channel_id/messages", s.rateLimited, s.handleSendGroup)
	api.Get("/groups/:group_id/channels/:channel_id/messages", s.handleListGroupMessages)
	api.Delete("/groups/:group_id/channels/:channel_id/messages", s.handleDeleteGroupMessage)

	api.Post("/messages/:message_id/reactions", s.handleReact)
	api.Post("/messages/:message_id/pin", s.handlePin)

	api.Post("/groups/:group_id/invitations", s.handleInvite)
	api.Get("/invitations", s.handleListInvitations)
	api.Get("/invitations/summary", s.handleInvitationSummary)
	api.Post("/invitations/:id/respond", s.handleRespondInvitation)

	api.Post("/calls/signal", s.handleCallSignal)

	api.Get("/ws", upgradeRequired, websocket.New(s.handleWS))

	s.app = app
	return s
}

// rateLimited caps message sends per user with a fixed one-minute window.
// A Redis outage fails open: losing the limiter must not take sends down.
func (s *Server) rateLimited(c *fiber.Ctx) error {
	ok, err := s.presence.Allow(c.Context(), caller(c).UserID, s.sendLimit, time.Minute)
	if err != nil {
		s.log.Warnw("rate limiter", "err", err)
		return c.Next()
	}
	if !ok {
		return respondError(c, apperr.RateLimited("send rate limit exceeded"))
	}
	return c.Next()
}

func (s *Server) Listen(port int) error {
	return s.app.Listen(fmt.Sprintf(":%d", port))
}

func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}
