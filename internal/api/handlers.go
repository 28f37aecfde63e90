package api

import (
	"encoding/json"

	"github.com/gofiber/fiber/v2"

	"github.com/fmaric77/polmatch-sub004/internal/apperr"
	"github.com/fmaric77/polmatch-sub004/internal/models"
)

type sendDirectRequest struct {
	RecipientID    string                `json:"recipient_id"`
	ProfileContext models.ProfileContext `json:"profile_type"`
	Content        string                `json:"content"`
	ReplyTo        string                `json:"reply_to,omitempty"`
}

func (s *Server) handleSendDirect(c *fiber.Ctx) error {
	var req sendDirectRequest
	if err := c.BodyParser(&req); err != nil {
		return respondError(c, apperr.BadRequest("invalid request body"))
	}
	m, err := s.messages.SendDirect(c.Context(), caller(c), req.RecipientID, req.ProfileContext, req.Content, req.ReplyTo)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(m)
}

func (s *Server) handleListConversations(c *fiber.Ctx) error {
	pc := models.ProfileContext(c.Query("profile_type"))
	convs, err := s.messages.ListConversations(c.Context(), caller(c), pc)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"conversations": convs})
}

func (s *Server) handleListDirectMessages(c *fiber.Ctx) error {
	msgs, next, err := s.messages.ListDirectMessages(c.Context(), caller(c),
		c.Params("key"), c.Query("cursor"), int64(c.QueryInt("limit")))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"messages": msgs, "next_cursor": next})
}

type createGroupRequest struct {
	Name           string                `json:"name"`
	ProfileContext models.ProfileContext `json:"profile_type"`
}

func (s *Server) handleCreateGroup(c *fiber.Ctx) error {
	var req createGroupRequest
	if err := c.BodyParser(&req); err != nil {
		return respondError(c, apperr.BadRequest("invalid request body"))
	}
	g, err := s.messages.CreateGroup(c.Context(), caller(c), req.Name, req.ProfileContext)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(g)
}

type sendGroupRequest struct {
	Content string `json:"content"`
	ReplyTo string `json:"reply_to,omitempty"`
}

func (s *Server) handleSendGroup(c *fiber.Ctx) error {
	var req sendGroupRequest
	if err := c.BodyParser(&req); err != nil {
		return respondError(c, apperr.BadRequest("invalid request body"))
	}
	m, err := s.messages.SendGroup(c.Context(), caller(c), c.Params("group_id"), c.Params("channel_id"), req.Content, req.ReplyTo)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(m)
}

func (s *Server) handleListGroupMessages(c *fiber.Ctx) error {
	msgs, next, err := s.messages.ListGroupMessages(c.Context(), caller(c),
		c.Params("group_id"), c.Params("channel_id"), c.Query("cursor"), int64(c.QueryInt("limit")))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"messages": msgs, "next_cursor": next})
}

type deleteMessageRequest struct {
	MessageID string `json:"message_id"`
}

func (s *Server) handleDeleteGroupMessage(c *fiber.Ctx) error {
	var req deleteMessageRequest
	if err := c.BodyParser(&req); err != nil {
		return respondError(c, apperr.BadRequest("invalid request body"))
	}
	hard := c.Query("mode") == "hard"
	if err := s.messages.DeleteGroupMessage(c.Context(), caller(c),
		c.Params("group_id"), c.Params("channel_id"), req.MessageID, hard); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"deleted": true})
}

type reactionRequest struct {
	Emoji string `json:"emoji"`
}

func (s *Server) handleReact(c *fiber.Ctx) error {
	var req reactionRequest
	if err := c.BodyParser(&req); err != nil {
		return respondError(c, apperr.BadRequest("invalid request body"))
	}
	if err := s.messages.React(c.Context(), caller(c), c.Params("message_id"), req.Emoji); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"reacted": true})
}

type pinRequest struct {
	Pinned bool `json:"pinned"`
}

func (s *Server) handlePin(c *fiber.Ctx) error {
	var req pinRequest
	if err := c.BodyParser(&req); err != nil {
		return respondError(c, apperr.BadRequest("invalid request body"))
	}
	if err := s.messages.SetPinned(c.Context(), caller(c), c.Params("message_id"), req.Pinned); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"pinned": req.Pinned})
}

type inviteRequest struct {
	InvitedUserID  string                `json:"invited_user_id"`
	ProfileContext models.ProfileContext `json:"profile_type"`
}

func (s *Server) handleInvite(c *fiber.Ctx) error {
	var req inviteRequest
	if err := c.BodyParser(&req); err != nil {
		return respondError(c, apperr.BadRequest("invalid request body"))
	}
	inv, err := s.invitations.Invite(c.Context(), caller(c), c.Params("group_id"), req.InvitedUserID, req.ProfileContext)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(inv)
}

func (s *Server) handleListInvitations(c *fiber.Ctx) error {
	pc := models.ProfileContext(c.Query("profile_type"))
	invs, err := s.invitations.ListPending(c.Context(), caller(c), pc)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"invitations": invs})
}

func (s *Server) handleInvitationSummary(c *fiber.Ctx) error {
	sum, err := s.invitations.Summary(c.Context(), caller(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"summary": sum})
}

type respondRequest struct {
	Status models.InvitationStatus `json:"status"`
}

func (s *Server) handleRespondInvitation(c *fiber.Ctx) error {
	var req respondRequest
	if err := c.BodyParser(&req); err != nil {
		return respondError(c, apperr.BadRequest("invalid request body"))
	}
	inv, err := s.invitations.Respond(c.Context(), caller(c), c.Params("id"), req.Status)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(inv)
}

type callSignalRequest struct {
	RecipientID    string                `json:"recipient_id"`
	ProfileContext models.ProfileContext `json:"profile_type"`
	Payload        json.RawMessage       `json:"payload"`
}

func (s *Server) handleCallSignal(c *fiber.Ctx) error {
	var req callSignalRequest
	if err := c.BodyParser(&req); err != nil {
		return respondError(c, apperr.BadRequest("invalid request body"))
	}
	delivered, err := s.calls.Signal(c.Context(), caller(c), req.RecipientID, req.ProfileContext, req.Payload)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"delivered": delivered})
}
