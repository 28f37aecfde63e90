package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/fmaric77/polmatch-sub004/internal/apperr"
	"github.com/fmaric77/polmatch-sub004/internal/hub"
	"github.com/fmaric77/polmatch-sub004/internal/models"
)

type InvitationService struct {
	invs   InvitationStore
	groups GroupStore
	hub    Notifier
	pub    Publisher
	log    *zap.SugaredLogger
}

func NewInvitationService(invs InvitationStore, groups GroupStore, n Notifier, pub Publisher, log *zap.SugaredLogger) *InvitationService {
	return &InvitationService{invs: invs, groups: groups, hub: n, pub: pub, log: log}
}

// Invite creates a pending invitation. Inviter must be a member; a second
// pending invite for the same (group, user, context) fails as duplicate.
func (s *InvitationService) Invite(ctx context.Context, caller Caller, groupID, invitedUserID string, pc models.ProfileContext) (*models.Invitation, error) {
	if !pc.Valid() {
		return nil, apperr.InvalidProfileContext("unknown profile context")
	}
	if invitedUserID == "" {
		return nil, apperr.BadRequest("invited_user_id required")
	}
	if invitedUserID == caller.UserID {
		return nil, apperr.BadRequest("cannot invite yourself")
	}
	g, err := s.groups.Get(ctx, groupID)
	if err != nil {
		return nil, err
	}
	ok, err := s.groups.IsMember(ctx, groupID, caller.UserID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperr.NotMember("inviter is not a member of this group")
	}
	already, err := s.groups.IsMember(ctx, groupID, invitedUserID)
	if err != nil {
		return nil, err
	}
	if already {
		return nil, apperr.BadRequest("user is already a member")
	}

	inv := &models.Invitation{
		GroupID:        groupID,
		GroupName:      g.Name,
		InviterID:      caller.UserID,
		InvitedUserID:  invitedUserID,
		ProfileContext: pc,
	}
	if err := s.invs.Create(ctx, inv); err != nil {
		return nil, err
	}

	s.fanout(hub.EventNewInvitation, []string{invitedUserID}, inv)
	return inv, nil
}

// Respond drives pending -> accepted|declined. Accepting adds the invited
// user to the group before the status flips: membership add is idempotent,
// so a crash between the two steps leaves a pending invitation whose
// re-accept converges, and "accepted but not a member" is unreachable.
func (s *InvitationService) Respond(ctx context.Context, caller Caller, invitationID string, status models.InvitationStatus) (*models.Invitation, error) {
	if !status.ValidResponse() {
		return nil, apperr.BadRequest("status must be accepted or declined")
	}
	inv, err := s.invs.Get(ctx, invitationID)
	if err != nil {
		return nil, err
	}
	if inv.InvitedUserID != caller.UserID {
		return nil, apperr.Forbidden("invitation is addressed to another user")
	}
	if inv.Status != models.InvitationPending {
		return nil, apperr.BadRequest("invitation already responded")
	}

	if status == models.InvitationAccepted {
		if err := s.groups.AddMember(ctx, inv.GroupID, caller.UserID); err != nil {
			return nil, err
		}
	}
	flipped, err := s.invs.MarkResponded(ctx, invitationID, caller.UserID, status)
	if err != nil {
		return nil, err
	}
	if !flipped {
		// lost a race with another response; undo the membership add if the
		// surviving response was a decline
		current, gerr := s.invs.Get(ctx, invitationID)
		if gerr == nil && status == models.InvitationAccepted && current.Status == models.InvitationDeclined {
			if rerr := s.groups.RemoveMember(ctx, inv.GroupID, caller.UserID); rerr != nil {
				s.log.Warnw("membership rollback", "group", inv.GroupID, "err", rerr)
			}
		}
		return nil, apperr.BadRequest("invitation already responded")
	}
	inv.Status = status
	return inv, nil
}

// ListPending returns only pending rows, newest first, in one context.
func (s *InvitationService) ListPending(ctx context.Context, caller Caller, pc models.ProfileContext) ([]*models.Invitation, error) {
	if !pc.Valid() {
		return nil, apperr.InvalidProfileContext("unknown profile context")
	}
	return s.invs.ListPending(ctx, caller.UserID, pc)
}

// Summary counts pending invitations per profile context.
func (s *InvitationService) Summary(ctx context.Context, caller Caller) (map[models.ProfileContext]int64, error) {
	return s.invs.Summary(ctx, caller.UserID)
}

func (s *InvitationService) fanout(eventType string, recipients []string, payload any) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), fanoutTimeout)
		defer cancel()
		if s.pub != nil {
			if err := s.pub.Publish(ctx, eventType, recipients, payload); err != nil {
				s.log.Warnw("event publish", "type", eventType, "err", err)
			}
		}
		f := hub.Frame{Type: eventType, Payload: payload}
		for _, uid := range dedup(recipients) {
			s.hub.PushToUser(uid, f)
		}
	}()
}
