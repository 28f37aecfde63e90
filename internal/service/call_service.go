package service

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"github.com/fmaric77/polmatch-sub004/internal/apperr"
	"github.com/fmaric77/polmatch-sub004/internal/hub"
	"github.com/fmaric77/polmatch-sub004/internal/models"
)

// CallService relays voice-call signaling frames between live connections.
// Nothing is persisted: a recipient with no live connection simply misses
// the signal, matching the best-effort contract of live push.
type CallService struct {
	hub Notifier
	pub Publisher
	log *zap.SugaredLogger
}

func NewCallService(n Notifier, pub Publisher, log *zap.SugaredLogger) *CallService {
	return &CallService{hub: n, pub: pub, log: log}
}

type CallSignal struct {
	FromUserID     string                `json:"from_user_id"`
	ProfileContext models.ProfileContext `json:"profile_type"`
	Payload        json.RawMessage       `json:"payload"`
}

// Signal forwards an opaque signaling payload to the recipient's live
// connections. Returns the number of local connections reached.
func (s *CallService) Signal(ctx context.Context, caller Caller, recipientID string, pc models.ProfileContext, payload json.RawMessage) (int, error) {
	if !pc.Valid() {
		return 0, apperr.InvalidProfileContext("unknown profile context")
	}
	if recipientID == "" || recipientID == caller.UserID {
		return 0, apperr.InvalidParticipants("recipient must be another user")
	}
	sig := CallSignal{FromUserID: caller.UserID, ProfileContext: pc, Payload: payload}
	if s.pub != nil {
		if err := s.pub.Publish(ctx, hub.EventCallSignal, []string{recipientID}, sig); err != nil {
			s.log.Warnw("call signal publish", "err", err)
		}
	}
	return s.hub.PushToUser(recipientID, hub.Frame{Type: hub.EventCallSignal, Payload: sig}), nil
}
