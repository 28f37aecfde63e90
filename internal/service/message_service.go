package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/fmaric77/polmatch-sub004/internal/apperr"
	"github.com/fmaric77/polmatch-sub004/internal/convkey"
	"github.com/fmaric77/polmatch-sub004/internal/crypto"
	"github.com/fmaric77/polmatch-sub004/internal/hub"
	"github.com/fmaric77/polmatch-sub004/internal/models"
	"github.com/fmaric77/polmatch-sub004/internal/repository"
)

const fanoutTimeout = 5 * time.Second

// Caller is the authenticated actor a handler resolved for the request.
type Caller struct {
	UserID  string
	IsAdmin bool
}

type MessageService struct {
	convs  ConversationStore
	msgs   MessageStore
	groups GroupStore
	codec  *crypto.Codec
	hub    Notifier
	pub    Publisher
	log    *zap.SugaredLogger
}

func NewMessageService(convs ConversationStore, msgs MessageStore, groups GroupStore, codec *crypto.Codec, n Notifier, pub Publisher, log *zap.SugaredLogger) *MessageService {
	return &MessageService{convs: convs, msgs: msgs, groups: groups, codec: codec, hub: n, pub: pub, log: log}
}

// SendDirect stores a direct message, lazily creating the conversation for
// the (pair, context) on first contact. Success is decided by durable
// persistence alone; live delivery happens after return, best-effort.
func (s *MessageService) SendDirect(ctx context.Context, caller Caller, recipientID string, pc models.ProfileContext, content, replyTo string) (*models.Message, error) {
	if content == "" {
		return nil, apperr.BadRequest("content required")
	}
	key, pair, err := convkey.DirectKey(caller.UserID, recipientID, pc)
	if err != nil {
		return nil, err
	}
	conv, err := s.convs.GetOrCreateDirect(ctx, &models.Conversation{
		Key:            key,
		ParticipantIDs: pair,
		ProfileContext: pc,
	})
	if err != nil {
		return nil, err
	}

	blob, err := s.codec.Encode(content)
	if err != nil {
		return nil, err
	}
	m := &models.Message{
		ConversationKey: key,
		SenderID:        caller.UserID,
		RecipientID:     recipientID,
		ProfileContext:  pc,
		Content:         blob,
		ReplyTo:         replyTo,
	}
	if err := s.msgs.Insert(ctx, m); err != nil {
		return nil, err
	}
	if err := s.convs.Touch(ctx, key, m.CreatedAt, blob); err != nil {
		s.log.Warnw("conversation touch", "key", key, "err", err)
	}

	// the stored record carries the blob; everything leaving the service,
	// live push included, carries plaintext
	out := *m
	out.Content = content
	s.fanout(hub.EventNewMessage, conv.ParticipantIDs, &out)
	return &out, nil
}

// ListDirectMessages pages a conversation log in ascending order. The caller
// must be one of the two participants.
func (s *MessageService) ListDirectMessages(ctx context.Context, caller Caller, key, cursor string, limit int64) ([]*models.Message, string, error) {
	conv, err := s.convs.Get(ctx, key)
	if err != nil {
		return nil, "", err
	}
	if !contains(conv.ParticipantIDs, caller.UserID) {
		return nil, "", apperr.NotParticipant("not a participant of this conversation")
	}
	msgs, next, err := s.msgs.List(ctx, repository.MessageQuery{ConversationKey: key, Cursor: cursor, Limit: limit})
	if err != nil {
		return nil, "", err
	}
	s.decodeAll(msgs)
	return msgs, next, nil
}

// ListConversations returns the caller's conversations newest-updated first.
// An empty context means all three.
func (s *MessageService) ListConversations(ctx context.Context, caller Caller, pc models.ProfileContext) ([]*models.Conversation, error) {
	if pc != "" && !pc.Valid() {
		return nil, apperr.InvalidProfileContext("unknown profile context")
	}
	convs, err := s.convs.ListForUser(ctx, caller.UserID, pc)
	if err != nil {
		return nil, err
	}
	// previews are stored as blobs like message content
	for _, c := range convs {
		if c.LastMessagePreview == "" {
			continue
		}
		pt, err := s.codec.Decode(c.LastMessagePreview)
		if err != nil {
			s.log.Warnw("preview decode", "key", c.Key, "err", err)
			c.LastMessagePreview = ""
			continue
		}
		c.LastMessagePreview = pt
	}
	return convs, nil
}

// CreateGroup creates a group with its default channel, owned by the caller.
func (s *MessageService) CreateGroup(ctx context.Context, caller Caller, name string, pc models.ProfileContext) (*models.Group, error) {
	if name == "" {
		return nil, apperr.BadRequest("group name required")
	}
	if !pc.Valid() {
		return nil, apperr.InvalidProfileContext("unknown profile context")
	}
	g := &models.Group{
		Name:           name,
		OwnerID:        caller.UserID,
		ProfileContext: pc,
	}
	if err := s.groups.Create(ctx, g); err != nil {
		return nil, err
	}
	return g, nil
}

// SendGroup appends to a channel log; sender must be an accepted member.
// An empty or "default" channel id resolves the group's default channel.
func (s *MessageService) SendGroup(ctx context.Context, caller Caller, groupID, channelID, content, replyTo string) (*models.Message, error) {
	if content == "" {
		return nil, apperr.BadRequest("content required")
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
		return nil, apperr.NotMember("sender is not a member of this group")
	}
	ch, err := s.groups.ResolveChannel(ctx, groupID, channelID)
	if err != nil {
		return nil, err
	}

	blob, err := s.codec.Encode(content)
	if err != nil {
		return nil, err
	}
	m := &models.Message{
		GroupID:        groupID,
		ChannelID:      ch.ID,
		SenderID:       caller.UserID,
		ProfileContext: g.ProfileContext,
		Content:        blob,
		ReplyTo:        replyTo,
	}
	if err := s.msgs.Insert(ctx, m); err != nil {
		return nil, err
	}

	out := *m
	out.Content = content
	s.fanout(hub.EventNewMessage, g.Members, &out)
	return &out, nil
}

func (s *MessageService) ListGroupMessages(ctx context.Context, caller Caller, groupID, channelID, cursor string, limit int64) ([]*models.Message, string, error) {
	// a missing group is NotFound here just like on send, not NotMember
	if _, err := s.groups.Get(ctx, groupID); err != nil {
		return nil, "", err
	}
	ok, err := s.groups.IsMember(ctx, groupID, caller.UserID)
	if err != nil {
		return nil, "", err
	}
	if !ok {
		return nil, "", apperr.NotMember("not a member of this group")
	}
	ch, err := s.groups.ResolveChannel(ctx, groupID, channelID)
	if err != nil {
		return nil, "", err
	}
	msgs, next, err := s.msgs.List(ctx, repository.MessageQuery{GroupID: groupID, ChannelID: ch.ID, Cursor: cursor, Limit: limit})
	if err != nil {
		return nil, "", err
	}
	s.decodeAll(msgs)
	return msgs, next, nil
}

// DeleteGroupMessage removes a message from a channel. Only the sender or an
// admin may delete; soft delete unless hard is requested.
func (s *MessageService) DeleteGroupMessage(ctx context.Context, caller Caller, groupID, channelID, messageID string, hard bool) error {
	ch, err := s.groups.ResolveChannel(ctx, groupID, channelID)
	if err != nil {
		return err
	}
	m, err := s.msgs.Get(ctx, messageID)
	if err != nil {
		return err
	}
	if m.GroupID != groupID || m.ChannelID != ch.ID {
		return apperr.NotFound("message not found in this channel")
	}
	if m.SenderID != caller.UserID && !caller.IsAdmin {
		return apperr.Forbidden("only the sender or an admin can delete")
	}
	if hard {
		return s.msgs.HardDelete(ctx, messageID)
	}
	return s.msgs.SoftDelete(ctx, messageID)
}

// React adds a reaction; the caller must be able to see the message.
func (s *MessageService) React(ctx context.Context, caller Caller, messageID, emoji string) error {
	if emoji == "" {
		return apperr.BadRequest("emoji required")
	}
	m, err := s.msgs.Get(ctx, messageID)
	if err != nil {
		return err
	}
	if err := s.canSee(ctx, caller, m); err != nil {
		return err
	}
	return s.msgs.AddReaction(ctx, messageID, emoji, caller.UserID)
}

// SetPinned pins or unpins a message for everyone who can see it.
func (s *MessageService) SetPinned(ctx context.Context, caller Caller, messageID string, pinned bool) error {
	m, err := s.msgs.Get(ctx, messageID)
	if err != nil {
		return err
	}
	if err := s.canSee(ctx, caller, m); err != nil {
		return err
	}
	return s.msgs.SetPinned(ctx, messageID, pinned)
}

// canSee checks that the caller is a participant of the message's
// conversation or a member of its group.
func (s *MessageService) canSee(ctx context.Context, caller Caller, m *models.Message) error {
	if m.ConversationKey != "" {
		conv, err := s.convs.Get(ctx, m.ConversationKey)
		if err != nil {
			return err
		}
		if !contains(conv.ParticipantIDs, caller.UserID) {
			return apperr.NotParticipant("not a participant of this conversation")
		}
		return nil
	}
	ok, err := s.groups.IsMember(ctx, m.GroupID, caller.UserID)
	if err != nil {
		return err
	}
	if !ok {
		return apperr.NotMember("not a member of this group")
	}
	return nil
}

// fanout delivers the event off the request path. The triggering request
// never blocks on, nor fails from, delivery.
func (s *MessageService) fanout(eventType string, recipients []string, payload any) {
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

func (s *MessageService) decodeAll(msgs []*models.Message) {
	for _, m := range msgs {
		if m.Deleted {
			m.Content = ""
			continue
		}
		pt, err := s.codec.Decode(m.Content)
		if err != nil {
			s.log.Warnw("content decode", "message_id", m.ID, "err", err)
			continue
		}
		m.Content = pt
	}
}

func contains(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func dedup(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := ids[:0:0]
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
