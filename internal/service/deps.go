package service

import (
	"context"
	"time"

	"github.com/fmaric77/polmatch-sub004/internal/hub"
	"github.com/fmaric77/polmatch-sub004/internal/models"
	"github.com/fmaric77/polmatch-sub004/internal/repository"
)

// Store ports, implemented by internal/repository and replaced by stubs in
// tests.

type ConversationStore interface {
	GetOrCreateDirect(ctx context.Context, conv *models.Conversation) (*models.Conversation, error)
	Get(ctx context.Context, key string) (*models.Conversation, error)
	ListForUser(ctx context.Context, userID string, pc models.ProfileContext) ([]*models.Conversation, error)
	Touch(ctx context.Context, key string, at time.Time, preview string) error
}

type MessageStore interface {
	Insert(ctx context.Context, m *models.Message) error
	Get(ctx context.Context, id string) (*models.Message, error)
	List(ctx context.Context, q repository.MessageQuery) ([]*models.Message, string, error)
	SoftDelete(ctx context.Context, id string) error
	HardDelete(ctx context.Context, id string) error
	AddReaction(ctx context.Context, id, emoji, userID string) error
	SetPinned(ctx context.Context, id string, pinned bool) error
}

type GroupStore interface {
	Create(ctx context.Context, g *models.Group) error
	Get(ctx context.Context, id string) (*models.Group, error)
	ResolveChannel(ctx context.Context, groupID, channelID string) (*models.Channel, error)
	IsMember(ctx context.Context, groupID, userID string) (bool, error)
	AddMember(ctx context.Context, groupID, userID string) error
	RemoveMember(ctx context.Context, groupID, userID string) error
}

type InvitationStore interface {
	Create(ctx context.Context, inv *models.Invitation) error
	Get(ctx context.Context, id string) (*models.Invitation, error)
	ListPending(ctx context.Context, userID string, pc models.ProfileContext) ([]*models.Invitation, error)
	Summary(ctx context.Context, userID string) (map[models.ProfileContext]int64, error)
	MarkResponded(ctx context.Context, id, userID string, status models.InvitationStatus) (bool, error)
}

// Notifier pushes a frame to every live connection of a user; best-effort.
type Notifier interface {
	PushToUser(userID string, f hub.Frame) int
}

// Publisher spreads an event to other server instances.
type Publisher interface {
	Publish(ctx context.Context, eventType string, recipients []string, payload any) error
}
