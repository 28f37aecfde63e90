package models

import "time"

type User struct {
	UserID           string `bson:"_id" json:"user_id"`
	Username         string `bson:"username" json:"username"`
	IsAdmin          bool   `bson:"is_admin" json:"is_admin"`
	TwoFactorEnabled bool   `bson:"two_factor_enabled" json:"two_factor_enabled"`
}

// Conversation is the metadata record for a direct conversation. It never
// carries message content; messages live in their own collection keyed by
// the same conversation key.
type Conversation struct {
	Key                string         `bson:"_id" json:"conversation_key"`
	ParticipantIDs     []string       `bson:"participant_ids" json:"participant_ids"`
	ProfileContext     ProfileContext `bson:"profile_context" json:"profile_context"`
	CreatedAt          time.Time      `bson:"created_at" json:"created_at"`
	UpdatedAt          time.Time      `bson:"updated_at" json:"updated_at"`
	LastMessagePreview string         `bson:"last_message_preview,omitempty" json:"last_message_preview,omitempty"`
}

// Message is immutable after creation except for soft state
// (reactions, pin, delete-marking).
type Message struct {
	ID              string              `bson:"_id" json:"id"`
	ConversationKey string              `bson:"conversation_key,omitempty" json:"conversation_key,omitempty"`
	GroupID         string              `bson:"group_id,omitempty" json:"group_id,omitempty"`
	ChannelID       string              `bson:"channel_id,omitempty" json:"channel_id,omitempty"`
	SenderID        string              `bson:"sender_id" json:"sender_id"`
	RecipientID     string              `bson:"recipient_id,omitempty" json:"recipient_id,omitempty"`
	ProfileContext  ProfileContext      `bson:"profile_context" json:"profile_context"`
	Content         string              `bson:"content" json:"content"`
	ReplyTo         string              `bson:"reply_to,omitempty" json:"reply_to,omitempty"`
	Reactions       map[string][]string `bson:"reactions,omitempty" json:"reactions,omitempty"`
	Pinned          bool                `bson:"pinned,omitempty" json:"pinned,omitempty"`
	Deleted         bool                `bson:"deleted,omitempty" json:"deleted,omitempty"`
	CreatedAt       time.Time           `bson:"created_at" json:"created_at"`
}

type Group struct {
	ID               string         `bson:"_id" json:"group_id"`
	Name             string         `bson:"name" json:"name"`
	OwnerID          string         `bson:"owner_id" json:"owner_id"`
	ProfileContext   ProfileContext `bson:"profile_context" json:"profile_context"`
	Members          []string       `bson:"members" json:"members"`
	DefaultChannelID string         `bson:"default_channel_id" json:"default_channel_id"`
	CreatedAt        time.Time      `bson:"created_at" json:"created_at"`
	UpdatedAt        time.Time      `bson:"updated_at" json:"updated_at"`
}

type Channel struct {
	ID        string    `bson:"_id" json:"channel_id"`
	GroupID   string    `bson:"group_id" json:"group_id"`
	Name      string    `bson:"name" json:"name"`
	IsDefault bool      `bson:"is_default" json:"is_default"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}

type InvitationStatus string

const (
	InvitationPending  InvitationStatus = "pending"
	InvitationAccepted InvitationStatus = "accepted"
	InvitationDeclined InvitationStatus = "declined"
)

func (s InvitationStatus) ValidResponse() bool {
	return s == InvitationAccepted || s == InvitationDeclined
}

type Invitation struct {
	ID             string           `bson:"_id" json:"invitation_id"`
	GroupID        string           `bson:"group_id" json:"group_id"`
	GroupName      string           `bson:"group_name" json:"group_name"`
	InviterID      string           `bson:"inviter_id" json:"inviter_id"`
	InvitedUserID  string           `bson:"invited_user_id" json:"invited_user_id"`
	Status         InvitationStatus `bson:"status" json:"status"`
	ProfileContext ProfileContext   `bson:"profile_context" json:"profile_type"`
	CreatedAt      time.Time        `bson:"created_at" json:"created_at"`
	RespondedAt    *time.Time       `bson:"responded_at,omitempty" json:"responded_at,omitempty"`
}
