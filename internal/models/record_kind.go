package models

import "go.mongodb.org/mongo-driver/bson"

// RecordKind tags a stored document as conversation metadata or as a message.
// Earlier data contained message-shaped documents inside the conversations
// collection; the kind is decided once here and never re-inferred downstream
// by field-presence probing.
type RecordKind string

const (
	KindConversation RecordKind = "conversation"
	KindMessage      RecordKind = "message"
	KindMalformed    RecordKind = "malformed"
)

// ClassifyRecord decides the kind of a raw document. A message always has a
// sender_id plus content; conversation metadata has participant_ids and must
// never carry content.
func ClassifyRecord(doc bson.M) RecordKind {
	_, hasContent := doc["content"]
	_, hasSender := doc["sender_id"]
	_, hasParticipants := doc["participant_ids"]

	if hasSender && hasContent {
		return KindMessage
	}
	if hasParticipants && !hasContent && !hasSender {
		return KindConversation
	}
	return KindMalformed
}

// ValidConversation reports whether a metadata record honours the structural
// invariant: participants present, no content, no sender.
func (c *Conversation) ValidConversation() bool {
	return len(c.ParticipantIDs) == 2 && c.ProfileContext.Valid()
}

// ValidMessage reports whether a message record honours the structural
// invariant: sender and content both present.
func (m *Message) ValidMessage() bool {
	return m.SenderID != "" && m.Content != ""
}
