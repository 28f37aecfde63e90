package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/fmaric77/polmatch-sub004/internal/apperr"
	"github.com/fmaric77/polmatch-sub004/internal/models"
)

type ConversationRepo struct {
	coll *mongo.Collection
}

func NewConversationRepo(db *mongo.Database) *ConversationRepo {
	return &ConversationRepo{coll: db.Collection(CollConversations)}
}

// GetOrCreateDirect upserts the metadata record keyed on the derived
// conversation key. Safe under concurrent calls from both participants:
// the key is the _id, so at most one record can exist; a lost upsert race
// surfaces as a duplicate key and is answered by re-reading.
func (r *ConversationRepo) GetOrCreateDirect(ctx context.Context, conv *models.Conversation) (*models.Conversation, error) {
	if !conv.ValidConversation() {
		return nil, apperr.InvalidParticipants("conversation requires two participants and a valid context")
	}
	now := time.Now().UTC()
	_, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": conv.Key},
		bson.M{"$setOnInsert": bson.M{
			"participant_ids": conv.ParticipantIDs,
			"profile_context": conv.ProfileContext,
			"created_at":      now,
			"updated_at":      now,
		}},
		options.Update().SetUpsert(true),
	)
	if err != nil && !mongo.IsDuplicateKeyError(err) {
		return nil, wrapStore(err)
	}
	return r.Get(ctx, conv.Key)
}

func (r *ConversationRepo) Get(ctx context.Context, key string) (*models.Conversation, error) {
	var c models.Conversation
	if err := r.coll.FindOne(ctx, bson.M{"_id": key}).Decode(&c); err != nil {
		return nil, wrapStore(err)
	}
	return &c, nil
}

// ListForUser returns the user's conversations newest-updated first,
// optionally narrowed to one profile context.
func (r *ConversationRepo) ListForUser(ctx context.Context, userID string, pc models.ProfileContext) ([]*models.Conversation, error) {
	filter := bson.M{"participant_ids": userID}
	if pc != "" {
		filter["profile_context"] = pc
	}
	opts := options.Find().SetSort(bson.D{{Key: "updated_at", Value: -1}})
	cur, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, wrapStore(err)
	}
	defer cur.Close(ctx)
	var out []*models.Conversation
	for cur.Next(ctx) {
		var c models.Conversation
		if err := cur.Decode(&c); err != nil {
			return nil, wrapStore(err)
		}
		out = append(out, &c)
	}
	return out, wrapStore(cur.Err())
}

// Touch bumps updated_at and the encrypted preview after a message append.
func (r *ConversationRepo) Touch(ctx context.Context, key string, at time.Time, preview string) error {
	_, err := r.coll.UpdateOne(ctx, bson.M{"_id": key}, bson.M{"$set": bson.M{
		"updated_at":           at,
		"last_message_preview": preview,
	}})
	return wrapStore(err)
}
