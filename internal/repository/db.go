package repository

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/fmaric77/polmatch-sub004/internal/apperr"
	"github.com/fmaric77/polmatch-sub004/internal/config"
)

// One collection per record kind, profile context carried as a discriminator
// field with composite indexes. Collection names live here only.
const (
	CollConversations = "conversations"
	CollMessages      = "messages"
	CollGroups        = "groups"
	CollChannels      = "channels"
	CollInvitations   = "group_invitations"
	CollQuarantine    = "quarantine"
)

func NewMongoClient(cfg *config.Config) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	mc, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.Mongo.URI))
	if err != nil {
		return nil, err
	}
	if err := mc.Ping(ctx, readpref.Primary()); err != nil {
		return nil, err
	}
	return mc, nil
}

// EnsureIndexes creates the indexes the store-level invariants rely on. The
// unique pending-invitation index and the conversation key (as _id) are what
// keep concurrent creates correct across server instances.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection(CollConversations).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "participant_ids", Value: 1}, {Key: "profile_context", Value: 1}}},
		{Keys: bson.D{{Key: "updated_at", Value: -1}}},
	})
	if err != nil {
		return err
	}
	_, err = db.Collection(CollMessages).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "conversation_key", Value: 1}, {Key: "created_at", Value: 1}, {Key: "_id", Value: 1}}},
		{Keys: bson.D{{Key: "group_id", Value: 1}, {Key: "channel_id", Value: 1}, {Key: "created_at", Value: 1}}},
	})
	if err != nil {
		return err
	}
	_, err = db.Collection(CollChannels).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "group_id", Value: 1}},
	})
	if err != nil {
		return err
	}
	_, err = db.Collection(CollInvitations).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "group_id", Value: 1}, {Key: "invited_user_id", Value: 1}, {Key: "profile_context", Value: 1}},
			Options: options.Index().
				SetUnique(true).
				SetPartialFilterExpression(bson.D{{Key: "status", Value: "pending"}}),
		},
		{Keys: bson.D{{Key: "invited_user_id", Value: 1}, {Key: "profile_context", Value: 1}, {Key: "status", Value: 1}, {Key: "created_at", Value: -1}}},
	})
	return err
}

// wrapStore normalizes driver errors into the taxonomy so callers can tell
// an outage apart from an absent record.
func wrapStore(err error) error {
	if err == nil {
		return nil
	}
	var ae *apperr.AppError
	if errors.As(err, &ae) {
		return err
	}
	if errors.Is(err, mongo.ErrNoDocuments) {
		return apperr.NotFound("record not found")
	}
	if mongo.IsDuplicateKeyError(err) {
		return apperr.ConflictRetryable("duplicate key on create", err)
	}
	return apperr.StoreUnavailable(err)
}
