package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/fmaric77/polmatch-sub004/internal/apperr"
	"github.com/fmaric77/polmatch-sub004/internal/models"
)

type GroupRepo struct {
	groups   *mongo.Collection
	channels *mongo.Collection
}

func NewGroupRepo(db *mongo.Database) *GroupRepo {
	return &GroupRepo{
		groups:   db.Collection(CollGroups),
		channels: db.Collection(CollChannels),
	}
}

// Create inserts the group together with its designated default channel.
// The channel goes in first: a crash between the two writes leaves an
// orphan channel nothing references, while the reverse order would leave a
// group whose default channel cannot resolve.
func (r *GroupRepo) Create(ctx context.Context, g *models.Group) error {
	now := time.Now().UTC()
	if g.ID == "" {
		g.ID = uuid.New().String()
	}
	ch := &models.Channel{
		ID:        uuid.New().String(),
		GroupID:   g.ID,
		Name:      "general",
		IsDefault: true,
		CreatedAt: now,
	}
	g.DefaultChannelID = ch.ID
	g.CreatedAt = now
	g.UpdatedAt = now
	if g.Members == nil {
		g.Members = []string{g.OwnerID}
	}
	if _, err := r.channels.InsertOne(ctx, ch); err != nil {
		return wrapStore(err)
	}
	if _, err := r.groups.InsertOne(ctx, g); err != nil {
		return wrapStore(err)
	}
	return nil
}

func (r *GroupRepo) Get(ctx context.Context, id string) (*models.Group, error) {
	var g models.Group
	if err := r.groups.FindOne(ctx, bson.M{"_id": id}).Decode(&g); err != nil {
		return nil, wrapStore(err)
	}
	return &g, nil
}

// ResolveChannel maps a caller-supplied channel id to a channel of the
// group; empty or "default" falls back to the group's designated default.
func (r *GroupRepo) ResolveChannel(ctx context.Context, groupID, channelID string) (*models.Channel, error) {
	g, err := r.Get(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if channelID == "" || channelID == "default" {
		channelID = g.DefaultChannelID
	}
	var ch models.Channel
	if err := r.channels.FindOne(ctx, bson.M{"_id": channelID, "group_id": groupID}).Decode(&ch); err != nil {
		return nil, wrapStore(err)
	}
	return &ch, nil
}

func (r *GroupRepo) IsMember(ctx context.Context, groupID, userID string) (bool, error) {
	err := r.groups.FindOne(ctx, bson.M{"_id": groupID, "members": userID}).Err()
	if err == nil {
		return true, nil
	}
	if apperr.Is(wrapStore(err), apperr.CodeNotFound) {
		return false, nil
	}
	return false, wrapStore(err)
}

// AddMember is idempotent: re-adding an existing member changes nothing.
func (r *GroupRepo) AddMember(ctx context.Context, groupID, userID string) error {
	res, err := r.groups.UpdateOne(ctx,
		bson.M{"_id": groupID},
		bson.M{"$addToSet": bson.M{"members": userID}, "$set": bson.M{"updated_at": time.Now().UTC()}},
	)
	if err != nil {
		return wrapStore(err)
	}
	if res.MatchedCount == 0 {
		return apperr.NotFound("group not found")
	}
	return nil
}

func (r *GroupRepo) RemoveMember(ctx context.Context, groupID, userID string) error {
	res, err := r.groups.UpdateOne(ctx,
		bson.M{"_id": groupID},
		bson.M{"$pull": bson.M{"members": userID}, "$set": bson.M{"updated_at": time.Now().UTC()}},
	)
	if err != nil {
		return wrapStore(err)
	}
	if res.MatchedCount == 0 {
		return apperr.NotFound("group not found")
	}
	return nil
}
