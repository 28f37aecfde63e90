package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/fmaric77/polmatch-sub004/internal/apperr"
	"github.com/fmaric77/polmatch-sub004/internal/models"
)

type InvitationRepo struct {
	coll *mongo.Collection
}

func NewInvitationRepo(db *mongo.Database) *InvitationRepo {
	return &InvitationRepo{coll: db.Collection(CollInvitations)}
}

// Create inserts a pending invitation. The partial unique index on
// (group_id, invited_user_id, profile_context) where status=pending turns a
// second concurrent pending invite into DuplicateInvitation.
func (r *InvitationRepo) Create(ctx context.Context, inv *models.Invitation) error {
	if inv.ID == "" {
		inv.ID = uuid.New().String()
	}
	inv.Status = models.InvitationPending
	inv.CreatedAt = time.Now().UTC()
	_, err := r.coll.InsertOne(ctx, inv)
	if mongo.IsDuplicateKeyError(err) {
		return apperr.DuplicateInvitation("a pending invitation already exists")
	}
	return wrapStore(err)
}

func (r *InvitationRepo) Get(ctx context.Context, id string) (*models.Invitation, error) {
	var inv models.Invitation
	if err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&inv); err != nil {
		return nil, wrapStore(err)
	}
	return &inv, nil
}

// ListPending returns only pending rows for the user in one context,
// newest first.
func (r *InvitationRepo) ListPending(ctx context.Context, userID string, pc models.ProfileContext) ([]*models.Invitation, error) {
	filter := bson.M{
		"invited_user_id": userID,
		"profile_context": pc,
		"status":          models.InvitationPending,
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cur, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, wrapStore(err)
	}
	defer cur.Close(ctx)
	var out []*models.Invitation
	for cur.Next(ctx) {
		var inv models.Invitation
		if err := cur.Decode(&inv); err != nil {
			return nil, wrapStore(err)
		}
		out = append(out, &inv)
	}
	return out, wrapStore(cur.Err())
}

// Summary counts pending invitations per profile context in one aggregation
// pass; contexts with no rows report zero.
func (r *InvitationRepo) Summary(ctx context.Context, userID string) (map[models.ProfileContext]int64, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{
			"invited_user_id": userID,
			"status":          models.InvitationPending,
		}}},
		{{Key: "$group", Value: bson.M{
			"_id":   "$profile_context",
			"count": bson.M{"$sum": 1},
		}}},
	}
	cur, err := r.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, wrapStore(err)
	}
	defer cur.Close(ctx)

	out := make(map[models.ProfileContext]int64, 3)
	for _, pc := range models.AllContexts() {
		out[pc] = 0
	}
	for cur.Next(ctx) {
		var row struct {
			Context models.ProfileContext `bson:"_id"`
			Count   int64                 `bson:"count"`
		}
		if err := cur.Decode(&row); err != nil {
			return nil, wrapStore(err)
		}
		out[row.Context] = row.Count
	}
	return out, wrapStore(cur.Err())
}

// MarkResponded flips pending to a terminal status, conditionally on the row
// still being pending and addressed to the caller. Reports whether a row was
// flipped; a raced or repeated respond matches nothing.
func (r *InvitationRepo) MarkResponded(ctx context.Context, id, userID string, status models.InvitationStatus) (bool, error) {
	now := time.Now().UTC()
	res, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": id, "invited_user_id": userID, "status": models.InvitationPending},
		bson.M{"$set": bson.M{"status": status, "responded_at": now}},
	)
	if err != nil {
		return false, wrapStore(err)
	}
	return res.MatchedCount == 1, nil
}
