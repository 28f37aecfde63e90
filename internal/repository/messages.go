package repository

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/fmaric77/polmatch-sub004/internal/apperr"
	"github.com/fmaric77/polmatch-sub004/internal/models"
)

type MessageRepo struct {
	coll *mongo.Collection
}

func NewMessageRepo(db *mongo.Database) *MessageRepo {
	return &MessageRepo{coll: db.Collection(CollMessages)}
}

// MessageQuery selects a message log: either a direct conversation key or a
// (group, channel) pair, never both.
type MessageQuery struct {
	ConversationKey string
	GroupID         string
	ChannelID       string
	Cursor          string
	Limit           int64
}

// Insert stores a new message with a generated id and store-assigned UTC
// time. The structural invariant is enforced here, at the write boundary.
func (r *MessageRepo) Insert(ctx context.Context, m *models.Message) error {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	m.CreatedAt = time.Now().UTC()
	if !m.ValidMessage() {
		return apperr.BadRequest("message requires sender and content")
	}
	_, err := r.coll.InsertOne(ctx, m)
	return wrapStore(err)
}

func (r *MessageRepo) Get(ctx context.Context, id string) (*models.Message, error) {
	var m models.Message
	if err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&m); err != nil {
		return nil, wrapStore(err)
	}
	return &m, nil
}

// List returns messages strictly ascending by (created_at, _id) with an
// opaque strictly-after cursor, and the cursor for the next page.
func (r *MessageRepo) List(ctx context.Context, q MessageQuery) ([]*models.Message, string, error) {
	filter := bson.M{}
	if q.ConversationKey != "" {
		filter["conversation_key"] = q.ConversationKey
	} else {
		filter["group_id"] = q.GroupID
		filter["channel_id"] = q.ChannelID
	}
	if q.Cursor != "" {
		after, afterID, err := decodeCursor(q.Cursor)
		if err != nil {
			return nil, "", apperr.BadRequest("malformed cursor")
		}
		filter["$or"] = bson.A{
			bson.M{"created_at": bson.M{"$gt": after}},
			bson.M{"created_at": after, "_id": bson.M{"$gt": afterID}},
		}
	}
	limit := q.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}}).
		SetLimit(limit)
	cur, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, "", wrapStore(err)
	}
	defer cur.Close(ctx)
	var out []*models.Message
	for cur.Next(ctx) {
		var m models.Message
		if err := cur.Decode(&m); err != nil {
			return nil, "", wrapStore(err)
		}
		out = append(out, &m)
	}
	if err := cur.Err(); err != nil {
		return nil, "", wrapStore(err)
	}
	next := ""
	if int64(len(out)) == limit {
		last := out[len(out)-1]
		next = encodeCursor(last.CreatedAt, last.ID)
	}
	return out, next, nil
}

// SoftDelete marks the message deleted and blanks nothing; the record stays
// in place so per-conversation ordering is unaffected.
func (r *MessageRepo) SoftDelete(ctx context.Context, id string) error {
	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"deleted": true}})
	if err != nil {
		return wrapStore(err)
	}
	if res.MatchedCount == 0 {
		return apperr.NotFound("message not found")
	}
	return nil
}

func (r *MessageRepo) HardDelete(ctx context.Context, id string) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return wrapStore(err)
	}
	if res.DeletedCount == 0 {
		return apperr.NotFound("message not found")
	}
	return nil
}

func (r *MessageRepo) AddReaction(ctx context.Context, id, emoji, userID string) error {
	res, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$addToSet": bson.M{"reactions." + emoji: userID}},
	)
	if err != nil {
		return wrapStore(err)
	}
	if res.MatchedCount == 0 {
		return apperr.NotFound("message not found")
	}
	return nil
}

func (r *MessageRepo) SetPinned(ctx context.Context, id string, pinned bool) error {
	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"pinned": pinned}})
	if err != nil {
		return wrapStore(err)
	}
	if res.MatchedCount == 0 {
		return apperr.NotFound("message not found")
	}
	return nil
}

func encodeCursor(at time.Time, id string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(at.UTC().Format(time.RFC3339Nano) + "|" + id))
}

func decodeCursor(cursor string) (time.Time, string, error) {
	raw, err := base64.RawURLEncoding.DecodeString(cursor)
	if err != nil {
		return time.Time{}, "", err
	}
	parts := strings.SplitN(string(raw), "|", 2)
	if len(parts) != 2 {
		return time.Time{}, "", fmt.Errorf("cursor missing separator")
	}
	at, err := time.Parse(time.RFC3339Nano, parts[0])
	if err != nil {
		return time.Time{}, "", err
	}
	return at, parts[1], nil
}
