package repository

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/fmaric77/polmatch-sub004/internal/models"
)

// RelocateReport summarizes one repair pass over the conversations
// collection.
type RelocateReport struct {
	Scanned     int64
	Relocated   int64
	Quarantined int64
}

// RelocateMisfiledRecords classifies every document in the conversations
// collection and moves the ones that are not conversation metadata.
// Message-shaped documents (sender_id + content present) are moved into the
// messages collection; anything unclassifiable goes to quarantine for manual
// review. Collection identity is never assumed to imply record kind.
func RelocateMisfiledRecords(ctx context.Context, db *mongo.Database) (RelocateReport, error) {
	var rep RelocateReport
	conversations := db.Collection(CollConversations)
	messages := db.Collection(CollMessages)
	quarantine := db.Collection(CollQuarantine)

	cur, err := conversations.Find(ctx, bson.M{})
	if err != nil {
		return rep, wrapStore(err)
	}
	defer cur.Close(ctx)

	for cur.Next(ctx) {
		var doc bson.M
		if err := cur.Decode(&doc); err != nil {
			return rep, wrapStore(err)
		}
		rep.Scanned++

		switch models.ClassifyRecord(doc) {
		case models.KindConversation:
			continue
		case models.KindMessage:
			if _, err := messages.InsertOne(ctx, doc); err != nil && !mongo.IsDuplicateKeyError(err) {
				return rep, wrapStore(err)
			}
			rep.Relocated++
		case models.KindMalformed:
			if _, err := quarantine.InsertOne(ctx, doc); err != nil && !mongo.IsDuplicateKeyError(err) {
				return rep, wrapStore(err)
			}
			rep.Quarantined++
		}
		if _, err := conversations.DeleteOne(ctx, bson.M{"_id": doc["_id"]}); err != nil {
			return rep, wrapStore(err)
		}
	}
	return rep, wrapStore(cur.Err())
}
