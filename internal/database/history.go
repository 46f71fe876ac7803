package database

import (
	"coinloyalty/internal/model"
	"context"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
	"time"
)

// HistoryInsert appends a ledger entry. Entries with a deterministic EntryID
// are upserted so a repeated fan-out cannot duplicate them; entries without
// one get a generated id.
func (db Database) HistoryInsert(ctx context.Context, h model.HistoryEntry) error {
	return db.historyInsert(ctx, h)
}

func (db Database) historyInsert(ctx context.Context, h model.HistoryEntry) error {
	if h.CreatedAt == 0 {
		h.CreatedAt = primitive.NewDateTimeFromTime(time.Now())
	}
	if h.EntryID == "" {
		h.EntryID = primitive.NewObjectID().Hex()
		_, err := db.Collection(CollectionHistory).InsertOne(ctx, h)
		return errors.Wrapf(err, "error inserting HistoryEntry: %+v", h)
	}

	_, err := db.Collection(CollectionHistory).UpdateOne(
		ctx,
		bson.M{"_id": h.EntryID},
		bson.M{"$setOnInsert": h},
		options.Update().SetUpsert(true),
	)
	return errors.Wrapf(err, "error upserting HistoryEntry with ID: %s", h.EntryID)
}

func (db Database) HistoryFindByUID(ctx context.Context, uid string, before time.Time, pageSize int64) ([]model.HistoryEntry, error) {
	filter := bson.M{"uid": uid}
	if !before.IsZero() {
		filter["created_at"] = bson.M{"$lt": primitive.NewDateTimeFromTime(before)}
	}
	opts := options.Find().SetSort(bson.M{"created_at": -1}).SetLimit(pageSize)

	var hs []model.HistoryEntry
	cur, err := db.Collection(CollectionHistory).Find(ctx, filter, opts)
	if err != nil {
		return nil, errors.Wrapf(err, "error getting cursor to find History for UID: %s", uid)
	}
	if err = cur.All(ctx, &hs); err != nil {
		return nil, errors.Wrapf(err, "error getting History from cursor for UID: %s", uid)
	}
	return hs, nil
}
