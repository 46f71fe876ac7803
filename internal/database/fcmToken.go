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

// FCMTokenUpsert registers or refreshes a device token. collection is one of
// CollectionUserFcmTokens / CollectionAdminFcmTokens.
func (db Database) FCMTokenUpsert(ctx context.Context, collection string, t model.FCMToken) error {
	t.UpdatedAt = primitive.NewDateTimeFromTime(time.Now())
	_, err := db.Collection(collection).UpdateOne(
		ctx,
		bson.M{"_id": t.Token},
		bson.M{"$set": bson.M{
			"uid":        t.UID,
			"platform":   t.Platform,
			"enabled":    t.Enabled,
			"updated_at": t.UpdatedAt,
		}},
		options.Update().SetUpsert(true),
	)
	return errors.Wrapf(err, "error upserting FCMToken in %s for UID: %s", collection, t.UID)
}

// FCMTokensFindEnabled returns enabled tokens, scoped to uid when non-empty.
// Admin broadcasts pass an empty uid to get every enabled admin token.
func (db Database) FCMTokensFindEnabled(ctx context.Context, collection string, uid string) ([]string, error) {
	filter := bson.M{"enabled": true}
	if uid != "" {
		filter["uid"] = uid
	}
	cur, err := db.Collection(collection).Find(ctx, filter)
	if err != nil {
		return nil, errors.Wrapf(err, "error getting cursor to find FCMTokens in %s for UID: %s", collection, uid)
	}
	var ts []model.FCMToken
	if err = cur.All(ctx, &ts); err != nil {
		return nil, errors.Wrapf(err, "error getting FCMTokens from cursor in %s for UID: %s", collection, uid)
	}
	tokens := make([]string, 0, len(ts))
	for _, t := range ts {
		if t.Token != "" {
			tokens = append(tokens, t.Token)
		}
	}
	return tokens, nil
}

// FCMTokensDelete prunes tokens the push provider reported as invalid.
// Best-effort cleanup, a missing token is not an error.
func (db Database) FCMTokensDelete(ctx context.Context, collection string, tokens []string) (int64, error) {
	if len(tokens) == 0 {
		return 0, nil
	}
	res, err := db.Collection(collection).DeleteMany(ctx, bson.M{"_id": bson.M{"$in": tokens}})
	if err != nil {
		return 0, errors.Wrapf(err, "error deleting FCMTokens from %s", collection)
	}
	return res.DeletedCount, nil
}
