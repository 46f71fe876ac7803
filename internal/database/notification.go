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

// NotificationUpsert writes a notification keyed by its deterministic id.
// $setOnInsert keeps an existing document untouched, which is what makes a
// repeated fan-out for the same transition collapse into one notification.
func (db Database) NotificationUpsert(ctx context.Context, n model.Notification) error {
	if n.CreatedAt == 0 {
		n.CreatedAt = primitive.NewDateTimeFromTime(time.Now())
	}
	_, err := db.Collection(CollectionNotifications).UpdateOne(
		ctx,
		bson.M{"_id": n.NotificationID},
		bson.M{"$setOnInsert": n},
		options.Update().SetUpsert(true),
	)
	return errors.Wrapf(err, "error upserting Notification with ID: %s", n.NotificationID)
}

func (db Database) NotificationsFindByUID(ctx context.Context, uid string, pageSize int64) ([]model.Notification, error) {
	opts := options.Find().SetSort(bson.M{"created_at": -1}).SetLimit(pageSize)
	var ns []model.Notification
	cur, err := db.Collection(CollectionNotifications).Find(ctx, bson.M{"uid": uid}, opts)
	if err != nil {
		return nil, errors.Wrapf(err, "error getting cursor to find Notifications for UID: %s", uid)
	}
	if err = cur.All(ctx, &ns); err != nil {
		return nil, errors.Wrapf(err, "error getting Notifications from cursor for UID: %s", uid)
	}
	return ns, nil
}

func (db Database) NotificationsCountUnread(ctx context.Context, uid string) (int64, error) {
	n, err := db.Collection(CollectionNotifications).CountDocuments(ctx, bson.M{"uid": uid, "read": false})
	return n, errors.Wrapf(err, "error counting unread Notifications for UID: %s", uid)
}

// NotificationsMarkRead flips read=true on the given ids. The uid filter
// keeps a user from marking someone else's notifications.
func (db Database) NotificationsMarkRead(ctx context.Context, uid string, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res, err := db.Collection(CollectionNotifications).UpdateMany(
		ctx,
		bson.M{"_id": bson.M{"$in": ids}, "uid": uid},
		bson.M{"$set": bson.M{"read": true}},
	)
	if err != nil {
		return 0, errors.Wrapf(err, "error marking Notifications read for UID: %s", uid)
	}
	return res.ModifiedCount, nil
}
