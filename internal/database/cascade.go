package database

import (
	"context"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
)

// uidScopedCollections are the collections swept by the account deletion
// cascade, matching everything keyed or scoped by uid.
var uidScopedCollections = []string{
	CollectionBills,
	CollectionApprovedBills,
	CollectionRejectedBills,
	CollectionHistory,
	CollectionNotifications,
	CollectionSchemeRequests,
	CollectionUserFcmTokens,
	CollectionAdminFcmTokens,
}

// UserDataDelete removes the target's User and Wallet documents plus every
// uid-scoped document across the cascade collections. It returns the number
// of documents deleted per collection. Partial failure leaves the counts
// collected so far alongside the error.
func (db Database) UserDataDelete(ctx context.Context, uid string) (map[string]int64, error) {
	counts := map[string]int64{}

	for _, coll := range []string{CollectionUsers, CollectionWallets} {
		res, err := db.Collection(coll).DeleteOne(ctx, bson.M{"_id": uid})
		if err != nil {
			return counts, errors.Wrapf(err, "error deleting %s document for UID: %s", coll, uid)
		}
		counts[coll] = res.DeletedCount
	}

	for _, coll := range uidScopedCollections {
		res, err := db.Collection(coll).DeleteMany(ctx, bson.M{"uid": uid})
		if err != nil {
			return counts, errors.Wrapf(err, "error deleting %s documents for UID: %s", coll, uid)
		}
		counts[coll] = res.DeletedCount
	}

	return counts, nil
}
