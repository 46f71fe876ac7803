package database

import (
	"coinloyalty/internal/model"
	"context"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"time"
)

func (db Database) WalletFind(ctx context.Context, uid string) (model.Wallet, error) {
	var w model.Wallet
	err := db.Collection(CollectionWallets).FindOne(ctx, bson.M{"_id": uid}).Decode(&w)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return w, errors.Wrapf(ErrWalletNotFound, "uid: %s", uid)
	}
	return w, errors.Wrapf(err, "error finding Wallet with UID: %s", uid)
}

// WalletEnsure creates an empty wallet for uid if none exists yet. Safe to
// call repeatedly.
func (db Database) WalletEnsure(ctx context.Context, uid string) error {
	now := primitive.NewDateTimeFromTime(time.Now())
	_, err := db.Collection(CollectionWallets).UpdateOne(
		ctx,
		bson.M{"_id": uid},
		bson.M{"$setOnInsert": model.Wallet{
			UID:       uid,
			Coins:     0,
			CreatedAt: now,
			UpdatedAt: now,
		}},
		options.Update().SetUpsert(true),
	)
	return errors.Wrapf(err, "error ensuring Wallet for UID: %s", uid)
}

// WalletCredit adds coins to the wallet inside a transaction, creating the
// wallet when absent, and writes the paired History entry in the same
// transaction. The balance is re-read inside the transaction so concurrent
// credits serialize, and the result is clamped to stay non-negative.
func (db Database) WalletCredit(ctx context.Context, uid string, coins int64, h model.HistoryEntry) (after int64, err error) {
	err = db.WithTransaction(ctx, func(sc mongo.SessionContext) error {
		now := primitive.NewDateTimeFromTime(time.Now())

		var w model.Wallet
		findErr := db.Collection(CollectionWallets).FindOne(sc, bson.M{"_id": uid}).Decode(&w)
		if findErr != nil {
			if !errors.Is(findErr, mongo.ErrNoDocuments) {
				return errors.Wrapf(findErr, "error finding Wallet with UID: %s", uid)
			}
			after, _ = model.ClampCoins(0, coins)
			if _, insErr := db.Collection(CollectionWallets).InsertOne(sc, model.Wallet{
				UID:       uid,
				Coins:     after,
				CreatedAt: now,
				UpdatedAt: now,
			}); insErr != nil {
				return errors.Wrapf(insErr, "error creating Wallet for UID: %s", uid)
			}
		} else {
			after, _ = model.ClampCoins(w.Coins, coins)
			if updErr := db.walletSetCoins(sc, uid, after, now); updErr != nil {
				return updErr
			}
		}

		return db.historyInsert(sc, h)
	})
	return after, err
}

// WalletAdjust applies an arbitrary signed delta as an admin action. The
// applied delta can differ from the requested one when clamping kicks in;
// the History entry records before/after and the applied value.
func (db Database) WalletAdjust(ctx context.Context, uid string, delta int64, h model.HistoryEntry) (before, after, applied int64, err error) {
	err = db.WithTransaction(ctx, func(sc mongo.SessionContext) error {
		now := primitive.NewDateTimeFromTime(time.Now())

		before = 0
		exists := true
		var w model.Wallet
		findErr := db.Collection(CollectionWallets).FindOne(sc, bson.M{"_id": uid}).Decode(&w)
		if findErr != nil {
			if !errors.Is(findErr, mongo.ErrNoDocuments) {
				return errors.Wrapf(findErr, "error finding Wallet with UID: %s", uid)
			}
			exists = false
		} else {
			before = w.Coins
		}

		after, applied = model.ClampCoins(before, delta)

		if exists {
			if updErr := db.walletSetCoins(sc, uid, after, now); updErr != nil {
				return updErr
			}
		} else {
			if _, insErr := db.Collection(CollectionWallets).InsertOne(sc, model.Wallet{
				UID:       uid,
				Coins:     after,
				CreatedAt: now,
				UpdatedAt: now,
			}); insErr != nil {
				return errors.Wrapf(insErr, "error creating Wallet for UID: %s", uid)
			}
		}

		h.CoinsDelta = applied
		h.BeforeCoins = &before
		h.AfterCoins = &after
		return db.historyInsert(sc, h)
	})
	return before, after, applied, err
}

func (db Database) walletSetCoins(sc mongo.SessionContext, uid string, coins int64, now primitive.DateTime) error {
	res, err := db.Collection(CollectionWallets).UpdateOne(
		sc,
		bson.M{"_id": uid},
		bson.M{"$set": bson.M{
			"coins":      coins,
			"updated_at": now,
		}},
	)
	if err != nil {
		return errors.Wrapf(err, "error updating Wallet coins, UID: %s, coins: %d", uid, coins)
	}
	if res.MatchedCount == 0 {
		return errors.Wrapf(ErrWalletNotFound, "Wallet disappeared mid-transaction, UID: %s", uid)
	}
	return nil
}
