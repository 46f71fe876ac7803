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

// SchemeRequestCreate is the redemption transaction: it verifies no other
// non-rejected request exists for (uid, schemeID), re-reads the wallet under
// transaction isolation, verifies the balance, debits requiredCoins, creates
// the pending request, and writes the paired History entry. The writes
// commit or abort as one unit, so a failed request leaves no partial state
// behind, and two concurrent requests for the same scheme cannot both debit.
func (db Database) SchemeRequestCreate(ctx context.Context, r model.SchemeRequest) (model.SchemeRequest, error) {
	r.ID = primitive.NewObjectID()
	r.Status = model.RequestPending
	now := primitive.NewDateTimeFromTime(time.Now())
	r.CreatedAt = now
	r.UpdatedAt = now

	err := db.WithTransaction(ctx, func(sc mongo.SessionContext) error {
		activeErr := db.Collection(CollectionSchemeRequests).FindOne(sc, bson.M{
			"uid":       r.UID,
			"scheme_id": r.SchemeID,
			"status":    bson.M{"$ne": model.RequestRejected},
		}).Err()
		if activeErr == nil {
			return errors.Wrapf(ErrRequestAlreadyActive, "UID: %s, scheme ID: %s", r.UID, r.SchemeID.Hex())
		}
		if !errors.Is(activeErr, mongo.ErrNoDocuments) {
			return errors.Wrapf(activeErr, "error finding active SchemeRequest for UID: %s, scheme ID: %s",
				r.UID, r.SchemeID.Hex())
		}

		var w model.Wallet
		findErr := db.Collection(CollectionWallets).FindOne(sc, bson.M{"_id": r.UID}).Decode(&w)
		if findErr != nil {
			if errors.Is(findErr, mongo.ErrNoDocuments) {
				return errors.Wrapf(ErrWalletNotFound, "uid: %s", r.UID)
			}
			return errors.Wrapf(findErr, "error finding Wallet with UID: %s", r.UID)
		}
		if w.Coins < r.RequiredCoins {
			return errors.Wrapf(ErrNotEnoughCoins, "UID: %s, have: %d, need: %d", r.UID, w.Coins, r.RequiredCoins)
		}

		if updErr := db.walletSetCoins(sc, r.UID, w.Coins-r.RequiredCoins, now); updErr != nil {
			return updErr
		}

		if _, insErr := db.Collection(CollectionSchemeRequests).InsertOne(sc, r); insErr != nil {
			return errors.Wrapf(insErr, "error inserting SchemeRequest for UID: %s", r.UID)
		}

		return db.historyInsert(sc, model.HistoryEntry{
			EntryID:         model.NotificationID(r.UID, r.ID.Hex(), "scheme_request"),
			UID:             r.UID,
			Title:           "Scheme Requested",
			Type:            model.HistorySchemeRequest,
			CoinsDelta:      -r.RequiredCoins,
			SchemeRequestID: r.ID.Hex(),
			SchemeID:        r.SchemeID.Hex(),
			CreatedAt:       now,
		})
	})
	return r, err
}

func (db Database) SchemeRequestFindByID(ctx context.Context, requestID string) (model.SchemeRequest, error) {
	var r model.SchemeRequest
	objID, err := primitive.ObjectIDFromHex(requestID)
	if err != nil {
		return r, errors.Wrapf(err, "error creating ObjectID from hex: %s", requestID)
	}
	err = db.Collection(CollectionSchemeRequests).FindOne(ctx, bson.M{"_id": objID}).Decode(&r)
	return r, errors.Wrapf(err, "error finding SchemeRequest with ID: %s", requestID)
}

func (db Database) SchemeRequestsFindByUID(ctx context.Context, uid string, pageSize int64) ([]model.SchemeRequest, error) {
	opts := options.Find().SetSort(bson.M{"created_at": -1}).SetLimit(pageSize)
	var rs []model.SchemeRequest
	cur, err := db.Collection(CollectionSchemeRequests).Find(ctx, bson.M{"uid": uid}, opts)
	if err != nil {
		return nil, errors.Wrapf(err, "error getting cursor to find SchemeRequests for UID: %s", uid)
	}
	if err = cur.All(ctx, &rs); err != nil {
		return nil, errors.Wrapf(err, "error getting SchemeRequests from cursor for UID: %s", uid)
	}
	return rs, nil
}

func (db Database) SchemeRequestsFindByStatus(ctx context.Context, status model.RequestStatus, pageSize int64) ([]model.SchemeRequest, error) {
	filter := bson.M{}
	if status != "" {
		filter["status"] = status
	}
	opts := options.Find().SetSort(bson.M{"created_at": -1}).SetLimit(pageSize)

	var rs []model.SchemeRequest
	cur, err := db.Collection(CollectionSchemeRequests).Find(ctx, filter, opts)
	if err != nil {
		return nil, errors.Wrapf(err, "error getting cursor to find SchemeRequests with status: %s", status)
	}
	if err = cur.All(ctx, &rs); err != nil {
		return nil, errors.Wrapf(err, "error getting SchemeRequests from cursor with status: %s", status)
	}
	return rs, nil
}

// SchemeRequestMarkDecided flips a pending request to its terminal status
// with a conditional update. No coins move here: the debit already happened
// at request creation, and a rejection does not refund it.
func (db Database) SchemeRequestMarkDecided(ctx context.Context, requestID string, decision model.RequestStatus, decidedBy string) (model.SchemeRequest, error) {
	var r model.SchemeRequest
	objID, err := primitive.ObjectIDFromHex(requestID)
	if err != nil {
		return r, errors.Wrapf(err, "error creating ObjectID from hex: %s", requestID)
	}

	now := primitive.NewDateTimeFromTime(time.Now())
	err = db.Collection(CollectionSchemeRequests).FindOneAndUpdate(
		ctx,
		bson.M{"_id": objID, "status": model.RequestPending},
		bson.M{"$set": bson.M{
			"status":     decision,
			"decided_by": decidedBy,
			"decided_at": now,
			"updated_at": now,
		}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&r)
	if err == nil {
		return r, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return r, errors.Wrapf(err, "error deciding SchemeRequest with ID: %s", requestID)
	}

	if _, findErr := db.SchemeRequestFindByID(ctx, requestID); findErr != nil {
		return r, findErr
	}
	return r, errors.Wrapf(ErrAlreadyDecided, "SchemeRequest ID: %s", requestID)
}

func (db Database) SchemeRequestsFindDecidedSince(ctx context.Context, since time.Time, limit int64) ([]model.SchemeRequest, error) {
	filter := bson.M{
		"status":     bson.M{"$in": []model.RequestStatus{model.RequestApproved, model.RequestRejected}},
		"updated_at": bson.M{"$gte": primitive.NewDateTimeFromTime(since)},
	}
	opts := options.Find().SetSort(bson.M{"updated_at": -1}).SetLimit(limit)

	var rs []model.SchemeRequest
	cur, err := db.Collection(CollectionSchemeRequests).Find(ctx, filter, opts)
	if err != nil {
		return nil, errors.Wrap(err, "error getting cursor to find decided SchemeRequests")
	}
	if err = cur.All(ctx, &rs); err != nil {
		return nil, errors.Wrap(err, "error getting decided SchemeRequests from cursor")
	}
	return rs, nil
}

func (db Database) SchemeRequestsCount(ctx context.Context) (int64, error) {
	n, err := db.Collection(CollectionSchemeRequests).CountDocuments(ctx, bson.M{})
	return n, errors.Wrap(err, "error counting SchemeRequests")
}
