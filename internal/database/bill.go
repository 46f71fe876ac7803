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

// BillInsert creates a pending bill. The caller may preset the ObjectID when
// it needs the id before the insert, e.g. to build image paths.
func (db Database) BillInsert(ctx context.Context, b model.Bill) (id string, err error) {
	if b.ID.IsZero() {
		b.ID = primitive.NewObjectID()
	}
	b.Status = model.BillPending
	b.CreatedAt = primitive.NewDateTimeFromTime(time.Now())
	b.UpdatedAt = b.CreatedAt

	_, err = db.Collection(CollectionBills).InsertOne(ctx, b)
	if err != nil {
		return "", errors.Wrapf(err, "error inserting Bill for UID: %s", b.UID)
	}
	return b.ID.Hex(), nil
}

func (db Database) BillFindByID(ctx context.Context, billID string) (model.Bill, error) {
	var b model.Bill
	objID, err := primitive.ObjectIDFromHex(billID)
	if err != nil {
		return b, errors.Wrapf(err, "error creating ObjectID from hex: %s", billID)
	}
	err = db.Collection(CollectionBills).FindOne(ctx, bson.M{"_id": objID}).Decode(&b)
	return b, errors.Wrapf(err, "error finding Bill with ID: %s", billID)
}

func (db Database) BillsFindByUID(ctx context.Context, uid string, pageSize int64) ([]model.Bill, error) {
	opts := options.Find().SetSort(bson.M{"created_at": -1}).SetLimit(pageSize)
	var bs []model.Bill
	cur, err := db.Collection(CollectionBills).Find(ctx, bson.M{"uid": uid}, opts)
	if err != nil {
		return nil, errors.Wrapf(err, "error getting cursor to find Bills for UID: %s", uid)
	}
	if err = cur.All(ctx, &bs); err != nil {
		return nil, errors.Wrapf(err, "error getting Bills from cursor for UID: %s", uid)
	}
	return bs, nil
}

// BillsFindByStatus lists bills for the admin screens. An empty status means
// all bills.
func (db Database) BillsFindByStatus(ctx context.Context, status model.BillStatus, pageSize int64) ([]model.Bill, error) {
	filter := bson.M{}
	if status != "" {
		filter["status"] = status
	}
	opts := options.Find().SetSort(bson.M{"created_at": -1}).SetLimit(pageSize)

	var bs []model.Bill
	cur, err := db.Collection(CollectionBills).Find(ctx, filter, opts)
	if err != nil {
		return nil, errors.Wrapf(err, "error getting cursor to find Bills with status: %s", status)
	}
	if err = cur.All(ctx, &bs); err != nil {
		return nil, errors.Wrapf(err, "error getting Bills from cursor with status: %s", status)
	}
	return bs, nil
}

// BillMarkDecided performs the one allowed status transition away from
// pending. The pending check and the write are a single conditional update,
// so when two admins race only one of them matches; the loser gets
// ErrAlreadyDecided. No money moves here, that is the processor's job.
func (db Database) BillMarkDecided(ctx context.Context, billID string, decision model.BillStatus, approvedCoins *int64, decidedBy string) (model.Bill, error) {
	var b model.Bill
	objID, err := primitive.ObjectIDFromHex(billID)
	if err != nil {
		return b, errors.Wrapf(err, "error creating ObjectID from hex: %s", billID)
	}

	now := primitive.NewDateTimeFromTime(time.Now())
	set := bson.M{
		"status":     decision,
		"decided_by": decidedBy,
		"decided_at": now,
		"updated_at": now,
	}
	update := bson.M{"$set": set}
	if decision == model.BillApproved {
		set["approved_coins"] = approvedCoins
	} else {
		update["$unset"] = bson.M{"approved_coins": ""}
	}

	err = db.Collection(CollectionBills).FindOneAndUpdate(
		ctx,
		bson.M{"_id": objID, "status": model.BillPending},
		update,
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&b)
	if err == nil {
		return b, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return b, errors.Wrapf(err, "error deciding Bill with ID: %s", billID)
	}

	// No pending bill matched: either it does not exist or it was decided
	// by a concurrent call.
	if _, findErr := db.BillFindByID(ctx, billID); findErr != nil {
		return b, findErr
	}
	return b, errors.Wrapf(ErrAlreadyDecided, "Bill ID: %s", billID)
}

// BillsFindDecidedSince returns recently decided bills for the sweep pass,
// which re-runs the idempotent processor over anything the change stream
// may have missed.
func (db Database) BillsFindDecidedSince(ctx context.Context, since time.Time, limit int64) ([]model.Bill, error) {
	filter := bson.M{
		"status":     bson.M{"$in": []model.BillStatus{model.BillApproved, model.BillRejected}},
		"updated_at": bson.M{"$gte": primitive.NewDateTimeFromTime(since)},
	}
	opts := options.Find().SetSort(bson.M{"updated_at": -1}).SetLimit(limit)

	var bs []model.Bill
	cur, err := db.Collection(CollectionBills).Find(ctx, filter, opts)
	if err != nil {
		return nil, errors.Wrap(err, "error getting cursor to find decided Bills")
	}
	if err = cur.All(ctx, &bs); err != nil {
		return nil, errors.Wrap(err, "error getting decided Bills from cursor")
	}
	return bs, nil
}

func (db Database) BillsCount(ctx context.Context) (int64, error) {
	n, err := db.Collection(CollectionBills).CountDocuments(ctx, bson.M{})
	return n, errors.Wrap(err, "error counting Bills")
}
