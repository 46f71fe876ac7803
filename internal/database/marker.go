package database

import (
	"coinloyalty/internal/model"
	"context"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"time"
)

// DecisionMarkerClaim inserts the idempotency marker for a decided entity.
// The insert either wins or hits the existing document's id; a duplicate key
// maps to ErrAlreadyProcessed so exactly one caller ever applies the
// monetary side effect. collection is CollectionApprovedBills or
// CollectionRejectedBills.
func (db Database) DecisionMarkerClaim(ctx context.Context, collection string, m model.DecisionMarker) error {
	m.CreatedAt = primitive.NewDateTimeFromTime(time.Now())
	_, err := db.Collection(collection).InsertOne(ctx, m)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return errors.Wrapf(ErrAlreadyProcessed, "marker exists in %s for entity: %s", collection, m.EntityID)
		}
		return errors.Wrapf(err, "error claiming DecisionMarker in %s for entity: %s", collection, m.EntityID)
	}
	return nil
}

func (db Database) DecisionMarkerExists(ctx context.Context, collection string, entityID string) (bool, error) {
	err := db.Collection(collection).FindOne(ctx, bson.M{"_id": entityID}).Err()
	if err == nil {
		return true, nil
	}
	if errors.Is(err, mongo.ErrNoDocuments) {
		return false, nil
	}
	return false, errors.Wrapf(err, "error checking DecisionMarker in %s for entity: %s", collection, entityID)
}
