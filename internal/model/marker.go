package model

import "go.mongodb.org/mongo-driver/bson/primitive"

// DecisionMarker is an idempotency marker keyed by the decided entity id.
// Its mere existence means the monetary side effect of that decision has
// already been applied; the processor inserts it before touching the wallet
// and treats a duplicate-key error as "someone else already won".
type DecisionMarker struct {
	EntityID  string             `bson:"_id" json:"entity_id"`
	UID       string             `bson:"uid" json:"uid"`
	Coins     int64              `bson:"coins" json:"coins"`
	DecidedBy string             `bson:"decided_by,omitempty" json:"decided_by,omitempty"`
	CreatedAt primitive.DateTime `bson:"created_at" json:"created_at"`
}
