package model

import "go.mongodb.org/mongo-driver/bson/primitive"

// Wallet holds the single coin balance for a user. The document id is the
// owner UID, which makes one-wallet-per-user a database-level guarantee
// instead of a convention.
type Wallet struct {
	UID       string             `bson:"_id" json:"uid"`
	Coins     int64              `bson:"coins" json:"coins"`
	CreatedAt primitive.DateTime `bson:"created_at" json:"-"`
	UpdatedAt primitive.DateTime `bson:"updated_at" json:"-"`
}

// ClampCoins applies a signed delta to a balance, never letting the result
// go below zero. It returns the new balance and the delta that was actually
// applied after clamping.
func ClampCoins(before int64, delta int64) (after int64, applied int64) {
	after = before + delta
	if after < 0 {
		after = 0
	}
	return after, after - before
}
