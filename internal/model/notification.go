package model

import (
	"fmt"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	NotifyWelcome        = "welcome"
	NotifyBillUploaded   = "bill_uploaded"
	NotifyBillApproved   = "bill_approved"
	NotifyBillRejected   = "bill_rejected"
	NotifySchemeRequest  = "scheme_request"
	NotifySchemeDecision = "scheme_request_decision"
	NotifyWalletAdjusted = "wallet_adjust"
)

// Notification is the durable in-app counterpart of a push message. Fan-out
// writes use a deterministic id of the form {uid}_{entityID}_{suffix}, so a
// repeated fan-out for the same transition collapses into one document.
// Only the Read flag is ever mutated after creation.
type Notification struct {
	NotificationID  string             `bson:"_id" json:"id"`
	UID             string             `bson:"uid" json:"uid"`
	Title           string             `bson:"title" json:"title"`
	Body            string             `bson:"body" json:"body"`
	Type            string             `bson:"type" json:"type"`
	Read            bool               `bson:"read" json:"read"`
	Coins           int64              `bson:"coins,omitempty" json:"coins,omitempty"`
	BillID          string             `bson:"bill_id,omitempty" json:"bill_id,omitempty"`
	SchemeRequestID string             `bson:"scheme_request_id,omitempty" json:"scheme_request_id,omitempty"`
	SchemeID        string             `bson:"scheme_id,omitempty" json:"scheme_id,omitempty"`
	Decision        string             `bson:"decision,omitempty" json:"decision,omitempty"`
	DecidedBy       string             `bson:"decided_by,omitempty" json:"decided_by,omitempty"`
	CreatedBy       string             `bson:"created_by,omitempty" json:"created_by,omitempty"`
	CreatedAt       primitive.DateTime `bson:"created_at" json:"created_at"`
}

// NotificationID builds the deterministic document id for a state-transition
// notification.
func NotificationID(uid string, entityID string, suffix string) string {
	return fmt.Sprintf("%s_%s_%s", uid, entityID, suffix)
}

type TokenPlatform string

const (
	PlatformAndroid TokenPlatform = "android"
	PlatformIOS     TokenPlatform = "ios"
)

// FCMToken documents are keyed by the token value itself, which makes the
// upsert-on-register and delete-on-invalid paths trivial.
type FCMToken struct {
	Token     string             `bson:"_id" json:"token"`
	UID       string             `bson:"uid" json:"uid"`
	Platform  TokenPlatform      `bson:"platform" json:"platform"`
	Enabled   bool               `bson:"enabled" json:"enabled"`
	UpdatedAt primitive.DateTime `bson:"updated_at" json:"-"`
}
