package model

import "go.mongodb.org/mongo-driver/bson/primitive"

const (
	HistoryBillUpload        = "bill_upload"
	HistoryBillApproved      = "bill_approved"
	HistoryBillRejected      = "bill_rejected"
	HistorySchemeRequest     = "scheme_request"
	HistorySchemeApproved    = "scheme_request_approved"
	HistorySchemeRejected    = "scheme_request_rejected"
	HistoryAccountCreated    = "account_created"
	HistoryAdminWalletAdjust = "admin_wallet_adjust"
)

// HistoryEntry is an append-only per-uid ledger record. It is display-only
// and never authoritative for the wallet balance; the wallet document is.
// Entries produced by fan-out use a deterministic EntryID so that re-running
// the fan-out cannot duplicate them.
type HistoryEntry struct {
	EntryID         string             `bson:"_id,omitempty" json:"id"`
	UID             string             `bson:"uid" json:"uid"`
	Title           string             `bson:"title" json:"title"`
	Type            string             `bson:"type" json:"type"`
	CoinsDelta      int64              `bson:"coins_delta" json:"coins_delta"`
	BillID          string             `bson:"bill_id,omitempty" json:"bill_id,omitempty"`
	SchemeRequestID string             `bson:"scheme_request_id,omitempty" json:"scheme_request_id,omitempty"`
	SchemeID        string             `bson:"scheme_id,omitempty" json:"scheme_id,omitempty"`
	TotalAmount     int64              `bson:"total_amount,omitempty" json:"total_amount,omitempty"`
	BeforeCoins     *int64             `bson:"before_coins,omitempty" json:"before_coins,omitempty"`
	AfterCoins      *int64             `bson:"after_coins,omitempty" json:"after_coins,omitempty"`
	Reason          string             `bson:"reason,omitempty" json:"reason,omitempty"`
	CreatedBy       string             `bson:"created_by,omitempty" json:"created_by,omitempty"`
	CreatedAt       primitive.DateTime `bson:"created_at" json:"created_at"`
}
