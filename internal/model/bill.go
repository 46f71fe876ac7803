package model

import (
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"strings"
)

type BillStatus string

const (
	BillPending  BillStatus = "pending"
	BillApproved BillStatus = "approved"
	BillRejected BillStatus = "rejected"
)

// Bill is a user-submitted purchase receipt. Status moves away from pending
// at most once; ApprovedCoins is set only on approval.
type Bill struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UID           string             `bson:"uid" json:"uid"`
	Status        BillStatus         `bson:"status" json:"status"`
	BillNumber    string             `bson:"bill_number" json:"bill_number"`
	CustomerName  string             `bson:"customer_name" json:"customer_name"`
	TotalAmount   int64              `bson:"total_amount" json:"total_amount"`
	Images        []string           `bson:"images" json:"images"`
	ApprovedCoins *int64             `bson:"approved_coins,omitempty" json:"approved_coins,omitempty"`
	DecidedBy     string             `bson:"decided_by,omitempty" json:"decided_by,omitempty"`
	DecidedAt     primitive.DateTime `bson:"decided_at,omitempty" json:"decided_at,omitempty"`
	CreatedAt     primitive.DateTime `bson:"created_at" json:"created_at"`
	UpdatedAt     primitive.DateTime `bson:"updated_at" json:"-"`
}

func ParseBillStatus(s string) (BillStatus, error) {
	switch BillStatus(strings.ToLower(strings.TrimSpace(s))) {
	case BillPending:
		return BillPending, nil
	case BillApproved:
		return BillApproved, nil
	case BillRejected:
		return BillRejected, nil
	}
	return "", errors.Errorf("invalid bill status: %s", s)
}

// Decided reports whether the status has left pending. A decided bill must
// never transition again.
func (b Bill) Decided() bool {
	return b.Status == BillApproved || b.Status == BillRejected
}

func (b Bill) Validate() error {
	if b.UID == "" {
		return errors.New("bill uid is required")
	}
	if strings.TrimSpace(b.BillNumber) == "" {
		return errors.New("bill number is required")
	}
	if strings.TrimSpace(b.CustomerName) == "" {
		return errors.New("customer name is required")
	}
	if b.TotalAmount <= 0 {
		return errors.New("total amount must be positive")
	}
	if len(b.Images) == 0 {
		return errors.New("at least 1 bill image is required")
	}
	return nil
}
