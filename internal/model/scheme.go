package model

import (
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"strings"
)

// Scheme is an admin-managed reward bundle redeemable for a fixed coin price.
type Scheme struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Title         string             `bson:"title" json:"title"`
	RequiredCoins int64              `bson:"required_coins" json:"required_coins"`
	RewardItems   []RewardItem       `bson:"reward_items" json:"reward_items"`
	PosterURL     string             `bson:"poster_url" json:"poster_url"`
	CreatedAt     primitive.DateTime `bson:"created_at" json:"created_at"`
}

type RewardItem struct {
	Name  string `bson:"name" json:"name"`
	Price int64  `bson:"price" json:"price"`
}

func (s Scheme) Validate() error {
	if strings.TrimSpace(s.Title) == "" {
		return errors.New("scheme title is required")
	}
	if s.RequiredCoins <= 0 {
		return errors.New("required coins must be positive")
	}
	return nil
}

type RequestStatus string

const (
	RequestPending  RequestStatus = "pending"
	RequestApproved RequestStatus = "approved"
	RequestRejected RequestStatus = "rejected"
)

// SchemeRequest records a redemption attempt. The wallet debit happens when
// the request is created, not when it is decided; a rejected request does not
// refund the coins.
type SchemeRequest struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UID           string             `bson:"uid" json:"uid"`
	SchemeID      primitive.ObjectID `bson:"scheme_id" json:"scheme_id"`
	SchemeTitle   string             `bson:"scheme_title" json:"scheme_title"`
	RequiredCoins int64              `bson:"required_coins" json:"required_coins"`
	RewardItems   []RewardItem       `bson:"reward_items" json:"reward_items"`
	Status        RequestStatus      `bson:"status" json:"status"`
	DecidedBy     string             `bson:"decided_by,omitempty" json:"decided_by,omitempty"`
	DecidedAt     primitive.DateTime `bson:"decided_at,omitempty" json:"decided_at,omitempty"`
	CreatedAt     primitive.DateTime `bson:"created_at" json:"created_at"`
	UpdatedAt     primitive.DateTime `bson:"updated_at" json:"-"`
}

func ParseRequestStatus(s string) (RequestStatus, error) {
	switch RequestStatus(strings.ToLower(strings.TrimSpace(s))) {
	case RequestPending:
		return RequestPending, nil
	case RequestApproved:
		return RequestApproved, nil
	case RequestRejected:
		return RequestRejected, nil
	}
	return "", errors.Errorf("invalid scheme request status: %s", s)
}

func (r SchemeRequest) Decided() bool {
	return r.Status == RequestApproved || r.Status == RequestRejected
}
