package model

import (
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"strings"
)

type UserRole string

const (
	RoleAdmin UserRole = "admin"
	RoleUser  UserRole = "user"
)

type UserStatus string

const (
	UserActive  UserStatus = "active"
	UserBlocked UserStatus = "blocked"
)

// User is keyed by UID, which doubles as the Mongo document id. The UID is
// generated once at account creation and referenced by every uid-scoped
// collection.
type User struct {
	UID          string             `bson:"_id" json:"uid"`
	Email        string             `bson:"email" json:"email"`
	Password     []byte             `bson:"password" json:"-"`
	FullName     string             `bson:"full_name" json:"full_name"`
	MobileNumber string             `bson:"mobile_number" json:"mobile_number"`
	Role         UserRole           `bson:"role" json:"role"`
	IsAdmin      bool               `bson:"is_admin" json:"is_admin"`
	Status       UserStatus         `bson:"status" json:"status"`
	LoginTokens  []LoginToken       `bson:"login_tokens" json:"-"`
	CreatedAt    primitive.DateTime `bson:"created_at" json:"-"`
	UpdatedAt    primitive.DateTime `bson:"updated_at" json:"-"`
}

type LoginToken struct {
	TokenID    string             `bson:"token_id"`
	Token      []byte             `bson:"token"`
	Expiration primitive.DateTime `bson:"expiration"`
	CreatedAt  primitive.DateTime `bson:"created_at"`
}

func ParseUserRole(s string) (UserRole, error) {
	switch UserRole(strings.ToLower(strings.TrimSpace(s))) {
	case RoleAdmin:
		return RoleAdmin, nil
	case RoleUser:
		return RoleUser, nil
	}
	return "", errors.Errorf("invalid user role: %s", s)
}

func ParseUserStatus(s string) (UserStatus, error) {
	switch UserStatus(strings.ToLower(strings.TrimSpace(s))) {
	case UserActive:
		return UserActive, nil
	case UserBlocked:
		return UserBlocked, nil
	}
	return "", errors.Errorf("invalid user status: %s", s)
}

func (u User) Blocked() bool {
	return u.Status == UserBlocked
}
