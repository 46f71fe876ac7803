package database

import (
	"coinloyalty/internal/model"
	"context"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
	"time"
)

func (db Database) UserInsert(ctx context.Context, u model.User) (uid string, err error) {
	u.UID = uuid.NewString()
	u.LoginTokens = []model.LoginToken{}
	u.CreatedAt = primitive.NewDateTimeFromTime(time.Now())
	u.UpdatedAt = primitive.NewDateTimeFromTime(time.Now())

	_, err = db.Collection(CollectionUsers).InsertOne(ctx, u)
	if err != nil {
		return "", errors.Wrapf(err, "error inserting User with email: %s", u.Email)
	}
	return u.UID, nil
}

func (db Database) UserFindByEmail(ctx context.Context, email string) (model.User, error) {
	var u model.User
	err := db.Collection(CollectionUsers).FindOne(ctx, bson.M{"email": email}).Decode(&u)
	return u, errors.Wrapf(err, "error finding User with email: %s", email)
}

func (db Database) UserFindByUID(ctx context.Context, uid string) (model.User, error) {
	var u model.User
	err := db.Collection(CollectionUsers).FindOne(ctx, bson.M{"_id": uid}).Decode(&u)
	return u, errors.Wrapf(err, "error finding User with UID: %s", uid)
}

// UsersFindPage lists users ordered by email, resuming after afterEmail when
// it is non-empty. The caller pages by passing the last email it saw.
func (db Database) UsersFindPage(ctx context.Context, afterEmail string, pageSize int64) ([]model.User, error) {
	filter := bson.M{}
	if afterEmail != "" {
		filter["email"] = bson.M{"$gt": afterEmail}
	}
	opts := options.Find().SetSort(bson.M{"email": 1}).SetLimit(pageSize)

	var us []model.User
	cur, err := db.Collection(CollectionUsers).Find(ctx, filter, opts)
	if err != nil {
		return nil, errors.Wrapf(err, "error getting cursor to find Users after email: %s", afterEmail)
	}
	if err = cur.All(ctx, &us); err != nil {
		return nil, errors.Wrapf(err, "error getting Users from cursor after email: %s", afterEmail)
	}
	return us, nil
}

func (db Database) UsersFindAdmins(ctx context.Context, limit int64) ([]model.User, error) {
	var us []model.User
	opts := options.Find().SetLimit(limit)
	cur, err := db.Collection(CollectionUsers).Find(ctx, bson.M{"is_admin": true}, opts)
	if err != nil {
		return nil, errors.Wrap(err, "error getting cursor to find admin Users")
	}
	if err = cur.All(ctx, &us); err != nil {
		return nil, errors.Wrap(err, "error getting admin Users from cursor")
	}
	return us, nil
}

func (db Database) UserUpdateProfile(ctx context.Context, u model.User) error {
	res, err := db.Collection(CollectionUsers).UpdateOne(
		ctx,
		bson.M{"_id": u.UID},
		bson.M{"$set": bson.M{
			"email":         u.Email,
			"full_name":     u.FullName,
			"mobile_number": u.MobileNumber,
			"role":          u.Role,
			"is_admin":      u.Role == model.RoleAdmin,
			"updated_at":    primitive.NewDateTimeFromTime(time.Now()),
		}},
	)
	if err != nil {
		return errors.Wrapf(err, "error updating User with UID: %s", u.UID)
	}
	if res.MatchedCount == 0 {
		return errors.Wrapf(ErrNoDocumentsModified, "User not found when updating, UID: %s", u.UID)
	}
	return nil
}

func (db Database) UserSetStatus(ctx context.Context, uid string, status model.UserStatus, updatedBy string) error {
	res, err := db.Collection(CollectionUsers).UpdateOne(
		ctx,
		bson.M{"_id": uid},
		bson.M{"$set": bson.M{
			"status":     status,
			"updated_by": updatedBy,
			"updated_at": primitive.NewDateTimeFromTime(time.Now()),
		}},
	)
	if err != nil {
		return errors.Wrapf(err, "error setting status %s on User with UID: %s", status, uid)
	}
	if res.MatchedCount == 0 {
		return errors.Wrapf(ErrNoDocumentsModified, "User not found when setting status, UID: %s", uid)
	}
	return nil
}

func (db Database) UserAddLoginToken(ctx context.Context, uid string, lt model.LoginToken) error {
	lt.CreatedAt = primitive.NewDateTimeFromTime(time.Now())

	res, err := db.Collection(CollectionUsers).UpdateOne(
		ctx,
		bson.M{"_id": uid},
		bson.M{"$push": bson.M{
			"login_tokens": bson.M{
				"$each":     []model.LoginToken{lt},
				"$position": 0,
				"$slice":    8,
			},
		}},
	)
	if err != nil {
		return errors.Wrapf(err, "error adding login token to User with UID: %s", uid)
	}
	if res.ModifiedCount == 0 {
		return errors.Errorf("User not modified when adding login token, UID: %s", uid)
	}
	return nil
}

func (db Database) UserRemoveLoginToken(ctx context.Context, uid string, tokenID string) error {
	res, err := db.Collection(CollectionUsers).UpdateOne(
		ctx,
		bson.M{"_id": uid},
		bson.M{"$pull": bson.M{"login_tokens": bson.M{"token_id": tokenID}}},
	)
	if err != nil {
		return errors.Wrapf(err, "error removing login token from User with UID: %s, token ID: %s", uid, tokenID)
	}
	if res.ModifiedCount == 0 {
		return errors.Errorf("User not modified when removing login token, UID: %s, token ID: %s", uid, tokenID)
	}
	return nil
}

func (db Database) UsersCount(ctx context.Context) (int64, error) {
	n, err := db.Collection(CollectionUsers).CountDocuments(ctx, bson.M{})
	return n, errors.Wrap(err, "error counting Users")
}
