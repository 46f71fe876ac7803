package database

import (
	"context"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	Name = "coin_loyalty_db"

	// Collection names are the wire contract shared with the mobile client.
	CollectionUsers          = "User"
	CollectionWallets        = "Wallet"
	CollectionBills          = "Bills"
	CollectionSchemeRequests = "SchemeRequests"
	CollectionSchemes        = "Schemes"
	CollectionProducts       = "Products"
	CollectionHistory        = "History"
	CollectionNotifications  = "Notifications"
	CollectionUserFcmTokens  = "UserFcmTokens"
	CollectionAdminFcmTokens = "AdminFcmTokens"
	CollectionApprovedBills  = "ApprovedBills"
	CollectionRejectedBills  = "RejectedBills"
	CollectionPosters        = "Posters"
)

type Database struct {
	*mongo.Database
}

var (
	ErrNoDocumentsModified  = errors.New("no documents modified")
	ErrWalletNotFound       = errors.New("Wallet not found")
	ErrNotEnoughCoins       = errors.New("Not enough coins")
	ErrAlreadyDecided       = errors.New("already decided")
	ErrAlreadyProcessed     = errors.New("already processed")
	ErrRequestAlreadyActive = errors.New("already requested")
)

func ConnectDB(ctx context.Context, dbURI string) (*mongo.Client, error) {
	c, err := mongo.Connect(ctx, options.Client().ApplyURI(dbURI))
	if err != nil {
		return nil, err
	}

	_, err = c.Database(Name).Collection(CollectionUsers).Indexes().CreateOne(
		ctx,
		mongo.IndexModel{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	)
	if err != nil {
		return nil, err
	}

	// No index on Wallets: the owner UID is the document id, so uniqueness
	// and lookup both ride on _id.
	_, err = c.Database(Name).Collection(CollectionBills).Indexes().CreateMany(
		ctx,
		[]mongo.IndexModel{
			{
				Keys: bson.D{
					{Key: "uid", Value: 1},
					{Key: "created_at", Value: -1},
				},
			},
			{
				Keys: bson.D{
					{Key: "status", Value: 1},
					{Key: "updated_at", Value: -1},
				},
			},
		},
	)
	if err != nil {
		return nil, err
	}

	_, err = c.Database(Name).Collection(CollectionSchemeRequests).Indexes().CreateMany(
		ctx,
		[]mongo.IndexModel{
			{
				Keys: bson.D{
					{Key: "uid", Value: 1},
					{Key: "scheme_id", Value: 1},
				},
			},
			{
				Keys: bson.D{
					{Key: "status", Value: 1},
					{Key: "updated_at", Value: -1},
				},
			},
		},
	)
	if err != nil {
		return nil, err
	}

	_, err = c.Database(Name).Collection(CollectionHistory).Indexes().CreateOne(
		ctx,
		mongo.IndexModel{
			Keys: bson.D{
				{Key: "uid", Value: 1},
				{Key: "created_at", Value: -1},
			},
		},
	)
	if err != nil {
		return nil, err
	}

	_, err = c.Database(Name).Collection(CollectionNotifications).Indexes().CreateMany(
		ctx,
		[]mongo.IndexModel{
			{
				Keys: bson.D{
					{Key: "uid", Value: 1},
					{Key: "created_at", Value: -1},
				},
			},
			{
				Keys: bson.D{
					{Key: "uid", Value: 1},
					{Key: "read", Value: 1},
				},
			},
		},
	)
	if err != nil {
		return nil, err
	}

	for _, coll := range []string{CollectionUserFcmTokens, CollectionAdminFcmTokens} {
		_, err = c.Database(Name).Collection(coll).Indexes().CreateOne(
			ctx,
			mongo.IndexModel{
				Keys: bson.D{{Key: "uid", Value: 1}},
			},
		)
		if err != nil {
			return nil, err
		}
	}

	return c, nil
}

// WithTransaction runs fn inside a single Mongo transaction. All wallet
// mutations go through here so that concurrent approve/redeem operations on
// the same wallet serialize under the database's transaction isolation.
func (db Database) WithTransaction(ctx context.Context, fn func(sc mongo.SessionContext) error) error {
	session, err := db.Client().StartSession()
	if err != nil {
		return errors.Wrap(err, "error starting session")
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	})
	return err
}
