package database

import (
	"coinloyalty/internal/model"
	"context"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"time"
)

func (db Database) SchemeInsert(ctx context.Context, s model.Scheme) (id string, err error) {
	if s.ID.IsZero() {
		s.ID = primitive.NewObjectID()
	}
	s.CreatedAt = primitive.NewDateTimeFromTime(time.Now())
	_, err = db.Collection(CollectionSchemes).InsertOne(ctx, s)
	if err != nil {
		return "", errors.Wrapf(err, "error inserting Scheme: %s", s.Title)
	}
	return s.ID.Hex(), nil
}

func (db Database) SchemeFindByID(ctx context.Context, schemeID string) (model.Scheme, error) {
	var s model.Scheme
	objID, err := primitive.ObjectIDFromHex(schemeID)
	if err != nil {
		return s, errors.Wrapf(err, "error creating ObjectID from hex: %s", schemeID)
	}
	err = db.Collection(CollectionSchemes).FindOne(ctx, bson.M{"_id": objID}).Decode(&s)
	return s, errors.Wrapf(err, "error finding Scheme with ID: %s", schemeID)
}

func (db Database) SchemesFindAll(ctx context.Context) ([]model.Scheme, error) {
	opts := options.Find().SetSort(bson.M{"created_at": -1})
	var ss []model.Scheme
	cur, err := db.Collection(CollectionSchemes).Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, errors.Wrap(err, "error getting cursor to find all Schemes")
	}
	if err = cur.All(ctx, &ss); err != nil {
		return nil, errors.Wrap(err, "error getting all Schemes from cursor")
	}
	return ss, nil
}

func (db Database) SchemeUpdate(ctx context.Context, s model.Scheme) error {
	res, err := db.Collection(CollectionSchemes).UpdateOne(
		ctx,
		bson.M{"_id": s.ID},
		bson.M{"$set": bson.M{
			"title":          s.Title,
			"required_coins": s.RequiredCoins,
			"reward_items":   s.RewardItems,
			"poster_url":     s.PosterURL,
		}},
	)
	if err != nil {
		return errors.Wrapf(err, "error updating Scheme with ID: %s", s.ID.Hex())
	}
	if res.MatchedCount == 0 {
		return errors.Wrapf(mongo.ErrNoDocuments, "Scheme not found when updating, ID: %s", s.ID.Hex())
	}
	return nil
}

func (db Database) SchemeDelete(ctx context.Context, schemeID string) error {
	objID, err := primitive.ObjectIDFromHex(schemeID)
	if err != nil {
		return errors.Wrapf(err, "error creating ObjectID from hex: %s", schemeID)
	}
	res, err := db.Collection(CollectionSchemes).DeleteOne(ctx, bson.M{"_id": objID})
	if err != nil {
		return errors.Wrapf(err, "error deleting Scheme with ID: %s", schemeID)
	}
	if res.DeletedCount == 0 {
		return errors.Wrapf(mongo.ErrNoDocuments, "Scheme not found when deleting, ID: %s", schemeID)
	}
	return nil
}

func (db Database) ProductInsert(ctx context.Context, p model.Product) (id string, err error) {
	if p.ID.IsZero() {
		p.ID = primitive.NewObjectID()
	}
	p.CreatedAt = primitive.NewDateTimeFromTime(time.Now())
	_, err = db.Collection(CollectionProducts).InsertOne(ctx, p)
	if err != nil {
		return "", errors.Wrapf(err, "error inserting Product: %s", p.Name)
	}
	return p.ID.Hex(), nil
}

func (db Database) ProductsFindAll(ctx context.Context) ([]model.Product, error) {
	opts := options.Find().SetSort(bson.M{"created_at": -1})
	var ps []model.Product
	cur, err := db.Collection(CollectionProducts).Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, errors.Wrap(err, "error getting cursor to find all Products")
	}
	if err = cur.All(ctx, &ps); err != nil {
		return nil, errors.Wrap(err, "error getting all Products from cursor")
	}
	return ps, nil
}

// ProductDelete removes the product and returns it so the caller can clean
// up the stored image.
func (db Database) ProductDelete(ctx context.Context, productID string) (model.Product, error) {
	var p model.Product
	objID, err := primitive.ObjectIDFromHex(productID)
	if err != nil {
		return p, errors.Wrapf(err, "error creating ObjectID from hex: %s", productID)
	}
	err = db.Collection(CollectionProducts).FindOneAndDelete(ctx, bson.M{"_id": objID}).Decode(&p)
	return p, errors.Wrapf(err, "error deleting Product with ID: %s", productID)
}

func (db Database) ProductsCount(ctx context.Context) (int64, error) {
	n, err := db.Collection(CollectionProducts).CountDocuments(ctx, bson.M{})
	return n, errors.Wrap(err, "error counting Products")
}

func (db Database) PosterInsert(ctx context.Context, p model.Poster) (id string, err error) {
	if p.ID.IsZero() {
		p.ID = primitive.NewObjectID()
	}
	p.CreatedAt = primitive.NewDateTimeFromTime(time.Now())
	_, err = db.Collection(CollectionPosters).InsertOne(ctx, p)
	if err != nil {
		return "", errors.Wrapf(err, "error inserting Poster: %s", p.Title)
	}
	return p.ID.Hex(), nil
}

func (db Database) PostersFindAll(ctx context.Context) ([]model.Poster, error) {
	opts := options.Find().SetSort(bson.M{"created_at": -1})
	var ps []model.Poster
	cur, err := db.Collection(CollectionPosters).Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, errors.Wrap(err, "error getting cursor to find all Posters")
	}
	if err = cur.All(ctx, &ps); err != nil {
		return nil, errors.Wrap(err, "error getting all Posters from cursor")
	}
	return ps, nil
}

// PosterDelete removes the poster and returns it so the caller can clean up
// the stored image.
func (db Database) PosterDelete(ctx context.Context, posterID string) (model.Poster, error) {
	var p model.Poster
	objID, err := primitive.ObjectIDFromHex(posterID)
	if err != nil {
		return p, errors.Wrapf(err, "error creating ObjectID from hex: %s", posterID)
	}
	err = db.Collection(CollectionPosters).FindOneAndDelete(ctx, bson.M{"_id": objID}).Decode(&p)
	return p, errors.Wrapf(err, "error deleting Poster with ID: %s", posterID)
}
