package model

import (
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"strings"
)

// Product is an admin-managed catalog listing shown in the app.
type Product struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name      string             `bson:"name" json:"name"`
	Price     int64              `bson:"price" json:"price"`
	ImageURL  string             `bson:"image_url" json:"image_url"`
	CreatedAt primitive.DateTime `bson:"created_at" json:"created_at"`
}

func (p Product) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return errors.New("product name is required")
	}
	if p.Price < 0 {
		return errors.New("product price must not be negative")
	}
	return nil
}

// Poster is a promotional banner shown on the home screen.
type Poster struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Title     string             `bson:"title" json:"title"`
	ImageURL  string             `bson:"image_url" json:"image_url"`
	CreatedAt primitive.DateTime `bson:"created_at" json:"created_at"`
}
