package repository

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"polli-ahaar/internal/cart"
)

// CartRepository persists one cart per user. Saves overwrite whatever is
// stored, so concurrent clients of the same user race and the last write
// wins.
type CartRepository struct {
	collection *mongo.Collection
}

func NewCartRepository(collection *mongo.Collection) *CartRepository {
	return &CartRepository{collection: collection}
}

type cartDocument struct {
	UserEmail string      `bson:"userEmail"`
	Items     []cart.Item `bson:"items"`
	UpdatedAt time.Time   `bson:"updatedAt"`
}

// Load returns the stored cart for email, or an empty cart.
func (r *CartRepository) Load(ctx context.Context, email string) (cart.Cart, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var doc cartDocument
	err := r.collection.FindOne(ctx, bson.M{"userEmail": email}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return cart.Cart{Items: []cart.Item{}}, nil
		}
		return cart.Cart{}, err
	}
	return cart.Hydrate(doc.Items), nil
}

// Save stores c as the cart of email.
func (r *CartRepository) Save(ctx context.Context, email string, c cart.Cart) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	items := c.Items
	if items == nil {
		items = []cart.Item{}
	}
	update := bson.M{"$set": bson.M{"items": items, "updatedAt": time.Now()}}
	_, err := r.collection.UpdateOne(ctx, bson.M{"userEmail": email}, update, options.Update().SetUpsert(true))
	return err
}
