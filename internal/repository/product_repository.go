package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"golang.org/x/sync/errgroup"

	"polli-ahaar/internal/models"
)

// WriteResult reports the outcome of an update or upsert.
type WriteResult struct {
	MatchedCount  int64       `json:"matchedCount"`
	ModifiedCount int64       `json:"modifiedCount"`
	UpsertedID    interface{} `json:"upsertedId,omitempty"`
}

type ProductRepository struct {
	collection *mongo.Collection
}

func NewProductRepository(collection *mongo.Collection) *ProductRepository {
	return &ProductRepository{
		collection: collection,
	}
}

// Create inserts a new product and fills in its id and timestamps.
func (r *ProductRepository) Create(ctx context.Context, product *models.Product) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	now := time.Now()
	product.ID = primitive.NewObjectID()
	product.CreatedAt = now
	product.UpdatedAt = now
	product.MinPrice = nil

	_, err := r.collection.InsertOne(ctx, product)
	return err
}

// FindByID returns one product.
func (r *ProductRepository) FindByID(ctx context.Context, id string) (*models.Product, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	objID, err := parseID(id)
	if err != nil {
		return nil, err
	}

	var product models.Product
	err = r.collection.FindOne(ctx, bson.M{"_id": objID}).Decode(&product)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &product, nil
}

// FindByIDs returns the products that still exist among ids, keyed by id.
func (r *ProductRepository) FindByIDs(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]models.Product, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	cursor, err := r.collection.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var products []models.Product
	if err := cursor.All(ctx, &products); err != nil {
		return nil, err
	}

	byID := make(map[primitive.ObjectID]models.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}
	return byID, nil
}

// List returns one page of products matching q plus the total match count.
// The count and the page are fetched concurrently.
func (r *ProductRepository) List(ctx context.Context, q ProductQuery) ([]models.Product, int64, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	var (
		total    int64
		products = make([]models.Product, 0)
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		n, err := r.collection.CountDocuments(gctx, q.Filter())
		if err != nil {
			return fmt.Errorf("count products: %w", err)
		}
		total = n
		return nil
	})
	g.Go(func() error {
		cursor, err := r.collection.Aggregate(gctx, q.Pipeline())
		if err != nil {
			return fmt.Errorf("aggregate products: %w", err)
		}
		defer cursor.Close(gctx)
		return cursor.All(gctx, &products)
	})
	if err := g.Wait(); err != nil {
		return nil, 0, err
	}
	return products, total, nil
}

// Upsert writes the submitted product fields over the stored document,
// creating it when id does not exist yet.
func (r *ProductRepository) Upsert(ctx context.Context, id string, product *models.Product) (*WriteResult, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	objID, err := parseID(id)
	if err != nil {
		return nil, err
	}

	set, err := productSetDocument(product)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	set["updatedAt"] = now

	update := bson.M{
		"$set":         set,
		"$setOnInsert": bson.M{"createdAt": now},
	}
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": objID}, update, options.Update().SetUpsert(true))
	if err != nil {
		return nil, err
	}
	return &WriteResult{
		MatchedCount:  result.MatchedCount,
		ModifiedCount: result.ModifiedCount,
		UpsertedID:    result.UpsertedID,
	}, nil
}

// productSetDocument converts p to the $set payload of a full replace.
// Identity, creation time, the order counter and computed fields are never
// overwritten; only order placement moves orderCount.
func productSetDocument(p *models.Product) (bson.M, error) {
	raw, err := bson.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("encode product: %w", err)
	}
	var set bson.M
	if err := bson.Unmarshal(raw, &set); err != nil {
		return nil, fmt.Errorf("decode product: %w", err)
	}
	for _, field := range []string{"_id", "createdAt", "orderCount", "minPrice"} {
		delete(set, field)
	}
	return set, nil
}

// Delete removes a product. Orders that reference it are left untouched.
func (r *ProductRepository) Delete(ctx context.Context, id string) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	objID, err := parseID(id)
	if err != nil {
		return 0, err
	}

	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": objID})
	if err != nil {
		return 0, err
	}
	if result.DeletedCount == 0 {
		return 0, ErrNotFound
	}
	return result.DeletedCount, nil
}

// ApplyOrder records an order against the catalog: each line bumps the
// product's orderCount and decrements the stock of the variant whose label
// matches. Both batches are unordered and independent; a failure in one does
// not stop the other, and nothing is rolled back.
func (r *ProductRepository) ApplyOrder(ctx context.Context, items []models.OrderItem) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	counters, stock := orderWriteModels(items)
	unordered := options.BulkWrite().SetOrdered(false)

	var errs []error
	if len(counters) > 0 {
		if _, err := r.collection.BulkWrite(ctx, counters, unordered); err != nil {
			errs = append(errs, fmt.Errorf("increment order counts: %w", err))
		}
	}
	if len(stock) > 0 {
		if _, err := r.collection.BulkWrite(ctx, stock, unordered); err != nil {
			errs = append(errs, fmt.Errorf("decrement variant stock: %w", err))
		}
	}
	return errors.Join(errs...)
}

func orderWriteModels(items []models.OrderItem) (counters, stock []mongo.WriteModel) {
	for _, it := range items {
		filter := bson.M{"_id": it.ProductID}
		counters = append(counters, mongo.NewUpdateOneModel().
			SetFilter(filter).
			SetUpdate(bson.M{"$inc": bson.M{"orderCount": it.Qty}}))

		if it.Label == "" {
			continue
		}
		stock = append(stock, mongo.NewUpdateOneModel().
			SetFilter(filter).
			SetUpdate(bson.M{"$inc": bson.M{"variants.$[v].stock": -it.Qty}}).
			SetArrayFilters(options.ArrayFilters{
				Filters: []interface{}{bson.M{"v.label": it.Label}},
			}))
	}
	return counters, stock
}
