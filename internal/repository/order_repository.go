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

const (
	SortOldest = "oldest"

	DefaultOrderLimit   = 20
	DefaultMyOrderLimit = 10
)

// OrderQuery holds the filters of the order listings.
type OrderQuery struct {
	UserEmail string
	Search    string
	Status    string
	Sort      string
	Page      Page
}

// Filter builds the find filter for q.
func (q OrderQuery) Filter() bson.M {
	filter := bson.M{}
	if q.UserEmail != "" {
		filter["userEmail"] = q.UserEmail
	}
	if q.Status != "" {
		filter["status"] = q.Status
	}
	if q.Search != "" {
		rx := containsFold(q.Search)
		filter["$or"] = bson.A{
			bson.M{"shipping.name": rx},
			bson.M{"shipping.phone": rx},
			bson.M{"shipping.email": rx},
			bson.M{"items.name": rx},
		}
	}
	return filter
}

// SortSpec orders by insertion, newest first unless q.Sort is "oldest".
func (q OrderQuery) SortSpec() bson.D {
	if q.Sort == SortOldest {
		return bson.D{{Key: "_id", Value: 1}}
	}
	return bson.D{{Key: "_id", Value: -1}}
}

type OrderRepository struct {
	collection *mongo.Collection
	now        func() time.Time
}

func NewOrderRepository(collection *mongo.Collection) *OrderRepository {
	return &OrderRepository{
		collection: collection,
		now:        time.Now,
	}
}

// Create inserts order as a new pending order. Nothing deduplicates
// resubmitted checkouts.
func (r *OrderRepository) Create(ctx context.Context, order *models.Order) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	now := r.now()
	order.ID = primitive.NewObjectID()
	order.CreatedAt = now
	order.UpdatedAt = now

	_, err := r.collection.InsertOne(ctx, order)
	return err
}

func (r *OrderRepository) FindByID(ctx context.Context, id string) (*models.Order, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	objID, err := parseID(id)
	if err != nil {
		return nil, err
	}
	return r.findOne(ctx, objID)
}

func (r *OrderRepository) findOne(ctx context.Context, id primitive.ObjectID) (*models.Order, error) {
	var order models.Order
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&order); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &order, nil
}

// List returns one page of orders matching q and the total match count.
func (r *OrderRepository) List(ctx context.Context, q OrderQuery) ([]models.Order, int64, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	filter := q.Filter()
	var (
		total  int64
		orders = make([]models.Order, 0)
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		n, err := r.collection.CountDocuments(gctx, filter)
		if err != nil {
			return fmt.Errorf("count orders: %w", err)
		}
		total = n
		return nil
	})
	g.Go(func() error {
		opts := options.Find().
			SetSort(q.SortSpec()).
			SetSkip(q.Page.Skip()).
			SetLimit(int64(q.Page.Limit))
		cursor, err := r.collection.Find(gctx, filter, opts)
		if err != nil {
			return fmt.Errorf("find orders: %w", err)
		}
		defer cursor.Close(gctx)
		return cursor.All(gctx, &orders)
	})
	if err := g.Wait(); err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

// UpdateShipping replaces the shipping details of a pending order.
func (r *OrderRepository) UpdateShipping(ctx context.Context, id string, shipping models.Shipping) error {
	return r.updatePending(ctx, id, bson.M{"shipping": shipping})
}

// Cancel moves a pending order to cancelled. Any other status is rejected
// with ErrNotPending and left unchanged.
func (r *OrderRepository) Cancel(ctx context.Context, id string) error {
	return r.updatePending(ctx, id, bson.M{"status": models.OrderCancelled})
}

func (r *OrderRepository) updatePending(ctx context.Context, id string, set bson.M) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	objID, err := parseID(id)
	if err != nil {
		return err
	}

	set["updatedAt"] = r.now()
	filter := bson.M{"_id": objID, "status": models.OrderPending}
	result, err := r.collection.UpdateOne(ctx, filter, bson.M{"$set": set})
	if err != nil {
		return err
	}
	if result.MatchedCount > 0 {
		return nil
	}

	// Nothing matched: either the order is gone or it has moved past pending.
	if _, err := r.findOne(ctx, objID); err != nil {
		return err
	}
	return ErrNotPending
}

// SetStatus assigns any valid status regardless of the current one.
func (r *OrderRepository) SetStatus(ctx context.Context, id string, status models.OrderStatus) (*WriteResult, error) {
	return r.set(ctx, id, bson.M{"status": status})
}

// MarkReviewed flags an order as reviewed by its buyer.
func (r *OrderRepository) MarkReviewed(ctx context.Context, id primitive.ObjectID) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	_, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"reviewed": true, "updatedAt": r.now()}})
	return err
}

func (r *OrderRepository) set(ctx context.Context, id string, set bson.M) (*WriteResult, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	objID, err := parseID(id)
	if err != nil {
		return nil, err
	}

	set["updatedAt"] = r.now()
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": objID}, bson.M{"$set": set})
	if err != nil {
		return nil, err
	}
	if result.MatchedCount == 0 {
		return nil, ErrNotFound
	}
	return &WriteResult{MatchedCount: result.MatchedCount, ModifiedCount: result.ModifiedCount}, nil
}

func (r *OrderRepository) Delete(ctx context.Context, id string) (int64, error) {
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
