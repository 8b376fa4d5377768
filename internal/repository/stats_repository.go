package repository

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/sync/errgroup"

	"polli-ahaar/internal/database"
	"polli-ahaar/internal/models"
)

const topN = 5

// StatsRepository runs the read-only analytics pipelines for the admin
// dashboard.
type StatsRepository struct {
	orders   *mongo.Collection
	users    *mongo.Collection
	products *mongo.Collection
}

func NewStatsRepository(db *mongo.Database) *StatsRepository {
	return &StatsRepository{
		orders:   db.Collection(database.Orders),
		users:    db.Collection(database.Users),
		products: db.Collection(database.Products),
	}
}

// notCancelled excludes cancelled orders from revenue figures.
func notCancelled() bson.M {
	return bson.M{"status": bson.M{"$ne": models.OrderCancelled}}
}

func statusBreakdownPipeline() mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$group", Value: bson.M{"_id": "$status", "count": bson.M{"$sum": 1}}}},
		{{Key: "$project", Value: bson.M{"_id": 0, "status": "$_id", "count": 1}}},
		{{Key: "$sort", Value: bson.D{{Key: "count", Value: -1}}}},
	}
}

func revenuePipeline() mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$match", Value: notCancelled()}},
		{{Key: "$group", Value: bson.M{
			"_id":     nil,
			"revenue": bson.M{"$sum": "$amounts.grandTotal"},
			"orders":  bson.M{"$sum": 1},
		}}},
	}
}

// salesByPeriodPipeline groups non-cancelled orders created since `since`
// by createdAt formatted with format, e.g. "%Y-%m-%d".
func salesByPeriodPipeline(since time.Time, format, as string) mongo.Pipeline {
	match := notCancelled()
	match["createdAt"] = bson.M{"$gte": since}
	return mongo.Pipeline{
		{{Key: "$match", Value: match}},
		{{Key: "$group", Value: bson.M{
			"_id":     bson.M{"$dateToString": bson.M{"format": format, "date": "$createdAt"}},
			"revenue": bson.M{"$sum": "$amounts.grandTotal"},
			"orders":  bson.M{"$sum": 1},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "_id", Value: 1}}}},
		{{Key: "$project", Value: bson.M{"_id": 0, as: "$_id", "revenue": 1, "orders": 1}}},
	}
}

func topProductsPipeline() mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$match", Value: notCancelled()}},
		{{Key: "$unwind", Value: "$items"}},
		{{Key: "$group", Value: bson.M{
			"_id":     "$items.productId",
			"name":    bson.M{"$first": "$items.name"},
			"image":   bson.M{"$first": "$items.imageUrl"},
			"qty":     bson.M{"$sum": "$items.qty"},
			"revenue": bson.M{"$sum": bson.M{"$multiply": bson.A{"$items.price", "$items.qty"}}},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "revenue", Value: -1}, {Key: "qty", Value: -1}}}},
		{{Key: "$limit", Value: topN}},
		{{Key: "$project", Value: bson.M{
			"_id":       0,
			"productId": bson.M{"$toString": "$_id"},
			"name":      1,
			"image":     1,
			"qty":       1,
			"revenue":   1,
		}}},
	}
}

func topCustomersPipeline() mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$match", Value: notCancelled()}},
		{{Key: "$group", Value: bson.M{
			"_id":     "$userEmail",
			"orders":  bson.M{"$sum": 1},
			"revenue": bson.M{"$sum": "$amounts.grandTotal"},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "revenue", Value: -1}, {Key: "orders", Value: -1}}}},
		{{Key: "$limit", Value: topN}},
	}
}

func aggregateInto[T any](ctx context.Context, coll *mongo.Collection, pipeline mongo.Pipeline, out *[]T) error {
	cursor, err := coll.Aggregate(ctx, pipeline)
	if err != nil {
		return err
	}
	defer cursor.Close(ctx)

	results := make([]T, 0)
	if err := cursor.All(ctx, &results); err != nil {
		return err
	}
	*out = results
	return nil
}

// AdminStats computes the dashboard figures as of now. All pipelines run
// concurrently and the first failure aborts the rest.
func (r *StatsRepository) AdminStats(ctx context.Context, now time.Time) (*models.AdminStats, error) {
	ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	stats := &models.AdminStats{}
	var revenue []struct {
		Revenue float64 `bson:"revenue"`
		Orders  int64   `bson:"orders"`
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		n, err := r.orders.CountDocuments(gctx, bson.M{})
		stats.Totals.TotalOrders = n
		return wrap("count orders", err)
	})
	g.Go(func() error {
		n, err := r.users.CountDocuments(gctx, bson.M{})
		stats.Totals.TotalUsers = n
		return wrap("count users", err)
	})
	g.Go(func() error {
		n, err := r.products.CountDocuments(gctx, bson.M{})
		stats.Totals.TotalProducts = n
		return wrap("count products", err)
	})
	g.Go(func() error {
		return wrap("revenue", aggregateInto(gctx, r.orders, revenuePipeline(), &revenue))
	})
	g.Go(func() error {
		return wrap("status breakdown", aggregateInto(gctx, r.orders, statusBreakdownPipeline(), &stats.StatusBreakdown))
	})
	g.Go(func() error {
		since := now.AddDate(0, 0, -30)
		return wrap("sales by day", aggregateInto(gctx, r.orders, salesByPeriodPipeline(since, "%Y-%m-%d", "date"), &stats.SalesByDay))
	})
	g.Go(func() error {
		since := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location()).AddDate(0, -11, 0)
		return wrap("sales by month", aggregateInto(gctx, r.orders, salesByPeriodPipeline(since, "%Y-%m", "ym"), &stats.SalesByMonth))
	})
	g.Go(func() error {
		return wrap("top products", aggregateInto(gctx, r.orders, topProductsPipeline(), &stats.TopProducts))
	})
	g.Go(func() error {
		return wrap("top customers", aggregateInto(gctx, r.orders, topCustomersPipeline(), &stats.TopCustomers))
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if len(revenue) > 0 {
		stats.Totals.TotalRevenue = revenue[0].Revenue
		if revenue[0].Orders > 0 {
			stats.Totals.AvgOrderValue = revenue[0].Revenue / float64(revenue[0].Orders)
		}
	}
	return stats, nil
}

func wrap(what string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", what, err)
}
