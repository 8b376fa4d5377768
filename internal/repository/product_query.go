package repository

import (
	"fmt"
	"regexp"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// Product listing sort keys.
const (
	SortNewest    = "newest"
	SortPriceAsc  = "asc"
	SortPriceDesc = "des"
)

const DefaultProductLimit = 20

// ProductQuery holds the catalog filters accepted by GET /products.
type ProductQuery struct {
	Search   string
	Category string
	Status   string
	Origin   string
	Brand    string
	Type     string
	Unit     string
	Featured *bool
	InStock  bool
	MinPrice *float64
	MaxPrice *float64
	Sort     string
	Page     Page
}

// Key identifies the query for caching. Equal queries produce equal keys.
func (q ProductQuery) Key() string {
	var b strings.Builder
	fmt.Fprintf(&b, "s=%s|c=%s|st=%s|o=%s|b=%s|t=%s|u=%s|in=%t|sort=%s|p=%d|l=%d",
		q.Search, q.Category, q.Status, q.Origin, q.Brand, q.Type, q.Unit,
		q.InStock, q.Sort, q.Page.Page, q.Page.Limit)
	if q.Featured != nil {
		fmt.Fprintf(&b, "|f=%t", *q.Featured)
	}
	if q.MinPrice != nil {
		fmt.Fprintf(&b, "|min=%g", *q.MinPrice)
	}
	if q.MaxPrice != nil {
		fmt.Fprintf(&b, "|max=%g", *q.MaxPrice)
	}
	return b.String()
}

// containsFold matches text anywhere in a field, ignoring case. The input is
// treated literally.
func containsFold(text string) bson.M {
	return bson.M{"$regex": regexp.QuoteMeta(text), "$options": "i"}
}

// Filter builds the $match document for q. Every condition is ANDed; an
// empty query matches everything.
func (q ProductQuery) Filter() bson.M {
	and := bson.A{}

	equals := []struct{ field, value string }{
		{"category", q.Category},
		{"status", q.Status},
		{"originDistrict", q.Origin},
		{"brand", q.Brand},
		{"type", q.Type},
	}
	for _, eq := range equals {
		if eq.value != "" {
			and = append(and, bson.M{eq.field: eq.value})
		}
	}

	if q.Featured != nil {
		and = append(and, bson.M{"featured": *q.Featured})
	}

	if q.Unit != "" {
		and = append(and, bson.M{"variants.unit": q.Unit})
	}

	if q.InStock {
		and = append(and, bson.M{"variants.stock": bson.M{"$gt": 0}})
	}

	price := bson.M{}
	if q.MinPrice != nil {
		price["$gte"] = *q.MinPrice
	}
	if q.MaxPrice != nil {
		price["$lte"] = *q.MaxPrice
	}
	if len(price) > 0 {
		and = append(and, bson.M{"variants.price": price})
	}

	if q.Search != "" {
		rx := containsFold(q.Search)
		and = append(and, bson.M{"$or": bson.A{
			bson.M{"name": rx},
			bson.M{"type": rx},
			bson.M{"brand": rx},
			bson.M{"originDistrict": rx},
			bson.M{"description": rx},
			bson.M{"variants.label": rx},
		}})
	}

	if len(and) == 0 {
		return bson.M{}
	}
	return bson.M{"$and": and}
}

// SortSpec returns the $sort stage document. Price sorts use the computed
// minimum variant price and fall back to newest first on ties.
func (q ProductQuery) SortSpec() bson.D {
	switch q.Sort {
	case SortPriceAsc:
		return bson.D{{Key: "minPrice", Value: 1}, {Key: "_id", Value: -1}}
	case SortPriceDesc:
		return bson.D{{Key: "minPrice", Value: -1}, {Key: "_id", Value: -1}}
	default:
		return bson.D{{Key: "_id", Value: -1}}
	}
}

// Pipeline builds the aggregation that fetches one page of products.
func (q ProductQuery) Pipeline() mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$match", Value: q.Filter()}},
		{{Key: "$addFields", Value: bson.M{"minPrice": bson.M{"$min": "$variants.price"}}}},
		{{Key: "$sort", Value: q.SortSpec()}},
		{{Key: "$skip", Value: q.Page.Skip()}},
		{{Key: "$limit", Value: int64(q.Page.Limit)}},
	}
}
