// Package orders turns a checkout payload into an order document.
package orders

import (
	"errors"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"polli-ahaar/internal/models"
)

var (
	ErrNoItems         = errors.New("no items provided")
	ErrInvalidItem     = errors.New("invalid item payload")
	ErrProductNotFound = errors.New("product not found")
	ErrVariantNotFound = errors.New("variant not found")
)

// LineRequest is one checkout line as submitted by the storefront. Older
// clients send the variant as variantLabel, newer ones as label.
type LineRequest struct {
	ProductID    string  `json:"productId" binding:"required"`
	Name         string  `json:"name"`
	Label        string  `json:"label"`
	VariantLabel string  `json:"variantLabel"`
	ImageURL     string  `json:"imageUrl"`
	Price        float64 `json:"price" binding:"gte=0"`
	Qty          int     `json:"qty" binding:"gt=0"`
}

// Request is the POST /orders body. Any productsSummary sent by the client
// is ignored and recomputed.
type Request struct {
	Items    []LineRequest   `json:"items" binding:"required,min=1,dive"`
	Shipping models.Shipping `json:"shipping"`
	Payment  models.Payment  `json:"payment"`
}

// Lines validates the request lines and converts them to order items.
func (r Request) Lines() ([]models.OrderItem, error) {
	if len(r.Items) == 0 {
		return nil, ErrNoItems
	}

	items := make([]models.OrderItem, 0, len(r.Items))
	for _, line := range r.Items {
		id, err := primitive.ObjectIDFromHex(line.ProductID)
		if err != nil || line.Qty <= 0 || line.Price < 0 {
			return nil, ErrInvalidItem
		}
		label := line.Label
		if label == "" {
			label = line.VariantLabel
		}
		items = append(items, models.OrderItem{
			ProductID: id,
			Name:      strings.TrimSpace(line.Name),
			Label:     strings.TrimSpace(label),
			ImageURL:  line.ImageURL,
			Price:     line.Price,
			Qty:       line.Qty,
		})
	}
	return items, nil
}

// ProductIDs returns the distinct product ids of items in first-seen order.
func ProductIDs(items []models.OrderItem) []primitive.ObjectID {
	seen := make(map[primitive.ObjectID]bool, len(items))
	var ids []primitive.ObjectID
	for _, it := range items {
		if !seen[it.ProductID] {
			seen[it.ProductID] = true
			ids = append(ids, it.ProductID)
		}
	}
	return ids
}

// Reprice replaces each line's price with the stored variant price. Lines
// whose product is gone, or whose label names no variant of the product,
// are rejected. Missing names and images are filled from the catalog.
func Reprice(items []models.OrderItem, catalog map[primitive.ObjectID]models.Product) ([]models.OrderItem, error) {
	out := make([]models.OrderItem, len(items))
	for i, it := range items {
		product, ok := catalog[it.ProductID]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrProductNotFound, it.ProductID.Hex())
		}
		v, ok := product.Variant(it.Label)
		if !ok {
			return nil, fmt.Errorf("%w: %s %q", ErrVariantNotFound, it.ProductID.Hex(), it.Label)
		}
		it.Price = v.Price
		if it.Name == "" {
			it.Name = product.Name
		}
		if it.ImageURL == "" {
			it.ImageURL = product.Image
		}
		out[i] = it
	}
	return out, nil
}

// Summarize totals the ordered quantity per product across variants.
func Summarize(items []models.OrderItem) []models.ProductSummary {
	index := make(map[primitive.ObjectID]int, len(items))
	summary := make([]models.ProductSummary, 0, len(items))
	for _, it := range items {
		i, ok := index[it.ProductID]
		if !ok {
			i = len(summary)
			index[it.ProductID] = i
			summary = append(summary, models.ProductSummary{
				ProductID: it.ProductID,
				Name:      it.Name,
				ImageURL:  it.ImageURL,
			})
		}
		summary[i].TotalQty += it.Qty
	}
	return summary
}

// Totals computes the order amounts from the line prices. There are no
// delivery charges or discounts, so the grand total equals the subtotal.
func Totals(items []models.OrderItem) models.Amounts {
	var subtotal float64
	for _, it := range items {
		subtotal += it.Price * float64(it.Qty)
	}
	return models.Amounts{Subtotal: subtotal, GrandTotal: subtotal}
}

// Build assembles a pending order for email from validated items.
func Build(email string, items []models.OrderItem, shipping models.Shipping, payment models.Payment) *models.Order {
	if payment.Method == "" {
		payment.Method = models.DefaultPaymentMethod
	}
	return &models.Order{
		UserEmail:       email,
		Items:           items,
		ProductsSummary: Summarize(items),
		Shipping:        shipping,
		Payment:         payment,
		Amounts:         Totals(items),
		Status:          models.OrderPending,
	}
}
