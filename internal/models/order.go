package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type OrderStatus string

const (
	OrderPending    OrderStatus = "pending"
	OrderProcessing OrderStatus = "processing"
	OrderShipped    OrderStatus = "shipped"
	OrderDelivered  OrderStatus = "delivered"
	OrderCompleted  OrderStatus = "completed"
	OrderCancelled  OrderStatus = "cancelled"
)

// OrderStatuses lists every status an admin may assign, in display order.
var OrderStatuses = []OrderStatus{
	OrderPending,
	OrderProcessing,
	OrderShipped,
	OrderDelivered,
	OrderCompleted,
	OrderCancelled,
}

// Valid reports whether s is one of OrderStatuses. Transitions between
// valid statuses are not restricted.
func (s OrderStatus) Valid() bool {
	for _, known := range OrderStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// DefaultPaymentMethod is cash on delivery.
const DefaultPaymentMethod = "COD"

// OrderItem is a snapshot of a cart line at checkout time.
type OrderItem struct {
	ProductID primitive.ObjectID `json:"productId" bson:"productId"`
	Name      string             `json:"name" bson:"name"`
	Label     string             `json:"label,omitempty" bson:"label,omitempty"`
	ImageURL  string             `json:"imageUrl,omitempty" bson:"imageUrl,omitempty"`
	Price     float64            `json:"price" bson:"price"`
	Qty       int                `json:"qty" bson:"qty"`
}

// ProductSummary is the total quantity ordered per product across variants.
type ProductSummary struct {
	ProductID primitive.ObjectID `json:"productId" bson:"productId"`
	Name      string             `json:"name" bson:"name"`
	ImageURL  string             `json:"imageUrl,omitempty" bson:"imageUrl,omitempty"`
	TotalQty  int                `json:"totalQty" bson:"totalQty"`
}

type Shipping struct {
	Name    string `json:"name" bson:"name"`
	Phone   string `json:"phone" bson:"phone"`
	Email   string `json:"email" bson:"email"`
	Address string `json:"address" bson:"address"`
	Note    string `json:"note,omitempty" bson:"note,omitempty"`
}

type Payment struct {
	Method string `json:"method" bson:"method"`
}

type Amounts struct {
	Subtotal   float64 `json:"subtotal" bson:"subtotal"`
	GrandTotal float64 `json:"grandTotal" bson:"grandTotal"`
}

type Order struct {
	ID              primitive.ObjectID `json:"_id" bson:"_id,omitempty"`
	UserEmail       string             `json:"userEmail" bson:"userEmail"`
	Items           []OrderItem        `json:"items" bson:"items"`
	ProductsSummary []ProductSummary   `json:"productsSummary" bson:"productsSummary"`
	Shipping        Shipping           `json:"shipping" bson:"shipping"`
	Payment         Payment            `json:"payment" bson:"payment"`
	Amounts         Amounts            `json:"amounts" bson:"amounts"`
	Status          OrderStatus        `json:"status" bson:"status"`
	Reviewed        bool               `json:"reviewed" bson:"reviewed"`
	CreatedAt       time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt       time.Time          `json:"updatedAt" bson:"updatedAt"`
}
