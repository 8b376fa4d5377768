package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ProductStatus controls whether a product is visible in the storefront.
type ProductStatus string

const (
	ProductActive ProductStatus = "active"
	ProductDraft  ProductStatus = "draft"
)

// Variant is one purchasable size of a product, e.g. "1 kg".
type Variant struct {
	Label string  `json:"label" bson:"label" binding:"required"`
	Unit  string  `json:"unit" bson:"unit"`
	Qty   float64 `json:"qty" bson:"qty"`
	Price float64 `json:"price" bson:"price" binding:"gt=0"`
	Stock int     `json:"stock" bson:"stock" binding:"gte=0"`
}

// Product is a catalog entry with its purchasable variants.
type Product struct {
	ID             primitive.ObjectID `json:"_id" bson:"_id,omitempty"`
	Name           string             `json:"name" bson:"name" binding:"required"`
	Category       string             `json:"category" bson:"category"`
	Type           string             `json:"type,omitempty" bson:"type,omitempty"`
	Brand          string             `json:"brand,omitempty" bson:"brand,omitempty"`
	OriginDistrict string             `json:"originDistrict,omitempty" bson:"originDistrict,omitempty"`
	Description    string             `json:"description" bson:"description"`
	Image          string             `json:"image" bson:"image"`
	Status         ProductStatus      `json:"status" bson:"status" binding:"omitempty,oneof=active draft"`
	Featured       bool               `json:"featured" bson:"featured"`
	OrderCount     int                `json:"orderCount" bson:"orderCount"`
	Variants       []Variant          `json:"variants" bson:"variants" binding:"required,min=1,dive"`
	CreatedAt      time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt      time.Time          `json:"updatedAt" bson:"updatedAt"`

	// MinPrice is computed by the listing pipeline and never stored.
	MinPrice *float64 `json:"minPrice,omitempty" bson:"minPrice,omitempty"`
}

// Variant returns the variant with the given label.
func (p *Product) Variant(label string) (Variant, bool) {
	for _, v := range p.Variants {
		if v.Label == label {
			return v, true
		}
	}
	return Variant{}, false
}

// InStock reports whether any variant has stock left.
func (p *Product) InStock() bool {
	for _, v := range p.Variants {
		if v.Stock > 0 {
			return true
		}
	}
	return false
}
