// Package cart implements the shopping cart as a pure reducer. A cart line
// is identified by product id and variant label; its stock field is the
// variant stock captured when the line was added and is never refreshed.
package cart

import "errors"

var (
	ErrNoVariant  = errors.New("variant is required")
	ErrOutOfStock = errors.New("variant is out of stock")
)

// Item is one cart line.
type Item struct {
	ProductID    string  `json:"id" bson:"productId"`
	Name         string  `json:"name" bson:"name"`
	Image        string  `json:"image,omitempty" bson:"image,omitempty"`
	VariantLabel string  `json:"variantLabel" bson:"variantLabel"`
	Unit         string  `json:"unit,omitempty" bson:"unit,omitempty"`
	Price        float64 `json:"price" bson:"price"`
	Stock        int     `json:"stock" bson:"stock"`
	Qty          int     `json:"qty" bson:"qty"`
}

func (i Item) key() key {
	return key{i.ProductID, i.VariantLabel}
}

type key struct {
	productID string
	label     string
}

// Cart is an immutable list of lines; every operation returns a new Cart.
type Cart struct {
	Items []Item `json:"items" bson:"items"`
}

// Hydrate builds a cart from stored lines, dropping lines that cannot be
// valid (no product, no quantity).
func Hydrate(items []Item) Cart {
	out := make([]Item, 0, len(items))
	for _, it := range items {
		if it.ProductID == "" || it.Qty < 1 {
			continue
		}
		out = append(out, it)
	}
	return Cart{Items: out}
}

func (c Cart) index(k key) int {
	for i, it := range c.Items {
		if it.key() == k {
			return i
		}
	}
	return -1
}

func (c Cart) with(i int, it Item) Cart {
	items := make([]Item, len(c.Items))
	copy(items, c.Items)
	items[i] = it
	return Cart{Items: items}
}

// Add puts item into the cart. Quantity is at least 1 and never exceeds the
// captured stock; adding an existing line increases its quantity.
func (c Cart) Add(item Item) (Cart, error) {
	if item.VariantLabel == "" {
		return c, ErrNoVariant
	}
	if item.Stock <= 0 {
		return c, ErrOutOfStock
	}
	if item.Qty < 1 {
		item.Qty = 1
	}

	if i := c.index(item.key()); i >= 0 {
		existing := c.Items[i]
		existing.Qty = min(existing.Qty+item.Qty, existing.Stock)
		return c.with(i, existing), nil
	}

	item.Qty = min(item.Qty, item.Stock)
	items := make([]Item, len(c.Items), len(c.Items)+1)
	copy(items, c.Items)
	return Cart{Items: append(items, item)}, nil
}

// Remove drops the line for productID and label, if present.
func (c Cart) Remove(productID, label string) Cart {
	k := key{productID, label}
	items := make([]Item, 0, len(c.Items))
	for _, it := range c.Items {
		if it.key() != k {
			items = append(items, it)
		}
	}
	return Cart{Items: items}
}

// SetQty sets a line's quantity, clamped to 1..stock. Unknown lines are
// ignored.
func (c Cart) SetQty(productID, label string, qty int) Cart {
	i := c.index(key{productID, label})
	if i < 0 {
		return c
	}
	it := c.Items[i]
	it.Qty = min(max(qty, 1), it.Stock)
	return c.with(i, it)
}

func (c Cart) Clear() Cart {
	return Cart{Items: []Item{}}
}

// Count is the total quantity across lines.
func (c Cart) Count() int {
	n := 0
	for _, it := range c.Items {
		n += it.Qty
	}
	return n
}

func (c Cart) Subtotal() float64 {
	var sum float64
	for _, it := range c.Items {
		sum += float64(it.Qty) * it.Price
	}
	return sum
}
