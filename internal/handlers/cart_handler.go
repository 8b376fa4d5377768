package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"polli-ahaar/internal/cart"
	"polli-ahaar/internal/middleware"
	"polli-ahaar/internal/models"
)

type CartStore interface {
	Load(ctx context.Context, email string) (cart.Cart, error)
	Save(ctx context.Context, email string, c cart.Cart) error
}

// ProductLookup reads single products.
type ProductLookup interface {
	FindByID(ctx context.Context, id string) (*models.Product, error)
}

type CartHandler struct {
	carts    CartStore
	products ProductLookup
	log      *zap.Logger
}

func NewCartHandler(carts CartStore, products ProductLookup, log *zap.Logger) *CartHandler {
	return &CartHandler{carts: carts, products: products, log: log}
}

// CartResponse is the cart with its derived figures.
type CartResponse struct {
	Items    []cart.Item `json:"items"`
	Count    int         `json:"count"`
	Subtotal float64     `json:"subtotal"`
}

func newCartResponse(c cart.Cart) CartResponse {
	items := c.Items
	if items == nil {
		items = []cart.Item{}
	}
	return CartResponse{Items: items, Count: c.Count(), Subtotal: c.Subtotal()}
}

type cartLineRequest struct {
	ProductID    string `json:"productId"`
	VariantLabel string `json:"variantLabel"`
	Qty          int    `json:"qty"`
}

// GetCart returns the caller's cart.
// GET /cart
func (h *CartHandler) GetCart(c *gin.Context) {
	current, err := h.carts.Load(c.Request.Context(), middleware.Email(c))
	if err != nil {
		respondError(c, h.log, err, "")
		return
	}
	c.JSON(http.StatusOK, newCartResponse(current))
}

// AddItem puts a product variant into the cart. Price and stock are taken
// from the catalog at this moment and not refreshed afterwards.
// POST /cart/items
func (h *CartHandler) AddItem(c *gin.Context) {
	var req cartLineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abort(c, http.StatusBadRequest, "Invalid cart payload.")
		return
	}
	req.VariantLabel = strings.TrimSpace(req.VariantLabel)
	if req.VariantLabel == "" {
		abort(c, http.StatusBadRequest, "Please choose a variant.")
		return
	}

	ctx := c.Request.Context()
	product, err := h.products.FindByID(ctx, req.ProductID)
	if err != nil {
		respondError(c, h.log, err, "Product not found")
		return
	}
	if product.Status == models.ProductDraft {
		abort(c, http.StatusBadRequest, "Product is not available.")
		return
	}
	variant, ok := product.Variant(req.VariantLabel)
	if !ok {
		abort(c, http.StatusBadRequest, "Variant not found.")
		return
	}

	h.update(c, func(current cart.Cart) (cart.Cart, error) {
		return current.Add(cart.Item{
			ProductID:    product.ID.Hex(),
			Name:         product.Name,
			Image:        product.Image,
			VariantLabel: variant.Label,
			Unit:         variant.Unit,
			Price:        variant.Price,
			Stock:        variant.Stock,
			Qty:          req.Qty,
		})
	})
}

// SetQuantity changes the quantity of a cart line.
// PATCH /cart/items
func (h *CartHandler) SetQuantity(c *gin.Context) {
	var req cartLineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abort(c, http.StatusBadRequest, "Invalid cart payload.")
		return
	}
	h.update(c, func(current cart.Cart) (cart.Cart, error) {
		return current.SetQty(req.ProductID, req.VariantLabel, req.Qty), nil
	})
}

// RemoveItem drops a cart line.
// DELETE /cart/items?productId=&variantLabel=
func (h *CartHandler) RemoveItem(c *gin.Context) {
	productID, label := c.Query("productId"), c.Query("variantLabel")
	if productID == "" {
		abort(c, http.StatusBadRequest, "productId is required.")
		return
	}
	h.update(c, func(current cart.Cart) (cart.Cart, error) {
		return current.Remove(productID, label), nil
	})
}

// ClearCart empties the cart.
// DELETE /cart
func (h *CartHandler) ClearCart(c *gin.Context) {
	h.update(c, func(current cart.Cart) (cart.Cart, error) {
		return current.Clear(), nil
	})
}

// update loads the caller's cart, applies fn and stores the result. Two
// clients updating the same cart race; whichever saves last wins.
func (h *CartHandler) update(c *gin.Context, fn func(cart.Cart) (cart.Cart, error)) {
	ctx := c.Request.Context()
	email := middleware.Email(c)

	current, err := h.carts.Load(ctx, email)
	if err != nil {
		respondError(c, h.log, err, "")
		return
	}

	next, err := fn(current)
	switch {
	case errors.Is(err, cart.ErrOutOfStock):
		abort(c, http.StatusBadRequest, "This variant is out of stock.")
		return
	case errors.Is(err, cart.ErrNoVariant):
		abort(c, http.StatusBadRequest, "Please choose a variant.")
		return
	case err != nil:
		respondError(c, h.log, err, "")
		return
	}

	if err := h.carts.Save(ctx, email, next); err != nil {
		respondError(c, h.log, err, "")
		return
	}
	c.JSON(http.StatusOK, newCartResponse(next))
}
