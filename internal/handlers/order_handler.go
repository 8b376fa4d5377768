package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"polli-ahaar/internal/auth"
	"polli-ahaar/internal/cache"
	"polli-ahaar/internal/middleware"
	"polli-ahaar/internal/models"
	"polli-ahaar/internal/orders"
	"polli-ahaar/internal/repository"
)

// OrderStore is the order persistence used by the handlers.
type OrderStore interface {
	Create(ctx context.Context, order *models.Order) error
	FindByID(ctx context.Context, id string) (*models.Order, error)
	List(ctx context.Context, q repository.OrderQuery) ([]models.Order, int64, error)
	UpdateShipping(ctx context.Context, id string, shipping models.Shipping) error
	Cancel(ctx context.Context, id string) error
	SetStatus(ctx context.Context, id string, status models.OrderStatus) (*repository.WriteResult, error)
	MarkReviewed(ctx context.Context, id primitive.ObjectID) error
	Delete(ctx context.Context, id string) (int64, error)
}

// CatalogStore is the part of the catalog that checkout reads and updates.
type CatalogStore interface {
	FindByIDs(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]models.Product, error)
	ApplyOrder(ctx context.Context, items []models.OrderItem) error
}

type OrderHandler struct {
	orders       OrderStore
	catalog      CatalogStore
	roles        middleware.RoleLookup
	cache        *cache.Cache
	verifyPrices bool
	log          *zap.Logger
}

// OrderOptions configures checkout.
type OrderOptions struct {
	// VerifyPrices replaces submitted line prices with the stored variant
	// prices before totals are computed.
	VerifyPrices bool
}

func NewOrderHandler(orderStore OrderStore, catalog CatalogStore, roles middleware.RoleLookup, listings *cache.Cache, opts OrderOptions, log *zap.Logger) *OrderHandler {
	return &OrderHandler{
		orders:       orderStore,
		catalog:      catalog,
		roles:        roles,
		cache:        listings,
		verifyPrices: opts.VerifyPrices,
		log:          log,
	}
}

// PlaceOrder turns the checkout payload into a pending order and books it
// against the catalog.
// POST /orders
func (h *OrderHandler) PlaceOrder(c *gin.Context) {
	var req orders.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		abort(c, http.StatusBadRequest, bindingMessage(err, map[string]string{
			"Items": "No items provided.",
		}, "Invalid item payload."))
		return
	}

	items, err := req.Lines()
	switch {
	case errors.Is(err, orders.ErrNoItems):
		abort(c, http.StatusBadRequest, "No items provided.")
		return
	case errors.Is(err, orders.ErrInvalidItem):
		abort(c, http.StatusBadRequest, "Invalid item payload.")
		return
	case err != nil:
		respondError(c, h.log, err, "")
		return
	}

	ctx := c.Request.Context()
	if h.verifyPrices {
		catalog, err := h.catalog.FindByIDs(ctx, orders.ProductIDs(items))
		if err != nil {
			respondError(c, h.log, err, "")
			return
		}
		items, err = orders.Reprice(items, catalog)
		if errors.Is(err, orders.ErrProductNotFound) {
			abort(c, http.StatusBadRequest, "Product not found")
			return
		}
		if errors.Is(err, orders.ErrVariantNotFound) {
			abort(c, http.StatusBadRequest, "Variant not found.")
			return
		}
		if err != nil {
			respondError(c, h.log, err, "")
			return
		}
	}

	order := orders.Build(middleware.Email(c), items, req.Shipping, req.Payment)
	if err := h.orders.Create(ctx, order); err != nil {
		respondError(c, h.log, err, "")
		return
	}

	// The order stands even if the catalog counters cannot be updated.
	if err := h.catalog.ApplyOrder(ctx, order.Items); err != nil {
		h.log.Warn("catalog update after order failed",
			zap.String("order_id", order.ID.Hex()),
			zap.Error(err),
			zap.String("request_id", middleware.GetRequestID(c)),
		)
	}
	invalidateCatalog(h.cache, productHexIDs(order.Items)...)

	c.JSON(http.StatusOK, gin.H{
		"ok":      true,
		"orderId": order.ID,
		"message": "Order placed successfully.",
	})
}

// ListOrders is the admin order table.
// GET /orders
func (h *OrderHandler) ListOrders(c *gin.Context) {
	q := repository.OrderQuery{
		Search: c.Query("search"),
		Status: c.Query("status"),
		Sort:   c.Query("sort"),
		Page:   repository.NewPage(c.Query("page"), c.Query("limit"), repository.DefaultOrderLimit),
	}
	if q.Status != "" && !models.OrderStatus(q.Status).Valid() {
		abort(c, http.StatusBadRequest, "Invalid status.")
		return
	}
	h.list(c, q)
}

// MyOrders lists one buyer's orders, newest first.
// GET /orders/my/:email
func (h *OrderHandler) MyOrders(c *gin.Context) {
	email := auth.NormalizeEmail(c.Param("email"))
	if email == "" {
		abort(c, http.StatusBadRequest, "Email required")
		return
	}
	if !ownerOrAdmin(c, h.roles, h.log, email) {
		return
	}

	h.list(c, repository.OrderQuery{
		UserEmail: email,
		Page:      repository.NewPage(c.Query("page"), c.Query("limit"), repository.DefaultMyOrderLimit),
	})
}

func (h *OrderHandler) list(c *gin.Context, q repository.OrderQuery) {
	list, total, err := h.orders.List(c.Request.Context(), q)
	if err != nil {
		respondError(c, h.log, err, "")
		return
	}
	c.JSON(http.StatusOK, repository.NewList(q.Page, total, list))
}

// GetOrder returns one order to its buyer or an admin.
// GET /orders/:id
func (h *OrderHandler) GetOrder(c *gin.Context) {
	order, ok := h.load(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, order)
}

// load fetches the order named in the path and checks the caller may see
// it. On failure the response is already written.
func (h *OrderHandler) load(c *gin.Context) (*models.Order, bool) {
	order, err := h.orders.FindByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.log, err, "Order not found")
		return nil, false
	}
	if !ownerOrAdmin(c, h.roles, h.log, order.UserEmail) {
		return nil, false
	}
	return order, true
}

type shippingRequest struct {
	Shipping *models.Shipping `json:"shipping"`
}

// UpdateShipping edits the delivery details while the order is pending.
// PATCH /orders/:id
func (h *OrderHandler) UpdateShipping(c *gin.Context) {
	var req shippingRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Shipping == nil {
		abort(c, http.StatusBadRequest, "Shipping details are required.")
		return
	}
	if _, ok := h.load(c); !ok {
		return
	}

	err := h.orders.UpdateShipping(c.Request.Context(), c.Param("id"), *req.Shipping)
	if errors.Is(err, repository.ErrNotPending) {
		abort(c, http.StatusBadRequest, "Only pending orders can be updated.")
		return
	}
	if err != nil {
		respondError(c, h.log, err, "Order not found")
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "message": "Order updated."})
}

// CancelOrder cancels a pending order. Stock is not restored.
// PATCH /orders/:id/cancel
func (h *OrderHandler) CancelOrder(c *gin.Context) {
	if _, ok := h.load(c); !ok {
		return
	}

	err := h.orders.Cancel(c.Request.Context(), c.Param("id"))
	if errors.Is(err, repository.ErrNotPending) {
		abort(c, http.StatusBadRequest, "Only pending orders can be cancelled.")
		return
	}
	if err != nil {
		respondError(c, h.log, err, "Order not found")
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "message": "Order cancelled."})
}

type statusRequest struct {
	Status models.OrderStatus `json:"status"`
}

// SetStatus assigns any known status.
// PATCH /orders/:id/status
func (h *OrderHandler) SetStatus(c *gin.Context) {
	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil || !req.Status.Valid() {
		abort(c, http.StatusBadRequest, "Invalid status.")
		return
	}

	result, err := h.orders.SetStatus(c.Request.Context(), c.Param("id"), req.Status)
	if err != nil {
		respondError(c, h.log, err, "Order not found")
		return
	}
	c.JSON(http.StatusOK, gin.H{"modifiedCount": result.ModifiedCount, "status": req.Status})
}

// DeleteOrder removes an order.
// DELETE /orders/:id
func (h *OrderHandler) DeleteOrder(c *gin.Context) {
	deleted, err := h.orders.Delete(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.log, err, "Order not found")
		return
	}
	c.JSON(http.StatusOK, gin.H{"deletedCount": deleted})
}

func productHexIDs(items []models.OrderItem) []string {
	ids := orders.ProductIDs(items)
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.Hex()
	}
	return out
}
