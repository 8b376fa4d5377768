package handlers

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"polli-ahaar/internal/cache"
	"polli-ahaar/internal/models"
	"polli-ahaar/internal/repository"
)

const (
	catalogPrefix     = "catalog:"
	productListPrefix = catalogPrefix + "list:"
	productPrefix     = catalogPrefix + "product:"
)

func productKey(id string) string {
	return productPrefix + id
}

// ProductStore is the catalog persistence used by the product handlers.
type ProductStore interface {
	Create(ctx context.Context, product *models.Product) error
	FindByID(ctx context.Context, id string) (*models.Product, error)
	List(ctx context.Context, q repository.ProductQuery) ([]models.Product, int64, error)
	Upsert(ctx context.Context, id string, product *models.Product) (*repository.WriteResult, error)
	Delete(ctx context.Context, id string) (int64, error)
}

type ProductHandler struct {
	repo  ProductStore
	cache *cache.Cache
	log   *zap.Logger
}

// NewProductHandler builds the catalog handlers. A nil cache disables
// caching of listings and single products.
func NewProductHandler(repo ProductStore, listings *cache.Cache, log *zap.Logger) *ProductHandler {
	return &ProductHandler{
		repo:  repo,
		cache: listings,
		log:   log,
	}
}

// invalidateCatalog drops every cached listing and the cached copies of the
// given products. Called after anything that changes products, stock or
// order counts.
func invalidateCatalog(c *cache.Cache, productIDs ...string) {
	if c == nil {
		return
	}
	c.DeleteByPrefix(productListPrefix)
	for _, id := range productIDs {
		c.Delete(productKey(id))
	}
}

// CreateProduct adds a product to the catalog.
// POST /add-product
func (h *ProductHandler) CreateProduct(c *gin.Context) {
	product, err := bindProduct(c)
	if err != nil {
		respondError(c, h.log, err, "")
		return
	}
	product.OrderCount = 0

	if err := h.repo.Create(c.Request.Context(), product); err != nil {
		respondError(c, h.log, err, "")
		return
	}

	invalidateCatalog(h.cache)
	c.JSON(http.StatusCreated, gin.H{"insertedId": product.ID})
}

// GetProduct returns one product.
// GET /product/:id
func (h *ProductHandler) GetProduct(c *gin.Context) {
	id := c.Param("id")
	if h.cache != nil {
		if cached, found := h.cache.GetValue(productKey(id)); found {
			c.JSON(http.StatusOK, cached)
			return
		}
	}

	product, err := h.repo.FindByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.log, err, "Product not found")
		return
	}

	if h.cache != nil {
		h.cache.Set(productKey(id), product)
	}
	c.JSON(http.StatusOK, product)
}

// ListProducts serves the storefront catalog with filters, price sorting
// and pagination. Responses are cached per normalized query.
// GET /products
func (h *ProductHandler) ListProducts(c *gin.Context) {
	q, err := parseProductQuery(c)
	if err != nil {
		respondError(c, h.log, err, "")
		return
	}

	key := productListPrefix + q.Key()
	if h.cache != nil {
		if cached, found := h.cache.GetValue(key); found {
			c.JSON(http.StatusOK, cached)
			return
		}
	}

	products, total, err := h.repo.List(c.Request.Context(), q)
	if err != nil {
		respondError(c, h.log, err, "")
		return
	}

	response := repository.NewList(q.Page, total, products)
	if h.cache != nil {
		h.cache.Set(key, response)
	}
	c.JSON(http.StatusOK, response)
}

// UpdateProduct replaces the submitted fields of a product, creating it if
// the id is unknown.
// PUT /product/:id
func (h *ProductHandler) UpdateProduct(c *gin.Context) {
	product, err := bindProduct(c)
	if err != nil {
		respondError(c, h.log, err, "")
		return
	}

	id := c.Param("id")
	result, err := h.repo.Upsert(c.Request.Context(), id, product)
	if err != nil {
		respondError(c, h.log, err, "Product not found")
		return
	}

	invalidateCatalog(h.cache, id)
	c.JSON(http.StatusOK, result)
}

// DeleteProduct removes a product. Orders keep their snapshot of it.
// DELETE /product/:id
func (h *ProductHandler) DeleteProduct(c *gin.Context) {
	id := c.Param("id")
	deleted, err := h.repo.Delete(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.log, err, "Product not found")
		return
	}

	invalidateCatalog(h.cache, id)
	c.JSON(http.StatusOK, gin.H{"deletedCount": deleted})
}

func parseProductQuery(c *gin.Context) (repository.ProductQuery, error) {
	q := repository.ProductQuery{
		Search:   strings.TrimSpace(c.Query("search")),
		Category: c.Query("category"),
		Status:   c.Query("status"),
		Origin:   c.Query("origin"),
		Brand:    c.Query("brand"),
		Type:     c.Query("type"),
		Unit:     c.Query("unit"),
		InStock:  strings.EqualFold(c.Query("inStock"), "true"),
		Sort:     c.DefaultQuery("sort", repository.SortNewest),
		Page:     repository.NewPage(c.Query("page"), c.Query("limit"), repository.DefaultProductLimit),
	}

	if raw, ok := c.GetQuery("featured"); ok {
		featured := strings.EqualFold(raw, "true")
		q.Featured = &featured
	}

	var err error
	if q.MinPrice, err = priceParam(c, "minPrice"); err != nil {
		return q, err
	}
	if q.MaxPrice, err = priceParam(c, "maxPrice"); err != nil {
		return q, err
	}
	return q, nil
}

func priceParam(c *gin.Context, name string) (*float64, error) {
	raw, ok := c.GetQuery(name)
	if !ok || raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, invalid(name, "Invalid "+name+".")
	}
	return &v, nil
}

var productBindingMessages = map[string]string{
	"Name":     "Product name is required.",
	"Variants": "At least one variant is required.",
	"Label":    "Every variant needs a label.",
	"Price":    "Variant price must be greater than zero.",
	"Stock":    "Variant stock cannot be negative.",
	"Status":   "Invalid product status.",
}

// bindProduct decodes and validates a product body. The binding tags on
// models.Product cover presence and ranges; blank text is caught here.
func bindProduct(c *gin.Context) (*models.Product, error) {
	var p models.Product
	if err := c.ShouldBindJSON(&p); err != nil {
		return nil, invalid("product", bindingMessage(err, productBindingMessages, "Invalid product payload."))
	}

	p.Name = strings.TrimSpace(p.Name)
	if p.Name == "" {
		return nil, invalid("name", productBindingMessages["Name"])
	}
	for i := range p.Variants {
		p.Variants[i].Label = strings.TrimSpace(p.Variants[i].Label)
		if p.Variants[i].Label == "" {
			return nil, invalid("variants.label", productBindingMessages["Label"])
		}
	}
	if p.Status == "" {
		p.Status = models.ProductActive
	}
	return &p, nil
}
