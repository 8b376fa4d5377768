package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"polli-ahaar/internal/middleware"
	"polli-ahaar/internal/models"
)

const (
	minStars     = 1
	maxStars     = 5
	defaultStars = maxStars
)

type ReviewStore interface {
	Create(ctx context.Context, review *models.Review) error
	List(ctx context.Context) ([]models.Review, error)
}

// ReviewedMarker flags the order a review was written for.
type ReviewedMarker interface {
	MarkReviewed(ctx context.Context, id primitive.ObjectID) error
}

type ReviewHandler struct {
	reviews ReviewStore
	orders  ReviewedMarker
	log     *zap.Logger
}

func NewReviewHandler(reviews ReviewStore, orders ReviewedMarker, log *zap.Logger) *ReviewHandler {
	return &ReviewHandler{reviews: reviews, orders: orders, log: log}
}

type reviewRequest struct {
	Name      string   `json:"name"`
	Stars     *float64 `json:"stars"`
	Text      string   `json:"text"`
	Anonymous bool     `json:"anonymous"`
	OrderID   string   `json:"orderId"`
}

func (r reviewRequest) review(email string) *models.Review {
	review := &models.Review{
		Name:      strings.TrimSpace(r.Name),
		Stars:     defaultStars,
		Text:      strings.TrimSpace(r.Text),
		Anonymous: r.Anonymous,
		UserEmail: email,
	}
	if r.Anonymous || review.Name == "" {
		review.Name = models.AnonymousReviewer
	}
	if r.Stars != nil {
		review.Stars = min(max(*r.Stars, minStars), maxStars)
	}
	if id, err := primitive.ObjectIDFromHex(r.OrderID); err == nil {
		review.OrderID = &id
	}
	return review
}

// CreateReview stores a buyer's review and marks the reviewed order.
// POST /review
func (h *ReviewHandler) CreateReview(c *gin.Context) {
	var req reviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abort(c, http.StatusBadRequest, "Invalid review payload.")
		return
	}

	review := req.review(middleware.Email(c))
	ctx := c.Request.Context()
	if err := h.reviews.Create(ctx, review); err != nil {
		respondError(c, h.log, err, "")
		return
	}

	if review.OrderID != nil {
		if err := h.orders.MarkReviewed(ctx, *review.OrderID); err != nil {
			h.log.Warn("mark order reviewed failed",
				zap.String("order_id", review.OrderID.Hex()),
				zap.Error(err),
			)
		}
	}
	c.JSON(http.StatusCreated, gin.H{"insertedId": review.ID})
}

// ListReviews returns every review, newest first.
// GET /reviews
func (h *ReviewHandler) ListReviews(c *gin.Context) {
	reviews, err := h.reviews.List(c.Request.Context())
	if err != nil {
		respondError(c, h.log, err, "")
		return
	}
	c.JSON(http.StatusOK, reviews)
}
