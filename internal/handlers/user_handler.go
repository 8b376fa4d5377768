package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"polli-ahaar/internal/auth"
	"polli-ahaar/internal/middleware"
	"polli-ahaar/internal/models"
	"polli-ahaar/internal/repository"
)

const defaultUserLimit = 20

// UserStore is the user persistence used by the handlers.
type UserStore interface {
	CreateIfAbsent(ctx context.Context, user *models.User) (*primitive.ObjectID, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id string) (*models.User, error)
	Role(ctx context.Context, email string) (string, error)
	List(ctx context.Context, q repository.UserQuery) ([]models.User, int64, error)
	UpdateProfile(ctx context.Context, id string, profile models.Profile) (*repository.WriteResult, error)
	UpdateRole(ctx context.Context, id string, role string) (*repository.WriteResult, error)
}

type UserHandler struct {
	users UserStore
	log   *zap.Logger
}

func NewUserHandler(users UserStore, log *zap.Logger) *UserHandler {
	return &UserHandler{users: users, log: log}
}

// CreateUser records a user on first sign-in. Existing users are left as
// they are.
// POST /users
func (h *UserHandler) CreateUser(c *gin.Context) {
	var user models.User
	if err := c.ShouldBindJSON(&user); err != nil {
		abort(c, http.StatusBadRequest, "Invalid request body.")
		return
	}
	user.Email = auth.NormalizeEmail(user.Email)
	if user.Email == "" {
		abort(c, http.StatusBadRequest, "Email is required.")
		return
	}

	id, err := h.users.CreateIfAbsent(c.Request.Context(), &user)
	if err != nil {
		respondError(c, h.log, err, "")
		return
	}
	if id == nil {
		c.JSON(http.StatusOK, gin.H{"message": "Already exist", "insertedId": nil})
		return
	}
	c.JSON(http.StatusOK, gin.H{"insertedId": id})
}

// GetUser returns the stored profile for an email.
// GET /user/:id (the email)
func (h *UserHandler) GetUser(c *gin.Context) {
	user, err := h.users.FindByEmail(c.Request.Context(), auth.NormalizeEmail(c.Param("id")))
	if err != nil {
		respondError(c, h.log, err, "User not found")
		return
	}
	c.JSON(http.StatusOK, user)
}

// CheckAdmin reports whether an email belongs to an admin.
// GET /user/admin/:email
func (h *UserHandler) CheckAdmin(c *gin.Context) {
	role, err := h.users.Role(c.Request.Context(), auth.NormalizeEmail(c.Param("email")))
	if err != nil {
		respondError(c, h.log, err, "")
		return
	}
	c.JSON(http.StatusOK, gin.H{"admin": role == models.RoleAdmin})
}

// ListUsers returns a page of users for the admin screen.
// GET /users
func (h *UserHandler) ListUsers(c *gin.Context) {
	q := repository.UserQuery{
		Search: c.Query("search"),
		Role:   c.Query("role"),
		Page:   repository.NewPage(c.Query("page"), c.Query("limit"), defaultUserLimit),
	}

	users, total, err := h.users.List(c.Request.Context(), q)
	if err != nil {
		respondError(c, h.log, err, "")
		return
	}
	c.JSON(http.StatusOK, repository.NewList(q.Page, total, users))
}

// UpdateProfile overwrites the editable profile fields. Users may only edit
// themselves unless they are admins.
// PATCH /user/update/:id
func (h *UserHandler) UpdateProfile(c *gin.Context) {
	var profile models.Profile
	if err := c.ShouldBindJSON(&profile); err != nil {
		abort(c, http.StatusBadRequest, "Invalid request body.")
		return
	}

	ctx := c.Request.Context()
	id := c.Param("id")
	target, err := h.users.FindByID(ctx, id)
	if err != nil {
		respondError(c, h.log, err, "User not found")
		return
	}
	if !h.allowed(c, target.Email) {
		return
	}

	result, err := h.users.UpdateProfile(ctx, id, profile)
	if err != nil {
		respondError(c, h.log, err, "User not found")
		return
	}
	c.JSON(http.StatusOK, result)
}

type roleRequest struct {
	Role string `json:"role"`
}

// UpdateRole promotes or demotes a user.
// PUT /user/:id/role
func (h *UserHandler) UpdateRole(c *gin.Context) {
	var req roleRequest
	if err := c.ShouldBindJSON(&req); err != nil || !models.ValidRole(req.Role) {
		abort(c, http.StatusBadRequest, "Invalid role")
		return
	}

	result, err := h.users.UpdateRole(c.Request.Context(), c.Param("id"), req.Role)
	if err != nil {
		respondError(c, h.log, err, "User not found")
		return
	}
	c.JSON(http.StatusOK, gin.H{"modifiedCount": result.ModifiedCount, "role": req.Role})
}

// allowed lets the caller act on a resource owned by owner. It writes the
// error response and returns false otherwise.
func (h *UserHandler) allowed(c *gin.Context, owner string) bool {
	return ownerOrAdmin(c, h.users, h.log, owner)
}

func ownerOrAdmin(c *gin.Context, roles middleware.RoleLookup, log *zap.Logger, owner string) bool {
	if owner != "" && auth.NormalizeEmail(owner) == middleware.Email(c) {
		return true
	}
	admin, err := middleware.IsAdmin(c, roles)
	if err != nil {
		respondError(c, log, err, "")
		return false
	}
	if !admin {
		abort(c, http.StatusForbidden, "forbidden!")
		return false
	}
	return true
}
