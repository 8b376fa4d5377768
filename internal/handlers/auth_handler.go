package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"polli-ahaar/internal/auth"
)

// TokenIssuer signs bearer tokens.
type TokenIssuer interface {
	Issue(email string) (string, error)
}

type AuthHandler struct {
	issuer TokenIssuer
	log    *zap.Logger
}

func NewAuthHandler(issuer TokenIssuer, log *zap.Logger) *AuthHandler {
	return &AuthHandler{issuer: issuer, log: log}
}

type tokenRequest struct {
	Email string `json:"email"`
}

// IssueToken exchanges a signed-in user's email for a bearer token.
// POST /jwt
func (h *AuthHandler) IssueToken(c *gin.Context) {
	var req tokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abort(c, http.StatusBadRequest, "Invalid request body.")
		return
	}

	token, err := h.issuer.Issue(req.Email)
	if err != nil {
		if errors.Is(err, auth.ErrMissingEmail) {
			abort(c, http.StatusBadRequest, "Email is required.")
			return
		}
		respondError(c, h.log, err, "")
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token})
}
