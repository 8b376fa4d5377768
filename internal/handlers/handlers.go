// Package handlers implements the HTTP endpoints of the storefront API.
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"polli-ahaar/internal/middleware"
	"polli-ahaar/internal/repository"
)

const internalError = "internal server error"

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Message string `json:"message"`
}

// ValidationError is a client mistake in a request body or query.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func invalid(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// bindingMessage returns the message for the first failed binding rule
// whose struct field is in messages, or fallback for anything else
// (malformed JSON included).
func bindingMessage(err error, messages map[string]string, fallback string) string {
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) {
		for _, fe := range fieldErrs {
			if msg, ok := messages[fe.StructField()]; ok {
				return msg
			}
		}
	}
	return fallback
}

func abort(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, ErrorResponse{Message: message})
}

// respondError maps err to a status code. notFound is the message used when
// the target document does not exist. Unexpected errors are logged and
// answered with a generic 500.
func respondError(c *gin.Context, log *zap.Logger, err error, notFound string) {
	var vErr *ValidationError
	switch {
	case errors.As(err, &vErr):
		abort(c, http.StatusBadRequest, vErr.Message)
	case errors.Is(err, repository.ErrInvalidID):
		abort(c, http.StatusBadRequest, "Invalid id.")
	case errors.Is(err, repository.ErrNotFound):
		abort(c, http.StatusNotFound, notFound)
	default:
		_ = c.Error(err)
		log.Error("request failed",
			zap.Error(err),
			zap.String("method", c.Request.Method),
			zap.String("route", c.FullPath()),
			zap.String("request_id", middleware.GetRequestID(c)),
		)
		abort(c, http.StatusInternalServerError, internalError)
	}
}

// Root answers the health probe at GET /.
func Root(c *gin.Context) {
	c.String(http.StatusOK, "Hello from Polli Ahaar Server..")
}
