package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"polli-ahaar/internal/mailer"
)

type Mailer interface {
	Send(ctx context.Context, msg mailer.ContactMessage) error
}

type ContactHandler struct {
	mailer Mailer
	log    *zap.Logger
}

// NewContactHandler builds the contact form handler. A nil mailer means no
// relay is configured and every message is refused with 503.
func NewContactHandler(m Mailer, log *zap.Logger) *ContactHandler {
	return &ContactHandler{mailer: m, log: log}
}

// SendMessage relays a contact form submission to the shop inbox.
// POST /email
func (h *ContactHandler) SendMessage(c *gin.Context) {
	if h.mailer == nil {
		abort(c, http.StatusServiceUnavailable, "Messaging is not available right now.")
		return
	}

	var msg mailer.ContactMessage
	if err := c.ShouldBindJSON(&msg); err != nil {
		abort(c, http.StatusBadRequest, "Invalid message payload.")
		return
	}

	if err := h.mailer.Send(c.Request.Context(), msg); err != nil {
		if errors.Is(err, mailer.ErrInvalidMessage) {
			abort(c, http.StatusBadRequest, "Name, email and message are required.")
			return
		}
		respondError(c, h.log, err, "")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Message received, We will get back to you shortly! "})
}
