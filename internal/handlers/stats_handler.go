package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"polli-ahaar/internal/models"
)

type StatsStore interface {
	AdminStats(ctx context.Context, now time.Time) (*models.AdminStats, error)
}

type StatsHandler struct {
	stats StatsStore
	now   func() time.Time
	log   *zap.Logger
}

func NewStatsHandler(stats StatsStore, log *zap.Logger) *StatsHandler {
	return &StatsHandler{stats: stats, now: time.Now, log: log}
}

// AdminStats serves the dashboard figures.
// GET /admin-stats
func (h *StatsHandler) AdminStats(c *gin.Context) {
	stats, err := h.stats.AdminStats(c.Request.Context(), h.now())
	if err != nil {
		respondError(c, h.log, err, "")
		return
	}
	c.JSON(http.StatusOK, stats)
}
