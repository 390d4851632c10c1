package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"chatsense/internal/domain"
	"chatsense/internal/service"
)

// DashboardHandler expone las vistas agregadas del historial.
type DashboardHandler struct {
	logger        *zap.Logger
	dashboardServ *service.DashboardService
}

func NewDashboardHandler(logger *zap.Logger, dashboardServ *service.DashboardService) *DashboardHandler {
	return &DashboardHandler{logger: logger, dashboardServ: dashboardServ}
}

// parseRange interpreta ?range=7d|30d|90d; cualquier otra cosa cae en 30 dias.
func parseRange(c *gin.Context) time.Time {
	days := 30
	switch c.Query("range") {
	case "7d":
		days = 7
	case "90d":
		days = 90
	}
	return time.Now().UTC().AddDate(0, 0, -days)
}

// GetDashboard maneja GET /dashboard.
func (h *DashboardHandler) GetDashboard(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	dash, err := h.dashboardServ.GetDashboard(c.Request.Context(), userID, parseRange(c))
	if err != nil {
		h.logger.Error("dashboard failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "could not build dashboard"})
		return
	}
	c.JSON(http.StatusOK, dash)
}

// GetMoodTrends maneja GET /dashboard/mood-trends.
func (h *DashboardHandler) GetMoodTrends(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	days, err := h.dashboardServ.GetMoodTrends(c.Request.Context(), userID, parseRange(c))
	if err != nil {
		h.logger.Error("mood trends failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "could not build mood trends"})
		return
	}
	if days == nil {
		days = []service.MoodDay{}
	}
	c.JSON(http.StatusOK, gin.H{"trends": days})
}

// FindSimilarMoods maneja GET /dashboard/similar-moods/:id.
func (h *DashboardHandler) FindSimilarMoods(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	k := queryInt(c, "k", 5)
	if k <= 0 || k > 20 {
		k = 5
	}
	similar, err := h.dashboardServ.FindSimilarMoods(c.Request.Context(), userID, c.Param("id"), k)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			c.JSON(http.StatusNotFound, gin.H{"detail": "not found"})
			return
		}
		h.logger.Error("similar moods failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "could not find similar moods"})
		return
	}
	if similar == nil {
		similar = []domain.AnalysisRecord{}
	}
	c.JSON(http.StatusOK, gin.H{"similar": similar})
}
