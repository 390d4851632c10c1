package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"chatsense/internal/domain"
	"chatsense/internal/engine"
	"chatsense/internal/parser"
	"chatsense/internal/service"
)

// AnalysisHandler expone el motor de analisis sobre HTTP.
type AnalysisHandler struct {
	logger       *zap.Logger
	analysisServ *service.AnalysisService
}

func NewAnalysisHandler(logger *zap.Logger, analysisServ *service.AnalysisService) *AnalysisHandler {
	return &AnalysisHandler{logger: logger, analysisServ: analysisServ}
}

// writeAnalysisError mapea errores del motor y los servicios a status HTTP.
func (h *AnalysisHandler) writeAnalysisError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, engine.ErrInputTooSmall):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": "input too small to analyze"})
	case errors.Is(err, engine.ErrInputTooLarge):
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"detail": "input exceeds maximum size"})
	case errors.Is(err, parser.ErrBadEncoding):
		c.JSON(http.StatusBadRequest, gin.H{"detail": "content is not valid UTF-8"})
	case errors.Is(err, service.ErrTooManyMessages):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": "too many messages in bulk request"})
	case errors.Is(err, service.ErrRateLimited):
		c.JSON(http.StatusTooManyRequests, gin.H{"detail": "too many requests"})
	case errors.Is(err, pgx.ErrNoRows):
		c.JSON(http.StatusNotFound, gin.H{"detail": "not found"})
	default:
		h.logger.Error("analysis request failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "analysis failed"})
	}
}

// Analyze maneja POST /analysis/analyze.
func (h *AnalysisHandler) Analyze(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	var req struct {
		Message string `json:"message" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "invalid request"})
		return
	}

	rec, err := h.analysisServ.AnalyzeMessage(c.Request.Context(), userID, req.Message)
	if err != nil {
		h.writeAnalysisError(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

// AnalyzeBulk maneja POST /analysis/analyze-bulk.
func (h *AnalysisHandler) AnalyzeBulk(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	var req struct {
		Messages []string `json:"messages" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "invalid request"})
		return
	}

	records, summary, err := h.analysisServ.AnalyzeBulk(c.Request.Context(), userID, req.Messages)
	if err != nil {
		h.writeAnalysisError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": records, "summary": summary})
}

// ImportChat maneja POST /analysis/import-chat.
func (h *AnalysisHandler) ImportChat(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	var req struct {
		Content         string `json:"content" binding:"required"`
		FormatType      string `json:"format_type"`
		CurrentUserName string `json:"current_user_name"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "invalid request"})
		return
	}

	rec, diags, err := h.analysisServ.ImportChat(
		c.Request.Context(),
		userID,
		req.Content,
		domain.Platform(req.FormatType),
		req.CurrentUserName,
	)
	if err != nil {
		h.writeAnalysisError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"analysis": rec, "diagnostics": diags})
}

// ListHistory maneja GET /analysis/history.
func (h *AnalysisHandler) ListHistory(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	limit := queryInt(c, "limit", 50)
	offset := queryInt(c, "offset", 0)
	includeBulk := c.Query("include_bulk") == "true"

	records, err := h.analysisServ.ListHistory(c.Request.Context(), userID, limit, offset, includeBulk)
	if err != nil {
		h.writeAnalysisError(c, err)
		return
	}
	if records == nil {
		records = []domain.AnalysisRecord{}
	}
	c.JSON(http.StatusOK, gin.H{"analyses": records})
}

// GetHistory maneja GET /analysis/history/:id.
func (h *AnalysisHandler) GetHistory(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	rec, err := h.analysisServ.GetAnalysis(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		h.writeAnalysisError(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

// DeleteHistory maneja DELETE /analysis/history/:id.
func (h *AnalysisHandler) DeleteHistory(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	deleted, err := h.analysisServ.DeleteAnalysis(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		h.writeAnalysisError(c, err)
		return
	}
	if !deleted {
		c.JSON(http.StatusNotFound, gin.H{"detail": "not found"})
		return
	}
	c.Status(http.StatusNoContent)
}

// ListChatHistory maneja GET /analysis/chat-history.
func (h *AnalysisHandler) ListChatHistory(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	limit := queryInt(c, "limit", 20)
	offset := queryInt(c, "offset", 0)

	records, err := h.analysisServ.ListChatHistory(c.Request.Context(), userID, limit, offset)
	if err != nil {
		h.writeAnalysisError(c, err)
		return
	}
	if records == nil {
		records = []domain.ChatAnalysisRecord{}
	}
	c.JSON(http.StatusOK, gin.H{"chat_analyses": records})
}

// GetChatHistory maneja GET /analysis/chat-history/:id.
func (h *AnalysisHandler) GetChatHistory(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	rec, err := h.analysisServ.GetChatAnalysis(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		h.writeAnalysisError(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

func queryInt(c *gin.Context, name string, fallback int) int {
	raw := c.Query(name)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return n
}
