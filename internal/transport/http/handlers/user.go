package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/zaheer037/smart-auth/internal/core/domain"
	"github.com/zaheer037/smart-auth/internal/transport/http/middleware"
	"github.com/zaheer037/smart-auth/internal/usecase"
)

// UserHandler exposes the authenticated user's profile and audit views.
type UserHandler struct {
	audit *usecase.AuditService
}

// NewUserHandler constructs UserHandler.
func NewUserHandler(audit *usecase.AuditService) *UserHandler {
	return &UserHandler{audit: audit}
}

// RegisterRoutes binds the user routes. All of them require authentication.
func (h *UserHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/profile", h.profile)
	r.GET("/login-history", h.loginHistory)
	r.GET("/stats", h.stats)
}

func (h *UserHandler) profile(c *gin.Context) {
	user, ok := middleware.GetAuthenticatedUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, NewErrorResponse(c, "authentication required"))
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": user})
}

func (h *UserHandler) loginHistory(c *gin.Context) {
	user, ok := middleware.GetAuthenticatedUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, NewErrorResponse(c, "authentication required"))
		return
	}

	page := parsePositiveQuery(c, "page", 1)
	limit := parsePositiveQuery(c, "limit", 20)
	if limit > 100 {
		limit = 100
	}

	records, total, err := h.audit.History(c.Request.Context(), user.ID, page, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "could not load login history"))
		return
	}
	if records == nil {
		records = []domain.LoginRecord{}
	}

	c.JSON(http.StatusOK, LoginHistoryResponse{
		Records: records,
		Page:    page,
		Limit:   limit,
		Total:   total,
	})
}

func (h *UserHandler) stats(c *gin.Context) {
	user, ok := middleware.GetAuthenticatedUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, NewErrorResponse(c, "authentication required"))
		return
	}

	stats, err := h.audit.Stats(c.Request.Context(), user)
	if err != nil {
		c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "could not load login stats"))
		return
	}

	c.JSON(http.StatusOK, stats)
}

func parsePositiveQuery(c *gin.Context, name string, fallback int64) int64 {
	raw := c.Query(name)
	if raw == "" {
		return fallback
	}
	value, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || value < 1 {
		return fallback
	}
	return value
}
