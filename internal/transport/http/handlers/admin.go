package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/zaheer037/smart-auth/internal/core/domain"
	"github.com/zaheer037/smart-auth/internal/usecase"
)

// AdminHandler exposes the administrative dashboard and account management
// endpoints. Routes are registered behind the admin role middleware.
type AdminHandler struct {
	users *usecase.UserService
	audit *usecase.AuditService
}

// NewAdminHandler constructs AdminHandler.
func NewAdminHandler(users *usecase.UserService, audit *usecase.AuditService) *AdminHandler {
	return &AdminHandler{users: users, audit: audit}
}

// RegisterRoutes binds the admin routes.
func (h *AdminHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/dashboard", h.dashboard)
	r.GET("/logins/suspicious", h.suspiciousLogins)
	r.GET("/logins/ip/:ip", h.loginsByIP)
	r.GET("/users", h.listUsers)
	r.PATCH("/users/:id/active", h.setUserActive)
}

func (h *AdminHandler) dashboard(c *gin.Context) {
	summary, err := h.audit.Dashboard(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "could not load dashboard"))
		return
	}

	c.JSON(http.StatusOK, summary)
}

func (h *AdminHandler) suspiciousLogins(c *gin.Context) {
	days := int(parsePositiveQuery(c, "days", 7))
	limit := parsePositiveQuery(c, "limit", 50)

	records, err := h.audit.Suspicious(c.Request.Context(), days, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "could not load suspicious logins"))
		return
	}
	if records == nil {
		records = []domain.LoginRecord{}
	}

	c.JSON(http.StatusOK, LoginRecordsResponse{Records: records, Count: len(records)})
}

func (h *AdminHandler) loginsByIP(c *gin.Context) {
	ip := c.Param("ip")
	limit := parsePositiveQuery(c, "limit", 50)

	records, err := h.audit.ByIP(c.Request.Context(), ip, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "could not load logins for ip"))
		return
	}
	if records == nil {
		records = []domain.LoginRecord{}
	}

	c.JSON(http.StatusOK, LoginRecordsResponse{Records: records, Count: len(records)})
}

func (h *AdminHandler) listUsers(c *gin.Context) {
	page := parsePositiveQuery(c, "page", 1)
	limit := parsePositiveQuery(c, "limit", 20)
	if limit > 100 {
		limit = 100
	}

	users, total, err := h.users.List(c.Request.Context(), page, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "could not list users"))
		return
	}
	if users == nil {
		users = []domain.User{}
	}

	c.JSON(http.StatusOK, UsersResponse{
		Users: users,
		Page:  page,
		Limit: limit,
		Total: total,
	})
}

func (h *AdminHandler) setUserActive(c *gin.Context) {
	id := c.Param("id")

	var req SetActiveRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Active == nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "active flag is required"))
		return
	}

	user, err := h.users.SetActive(c.Request.Context(), id, *req.Active)
	if err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: usecase.ErrUserNotFound, Status: http.StatusNotFound, Message: usecase.ErrUserNotFound.Error()},
		}, http.StatusInternalServerError, "could not update user")
		return
	}

	status := "deactivated"
	if *req.Active {
		status = "activated"
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "User " + status,
		"user":    user,
	})
}
