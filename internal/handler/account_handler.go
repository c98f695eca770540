package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/jobdrop-api/internal/dto"
	"github.com/noah-isme/jobdrop-api/internal/models"
	"github.com/noah-isme/jobdrop-api/pkg/response"
)

type accountService interface {
	List(ctx context.Context, filter models.UserFilter, actor *models.JWTClaims) ([]models.User, *models.Pagination, error)
	Decide(ctx context.Context, id string, req dto.DecisionRequest, actor *models.JWTClaims) (*models.User, error)
	Me(ctx context.Context, actor *models.JWTClaims) (*models.User, error)
}

// AccountHandler exposes account review endpoints.
type AccountHandler struct {
	service accountService
}

// NewAccountHandler constructs the handler.
func NewAccountHandler(svc accountService) *AccountHandler {
	return &AccountHandler{service: svc}
}

type accountQuery struct {
	Role     string `form:"role"`
	Status   string `form:"status"`
	Search   string `form:"search"`
	Page     int    `form:"page"`
	PageSize int    `form:"page_size"`
}

// List godoc
// @Summary List accounts
// @Tags Accounts
// @Produce json
// @Param status query string false "PENDING_APPROVAL, APPROVED or REJECTED"
// @Param role query string false "MARKETING or SUPER_ADMIN"
// @Param search query string false "Name or email"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /users [get]
func (h *AccountHandler) List(c *gin.Context) {
	var q accountQuery
	if !bindQuery(c, &q) {
		return
	}
	filter := models.UserFilter{Search: q.Search, Page: q.Page, PageSize: q.PageSize}
	if q.Role != "" {
		role := models.UserRole(q.Role)
		filter.Role = &role
	}
	if q.Status != "" {
		status := models.AccountStatus(q.Status)
		filter.Status = &status
	}
	users, pagination, err := h.service.List(c.Request.Context(), filter, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, users, pagination)
}

// Decide godoc
// @Summary Approve or reject a registration
// @Tags Accounts
// @Accept json
// @Produce json
// @Param id path string true "User ID"
// @Param payload body dto.DecisionRequest true "Decision"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /users/{id}/decision [post]
func (h *AccountHandler) Decide(c *gin.Context) {
	var req dto.DecisionRequest
	if !bindJSON(c, &req, "invalid decision payload") {
		return
	}
	user, err := h.service.Decide(c.Request.Context(), c.Param("id"), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, user)
}

// Me godoc
// @Summary Current account
// @Tags Accounts
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /me [get]
func (h *AccountHandler) Me(c *gin.Context) {
	user, err := h.service.Me(c.Request.Context(), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, user)
}
