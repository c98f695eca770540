package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/jobdrop-api/internal/dto"
	"github.com/noah-isme/jobdrop-api/internal/models"
	"github.com/noah-isme/jobdrop-api/pkg/response"
)

type profileRequestService interface {
	Submit(ctx context.Context, req dto.SubmitProfileRequest, actor *models.JWTClaims) (*models.ProfileUpdateRequest, error)
	List(ctx context.Context, filter models.ProfileRequestFilter, actor *models.JWTClaims) ([]models.ProfileUpdateRequest, *models.Pagination, error)
	Get(ctx context.Context, id string, actor *models.JWTClaims) (*models.ProfileUpdateRequest, error)
	Decide(ctx context.Context, id string, req dto.DecisionRequest, actor *models.JWTClaims) (*models.ProfileUpdateRequest, error)
	Apply(ctx context.Context, id string, actor *models.JWTClaims) (*models.ProfileUpdateRequest, error)
}

// ProfileRequestHandler exposes profile update request endpoints.
type ProfileRequestHandler struct {
	service profileRequestService
}

// NewProfileRequestHandler constructs the handler.
func NewProfileRequestHandler(svc profileRequestService) *ProfileRequestHandler {
	return &ProfileRequestHandler{service: svc}
}

type profileRequestQuery struct {
	Status      string `form:"status"`
	RequestedBy string `form:"requested_by"`
	Page        int    `form:"page"`
	PageSize    int    `form:"page_size"`
}

// List godoc
// @Summary List profile update requests
// @Tags ProfileRequests
// @Produce json
// @Param status query string false "PENDING, APPROVED or REJECTED"
// @Success 200 {object} response.Envelope
// @Router /profile-requests [get]
func (h *ProfileRequestHandler) List(c *gin.Context) {
	var q profileRequestQuery
	if !bindQuery(c, &q) {
		return
	}
	filter := models.ProfileRequestFilter{RequestedBy: q.RequestedBy, Page: q.Page, PageSize: q.PageSize}
	if q.Status != "" {
		status := models.ApprovalStatus(q.Status)
		filter.Status = &status
	}
	items, pagination, err := h.service.List(c.Request.Context(), filter, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, pagination)
}

// Get godoc
// @Summary Get profile update request
// @Tags ProfileRequests
// @Produce json
// @Param id path string true "Request ID"
// @Success 200 {object} response.Envelope
// @Router /profile-requests/{id} [get]
func (h *ProfileRequestHandler) Get(c *gin.Context) {
	item, err := h.service.Get(c.Request.Context(), c.Param("id"), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, item)
}

// Submit godoc
// @Summary Request a profile change
// @Tags ProfileRequests
// @Accept json
// @Produce json
// @Param payload body dto.SubmitProfileRequest true "Proposed changes"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /profile-requests [post]
func (h *ProfileRequestHandler) Submit(c *gin.Context) {
	var req dto.SubmitProfileRequest
	if !bindJSON(c, &req, "invalid profile request payload") {
		return
	}
	item, err := h.service.Submit(c.Request.Context(), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, item)
}

// Decide godoc
// @Summary Approve or reject a profile change
// @Tags ProfileRequests
// @Accept json
// @Produce json
// @Param id path string true "Request ID"
// @Param payload body dto.DecisionRequest true "Decision"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /profile-requests/{id}/decision [post]
func (h *ProfileRequestHandler) Decide(c *gin.Context) {
	var req dto.DecisionRequest
	if !bindJSON(c, &req, "invalid decision payload") {
		return
	}
	item, err := h.service.Decide(c.Request.Context(), c.Param("id"), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, item)
}

// Apply godoc
// @Summary Apply an approved profile change
// @Description Copies the approved changes into the user's profile exactly once
// @Tags ProfileRequests
// @Produce json
// @Param id path string true "Request ID"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope "STALE_REQUEST"
// @Router /profile-requests/{id}/apply [post]
func (h *ProfileRequestHandler) Apply(c *gin.Context) {
	item, err := h.service.Apply(c.Request.Context(), c.Param("id"), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, item)
}
