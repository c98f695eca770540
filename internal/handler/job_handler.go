package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/jobdrop-api/internal/dto"
	"github.com/noah-isme/jobdrop-api/internal/models"
	"github.com/noah-isme/jobdrop-api/pkg/response"
)

type jobService interface {
	Submit(ctx context.Context, req dto.SubmitJobRequest, actor *models.JWTClaims) (*models.Job, error)
	Get(ctx context.Context, id string, actor *models.JWTClaims) (*models.Job, error)
	List(ctx context.Context, query dto.JobQuery, actor *models.JWTClaims) ([]models.Job, *models.Pagination, error)
	Decide(ctx context.Context, id string, req dto.DecisionRequest, actor *models.JWTClaims) (*models.Job, error)
	Delete(ctx context.Context, id string, req dto.DeleteJobRequest, actor *models.JWTClaims) error
	Restore(ctx context.Context, id string, actor *models.JWTClaims) (*models.Job, error)
}

// JobHandler exposes job drop endpoints.
type JobHandler struct {
	service jobService
}

// NewJobHandler constructs the handler.
func NewJobHandler(svc jobService) *JobHandler {
	return &JobHandler{service: svc}
}

// List godoc
// @Summary List jobs
// @Description Super admins see every job; marketing users see their own
// @Tags Jobs
// @Produce json
// @Param status query string false "PENDING, APPROVED or REJECTED"
// @Param search query string false "Matches system id, customer job id or title"
// @Param include_deleted query bool false "Super admin only"
// @Param page query int false "Page"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /jobs [get]
func (h *JobHandler) List(c *gin.Context) {
	var q dto.JobQuery
	if !bindQuery(c, &q) {
		return
	}
	jobs, pagination, err := h.service.List(c.Request.Context(), q, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, jobs, pagination)
}

// Get godoc
// @Summary Get job
// @Tags Jobs
// @Produce json
// @Param id path string true "Job ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /jobs/{id} [get]
func (h *JobHandler) Get(c *gin.Context) {
	job, err := h.service.Get(c.Request.Context(), c.Param("id"), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, job)
}

// Submit godoc
// @Summary Drop a job
// @Tags Jobs
// @Accept json
// @Produce json
// @Param payload body dto.SubmitJobRequest true "Job"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /jobs [post]
func (h *JobHandler) Submit(c *gin.Context) {
	var req dto.SubmitJobRequest
	if !bindJSON(c, &req, "invalid job payload") {
		return
	}
	job, err := h.service.Submit(c.Request.Context(), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, job)
}

// Decide godoc
// @Summary Approve or reject a job
// @Tags Jobs
// @Accept json
// @Produce json
// @Param id path string true "Job ID"
// @Param payload body dto.DecisionRequest true "Decision"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /jobs/{id}/decision [post]
func (h *JobHandler) Decide(c *gin.Context) {
	var req dto.DecisionRequest
	if !bindJSON(c, &req, "invalid decision payload") {
		return
	}
	job, err := h.service.Decide(c.Request.Context(), c.Param("id"), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, job)
}

// Delete godoc
// @Summary Soft delete a job
// @Tags Jobs
// @Accept json
// @Param id path string true "Job ID"
// @Param payload body dto.DeleteJobRequest false "Deletion note"
// @Success 204
// @Failure 404 {object} response.Envelope
// @Router /jobs/{id} [delete]
func (h *JobHandler) Delete(c *gin.Context) {
	var req dto.DeleteJobRequest
	if c.Request.ContentLength > 0 && !bindJSON(c, &req, "invalid delete payload") {
		return
	}
	if err := h.service.Delete(c.Request.Context(), c.Param("id"), req, claimsFromContext(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Restore godoc
// @Summary Restore a deleted job
// @Tags Jobs
// @Produce json
// @Param id path string true "Job ID"
// @Success 200 {object} response.Envelope
// @Router /jobs/{id}/restore [post]
func (h *JobHandler) Restore(c *gin.Context) {
	job, err := h.service.Restore(c.Request.Context(), c.Param("id"), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, job)
}
