package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/jobdrop-api/internal/models"
	"github.com/noah-isme/jobdrop-api/pkg/response"
)

type summaryService interface {
	Summary(ctx context.Context, actor *models.JWTClaims) (*models.QueueSummary, error)
}

// SummaryHandler serves the review queue overview.
type SummaryHandler struct {
	service summaryService
}

// NewSummaryHandler constructs the handler.
func NewSummaryHandler(svc summaryService) *SummaryHandler {
	return &SummaryHandler{service: svc}
}

// Get godoc
// @Summary Review queue summary
// @Description Counts by status; marketing users see only their own items
// @Tags Summary
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /summary [get]
func (h *SummaryHandler) Get(c *gin.Context) {
	summary, err := h.service.Summary(c.Request.Context(), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, summary)
}
