package dto

import (
	"time"

	"github.com/noah-isme/jobdrop-api/internal/models"
)

// SubmitJobRequest is the payload for dropping a new job.
type SubmitJobRequest struct {
	CustomerJobID    string     `json:"customer_job_id" validate:"required,max=100"`
	Title            string     `json:"title" validate:"omitempty,max=255"`
	Instruction      string     `json:"instruction" validate:"required,max=10000"`
	Attachments      []string   `json:"attachments" validate:"omitempty,max=20,dive,required"`
	Amount           *float64   `json:"amount" validate:"required,gt=0"`
	ExpectedDeadline *time.Time `json:"expected_deadline" validate:"required"`
	StrictDeadline   *time.Time `json:"strict_deadline" validate:"required"`
}

// DecisionRequest carries a reviewer's decision and optional note.
type DecisionRequest struct {
	Decision string `json:"decision" validate:"required"`
	Note     string `json:"note" validate:"omitempty,max=2000"`
}

// DeleteJobRequest records why a job is being removed.
type DeleteJobRequest struct {
	Note string `json:"note" validate:"omitempty,max=2000"`
}

// JobQuery mirrors the list filters accepted over HTTP.
type JobQuery struct {
	Status         string `form:"status"`
	Search         string `form:"search"`
	CreatedBy      string `form:"created_by"`
	IncludeDeleted bool   `form:"include_deleted"`
	Page           int    `form:"page"`
	PageSize       int    `form:"page_size"`
}

// Filter converts the query into a repository filter.
func (q JobQuery) Filter() models.JobFilter {
	filter := models.JobFilter{
		CreatedBy:      q.CreatedBy,
		Search:         q.Search,
		IncludeDeleted: q.IncludeDeleted,
		Page:           q.Page,
		PageSize:       q.PageSize,
	}
	if q.Status != "" {
		status := models.ApprovalStatus(q.Status)
		filter.Status = &status
	}
	return filter
}
