package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/jobdrop-api/internal/models"
)

const jobColumns = `id, system_id, customer_job_id, title, instruction, attachments, amount, expected_deadline, strict_deadline,
       status, created_by, reviewed_by, reviewed_at, review_note, created_at, deleted_at, deleted_by, deletion_note`

// JobRepository persists job drops.
type JobRepository struct {
	db *sqlx.DB
}

// NewJobRepository constructs the repository.
func NewJobRepository(db *sqlx.DB) *JobRepository {
	return &JobRepository{db: db}
}

// Create inserts a new pending job.
func (r *JobRepository) Create(ctx context.Context, job *models.Job) error {
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	if job.CreatedAt.IsZero() {
		job.CreatedAt = time.Now().UTC()
	}
	if job.SystemID == "" {
		job.SystemID = models.SystemIDFor(job.CreatedAt)
	}
	job.Status = models.ApprovalPending
	const query = `INSERT INTO jobs
	(id, system_id, customer_job_id, title, instruction, attachments, amount, expected_deadline, strict_deadline, status, created_by, created_at)
	VALUES (:id, :system_id, :customer_job_id, :title, :instruction, :attachments, :amount, :expected_deadline, :strict_deadline, :status, :created_by, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, job); err != nil {
		return translateInsertErr(err, "create job")
	}
	return nil
}

// GetByID fetches a job, including soft deleted rows.
func (r *JobRepository) GetByID(ctx context.Context, id string) (*models.Job, error) {
	query := `SELECT ` + jobColumns + ` FROM jobs WHERE id = $1`
	var job models.Job
	if err := r.db.GetContext(ctx, &job, query, id); err != nil {
		return nil, err
	}
	return &job, nil
}

// ExistsByCustomerJobID reports whether the customer job id is taken.
func (r *JobRepository) ExistsByCustomerJobID(ctx context.Context, customerJobID string) (bool, error) {
	const query = `SELECT EXISTS(SELECT 1 FROM jobs WHERE customer_job_id = $1)`
	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, customerJobID); err != nil {
		return false, fmt.Errorf("check customer job id: %w", err)
	}
	return exists, nil
}

// List returns jobs matching the filter, newest first, with the total count.
func (r *JobRepository) List(ctx context.Context, filter models.JobFilter) ([]models.Job, int, error) {
	args := make([]interface{}, 0, 4)
	conditions := make([]string, 0, 4)
	if !filter.IncludeDeleted {
		conditions = append(conditions, "deleted_at IS NULL")
	}
	if filter.Status != nil {
		args = append(args, *filter.Status)
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)))
	}
	if filter.CreatedBy != "" {
		args = append(args, filter.CreatedBy)
		conditions = append(conditions, fmt.Sprintf("created_by = $%d", len(args)))
	}
	if filter.Search != "" {
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
		conditions = append(conditions, fmt.Sprintf("(LOWER(customer_job_id) LIKE $%d OR LOWER(system_id) LIKE $%d OR LOWER(COALESCE(title, '')) LIKE $%d)", len(args), len(args), len(args)))
	}

	where := ""
	if len(conditions) > 0 {
		where = " WHERE " + strings.Join(conditions, " AND ")
	}
	page, size := normalizePage(filter.Page, filter.PageSize)
	listQuery := fmt.Sprintf("SELECT %s FROM jobs%s ORDER BY created_at DESC LIMIT %d OFFSET %d", jobColumns, where, size, (page-1)*size)

	var jobs []models.Job
	if err := r.db.SelectContext(ctx, &jobs, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list jobs: %w", err)
	}
	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM jobs"+where, args...); err != nil {
		return nil, 0, fmt.Errorf("count jobs: %w", err)
	}
	return jobs, total, nil
}

// Decide writes status, reviewer and timestamp in one conditional statement.
// It returns sql.ErrNoRows when the job is missing, deleted or not pending.
func (r *JobRepository) Decide(ctx context.Context, rec models.ReviewRecord) error {
	query := fmt.Sprintf(`UPDATE jobs SET status = :status, reviewed_by = :reviewed_by, reviewed_at = :reviewed_at, review_note = :review_note
	WHERE id = :id AND status = '%s' AND deleted_at IS NULL`, models.ApprovalPending)
	result, err := r.db.NamedExecContext(ctx, query, map[string]interface{}{
		"id":          rec.EntityID,
		"status":      rec.Status,
		"reviewed_by": rec.ReviewerID,
		"reviewed_at": rec.ReviewedAt,
		"review_note": rec.Note,
	})
	if err != nil {
		return fmt.Errorf("decide job: %w", err)
	}
	return expectOneRow(result, "decide job")
}

// StatusOf returns the workflow state of a live job.
func (r *JobRepository) StatusOf(ctx context.Context, id string) (models.ApprovalStatus, error) {
	const query = `SELECT status FROM jobs WHERE id = $1 AND deleted_at IS NULL`
	var status models.ApprovalStatus
	if err := r.db.GetContext(ctx, &status, query, id); err != nil {
		if err == sql.ErrNoRows {
			return "", err
		}
		return "", fmt.Errorf("job status: %w", err)
	}
	return status, nil
}

// SoftDelete hides a live job. It returns sql.ErrNoRows when nothing changed.
func (r *JobRepository) SoftDelete(ctx context.Context, id, deletedBy string, note *string, at time.Time) error {
	const query = `UPDATE jobs SET deleted_at = $2, deleted_by = $3, deletion_note = $4 WHERE id = $1 AND deleted_at IS NULL`
	result, err := r.db.ExecContext(ctx, query, id, at, deletedBy, note)
	if err != nil {
		return fmt.Errorf("delete job: %w", err)
	}
	return expectOneRow(result, "delete job")
}

// Restore brings back a soft deleted job without touching its decision.
func (r *JobRepository) Restore(ctx context.Context, id string) error {
	const query = `UPDATE jobs SET deleted_at = NULL, deleted_by = NULL, deletion_note = NULL WHERE id = $1 AND deleted_at IS NOT NULL`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("restore job: %w", err)
	}
	return expectOneRow(result, "restore job")
}

// HasDeadlineOn reports whether any live job has a deadline on the given day.
func (r *JobRepository) HasDeadlineOn(ctx context.Context, day time.Time) (bool, error) {
	const query = `SELECT EXISTS(SELECT 1 FROM jobs WHERE deleted_at IS NULL AND (expected_deadline::date = $1::date OR strict_deadline::date = $1::date))`
	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, day.Format("2006-01-02")); err != nil {
		return false, fmt.Errorf("check job deadlines: %w", err)
	}
	return exists, nil
}

// Totals counts live jobs by status and sums their amount. An empty
// createdBy covers every creator.
func (r *JobRepository) Totals(ctx context.Context, createdBy string) (models.JobTotals, error) {
	query := `SELECT
	COUNT(*) FILTER (WHERE status = 'PENDING') AS pending,
	COUNT(*) FILTER (WHERE status = 'APPROVED') AS approved,
	COUNT(*) FILTER (WHERE status = 'REJECTED') AS rejected,
	COALESCE(SUM(amount), 0) AS total_amount
	FROM jobs WHERE deleted_at IS NULL`
	args := []interface{}{}
	if createdBy != "" {
		query += " AND created_by = $1"
		args = append(args, createdBy)
	}
	var totals models.JobTotals
	if err := r.db.GetContext(ctx, &totals, query, args...); err != nil {
		return totals, fmt.Errorf("job totals: %w", err)
	}
	return totals, nil
}
