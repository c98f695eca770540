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
	"github.com/noah-isme/jobdrop-api/pkg/database"
)

const profileRequestColumns = `id, requested_by, proposed_changes, current_values, reason, status, decided_by, decided_at,
       decision_note, applied_at, created_at`

// ProfileRequestRepository persists profile update requests.
type ProfileRequestRepository struct {
	db *sqlx.DB
}

// NewProfileRequestRepository constructs the repository.
func NewProfileRequestRepository(db *sqlx.DB) *ProfileRequestRepository {
	return &ProfileRequestRepository{db: db}
}

// Create inserts a new pending request.
func (r *ProfileRequestRepository) Create(ctx context.Context, req *models.ProfileUpdateRequest) error {
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	if req.CreatedAt.IsZero() {
		req.CreatedAt = time.Now().UTC()
	}
	req.Status = models.ApprovalPending
	const query = `INSERT INTO profile_update_requests (id, requested_by, proposed_changes, current_values, reason, status, created_at)
	VALUES (:id, :requested_by, :proposed_changes, :current_values, :reason, :status, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, req); err != nil {
		return fmt.Errorf("create profile request: %w", err)
	}
	return nil
}

// GetByID fetches a request by identifier.
func (r *ProfileRequestRepository) GetByID(ctx context.Context, id string) (*models.ProfileUpdateRequest, error) {
	query := `SELECT ` + profileRequestColumns + ` FROM profile_update_requests WHERE id = $1`
	var req models.ProfileUpdateRequest
	if err := r.db.GetContext(ctx, &req, query, id); err != nil {
		return nil, err
	}
	return &req, nil
}

// List returns requests matching the filter, newest first, with the total count.
func (r *ProfileRequestRepository) List(ctx context.Context, filter models.ProfileRequestFilter) ([]models.ProfileUpdateRequest, int, error) {
	args := make([]interface{}, 0, 2)
	conditions := make([]string, 0, 2)
	if filter.Status != nil {
		args = append(args, *filter.Status)
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)))
	}
	if filter.RequestedBy != "" {
		args = append(args, filter.RequestedBy)
		conditions = append(conditions, fmt.Sprintf("requested_by = $%d", len(args)))
	}
	where := ""
	if len(conditions) > 0 {
		where = " WHERE " + strings.Join(conditions, " AND ")
	}
	page, size := normalizePage(filter.Page, filter.PageSize)
	listQuery := fmt.Sprintf("SELECT %s FROM profile_update_requests%s ORDER BY created_at DESC LIMIT %d OFFSET %d", profileRequestColumns, where, size, (page-1)*size)

	var requests []models.ProfileUpdateRequest
	if err := r.db.SelectContext(ctx, &requests, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list profile requests: %w", err)
	}
	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM profile_update_requests"+where, args...); err != nil {
		return nil, 0, fmt.Errorf("count profile requests: %w", err)
	}
	return requests, total, nil
}

// Decide writes status, decider and timestamp in one conditional statement.
// It returns sql.ErrNoRows when the request is missing or not pending.
func (r *ProfileRequestRepository) Decide(ctx context.Context, rec models.ReviewRecord) error {
	const query = `UPDATE profile_update_requests SET status = $2, decided_by = $3, decided_at = $4, decision_note = $5
	WHERE id = $1 AND status = $6`
	result, err := r.db.ExecContext(ctx, query, rec.EntityID, rec.Status, rec.ReviewerID, rec.ReviewedAt, rec.Note, models.ApprovalPending)
	if err != nil {
		return fmt.Errorf("decide profile request: %w", err)
	}
	return expectOneRow(result, "decide profile request")
}

// StatusOf returns the workflow state of a request.
func (r *ProfileRequestRepository) StatusOf(ctx context.Context, id string) (models.ApprovalStatus, error) {
	const query = `SELECT status FROM profile_update_requests WHERE id = $1`
	var status models.ApprovalStatus
	if err := r.db.GetContext(ctx, &status, query, id); err != nil {
		if err == sql.ErrNoRows {
			return "", err
		}
		return "", fmt.Errorf("profile request status: %w", err)
	}
	return status, nil
}

// Apply copies the proposed changes of an approved, unapplied request into the
// requester's user row. The applied marker and the profile update share one
// transaction; sql.ErrNoRows means the request was not eligible.
func (r *ProfileRequestRepository) Apply(ctx context.Context, id string, at time.Time) (*models.ProfileUpdateRequest, error) {
	var applied models.ProfileUpdateRequest
	err := database.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		mark := `UPDATE profile_update_requests SET applied_at = $2
		WHERE id = $1 AND status = $3 AND applied_at IS NULL
		RETURNING ` + profileRequestColumns
		if err := tx.GetContext(ctx, &applied, mark, id, at, models.ApprovalApproved); err != nil {
			if err == sql.ErrNoRows {
				return err
			}
			return fmt.Errorf("mark profile request applied: %w", err)
		}

		sets := make([]string, 0, len(applied.ProposedChanges)+1)
		args := []interface{}{applied.RequestedBy}
		for _, field := range applied.ProposedChanges.Fields() {
			if !models.IsProfileField(field) {
				return fmt.Errorf("apply profile request: unknown field %q", field)
			}
			args = append(args, applied.ProposedChanges[field])
			sets = append(sets, fmt.Sprintf("%s = $%d", field, len(args)))
		}
		args = append(args, at)
		sets = append(sets, fmt.Sprintf("updated_at = $%d", len(args)))

		update := fmt.Sprintf("UPDATE users SET %s WHERE id = $1", strings.Join(sets, ", "))
		result, err := tx.ExecContext(ctx, update, args...)
		if err != nil {
			return fmt.Errorf("apply profile changes: %w", err)
		}
		rows, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("apply profile changes rows: %w", err)
		}
		if rows == 0 {
			return fmt.Errorf("apply profile changes: user %s not found", applied.RequestedBy)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &applied, nil
}

// CountByStatus tallies requests by state. An empty requestedBy covers every requester.
func (r *ProfileRequestRepository) CountByStatus(ctx context.Context, requestedBy string) (models.StatusCounts, error) {
	query := `SELECT
	COUNT(*) FILTER (WHERE status = 'PENDING') AS pending,
	COUNT(*) FILTER (WHERE status = 'APPROVED') AS approved,
	COUNT(*) FILTER (WHERE status = 'REJECTED') AS rejected
	FROM profile_update_requests`
	args := []interface{}{}
	if requestedBy != "" {
		query += " WHERE requested_by = $1"
		args = append(args, requestedBy)
	}
	var counts models.StatusCounts
	if err := r.db.GetContext(ctx, &counts, query, args...); err != nil {
		return counts, fmt.Errorf("count profile requests: %w", err)
	}
	return counts, nil
}
