package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/jobdrop-api/internal/models"
)

// HolidayRepository persists non-working days.
type HolidayRepository struct {
	db *sqlx.DB
}

// NewHolidayRepository constructs the repository.
func NewHolidayRepository(db *sqlx.DB) *HolidayRepository {
	return &HolidayRepository{db: db}
}

// List returns holidays ordered by date.
func (r *HolidayRepository) List(ctx context.Context, filter models.HolidayFilter) ([]models.Holiday, error) {
	query := `SELECT id, date, description, created_at FROM holidays`
	args := make([]interface{}, 0, 2)
	conditions := make([]string, 0, 2)
	if filter.From != nil {
		args = append(args, filter.From.Format("2006-01-02"))
		conditions = append(conditions, fmt.Sprintf("date >= $%d", len(args)))
	}
	if filter.To != nil {
		args = append(args, filter.To.Format("2006-01-02"))
		conditions = append(conditions, fmt.Sprintf("date <= $%d", len(args)))
	}
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY date"

	var holidays []models.Holiday
	if err := r.db.SelectContext(ctx, &holidays, query, args...); err != nil {
		return nil, fmt.Errorf("list holidays: %w", err)
	}
	return holidays, nil
}

// Create inserts a holiday.
func (r *HolidayRepository) Create(ctx context.Context, holiday *models.Holiday) error {
	if holiday.ID == "" {
		holiday.ID = uuid.NewString()
	}
	if holiday.CreatedAt.IsZero() {
		holiday.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO holidays (id, date, description, created_at) VALUES (:id, :date, :description, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, holiday); err != nil {
		return translateInsertErr(err, "create holiday")
	}
	return nil
}

// Delete removes a holiday. It returns sql.ErrNoRows when the id is unknown.
func (r *HolidayRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM holidays WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete holiday: %w", err)
	}
	return expectOneRow(result, "delete holiday")
}

// ExistsOn reports whether any of the given days is a holiday.
func (r *HolidayRepository) ExistsOn(ctx context.Context, days ...time.Time) (bool, error) {
	if len(days) == 0 {
		return false, nil
	}
	dates := make([]string, len(days))
	for i, d := range days {
		dates[i] = d.Format("2006-01-02")
	}
	query, args, err := sqlx.In(`SELECT EXISTS(SELECT 1 FROM holidays WHERE date IN (?))`, dates)
	if err != nil {
		return false, fmt.Errorf("build holiday query: %w", err)
	}
	var exists bool
	if err := r.db.GetContext(ctx, &exists, r.db.Rebind(query), args...); err != nil {
		return false, fmt.Errorf("check holidays: %w", err)
	}
	return exists, nil
}
