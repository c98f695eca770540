package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/jobdrop-api/internal/dto"
	"github.com/noah-isme/jobdrop-api/internal/models"
	"github.com/noah-isme/jobdrop-api/internal/repository"
	appErrors "github.com/noah-isme/jobdrop-api/pkg/errors"
)

type holidayStore interface {
	List(ctx context.Context, filter models.HolidayFilter) ([]models.Holiday, error)
	Create(ctx context.Context, holiday *models.Holiday) error
	Delete(ctx context.Context, id string) error
}

type deadlineChecker interface {
	HasDeadlineOn(ctx context.Context, day time.Time) (bool, error)
}

// HolidayService maintains the non-working days used by deadline validation.
type HolidayService struct {
	repo      holidayStore
	jobs      deadlineChecker
	validator *validator.Validate
	logger    *zap.Logger
}

// NewHolidayService constructs the service.
func NewHolidayService(repo holidayStore, jobs deadlineChecker, validate *validator.Validate, logger *zap.Logger) *HolidayService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HolidayService{repo: repo, jobs: jobs, validator: validate, logger: logger}
}

// List returns holidays in the optional range.
func (s *HolidayService) List(ctx context.Context, filter models.HolidayFilter) ([]models.Holiday, error) {
	holidays, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list holidays")
	}
	return holidays, nil
}

// Create adds a holiday unless a live job already has a deadline that day.
func (s *HolidayService) Create(ctx context.Context, req dto.CreateHolidayRequest, actor *models.JWTClaims) (*models.Holiday, error) {
	if err := requireSuperAdmin(actor); err != nil {
		return nil, err
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid holiday payload")
	}
	day := truncateDay(*req.Date)
	busy, err := s.jobs.HasDeadlineOn(ctx, day)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check job deadlines")
	}
	if busy {
		return nil, appErrors.Clone(appErrors.ErrConflict, "jobs already have deadlines on this date")
	}
	holiday := &models.Holiday{Date: day, Description: strings.TrimSpace(req.Description)}
	if err := s.repo.Create(ctx, holiday); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "holiday already exists on this date")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create holiday")
	}
	s.logger.Info("holiday created", zap.String("date", day.Format("2006-01-02")), zap.String("actor_id", actor.UserID))
	return holiday, nil
}

// Delete removes a holiday.
func (s *HolidayService) Delete(ctx context.Context, id string, actor *models.JWTClaims) error {
	if err := requireSuperAdmin(actor); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "holiday not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete holiday")
	}
	return nil
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
