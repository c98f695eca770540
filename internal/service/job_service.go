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

// minDeadlineGap is the least time allowed between the expected and strict deadlines.
const minDeadlineGap = 24 * time.Hour

type jobStore interface {
	Create(ctx context.Context, job *models.Job) error
	GetByID(ctx context.Context, id string) (*models.Job, error)
	List(ctx context.Context, filter models.JobFilter) ([]models.Job, int, error)
	ExistsByCustomerJobID(ctx context.Context, customerJobID string) (bool, error)
	SoftDelete(ctx context.Context, id, deletedBy string, note *string, at time.Time) error
	Restore(ctx context.Context, id string) error
}

type holidayChecker interface {
	ExistsOn(ctx context.Context, days ...time.Time) (bool, error)
}

type approvalDecider interface {
	Decide(ctx context.Context, kind models.EntityKind, entityID string, decision models.Decision, reviewerID string, note *string) (*models.ReviewRecord, error)
}

// JobService handles job drop use-cases.
type JobService struct {
	repo      jobStore
	holidays  holidayChecker
	engine    approvalDecider
	events    eventEmitter
	validator *validator.Validate
	clock     func() time.Time
	logger    *zap.Logger
}

// JobServiceOption configures the job service.
type JobServiceOption func(*JobService)

// WithJobEvents routes job lifecycle events to emitter.
func WithJobEvents(emitter eventEmitter) JobServiceOption {
	return func(s *JobService) {
		if emitter != nil {
			s.events = emitter
		}
	}
}

// WithJobClock overrides the time source.
func WithJobClock(clock func() time.Time) JobServiceOption {
	return func(s *JobService) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// NewJobService constructs the job service.
func NewJobService(repo jobStore, holidays holidayChecker, engine approvalDecider, validate *validator.Validate, logger *zap.Logger, opts ...JobServiceOption) *JobService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	svc := &JobService{
		repo:      repo,
		holidays:  holidays,
		engine:    engine,
		events:    noopEmitter{},
		validator: validate,
		clock:     time.Now,
		logger:    logger,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(svc)
		}
	}
	return svc
}

// Submit creates a PENDING job on behalf of a marketing user.
func (s *JobService) Submit(ctx context.Context, req dto.SubmitJobRequest, actor *models.JWTClaims) (*models.Job, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if actor.Role != models.RoleMarketing {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only marketing team members can drop jobs")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid job payload")
	}
	expected, strict := req.ExpectedDeadline.UTC(), req.StrictDeadline.UTC()
	if strict.Sub(expected) < minDeadlineGap {
		return nil, appErrors.Clone(appErrors.ErrValidation, "strict deadline must be at least 24 hours after the expected deadline")
	}
	if s.holidays != nil {
		onHoliday, err := s.holidays.ExistsOn(ctx, expected, strict)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check holidays")
		}
		if onHoliday {
			return nil, appErrors.Clone(appErrors.ErrValidation, "deadlines cannot fall on a holiday")
		}
	}
	customerJobID := strings.TrimSpace(req.CustomerJobID)
	exists, err := s.repo.ExistsByCustomerJobID(ctx, customerJobID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate customer job id")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "customer job id already used")
	}

	now := s.clock().UTC()
	job := &models.Job{
		SystemID:         models.SystemIDFor(now),
		CustomerJobID:    customerJobID,
		Title:            optionalString(req.Title),
		Instruction:      req.Instruction,
		Attachments:      models.Attachments(req.Attachments),
		Amount:           *req.Amount,
		ExpectedDeadline: expected,
		StrictDeadline:   strict,
		Status:           models.ApprovalPending,
		CreatedBy:        actor.UserID,
		CreatedAt:        now,
	}
	if job.Attachments == nil {
		job.Attachments = models.Attachments{}
	}
	if err := s.repo.Create(ctx, job); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "customer job id already used")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create job")
	}
	s.events.Emit(ctx, models.ApprovalEvent{
		Type:       models.EventSubmitted,
		Entity:     models.EntityJob,
		EntityID:   job.ID,
		ActorID:    actor.UserID,
		OwnerID:    job.CreatedBy,
		Status:     job.Status,
		OccurredAt: now,
	})
	return job, nil
}

// Get returns a job visible to the actor.
func (s *JobService) Get(ctx context.Context, id string, actor *models.JWTClaims) (*models.Job, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	job, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if actor.Role != models.RoleSuperAdmin {
		if job.Deleted() {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "job not found")
		}
		if job.CreatedBy != actor.UserID {
			return nil, appErrors.ErrForbidden
		}
	}
	return job, nil
}

// List returns jobs visible to the actor. Marketing users only see their own live jobs.
func (s *JobService) List(ctx context.Context, query dto.JobQuery, actor *models.JWTClaims) ([]models.Job, *models.Pagination, error) {
	if actor == nil {
		return nil, nil, appErrors.ErrUnauthorized
	}
	filter := query.Filter()
	if filter.Status != nil && !filter.Status.Valid() {
		return nil, nil, appErrors.Clone(appErrors.ErrValidation, "unknown status filter")
	}
	switch actor.Role {
	case models.RoleSuperAdmin:
	case models.RoleMarketing:
		filter.CreatedBy = actor.UserID
		filter.IncludeDeleted = false
	default:
		return nil, nil, appErrors.ErrForbidden
	}
	jobs, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list jobs")
	}
	return jobs, paginationFor(filter.Page, filter.PageSize, total), nil
}

// Decide records the reviewer's decision on a pending job.
func (s *JobService) Decide(ctx context.Context, id string, req dto.DecisionRequest, actor *models.JWTClaims) (*models.Job, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	decision, _ := models.ParseDecision(req.Decision)
	rec, err := s.engine.Decide(ctx, models.EntityJob, id, decision, actor.UserID, optionalString(req.Note))
	if err != nil {
		return nil, err
	}
	job, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	s.events.Emit(ctx, models.ApprovalEvent{
		Type:       models.EventDecided,
		Entity:     models.EntityJob,
		EntityID:   job.ID,
		ActorID:    rec.ReviewerID,
		OwnerID:    job.CreatedBy,
		Status:     rec.Status,
		Note:       rec.Note,
		OccurredAt: rec.ReviewedAt,
	})
	return job, nil
}

// Delete soft deletes a job. Its decision fields are left as they are.
func (s *JobService) Delete(ctx context.Context, id string, req dto.DeleteJobRequest, actor *models.JWTClaims) error {
	if err := requireSuperAdmin(actor); err != nil {
		return err
	}
	now := s.clock().UTC()
	note := optionalString(req.Note)
	if err := s.repo.SoftDelete(ctx, id, actor.UserID, note, now); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			if _, loadErr := s.load(ctx, id); loadErr != nil {
				return loadErr
			}
			return appErrors.Clone(appErrors.ErrConflict, "job already deleted")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete job")
	}
	s.events.Emit(ctx, models.ApprovalEvent{
		Type:       models.EventDeleted,
		Entity:     models.EntityJob,
		EntityID:   id,
		ActorID:    actor.UserID,
		Note:       note,
		OccurredAt: now,
	})
	return nil
}

// Restore brings back a soft deleted job.
func (s *JobService) Restore(ctx context.Context, id string, actor *models.JWTClaims) (*models.Job, error) {
	if err := requireSuperAdmin(actor); err != nil {
		return nil, err
	}
	if err := s.repo.Restore(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			if _, loadErr := s.load(ctx, id); loadErr != nil {
				return nil, loadErr
			}
			return nil, appErrors.Clone(appErrors.ErrConflict, "job is not deleted")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to restore job")
	}
	job, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	s.events.Emit(ctx, models.ApprovalEvent{
		Type:       models.EventRestored,
		Entity:     models.EntityJob,
		EntityID:   id,
		ActorID:    actor.UserID,
		OwnerID:    job.CreatedBy,
		Status:     job.Status,
		OccurredAt: s.clock().UTC(),
	})
	return job, nil
}

func (s *JobService) load(ctx context.Context, id string) (*models.Job, error) {
	job, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "job not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load job")
	}
	return job, nil
}
