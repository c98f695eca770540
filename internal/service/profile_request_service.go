package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/jobdrop-api/internal/dto"
	"github.com/noah-isme/jobdrop-api/internal/models"
	appErrors "github.com/noah-isme/jobdrop-api/pkg/errors"
	"github.com/noah-isme/jobdrop-api/pkg/tracing"
)

type profileRequestStore interface {
	Create(ctx context.Context, req *models.ProfileUpdateRequest) error
	GetByID(ctx context.Context, id string) (*models.ProfileUpdateRequest, error)
	List(ctx context.Context, filter models.ProfileRequestFilter) ([]models.ProfileUpdateRequest, int, error)
	Apply(ctx context.Context, id string, at time.Time) (*models.ProfileUpdateRequest, error)
}

type userFinder interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

// ProfileRequestService handles profile update requests from submission to application.
type ProfileRequestService struct {
	repo      profileRequestStore
	users     userFinder
	engine    approvalDecider
	events    eventEmitter
	metrics   *MetricsService
	validator *validator.Validate
	clock     func() time.Time
	autoApply bool
	logger    *zap.Logger
}

// ProfileRequestServiceOption configures the service.
type ProfileRequestServiceOption func(*ProfileRequestService)

// WithProfileEvents routes request lifecycle events to emitter.
func WithProfileEvents(emitter eventEmitter) ProfileRequestServiceOption {
	return func(s *ProfileRequestService) {
		if emitter != nil {
			s.events = emitter
		}
	}
}

// WithProfileAutoApply applies approved requests right after the decision.
func WithProfileAutoApply(enabled bool) ProfileRequestServiceOption {
	return func(s *ProfileRequestService) {
		s.autoApply = enabled
	}
}

// WithProfileClock overrides the time source.
func WithProfileClock(clock func() time.Time) ProfileRequestServiceOption {
	return func(s *ProfileRequestService) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// WithProfileMetrics counts application outcomes.
func WithProfileMetrics(metrics *MetricsService) ProfileRequestServiceOption {
	return func(s *ProfileRequestService) {
		s.metrics = metrics
	}
}

// NewProfileRequestService constructs the service.
func NewProfileRequestService(repo profileRequestStore, users userFinder, engine approvalDecider, validate *validator.Validate, logger *zap.Logger, opts ...ProfileRequestServiceOption) *ProfileRequestService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	svc := &ProfileRequestService{
		repo:      repo,
		users:     users,
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

// Submit files a PENDING request to change the actor's own profile.
func (s *ProfileRequestService) Submit(ctx context.Context, req dto.SubmitProfileRequest, actor *models.JWTClaims) (*models.ProfileUpdateRequest, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid profile request payload")
	}
	changes := make(models.ProfileChanges, len(req.Changes))
	for field, value := range req.Changes {
		field = strings.ToLower(strings.TrimSpace(field))
		if !models.IsProfileField(field) {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("field %q cannot be changed", field))
		}
		if _, dup := changes[field]; dup {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("field %q is given more than once", field))
		}
		value = strings.TrimSpace(value)
		if value == "" {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("field %q requires a value", field))
		}
		changes[field] = value
	}

	user, err := s.users.FindByID(ctx, actor.UserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}
	current := make(models.ProfileChanges, len(changes))
	for field := range changes {
		current[field] = user.Profile.Value(field)
	}

	request := &models.ProfileUpdateRequest{
		RequestedBy:     actor.UserID,
		ProposedChanges: changes,
		CurrentValues:   current,
		Reason:          optionalString(req.Reason),
		Status:          models.ApprovalPending,
		CreatedAt:       s.clock().UTC(),
	}
	if err := s.repo.Create(ctx, request); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create profile request")
	}
	s.events.Emit(ctx, models.ApprovalEvent{
		Type:       models.EventSubmitted,
		Entity:     models.EntityProfileRequest,
		EntityID:   request.ID,
		ActorID:    actor.UserID,
		OwnerID:    actor.UserID,
		Status:     request.Status,
		OccurredAt: request.CreatedAt,
	})
	return request, nil
}

// List returns requests visible to the actor.
func (s *ProfileRequestService) List(ctx context.Context, filter models.ProfileRequestFilter, actor *models.JWTClaims) ([]models.ProfileUpdateRequest, *models.Pagination, error) {
	if actor == nil {
		return nil, nil, appErrors.ErrUnauthorized
	}
	if filter.Status != nil && !filter.Status.Valid() {
		return nil, nil, appErrors.Clone(appErrors.ErrValidation, "unknown status filter")
	}
	if actor.Role != models.RoleSuperAdmin {
		filter.RequestedBy = actor.UserID
	}
	requests, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list profile requests")
	}
	return requests, paginationFor(filter.Page, filter.PageSize, total), nil
}

// Get returns a request visible to the actor.
func (s *ProfileRequestService) Get(ctx context.Context, id string, actor *models.JWTClaims) (*models.ProfileUpdateRequest, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	request, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if actor.Role != models.RoleSuperAdmin && request.RequestedBy != actor.UserID {
		return nil, appErrors.ErrForbidden
	}
	return request, nil
}

// Decide records the reviewer's decision. With auto-apply enabled an approval
// is followed by Apply; an apply failure is logged and leaves the request
// approved for a later explicit apply.
func (s *ProfileRequestService) Decide(ctx context.Context, id string, req dto.DecisionRequest, actor *models.JWTClaims) (*models.ProfileUpdateRequest, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	decision, _ := models.ParseDecision(req.Decision)
	rec, err := s.engine.Decide(ctx, models.EntityProfileRequest, id, decision, actor.UserID, optionalString(req.Note))
	if err != nil {
		return nil, err
	}
	request, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	s.events.Emit(ctx, models.ApprovalEvent{
		Type:       models.EventDecided,
		Entity:     models.EntityProfileRequest,
		EntityID:   id,
		ActorID:    rec.ReviewerID,
		OwnerID:    request.RequestedBy,
		Status:     rec.Status,
		Note:       rec.Note,
		OccurredAt: rec.ReviewedAt,
	})

	if s.autoApply && rec.Status == models.ApprovalApproved {
		applied, err := s.Apply(ctx, id, actor)
		if err != nil {
			s.logger.Warn("auto apply failed", zap.String("request_id", id), zap.Error(err))
			return request, nil
		}
		return applied, nil
	}
	return request, nil
}

// Apply copies an approved request's changes into the user's profile exactly
// once. Pending, rejected or already applied requests fail with STALE_REQUEST.
func (s *ProfileRequestService) Apply(ctx context.Context, id string, actor *models.JWTClaims) (applied *models.ProfileUpdateRequest, err error) {
	if err := requireSuperAdmin(actor); err != nil {
		return nil, err
	}
	ctx, span := tracing.Start(ctx, "approval.apply_profile_update", map[string]string{"request_id": id})
	defer func() {
		tracing.End(span, err)
		outcome := "applied"
		if err != nil {
			outcome = appErrors.FromError(err).Code
		}
		s.metrics.RecordApplication(outcome)
	}()

	now := s.clock().UTC()
	applied, err = s.repo.Apply(ctx, id, now)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			request, loadErr := s.load(ctx, id)
			if loadErr != nil {
				return nil, loadErr
			}
			return nil, appErrors.Clone(appErrors.ErrStaleRequest, staleReason(request))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to apply profile request")
	}

	s.logger.Info("profile update applied",
		zap.String("request_id", id),
		zap.String("user_id", applied.RequestedBy),
		zap.Strings("fields", applied.ProposedChanges.Fields()),
	)
	s.events.Emit(ctx, models.ApprovalEvent{
		Type:       models.EventApplied,
		Entity:     models.EntityProfileRequest,
		EntityID:   id,
		ActorID:    actor.UserID,
		OwnerID:    applied.RequestedBy,
		Status:     applied.Status,
		OccurredAt: now,
	})
	return applied, nil
}

func (s *ProfileRequestService) load(ctx context.Context, id string) (*models.ProfileUpdateRequest, error) {
	request, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "profile request not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load profile request")
	}
	return request, nil
}

func staleReason(request *models.ProfileUpdateRequest) string {
	switch {
	case request.Applied():
		return "profile request already applied"
	case request.Status == models.ApprovalPending:
		return "profile request is still pending"
	case request.Status == models.ApprovalRejected:
		return "profile request was rejected"
	}
	return "profile request cannot be applied"
}
