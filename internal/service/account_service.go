package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/jobdrop-api/internal/dto"
	"github.com/noah-isme/jobdrop-api/internal/models"
	"github.com/noah-isme/jobdrop-api/internal/repository"
	appErrors "github.com/noah-isme/jobdrop-api/pkg/errors"
)

type accountStore interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	Create(ctx context.Context, user *models.User) error
	List(ctx context.Context, filter models.UserFilter) ([]models.User, int, error)
	EmployeeIDs(ctx context.Context, role models.UserRole) ([]string, error)
	AssignEmployeeID(ctx context.Context, id, employeeID string) error
}

// AccountService admits self-registered marketing accounts.
type AccountService struct {
	repo      accountStore
	engine    approvalDecider
	events    eventEmitter
	validator *validator.Validate
	clock     func() time.Time
	logger    *zap.Logger
}

// AccountServiceOption configures the service.
type AccountServiceOption func(*AccountService)

// WithAccountEvents routes account lifecycle events to emitter.
func WithAccountEvents(emitter eventEmitter) AccountServiceOption {
	return func(s *AccountService) {
		if emitter != nil {
			s.events = emitter
		}
	}
}

// WithAccountClock overrides the time source.
func WithAccountClock(clock func() time.Time) AccountServiceOption {
	return func(s *AccountService) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// NewAccountService constructs the service.
func NewAccountService(repo accountStore, engine approvalDecider, validate *validator.Validate, logger *zap.Logger, opts ...AccountServiceOption) *AccountService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	svc := &AccountService{
		repo:      repo,
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

// Register creates a MARKETING account awaiting approval.
func (s *AccountService) Register(ctx context.Context, req dto.RegisterRequest) (*models.User, error) {
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid registration payload")
	}
	email := req.Email
	exists, err := s.repo.ExistsByEmail(ctx, email)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate email")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "email already registered")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
	}

	now := s.clock().UTC()
	user := &models.User{
		Email:          email,
		PasswordHash:   string(hash),
		Role:           models.RoleMarketing,
		ApprovalStatus: models.AccountPendingApproval,
		CreatedAt:      now,
		Profile: models.Profile{
			FirstName:         strings.TrimSpace(req.FirstName),
			LastName:          strings.TrimSpace(req.LastName),
			Phone:             strings.TrimSpace(req.Phone),
			WhatsappNumber:    strings.TrimSpace(req.WhatsappNumber),
			LastQualification: strings.TrimSpace(req.LastQualification),
		},
	}
	if err := s.repo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "email already registered")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create account")
	}
	s.events.Emit(ctx, models.ApprovalEvent{
		Type:       models.EventSubmitted,
		Entity:     models.EntityAccount,
		EntityID:   user.ID,
		ActorID:    user.ID,
		OwnerID:    user.ID,
		Status:     models.ApprovalPending,
		OccurredAt: now,
	})
	return user, nil
}

// List returns accounts for super admins.
func (s *AccountService) List(ctx context.Context, filter models.UserFilter, actor *models.JWTClaims) ([]models.User, *models.Pagination, error) {
	if err := requireSuperAdmin(actor); err != nil {
		return nil, nil, err
	}
	users, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list accounts")
	}
	return users, paginationFor(filter.Page, filter.PageSize, total), nil
}

// Decide admits or rejects a pending account. Approval issues the employee id.
func (s *AccountService) Decide(ctx context.Context, id string, req dto.DecisionRequest, actor *models.JWTClaims) (*models.User, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	decision, _ := models.ParseDecision(req.Decision)
	rec, err := s.engine.Decide(ctx, models.EntityAccount, id, decision, actor.UserID, optionalString(req.Note))
	if err != nil {
		return nil, err
	}
	user, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if rec.Status == models.ApprovalApproved && user.EmployeeID == nil {
		if err := s.assignEmployeeID(ctx, user); err != nil {
			s.logger.Warn("employee id not assigned", zap.String("user_id", id), zap.Error(err))
		}
	}
	s.events.Emit(ctx, models.ApprovalEvent{
		Type:       models.EventDecided,
		Entity:     models.EntityAccount,
		EntityID:   id,
		ActorID:    rec.ReviewerID,
		OwnerID:    id,
		Status:     rec.Status,
		Note:       rec.Note,
		OccurredAt: rec.ReviewedAt,
	})
	return user, nil
}

// Me returns the caller's own account, including applied profile changes.
func (s *AccountService) Me(ctx context.Context, actor *models.JWTClaims) (*models.User, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	return s.load(ctx, actor.UserID)
}

func (s *AccountService) assignEmployeeID(ctx context.Context, user *models.User) error {
	existing, err := s.repo.EmployeeIDs(ctx, user.Role)
	if err != nil {
		return err
	}
	employeeID := models.EmployeeIDFor(user.Profile, user.CreatedAt, existing)
	if err := s.repo.AssignEmployeeID(ctx, user.ID, employeeID); err != nil {
		return err
	}
	user.EmployeeID = &employeeID
	return nil
}

func (s *AccountService) load(ctx context.Context, id string) (*models.User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "account not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load account")
	}
	return user, nil
}
