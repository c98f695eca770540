package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/jobdrop-api/internal/models"
	appErrors "github.com/noah-isme/jobdrop-api/pkg/errors"
	"github.com/noah-isme/jobdrop-api/pkg/middleware/requestid"
	"github.com/noah-isme/jobdrop-api/pkg/tracing"
)

// ApprovalStore is implemented by every repository holding a reviewable entity.
// Decide must be a single conditional write keyed on the pending state and
// return sql.ErrNoRows when no row was changed.
type ApprovalStore interface {
	Decide(ctx context.Context, rec models.ReviewRecord) error
	StatusOf(ctx context.Context, id string) (models.ApprovalStatus, error)
}

// RoleLookup resolves the reviewer behind a decision.
type RoleLookup interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

// ApprovalEngine owns the PENDING -> APPROVED|REJECTED state machine for every
// entity kind. It checks the reviewer capability itself and relies on the
// store's conditional update for single-writer semantics.
type ApprovalEngine struct {
	stores  map[models.EntityKind]ApprovalStore
	roles   RoleLookup
	clock   func() time.Time
	metrics *MetricsService
	logger  *zap.Logger
}

// ApprovalEngineOption configures the engine.
type ApprovalEngineOption func(*ApprovalEngine)

// WithApprovalStore registers the store for an entity kind.
func WithApprovalStore(kind models.EntityKind, store ApprovalStore) ApprovalEngineOption {
	return func(e *ApprovalEngine) {
		e.stores[kind] = store
	}
}

// WithApprovalClock overrides the decision timestamp source.
func WithApprovalClock(clock func() time.Time) ApprovalEngineOption {
	return func(e *ApprovalEngine) {
		if clock != nil {
			e.clock = clock
		}
	}
}

// WithApprovalMetrics records decision outcomes.
func WithApprovalMetrics(metrics *MetricsService) ApprovalEngineOption {
	return func(e *ApprovalEngine) {
		e.metrics = metrics
	}
}

// NewApprovalEngine constructs the engine.
func NewApprovalEngine(roles RoleLookup, logger *zap.Logger, opts ...ApprovalEngineOption) *ApprovalEngine {
	if logger == nil {
		logger = zap.NewNop()
	}
	e := &ApprovalEngine{
		stores: make(map[models.EntityKind]ApprovalStore),
		roles:  roles,
		clock:  time.Now,
		logger: logger,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}
	return e
}

// Decide moves a pending entity to the decided state. Checks run in order:
// the reviewer's role, the decision value, then the conditional write. A
// reviewer without the approval capability is rejected before anything else
// is looked at, whatever the decision or the entity's state.
func (e *ApprovalEngine) Decide(ctx context.Context, kind models.EntityKind, entityID string, decision models.Decision, reviewerID string, note *string) (rec *models.ReviewRecord, err error) {
	ctx, span := tracing.Start(ctx, "approval.decide", map[string]string{
		"entity":    string(kind),
		"entity_id": entityID,
		"decision":  string(decision),
	})
	defer func() {
		tracing.End(span, err)
		e.metrics.RecordDecision(string(kind), decisionOutcome(rec, err))
	}()

	if err := e.authorize(ctx, reviewerID); err != nil {
		return nil, err
	}
	status := decision.Status()
	if !status.Terminal() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "decision must be APPROVED or REJECTED")
	}
	store, ok := e.stores[kind]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrInternal, fmt.Sprintf("no approval store for %s", kind))
	}

	record := models.ReviewRecord{
		EntityID:   entityID,
		Status:     status,
		ReviewerID: reviewerID,
		ReviewedAt: e.clock().UTC(),
		Note:       note,
	}
	if err := store.Decide(ctx, record); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, e.explainNoop(ctx, store, kind, entityID)
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, fmt.Sprintf("failed to decide %s", kind))
	}

	e.logger.Info("approval decided",
		zap.String("entity", string(kind)),
		zap.String("entity_id", entityID),
		zap.String("status", string(status)),
		zap.String("reviewer_id", reviewerID),
		zap.String("request_id", requestid.FromContext(ctx)),
	)
	return &record, nil
}

func (e *ApprovalEngine) authorize(ctx context.Context, reviewerID string) error {
	if reviewerID == "" || e.roles == nil {
		return appErrors.Clone(appErrors.ErrForbidden, "reviewer is required")
	}
	reviewer, err := e.roles.FindByID(ctx, reviewerID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrForbidden, "reviewer not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load reviewer")
	}
	if !reviewer.Role.CanReview() {
		return appErrors.Clone(appErrors.ErrForbidden, "only super admins can decide approvals")
	}
	return nil
}

// explainNoop tells a missing entity apart from one that already left PENDING.
func (e *ApprovalEngine) explainNoop(ctx context.Context, store ApprovalStore, kind models.EntityKind, entityID string) error {
	current, err := store.StatusOf(ctx, entityID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("%s not found", kind))
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, fmt.Sprintf("failed to load %s", kind))
	}
	return appErrors.Clone(appErrors.ErrInvalidTransition, fmt.Sprintf("%s is already %s", kind, current))
}

func decisionOutcome(rec *models.ReviewRecord, err error) string {
	if err != nil {
		return appErrors.FromError(err).Code
	}
	if rec == nil {
		return "unknown"
	}
	return string(rec.Status)
}
