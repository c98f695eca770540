package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/jobdrop-api/internal/models"
	appErrors "github.com/noah-isme/jobdrop-api/pkg/errors"
)

const summaryScopeAll = "all"

type jobTotaler interface {
	Totals(ctx context.Context, createdBy string) (models.JobTotals, error)
}

type requestCounter interface {
	CountByStatus(ctx context.Context, requestedBy string) (models.StatusCounts, error)
}

type accountCounter interface {
	CountByStatus(ctx context.Context) (models.StatusCounts, error)
}

// SummaryService reports review queue counts. Results are cached per scope and
// dropped whenever an approval event is recorded.
type SummaryService struct {
	jobs     jobTotaler
	requests requestCounter
	accounts accountCounter
	cache    *CacheService
	ttl      time.Duration
	clock    func() time.Time
	logger   *zap.Logger
}

// NewSummaryService constructs the service.
func NewSummaryService(jobs jobTotaler, requests requestCounter, accounts accountCounter, cache *CacheService, ttl time.Duration, logger *zap.Logger) *SummaryService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SummaryService{jobs: jobs, requests: requests, accounts: accounts, cache: cache, ttl: ttl, clock: time.Now, logger: logger}
}

// Summary returns counts visible to the actor. Marketing users see only their
// own jobs and requests.
func (s *SummaryService) Summary(ctx context.Context, actor *models.JWTClaims) (*models.QueueSummary, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	scope, owner := summaryScopeAll, ""
	if actor.Role != models.RoleSuperAdmin {
		scope, owner = "user:"+actor.UserID, actor.UserID
	}

	key := summaryCacheKey(scope)
	var cached models.QueueSummary
	if hit, err := s.cache.Get(ctx, key, &cached); err == nil && hit {
		return &cached, nil
	}

	summary := &models.QueueSummary{Scope: scope, GeneratedAt: s.clock().UTC()}
	jobs, err := s.jobs.Totals(ctx, owner)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count jobs")
	}
	summary.Jobs = jobs
	requests, err := s.requests.CountByStatus(ctx, owner)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count profile requests")
	}
	summary.ProfileRequests = requests
	if owner == "" && s.accounts != nil {
		accounts, err := s.accounts.CountByStatus(ctx)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count accounts")
		}
		summary.Accounts = accounts
	}

	if err := s.cache.Set(ctx, key, summary, s.ttl); err != nil {
		s.logger.Debug("summary not cached", zap.String("scope", scope), zap.Error(err))
	}
	return summary, nil
}
