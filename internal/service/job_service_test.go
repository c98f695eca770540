package service

import (
	"context"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/jobdrop-api/internal/dto"
	"github.com/noah-isme/jobdrop-api/internal/models"
	appErrors "github.com/noah-isme/jobdrop-api/pkg/errors"
)

type jobFixture struct {
	svc      *JobService
	repo     *jobRepoStub
	events   *emitterStub
	holidays *holidayStub
}

func newJobFixture(now time.Time) jobFixture {
	users := newUserStub(superAdmin("admin1"), superAdmin("admin2"), marketer("mkt1"), marketer("mkt2"))
	repo := newJobRepoStub()
	holidays := &holidayStub{days: map[string]bool{}}
	events := &emitterStub{}
	engine := NewApprovalEngine(users, nil, WithApprovalStore(models.EntityJob, repo), WithApprovalClock(fixedClock(now)))
	svc := NewJobService(repo, holidays, engine, validator.New(), zap.NewNop(), WithJobEvents(events), WithJobClock(fixedClock(now)))
	return jobFixture{svc: svc, repo: repo, events: events, holidays: holidays}
}

func validJobRequest(now time.Time, amount *float64) dto.SubmitJobRequest {
	expected := now.Add(48 * time.Hour)
	strict := expected.Add(24 * time.Hour)
	return dto.SubmitJobRequest{
		CustomerJobID:    "CUST-100",
		Instruction:      "proofread the attached brochure",
		Attachments:      []string{"attachments/brochure.pdf"},
		Amount:           amount,
		ExpectedDeadline: &expected,
		StrictDeadline:   &strict,
	}
}

func amountOf(v float64) *float64 { return &v }

func TestJobServiceSubmitAndDecideScenario(t *testing.T) {
	now := time.Date(2024, 4, 1, 9, 30, 0, 123456000, time.UTC)
	fx := newJobFixture(now)
	ctx := context.Background()

	job, err := fx.svc.Submit(ctx, validJobRequest(now, amountOf(500)), claims("mkt1", models.RoleMarketing))
	require.NoError(t, err)
	assert.Equal(t, models.ApprovalPending, job.Status)
	assert.Equal(t, "JN-20240401093000123456", job.SystemID)
	assert.Equal(t, 500.0, job.Amount)

	decided, err := fx.svc.Decide(ctx, job.ID, dto.DecisionRequest{Decision: "APPROVED"}, claims("admin1", models.RoleSuperAdmin))
	require.NoError(t, err)
	assert.Equal(t, models.ApprovalApproved, decided.Status)
	require.NotNil(t, decided.ReviewedBy)
	assert.Equal(t, "admin1", *decided.ReviewedBy)

	_, err = fx.svc.Decide(ctx, job.ID, dto.DecisionRequest{Decision: "REJECTED"}, claims("admin2", models.RoleSuperAdmin))
	assert.Equal(t, appErrors.ErrInvalidTransition.Code, appErrors.FromError(err).Code)

	stored, _ := fx.repo.GetByID(ctx, job.ID)
	assert.Equal(t, models.ApprovalApproved, stored.Status)
	assert.Equal(t, []models.ApprovalEventType{models.EventSubmitted, models.EventDecided}, fx.events.types())
}

func TestJobServiceSubmitRequiresAmount(t *testing.T) {
	now := time.Now().UTC()
	fx := newJobFixture(now)

	_, err := fx.svc.Submit(context.Background(), validJobRequest(now, nil), claims("mkt1", models.RoleMarketing))
	assert.ErrorIs(t, err, appErrors.ErrValidation)

	_, err = fx.svc.Submit(context.Background(), validJobRequest(now, amountOf(0)), claims("mkt1", models.RoleMarketing))
	assert.ErrorIs(t, err, appErrors.ErrValidation)
	assert.Empty(t, fx.repo.jobs)
}

func TestJobServiceSubmitDeadlineRules(t *testing.T) {
	now := time.Date(2024, 4, 1, 9, 0, 0, 0, time.UTC)
	fx := newJobFixture(now)
	ctx := context.Background()

	req := validJobRequest(now, amountOf(100))
	tooClose := req.ExpectedDeadline.Add(23 * time.Hour)
	req.StrictDeadline = &tooClose
	_, err := fx.svc.Submit(ctx, req, claims("mkt1", models.RoleMarketing))
	assert.ErrorIs(t, err, appErrors.ErrValidation)

	req = validJobRequest(now, amountOf(100))
	fx.holidays.days[req.StrictDeadline.Format("2006-01-02")] = true
	_, err = fx.svc.Submit(ctx, req, claims("mkt1", models.RoleMarketing))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "holiday")
}

func TestJobServiceSubmitDuplicateCustomerID(t *testing.T) {
	now := time.Now().UTC()
	fx := newJobFixture(now)
	ctx := context.Background()

	_, err := fx.svc.Submit(ctx, validJobRequest(now, amountOf(10)), claims("mkt1", models.RoleMarketing))
	require.NoError(t, err)
	_, err = fx.svc.Submit(ctx, validJobRequest(now, amountOf(10)), claims("mkt2", models.RoleMarketing))
	assert.ErrorIs(t, err, appErrors.ErrConflict)
}

func TestJobServiceSubmitOnlyMarketing(t *testing.T) {
	now := time.Now().UTC()
	fx := newJobFixture(now)
	_, err := fx.svc.Submit(context.Background(), validJobRequest(now, amountOf(10)), claims("admin1", models.RoleSuperAdmin))
	assert.ErrorIs(t, err, appErrors.ErrForbidden)
}

func TestJobServiceDecideByMarketingForbidden(t *testing.T) {
	now := time.Now().UTC()
	fx := newJobFixture(now)
	ctx := context.Background()
	job, err := fx.svc.Submit(ctx, validJobRequest(now, amountOf(10)), claims("mkt1", models.RoleMarketing))
	require.NoError(t, err)

	_, err = fx.svc.Decide(ctx, job.ID, dto.DecisionRequest{Decision: "approve"}, claims("mkt1", models.RoleMarketing))
	assert.ErrorIs(t, err, appErrors.ErrForbidden)
	stored, _ := fx.repo.GetByID(ctx, job.ID)
	assert.Equal(t, models.ApprovalPending, stored.Status)
}

func TestJobServiceDecideRejectsUnknownDecision(t *testing.T) {
	now := time.Now().UTC()
	fx := newJobFixture(now)
	ctx := context.Background()
	job, err := fx.svc.Submit(ctx, validJobRequest(now, amountOf(10)), claims("mkt1", models.RoleMarketing))
	require.NoError(t, err)

	_, err = fx.svc.Decide(ctx, job.ID, dto.DecisionRequest{Decision: "PENDING"}, claims("admin1", models.RoleSuperAdmin))
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}

func TestJobServiceVisibility(t *testing.T) {
	now := time.Now().UTC()
	fx := newJobFixture(now)
	ctx := context.Background()
	job, err := fx.svc.Submit(ctx, validJobRequest(now, amountOf(10)), claims("mkt1", models.RoleMarketing))
	require.NoError(t, err)

	_, err = fx.svc.Get(ctx, job.ID, claims("mkt2", models.RoleMarketing))
	assert.ErrorIs(t, err, appErrors.ErrForbidden)

	_, _, err = fx.svc.List(ctx, dto.JobQuery{IncludeDeleted: true}, claims("mkt2", models.RoleMarketing))
	require.NoError(t, err)
	assert.Equal(t, "mkt2", fx.repo.filter.CreatedBy)
	assert.False(t, fx.repo.filter.IncludeDeleted)

	_, _, err = fx.svc.List(ctx, dto.JobQuery{Status: "DONE"}, claims("admin1", models.RoleSuperAdmin))
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}

func TestJobServiceDeleteAndRestoreKeepDecision(t *testing.T) {
	now := time.Now().UTC()
	fx := newJobFixture(now)
	ctx := context.Background()
	admin := claims("admin1", models.RoleSuperAdmin)
	job, err := fx.svc.Submit(ctx, validJobRequest(now, amountOf(10)), claims("mkt1", models.RoleMarketing))
	require.NoError(t, err)
	_, err = fx.svc.Decide(ctx, job.ID, dto.DecisionRequest{Decision: "REJECTED", Note: "missing brief"}, admin)
	require.NoError(t, err)

	require.NoError(t, fx.svc.Delete(ctx, job.ID, dto.DeleteJobRequest{Note: "duplicate"}, admin))
	assert.ErrorIs(t, fx.svc.Delete(ctx, job.ID, dto.DeleteJobRequest{}, admin), appErrors.ErrConflict)

	_, err = fx.svc.Get(ctx, job.ID, claims("mkt1", models.RoleMarketing))
	assert.ErrorIs(t, err, appErrors.ErrNotFound)

	restored, err := fx.svc.Restore(ctx, job.ID, admin)
	require.NoError(t, err)
	assert.Equal(t, models.ApprovalRejected, restored.Status)
	require.NotNil(t, restored.ReviewNote)
	assert.Equal(t, "missing brief", *restored.ReviewNote)

	assert.ErrorIs(t, fx.svc.Delete(ctx, "missing", dto.DeleteJobRequest{}, admin), appErrors.ErrNotFound)
	assert.ErrorIs(t, fx.svc.Delete(ctx, job.ID, dto.DeleteJobRequest{}, claims("mkt1", models.RoleMarketing)), appErrors.ErrForbidden)
}
