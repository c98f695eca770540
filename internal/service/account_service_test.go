package service

import (
	"context"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/jobdrop-api/internal/dto"
	"github.com/noah-isme/jobdrop-api/internal/models"
	appErrors "github.com/noah-isme/jobdrop-api/pkg/errors"
)

func newAccountFixture(now time.Time) (*AccountService, *userStub, *emitterStub) {
	users := newUserStub(superAdmin("admin1"), marketer("mkt1"))
	events := &emitterStub{}
	engine := NewApprovalEngine(users, nil, WithApprovalStore(models.EntityAccount, users), WithApprovalClock(fixedClock(now)))
	svc := NewAccountService(users, engine, validator.New(), zap.NewNop(), WithAccountEvents(events), WithAccountClock(fixedClock(now)))
	return svc, users, events
}

func registration(email string) dto.RegisterRequest {
	return dto.RegisterRequest{Email: email, Password: "s3cret-pass", FirstName: "Dana", LastName: "Reyes", Phone: "555-2222"}
}

func TestAccountServiceRegisterAndApprove(t *testing.T) {
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	svc, users, events := newAccountFixture(now)
	ctx := context.Background()

	user, err := svc.Register(ctx, registration("Dana@Example.com "))
	require.NoError(t, err)
	assert.Equal(t, "dana@example.com", user.Email)
	assert.Equal(t, models.RoleMarketing, user.Role)
	assert.Equal(t, models.AccountPendingApproval, user.ApprovalStatus)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("s3cret-pass")))

	approved, err := svc.Decide(ctx, user.ID, dto.DecisionRequest{Decision: "APPROVED"}, claims("admin1", models.RoleSuperAdmin))
	require.NoError(t, err)
	assert.Equal(t, models.AccountApproved, approved.ApprovalStatus)
	require.NotNil(t, approved.EmployeeID)
	assert.Equal(t, "D03R24001", *approved.EmployeeID)

	stored, _ := users.FindByID(ctx, user.ID)
	require.NotNil(t, stored.EmployeeID)
	assert.Equal(t, "D03R24001", *stored.EmployeeID)

	_, err = svc.Decide(ctx, user.ID, dto.DecisionRequest{Decision: "REJECTED"}, claims("admin1", models.RoleSuperAdmin))
	assert.ErrorIs(t, err, appErrors.ErrInvalidTransition)
	assert.Equal(t, []models.ApprovalEventType{models.EventSubmitted, models.EventDecided}, events.types())
}

func TestAccountServiceRejectLeavesNoEmployeeID(t *testing.T) {
	svc, _, _ := newAccountFixture(time.Now())
	ctx := context.Background()
	user, err := svc.Register(ctx, registration("dana@example.com"))
	require.NoError(t, err)

	rejected, err := svc.Decide(ctx, user.ID, dto.DecisionRequest{Decision: "reject", Note: "unknown applicant"}, claims("admin1", models.RoleSuperAdmin))
	require.NoError(t, err)
	assert.Equal(t, models.AccountRejected, rejected.ApprovalStatus)
	assert.Nil(t, rejected.EmployeeID)
}

func TestAccountServiceRegisterDuplicateEmail(t *testing.T) {
	svc, _, _ := newAccountFixture(time.Now())
	_, err := svc.Register(context.Background(), registration("mkt1@example.com"))
	assert.ErrorIs(t, err, appErrors.ErrConflict)

	_, err = svc.Register(context.Background(), dto.RegisterRequest{Email: "bad", Password: "short"})
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}

func TestAccountServiceMarketingCannotDecideOrList(t *testing.T) {
	svc, _, _ := newAccountFixture(time.Now())
	ctx := context.Background()
	user, err := svc.Register(ctx, registration("dana@example.com"))
	require.NoError(t, err)

	_, err = svc.Decide(ctx, user.ID, dto.DecisionRequest{Decision: "APPROVED"}, claims("mkt1", models.RoleMarketing))
	assert.ErrorIs(t, err, appErrors.ErrForbidden)

	_, _, err = svc.List(ctx, models.UserFilter{}, claims("mkt1", models.RoleMarketing))
	assert.ErrorIs(t, err, appErrors.ErrForbidden)

	pending := models.AccountPendingApproval
	items, page, err := svc.List(ctx, models.UserFilter{Status: &pending}, claims("admin1", models.RoleSuperAdmin))
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, user.ID, items[0].ID)
	assert.Equal(t, 1, page.TotalCount)
}
