package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/jobdrop-api/internal/models"
)

var userRowColumns = []string{"id", "email", "password_hash", "role", "approval_status", "employee_id", "approval_decided_by", "approval_decided_at",
	"first_name", "last_name", "phone", "whatsapp_number", "last_qualification", "profile_picture", "last_login", "created_at", "updated_at"}

func newMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	sqlxdb := sqlx.NewDb(db, "sqlmock")
	return sqlxdb, mock, func() {
		db.Close()
	}
}

func TestFindByEmail(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows(userRowColumns).
		AddRow("1", "user@example.com", "hash", string(models.RoleMarketing), string(models.AccountApproved), "AM0424001", "admin-1", now,
			"Ann", "Miles", "555", "", "", "", now, now, now)
	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE LOWER(email) = LOWER($1) LIMIT 1")).
		WithArgs("user@example.com").
		WillReturnRows(rows)

	user, err := repo.FindByEmail(context.Background(), "user@example.com")
	require.NoError(t, err)
	assert.Equal(t, "user@example.com", user.Email)
	assert.Equal(t, "Ann", user.FirstName)
	require.NotNil(t, user.EmployeeID)
	assert.Equal(t, "AM0424001", *user.EmployeeID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateRefreshToken(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	mock.ExpectExec("INSERT INTO refresh_tokens").WillReturnResult(sqlmock.NewResult(1, 1))

	err := repo.CreateRefreshToken(context.Background(), &models.RefreshToken{ID: "1", UserID: "u1", Token: "token", ExpiresAt: time.Now(), CreatedAt: time.Now()})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListUsers(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	now := time.Now()
	status := models.AccountPendingApproval
	listRows := sqlmock.NewRows(userRowColumns).
		AddRow("1", "a@example.com", "hash", string(models.RoleMarketing), string(status), nil, nil, nil,
			"A", "B", "", "", "", "", nil, now, now)
	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE 1=1 AND approval_status = $1 ORDER BY created_at DESC LIMIT 20 OFFSET 0")).
		WithArgs(status).
		WillReturnRows(listRows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM users WHERE 1=1 AND approval_status = $1")).
		WithArgs(status).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	users, total, err := repo.List(context.Background(), models.UserFilter{Status: &status})
	require.NoError(t, err)
	assert.Len(t, users, 1)
	assert.Nil(t, users[0].EmployeeID)
	assert.Equal(t, 1, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepositoryDecideIsConditional(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUserRepository(db)
	now := time.Now()

	mock.ExpectExec(regexp.QuoteMeta("UPDATE users SET approval_status = $2")).
		WithArgs("u1", models.AccountApproved, "admin-1", now, models.AccountPendingApproval).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE users SET approval_status = $2")).
		WithArgs("u1", models.AccountRejected, "admin-2", now, models.AccountPendingApproval).
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.Decide(context.Background(), models.ReviewRecord{EntityID: "u1", Status: models.ApprovalApproved, ReviewerID: "admin-1", ReviewedAt: now}))
	err := repo.Decide(context.Background(), models.ReviewRecord{EntityID: "u1", Status: models.ApprovalRejected, ReviewerID: "admin-2", ReviewedAt: now})
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepositoryStatusOfMapsAccountStatus(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT approval_status FROM users WHERE id = $1")).
		WithArgs("u1").
		WillReturnRows(sqlmock.NewRows([]string{"approval_status"}).AddRow("PENDING_APPROVAL"))

	status, err := repo.StatusOf(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, models.ApprovalPending, status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignEmployeeIDOnlyOnce(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE users SET employee_id = $2, updated_at = $3 WHERE id = $1 AND employee_id IS NULL")).
		WithArgs("u1", "AM0424001", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.AssignEmployeeID(context.Background(), "u1", "AM0424001")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRevokeRefreshTokenOnlyOnce(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUserRepository(db)
	now := time.Now().UTC()

	query := regexp.QuoteMeta("UPDATE refresh_tokens SET revoked = TRUE, revoked_at = $2 WHERE id = $1 AND revoked = FALSE")
	mock.ExpectExec(query).WithArgs("rt-1", now).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(query).WithArgs("rt-1", now).WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.RevokeRefreshToken(context.Background(), "rt-1", now))
	err := repo.RevokeRefreshToken(context.Background(), "rt-1", now)
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}
