package handler

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/jobdrop-api/internal/dto"
	"github.com/noah-isme/jobdrop-api/internal/models"
	appErrors "github.com/noah-isme/jobdrop-api/pkg/errors"
)

type authServiceMock struct {
	loginReq models.LoginRequest
}

func (m *authServiceMock) Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error) {
	m.loginReq = req
	if req.Email == "pending@example.com" {
		return nil, appErrors.Clone(appErrors.ErrAccountNotApproved, "account is awaiting approval")
	}
	return &models.LoginResponse{AccessToken: "access", RefreshToken: "refresh"}, nil
}

func (m *authServiceMock) RefreshToken(ctx context.Context, req models.RefreshTokenRequest) (*models.RefreshTokenResponse, error) {
	return &models.RefreshTokenResponse{AccessToken: "access2"}, nil
}

func (m *authServiceMock) Logout(ctx context.Context, refreshToken string, userID string, meta models.LoginRequest) error {
	return nil
}

type registrarMock struct{}

func (registrarMock) Register(ctx context.Context, req dto.RegisterRequest) (*models.User, error) {
	return &models.User{ID: "u-new", Email: req.Email, PasswordHash: "secret-hash", Role: models.RoleMarketing, ApprovalStatus: models.AccountPendingApproval}, nil
}

func authRouter(svc authService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewAuthHandler(svc, registrarMock{})
	r := gin.New()
	r.POST("/auth/register", h.Register)
	r.POST("/auth/login", h.Login)
	r.POST("/auth/logout", h.Logout)
	return r
}

func postJSON(r *gin.Engine, path, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPost, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "handler-test")
	r.ServeHTTP(w, req)
	return w
}

func TestAuthHandlerRegisterHidesPassword(t *testing.T) {
	r := authRouter(&authServiceMock{})
	w := postJSON(r, "/auth/register", `{"email":"dana@example.com","password":"s3cret-pass","first_name":"Dana","last_name":"Reyes"}`)

	require.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), `"approval_status":"PENDING_APPROVAL"`)
	assert.NotContains(t, w.Body.String(), "secret-hash")
}

func TestAuthHandlerLogin(t *testing.T) {
	mockSvc := &authServiceMock{}
	r := authRouter(mockSvc)

	w := postJSON(r, "/auth/login", `{"email":"ann@example.com","password":"password"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "handler-test", mockSvc.loginReq.UserAgent)

	w = postJSON(r, "/auth/login", `{"email":"pending@example.com","password":"password"}`)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "ACCOUNT_NOT_APPROVED")
}

func TestAuthHandlerLogoutRequiresClaims(t *testing.T) {
	r := authRouter(&authServiceMock{})
	w := postJSON(r, "/auth/logout", `{"refresh_token":"refresh"}`)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
