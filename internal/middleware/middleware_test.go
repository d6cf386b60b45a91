package middleware_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"storefront/internal/config"
	"storefront/internal/domain/model"
	"storefront/internal/logger"
	"storefront/internal/middleware"
	"storefront/internal/repository"

	"github.com/golang-jwt/jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

// =====================
// レスポンス確認用
// =====================

type mwErrorResponse struct {
	Error string `json:"error"`
}

type mwOKResponse struct {
	UserID       int64  `json:"user_id"`
	Role         string `json:"role"`
	TokenVersion int    `json:"token_version"`
}

// =====================
// UserRepository モック
// =====================

type MockUserRepo struct {
	mock.Mock
}

func (m *MockUserRepo) Create(ctx context.Context, user *model.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepo) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	args := m.Called(ctx, email)
	u, _ := args.Get(0).(*model.User)
	return u, args.Error(1)
}

func (m *MockUserRepo) FindByID(ctx context.Context, id int64) (*model.User, error) {
	args := m.Called(ctx, id)
	u, _ := args.Get(0).(*model.User)
	return u, args.Error(1)
}

func (m *MockUserRepo) Update(ctx context.Context, user *model.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepo) IncrementTokenVersion(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

var _ repository.UserRepository = (*MockUserRepo)(nil)

// =====================
// helper
// =====================

func mustMakeJWT(t *testing.T, secret string, sub any, role string, tv int, signingMethod jwt.SigningMethod) string {
	t.Helper()

	claims := jwt.MapClaims{
		"sub":  sub,
		"role": role,
		"tv":   tv,
		"iat":  1,
		"exp":  9999999999,
	}

	s, err := jwt.NewWithClaims(signingMethod, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("SignedString failed: %v", err)
	}
	return s
}

func runRequest(t *testing.T, e *echo.Echo, method string, path string, authHeader string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, path, nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decodeMWError(t *testing.T, rec *httptest.ResponseRecorder) mwErrorResponse {
	t.Helper()
	var r mwErrorResponse
	_ = json.NewDecoder(rec.Body).Decode(&r)
	return r
}

func okHandler(c echo.Context) error {
	userID, _ := c.Get(middleware.CtxUserIDKey).(int64)
	role, _ := c.Get(middleware.CtxUserRoleKey).(string)
	tv, _ := c.Get(middleware.CtxTokenVersionKey).(int)

	return c.JSON(http.StatusOK, mwOKResponse{UserID: userID, Role: role, TokenVersion: tv})
}

func adminUser(id int64, tv int) *model.User {
	return &model.User{ID: id, Email: "owner@test.com", Role: model.RoleAdmin, TokenVersion: tv, IsActive: true}
}

// =====================
// AuthJWT
// =====================

func TestAuthJWT_Unauthorized(t *testing.T) {
	cfg := config.Config{JWTSecret: "test-secret"}

	cases := []struct {
		name   string
		header string
	}{
		{name: "no header", header: ""},
		{name: "bad scheme", header: "Token abc.def.ghi"},
		{name: "empty token", header: "Bearer "},
		{name: "bad signature", header: "Bearer " + mustMakeJWT(t, "wrong-secret", "1", "ADMIN", 0, jwt.SigningMethodHS256)},
		{name: "wrong alg", header: "Bearer " + mustMakeJWT(t, cfg.JWTSecret, "1", "ADMIN", 0, jwt.SigningMethodHS512)},
		{name: "bad sub", header: "Bearer " + mustMakeJWT(t, cfg.JWTSecret, "abc", "ADMIN", 0, jwt.SigningMethodHS256)},
		{name: "no role", header: "Bearer " + mustMakeJWT(t, cfg.JWTSecret, "1", "", 0, jwt.SigningMethodHS256)},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			e := echo.New()
			e.GET("/protected", okHandler, middleware.AuthJWT(cfg))

			rec := runRequest(t, e, http.MethodGet, "/protected", tc.header)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Equal(t, "unauthorized", decodeMWError(t, rec).Error)
		})
	}
}

// subは文字列でも数値でも
func TestAuthJWT_Success_SetsContext(t *testing.T) {
	cfg := config.Config{JWTSecret: "test-secret"}

	for _, sub := range []any{"123", 123} {
		e := echo.New()
		e.GET("/protected", okHandler, middleware.AuthJWT(cfg))

		raw := mustMakeJWT(t, cfg.JWTSecret, sub, "ADMIN", 7, jwt.SigningMethodHS256)
		rec := runRequest(t, e, http.MethodGet, "/protected", "Bearer "+raw)
		assert.Equal(t, http.StatusOK, rec.Code)

		var body mwOKResponse
		_ = json.NewDecoder(rec.Body).Decode(&body)
		assert.Equal(t, int64(123), body.UserID)
		assert.Equal(t, "ADMIN", body.Role)
		assert.Equal(t, 7, body.TokenVersion)
	}
}

// =====================
// TokenVersionGuard
// =====================

func TestTokenVersionGuard_Unauthorized_MissingContext(t *testing.T) {
	e := echo.New()
	userRepo := new(MockUserRepo)

	e.GET("/protected", okHandler, middleware.TokenVersionGuard(userRepo))

	rec := runRequest(t, e, http.MethodGet, "/protected", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	userRepo.AssertNotCalled(t, "FindByID", mock.Anything, mock.Anything)
}

func TestTokenVersionGuard(t *testing.T) {
	cfg := config.Config{JWTSecret: "test-secret"}

	cases := []struct {
		name     string
		user     *model.User
		err      error
		wantCode int
	}{
		{name: "match", user: adminUser(1, 5), wantCode: http.StatusOK},
		{name: "mismatch", user: adminUser(1, 6), wantCode: http.StatusUnauthorized},
		{name: "inactive", user: &model.User{ID: 1, Role: model.RoleAdmin, TokenVersion: 5, IsActive: false}, wantCode: http.StatusUnauthorized},
		{name: "not found", err: repository.ErrUserNotFound, wantCode: http.StatusUnauthorized},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			e := echo.New()
			userRepo := new(MockUserRepo)
			userRepo.On("FindByID", mock.Anything, int64(1)).Return(tc.user, tc.err)

			e.GET("/protected", okHandler, middleware.AuthJWT(cfg), middleware.TokenVersionGuard(userRepo))

			raw := mustMakeJWT(t, cfg.JWTSecret, "1", "ADMIN", 5, jwt.SigningMethodHS256)
			rec := runRequest(t, e, http.MethodGet, "/protected", "Bearer "+raw)
			assert.Equal(t, tc.wantCode, rec.Code)
			userRepo.AssertExpectations(t)
		})
	}
}

// =====================
// AdminRoleGuard
// =====================

func TestAdminRoleGuard(t *testing.T) {
	cfg := config.Config{JWTSecret: "test-secret"}

	cases := []struct {
		role     string
		wantCode int
	}{
		{role: "ADMIN", wantCode: http.StatusOK},
		{role: "USER", wantCode: http.StatusForbidden},
	}

	for _, tc := range cases {
		t.Run(tc.role, func(t *testing.T) {
			e := echo.New()
			e.GET("/protected", okHandler, middleware.AuthJWT(cfg), middleware.AdminRoleGuard())

			raw := mustMakeJWT(t, cfg.JWTSecret, "1", tc.role, 0, jwt.SigningMethodHS256)
			rec := runRequest(t, e, http.MethodGet, "/protected", "Bearer "+raw)
			assert.Equal(t, tc.wantCode, rec.Code)
		})
	}
}

func TestAdminRoleGuard_NoRole(t *testing.T) {
	e := echo.New()
	e.GET("/protected", okHandler, middleware.AdminRoleGuard())

	rec := runRequest(t, e, http.MethodGet, "/protected", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

// =====================
// RequestLogger
// =====================

func TestRequestLogger_LevelByStatus(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	e := echo.New()
	e.Use(middleware.RequestLogger(logger.Wrap(zap.New(core))))
	e.GET("/ok", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/boom", func(c echo.Context) error { return echo.NewHTTPError(http.StatusInternalServerError, "boom") })

	runRequest(t, e, http.MethodGet, "/ok", "")
	runRequest(t, e, http.MethodGet, "/boom", "")
	runRequest(t, e, http.MethodGet, "/missing", "")

	entries := logs.All()
	if assert.Len(t, entries, 3) {
		assert.Equal(t, zap.InfoLevel, entries[0].Level)
		assert.Equal(t, int64(http.StatusOK), entries[0].ContextMap()["status"])
		assert.Equal(t, zap.ErrorLevel, entries[1].Level)
		assert.Equal(t, zap.WarnLevel, entries[2].Level)
	}
}

// =====================
// EnsureReady
// =====================

type MockReadiness struct{ mock.Mock }

func (m *MockReadiness) Ensure(ctx context.Context) bool {
	return m.Called(ctx).Bool(0)
}

// 起動時処理が未完了でもリクエストは通す
func TestEnsureReady_RunsBeforeHandler(t *testing.T) {
	for _, ready := range []bool{true, false} {
		r := new(MockReadiness)
		r.On("Ensure", mock.Anything).Return(ready).Once()

		e := echo.New()
		e.GET("/api/products", okHandler, middleware.EnsureReady(r))

		rec := runRequest(t, e, http.MethodGet, "/api/products", "")
		assert.Equal(t, http.StatusOK, rec.Code)
		r.AssertExpectations(t)
	}
}
