package handler

import (
	"errors"
	"net/http"

	"storefront/internal/config"
	"storefront/internal/logger"
	"storefront/internal/middleware"
	"storefront/internal/repository"
	auth "storefront/internal/usecase/auth_usecase"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

type AuthHandler struct {
	loginUC  *auth.LoginUsecase
	logoutUC *auth.LogoutUsecase
	log      *logger.Logger
}

// DI
func NewAuthHandler(loginUC *auth.LoginUsecase, logoutUC *auth.LogoutUsecase, log *logger.Logger) *AuthHandler {
	return &AuthHandler{loginUC: loginUC, logoutUC: logoutUC, log: log}
}

// /auth/login のリクエストボディ
type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *AuthHandler) RegisterRoutes(e *echo.Echo, cfg config.Config, userRepo repository.UserRepository) {
	e.POST("/auth/login", h.login)
	e.POST("/auth/logout", h.logout, adminGuards(cfg, userRepo)...)
}

func (h *AuthHandler) login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	out, err := h.loginUC.Execute(c.Request().Context(), auth.LoginInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrInvalidCredentials):
			return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "invalid credentials"})
		case errors.Is(err, auth.ErrUserInactive):
			return c.JSON(http.StatusForbidden, ErrorResponse{Error: "forbidden"})
		case errors.Is(err, repository.ErrNotConfigured):
			return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "store is not configured"})
		default:
			h.log.Error("login failed", zap.Error(err))
			return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
		}
	}

	return c.JSON(http.StatusOK, out)
}

// token_versionを上げて発行済みトークンを無効化
func (h *AuthHandler) logout(c echo.Context) error {
	userID, ok := middleware.UserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	if err := h.logoutUC.Execute(c.Request().Context(), userID); err != nil {
		h.log.Error("logout failed", zap.Error(err), zap.Int64("user_id", userID))
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
	}
	return c.JSON(http.StatusOK, SuccessResponse{Message: "logged out"})
}
