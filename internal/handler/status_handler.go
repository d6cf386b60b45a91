package handler

import (
	"storefront/internal/usecase"

	"github.com/labstack/echo/v4"
)

type StatusHandler struct {
	uc *usecase.StatusUsecase
}

// DI
func NewStatusHandler(uc *usecase.StatusUsecase) *StatusHandler {
	return &StatusHandler{uc: uc}
}

func (h *StatusHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/api/status", h.status)
}

func (h *StatusHandler) status(c echo.Context) error {
	code, out := h.uc.Check(c.Request().Context())
	return c.JSON(code, out)
}
