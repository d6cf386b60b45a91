package handler

import (
	"net/http"

	"storefront/internal/config"
	"storefront/internal/middleware"
	"storefront/internal/repository"
	"storefront/internal/usecase"

	"github.com/labstack/echo/v4"
)

// GET /api/import（管理者のみ）
type ImportHandler struct {
	uc *usecase.ImportUsecase
}

// DI
func NewImportHandler(uc *usecase.ImportUsecase) *ImportHandler {
	return &ImportHandler{uc: uc}
}

func (h *ImportHandler) RegisterRoutes(e *echo.Echo, cfg config.Config, userRepo repository.UserRepository) {
	mws := append([]echo.MiddlewareFunc{requireStore(cfg)}, adminGuards(cfg, userRepo)...)
	e.GET("/api/import", h.importProducts, mws...)
}

func (h *ImportHandler) importProducts(c echo.Context) error {
	adminID, ok := middleware.UserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	out, err := h.uc.ImportProducts(c.Request().Context(), adminID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}
