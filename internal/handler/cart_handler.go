package handler

import (
	"net/http"
	"time"

	"storefront/internal/usecase"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// 訪問者ごとのカートを識別するcookie
const CartSessionCookie = "cart_session"

type AddCartRequest struct {
	ProductID int64 `json:"product_id"`
}

// /api/cart のHTTP（ログイン不要、cookieで識別）
type CartHandler struct {
	uc           *usecase.CartUsecase
	ttl          time.Duration
	cookieSecure bool
}

// DI
func NewCartHandler(uc *usecase.CartUsecase, ttl time.Duration, cookieSecure bool) *CartHandler {
	return &CartHandler{uc: uc, ttl: ttl, cookieSecure: cookieSecure}
}

func (h *CartHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/api/cart", h.getCart)
	e.POST("/api/cart", h.addToCart)
	e.DELETE("/api/cart", h.clearCart)
}

func (h *CartHandler) getCart(c echo.Context) error {
	out, err := h.uc.GetCart(c.Request().Context(), h.session(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *CartHandler) addToCart(c echo.Context) error {
	var req AddCartRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	out, err := h.uc.AddToCart(c.Request().Context(), h.session(c), req.ProductID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *CartHandler) clearCart(c echo.Context) error {
	out, err := h.uc.ClearCart(c.Request().Context(), h.session(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

// cookieのセッションIDを返す。無い・壊れている時は新しく発行してcookieに入れる。
// 書き込むたびに有効期限を延ばす。
func (h *CartHandler) session(c echo.Context) string {
	id := ""
	if ck, err := c.Cookie(CartSessionCookie); err == nil {
		if _, perr := uuid.Parse(ck.Value); perr == nil {
			id = ck.Value
		}
	}
	if id == "" {
		id = uuid.NewString()
	}

	c.SetCookie(&http.Cookie{
		Name:     CartSessionCookie,
		Value:    id,
		Path:     "/",
		MaxAge:   int(h.ttl.Seconds()),
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
	return id
}
