package middleware

import (
	"context"

	"github.com/labstack/echo/v4"
)

// 起動時処理の残りを再試行できるもの（usecase.Bootstrap）
type Readiness interface {
	Ensure(ctx context.Context) bool
}

// リクエストのついでに起動時処理を再試行する。結果に関わらず先へ進める
// （DBが止まったままならハンドラー側で503になる）。
func EnsureReady(r Readiness) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			r.Ensure(c.Request().Context())
			return next(c)
		}
	}
}
