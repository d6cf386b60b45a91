package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"storefront/internal/config"
	"storefront/internal/logger"
	"storefront/internal/middleware"
	"storefront/internal/repository"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

type Server struct {
	e    *echo.Echo
	addr string
	log  *logger.Logger
}

type Option func(e *echo.Echo)

// 起動時処理（マイグレーション等）をリクエスト時に再試行する
func WithReadiness(r middleware.Readiness) Option {
	return func(e *echo.Echo) {
		e.Use(middleware.EnsureReady(r))
	}
}

// New はecho本体を組み立てる（listenはStartで）
func New(cfg config.Config, log *logger.Logger, userRepo repository.UserRepository, h Handlers, opts ...Option) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(echomw.Recover())
	e.Use(echo.WrapMiddleware(func(next http.Handler) http.Handler {
		return otelhttp.NewHandler(next, "storefront",
			otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
				return r.Method + " " + r.URL.Path
			}),
		)
	}))
	e.Use(middleware.RequestLogger(log))
	for _, o := range opts {
		o(e)
	}

	RegisterRoutes(e, cfg, userRepo, h)

	return &Server{e: e, addr: cfg.Addr(), log: log}
}

// テストでServeHTTPを呼ぶ用
func (s *Server) Handler() http.Handler {
	return s.e
}

// Start はctxがキャンセルされるまで待ち受け、その後graceful shutdownする
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.log.Info("server started", zap.String("addr", s.addr))
		if err := s.e.Start(s.addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.log.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.e.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}
