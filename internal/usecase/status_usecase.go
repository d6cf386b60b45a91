package usecase

import (
	"context"
	"errors"
	"net/http"

	"storefront/internal/logger"
	repo "storefront/internal/repository"

	"go.uber.org/zap"
)

// ドライバのエラー文言は外に出さない（ログにだけ残す）
const MsgStoreQueryFailed = "store query failed"

type StatusOutput struct {
	Status  string `json:"status"`
	Details string `json:"details,omitempty"`
}

// ストアの状態確認（GET /api/status）
type StatusUsecase struct {
	productRepo repo.ProductRepository
	log         *logger.Logger
}

func NewStatusUsecase(productRepo repo.ProductRepository, log *logger.Logger) *StatusUsecase {
	return &StatusUsecase{productRepo: productRepo, log: log}
}

// 正常なら200 "ok"。失敗時もボディは返すのでstatusコードと一緒に返す。
func (u *StatusUsecase) Check(ctx context.Context) (int, StatusOutput) {
	err := probeStore(ctx, u.productRepo)
	if err == nil {
		return http.StatusOK, StatusOutput{Status: "ok"}
	}

	switch {
	case errors.Is(err, repo.ErrNotConfigured):
		u.log.Warn("store status check failed", zap.Error(err))
		return http.StatusInternalServerError, StatusOutput{Status: "error: " + MsgStoreNotConfigured, Details: HintStoreNotConfigured}
	case repo.IsUnavailable(err):
		u.log.Warn("store status check failed", zap.Error(err))
		return http.StatusServiceUnavailable, StatusOutput{Status: "error: " + MsgStoreUnavailable, Details: HintStoreUnavailable}
	default:
		u.log.Error("store status check failed", zap.Error(err))
		return http.StatusInternalServerError, StatusOutput{Status: "error: " + MsgStoreQueryFailed}
	}
}
