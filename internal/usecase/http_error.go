package usecase

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"
)

type HTTPError struct {
	Status  int
	Message string
	// 対処方法など（無ければ空）
	Details string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("%d: %s", e.Status, e.Message)
}

func NewHTTPError(status int, message string) error {
	return &HTTPError{
		Status:  status,
		Message: message,
	}
}

func NewHTTPErrorWithDetails(status int, message string, details string) error {
	return &HTTPError{
		Status:  status,
		Message: message,
		Details: details,
	}
}

func AsHTTPError(err error) (*HTTPError, bool) {
	var he *HTTPError
	ok := errors.As(err, &he)
	return he, ok
}

const (
	MsgStoreNotConfigured = "store is not configured"
	MsgStoreUnavailable   = "product store is unreachable"

	HintStoreNotConfigured = "Set DATABASE_URL (or POSTGRES_HOST, POSTGRES_USER, POSTGRES_PASSWORD and POSTGRES_DB) and restart the service."
	HintStoreUnavailable   = "The database did not respond. It is probably paused or restarting: resume it from the database provider's dashboard and try again."
)

// storeErrorはリポジトリのエラーをHTTPErrorにする。
// 未設定=500 / 到達不能=503 / 未検出=404 / その他=500
func storeError(err error) error {
	switch {
	case errors.Is(err, repo.ErrNotConfigured):
		return NewHTTPErrorWithDetails(http.StatusInternalServerError, MsgStoreNotConfigured, HintStoreNotConfigured)
	case repo.IsUnavailable(err):
		return NewHTTPErrorWithDetails(http.StatusServiceUnavailable, MsgStoreUnavailable, HintStoreUnavailable)
	case errors.Is(err, repo.ErrNotFound):
		return NewHTTPError(http.StatusNotFound, "not found")
	case errors.Is(err, repo.ErrInvalidQuery):
		return NewHTTPError(http.StatusBadRequest, "invalid query")
	default:
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}
}

// 疎通確認（limit 1 の読み取り）
func probeStore(ctx context.Context, products repo.ProductRepository) error {
	_, err := products.Select(ctx, repo.SelectQuery{
		Columns: []string{model.ProductColumnID},
		Limit:   1,
	})
	return err
}
