package repository

import (
	"context"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"
)

// DB接続情報が無いまま起動した場合の実装。全てErrNotConfiguredを返す。
type UnconfiguredProductRepository struct{}

func NewUnconfiguredProductRepository() *UnconfiguredProductRepository {
	return &UnconfiguredProductRepository{}
}

var _ repo.ProductRepository = (*UnconfiguredProductRepository)(nil)

func (UnconfiguredProductRepository) Select(context.Context, repo.SelectQuery) ([]model.Product, error) {
	return nil, repo.ErrNotConfigured
}

func (UnconfiguredProductRepository) Insert(context.Context, []model.Product) ([]model.Product, error) {
	return nil, repo.ErrNotConfigured
}

func (UnconfiguredProductRepository) Update(context.Context, []repo.Filter, repo.ProductChanges) (int64, error) {
	return 0, repo.ErrNotConfigured
}

func (UnconfiguredProductRepository) Delete(context.Context, []repo.Filter) (int64, error) {
	return 0, repo.ErrNotConfigured
}

// DB未設定時の監査ログ。書き込みも一覧もErrNotConfigured。
type UnconfiguredAuditLogRepository struct{}

var _ repo.AuditLogRepository = UnconfiguredAuditLogRepository{}

func (UnconfiguredAuditLogRepository) Create(context.Context, model.AuditLog) error {
	return repo.ErrNotConfigured
}

func (UnconfiguredAuditLogRepository) List(context.Context, repo.AuditLogFilter) ([]model.AuditLog, error) {
	return nil, repo.ErrNotConfigured
}

// DB未設定時のユーザー。ログインできない。
type UnconfiguredUserRepository struct{}

var _ repo.UserRepository = UnconfiguredUserRepository{}

func (UnconfiguredUserRepository) Create(context.Context, *model.User) error {
	return repo.ErrNotConfigured
}

func (UnconfiguredUserRepository) FindByID(context.Context, int64) (*model.User, error) {
	return nil, repo.ErrNotConfigured
}

func (UnconfiguredUserRepository) FindByEmail(context.Context, string) (*model.User, error) {
	return nil, repo.ErrNotConfigured
}

func (UnconfiguredUserRepository) Update(context.Context, *model.User) error {
	return repo.ErrNotConfigured
}

func (UnconfiguredUserRepository) IncrementTokenVersion(context.Context, int64) error {
	return repo.ErrNotConfigured
}
