package usecase_test

import (
	"context"
	"testing"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"
	"storefront/internal/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// =====================
// Mocks
// =====================

type ProductRepoMock struct{ mock.Mock }

var _ repo.ProductRepository = (*ProductRepoMock)(nil)

func (m *ProductRepoMock) Select(ctx context.Context, q repo.SelectQuery) ([]model.Product, error) {
	args := m.Called(ctx, q)
	items, _ := args.Get(0).([]model.Product)
	return items, args.Error(1)
}

func (m *ProductRepoMock) Insert(ctx context.Context, products []model.Product) ([]model.Product, error) {
	args := m.Called(ctx, products)
	if fn, ok := args.Get(0).(func(context.Context, []model.Product) []model.Product); ok {
		return fn(ctx, products), args.Error(1)
	}
	items, _ := args.Get(0).([]model.Product)
	return items, args.Error(1)
}

func (m *ProductRepoMock) Update(ctx context.Context, filters []repo.Filter, changes repo.ProductChanges) (int64, error) {
	args := m.Called(ctx, filters, changes)
	return args.Get(0).(int64), args.Error(1)
}

func (m *ProductRepoMock) Delete(ctx context.Context, filters []repo.Filter) (int64, error) {
	args := m.Called(ctx, filters)
	return args.Get(0).(int64), args.Error(1)
}

type AuditRepoMock struct{ mock.Mock }

var _ repo.AuditLogRepository = (*AuditRepoMock)(nil)

func (m *AuditRepoMock) Create(ctx context.Context, log model.AuditLog) error {
	args := m.Called(ctx, log)
	return args.Error(0)
}

func (m *AuditRepoMock) List(ctx context.Context, filter repo.AuditLogFilter) ([]model.AuditLog, error) {
	args := m.Called(ctx, filter)
	logs, _ := args.Get(0).([]model.AuditLog)
	return logs, args.Error(1)
}

type CatalogMock struct{ mock.Mock }

func (m *CatalogMock) FetchProducts(ctx context.Context) ([]model.CatalogItem, error) {
	args := m.Called(ctx)
	items, _ := args.Get(0).([]model.CatalogItem)
	return items, args.Error(1)
}

type NotifierMock struct{ mock.Mock }

func (m *NotifierMock) NotifyImported(ctx context.Context, ev model.ImportEvent) error {
	args := m.Called(ctx, ev)
	return args.Error(0)
}

// =====================
// helper
// =====================

func requireHTTPError(t *testing.T, err error, status int) *usecase.HTTPError {
	t.Helper()
	require.Error(t, err)
	he, ok := usecase.AsHTTPError(err)
	require.True(t, ok, "expected *HTTPError, got %T: %v", err, err)
	assert.Equal(t, status, he.Status)
	return he
}

// probeStoreが投げるクエリ
func probeQuery() repo.SelectQuery {
	return repo.SelectQuery{Columns: []string{model.ProductColumnID}, Limit: 1}
}

func singleByID(id int64) repo.SelectQuery {
	return repo.SelectQuery{
		Filters: []repo.Filter{repo.Eq(model.ProductColumnID, id)},
		Single:  true,
	}
}

func strPtr(s string) *string { return &s }
