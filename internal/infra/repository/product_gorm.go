package repository

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
	"strings"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

type ProductGormRepository struct {
	db *gorm.DB
}

// DI
func NewProductGormRepository(db *gorm.DB) *ProductGormRepository {
	return &ProductGormRepository{db: db}
}

var _ repo.ProductRepository = (*ProductGormRepository)(nil)

// 条件付きで商品を取得
func (r *ProductGormRepository) Select(ctx context.Context, q repo.SelectQuery) ([]model.Product, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	tx := r.db.WithContext(ctx).Model(&model.Product{})
	if len(q.Columns) > 0 {
		tx = tx.Select(q.Columns)
	}
	tx = applyFilters(tx, q.Filters)

	if q.OrderBy != "" {
		dir := "asc"
		if q.Desc {
			dir = "desc"
		}
		tx = tx.Order(q.OrderBy + " " + dir)
	}

	limit := q.Limit
	if q.Single {
		limit = 1
	}
	if limit > 0 {
		tx = tx.Limit(limit)
	}

	var products []model.Product
	if err := tx.Find(&products).Error; err != nil {
		return nil, classifyError(err)
	}

	if q.Single && len(products) == 0 {
		return nil, repo.ErrNotFound
	}
	return products, nil
}

// まとめて作成（1回のINSERT）
func (r *ProductGormRepository) Insert(ctx context.Context, products []model.Product) ([]model.Product, error) {
	if len(products) == 0 {
		return []model.Product{}, nil
	}

	rows := make([]model.Product, len(products))
	copy(rows, products)
	for i := range rows {
		rows[i].ID = 0
	}

	if err := r.db.WithContext(ctx).Create(&rows).Error; err != nil {
		return nil, classifyError(err)
	}
	return rows, nil
}

// 条件に合う商品を更新（title/price/description/categoryのみ）
func (r *ProductGormRepository) Update(ctx context.Context, filters []repo.Filter, changes repo.ProductChanges) (int64, error) {
	if len(filters) == 0 {
		return 0, repo.ErrUnfilteredMutation
	}
	if err := repo.ValidateFilters(filters); err != nil {
		return 0, err
	}
	if changes.IsEmpty() {
		return 0, fmt.Errorf("%w: no fields to update", repo.ErrInvalidQuery)
	}

	values := map[string]interface{}{}
	if changes.Title != nil {
		values[model.ProductColumnTitle] = *changes.Title
	}
	if changes.Price != nil {
		values[model.ProductColumnPrice] = *changes.Price
	}
	if changes.Description != nil {
		values[model.ProductColumnDescription] = *changes.Description
	}
	if changes.Category != nil {
		values[model.ProductColumnCategory] = *changes.Category
	}

	tx := applyFilters(r.db.WithContext(ctx).Model(&model.Product{}), filters)
	res := tx.Updates(values)
	if res.Error != nil {
		return 0, classifyError(res.Error)
	}
	return res.RowsAffected, nil
}

// 条件に合う商品を削除
func (r *ProductGormRepository) Delete(ctx context.Context, filters []repo.Filter) (int64, error) {
	if len(filters) == 0 {
		return 0, repo.ErrUnfilteredMutation
	}
	if err := repo.ValidateFilters(filters); err != nil {
		return 0, err
	}

	tx := applyFilters(r.db.WithContext(ctx), filters)
	res := tx.Delete(&model.Product{})
	if res.Error != nil {
		return 0, classifyError(res.Error)
	}
	return res.RowsAffected, nil
}

// カラム名はValidate済みのものだけが来る
func applyFilters(tx *gorm.DB, filters []repo.Filter) *gorm.DB {
	for _, f := range filters {
		switch f.Op {
		case repo.OpEq:
			tx = tx.Where(f.Column+" = ?", f.Value)
		case repo.OpNeq:
			tx = tx.Where(f.Column+" <> ?", f.Value)
		case repo.OpIn:
			tx = tx.Where(f.Column+" IN ?", f.Value)
		}
	}
	return tx
}

// ドライバのエラーをリポジトリのエラーに寄せる
func classifyError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return repo.ErrNotFound
	}
	if isUnavailable(err) {
		return fmt.Errorf("%w: %v", repo.ErrUnavailable, err)
	}
	return err
}

// 接続できない・接続が切れた・DBが停止中
func isUnavailable(err error) bool {
	var connErr *pgconn.ConnectError
	if errors.As(err, &connErr) {
		return true
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		// 08xxx: connection exception
		if strings.HasPrefix(pgErr.Code, "08") {
			return true
		}
		switch pgErr.Code {
		case "57P01", "57P02", "57P03": // admin_shutdown, crash_shutdown, cannot_connect_now
			return true
		}
		return false
	}

	if pgconn.Timeout(err) || errors.Is(err, driver.ErrBadConn) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	// 型を持たないゲートウェイ障害（暫定）
	return repo.HasOutageMarker(err.Error())
}
