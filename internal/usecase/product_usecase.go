package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"storefront/internal/domain/model"
	"storefront/internal/logger"
	repo "storefront/internal/repository"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type ProductUsecase struct {
	productRepo repo.ProductRepository
	auditRepo   repo.AuditLogRepository
	log         *logger.Logger
}

// DI
func NewProductUsecase(
	productRepo repo.ProductRepository,
	auditRepo repo.AuditLogRepository,
	log *logger.Logger,
) *ProductUsecase {
	return &ProductUsecase{
		productRepo: productRepo,
		auditRepo:   auditRepo,
		log:         log,
	}
}

// GET /api/productsの入力
type ListProductsInput struct {
	Category string
}

// 一覧（id順）
func (u *ProductUsecase) ListProducts(ctx context.Context, in ListProductsInput) ([]model.Product, error) {
	q := repo.SelectQuery{OrderBy: model.ProductColumnID}
	if c := strings.TrimSpace(in.Category); c != "" {
		if len(c) > 100 {
			return nil, NewHTTPError(http.StatusBadRequest, "category too long")
		}
		q.Filters = append(q.Filters, repo.Eq(model.ProductColumnCategory, c))
	}

	items, err := u.productRepo.Select(ctx, q)
	if err != nil {
		u.log.Error("list products failed", zap.Error(err))
		return nil, storeError(err)
	}
	return items, nil
}

func (u *ProductUsecase) GetProductDetail(ctx context.Context, productID int64) (model.Product, error) {
	if productID <= 0 {
		return model.Product{}, NewHTTPError(http.StatusBadRequest, "invalid product id")
	}

	p, err := u.findOne(ctx, productID)
	if err != nil {
		if !errors.Is(err, repo.ErrNotFound) {
			u.log.Error("load product failed", zap.Error(err), zap.Int64("product_id", productID))
		}
		return model.Product{}, storeError(err)
	}
	return p, nil
}

// 管理画面の一覧（全件・id順）
func (u *ProductUsecase) AdminListProducts(ctx context.Context) ([]model.Product, error) {
	return u.ListProducts(ctx, ListProductsInput{})
}

// 更新できるのはtitle/price/description/categoryだけ。
// Priceは文字列のまま受けて、数値にできなければ0にする。
type AdminUpdateProductInput struct {
	Title       *string
	Price       *string
	Description *string
	Category    *string
}

func (u *ProductUsecase) AdminUpdateProduct(ctx context.Context, adminUserID int64, productID int64, in AdminUpdateProductInput) error {
	if adminUserID <= 0 {
		return NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if productID <= 0 {
		return NewHTTPError(http.StatusBadRequest, "invalid product id")
	}

	changes := repo.ProductChanges{
		Title:       in.Title,
		Description: in.Description,
		Category:    in.Category,
	}
	if in.Price != nil {
		price := ParsePriceOrZero(*in.Price)
		changes.Price = &price
	}
	if changes.IsEmpty() {
		return NewHTTPError(http.StatusBadRequest, "nothing to update")
	}

	//変更前
	before, err := u.findOne(ctx, productID)
	if err != nil {
		return storeError(err)
	}

	n, err := u.productRepo.Update(ctx, []repo.Filter{repo.Eq(model.ProductColumnID, productID)}, changes)
	if err != nil {
		u.log.Error("update product failed", zap.Error(err), zap.Int64("product_id", productID))
		return storeError(err)
	}
	if n == 0 {
		return NewHTTPError(http.StatusNotFound, "not found")
	}

	u.audit(ctx, model.AuditLog{
		ActorUserID:  adminUserID,
		Action:       model.AuditActionUpdateProduct,
		ResourceType: model.AuditResourceProduct,
		ResourceID:   productID,
		BeforeJSON:   toJSON(before),
		AfterJSON:    toJSON(changesJSON(changes)),
	})
	return nil
}

// idが一致する1件だけを削除
func (u *ProductUsecase) AdminDeleteProduct(ctx context.Context, adminUserID int64, productID int64) error {
	if adminUserID <= 0 {
		return NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if productID <= 0 {
		return NewHTTPError(http.StatusBadRequest, "invalid product id")
	}

	before, err := u.findOne(ctx, productID)
	if err != nil {
		return storeError(err)
	}

	n, err := u.productRepo.Delete(ctx, []repo.Filter{repo.Eq(model.ProductColumnID, productID)})
	if err != nil {
		u.log.Error("delete product failed", zap.Error(err), zap.Int64("product_id", productID))
		return storeError(err)
	}
	if n == 0 {
		return NewHTTPError(http.StatusNotFound, "not found")
	}

	u.audit(ctx, model.AuditLog{
		ActorUserID:  adminUserID,
		Action:       model.AuditActionDeleteProduct,
		ResourceType: model.AuditResourceProduct,
		ResourceID:   productID,
		BeforeJSON:   toJSON(before),
		AfterJSON:    "{}",
	})
	return nil
}

// 全件削除。confirmed=falseならストアに触らない。
func (u *ProductUsecase) AdminDeleteAllProducts(ctx context.Context, adminUserID int64, confirmed bool) (int64, error) {
	if adminUserID <= 0 {
		return 0, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if !confirmed {
		return 0, NewHTTPError(http.StatusBadRequest, "confirmation required")
	}

	// idは1から採番されるので id <> 0 で全件
	n, err := u.productRepo.Delete(ctx, []repo.Filter{repo.Neq(model.ProductColumnID, 0)})
	if err != nil {
		u.log.Error("delete all products failed", zap.Error(err))
		return 0, storeError(err)
	}

	u.log.Info("all products deleted", zap.Int64("deleted", n), zap.Int64("actor_user_id", adminUserID))
	u.audit(ctx, model.AuditLog{
		ActorUserID:  adminUserID,
		Action:       model.AuditActionDeleteAllProducts,
		ResourceType: model.AuditResourceProduct,
		ResourceID:   0,
		BeforeJSON:   "{}",
		AfterJSON:    toJSON(map[string]int64{"deleted": n}),
	})
	return n, nil
}

func (u *ProductUsecase) findOne(ctx context.Context, productID int64) (model.Product, error) {
	rows, err := u.productRepo.Select(ctx, repo.SelectQuery{
		Filters: []repo.Filter{repo.Eq(model.ProductColumnID, productID)},
		Single:  true,
	})
	if err != nil {
		return model.Product{}, err
	}
	return rows[0], nil
}

// 監査ログの失敗は操作自体を失敗にしない
func (u *ProductUsecase) audit(ctx context.Context, log model.AuditLog) {
	log.CreatedAt = time.Now()
	if err := u.auditRepo.Create(ctx, log); err != nil {
		u.log.Warn("audit log failed", zap.Error(err), zap.String("action", string(log.Action)))
	}
}

// ParsePriceOrZeroは"12.50"のような文字列を金額にする。不正なら0。
func ParsePriceOrZero(raw string) decimal.Decimal {
	d, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return decimal.Zero
	}
	return d
}

func changesJSON(c repo.ProductChanges) map[string]any {
	m := map[string]any{}
	if c.Title != nil {
		m[model.ProductColumnTitle] = *c.Title
	}
	if c.Price != nil {
		m[model.ProductColumnPrice] = *c.Price
	}
	if c.Description != nil {
		m[model.ProductColumnDescription] = *c.Description
	}
	if c.Category != nil {
		m[model.ProductColumnCategory] = *c.Category
	}
	return m
}

func toJSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return "{}"
	}
	return string(b)
}
