package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"storefront/internal/domain/model"
	"storefront/internal/logger"
	repo "storefront/internal/repository"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// 表示できなかった商品の名前
const placeholderTitle = "Product"

// CartUsecase は /api/cart の業務ロジックです。
// カートはSlotStorage（1訪問者1スロット）に置き、productsには書き戻さない。
type CartUsecase struct {
	slots       repo.SlotStorage
	productRepo repo.ProductRepository
	log         *logger.Logger
}

func NewCartUsecase(
	slots repo.SlotStorage,
	productRepo repo.ProductRepository,
	log *logger.Logger,
) *CartUsecase {
	return &CartUsecase{
		slots:       slots,
		productRepo: productRepo,
		log:         log,
	}
}

// 表示用の明細
// Resolved=falseは商品が引けなかった明細（0円・"Product"）。
type CartLineView struct {
	ProductID int64           `json:"id"`
	Title     string          `json:"title"`
	Price     decimal.Decimal `json:"price"`
	Image     *string         `json:"image,omitempty"`
	Qty       int64           `json:"qty"`
	LineTotal decimal.Decimal `json:"line_total"`
	Resolved  bool            `json:"resolved"`
}

type CartView struct {
	Items []CartLineView  `json:"items"`
	Count int64           `json:"count"`
	Total decimal.Decimal `json:"total"`
}

func SlotKey(sessionID string) string {
	return "cart:" + sessionID
}

// GetCart はカート取得（無ければ空）。
func (u *CartUsecase) GetCart(ctx context.Context, sessionID string) (CartView, error) {
	lines, err := u.load(ctx, sessionID)
	if err != nil {
		return CartView{}, err
	}
	return u.Resolve(ctx, lines), nil
}

// AddToCart は商品を1つ追加（同一商品は数量加算）。
func (u *CartUsecase) AddToCart(ctx context.Context, sessionID string, productID int64) (CartView, error) {
	if productID <= 0 {
		return CartView{}, NewHTTPError(http.StatusBadRequest, "invalid product_id")
	}

	lines, err := u.load(ctx, sessionID)
	if err != nil {
		return CartView{}, err
	}

	// 商品チェック
	if _, err := u.productRepo.Select(ctx, repo.SelectQuery{
		Columns: []string{model.ProductColumnID},
		Filters: []repo.Filter{repo.Eq(model.ProductColumnID, productID)},
		Single:  true,
	}); err != nil {
		if !errors.Is(err, repo.ErrNotFound) {
			u.log.Error("cart product lookup failed", zap.Error(err), zap.Int64("product_id", productID))
		}
		return CartView{}, storeError(err)
	}

	lines = lines.Add(productID)
	if err := u.save(ctx, sessionID, lines); err != nil {
		return CartView{}, err
	}
	return u.Resolve(ctx, lines), nil
}

// ClearCart は明細を全削除
func (u *CartUsecase) ClearCart(ctx context.Context, sessionID string) (CartView, error) {
	if strings.TrimSpace(sessionID) == "" {
		return CartView{}, NewHTTPError(http.StatusBadRequest, "missing cart session")
	}
	if err := u.slots.Delete(ctx, SlotKey(sessionID)); err != nil {
		u.log.Error("cart clear failed", zap.Error(err))
		return CartView{}, NewHTTPError(http.StatusInternalServerError, "cart storage error")
	}
	return u.Resolve(ctx, nil), nil
}

// Resolveは明細に商品情報を付ける。
// 引けなかった明細（取得エラー時は全明細）はプレースホルダーにして、カート全体は失敗させない。
func (u *CartUsecase) Resolve(ctx context.Context, lines model.CartLines) CartView {
	view := CartView{
		Items: make([]CartLineView, 0, len(lines)),
		Count: lines.Count(),
		Total: decimal.Zero,
	}
	if len(lines) == 0 {
		return view
	}

	byID := map[int64]model.Product{}
	rows, err := u.productRepo.Select(ctx, repo.SelectQuery{
		Columns: []string{model.ProductColumnID, model.ProductColumnTitle, model.ProductColumnPrice, model.ProductColumnImage},
		Filters: []repo.Filter{repo.In(model.ProductColumnID, lines.ProductIDs())},
	})
	if err != nil {
		u.log.Warn("cart resolve failed, showing placeholders", zap.Error(err))
	}
	for _, p := range rows {
		byID[p.ID] = p
	}

	prices := make(map[int64]decimal.Decimal, len(byID))
	for _, l := range lines {
		lv := CartLineView{
			ProductID: l.ProductID,
			Title:     placeholderTitle,
			Price:     decimal.Zero,
			Qty:       l.Qty,
			LineTotal: decimal.Zero,
		}
		if p, ok := byID[l.ProductID]; ok {
			lv.Title = p.Title
			lv.Price = p.Price
			lv.Image = p.Image
			lv.LineTotal = p.Price.Mul(decimal.NewFromInt(l.Qty))
			lv.Resolved = true
			prices[l.ProductID] = p.Price
		}
		view.Items = append(view.Items, lv)
	}
	view.Total = lines.Total(prices)
	return view
}

// 壊れたデータは空カートとして扱う
func (u *CartUsecase) load(ctx context.Context, sessionID string) (model.CartLines, error) {
	if strings.TrimSpace(sessionID) == "" {
		return nil, NewHTTPError(http.StatusBadRequest, "missing cart session")
	}

	raw, ok, err := u.slots.Get(ctx, SlotKey(sessionID))
	if err != nil {
		u.log.Error("cart load failed", zap.Error(err))
		return nil, NewHTTPError(http.StatusInternalServerError, "cart storage error")
	}
	if !ok || raw == "" {
		return model.CartLines{}, nil
	}

	var lines model.CartLines
	if err := json.Unmarshal([]byte(raw), &lines); err != nil {
		u.log.Warn("cart slot is corrupt, starting empty", zap.Error(err))
		return model.CartLines{}, nil
	}
	return lines.Normalize(), nil
}

func (u *CartUsecase) save(ctx context.Context, sessionID string, lines model.CartLines) error {
	b, err := json.Marshal(lines)
	if err != nil {
		return NewHTTPError(http.StatusInternalServerError, "cart encode error")
	}
	if err := u.slots.Set(ctx, SlotKey(sessionID), string(b)); err != nil {
		u.log.Error("cart save failed", zap.Error(err))
		return NewHTTPError(http.StatusInternalServerError, "cart storage error")
	}
	return nil
}
