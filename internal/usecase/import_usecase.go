package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"storefront/internal/config"
	"storefront/internal/domain/model"
	"storefront/internal/logger"
	repo "storefront/internal/repository"

	"go.uber.org/zap"
)

// 取込元カタログ
type CatalogSource interface {
	FetchProducts(ctx context.Context) ([]model.CatalogItem, error)
}

// 取込完了の通知先
type ImportNotifier interface {
	NotifyImported(ctx context.Context, ev model.ImportEvent) error
}

// 確認用に返す件数
const importSampleSize = 2

// GET /api/import の結果
type ImportResult struct {
	Message  string          `json:"message"`
	Inserted int             `json:"inserted"`
	Sample   []model.Product `json:"sample"`
}

// ImportUsecaseはカタログの商品をproductsにまとめて追加する。
// 重複チェックはしないので、2回実行すると2倍になる。
type ImportUsecase struct {
	cfg         config.Config
	catalog     CatalogSource
	productRepo repo.ProductRepository
	auditRepo   repo.AuditLogRepository
	notifier    ImportNotifier
	log         *logger.Logger
	now         func() time.Time
}

// DI
func NewImportUsecase(
	cfg config.Config,
	catalog CatalogSource,
	productRepo repo.ProductRepository,
	auditRepo repo.AuditLogRepository,
	notifier ImportNotifier,
	log *logger.Logger,
) *ImportUsecase {
	return &ImportUsecase{
		cfg:         cfg,
		catalog:     catalog,
		productRepo: productRepo,
		auditRepo:   auditRepo,
		notifier:    notifier,
		log:         log,
		now:         time.Now,
	}
}

func (u *ImportUsecase) ImportProducts(ctx context.Context, actorUserID int64) (ImportResult, error) {
	//接続情報が無ければ通信せずに返す
	if !u.cfg.StoreConfigured() {
		u.log.Warn("import refused: store is not configured")
		return ImportResult{}, NewHTTPErrorWithDetails(http.StatusInternalServerError, MsgStoreNotConfigured, HintStoreNotConfigured)
	}

	//疎通確認
	if err := probeStore(ctx, u.productRepo); err != nil {
		u.log.Error("import probe failed", zap.Error(err))
		return ImportResult{}, importStoreError(err)
	}

	//カタログ取得
	items, err := u.catalog.FetchProducts(ctx)
	if err != nil {
		u.log.Error("import catalog fetch failed", zap.Error(err), zap.String("catalog_url", u.cfg.CatalogURL))
		return ImportResult{}, NewHTTPErrorWithDetails(http.StatusInternalServerError, "catalog fetch failed", err.Error())
	}

	rows := make([]model.Product, 0, len(items))
	for _, it := range items {
		rows = append(rows, it.ToProduct())
	}

	//まとめてINSERT（トランザクションで全体は包まない）
	inserted, err := u.productRepo.Insert(ctx, rows)
	if err != nil {
		u.log.Error("import insert failed", zap.Error(err), zap.Int("rows", len(rows)))
		return ImportResult{}, importStoreError(err)
	}

	u.log.Info("products imported", zap.Int("inserted", len(inserted)), zap.Int64("actor_user_id", actorUserID))

	u.afterImport(ctx, actorUserID, inserted)

	sample := inserted
	if len(sample) > importSampleSize {
		sample = sample[:importSampleSize]
	}
	return ImportResult{
		Message:  "products imported",
		Inserted: len(inserted),
		Sample:   sample,
	}, nil
}

// 監査ログと通知。失敗してもレスポンスは変えない。
func (u *ImportUsecase) afterImport(ctx context.Context, actorUserID int64, inserted []model.Product) {
	ids := make([]int64, 0, len(inserted))
	for _, p := range inserted {
		ids = append(ids, p.ID)
	}
	at := u.now()

	after, _ := json.Marshal(map[string]any{"inserted": len(inserted), "source": u.cfg.CatalogURL})
	if err := u.auditRepo.Create(ctx, model.AuditLog{
		ActorUserID:  actorUserID,
		Action:       model.AuditActionImportProducts,
		ResourceType: model.AuditResourceProduct,
		ResourceID:   0,
		BeforeJSON:   "{}",
		AfterJSON:    string(after),
		CreatedAt:    at,
	}); err != nil {
		u.log.Warn("import audit log failed", zap.Error(err))
	}

	if err := u.notifier.NotifyImported(ctx, model.ImportEvent{
		ActorUserID: actorUserID,
		Inserted:    len(inserted),
		ProductIDs:  ids,
		Source:      u.cfg.CatalogURL,
		ImportedAt:  at,
	}); err != nil {
		u.log.Warn("import event publish failed", zap.Error(err))
	}
}

// 取込のエラーは原因をdetailsに載せる
func importStoreError(err error) error {
	switch {
	case errors.Is(err, repo.ErrNotConfigured):
		return NewHTTPErrorWithDetails(http.StatusInternalServerError, MsgStoreNotConfigured, HintStoreNotConfigured)
	case repo.IsUnavailable(err):
		return NewHTTPErrorWithDetails(http.StatusServiceUnavailable, MsgStoreUnavailable, HintStoreUnavailable)
	default:
		return NewHTTPErrorWithDetails(http.StatusInternalServerError, "import failed", err.Error())
	}
}
