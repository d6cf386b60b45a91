package repository

import (
	"context"
	"time"

	"storefront/internal/domain/model"
)

// 一覧の件数（limit未指定・範囲外はDefault）
const (
	AuditLogDefaultLimit = 50
	AuditLogMaxLimit     = 200
)

// 監査ログの絞り込み条件。nilの項目は絞らない。期間は両端を含む。
type AuditLogFilter struct {
	ActorUserID  *int64
	Action       *model.AuditAction
	ResourceType *model.AuditResourceType
	ResourceID   *int64
	CreatedFrom  *time.Time
	CreatedTo    *time.Time
	Limit        int
	Offset       int
}

// 監査ログの保存・一覧取得の約束。
type AuditLogRepository interface {
	Create(ctx context.Context, log model.AuditLog) error
	List(ctx context.Context, filter AuditLogFilter) ([]model.AuditLog, error)
}
