package usecase

import (
	"context"
	"net/http"
	"time"

	"storefront/internal/domain/model"
	"storefront/internal/logger"
	repo "storefront/internal/repository"

	"go.uber.org/zap"
)

type AuditUsecase struct {
	auditRepo repo.AuditLogRepository
	log       *logger.Logger
}

func NewAuditUsecase(auditRepo repo.AuditLogRepository, log *logger.Logger) *AuditUsecase {
	return &AuditUsecase{auditRepo: auditRepo, log: log}
}

// 絞り込み条件（nil・空文字は絞らない）
type ListAuditLogsInput struct {
	Action       string
	ActorUserID  *int64
	ResourceType string
	ResourceID   *int64
	From         *time.Time
	To           *time.Time
	Limit        int
	Offset       int
}

var auditActions = map[model.AuditAction]struct{}{
	model.AuditActionImportProducts:    {},
	model.AuditActionUpdateProduct:     {},
	model.AuditActionDeleteProduct:     {},
	model.AuditActionDeleteAllProducts: {},
}

var auditResourceTypes = map[model.AuditResourceType]struct{}{
	model.AuditResourceProduct: {},
}

// 新しい順
func (u *AuditUsecase) AdminListAuditLogs(ctx context.Context, in ListAuditLogsInput) ([]model.AuditLog, error) {
	filter, err := in.toFilter()
	if err != nil {
		return nil, err
	}

	logs, err := u.auditRepo.List(ctx, filter)
	if err != nil {
		u.log.Error("list audit logs failed", zap.Error(err))
		return nil, storeError(err)
	}
	return logs, nil
}

func (in ListAuditLogsInput) toFilter() (repo.AuditLogFilter, error) {
	if in.Limit < 0 || in.Limit > repo.AuditLogMaxLimit {
		return repo.AuditLogFilter{}, NewHTTPError(http.StatusBadRequest, "invalid limit")
	}
	if in.Offset < 0 {
		return repo.AuditLogFilter{}, NewHTTPError(http.StatusBadRequest, "invalid offset")
	}
	// 一括操作は resource_id=0 で残るので0は許可
	if in.ActorUserID != nil && *in.ActorUserID <= 0 {
		return repo.AuditLogFilter{}, NewHTTPError(http.StatusBadRequest, "invalid actor_user_id")
	}
	if in.ResourceID != nil && *in.ResourceID < 0 {
		return repo.AuditLogFilter{}, NewHTTPError(http.StatusBadRequest, "invalid resource_id")
	}
	if in.From != nil && in.To != nil && in.From.After(*in.To) {
		return repo.AuditLogFilter{}, NewHTTPError(http.StatusBadRequest, "invalid range")
	}

	filter := repo.AuditLogFilter{
		ActorUserID: in.ActorUserID,
		ResourceID:  in.ResourceID,
		CreatedFrom: in.From,
		CreatedTo:   in.To,
		Limit:       in.Limit,
		Offset:      in.Offset,
	}
	if in.Action != "" {
		a := model.AuditAction(in.Action)
		if _, ok := auditActions[a]; !ok {
			return repo.AuditLogFilter{}, NewHTTPError(http.StatusBadRequest, "invalid action")
		}
		filter.Action = &a
	}
	if in.ResourceType != "" {
		rt := model.AuditResourceType(in.ResourceType)
		if _, ok := auditResourceTypes[rt]; !ok {
			return repo.AuditLogFilter{}, NewHTTPError(http.StatusBadRequest, "invalid resource_type")
		}
		filter.ResourceType = &rt
	}
	return filter, nil
}
