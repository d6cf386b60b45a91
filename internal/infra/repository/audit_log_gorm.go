package repository

import (
	"context"
	"time"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type AuditLogGormRepository struct {
	db *gorm.DB
}

// DI
func NewAuditLogGormRepository(db *gorm.DB) *AuditLogGormRepository {
	return &AuditLogGormRepository{db: db}
}

var _ repo.AuditLogRepository = (*AuditLogGormRepository)(nil)

// 1操作 = 1行
func (r *AuditLogGormRepository) Create(ctx context.Context, entry model.AuditLog) error {
	entry.ID = 0
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	return classifyError(r.db.WithContext(ctx).Create(&entry).Error)
}

// 新しい順（id DESC）
func (r *AuditLogGormRepository) List(ctx context.Context, filter repo.AuditLogFilter) ([]model.AuditLog, error) {
	tx := r.db.WithContext(ctx).Model(&model.AuditLog{})
	if conds := auditConditions(filter); len(conds) > 0 {
		tx = tx.Clauses(clause.Where{Exprs: conds})
	}
	tx = tx.Order(clause.OrderByColumn{Column: clause.Column{Name: "id"}, Desc: true})

	limit, offset := auditPage(filter)
	tx = tx.Limit(limit)
	if offset > 0 {
		tx = tx.Offset(offset)
	}

	logs := []model.AuditLog{}
	if err := tx.Find(&logs).Error; err != nil {
		return nil, classifyError(err)
	}
	return logs, nil
}

func auditConditions(f repo.AuditLogFilter) []clause.Expression {
	col := func(name string) clause.Column { return clause.Column{Name: name} }

	var conds []clause.Expression
	if f.ActorUserID != nil {
		conds = append(conds, clause.Eq{Column: col("actor_user_id"), Value: *f.ActorUserID})
	}
	if f.Action != nil {
		conds = append(conds, clause.Eq{Column: col("action"), Value: string(*f.Action)})
	}
	if f.ResourceType != nil {
		conds = append(conds, clause.Eq{Column: col("resource_type"), Value: string(*f.ResourceType)})
	}
	if f.ResourceID != nil {
		conds = append(conds, clause.Eq{Column: col("resource_id"), Value: *f.ResourceID})
	}
	if f.CreatedFrom != nil {
		conds = append(conds, clause.Gte{Column: col("created_at"), Value: *f.CreatedFrom})
	}
	if f.CreatedTo != nil {
		conds = append(conds, clause.Lte{Column: col("created_at"), Value: *f.CreatedTo})
	}
	return conds
}

func auditPage(f repo.AuditLogFilter) (limit, offset int) {
	limit = f.Limit
	if limit <= 0 || limit > repo.AuditLogMaxLimit {
		limit = repo.AuditLogDefaultLimit
	}
	offset = f.Offset
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
