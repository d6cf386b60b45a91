package model

import "time"

// 管理者操作の種類
type AuditAction string

const (
	//カタログから商品を取り込んだ。
	AuditActionImportProducts AuditAction = "IMPORT_PRODUCTS"
	//商品を更新した。
	AuditActionUpdateProduct AuditAction = "UPDATE_PRODUCT"
	//商品を1件削除した。
	AuditActionDeleteProduct AuditAction = "DELETE_PRODUCT"
	//商品を全件削除した。
	AuditActionDeleteAllProducts AuditAction = "DELETE_ALL_PRODUCTS"
)

// 何に対する操作か
type AuditResourceType string

const (
	AuditResourceProduct AuditResourceType = "product"
)

// 監査ログ（管理者操作ログ）。
// 「誰が」「何を」「どの対象に」「どう変えたか」を残す。
type AuditLog struct {
	ID int64 `gorm:"primaryKey;autoIncrement" json:"id"`

	//操作した管理者のID。
	ActorUserID int64 `gorm:"not null;index" json:"actor_user_id"`

	Action AuditAction `gorm:"type:varchar(50);not null;index" json:"action"`

	ResourceType AuditResourceType `gorm:"type:varchar(50);not null;index" json:"resource_type"`

	//対象のID（一括操作は0）。
	ResourceID int64 `gorm:"not null;index" json:"resource_id"`

	BeforeJSON string `gorm:"type:text" json:"before_json"`
	AfterJSON  string `gorm:"type:text" json:"after_json"`

	CreatedAt time.Time `gorm:"not null;index" json:"created_at"`
}
