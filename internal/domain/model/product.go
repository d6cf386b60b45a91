package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// 商品（productsテーブル）
// idはDB側で採番・一意性もDB側で担保する。
type Product struct {
	ID          int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	Title       string          `gorm:"type:text;not null;default:''" json:"title"`
	Price       decimal.Decimal `gorm:"type:numeric(10,2);not null;default:0;check:price >= 0" json:"price"`
	Description string          `gorm:"type:text;not null;default:''" json:"description"`
	Category    string          `gorm:"type:text;not null;default:''" json:"category"`
	Image       *string         `gorm:"type:text" json:"image,omitempty"`
	CreatedAt   time.Time       `gorm:"not null;autoCreateTime" json:"created_at"`
}

func (Product) TableName() string {
	return "products"
}

// 商品カラム（select/filter/orderで使ってよいもの）
const (
	ProductColumnID          = "id"
	ProductColumnTitle       = "title"
	ProductColumnPrice       = "price"
	ProductColumnDescription = "description"
	ProductColumnCategory    = "category"
	ProductColumnImage       = "image"
	ProductColumnCreatedAt   = "created_at"
)

var productColumns = map[string]struct{}{
	ProductColumnID:          {},
	ProductColumnTitle:       {},
	ProductColumnPrice:       {},
	ProductColumnDescription: {},
	ProductColumnCategory:    {},
	ProductColumnImage:       {},
	ProductColumnCreatedAt:   {},
}

func IsProductColumn(name string) bool {
	_, ok := productColumns[name]
	return ok
}
