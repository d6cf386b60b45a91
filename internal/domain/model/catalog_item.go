package model

import "github.com/shopspring/decimal"

// 外部カタログの1商品（取込元のJSONそのまま）
type CatalogItem struct {
	ID          int64           `json:"id"`
	Title       string          `json:"title"`
	Price       decimal.Decimal `json:"price"`
	Description string          `json:"description"`
	Category    string          `json:"category"`
	Image       string          `json:"image"`
}

// 取込用の形に変換する（categoryは取り込まない）
func (c CatalogItem) ToProduct() Product {
	p := Product{
		Title:       c.Title,
		Price:       c.Price,
		Description: c.Description,
	}
	if c.Image != "" {
		img := c.Image
		p.Image = &img
	}
	return p
}
