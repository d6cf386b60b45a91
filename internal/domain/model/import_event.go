package model

import "time"

// 取込完了の通知内容
type ImportEvent struct {
	ActorUserID int64     `json:"actor_user_id"`
	Inserted    int       `json:"inserted"`
	ProductIDs  []int64   `json:"product_ids"`
	Source      string    `json:"source"`
	ImportedAt  time.Time `json:"imported_at"`
}
