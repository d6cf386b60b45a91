package repository

import "context"

// キー→値の保存先（カートの保存に使う）
type SlotStorage interface {
	// 無ければ ok=false
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key string, value string) error
	Delete(ctx context.Context, key string) error
}
