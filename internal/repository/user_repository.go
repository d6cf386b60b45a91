package repository

import (
	"context"
	"errors"

	"storefront/internal/domain/model"
)

var ErrUserNotFound = errors.New("user not found")

// 保存・取得を約束
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	// 見つからなければErrUserNotFound
	FindByID(ctx context.Context, userID int64) (*model.User, error)
	// 見つからなければErrUserNotFound
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	// 最終ログイン時刻の更新など
	Update(ctx context.Context, user *model.User) error
	//トークンのバージョンを＋１
	IncrementTokenVersion(ctx context.Context, userID int64) error
}
