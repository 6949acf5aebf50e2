package repository

import (
	"context"
	"time"

	"storefront/internal/domain/model"
)

// 保存・取得を約束
type UserRepository interface {
	//新規ユーザー作成
	Create(ctx context.Context, user *model.User) error
	//メールからユーザーを一件取得する。
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	// 一般ユーザー数。from/toはnilなら制限なし（[from, to)）
	CountCustomers(ctx context.Context, from, to *time.Time) (int64, error)
	ListRecentCustomers(ctx context.Context, limit int) ([]model.User, error)
}
