package repository

import (
	"context"

	"storefront/internal/domain/model"
)

type CartItemRepository interface {
	// 登録順（created_at, id）で返す
	ListByUserID(ctx context.Context, userID string) ([]model.CartItem, error)
	// (user, product, weight) が既にあれば数量を上書き
	UpsertQuantity(ctx context.Context, userID string, productID string, weight string, qty int64) error
	UpdateQuantity(ctx context.Context, cartItemID string, qty int64) error
	DeleteByID(ctx context.Context, cartItemID string) error
	// 消した行を返す。無ければErrNotFound
	DeleteByKey(ctx context.Context, userID string, productID string, weight string) (model.CartItem, error)
	DeleteByUserID(ctx context.Context, userID string) (int64, error)
	// 同じ (product, weight) が複数行あるユーザー
	ListUsersWithDuplicates(ctx context.Context) ([]string, error)
}
