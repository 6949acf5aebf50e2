package repository

import (
	"context"
	"errors"

	"storefront/internal/domain/model"
)

var ErrNotFound = errors.New("not found")

// 一意制約違反
var ErrDuplicate = errors.New("duplicate")

// 商品の取得だけを約束。
type ProductRepository interface {
	FindByID(ctx context.Context, id string) (model.Product, error)
	// 複数IDをまとめて取得（見つからないIDは結果に含まれない）
	FindByIDs(ctx context.Context, ids []string) ([]model.Product, error)
	// 在庫がthreshold未満の重さを持つ商品。新しい順
	ListLowStock(ctx context.Context, threshold int64, limit int) ([]model.Product, error)
}
