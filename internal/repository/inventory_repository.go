package repository

import "context"

type InventoryRepository interface {
	// 在庫が足りるときだけ減算
	DecreaseWeightStockIfEnough(ctx context.Context, productID string, weight string, qty int64) (bool, error)

	// 在庫戻し（キャンセル）
	IncreaseWeightStock(ctx context.Context, productID string, weight string, qty int64) error
}
