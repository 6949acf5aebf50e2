package repository

import (
	"context"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"

	"github.com/pkg/errors"
	"gorm.io/gorm"
)

type InventoryGormRepository struct {
	db *gorm.DB
}

func NewInventoryGormRepository(db *gorm.DB) *InventoryGormRepository {
	return &InventoryGormRepository{db: db}
}

// 在庫が足りるときだけ減らす（条件付きUPDATEなので同時購入でもマイナスにならない）
func (r *InventoryGormRepository) DecreaseWeightStockIfEnough(ctx context.Context, productID string, weight string, qty int64) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&model.ProductWeight{}).
		Where("product_id = ? AND label = ? AND quantity >= ?", productID, weight, qty).
		Update("quantity", gorm.Expr("quantity - ?", qty))

	if res.Error != nil {
		return false, errors.Wrap(res.Error, "decrease stock")
	}
	if res.RowsAffected == 0 {
		return false, nil
	}
	return true, nil
}

// 在庫戻し（キャンセル）
func (r *InventoryGormRepository) IncreaseWeightStock(ctx context.Context, productID string, weight string, qty int64) error {
	res := r.db.WithContext(ctx).
		Model(&model.ProductWeight{}).
		Where("product_id = ? AND label = ?", productID, weight).
		Update("quantity", gorm.Expr("quantity + ?", qty))

	if res.Error != nil {
		return errors.Wrap(res.Error, "increase stock")
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}
