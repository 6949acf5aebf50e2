package repository

import (
	"context"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"

	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CartItemGormRepository struct {
	db *gorm.DB
}

// DI
func NewCartItemGormRepository(db *gorm.DB) *CartItemGormRepository {
	return &CartItemGormRepository{db: db}
}

// ユーザーのカート明細を登録順で取得
func (r *CartItemGormRepository) ListByUserID(ctx context.Context, userID string) ([]model.CartItem, error) {
	var items []model.CartItem

	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at asc").Order("id asc").
		Find(&items).Error; err != nil {
		return []model.CartItem{}, errors.Wrap(err, "list cart items")
	}

	return items, nil
}

// 同じ (user, product, weight) は数量を上書き
// ユニークインデックス + ON CONFLICT なので同時に追加しても1行に収束する
func (r *CartItemGormRepository) UpsertQuantity(ctx context.Context, userID string, productID string, weight string, qty int64) error {
	if qty <= 0 {
		return errors.New("invalid quantity")
	}

	item := model.CartItem{
		UserID:    userID,
		ProductID: productID,
		Weight:    weight,
		Quantity:  qty,
	}

	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{
				{Name: "user_id"},
				{Name: "product_id"},
				{Name: "weight"},
			},
			DoUpdates: clause.AssignmentColumns([]string{"quantity", "updated_at"}),
		}).
		Create(&item).Error
	if err != nil {
		return errors.Wrap(err, "upsert cart item")
	}
	return nil
}

// 明細の数量を更新
func (r *CartItemGormRepository) UpdateQuantity(ctx context.Context, cartItemID string, qty int64) error {
	res := r.db.WithContext(ctx).
		Model(&model.CartItem{}).
		Where("id = ?", cartItemID).
		Update("quantity", qty)

	if res.Error != nil {
		return errors.Wrap(res.Error, "update cart item quantity")
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

// 明細を削除
func (r *CartItemGormRepository) DeleteByID(ctx context.Context, cartItemID string) error {
	res := r.db.WithContext(ctx).
		Where("id = ?", cartItemID).
		Delete(&model.CartItem{})

	if res.Error != nil {
		return errors.Wrap(res.Error, "delete cart item")
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

// キーで1行削除して、消した行を返す
func (r *CartItemGormRepository) DeleteByKey(ctx context.Context, userID string, productID string, weight string) (model.CartItem, error) {
	var deleted []model.CartItem

	res := r.db.WithContext(ctx).
		Clauses(clause.Returning{}).
		Where("user_id = ? AND product_id = ? AND weight = ?", userID, productID, weight).
		Delete(&deleted)

	if res.Error != nil {
		return model.CartItem{}, errors.Wrap(res.Error, "delete cart item by key")
	}
	if res.RowsAffected == 0 || len(deleted) == 0 {
		return model.CartItem{}, repo.ErrNotFound
	}
	return deleted[0], nil
}

// ユーザーの明細を全削除して件数を返す
func (r *CartItemGormRepository) DeleteByUserID(ctx context.Context, userID string) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Delete(&model.CartItem{})

	if res.Error != nil {
		return 0, errors.Wrap(res.Error, "clear cart")
	}
	return res.RowsAffected, nil
}

func (r *CartItemGormRepository) ListUsersWithDuplicates(ctx context.Context) ([]string, error) {
	var userIDs []string

	err := r.db.WithContext(ctx).Raw(`
		SELECT DISTINCT user_id
		FROM cart_items
		GROUP BY user_id, product_id, weight
		HAVING COUNT(*) > 1
		ORDER BY user_id
	`).Scan(&userIDs).Error
	if err != nil {
		return nil, errors.Wrap(err, "list users with duplicate cart lines")
	}
	return userIDs, nil
}
