package repository

import (
	"context"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"

	"github.com/pkg/errors"
	"gorm.io/gorm"
)

type ProductGormRepository struct {
	db *gorm.DB
}

// DI
func NewProductGormRepository(db *gorm.DB) *ProductGormRepository {
	return &ProductGormRepository{db: db}
}

func (r *ProductGormRepository) FindByID(ctx context.Context, id string) (model.Product, error) {
	var p model.Product
	err := r.db.WithContext(ctx).
		Preload("Weights").
		Where("id = ?", id).
		First(&p).Error
	if isNotFound(err) {
		return model.Product{}, repo.ErrNotFound
	}
	if err != nil {
		return model.Product{}, errors.Wrap(err, "find product")
	}
	return p, nil
}

func (r *ProductGormRepository) FindByIDs(ctx context.Context, ids []string) ([]model.Product, error) {
	if len(ids) == 0 {
		return []model.Product{}, nil
	}
	var products []model.Product
	if err := r.db.WithContext(ctx).
		Preload("Weights").
		Where("id IN ?", ids).
		Find(&products).Error; err != nil {
		return []model.Product{}, errors.Wrap(err, "find products")
	}
	return products, nil
}

// 在庫が少ない商品（どれか1つの重さがthreshold未満）
func (r *ProductGormRepository) ListLowStock(ctx context.Context, threshold int64, limit int) ([]model.Product, error) {
	if limit <= 0 {
		limit = 3
	}
	low := r.db.Model(&model.ProductWeight{}).
		Select("product_id").
		Where("quantity < ?", threshold)

	var products []model.Product
	if err := r.db.WithContext(ctx).
		Preload("Weights").
		Where("id IN (?)", low).
		Order("updated_at desc").Order("id desc").
		Limit(limit).
		Find(&products).Error; err != nil {
		return []model.Product{}, errors.Wrap(err, "list low stock products")
	}
	return products, nil
}
