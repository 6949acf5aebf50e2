package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Product struct {
	ID          string          `gorm:"type:uuid;primaryKey" json:"_id"`
	Name        string          `gorm:"type:varchar(255);not null" json:"name"`
	SKU         string          `gorm:"type:varchar(64);index" json:"sku"`
	Category    string          `gorm:"type:varchar(100);index" json:"category"`
	Description string          `gorm:"type:text" json:"description"`
	IsActive    bool            `gorm:"not null;default:false" json:"isActive"`
	Weights     []ProductWeight `gorm:"foreignKey:ProductID;references:ID" json:"weights"`
	CreatedAt   time.Time       `gorm:"not null;autoCreateTime" json:"createdAt"`
	UpdatedAt   time.Time       `gorm:"not null;autoUpdateTime" json:"updatedAt"`
	DeletedAt   gorm.DeletedAt  `gorm:"index" json:"-"`
}

func (p *Product) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}

// 重さごとの価格と在庫（250g / 500g など）
type ProductWeight struct {
	ID        string `gorm:"type:uuid;primaryKey" json:"-"`
	ProductID string `gorm:"type:uuid;not null;uniqueIndex:idx_product_weights_label,priority:1" json:"-"`
	Label     string `gorm:"type:varchar(32);not null;uniqueIndex:idx_product_weights_label,priority:2" json:"weight"`
	Price     int64  `gorm:"not null" json:"price"`
	Quantity  int64  `gorm:"not null;default:0" json:"quantity"`
}

func (w *ProductWeight) BeforeCreate(tx *gorm.DB) error {
	if w.ID == "" {
		w.ID = uuid.NewString()
	}
	return nil
}

// ラベルから重さを探す
func (p Product) Weight(label string) (ProductWeight, bool) {
	for _, w := range p.Weights {
		if w.Label == label {
			return w, true
		}
	}
	return ProductWeight{}, false
}

// 一番少ない在庫。重さが無い商品は0
func (p Product) LowestStock() int64 {
	if len(p.Weights) == 0 {
		return 0
	}
	lowest := p.Weights[0].Quantity
	for _, w := range p.Weights[1:] {
		if w.Quantity < lowest {
			lowest = w.Quantity
		}
	}
	return lowest
}
