package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// カートの明細
// (user_id, product_id, weight) で1行。数量は上書き
type CartItem struct {
	ID        string    `gorm:"type:uuid;primaryKey" json:"_id"`
	UserID    string    `gorm:"type:uuid;not null;uniqueIndex:idx_cart_items_key,priority:1" json:"userId"`
	ProductID string    `gorm:"type:uuid;not null;uniqueIndex:idx_cart_items_key,priority:2" json:"productId"`
	Weight    string    `gorm:"type:varchar(32);not null;uniqueIndex:idx_cart_items_key,priority:3" json:"weight"`
	Quantity  int64     `gorm:"not null" json:"quantity"`
	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updatedAt"`
}

func (c *CartItem) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}

// 重複判定のキー
type CartKey struct {
	ProductID string
	Weight    string
}

func (c CartItem) Key() CartKey {
	return CartKey{ProductID: c.ProductID, Weight: c.Weight}
}
