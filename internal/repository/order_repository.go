package repository

import (
	"context"
	"time"

	"storefront/internal/domain/model"
)

type AdminOrderListFilter struct {
	Page   int
	Limit  int
	Status *model.OrderStatus
	// 注文番号・配送先の名前・メールの部分一致（大文字小文字無視）
	Search string
}

// nilの項目は更新しない
type OrderUpdate struct {
	OrderStatus   *model.OrderStatus
	PaymentStatus *model.PaymentStatus
	Notes         *string
}

type OrderRepository interface {
	FindByID(ctx context.Context, id string) (model.Order, error)
	FindByCode(ctx context.Context, code string) (model.Order, error)
	ListByUserID(ctx context.Context, userID string, page int, limit int) ([]model.Order, int64, error)
	// 明細ごと保存。注文番号の重複はErrDuplicate
	Create(ctx context.Context, order *model.Order) error
	UpdateFields(ctx context.Context, id string, u OrderUpdate) error

	//管理者用の注文一覧
	ListAdmin(ctx context.Context, f AdminOrderListFilter) ([]model.Order, int64, error)
	CountByStatus(ctx context.Context) (map[model.OrderStatus]int64, error)
	ListRecent(ctx context.Context, limit int) ([]model.Order, error)
	// 集計用。since以降（nilなら全件）を古い順にbatchSizeずつ渡す
	ScanWithItems(ctx context.Context, since *time.Time, batchSize int, fn func(batch []model.Order) error) error
}
