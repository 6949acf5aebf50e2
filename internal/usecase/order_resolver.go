package usecase

import (
	"context"
	"errors"
	"strings"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"

	"github.com/google/uuid"
)

// 注文番号（ORD-xxx）でも内部IDでも引けるようにする
// 1. 注文番号で検索 2. uuidとして正しければ内部IDで検索 3. どちらも無ければNotFound
func ResolveOrder(ctx context.Context, orders repo.OrderRepository, ident string) (model.Order, error) {
	ident = strings.TrimSpace(ident)
	if ident == "" {
		return model.Order{}, newKindError(KindInvalidInput, "Order ID is required")
	}

	o, err := orders.FindByCode(ctx, ident)
	if err == nil {
		return o, nil
	}
	if !errors.Is(err, repo.ErrNotFound) {
		return model.Order{}, err
	}

	// uuidでない文字列はDBに投げない
	if _, perr := uuid.Parse(ident); perr != nil {
		return model.Order{}, newKindError(KindNotFound, "Order not found")
	}

	o, err = orders.FindByID(ctx, ident)
	if errors.Is(err, repo.ErrNotFound) {
		return model.Order{}, newKindError(KindNotFound, "Order not found")
	}
	if err != nil {
		return model.Order{}, err
	}
	return o, nil
}

type OrderResolver struct {
	orders repo.OrderRepository
}

func NewOrderResolver(orders repo.OrderRepository) *OrderResolver {
	return &OrderResolver{orders: orders}
}

// ストレージのエラーはInternalErrorにする
func (r *OrderResolver) Resolve(ctx context.Context, ident string) (model.Order, error) {
	o, err := ResolveOrder(ctx, r.orders, ident)
	if err == nil {
		return o, nil
	}
	if _, ok := AsHTTPError(err); ok {
		return model.Order{}, err
	}
	return model.Order{}, newKindError(KindInternal, "Failed to fetch order")
}
