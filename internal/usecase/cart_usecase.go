package usecase

import (
	"context"
	"errors"
	"strings"

	"storefront/internal/domain/model"
	"storefront/internal/observability"
	repo "storefront/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CartUsecase は /cart の業務ロジックです。
// 1ユーザー1カート。行は (product, weight) ごと
type CartUsecase struct {
	cartItemRepo repo.CartItemRepository
}

func NewCartUsecase(cartItemRepo repo.CartItemRepository) *CartUsecase {
	return &CartUsecase{cartItemRepo: cartItemRepo}
}

func (u *CartUsecase) List(ctx context.Context, userID string) ([]model.CartItem, error) {
	if userID == "" {
		return nil, newKindError(KindUnauthorized, "unauthorized")
	}

	items, err := u.cartItemRepo.ListByUserID(ctx, userID)
	if err != nil {
		observability.FromContext(ctx).Error("list cart failed", zap.String("user_id", userID), zap.Error(err))
		return nil, newKindError(KindInternal, "Failed to fetch cart")
	}
	return items, nil
}

// 数量は加算ではなく上書き
func (u *CartUsecase) AddOrUpdate(ctx context.Context, userID string, productID string, weight string, quantity int64) error {
	if userID == "" {
		return newKindError(KindUnauthorized, "unauthorized")
	}
	productID = strings.TrimSpace(productID)
	weight = strings.TrimSpace(weight)
	if productID == "" || weight == "" || quantity < 1 {
		return newKindError(KindInvalidInput, "Invalid data")
	}
	if _, err := uuid.Parse(productID); err != nil {
		return newKindError(KindInvalidInput, "Invalid data")
	}

	if err := u.cartItemRepo.UpsertQuantity(ctx, userID, productID, weight, quantity); err != nil {
		observability.FromContext(ctx).Error("upsert cart failed", zap.String("user_id", userID), zap.Error(err))
		return newKindError(KindInternal, "Failed to update cart")
	}
	return nil
}

func (u *CartUsecase) Remove(ctx context.Context, userID string, productID string, weight string) (model.CartItem, error) {
	if userID == "" {
		return model.CartItem{}, newKindError(KindUnauthorized, "unauthorized")
	}

	productID = strings.TrimSpace(productID)
	// uuidでない商品IDのカート行は存在しない
	if _, err := uuid.Parse(productID); err != nil {
		return model.CartItem{}, newKindError(KindNotFound, "Cart item not found")
	}

	item, err := u.cartItemRepo.DeleteByKey(ctx, userID, productID, strings.TrimSpace(weight))
	if errors.Is(err, repo.ErrNotFound) {
		return model.CartItem{}, newKindError(KindNotFound, "Cart item not found")
	}
	if err != nil {
		observability.FromContext(ctx).Error("remove cart item failed", zap.String("user_id", userID), zap.Error(err))
		return model.CartItem{}, newKindError(KindInternal, "Failed to remove cart item")
	}
	return item, nil
}

// 全削除。0件でもエラーにしない
func (u *CartUsecase) Clear(ctx context.Context, userID string) (int64, error) {
	if userID == "" {
		return 0, newKindError(KindUnauthorized, "unauthorized")
	}

	n, err := u.cartItemRepo.DeleteByUserID(ctx, userID)
	if err != nil {
		observability.FromContext(ctx).Error("clear cart failed", zap.String("user_id", userID), zap.Error(err))
		return 0, newKindError(KindInternal, "Failed to clear cart")
	}
	return n, nil
}

// 同じ (product, weight) の行をまとめる。
// 最初の行を残して数量を合計し、残りを消す。途中で失敗したらそこで止めて消した件数を返す
func (u *CartUsecase) Deduplicate(ctx context.Context, userID string) (int64, error) {
	if userID == "" {
		return 0, newKindError(KindUnauthorized, "unauthorized")
	}

	deleted, err := DeduplicateCart(ctx, u.cartItemRepo, userID)
	if err != nil {
		observability.FromContext(ctx).Error("dedupe cart failed",
			zap.String("user_id", userID), zap.Int64("deleted", deleted), zap.Error(err))
		return deleted, newKindError(KindInternal, "Failed to deduplicate cart")
	}
	return deleted, nil
}

// 重複のあるユーザー全員分（CLI用）
func (u *CartUsecase) DeduplicateAll(ctx context.Context) (int64, error) {
	userIDs, err := u.cartItemRepo.ListUsersWithDuplicates(ctx)
	if err != nil {
		return 0, err
	}

	var total int64
	for _, userID := range userIDs {
		n, err := DeduplicateCart(ctx, u.cartItemRepo, userID)
		total += n
		if err != nil {
			return total, err
		}
		observability.FromContext(ctx).Info("cart deduplicated", zap.String("user_id", userID), zap.Int64("deleted", n))
	}
	return total, nil
}

// トランザクション内（チェックアウト）からも使う
func DeduplicateCart(ctx context.Context, items repo.CartItemRepository, userID string) (int64, error) {
	lines, err := items.ListByUserID(ctx, userID)
	if err != nil {
		return 0, err
	}

	type group struct {
		keep  model.CartItem
		total int64
		extra []string
	}
	groups := make(map[model.CartKey]*group)
	order := make([]model.CartKey, 0, len(lines))
	for _, line := range lines {
		g, ok := groups[line.Key()]
		if !ok {
			groups[line.Key()] = &group{keep: line, total: line.Quantity}
			order = append(order, line.Key())
			continue
		}
		g.total += line.Quantity
		g.extra = append(g.extra, line.ID)
	}

	var deleted int64
	for _, key := range order {
		g := groups[key]
		if len(g.extra) == 0 {
			continue
		}
		if err := items.UpdateQuantity(ctx, g.keep.ID, g.total); err != nil {
			return deleted, err
		}
		for _, id := range g.extra {
			if err := items.DeleteByID(ctx, id); err != nil {
				return deleted, err
			}
			deleted++
		}
	}
	return deleted, nil
}
