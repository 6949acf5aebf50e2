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

// 注文確定後の通知（メール）
type OrderNotifier interface {
	SendOrderConfirmation(ctx context.Context, order model.Order) error
}

// チェックアウト入力の検証
type CheckoutValidator interface {
	ValidateShipping(ctx context.Context, addr model.ShippingAddress) error
}

type OrderUsecase struct {
	tx        repo.TransactionManager
	orders    repo.OrderRepository
	resolver  *OrderResolver
	pricing   PricingRules
	codes     OrderCodeGenerator
	validator CheckoutValidator
	notifier  OrderNotifier
}

func NewOrderUsecase(
	tx repo.TransactionManager,
	orders repo.OrderRepository,
	pricing PricingRules,
	codes OrderCodeGenerator,
	validator CheckoutValidator,
	notifier OrderNotifier,
) *OrderUsecase {
	return &OrderUsecase{
		tx:        tx,
		orders:    orders,
		resolver:  NewOrderResolver(orders),
		pricing:   pricing,
		codes:     codes,
		validator: validator,
		notifier:  notifier,
	}
}

type CheckoutItemInput struct {
	ProductID string
	Weight    string
	Quantity  int64
}

type CheckoutInput struct {
	// ゲストなら空
	UserID string
	// 空ならログインユーザーのカートから作る
	Items           []CheckoutItemInput
	ShippingAddress model.ShippingAddress
	PaymentMethod   string
	TransactionID   string
	GatewayOrderID  string
	// 空ならpending
	PaymentStatus string
}

// 注文作成。在庫減算・注文保存・カートクリアは1トランザクション
func (u *OrderUsecase) Checkout(ctx context.Context, in CheckoutInput) (model.Order, error) {
	log := observability.FromContext(ctx)

	if err := u.validator.ValidateShipping(ctx, in.ShippingAddress); err != nil {
		return model.Order{}, newKindError(KindInvalidInput, "invalid shipping address")
	}

	paymentStatus := model.PaymentStatusPending
	if strings.TrimSpace(in.PaymentStatus) != "" {
		ps, ok := model.ParsePaymentStatus(in.PaymentStatus)
		if !ok || ps == model.PaymentStatusRefunded {
			return model.Order{}, newKindError(KindInvalidInput, "invalid paymentStatus")
		}
		paymentStatus = ps
	}

	fromCart := len(in.Items) == 0
	if fromCart && in.UserID == "" {
		return model.Order{}, newKindError(KindInvalidInput, "items are required")
	}
	cleaned := make([]CheckoutItemInput, 0, len(in.Items))
	for _, it := range in.Items {
		it.ProductID = strings.TrimSpace(it.ProductID)
		it.Weight = strings.TrimSpace(it.Weight)
		if it.ProductID == "" || it.Weight == "" || it.Quantity < 1 {
			return model.Order{}, newKindError(KindInvalidInput, "Invalid data")
		}
		// products.id はuuid列
		if _, err := uuid.Parse(it.ProductID); err != nil {
			return model.Order{}, newKindError(KindInvalidInput, "invalid product")
		}
		cleaned = append(cleaned, it)
	}
	in.Items = cleaned

	var created model.Order

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		lines := in.Items
		if fromCart {
			// 重複行があっても数量を合算してから注文にする
			if _, err := DeduplicateCart(ctx, r.CartItems(), in.UserID); err != nil {
				log.Error("dedupe before checkout failed", zap.String("user_id", in.UserID), zap.Error(err))
				return newKindError(KindInternal, "db error")
			}
			cartItems, err := r.CartItems().ListByUserID(ctx, in.UserID)
			if err != nil {
				return newKindError(KindInternal, "db error")
			}
			if len(cartItems) == 0 {
				return newKindError(KindInvalidInput, "cart empty")
			}
			lines = make([]CheckoutItemInput, 0, len(cartItems))
			for _, ci := range cartItems {
				lines = append(lines, CheckoutItemInput{ProductID: ci.ProductID, Weight: ci.Weight, Quantity: ci.Quantity})
			}
		}

		items := make([]model.OrderItem, 0, len(lines))
		var subtotal int64
		for _, line := range lines {
			//商品取得（現在の価格を使う）
			p, err := r.Products().FindByID(ctx, line.ProductID)
			if errors.Is(err, repo.ErrNotFound) || (err == nil && !p.IsActive) {
				return newKindError(KindInvalidInput, "invalid product")
			}
			if err != nil {
				log.Error("find product failed", zap.String("product_id", line.ProductID), zap.Error(err))
				return newKindError(KindInternal, "db error")
			}
			w, ok := p.Weight(line.Weight)
			if !ok {
				return newKindError(KindInvalidInput, "invalid weight")
			}

			//在庫減算（足りないなら false）
			ok, err = r.Inventory().DecreaseWeightStockIfEnough(ctx, p.ID, w.Label, line.Quantity)
			if err != nil {
				log.Error("decrease stock failed", zap.String("product_id", p.ID), zap.Error(err))
				return newKindError(KindInternal, "db error")
			}
			if !ok {
				return newKindError(KindInvalidInput, "out of stock")
			}

			//スナップショット
			items = append(items, model.OrderItem{
				ProductID:   p.ID,
				ProductName: p.Name,
				Weight:      w.Label,
				Price:       w.Price,
				Quantity:    line.Quantity,
			})
			subtotal += w.Price * line.Quantity
		}

		order := model.Order{
			Code:            u.codes.NewCode(),
			Items:           items,
			Pricing:         u.pricing.Price(subtotal),
			ShippingAddress: normalizeShipping(in.ShippingAddress),
			OrderStatus:     model.OrderStatusPending,
			PaymentStatus:   paymentStatus,
			PaymentDetails: model.PaymentDetails{
				Method:         strings.TrimSpace(in.PaymentMethod),
				TransactionID:  strings.TrimSpace(in.TransactionID),
				GatewayOrderID: strings.TrimSpace(in.GatewayOrderID),
				Status:         paymentStatus,
			},
		}
		if in.UserID != "" {
			userID := in.UserID
			order.UserID = &userID
		}

		if err := r.Orders().Create(ctx, &order); err != nil {
			log.Error("create order failed", zap.String("order_code", order.Code), zap.Error(err))
			return newKindError(KindInternal, "Failed to create order")
		}

		// 注文済みのカートは空にする
		if fromCart {
			if _, err := r.CartItems().DeleteByUserID(ctx, in.UserID); err != nil {
				return newKindError(KindInternal, "db error")
			}
		}

		created = order
		return nil
	})
	if err != nil {
		if _, ok := AsHTTPError(err); ok {
			return model.Order{}, err
		}
		log.Error("checkout transaction failed", zap.Error(err))
		return model.Order{}, newKindError(KindInternal, "Failed to create order")
	}

	// メールは失敗しても注文は成功扱い
	if err := u.notifier.SendOrderConfirmation(ctx, created); err != nil {
		log.Warn("order confirmation mail failed", zap.String("order_code", created.Code), zap.Error(err))
	}

	return created, nil
}

// 公開の注文取得。注文番号を知っていれば見られる（レシート扱い）
// viewerIDは持ち主確認のログにだけ使う
func (u *OrderUsecase) Get(ctx context.Context, ident string, viewerID string) (model.Order, error) {
	o, err := u.resolver.Resolve(ctx, ident)
	if err != nil {
		return model.Order{}, err
	}

	if viewerID != "" && !o.IsOwnedBy(viewerID) {
		observability.FromContext(ctx).Debug("order viewed by non-owner",
			zap.String("order_code", o.Code), zap.String("viewer_id", viewerID))
	}
	return o, nil
}

func (u *OrderUsecase) ListMine(ctx context.Context, userID string, page int, limit int) ([]model.Order, int64, error) {
	if userID == "" {
		return nil, 0, newKindError(KindUnauthorized, "unauthorized")
	}
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	orders, total, err := u.orders.ListByUserID(ctx, userID, page, limit)
	if err != nil {
		observability.FromContext(ctx).Error("list my orders failed", zap.String("user_id", userID), zap.Error(err))
		return nil, 0, newKindError(KindInternal, "db error")
	}
	return orders, total, nil
}

func normalizeShipping(a model.ShippingAddress) model.ShippingAddress {
	return model.ShippingAddress{
		Name:     strings.TrimSpace(a.Name),
		Email:    strings.ToLower(strings.TrimSpace(a.Email)),
		Phone:    strings.TrimSpace(a.Phone),
		Address1: strings.TrimSpace(a.Address1),
		Address2: strings.TrimSpace(a.Address2),
		City:     strings.TrimSpace(a.City),
		State:    strings.TrimSpace(a.State),
		Zip:      strings.TrimSpace(a.Zip),
	}
}
