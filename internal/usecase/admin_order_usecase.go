package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"storefront/internal/domain/model"
	"storefront/internal/observability"
	repo "storefront/internal/repository"

	"go.uber.org/zap"
)

// 管理画面は信頼できる利用者なので、DBエラーの中身もメッセージに出す
type AdminOrderUsecase struct {
	tx     repo.TransactionManager
	orders repo.OrderRepository
	audits repo.AuditLogRepository
}

func NewAdminOrderUsecase(tx repo.TransactionManager, orders repo.OrderRepository, audits repo.AuditLogRepository) *AdminOrderUsecase {
	return &AdminOrderUsecase{tx: tx, orders: orders, audits: audits}
}

// 詳細画面に出す変更履歴の件数
const orderHistoryLimit = 20

// 一覧の1行
type AdminOrderView struct {
	ID              string                `json:"_id"`
	Code            string                `json:"id"`
	CustomerName    string                `json:"customerName"`
	CustomerEmail   string                `json:"customerEmail"`
	CustomerMobile  string                `json:"customerMobile"`
	Items           []model.OrderItem     `json:"items"`
	Total           int64                 `json:"total"`
	Status          model.OrderStatus     `json:"status"`
	PaymentStatus   model.PaymentStatus   `json:"paymentStatus"`
	ShippingAddress model.ShippingAddress `json:"shippingAddress"`
	CreatedAt       time.Time             `json:"createdAt"`
	UpdatedAt       time.Time             `json:"updatedAt"`
}

// 詳細は料金・決済情報・次の操作も返す
type AdminOrderDetail struct {
	AdminOrderView
	Pricing        model.Pricing        `json:"pricing"`
	PaymentDetails model.PaymentDetails `json:"paymentDetails"`
	Notes          string               `json:"notes"`
	NextActions    []model.OrderStatus  `json:"nextActions"`
	History        []OrderHistoryEntry  `json:"history"`
}

// 監査ログ1件分。新しい順
type OrderHistoryEntry struct {
	ActorUserID string          `json:"actorUserId"`
	Action      string          `json:"action"`
	Before      json.RawMessage `json:"before"`
	After       json.RawMessage `json:"after"`
	CreatedAt   time.Time       `json:"createdAt"`
}

type AdminOrderStats struct {
	Total     int64 `json:"total"`
	Pending   int64 `json:"pending"`
	Confirmed int64 `json:"confirmed"`
	Shipped   int64 `json:"shipped"`
	Delivered int64 `json:"delivered"`
	Cancelled int64 `json:"cancelled"`
}

type Pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int64 `json:"totalPages"`
}

type AdminOrderListInput struct {
	Status string
	Search string
	Page   int
	Limit  int
}

type AdminOrderListOutput struct {
	Orders     []AdminOrderView `json:"orders"`
	Stats      AdminOrderStats  `json:"stats"`
	Pagination Pagination       `json:"pagination"`
}

// nilは変更しない
type UpdateOrderInput struct {
	OrderStatus   *string
	PaymentStatus *string
	Notes         *string
}

type AdminOrderSummary struct {
	ID            string              `json:"_id"`
	Code          string              `json:"id"`
	Status        model.OrderStatus   `json:"status"`
	PaymentStatus model.PaymentStatus `json:"paymentStatus"`
}

// 注文一覧
func (u *AdminOrderUsecase) List(ctx context.Context, in AdminOrderListInput) (AdminOrderListOutput, error) {
	f := repo.AdminOrderListFilter{
		Page:   in.Page,
		Limit:  in.Limit,
		Search: strings.TrimSpace(in.Search),
	}
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 {
		f.Limit = 50
	}
	if f.Limit > 100 {
		f.Limit = 100
	}

	// "all" は絞り込みなし
	if s := strings.TrimSpace(in.Status); s != "" && !strings.EqualFold(s, "all") {
		st, ok := model.ParseOrderStatus(s)
		if !ok {
			return AdminOrderListOutput{}, newKindError(KindInvalidInput, "invalid status")
		}
		f.Status = &st
	}

	orders, total, err := u.orders.ListAdmin(ctx, f)
	if err != nil {
		observability.FromContext(ctx).Error("list admin orders failed", zap.Error(err))
		return AdminOrderListOutput{}, newKindError(KindInternal, "Failed to fetch orders: "+err.Error())
	}

	counts, err := u.orders.CountByStatus(ctx)
	if err != nil {
		observability.FromContext(ctx).Error("count orders failed", zap.Error(err))
		return AdminOrderListOutput{}, newKindError(KindInternal, "Failed to fetch orders: "+err.Error())
	}

	views := make([]AdminOrderView, 0, len(orders))
	for _, o := range orders {
		views = append(views, toAdminOrderView(o))
	}

	stats := AdminOrderStats{
		Pending:   counts[model.OrderStatusPending],
		Confirmed: counts[model.OrderStatusConfirmed],
		Shipped:   counts[model.OrderStatusShipped],
		Delivered: counts[model.OrderStatusDelivered],
		Cancelled: counts[model.OrderStatusCancelled],
	}
	for _, n := range counts {
		stats.Total += n
	}

	return AdminOrderListOutput{
		Orders: views,
		Stats:  stats,
		Pagination: Pagination{
			Page:       f.Page,
			Limit:      f.Limit,
			Total:      total,
			TotalPages: (total + int64(f.Limit) - 1) / int64(f.Limit),
		},
	}, nil
}

func (u *AdminOrderUsecase) Get(ctx context.Context, ident string) (AdminOrderDetail, error) {
	o, err := ResolveOrder(ctx, u.orders, ident)
	if err != nil {
		return AdminOrderDetail{}, adminStorageError(ctx, "Failed to fetch order", err)
	}

	resType := model.AuditResourceOrder
	logs, err := u.audits.List(ctx, repo.AuditLogFilter{
		ResourceType: &resType,
		ResourceID:   &o.ID,
		Limit:        orderHistoryLimit,
	})
	if err != nil {
		return AdminOrderDetail{}, adminStorageError(ctx, "Failed to fetch order history", err)
	}

	d := toAdminOrderDetail(o)
	d.History = make([]OrderHistoryEntry, 0, len(logs))
	for _, l := range logs {
		d.History = append(d.History, OrderHistoryEntry{
			ActorUserID: l.ActorUserID,
			Action:      string(l.Action),
			Before:      rawJSON(l.BeforeJSON),
			After:       rawJSON(l.AfterJSON),
			CreatedAt:   l.CreatedAt,
		})
	}
	return d, nil
}

// 壊れたJSONはnullにする
func rawJSON(s string) json.RawMessage {
	if !json.Valid([]byte(s)) {
		return json.RawMessage("null")
	}
	return json.RawMessage(s)
}

// ステータス・決済ステータス・メモの更新。遷移表にない変更は409
// 同時更新は後勝ち
func (u *AdminOrderUsecase) Update(ctx context.Context, actorAdminUserID string, ident string, in UpdateOrderInput) (AdminOrderSummary, error) {
	if actorAdminUserID == "" {
		return AdminOrderSummary{}, newKindError(KindUnauthorized, "unauthorized")
	}

	var upd repo.OrderUpdate
	if in.OrderStatus != nil {
		st, ok := model.ParseOrderStatus(*in.OrderStatus)
		if !ok {
			return AdminOrderSummary{}, newKindError(KindInvalidInput, "invalid orderStatus")
		}
		upd.OrderStatus = &st
	}
	if in.PaymentStatus != nil {
		ps, ok := model.ParsePaymentStatus(*in.PaymentStatus)
		if !ok {
			return AdminOrderSummary{}, newKindError(KindInvalidInput, "invalid paymentStatus")
		}
		upd.PaymentStatus = &ps
	}
	if in.Notes != nil {
		notes := strings.TrimSpace(*in.Notes)
		upd.Notes = &notes
	}

	var out AdminOrderSummary

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		// 注文取得
		o, err := ResolveOrder(ctx, r.Orders(), ident)
		if err != nil {
			return adminStorageError(ctx, "Failed to fetch order", err)
		}

		if upd.OrderStatus != nil && !model.CanTransition(o.OrderStatus, *upd.OrderStatus) {
			return newKindError(KindInvalidTransition,
				"cannot change order status from "+string(o.OrderStatus)+" to "+string(*upd.OrderStatus))
		}

		if err := r.Orders().UpdateFields(ctx, o.ID, upd); err != nil {
			return adminStorageError(ctx, "Failed to update order", err)
		}

		// キャンセルになったら在庫を戻す
		if upd.OrderStatus != nil && *upd.OrderStatus == model.OrderStatusCancelled && o.OrderStatus != model.OrderStatusCancelled {
			for _, it := range o.Items {
				err := r.Inventory().IncreaseWeightStock(ctx, it.ProductID, it.Weight, it.Quantity)
				if err != nil && !errors.Is(err, repo.ErrNotFound) {
					return adminStorageError(ctx, "Failed to restock", err)
				}
			}
		}

		after := o
		if upd.OrderStatus != nil {
			after.OrderStatus = *upd.OrderStatus
		}
		if upd.PaymentStatus != nil {
			after.PaymentStatus = *upd.PaymentStatus
		}
		if upd.Notes != nil {
			after.Notes = *upd.Notes
		}

		// ★監査ログ（UPDATE_ORDER）
		if err := r.AuditLogs().Create(ctx, model.AuditLog{
			ActorUserID:  actorAdminUserID,
			Action:       model.AuditActionUpdateOrder,
			ResourceType: model.AuditResourceOrder,
			ResourceID:   o.ID,
			BeforeJSON:   auditSnapshot(o),
			AfterJSON:    auditSnapshot(after),
			CreatedAt:    time.Now(),
		}); err != nil {
			return adminStorageError(ctx, "Failed to write audit log", err)
		}

		out = AdminOrderSummary{
			ID:            o.ID,
			Code:          o.Code,
			Status:        after.OrderStatus,
			PaymentStatus: after.PaymentStatus,
		}
		return nil
	})
	if err != nil {
		return AdminOrderSummary{}, adminStorageError(ctx, "Failed to update order", err)
	}
	return out, nil
}

// HTTPErrorはそのまま、それ以外は中身付きの500
func adminStorageError(ctx context.Context, msg string, err error) error {
	if _, ok := AsHTTPError(err); ok {
		return err
	}
	observability.FromContext(ctx).Error(msg, zap.Error(err))
	return newKindError(KindInternal, msg+": "+err.Error())
}

func auditSnapshot(o model.Order) string {
	b, err := json.Marshal(struct {
		OrderStatus   model.OrderStatus   `json:"orderStatus"`
		PaymentStatus model.PaymentStatus `json:"paymentStatus"`
		Notes         string              `json:"notes"`
	}{o.OrderStatus, o.PaymentStatus, o.Notes})
	if err != nil {
		return "{}"
	}
	return string(b)
}

func toAdminOrderView(o model.Order) AdminOrderView {
	items := o.Items
	if items == nil {
		items = []model.OrderItem{}
	}
	return AdminOrderView{
		ID:              o.ID,
		Code:            o.Code,
		CustomerName:    orDefault(o.ShippingAddress.Name, "Unknown"),
		CustomerEmail:   orDefault(o.ShippingAddress.Email, "N/A"),
		CustomerMobile:  orDefault(o.ShippingAddress.Phone, "N/A"),
		Items:           items,
		Total:           o.Pricing.Total,
		Status:          o.OrderStatus,
		PaymentStatus:   o.PaymentStatus,
		ShippingAddress: o.ShippingAddress,
		CreatedAt:       o.CreatedAt,
		UpdatedAt:       o.UpdatedAt,
	}
}

func toAdminOrderDetail(o model.Order) AdminOrderDetail {
	return AdminOrderDetail{
		AdminOrderView: toAdminOrderView(o),
		Pricing:        o.Pricing,
		PaymentDetails: o.PaymentDetails,
		Notes:          o.Notes,
		NextActions:    o.OrderStatus.NextActions(),
	}
}

func orDefault(s string, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}
