package repository

import (
	"context"
	"strings"
	"time"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"

	"github.com/pkg/errors"
	"gorm.io/gorm"
)

type OrderGormRepository struct {
	db *gorm.DB
}

func NewOrderGormRepository(db *gorm.DB) *OrderGormRepository {
	return &OrderGormRepository{db: db}
}

// 明細はposition順
func withItems(db *gorm.DB) *gorm.DB {
	return db.Preload("Items", func(tx *gorm.DB) *gorm.DB {
		return tx.Order("position asc")
	})
}

func (r *OrderGormRepository) FindByID(ctx context.Context, id string) (model.Order, error) {
	return r.findOne(ctx, "id = ?", id)
}

func (r *OrderGormRepository) FindByCode(ctx context.Context, code string) (model.Order, error) {
	return r.findOne(ctx, "order_code = ?", code)
}

func (r *OrderGormRepository) findOne(ctx context.Context, query string, arg string) (model.Order, error) {
	var o model.Order
	err := withItems(r.db.WithContext(ctx)).Where(query, arg).First(&o).Error
	if isNotFound(err) {
		return model.Order{}, repo.ErrNotFound
	}
	if err != nil {
		return model.Order{}, errors.Wrap(err, "find order")
	}
	return o, nil
}

func (r *OrderGormRepository) ListByUserID(ctx context.Context, userID string, page int, limit int) ([]model.Order, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&model.Order{}).
		Where("user_id = ?", userID).
		Count(&total).Error; err != nil {
		return []model.Order{}, 0, errors.Wrap(err, "count user orders")
	}

	var items []model.Order
	offset := (page - 1) * limit
	err := withItems(r.db.WithContext(ctx)).
		Where("user_id = ?", userID).
		Order("created_at desc").Order("id desc").
		Limit(limit).
		Offset(offset).
		Find(&items).Error
	if err != nil {
		return []model.Order{}, 0, errors.Wrap(err, "list user orders")
	}

	return items, total, nil
}

// 明細はgormのassociationで一緒に入る
func (r *OrderGormRepository) Create(ctx context.Context, order *model.Order) error {
	for i := range order.Items {
		order.Items[i].Position = i
	}
	if err := r.db.WithContext(ctx).Create(order).Error; err != nil {
		if isDuplicateKey(err) {
			return repo.ErrDuplicate
		}
		return errors.Wrap(err, "create order")
	}
	return nil
}

func (r *OrderGormRepository) UpdateFields(ctx context.Context, id string, u repo.OrderUpdate) error {
	updates := map[string]interface{}{}
	if u.OrderStatus != nil {
		updates["order_status"] = *u.OrderStatus
	}
	if u.PaymentStatus != nil {
		//payment_detail_statusはpayment_statusのミラー
		updates["payment_status"] = *u.PaymentStatus
		updates["payment_detail_status"] = *u.PaymentStatus
	}
	if u.Notes != nil {
		updates["notes"] = *u.Notes
	}
	if len(updates) == 0 {
		return nil
	}
	updates["updated_at"] = time.Now()

	res := r.db.WithContext(ctx).Model(&model.Order{}).
		Where("id = ?", id).
		Updates(updates)

	if res.Error != nil {
		return errors.Wrap(res.Error, "update order")
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

// LIKEのワイルドカードをエスケープ
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func (r *OrderGormRepository) ListAdmin(ctx context.Context, f repo.AdminOrderListFilter) ([]model.Order, int64, error) {
	if f.Page <= 0 {
		f.Page = 1
	}
	if f.Limit <= 0 || f.Limit > 100 {
		f.Limit = 50
	}

	q := r.db.WithContext(ctx).Model(&model.Order{})

	//status 絞り込み
	if f.Status != nil {
		q = q.Where("order_status = ?", *f.Status)
	}

	//注文番号・名前・メールの部分一致
	if s := strings.TrimSpace(f.Search); s != "" {
		like := "%" + escapeLike(s) + "%"
		q = q.Where("order_code ILIKE ? OR shipping_name ILIKE ? OR shipping_email ILIKE ?", like, like, like)
	}
	// Count と Find で同じ条件を使い回す
	q = q.Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return []model.Order{}, 0, errors.Wrap(err, "count admin orders")
	}

	var items []model.Order
	offset := (f.Page - 1) * f.Limit
	if err := withItems(q).
		Order("created_at desc").Order("id desc").
		Limit(f.Limit).Offset(offset).
		Find(&items).Error; err != nil {
		return []model.Order{}, 0, errors.Wrap(err, "list admin orders")
	}

	return items, total, nil
}

func (r *OrderGormRepository) CountByStatus(ctx context.Context) (map[model.OrderStatus]int64, error) {
	var rows []struct {
		OrderStatus model.OrderStatus
		Count       int64
	}
	if err := r.db.WithContext(ctx).Model(&model.Order{}).
		Select("order_status, COUNT(*) AS count").
		Group("order_status").
		Scan(&rows).Error; err != nil {
		return nil, errors.Wrap(err, "count orders by status")
	}

	counts := make(map[model.OrderStatus]int64, len(model.OrderStatuses))
	for _, st := range model.OrderStatuses {
		counts[st] = 0
	}
	for _, row := range rows {
		counts[row.OrderStatus] = row.Count
	}
	return counts, nil
}

func (r *OrderGormRepository) ListRecent(ctx context.Context, limit int) ([]model.Order, error) {
	var items []model.Order
	if err := r.db.WithContext(ctx).
		Order("created_at desc").Order("id desc").
		Limit(limit).
		Find(&items).Error; err != nil {
		return []model.Order{}, errors.Wrap(err, "list recent orders")
	}
	return items, nil
}

// (created_at, id) のキーセットで古い順に読む
func (r *OrderGormRepository) ScanWithItems(ctx context.Context, since *time.Time, batchSize int, fn func(batch []model.Order) error) error {
	if batchSize <= 0 {
		batchSize = 500
	}

	var (
		lastCreated time.Time
		lastID      string
		first       = true
	)
	for {
		q := withItems(r.db.WithContext(ctx))
		if since != nil {
			q = q.Where("created_at >= ?", *since)
		}
		if !first {
			q = q.Where("(created_at, id) > (?, ?)", lastCreated, lastID)
		}

		var batch []model.Order
		if err := q.Order("created_at asc").Order("id asc").
			Limit(batchSize).
			Find(&batch).Error; err != nil {
			return errors.Wrap(err, "scan orders")
		}
		if len(batch) == 0 {
			return nil
		}
		if err := fn(batch); err != nil {
			return err
		}
		if len(batch) < batchSize {
			return nil
		}

		last := batch[len(batch)-1]
		lastCreated, lastID, first = last.CreatedAt, last.ID, false
	}
}
