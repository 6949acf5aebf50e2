package usecase

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// =====================
// in-memory store（TxRepos を満たす）
// =====================

// Postgresのuuid列と同じく、uuid以外の値は型エラーにする
func uuidColumn(v string) error {
	if _, err := uuid.Parse(v); err != nil {
		return errors.New(`invalid input syntax for type uuid: "` + v + `"`)
	}
	return nil
}

type memStore struct {
	cart    []model.CartItem
	orders  []model.Order
	catalog map[string]model.Product
	audits  []model.AuditLog
	now     time.Time
}

func newMemStore() *memStore {
	return &memStore{
		catalog: map[string]model.Product{},
		now:     time.Date(2026, time.March, 15, 12, 0, 0, 0, time.UTC),
	}
}

func (s *memStore) Orders() repo.OrderRepository        { return memOrders{s} }
func (s *memStore) CartItems() repo.CartItemRepository  { return memCart{s} }
func (s *memStore) Inventory() repo.InventoryRepository { return memInventory{s} }
func (s *memStore) Products() repo.ProductRepository    { return memProducts{s} }
func (s *memStore) AuditLogs() repo.AuditLogRepository  { return memAudits{s} }

func (s *memStore) addProduct(p model.Product) model.Product {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	s.catalog[p.ID] = p
	return p
}

// 重複行を直接入れる（古いデータの再現）
func (s *memStore) seedCart(userID, productID, weight string, qty int64) model.CartItem {
	s.now = s.now.Add(time.Second)
	item := model.CartItem{ID: uuid.NewString(), UserID: userID, ProductID: productID, Weight: weight, Quantity: qty, CreatedAt: s.now}
	s.cart = append(s.cart, item)
	return item
}

func (s *memStore) stock(productID, weight string) int64 {
	w, _ := s.catalog[productID].Weight(weight)
	return w.Quantity
}

type memSnapshot struct {
	cart    []model.CartItem
	orders  []model.Order
	catalog map[string]model.Product
	audits  []model.AuditLog
}

func (s *memStore) snapshot() memSnapshot {
	snap := memSnapshot{
		cart:    append([]model.CartItem(nil), s.cart...),
		orders:  append([]model.Order(nil), s.orders...),
		audits:  append([]model.AuditLog(nil), s.audits...),
		catalog: make(map[string]model.Product, len(s.catalog)),
	}
	for id, p := range s.catalog {
		p.Weights = append([]model.ProductWeight(nil), p.Weights...)
		snap.catalog[id] = p
	}
	return snap
}

func (s *memStore) restore(snap memSnapshot) {
	s.cart = snap.cart
	s.orders = snap.orders
	s.catalog = snap.catalog
	s.audits = snap.audits
}

// エラーならロールバック
type memTx struct {
	store *memStore
	calls int
}

func (m *memTx) WithinTx(ctx context.Context, fn func(r repo.TxRepos) error) error {
	m.calls++
	snap := m.store.snapshot()
	if err := fn(m.store); err != nil {
		m.store.restore(snap)
		return err
	}
	return nil
}

// =====================
// cart
// =====================

type memCart struct{ s *memStore }

func (r memCart) ListByUserID(ctx context.Context, userID string) ([]model.CartItem, error) {
	var out []model.CartItem
	for _, it := range r.s.cart {
		if it.UserID == userID {
			out = append(out, it)
		}
	}
	return out, nil
}

func (r memCart) UpsertQuantity(ctx context.Context, userID, productID, weight string, qty int64) error {
	for i, it := range r.s.cart {
		if it.UserID == userID && it.ProductID == productID && it.Weight == weight {
			r.s.cart[i].Quantity = qty
			return nil
		}
	}
	r.s.seedCart(userID, productID, weight, qty)
	return nil
}

func (r memCart) UpdateQuantity(ctx context.Context, cartItemID string, qty int64) error {
	for i, it := range r.s.cart {
		if it.ID == cartItemID {
			r.s.cart[i].Quantity = qty
			return nil
		}
	}
	return repo.ErrNotFound
}

func (r memCart) DeleteByID(ctx context.Context, cartItemID string) error {
	for i, it := range r.s.cart {
		if it.ID == cartItemID {
			r.s.cart = append(r.s.cart[:i], r.s.cart[i+1:]...)
			return nil
		}
	}
	return repo.ErrNotFound
}

func (r memCart) DeleteByKey(ctx context.Context, userID, productID, weight string) (model.CartItem, error) {
	if err := uuidColumn(productID); err != nil {
		return model.CartItem{}, err
	}
	for i, it := range r.s.cart {
		if it.UserID == userID && it.ProductID == productID && it.Weight == weight {
			r.s.cart = append(r.s.cart[:i], r.s.cart[i+1:]...)
			return it, nil
		}
	}
	return model.CartItem{}, repo.ErrNotFound
}

func (r memCart) DeleteByUserID(ctx context.Context, userID string) (int64, error) {
	kept := r.s.cart[:0]
	var n int64
	for _, it := range r.s.cart {
		if it.UserID == userID {
			n++
			continue
		}
		kept = append(kept, it)
	}
	r.s.cart = kept
	return n, nil
}

func (r memCart) ListUsersWithDuplicates(ctx context.Context) ([]string, error) {
	seen := map[string]map[model.CartKey]int{}
	var users []string
	for _, it := range r.s.cart {
		if seen[it.UserID] == nil {
			seen[it.UserID] = map[model.CartKey]int{}
		}
		seen[it.UserID][it.Key()]++
		if seen[it.UserID][it.Key()] == 2 {
			users = append(users, it.UserID)
		}
	}
	return users, nil
}

// =====================
// orders
// =====================

type memOrders struct{ s *memStore }

func (r memOrders) FindByID(ctx context.Context, id string) (model.Order, error) {
	for _, o := range r.s.orders {
		if o.ID == id {
			return o, nil
		}
	}
	return model.Order{}, repo.ErrNotFound
}

func (r memOrders) FindByCode(ctx context.Context, code string) (model.Order, error) {
	for _, o := range r.s.orders {
		if o.Code == code {
			return o, nil
		}
	}
	return model.Order{}, repo.ErrNotFound
}

func (r memOrders) ListByUserID(ctx context.Context, userID string, page, limit int) ([]model.Order, int64, error) {
	var out []model.Order
	for _, o := range r.s.orders {
		if o.IsOwnedBy(userID) {
			out = append(out, o)
		}
	}
	return out, int64(len(out)), nil
}

func (r memOrders) Create(ctx context.Context, order *model.Order) error {
	for _, o := range r.s.orders {
		if o.Code == order.Code {
			return repo.ErrDuplicate
		}
	}
	if order.ID == "" {
		order.ID = uuid.NewString()
	}
	r.s.now = r.s.now.Add(time.Second)
	order.CreatedAt = r.s.now
	order.UpdatedAt = r.s.now
	for i := range order.Items {
		order.Items[i].OrderID = order.ID
		order.Items[i].Position = i
	}
	r.s.orders = append(r.s.orders, *order)
	return nil
}

func (r memOrders) UpdateFields(ctx context.Context, id string, u repo.OrderUpdate) error {
	for i, o := range r.s.orders {
		if o.ID != id {
			continue
		}
		if u.OrderStatus != nil {
			r.s.orders[i].OrderStatus = *u.OrderStatus
		}
		if u.PaymentStatus != nil {
			r.s.orders[i].PaymentStatus = *u.PaymentStatus
			r.s.orders[i].PaymentDetails.Status = *u.PaymentStatus
		}
		if u.Notes != nil {
			r.s.orders[i].Notes = *u.Notes
		}
		return nil
	}
	return repo.ErrNotFound
}

func (r memOrders) ListAdmin(ctx context.Context, f repo.AdminOrderListFilter) ([]model.Order, int64, error) {
	var out []model.Order
	for _, o := range r.s.orders {
		if f.Status != nil && o.OrderStatus != *f.Status {
			continue
		}
		if f.Search != "" && !strings.Contains(strings.ToLower(o.Code+" "+o.ShippingAddress.Name+" "+o.ShippingAddress.Email), strings.ToLower(f.Search)) {
			continue
		}
		out = append(out, o)
	}
	return out, int64(len(out)), nil
}

func (r memOrders) CountByStatus(ctx context.Context) (map[model.OrderStatus]int64, error) {
	out := map[model.OrderStatus]int64{}
	for _, st := range model.OrderStatuses {
		out[st] = 0
	}
	for _, o := range r.s.orders {
		out[o.OrderStatus]++
	}
	return out, nil
}

func (r memOrders) ListRecent(ctx context.Context, limit int) ([]model.Order, error) {
	out := append([]model.Order(nil), r.s.orders...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r memOrders) ScanWithItems(ctx context.Context, since *time.Time, batchSize int, fn func([]model.Order) error) error {
	all := append([]model.Order(nil), r.s.orders...)
	sort.SliceStable(all, func(i, j int) bool { return all[i].CreatedAt.Before(all[j].CreatedAt) })
	for start := 0; start < len(all); start += batchSize {
		end := min(start+batchSize, len(all))
		if err := fn(all[start:end]); err != nil {
			return err
		}
	}
	return nil
}

// =====================
// catalog / inventory / audit
// =====================

type memProducts struct{ s *memStore }

func (r memProducts) FindByID(ctx context.Context, id string) (model.Product, error) {
	if err := uuidColumn(id); err != nil {
		return model.Product{}, err
	}
	p, ok := r.s.catalog[id]
	if !ok {
		return model.Product{}, repo.ErrNotFound
	}
	return p, nil
}

func (r memProducts) FindByIDs(ctx context.Context, ids []string) ([]model.Product, error) {
	var out []model.Product
	for _, id := range ids {
		if p, ok := r.s.catalog[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r memProducts) ListLowStock(ctx context.Context, threshold int64, limit int) ([]model.Product, error) {
	var out []model.Product
	for _, p := range r.s.catalog {
		if len(p.Weights) > 0 && p.LowestStock() < threshold {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type memInventory struct{ s *memStore }

func (r memInventory) adjust(productID, weight string, delta int64, guard bool) (bool, error) {
	p, ok := r.s.catalog[productID]
	if !ok {
		return false, repo.ErrNotFound
	}
	weights := append([]model.ProductWeight(nil), p.Weights...)
	for i, w := range weights {
		if w.Label != weight {
			continue
		}
		if guard && w.Quantity+delta < 0 {
			return false, nil
		}
		weights[i].Quantity += delta
		p.Weights = weights
		r.s.catalog[productID] = p
		return true, nil
	}
	return false, repo.ErrNotFound
}

func (r memInventory) DecreaseWeightStockIfEnough(ctx context.Context, productID, weight string, qty int64) (bool, error) {
	ok, err := r.adjust(productID, weight, -qty, true)
	if err == repo.ErrNotFound {
		return false, nil
	}
	return ok, err
}

func (r memInventory) IncreaseWeightStock(ctx context.Context, productID, weight string, qty int64) error {
	_, err := r.adjust(productID, weight, qty, false)
	return err
}

type memAudits struct{ s *memStore }

func (r memAudits) Create(ctx context.Context, log model.AuditLog) error {
	r.s.audits = append(r.s.audits, log)
	return nil
}

func (r memAudits) List(ctx context.Context, f repo.AuditLogFilter) ([]model.AuditLog, error) {
	var out []model.AuditLog
	for i := len(r.s.audits) - 1; i >= 0; i-- {
		l := r.s.audits[i]
		if f.ResourceID != nil && l.ResourceID != *f.ResourceID {
			continue
		}
		if f.ResourceType != nil && l.ResourceType != *f.ResourceType {
			continue
		}
		out = append(out, l)
	}
	return out, nil
}

// =====================
// users
// =====================

type memUsers struct {
	users []model.User
}

func (r *memUsers) Create(ctx context.Context, u *model.User) error {
	r.users = append(r.users, *u)
	return nil
}

func (r *memUsers) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	for i := range r.users {
		if r.users[i].Email == email {
			return &r.users[i], nil
		}
	}
	return nil, nil
}

func (r *memUsers) CountCustomers(ctx context.Context, from, to *time.Time) (int64, error) {
	var n int64
	for _, u := range r.users {
		if u.Role != model.RoleUser {
			continue
		}
		if from != nil && u.CreatedAt.Before(*from) {
			continue
		}
		if to != nil && !u.CreatedAt.Before(*to) {
			continue
		}
		n++
	}
	return n, nil
}

func (r *memUsers) ListRecentCustomers(ctx context.Context, limit int) ([]model.User, error) {
	var out []model.User
	for _, u := range r.users {
		if u.Role == model.RoleUser {
			out = append(out, u)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// =====================
// mocks
// =====================

type NotifierMock struct{ mock.Mock }

func (m *NotifierMock) SendOrderConfirmation(ctx context.Context, order model.Order) error {
	args := m.Called(ctx, order.Code)
	return args.Error(0)
}

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

type fixedCodes struct{ codes []string }

func (c *fixedCodes) NewCode() string {
	code := c.codes[0]
	c.codes = c.codes[1:]
	return code
}

type okValidator struct{}

func (okValidator) ValidateShipping(ctx context.Context, addr model.ShippingAddress) error { return nil }
