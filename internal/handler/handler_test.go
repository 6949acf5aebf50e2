package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"storefront/internal/domain/model"
	"storefront/internal/middleware"
	"storefront/internal/payments"
	repo "storefront/internal/repository"
	"storefront/internal/usecase"
	auth "storefront/internal/usecase/auth_usecase"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// =====================
// fakes
// =====================

type fakeCartRepo struct {
	repo.CartItemRepository
	items []model.CartItem
}

func (r *fakeCartRepo) ListByUserID(ctx context.Context, userID string) ([]model.CartItem, error) {
	var out []model.CartItem
	for _, it := range r.items {
		if it.UserID == userID {
			out = append(out, it)
		}
	}
	return out, nil
}

func (r *fakeCartRepo) UpsertQuantity(ctx context.Context, userID, productID, weight string, qty int64) error {
	for i, it := range r.items {
		if it.UserID == userID && it.ProductID == productID && it.Weight == weight {
			r.items[i].Quantity = qty
			return nil
		}
	}
	r.items = append(r.items, model.CartItem{ID: uuid.NewString(), UserID: userID, ProductID: productID, Weight: weight, Quantity: qty})
	return nil
}

func (r *fakeCartRepo) DeleteByKey(ctx context.Context, userID, productID, weight string) (model.CartItem, error) {
	for i, it := range r.items {
		if it.UserID == userID && it.ProductID == productID && it.Weight == weight {
			r.items = append(r.items[:i], r.items[i+1:]...)
			return it, nil
		}
	}
	return model.CartItem{}, repo.ErrNotFound
}

func (r *fakeCartRepo) DeleteByUserID(ctx context.Context, userID string) (int64, error) {
	var kept []model.CartItem
	var n int64
	for _, it := range r.items {
		if it.UserID == userID {
			n++
			continue
		}
		kept = append(kept, it)
	}
	r.items = kept
	return n, nil
}

type fakeOrderRepo struct {
	repo.OrderRepository
	orders []model.Order
}

func (r *fakeOrderRepo) FindByCode(ctx context.Context, code string) (model.Order, error) {
	for _, o := range r.orders {
		if o.Code == code {
			return o, nil
		}
	}
	return model.Order{}, repo.ErrNotFound
}

func (r *fakeOrderRepo) FindByID(ctx context.Context, id string) (model.Order, error) {
	for _, o := range r.orders {
		if o.ID == id {
			return o, nil
		}
	}
	return model.Order{}, repo.ErrNotFound
}

type fakeProvider struct{}

func (fakeProvider) Name() string { return "fake" }

func (fakeProvider) CreateOrder(ctx context.Context, req payments.OrderRequest) (payments.GatewayOrder, error) {
	return payments.GatewayOrder{ID: "order_1", Amount: req.Amount, Currency: req.Currency, KeyID: "rzp_key"}, nil
}

type fakeUsers struct {
	repo.UserRepository
	user *model.User
}

func (r *fakeUsers) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	if r.user != nil && r.user.Email == email {
		return r.user, nil
	}
	return nil, nil
}

type fakeIssuer struct{}

func (fakeIssuer) Issue(userID string, role model.Role, now time.Time) (string, time.Time, error) {
	return "token-for-" + userID, now.Add(time.Hour), nil
}

type allowLogin struct{}

func (allowLogin) ValidateLogin(ctx context.Context, email, password string) error { return nil }

type fixedClock struct{}

func (fixedClock) Now() time.Time { return time.Date(2026, time.March, 15, 12, 0, 0, 0, time.UTC) }

// =====================
// helpers
// =====================

func do(e *echo.Echo, method, path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

// AuthJWTの代わりにuser_idを入れる
func asUser(userID string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if userID != "" {
				c.Set(middleware.CtxUserIDKey, userID)
			}
			return next(c)
		}
	}
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v))
}

// =====================
// /cart
// =====================

func TestCartHandler_Flow(t *testing.T) {
	cartRepo := &fakeCartRepo{}
	e := echo.New()
	NewCartHandler(usecase.NewCartUsecase(cartRepo)).RegisterRoutes(e.Group("/cart", asUser("u1")))
	productID := uuid.NewString()

	rec := do(e, http.MethodPost, "/cart", UpsertCartRequest{ProductID: productID, Weight: "500g", Quantity: 2})
	require.Equal(t, http.StatusOK, rec.Code)
	var msg MessageResponse
	decode(t, rec, &msg)
	assert.Equal(t, "Cart updated successfully", msg.Message)

	rec = do(e, http.MethodPost, "/cart", UpsertCartRequest{ProductID: productID, Weight: "500g", Quantity: 5})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(e, http.MethodGet, "/cart", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var cart CartResponse
	decode(t, rec, &cart)
	require.Len(t, cart.Cart, 1)
	assert.Equal(t, int64(5), cart.Cart[0].Quantity)

	rec = do(e, http.MethodPost, "/cart", UpsertCartRequest{ProductID: productID, Weight: "500g", Quantity: 0})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	var errBody ErrorResponse
	decode(t, rec, &errBody)
	assert.Equal(t, "Invalid data", errBody.Error)

	rec = do(e, http.MethodDelete, "/cart?productId="+productID+"&weight=500g", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var removed CartItemRemovedResponse
	decode(t, rec, &removed)
	assert.Equal(t, "Cart item removed", removed.Message)
	assert.Equal(t, productID, removed.DeletedItem.ProductID)

	rec = do(e, http.MethodDelete, "/cart", DeleteCartRequest{ProductID: productID, Weight: "500g"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCartHandler_DeleteWithoutKeyClearsCart(t *testing.T) {
	cartRepo := &fakeCartRepo{items: []model.CartItem{
		{ID: "1", UserID: "u1", ProductID: "p1", Weight: "250g", Quantity: 1},
		{ID: "2", UserID: "u1", ProductID: "p2", Weight: "250g", Quantity: 1},
	}}
	e := echo.New()
	NewCartHandler(usecase.NewCartUsecase(cartRepo)).RegisterRoutes(e.Group("/cart", asUser("u1")))

	rec := do(e, http.MethodDelete, "/cart", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body CartClearedResponse
	decode(t, rec, &body)
	assert.Equal(t, CartClearedResponse{Message: "Cart cleared", DeletedCount: 2}, body)
	assert.Empty(t, cartRepo.items)
}

func TestCartHandler_DeleteWithBrokenBodyKeepsCart(t *testing.T) {
	cartRepo := &fakeCartRepo{items: []model.CartItem{
		{ID: "1", UserID: "u1", ProductID: uuid.NewString(), Weight: "250g", Quantity: 1},
	}}
	e := echo.New()
	NewCartHandler(usecase.NewCartUsecase(cartRepo)).RegisterRoutes(e.Group("/cart", asUser("u1")))

	// 壊れたJSONで全削除にはしない
	req := httptest.NewRequest(http.MethodDelete, "/cart", bytes.NewBufferString(`{"productId":`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	var errBody ErrorResponse
	decode(t, rec, &errBody)
	assert.Equal(t, "Invalid data", errBody.Error)
	assert.Len(t, cartRepo.items, 1)
}

func TestCartHandler_RequiresUser(t *testing.T) {
	e := echo.New()
	NewCartHandler(usecase.NewCartUsecase(&fakeCartRepo{})).RegisterRoutes(e.Group("/cart", asUser("")))

	rec := do(e, http.MethodGet, "/cart", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

// =====================
// /orders/:orderId
// =====================

func TestOrderHandler_GetByCodeOrID(t *testing.T) {
	orders := &fakeOrderRepo{orders: []model.Order{{ID: uuid.NewString(), Code: "ORD-1001", Pricing: model.Pricing{Total: 900}}}}
	uc := usecase.NewOrderUsecase(nil, orders, usecase.PricingRules{}, usecase.ULIDOrderCodes{}, nil, nil)

	e := echo.New()
	NewOrderHandler(uc).RegisterRoutes(e.Group("/orders", asUser("")), asUser(""))

	rec := do(e, http.MethodGet, "/orders/ORD-1001", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var body OrderResponse
	decode(t, rec, &body)
	assert.Equal(t, "ORD-1001", body.Order.Code)
	assert.Equal(t, int64(900), body.Order.Pricing.Total)

	rec = do(e, http.MethodGet, "/orders/"+orders.orders[0].ID, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(e, http.MethodGet, "/orders/ORD-9999", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	var errBody ErrorResponse
	decode(t, rec, &errBody)
	assert.Equal(t, "Order not found", errBody.Error)
}

// =====================
// /payment/create-order
// =====================

func TestPaymentHandler_CreateOrder(t *testing.T) {
	uc := usecase.NewPaymentUsecase(fakeProvider{}, "INR", time.Second, fixedClock{})
	e := echo.New()
	NewPaymentHandler(uc).RegisterRoutes(e.Group("/payment"))

	rec := do(e, http.MethodPost, "/payment/create-order", map[string]interface{}{"amount": 500})
	require.Equal(t, http.StatusOK, rec.Code)
	var out usecase.CreateIntentOutput
	decode(t, rec, &out)
	assert.Equal(t, usecase.CreateIntentOutput{Success: true, OrderID: "order_1", Amount: 500, Currency: "INR", KeyID: "rzp_key"}, out)

	rec = do(e, http.MethodPost, "/payment/create-order", map[string]interface{}{"amount": 50})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	var errBody ErrorResponse
	decode(t, rec, &errBody)
	assert.Equal(t, "Minimum order amount is ₹1", errBody.Error)
}

// =====================
// /admin/login
// =====================

func TestAdminAuthHandler_LoginSetsCookie(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("right-password"), bcrypt.MinCost)
	require.NoError(t, err)
	users := &fakeUsers{user: &model.User{ID: "a1", Email: "ops@example.com", Role: model.RoleAdmin, PasswordHash: string(hash)}}

	login := auth.NewAdminLoginUsecase(users, auth.NewBcryptPasswordVerifier(), fakeIssuer{}, allowLogin{}, fixedClock{})
	e := echo.New()
	NewAdminAuthHandler(login, true).RegisterRoutes(e.Group("/admin"))

	rec := do(e, http.MethodPost, "/admin/login", AdminLoginRequest{Email: "ops@example.com", Password: "right-password"})
	require.Equal(t, http.StatusOK, rec.Code)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, middleware.AdminCookieName, cookies[0].Name)
	assert.Equal(t, "token-for-a1", cookies[0].Value)
	assert.True(t, cookies[0].HttpOnly)
	assert.True(t, cookies[0].Secure)

	rec = do(e, http.MethodPost, "/admin/login", AdminLoginRequest{Email: "ops@example.com", Password: "nope"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Empty(t, rec.Result().Cookies())

	rec = do(e, http.MethodPost, "/admin/logout", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	cookies = rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Empty(t, cookies[0].Value)
	assert.Equal(t, -1, cookies[0].MaxAge)
}

func TestWriteError_UnknownErrorIs500(t *testing.T) {
	e := echo.New()
	e.GET("/x", func(c echo.Context) error {
		return writeError(c, assert.AnError)
	})
	e.GET("/y", func(c echo.Context) error {
		return writeError(c, usecase.NewHTTPError(http.StatusConflict, "cannot change order status"))
	})

	rec := do(e, http.MethodGet, "/x", nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	rec = do(e, http.MethodGet, "/y", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
	var body ErrorResponse
	decode(t, rec, &body)
	assert.Equal(t, "cannot change order status", body.Error)
}
