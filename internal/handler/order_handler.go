package handler

import (
	"net/http"
	"strconv"

	"storefront/internal/domain/model"
	"storefront/internal/usecase"

	"github.com/labstack/echo/v4"
)

type OrderHandler struct {
	uc *usecase.OrderUsecase
}

// DI
func NewOrderHandler(uc *usecase.OrderUsecase) *OrderHandler {
	return &OrderHandler{uc: uc}
}

type CheckoutItemRequest struct {
	ProductID string `json:"productId"`
	Weight    string `json:"weight"`
	Quantity  int64  `json:"quantity"`
}

type PaymentDetailsRequest struct {
	Method         string `json:"method"`
	TransactionID  string `json:"transactionId"`
	GatewayOrderID string `json:"gatewayOrderId"`
}

type CreateOrderRequest struct {
	Items           []CheckoutItemRequest `json:"items"`
	ShippingAddress model.ShippingAddress `json:"shippingAddress"`
	PaymentDetails  PaymentDetailsRequest `json:"paymentDetails"`
	PaymentStatus   string                `json:"paymentStatus"`
}

type OrderResponse struct {
	Order model.Order `json:"order"`
}

type OrderCreatedResponse struct {
	Message string      `json:"message"`
	Order   model.Order `json:"order"`
}

type OrderListResponse struct {
	Orders     []model.Order      `json:"orders"`
	Pagination usecase.Pagination `json:"pagination"`
}

// auth はAuthJWT。/orders の取得・作成は未ログインでも使える
func (h *OrderHandler) RegisterRoutes(g *echo.Group, auth echo.MiddlewareFunc) {
	g.GET("", h.listMine, auth)
	g.POST("", h.create)
	g.GET("/:orderId", h.get)
}

// 注文番号さえあれば見られる（確認ページ用）
func (h *OrderHandler) get(c echo.Context) error {
	viewerID, _ := getUserIDFromContext(c)

	o, err := h.uc.Get(c.Request().Context(), c.Param("orderId"), viewerID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, OrderResponse{Order: o})
}

func (h *OrderHandler) create(c echo.Context) error {
	userID, _ := getUserIDFromContext(c)

	var req CreateOrderRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	items := make([]usecase.CheckoutItemInput, 0, len(req.Items))
	for _, it := range req.Items {
		items = append(items, usecase.CheckoutItemInput{
			ProductID: it.ProductID,
			Weight:    it.Weight,
			Quantity:  it.Quantity,
		})
	}

	o, err := h.uc.Checkout(c.Request().Context(), usecase.CheckoutInput{
		UserID:          userID,
		Items:           items,
		ShippingAddress: req.ShippingAddress,
		PaymentMethod:   req.PaymentDetails.Method,
		TransactionID:   req.PaymentDetails.TransactionID,
		GatewayOrderID:  req.PaymentDetails.GatewayOrderID,
		PaymentStatus:   req.PaymentStatus,
	})
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusCreated, OrderCreatedResponse{Message: "Order created successfully", Order: o})
}

func (h *OrderHandler) listMine(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	page, err := intQuery(c, "page", 1)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid page"})
	}
	limit, err := intQuery(c, "limit", 20)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid limit"})
	}

	orders, total, err := h.uc.ListMine(c.Request().Context(), userID, page, limit)
	if err != nil {
		return writeError(c, err)
	}
	if orders == nil {
		orders = []model.Order{}
	}
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	return c.JSON(http.StatusOK, OrderListResponse{
		Orders: orders,
		Pagination: usecase.Pagination{
			Page:       page,
			Limit:      limit,
			Total:      total,
			TotalPages: (total + int64(limit) - 1) / int64(limit),
		},
	})
}

func intQuery(c echo.Context, name string, def int) (int, error) {
	v := c.QueryParam(name)
	if v == "" {
		return def, nil
	}
	return strconv.Atoi(v)
}
