package handler

import (
	"net/http"

	"storefront/internal/usecase"

	"github.com/labstack/echo/v4"
)

// 管理者向け注文API（AdminSessionGuardの内側）
type AdminOrderHandler struct {
	uc *usecase.AdminOrderUsecase
}

// DI
func NewAdminOrderHandler(uc *usecase.AdminOrderUsecase) *AdminOrderHandler {
	return &AdminOrderHandler{uc: uc}
}

// 送られたキーだけ更新する
type UpdateOrderRequest struct {
	OrderStatus   *string `json:"orderStatus"`
	PaymentStatus *string `json:"paymentStatus"`
	Notes         *string `json:"notes"`
}

type AdminOrderResponse struct {
	Order usecase.AdminOrderDetail `json:"order"`
}

type AdminOrderUpdatedResponse struct {
	Message string                    `json:"message"`
	Order   usecase.AdminOrderSummary `json:"order"`
}

func (h *AdminOrderHandler) RegisterRoutes(g *echo.Group) {
	g.GET("", h.list)
	g.GET("/:orderId", h.get)
	g.PATCH("/:orderId", h.update)
}

// GET /admin/orders?status=&search=&page=&limit=
func (h *AdminOrderHandler) list(c echo.Context) error {
	page, err := intQuery(c, "page", 1)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid page"})
	}
	limit, err := intQuery(c, "limit", 50)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid limit"})
	}

	out, err := h.uc.List(c.Request().Context(), usecase.AdminOrderListInput{
		Status: c.QueryParam("status"),
		Search: c.QueryParam("search"),
		Page:   page,
		Limit:  limit,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *AdminOrderHandler) get(c echo.Context) error {
	o, err := h.uc.Get(c.Request().Context(), c.Param("orderId"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, AdminOrderResponse{Order: o})
}

func (h *AdminOrderHandler) update(c echo.Context) error {
	actorID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	var req UpdateOrderRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	out, err := h.uc.Update(c.Request().Context(), actorID, c.Param("orderId"), usecase.UpdateOrderInput{
		OrderStatus:   req.OrderStatus,
		PaymentStatus: req.PaymentStatus,
		Notes:         req.Notes,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, AdminOrderUpdatedResponse{Message: "Order updated successfully", Order: out})
}
