package handler

import (
	"net/http"

	"storefront/internal/usecase"

	"github.com/labstack/echo/v4"
)

type PaymentHandler struct {
	uc *usecase.PaymentUsecase
}

// DI
func NewPaymentHandler(uc *usecase.PaymentUsecase) *PaymentHandler {
	return &PaymentHandler{uc: uc}
}

// amountは数値でも文字列でも受ける
type CreatePaymentOrderRequest struct {
	Amount   interface{}            `json:"amount"`
	Currency string                 `json:"currency"`
	Receipt  string                 `json:"receipt"`
	Notes    map[string]interface{} `json:"notes"`
}

func (h *PaymentHandler) RegisterRoutes(g *echo.Group) {
	g.POST("/create-order", h.createOrder)
}

func (h *PaymentHandler) createOrder(c echo.Context) error {
	var req CreatePaymentOrderRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid amount"})
	}

	out, err := h.uc.CreateIntent(c.Request().Context(), usecase.CreateIntentInput{
		Amount:   req.Amount,
		Currency: req.Currency,
		Receipt:  req.Receipt,
		Notes:    req.Notes,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}
