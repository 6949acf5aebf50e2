package handler

import (
	"net/http"

	"storefront/internal/domain/model"
	"storefront/internal/usecase"

	"github.com/labstack/echo/v4"
)

// /cartのHTTP
type CartHandler struct {
	uc *usecase.CartUsecase
}

// DI
func NewCartHandler(uc *usecase.CartUsecase) *CartHandler {
	return &CartHandler{uc: uc}
}

type UpsertCartRequest struct {
	ProductID string `json:"productId"`
	Weight    string `json:"weight"`
	Quantity  int64  `json:"quantity"`
}

// bodyもqueryも無ければ全削除
type DeleteCartRequest struct {
	ProductID string `json:"productId" query:"productId"`
	Weight    string `json:"weight" query:"weight"`
}

type CartResponse struct {
	Cart []model.CartItem `json:"cart"`
}

type CartClearedResponse struct {
	Message      string `json:"message"`
	DeletedCount int64  `json:"deletedCount"`
}

type CartItemRemovedResponse struct {
	Message     string         `json:"message"`
	DeletedItem model.CartItem `json:"deletedItem"`
}

// /cart, /cart/dedupe を登録（AuthJWTはserver側でかける）
func (h *CartHandler) RegisterRoutes(g *echo.Group) {
	g.GET("", h.list)
	g.POST("", h.upsert)
	g.DELETE("", h.delete)
	g.POST("/dedupe", h.dedupe)
}

func (h *CartHandler) list(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	items, err := h.uc.List(c.Request().Context(), userID)
	if err != nil {
		return writeError(c, err)
	}
	if items == nil {
		items = []model.CartItem{}
	}

	return c.JSON(http.StatusOK, CartResponse{Cart: items})
}

func (h *CartHandler) upsert(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	var req UpsertCartRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid data"})
	}

	if err := h.uc.AddOrUpdate(c.Request().Context(), userID, req.ProductID, req.Weight, req.Quantity); err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, MessageResponse{Message: "Cart updated successfully"})
}

func (h *CartHandler) delete(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	// 壊れたbodyは400。全削除として扱わない
	var req DeleteCartRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid data"})
	}

	ctx := c.Request().Context()

	// キーが揃っていなければカートを空にする
	if req.ProductID == "" || req.Weight == "" {
		n, err := h.uc.Clear(ctx, userID)
		if err != nil {
			return writeError(c, err)
		}
		return c.JSON(http.StatusOK, CartClearedResponse{Message: "Cart cleared", DeletedCount: n})
	}

	item, err := h.uc.Remove(ctx, userID, req.ProductID, req.Weight)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, CartItemRemovedResponse{Message: "Cart item removed", DeletedItem: item})
}

func (h *CartHandler) dedupe(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	n, err := h.uc.Deduplicate(c.Request().Context(), userID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, CartClearedResponse{Message: "Cart deduplicated successfully", DeletedCount: n})
}
