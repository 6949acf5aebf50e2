package server

import (
	"storefront/internal/middleware"

	"github.com/labstack/echo/v4"
)

func RegisterRoutes(e *echo.Echo, h Handlers, jwtSecret string) {
	requireAuth := middleware.AuthJWT(jwtSecret)

	if h.Health != nil {
		h.Health.RegisterRoutes(e)
	}

	//ログイン必須
	h.Cart.RegisterRoutes(e.Group("/cart", requireAuth))

	//ゲスト購入あり。一覧だけ必須
	h.Orders.RegisterRoutes(e.Group("/orders", middleware.OptionalAuthJWT(jwtSecret)), requireAuth)

	h.Payments.RegisterRoutes(e.Group("/payment"))

	registerAdminRoutes(e.Group("/admin"), h, jwtSecret)
}

func registerAdminRoutes(admin *echo.Group, h Handlers, jwtSecret string) {
	//login / logout はガードの外
	h.AdminAuth.RegisterRoutes(admin)

	guard := middleware.AdminSessionGuard(jwtSecret)
	h.Admin.RegisterRoutes(admin.Group("/orders", guard))
	h.Analytics.RegisterRoutes(admin.Group("/analytics", guard))
}
