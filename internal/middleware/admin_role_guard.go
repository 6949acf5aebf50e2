package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// 管理画面のセッションCookie
const AdminCookieName = "adminToken"

// adminToken Cookie のJWTを検証し、roleがadminかどうかを確認します。
// /admin/login はルーティング側でこのガードの外に置く
func AdminSessionGuard(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			cookie, err := c.Cookie(AdminCookieName)
			if err != nil || cookie.Value == "" {
				return c.JSON(http.StatusUnauthorized, errorJSON("unauthorized"))
			}

			claims, err := parseHS256(cookie.Value, secret)
			if err != nil {
				return c.JSON(http.StatusUnauthorized, errorJSON("unauthorized"))
			}

			userID := claimString(claims, "sub")
			role := claimString(claims, "role")
			if !isUUID(userID) {
				return c.JSON(http.StatusUnauthorized, errorJSON("unauthorized"))
			}

			//userは拒否、adminだけ許可
			if role != "admin" {
				return c.JSON(http.StatusUnauthorized, errorJSON("unauthorized"))
			}

			c.Set(CtxUserIDKey, userID)
			c.Set(CtxUserRoleKey, role)
			return next(c)
		}
	}
}
