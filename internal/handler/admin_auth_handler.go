package handler

import (
	"errors"
	"net/http"
	"time"

	"storefront/internal/middleware"
	"storefront/internal/observability"
	auth "storefront/internal/usecase/auth_usecase"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// 管理画面のログイン/ログアウト
type AdminAuthHandler struct {
	login        *auth.AdminLoginUsecase
	secureCookie bool
}

// DI。本番ではCookieをSecureにする
func NewAdminAuthHandler(login *auth.AdminLoginUsecase, secureCookie bool) *AdminAuthHandler {
	return &AdminAuthHandler{login: login, secureCookie: secureCookie}
}

type AdminLoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type AdminLoginResponse struct {
	Message   string    `json:"message"`
	UserID    string    `json:"userId"`
	Email     string    `json:"email"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// /admin/login はAdminSessionGuardの外に置くこと
func (h *AdminAuthHandler) RegisterRoutes(g *echo.Group) {
	g.POST("/login", h.loginHandler)
	g.POST("/logout", h.logoutHandler)
}

func (h *AdminAuthHandler) loginHandler(c echo.Context) error {
	var req AdminLoginRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	ctx := c.Request().Context()
	out, err := h.login.Execute(ctx, auth.LoginInput{Email: req.Email, Password: req.Password})
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Invalid credentials"})
		}
		observability.FromContext(ctx).Error("admin login failed", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
	}

	c.SetCookie(&http.Cookie{
		Name:     middleware.AdminCookieName,
		Value:    out.Token,
		Path:     "/",
		Expires:  out.ExpiresAt,
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})

	return c.JSON(http.StatusOK, AdminLoginResponse{
		Message:   "Login successful",
		UserID:    out.UserID,
		Email:     out.Email,
		ExpiresAt: out.ExpiresAt,
	})
}

// Cookieを消すだけ。トークン自体は期限まで有効
func (h *AdminAuthHandler) logoutHandler(c echo.Context) error {
	c.SetCookie(&http.Cookie{
		Name:     middleware.AdminCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
	return c.JSON(http.StatusOK, MessageResponse{Message: "Logged out"})
}
