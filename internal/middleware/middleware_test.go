package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"storefront/internal/observability"

	"github.com/golang-jwt/jwt/v4"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

const testSecret = "test-secret"

const (
	userA  = "0f5b8c1e-2d3a-4b6c-9e7f-1a2b3c4d5e6f"
	userB  = "7c9e6679-7425-40de-944b-e07fc1f90ae7"
	adminA = "3b241101-e2bb-4255-8caf-4136c566a962"
)

// =====================
// レスポンス確認用
// =====================

type mwOKResponse struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
}

func sign(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return s
}

func whoAmI(c echo.Context) error {
	role, _ := c.Get(CtxUserRoleKey).(string)
	return c.JSON(http.StatusOK, mwOKResponse{UserID: UserID(c), Role: role})
}

func serve(e *echo.Echo, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestAuthJWT(t *testing.T) {
	e := echo.New()
	e.GET("/me", whoAmI, AuthJWT(testSecret))

	exp := time.Now().Add(time.Hour).Unix()
	cases := []struct {
		name   string
		header string
		status int
		userID string
	}{
		{"userId claim", "Bearer " + sign(t, testSecret, jwt.MapClaims{"userId": userA, "exp": exp}), http.StatusOK, userA},
		{"sub fallback", "bearer " + sign(t, testSecret, jwt.MapClaims{"sub": userB, "exp": exp}), http.StatusOK, userB},
		{"missing header", "", http.StatusUnauthorized, ""},
		{"not bearer", "Basic abc", http.StatusUnauthorized, ""},
		{"wrong secret", "Bearer " + sign(t, "other", jwt.MapClaims{"sub": userA, "exp": exp}), http.StatusUnauthorized, ""},
		{"expired", "Bearer " + sign(t, testSecret, jwt.MapClaims{"sub": userA, "exp": time.Now().Add(-time.Minute).Unix()}), http.StatusUnauthorized, ""},
		{"no subject", "Bearer " + sign(t, testSecret, jwt.MapClaims{"exp": exp}), http.StatusUnauthorized, ""},
		{"object id subject", "Bearer " + sign(t, testSecret, jwt.MapClaims{"userId": "64b7f0c2a1e4d3b2c1a09f87", "exp": exp}), http.StatusUnauthorized, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tc.header != "" {
				req.Header.Set(echo.HeaderAuthorization, tc.header)
			}
			rec := serve(e, req)
			assert.Equal(t, tc.status, rec.Code)
			if tc.status == http.StatusOK {
				var body mwOKResponse
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
				assert.Equal(t, tc.userID, body.UserID)
			}
		})
	}
}

func TestOptionalAuthJWT_PassesAnonymousRequests(t *testing.T) {
	e := echo.New()
	e.GET("/orders/x", whoAmI, OptionalAuthJWT(testSecret))

	req := httptest.NewRequest(http.MethodGet, "/orders/x", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer garbage")
	rec := serve(e, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var body mwOKResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Empty(t, body.UserID)

	req = httptest.NewRequest(http.MethodGet, "/orders/x", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+sign(t, testSecret, jwt.MapClaims{"sub": userB}))
	rec = serve(e, req)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, userB, body.UserID)

	// uuidでないIDは匿名扱い
	req = httptest.NewRequest(http.MethodGet, "/orders/x", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+sign(t, testSecret, jwt.MapClaims{"sub": "guest-7"}))
	rec = serve(e, req)
	body = mwOKResponse{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Empty(t, body.UserID)
}

func TestAdminSessionGuard(t *testing.T) {
	e := echo.New()
	e.GET("/admin/orders", whoAmI, AdminSessionGuard(testSecret))

	exp := time.Now().Add(time.Hour).Unix()
	cases := []struct {
		name   string
		cookie string
		status int
	}{
		{"admin", sign(t, testSecret, jwt.MapClaims{"sub": adminA, "role": "admin", "exp": exp}), http.StatusOK},
		{"customer", sign(t, testSecret, jwt.MapClaims{"sub": userA, "role": "user", "exp": exp}), http.StatusUnauthorized},
		{"tampered", sign(t, "other", jwt.MapClaims{"sub": adminA, "role": "admin", "exp": exp}), http.StatusUnauthorized},
		{"non uuid subject", sign(t, testSecret, jwt.MapClaims{"sub": "a1", "role": "admin", "exp": exp}), http.StatusUnauthorized},
		{"no cookie", "", http.StatusUnauthorized},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/admin/orders", nil)
			if tc.cookie != "" {
				req.AddCookie(&http.Cookie{Name: AdminCookieName, Value: tc.cookie})
			}
			rec := serve(e, req)
			assert.Equal(t, tc.status, rec.Code)
			if tc.status == http.StatusOK {
				var body mwOKResponse
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
				assert.Equal(t, mwOKResponse{UserID: adminA, Role: "admin"}, body)
			}
		})
	}
}

func TestRequestLogger_LogsOneLinePerRequest(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)

	e := echo.New()
	e.Use(echomw.RequestID())
	e.Use(RequestLogger(zap.New(core)))
	e.GET("/cart", func(c echo.Context) error {
		observability.FromContext(c.Request().Context()).Info("inside handler")
		return c.NoContent(http.StatusNoContent)
	})
	e.GET("/boom", func(c echo.Context) error {
		return echo.NewHTTPError(http.StatusTeapot, "nope")
	})

	rec := serve(e, httptest.NewRequest(http.MethodGet, "/cart", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = serve(e, httptest.NewRequest(http.MethodGet, "/boom", nil))
	assert.Equal(t, http.StatusTeapot, rec.Code)

	entries := logs.All()
	require.Len(t, entries, 3)

	assert.Equal(t, "inside handler", entries[0].Message)
	reqID := entries[0].ContextMap()["request_id"]
	assert.NotEmpty(t, reqID)

	assert.Equal(t, "request", entries[1].Message)
	assert.Equal(t, reqID, entries[1].ContextMap()["request_id"])
	assert.Equal(t, int64(http.StatusNoContent), entries[1].ContextMap()["status"])
	assert.Equal(t, "/cart", entries[1].ContextMap()["route"])

	assert.Equal(t, zapcore.WarnLevel, entries[2].Level)
	assert.Equal(t, int64(http.StatusTeapot), entries[2].ContextMap()["status"])
}
