package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

const (
	CtxUserIDKey   = "user_id"   // string
	CtxUserRoleKey = "user_role" // string
)

var errInvalidToken = errors.New("invalid token")

// bearerAuth用のJWT検証ミドルウェア。無い・不正なら401
func AuthJWT(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			userID, role, err := parseBearer(c.Request().Header.Get("Authorization"), secret)
			if err != nil {
				return c.JSON(http.StatusUnauthorized, errorJSON("unauthorized"))
			}

			//contextへ保存
			c.Set(CtxUserIDKey, userID)
			c.Set(CtxUserRoleKey, role)
			return next(c)
		}
	}
}

// ログインしていなくても通す。正しいトークンのときだけuser_idを入れる
func OptionalAuthJWT(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			userID, role, err := parseBearer(c.Request().Header.Get("Authorization"), secret)
			if err == nil {
				c.Set(CtxUserIDKey, userID)
				c.Set(CtxUserRoleKey, role)
			}
			return next(c)
		}
	}
}

func parseBearer(authz string, secret string) (string, string, error) {
	if authz == "" {
		return "", "", errInvalidToken
	}

	//Bearer形式か確認してtokenを抜く
	parts := strings.SplitN(authz, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", "", errInvalidToken
	}
	rawToken := strings.TrimSpace(parts[1])
	if rawToken == "" {
		return "", "", errInvalidToken
	}

	claims, err := parseHS256(rawToken, secret)
	if err != nil {
		return "", "", err
	}

	//user_idを取り出す（userId → sub の順）
	userID := claimString(claims, "userId")
	if userID == "" {
		userID = claimString(claims, "sub")
	}
	// users.id はuuid列。uuid以外のIDはDBに渡さない
	if !isUUID(userID) {
		return "", "", errInvalidToken
	}

	return userID, claimString(claims, "role"), nil
}

// JWTをパースして検証する（HS256のみ）
func parseHS256(rawToken string, secret string) (jwt.MapClaims, error) {
	if secret == "" {
		return nil, errInvalidToken
	}
	token, err := jwt.Parse(rawToken, func(t *jwt.Token) (interface{}, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(secret), nil
	})
	if err != nil || token == nil || !token.Valid {
		return nil, errInvalidToken
	}

	//claimsを取り出す
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errInvalidToken
	}
	return claims, nil
}

func isUUID(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}

func claimString(claims jwt.MapClaims, key string) string {
	s, ok := claims[key].(string)
	if !ok {
		return ""
	}
	return strings.TrimSpace(s)
}

type errorResponse struct {
	Error string `json:"error"`
}

func errorJSON(msg string) errorResponse {
	return errorResponse{Error: msg}
}

// handlerから使う
func UserID(c echo.Context) string {
	id, _ := c.Get(CtxUserIDKey).(string)
	return id
}
