package validator

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"unicode/utf8"

	"storefront/internal/domain/model"
	"storefront/internal/usecase"
	auth "storefront/internal/usecase/auth_usecase"
)

var (
	// 入力が不正
	ErrInvalidInput = errors.New("invalid input")
)

var (
	emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	// 数字・空白・+-()のみ
	phoneRe = regexp.MustCompile(`^\+?[0-9\s\-()]{7,20}$`)
	zipRe   = regexp.MustCompile(`^[0-9A-Za-z\s\-]{3,10}$`)
)

type checkoutValidator struct{}

// Usecaseは interface を依存注入
func NewCheckoutValidator() usecase.CheckoutValidator {
	return &checkoutValidator{}
}

// 配送先を検証。stateとaddress2は任意
func (v *checkoutValidator) ValidateShipping(ctx context.Context, a model.ShippingAddress) error {
	// 必須チェック
	for _, s := range []string{a.Name, a.Email, a.Phone, a.Address1, a.City, a.Zip} {
		if strings.TrimSpace(s) == "" {
			return ErrInvalidInput
		}
	}

	if !isEmailLike(strings.TrimSpace(a.Email)) {
		return ErrInvalidInput
	}
	if !phoneRe.MatchString(strings.TrimSpace(a.Phone)) {
		return ErrInvalidInput
	}
	if !zipRe.MatchString(strings.TrimSpace(a.Zip)) {
		return ErrInvalidInput
	}

	// 長さ（DBのvarcharに合わせる）
	if utf8.RuneCountInString(a.Name) > 255 || utf8.RuneCountInString(a.Address1) > 255 ||
		utf8.RuneCountInString(a.Address2) > 255 || utf8.RuneCountInString(a.City) > 100 ||
		utf8.RuneCountInString(a.State) > 100 {
		return ErrInvalidInput
	}

	return nil
}

type loginValidator struct{}

func NewLoginValidator() auth.LoginValidator {
	return &loginValidator{}
}

// ログインの入力を検証
func (v *loginValidator) ValidateLogin(ctx context.Context, email string, password string) error {
	email = strings.TrimSpace(email)

	// 必須チェック
	if email == "" || password == "" {
		return ErrInvalidInput
	}

	// email形式
	if !isEmailLike(email) {
		return ErrInvalidInput
	}

	return nil
}

// 簡易メール形式をチェック
func isEmailLike(s string) bool {
	return emailRe.MatchString(s)
}
