package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"storefront/internal/domain/model"
	"storefront/internal/repository"
)

// handlerからusecaseに渡す入力
type LoginInput struct {
	Email    string
	Password string
}

// handlerがCookieに詰める値
type LoginOutput struct {
	UserID    string
	Email     string
	Token     string
	ExpiresAt time.Time
}

// メールまたはパスワードが違う（どちらかは教えない）
var ErrInvalidCredentials = errors.New("invalid credentials")

// JWTを発行する約束
type AccessTokenIssuer interface {
	Issue(userID string, role model.Role, now time.Time) (token string, expiresAt time.Time, err error)
}

// 入力パスワードと保存したハッシュを比べる約束
type PasswordVerifier interface {
	Verify(plain string, hashed string) bool
}

// ログイン入力の検証
type LoginValidator interface {
	ValidateLogin(ctx context.Context, email string, password string) error
}

// 管理者ログイン。role=adminのユーザーだけ通す
type AdminLoginUsecase struct {
	userRepo  repository.UserRepository
	verifier  PasswordVerifier
	issuer    AccessTokenIssuer
	validator LoginValidator
	clock     Clock
}

func NewAdminLoginUsecase(
	userRepo repository.UserRepository,
	verifier PasswordVerifier,
	issuer AccessTokenIssuer,
	validator LoginValidator,
	clock Clock,
) *AdminLoginUsecase {
	return &AdminLoginUsecase{
		userRepo:  userRepo,
		verifier:  verifier,
		issuer:    issuer,
		validator: validator,
		clock:     clock,
	}
}

// ログイン処理を実行する
func (u *AdminLoginUsecase) Execute(ctx context.Context, in LoginInput) (LoginOutput, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if err := u.validator.ValidateLogin(ctx, email, in.Password); err != nil {
		return LoginOutput{}, ErrInvalidCredentials
	}

	//emailでユーザー取得
	user, err := u.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return LoginOutput{}, err
	}
	if user == nil || user.Role != model.RoleAdmin {
		return LoginOutput{}, ErrInvalidCredentials
	}

	//パスワード照合
	if ok := u.verifier.Verify(in.Password, user.PasswordHash); !ok {
		return LoginOutput{}, ErrInvalidCredentials
	}

	now := u.clock.Now()
	token, exp, err := u.issuer.Issue(user.ID, user.Role, now)
	if err != nil {
		return LoginOutput{}, err
	}

	return LoginOutput{
		UserID:    user.ID,
		Email:     user.Email,
		Token:     token,
		ExpiresAt: exp,
	}, nil
}
