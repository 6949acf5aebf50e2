package payments

import (
	"context"
	"errors"
	"fmt"
)

// ゲートウェイが理由を返さなかったときの文言
const defaultGatewayReason = "Failed to create order"

// サーバー側の認証情報が無い。中身（どのキーが無いか）はクライアントに出さない
var ErrConfiguration = errors.New("payments: gateway not configured")

// 通信エラー・タイムアウト
var ErrUpstream = errors.New("payments: gateway unavailable")

// ゲートウェイがリクエストを拒否した
type GatewayError struct {
	Provider   string
	StatusCode int
	Reason     string
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("payments: %s rejected request (%d): %s", e.Provider, e.StatusCode, e.Reason)
}

func AsGatewayError(err error) (*GatewayError, bool) {
	var ge *GatewayError
	ok := errors.As(err, &ge)
	return ge, ok
}

// 金額は最小通貨単位
type OrderRequest struct {
	Amount   int64
	Currency string
	Receipt  string
	Notes    map[string]string
}

// ゲートウェイ側の注文（クライアントで決済する）
type GatewayOrder struct {
	ID       string
	Amount   int64
	Currency string
	// クライアントに渡す公開キー
	KeyID string
	// Stripeのみ
	ClientSecret string
}

type Provider interface {
	Name() string
	CreateOrder(ctx context.Context, req OrderRequest) (GatewayOrder, error)
}
