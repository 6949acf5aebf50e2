package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"storefront/internal/domain/model"
	"storefront/internal/observability"
	"storefront/internal/payments"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ゲートウェイの最低金額（最小通貨単位）
const minPaymentAmount = 100

// 指数がこれを超える値は int64 に収まらないか、桁が細かすぎる
const maxAmountExponent = 18

var maxPaymentAmount = decimal.NewFromInt(math.MaxInt64)

type PaymentUsecase struct {
	provider     payments.Provider
	homeCurrency string
	timeout      time.Duration
	clock        Clock
}

func NewPaymentUsecase(provider payments.Provider, homeCurrency string, timeout time.Duration, clock Clock) *PaymentUsecase {
	return &PaymentUsecase{
		provider:     provider,
		homeCurrency: strings.ToUpper(strings.TrimSpace(homeCurrency)),
		timeout:      timeout,
		clock:        clock,
	}
}

// Amountは数値・文字列・json.Numberを受ける
type CreateIntentInput struct {
	Amount   interface{}
	Currency string
	Receipt  string
	Notes    map[string]interface{}
}

type CreateIntentOutput struct {
	Success      bool   `json:"success"`
	OrderID      string `json:"orderId"`
	Amount       int64  `json:"amount"`
	Currency     string `json:"currency"`
	KeyID        string `json:"keyId"`
	ClientSecret string `json:"clientSecret,omitempty"`
}

// カードなどの決済情報は保存しない。ゲートウェイ注文のIDを返すだけ
func (u *PaymentUsecase) CreateIntent(ctx context.Context, in CreateIntentInput) (CreateIntentOutput, error) {
	raw, ok := parseAmount(in.Amount)
	if !ok || !raw.IsPositive() || raw.Round(0).GreaterThan(maxPaymentAmount) {
		return CreateIntentOutput{}, newKindError(KindInvalidAmount, "Invalid amount")
	}

	currency := strings.ToUpper(strings.TrimSpace(in.Currency))
	if currency == "" {
		currency = u.homeCurrency
	}
	// 最低金額は丸める前の値で判定する（99.6は通さない）
	if raw.LessThan(decimal.NewFromInt(minPaymentAmount)) {
		return CreateIntentOutput{}, newKindError(KindInvalidAmount, minimumAmountMessage(currency))
	}
	amount := raw.Round(0).IntPart()

	receipt := strings.TrimSpace(in.Receipt)
	if receipt == "" {
		receipt = fmt.Sprintf("rcpt_%d", u.clock.Now().UnixMilli())
	}

	if u.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, u.timeout)
		defer cancel()
	}

	order, err := u.provider.CreateOrder(ctx, payments.OrderRequest{
		Amount:   amount,
		Currency: currency,
		Receipt:  receipt,
		Notes:    stringifyNotes(in.Notes),
	})
	if err != nil {
		return CreateIntentOutput{}, u.mapProviderError(ctx, err)
	}

	return CreateIntentOutput{
		Success:      true,
		OrderID:      order.ID,
		Amount:       order.Amount,
		Currency:     order.Currency,
		KeyID:        order.KeyID,
		ClientSecret: order.ClientSecret,
	}, nil
}

func (u *PaymentUsecase) mapProviderError(ctx context.Context, err error) error {
	log := observability.FromContext(ctx).With(zap.String("provider", u.provider.Name()))

	if errors.Is(err, payments.ErrConfiguration) {
		log.Error("payment gateway not configured")
		return newKindError(KindConfiguration, "Payment gateway not configured")
	}
	if ge, ok := payments.AsGatewayError(err); ok {
		log.Warn("payment gateway rejected order", zap.Int("status", ge.StatusCode), zap.String("reason", ge.Reason))
		return newKindError(KindGateway, ge.Reason)
	}
	if errors.Is(err, payments.ErrUpstream) || errors.Is(err, context.DeadlineExceeded) {
		log.Error("payment gateway unavailable", zap.Error(err))
		return newKindError(KindUpstreamUnavailable, "Payment gateway unavailable")
	}
	log.Error("create payment order failed", zap.Error(err))
	return newKindError(KindInternal, "Failed to create order")
}

// 数値にならなければfalse。丸めは呼び出し側
func parseAmount(v interface{}) (decimal.Decimal, bool) {
	var d decimal.Decimal
	switch x := v.(type) {
	case nil:
		return decimal.Zero, false
	case float64:
		d = decimal.NewFromFloat(x)
	case int:
		d = decimal.NewFromInt(int64(x))
	case int64:
		d = decimal.NewFromInt(x)
	case json.Number:
		parsed, err := decimal.NewFromString(x.String())
		if err != nil {
			return decimal.Zero, false
		}
		d = parsed
	case string:
		parsed, err := decimal.NewFromString(strings.TrimSpace(x))
		if err != nil {
			return decimal.Zero, false
		}
		d = parsed
	default:
		return decimal.Zero, false
	}
	if exp := d.Exponent(); exp > maxAmountExponent || exp < -maxAmountExponent {
		return decimal.Zero, false
	}
	return d, true
}

func minimumAmountMessage(currency string) string {
	if currency == "INR" {
		return "Minimum order amount is ₹1"
	}
	return "Minimum order amount is " + model.FormatAmount(minPaymentAmount) + " " + currency
}

func stringifyNotes(notes map[string]interface{}) map[string]string {
	out := make(map[string]string, len(notes))
	for k, v := range notes {
		switch x := v.(type) {
		case string:
			out[k] = x
		case float64:
			out[k] = strconv.FormatFloat(x, 'f', -1, 64)
		case nil:
			out[k] = ""
		default:
			b, err := json.Marshal(x)
			if err != nil {
				continue
			}
			out[k] = string(b)
		}
	}
	return out
}
