package usecase

import (
	"storefront/internal/domain/model"

	"github.com/shopspring/decimal"
)

// 送料・税の決め方。金額は最小通貨単位
type PricingRules struct {
	ShippingFee int64
	// 0なら常に送料無料、負なら常に送料あり
	FreeShippingThreshold int64
	// 1bps = 0.01%
	TaxRateBps int64
}

// 注文作成時に一度だけ計算して保存する
func (p PricingRules) Price(subtotal int64) model.Pricing {
	shipping := p.ShippingFee
	switch {
	case p.FreeShippingThreshold == 0:
		shipping = 0
	case p.FreeShippingThreshold > 0 && subtotal >= p.FreeShippingThreshold:
		shipping = 0
	}

	tax := decimal.NewFromInt(subtotal).
		Mul(decimal.NewFromInt(p.TaxRateBps)).
		Div(decimal.NewFromInt(10000)).
		Round(0).
		IntPart()

	return model.Pricing{
		Subtotal: subtotal,
		Shipping: shipping,
		Tax:      tax,
		Total:    subtotal + shipping + tax,
	}
}
