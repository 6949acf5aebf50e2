package payments

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/stripe/stripe-go/v78"
	"github.com/stripe/stripe-go/v78/client"
)

const stripeName = "stripe"

type stripePaymentIntentAPI interface {
	New(params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error)
}

type StripeConfig struct {
	SecretKey      string
	PublishableKey string
	Backends       *stripe.Backends
	// テスト用
	Intents stripePaymentIntentAPI
}

// PaymentIntentをゲートウェイ注文として扱う
type StripeProvider struct {
	intents        stripePaymentIntentAPI
	publishableKey string
}

func NewStripeProvider(cfg StripeConfig) *StripeProvider {
	p := &StripeProvider{publishableKey: strings.TrimSpace(cfg.PublishableKey)}
	switch {
	case cfg.Intents != nil:
		p.intents = cfg.Intents
	case strings.TrimSpace(cfg.SecretKey) != "":
		sc := client.New(strings.TrimSpace(cfg.SecretKey), cfg.Backends)
		p.intents = sc.PaymentIntents
	}
	return p
}

func (p *StripeProvider) Name() string { return stripeName }

func (p *StripeProvider) CreateOrder(ctx context.Context, req OrderRequest) (GatewayOrder, error) {
	if p.intents == nil || p.publishableKey == "" {
		return GatewayOrder{}, ErrConfiguration
	}

	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(req.Amount),
		Currency: stripe.String(strings.ToLower(req.Currency)),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	params.Context = ctx
	if req.Receipt != "" {
		// 同じレシートの再送は同じIntentになる
		params.SetIdempotencyKey(req.Receipt)
		params.AddMetadata("receipt", req.Receipt)
	}
	for k, v := range req.Notes {
		params.AddMetadata(k, v)
	}

	intent, err := p.intents.New(params)
	if err != nil {
		var se *stripe.Error
		if errors.As(err, &se) {
			reason := strings.TrimSpace(se.Msg)
			if reason == "" {
				reason = string(se.Code)
			}
			if reason == "" {
				reason = defaultGatewayReason
			}
			return GatewayOrder{}, &GatewayError{
				Provider:   stripeName,
				StatusCode: se.HTTPStatusCode,
				Reason:     reason,
			}
		}
		return GatewayOrder{}, fmt.Errorf("%w: %v", ErrUpstream, err)
	}

	return GatewayOrder{
		ID:           intent.ID,
		Amount:       intent.Amount,
		Currency:     strings.ToUpper(string(intent.Currency)),
		KeyID:        p.publishableKey,
		ClientSecret: intent.ClientSecret,
	}, nil
}
