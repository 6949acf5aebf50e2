package payments

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	razorpayName           = "razorpay"
	razorpayDefaultBaseURL = "https://api.razorpay.com/v1"
)

type RazorpayConfig struct {
	KeyID     string
	KeySecret string
	BaseURL   string
	Timeout   time.Duration
	// テストでhttptestのクライアントを入れる
	HTTPClient *http.Client
}

type RazorpayProvider struct {
	keyID     string
	keySecret string
	baseURL   string
	client    *http.Client
}

func NewRazorpayProvider(cfg RazorpayConfig) *RazorpayProvider {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = razorpayDefaultBaseURL
	}
	client := cfg.HTTPClient
	if client == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 15 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}
	return &RazorpayProvider{
		keyID:     strings.TrimSpace(cfg.KeyID),
		keySecret: strings.TrimSpace(cfg.KeySecret),
		baseURL:   baseURL,
		client:    client,
	}
}

func (p *RazorpayProvider) Name() string { return razorpayName }

type razorpayOrderRequest struct {
	Amount         int64             `json:"amount"`
	Currency       string            `json:"currency"`
	Receipt        string            `json:"receipt"`
	PaymentCapture int               `json:"payment_capture"`
	Notes          map[string]string `json:"notes"`
}

type razorpayOrderResponse struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
	Status   string `json:"status"`
}

type razorpayErrorResponse struct {
	Error struct {
		Code        string `json:"code"`
		Description string `json:"description"`
	} `json:"error"`
}

func (p *RazorpayProvider) CreateOrder(ctx context.Context, req OrderRequest) (GatewayOrder, error) {
	if p.keyID == "" || p.keySecret == "" {
		return GatewayOrder{}, ErrConfiguration
	}

	notes := req.Notes
	if notes == nil {
		notes = map[string]string{}
	}
	body, err := json.Marshal(razorpayOrderRequest{
		Amount:         req.Amount,
		Currency:       req.Currency,
		Receipt:        req.Receipt,
		PaymentCapture: 1,
		Notes:          notes,
	})
	if err != nil {
		return GatewayOrder{}, fmt.Errorf("razorpay: encode request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/orders", bytes.NewReader(body))
	if err != nil {
		return GatewayOrder{}, fmt.Errorf("razorpay: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.SetBasicAuth(p.keyID, p.keySecret)

	res, err := p.client.Do(httpReq)
	if err != nil {
		return GatewayOrder{}, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	defer res.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(res.Body, 1<<20))
	if err != nil {
		return GatewayOrder{}, fmt.Errorf("%w: read response: %v", ErrUpstream, err)
	}

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return GatewayOrder{}, &GatewayError{
			Provider:   razorpayName,
			StatusCode: res.StatusCode,
			Reason:     razorpayReason(raw),
		}
	}

	var out razorpayOrderResponse
	if err := json.Unmarshal(raw, &out); err != nil || out.ID == "" {
		return GatewayOrder{}, &GatewayError{
			Provider:   razorpayName,
			StatusCode: res.StatusCode,
			Reason:     defaultGatewayReason,
		}
	}

	return GatewayOrder{
		ID:       out.ID,
		Amount:   out.Amount,
		Currency: out.Currency,
		KeyID:    p.keyID,
	}, nil
}

// description → code → 固定文言
func razorpayReason(raw []byte) string {
	var body razorpayErrorResponse
	if err := json.Unmarshal(raw, &body); err != nil {
		return defaultGatewayReason
	}
	if d := strings.TrimSpace(body.Error.Description); d != "" {
		return d
	}
	if c := strings.TrimSpace(body.Error.Code); c != "" {
		return c
	}
	return defaultGatewayReason
}
