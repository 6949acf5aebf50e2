package payments

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRazorpayProvider_CreateOrder(t *testing.T) {
	var got razorpayOrderRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/orders", r.URL.Path)

		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "rzp_test_key", user)
		assert.Equal(t, "secret", pass)

		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"order_9A33XWu170gUtm","amount":50000,"currency":"INR","receipt":"rcpt_1","status":"created"}`))
	}))
	defer srv.Close()

	p := NewRazorpayProvider(RazorpayConfig{KeyID: "rzp_test_key", KeySecret: "secret", BaseURL: srv.URL + "/v1/", HTTPClient: srv.Client()})
	out, err := p.CreateOrder(context.Background(), OrderRequest{Amount: 50000, Currency: "INR", Receipt: "rcpt_1", Notes: map[string]string{"source": "web"}})
	require.NoError(t, err)

	assert.Equal(t, GatewayOrder{ID: "order_9A33XWu170gUtm", Amount: 50000, Currency: "INR", KeyID: "rzp_test_key"}, out)
	assert.Equal(t, 1, got.PaymentCapture)
	assert.Equal(t, "rcpt_1", got.Receipt)
	assert.Equal(t, map[string]string{"source": "web"}, got.Notes)
}

func TestRazorpayProvider_GatewayErrors(t *testing.T) {
	cases := []struct {
		name   string
		status int
		body   string
		reason string
	}{
		{"description wins", http.StatusBadRequest, `{"error":{"code":"BAD_REQUEST_ERROR","description":"The amount must be atleast INR 1.00"}}`, "The amount must be atleast INR 1.00"},
		{"code fallback", http.StatusBadRequest, `{"error":{"code":"BAD_REQUEST_ERROR"}}`, "BAD_REQUEST_ERROR"},
		{"unparseable", http.StatusBadGateway, `<html>bad gateway</html>`, "Failed to create order"},
		{"ok without id", http.StatusOK, `{}`, "Failed to create order"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			}))
			defer srv.Close()

			p := NewRazorpayProvider(RazorpayConfig{KeyID: "k", KeySecret: "s", BaseURL: srv.URL, HTTPClient: srv.Client()})
			_, err := p.CreateOrder(context.Background(), OrderRequest{Amount: 100, Currency: "INR"})

			ge, ok := AsGatewayError(err)
			require.True(t, ok)
			assert.Equal(t, tc.status, ge.StatusCode)
			assert.Equal(t, tc.reason, ge.Reason)
		})
	}
}

func TestRazorpayProvider_MissingKeysAndUnreachable(t *testing.T) {
	_, err := NewRazorpayProvider(RazorpayConfig{KeyID: "k"}).CreateOrder(context.Background(), OrderRequest{Amount: 100})
	assert.ErrorIs(t, err, ErrConfiguration)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err = NewRazorpayProvider(RazorpayConfig{KeyID: "k", KeySecret: "s", BaseURL: url}).CreateOrder(context.Background(), OrderRequest{Amount: 100})
	assert.True(t, errors.Is(err, ErrUpstream))
}
