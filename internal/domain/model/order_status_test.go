package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from, to OrderStatus
		want     bool
	}{
		{OrderStatusPending, OrderStatusConfirmed, true},
		{OrderStatusPending, OrderStatusCancelled, true},
		{OrderStatusConfirmed, OrderStatusShipped, true},
		{OrderStatusShipped, OrderStatusDelivered, true},
		{OrderStatusShipped, OrderStatusCancelled, true},
		{OrderStatusPending, OrderStatusShipped, false},
		{OrderStatusDelivered, OrderStatusPending, false},
		{OrderStatusDelivered, OrderStatusCancelled, false},
		{OrderStatusCancelled, OrderStatusConfirmed, false},
		{OrderStatusShipped, OrderStatusShipped, true},
		{OrderStatusPending, OrderStatus("lost"), false},
	}
	for _, tc := range cases {
		t.Run(string(tc.from)+"->"+string(tc.to), func(t *testing.T) {
			assert.Equal(t, tc.want, CanTransition(tc.from, tc.to))
		})
	}
}

func TestNextActions(t *testing.T) {
	assert.Equal(t, []OrderStatus{OrderStatusConfirmed, OrderStatusCancelled}, OrderStatusPending.NextActions())
	assert.Equal(t, []OrderStatus{OrderStatusDelivered, OrderStatusCancelled}, OrderStatusShipped.NextActions())
	assert.Empty(t, OrderStatusDelivered.NextActions())
	assert.Empty(t, OrderStatusCancelled.NextActions())
}

func TestParseStatuses(t *testing.T) {
	st, ok := ParseOrderStatus(" Shipped ")
	assert.True(t, ok)
	assert.Equal(t, OrderStatusShipped, st)

	_, ok = ParseOrderStatus("refunded")
	assert.False(t, ok)

	ps, ok := ParsePaymentStatus("COMPLETED")
	assert.True(t, ok)
	assert.Equal(t, PaymentStatusCompleted, ps)

	_, ok = ParsePaymentStatus("paid")
	assert.False(t, ok)
}
