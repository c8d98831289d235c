package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		name string
		from OrderStatus
		to   OrderStatus
		want bool
	}{
		{"processing to transferred", OrderStatusProcessing, OrderStatusTransferred, true},
		{"processing to refund requested", OrderStatusProcessing, OrderStatusRefundRequested, true},
		{"transferred to shipping", OrderStatusTransferred, OrderStatusShipping, true},
		{"transferred to refund requested", OrderStatusTransferred, OrderStatusRefundRequested, true},
		{"shipping to delivered", OrderStatusShipping, OrderStatusDelivered, true},
		{"refund requested to refund success", OrderStatusRefundRequested, OrderStatusRefundSuccess, true},
		{"processing to delivered skips steps", OrderStatusProcessing, OrderStatusDelivered, false},
		{"delivered is terminal", OrderStatusDelivered, OrderStatusRefundRequested, false},
		{"refund success is terminal", OrderStatusRefundSuccess, OrderStatusProcessing, false},
		{"shipping cannot be refunded", OrderStatusShipping, OrderStatusRefundRequested, false},
		{"unknown status", OrderStatus("Foo"), OrderStatusDelivered, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CanTransition(tt.from, tt.to))
		})
	}
}

func TestParseOrderStatus(t *testing.T) {
	st, ok := ParseOrderStatus("Delivered")
	if !ok || st != OrderStatusDelivered {
		t.Fatalf("ParseOrderStatus(Delivered) = %q, %v", st, ok)
	}

	if _, ok := ParseOrderStatus("Foo"); ok {
		t.Fatalf("unknown status must not parse")
	}
}

func TestIsTerminal(t *testing.T) {
	if !OrderStatusDelivered.IsTerminal() {
		t.Fatalf("Delivered must be terminal")
	}
	if OrderStatusProcessing.IsTerminal() {
		t.Fatalf("Processing must not be terminal")
	}
}

func TestMoneyConversions(t *testing.T) {
	assert.Equal(t, int64(4050), AmountToCents(40.50))
	assert.Equal(t, int64(10), AmountToCents(0.1))
	assert.Equal(t, 40.5, CentsToAmount(4050))
}

func TestServiceChargeCents(t *testing.T) {
	// 10% от суммы заказа, вниз до цента.
	assert.Equal(t, int64(1000), ServiceChargeCents(10000))
	assert.Equal(t, int64(0), ServiceChargeCents(0))
	assert.Equal(t, int64(5), ServiceChargeCents(55))
}
