package models

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNextStatus(t *testing.T) {
	tests := []struct {
		name    string
		current OrderStatus
		op      Operation
		want    OrderStatus
		wantErr bool
	}{
		{"pay pending", OrderStatusPending, OpPay, OrderStatusPaid, false},
		{"pay twice", OrderStatusPaid, OpPay, "", true},
		{"ship paid", OrderStatusPaid, OpShip, OrderStatusShipped, false},
		{"ship pending", OrderStatusPending, OpShip, "", true},
		{"confirm shipped", OrderStatusShipped, OpConfirmReceipt, OrderStatusCompleted, false},
		{"confirm paid", OrderStatusPaid, OpConfirmReceipt, "", true},
		{"cancel pending", OrderStatusPending, OpRequestCancel, OrderStatusCancelRequested, false},
		{"cancel paid", OrderStatusPaid, OpRequestCancel, OrderStatusCancelRequested, false},
		{"cancel shipped", OrderStatusShipped, OpRequestCancel, OrderStatusCancelRequested, false},
		{"cancel completed", OrderStatusCompleted, OpRequestCancel, "", true},
		{"approve cancel", OrderStatusCancelRequested, OpApproveCancel, OrderStatusCancelled, false},
		{"reject cancel", OrderStatusCancelRequested, OpRejectCancel, OrderStatusCancelRejected, false},
		{"approve cancel without request", OrderStatusPaid, OpApproveCancel, "", true},
		{"refund pending", OrderStatusPending, OpRequestRefund, "", true},
		{"refund paid", OrderStatusPaid, OpRequestRefund, OrderStatusRefundRequested, false},
		{"refund shipped", OrderStatusShipped, OpRequestRefund, OrderStatusRefundRequested, false},
		{"refund completed", OrderStatusCompleted, OpRequestRefund, OrderStatusRefundRequested, false},
		{"approve refund", OrderStatusRefundRequested, OpApproveRefund, OrderStatusRefunded, false},
		{"reject refund", OrderStatusRefundRequested, OpRejectRefund, OrderStatusRefundRejected, false},
		{"unknown op", OrderStatusPending, Operation("teleport"), "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NextStatus(tt.current, tt.op)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrInvalidTransition))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTerminalStatuses(t *testing.T) {
	terminal := map[OrderStatus]bool{
		OrderStatusCancelled:      true,
		OrderStatusCancelRejected: true,
		OrderStatusRefunded:       true,
		OrderStatusRefundRejected: true,
	}
	for _, s := range OrderStatuses {
		assert.Equal(t, terminal[s], s.Terminal(), "status %s", s)
	}
}

func TestOperationParty(t *testing.T) {
	assert.Equal(t, PartyAny, OpPay.Party())
	assert.Equal(t, PartySeller, OpShip.Party())
	assert.Equal(t, PartyBuyer, OpConfirmReceipt.Party())
	assert.Equal(t, PartyBuyer, OpRequestCancel.Party())
	assert.Equal(t, PartySeller, OpApproveCancel.Party())
	assert.Equal(t, PartySeller, OpRejectCancel.Party())
	assert.Equal(t, PartyBuyer, OpRequestRefund.Party())
	assert.Equal(t, PartySeller, OpApproveRefund.Party())
	assert.Equal(t, PartySeller, OpRejectRefund.Party())
}

func TestAuthorize(t *testing.T) {
	order := &Order{ID: 7, BuyerID: 1, SellerID: 2}

	assert.NoError(t, OpShip.Authorize(order, 2))
	assert.ErrorIs(t, OpShip.Authorize(order, 1), ErrUnauthorized)
	assert.NoError(t, OpConfirmReceipt.Authorize(order, 1))
	assert.ErrorIs(t, OpConfirmReceipt.Authorize(order, 2), ErrUnauthorized)
	assert.NoError(t, OpPay.Authorize(order, 99))
}

func TestParseOrderStatus(t *testing.T) {
	s, err := ParseOrderStatus("REFUND_REQUESTED")
	require.NoError(t, err)
	assert.Equal(t, OrderStatusRefundRequested, s)

	_, err = ParseOrderStatus("refund_requested")
	assert.Error(t, err)
}

func TestEveryOperationHasEventType(t *testing.T) {
	for _, op := range Operations {
		assert.NotEmpty(t, op.EventType(), "operation %s", op)
	}
}

func TestTransitionApplyTo(t *testing.T) {
	tracking := "SF123"
	order := &Order{Status: OrderStatusPaid}
	tr := &OrderTransition{From: OrderStatusPaid, To: OrderStatusShipped, TrackingNumber: &tracking}

	tr.ApplyTo(order)

	assert.Equal(t, OrderStatusShipped, order.Status)
	require.NotNil(t, order.TrackingNumber)
	assert.Equal(t, "SF123", *order.TrackingNumber)
	assert.Nil(t, order.PaidAt)
}

func FuzzNextStatus(f *testing.F) {
	for _, s := range OrderStatuses {
		for _, op := range Operations {
			f.Add(string(s), string(op))
		}
	}
	f.Add("", "")

	f.Fuzz(func(t *testing.T, status, op string) {
		next, err := NextStatus(OrderStatus(status), Operation(op))
		if err != nil {
			if !errors.Is(err, ErrInvalidTransition) {
				t.Fatalf("unexpected error kind: %v", err)
			}
			return
		}
		if !OrderStatus(status).Valid() || !next.Valid() {
			t.Fatalf("transition %q --%s--> %q escaped the status set", status, op, next)
		}
		if OrderStatus(status).Terminal() {
			t.Fatalf("terminal status %q allowed %s", status, op)
		}
	})
}
