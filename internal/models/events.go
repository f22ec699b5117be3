package models

import "time"

// Event types
const (
	EventTypeOrderCreated         = "ORDER_CREATED"
	EventTypeOrderPaid            = "ORDER_PAID"
	EventTypeOrderShipped         = "ORDER_SHIPPED"
	EventTypeOrderCompleted       = "ORDER_COMPLETED"
	EventTypeOrderCancelRequested = "ORDER_CANCEL_REQUESTED"
	EventTypeOrderCancelled       = "ORDER_CANCELLED"
	EventTypeOrderCancelRejected  = "ORDER_CANCEL_REJECTED"
	EventTypeOrderRefundRequested = "ORDER_REFUND_REQUESTED"
	EventTypeOrderRefunded        = "ORDER_REFUNDED"
	EventTypeOrderRefundRejected  = "ORDER_REFUND_REJECTED"
)

var operationEventTypes = map[Operation]string{
	OpPay:            EventTypeOrderPaid,
	OpShip:           EventTypeOrderShipped,
	OpConfirmReceipt: EventTypeOrderCompleted,
	OpRequestCancel:  EventTypeOrderCancelRequested,
	OpApproveCancel:  EventTypeOrderCancelled,
	OpRejectCancel:   EventTypeOrderCancelRejected,
	OpRequestRefund:  EventTypeOrderRefundRequested,
	OpApproveRefund:  EventTypeOrderRefunded,
	OpRejectRefund:   EventTypeOrderRefundRejected,
}

// EventType returns the event published after op succeeds
func (op Operation) EventType() string {
	return operationEventTypes[op]
}

// BaseEvent contains common fields for all events
type BaseEvent struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
}

// OrderEvent is published after every successful lifecycle step.
// Operation is empty for ORDER_CREATED.
type OrderEvent struct {
	BaseEvent
	OrderID   int64       `json:"order_id"`
	BuyerID   int64       `json:"buyer_id"`
	SellerID  int64       `json:"seller_id"`
	ProductID int64       `json:"product_id"`
	Quantity  int         `json:"quantity"`
	Operation Operation   `json:"operation,omitempty"`
	From      OrderStatus `json:"from,omitempty"`
	To        OrderStatus `json:"to"`
	Reason    string      `json:"reason,omitempty"`
}
