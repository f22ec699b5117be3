package models

import "fmt"

// OrderStatus is the lifecycle state of an order
type OrderStatus string

// Order statuses
const (
	OrderStatusPending         OrderStatus = "PENDING"
	OrderStatusPaid            OrderStatus = "PAID"
	OrderStatusShipped         OrderStatus = "SHIPPED"
	OrderStatusCompleted       OrderStatus = "COMPLETED"
	OrderStatusCancelRequested OrderStatus = "CANCEL_REQUESTED"
	OrderStatusCancelled       OrderStatus = "CANCELLED"
	OrderStatusCancelRejected  OrderStatus = "CANCEL_REJECTED"
	OrderStatusRefundRequested OrderStatus = "REFUND_REQUESTED"
	OrderStatusRefunded        OrderStatus = "REFUNDED"
	OrderStatusRefundRejected  OrderStatus = "REFUND_REJECTED"
)

// OrderStatuses lists every status in lifecycle order
var OrderStatuses = []OrderStatus{
	OrderStatusPending,
	OrderStatusPaid,
	OrderStatusShipped,
	OrderStatusCompleted,
	OrderStatusCancelRequested,
	OrderStatusCancelled,
	OrderStatusCancelRejected,
	OrderStatusRefundRequested,
	OrderStatusRefunded,
	OrderStatusRefundRejected,
}

// ParseOrderStatus converts a stored label to an OrderStatus
func ParseOrderStatus(s string) (OrderStatus, error) {
	status := OrderStatus(s)
	if !status.Valid() {
		return "", fmt.Errorf("unknown order status %q", s)
	}
	return status, nil
}

// Valid reports whether s is one of the known statuses
func (s OrderStatus) Valid() bool {
	for _, known := range OrderStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// Terminal reports whether no operation can move an order out of s
func (s OrderStatus) Terminal() bool {
	for _, op := range Operations {
		if _, err := NextStatus(s, op); err == nil {
			return false
		}
	}
	return true
}

func (s OrderStatus) String() string { return string(s) }

// Operation is a lifecycle action applied to an existing order
type Operation string

// Lifecycle operations
const (
	OpPay            Operation = "pay"
	OpShip           Operation = "ship"
	OpConfirmReceipt Operation = "confirm_receipt"
	OpRequestCancel  Operation = "request_cancel"
	OpApproveCancel  Operation = "approve_cancel"
	OpRejectCancel   Operation = "reject_cancel"
	OpRequestRefund  Operation = "request_refund"
	OpApproveRefund  Operation = "approve_refund"
	OpRejectRefund   Operation = "reject_refund"
)

// Operations lists every lifecycle operation
var Operations = []Operation{
	OpPay,
	OpShip,
	OpConfirmReceipt,
	OpRequestCancel,
	OpApproveCancel,
	OpRejectCancel,
	OpRequestRefund,
	OpApproveRefund,
	OpRejectRefund,
}

// Party identifies which side of an order may perform an operation
type Party int

const (
	PartyAny Party = iota
	PartyBuyer
	PartySeller
)

func (p Party) String() string {
	switch p {
	case PartyBuyer:
		return "buyer"
	case PartySeller:
		return "seller"
	default:
		return "any"
	}
}

type transitionRule struct {
	from  []OrderStatus
	to    OrderStatus
	party Party
}

var transitions = map[Operation]transitionRule{
	OpPay: {
		from: []OrderStatus{OrderStatusPending},
		to:   OrderStatusPaid,
	},
	OpShip: {
		from:  []OrderStatus{OrderStatusPaid},
		to:    OrderStatusShipped,
		party: PartySeller,
	},
	OpConfirmReceipt: {
		from:  []OrderStatus{OrderStatusShipped},
		to:    OrderStatusCompleted,
		party: PartyBuyer,
	},
	OpRequestCancel: {
		from:  []OrderStatus{OrderStatusPending, OrderStatusPaid, OrderStatusShipped},
		to:    OrderStatusCancelRequested,
		party: PartyBuyer,
	},
	OpApproveCancel: {
		from:  []OrderStatus{OrderStatusCancelRequested},
		to:    OrderStatusCancelled,
		party: PartySeller,
	},
	OpRejectCancel: {
		from:  []OrderStatus{OrderStatusCancelRequested},
		to:    OrderStatusCancelRejected,
		party: PartySeller,
	},
	OpRequestRefund: {
		from:  []OrderStatus{OrderStatusPaid, OrderStatusShipped, OrderStatusCompleted},
		to:    OrderStatusRefundRequested,
		party: PartyBuyer,
	},
	OpApproveRefund: {
		from:  []OrderStatus{OrderStatusRefundRequested},
		to:    OrderStatusRefunded,
		party: PartySeller,
	},
	OpRejectRefund: {
		from:  []OrderStatus{OrderStatusRefundRequested},
		to:    OrderStatusRefundRejected,
		party: PartySeller,
	},
}

// NextStatus returns the status reached by applying op to an order in current.
// It fails with ErrInvalidTransition when op is not allowed from current.
func NextStatus(current OrderStatus, op Operation) (OrderStatus, error) {
	rule, ok := transitions[op]
	if !ok {
		return "", fmt.Errorf("%w: unknown operation %q", ErrInvalidTransition, op)
	}
	for _, from := range rule.from {
		if from == current {
			return rule.to, nil
		}
	}
	return "", fmt.Errorf("%w: cannot %s an order in status %s", ErrInvalidTransition, op, current)
}

// Party returns the side of the order that must perform op
func (op Operation) Party() Party {
	return transitions[op].party
}

// Valid reports whether op is a known operation
func (op Operation) Valid() bool {
	_, ok := transitions[op]
	return ok
}

// Authorize checks that actorID is the party op requires on order.
func (op Operation) Authorize(order *Order, actorID int64) error {
	switch op.Party() {
	case PartyBuyer:
		if order.BuyerID != actorID {
			return fmt.Errorf("%w: only the buyer may %s order %d", ErrUnauthorized, op, order.ID)
		}
	case PartySeller:
		if order.SellerID != actorID {
			return fmt.Errorf("%w: only the seller may %s order %d", ErrUnauthorized, op, order.ID)
		}
	}
	return nil
}
