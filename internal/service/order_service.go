package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"anime-market/internal/models"
	"anime-market/internal/util"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// OrderStore is the persistence the lifecycle engine needs
type OrderStore interface {
	GetProductByID(ctx context.Context, id int64) (*models.Product, error)
	CreateOrder(ctx context.Context, order *models.Order) error
	GetOrderByID(ctx context.Context, id int64) (*models.Order, error)
	ApplyTransition(ctx context.Context, t *models.OrderTransition) error
	ListOrdersByBuyer(ctx context.Context, buyerID int64) ([]models.Order, error)
	ListOrdersBySeller(ctx context.Context, sellerID int64) ([]models.Order, error)
}

// OrderCache backs idempotent creation and the order read cache
type OrderCache interface {
	GetIdempotencyKey(ctx context.Context, key string) (int64, bool, error)
	SetIdempotencyKey(ctx context.Context, key string, orderID int64, ttl time.Duration) error
	AcquireLock(ctx context.Context, lockKey string, ttl time.Duration) (bool, error)
	ReleaseLock(ctx context.Context, lockKey string) error
	GetOrder(ctx context.Context, orderID int64) (*models.Order, bool, error)
	SetOrder(ctx context.Context, order *models.Order, ttl time.Duration) error
	InvalidateOrder(ctx context.Context, orderID int64) error
}

// EventPublisher receives an event after every committed lifecycle step
type EventPublisher interface {
	PublishOrderEvent(ctx context.Context, event *models.OrderEvent) error
}

// Notifier tells the seller that the buyer confirmed receipt
type Notifier interface {
	NotifyOrderCompleted(ctx context.Context, order *models.Order) error
}

const createLockTTL = 10 * time.Second

// OrderService drives the order lifecycle
type OrderService struct {
	store           OrderStore
	cache           OrderCache
	events          EventPublisher
	notifier        Notifier
	restockOnRefund bool
	idempotencyTTL  time.Duration
	orderCacheTTL   time.Duration
	now             func() time.Time
	logger          *zap.Logger
}

// OrderOption configures an OrderService
type OrderOption func(*OrderService)

// WithCache enables idempotent creation and cached reads
func WithCache(cache OrderCache, idempotencyTTL, orderTTL time.Duration) OrderOption {
	return func(s *OrderService) {
		s.cache = cache
		s.idempotencyTTL = idempotencyTTL
		s.orderCacheTTL = orderTTL
	}
}

func WithEvents(events EventPublisher) OrderOption {
	return func(s *OrderService) { s.events = events }
}

func WithNotifier(n Notifier) OrderOption {
	return func(s *OrderService) { s.notifier = n }
}

// WithRefundRestock returns units to stock when a refund is approved
func WithRefundRestock(enabled bool) OrderOption {
	return func(s *OrderService) { s.restockOnRefund = enabled }
}

func WithClock(now func() time.Time) OrderOption {
	return func(s *OrderService) { s.now = now }
}

// NewOrderService creates a new order service
func NewOrderService(store OrderStore, opts ...OrderOption) *OrderService {
	s := &OrderService{
		store:  store,
		now:    time.Now,
		logger: util.Named("order"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateOrderRequest represents a request to create an order
type CreateOrderRequest struct {
	BuyerID         int64  `json:"-"`
	ProductID       int64  `json:"product_id"`
	Quantity        int    `json:"quantity"`
	ShippingAddress string `json:"shipping_address" binding:"required"`
	IdempotencyKey  string `json:"idempotency_key,omitempty"`
}

// CreateOrderResponse represents the response after creating an order
type CreateOrderResponse struct {
	OrderID    int64              `json:"order_id"`
	Status     models.OrderStatus `json:"status"`
	TotalPrice decimal.Decimal    `json:"total_price"`
}

// CreateOrder reserves stock and records a PENDING order for the buyer.
func (s *OrderService) CreateOrder(ctx context.Context, req *CreateOrderRequest) (*CreateOrderResponse, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.CreateOrder",
		attribute.Int64("product.id", req.ProductID),
		attribute.Int("order.quantity", req.Quantity))
	defer span.End()

	var idemKey string
	if req.IdempotencyKey != "" && s.cache != nil {
		idemKey = idempotencyKey(req.BuyerID, req.IdempotencyKey)
		resp, ok, err := s.replay(ctx, idemKey, req)
		if err != nil {
			return nil, s.fail(span, "create", err)
		}
		if ok {
			return resp, nil
		}

		lockKey := "order-create:" + idemKey
		acquired, err := s.cache.AcquireLock(ctx, lockKey, createLockTTL)
		switch {
		case err != nil:
			s.logger.Warn("Failed to acquire create lock, continuing without it",
				zap.String("idempotency_key", req.IdempotencyKey), zap.Error(err))
		case !acquired:
			return nil, s.fail(span, "create", fmt.Errorf("%w: create already in flight for key %s",
				models.ErrOrderConflict, req.IdempotencyKey))
		default:
			defer func() {
				if err := s.cache.ReleaseLock(context.Background(), lockKey); err != nil {
					s.logger.Warn("Failed to release create lock", zap.Error(err))
				}
			}()
			// The previous holder may have finished between the first check and the lock.
			resp, ok, err = s.replay(ctx, idemKey, req)
			if err != nil {
				return nil, s.fail(span, "create", err)
			}
			if ok {
				return resp, nil
			}
		}
	}

	if req.Quantity <= 0 {
		return nil, s.fail(span, "create", fmt.Errorf("%w: got %d", models.ErrInvalidQuantity, req.Quantity))
	}

	product, err := s.store.GetProductByID(ctx, req.ProductID)
	if err != nil {
		return nil, s.fail(span, "create", err)
	}
	if product.Status != models.ProductStatusAvailable {
		return nil, s.fail(span, "create", fmt.Errorf("%w: product %d is %s",
			models.ErrProductUnavailable, product.ID, product.Status))
	}
	if product.Stock < req.Quantity {
		return nil, s.fail(span, "create", fmt.Errorf("%w: product %d has %d, requested %d",
			models.ErrInsufficientStock, product.ID, product.Stock, req.Quantity))
	}

	order := &models.Order{
		BuyerID:         req.BuyerID,
		ProductID:       req.ProductID,
		Quantity:        req.Quantity,
		ShippingAddress: req.ShippingAddress,
	}

	start := time.Now()
	err = s.store.CreateOrder(ctx, order)
	util.StockReserveLatency.Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, s.fail(span, "create", err)
	}

	util.OrdersCreatedTotal.Inc()
	util.StockReservedUnits.Add(float64(order.Quantity))
	s.logger.Info("Order created",
		zap.Int64("order_id", order.ID),
		zap.Int64("buyer_id", order.BuyerID),
		zap.Int64("product_id", order.ProductID),
		zap.Int("quantity", order.Quantity),
		zap.String("total_price", order.TotalPrice.String()))

	if idemKey != "" {
		if err := s.cache.SetIdempotencyKey(ctx, idemKey, order.ID, s.idempotencyTTL); err != nil {
			s.logger.Warn("Failed to store idempotency key", zap.Error(err))
		}
	}

	s.publish(ctx, models.EventTypeOrderCreated, "", "", order)

	return &CreateOrderResponse{
		OrderID:    order.ID,
		Status:     order.Status,
		TotalPrice: order.TotalPrice,
	}, nil
}

// idempotencyKey scopes a client-chosen key to the buyer that sent it
func idempotencyKey(buyerID int64, key string) string {
	return fmt.Sprintf("%d:%s", buyerID, key)
}

// replay returns the order an earlier request with the same key created.
// A key reused for a different product or quantity is a conflict.
func (s *OrderService) replay(ctx context.Context, key string, req *CreateOrderRequest) (*CreateOrderResponse, bool, error) {
	orderID, ok, err := s.cache.GetIdempotencyKey(ctx, key)
	if err != nil {
		s.logger.Warn("Failed to check idempotency key", zap.String("idempotency_key", key), zap.Error(err))
		return nil, false, nil
	}
	if !ok {
		return nil, false, nil
	}

	order, err := s.store.GetOrderByID(ctx, orderID)
	if err != nil {
		s.logger.Warn("Idempotency key points at unreadable order",
			zap.String("idempotency_key", key), zap.Int64("order_id", orderID), zap.Error(err))
		return nil, false, nil
	}
	if order.BuyerID != req.BuyerID || order.ProductID != req.ProductID || order.Quantity != req.Quantity {
		return nil, false, fmt.Errorf("%w: idempotency key %s was used for a different order",
			models.ErrOrderConflict, req.IdempotencyKey)
	}

	s.logger.Info("Duplicate order request detected",
		zap.String("idempotency_key", key),
		zap.Int64("order_id", order.ID))
	return &CreateOrderResponse{OrderID: order.ID, Status: order.Status, TotalPrice: order.TotalPrice}, true, nil
}

// PayOrder marks a PENDING order as paid. The payment method is recorded as given.
func (s *OrderService) PayOrder(ctx context.Context, orderID int64, paymentMethod string) error {
	_, err := s.transition(ctx, models.OpPay, orderID, 0, func(t *models.OrderTransition, _ *models.Order) {
		now := s.now()
		t.PaidAt = &now
		if paymentMethod != "" {
			t.PaymentMethod = &paymentMethod
		}
	})
	return err
}

// ShipOrder lets the seller ship a PAID order
func (s *OrderService) ShipOrder(ctx context.Context, orderID, sellerID int64, trackingNumber string) error {
	_, err := s.transition(ctx, models.OpShip, orderID, sellerID, func(t *models.OrderTransition, _ *models.Order) {
		now := s.now()
		t.ShippedAt = &now
		t.TrackingNumber = &trackingNumber
	})
	return err
}

// ConfirmReceipt lets the buyer complete a SHIPPED order and notifies the seller.
// A failed notification is logged; the completion itself stays committed.
func (s *OrderService) ConfirmReceipt(ctx context.Context, orderID, buyerID int64) error {
	order, err := s.transition(ctx, models.OpConfirmReceipt, orderID, buyerID, func(t *models.OrderTransition, _ *models.Order) {
		now := s.now()
		t.CompletedAt = &now
	})
	if err != nil {
		return err
	}

	if s.notifier != nil {
		if err := s.notifier.NotifyOrderCompleted(ctx, order); err != nil {
			s.logger.Error("Failed to notify seller of completion",
				zap.Int64("order_id", order.ID), zap.Error(err))
		}
	}
	return nil
}

// RequestCancel lets the buyer ask to cancel a PENDING, PAID or SHIPPED order
func (s *OrderService) RequestCancel(ctx context.Context, orderID, buyerID int64, reason string) error {
	_, err := s.transition(ctx, models.OpRequestCancel, orderID, buyerID, func(t *models.OrderTransition, _ *models.Order) {
		t.CancelReason = &reason
	})
	return err
}

// ApproveCancel cancels the order and returns its quantity to stock
func (s *OrderService) ApproveCancel(ctx context.Context, orderID, sellerID int64) error {
	_, err := s.transition(ctx, models.OpApproveCancel, orderID, sellerID, func(t *models.OrderTransition, o *models.Order) {
		t.RestockProductID = o.ProductID
		t.RestockQuantity = o.Quantity
	})
	return err
}

// RejectCancel records the seller's reason. The order stays out of the lifecycle.
func (s *OrderService) RejectCancel(ctx context.Context, orderID, sellerID int64, reason string) error {
	_, err := s.transition(ctx, models.OpRejectCancel, orderID, sellerID, func(t *models.OrderTransition, _ *models.Order) {
		t.CancelRejectReason = &reason
	})
	return err
}

// RequestRefund lets the buyer ask for a refund on a PAID, SHIPPED or COMPLETED order
func (s *OrderService) RequestRefund(ctx context.Context, orderID, buyerID int64, reason string) error {
	_, err := s.transition(ctx, models.OpRequestRefund, orderID, buyerID, func(t *models.OrderTransition, _ *models.Order) {
		t.RefundReason = &reason
	})
	return err
}

// ApproveRefund refunds the order. Stock comes back only with WithRefundRestock.
func (s *OrderService) ApproveRefund(ctx context.Context, orderID, sellerID int64) error {
	_, err := s.transition(ctx, models.OpApproveRefund, orderID, sellerID, func(t *models.OrderTransition, o *models.Order) {
		if s.restockOnRefund {
			t.RestockProductID = o.ProductID
			t.RestockQuantity = o.Quantity
		}
	})
	return err
}

func (s *OrderService) RejectRefund(ctx context.Context, orderID, sellerID int64, reason string) error {
	_, err := s.transition(ctx, models.OpRejectRefund, orderID, sellerID, func(t *models.OrderTransition, _ *models.Order) {
		t.RefundRejectReason = &reason
	})
	return err
}

// transition loads the order, checks the caller and the state table, then
// commits a compare-and-set on the status.
func (s *OrderService) transition(
	ctx context.Context,
	op models.Operation,
	orderID, actorID int64,
	stamp func(t *models.OrderTransition, o *models.Order),
) (*models.Order, error) {
	ctx, span := util.StartSpan(ctx, "OrderService."+string(op),
		attribute.Int64("order.id", orderID),
		attribute.Int64("actor.id", actorID))
	defer span.End()

	order, err := s.store.GetOrderByID(ctx, orderID)
	if err != nil {
		return nil, s.fail(span, string(op), err)
	}
	if err := op.Authorize(order, actorID); err != nil {
		return nil, s.fail(span, string(op), err)
	}
	next, err := models.NextStatus(order.Status, op)
	if err != nil {
		return nil, s.fail(span, string(op), err)
	}

	t := &models.OrderTransition{OrderID: order.ID, From: order.Status, To: next}
	if stamp != nil {
		stamp(t, order)
	}
	if err := s.store.ApplyTransition(ctx, t); err != nil {
		return nil, s.fail(span, string(op), err)
	}

	from := order.Status
	t.ApplyTo(order)
	order.UpdatedAt = s.now()

	s.invalidate(ctx, order.ID)
	util.OrderTransitionsTotal.WithLabelValues(string(op)).Inc()
	if t.RestockQuantity > 0 {
		util.StockRestoredUnits.Add(float64(t.RestockQuantity))
	}

	s.logger.Info("Order transitioned",
		zap.Int64("order_id", order.ID),
		zap.String("operation", string(op)),
		zap.String("from", string(from)),
		zap.String("to", string(next)),
		zap.Int("restocked", t.RestockQuantity))

	s.publish(ctx, op.EventType(), op, from, order)
	return order, nil
}

// GetOrder retrieves an order by ID
func (s *OrderService) GetOrder(ctx context.Context, orderID int64) (*models.Order, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.GetOrder", attribute.Int64("order.id", orderID))
	defer span.End()

	if s.cache != nil {
		order, ok, err := s.cache.GetOrder(ctx, orderID)
		if err != nil {
			s.logger.Warn("Order cache read failed", zap.Int64("order_id", orderID), zap.Error(err))
		} else if ok {
			return order, nil
		}
	}

	order, err := s.store.GetOrderByID(ctx, orderID)
	if err != nil {
		util.RecordError(span, err)
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.SetOrder(ctx, order, s.orderCacheTTL); err != nil {
			s.logger.Warn("Order cache write failed", zap.Int64("order_id", orderID), zap.Error(err))
		}
	}
	return order, nil
}

// ListOrdersByBuyer lists orders the user placed
func (s *OrderService) ListOrdersByBuyer(ctx context.Context, buyerID int64) ([]models.Order, error) {
	return s.store.ListOrdersByBuyer(ctx, buyerID)
}

// ListOrdersBySeller lists orders placed against the user's products
func (s *OrderService) ListOrdersBySeller(ctx context.Context, sellerID int64) ([]models.Order, error) {
	return s.store.ListOrdersBySeller(ctx, sellerID)
}

func (s *OrderService) invalidate(ctx context.Context, orderID int64) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateOrder(ctx, orderID); err != nil {
		s.logger.Warn("Failed to invalidate cached order", zap.Int64("order_id", orderID), zap.Error(err))
	}
}

func (s *OrderService) publish(ctx context.Context, eventType string, op models.Operation, from models.OrderStatus, order *models.Order) {
	if s.events == nil {
		return
	}

	event := &models.OrderEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: eventType,
			Timestamp: s.now(),
		},
		OrderID:   order.ID,
		BuyerID:   order.BuyerID,
		SellerID:  order.SellerID,
		ProductID: order.ProductID,
		Quantity:  order.Quantity,
		Operation: op,
		From:      from,
		To:        order.Status,
		Reason:    eventReason(op, order),
	}

	if err := s.events.PublishOrderEvent(ctx, event); err != nil {
		util.EventsPublishFailedTotal.Inc()
		s.logger.Error("Failed to publish order event",
			zap.String("event_type", eventType),
			zap.Int64("order_id", order.ID),
			zap.Error(err))
	}
}

func eventReason(op models.Operation, o *models.Order) string {
	var reason *string
	switch op {
	case models.OpRequestCancel:
		reason = o.CancelReason
	case models.OpRejectCancel:
		reason = o.CancelRejectReason
	case models.OpRequestRefund:
		reason = o.RefundReason
	case models.OpRejectRefund:
		reason = o.RefundRejectReason
	}
	if reason == nil {
		return ""
	}
	return *reason
}

// fail records a rejected or failed operation and returns err unchanged
func (s *OrderService) fail(span trace.Span, op string, err error) error {
	util.RecordError(span, err)
	if reason := RejectionReason(err); reason != "" {
		util.OrderRejectionsTotal.WithLabelValues(op, reason).Inc()
		s.logger.Info("Order operation rejected", zap.String("operation", op), zap.Error(err))
		return err
	}
	s.logger.Error("Order operation failed", zap.String("operation", op), zap.Error(err))
	return err
}

var rejectionReasons = []struct {
	err    error
	reason string
}{
	{models.ErrOrderNotFound, "order_not_found"},
	{models.ErrProductNotFound, "product_not_found"},
	{models.ErrProductUnavailable, "product_unavailable"},
	{models.ErrInsufficientStock, "insufficient_stock"},
	{models.ErrInvalidQuantity, "invalid_quantity"},
	{models.ErrInvalidTransition, "invalid_transition"},
	{models.ErrUnauthorized, "unauthorized"},
	{models.ErrOrderConflict, "conflict"},
}

// RejectionReason names the business rule err violates, or "" for
// persistence and other unexpected failures.
func RejectionReason(err error) string {
	for _, r := range rejectionReasons {
		if errors.Is(err, r.err) {
			return r.reason
		}
	}
	return ""
}

// IsRejection reports whether err is an expected business rejection rather
// than an infrastructure failure.
func IsRejection(err error) bool {
	return RejectionReason(err) != ""
}
