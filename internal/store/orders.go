package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"anime-market/internal/models"
	"anime-market/internal/util"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

const orderColumns = `order_id, buyer_id, seller_id, product_id, quantity, total_price, status, shipping_address,
	payment_method, tracking_number, cancel_reason, cancel_reject_reason, refund_reason, refund_reject_reason,
	paid_at, shipped_at, completed_at, created_at, updated_at`

// CreateOrder reserves stock and inserts a PENDING order in one transaction.
// The stock decrement is conditional, so concurrent buyers can never oversell.
// SellerID, TotalPrice and Status are filled from the reserved product row.
func (s *Store) CreateOrder(ctx context.Context, order *models.Order) error {
	ctx, span := util.StartSpan(ctx, "Store.CreateOrder")
	defer span.End()

	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		var reserved struct {
			SellerID int64           `db:"seller_id"`
			Price    decimal.Decimal `db:"price"`
		}
		err := tx.GetContext(ctx, &reserved, `
			UPDATE products SET stock = stock - $1, updated_at = NOW()
			WHERE product_id = $2 AND status = $3 AND stock >= $1
			RETURNING seller_id, price`,
			order.Quantity, order.ProductID, models.ProductStatusAvailable)
		if errors.Is(err, sql.ErrNoRows) {
			return reserveRejection(ctx, tx, order)
		}
		if err != nil {
			return fmt.Errorf("failed to reserve stock: %w", err)
		}

		order.SellerID = reserved.SellerID
		order.TotalPrice = reserved.Price.Mul(decimal.NewFromInt(int64(order.Quantity)))
		order.Status = models.OrderStatusPending

		err = tx.GetContext(ctx, order, `
			INSERT INTO orders (buyer_id, seller_id, product_id, quantity, total_price, status, shipping_address)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			RETURNING order_id, created_at, updated_at`,
			order.BuyerID, order.SellerID, order.ProductID, order.Quantity,
			order.TotalPrice, order.Status, order.ShippingAddress)
		if err != nil {
			return fmt.Errorf("failed to insert order: %w", err)
		}
		return nil
	})
}

// reserveRejection reports why the conditional stock update matched no row
func reserveRejection(ctx context.Context, tx *sqlx.Tx, order *models.Order) error {
	var current struct {
		Status models.ProductStatus `db:"status"`
		Stock  int                  `db:"stock"`
	}
	err := tx.GetContext(ctx, &current, "SELECT status, stock FROM products WHERE product_id = $1", order.ProductID)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return fmt.Errorf("%w: %d", models.ErrProductNotFound, order.ProductID)
	case err != nil:
		return fmt.Errorf("failed to read product: %w", err)
	case current.Status != models.ProductStatusAvailable:
		return fmt.Errorf("%w: product %d is %s", models.ErrProductUnavailable, order.ProductID, current.Status)
	default:
		return fmt.Errorf("%w: product %d has %d, requested %d",
			models.ErrInsufficientStock, order.ProductID, current.Stock, order.Quantity)
	}
}

// GetOrderByID retrieves an order by ID
func (s *Store) GetOrderByID(ctx context.Context, id int64) (*models.Order, error) {
	ctx, span := util.StartSpan(ctx, "Store.GetOrderByID")
	defer span.End()

	var order models.Order
	err := s.db.GetContext(ctx, &order, "SELECT "+orderColumns+" FROM orders WHERE order_id = $1", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %d", models.ErrOrderNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// ApplyTransition moves an order from t.From to t.To, stamping the non-nil fields,
// and restocks the product when requested. It fails with ErrOrderConflict when the
// order is no longer in t.From.
func (s *Store) ApplyTransition(ctx context.Context, t *models.OrderTransition) error {
	ctx, span := util.StartSpan(ctx, "Store.ApplyTransition")
	defer span.End()

	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx, `
			UPDATE orders SET
				status = $1,
				payment_method = COALESCE($2, payment_method),
				tracking_number = COALESCE($3, tracking_number),
				cancel_reason = COALESCE($4, cancel_reason),
				cancel_reject_reason = COALESCE($5, cancel_reject_reason),
				refund_reason = COALESCE($6, refund_reason),
				refund_reject_reason = COALESCE($7, refund_reject_reason),
				paid_at = COALESCE($8, paid_at),
				shipped_at = COALESCE($9, shipped_at),
				completed_at = COALESCE($10, completed_at),
				updated_at = NOW()
			WHERE order_id = $11 AND status = $12`,
			t.To, t.PaymentMethod, t.TrackingNumber, t.CancelReason, t.CancelRejectReason,
			t.RefundReason, t.RefundRejectReason, t.PaidAt, t.ShippedAt, t.CompletedAt,
			t.OrderID, t.From)
		if err != nil {
			return fmt.Errorf("failed to update order status: %w", err)
		}
		if err := expectOneRow(res, fmt.Errorf("%w: order %d left %s", models.ErrOrderConflict, t.OrderID, t.From)); err != nil {
			return err
		}

		if t.RestockQuantity > 0 {
			_, err := tx.ExecContext(ctx,
				"UPDATE products SET stock = stock + $1, updated_at = NOW() WHERE product_id = $2",
				t.RestockQuantity, t.RestockProductID)
			if err != nil {
				return fmt.Errorf("failed to restock product: %w", err)
			}
		}
		return nil
	})
}

// ListOrdersByBuyer retrieves a buyer's orders, newest first
func (s *Store) ListOrdersByBuyer(ctx context.Context, buyerID int64) ([]models.Order, error) {
	orders := []models.Order{}
	err := s.db.SelectContext(ctx, &orders,
		"SELECT "+orderColumns+" FROM orders WHERE buyer_id = $1 ORDER BY created_at DESC", buyerID)
	return orders, err
}

// ListOrdersBySeller retrieves a seller's orders, newest first
func (s *Store) ListOrdersBySeller(ctx context.Context, sellerID int64) ([]models.Order, error) {
	orders := []models.Order{}
	err := s.db.SelectContext(ctx, &orders,
		"SELECT "+orderColumns+" FROM orders WHERE seller_id = $1 ORDER BY created_at DESC", sellerID)
	return orders, err
}

// IsEventProcessed checks if an event has been processed
func (s *Store) IsEventProcessed(ctx context.Context, eventID string) (bool, error) {
	var exists bool
	err := s.db.GetContext(ctx, &exists,
		"SELECT EXISTS(SELECT 1 FROM processed_events WHERE event_id = $1)", eventID)
	return exists, err
}

// MarkEventProcessed marks an event as processed
func (s *Store) MarkEventProcessed(ctx context.Context, eventID, eventType string) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO processed_events (event_id, event_type) VALUES ($1, $2) ON CONFLICT (event_id) DO NOTHING",
		eventID, eventType)
	return err
}
