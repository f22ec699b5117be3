package service

import (
	"context"
	"fmt"

	"anime-market/internal/models"
	"anime-market/internal/util"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// EventLedger remembers which events were already handled
type EventLedger interface {
	IsEventProcessed(ctx context.Context, eventID string) (bool, error)
	MarkEventProcessed(ctx context.Context, eventID, eventType string) error
}

// OrderEventNotifier turns an order event into a user-facing notice
type OrderEventNotifier interface {
	NotifyOrderEvent(ctx context.Context, event *models.OrderEvent) error
}

// OrderEventHandler consumes lifecycle events at most once per event ID
type OrderEventHandler struct {
	ledger   EventLedger
	notifier OrderEventNotifier
	logger   *zap.Logger
}

// NewOrderEventHandler creates a new order event handler
func NewOrderEventHandler(ledger EventLedger, notifier OrderEventNotifier) *OrderEventHandler {
	return &OrderEventHandler{
		ledger:   ledger,
		notifier: notifier,
		logger:   util.Named("order-events"),
	}
}

// HandleOrderEvent notifies the counterparty of the order, skipping redelivered events
func (h *OrderEventHandler) HandleOrderEvent(ctx context.Context, event *models.OrderEvent) error {
	ctx, span := util.StartSpan(ctx, "OrderEventHandler.HandleOrderEvent",
		attribute.String("event.type", event.EventType),
		attribute.Int64("order.id", event.OrderID))
	defer span.End()

	processed, err := h.ledger.IsEventProcessed(ctx, event.EventID)
	if err != nil {
		util.RecordError(span, err)
		return fmt.Errorf("failed to check event processed: %w", err)
	}
	if processed {
		h.logger.Info("Event already processed", zap.String("event_id", event.EventID))
		return nil
	}

	if err := h.notifier.NotifyOrderEvent(ctx, event); err != nil {
		util.RecordError(span, err)
		return fmt.Errorf("failed to notify for event %s: %w", event.EventID, err)
	}

	if err := h.ledger.MarkEventProcessed(ctx, event.EventID, event.EventType); err != nil {
		h.logger.Error("Failed to mark event processed", zap.String("event_id", event.EventID), zap.Error(err))
	}

	h.logger.Info("Order event handled",
		zap.String("event_type", event.EventType),
		zap.Int64("order_id", event.OrderID))
	return nil
}
