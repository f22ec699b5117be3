package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"anime-market/internal/models"
	"anime-market/internal/util"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// EventPublisher handles publishing domain events
type EventPublisher struct {
	producer *Producer
}

// NewEventPublisher creates a new event publisher
func NewEventPublisher(producer *Producer) *EventPublisher {
	return &EventPublisher{producer: producer}
}

// PublishOrderEvent publishes a lifecycle event keyed by order
func (ep *EventPublisher) PublishOrderEvent(ctx context.Context, event *models.OrderEvent) error {
	key := fmt.Sprintf("order-%d", event.OrderID)
	return ep.producer.PublishEvent(ctx, key, event)
}

// EventHandler routes incoming events to registered callbacks
type EventHandler struct {
	onOrderEvent func(context.Context, *models.OrderEvent) error
	logger       *zap.Logger
}

// NewEventHandler creates a new event handler
func NewEventHandler() *EventHandler {
	return &EventHandler{logger: util.Named("event-handler")}
}

// OnOrderEvent registers a handler for every ORDER_* event
func (eh *EventHandler) OnOrderEvent(handler func(context.Context, *models.OrderEvent) error) {
	eh.onOrderEvent = handler
}

// HandleMessage routes messages to appropriate handlers
func (eh *EventHandler) HandleMessage(ctx context.Context, msg kafka.Message) error {
	var baseEvent models.BaseEvent
	if err := json.Unmarshal(msg.Value, &baseEvent); err != nil {
		return fmt.Errorf("failed to unmarshal base event: %w", err)
	}

	eh.logger.Debug("Handling event",
		zap.String("type", baseEvent.EventType),
		zap.String("id", baseEvent.EventID))

	switch {
	case strings.HasPrefix(baseEvent.EventType, "ORDER_"):
		if eh.onOrderEvent == nil {
			return nil
		}
		var event models.OrderEvent
		if err := json.Unmarshal(msg.Value, &event); err != nil {
			return fmt.Errorf("failed to unmarshal %s event: %w", baseEvent.EventType, err)
		}
		return eh.onOrderEvent(ctx, &event)

	default:
		eh.logger.Warn("Unhandled event type", zap.String("type", baseEvent.EventType))
	}

	return nil
}
