package worker

import (
	"context"

	"anime-market/internal/broker"
	"anime-market/internal/models"
	"anime-market/internal/util"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// consumer is the part of *broker.Consumer the worker drives
type consumer interface {
	StartConsuming(ctx context.Context, handler broker.MessageHandler) error
	Close() error
}

// OrderEventProcessor handles one decoded order event
type OrderEventProcessor interface {
	HandleOrderEvent(ctx context.Context, event *models.OrderEvent) error
}

// NotificationWorker turns order events from Kafka into inbox notices
type NotificationWorker struct {
	consumer     consumer
	eventHandler *broker.EventHandler
	logger       *zap.Logger
}

// NewNotificationWorker creates a new notification worker
func NewNotificationWorker(c *broker.Consumer, processor OrderEventProcessor) *NotificationWorker {
	return newNotificationWorker(c, processor)
}

func newNotificationWorker(c consumer, processor OrderEventProcessor) *NotificationWorker {
	eventHandler := broker.NewEventHandler()
	eventHandler.OnOrderEvent(processor.HandleOrderEvent)

	return &NotificationWorker{
		consumer:     c,
		eventHandler: eventHandler,
		logger:       util.Named("notification-worker"),
	}
}

// Start blocks consuming events until ctx is cancelled
func (w *NotificationWorker) Start(ctx context.Context) error {
	w.logger.Info("Starting notification worker")
	return w.consumer.StartConsuming(ctx, w.handle)
}

func (w *NotificationWorker) handle(ctx context.Context, msg kafka.Message) error {
	ctx, span := util.StartSpan(ctx, "NotificationWorker.handle")
	defer span.End()

	if err := w.eventHandler.HandleMessage(ctx, msg); err != nil {
		util.RecordError(span, err)
		return err
	}
	return nil
}

// Stop stops the worker
func (w *NotificationWorker) Stop() error {
	w.logger.Info("Stopping notification worker")
	return w.consumer.Close()
}
