package service

import (
	"context"
	"fmt"
	"strings"

	"anime-market/internal/models"
	"anime-market/internal/util"

	"go.uber.org/zap"
)

// MessageStore persists direct messages
type MessageStore interface {
	CreateMessage(ctx context.Context, msg *models.Message) error
	ListMessagesForUser(ctx context.Context, userID int64, limit int) ([]models.Message, error)
	MarkMessagesRead(ctx context.Context, userID int64) (int64, error)
}

// Translator renders a message key in a language
type Translator interface {
	T(lang, key string, args map[string]interface{}) string
}

// notice describes who hears about an order event and what they are told
type notice struct {
	key      string
	toSeller bool
}

// COMPLETED is absent: ConfirmReceipt notifies the seller synchronously.
var orderEventNotices = map[string]notice{
	models.EventTypeOrderCreated:         {"order.new_order", true},
	models.EventTypeOrderPaid:            {"order.paid_notice", true},
	models.EventTypeOrderShipped:         {"order.shipped_notice", false},
	models.EventTypeOrderCancelRequested: {"order.cancel_requested_notice", true},
	models.EventTypeOrderCancelled:       {"order.cancelled_notice", false},
	models.EventTypeOrderCancelRejected:  {"order.cancel_rejected_notice", false},
	models.EventTypeOrderRefundRequested: {"order.refund_requested_notice", true},
	models.EventTypeOrderRefunded:        {"order.refunded_notice", false},
	models.EventTypeOrderRefundRejected:  {"order.refund_rejected_notice", false},
}

// MessageService handles buyer/seller messaging and order notifications
type MessageService struct {
	store      MessageStore
	translator Translator
	lang       string
	logger     *zap.Logger
}

// NewMessageService creates a message service. System notices are rendered in lang.
func NewMessageService(store MessageStore, translator Translator, lang string) *MessageService {
	return &MessageService{
		store:      store,
		translator: translator,
		lang:       lang,
		logger:     util.Named("message"),
	}
}

// Send writes a chat message from one user to another
func (s *MessageService) Send(ctx context.Context, senderID, receiverID int64, content string) (*models.Message, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, models.ErrEmptyMessage
	}

	msg := &models.Message{
		SenderID:    senderID,
		ReceiverID:  receiverID,
		Content:     content,
		MessageType: models.MessageTypeChat,
	}
	if err := s.store.CreateMessage(ctx, msg); err != nil {
		return nil, fmt.Errorf("failed to send message: %w", err)
	}
	util.MessagesSentTotal.WithLabelValues(msg.MessageType).Inc()
	return msg, nil
}

// Inbox lists messages received by the user
func (s *MessageService) Inbox(ctx context.Context, userID int64, limit int) ([]models.Message, error) {
	return s.store.ListMessagesForUser(ctx, userID, limit)
}

// MarkRead flags the user's unread messages as read
func (s *MessageService) MarkRead(ctx context.Context, userID int64) (int64, error) {
	return s.store.MarkMessagesRead(ctx, userID)
}

// NotifyOrderCompleted sends the seller a service message on behalf of the buyer
func (s *MessageService) NotifyOrderCompleted(ctx context.Context, order *models.Order) error {
	content := s.translator.T(s.lang, "order.completed_notice", map[string]interface{}{
		"order_id": order.ID,
	})
	return s.sendNotice(ctx, order.BuyerID, order.SellerID, order.ID, content)
}

// NotifyOrderEvent tells the counterparty about a lifecycle step.
// Events without a notice are ignored.
func (s *MessageService) NotifyOrderEvent(ctx context.Context, event *models.OrderEvent) error {
	n, ok := orderEventNotices[event.EventType]
	if !ok {
		return nil
	}

	sender, receiver := event.SellerID, event.BuyerID
	if n.toSeller {
		sender, receiver = event.BuyerID, event.SellerID
	}

	content := s.translator.T(s.lang, n.key, map[string]interface{}{
		"order_id": event.OrderID,
		"quantity": event.Quantity,
		"reason":   event.Reason,
	})
	return s.sendNotice(ctx, sender, receiver, event.OrderID, content)
}

func (s *MessageService) sendNotice(ctx context.Context, senderID, receiverID, orderID int64, content string) error {
	msg := &models.Message{
		SenderID:    senderID,
		ReceiverID:  receiverID,
		OrderID:     &orderID,
		Content:     content,
		MessageType: models.MessageTypeService,
	}
	if err := s.store.CreateMessage(ctx, msg); err != nil {
		return fmt.Errorf("failed to write notice for order %d: %w", orderID, err)
	}
	util.MessagesSentTotal.WithLabelValues(msg.MessageType).Inc()
	s.logger.Debug("Order notice sent",
		zap.Int64("order_id", orderID),
		zap.Int64("receiver_id", receiverID))
	return nil
}
