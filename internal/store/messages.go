package store

import (
	"context"

	"anime-market/internal/models"
)

// CreateMessage inserts a message
func (s *Store) CreateMessage(ctx context.Context, msg *models.Message) error {
	query := `
		INSERT INTO messages (sender_id, receiver_id, order_id, content, message_type)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING message_id, is_read, created_at`

	return s.db.GetContext(ctx, msg, query,
		msg.SenderID, msg.ReceiverID, msg.OrderID, msg.Content, msg.MessageType)
}

// ListMessagesForUser returns messages received by a user, newest first
func (s *Store) ListMessagesForUser(ctx context.Context, userID int64, limit int) ([]models.Message, error) {
	if limit <= 0 {
		limit = 50
	}
	messages := []models.Message{}
	err := s.db.SelectContext(ctx, &messages, `
		SELECT message_id, sender_id, receiver_id, order_id, content, message_type, is_read, created_at
		FROM messages WHERE receiver_id = $1
		ORDER BY created_at DESC LIMIT $2`, userID, limit)
	return messages, err
}

// MarkMessagesRead flags every unread message of a user as read
func (s *Store) MarkMessagesRead(ctx context.Context, userID int64) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		"UPDATE messages SET is_read = TRUE WHERE receiver_id = $1 AND is_read = FALSE", userID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
