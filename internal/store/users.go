package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"anime-market/internal/models"

	"github.com/lib/pq"
)

const userColumns = `user_id, username, email, password_hash, role, phone, banned, created_at`

// uniqueViolation is the Postgres SQLSTATE for a unique constraint failure
const uniqueViolation = "23505"

// CreateUser inserts a user. A duplicate username or email yields ErrUserExists.
func (s *Store) CreateUser(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (username, email, password_hash, role, phone)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING user_id, banned, created_at`

	err := s.db.GetContext(ctx, user, query,
		user.Username, user.Email, user.PasswordHash, user.Role, user.Phone)
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return fmt.Errorf("%w: %s", models.ErrUserExists, user.Username)
	}
	return err
}

// GetUserByID retrieves a user by ID
func (s *Store) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	return s.getUser(ctx, "user_id = $1", id)
}

// GetUserByUsername retrieves a user by username
func (s *Store) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.getUser(ctx, "username = $1", username)
}

func (s *Store) getUser(ctx context.Context, where string, arg interface{}) (*models.User, error) {
	var user models.User
	err := s.db.GetContext(ctx, &user, "SELECT "+userColumns+" FROM users WHERE "+where, arg)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %v", models.ErrUserNotFound, arg)
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// SetUserBanned bans or unbans a user
func (s *Store) SetUserBanned(ctx context.Context, userID int64, banned bool) error {
	res, err := s.db.ExecContext(ctx, "UPDATE users SET banned = $1 WHERE user_id = $2", banned, userID)
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	return expectOneRow(res, fmt.Errorf("%w: %d", models.ErrUserNotFound, userID))
}

// SetUserRole changes a user's role
func (s *Store) SetUserRole(ctx context.Context, userID int64, role string) error {
	res, err := s.db.ExecContext(ctx, "UPDATE users SET role = $1 WHERE user_id = $2", role, userID)
	if err != nil {
		return fmt.Errorf("failed to update role: %w", err)
	}
	return expectOneRow(res, fmt.Errorf("%w: %d", models.ErrUserNotFound, userID))
}
