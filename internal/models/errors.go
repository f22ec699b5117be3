package models

import (
	"errors"
	"fmt"
)

// Business rejections. Callers match them with errors.Is.
var (
	ErrOrderNotFound      = errors.New("order: not found")
	ErrProductNotFound    = errors.New("product: not found")
	ErrProductUnavailable = errors.New("product: not available")
	ErrInsufficientStock  = errors.New("product: insufficient stock")
	ErrInvalidQuantity    = errors.New("order: quantity must be positive")
	ErrInvalidTransition  = errors.New("order: invalid status transition")
	ErrUnauthorized       = errors.New("order: caller is not a party to this operation")
	ErrOrderConflict      = errors.New("order: concurrent modification")
	ErrUserNotFound       = errors.New("user: not found")
	ErrUserExists         = errors.New("user: already exists")
	ErrUserBanned         = errors.New("user: banned")
	ErrInvalidCredentials = errors.New("user: invalid credentials")
	ErrNotSeller          = errors.New("user: not a seller")
	ErrEmptyMessage       = errors.New("message: empty content")
	ErrInvalidRole        = errors.New("user: unknown role")
	ErrAlreadyFavorited   = errors.New("favorite: already in favorites")
	ErrNotFavorited       = errors.New("favorite: not in favorites")
	ErrReportNotFound     = errors.New("report: not found")
	ErrReportReviewed     = errors.New("report: already reviewed")
	ErrInvalidReport      = errors.New("report: invalid")
)

// PermissionError is returned when a user lacks the role an action requires
type PermissionError struct {
	UserID int64
	Role   string
	Action string
}

func (e *PermissionError) Error() string {
	return fmt.Sprintf("permission denied: user %d with role %q cannot %s", e.UserID, e.Role, e.Action)
}
