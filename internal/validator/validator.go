// Package validator checks registration and listing input.
package validator

import (
	"regexp"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

// Error is a rejected field. Key names the i18n message for it.
type Error struct {
	Field string
	Key   string
	msg   string
}

func (e *Error) Error() string { return e.Field + ": " + e.msg }

var (
	ErrInvalidEmail     = &Error{Field: "email", Key: "validation.invalid_email", msg: "invalid email address"}
	ErrInvalidUsername  = &Error{Field: "username", Key: "validation.invalid_username", msg: "must be 3-20 letters, digits or underscores"}
	ErrPasswordTooShort = &Error{Field: "password", Key: "validation.password_too_short", msg: "too short"}
	ErrPasswordTooLong  = &Error{Field: "password", Key: "validation.password_too_long", msg: "too long"}
	ErrInvalidPrice     = &Error{Field: "price", Key: "validation.invalid_price", msg: "must be greater than 0"}
	ErrInvalidPhone     = &Error{Field: "phone", Key: "validation.invalid_phone", msg: "invalid phone number"}
	ErrInvalidStock     = &Error{Field: "stock", Key: "validation.invalid_stock", msg: "cannot be negative"}
)

const (
	MinPasswordLength = 6
	MaxPasswordLength = 20
)

var (
	emailPattern    = regexp.MustCompile(`^[A-Za-z0-9._%+-]+@[A-Za-z0-9-]+(\.[A-Za-z0-9-]+)*\.[A-Za-z]{2,}$`)
	usernamePattern = regexp.MustCompile(`^[A-Za-z0-9_]{3,20}$`)
	phonePattern    = regexp.MustCompile(`^1[3-9][0-9]{9}$`)
)

func Email(email string) error {
	if !emailPattern.MatchString(email) {
		return ErrInvalidEmail
	}
	return nil
}

func Username(username string) error {
	if !usernamePattern.MatchString(username) {
		return ErrInvalidUsername
	}
	return nil
}

// Password bounds the length in characters, not bytes.
func Password(password string) error {
	n := utf8.RuneCountInString(password)
	switch {
	case n < MinPasswordLength:
		return ErrPasswordTooShort
	case n > MaxPasswordLength:
		return ErrPasswordTooLong
	}
	return nil
}

func Price(price decimal.Decimal) error {
	if !price.IsPositive() {
		return ErrInvalidPrice
	}
	return nil
}

// Phone accepts mainland China mobile numbers.
func Phone(phone string) error {
	if !phonePattern.MatchString(phone) {
		return ErrInvalidPhone
	}
	return nil
}

func Stock(stock int) error {
	if stock < 0 {
		return ErrInvalidStock
	}
	return nil
}
