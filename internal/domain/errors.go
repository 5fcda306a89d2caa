package domain

import (
	"errors"
	"sort"
	"strings"
)

var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("already exists")

	ErrUnauthenticated = errors.New("user is not authenticated")
	ErrForbidden       = errors.New("forbidden")
	ErrBadCredentials  = errors.New("invalid email or password")

	ErrNoSessionCart        = errors.New("no session cart")
	ErrInsufficientStock    = errors.New("insufficient stock")
	ErrCartEmpty            = errors.New("your cart is empty")
	ErrMissingAddress       = errors.New("no shipping address")
	ErrMissingPaymentMethod = errors.New("no payment method")
	ErrAlreadyPaid          = errors.New("order is already paid")
	ErrNotPaid              = errors.New("order is not paid")
	ErrAlreadyDelivered     = errors.New("order is already delivered")

	ErrPaymentMismatch = errors.New("payment verification failed")
	ErrProvider        = errors.New("payment provider error")
)

// NotFound wraps ErrNotFound with the name of the missing resource ("product not found").
func NotFound(what string) error {
	return &notFoundError{what: what}
}

type notFoundError struct{ what string }

func (e *notFoundError) Error() string { return e.what + " not found" }

func (e *notFoundError) Unwrap() error { return ErrNotFound }

// ValidationError holds field-by-field validation messages.
type ValidationError struct {
	Fields map[string]string
}

func NewValidationError(field, msg string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: msg}}
}

func (e *ValidationError) Add(field, msg string) {
	if e.Fields == nil {
		e.Fields = map[string]string{}
	}
	e.Fields[field] = msg
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	msgs := make([]string, 0, len(keys))
	for _, k := range keys {
		msgs = append(msgs, e.Fields[k])
	}
	return strings.Join(msgs, ". ")
}

func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
