package common

import (
	"errors"
	"net/http"

	"github.com/Christian-Akor/enterprise-pos-system/internal/settlement"
)

// AppError represents an error with an attached code and HTTP status.
type AppError struct {
	Code       string
	Message    string
	HTTPStatus int
	Err        error
	Details    any
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Message
}

// Unwrap allows errors.Is/As to inspect the underlying error.
func (e *AppError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// NewAppError constructs an AppError.
func NewAppError(code, message string, status int, err error) *AppError {
	return &AppError{Code: code, Message: message, HTTPStatus: status, Err: err}
}

// FromSettlementError maps engine validation failures onto API error codes.
// Anything unrecognised becomes a generic internal error.
func FromSettlementError(err error) *AppError {
	switch {
	case errors.Is(err, settlement.ErrInvalidDiscount):
		return NewAppError("INVALID_DISCOUNT", "discount exceeds the amount it discounts", http.StatusUnprocessableEntity, err)
	case errors.Is(err, settlement.ErrNegativeTotal):
		return NewAppError("NEGATIVE_TOTAL", "total amount would be negative after discount", http.StatusUnprocessableEntity, err)
	case errors.Is(err, settlement.ErrInsufficientPayment):
		return NewAppError("INSUFFICIENT_PAYMENT", "paid amount is below the total due", http.StatusUnprocessableEntity, err)
	case errors.Is(err, settlement.ErrEmptySale):
		return NewAppError("EMPTY_SALE", "sale has no line items", http.StatusUnprocessableEntity, err)
	case errors.Is(err, settlement.ErrInvalidLine):
		return NewAppError("INVALID_LINE", "line item has invalid quantity, price, tax rate, or discount", http.StatusUnprocessableEntity, err)
	case errors.Is(err, settlement.ErrInvalidTransition):
		return NewAppError("INVALID_TRANSITION", "sale status transition is not allowed", http.StatusConflict, err)
	case errors.Is(err, settlement.ErrInvalidRefundScope):
		return NewAppError("INVALID_REFUND_SCOPE", "partial refund must cover a strict non-empty subset of lines", http.StatusUnprocessableEntity, err)
	}
	return NewAppError("INTERNAL", "internal error", http.StatusInternalServerError, err)
}

// IsAppError checks whether the error is an AppError.
func IsAppError(err error) bool {
	var target *AppError
	return errors.As(err, &target)
}
