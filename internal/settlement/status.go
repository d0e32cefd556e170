package settlement

import (
	"errors"

	"github.com/shopspring/decimal"
)

// Status is the lifecycle state of a sale.
type Status string

const (
	StatusPending           Status = "PENDING"
	StatusCompleted         Status = "COMPLETED"
	StatusRefunded          Status = "REFUNDED"
	StatusPartiallyRefunded Status = "PARTIALLY_REFUNDED"
	StatusCancelled         Status = "CANCELLED"
)

var (
	// ErrInvalidTransition is returned for a status change the lifecycle does not allow.
	ErrInvalidTransition = errors.New("settlement: invalid status transition")
	// ErrInvalidRefundScope is returned when a partial refund covers no lines or all lines.
	ErrInvalidRefundScope = errors.New("settlement: partial refund must cover a strict non-empty subset of lines")
)

// Terminal reports whether no further transition is allowed from s.
func (s Status) Terminal() bool {
	return s == StatusRefunded || s == StatusCancelled
}

// Valid reports whether s is a known sale status.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusCompleted, StatusRefunded, StatusPartiallyRefunded, StatusCancelled:
		return true
	}
	return false
}

var transitions = map[Status][]Status{
	StatusPending:           {StatusCompleted, StatusCancelled},
	StatusCompleted:         {StatusRefunded, StatusPartiallyRefunded},
	StatusPartiallyRefunded: {StatusRefunded, StatusPartiallyRefunded},
}

// CanTransition reports whether the lifecycle allows moving from one status to another.
// A completed sale is never cancelled, only refunded; REFUNDED and CANCELLED are terminal.
func CanTransition(from, to Status) bool {
	for _, t := range transitions[from] {
		if t == to {
			return true
		}
	}
	return false
}

// TransitionInput carries the sale facts a transition is validated against.
type TransitionInput struct {
	From            Status
	To              Status
	PaidAmount      decimal.Decimal
	TotalAmount     decimal.Decimal
	DeferredPayment bool
	RefundedLines   int
	TotalLines      int
}

// ValidateTransition checks a requested status change against the sale lifecycle.
// PENDING moves to COMPLETED only once the sale is settled (or explicitly deferred);
// a partial refund must leave at least one line untouched.
func ValidateTransition(in TransitionInput) error {
	if !CanTransition(in.From, in.To) {
		return ErrInvalidTransition
	}
	switch in.To {
	case StatusCompleted:
		if !in.DeferredPayment && in.PaidAmount.Cmp(in.TotalAmount) < 0 {
			return ErrInsufficientPayment
		}
	case StatusPartiallyRefunded:
		if in.RefundedLines <= 0 || in.RefundedLines >= in.TotalLines {
			return ErrInvalidRefundScope
		}
	}
	return nil
}
