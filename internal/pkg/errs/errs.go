// internal/pkg/errs/errs.go
package errs

import (
	"errors"
	"fmt"
)

// Sentinel errors shared across the domain services.
var (
	ErrEmptyCart       = errors.New("cart is empty")
	ErrNotFound        = errors.New("resource not found")
	ErrUnauthorized    = errors.New("not authorized to access this resource")
	ErrOrderConflict   = errors.New("order number collision")
	ErrPaymentDeclined = errors.New("payment was declined by the gateway")
)

// ValidationError signals malformed input. Always the caller's fault.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string {
	return e.Msg
}

// Validation builds a ValidationError from a format string.
func Validation(format string, args ...interface{}) error {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// InsufficientStockError names the product that could not be reserved.
type InsufficientStockError struct {
	ProductID   uint
	ProductName string
	Available   int
	Requested   int
}

func (e *InsufficientStockError) Error() string {
	if e.ProductName != "" {
		return fmt.Sprintf("insufficient stock for product '%s': available %d, requested %d",
			e.ProductName, e.Available, e.Requested)
	}
	return fmt.Sprintf("insufficient stock for product %d: available %d, requested %d",
		e.ProductID, e.Available, e.Requested)
}

// OverpaymentError signals a payment exceeding the order's remaining amount.
type OverpaymentError struct {
	Amount    int64
	Remaining int64
}

func (e *OverpaymentError) Error() string {
	return fmt.Sprintf("payment amount %d exceeds remaining order amount %d", e.Amount, e.Remaining)
}

// InvalidPaymentStateError signals an operation on a payment in the wrong state.
type InvalidPaymentStateError struct {
	PaymentID uint
	Status    string
	Op        string
}

func (e *InvalidPaymentStateError) Error() string {
	return fmt.Sprintf("payment %d cannot be %s in status %q", e.PaymentID, e.Op, e.Status)
}

// RefundExceedsAmountError signals a refund larger than what is refundable.
type RefundExceedsAmountError struct {
	Amount        int64
	MaxRefundable int64
}

func (e *RefundExceedsAmountError) Error() string {
	return fmt.Sprintf("refund amount %d exceeds refundable amount %d", e.Amount, e.MaxRefundable)
}

// InvalidStateTransitionError signals a disallowed order status transition.
type InvalidStateTransitionError struct {
	From string
	To   string
}

func (e *InvalidStateTransitionError) Error() string {
	return fmt.Sprintf("invalid order status transition from %q to %q", e.From, e.To)
}
