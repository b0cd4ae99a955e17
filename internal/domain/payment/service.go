// internal/domain/payment/service.go
package payment

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/your-org/checkout-engine/internal/config"
	"github.com/your-org/checkout-engine/internal/domain/identity"
	"github.com/your-org/checkout-engine/internal/domain/order"
	"github.com/your-org/checkout-engine/internal/pkg/errs"
)

// Service handles payment settlement against orders
type Service struct {
	db      *gorm.DB
	config  *config.Config
	gateway Gateway
}

// NewService creates a new payment service
func NewService(db *gorm.DB, cfg *config.Config, gateway Gateway) *Service {
	return &Service{
		db:      db,
		config:  cfg,
		gateway: gateway,
	}
}

// ProcessPayment settles a payment against an order. Online methods charge
// the gateway synchronously; cash on delivery stays pending until an
// administrator confirms collection.
func (s *Service) ProcessPayment(ctx context.Context, ident identity.Identity, orderID uint, method string, amount int64, details ChargeDetails) (*order.Payment, error) {
	tx := s.db.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	var ord order.Order
	if err := tx.First(&ord, orderID).Error; err != nil {
		tx.Rollback()
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.ErrNotFound
		}
		return nil, fmt.Errorf("failed to load order: %w", err)
	}
	if !ident.CanAccessOrder(ord.UserID) {
		tx.Rollback()
		return nil, errs.ErrUnauthorized
	}

	pmt, err := s.ProcessInTx(ctx, tx, &ord, method, amount, details)
	if err != nil {
		// A gateway decline is still an outcome worth keeping. Record the
		// failed attempt before surfacing the error.
		if errors.Is(err, errs.ErrPaymentDeclined) && pmt != nil {
			if commitErr := tx.Commit().Error; commitErr != nil {
				return nil, fmt.Errorf("failed to record declined payment: %w", commitErr)
			}
			return pmt, err
		}
		tx.Rollback()
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, fmt.Errorf("failed to commit payment: %w", err)
	}
	return pmt, nil
}

// ProcessInTx runs payment settlement inside the caller's transaction so
// checkout can make order creation and the initial payment atomic. On a
// gateway decline it returns the failed Payment row together with
// ErrPaymentDeclined; the caller decides whether that row commits.
func (s *Service) ProcessInTx(ctx context.Context, tx *gorm.DB, ord *order.Order, method string, amount int64, details ChargeDetails) (*order.Payment, error) {
	if amount <= 0 {
		return nil, errs.Validation("payment amount must be positive, got %d", amount)
	}
	if amount > ord.RemainingAmount {
		return nil, &errs.OverpaymentError{Amount: amount, Remaining: ord.RemainingAmount}
	}

	pmt := &order.Payment{
		OrderID:       ord.ID,
		TransactionID: "TXN-" + uuid.New().String(),
		Method:        method,
		Amount:        amount,
		Currency:      s.config.Payment.Currency,
		Status:        order.TxStatusPending,
	}
	if err := tx.Create(pmt).Error; err != nil {
		return nil, fmt.Errorf("failed to create payment: %w", err)
	}

	if method == order.MethodCashOnDelivery {
		return pmt, nil
	}

	chargeCtx, cancel := context.WithTimeout(ctx, s.config.Payment.ChargeTimeout)
	defer cancel()

	result, err := s.gateway.Charge(chargeCtx, amount, pmt.Currency, details)
	if err != nil {
		// A timeout or transport failure is a payment failure, never a
		// silent success.
		if markErr := s.markFailed(tx, pmt, err.Error()); markErr != nil {
			return nil, markErr
		}
		return pmt, fmt.Errorf("%w: %v", errs.ErrPaymentDeclined, err)
	}
	if !result.Success {
		if markErr := s.markFailed(tx, pmt, result.RawResponse); markErr != nil {
			return nil, markErr
		}
		return pmt, errs.ErrPaymentDeclined
	}

	if err := s.complete(tx, pmt, ord, result.RawResponse); err != nil {
		return nil, err
	}
	return pmt, nil
}

// ConfirmCashOnDelivery completes a pending cash-on-delivery payment.
// Confirming collection for a shipped order also marks it delivered.
func (s *Service) ConfirmCashOnDelivery(paymentID uint) (*order.Payment, error) {
	tx := s.db.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	var pmt order.Payment
	if err := tx.First(&pmt, paymentID).Error; err != nil {
		tx.Rollback()
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.ErrNotFound
		}
		return nil, fmt.Errorf("failed to load payment: %w", err)
	}
	if pmt.Method != order.MethodCashOnDelivery || pmt.Status != order.TxStatusPending {
		tx.Rollback()
		return nil, &errs.InvalidPaymentStateError{
			PaymentID: pmt.ID,
			Status:    pmt.Status,
			Op:        "confirmed",
		}
	}

	var ord order.Order
	if err := tx.First(&ord, pmt.OrderID).Error; err != nil {
		tx.Rollback()
		return nil, fmt.Errorf("failed to load order: %w", err)
	}

	if err := s.complete(tx, &pmt, &ord, `{"status":"collected_on_delivery"}`); err != nil {
		tx.Rollback()
		return nil, err
	}

	// Collecting cash at the door is also proof of delivery.
	if ord.Status == order.StatusShipped {
		now := time.Now()
		ord.Status = order.StatusDelivered
		ord.DeliveredAt = &now
		if err := tx.Save(&ord).Error; err != nil {
			tx.Rollback()
			return nil, fmt.Errorf("failed to mark order delivered: %w", err)
		}
	}

	if err := tx.Commit().Error; err != nil {
		return nil, fmt.Errorf("failed to commit confirmation: %w", err)
	}
	return &pmt, nil
}

// Refund returns money on a completed payment and resettles the order.
func (s *Service) Refund(ctx context.Context, paymentID uint, amount int64, reason string) (*order.Payment, error) {
	if amount <= 0 {
		return nil, errs.Validation("refund amount must be positive, got %d", amount)
	}

	tx := s.db.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	var pmt order.Payment
	if err := tx.First(&pmt, paymentID).Error; err != nil {
		tx.Rollback()
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.ErrNotFound
		}
		return nil, fmt.Errorf("failed to load payment: %w", err)
	}
	if pmt.Status != order.TxStatusCompleted {
		tx.Rollback()
		return nil, &errs.InvalidPaymentStateError{
			PaymentID: pmt.ID,
			Status:    pmt.Status,
			Op:        "refunded",
		}
	}
	if amount > pmt.Refundable() {
		tx.Rollback()
		return nil, &errs.RefundExceedsAmountError{
			Amount:        amount,
			MaxRefundable: pmt.Refundable(),
		}
	}

	if pmt.Method != order.MethodCashOnDelivery {
		refundCtx, cancel := context.WithTimeout(ctx, s.config.Payment.ChargeTimeout)
		defer cancel()
		result, err := s.gateway.Refund(refundCtx, pmt.TransactionID, amount)
		if err != nil {
			tx.Rollback()
			return nil, fmt.Errorf("gateway refund failed: %w", err)
		}
		if !result.Success {
			tx.Rollback()
			return nil, fmt.Errorf("%w: refund rejected", errs.ErrPaymentDeclined)
		}
	}

	now := time.Now()
	pmt.RefundedAmount += amount
	pmt.RefundedAt = &now
	if reason != "" {
		pmt.Notes = reason
	}
	if pmt.FullyRefunded() {
		pmt.Status = order.TxStatusRefunded
	}
	if err := tx.Save(&pmt).Error; err != nil {
		tx.Rollback()
		return nil, fmt.Errorf("failed to save refund: %w", err)
	}

	var ord order.Order
	if err := tx.First(&ord, pmt.OrderID).Error; err != nil {
		tx.Rollback()
		return nil, fmt.Errorf("failed to load order: %w", err)
	}
	ord.RecordRefund(amount)
	if ord.PaidAmount == 0 && ord.CanTransitionTo(order.StatusRefunded) {
		ord.Status = order.StatusRefunded
	}
	if err := tx.Save(&ord).Error; err != nil {
		tx.Rollback()
		return nil, fmt.Errorf("failed to resettle order: %w", err)
	}

	if err := tx.Commit().Error; err != nil {
		return nil, fmt.Errorf("failed to commit refund: %w", err)
	}
	return &pmt, nil
}

// GetPayment loads a payment, enforcing order ownership.
func (s *Service) GetPayment(ident identity.Identity, paymentID uint) (*order.Payment, error) {
	var pmt order.Payment
	if err := s.db.First(&pmt, paymentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.ErrNotFound
		}
		return nil, fmt.Errorf("failed to load payment: %w", err)
	}

	var ord order.Order
	if err := s.db.Select("id", "user_id").First(&ord, pmt.OrderID).Error; err != nil {
		return nil, fmt.Errorf("failed to load order: %w", err)
	}
	if !ident.CanAccessOrder(ord.UserID) {
		return nil, errs.ErrUnauthorized
	}
	return &pmt, nil
}

// GetPaymentHistory lists all payments recorded against an order.
func (s *Service) GetPaymentHistory(ident identity.Identity, orderID uint) ([]order.Payment, error) {
	var ord order.Order
	if err := s.db.Select("id", "user_id").First(&ord, orderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.ErrNotFound
		}
		return nil, fmt.Errorf("failed to load order: %w", err)
	}
	if !ident.CanAccessOrder(ord.UserID) {
		return nil, errs.ErrUnauthorized
	}

	var payments []order.Payment
	if err := s.db.Where("order_id = ?", orderID).Order("created_at ASC").
		Find(&payments).Error; err != nil {
		return nil, fmt.Errorf("failed to list payments: %w", err)
	}
	return payments, nil
}

// MinimumPartialPayment returns the smallest acceptable initial payment for
// a partial-method order. Enforcement happens at request validation time.
func (s *Service) MinimumPartialPayment(total int64) int64 {
	return int64(math.Round(float64(total) * s.config.Checkout.MinPartialFraction))
}

// CanAcceptPartialPayment reports whether an initial partial amount meets
// the minimum-fraction policy.
func (s *Service) CanAcceptPartialPayment(total, amount int64) bool {
	return amount >= s.MinimumPartialPayment(total) && amount <= total
}

// complete marks a payment completed exactly once and resettles the order.
func (s *Service) complete(tx *gorm.DB, pmt *order.Payment, ord *order.Order, gatewayResponse string) error {
	if pmt.Status == order.TxStatusCompleted {
		return &errs.InvalidPaymentStateError{
			PaymentID: pmt.ID,
			Status:    pmt.Status,
			Op:        "completed",
		}
	}

	now := time.Now()
	pmt.Status = order.TxStatusCompleted
	pmt.ProcessedAt = &now
	pmt.GatewayResponse = gatewayResponse
	if err := tx.Save(pmt).Error; err != nil {
		return fmt.Errorf("failed to complete payment: %w", err)
	}

	ord.RecordPayment(pmt.Amount)
	ord.MaybeAutoConfirm(now)
	if err := tx.Save(ord).Error; err != nil {
		return fmt.Errorf("failed to resettle order: %w", err)
	}
	return nil
}

// markFailed records a declined or errored gateway attempt.
func (s *Service) markFailed(tx *gorm.DB, pmt *order.Payment, response string) error {
	pmt.Status = order.TxStatusFailed
	pmt.GatewayResponse = response
	if err := tx.Save(pmt).Error; err != nil {
		return fmt.Errorf("failed to record failed payment: %w", err)
	}
	return nil
}
