// internal/domain/payment/service_test.go
package payment

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/your-org/checkout-engine/internal/config"
	"github.com/your-org/checkout-engine/internal/domain/identity"
	"github.com/your-org/checkout-engine/internal/domain/order"
	"github.com/your-org/checkout-engine/internal/pkg/errs"
)

func setupService(t *testing.T) (*Service, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.New().String())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&order.Order{}, &order.Payment{}))

	cfg := &config.Config{
		Checkout: config.CheckoutConfig{MinPartialFraction: 0.30},
		Payment: config.PaymentConfig{
			Currency:      "EUR",
			ChargeTimeout: 5 * time.Second,
		},
	}
	return NewService(db, cfg, NewSimulatedGateway()), db
}

func seedOrder(t *testing.T, db *gorm.DB, userID uint, total int64, status string) *order.Order {
	t.Helper()
	ord := &order.Order{
		OrderNumber:     "ORD-20260830-" + uuid.New().String()[:6],
		UserID:          userID,
		Status:          status,
		PaymentStatus:   order.PaymentStatusPending,
		PaymentMethod:   order.MethodOnline,
		Subtotal:        total,
		Total:           total,
		RemainingAmount: total,
	}
	require.NoError(t, db.Create(ord).Error)
	return ord
}

func TestPartialPaymentThenFullRefund(t *testing.T) {
	svc, db := setupService(t)
	ord := seedOrder(t, db, 1, 10000, order.StatusPending)
	ident := identity.ForUser(1, false)

	pmt, err := svc.ProcessPayment(context.Background(), ident, ord.ID, order.MethodOnline, 4000, ChargeDetails{Token: "tok_ok"})
	require.NoError(t, err)
	assert.Equal(t, order.TxStatusCompleted, pmt.Status)
	assert.NotNil(t, pmt.ProcessedAt)

	var reloaded order.Order
	require.NoError(t, db.First(&reloaded, ord.ID).Error)
	assert.Equal(t, order.PaymentStatusPartiallyPaid, reloaded.PaymentStatus)
	assert.Equal(t, int64(4000), reloaded.PaidAmount)
	assert.Equal(t, int64(6000), reloaded.RemainingAmount)

	refunded, err := svc.Refund(context.Background(), pmt.ID, 4000, "customer request")
	require.NoError(t, err)
	assert.Equal(t, order.TxStatusRefunded, refunded.Status)
	assert.Equal(t, int64(4000), refunded.RefundedAmount)
	assert.NotNil(t, refunded.RefundedAt)

	require.NoError(t, db.First(&reloaded, ord.ID).Error)
	assert.Equal(t, int64(0), reloaded.PaidAmount)
	assert.Equal(t, order.PaymentStatusRefunded, reloaded.PaymentStatus)
	assert.Equal(t, order.StatusRefunded, reloaded.Status)
}

func TestFullPaymentAutoConfirmsPendingOrder(t *testing.T) {
	svc, db := setupService(t)
	ord := seedOrder(t, db, 1, 24000, order.StatusPending)

	_, err := svc.ProcessPayment(context.Background(), identity.ForUser(1, false), ord.ID, order.MethodOnline, 24000, ChargeDetails{Token: "tok_ok"})
	require.NoError(t, err)

	var reloaded order.Order
	require.NoError(t, db.First(&reloaded, ord.ID).Error)
	assert.Equal(t, order.StatusConfirmed, reloaded.Status)
	assert.Equal(t, order.PaymentStatusPaid, reloaded.PaymentStatus)
	assert.NotNil(t, reloaded.ConfirmedAt)
	assert.Equal(t, int64(0), reloaded.RemainingAmount)
}

func TestOverpaymentRejected(t *testing.T) {
	svc, db := setupService(t)
	ord := seedOrder(t, db, 1, 10000, order.StatusPending)

	_, err := svc.ProcessPayment(context.Background(), identity.ForUser(1, false), ord.ID, order.MethodOnline, 10001, ChargeDetails{Token: "tok_ok"})
	var overpayment *errs.OverpaymentError
	require.True(t, errors.As(err, &overpayment))
	assert.Equal(t, int64(10001), overpayment.Amount)
	assert.Equal(t, int64(10000), overpayment.Remaining)
}

func TestDeclinedChargeIsRecorded(t *testing.T) {
	svc, db := setupService(t)
	ord := seedOrder(t, db, 1, 10000, order.StatusPending)

	pmt, err := svc.ProcessPayment(context.Background(), identity.ForUser(1, false), ord.ID, order.MethodOnline, 10000, ChargeDetails{Token: "fail_insufficient_funds"})
	require.ErrorIs(t, err, errs.ErrPaymentDeclined)
	require.NotNil(t, pmt)
	assert.Equal(t, order.TxStatusFailed, pmt.Status)

	// The failed attempt persists, the order accounting does not move.
	var count int64
	require.NoError(t, db.Model(&order.Payment{}).Where("order_id = ? AND status = ?", ord.ID, order.TxStatusFailed).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	var reloaded order.Order
	require.NoError(t, db.First(&reloaded, ord.ID).Error)
	assert.Equal(t, int64(0), reloaded.PaidAmount)
	assert.Equal(t, order.PaymentStatusPending, reloaded.PaymentStatus)
}

func TestCashOnDeliveryStaysPending(t *testing.T) {
	svc, db := setupService(t)
	ord := seedOrder(t, db, 1, 10000, order.StatusPending)

	pmt, err := svc.ProcessPayment(context.Background(), identity.ForUser(1, false), ord.ID, order.MethodCashOnDelivery, 10000, ChargeDetails{})
	require.NoError(t, err)
	assert.Equal(t, order.TxStatusPending, pmt.Status)

	var reloaded order.Order
	require.NoError(t, db.First(&reloaded, ord.ID).Error)
	assert.Equal(t, int64(0), reloaded.PaidAmount)
}

func TestConfirmCashOnDeliveryWhileShipped(t *testing.T) {
	svc, db := setupService(t)
	ord := seedOrder(t, db, 1, 10000, order.StatusShipped)

	pmt, err := svc.ProcessPayment(context.Background(), identity.ForUser(1, false), ord.ID, order.MethodCashOnDelivery, 10000, ChargeDetails{})
	require.NoError(t, err)

	confirmed, err := svc.ConfirmCashOnDelivery(pmt.ID)
	require.NoError(t, err)
	assert.Equal(t, order.TxStatusCompleted, confirmed.Status)

	// Collecting the cash also proves delivery.
	var reloaded order.Order
	require.NoError(t, db.First(&reloaded, ord.ID).Error)
	assert.Equal(t, order.StatusDelivered, reloaded.Status)
	assert.NotNil(t, reloaded.DeliveredAt)
	assert.Equal(t, order.PaymentStatusPaid, reloaded.PaymentStatus)
	assert.Equal(t, int64(10000), reloaded.PaidAmount)
}

func TestConfirmCashOnDeliveryTwiceFails(t *testing.T) {
	svc, db := setupService(t)
	ord := seedOrder(t, db, 1, 10000, order.StatusConfirmed)

	pmt, err := svc.ProcessPayment(context.Background(), identity.ForUser(1, false), ord.ID, order.MethodCashOnDelivery, 10000, ChargeDetails{})
	require.NoError(t, err)

	_, err = svc.ConfirmCashOnDelivery(pmt.ID)
	require.NoError(t, err)

	_, err = svc.ConfirmCashOnDelivery(pmt.ID)
	var stateErr *errs.InvalidPaymentStateError
	require.True(t, errors.As(err, &stateErr))
	assert.Equal(t, order.TxStatusCompleted, stateErr.Status)
}

func TestConfirmRejectsOnlinePayments(t *testing.T) {
	svc, db := setupService(t)
	ord := seedOrder(t, db, 1, 10000, order.StatusPending)

	pmt, err := svc.ProcessPayment(context.Background(), identity.ForUser(1, false), ord.ID, order.MethodOnline, 10000, ChargeDetails{Token: "tok_ok"})
	require.NoError(t, err)

	_, err = svc.ConfirmCashOnDelivery(pmt.ID)
	var stateErr *errs.InvalidPaymentStateError
	assert.True(t, errors.As(err, &stateErr))
}

func TestRefundExceedsRefundable(t *testing.T) {
	svc, db := setupService(t)
	ord := seedOrder(t, db, 1, 10000, order.StatusPending)

	pmt, err := svc.ProcessPayment(context.Background(), identity.ForUser(1, false), ord.ID, order.MethodOnline, 10000, ChargeDetails{Token: "tok_ok"})
	require.NoError(t, err)

	_, err = svc.Refund(context.Background(), pmt.ID, 4000, "")
	require.NoError(t, err)

	_, err = svc.Refund(context.Background(), pmt.ID, 7000, "")
	var refundErr *errs.RefundExceedsAmountError
	require.True(t, errors.As(err, &refundErr))
	assert.Equal(t, int64(6000), refundErr.MaxRefundable)
}

func TestRefundRequiresCompletedPayment(t *testing.T) {
	svc, db := setupService(t)
	ord := seedOrder(t, db, 1, 10000, order.StatusPending)

	pmt, err := svc.ProcessPayment(context.Background(), identity.ForUser(1, false), ord.ID, order.MethodCashOnDelivery, 10000, ChargeDetails{})
	require.NoError(t, err)

	_, err = svc.Refund(context.Background(), pmt.ID, 1000, "")
	var stateErr *errs.InvalidPaymentStateError
	assert.True(t, errors.As(err, &stateErr))
}

func TestPaymentAccountingAcrossSequence(t *testing.T) {
	svc, db := setupService(t)
	ord := seedOrder(t, db, 1, 30000, order.StatusPending)
	ident := identity.ForUser(1, false)

	p1, err := svc.ProcessPayment(context.Background(), ident, ord.ID, order.MethodOnline, 10000, ChargeDetails{Token: "tok_ok"})
	require.NoError(t, err)
	_, err = svc.ProcessPayment(context.Background(), ident, ord.ID, order.MethodOnline, 15000, ChargeDetails{Token: "tok_ok"})
	require.NoError(t, err)
	_, err = svc.Refund(context.Background(), p1.ID, 5000, "")
	require.NoError(t, err)

	var reloaded order.Order
	require.NoError(t, db.First(&reloaded, ord.ID).Error)
	// paid == completed amounts - refunds, remaining == max(0, total - paid)
	assert.Equal(t, int64(20000), reloaded.PaidAmount)
	assert.Equal(t, int64(10000), reloaded.RemainingAmount)
	assert.Equal(t, order.PaymentStatusPartiallyPaid, reloaded.PaymentStatus)

	history, err := svc.GetPaymentHistory(ident, ord.ID)
	require.NoError(t, err)
	assert.Len(t, history, 2)
}

func TestOwnershipChecks(t *testing.T) {
	svc, db := setupService(t)
	ord := seedOrder(t, db, 1, 10000, order.StatusPending)

	_, err := svc.ProcessPayment(context.Background(), identity.ForUser(2, false), ord.ID, order.MethodOnline, 1000, ChargeDetails{Token: "tok_ok"})
	assert.ErrorIs(t, err, errs.ErrUnauthorized)

	_, err = svc.GetPaymentHistory(identity.ForUser(2, false), ord.ID)
	assert.ErrorIs(t, err, errs.ErrUnauthorized)

	_, err = svc.GetPaymentHistory(identity.ForUser(2, true), ord.ID)
	assert.NoError(t, err)
}

func TestMinimumPartialPaymentPolicy(t *testing.T) {
	svc, _ := setupService(t)

	assert.Equal(t, int64(3000), svc.MinimumPartialPayment(10000))
	assert.True(t, svc.CanAcceptPartialPayment(10000, 3000))
	assert.True(t, svc.CanAcceptPartialPayment(10000, 10000))
	assert.False(t, svc.CanAcceptPartialPayment(10000, 2999))
	assert.False(t, svc.CanAcceptPartialPayment(10000, 10001))
}

func TestProcessPaymentValidation(t *testing.T) {
	svc, db := setupService(t)
	ord := seedOrder(t, db, 1, 10000, order.StatusPending)

	var validation *errs.ValidationError
	_, err := svc.ProcessPayment(context.Background(), identity.ForUser(1, false), ord.ID, order.MethodOnline, 0, ChargeDetails{})
	assert.True(t, errors.As(err, &validation))

	_, err = svc.ProcessPayment(context.Background(), identity.ForUser(1, false), 9999, order.MethodOnline, 1000, ChargeDetails{})
	assert.ErrorIs(t, err, errs.ErrNotFound)
}
