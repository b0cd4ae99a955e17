// internal/domain/order/entity.go
package order

import (
	"time"
)

// Order status constants
const (
	StatusPending    = "pending"
	StatusConfirmed  = "confirmed"
	StatusProcessing = "processing"
	StatusShipped    = "shipped"
	StatusDelivered  = "delivered"
	StatusCancelled  = "cancelled"
	StatusRefunded   = "refunded"
)

// Payment status constants for the order-level payment_status field
const (
	PaymentStatusPending       = "pending"
	PaymentStatusPartiallyPaid = "partially_paid"
	PaymentStatusPaid          = "paid"
	PaymentStatusFailed        = "failed"
	PaymentStatusRefunded      = "refunded"
)

// Payment method constants
const (
	MethodOnline         = "online"
	MethodPartial        = "partial"
	MethodCashOnDelivery = "cash_on_delivery"
)

// Status constants for individual Payment rows
const (
	TxStatusPending    = "pending"
	TxStatusProcessing = "processing"
	TxStatusCompleted  = "completed"
	TxStatusFailed     = "failed"
	TxStatusCancelled  = "cancelled"
	TxStatusRefunded   = "refunded"
)

// validTransitions maps each order status to the statuses reachable from it.
// delivered, cancelled and refunded are terminal.
var validTransitions = map[string][]string{
	StatusPending:    {StatusConfirmed, StatusProcessing, StatusCancelled, StatusRefunded},
	StatusConfirmed:  {StatusProcessing, StatusShipped, StatusCancelled, StatusRefunded},
	StatusProcessing: {StatusShipped, StatusCancelled, StatusRefunded},
	StatusShipped:    {StatusDelivered, StatusCancelled, StatusRefunded},
	StatusDelivered:  {},
	StatusCancelled:  {},
	StatusRefunded:   {},
}

// Order is the immutable snapshot of a completed checkout. Only the state
// machine fields (status, payment accounting, fulfillment stamps, notes)
// change after creation. Monetary values are cents.
type Order struct {
	ID              uint             `json:"id" gorm:"primaryKey"`
	OrderNumber     string           `json:"order_number" gorm:"uniqueIndex;not null;size:50"`
	UserID          uint             `json:"user_id" gorm:"not null;index"`
	Status          string           `json:"status" gorm:"default:'pending';size:20;index"`
	PaymentStatus   string           `json:"payment_status" gorm:"default:'pending';size:20;index"`
	PaymentMethod   string           `json:"payment_method" gorm:"not null;size:30"`
	Subtotal        int64            `json:"subtotal" gorm:"not null"`
	Tax             int64            `json:"tax" gorm:"not null"`
	ShippingCost    int64            `json:"shipping_cost" gorm:"not null"`
	Discount        int64            `json:"discount" gorm:"default:0"`
	Total           int64            `json:"total" gorm:"not null"`
	PaidAmount      int64            `json:"paid_amount" gorm:"default:0"`
	RemainingAmount int64            `json:"remaining_amount" gorm:"default:0"`
	CouponCode      *string          `json:"coupon_code,omitempty" gorm:"size:100"`
	CustomerNotes   string           `json:"customer_notes,omitempty" gorm:"type:text"`
	AdminNotes      string           `json:"admin_notes,omitempty" gorm:"type:text"`
	TrackingNumber  *string          `json:"tracking_number,omitempty" gorm:"size:100"`
	Items           []OrderItem      `json:"items,omitempty" gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	ShippingAddress *ShippingAddress `json:"shipping_address,omitempty" gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	Payments        []Payment        `json:"payments,omitempty" gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	ConfirmedAt     *time.Time       `json:"confirmed_at,omitempty"`
	ShippedAt       *time.Time       `json:"shipped_at,omitempty"`
	DeliveredAt     *time.Time       `json:"delivered_at,omitempty"`
	CancelledAt     *time.Time       `json:"cancelled_at,omitempty"`
	CreatedAt       time.Time        `json:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at"`
}

// TableName returns the table name for Order model
func (Order) TableName() string {
	return "orders"
}

// OrderItem is an immutable line snapshot taken at checkout time. Product
// name and SKU are copied so later catalog edits never alter history.
type OrderItem struct {
	ID             uint      `json:"id" gorm:"primaryKey"`
	OrderID        uint      `json:"order_id" gorm:"not null;index"`
	ProductID      uint      `json:"product_id" gorm:"not null;index"`
	ProductName    string    `json:"product_name" gorm:"not null;size:255"`
	ProductSKU     string    `json:"product_sku" gorm:"size:100"`
	Price          int64     `json:"price" gorm:"not null"`
	Quantity       int       `json:"quantity" gorm:"not null"`
	Subtotal       int64     `json:"subtotal" gorm:"not null"`
	Options        string    `json:"options,omitempty" gorm:"type:text"`
	TrackInventory bool      `json:"track_inventory" gorm:"default:true"`
	CreatedAt      time.Time `json:"created_at"`
}

// TableName returns the table name for OrderItem model
func (OrderItem) TableName() string {
	return "order_items"
}

// ShippingAddress is created once at checkout and never mutated.
type ShippingAddress struct {
	ID         uint      `json:"id" gorm:"primaryKey"`
	OrderID    uint      `json:"order_id" gorm:"not null;uniqueIndex"`
	FirstName  string    `json:"first_name" gorm:"not null;size:100"`
	LastName   string    `json:"last_name" gorm:"not null;size:100"`
	Phone      string    `json:"phone" gorm:"size:30"`
	Street     string    `json:"street" gorm:"not null;size:255"`
	City       string    `json:"city" gorm:"not null;size:100"`
	State      string    `json:"state" gorm:"size:100"`
	PostalCode string    `json:"postal_code" gorm:"not null;size:20"`
	Country    string    `json:"country" gorm:"not null;size:100"`
	CreatedAt  time.Time `json:"created_at"`
}

// TableName returns the table name for ShippingAddress model
func (ShippingAddress) TableName() string {
	return "shipping_addresses"
}

// Payment is a single settlement attempt against an order. Several rows may
// exist per order for partial payments and retries.
type Payment struct {
	ID              uint       `json:"id" gorm:"primaryKey"`
	OrderID         uint       `json:"order_id" gorm:"not null;index"`
	TransactionID   string     `json:"transaction_id" gorm:"uniqueIndex;not null;size:100"`
	Method          string     `json:"method" gorm:"not null;size:30"`
	Amount          int64      `json:"amount" gorm:"not null"`
	Currency        string     `json:"currency" gorm:"not null;size:3"`
	Status          string     `json:"status" gorm:"default:'pending';size:20;index"`
	RefundedAmount  int64      `json:"refunded_amount" gorm:"default:0"`
	GatewayResponse string     `json:"gateway_response,omitempty" gorm:"type:text"`
	Notes           string     `json:"notes,omitempty" gorm:"type:text"`
	ProcessedAt     *time.Time `json:"processed_at,omitempty"`
	RefundedAt      *time.Time `json:"refunded_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// TableName returns the table name for Payment model
func (Payment) TableName() string {
	return "payments"
}

// CanTransitionTo reports whether the status change is allowed.
func (o *Order) CanTransitionTo(status string) bool {
	for _, allowed := range validTransitions[o.Status] {
		if allowed == status {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the order reached a final state.
func (o *Order) IsTerminal() bool {
	return len(validTransitions[o.Status]) == 0
}

// CanBeCancelled reports whether cancellation is still allowed.
func (o *Order) CanBeCancelled() bool {
	return o.CanTransitionTo(StatusCancelled)
}

// RecordPayment adds a completed payment amount and resettles the order.
func (o *Order) RecordPayment(amount int64) {
	o.PaidAmount += amount
	o.Settle()
}

// RecordRefund subtracts a refunded amount and resettles the order.
// When nothing paid remains, the whole order counts as refunded.
func (o *Order) RecordRefund(amount int64) {
	o.PaidAmount -= amount
	if o.PaidAmount < 0 {
		o.PaidAmount = 0
	}
	o.Settle()
	if o.PaidAmount == 0 {
		o.PaymentStatus = PaymentStatusRefunded
	}
}

// Settle recomputes remaining_amount and payment_status from paid_amount.
func (o *Order) Settle() {
	o.RemainingAmount = o.Total - o.PaidAmount
	if o.RemainingAmount < 0 {
		o.RemainingAmount = 0
	}
	switch {
	case o.PaidAmount >= o.Total && o.Total > 0:
		o.PaymentStatus = PaymentStatusPaid
	case o.PaidAmount > 0:
		o.PaymentStatus = PaymentStatusPartiallyPaid
	default:
		o.PaymentStatus = PaymentStatusPending
	}
}

// MaybeAutoConfirm promotes a pending order to confirmed once fully paid.
// Returns true when the promotion happened.
func (o *Order) MaybeAutoConfirm(now time.Time) bool {
	if o.Status != StatusPending || !o.FullyPaid() {
		return false
	}
	o.Status = StatusConfirmed
	o.ConfirmedAt = &now
	return true
}

// FullyPaid reports whether the order total is completely covered.
func (o *Order) FullyPaid() bool {
	return o.PaidAmount >= o.Total
}

// FullyRefunded reports whether a payment has been refunded in full.
func (p *Payment) FullyRefunded() bool {
	return p.RefundedAmount >= p.Amount
}

// Refundable returns how much of the payment can still be refunded.
func (p *Payment) Refundable() int64 {
	return p.Amount - p.RefundedAmount
}
