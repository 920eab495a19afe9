package domain

import (
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusPending         OrderStatus = "pending"
	OrderStatusAwaitingPayment OrderStatus = "awaiting_payment"
	OrderStatusConfirmed       OrderStatus = "confirmed"
	OrderStatusPaid            OrderStatus = "paid"
	OrderStatusProcessing      OrderStatus = "processing"
	OrderStatusShipped         OrderStatus = "shipped"
	OrderStatusDelivered       OrderStatus = "delivered"
	OrderStatusPaymentFailed   OrderStatus = "payment_failed"
	OrderStatusCancelled       OrderStatus = "cancelled"
)

var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending:         {OrderStatusConfirmed, OrderStatusPaid, OrderStatusPaymentFailed, OrderStatusCancelled},
	OrderStatusAwaitingPayment: {OrderStatusConfirmed, OrderStatusPaid, OrderStatusPaymentFailed, OrderStatusCancelled},
	OrderStatusPaymentFailed:   {OrderStatusConfirmed, OrderStatusCancelled},
	OrderStatusConfirmed:       {OrderStatusProcessing, OrderStatusCancelled},
	OrderStatusPaid:            {OrderStatusProcessing, OrderStatusCancelled},
	OrderStatusProcessing:      {OrderStatusShipped, OrderStatusCancelled},
	OrderStatusShipped:         {OrderStatusDelivered},
	OrderStatusDelivered:       nil,
	OrderStatusCancelled:       nil,
}

func ParseOrderStatus(s string) (OrderStatus, bool) {
	status := OrderStatus(strings.ToLower(strings.TrimSpace(s)))
	_, ok := orderTransitions[status]
	return status, ok
}

func (s OrderStatus) IsTerminal() bool {
	next, ok := orderTransitions[s]
	return ok && len(next) == 0
}

func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, allowed := range orderTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// NextStatuses lists the statuses an admin may move an order to from s.
func (s OrderStatus) NextStatuses() []OrderStatus {
	next := orderTransitions[s]
	out := make([]OrderStatus, len(next))
	copy(out, next)
	return out
}

type PaymentStatus string

const (
	PaymentStatusPending PaymentStatus = "pending"
	PaymentStatusPaid    PaymentStatus = "paid"
	PaymentStatusFailed  PaymentStatus = "failed"
)

// DerivePaymentStatus returns the payment status implied by moving an order
// to status. Statuses that say nothing about the payment keep current.
func DerivePaymentStatus(status OrderStatus, current PaymentStatus) PaymentStatus {
	switch status {
	case OrderStatusConfirmed, OrderStatusPaid:
		return PaymentStatusPaid
	case OrderStatusPaymentFailed:
		return PaymentStatusFailed
	default:
		return current
	}
}

type PaymentMethod string

const (
	PaymentMethodVodafone PaymentMethod = "vodafone"
	PaymentMethodInstapay PaymentMethod = "instapay"
)

func ParsePaymentMethod(s string) (PaymentMethod, bool) {
	switch m := PaymentMethod(strings.ToLower(strings.TrimSpace(s))); m {
	case PaymentMethodVodafone, PaymentMethodInstapay:
		return m, true
	}
	return "", false
}

type Order struct {
	ID              string
	OrderNumber     string
	CustomerName    string
	CustomerEmail   string
	CustomerPhone   string
	ShippingAddress string
	City            string
	Items           OrderItems
	Subtotal        decimal.Decimal
	Shipping        decimal.Decimal
	Total           decimal.Decimal
	PaymentMethod   PaymentMethod
	PaymentStatus   PaymentStatus
	OrderStatus     OrderStatus
	ScreenshotKey   string
	AdminNotes      *string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// ShippingCost is charged on every order.
var ShippingCost = decimal.Zero

// MaxOrderAmount is the largest subtotal or total the orders table stores.
var MaxOrderAmount = decimal.RequireFromString("9999999999.99")

// NewOrderNumber formats the customer-facing reference: "TRK-" followed by
// the creation time in unix milliseconds, base 36, upper case.
func NewOrderNumber(at time.Time) string {
	return "TRK-" + strings.ToUpper(strconv.FormatInt(at.UnixMilli(), 36))
}

// WithSuffix disambiguates an order number taken by an order placed in the
// same millisecond.
func WithSuffix(number, suffix string) string {
	return number + "-" + strings.ToUpper(suffix)
}

type TimelineEntry struct {
	ID        string
	OrderID   string
	Status    OrderStatus
	Note      *string
	CreatedBy string
	CreatedAt time.Time
}
