package domain

import "time"

type NotificationKind string

const (
	NotificationOrderApproved NotificationKind = "approved"
	NotificationOrderRejected NotificationKind = "rejected"
)

// NotificationFor returns the customer notification owed for moving an order
// to status, if any.
func NotificationFor(status OrderStatus) (NotificationKind, bool) {
	switch status {
	case OrderStatusConfirmed:
		return NotificationOrderApproved, true
	case OrderStatusPaymentFailed:
		return NotificationOrderRejected, true
	}
	return "", false
}

// StatusChange is the payload recorded in the outbox when an admin moves an
// order to a status the customer must hear about.
type StatusChange struct {
	OrderID       string           `json:"orderId"`
	OrderNumber   string           `json:"orderNumber"`
	Kind          NotificationKind `json:"kind"`
	Status        OrderStatus      `json:"status"`
	CustomerName  string           `json:"customerName"`
	CustomerEmail string           `json:"customerEmail"`
	Reason        string           `json:"reason,omitempty"`
	ChangedBy     string           `json:"changedBy"`
	ChangedAt     time.Time        `json:"changedAt"`
}

type OutboxEvent struct {
	ID            string
	OrderID       string
	Kind          NotificationKind
	Payload       StatusChange
	Attempts      int
	NextAttemptAt time.Time
	LastError     *string
	SentAt        *time.Time
	CreatedAt     time.Time
}
