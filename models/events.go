package models

import "time"

// Event types published to Kafka.
const (
	EventOrderCreated       = "order.created"
	EventOrderStatusUpdated = "order.status_updated"
	EventPaymentSucceeded   = "payment.succeeded"
	EventPaymentFailed      = "payment.failed"
)

// OrderEvent is the envelope published for order lifecycle changes.
type OrderEvent struct {
	Event       string    `json:"event"`
	OrderID     string    `json:"order_id"`
	OrderNumber string    `json:"order_number"`
	UserID      string    `json:"user_id"`
	Status      string    `json:"status,omitempty"`
	Total       float64   `json:"total,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}
