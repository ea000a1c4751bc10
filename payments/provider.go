package payments

import "context"

// CallbackStatus is the gateway's terminal outcome for a payment attempt.
type CallbackStatus string

const (
	CallbackStatusSuccess   CallbackStatus = "success"
	CallbackStatusFailed    CallbackStatus = "failed"
	CallbackStatusCancelled CallbackStatus = "cancelled"
)

// Customer identifies the payer to the gateway.
type Customer struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// PaymentRequest is what the storefront sends to initiate a payment.
type PaymentRequest struct {
	OrderID  string   `json:"order_id"`
	Amount   float64  `json:"amount"`
	Currency string   `json:"currency"`
	Customer Customer `json:"customer"`
}

// PaymentSession is the gateway's answer: where to send the customer.
type PaymentSession struct {
	RedirectURL string `json:"redirect_url"`
}

// Callback is the payload the gateway posts back after the customer
// completes, fails or abandons the payment.
type Callback struct {
	OrderID       string         `json:"order_id" binding:"required"`
	TransactionID string         `json:"transaction_id"`
	Status        CallbackStatus `json:"status" binding:"required,oneof=success failed cancelled"`
}

// Provider is the interface to the external payment gateway. The gateway
// is opaque: the storefront only hands over the amount and receives a
// redirect URL plus a later callback.
type Provider interface {
	InitiatePayment(ctx context.Context, req PaymentRequest) (*PaymentSession, error)
}
