package notification

import "time"

// Payload is what a notification is rendered from. PaymentID or OrderID being
// set selects the payment-confirmed variant.
type Payload struct {
	Name       string
	Email      string
	Mobile     string
	Address    string
	PaymentID  string
	OrderID    string
	Course     string
	Price      string
	OccurredAt time.Time
}

func (p Payload) IsPaymentConfirmation() bool {
	return p.PaymentID != "" || p.OrderID != ""
}
