package enrollment

import (
	"context"

	"github.com/Rhymond/go-money"
)

type Order struct {
	ID       string
	Amount   int64
	Currency string
}

type OrderRequest struct {
	Amount  *money.Money
	Receipt string
	Notes   map[string]string
}

type PaymentGateway interface {
	CreateOrder(ctx context.Context, req OrderRequest) (Order, error)
	VerifySignature(orderID, paymentID, signature string) bool
}
