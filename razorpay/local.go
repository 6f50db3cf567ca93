package razorpay

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/python-wizard/course-enrollment/enrollment"
)

var _ enrollment.PaymentGateway = &LocalGateway{}

// LocalGateway issues orders without calling Razorpay. Signatures are checked
// with the same scheme against a local secret, so a checkout can be simulated
// with ComputeSignature.
type LocalGateway struct {
	secret string
	logger *slog.Logger
}

func NewLocalGateway(secret string, logger *slog.Logger) *LocalGateway {
	return &LocalGateway{secret: secret, logger: logger}
}

func (l *LocalGateway) CreateOrder(ctx context.Context, req enrollment.OrderRequest) (enrollment.Order, error) {
	if err := ctx.Err(); err != nil {
		return enrollment.Order{}, err
	}

	order := enrollment.Order{
		ID:       "order_local_" + uuid.NewString(),
		Amount:   req.Amount.Amount(),
		Currency: req.Amount.Currency().Code,
	}

	l.logger.Info("local order created", slog.String("order-id", order.ID), slog.String("receipt", req.Receipt))

	return order, nil
}

func (l *LocalGateway) VerifySignature(orderID, paymentID, signature string) bool {
	return VerifySignature(orderID, paymentID, signature, l.secret)
}
