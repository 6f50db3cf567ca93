package razorpay

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/python-wizard/course-enrollment/enrollment"
	rzp "github.com/razorpay/razorpay-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var _ enrollment.PaymentGateway = &Gateway{}

type orderCreator interface {
	Create(data map[string]interface{}, extraHeaders map[string]string) (map[string]interface{}, error)
}

// Gateway creates orders through the Razorpay API and verifies checkout
// signatures with the key secret.
type Gateway struct {
	orders    orderCreator
	keySecret string
	logger    *slog.Logger
	tracer    trace.Tracer
}

func NewGateway(keyID, keySecret string, logger *slog.Logger) *Gateway {
	client := rzp.NewClient(keyID, keySecret)
	return newGateway(client.Order, keySecret, logger)
}

func newGateway(orders orderCreator, keySecret string, logger *slog.Logger) *Gateway {
	return &Gateway{
		orders:    orders,
		keySecret: keySecret,
		logger:    logger,
		tracer:    otel.Tracer("github.com/python-wizard/course-enrollment/razorpay"),
	}
}

type createResult struct {
	body map[string]interface{}
	err  error
}

// CreateOrder does not retry. The client has no context support, so the call
// runs in its own goroutine and is abandoned when ctx is done.
func (g *Gateway) CreateOrder(ctx context.Context, req enrollment.OrderRequest) (enrollment.Order, error) {
	ctx, span := g.tracer.Start(ctx, "razorpay.CreateOrder")
	defer span.End()

	if req.Amount == nil {
		return enrollment.Order{}, errors.New("order amount is required")
	}

	notes := make(map[string]interface{}, len(req.Notes))
	for k, v := range req.Notes {
		notes[k] = v
	}
	data := map[string]interface{}{
		"amount":   req.Amount.Amount(),
		"currency": req.Amount.Currency().Code,
		"receipt":  req.Receipt,
		"notes":    notes,
	}
	span.SetAttributes(
		attribute.Int64("order.amount", req.Amount.Amount()),
		attribute.String("order.currency", req.Amount.Currency().Code),
		attribute.String("order.receipt", req.Receipt),
	)

	resultCh := make(chan createResult, 1)
	go func() {
		body, err := g.orders.Create(data, nil)
		resultCh <- createResult{body: body, err: err}
	}()

	var res createResult
	select {
	case <-ctx.Done():
		span.SetStatus(codes.Error, "order creation timed out")
		return enrollment.Order{}, fmt.Errorf("order creation abandoned: %w", ctx.Err())
	case res = <-resultCh:
	}

	if res.err != nil {
		span.RecordError(res.err)
		span.SetStatus(codes.Error, "order creation failed")
		return enrollment.Order{}, fmt.Errorf("razorpay order creation failed: %w", res.err)
	}

	order, err := parseOrder(res.body)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "unexpected order response")
		return enrollment.Order{}, err
	}
	span.SetAttributes(attribute.String("order.id", order.ID))

	g.logger.Info("razorpay order created", slog.String("order-id", order.ID), slog.String("receipt", req.Receipt))

	return order, nil
}

func (g *Gateway) VerifySignature(orderID, paymentID, signature string) bool {
	return VerifySignature(orderID, paymentID, signature, g.keySecret)
}

func parseOrder(body map[string]interface{}) (enrollment.Order, error) {
	id, _ := body["id"].(string)
	if id == "" {
		return enrollment.Order{}, errors.New("razorpay order response has no id")
	}
	currency, _ := body["currency"].(string)

	amount, err := toInt64(body["amount"])
	if err != nil {
		return enrollment.Order{}, fmt.Errorf("razorpay order response amount: %w", err)
	}

	return enrollment.Order{
		ID:       id,
		Amount:   amount,
		Currency: currency,
	}, nil
}

func toInt64(v interface{}) (int64, error) {
	switch n := v.(type) {
	case float64:
		return int64(n), nil
	case int:
		return int64(n), nil
	case int64:
		return n, nil
	case json.Number:
		return n.Int64()
	default:
		return 0, fmt.Errorf("unexpected type %T", v)
	}
}
