package enrollment

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/python-wizard/course-enrollment/notification"
)

var noopLogger = slog.New(slog.DiscardHandler)

var _ Repository = &mockRepository{}

type mockRepository struct {
	ReadFunc             func(ctx context.Context) Document
	AppendEnrollmentFunc func(ctx context.Context, student Student) (Enrollment, Document, error)
	AppendPaymentFunc    func(ctx context.Context, details PaymentDetails) (Payment, Document, error)
}

func (m *mockRepository) Read(ctx context.Context) Document {
	if m.ReadFunc != nil {
		return m.ReadFunc(ctx)
	}
	return EmptyDocument()
}

func (m *mockRepository) AppendEnrollment(ctx context.Context, student Student) (Enrollment, Document, error) {
	return m.AppendEnrollmentFunc(ctx, student)
}

func (m *mockRepository) AppendPayment(ctx context.Context, details PaymentDetails) (Payment, Document, error) {
	return m.AppendPaymentFunc(ctx, details)
}

var _ PaymentGateway = &mockGateway{}

type mockGateway struct {
	CreateOrderFunc     func(ctx context.Context, req OrderRequest) (Order, error)
	VerifySignatureFunc func(orderID, paymentID, signature string) bool
}

func (m *mockGateway) CreateOrder(ctx context.Context, req OrderRequest) (Order, error) {
	return m.CreateOrderFunc(ctx, req)
}

func (m *mockGateway) VerifySignature(orderID, paymentID, signature string) bool {
	return m.VerifySignatureFunc(orderID, paymentID, signature)
}

var _ Notifier = &mockNotifier{}

type mockNotifier struct {
	mu       sync.Mutex
	payloads []notification.Payload
}

func (m *mockNotifier) Enqueue(payload notification.Payload) uuid.UUID {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.payloads = append(m.payloads, payload)
	return uuid.New()
}

func (m *mockNotifier) Payloads() []notification.Payload {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]notification.Payload(nil), m.payloads...)
}
