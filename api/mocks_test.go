package api

import (
	"context"
	"log/slog"
	"sync"

	"github.com/International-Combat-Archery-Alliance/email"
	"github.com/python-wizard/course-enrollment/analytics"
	"github.com/python-wizard/course-enrollment/enrollment"
)

var noopLogger = slog.New(slog.DiscardHandler)

var _ Workflow = &mockWorkflow{}

type mockWorkflow struct {
	CreateEnrollmentOrderFunc    func(ctx context.Context, sub enrollment.Submission) (enrollment.OrderResult, error)
	VerifyAndCompletePaymentFunc func(ctx context.Context, v enrollment.Verification) (enrollment.PaymentResult, error)
	GetStatisticsFunc            func(ctx context.Context) enrollment.Statistics
	ReadDocumentFunc             func(ctx context.Context) enrollment.Document
}

func (m *mockWorkflow) CreateEnrollmentOrder(ctx context.Context, sub enrollment.Submission) (enrollment.OrderResult, error) {
	return m.CreateEnrollmentOrderFunc(ctx, sub)
}

func (m *mockWorkflow) VerifyAndCompletePayment(ctx context.Context, v enrollment.Verification) (enrollment.PaymentResult, error) {
	return m.VerifyAndCompletePaymentFunc(ctx, v)
}

func (m *mockWorkflow) GetStatistics(ctx context.Context) enrollment.Statistics {
	if m.GetStatisticsFunc != nil {
		return m.GetStatisticsFunc(ctx)
	}
	return enrollment.Statistics{}
}

func (m *mockWorkflow) ReadDocument(ctx context.Context) enrollment.Document {
	if m.ReadDocumentFunc != nil {
		return m.ReadDocumentFunc(ctx)
	}
	return enrollment.EmptyDocument()
}

var _ QueueStatus = &mockQueue{}

type mockQueue struct {
	length   int
	draining bool
}

func (m *mockQueue) Len() int       { return m.length }
func (m *mockQueue) Draining() bool { return m.draining }

var _ analytics.Repository = &mockAnalyticsRepo{}

type mockAnalyticsRepo struct {
	SaveFunc func(ctx context.Context, session analytics.Session) (string, error)
	ListFunc func(ctx context.Context) ([]analytics.Entry, error)
}

func (m *mockAnalyticsRepo) Save(ctx context.Context, session analytics.Session) (string, error) {
	return m.SaveFunc(ctx, session)
}

func (m *mockAnalyticsRepo) List(ctx context.Context) ([]analytics.Entry, error) {
	return m.ListFunc(ctx)
}

type mockLocator struct {
	LocateFunc func(ip string) (analytics.Geolocation, error)
}

func (m *mockLocator) Locate(ip string) (analytics.Geolocation, error) {
	return m.LocateFunc(ip)
}

type mockEmailSender struct {
	mu   sync.Mutex
	sent []email.Email
}

func (m *mockEmailSender) SendEmail(ctx context.Context, e email.Email) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, e)
	return nil
}

func (m *mockEmailSender) Sent() []email.Email {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]email.Email(nil), m.sent...)
}
