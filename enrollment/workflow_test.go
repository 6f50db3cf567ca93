package enrollment

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/python-wizard/course-enrollment/ptr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pendingRepo(saved *[]Student) *mockRepository {
	return &mockRepository{
		AppendEnrollmentFunc: func(ctx context.Context, student Student) (Enrollment, Document, error) {
			*saved = append(*saved, student)
			enr := Enrollment{ID: "ENR1", Name: student.Name, Email: student.Email, Mobile: student.Mobile, Status: PENDING_PAYMENT}
			return enr, Document{Enrollments: []Enrollment{enr}, Payments: []Payment{}}, nil
		},
	}
}

func okGateway(requests *[]OrderRequest) *mockGateway {
	return &mockGateway{
		CreateOrderFunc: func(ctx context.Context, req OrderRequest) (Order, error) {
			*requests = append(*requests, req)
			return Order{ID: "order_1", Amount: req.Amount.Amount(), Currency: req.Amount.Currency().Code}, nil
		},
	}
}

func ashaSubmission() Submission {
	return Submission{Name: "Asha Rao", Mobile: "9876543210", Email: "Asha@Example.com ", Address: ""}
}

func TestCreateEnrollmentOrder(t *testing.T) {
	ctx := context.Background()

	t.Run("normalizes, persists and then creates the order", func(t *testing.T) {
		var saved []Student
		var requests []OrderRequest
		notifier := &mockNotifier{}
		w := NewWorkflow(pendingRepo(&saved), okGateway(&requests), notifier, DefaultCourse(), noopLogger, Options{})

		res, err := w.CreateEnrollmentOrder(ctx, ashaSubmission())
		require.NoError(t, err)

		require.Len(t, saved, 1)
		assert.Equal(t, Student{Name: "Asha Rao", Email: "asha@example.com", Mobile: "9876543210"}, saved[0])

		require.Len(t, requests, 1)
		assert.Equal(t, int64(9900), requests[0].Amount.Amount())
		assert.Equal(t, "INR", requests[0].Amount.Currency().Code)
		assert.Equal(t, "ENR1", requests[0].Receipt)
		assert.Equal(t, map[string]string{
			"name":         "Asha Rao",
			"email":        "asha@example.com",
			"mobile":       "9876543210",
			"course":       "Python Wizard Course",
			"enrollmentId": "ENR1",
		}, requests[0].Notes)

		assert.Equal(t, "order_1", res.Order.ID)
		assert.Equal(t, "INR", res.Order.Currency)
		assert.Equal(t, "ENR1", res.EnrollmentID)
		assert.Equal(t, "asha@example.com", res.Student.Email)
		assert.Empty(t, notifier.Payloads())
	})

	t.Run("validation failure touches nothing", func(t *testing.T) {
		repo := &mockRepository{
			AppendEnrollmentFunc: func(ctx context.Context, student Student) (Enrollment, Document, error) {
				t.Fatal("should not persist")
				return Enrollment{}, Document{}, nil
			},
		}
		gateway := &mockGateway{
			CreateOrderFunc: func(ctx context.Context, req OrderRequest) (Order, error) {
				t.Fatal("should not create an order")
				return Order{}, nil
			},
		}
		w := NewWorkflow(repo, gateway, &mockNotifier{}, DefaultCourse(), noopLogger, Options{})

		_, err := w.CreateEnrollmentOrder(ctx, Submission{Name: "Asha", Email: "a@b", Mobile: "12345"})
		requireReason(t, err, REASON_INVALID_EMAIL)
	})

	t.Run("write failure stops before the gateway", func(t *testing.T) {
		repo := &mockRepository{
			AppendEnrollmentFunc: func(ctx context.Context, student Student) (Enrollment, Document, error) {
				return Enrollment{}, Document{}, errors.New("disk full")
			},
		}
		gatewayCalled := false
		gateway := &mockGateway{
			CreateOrderFunc: func(ctx context.Context, req OrderRequest) (Order, error) {
				gatewayCalled = true
				return Order{}, nil
			},
		}
		w := NewWorkflow(repo, gateway, &mockNotifier{}, DefaultCourse(), noopLogger, Options{})

		_, err := w.CreateEnrollmentOrder(ctx, ashaSubmission())
		requireReason(t, err, REASON_FAILED_TO_WRITE)
		assert.False(t, gatewayCalled)
	})

	t.Run("store errors keep their reason", func(t *testing.T) {
		repo := &mockRepository{
			AppendEnrollmentFunc: func(ctx context.Context, student Student) (Enrollment, Document, error) {
				return Enrollment{}, Document{}, NewTimeoutError("Write timed out")
			},
		}
		w := NewWorkflow(repo, &mockGateway{}, &mockNotifier{}, DefaultCourse(), noopLogger, Options{})

		_, err := w.CreateEnrollmentOrder(ctx, ashaSubmission())
		requireReason(t, err, REASON_TIMEOUT)
	})

	t.Run("gateway failure", func(t *testing.T) {
		var saved []Student
		gateway := &mockGateway{
			CreateOrderFunc: func(ctx context.Context, req OrderRequest) (Order, error) {
				return Order{}, errors.New("bad credentials")
			},
		}
		notifier := &mockNotifier{}
		w := NewWorkflow(pendingRepo(&saved), gateway, notifier, DefaultCourse(), noopLogger, Options{SendWelcomeEmail: true})

		_, err := w.CreateEnrollmentOrder(ctx, ashaSubmission())
		requireReason(t, err, REASON_GATEWAY_FAILURE)
		assert.Len(t, saved, 1)
		assert.Empty(t, notifier.Payloads())
	})

	t.Run("gateway timeout", func(t *testing.T) {
		var saved []Student
		gateway := &mockGateway{
			CreateOrderFunc: func(ctx context.Context, req OrderRequest) (Order, error) {
				<-ctx.Done()
				return Order{}, ctx.Err()
			},
		}
		w := NewWorkflow(pendingRepo(&saved), gateway, &mockNotifier{}, DefaultCourse(), noopLogger, Options{GatewayTimeout: 5 * time.Millisecond})

		_, err := w.CreateEnrollmentOrder(ctx, ashaSubmission())
		requireReason(t, err, REASON_TIMEOUT)
		assert.Len(t, saved, 1)
	})

	t.Run("welcome email is queued when enabled", func(t *testing.T) {
		var saved []Student
		var requests []OrderRequest
		notifier := &mockNotifier{}
		w := NewWorkflow(pendingRepo(&saved), okGateway(&requests), notifier, DefaultCourse(), noopLogger, Options{SendWelcomeEmail: true})
		fixed := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
		w.now = func() time.Time { return fixed }

		_, err := w.CreateEnrollmentOrder(ctx, ashaSubmission())
		require.NoError(t, err)

		payloads := notifier.Payloads()
		require.Len(t, payloads, 1)
		assert.False(t, payloads[0].IsPaymentConfirmation())
		assert.Equal(t, "asha@example.com", payloads[0].Email)
		assert.Equal(t, "Python Wizard Course", payloads[0].Course)
		assert.Contains(t, payloads[0].Price, "99.00")
		assert.Equal(t, fixed, payloads[0].OccurredAt)
	})
}

func TestVerifyAndCompletePayment(t *testing.T) {
	ctx := context.Background()

	verification := Verification{
		OrderID:   "order_1",
		PaymentID: "pay_1",
		Signature: "good",
		Student:   ashaSubmission(),
	}
	gateway := &mockGateway{
		VerifySignatureFunc: func(orderID, paymentID, signature string) bool {
			return signature == "good"
		},
	}

	t.Run("tampered signature has no side effects", func(t *testing.T) {
		repo := &mockRepository{
			AppendPaymentFunc: func(ctx context.Context, details PaymentDetails) (Payment, Document, error) {
				t.Fatal("should not persist")
				return Payment{}, Document{}, nil
			},
		}
		notifier := &mockNotifier{}
		w := NewWorkflow(repo, gateway, notifier, DefaultCourse(), noopLogger, Options{})

		v := verification
		v.Signature = "bad"
		_, err := w.VerifyAndCompletePayment(ctx, v)
		requireReason(t, err, REASON_VERIFICATION_FAILED)
		assert.Equal(t, "Payment verification failed", err.(*Error).Message)
		assert.Empty(t, notifier.Payloads())
	})

	t.Run("valid signature persists then notifies", func(t *testing.T) {
		var details []PaymentDetails
		repo := &mockRepository{
			AppendPaymentFunc: func(ctx context.Context, d PaymentDetails) (Payment, Document, error) {
				details = append(details, d)
				return Payment{ID: "PAY1", Status: COMPLETED}, Document{}, nil
			},
		}
		notifier := &mockNotifier{}
		w := NewWorkflow(repo, gateway, notifier, DefaultCourse(), noopLogger, Options{})

		res, err := w.VerifyAndCompletePayment(ctx, verification)
		require.NoError(t, err)
		assert.Equal(t, PaymentResult{PaymentID: "pay_1", PaymentRecordID: "PAY1"}, res)

		require.Len(t, details, 1)
		assert.Equal(t, "order_1", details[0].OrderID)
		assert.Equal(t, "pay_1", details[0].PaymentID)
		assert.Equal(t, "asha@example.com", details[0].Student.Email)
		assert.Equal(t, int64(9900), details[0].Amount.Amount())
		assert.Equal(t, "Python Wizard Course", details[0].Course)

		payloads := notifier.Payloads()
		require.Len(t, payloads, 1)
		assert.True(t, payloads[0].IsPaymentConfirmation())
		assert.Equal(t, "pay_1", payloads[0].PaymentID)
		assert.Equal(t, "order_1", payloads[0].OrderID)
	})

	t.Run("missing student email records the payment without an email", func(t *testing.T) {
		recorded := 0
		repo := &mockRepository{
			AppendPaymentFunc: func(ctx context.Context, d PaymentDetails) (Payment, Document, error) {
				recorded++
				return Payment{ID: "PAY2", Status: COMPLETED}, Document{}, nil
			},
		}
		notifier := &mockNotifier{}
		w := NewWorkflow(repo, gateway, notifier, DefaultCourse(), noopLogger, Options{})

		v := verification
		v.Student = Submission{}
		res, err := w.VerifyAndCompletePayment(ctx, v)
		require.NoError(t, err)
		assert.Equal(t, "PAY2", res.PaymentRecordID)
		assert.Equal(t, 1, recorded)
		assert.Empty(t, notifier.Payloads())
	})

	t.Run("write failure after verification", func(t *testing.T) {
		repo := &mockRepository{
			AppendPaymentFunc: func(ctx context.Context, d PaymentDetails) (Payment, Document, error) {
				return Payment{}, Document{}, errors.New("disk full")
			},
		}
		notifier := &mockNotifier{}
		w := NewWorkflow(repo, gateway, notifier, DefaultCourse(), noopLogger, Options{})

		_, err := w.VerifyAndCompletePayment(ctx, verification)
		requireReason(t, err, REASON_FAILED_TO_WRITE)
		assert.Equal(t, "Payment verified but failed to save data", err.(*Error).Message)
		assert.Empty(t, notifier.Payloads())
	})
}

func TestGetStatistics(t *testing.T) {
	repo := &mockRepository{
		ReadFunc: func(ctx context.Context) Document {
			return Document{
				Enrollments: []Enrollment{
					{ID: "1", Status: PENDING_PAYMENT},
					{ID: "2", Status: COMPLETED, PaymentID: ptr.String("pay_1")},
					{ID: "3", Status: PENDING_PAYMENT},
				},
				Payments: []Payment{{ID: "PAY1"}},
			}
		},
	}
	w := NewWorkflow(repo, &mockGateway{}, &mockNotifier{}, DefaultCourse(), noopLogger, Options{})

	assert.Equal(t, Statistics{TotalEnrollments: 3, CompletedPayments: 1, PendingEnrollments: 2}, w.GetStatistics(context.Background()))
}
