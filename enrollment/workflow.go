package enrollment

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/python-wizard/course-enrollment/notification"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const defaultGatewayTimeout = 15 * time.Second

type Notifier interface {
	Enqueue(payload notification.Payload) uuid.UUID
}

type Options struct {
	SendWelcomeEmail bool
	GatewayTimeout   time.Duration
}

// Workflow runs the create-order and verify-payment operations. It is built
// once by the process entry point and shared by the request handlers.
type Workflow struct {
	repo     Repository
	gateway  PaymentGateway
	notifier Notifier
	course   Course
	logger   *slog.Logger
	tracer   trace.Tracer
	opts     Options
	now      func() time.Time
}

func NewWorkflow(repo Repository, gateway PaymentGateway, notifier Notifier, course Course, logger *slog.Logger, opts Options) *Workflow {
	if opts.GatewayTimeout <= 0 {
		opts.GatewayTimeout = defaultGatewayTimeout
	}

	return &Workflow{
		repo:     repo,
		gateway:  gateway,
		notifier: notifier,
		course:   course,
		logger:   logger,
		tracer:   otel.Tracer("github.com/python-wizard/course-enrollment/enrollment"),
		opts:     opts,
		now:      time.Now,
	}
}

type Submission struct {
	Name    string
	Email   string
	Mobile  string
	Address string
}

type OrderResult struct {
	Order        Order
	Student      Student
	EnrollmentID string
}

// CreateEnrollmentOrder validates the submission, persists a pending enrollment
// and only then asks the gateway for an order, so nobody is charged without a
// stored record.
func (w *Workflow) CreateEnrollmentOrder(ctx context.Context, sub Submission) (OrderResult, error) {
	ctx, span := w.tracer.Start(ctx, "CreateEnrollmentOrder")
	defer span.End()

	student, err := NewStudent(sub.Name, sub.Email, sub.Mobile, sub.Address)
	if err != nil {
		return OrderResult{}, err
	}

	enr, _, err := w.repo.AppendEnrollment(ctx, student)
	if err != nil {
		recordSpanError(span, err)
		return OrderResult{}, asWriteError("Failed to save enrollment data", err)
	}
	span.SetAttributes(attribute.String("enrollment.id", enr.ID))

	gatewayCtx, cancel := context.WithTimeout(ctx, w.opts.GatewayTimeout)
	defer cancel()

	order, err := w.gateway.CreateOrder(gatewayCtx, OrderRequest{
		Amount:  w.course.Price,
		Receipt: enr.ID,
		Notes: map[string]string{
			"name":         student.Name,
			"email":        student.Email,
			"mobile":       student.Mobile,
			"course":       w.course.Name,
			"enrollmentId": enr.ID,
		},
	})
	if err != nil {
		recordSpanError(span, err)
		if errors.Is(err, context.DeadlineExceeded) {
			return OrderResult{}, NewTimeoutError("Payment gateway timed out")
		}
		return OrderResult{}, NewGatewayFailureError("Failed to create payment order", err)
	}

	if w.opts.SendWelcomeEmail {
		taskID := w.notifier.Enqueue(w.notificationPayload(student, "", ""))
		w.logger.Info("queued welcome email", slog.String("enrollment-id", enr.ID), slog.String("task-id", taskID.String()))
	}

	w.logger.Info("enrollment order created",
		slog.String("enrollment-id", enr.ID),
		slog.String("order-id", order.ID),
		slog.String("email", student.Email),
	)

	return OrderResult{
		Order:        order,
		Student:      student,
		EnrollmentID: enr.ID,
	}, nil
}

type Verification struct {
	OrderID   string
	PaymentID string
	Signature string
	Student   Submission
}

type PaymentResult struct {
	PaymentID       string
	PaymentRecordID string
}

// VerifyAndCompletePayment takes no state-changing action unless the gateway
// signature matches.
func (w *Workflow) VerifyAndCompletePayment(ctx context.Context, v Verification) (PaymentResult, error) {
	ctx, span := w.tracer.Start(ctx, "VerifyAndCompletePayment", trace.WithAttributes(
		attribute.String("order.id", v.OrderID),
		attribute.String("payment.id", v.PaymentID),
	))
	defer span.End()

	if !w.gateway.VerifySignature(v.OrderID, v.PaymentID, v.Signature) {
		w.logger.Warn("payment signature mismatch", slog.String("order-id", v.OrderID), slog.String("payment-id", v.PaymentID))
		span.SetStatus(codes.Error, "signature mismatch")
		return PaymentResult{}, NewVerificationFailedError("Payment verification failed")
	}

	student := NormalizeStudent(v.Student.Name, v.Student.Email, v.Student.Mobile, v.Student.Address)

	payment, _, err := w.repo.AppendPayment(ctx, PaymentDetails{
		OrderID:   v.OrderID,
		PaymentID: v.PaymentID,
		Amount:    w.course.Price,
		Course:    w.course.Name,
		Student:   student,
	})
	if err != nil {
		recordSpanError(span, err)
		return PaymentResult{}, asWriteError("Payment verified but failed to save data", err)
	}

	w.logger.Info("payment verified",
		slog.String("payment-record-id", payment.ID),
		slog.String("order-id", v.OrderID),
		slog.String("email", student.Email),
	)

	if student.Email == "" {
		w.logger.Warn("no student email for payment confirmation", slog.String("payment-record-id", payment.ID))
	} else {
		taskID := w.notifier.Enqueue(w.notificationPayload(student, v.PaymentID, v.OrderID))
		w.logger.Info("queued payment confirmation email", slog.String("payment-record-id", payment.ID), slog.String("task-id", taskID.String()))
	}

	return PaymentResult{
		PaymentID:       v.PaymentID,
		PaymentRecordID: payment.ID,
	}, nil
}

func (w *Workflow) GetStatistics(ctx context.Context) Statistics {
	return StatisticsOf(w.repo.Read(ctx))
}

// ReadDocument returns the whole persisted document.
func (w *Workflow) ReadDocument(ctx context.Context) Document {
	return w.repo.Read(ctx)
}

func (w *Workflow) notificationPayload(student Student, paymentID, orderID string) notification.Payload {
	return notification.Payload{
		Name:       student.Name,
		Email:      student.Email,
		Mobile:     student.Mobile,
		Address:    student.Address,
		PaymentID:  paymentID,
		OrderID:    orderID,
		Course:     w.course.Name,
		Price:      w.course.Price.Display(),
		OccurredAt: w.now(),
	}
}

func asWriteError(message string, err error) error {
	var enrollmentErr *Error
	if errors.As(err, &enrollmentErr) {
		return err
	}
	return NewFailedToWriteError(message, err)
}

func recordSpanError(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
