package records

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/python-wizard/course-enrollment/enrollment"
	"github.com/python-wizard/course-enrollment/ptr"
)

var _ enrollment.Repository = &Store{}

// Store keeps enrollments and payments in a single JSON document. Every write
// replaces the whole document. Writes from this process are serialized; other
// writers sharing the blob race with last-writer-wins.
type Store struct {
	blob   Blob
	logger *slog.Logger

	mu    sync.Mutex
	now   func() time.Time
	newID func(prefix string) string
}

func NewStore(blob Blob, logger *slog.Logger) *Store {
	return &Store{
		blob:   blob,
		logger: logger,
		now:    time.Now,
		newID:  newRecordID,
	}
}

// Read never fails: a missing or unreadable document yields an empty one.
func (s *Store) Read(ctx context.Context) enrollment.Document {
	doc, err := s.load(ctx)
	if err != nil {
		s.logger.Warn("failed to read record document, using empty document", slog.String("error", err.Error()))
		return enrollment.EmptyDocument()
	}
	return doc
}

// load is Read for callers that write the document back. A missing or
// corrupt document is empty, but a failed load is an error so an append never
// replaces records it could not see.
func (s *Store) load(ctx context.Context) (enrollment.Document, error) {
	data, err := s.blob.Load(ctx)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return enrollment.EmptyDocument(), nil
		}
		if errors.Is(err, context.DeadlineExceeded) {
			return enrollment.Document{}, enrollment.NewTimeoutError("Read timed out")
		}
		return enrollment.Document{}, enrollment.NewFailedToWriteError("Failed to read record document", err)
	}

	var doc enrollment.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		s.logger.Warn("failed to parse record document, using empty document", slog.String("error", err.Error()))
		return enrollment.EmptyDocument(), nil
	}

	if doc.Enrollments == nil {
		doc.Enrollments = []enrollment.Enrollment{}
	}
	if doc.Payments == nil {
		doc.Payments = []enrollment.Payment{}
	}
	return doc, nil
}

func (s *Store) Write(ctx context.Context, doc enrollment.Document) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return enrollment.NewFailedToWriteError("Failed to encode record document", err)
	}

	if err := s.blob.Save(ctx, data); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return enrollment.NewTimeoutError("Write timed out")
		}
		return enrollment.NewFailedToWriteError("Failed to write record document", err)
	}
	return nil
}

func (s *Store) AppendEnrollment(ctx context.Context, student enrollment.Student) (enrollment.Enrollment, enrollment.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load(ctx)
	if err != nil {
		return enrollment.Enrollment{}, enrollment.Document{}, err
	}

	enr := enrollment.Enrollment{
		ID:        s.newID("ENR"),
		Name:      student.Name,
		Mobile:    student.Mobile,
		Email:     student.Email,
		Address:   student.Address,
		CreatedAt: s.now(),
		Status:    enrollment.PENDING_PAYMENT,
	}
	doc.Enrollments = append(doc.Enrollments, enr)

	if err := s.Write(ctx, doc); err != nil {
		return enrollment.Enrollment{}, enrollment.Document{}, err
	}

	s.logger.Info("enrollment saved", slog.String("enrollment-id", enr.ID), slog.String("email", enr.Email))

	return enr, doc, nil
}

// AppendPayment records the payment and completes the most recent pending
// enrollment with the same email, if there is one.
func (s *Store) AppendPayment(ctx context.Context, details enrollment.PaymentDetails) (enrollment.Payment, enrollment.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load(ctx)
	if err != nil {
		return enrollment.Payment{}, enrollment.Document{}, err
	}
	now := s.now()

	payment := enrollment.Payment{
		ID:             s.newID("PAY"),
		OrderID:        details.OrderID,
		PaymentID:      details.PaymentID,
		StudentName:    details.Student.Name,
		StudentEmail:   details.Student.Email,
		StudentMobile:  details.Student.Mobile,
		StudentAddress: details.Student.Address,
		Course:         details.Course,
		PaidAt:         now,
		Status:         enrollment.COMPLETED,
	}
	if details.Amount != nil {
		payment.Amount = details.Amount.AsMajorUnits()
		payment.Currency = details.Amount.Currency().Code
	}
	doc.Payments = append(doc.Payments, payment)

	matched := false
	for i := len(doc.Enrollments) - 1; i >= 0; i-- {
		enr := &doc.Enrollments[i]
		if enr.Status != enrollment.PENDING_PAYMENT || enr.Email != payment.StudentEmail {
			continue
		}

		enr.Status = enrollment.COMPLETED
		enr.PaymentID = ptr.String(details.PaymentID)
		enr.OrderID = ptr.String(details.OrderID)
		enr.CompletedAt = ptr.Time(now)
		matched = true
		break
	}

	if err := s.Write(ctx, doc); err != nil {
		return enrollment.Payment{}, enrollment.Document{}, err
	}

	if !matched {
		s.logger.Warn("payment saved without a pending enrollment", slog.String("payment-record-id", payment.ID), slog.String("email", payment.StudentEmail))
	} else {
		s.logger.Info("payment saved", slog.String("payment-record-id", payment.ID), slog.String("email", payment.StudentEmail))
	}

	return payment, doc, nil
}

// newRecordID prefixes a time-ordered uuid so ids sort by creation.
func newRecordID(prefix string) string {
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	return prefix + id.String()
}
