package enrollment

import (
	"context"
	"strings"
	"time"

	"github.com/Rhymond/go-money"
	"github.com/python-wizard/course-enrollment/slices"
)

type Status string

const (
	PENDING_PAYMENT Status = "pending_payment"
	COMPLETED       Status = "completed"
)

type Enrollment struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Mobile      string     `json:"mobile"`
	Email       string     `json:"email"`
	Address     string     `json:"address"`
	CreatedAt   time.Time  `json:"createdAt"`
	Status      Status     `json:"status"`
	PaymentID   *string    `json:"paymentId,omitempty"`
	OrderID     *string    `json:"orderId,omitempty"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
}

// Payment is written once per verified payment and never changed afterwards.
type Payment struct {
	ID             string    `json:"id"`
	OrderID        string    `json:"orderId"`
	PaymentID      string    `json:"paymentId"`
	Amount         float64   `json:"amount"`
	Currency       string    `json:"currency"`
	StudentName    string    `json:"studentName"`
	StudentEmail   string    `json:"studentEmail"`
	StudentMobile  string    `json:"studentMobile"`
	StudentAddress string    `json:"studentAddress"`
	Course         string    `json:"course"`
	PaidAt         time.Time `json:"paidAt"`
	Status         Status    `json:"status"`
}

type Document struct {
	Enrollments []Enrollment `json:"enrollments"`
	Payments    []Payment    `json:"payments"`
}

func EmptyDocument() Document {
	return Document{
		Enrollments: []Enrollment{},
		Payments:    []Payment{},
	}
}

// Student holds normalized contact fields: trimmed, lowercased email, digits-only mobile.
type Student struct {
	Name    string
	Email   string
	Mobile  string
	Address string
}

// NewStudent validates name, email and mobile in that order, returning the first
// failure, then normalizes the fields.
func NewStudent(name, email, mobile, address string) (Student, error) {
	if err := ValidateName(name); err != nil {
		return Student{}, err
	}
	if err := ValidateEmail(email); err != nil {
		return Student{}, err
	}
	if err := ValidateMobile(mobile); err != nil {
		return Student{}, err
	}

	return NormalizeStudent(name, email, mobile, address), nil
}

func NormalizeStudent(name, email, mobile, address string) Student {
	return Student{
		Name:    strings.TrimSpace(name),
		Email:   strings.ToLower(strings.TrimSpace(email)),
		Mobile:  DigitsOnly(mobile),
		Address: strings.TrimSpace(address),
	}
}

type Course struct {
	Name  string
	Price *money.Money
}

func DefaultCourse() Course {
	return Course{
		Name:  "Python Wizard Course",
		Price: money.New(9900, "INR"),
	}
}

type PaymentDetails struct {
	OrderID   string
	PaymentID string
	Amount    *money.Money
	Course    string
	Student   Student
}

type Repository interface {
	Read(ctx context.Context) Document
	AppendEnrollment(ctx context.Context, student Student) (Enrollment, Document, error)
	AppendPayment(ctx context.Context, details PaymentDetails) (Payment, Document, error)
}

type Statistics struct {
	TotalEnrollments   int
	CompletedPayments  int
	PendingEnrollments int
}

func StatisticsOf(doc Document) Statistics {
	return Statistics{
		TotalEnrollments:  len(doc.Enrollments),
		CompletedPayments: len(doc.Payments),
		PendingEnrollments: slices.Count(doc.Enrollments, func(e Enrollment) bool {
			return e.Status == PENDING_PAYMENT
		}),
	}
}
