package api

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/python-wizard/course-enrollment/enrollment"
)

type enrollRequest struct {
	Name    string `json:"name"`
	Mobile  string `json:"mobile"`
	Email   string `json:"email"`
	Address string `json:"address"`
}

type orderBody struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

type studentBody struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

type enrollResponse struct {
	Success      bool        `json:"success"`
	Message      string      `json:"message"`
	Order        orderBody   `json:"order"`
	Student      studentBody `json:"student"`
	EnrollmentID string      `json:"enrollmentId"`
	DataSaved    bool        `json:"dataSaved"`
}

func (a *API) PostEnroll(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := a.getLoggerOrBaseLogger(ctx)

	var req enrollRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		logger.Warn("Invalid body for enrollment", slog.String("error", err.Error()))
		writeJSON(w, http.StatusBadRequest, errorResponse{Message: err.Error()})
		return
	}

	res, err := a.workflow.CreateEnrollmentOrder(ctx, enrollment.Submission{
		Name:    req.Name,
		Email:   req.Email,
		Mobile:  req.Mobile,
		Address: req.Address,
	})
	if err != nil {
		status, message := enrollmentErrorResponse(err, "Internal server error. Please try again later.")
		if status >= http.StatusInternalServerError {
			logger.Error("Error trying to create enrollment order", slog.String("error", err.Error()))
		} else {
			logger.Warn("Enrollment rejected", slog.String("error", err.Error()))
		}
		writeJSON(w, status, errorResponse{Message: message})
		return
	}

	writeJSON(w, http.StatusOK, enrollResponse{
		Success: true,
		Message: "Payment order created successfully",
		Order: orderBody{
			ID:       res.Order.ID,
			Amount:   res.Order.Amount,
			Currency: res.Order.Currency,
		},
		Student: studentBody{
			Name:  res.Student.Name,
			Email: res.Student.Email,
		},
		EnrollmentID: res.EnrollmentID,
		DataSaved:    true,
	})
}

// verifyRequest accepts both our field names and the ones the gateway's
// checkout handler returns.
type verifyRequest struct {
	OrderID           string        `json:"orderId"`
	PaymentID         string        `json:"paymentId"`
	Signature         string        `json:"signature"`
	RazorpayOrderID   string        `json:"razorpay_order_id"`
	RazorpayPaymentID string        `json:"razorpay_payment_id"`
	RazorpaySignature string        `json:"razorpay_signature"`
	FormData          enrollRequest `json:"formData"`
}

func (v verifyRequest) verification() enrollment.Verification {
	return enrollment.Verification{
		OrderID:   firstNonEmpty(v.OrderID, v.RazorpayOrderID),
		PaymentID: firstNonEmpty(v.PaymentID, v.RazorpayPaymentID),
		Signature: firstNonEmpty(v.Signature, v.RazorpaySignature),
		Student: enrollment.Submission{
			Name:    v.FormData.Name,
			Email:   v.FormData.Email,
			Mobile:  v.FormData.Mobile,
			Address: v.FormData.Address,
		},
	}
}

type verifyResponse struct {
	Success         bool   `json:"success"`
	Message         string `json:"message"`
	PaymentID       string `json:"paymentId"`
	DataSaved       bool   `json:"dataSaved"`
	PaymentRecordID string `json:"paymentRecordId"`
}

func (a *API) PutEnroll(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := a.getLoggerOrBaseLogger(ctx)

	var req verifyRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		logger.Warn("Invalid body for payment verification", slog.String("error", err.Error()))
		writeJSON(w, http.StatusBadRequest, errorResponse{Message: err.Error()})
		return
	}

	v := req.verification()
	if v.OrderID == "" || v.PaymentID == "" || v.Signature == "" {
		logger.Warn("Payment verification missing fields")
		writeJSON(w, http.StatusBadRequest, errorResponse{Message: "Payment verification failed"})
		return
	}

	res, err := a.workflow.VerifyAndCompletePayment(ctx, v)
	if err != nil {
		status, message := enrollmentErrorResponse(err, "Payment verification failed")
		if status >= http.StatusInternalServerError {
			logger.Error("Error trying to complete payment", slog.String("error", err.Error()), slog.String("order-id", v.OrderID))
		} else {
			logger.Warn("Payment verification rejected", slog.String("error", err.Error()), slog.String("order-id", v.OrderID))
		}
		writeJSON(w, status, errorResponse{Message: message})
		return
	}

	writeJSON(w, http.StatusOK, verifyResponse{
		Success:         true,
		Message:         "Payment verified and data saved successfully",
		PaymentID:       res.PaymentID,
		DataSaved:       true,
		PaymentRecordID: res.PaymentRecordID,
	})
}

type statisticsBody struct {
	TotalEnrollments   int `json:"totalEnrollments"`
	CompletedPayments  int `json:"completedPayments"`
	PendingEnrollments int `json:"pendingEnrollments"`
}

type emailQueueBody struct {
	Length     int  `json:"length"`
	Processing bool `json:"processing"`
}

type configuredBody struct {
	Configured bool `json:"configured"`
}

type healthResponse struct {
	Status      string         `json:"status"`
	Timestamp   time.Time      `json:"timestamp"`
	Statistics  statisticsBody `json:"statistics"`
	EmailQueue  emailQueueBody `json:"emailQueue"`
	Razorpay    configuredBody `json:"razorpay"`
	Email       configuredBody `json:"email"`
	Environment string         `json:"environment"`
}

func (a *API) GetEnroll(w http.ResponseWriter, r *http.Request) {
	stats := a.workflow.GetStatistics(r.Context())

	writeJSON(w, http.StatusOK, healthResponse{
		Status:    "ok",
		Timestamp: a.now().UTC(),
		Statistics: statisticsBody{
			TotalEnrollments:   stats.TotalEnrollments,
			CompletedPayments:  stats.CompletedPayments,
			PendingEnrollments: stats.PendingEnrollments,
		},
		EmailQueue: emailQueueBody{
			Length:     a.queue.Len(),
			Processing: a.queue.Draining(),
		},
		Razorpay:    configuredBody{Configured: a.cfg.GatewayConfigured},
		Email:       configuredBody{Configured: a.cfg.EmailConfigured},
		Environment: a.cfg.Env.String(),
	})
}

// enrollmentErrorResponse maps a workflow error to a status and a message that
// is safe to return. Internal detail stays in the logs.
func enrollmentErrorResponse(err error, fallback string) (int, string) {
	var enrollmentErr *enrollment.Error
	if !errors.As(err, &enrollmentErr) {
		return http.StatusInternalServerError, fallback
	}

	switch enrollmentErr.Reason {
	case enrollment.REASON_INVALID_NAME, enrollment.REASON_INVALID_EMAIL, enrollment.REASON_INVALID_MOBILE:
		return http.StatusBadRequest, enrollmentErr.Message
	case enrollment.REASON_VERIFICATION_FAILED:
		return http.StatusBadRequest, enrollmentErr.Message
	case enrollment.REASON_GATEWAY_FAILURE:
		return http.StatusBadGateway, "Failed to create payment order. Please try again later."
	case enrollment.REASON_FAILED_TO_WRITE:
		return http.StatusInternalServerError, enrollmentErr.Message
	case enrollment.REASON_TIMEOUT:
		return http.StatusGatewayTimeout, "Request timed out. Please try again later."
	default:
		return http.StatusInternalServerError, fallback
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
