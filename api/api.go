package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/python-wizard/course-enrollment/analytics"
	"github.com/python-wizard/course-enrollment/enrollment"
)

type Environment int

const (
	LOCAL Environment = iota
	PROD
)

func (e Environment) String() string {
	switch e {
	case PROD:
		return "PROD"
	default:
		return "LOCAL"
	}
}

func ParseEnvironment(s string) (Environment, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "LOCAL", "":
		return LOCAL, nil
	case "PROD":
		return PROD, nil
	default:
		return LOCAL, fmt.Errorf("unknown environment %q", s)
	}
}

type Workflow interface {
	CreateEnrollmentOrder(ctx context.Context, sub enrollment.Submission) (enrollment.OrderResult, error)
	VerifyAndCompletePayment(ctx context.Context, v enrollment.Verification) (enrollment.PaymentResult, error)
	GetStatistics(ctx context.Context) enrollment.Statistics
	ReadDocument(ctx context.Context) enrollment.Document
}

// QueueStatus reports on the notification queue for health checks.
type QueueStatus interface {
	Len() int
	Draining() bool
}

type Config struct {
	Env               Environment
	AllowedOrigins    []string
	GatewayConfigured bool
	EmailConfigured   bool
	ExposeUserData    bool
	// Locator is optional. When nil, saved sessions only get the client IP.
	Locator analytics.Locator
}

type API struct {
	workflow  Workflow
	queue     QueueStatus
	analytics analytics.Repository
	logger    *slog.Logger
	cfg       Config
	now       func() time.Time
}

func NewAPI(workflow Workflow, queue QueueStatus, analyticsRepo analytics.Repository, logger *slog.Logger, cfg Config) *API {
	return &API{
		workflow:  workflow,
		queue:     queue,
		analytics: analyticsRepo,
		logger:    logger,
		cfg:       cfg,
		now:       time.Now,
	}
}

func (a *API) routes() *http.ServeMux {
	r := http.NewServeMux()

	r.HandleFunc("POST /enroll", a.PostEnroll)
	r.HandleFunc("PUT /enroll", a.PutEnroll)
	r.HandleFunc("GET /enroll", a.GetEnroll)
	r.HandleFunc("POST /analytics/save", a.PostAnalyticsSave)
	r.HandleFunc("GET /analytics/data", a.GetAnalyticsData)
	r.HandleFunc("GET /admin/user-data", a.GetAdminUserData)

	return r
}

// Handler returns the routes wrapped in the middleware chain, outermost last:
// request validation, access log, request id, CORS.
func (a *API) Handler() (http.Handler, error) {
	swagger, err := GetSwagger()
	if err != nil {
		return nil, fmt.Errorf("error loading openapi spec: %w", err)
	}
	swagger.Servers = nil

	return useMiddlewares(a.routes(),
		a.openapiValidateMiddleware(swagger),
		a.loggingMiddleware(),
		a.requestIdMiddleware(),
		a.corsMiddleware(),
	), nil
}
