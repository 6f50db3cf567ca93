package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/joho/godotenv"
	"github.com/python-wizard/course-enrollment/analytics"
	"github.com/python-wizard/course-enrollment/api"
	"github.com/python-wizard/course-enrollment/enrollment"
	"github.com/python-wizard/course-enrollment/notification"
	"github.com/python-wizard/course-enrollment/razorpay"
	"github.com/python-wizard/course-enrollment/records"
)

const (
	shutdownTimeout = 15 * time.Second
	localKeySecret  = "local_test_secret"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "Error loading .env file: %s\n", err)
		os.Exit(1)
	}

	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %s\n", err)
		os.Exit(1)
	}

	logger := newLogger(cfg.Env)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("server exited with error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func newLogger(env api.Environment) *slog.Logger {
	if env == api.PROD {
		return slog.New(slog.NewJSONHandler(os.Stdout, nil))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func run(ctx context.Context, cfg Config, logger *slog.Logger) error {
	awsCfg := lazyAWSConfig()

	blob, err := createRecordBlob(ctx, cfg.Storage, awsCfg)
	if err != nil {
		return err
	}
	store := records.NewStore(blob, logger)

	gateway, err := createGateway(ctx, cfg, logger, awsCfg)
	if err != nil {
		return err
	}

	sender, err := createEmailSender(ctx, logger, cfg.Email, awsCfg)
	if err != nil {
		return err
	}
	dispatcher := notification.NewDispatcher(sender, logger, notification.Options{
		FromAddress:  cfg.Email.From,
		AdminAddress: cfg.Email.Admin,
	})

	workflow := enrollment.NewWorkflow(store, gateway, dispatcher, enrollment.DefaultCourse(), logger, enrollment.Options{
		SendWelcomeEmail: cfg.Email.SendWelcome,
	})

	apiCfg := api.Config{
		Env:               cfg.Env,
		AllowedOrigins:    cfg.AllowedOrigins,
		GatewayConfigured: cfg.Razorpay.Configured(),
		EmailConfigured:   cfg.Email.Provider != EMAIL_PROVIDER_LOG,
		ExposeUserData:    cfg.ExposeUserData,
	}
	if cfg.Storage.GeoIPDB != "" {
		locator, err := analytics.NewGeoIPLocator(cfg.Storage.GeoIPDB)
		if err != nil {
			return err
		}
		defer locator.Close()
		apiCfg.Locator = locator
	}

	handler, err := api.NewAPI(workflow, dispatcher, analytics.NewStore(cfg.Storage.AnalyticsDir, logger), logger, apiCfg).Handler()
	if err != nil {
		return err
	}

	s := &http.Server{
		Handler:           handler,
		Addr:              net.JoinHostPort(cfg.Server.Host, cfg.Server.Port),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("server listening",
			slog.String("addr", s.Addr),
			slog.String("environment", cfg.Env.String()),
			slog.String("data-backend", cfg.Storage.Backend),
			slog.String("email-provider", cfg.Email.Provider),
		)
		serveErr <- s.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
	case <-ctx.Done():
		logger.Info("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := s.Shutdown(shutdownCtx); err != nil {
		logger.Error("failed to shut down http server", slog.String("error", err.Error()))
	}
	if err := dispatcher.Close(shutdownCtx); err != nil {
		logger.Warn("email queue did not drain before shutdown", slog.Int("pending", dispatcher.Len()), slog.String("error", err.Error()))
	}

	return nil
}

func createRecordBlob(ctx context.Context, settings StorageSettings, awsCfg func(context.Context) (aws.Config, error)) (records.Blob, error) {
	switch settings.Backend {
	case DATA_BACKEND_DYNAMO:
		db, err := createDynamoDB(ctx, settings, awsCfg)
		if err != nil {
			return nil, err
		}
		return db.Document("user-data"), nil
	default:
		return records.NewFileBlob(settings.DataFile), nil
	}
}

// createGateway falls back to a local signer when no keys are configured.
// loadConfig refuses that in PROD.
func createGateway(ctx context.Context, cfg Config, logger *slog.Logger, awsCfg func(context.Context) (aws.Config, error)) (enrollment.PaymentGateway, error) {
	if !cfg.Razorpay.Configured() {
		logger.Warn("razorpay keys not set, using the local gateway")
		return razorpay.NewLocalGateway(localKeySecret, logger), nil
	}

	secret := cfg.Razorpay.KeySecret
	if secret == "" {
		var err error
		secret, err = getSSMParameter(ctx, cfg.Razorpay.KeySecretSSMParam, awsCfg)
		if err != nil {
			return nil, err
		}
	}

	return razorpay.NewGateway(cfg.Razorpay.KeyID, secret, logger), nil
}
