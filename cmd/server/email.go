package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/International-Combat-Archery-Alliance/email"
	"github.com/International-Combat-Archery-Alliance/email/awsses"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/python-wizard/course-enrollment/notification"
)

var _ email.Sender = &EmailLogger{}

// email.Sender that logs out the email contents for local dev
type EmailLogger struct {
	logger *slog.Logger
}

func (el *EmailLogger) SendEmail(ctx context.Context, e email.Email) error {
	el.logger.Info("email that would be sent",
		slog.Any("to", e.ToAddresses),
		slog.String("subject", e.Subject),
		slog.String("body", e.TextBody),
	)

	return nil
}

func createEmailSender(ctx context.Context, logger *slog.Logger, settings EmailSettings, awsCfg func(context.Context) (aws.Config, error)) (email.Sender, error) {
	switch settings.Provider {
	case EMAIL_PROVIDER_SMTP:
		return notification.NewSMTPSender(settings.SMTPHost, settings.SMTPPort, settings.SMTPUser, settings.SMTPPassword), nil
	case EMAIL_PROVIDER_SES:
		cfg, err := awsCfg(ctx)
		if err != nil {
			return nil, err
		}
		return awsses.NewAWSSESSender(sesv2.NewFromConfig(cfg)), nil
	case EMAIL_PROVIDER_LOG:
		return &EmailLogger{logger: logger}, nil
	default:
		return nil, fmt.Errorf("unknown email provider %q", settings.Provider)
	}
}
