package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/python-wizard/course-enrollment/api"
)

const (
	EMAIL_PROVIDER_SMTP = "smtp"
	EMAIL_PROVIDER_SES  = "ses"
	EMAIL_PROVIDER_LOG  = "log"

	DATA_BACKEND_FILE   = "file"
	DATA_BACKEND_DYNAMO = "dynamo"
)

type ServerSettings struct {
	Host string
	Port string
}

type RazorpaySettings struct {
	KeyID             string
	KeySecret         string
	KeySecretSSMParam string
}

func (r RazorpaySettings) Configured() bool {
	return r.KeyID != "" && (r.KeySecret != "" || r.KeySecretSSMParam != "")
}

type EmailSettings struct {
	Provider     string
	SMTPHost     string
	SMTPPort     int
	SMTPUser     string
	SMTPPassword string
	From         string
	Admin        string
	SendWelcome  bool
}

type StorageSettings struct {
	Backend        string
	DataFile       string
	DynamoTable    string
	DynamoEndpoint string
	AnalyticsDir   string
	GeoIPDB        string
}

type Config struct {
	Server         ServerSettings
	Env            api.Environment
	AllowedOrigins []string
	ExposeUserData bool
	Razorpay       RazorpaySettings
	Email          EmailSettings
	Storage        StorageSettings
}

func loadConfig() (Config, error) {
	env, err := api.ParseEnvironment(getEnvOrDefault("ENVIRONMENT", "LOCAL"))
	if err != nil {
		return Config{}, err
	}

	smtpPort, err := strconv.Atoi(getEnvOrDefault("SMTP_PORT", "587"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid SMTP_PORT: %w", err)
	}

	sendWelcome, err := getBoolEnvOrDefault("SEND_WELCOME_EMAIL", false)
	if err != nil {
		return Config{}, err
	}
	exposeUserData, err := getBoolEnvOrDefault("EXPOSE_USER_DATA", false)
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		Server: ServerSettings{
			Host: getEnvOrDefault("HOST", "0.0.0.0"),
			Port: getEnvOrDefault("PORT", "8080"),
		},
		Env:            env,
		AllowedOrigins: splitList(getEnvOrDefault("ALLOWED_ORIGINS", "")),
		ExposeUserData: exposeUserData,
		Razorpay: RazorpaySettings{
			KeyID:             getEnvOrDefault("RAZORPAY_KEY_ID", ""),
			KeySecret:         getEnvOrDefault("RAZORPAY_KEY_SECRET", ""),
			KeySecretSSMParam: getEnvOrDefault("RAZORPAY_KEY_SECRET_SSM_PARAM", ""),
		},
		Email: EmailSettings{
			Provider:     strings.ToLower(getEnvOrDefault("EMAIL_PROVIDER", defaultEmailProvider(env))),
			SMTPHost:     getEnvOrDefault("SMTP_HOST", ""),
			SMTPPort:     smtpPort,
			SMTPUser:     getEnvOrDefault("SMTP_USER", ""),
			SMTPPassword: getEnvOrDefault("SMTP_PASSWORD", ""),
			From:         getEnvOrDefault("EMAIL_FROM", "noreply@pythonwizard.in"),
			Admin:        getEnvOrDefault("ADMIN_EMAIL", ""),
			SendWelcome:  sendWelcome,
		},
		Storage: StorageSettings{
			Backend:        strings.ToLower(getEnvOrDefault("DATA_BACKEND", DATA_BACKEND_FILE)),
			DataFile:       getEnvOrDefault("DATA_FILE", "data/user-data.json"),
			DynamoTable:    getEnvOrDefault("DYNAMO_TABLE", "CourseEnrollment"),
			DynamoEndpoint: getEnvOrDefault("DYNAMO_ENDPOINT", ""),
			AnalyticsDir:   getEnvOrDefault("ANALYTICS_DIR", "data/analytics"),
			GeoIPDB:        getEnvOrDefault("GEOIP_DB", ""),
		},
	}

	switch cfg.Email.Provider {
	case EMAIL_PROVIDER_SMTP, EMAIL_PROVIDER_SES, EMAIL_PROVIDER_LOG:
	default:
		return Config{}, fmt.Errorf("unknown EMAIL_PROVIDER %q", cfg.Email.Provider)
	}
	if cfg.Email.Provider == EMAIL_PROVIDER_SMTP && cfg.Email.SMTPHost == "" {
		return Config{}, fmt.Errorf("SMTP_HOST is required when EMAIL_PROVIDER is smtp")
	}

	switch cfg.Storage.Backend {
	case DATA_BACKEND_FILE, DATA_BACKEND_DYNAMO:
	default:
		return Config{}, fmt.Errorf("unknown DATA_BACKEND %q", cfg.Storage.Backend)
	}

	if env == api.PROD && !cfg.Razorpay.Configured() {
		return Config{}, fmt.Errorf("RAZORPAY_KEY_ID and a key secret are required in PROD")
	}

	return cfg, nil
}

func defaultEmailProvider(env api.Environment) string {
	if env == api.PROD {
		return EMAIL_PROVIDER_SMTP
	}
	return EMAIL_PROVIDER_LOG
}

func getEnvOrDefault(key string, defaultVal string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}

	return defaultVal
}

func getBoolEnvOrDefault(key string, defaultVal bool) (bool, error) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return defaultVal, nil
	}

	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("invalid %s: %w", key, err)
	}
	return b, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
