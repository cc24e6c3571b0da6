package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config carries every runtime setting the service reads from the environment.
type Config struct {
	Environment string
	HTTPAddr    string
	DatabaseURL string
	AppBaseURL  string

	StripeSecretKey         string
	StripeWebhookSecret     string
	StripePriceIDProMonthly string

	CronSecret string

	MailMock bool
	MailFrom string
	SMTPHost string
	SMTPPort int
	SMTPUser string
	SMTPPass string

	DunningUpcomingWindow time.Duration

	TracingEnabled   bool
	ExporterEndpoint string
	ExporterProtocol string
	SamplingRatio    float64
	ServiceName      string
	ServiceVersion   string
}

// IsProduction reports whether the service runs with production semantics.
func (c Config) IsProduction() bool {
	return strings.EqualFold(c.Environment, "production")
}

// Load reads configuration from the environment and validates it.
func Load() (Config, error) {
	cfg := Config{
		Environment: getenv("ENVIRONMENT", "development"),
		HTTPAddr:    getenv("HTTP_ADDR", ":8080"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		AppBaseURL:  getenv("APP_BASE_URL", "http://localhost:8080"),

		StripeSecretKey:         os.Getenv("STRIPE_SECRET_KEY"),
		StripeWebhookSecret:     os.Getenv("STRIPE_WEBHOOK_SECRET"),
		StripePriceIDProMonthly: os.Getenv("STRIPE_PRICE_ID_PRO_MONTHLY"),

		CronSecret: os.Getenv("CRON_SECRET"),

		MailMock: getenvBool("MAIL_MOCK", true),
		MailFrom: getenv("MAIL_FROM", "Billing <no-reply@example.com>"),
		SMTPHost: os.Getenv("SMTP_HOST"),
		SMTPPort: getenvInt("SMTP_PORT", 587),
		SMTPUser: os.Getenv("SMTP_USER"),
		SMTPPass: os.Getenv("SMTP_PASS"),

		DunningUpcomingWindow: 7 * 24 * time.Hour,

		TracingEnabled:   getenvBool("OTEL_TRACING_ENABLED", false),
		ExporterEndpoint: os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
		ExporterProtocol: getenv("OTEL_EXPORTER_OTLP_PROTOCOL", "grpc"),
		SamplingRatio:    getenvFloat("OTEL_SAMPLING_RATIO", 1.0),
		ServiceName:      getenv("SERVICE_NAME", "stripe-revenue-copilot"),
		ServiceVersion:   getenv("SERVICE_VERSION", "dev"),
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if strings.TrimSpace(c.DatabaseURL) == "" {
		return fmt.Errorf("config: DATABASE_URL is required")
	}
	if strings.TrimSpace(c.StripeSecretKey) == "" {
		return fmt.Errorf("config: STRIPE_SECRET_KEY is required")
	}
	if strings.TrimSpace(c.StripeWebhookSecret) == "" {
		return fmt.Errorf("config: STRIPE_WEBHOOK_SECRET is required")
	}
	if !c.MailMock {
		var missing []string
		if c.SMTPHost == "" {
			missing = append(missing, "SMTP_HOST")
		}
		if c.SMTPPort == 0 {
			missing = append(missing, "SMTP_PORT")
		}
		if c.SMTPUser == "" {
			missing = append(missing, "SMTP_USER")
		}
		if c.SMTPPass == "" {
			missing = append(missing, "SMTP_PASS")
		}
		if len(missing) > 0 {
			return fmt.Errorf("config: real mail delivery enabled but missing %s", strings.Join(missing, ", "))
		}
	}
	return nil
}

func getenv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func getenvBool(key string, fallback bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(strings.ToLower(v))
	if err != nil {
		return fallback
	}
	return parsed
}

func getenvInt(key string, fallback int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return parsed
}

func getenvFloat(key string, fallback float64) float64 {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return parsed
}
