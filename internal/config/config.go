package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration.
type Config struct {
	AppName     string
	AppVersion  string
	AppURL      string
	Environment string
	HTTPAddr    string
	LogLevel    string

	DBType            string
	DBHost            string
	DBPort            string
	DBName            string
	DBUser            string
	DBPassword        string
	DBSSLMode         string
	DBMaxIdleConn     int
	DBMaxOpenConn     int
	DBConnMaxLifetime int

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	Email    EmailConfig
	Paystack PaystackConfig

	Onboarding OnboardingConfig
}

type EmailConfig struct {
	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	SMTPFrom     string
}

type PaystackConfig struct {
	SecretKey string
	BaseURL   string
	Timeout   time.Duration
}

// OnboardingConfig tunes the async provisioning pipeline.
type OnboardingConfig struct {
	JobMaxAttempts int
	JobBackoff     time.Duration
	JobTimeout     time.Duration
	PollInterval   time.Duration

	StaleAfter     time.Duration
	PruneAfter     time.Duration
	SubmitLimit    int
	SubmitWindow   time.Duration
	StatusLimit    int
	StatusWindow   time.Duration
	VerifySecret   string
	VerifyLinkTTL  time.Duration
}

// Load loads configuration from environment variables and .env file.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		AppName:     getenv("APP_SERVICE", "scholaris"),
		AppVersion:  getenv("APP_VERSION", "0.1.0"),
		AppURL:      strings.TrimRight(getenv("APP_URL", "http://localhost:8080"), "/"),
		Environment: getenv("ENVIRONMENT", "development"),
		HTTPAddr:    getenv("HTTP_ADDR", ":8080"),
		LogLevel:    getenv("LOG_LEVEL", "info"),

		DBType:            getenv("DATABASE_TYPE", "postgres"),
		DBHost:            getenv("DATABASE_HOST", "localhost"),
		DBPort:            getenv("DATABASE_PORT", "5432"),
		DBName:            getenv("DATABASE_NAME", "scholaris"),
		DBUser:            getenv("DATABASE_USER", "postgres"),
		DBPassword:        getenv("DATABASE_PASSWORD", "postgres"),
		DBSSLMode:         getenv("DATABASE_SSLMODE", "disable"),
		DBMaxIdleConn:     getenvInt("DATABASE_MAX_IDLE_CONN", 5),
		DBMaxOpenConn:     getenvInt("DATABASE_MAX_OPEN_CONN", 25),
		DBConnMaxLifetime: getenvInt("DATABASE_CONN_MAX_LIFETIME", 3600),

		RedisAddr:     strings.TrimSpace(getenv("REDIS_ADDR", "")),
		RedisPassword: getenv("REDIS_PASSWORD", ""),
		RedisDB:       getenvInt("REDIS_DB", 0),

		Email: EmailConfig{
			SMTPHost:     strings.TrimSpace(getenv("SMTP_HOST", "")),
			SMTPPort:     getenvInt("SMTP_PORT", 587),
			SMTPUsername: getenv("SMTP_USERNAME", ""),
			SMTPPassword: getenv("SMTP_PASSWORD", ""),
			SMTPFrom:     getenv("SMTP_FROM", "no-reply@scholaris.app"),
		},

		Paystack: PaystackConfig{
			SecretKey: strings.TrimSpace(getenv("PAYSTACK_SECRET_KEY", "")),
			BaseURL:   getenv("PAYSTACK_BASE_URL", "https://api.paystack.co"),
			Timeout:   getenvDuration("PAYSTACK_TIMEOUT", 15*time.Second),
		},

		Onboarding: OnboardingConfig{
			JobMaxAttempts: getenvInt("ONBOARDING_JOB_MAX_ATTEMPTS", 3),
			JobBackoff:     getenvDuration("ONBOARDING_JOB_BACKOFF", 10*time.Second),
			JobTimeout:     getenvDuration("ONBOARDING_JOB_TIMEOUT", 5*time.Minute),
			PollInterval:   getenvDuration("ONBOARDING_POLL_INTERVAL", time.Second),
			StaleAfter:     getenvDuration("ONBOARDING_STALE_AFTER", 60*time.Minute),
			PruneAfter:     getenvDuration("ONBOARDING_PRUNE_AFTER", 30*24*time.Hour),
			SubmitLimit:    getenvInt("ONBOARDING_SUBMIT_LIMIT", 3),
			SubmitWindow:   getenvDuration("ONBOARDING_SUBMIT_WINDOW", 10*time.Minute),
			StatusLimit:    getenvInt("ONBOARDING_STATUS_LIMIT", 60),
			StatusWindow:   getenvDuration("ONBOARDING_STATUS_WINDOW", time.Minute),
			VerifySecret:   getenv("VERIFICATION_SECRET", "scholaris-dev-secret"),
			VerifyLinkTTL:  getenvDuration("VERIFICATION_LINK_TTL", 24*time.Hour),
		},
	}
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return def
	}
	return parsed
}

func getenvDuration(key string, def time.Duration) time.Duration {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return def
	}
	return parsed
}

