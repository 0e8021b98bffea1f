package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App      AppConfig
	Database DatabaseConfig
	SMTP     SMTPConfig
	Payment  PaymentConfig
	Webhook  WebhookConfig
	Sweep    SweepConfig
	Support  SupportConfig
	Tracing  TracingConfig
}

type AppConfig struct {
	Port               string
	BaseURL            string
	ClientURL          string
	Environment        string
	LogFilePath        string
	LogLevel           string
	CorsAllowedOrigins string
	NatsURL            string
	RedisURL           string
	JwtSecret          string
	ExtensionTopic     string // in-process topic for extended ledger columns
}

type DatabaseConfig struct {
	Driver       string // "postgres" or "memory"
	Connection   string
	MaxOpenConns int
	MaxIdleConns int
}

type SMTPConfig struct {
	Host       string
	Port       int
	Email      string
	Password   string
	SenderName string
}

type PaymentConfig struct {
	MidtransServerKey  string
	MidtransProduction bool
	ProviderAPIURL     string
	ProviderTimeout    time.Duration
	CatalogCacheTTL    time.Duration
}

type WebhookConfig struct {
	ProcessingTimeout     time.Duration
	IdentityLookupTimeout time.Duration
	VerifySignature       bool
}

type SweepConfig struct {
	Enabled  bool
	Interval time.Duration
	PageSize int
	LockTTL  time.Duration
}

type TracingConfig struct {
	Enabled     bool
	Endpoint    string // OTLP/HTTP host:port
	ServiceName string
	SampleRatio float64
}

type SupportConfig struct {
	NotifyEmails []string
	AdminURL     string
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			BaseURL:            getEnv("APP_BASE_URL", "http://localhost:3000"),
			ClientURL:          getEnv("CLIENT_URL", "http://localhost:5173"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "logs/leadflow.log"),
			LogLevel:           getEnv("LOG_LEVEL", "debug"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
			NatsURL:            getEnv("NATS_URL", ""),
			RedisURL:           getEnv("REDIS_URL", ""),
			JwtSecret:          getEnv("JWT_SECRET", ""),
			ExtensionTopic:     getEnv("LEDGER_EXTENSION_TOPIC", "LEDGER_EXTENSION_PATCH"),
		},
		Database: DatabaseConfig{
			Driver:       getEnv("STORE_DRIVER", "postgres"),
			Connection:   getEnv("DB_CONNECTION_STRING", ""),
			MaxOpenConns: getEnvAsInt("DB_MAX_OPEN_CONNS", 50),
			MaxIdleConns: getEnvAsInt("DB_MAX_IDLE_CONNS", 10),
		},
		SMTP: SMTPConfig{
			Host:       getEnv("SMTP_HOST", ""),
			Port:       getEnvAsInt("SMTP_PORT", 587),
			Email:      getEnv("SMTP_EMAIL", ""),
			Password:   getEnv("SMTP_PASSWORD", ""),
			SenderName: getEnv("SMTP_SENDER_NAME", "LeadFlow Billing"),
		},
		Payment: PaymentConfig{
			MidtransServerKey:  getEnv("MIDTRANS_SERVER_KEY", ""),
			MidtransProduction: getEnvAsBool("MIDTRANS_IS_PRODUCTION", false),
			ProviderAPIURL:     getEnv("PROVIDER_API_URL", "https://api.sandbox.midtrans.com"),
			ProviderTimeout:    getEnvAsDuration("PROVIDER_TIMEOUT", 10*time.Second),
			CatalogCacheTTL:    getEnvAsDuration("CATALOG_CACHE_TTL", 5*time.Minute),
		},
		Webhook: WebhookConfig{
			ProcessingTimeout:     getEnvAsDuration("WEBHOOK_PROCESSING_TIMEOUT", 20*time.Second),
			IdentityLookupTimeout: getEnvAsDuration("IDENTITY_LOOKUP_TIMEOUT", 3*time.Second),
			VerifySignature:       getEnvAsBool("WEBHOOK_VERIFY_SIGNATURE", true),
		},
		Sweep: SweepConfig{
			Enabled:  getEnvAsBool("SWEEP_ENABLED", true),
			Interval: getEnvAsDuration("SWEEP_INTERVAL", 30*time.Minute),
			PageSize: getEnvAsInt("SWEEP_PAGE_SIZE", 100),
			LockTTL:  getEnvAsDuration("SWEEP_LOCK_TTL", 10*time.Minute),
		},
		Support: SupportConfig{
			NotifyEmails: getEnvAsList("SUPPORT_NOTIFY_EMAILS"),
			AdminURL:     getEnv("ADMIN_URL", "http://localhost:5173/admin"),
		},
		Tracing: TracingConfig{
			Enabled:     getEnvAsBool("OTEL_ENABLED", false),
			Endpoint:    getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4318"),
			ServiceName: getEnv("OTEL_SERVICE_NAME", "leadflow-be"),
			SampleRatio: getEnvAsFloat("OTEL_SAMPLE_RATIO", 1),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsFloat(key string, fallback float64) float64 {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseFloat(strValue, 64); err == nil {
		return value
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseBool(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	strValue := getEnv(key, "")
	if value, err := time.ParseDuration(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsList(key string) []string {
	var out []string
	for _, part := range strings.Split(getEnv(key, ""), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
