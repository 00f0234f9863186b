package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App          AppConfig
	Database     DatabaseConfig
	Auth         AuthConfig
	Stripe       StripeConfig
	Subscription SubscriptionConfig
	Scheduler    SchedulerConfig
}

type AppConfig struct {
	Port               string
	BaseURL            string
	ClientURL          string
	Environment        string
	LogFilePath        string
	AuditLogFilePath   string
	CorsAllowedOrigins string
	NatsURL            string
	RedisURL           string
	EventTopic         string
}

type DatabaseConfig struct {
	Connection string
}

type AuthConfig struct {
	JwtSecret string
}

type StripeConfig struct {
	SecretKey     string
	WebhookSecret string
	PriceId       string
	ProductName   string
	SuccessURL    string
	CancelURL     string
	HTTPTimeout   time.Duration
	APIURL        string
}

type SubscriptionConfig struct {
	// Amount is in the currency's minor unit.
	Amount        int64
	Currency      string
	Duration      time.Duration
	CheckoutLease time.Duration
	DedupTTL      time.Duration
}

type SchedulerConfig struct {
	Enabled          bool
	ExpirySweepSpec  string
	ExpirySweepOnRun bool
}

func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, using system environment")
	}

	clientURL := getEnv("CLIENT_URL", "http://localhost:5173")

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			BaseURL:            getEnv("APP_BASE_URL", "http://localhost:3000"),
			ClientURL:          clientURL,
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "logs/app.log"),
			AuditLogFilePath:   getEnv("AUDIT_LOG_FILE_PATH", "logs/events.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", clientURL),
			NatsURL:            getEnv("NATS_URL", "nats://localhost:4222"),
			RedisURL:           getEnv("REDIS_URL", "redis://localhost:6379"),
			EventTopic:         getEnv("DOMAIN_EVENT_TOPIC", "provider_domain_events"),
		},
		Database: DatabaseConfig{
			Connection: getEnv("DB_CONNECTION_STRING", ""),
		},
		Auth: AuthConfig{
			JwtSecret: getEnv("JWT_SECRET", ""),
		},
		Stripe: StripeConfig{
			SecretKey:     getEnv("STRIPE_SECRET_KEY", ""),
			WebhookSecret: getEnv("STRIPE_WEBHOOK_SECRET", ""),
			PriceId:       getEnv("STRIPE_PRICE_ID", ""),
			ProductName:   getEnv("STRIPE_PRODUCT_NAME", "Provider monthly plan"),
			SuccessURL:    getEnv("STRIPE_SUCCESS_URL", clientURL+"/provider/subscription/success"),
			CancelURL:     getEnv("STRIPE_CANCEL_URL", clientURL+"/provider/subscription/cancel"),
			HTTPTimeout:   getEnvAsDuration("STRIPE_HTTP_TIMEOUT", 30*time.Second),
			APIURL:        getEnv("STRIPE_API_URL", ""),
		},
		Subscription: SubscriptionConfig{
			Amount:        getEnvAsInt64("SUBSCRIPTION_MONTHLY_AMOUNT", 2900),
			Currency:      getEnv("SUBSCRIPTION_CURRENCY", "usd"),
			Duration:      time.Duration(getEnvAsInt("SUBSCRIPTION_DURATION_DAYS", 30)) * 24 * time.Hour,
			CheckoutLease: getEnvAsDuration("CHECKOUT_LEASE", 60*time.Second),
			DedupTTL:      getEnvAsDuration("WEBHOOK_DEDUP_TTL", 24*time.Hour),
		},
		Scheduler: SchedulerConfig{
			Enabled:          getEnvAsBool("EXPIRY_SWEEP_ENABLED", true),
			ExpirySweepSpec:  getEnv("EXPIRY_SWEEP_SPEC", "@every 6h"),
			ExpirySweepOnRun: getEnvAsBool("EXPIRY_SWEEP_ON_START", true),
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

func getEnvAsInt64(key string, fallback int64) int64 {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseInt(strValue, 10, 64); err == nil {
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
	if value, err := time.ParseDuration(strValue); err == nil && value > 0 {
		return value
	}
	return fallback
}
