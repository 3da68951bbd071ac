package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all runtime configuration loaded from environment variables.
type Config struct {
	AppPort    string
	AppEnv     string
	WorkerPort string

	AWSRegion      string
	AWSEndpointURL string // empty in prod, set to LocalStack URL in dev
	AWSAccessKeyID string
	AWSSecretKey   string
	DynamoTables   DynamoTables

	S3BucketName   string
	ReportsEnabled bool
	ReportURLTTL   time.Duration

	JWTPrivateKeyPath      string
	JWTPublicKeyPath       string
	JWTExpiry              time.Duration
	RefreshTokenExpiryDays int
	AdminUsername          string // bootstrap admin, created on start when missing
	AdminPassword          string

	SMTPHost            string
	SMTPPort            string
	SMTPFrom            string
	SMTPUsername        string
	SMTPPassword        string
	ApprovalNotifyEmail string // empty disables approval e-mails

	SNSRegion        string
	SNSSenderID      string
	DeliveryProvider string // "mock" | "sns"
	WhatsAppProvider string // only "mock" today
	Breaker          BreakerConfig

	DispatchConcurrency int

	SweepCron     string
	SweepTimezone string
	SweepTimeout  time.Duration
	SweepInAPI    bool
	RedisAddr     string // empty disables the sweep tick lock
	RedisPassword string
	SweepLockTTL  time.Duration

	AllowedOrigins []string // CORS allowed origins
}

// DynamoTables holds the DynamoDB table name for each entity.
type DynamoTables struct {
	Users                  string
	Sessions               string
	Scopes                 string
	Recipients             string
	Audiences              string
	Templates              string
	Notifications          string
	ScheduledNotifications string
	Settings               string
	AuditLog               string
}

// BreakerConfig tunes the circuit breaker wrapped around each delivery provider.
type BreakerConfig struct {
	MaxRequests      uint32
	Interval         time.Duration
	Timeout          time.Duration
	FailureThreshold float64
	MinRequests      uint32
}

// Load reads all configuration from environment variables.
func Load() *Config {
	return &Config{
		AppPort:        getEnv("APP_PORT", "3000"),
		AppEnv:         getEnv("APP_ENV", "development"),
		WorkerPort:     getEnv("WORKER_PORT", "9091"),
		AWSRegion:      getEnv("AWS_REGION", "us-east-1"),
		AWSEndpointURL: getEnv("AWS_ENDPOINT_URL", ""),
		AWSAccessKeyID: getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretKey:   getEnv("AWS_SECRET_ACCESS_KEY", ""),
		DynamoTables: DynamoTables{
			Users:                  getEnv("DYNAMO_TABLE_USERS", "users"),
			Sessions:               getEnv("DYNAMO_TABLE_SESSIONS", "sessions"),
			Scopes:                 getEnv("DYNAMO_TABLE_SCOPES", "scopes"),
			Recipients:             getEnv("DYNAMO_TABLE_RECIPIENTS", "recipients"),
			Audiences:              getEnv("DYNAMO_TABLE_AUDIENCES", "audiences"),
			Templates:              getEnv("DYNAMO_TABLE_TEMPLATES", "templates"),
			Notifications:          getEnv("DYNAMO_TABLE_NOTIFICATIONS", "notifications"),
			ScheduledNotifications: getEnv("DYNAMO_TABLE_SCHEDULED_NOTIFICATIONS", "scheduled_notifications"),
			Settings:               getEnv("DYNAMO_TABLE_SETTINGS", "system_settings"),
			AuditLog:               getEnv("DYNAMO_TABLE_AUDIT_LOG", "audit_log"),
		},
		S3BucketName:           getEnv("S3_BUCKET_NAME", "notify-delivery-reports"),
		ReportsEnabled:         getEnvBool("REPORTS_ENABLED", false),
		ReportURLTTL:           getEnvDuration("REPORT_URL_TTL", 15*time.Minute),
		JWTPrivateKeyPath:      getEnv("JWT_PRIVATE_KEY_PATH", "./private_key.pem"),
		JWTPublicKeyPath:       getEnv("JWT_PUBLIC_KEY_PATH", "./public_key.pem"),
		JWTExpiry:              time.Duration(getEnvInt("JWT_EXPIRY_HOURS", 24)) * time.Hour,
		RefreshTokenExpiryDays: getEnvInt("REFRESH_TOKEN_EXPIRY_DAYS", 30),
		AdminUsername:          getEnv("ADMIN_USERNAME", ""),
		AdminPassword:          getEnv("ADMIN_PASSWORD", ""),
		SMTPHost:               getEnv("SMTP_HOST", "localhost"),
		SMTPPort:               getEnv("SMTP_PORT", "1025"),
		SMTPFrom:               getEnv("SMTP_FROM", "noreply@example.com"),
		SMTPUsername:           getEnv("SMTP_USERNAME", ""),
		SMTPPassword:           getEnv("SMTP_PASSWORD", ""),
		ApprovalNotifyEmail:    getEnv("APPROVAL_NOTIFY_EMAIL", ""),
		SNSRegion:              getEnv("SNS_REGION", "us-east-1"),
		SNSSenderID:            getEnv("SNS_SENDER_ID", ""),
		DeliveryProvider:       getEnv("DELIVERY_PROVIDER", "mock"),
		WhatsAppProvider:       getEnv("WHATSAPP_PROVIDER", "mock"),
		Breaker: BreakerConfig{
			MaxRequests:      uint32(getEnvInt("BREAKER_MAX_REQUESTS", 3)),
			Interval:         getEnvDuration("BREAKER_INTERVAL", 30*time.Second),
			Timeout:          getEnvDuration("BREAKER_TIMEOUT", 60*time.Second),
			FailureThreshold: getEnvFloat("BREAKER_FAILURE_THRESHOLD", 0.6),
			MinRequests:      uint32(getEnvInt("BREAKER_MIN_REQUESTS", 5)),
		},
		DispatchConcurrency: getEnvInt("DISPATCH_CONCURRENCY", 1),
		SweepCron:           getEnv("SWEEP_CRON", "@every 1m"),
		SweepTimezone:       getEnv("SWEEP_TIMEZONE", "UTC"),
		SweepTimeout:        getEnvDuration("SWEEP_TIMEOUT", 5*time.Minute),
		SweepInAPI:          getEnvBool("SWEEP_IN_API", false),
		RedisAddr:           getEnv("REDIS_ADDR", ""),
		RedisPassword:       getEnv("REDIS_PASSWORD", ""),
		SweepLockTTL:        getEnvDuration("SWEEP_LOCK_TTL", 50*time.Second),
		AllowedOrigins:      strings.Split(getEnv("ALLOWED_ORIGINS", "*"), ","),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
