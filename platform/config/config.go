// Package config provides application configuration loading.
// This is part of the platform layer and contains no business logic.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// =============================================================================
// Module-Specific Config Interfaces (Principle of Least Privilege)
// =============================================================================

// DatabaseConfig provides database connection settings.
type DatabaseConfig interface {
	GetDatabaseURL() string
}

// JWTConfig provides JWT validation settings for middleware.
type JWTConfig interface {
	GetJWTAccessSecret() string
}

// HTTPConfig provides settings for the HTTP server.
type HTTPConfig interface {
	GetHTTPAddr() string
	GetCORSAllowAll() bool
	GetCORSOrigins() []string
	GetCORSAllowCreds() bool
	GetRateLimitRPS() float64
	GetRateLimitBurst() int
}

// RedisConfig provides the shared Redis connection used by caches and locks.
type RedisConfig interface {
	GetRedisURL() string
	GetRedisTLSInsecure() bool
}

// SchedulerConfig provides settings for the asynq client and worker.
type SchedulerConfig interface {
	RedisConfig
	GetAsynqQueueName() string
	GetAsynqConcurrency() int
}

// MinIOConfig provides settings for MinIO S3-compatible storage.
type MinIOConfig interface {
	GetMinIOEndpoint() string
	GetMinIOAccessKey() string
	GetMinIOSecretKey() string
	GetMinIOUseSSL() bool
	GetMinIOMaxFileSize() int64
	GetMinioBucketQuoteAttachments() string
	IsMinIOEnabled() bool
}

// CollaboratorConfig provides endpoints of the services quotes depend on.
type CollaboratorConfig interface {
	GetOrdersServiceURL() string
	GetDirectoryServiceURL() string
	GetServiceToken() string
	GetDirectoryCacheTTL() time.Duration
}

// QuoteConfig provides negotiation defaults.
type QuoteConfig interface {
	GetQuoteDefaultValidityDays() int
	GetQuoteDefaultExtensionDays() int
	GetConversionTimeout() time.Duration
	GetConversionLockTTL() time.Duration
	GetQuoteReminderLead() time.Duration
}

// EmailConfig provides settings for email sending.
type EmailConfig interface {
	GetEmailEnabled() bool
	GetBrevoAPIKey() string
	GetSMTPHost() string
	GetSMTPPort() int
	GetSMTPUsername() string
	GetSMTPPassword() string
	GetEmailFromName() string
	GetEmailFromAddress() string
}

// NotificationConfig provides settings for the notification module.
type NotificationConfig interface {
	GetAppBaseURL() string
}

// =============================================================================
// Main Config Struct
// =============================================================================

// Config holds all application configuration values.
type Config struct {
	Env                       string
	HTTPAddr                  string
	DatabaseURL               string
	JWTAccessSecret           string
	CORSAllowAll              bool
	CORSOrigins               []string
	CORSAllowCreds            bool
	RateLimitRPS              float64
	RateLimitBurst            int
	RedisURL                  string
	RedisTLSInsecure          bool
	AsynqQueueName            string
	AsynqConcurrency          int
	MinIOEndpoint             string
	MinIOAccessKey            string
	MinIOSecretKey            string
	MinIOUseSSL               bool
	MinIOMaxFileSize          int64
	MinioBucketQuoteAttach    string
	OrdersServiceURL          string
	DirectoryServiceURL       string
	ServiceToken              string
	DirectoryCacheTTL         time.Duration
	QuoteDefaultValidityDays  int
	QuoteDefaultExtensionDays int
	ConversionTimeout         time.Duration
	ConversionLockTTL         time.Duration
	QuoteReminderLead         time.Duration
	AppBaseURL                string
	EmailEnabled              bool
	BrevoAPIKey               string
	SMTPHost                  string
	SMTPPort                  int
	SMTPUsername              string
	SMTPPassword              string
	EmailFromName             string
	EmailFromAddress          string
}

// DatabaseConfig
func (c *Config) GetDatabaseURL() string { return c.DatabaseURL }

// JWTConfig
func (c *Config) GetJWTAccessSecret() string { return c.JWTAccessSecret }

// HTTPConfig
func (c *Config) GetHTTPAddr() string { return c.HTTPAddr }
func (c *Config) GetCORSAllowAll() bool { return c.CORSAllowAll }
func (c *Config) GetCORSOrigins() []string { return c.CORSOrigins }
func (c *Config) GetCORSAllowCreds() bool { return c.CORSAllowCreds }
func (c *Config) GetRateLimitRPS() float64 { return c.RateLimitRPS }
func (c *Config) GetRateLimitBurst() int { return c.RateLimitBurst }

// SchedulerConfig
func (c *Config) GetRedisURL() string { return c.RedisURL }
func (c *Config) GetRedisTLSInsecure() bool { return c.RedisTLSInsecure }
func (c *Config) GetAsynqQueueName() string { return c.AsynqQueueName }
func (c *Config) GetAsynqConcurrency() int { return c.AsynqConcurrency }

// MinIOConfig
func (c *Config) GetMinIOEndpoint() string { return c.MinIOEndpoint }
func (c *Config) GetMinIOAccessKey() string { return c.MinIOAccessKey }
func (c *Config) GetMinIOSecretKey() string { return c.MinIOSecretKey }
func (c *Config) GetMinIOUseSSL() bool { return c.MinIOUseSSL }
func (c *Config) GetMinIOMaxFileSize() int64 { return c.MinIOMaxFileSize }
func (c *Config) GetMinioBucketQuoteAttachments() string {
	return c.MinioBucketQuoteAttach
}
func (c *Config) IsMinIOEnabled() bool { return c.MinIOEndpoint != "" }

// CollaboratorConfig
func (c *Config) GetOrdersServiceURL() string { return c.OrdersServiceURL }
func (c *Config) GetDirectoryServiceURL() string { return c.DirectoryServiceURL }
func (c *Config) GetServiceToken() string { return c.ServiceToken }
func (c *Config) GetDirectoryCacheTTL() time.Duration { return c.DirectoryCacheTTL }

// QuoteConfig
func (c *Config) GetQuoteDefaultValidityDays() int { return c.QuoteDefaultValidityDays }
func (c *Config) GetQuoteDefaultExtensionDays() int { return c.QuoteDefaultExtensionDays }
func (c *Config) GetConversionTimeout() time.Duration { return c.ConversionTimeout }
func (c *Config) GetConversionLockTTL() time.Duration { return c.ConversionLockTTL }
func (c *Config) GetQuoteReminderLead() time.Duration { return c.QuoteReminderLead }

// EmailConfig
func (c *Config) GetEmailEnabled() bool { return c.EmailEnabled }
func (c *Config) GetBrevoAPIKey() string { return c.BrevoAPIKey }
func (c *Config) GetSMTPHost() string { return c.SMTPHost }
func (c *Config) GetSMTPPort() int { return c.SMTPPort }
func (c *Config) GetSMTPUsername() string { return c.SMTPUsername }
func (c *Config) GetSMTPPassword() string { return c.SMTPPassword }
func (c *Config) GetEmailFromName() string { return c.EmailFromName }
func (c *Config) GetEmailFromAddress() string { return c.EmailFromAddress }

// NotificationConfig
func (c *Config) GetAppBaseURL() string { return c.AppBaseURL }

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	_ = godotenv.Load()

	brevoAPIKey := getEnv("BREVO_API_KEY", "")
	smtpHost := getEnv("SMTP_HOST", "")
	emailEnabled := strings.EqualFold(getEnv("EMAIL_ENABLED", "false"), "true")

	corsOrigins := splitCSV(getEnv("CORS_ORIGINS", "http://localhost:4200"))
	corsAllowAll := strings.EqualFold(getEnv("CORS_ALLOW_ALL", "false"), "true")
	if containsWildcard(corsOrigins) {
		corsAllowAll = true
	}

	cfg := &Config{
		Env:                       getEnv("APP_ENV", "development"),
		HTTPAddr:                  getEnv("HTTP_ADDR", ":8080"),
		DatabaseURL:               getEnv("DATABASE_URL", ""),
		JWTAccessSecret:           getEnv("JWT_ACCESS_SECRET", ""),
		CORSAllowAll:              corsAllowAll,
		CORSOrigins:               corsOrigins,
		CORSAllowCreds:            strings.EqualFold(getEnv("CORS_ALLOW_CREDENTIALS", "true"), "true"),
		RateLimitRPS:              mustFloat(getEnv("RATE_LIMIT_RPS", "10")),
		RateLimitBurst:            mustInt(getEnv("RATE_LIMIT_BURST", "20")),
		RedisURL:                  getEnv("REDIS_URL", ""),
		RedisTLSInsecure:          strings.EqualFold(getEnv("REDIS_TLS_INSECURE", "false"), "true"),
		AsynqQueueName:            getEnv("ASYNQ_QUEUE", "quotes"),
		AsynqConcurrency:          mustInt(getEnv("ASYNQ_CONCURRENCY", "10")),
		MinIOEndpoint:             getEnv("MINIO_ENDPOINT", ""),
		MinIOAccessKey:            getEnv("MINIO_ACCESS_KEY", ""),
		MinIOSecretKey:            getEnv("MINIO_SECRET_KEY", ""),
		MinIOUseSSL:               strings.EqualFold(getEnv("MINIO_USE_SSL", "false"), "true"),
		MinIOMaxFileSize:          mustInt64(getEnv("MINIO_MAX_FILE_SIZE", "26214400")),
		MinioBucketQuoteAttach:    getEnv("MINIO_BUCKET_QUOTE_ATTACHMENTS", "quote-attachments"),
		OrdersServiceURL:          getEnv("ORDERS_SERVICE_URL", ""),
		DirectoryServiceURL:       getEnv("DIRECTORY_SERVICE_URL", ""),
		ServiceToken:              getEnv("SERVICE_TOKEN", ""),
		DirectoryCacheTTL:         mustDuration(getEnv("DIRECTORY_CACHE_TTL", "10m")),
		QuoteDefaultValidityDays:  mustInt(getEnv("QUOTE_DEFAULT_VALIDITY_DAYS", "15")),
		QuoteDefaultExtensionDays: mustInt(getEnv("QUOTE_DEFAULT_EXTENSION_DAYS", "7")),
		ConversionTimeout:         mustDuration(getEnv("CONVERSION_TIMEOUT", "10s")),
		ConversionLockTTL:         mustDuration(getEnv("CONVERSION_LOCK_TTL", "30s")),
		QuoteReminderLead:         mustDuration(getEnv("QUOTE_REMINDER_LEAD", "24h")),
		AppBaseURL:                getEnv("APP_BASE_URL", "http://localhost:4200"),
		EmailEnabled:              emailEnabled && (brevoAPIKey != "" || smtpHost != ""),
		BrevoAPIKey:               brevoAPIKey,
		SMTPHost:                  smtpHost,
		SMTPPort:                  mustInt(getEnv("SMTP_PORT", "587")),
		SMTPUsername:              getEnv("SMTP_USERNAME", ""),
		SMTPPassword:              getEnv("SMTP_PASSWORD", ""),
		EmailFromName:             getEnv("EMAIL_FROM_NAME", "Marketplace"),
		EmailFromAddress:          getEnv("EMAIL_FROM_ADDRESS", ""),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.JWTAccessSecret == "" {
		return nil, fmt.Errorf("JWT_ACCESS_SECRET is required")
	}
	if cfg.CORSAllowAll && cfg.CORSAllowCreds {
		return nil, fmt.Errorf("CORS_ALLOW_CREDENTIALS cannot be true when CORS_ALLOW_ALL is true")
	}
	if emailEnabled && brevoAPIKey == "" && smtpHost == "" {
		return nil, fmt.Errorf("EMAIL_ENABLED requires BREVO_API_KEY or SMTP_HOST")
	}
	if cfg.EmailEnabled && cfg.EmailFromAddress == "" {
		return nil, fmt.Errorf("EMAIL_FROM_ADDRESS is required when email is enabled")
	}
	if cfg.QuoteDefaultValidityDays <= 0 {
		return nil, fmt.Errorf("QUOTE_DEFAULT_VALIDITY_DAYS must be positive")
	}
	if cfg.ConversionTimeout <= 0 {
		return nil, fmt.Errorf("CONVERSION_TIMEOUT must be a positive duration")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

func mustDuration(value string) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0
	}
	return d
}

func mustInt(value string) int {
	result, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return 0
	}
	return result
}

func mustInt64(value string) int64 {
	result, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0
	}
	return result
}

func mustFloat(value string) float64 {
	result, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return 0
	}
	return result
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	results := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			results = append(results, trimmed)
		}
	}
	return results
}

func containsWildcard(values []string) bool {
	for _, value := range values {
		if value == "*" {
			return true
		}
	}
	return false
}
