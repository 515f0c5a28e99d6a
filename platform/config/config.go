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
}

// WhatsAppConfig provides settings for the WhatsApp gateway client.
type WhatsAppConfig interface {
	GetWhatsAppURL() string
	GetWhatsAppKey() string
	GetWhatsAppDeviceID() string
	GetWhatsAppSendTimeout() time.Duration
}

// WebhookConfig provides settings for inbound webhook authentication.
type WebhookConfig interface {
	GetWebhookAPIKey() string
}

// SchedulerConfig provides settings for the asynq task plumbing.
type SchedulerConfig interface {
	GetRedisURL() string
	GetRedisTLSInsecure() bool
	GetAsynqQueueName() string
	GetAsynqConcurrency() int
}

// AIConfig provides settings for the Layer-3 intent classifier.
type AIConfig interface {
	GetGeminiAPIKey() string
	GetGeminiModel() string
	GetAITimeout() time.Duration
	IsAIEnabled() bool
}

// DripConfig provides settings for the drip campaign scheduler.
type DripConfig interface {
	GetDripTickInterval() time.Duration
	GetDripBatchSize() int
	GetDripMaxAttempts() int
	GetDripRetryBackoff() time.Duration
	GetDripDefinitionsPath() string
	GetDefaultDripName() string
}

// ContactConfig provides the fallback contact for employee notifications.
type ContactConfig interface {
	GetAdminPhone() string
}

// StorageConfig provides settings for MinIO S3-compatible media storage.
type StorageConfig interface {
	GetMinIOEndpoint() string
	GetMinIOAccessKey() string
	GetMinIOSecretKey() string
	GetMinIOUseSSL() bool
	GetMinIOMaxFileSize() int64
	GetMinioBucketLeadMedia() string
	IsMinIOEnabled() bool
}

// MailConfig provides settings for operator alert emails.
type MailConfig interface {
	GetSMTPHost() string
	GetSMTPPort() int
	GetSMTPUsername() string
	GetSMTPPassword() string
	GetMailFromName() string
	GetMailFromAddress() string
	GetOperatorEmail() string
	IsMailEnabled() bool
}

// =============================================================================
// Main Config Struct
// =============================================================================

// Config holds all application configuration values.
type Config struct {
	Env                 string
	HTTPAddr            string
	DatabaseURL         string
	JWTAccessSecret     string
	CORSAllowAll        bool
	CORSOrigins         []string
	CORSAllowCreds      bool
	WhatsAppURL         string
	WhatsAppKey         string
	WhatsAppDeviceID    string
	WhatsAppSendTimeout time.Duration
	WebhookAPIKey       string
	RedisURL            string
	RedisTLSInsecure    bool
	AsynqQueueName      string
	AsynqConcurrency    int
	GeminiAPIKey        string
	GeminiModel         string
	AITimeout           time.Duration
	DripTickInterval    time.Duration
	DripBatchSize       int
	DripMaxAttempts     int
	DripRetryBackoff    time.Duration
	DripDefinitionsPath string
	DefaultDripName     string
	AdminPhone          string
	MinIOEndpoint       string
	MinIOAccessKey      string
	MinIOSecretKey      string
	MinIOUseSSL         bool
	MinIOMaxFileSize    int64
	MinioBucketLeadMedia string
	SMTPHost            string
	SMTPPort            int
	SMTPUsername        string
	SMTPPassword        string
	MailFromName        string
	MailFromAddress     string
	OperatorEmail       string
	MailEnabled         bool
}

// =============================================================================
// Interface Implementations
// =============================================================================

// DatabaseConfig implementation
func (c *Config) GetDatabaseURL() string { return c.DatabaseURL }

// JWTConfig implementation
func (c *Config) GetJWTAccessSecret() string { return c.JWTAccessSecret }

// HTTPConfig implementation
func (c *Config) GetHTTPAddr() string      { return c.HTTPAddr }
func (c *Config) GetCORSAllowAll() bool    { return c.CORSAllowAll }
func (c *Config) GetCORSOrigins() []string { return c.CORSOrigins }
func (c *Config) GetCORSAllowCreds() bool  { return c.CORSAllowCreds }

// WhatsAppConfig implementation
func (c *Config) GetWhatsAppURL() string                 { return c.WhatsAppURL }
func (c *Config) GetWhatsAppKey() string                 { return c.WhatsAppKey }
func (c *Config) GetWhatsAppDeviceID() string            { return c.WhatsAppDeviceID }
func (c *Config) GetWhatsAppSendTimeout() time.Duration  { return c.WhatsAppSendTimeout }

// WebhookConfig implementation
func (c *Config) GetWebhookAPIKey() string { return c.WebhookAPIKey }

// SchedulerConfig implementation
func (c *Config) GetRedisURL() string       { return c.RedisURL }
func (c *Config) GetRedisTLSInsecure() bool { return c.RedisTLSInsecure }
func (c *Config) GetAsynqQueueName() string { return c.AsynqQueueName }
func (c *Config) GetAsynqConcurrency() int  { return c.AsynqConcurrency }

// AIConfig implementation
func (c *Config) GetGeminiAPIKey() string      { return c.GeminiAPIKey }
func (c *Config) GetGeminiModel() string       { return c.GeminiModel }
func (c *Config) GetAITimeout() time.Duration  { return c.AITimeout }
func (c *Config) IsAIEnabled() bool            { return c.GeminiAPIKey != "" }

// DripConfig implementation
func (c *Config) GetDripTickInterval() time.Duration { return c.DripTickInterval }
func (c *Config) GetDripBatchSize() int              { return c.DripBatchSize }
func (c *Config) GetDripMaxAttempts() int            { return c.DripMaxAttempts }
func (c *Config) GetDripRetryBackoff() time.Duration { return c.DripRetryBackoff }
func (c *Config) GetDripDefinitionsPath() string     { return c.DripDefinitionsPath }
func (c *Config) GetDefaultDripName() string         { return c.DefaultDripName }

// ContactConfig implementation
func (c *Config) GetAdminPhone() string { return c.AdminPhone }

// StorageConfig implementation
func (c *Config) GetMinIOEndpoint() string       { return c.MinIOEndpoint }
func (c *Config) GetMinIOAccessKey() string      { return c.MinIOAccessKey }
func (c *Config) GetMinIOSecretKey() string      { return c.MinIOSecretKey }
func (c *Config) GetMinIOUseSSL() bool           { return c.MinIOUseSSL }
func (c *Config) GetMinIOMaxFileSize() int64     { return c.MinIOMaxFileSize }
func (c *Config) GetMinioBucketLeadMedia() string { return c.MinioBucketLeadMedia }
func (c *Config) IsMinIOEnabled() bool           { return c.MinIOEndpoint != "" }

// MailConfig implementation
func (c *Config) GetSMTPHost() string        { return c.SMTPHost }
func (c *Config) GetSMTPPort() int           { return c.SMTPPort }
func (c *Config) GetSMTPUsername() string    { return c.SMTPUsername }
func (c *Config) GetSMTPPassword() string    { return c.SMTPPassword }
func (c *Config) GetMailFromName() string    { return c.MailFromName }
func (c *Config) GetMailFromAddress() string { return c.MailFromAddress }
func (c *Config) GetOperatorEmail() string   { return c.OperatorEmail }
func (c *Config) IsMailEnabled() bool        { return c.MailEnabled }

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	_ = godotenv.Load()

	corsOrigins := splitCSV(getEnv("CORS_ORIGINS", "http://localhost:4200"))
	corsAllowAll := strings.EqualFold(getEnv("CORS_ALLOW_ALL", "false"), "true")
	if containsWildcard(corsOrigins) {
		corsAllowAll = true
	}

	mailEnabled := strings.EqualFold(getEnv("MAIL_ENABLED", "false"), "true")

	cfg := &Config{
		Env:                  getEnv("APP_ENV", "development"),
		HTTPAddr:             getEnv("HTTP_ADDR", ":8080"),
		DatabaseURL:          getEnv("DATABASE_URL", ""),
		JWTAccessSecret:      getEnv("JWT_ACCESS_SECRET", ""),
		CORSAllowAll:         corsAllowAll,
		CORSOrigins:          corsOrigins,
		CORSAllowCreds:       strings.EqualFold(getEnv("CORS_ALLOW_CREDENTIALS", "true"), "true"),
		WhatsAppURL:          getEnv("WHATSAPP_URL", ""),
		WhatsAppKey:          getEnv("WHATSAPP_KEY", ""),
		WhatsAppDeviceID:     getEnv("WHATSAPP_DEVICE_ID", ""),
		WhatsAppSendTimeout:  mustDuration(getEnv("WHATSAPP_SEND_TIMEOUT", "10s")),
		WebhookAPIKey:        getEnv("WEBHOOK_API_KEY", ""),
		RedisURL:             getEnv("REDIS_URL", ""),
		RedisTLSInsecure:     strings.EqualFold(getEnv("REDIS_TLS_INSECURE", "false"), "true"),
		AsynqQueueName:       getEnv("ASYNQ_QUEUE", "default"),
		AsynqConcurrency:     mustInt(getEnv("ASYNQ_CONCURRENCY", "10")),
		GeminiAPIKey:         getEnv("GEMINI_API_KEY", ""),
		GeminiModel:          getEnv("GEMINI_MODEL", "gemini-2.0-flash"),
		AITimeout:            mustDuration(getEnv("AI_TIMEOUT", "8s")),
		DripTickInterval:     mustDuration(getEnv("DRIP_TICK_INTERVAL", "5m")),
		DripBatchSize:        mustInt(getEnv("DRIP_BATCH_SIZE", "50")),
		DripMaxAttempts:      mustInt(getEnv("DRIP_MAX_ATTEMPTS", "3")),
		DripRetryBackoff:     mustDuration(getEnv("DRIP_RETRY_BACKOFF", "5m")),
		DripDefinitionsPath:  getEnv("DRIP_DEFINITIONS_PATH", "drips.yaml"),
		DefaultDripName:      getEnv("DEFAULT_DRIP_NAME", "post_confirmation"),
		AdminPhone:           getEnv("ADMIN_PHONE", ""),
		MinIOEndpoint:        getEnv("MINIO_ENDPOINT", ""),
		MinIOAccessKey:       getEnv("MINIO_ACCESS_KEY", ""),
		MinIOSecretKey:       getEnv("MINIO_SECRET_KEY", ""),
		MinIOUseSSL:          strings.EqualFold(getEnv("MINIO_USE_SSL", "false"), "true"),
		MinIOMaxFileSize:     mustInt64(getEnv("MINIO_MAX_FILE_SIZE", "20971520")),
		MinioBucketLeadMedia: getEnv("MINIO_BUCKET_LEAD_MEDIA", "lead-media"),
		SMTPHost:             getEnv("SMTP_HOST", ""),
		SMTPPort:             mustInt(getEnv("SMTP_PORT", "587")),
		SMTPUsername:         getEnv("SMTP_USERNAME", ""),
		SMTPPassword:         getEnv("SMTP_PASSWORD", ""),
		MailFromName:         getEnv("MAIL_FROM_NAME", "ExpoConnect"),
		MailFromAddress:      getEnv("MAIL_FROM_ADDRESS", ""),
		OperatorEmail:        getEnv("OPERATOR_EMAIL", ""),
		MailEnabled:          mailEnabled,
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.JWTAccessSecret == "" {
		return nil, fmt.Errorf("JWT_ACCESS_SECRET is required")
	}
	if cfg.WebhookAPIKey == "" {
		return nil, fmt.Errorf("WEBHOOK_API_KEY is required")
	}
	if cfg.MailEnabled && (cfg.SMTPHost == "" || cfg.MailFromAddress == "" || cfg.OperatorEmail == "") {
		return nil, fmt.Errorf("SMTP_HOST, MAIL_FROM_ADDRESS and OPERATOR_EMAIL are required when MAIL_ENABLED is true")
	}
	if cfg.CORSAllowAll && cfg.CORSAllowCreds {
		return nil, fmt.Errorf("CORS_ALLOW_CREDENTIALS cannot be true when CORS_ALLOW_ALL is true")
	}
	if cfg.DripMaxAttempts < 1 {
		return nil, fmt.Errorf("DRIP_MAX_ATTEMPTS must be at least 1")
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
	result, err := strconv.Atoi(value)
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
