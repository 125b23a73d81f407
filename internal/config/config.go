package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"leaddesk/internal/validation"
)

// Audit store backends.
const (
	AuditStoreFile     = "file"
	AuditStorePostgres = "postgres"
	AuditStoreRedis    = "redis"
	AuditStoreMongo    = "mongo"
	AuditStoreMemory   = "memory"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	// Environment
	Env string // "development", "production", etc.

	// Server
	ServerAddr string
	BaseURL    string

	// Database
	DatabaseURL string
	SeedDevData bool

	// TLS
	TLSEnabled  bool
	TLSCertFile string
	TLSKeyFile  string
	TLSCAFile   string // CA for verifying client certs (mTLS)

	// CORS
	CORSOrigins string // Comma-separated allowed origins, e.g. "https://example.com,https://app.example.com"

	// Operator identity header set by the fronting gateway
	OperatorHeader string

	// Rule table
	RulesFile           string        // empty = embedded table
	RulesReloadInterval time.Duration // 0 = no reload

	// Audit log
	AuditStore       string // file, postgres, redis, mongo or memory
	AuditFile        string
	AuditCap         int
	AuditMinInterval time.Duration
	AuditPenalty     int

	// Redis (audit store and rate limiter storage)
	RedisURL string

	// MongoDB (audit store)
	MongoURI string

	// Rate limiting, requests per minute per IP
	RateLimitMax int

	// SMTP
	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	SMTPFrom     string
	SMTPFromName string
	SMTPTLS      string // "none", "tls" or "starttls"

	// Supervisors receive high-frequency audit alerts
	SupervisorEmails []string
}

// Load reads configuration from a .env file (if present) and environment
// variables with sensible defaults.
func Load() *Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("Warning: failed to read .env file: %v", err)
	}

	return &Config{
		Env:         getEnv("ENV", "development"),
		ServerAddr:  getEnv("SERVER_ADDR", ":3000"),
		BaseURL:     getEnv("BASE_URL", "http://localhost:3000"),
		DatabaseURL: getEnv("DATABASE_URL", "postgres://localhost:5432/leaddesk?sslmode=disable"),
		SeedDevData: getEnv("SEED_DEV_DATA", "") != "",
		TLSEnabled:  getEnv("TLS_ENABLED", "") != "",
		TLSCertFile: getEnv("TLS_CERT_FILE", ""),
		TLSKeyFile:  getEnv("TLS_KEY_FILE", ""),
		TLSCAFile:   getEnv("TLS_CA_FILE", ""),
		CORSOrigins: getEnv("CORS_ORIGINS", ""),

		OperatorHeader:      getEnv("OPERATOR_HEADER", "X-Operator"),
		RulesFile:           getEnv("RULES_FILE", ""),
		RulesReloadInterval: getEnvDuration("RULES_RELOAD_INTERVAL", 0),

		AuditStore:       strings.ToLower(getEnv("AUDIT_STORE", AuditStoreFile)),
		AuditFile:        getEnv("AUDIT_FILE", "op_logs.json"),
		AuditCap:         getEnvInt("AUDIT_CAP", 2000),
		AuditMinInterval: getEnvDuration("AUDIT_MIN_INTERVAL", time.Second),
		AuditPenalty:     getEnvInt("AUDIT_PENALTY", -50),

		RedisURL: getEnv("REDIS_URL", ""),
		MongoURI: getEnv("MONGO_URI", ""),

		RateLimitMax: getEnvInt("RATE_LIMIT_MAX", 100),

		SMTPHost:     getEnv("SMTP_HOST", ""),
		SMTPPort:     getEnvInt("SMTP_PORT", 587),
		SMTPUsername: getEnv("SMTP_USERNAME", ""),
		SMTPPassword: getEnv("SMTP_PASSWORD", ""),
		SMTPFrom:     getEnv("SMTP_FROM", ""),
		SMTPFromName: getEnv("SMTP_FROM_NAME", "Lead Desk"),
		SMTPTLS:      strings.ToLower(getEnv("SMTP_TLS", "starttls")),

		SupervisorEmails: splitList(getEnv("SUPERVISOR_EMAILS", "")),
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		log.Printf("Warning: invalid %s=%q, using %d", key, value, fallback)
		return fallback
	}
	return n
}

// getEnvDuration accepts Go durations ("1500ms") or whole seconds ("2").
func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if n, err := strconv.Atoi(value); err == nil {
		return time.Duration(n) * time.Second
	}
	log.Printf("Warning: invalid %s=%q, using %s", key, value, fallback)
	return fallback
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

// Validate checks settings that would otherwise fail later at startup.
func (c *Config) Validate() error {
	if ok, msg := validation.ValidateURL(c.BaseURL); !ok {
		return fmt.Errorf("BASE_URL: %s", msg)
	}

	switch c.AuditStore {
	case AuditStoreFile, AuditStorePostgres, AuditStoreMemory:
	case AuditStoreRedis:
		if c.RedisURL == "" {
			return fmt.Errorf("AUDIT_STORE=redis requires REDIS_URL")
		}
	case AuditStoreMongo:
		if c.MongoURI == "" {
			return fmt.Errorf("AUDIT_STORE=mongo requires MONGO_URI")
		}
	default:
		return fmt.Errorf("unknown AUDIT_STORE %q", c.AuditStore)
	}

	if c.AuditCap <= 0 {
		return fmt.Errorf("AUDIT_CAP must be positive, got %d", c.AuditCap)
	}
	if c.AuditMinInterval <= 0 {
		return fmt.Errorf("AUDIT_MIN_INTERVAL must be positive, got %s", c.AuditMinInterval)
	}
	if c.RulesReloadInterval < 0 {
		return fmt.Errorf("RULES_RELOAD_INTERVAL must not be negative")
	}

	switch c.SMTPTLS {
	case "none", "tls", "starttls":
	default:
		return fmt.Errorf("unknown SMTP_TLS %q", c.SMTPTLS)
	}
	return nil
}

// IsDev returns true if the environment is set to development.
func (c *Config) IsDev() bool {
	return c.Env == "development" || c.Env == "dev"
}

// IsMTLSEnabled returns true if mTLS is configured with a CA file.
func (c *Config) IsMTLSEnabled() bool {
	return c.TLSEnabled && c.TLSCAFile != ""
}

// IsEmailEnabled returns true if SMTP is configured.
func (c *Config) IsEmailEnabled() bool {
	return c.SMTPHost != "" && c.SMTPFrom != ""
}
