package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for the API.
type Config struct {
	App        AppConfig
	Postgres   PostgresConfig
	Redis      RedisConfig
	Logger     LoggerConfig
	Auth       AuthConfig
	Session    SessionConfig
	Invitation InvitationConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
	AllowedOrigins        []string
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	RunMigrations  bool
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// AuthConfig defines authentication parameters.
type AuthConfig struct {
	JWTSecret             string
	AccessTokenTTLMinutes int
	BcryptCost            int
	MinPasswordLength     int
}

// SessionConfig controls persisted session snapshots.
type SessionConfig struct {
	KeyPrefix  string
	TTLMinutes int
}

// InvitationConfig controls invitation links and the mail relay.
type InvitationConfig struct {
	LinkOrigin         string
	MailerURL          string
	MailerTimeoutSec   int
	ActivationAttempts int
	ActivationRetryMS  int
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "tecnochamados"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
			AllowedOrigins:        getEnvAsList("APP_ALLOWED_ORIGINS", []string{"http://localhost:5173"}),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10)),
			MinConns:       int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2)),
			RunMigrations:  getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true),
			ConnMaxIdleSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30)),
			ConnMaxLifeSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300)),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Auth: AuthConfig{
			JWTSecret:             getEnv("AUTH_JWT_SECRET", "dev-secret"),
			AccessTokenTTLMinutes: getEnvAsInt("AUTH_ACCESS_TOKEN_TTL_MINUTES", 720),
			BcryptCost:            getEnvAsInt("AUTH_BCRYPT_COST", 12),
			MinPasswordLength:     getEnvAsInt("AUTH_MIN_PASSWORD_LENGTH", 6),
		},
		Session: SessionConfig{
			KeyPrefix:  getEnv("SESSION_KEY_PREFIX", "tecnochamados:session:"),
			TTLMinutes: getEnvAsInt("SESSION_TTL_MINUTES", 0),
		},
		Invitation: InvitationConfig{
			LinkOrigin:         getEnv("INVITE_LINK_ORIGIN", "http://localhost:5173"),
			MailerURL:          getEnv("MAILER_URL", "http://localhost:3001/api/send-invite-gmail"),
			MailerTimeoutSec:   getEnvAsInt("MAILER_TIMEOUT_SECONDS", 15),
			ActivationAttempts: getEnvAsInt("ACTIVATION_BIND_ATTEMPTS", 3),
			ActivationRetryMS:  getEnvAsInt("ACTIVATION_BIND_RETRY_MS", 200),
		},
	}

	return cfg, nil
}

// MailerConfig configures the invitation mail relay.
type MailerConfig struct {
	GmailUser        string
	GmailAppPassword string
	SMTPHost         string
	SMTPPort         int
	Port             string
	CORSOrigin       string
	SenderName       string
	Logger           LoggerConfig
}

// LoadMailer reads the relay configuration from the environment.
func LoadMailer() (*MailerConfig, error) {
	_ = godotenv.Load()

	cfg := &MailerConfig{
		GmailUser:        os.Getenv("GMAIL_USER"),
		GmailAppPassword: os.Getenv("GMAIL_APP_PASSWORD"),
		SMTPHost:         getEnv("SMTP_HOST", "smtp.gmail.com"),
		SMTPPort:         getEnvAsInt("SMTP_PORT", 587),
		Port:             getEnv("PORT", "3001"),
		CORSOrigin:       getEnv("CORS_ORIGIN", "http://localhost:5173"),
		SenderName:       getEnv("MAIL_SENDER_NAME", "TecnoChamados"),
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
	}
	if cfg.GmailUser == "" || cfg.GmailAppPassword == "" {
		return nil, fmt.Errorf("GMAIL_USER and GMAIL_APP_PASSWORD are required")
	}
	return cfg, nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// TTL returns the snapshot lifetime; zero means no expiry.
func (s SessionConfig) TTL() time.Duration {
	if s.TTLMinutes <= 0 {
		return 0
	}
	return time.Duration(s.TTLMinutes) * time.Minute
}

// MailerTimeout bounds a single call to the relay.
func (i InvitationConfig) MailerTimeout() time.Duration {
	if i.MailerTimeoutSec <= 0 {
		return 15 * time.Second
	}
	return time.Duration(i.MailerTimeoutSec) * time.Second
}

// ActivationRetryInterval is the pause between profile binding attempts.
func (i InvitationConfig) ActivationRetryInterval() time.Duration {
	if i.ActivationRetryMS < 0 {
		return 0
	}
	return time.Duration(i.ActivationRetryMS) * time.Millisecond
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsList(key string, fallback []string) []string {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	var items []string
	for _, part := range strings.Split(val, ",") {
		if part = strings.TrimSpace(part); part != "" {
			items = append(items, part)
		}
	}
	if len(items) == 0 {
		return fallback
	}
	return items
}
