// internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

const (
	StoreMongo    = "mongo"
	StorePostgres = "postgres"
	StoreMemory   = "memory"

	devJWTSecret = "dev-only-jwt-secret"
)

type Config struct {
	Port        string `validate:"required,numeric"`
	Environment string `validate:"required"`
	LogLevel    string `validate:"oneof=debug info warn error"`

	StoreDriver   string `validate:"oneof=mongo postgres memory"`
	MongoURI      string `validate:"required_if=StoreDriver mongo"`
	MongoDatabase string `validate:"required_if=StoreDriver mongo"`
	PostgresURL   string `validate:"required_if=StoreDriver postgres"`

	JWTSecret           string
	JWTExpiresInSeconds int `validate:"gte=0"`

	ResetPassURL string `validate:"required,url"`

	SMTPHost     string
	SMTPPort     int `validate:"min=1,max=65535"`
	SMTPUser     string
	SMTPPassword string
	SMTPFrom     string
	SMTPUseTLS   bool

	MailSendTimeout time.Duration `validate:"gt=0"`

	CORSAllowedOrigins []string `validate:"min=1"`
	MaxUploadBytes     int64    `validate:"gt=0"`

	// AuthReturnResetLink puts the reset link in the forgotPassword response.
	// Development only.
	AuthReturnResetLink bool
}

// Load reads an optional .env file, then the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	env := getEnv("ENVIRONMENT", getEnv("NODE_ENV", "development"))

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" && env != "production" {
		jwtSecret = devJWTSecret
	}

	jwtExpires, err := getEnvAsInt("JWT_EXPIRES_IN_SECONDS", 0)
	if err != nil {
		return nil, err
	}
	smtpPort, err := getEnvAsInt("SMTP_PORT", 587)
	if err != nil {
		return nil, err
	}
	smtpTLS, err := getEnvAsBool("SMTP_USE_TLS", false)
	if err != nil {
		return nil, err
	}
	mailTimeout, err := getEnvAsDuration("MAIL_SEND_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, err
	}
	maxUpload, err := getEnvAsInt("MAX_UPLOAD_BYTES", 32<<20)
	if err != nil {
		return nil, err
	}
	returnLink, err := getEnvAsBool("AUTH_RETURN_RESET_LINK", false)
	if err != nil {
		return nil, err
	}

	smtpUser := getEnv("SMTP_USER", os.Getenv("NODEMAILER_USER"))

	cfg := &Config{
		Port:        getEnv("PORT", "3000"),
		Environment: env,
		LogLevel:    strings.ToLower(getEnv("LOG_LEVEL", "info")),

		StoreDriver:   strings.ToLower(getEnv("STORE_DRIVER", StoreMongo)),
		MongoURI:      getEnv("DATABASE_URL", getEnv("MONGO_URI", "mongodb://0.0.0.0:27017/")),
		MongoDatabase: getEnv("MONGO_DATABASE", "postboard"),
		PostgresURL:   postgresURL(),

		JWTSecret:           jwtSecret,
		JWTExpiresInSeconds: jwtExpires,

		ResetPassURL: strings.TrimRight(getEnv("RESET_PASS_URL", "http://localhost:3000"), "/"),

		SMTPHost:     os.Getenv("SMTP_HOST"),
		SMTPPort:     smtpPort,
		SMTPUser:     smtpUser,
		SMTPPassword: getEnv("SMTP_PASSWORD", os.Getenv("NODEMAILER_PASS")),
		SMTPFrom:     getEnv("SMTP_FROM", smtpUser),
		SMTPUseTLS:   smtpTLS,

		MailSendTimeout: mailTimeout,

		CORSAllowedOrigins: splitList(getEnv("CORS_ALLOWED_ORIGINS", "*")),
		MaxUploadBytes:     int64(maxUpload),

		AuthReturnResetLink: returnLink,
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// JWTExpiry is zero when session tokens carry no expiry.
func (c *Config) JWTExpiry() time.Duration {
	return time.Duration(c.JWTExpiresInSeconds) * time.Second
}

func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if c.IsProduction() {
		if c.JWTSecret == "" || c.JWTSecret == devJWTSecret {
			return errors.New("invalid config: JWT_SECRET is required in production")
		}
		if c.StoreDriver == StoreMemory {
			return errors.New("invalid config: memory store is not allowed in production")
		}
		if c.AuthReturnResetLink {
			return errors.New("invalid config: AUTH_RETURN_RESET_LINK is not allowed in production")
		}
	}
	if c.JWTSecret == "" {
		return errors.New("invalid config: JWT_SECRET is empty")
	}
	return nil
}

func postgresURL() string {
	if v := os.Getenv("POSTGRES_URL"); v != "" {
		return v
	}

	host := getEnv("PSQL_HOST", "localhost")
	port := getEnv("PSQL_PORT", "5432")
	user := getEnv("PSQL_USER", "postgres")
	password := getEnv("PSQL_PASSWORD", "postgres")
	dbName := getEnv("PSQL_DB_NAME", "postboard")

	u := &url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(user, password),
		Host:   host + ":" + port,
		Path:   dbName,
	}
	q := u.Query()
	q.Set("sslmode", getEnv("PSQL_SSLMODE", "disable"))
	u.RawQuery = q.Encode()
	return u.String()
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) (int, error) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func getEnvAsBool(key string, defaultValue bool) (bool, error) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return defaultValue, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("invalid %s: %w", key, err)
	}
	return b, nil
}

func getEnvAsDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
