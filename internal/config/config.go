package config

import (
	"errors"
	"fmt"
	"net/url"
	"time"

	"golang.org/x/crypto/bcrypt"

	pkgconfig "github.com/utafrali/TranslateGo/pkg/config"
	"github.com/utafrali/TranslateGo/pkg/database"
)

const defaultJWTSecret = "change-this-to-a-secure-secret"

// Config holds all configuration for the translate service.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
	Version     string `env:"SERVICE_VERSION" envDefault:"dev"`

	// HTTP server
	HTTPPort          int           `env:"HTTP_PORT" envDefault:"8080"`
	ShutdownTimeout   time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"15s"`
	PprofAllowedCIDRs []string      `env:"PPROF_ALLOWED_CIDRS" envSeparator:","`

	// PostgreSQL
	PostgresHost       string        `env:"POSTGRES_HOST" envDefault:"localhost"`
	PostgresPort       int           `env:"POSTGRES_PORT" envDefault:"5432"`
	PostgresUser       string        `env:"POSTGRES_USER" envDefault:"translate"`
	PostgresPass       string        `env:"POSTGRES_PASSWORD" envDefault:"translate_secret"`
	PostgresDB         string        `env:"POSTGRES_DB" envDefault:"translate_db"`
	PostgresSSL        string        `env:"POSTGRES_SSL_MODE" envDefault:"disable"`
	DBMaxConns         int32         `env:"DB_MAX_CONNS" envDefault:"20"`
	DBMinConns         int32         `env:"DB_MIN_CONNS" envDefault:"2"`
	DBMaxConnLifetime  time.Duration `env:"DB_MAX_CONN_LIFETIME" envDefault:"1h"`
	DBMaxConnIdleTime  time.Duration `env:"DB_MAX_CONN_IDLE_TIME" envDefault:"30m"`
	SlowQueryThreshold time.Duration `env:"SLOW_QUERY_THRESHOLD" envDefault:"200ms"`

	// Redis
	RedisHost     string `env:"REDIS_HOST" envDefault:"localhost"`
	RedisPort     int    `env:"REDIS_PORT" envDefault:"6379"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`

	// Kafka
	KafkaBrokers []string `env:"KAFKA_BROKERS" envDefault:"localhost:9092" envSeparator:","`
	KafkaGroupID string   `env:"KAFKA_GROUP_ID" envDefault:"translate-worker"`

	// JWT
	JWTSecret      string        `env:"JWT_SECRET" envDefault:"change-this-to-a-secure-secret"`
	JWTTokenExpiry time.Duration `env:"JWT_TOKEN_EXPIRY" envDefault:"10h"`

	// Rate limiting of /auth routes; AUTH_RATE_LIMIT_RPS=0 disables it.
	AuthRateLimitRPS   float64 `env:"AUTH_RATE_LIMIT_RPS" envDefault:"5"`
	AuthRateLimitBurst int     `env:"AUTH_RATE_LIMIT_BURST" envDefault:"10"`
	TrustProxyHeaders  bool    `env:"TRUST_PROXY_HEADERS" envDefault:"false"`

	// Passwords
	BcryptCost int `env:"BCRYPT_COST" envDefault:"12"`

	// OAuth
	GoogleClientID        string        `env:"GOOGLE_CLIENT_ID"`
	GoogleClientSecret    string        `env:"GOOGLE_CLIENT_SECRET"`
	GoogleRedirectURL     string        `env:"GOOGLE_REDIRECT_URL" envDefault:"http://localhost:8080/api/v1/auth/oauth/google/callback"`
	GoogleIssuerURL       string        `env:"GOOGLE_ISSUER_URL" envDefault:"https://accounts.google.com"`
	GitHubClientID        string        `env:"GITHUB_CLIENT_ID"`
	GitHubClientSecret    string        `env:"GITHUB_CLIENT_SECRET"`
	GitHubRedirectURL     string        `env:"GITHUB_REDIRECT_URL" envDefault:"http://localhost:8080/api/v1/auth/oauth/github/callback"`
	OAuthStateTTL         time.Duration `env:"OAUTH_STATE_TTL" envDefault:"5m"`
	OAuthFrontendRedirect string        `env:"OAUTH_FRONTEND_REDIRECT_URL" envDefault:"http://localhost:3000/oauth2/redirect"`

	// Translation provider
	TranslateAPIURL     string        `env:"TRANSLATE_API_URL" envDefault:"https://translation.googleapis.com/language/translate/v2"`
	TranslateAPIKey     string        `env:"TRANSLATE_API_KEY" envDefault:"dummy-key"`
	TranslateAPITimeout time.Duration `env:"TRANSLATE_API_TIMEOUT" envDefault:"15s"`
	TranslateMockDelay  time.Duration `env:"TRANSLATE_MOCK_DELAY" envDefault:"1s"`

	// CORS
	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envDefault:"*" envSeparator:","`

	// Tracing
	OTelEnabled    bool    `env:"OTEL_ENABLED" envDefault:"false"`
	OTelEndpoint   string  `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:"localhost:4318"`
	OTelSampleRate float64 `env:"OTEL_SAMPLE_RATE" envDefault:"1.0"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.Load(cfg); err != nil {
		return nil, fmt.Errorf("load translate config: %w", err)
	}
	return cfg, nil
}

// Validate is called by pkgconfig.Load after parsing.
func (c *Config) Validate() error {
	var errs []error

	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		errs = append(errs, fmt.Errorf("invalid HTTP port: %d", c.HTTPPort))
	}
	if c.JWTTokenExpiry <= 0 {
		errs = append(errs, fmt.Errorf("JWT_TOKEN_EXPIRY must be positive, got %s", c.JWTTokenExpiry))
	}
	if c.BcryptCost < bcrypt.MinCost || c.BcryptCost > bcrypt.MaxCost {
		errs = append(errs, fmt.Errorf("BCRYPT_COST must be between %d and %d, got %d", bcrypt.MinCost, bcrypt.MaxCost, c.BcryptCost))
	}
	if c.AuthRateLimitRPS < 0 || (c.AuthRateLimitRPS > 0 && c.AuthRateLimitBurst < 1) {
		errs = append(errs, fmt.Errorf("AUTH_RATE_LIMIT_RPS must be >= 0 and AUTH_RATE_LIMIT_BURST >= 1, got %g and %d",
			c.AuthRateLimitRPS, c.AuthRateLimitBurst))
	}
	if _, err := url.ParseRequestURI(c.OAuthFrontendRedirect); err != nil {
		errs = append(errs, fmt.Errorf("OAUTH_FRONTEND_REDIRECT_URL is not a valid URL: %w", err))
	}

	// In non-development environments, require an explicitly set, strong JWT secret.
	if !c.IsDevelopment() {
		if c.JWTSecret == defaultJWTSecret {
			errs = append(errs, fmt.Errorf("JWT_SECRET must be explicitly set via environment variable in %q mode", c.Environment))
		} else if len(c.JWTSecret) < 32 {
			errs = append(errs, fmt.Errorf("JWT_SECRET must be at least 32 characters long, got %d", len(c.JWTSecret)))
		}
	}

	return errors.Join(errs...)
}

// IsDevelopment reports whether ENVIRONMENT is development.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// PostgresConfig returns the connection settings for database.NewPostgresPool.
func (c *Config) PostgresConfig() *database.PostgresConfig {
	return &database.PostgresConfig{
		Host:            c.PostgresHost,
		Port:            c.PostgresPort,
		User:            c.PostgresUser,
		Password:        c.PostgresPass,
		DBName:          c.PostgresDB,
		SSLMode:         c.PostgresSSL,
		MaxConns:        c.DBMaxConns,
		MinConns:        c.DBMinConns,
		MaxConnLifetime: c.DBMaxConnLifetime,
		MaxConnIdleTime: c.DBMaxConnIdleTime,
	}
}

// RedisConfig returns the connection settings for database.NewRedisClient.
func (c *Config) RedisConfig() database.RedisConfig {
	return database.RedisConfig{
		Host:     c.RedisHost,
		Port:     c.RedisPort,
		Password: c.RedisPassword,
		DB:       c.RedisDB,
	}
}
