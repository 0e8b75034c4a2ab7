package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	Port string `envconfig:"PORT" default:"8080"`
	Env  string `envconfig:"ENV" default:"production"`

	// Personnel accounts used by the login flow
	Database DatabaseConfig

	// Redis backs login throttling and, optionally, calendar events
	RedisURL string `envconfig:"REDIS_URL" required:"true"`

	Session SessionConfig
	Gate    GateConfig

	CORS      CORSConfig
	RateLimit RateLimitConfig

	// Collaborators
	OpenAI OpenAIConfig
	Graph  GraphConfig
	Events EventsConfig
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	Host     string `envconfig:"DB_HOST" required:"true"`
	Port     int    `envconfig:"DB_PORT" default:"5432"`
	User     string `envconfig:"DB_USER" required:"true"`
	Password string `envconfig:"DB_PASSWORD" required:"true"`
	Name     string `envconfig:"DB_NAME" required:"true"`
	SSLMode  string `envconfig:"DB_SSL_MODE" default:"require"`

	MaxOpenConns    int           `envconfig:"DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"DB_CONN_MAX_LIFETIME" default:"5m"`
}

// ConnectionString returns the PostgreSQL connection string
func (d DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode,
	)
}

// SessionConfig holds token signing and cookie settings
type SessionConfig struct {
	Secret     string `envconfig:"JWT_SECRET" required:"true"`
	CookieName string `envconfig:"SESSION_COOKIE_NAME" default:"auth_token"`
}

// GateConfig lists which page paths need a session cookie
type GateConfig struct {
	ProtectedPaths []string `envconfig:"GATE_PROTECTED_PATHS" default:"/datalab"`
	PublicPaths    []string `envconfig:"GATE_PUBLIC_PATHS" default:"/api,/static,/_next,/favicon.ico"`
	LandingPath    string   `envconfig:"GATE_LANDING_PATH" default:"/"`
}

// CORSConfig holds CORS configuration
type CORSConfig struct {
	AllowedOrigins string `envconfig:"CORS_ALLOWED_ORIGINS" default:"http://localhost:3000"`
}

// RateLimitConfig holds login throttling configuration
type RateLimitConfig struct {
	Window          time.Duration `envconfig:"RATE_LIMIT_WINDOW" default:"10m"`
	MaxAttempts     int           `envconfig:"RATE_LIMIT_MAX_ATTEMPTS" default:"5"`
	LockoutDuration time.Duration `envconfig:"RATE_LIMIT_LOCKOUT_DURATION" default:"15m"`
}

// OpenAIConfig holds the assistant settings. An empty key disables the assistant.
type OpenAIConfig struct {
	APIKey             string `envconfig:"OPENAI_API_KEY"`
	BaseURL            string `envconfig:"OPENAI_BASE_URL" default:"https://api.openai.com/v1/"`
	Model              string `envconfig:"OPENAI_MODEL" default:"gpt-4o-mini"`
	TranscriptionModel string `envconfig:"OPENAI_TRANSCRIPTION_MODEL" default:"whisper-1"`
}

// Enabled reports whether the assistant routes should be served
func (o OpenAIConfig) Enabled() bool {
	return strings.TrimSpace(o.APIKey) != ""
}

// GraphConfig holds Microsoft Graph mail settings
type GraphConfig struct {
	TenantID     string `envconfig:"GRAPH_TENANT_ID"`
	ClientID     string `envconfig:"GRAPH_CLIENT_ID"`
	ClientSecret string `envconfig:"GRAPH_CLIENT_SECRET"`
	Sender       string `envconfig:"GRAPH_SENDER"`
	BaseURL      string `envconfig:"GRAPH_BASE_URL" default:"https://graph.microsoft.com/v1.0"`
}

// Enabled reports whether every Graph credential is present
func (g GraphConfig) Enabled() bool {
	return g.TenantID != "" && g.ClientID != "" && g.ClientSecret != "" && g.Sender != ""
}

// EventsConfig selects the calendar events store
type EventsConfig struct {
	Store string `envconfig:"EVENTS_STORE" default:"memory"`
}

// ErrMissingSecret is returned when JWT_SECRET is blank
var ErrMissingSecret = errors.New("JWT_SECRET is required")

// Load reads an optional .env file and then the environment
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects configurations the service must not start with
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Session.Secret) == "" {
		return ErrMissingSecret
	}

	if strings.TrimSpace(c.Session.CookieName) == "" {
		return fmt.Errorf("SESSION_COOKIE_NAME cannot be empty")
	}

	if len(c.Gate.ProtectedPaths) == 0 {
		return fmt.Errorf("GATE_PROTECTED_PATHS cannot be empty")
	}

	switch c.Events.Store {
	case "memory", "redis":
	default:
		return fmt.Errorf("EVENTS_STORE must be memory or redis, got %q", c.Events.Store)
	}

	if c.RateLimit.MaxAttempts <= 0 {
		return fmt.Errorf("RATE_LIMIT_MAX_ATTEMPTS must be positive")
	}

	return nil
}

// IsDevelopment returns true if running in development environment
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// IsProduction returns true if running in production environment
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// SecureCookies reports whether cookies must carry the Secure attribute
func (c *Config) SecureCookies() bool {
	return !c.IsDevelopment()
}
