package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

const devJWTSecret = "dev-secret-change-in-production"

var ErrDevSecretInProduction = errors.New("JWT_SECRET must be set in production environment")

type Config struct {
	Port     string `env:"PORT" envDefault:"8080"`
	Env      string `env:"ENV" envDefault:"development"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	DatabaseDriver string `env:"DATABASE_DRIVER" envDefault:"mysql"`
	DatabaseDSN    string `env:"DATABASE_DSN" envDefault:"root:password@tcp(127.0.0.1:3306)/faithfast?parseTime=true"`

	JWTSecret          string        `env:"JWT_SECRET" envDefault:"dev-secret-change-in-production"`
	AccessTokenSecret  string        `env:"ACCESS_TOKEN_SECRET"`
	RefreshTokenSecret string        `env:"REFRESH_TOKEN_SECRET"`
	AccessTokenTTL     time.Duration `env:"ACCESS_TOKEN_TTL" envDefault:"5h"`
	RefreshTokenTTL    time.Duration `env:"REFRESH_TOKEN_TTL" envDefault:"168h"`

	FrontendURL  string `env:"FRONTEND_URL" envDefault:"http://localhost:5173"`
	PasswordHash string `env:"PASSWORD_HASH" envDefault:"bcrypt"`
	BcryptCost   int    `env:"BCRYPT_COST" envDefault:"10"`

	Cookie CookieConfig `envPrefix:"COOKIE_"`
	SMTP   SMTPConfig   `envPrefix:"SMTP_"`

	RateLimitRPS    float64       `env:"RATE_LIMIT_RPS" envDefault:"5"`
	RateLimitBurst  int           `env:"RATE_LIMIT_BURST" envDefault:"10"`
	TrustProxy      bool          `env:"TRUST_PROXY_HEADERS" envDefault:"false"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

// CookieConfig controls the attributes of the session cookies.
type CookieConfig struct {
	Secure   bool   `env:"SECURE" envDefault:"true"`
	SameSite string `env:"SAMESITE" envDefault:"none"`
	Domain   string `env:"DOMAIN"`
}

type SMTPConfig struct {
	Host     string        `env:"HOST"`
	Port     int           `env:"PORT" envDefault:"587"`
	Username string        `env:"USERNAME"`
	Password string        `env:"PASSWORD"`
	From     string        `env:"FROM" envDefault:"Faith & Fast <no-reply@faithfast.shop>"`
	Timeout  time.Duration `env:"TIMEOUT" envDefault:"10s"`
}

// Load reads the configuration from the environment and validates it.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	if cfg.Env == "production" && cfg.JWTSecret == devJWTSecret {
		return Config{}, ErrDevSecretInProduction
	}
	if cfg.AccessTokenSecret == "" {
		cfg.AccessTokenSecret = cfg.JWTSecret
	}
	if cfg.RefreshTokenSecret == "" {
		cfg.RefreshTokenSecret = cfg.JWTSecret
	}

	switch cfg.DatabaseDriver {
	case "mysql", "sqlite":
	default:
		return Config{}, fmt.Errorf("DATABASE_DRIVER: unsupported driver %q", cfg.DatabaseDriver)
	}
	switch cfg.PasswordHash {
	case "bcrypt", "argon2id":
	default:
		return Config{}, fmt.Errorf("PASSWORD_HASH: unsupported algorithm %q", cfg.PasswordHash)
	}
	if cfg.AccessTokenTTL <= 0 || cfg.RefreshTokenTTL <= 0 {
		return Config{}, errors.New("token TTLs must be positive")
	}
	if _, err := cfg.Cookie.SameSiteMode(); err != nil {
		return Config{}, err
	}
	if strings.EqualFold(cfg.Cookie.SameSite, "none") && !cfg.Cookie.Secure {
		slog.Warn("COOKIE_SAMESITE=none requires secure cookies, falling back to lax")
		cfg.Cookie.SameSite = "lax"
	}

	return cfg, nil
}

// SameSiteMode converts the configured SameSite name to its net/http value.
func (c CookieConfig) SameSiteMode() (http.SameSite, error) {
	switch strings.ToLower(c.SameSite) {
	case "none":
		return http.SameSiteNoneMode, nil
	case "lax", "":
		return http.SameSiteLaxMode, nil
	case "strict":
		return http.SameSiteStrictMode, nil
	default:
		return 0, fmt.Errorf("COOKIE_SAMESITE: unsupported value %q", c.SameSite)
	}
}

// SlogLevel maps LOG_LEVEL to a slog level, defaulting to info.
func (c Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
