package app

import (
	"os"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigyaml"
	"github.com/go-faster/errors"
)

// Config holds the complete application configuration, loadable from
// environment variables (SHOP_ prefix), flags, or YAML config files.
type Config struct {
	Addr        string `default:"0.0.0.0:8080" usage:"API server listen address"`
	DatabaseURL string `usage:"PostgreSQL connection URL (SHOP_DATABASE_URL or DATABASE_URL)" flag:"database-url"`

	TokenSecret     string `usage:"HMAC secret for auth tokens" flag:"token-secret"`
	DefaultPassword string `usage:"Initial password for accounts created on first order" flag:"default-password"`

	Invoice  InvoiceConfig
	Mail     MailConfig
	Telegram TelegramConfig

	FollowUpTimeout time.Duration `default:"15s" usage:"Budget for post-commit follow-up steps" flag:"followup-timeout"`
	RateLimit       RateLimitConfig
	CORS            CORSConfig
	Graceful        GracefulConfig
}

// InvoiceConfig points at the external invoice-document service.
type InvoiceConfig struct {
	URL     string        `usage:"Invoice service endpoint" flag:"invoice-url"`
	Secret  string        `usage:"HMAC secret for invoice service tokens" flag:"invoice-secret"`
	Timeout time.Duration `default:"10s" usage:"Invoice call timeout"`
}

// MailConfig points at the mail provider's HTTP API.
type MailConfig struct {
	URL     string        `usage:"Mail API endpoint" flag:"mail-url"`
	Timeout time.Duration `default:"10s" usage:"Mail send timeout"`
}

// TelegramConfig configures the operations chat alerts.
type TelegramConfig struct {
	BotToken string        `usage:"Telegram bot token" flag:"telegram-bot-token"`
	ChatID   string        `usage:"Telegram chat id for ops alerts" flag:"telegram-chat-id"`
	Timeout  time.Duration `default:"10s" usage:"Alert send timeout"`
}

// RateLimitConfig controls the per-client rate limiter.
type RateLimitConfig struct {
	Max    int           `default:"100" usage:"Max requests per window"`
	Window time.Duration `default:"1m"  usage:"Rate limit window duration"`
}

// CORSConfig controls Cross-Origin Resource Sharing headers.
type CORSConfig struct {
	Origins []string `default:"*" usage:"Allowed CORS origins"`
}

// GracefulConfig controls graceful shutdown timing.
type GracefulConfig struct {
	ReadinessDelay  time.Duration `default:"3s"  usage:"Delay after readiness=false before shutdown" flag:"readiness-delay"`
	ShutdownTimeout time.Duration `default:"15s" usage:"Maximum shutdown duration" flag:"shutdown-timeout"`
}

// LoadConfig loads configuration from environment variables and YAML files.
func LoadConfig() (*Config, error) {
	var cfg Config
	loader := aconfig.LoaderFor(&cfg, aconfig.Config{
		EnvPrefix: "SHOP",
		Files:     []string{"config.yaml", "/etc/shop/config.yaml"},
		FileDecoders: map[string]aconfig.FileDecoder{
			".yaml": aconfigyaml.New(),
		},
	})
	if err := loader.Load(); err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	cfg.applyPlatformDefaults()

	if cfg.DatabaseURL == "" {
		return nil, errors.New("database URL is required: set SHOP_DATABASE_URL or DATABASE_URL")
	}
	if cfg.TokenSecret == "" {
		return nil, errors.New("token secret is required: set SHOP_TOKEN_SECRET")
	}
	if cfg.DefaultPassword == "" {
		return nil, errors.New("default password is required: set SHOP_DEFAULT_PASSWORD")
	}

	return &cfg, nil
}

// applyPlatformDefaults maps platform-provided environment variables that use
// standard names like DATABASE_URL and PORT onto the SHOP_-prefixed config.
func (c *Config) applyPlatformDefaults() {
	if c.DatabaseURL == "" {
		if v := os.Getenv("DATABASE_URL"); v != "" {
			c.DatabaseURL = v
		}
	}
	if port := os.Getenv("PORT"); port != "" && c.Addr == "0.0.0.0:8080" {
		c.Addr = "0.0.0.0:" + port
	}
}
