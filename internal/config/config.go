package config

import (
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator"
	_ "github.com/joho/godotenv/autoload"
	"github.com/knadh/koanf"
	"github.com/knadh/koanf/providers/env"
)

type Config struct {
	Primary Primary       `koanf:"primary"`
	Gateway GatewayConfig `koanf:"gateway"`
	Polling PollingConfig `koanf:"polling"`
	Breaker BreakerConfig `koanf:"breaker"`
	Logger  LoggerConfig  `koanf:"logger"`
	Sandbox SandboxConfig `koanf:"sandbox"`
	Demo    DemoConfig    `koanf:"demo"`
}

type Primary struct {
	Env string `koanf:"env" validate:"required"`
}

type GatewayConfig struct {
	ConnTimeout time.Duration `koanf:"conn_timeout" validate:"required"`
}

// PollingConfig bounds the redirect resolver's status polling. The budget is
// MaxAttempts polls at Interval; transport failures additionally count
// against TransportRetries before the poll loop gives up.
type PollingConfig struct {
	Interval         time.Duration `koanf:"interval" validate:"required"`
	MaxAttempts      int           `koanf:"max_attempts" validate:"required"`
	TransportRetries int           `koanf:"transport_retries"`
}

type BreakerConfig struct {
	TripThreshold uint32        `koanf:"trip_threshold"`
	OpenTimeout   time.Duration `koanf:"open_timeout"`
}

type LoggerConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// SandboxConfig sizes the cmd/sandbox HTTP server. BaseURL is the address
// clients will reach the sandbox at; issued client tokens embed URLs under it.
type SandboxConfig struct {
	Port         string        `koanf:"port" validate:"required"`
	BaseURL      string        `koanf:"base_url" validate:"required"`
	ReadTimeout  time.Duration `koanf:"read_timeout"`
	WriteTimeout time.Duration `koanf:"write_timeout"`
	IdleTimeout  time.Duration `koanf:"idle_timeout"`
}

// DemoConfig drives the cmd/checkout scripted run.
type DemoConfig struct {
	ClientTokenURL string `koanf:"client_token_url"`
	CardNumber     string `koanf:"card_number"`
	CVV            string `koanf:"cvv"`
	ExpiryMonth    int    `koanf:"expiry_month"`
	ExpiryYear     int    `koanf:"expiry_year"`
	Cardholder     string `koanf:"cardholder"`
}

func LoadConfig() (*Config, error) {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelError,
	}))
	k := koanf.New(".")

	err := k.Load(env.Provider("CHECKOUT_", ".", func(s string) string {
		return strings.ReplaceAll(
			strings.ToLower(strings.TrimPrefix(s, "CHECKOUT_")),
			"__",
			".",
		)
	}), nil)
	if err != nil {
		logger.Error("failed to load environment variables", "error", err)
		return nil, err
	}

	mainConfig := defaultConfig()

	err = k.Unmarshal("", mainConfig)
	if err != nil {
		logger.Error("could not unmarshal main config", "error", err)
		return nil, err
	}

	validate := validator.New()

	err = validate.Struct(mainConfig)
	if err != nil {
		logger.Error("config validation failed", "error", err)
		return nil, err
	}

	return mainConfig, nil
}

func defaultConfig() *Config {
	return &Config{
		Primary: Primary{Env: "sandbox"},
		Gateway: GatewayConfig{ConnTimeout: 30 * time.Second},
		Polling: PollingConfig{
			Interval:         time.Second,
			MaxAttempts:      90,
			TransportRetries: 3,
		},
		Breaker: BreakerConfig{
			TripThreshold: 5,
			OpenTimeout:   30 * time.Second,
		},
		Logger: LoggerConfig{Level: "info", Format: "text"},
		Sandbox: SandboxConfig{
			Port:         "9480",
			BaseURL:      "http://localhost:9480",
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		Demo: DemoConfig{
			ClientTokenURL: "http://localhost:9480/client-session",
			CardNumber:     "4111111111111111",
			CVV:            "123",
			ExpiryMonth:    12,
			ExpiryYear:     time.Now().Year() + 2,
			Cardholder:     "J Appleseed",
		},
	}
}

// NewLogger builds the process logger from the configured level and format.
func (c LoggerConfig) NewLogger() *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(c.Level)}

	var handler slog.Handler
	switch strings.ToLower(c.Format) {
	case "json":
		handler = slog.NewJSONHandler(os.Stderr, opts)
	default:
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	return slog.New(handler)
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
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
