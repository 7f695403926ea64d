package internal

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Server        ServerConfig        `mapstructure:"http_server"`
	Database      DatabaseConfig      `mapstructure:"database"`
	Security      SecurityConfig      `mapstructure:"security" validate:"required"`
	Observability ObservabilityConfig `mapstructure:"observability"`
	Gateway       GatewayConfig       `mapstructure:"gateway"`
	Payments      PaymentsConfig      `mapstructure:"payments"`
	Withdrawals   WithdrawalsConfig   `mapstructure:"withdrawals"`
	Events        EventsConfig        `mapstructure:"events"`
}

type ServerConfig struct {
	Port              int           `mapstructure:"port"`
	BaseURL           string        `mapstructure:"base_url"`
	AllowedOrigins    string        `mapstructure:"allowed_origins"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout"`
	ReadTimeout       time.Duration `mapstructure:"read_timeout"`
	IdleTimeout       time.Duration `mapstructure:"idle_timeout"`
	WriteTimeout      time.Duration `mapstructure:"write_timeout"`
	OpenAPISpecPath   string        `mapstructure:"openapi_spec_path"`
}

type DatabaseConfig struct {
	MaxOpenConns    int           `mapstructure:"max_open_conns" validate:"required,min=1"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns" validate:"required,min=1"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime" validate:"required,min=1m"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time" validate:"required,min=1m"`
	Source          string        `mapstructure:"source"`
}

type SecurityConfig struct {
	SessionSecret       string        `mapstructure:"session_secret" validate:"required,min=32"`
	AccessTokenDuration time.Duration `mapstructure:"access_token_duration"`
}

// GatewayConfig configures the hosted-checkout payment gateway client.
type GatewayConfig struct {
	BaseURL        string        `mapstructure:"base_url" validate:"required,url"`
	SecretKey      string        `mapstructure:"secret_key"`
	PublicKey      string        `mapstructure:"public_key"`
	WebhookSecret  string        `mapstructure:"webhook_secret"`
	CallbackURL    string        `mapstructure:"callback_url"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	ReadyTimeout   time.Duration `mapstructure:"ready_timeout"`
}

type PaymentsConfig struct {
	Currency          string        `mapstructure:"currency"`
	CommissionPercent int64         `mapstructure:"commission_percent"`
	PollInterval      time.Duration `mapstructure:"poll_interval"`
	PollDeadline      time.Duration `mapstructure:"poll_deadline"`
	ReconcileInterval time.Duration `mapstructure:"reconcile_interval"`
	ReconcileBatch    int           `mapstructure:"reconcile_batch"`
}

type WithdrawalsConfig struct {
	MinAmountKobo int64         `mapstructure:"min_amount_kobo"`
	RateLimit     int           `mapstructure:"rate_limit"`
	RateWindow    time.Duration `mapstructure:"rate_window"`
}

type EventsConfig struct {
	KafkaEnabled bool     `mapstructure:"kafka_enabled"`
	KafkaBrokers []string `mapstructure:"kafka_brokers"`
	KafkaTopic   string   `mapstructure:"kafka_topic"`
}

type ObservabilityConfig struct {
	Metrics MetricsConfig `mapstructure:"metrics"`
	Logging LoggingConfig `mapstructure:"logging"`
}

type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path" validate:"required_if=Enabled true"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level" validate:"required,oneof=debug info warn error"`
	Format string `mapstructure:"format" validate:"required,oneof=json text"`
}

// ----------------- HELPERS -----------------

func getEnv(key, defaultVal string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultVal
}

func getEnvAsInt(key string, defaultVal int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getEnvAsBool(key string, defaultVal bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultVal
}

func getEnvAsDuration(key string, defaultVal time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultVal
}

// LoadConfigFromEnv builds a full config from environment variables, used for
// container deployments where no config file is mounted.
func LoadConfigFromEnv() *Config {
	return &Config{
		Server: ServerConfig{
			Port:              getEnvAsInt("SERVER_PORT", 8080),
			BaseURL:           getEnv("SERVER_BASE_URL", "http://localhost:8080"),
			AllowedOrigins:    getEnv("SERVER_ALLOWED_ORIGINS", "*"),
			ReadHeaderTimeout: getEnvAsDuration("SERVER_READ_HEADER_TIMEOUT", 5*time.Second),
			ReadTimeout:       getEnvAsDuration("SERVER_READ_TIMEOUT", 15*time.Second),
			IdleTimeout:       getEnvAsDuration("SERVER_IDLE_TIMEOUT", 60*time.Second),
			WriteTimeout:      getEnvAsDuration("SERVER_WRITE_TIMEOUT", 15*time.Second),
			OpenAPISpecPath:   getEnv("SERVER_OPENAPI_SPEC_PATH", "./api/openapi.yml"),
		},
		Database: DatabaseConfig{
			MaxOpenConns:    getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getEnvAsInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getEnvAsDuration("DB_CONN_MAX_LIFETIME", 30*time.Minute),
			ConnMaxIdleTime: getEnvAsDuration("DB_CONN_MAX_IDLE_TIME", 5*time.Minute),
			Source:          getEnv("DB_SOURCE", ""),
		},
		Security: SecurityConfig{
			SessionSecret:       getEnv("SECURITY_SESSION_SECRET", ""),
			AccessTokenDuration: getEnvAsDuration("SECURITY_ACCESS_TOKEN_DURATION", 15*time.Minute),
		},
		Gateway: GatewayConfig{
			BaseURL:        getEnv("GATEWAY_BASE_URL", "https://api.paystack.co"),
			SecretKey:      getEnv("GATEWAY_SECRET_KEY", ""),
			PublicKey:      getEnv("GATEWAY_PUBLIC_KEY", ""),
			WebhookSecret:  getEnv("GATEWAY_WEBHOOK_SECRET", ""),
			CallbackURL:    getEnv("GATEWAY_CALLBACK_URL", ""),
			RequestTimeout: getEnvAsDuration("GATEWAY_REQUEST_TIMEOUT", 30*time.Second),
			ReadyTimeout:   getEnvAsDuration("GATEWAY_READY_TIMEOUT", 5*time.Second),
		},
		Payments: PaymentsConfig{
			Currency:          getEnv("PAYMENTS_CURRENCY", "NGN"),
			CommissionPercent: int64(getEnvAsInt("PAYMENTS_COMMISSION_PERCENT", 20)),
			PollInterval:      getEnvAsDuration("PAYMENTS_POLL_INTERVAL", 2*time.Second),
			PollDeadline:      getEnvAsDuration("PAYMENTS_POLL_DEADLINE", 60*time.Second),
			ReconcileInterval: getEnvAsDuration("PAYMENTS_RECONCILE_INTERVAL", 5*time.Minute),
			ReconcileBatch:    getEnvAsInt("PAYMENTS_RECONCILE_BATCH", 50),
		},
		Withdrawals: WithdrawalsConfig{
			MinAmountKobo: int64(getEnvAsInt("WITHDRAWALS_MIN_AMOUNT_KOBO", 200000)),
			RateLimit:     getEnvAsInt("WITHDRAWALS_RATE_LIMIT", 5),
			RateWindow:    getEnvAsDuration("WITHDRAWALS_RATE_WINDOW", time.Hour),
		},
		Events: EventsConfig{
			KafkaEnabled: getEnvAsBool("EVENTS_KAFKA_ENABLED", false),
			KafkaBrokers: strings.Split(getEnv("EVENTS_KAFKA_BROKERS", "localhost:9092"), ","),
			KafkaTopic:   getEnv("EVENTS_KAFKA_TOPIC", "marketplace.orders"),
		},
		Observability: ObservabilityConfig{
			Metrics: MetricsConfig{
				Enabled: getEnvAsBool("METRICS_ENABLED", true),
				Path:    getEnv("METRICS_PATH", "/metrics"),
			},
			Logging: LoggingConfig{
				Level:  getEnv("LOG_LEVEL", "info"),
				Format: getEnv("LOG_FORMAT", "json"),
			},
		},
	}
}

// ----------------- VALIDATION -----------------

func (c *Config) Validate() error {
	var errs []string

	if err := c.Server.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("server config: %v", err))
	}

	if err := c.Database.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("database config: %v", err))
	}

	if err := c.Security.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("security config: %v", err))
	}

	if err := c.Gateway.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("gateway config: %v", err))
	}

	if err := c.Payments.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("payments config: %v", err))
	}

	if err := c.Withdrawals.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("withdrawals config: %v", err))
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}

	return nil
}

func (c *ServerConfig) Validate() error {
	if c.AllowedOrigins != "" {
		origins := strings.Split(c.AllowedOrigins, ",")
		for _, origin := range origins {
			origin = strings.TrimSpace(origin)
			if origin == "*" {
				continue
			}
			if _, err := url.Parse(origin); err != nil {
				return fmt.Errorf("invalid allowed origin %s: %w", origin, err)
			}
		}
	}
	if c.ReadTimeout < c.ReadHeaderTimeout {
		return errors.New("read_timeout must be >= read_header_timeout")
	}
	return nil
}

func (c *DatabaseConfig) Validate() error {
	if c.MaxIdleConns > c.MaxOpenConns {
		return errors.New("max_idle_conns cannot be greater than max_open_conns")
	}
	return nil
}

func (c *DatabaseConfig) GetDSN() string {
	return c.Source
}

func (c *SecurityConfig) Validate() error {
	if len(c.SessionSecret) < 32 {
		return errors.New("session secret must be at least 32 characters")
	}
	return nil
}

func (c *GatewayConfig) Validate() error {
	if c.BaseURL == "" {
		return errors.New("base_url is required")
	}
	if _, err := url.Parse(c.BaseURL); err != nil {
		return fmt.Errorf("invalid base_url: %w", err)
	}
	if c.SecretKey == "" {
		return errors.New("secret_key is required")
	}
	return nil
}

func (c *PaymentsConfig) Validate() error {
	if c.CommissionPercent < 0 || c.CommissionPercent > 100 {
		return errors.New("commission_percent must be between 0 and 100")
	}
	if c.PollInterval <= 0 {
		return errors.New("poll_interval must be positive")
	}
	if c.PollDeadline < c.PollInterval {
		return errors.New("poll_deadline must be >= poll_interval")
	}
	return nil
}

func (c *WithdrawalsConfig) Validate() error {
	if c.MinAmountKobo < 0 {
		return errors.New("min_amount_kobo cannot be negative")
	}
	return nil
}
