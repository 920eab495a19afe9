package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Log      LogConfig
	Auth     AuthConfig
	Blob     BlobConfig
	Cart     CartConfig
	Checkout CheckoutConfig
	Order    OrderConfig
	Notify   NotifyConfig
	Outbox   OutboxConfig
	Kafka    KafkaConfig
	Orphan   OrphanConfig
}

type ServerConfig struct {
	Port          int
	SecureCookies bool
	// SessionIdleTTL is how long an untouched cart or checkout stays in memory.
	SessionIdleTTL time.Duration
}

type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	Name            string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	Migrate         bool
}

type LogConfig struct {
	Level  string
	Format string
}

type AuthConfig struct {
	JWTSecret  string
	SessionTTL time.Duration
}

type BlobConfig struct {
	Root          string
	PublicBaseURL string
	SignedURLTTL  time.Duration
	// SigningSecret falls back to the session secret when unset.
	SigningSecret string
}

type CartConfig struct {
	StorageDir string
}

type CheckoutConfig struct {
	MaxScreenshotBytes int64
	VodafoneNumber     string
	InstapayHandle     string
}

type OrderConfig struct {
	MaxRetryAttempts int
	TxTimeout        time.Duration
}

type NotifyConfig struct {
	Driver        string
	From          string
	ResendAPIKey  string
	ResendBaseURL string
	SMTPHost      string
	SMTPPort      int
	SMTPUser      string
	SMTPPassword  string
}

type OutboxConfig struct {
	PollInterval time.Duration
	BatchSize    int
	MaxAttempts  int
}

type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// Enabled reports whether order events should be published to Kafka.
func (k KafkaConfig) Enabled() bool {
	return len(k.Brokers) > 0
}

type OrphanConfig struct {
	SweepInterval time.Duration
	MinAge        time.Duration
}

// Load reads configuration from the environment, an optional .env file and
// an optional YAML file named by CONFIG_FILE. Real environment variables win
// over both files.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)

	if path := v.GetString("CONFIG_FILE"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:           v.GetInt("SERVER_PORT"),
			SecureCookies:  v.GetBool("SERVER_SECURE_COOKIES"),
			SessionIdleTTL: v.GetDuration("SERVER_SESSION_IDLE_TTL"),
		},
		Database: DatabaseConfig{
			Host:            v.GetString("DB_HOST"),
			Port:            v.GetInt("DB_PORT"),
			User:            v.GetString("DB_USER"),
			Password:        v.GetString("DB_PASSWORD"),
			Name:            v.GetString("DB_NAME"),
			MaxOpenConns:    v.GetInt("DB_MAX_OPEN_CONNS"),
			MaxIdleConns:    v.GetInt("DB_MAX_IDLE_CONNS"),
			ConnMaxLifetime: v.GetDuration("DB_CONN_MAX_LIFETIME"),
			Migrate:         v.GetBool("DB_MIGRATE"),
		},
		Log: LogConfig{
			Level:  v.GetString("LOG_LEVEL"),
			Format: v.GetString("LOG_FORMAT"),
		},
		Auth: AuthConfig{
			JWTSecret:  v.GetString("AUTH_JWT_SECRET"),
			SessionTTL: v.GetDuration("AUTH_SESSION_TTL"),
		},
		Blob: BlobConfig{
			Root:          v.GetString("BLOB_ROOT"),
			PublicBaseURL: strings.TrimRight(v.GetString("BLOB_PUBLIC_BASE_URL"), "/"),
			SignedURLTTL:  v.GetDuration("BLOB_SIGNED_URL_TTL"),
			SigningSecret: v.GetString("BLOB_SIGNING_SECRET"),
		},
		Cart: CartConfig{
			StorageDir: v.GetString("CART_STORAGE_DIR"),
		},
		Checkout: CheckoutConfig{
			MaxScreenshotBytes: v.GetInt64("CHECKOUT_MAX_SCREENSHOT_BYTES"),
			VodafoneNumber:     v.GetString("PAYMENT_VODAFONE_NUMBER"),
			InstapayHandle:     v.GetString("PAYMENT_INSTAPAY_HANDLE"),
		},
		Order: OrderConfig{
			MaxRetryAttempts: v.GetInt("ORDER_MAX_RETRY_ATTEMPTS"),
			TxTimeout:        v.GetDuration("ORDER_TX_TIMEOUT"),
		},
		Notify: NotifyConfig{
			Driver:        strings.ToLower(v.GetString("NOTIFY_DRIVER")),
			From:          v.GetString("NOTIFY_FROM"),
			ResendAPIKey:  v.GetString("RESEND_API_KEY"),
			ResendBaseURL: v.GetString("RESEND_BASE_URL"),
			SMTPHost:      v.GetString("SMTP_HOST"),
			SMTPPort:      v.GetInt("SMTP_PORT"),
			SMTPUser:      v.GetString("SMTP_USER"),
			SMTPPassword:  v.GetString("SMTP_PASSWORD"),
		},
		Outbox: OutboxConfig{
			PollInterval: v.GetDuration("OUTBOX_POLL_INTERVAL"),
			BatchSize:    v.GetInt("OUTBOX_BATCH_SIZE"),
			MaxAttempts:  v.GetInt("OUTBOX_MAX_ATTEMPTS"),
		},
		Kafka: KafkaConfig{
			Brokers: splitList(v.GetString("KAFKA_BROKERS")),
			Topic:   v.GetString("KAFKA_TOPIC"),
		},
		Orphan: OrphanConfig{
			SweepInterval: v.GetDuration("ORPHAN_SWEEP_INTERVAL"),
			MinAge:        v.GetDuration("ORPHAN_MIN_AGE"),
		},
	}

	if cfg.Blob.SigningSecret == "" {
		cfg.Blob.SigningSecret = cfg.Auth.JWTSecret
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("SERVER_PORT", 8080)
	v.SetDefault("SERVER_SECURE_COOKIES", false)
	v.SetDefault("SERVER_SESSION_IDLE_TTL", "2h")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 3306)
	v.SetDefault("DB_USER", "furniture")
	v.SetDefault("DB_PASSWORD", "secret")
	v.SetDefault("DB_NAME", "furniture")
	v.SetDefault("DB_MAX_OPEN_CONNS", 25)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)
	v.SetDefault("DB_CONN_MAX_LIFETIME", "5m")
	v.SetDefault("DB_MIGRATE", true)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
	v.SetDefault("AUTH_SESSION_TTL", "24h")
	v.SetDefault("BLOB_ROOT", "./data/blobs")
	v.SetDefault("BLOB_PUBLIC_BASE_URL", "")
	v.SetDefault("BLOB_SIGNED_URL_TTL", "1h")
	v.SetDefault("CART_STORAGE_DIR", "./data/carts")
	v.SetDefault("CHECKOUT_MAX_SCREENSHOT_BYTES", 5*1024*1024)
	v.SetDefault("PAYMENT_VODAFONE_NUMBER", "+201060044708")
	v.SetDefault("PAYMENT_INSTAPAY_HANDLE", "@capital-furniture")
	v.SetDefault("ORDER_MAX_RETRY_ATTEMPTS", 3)
	v.SetDefault("ORDER_TX_TIMEOUT", "5s")
	v.SetDefault("NOTIFY_DRIVER", "log")
	v.SetDefault("NOTIFY_FROM", "capital Furniture <onboarding@resend.dev>")
	v.SetDefault("RESEND_BASE_URL", "https://api.resend.com")
	v.SetDefault("SMTP_PORT", 587)
	v.SetDefault("OUTBOX_POLL_INTERVAL", "5s")
	v.SetDefault("OUTBOX_BATCH_SIZE", 20)
	v.SetDefault("OUTBOX_MAX_ATTEMPTS", 8)
	v.SetDefault("KAFKA_BROKERS", "")
	v.SetDefault("KAFKA_TOPIC", "furniture.order-events")
	v.SetDefault("ORPHAN_SWEEP_INTERVAL", "1h")
	v.SetDefault("ORPHAN_MIN_AGE", "24h")
}

func (c *Config) validate() error {
	if c.Auth.JWTSecret == "" {
		return errors.New("AUTH_JWT_SECRET must be set")
	}
	switch c.Notify.Driver {
	case "log", "smtp":
	case "resend":
		if c.Notify.ResendAPIKey == "" {
			return errors.New("RESEND_API_KEY must be set when NOTIFY_DRIVER=resend")
		}
	default:
		return fmt.Errorf("unknown NOTIFY_DRIVER %q", c.Notify.Driver)
	}
	if c.Checkout.MaxScreenshotBytes <= 0 {
		return errors.New("CHECKOUT_MAX_SCREENSHOT_BYTES must be positive")
	}
	if c.Order.MaxRetryAttempts < 1 {
		return errors.New("ORDER_MAX_RETRY_ATTEMPTS must be at least 1")
	}
	return nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
