package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = ""

	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

type Config struct {
	App          AppConfig
	Service      ServiceConfig
	DB           DBConfig
	Redis        RedisConfig
	Stripe       StripeConfig
	Sendgrid     SendgridConfig
	Dispatcher   DispatcherConfig
	Reminders    ReminderConfig
	FeatureFlags FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if cfg.DB.DSN == "" {
		return nil, fmt.Errorf("OREMUS_DB_DSN is required")
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"OREMUS_APP_ENV" required:"true"`
	Port         string `envconfig:"OREMUS_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"OREMUS_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"OREMUS_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"OREMUS_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN string `envconfig:"OREMUS_DB_DSN"`

	MaxOpenConns    int           `envconfig:"OREMUS_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"OREMUS_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"OREMUS_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"OREMUS_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"OREMUS_REDIS_URL" required:"true"`
	Password     string        `envconfig:"OREMUS_REDIS_PASSWORD"`
	DB           int           `envconfig:"OREMUS_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"OREMUS_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"OREMUS_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"OREMUS_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"OREMUS_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"OREMUS_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type StripeConfig struct {
	APIKey        string        `envconfig:"OREMUS_STRIPE_API_KEY"`
	WebhookSecret string        `envconfig:"OREMUS_STRIPE_WEBHOOK_SECRET" required:"true"`
	EventTTL      time.Duration `envconfig:"OREMUS_STRIPE_EVENT_TTL" default:"72h"`
	HandleTimeout time.Duration `envconfig:"OREMUS_STRIPE_HANDLE_TIMEOUT" default:"10s"`
}

type SendgridConfig struct {
	APIKey      string        `envconfig:"OREMUS_SENDGRID_API_KEY"`
	DefaultFrom string        `envconfig:"OREMUS_SENDGRID_FROM_EMAIL" default:"contact@oremus.app"`
	FromName    string        `envconfig:"OREMUS_SENDGRID_FROM_NAME" default:"Oremus"`
	SendTimeout time.Duration `envconfig:"OREMUS_SENDGRID_SEND_TIMEOUT" default:"10s"`
}

type DispatcherConfig struct {
	Interval      time.Duration `envconfig:"OREMUS_DISPATCH_INTERVAL" default:"1m"`
	BatchSize     int           `envconfig:"OREMUS_DISPATCH_BATCH_SIZE" default:"25"`
	MaxAttempts   int           `envconfig:"OREMUS_DISPATCH_MAX_ATTEMPTS" default:"3"`
	RetentionDays int           `envconfig:"OREMUS_NOTIFICATION_RETENTION_DAYS" default:"30"`
	AlertUserID   string        `envconfig:"OREMUS_DISPATCH_ALERT_USER_ID"`
}

type ReminderConfig struct {
	Window time.Duration `envconfig:"OREMUS_REMINDER_WINDOW" default:"48h"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"OREMUS_AUTO_MIGRATE" default:"false"`
}
