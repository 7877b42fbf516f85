package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"github.com/stayprice/stayprice/internal/types"
)

type Configuration struct {
	Deployment DeploymentConfig `validate:"required"`
	Server     ServerConfig     `validate:"required"`
	Logging    LoggingConfig    `validate:"required"`
	Postgres   PostgresConfig   `validate:"required"`
	Stripe     StripeConfig
	AI         AIConfig
	Scheduler  SchedulerConfig
	PMS        PMSConfig
}

type DeploymentConfig struct {
	Mode types.RunMode `validate:"required"`
}

type ServerConfig struct {
	Address     string `validate:"required"`
	FrontendURL string `mapstructure:"frontend_url"`
}

type LoggingConfig struct {
	Level types.LogLevel `validate:"required"`
}

type PostgresConfig struct {
	Host        string
	Port        int
	User        string
	Password    string
	DBName      string
	SSLMode     string
	AutoMigrate bool
}

// StripeConfig carries the payment provider credentials and the two
// recurring price ids billed per property unit. SecretKey and WebhookSecret
// are fatal at startup outside local mode.
type StripeConfig struct {
	SecretKey       string `mapstructure:"secret_key"`
	WebhookSecret   string `mapstructure:"webhook_secret"`
	PriceParentID   string `mapstructure:"price_parent_id"`
	PriceChildID    string `mapstructure:"price_child_id"`
	ProductParentID string `mapstructure:"product_parent_id"`
	ProductChildID  string `mapstructure:"product_child_id"`
}

// AIConfig drives the AI pricing fallback path
type AIConfig struct {
	APIKey      string        `mapstructure:"api_key"`
	BaseURL     string        `mapstructure:"base_url"`
	Model       string        `mapstructure:"model"`
	Timeout     time.Duration `mapstructure:"timeout"`
	MaxAttempts int           `mapstructure:"max_attempts"`
}

// SchedulerConfig drives the hourly auto-pricing tick
type SchedulerConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	Workers         int           `mapstructure:"workers"`
	PropertyTimeout time.Duration `mapstructure:"property_timeout"`
	RetryAfter      time.Duration `mapstructure:"retry_after"`
}

type PMSConfig struct {
	Smoobu PMSBackendConfig
	Beds24 PMSBackendConfig
}

type PMSBackendConfig struct {
	BaseURL string `mapstructure:"base_url"`
}

func NewConfig() (*Configuration, error) {
	// Local development keeps secrets in a .env file; absence is fine
	_ = godotenv.Load()

	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./internal/config")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/stayprice")

	v.SetEnvPrefix("STAYPRICE")
	v.SetEnvKeyReplacer(strings.NewReplacer(
		".", "_",
		"-", "_",
	))
	v.AutomaticEnv()

	// Conventional env vars used by deploy targets, bound explicitly so
	// they work without the STAYPRICE_ prefix
	_ = v.BindEnv("server.address", "PORT")
	_ = v.BindEnv("server.frontend_url", "FRONTEND_URL")
	_ = v.BindEnv("stripe.secret_key", "STRIPE_SECRET_KEY")
	_ = v.BindEnv("stripe.webhook_secret", "STRIPE_WEBHOOK_SECRET")
	_ = v.BindEnv("stripe.price_parent_id", "STRIPE_PRICE_PARENT_ID", "STRIPE_PRICE_PRINCIPAL_ID")
	_ = v.BindEnv("stripe.price_child_id", "STRIPE_PRICE_CHILD_ID")
	_ = v.BindEnv("stripe.product_parent_id", "STRIPE_PRODUCT_PARENT_ID")
	_ = v.BindEnv("stripe.product_child_id", "STRIPE_PRODUCT_CHILD_ID")
	_ = v.BindEnv("ai.api_key", "OPENAI_API_KEY", "PERPLEXITY_API_KEY")

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if !errors.As(err, &viper.ConfigFileNotFoundError{}) {
			return nil, err
		}
	}

	var config Configuration
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("deployment.mode", types.ModeAPI)
	v.SetDefault("server.address", ":8080")
	v.SetDefault("logging.level", types.LogLevelInfo)
	v.SetDefault("postgres.host", "localhost")
	v.SetDefault("postgres.port", 5432)
	v.SetDefault("postgres.sslmode", "disable")
	v.SetDefault("postgres.automigrate", true)
	v.SetDefault("ai.model", "gpt-4o-mini")
	v.SetDefault("ai.timeout", 90*time.Second)
	v.SetDefault("ai.max_attempts", 3)
	v.SetDefault("scheduler.enabled", true)
	v.SetDefault("scheduler.workers", 4)
	v.SetDefault("scheduler.property_timeout", 5*time.Minute)
	v.SetDefault("scheduler.retry_after", time.Hour)
	v.SetDefault("pms.smoobu.base_url", "https://login.smoobu.com/api")
	v.SetDefault("pms.beds24.base_url", "https://beds24.com/api/v2")
}

func (c Configuration) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return err
	}

	// Billing cannot run without the payment provider; fail fast outside
	// local development
	if c.Deployment.Mode != types.ModeLocal {
		if c.Stripe.SecretKey == "" || c.Stripe.WebhookSecret == "" {
			return fmt.Errorf("stripe credentials are required in %s mode", c.Deployment.Mode)
		}
		if c.Stripe.PriceParentID == "" || c.Stripe.PriceChildID == "" {
			return fmt.Errorf("stripe parent/child price ids are required in %s mode", c.Deployment.Mode)
		}
	}

	return nil
}

// GetDefaultConfig returns a default configuration for local development.
// This is useful for running scripts or other non-web applications.
func GetDefaultConfig() *Configuration {
	return &Configuration{
		Deployment: DeploymentConfig{Mode: types.ModeLocal},
		Server:     ServerConfig{Address: ":8080"},
		Logging:    LoggingConfig{Level: types.LogLevelDebug},
		Scheduler: SchedulerConfig{
			Enabled:         true,
			Workers:         4,
			PropertyTimeout: 5 * time.Minute,
			RetryAfter:      time.Hour,
		},
		AI: AIConfig{
			Model:       "gpt-4o-mini",
			Timeout:     90 * time.Second,
			MaxAttempts: 3,
		},
	}
}

func (c PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"user=%s password=%s dbname=%s host=%s port=%d sslmode=%s",
		c.User,
		c.Password,
		c.DBName,
		c.Host,
		c.Port,
		c.SSLMode,
	)
}
