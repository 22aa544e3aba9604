package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/billcycle/billcycle/internal/types"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

type Configuration struct {
	Deployment DeploymentConfig `validate:"required"`
	Server     ServerConfig     `validate:"required"`
	Logging    LoggingConfig    `validate:"required"`
	Postgres   PostgresConfig   `validate:"required"`
	Gateway    GatewayConfig    `validate:"required"`
	Billing    BillingConfig    `validate:"required"`
}

type DeploymentConfig struct {
	Mode types.RunMode `validate:"required"`
}

type ServerConfig struct {
	Address string `validate:"required"`
}

type LoggingConfig struct {
	Level types.LogLevel `validate:"required"`
}

type PostgresConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// GatewayConfig configures the payment gateway client
type GatewayConfig struct {
	BaseURL string        `validate:"required"`
	APIKey  string        `validate:"required"`
	Timeout time.Duration `validate:"required"`
}

// BillingConfig holds the billing policy knobs
type BillingConfig struct {
	// Currency is the fixed charge currency in lowercase 3 letter ISO code
	Currency string `validate:"required"`
	// MaxPaymentAttempts is the retry ceiling after which a subscription is suspended
	MaxPaymentAttempts int `validate:"required,gt=0"`
	// RenewalWindowDays is how many days before the end date a subscription
	// becomes a renewal candidate
	RenewalWindowDays int `validate:"required,gt=0"`
}

func NewConfig() (*Configuration, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./internal/config")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/billcycle")

	v.SetEnvPrefix("BILLCYCLE")
	v.SetEnvKeyReplacer(strings.NewReplacer(
		".", "_",
		"-", "_",
	))
	v.AutomaticEnv()

	setDefaults(v)

	// Read config file if exists
	if err := v.ReadInConfig(); err != nil {
		if !errors.As(err, &viper.ConfigFileNotFoundError{}) {
			return nil, err
		}
	} else {
		fmt.Printf("Using config file: %s\n", v.ConfigFileUsed())
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
	v.SetDefault("deployment.mode", types.ModeLocal)
	v.SetDefault("server.address", ":8080")
	v.SetDefault("logging.level", types.LogLevelInfo)
	v.SetDefault("gateway.timeout", 30*time.Second)
	v.SetDefault("billing.currency", "usd")
	v.SetDefault("billing.maxpaymentattempts", 3)
	v.SetDefault("billing.renewalwindowdays", 7)
}

func (c Configuration) Validate() error {
	validate := validator.New()
	return validate.Struct(c)
}

// GetDefaultConfig returns a default configuration for local development
// and tests. This is useful for running scripts or other non-web applications.
func GetDefaultConfig() *Configuration {
	return &Configuration{
		Deployment: DeploymentConfig{Mode: types.ModeLocal},
		Logging:    LoggingConfig{Level: types.LogLevelInfo},
		Gateway: GatewayConfig{
			BaseURL: "http://localhost:9090",
			APIKey:  "test-api-key",
			Timeout: 30 * time.Second,
		},
		Billing: BillingConfig{
			Currency:           "usd",
			MaxPaymentAttempts: 3,
			RenewalWindowDays:  7,
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
