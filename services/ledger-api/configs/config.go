package configs

import (
	"time"

	"github.com/custodialbank/ledger/pkg/utils"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

type Config struct {
	Port          string `mapstructure:"PORT" validate:"required"`
	PrimaryDbAddr string `mapstructure:"PRIMARY_DB_ADDR" validate:"required"`
	ReplicaDbAddr string `mapstructure:"REPLICA_DB_ADDR"`
	MaxDbCons     int32  `mapstructure:"MAX_DB_CONNECTIONS" validate:"min=1"`
	MinDbCons     int32  `mapstructure:"MIN_DB_CONNECTIONS" validate:"min=1"`

	JwtSecret       string `mapstructure:"JWT_SECRET" validate:"required"`
	TokenTTLMinutes int    `mapstructure:"TOKEN_TTL_MINUTES" validate:"min=1"`

	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`

	KafkaBrokers    string `mapstructure:"KAFKA_BROKERS"`
	KafkaAuditTopic string `mapstructure:"KAFKA_AUDIT_TOPIC"`

	TransferMaxRetries   int `mapstructure:"TRANSFER_MAX_RETRIES" validate:"min=1"`
	TransferRetryDelayMs int `mapstructure:"TRANSFER_RETRY_DELAY_MS" validate:"min=1"`
	TransferRatePerSec   int `mapstructure:"TRANSFER_RATE_PER_SEC" validate:"min=0"`
	TransferRateBurst    int `mapstructure:"TRANSFER_RATE_BURST" validate:"min=0"`

	IdempotencyTTLMinutes int `mapstructure:"IDEMPOTENCY_TTL_MINUTES" validate:"min=1"`
}

// TokenTTL returns the configured token lifetime.
func (c *Config) TokenTTL() time.Duration {
	return time.Duration(c.TokenTTLMinutes) * time.Minute
}

// TransferRetryDelay returns the base backoff between transfer conflict retries.
func (c *Config) TransferRetryDelay() time.Duration {
	return time.Duration(c.TransferRetryDelayMs) * time.Millisecond
}

// IdempotencyTTL returns how long stored transfer responses are replayable.
func (c *Config) IdempotencyTTL() time.Duration {
	return time.Duration(c.IdempotencyTTLMinutes) * time.Minute
}

func Load(logger *zap.Logger) (*Config, error) {
	viper.SetEnvPrefix("app") // Prefix for env vars
	viper.AutomaticEnv()

	// Default values
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("MAX_DB_CONNECTIONS", "10")
	viper.SetDefault("MIN_DB_CONNECTIONS", "2")
	viper.SetDefault("TOKEN_TTL_MINUTES", "60")
	viper.SetDefault("KAFKA_AUDIT_TOPIC", "ledger.transfers")
	viper.SetDefault("TRANSFER_MAX_RETRIES", "3")
	viper.SetDefault("TRANSFER_RETRY_DELAY_MS", "25")
	viper.SetDefault("TRANSFER_RATE_PER_SEC", "50")
	viper.SetDefault("TRANSFER_RATE_BURST", "100")
	viper.SetDefault("IDEMPOTENCY_TTL_MINUTES", "1440")

	// Optional: Read from config.yaml if exists
	if gin.ReleaseMode == gin.Mode() {
		viper.SetConfigName("config.prod")
	} else if gin.TestMode == gin.Mode() {
		logger.Warn("running in test mode")
		viper.SetConfigName("config.test")
	} else {
		logger.Warn("running in development mode")
		viper.SetConfigName("config.dev")
	}
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./services/ledger-api/configs")
	_ = viper.ReadInConfig() // Ignore if no file

	var cfg Config
	if err := utils.ParseStructEnv(&cfg); err != nil {
		return nil, err
	}
	// Validate after unmarshal
	validate := validator.New()
	if err := validate.Struct(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
