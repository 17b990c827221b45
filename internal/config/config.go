package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"

	"github.com/cypherlabdev/stake-calculator-service/internal/models"
	"github.com/cypherlabdev/stake-calculator-service/pkg/calculator"
)

// Config holds all configuration for stake-calculator-service
type Config struct {
	Server     ServerConfig
	Kafka      KafkaConfig
	Redis      RedisConfig
	Calculator CalculatorConfig
	Logging    LoggingConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port           int
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
	AllowedOrigins []string      `mapstructure:"allowed_origins"` // CORS origins of the course frontend
}

// KafkaConfig holds Kafka configuration
type KafkaConfig struct {
	Enabled      bool
	Brokers      []string
	RequestTopic string `mapstructure:"request_topic"` // Topic to consume from (stake_requests)
	ResultTopic  string `mapstructure:"result_topic"`  // Topic to publish to (stake_results)
	GroupID      string `mapstructure:"group_id"`
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

// CalculatorConfig holds calculator defaults and thresholds
type CalculatorConfig struct {
	DefaultBankroll        float64 `mapstructure:"default_bankroll"`
	DefaultDecimalOdds     float64 `mapstructure:"default_decimal_odds"`
	DefaultProbabilityPct  float64 `mapstructure:"default_probability_pct"`
	DefaultRiskFractionPct float64 `mapstructure:"default_risk_fraction_pct"`
	GoodEdgeThresholdPct   float64 `mapstructure:"good_edge_threshold_pct"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
}

// LoadEnvFile loads variables from a .env file into the process environment.
// A missing file is not an error.
func LoadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load env file: %w", err)
	}
	return nil
}

// LoadConfig loads configuration from file and environment variables
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()

	// Set defaults
	v.SetDefault("server.port", 8084)
	v.SetDefault("server.read_timeout", 10*time.Second)
	v.SetDefault("server.write_timeout", 10*time.Second)
	v.SetDefault("server.allowed_origins", []string{"http://localhost:3000", "http://localhost:5173"})

	v.SetDefault("kafka.enabled", true)
	v.SetDefault("kafka.brokers", []string{"localhost:9092"})
	v.SetDefault("kafka.request_topic", "stake_requests")
	v.SetDefault("kafka.result_topic", "stake_results")
	v.SetDefault("kafka.group_id", "stake-calculator")

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.ttl", 15*time.Minute)

	v.SetDefault("calculator.default_bankroll", 10000.0)
	v.SetDefault("calculator.default_decimal_odds", 2.0)
	v.SetDefault("calculator.default_probability_pct", 55.0)
	v.SetDefault("calculator.default_risk_fraction_pct", 50.0)
	v.SetDefault("calculator.good_edge_threshold_pct", 5.0)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	// Read config file if provided
	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Override with environment variables
	v.SetEnvPrefix("STAKE_CALCULATOR")
	v.AutomaticEnv()
	// Replace . with _ for environment variables
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := config.Calculator.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// ToCalculatorParams converts config to calculator parameters
func (c *CalculatorConfig) ToCalculatorParams() models.CalculatorParams {
	return models.CalculatorParams{
		GoodEdgeThresholdPct: decimal.NewFromFloat(c.GoodEdgeThresholdPct),
	}
}

// DefaultInputs returns the inputs a fresh calculator form starts from
func (c *CalculatorConfig) DefaultInputs() models.StakeInputs {
	return models.StakeInputs{
		Bankroll:                decimal.NewFromFloat(c.DefaultBankroll),
		DecimalOdds:             decimal.NewFromFloat(c.DefaultDecimalOdds),
		EstimatedProbabilityPct: decimal.NewFromFloat(c.DefaultProbabilityPct),
		RiskFractionPct:         decimal.NewFromFloat(c.DefaultRiskFractionPct),
	}
}

// Validate rejects default inputs the calculator would refuse, and a negative good-edge threshold
func (c *CalculatorConfig) Validate() error {
	if c.GoodEdgeThresholdPct < 0 {
		return fmt.Errorf("invalid calculator config: good_edge_threshold_pct must not be negative, got %v", c.GoodEdgeThresholdPct)
	}
	if err := calculator.Validate(c.DefaultInputs()); err != nil {
		return fmt.Errorf("invalid calculator defaults: %w", err)
	}
	return nil
}
